package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"bookscout/internal/arbitrage"
	"bookscout/internal/config"
	"bookscout/internal/database"
	"bookscout/internal/ebay"
	"bookscout/internal/keepa"
	"bookscout/internal/scanner"
	"bookscout/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error("cannot connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := database.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("cannot migrate database", "error", err)
		os.Exit(1)
	}

	listings := ebay.NewClient(logger, cfg.Ebay)
	products := keepa.NewClient(logger, cfg.Keepa)
	engine := arbitrage.NewEngine(logger, cfg.Fees, cfg.Decision)

	hub := server.NewHub(logger)
	go hub.Run(ctx)

	scans := scanner.NewScanner(logger, listings, products, engine, repo,
		hub, cfg.Scan.IsbnProbeLimit, cfg.Scan.EnrichLimit)

	scheduler := cron.New()
	if cfg.Scan.Schedule != "" {
		_, err := scheduler.AddFunc(cfg.Scan.Schedule, func() {
			runScheduledScan(ctx, logger, scans, cfg.Scan)
		})
		if err != nil {
			logger.Error("invalid scan schedule", "schedule", cfg.Scan.Schedule, "error", err)
			os.Exit(1)
		}
		logger.Info("scheduled scans enabled", "schedule", cfg.Scan.Schedule)
	}
	scheduler.AddFunc("@hourly", func() {
		if evicted := listings.SweepExpired(); evicted > 0 {
			logger.Info("item cache swept", "evicted", evicted)
		}
	})
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewServer(logger, repo, scans, hub, cfg.Scan, cfg.Server.CORSOrigins).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 130 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", "port", cfg.Server.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", "error", err)
			srv.Close()
		}
	}

	logger.Info("shutdown complete")
}

func runScheduledScan(ctx context.Context, logger *slog.Logger, scans *scanner.Scanner, cfg config.ScanConfig) {
	scanCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	result, err := scans.Scan(scanCtx, cfg.Query, ebay.OptionsFromConfig(cfg))
	if err != nil {
		logger.Error("scheduled scan failed", "error", err)
		return
	}
	logger.Info("scheduled scan finished", "scanId", result.ScanID, "total", result.Total, "deals", len(result.Deals))
}
