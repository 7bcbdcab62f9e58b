package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"bookscout/internal/apierr"
	"bookscout/internal/config"
	"bookscout/internal/database"
	"bookscout/internal/ebay"
	"bookscout/internal/model"
	"bookscout/internal/scanner"
)

// Scans triggers a marketplace scan. Satisfied by *scanner.Scanner.
type Scans interface {
	Scan(ctx context.Context, query string, opts ebay.SearchOptions) (*scanner.ScanResult, error)
}

// Server is the dashboard API: deal listing and triage, on-demand scans
// and the scan progress stream.
type Server struct {
	logger *slog.Logger
	repo   database.Repository
	scans  Scans
	hub    *Hub
	scan   config.ScanConfig
	cors   []string
}

// NewServer wires the dashboard API. hub may be nil when no stream is served.
func NewServer(logger *slog.Logger, repo database.Repository, scans Scans, hub *Hub, scanCfg config.ScanConfig, corsOrigins []string) *Server {
	return &Server{
		logger: logger,
		repo:   repo,
		scans:  scans,
		hub:    hub,
		scan:   scanCfg,
		cors:   corsOrigins,
	}
}

// Router assembles the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cors,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/deals", s.handleListDeals)
		r.Post("/deals/{itemID}/status", s.handleSetStatus)
		r.Post("/scan", s.handleScan)
		if s.hub != nil {
			r.Get("/scan/ws", s.hub.HandleWebSocket)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}
	if s.hub != nil {
		health["dashboards"] = s.hub.ClientCount()
	}
	s.respondJSON(w, http.StatusOK, health)
}

// handleListDeals returns persisted deals, newest first.
// Query params: status, decision, q, min_profit_cents, limit.
func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filter := database.Filter{
		Status:         r.URL.Query().Get("status"),
		Decision:       r.URL.Query().Get("decision"),
		Query:          r.URL.Query().Get("q"),
		MinProfitCents: parseIntParam(r, "min_profit_cents", 0),
		Limit:          parseIntParam(r, "limit", 0),
	}

	deals, err := s.repo.ListDeals(ctx, filter)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to retrieve deals", err)
		return
	}
	if deals == nil {
		deals = []model.Deal{}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"deals": deals,
		"count": len(deals),
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

// handleSetStatus records the operator's triage verdict for a deal.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		s.respondError(w, http.StatusBadRequest, "item_id is required", nil)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	switch req.Status {
	case model.StatusNew, model.StatusBought, model.StatusRejected:
	default:
		s.respondError(w, http.StatusBadRequest, "status must be new, bought or rejected", nil)
		return
	}

	if err := s.repo.SetStatus(ctx, itemID, req.Status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "deal not found", nil)
			return
		}
		s.respondError(w, http.StatusInternalServerError, "failed to update status", err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"itemId": itemID,
		"status": req.Status,
	})
}

type scanRequest struct {
	Query string `json:"query"`
}

// handleScan runs a scan synchronously and returns the scored deals.
// Progress is streamed over the websocket while the request is in flight.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}
	query := req.Query
	if query == "" {
		query = s.scan.Query
	}
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required", nil)
		return
	}

	result, err := s.scans.Scan(r.Context(), query, ebay.OptionsFromConfig(s.scan))
	if err != nil {
		status, message := classifyScanError(err)
		s.respondError(w, status, message, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// classifyScanError maps client failures onto stable dashboard messages.
// Upstream response bodies are never echoed back.
func classifyScanError(err error) (int, string) {
	switch apierr.KindOf(err) {
	case apierr.KindConfig:
		return http.StatusInternalServerError, "service is not configured for scanning"
	case apierr.KindAuth:
		return http.StatusBadGateway, "marketplace authentication failed"
	case apierr.KindRateLimit:
		return http.StatusServiceUnavailable, "marketplace rate limit reached, try again later"
	default:
		return http.StatusBadGateway, "scan failed"
	}
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.logger.Error(message, "error", err)
	}
	s.respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
