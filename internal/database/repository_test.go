package database

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"bookscout/internal/model"
)

var (
	pool *pgxpool.Pool
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	// Define the PostgreSQL container request
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpassword",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}

	// Create and start the PostgreSQL container
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %s", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Fatalf("could not stop postgres container: %s", err)
		}
	}()

	// Get the container's mapped port and host
	host, err := pgContainer.Host(ctx)
	if err != nil {
		log.Fatalf("could not get container host: %s", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("could not get mapped port: %s", err)
	}

	// Create the database connection string
	connStr := "postgres://testuser:testpassword@" + host + ":" + port.Port() + "/testdb"

	// Create a new connection pool
	pool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("could not connect to database: %s", err)
	}
	defer pool.Close()

	repo := NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("could not migrate: %s", err)
	}

	// Run the tests
	code := m.Run()

	os.Exit(code)
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func TestPostgresRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(pool)

	deal := model.Deal{
		ItemID:         "v1|1001|0",
		Title:          "Fundamentals of Thermodynamics",
		TotalCents:     1649,
		Condition:      "Very Good",
		Seller:         "thriftreads",
		ShippingCents:  350,
		ItemURL:        "https://www.ebay.com/itm/1001",
		ISBN:           strPtr("9780306406157"),
		FBAProfitCents: intPtr(1016),
		Decision:       strPtr("BUY"),
		Score:          intPtr(85),
	}

	require.NoError(t, repo.SaveDeal(ctx, deal))

	deals, err := repo.ListDeals(ctx, Filter{Status: model.StatusNew})
	require.NoError(t, err)
	require.Len(t, deals, 1)

	got := deals[0]
	assert.Equal(t, deal.ItemID, got.ItemID)
	assert.Equal(t, deal.Title, got.Title)
	assert.Equal(t, 1649, got.TotalCents)
	require.NotNil(t, got.ISBN)
	assert.Equal(t, "9780306406157", *got.ISBN)
	require.NotNil(t, got.FBAProfitCents)
	assert.Equal(t, 1016, *got.FBAProfitCents)
	assert.Equal(t, model.StatusNew, got.Status)
	assert.False(t, got.FirstSeen.IsZero())
}

func TestPostgresRepository_UpsertKeepsISBNAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(pool)

	original := model.Deal{
		ItemID:     "v1|1002|0",
		Title:      "Calculus",
		TotalCents: 2200,
		ISBN:       strPtr("9780262033848"),
	}
	require.NoError(t, repo.SaveDeal(ctx, original))
	require.NoError(t, repo.SetStatus(ctx, "v1|1002|0", model.StatusBought))

	// A rescan without a resolved ISBN must not erase the stored one,
	// and must not reset the operator's triage status.
	rescan := model.Deal{
		ItemID:     "v1|1002|0",
		Title:      "Calculus (3rd ed)",
		TotalCents: 2100,
	}
	require.NoError(t, repo.SaveDeal(ctx, rescan))

	deals, err := repo.ListDeals(ctx, Filter{Status: model.StatusBought})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "Calculus (3rd ed)", deals[0].Title)
	require.NotNil(t, deals[0].ISBN)
	assert.Equal(t, "9780262033848", *deals[0].ISBN)
}

func TestPostgresRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(pool)

	low := model.Deal{ItemID: "v1|1003|0", Title: "Low profit reader", TotalCents: 900, FBAProfitCents: intPtr(150), Decision: strPtr("REJECT")}
	high := model.Deal{ItemID: "v1|1004|0", Title: "High profit textbook", TotalCents: 1200, FBAProfitCents: intPtr(1500), Decision: strPtr("BUY")}
	require.NoError(t, repo.SaveDeal(ctx, low))
	require.NoError(t, repo.SaveDeal(ctx, high))

	// Thresholds chosen above every deal the earlier tests persisted.
	deals, err := repo.ListDeals(ctx, Filter{MinProfitCents: 1200})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "v1|1004|0", deals[0].ItemID)

	deals, err = repo.ListDeals(ctx, Filter{Decision: "REJECT"})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "v1|1003|0", deals[0].ItemID)

	deals, err = repo.ListDeals(ctx, Filter{Query: "textbook"})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "v1|1004|0", deals[0].ItemID)
}

func TestPostgresRepository_SetStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(pool)

	deal := model.Deal{ItemID: "v1|1005|0", Title: "Triage me", TotalCents: 500}
	require.NoError(t, repo.SaveDeal(ctx, deal))

	require.NoError(t, repo.SetStatus(ctx, "v1|1005|0", model.StatusRejected))

	deals, err := repo.ListDeals(ctx, Filter{Status: model.StatusRejected})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, "v1|1005|0", deals[0].ItemID)

	assert.ErrorIs(t, repo.SetStatus(ctx, "v1|missing|0", model.StatusBought), ErrNotFound)
	assert.Error(t, repo.SetStatus(ctx, "v1|1005|0", "maybe"))
}
