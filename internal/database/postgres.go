package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookscout/internal/model"
)

// PostgresRepository stores scanned deals in the table the dashboard reads.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository on top of an existing pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

const createDealsTableSQL = `
CREATE TABLE IF NOT EXISTS deals (
	item_id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	total_cents BIGINT NOT NULL,
	condition TEXT NOT NULL DEFAULT '',
	seller TEXT NOT NULL DEFAULT '',
	seller_feedback_pct DOUBLE PRECISION,
	image_url TEXT,
	shipping_cents BIGINT NOT NULL DEFAULT 0,
	item_url TEXT NOT NULL DEFAULT '',
	isbn TEXT,
	asin TEXT,
	buy_box_cents BIGINT,
	sales_rank BIGINT,
	sales_rank_drops30 INT,
	fba_profit_cents BIGINT,
	fbm_profit_cents BIGINT,
	fba_roi INT,
	decision TEXT,
	decision_reason TEXT,
	score INT,
	status TEXT NOT NULL DEFAULT 'new',
	first_seen TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Migrate creates the deals table when it does not exist yet.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createDealsTableSQL); err != nil {
		return fmt.Errorf("failed to migrate deals table: %w", err)
	}
	return nil
}

// SaveDeal upserts one scanned deal. Enrichment columns are refreshed on
// conflict, but a previously resolved ISBN and the operator's triage
// status are never overwritten by a rescan.
func (r *PostgresRepository) SaveDeal(ctx context.Context, deal model.Deal) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO deals (
			item_id, title, total_cents, condition, seller, seller_feedback_pct,
			image_url, shipping_cents, item_url, isbn, asin, buy_box_cents,
			sales_rank, sales_rank_drops30, fba_profit_cents, fbm_profit_cents,
			fba_roi, decision, decision_reason, score, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21
		)
		ON CONFLICT (item_id) DO UPDATE SET
			title = EXCLUDED.title,
			total_cents = EXCLUDED.total_cents,
			condition = EXCLUDED.condition,
			seller = EXCLUDED.seller,
			seller_feedback_pct = EXCLUDED.seller_feedback_pct,
			image_url = COALESCE(EXCLUDED.image_url, deals.image_url),
			shipping_cents = EXCLUDED.shipping_cents,
			item_url = EXCLUDED.item_url,
			isbn = COALESCE(deals.isbn, EXCLUDED.isbn),
			asin = COALESCE(EXCLUDED.asin, deals.asin),
			buy_box_cents = COALESCE(EXCLUDED.buy_box_cents, deals.buy_box_cents),
			sales_rank = COALESCE(EXCLUDED.sales_rank, deals.sales_rank),
			sales_rank_drops30 = COALESCE(EXCLUDED.sales_rank_drops30, deals.sales_rank_drops30),
			fba_profit_cents = COALESCE(EXCLUDED.fba_profit_cents, deals.fba_profit_cents),
			fbm_profit_cents = COALESCE(EXCLUDED.fbm_profit_cents, deals.fbm_profit_cents),
			fba_roi = COALESCE(EXCLUDED.fba_roi, deals.fba_roi),
			decision = COALESCE(EXCLUDED.decision, deals.decision),
			decision_reason = COALESCE(EXCLUDED.decision_reason, deals.decision_reason),
			score = COALESCE(EXCLUDED.score, deals.score)`,
		deal.ItemID, deal.Title, deal.TotalCents, deal.Condition, deal.Seller, deal.SellerFeedback,
		deal.ImageURL, deal.ShippingCents, deal.ItemURL, deal.ISBN, deal.ASIN, deal.BuyBoxCents,
		deal.SalesRank, deal.SalesRankDrops, deal.FBAProfitCents, deal.FBMProfitCents,
		deal.FBAROI, deal.Decision, deal.DecisionReason, deal.Score, statusOrNew(deal.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to save deal %s: %w", deal.ItemID, err)
	}
	return nil
}

// ListDeals returns deals for the dashboard, newest first.
func (r *PostgresRepository) ListDeals(ctx context.Context, filter Filter) ([]model.Deal, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, clause+"$"+strconv.Itoa(len(args)))
	}

	if filter.Status != "" {
		add("status = ", filter.Status)
	}
	if filter.Decision != "" {
		add("decision = ", filter.Decision)
	}
	if filter.MinProfitCents > 0 {
		add("fba_profit_cents >= ", filter.MinProfitCents)
	}
	if filter.Query != "" {
		add("title ILIKE ", "%"+filter.Query+"%")
	}

	query := `
		SELECT item_id, title, total_cents, condition, seller, seller_feedback_pct,
			image_url, shipping_cents, item_url, isbn, asin, buy_box_cents,
			sales_rank, sales_rank_drops30, fba_profit_cents, fbm_profit_cents,
			fba_roi, decision, decision_reason, score, status, first_seen
		FROM deals`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY first_seen DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	args = append(args, limit)
	query += " LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var d model.Deal
		if err := rows.Scan(
			&d.ItemID, &d.Title, &d.TotalCents, &d.Condition, &d.Seller, &d.SellerFeedback,
			&d.ImageURL, &d.ShippingCents, &d.ItemURL, &d.ISBN, &d.ASIN, &d.BuyBoxCents,
			&d.SalesRank, &d.SalesRankDrops, &d.FBAProfitCents, &d.FBMProfitCents,
			&d.FBAROI, &d.Decision, &d.DecisionReason, &d.Score, &d.Status, &d.FirstSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan deal row: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// SetStatus records the operator's triage verdict for one deal.
func (r *PostgresRepository) SetStatus(ctx context.Context, itemID, status string) error {
	switch status {
	case model.StatusNew, model.StatusBought, model.StatusRejected:
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	tag, err := r.Pool.Exec(ctx, `UPDATE deals SET status = $1 WHERE item_id = $2`, status, itemID)
	if err != nil {
		return fmt.Errorf("failed to update status for %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func statusOrNew(status string) string {
	if status == "" {
		return model.StatusNew
	}
	return status
}
