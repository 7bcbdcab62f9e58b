package database

import (
	"context"
	"errors"

	"bookscout/internal/model"
)

// ErrNotFound is returned when a triage update targets an unknown item.
var ErrNotFound = errors.New("deal not found")

// Filter narrows a dashboard listing query. Zero values mean "any".
type Filter struct {
	Status         string
	Decision       string
	Query          string
	MinProfitCents int
	Limit          int
}

// Repository defines the standard interface for database operations.
type Repository interface {
	Migrate(ctx context.Context) error
	SaveDeal(ctx context.Context, deal model.Deal) error
	ListDeals(ctx context.Context, filter Filter) ([]model.Deal, error)
	SetStatus(ctx context.Context, itemID, status string) error
}
