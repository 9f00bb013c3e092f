// Package store persists system-of-record TRS trades. Implementations return
// sentinel errors; the handler layer translates them into domain errors.
package store

import (
	"context"

	"affirm/internal/trades/models"
)

// Store is the persistence port for TRS trades.
type Store interface {
	List(ctx context.Context) ([]*models.Trade, error)
	// FindByTradeID looks a trade up by its business key, case-insensitively.
	FindByTradeID(ctx context.Context, tradeID string) (*models.Trade, error)
	Create(ctx context.Context, trade *models.Trade) error
	Update(ctx context.Context, trade *models.Trade) error
	Delete(ctx context.Context, tradeID string) error
}
