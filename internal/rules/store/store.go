// Package store persists matching-rule configuration. Implementations must
// replace the whole rule list atomically so a validation run never observes a
// half-saved configuration.
package store

import (
	"context"

	"affirm/internal/rules/models"
)

// Store is the persistence port for matching rules.
type Store interface {
	// List returns every configured rule in stable order.
	List(ctx context.Context) ([]models.MatchingRule, error)
	// Replace swaps the full rule list after validating it as a set.
	Replace(ctx context.Context, rules []models.MatchingRule) error
	// Snapshot builds an immutable rule set for one validation run.
	Snapshot(ctx context.Context) (*models.RuleSet, error)
}
