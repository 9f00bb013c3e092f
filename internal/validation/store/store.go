// Package store persists validation results. Two implementations exist: an
// in-memory store for tests and single-node runs, and a Redis store for
// shared deployments.
package store

import (
	"context"

	"affirm/internal/validation/models"
	id "affirm/pkg/domain"
)

// Filter narrows a List call. Zero values match everything.
type Filter struct {
	Status     models.Status
	Decision   models.CheckerDecision
	DocumentID id.DocumentID
	AutoPassed *bool
}

func (f Filter) matches(r *models.ValidationResult) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Decision != "" && r.CheckerDecision != f.Decision {
		return false
	}
	if !f.DocumentID.IsNil() && r.DocumentID != f.DocumentID {
		return false
	}
	if f.AutoPassed != nil && r.AutoPassed != *f.AutoPassed {
		return false
	}
	return true
}

// Mutator applies an in-place change to a result under the store's
// concurrency control. Returning an error aborts the update without
// persisting anything.
type Mutator func(*models.ValidationResult) error

// Store is the persistence boundary for validation results.
type Store interface {
	// Create persists a new result. sentinel.ErrConflict on a duplicate id.
	Create(ctx context.Context, result *models.ValidationResult) error
	// Get returns one result. sentinel.ErrNotFound when absent.
	Get(ctx context.Context, resultID id.ValidationID) (*models.ValidationResult, error)
	// Update loads, mutates, and persists a result atomically.
	// sentinel.ErrNotFound when absent; the mutator's error passes through
	// unchanged and nothing is written.
	Update(ctx context.Context, resultID id.ValidationID, mutate Mutator) (*models.ValidationResult, error)
	// List returns matching results ordered by creation time, oldest first,
	// with id as the tiebreak.
	List(ctx context.Context, filter Filter) ([]models.ValidationResult, error)
}
