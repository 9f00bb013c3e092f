package store

import (
	"context"
	"sort"
	"sync"

	"affirm/internal/validation/models"
	id "affirm/pkg/domain"
	"affirm/pkg/platform/sentinel"
)

// InMemory keeps validation results in process memory. Reads return clones so
// callers can never mutate stored state outside Update.
type InMemory struct {
	mu      sync.RWMutex
	results map[id.ValidationID]*models.ValidationResult
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{results: make(map[id.ValidationID]*models.ValidationResult)}
}

func (s *InMemory) Create(_ context.Context, result *models.ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[result.ID]; exists {
		return sentinel.ErrConflict
	}
	s.results[result.ID] = clone(result)
	return nil
}

func (s *InMemory) Get(_ context.Context, resultID id.ValidationID) (*models.ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[resultID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemory) Update(_ context.Context, resultID id.ValidationID, mutate Mutator) (*models.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.results[resultID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.results[resultID] = working
	return clone(working), nil
}

func (s *InMemory) List(_ context.Context, filter Filter) ([]models.ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ValidationResult, 0, len(s.results))
	for _, r := range s.results {
		if filter.matches(r) {
			out = append(out, *clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func clone(r *models.ValidationResult) *models.ValidationResult {
	c := *r
	if r.FieldComparisons != nil {
		c.FieldComparisons = make([]models.FieldComparison, len(r.FieldComparisons))
		copy(c.FieldComparisons, r.FieldComparisons)
	}
	if r.Warnings != nil {
		c.Warnings = make([]string, len(r.Warnings))
		copy(c.Warnings, r.Warnings)
	}
	if r.CheckedAt != nil {
		t := *r.CheckedAt
		c.CheckedAt = &t
	}
	return &c
}
