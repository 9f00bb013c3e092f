package store

import (
	"context"
	"sync"

	"affirm/internal/rules/models"
)

// InMemory keeps rules in process memory. It favors clarity over performance
// and backs unit tests and single-node deployments without a rules file.
type InMemory struct {
	mu    sync.RWMutex
	rules []models.MatchingRule
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) List(_ context.Context) ([]models.MatchingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MatchingRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *InMemory) Replace(_ context.Context, rules []models.MatchingRule) error {
	// Validate as a set before taking the lock; a bad payload must not
	// clobber the current configuration.
	if _, err := models.NewRuleSet(rules); err != nil {
		return err
	}
	next := make([]models.MatchingRule, len(rules))
	copy(next, rules)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = next
	return nil
}

func (s *InMemory) Snapshot(_ context.Context) (*models.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.NewRuleSet(s.rules)
}
