package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"affirm/internal/trades/models"
	"affirm/pkg/platform/sentinel"
)

// InMemory keeps trades in process memory, keyed by lowercased trade_id.
// It intentionally favors clarity over performance.
type InMemory struct {
	mu     sync.RWMutex
	trades map[string]*models.Trade
}

func NewInMemory() *InMemory {
	return &InMemory{trades: make(map[string]*models.Trade)}
}

func key(tradeID string) string {
	return strings.ToLower(strings.TrimSpace(tradeID))
}

func clone(t *models.Trade) *models.Trade {
	cp := *t
	return &cp
}

func (s *InMemory) List(_ context.Context) ([]*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		out = append(out, clone(t))
	}
	// Deterministic listing keeps resolver tie-breaks and reports reproducible.
	sort.Slice(out, func(i, j int) bool { return out[i].TradeID < out[j].TradeID })
	return out, nil
}

func (s *InMemory) FindByTradeID(_ context.Context, tradeID string) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.trades[key(tradeID)]; ok {
		return clone(t), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Create(_ context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(trade.TradeID)
	if _, exists := s.trades[k]; exists {
		return sentinel.ErrConflict
	}
	s.trades[k] = clone(trade)
	return nil
}

func (s *InMemory) Update(_ context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(trade.TradeID)
	if _, exists := s.trades[k]; !exists {
		return sentinel.ErrNotFound
	}
	s.trades[k] = clone(trade)
	return nil
}

func (s *InMemory) Delete(_ context.Context, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tradeID)
	if _, exists := s.trades[k]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.trades, k)
	return nil
}
