package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"affirm/internal/rules/models"
	"affirm/internal/rules/store"
)

type RulesHandlerSuite struct {
	suite.Suite

	store  *store.InMemory
	router *chi.Mux
}

func TestRulesHandlerSuite(t *testing.T) {
	suite.Run(t, new(RulesHandlerSuite))
}

func (s *RulesHandlerSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.router = chi.NewRouter()
	New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *RulesHandlerSuite) putRules(body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPut, "/rules", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RulesHandlerSuite) TestListStartsEmpty() {
	req := httptest.NewRequest(http.MethodGet, "/rules", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var resp struct {
		Rules []map[string]any `json:"rules"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Empty(resp.Rules)
}

func (s *RulesHandlerSuite) TestSaveThenListRoundTrip() {
	w := s.putRules(map[string]any{
		"rules": []map[string]any{
			{"field_name": "local_currency", "rule_type": "exact", "min_confidence": 0.90, "enabled": true},
			{"field_name": "notional_amount", "rule_type": "tolerance", "tolerance_value": 0.1, "tolerance_unit": "percent", "min_confidence": 0.85, "enabled": true},
		},
	})
	s.Equal(http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/rules", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Rules []struct {
			FieldName string `json:"field_name"`
			RuleType  string `json:"rule_type"`
		} `json:"rules"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Rules, 2)
	s.Equal("local_currency", resp.Rules[0].FieldName)
	s.Equal("tolerance", resp.Rules[1].RuleType)
}

func (s *RulesHandlerSuite) TestSaveRejectsBadPayloads() {
	cases := map[string]map[string]any{
		"empty rules list": {"rules": []map[string]any{}},
		"unknown rule type": {"rules": []map[string]any{
			{"field_name": "party_a", "rule_type": "regex", "min_confidence": 0.8, "enabled": true},
		}},
		"unknown tolerance unit": {"rules": []map[string]any{
			{"field_name": "notional_amount", "rule_type": "tolerance", "tolerance_value": 0.1, "tolerance_unit": "bps", "min_confidence": 0.8, "enabled": true},
		}},
		"confidence out of range": {"rules": []map[string]any{
			{"field_name": "party_a", "rule_type": "fuzzy", "min_confidence": 1.5, "enabled": true},
		}},
		"duplicate field name": {"rules": []map[string]any{
			{"field_name": "isin", "rule_type": "exact", "min_confidence": 0.7, "enabled": true},
			{"field_name": "isin", "rule_type": "fuzzy", "min_confidence": 0.7, "enabled": true},
		}},
	}
	for name, body := range cases {
		s.Run(name, func() {
			s.Equal(http.StatusBadRequest, s.putRules(body).Code)
		})
	}
}

func (s *RulesHandlerSuite) TestRejectedSaveKeepsStoredRules() {
	w := s.putRules(map[string]any{"rules": []map[string]any{
		{"field_name": "isin", "rule_type": "exact", "min_confidence": 0.7, "enabled": true},
	}})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.putRules(map[string]any{"rules": []map[string]any{
		{"field_name": "isin", "rule_type": "regex", "min_confidence": 0.7, "enabled": true},
	}})
	s.Require().Equal(http.StatusBadRequest, w.Code)

	rules, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(rules, 1)
	s.Equal(models.RuleTypeExact, rules[0].RuleType)
}
