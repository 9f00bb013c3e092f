package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"affirm/internal/audit"
	rulemodels "affirm/internal/rules/models"
	rulestore "affirm/internal/rules/store"
	trademodels "affirm/internal/trades/models"
	tradestore "affirm/internal/trades/store"
	"affirm/internal/validation/metrics"
	"affirm/internal/validation/models"
	"affirm/internal/validation/store"
	id "affirm/pkg/domain"
	dErrors "affirm/pkg/domain-errors"
)

// Prometheus collectors register globally, so the suite shares one instance.
var testMetrics = metrics.New()

var testClock = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type ValidationServiceSuite struct {
	suite.Suite

	results *store.InMemory
	trades  *tradestore.InMemory
	rules   *rulestore.InMemory
	sink    *audit.InMemorySink
	service *Service
}

func TestValidationServiceSuite(t *testing.T) {
	suite.Run(t, new(ValidationServiceSuite))
}

func (s *ValidationServiceSuite) SetupTest() {
	s.results = store.NewInMemory()
	s.trades = tradestore.NewInMemory()
	s.rules = rulestore.NewInMemory()
	s.sink = audit.NewInMemorySink()

	ctx := context.Background()
	s.Require().NoError(s.rules.Replace(ctx, []rulemodels.MatchingRule{
		{ID: id.NewRuleID(), FieldName: "trade_id", RuleType: rulemodels.RuleTypeExact, MinConfidence: 0.70, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "party_a", RuleType: rulemodels.RuleTypeFuzzy, MinConfidence: 0.80, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "party_b", RuleType: rulemodels.RuleTypeFuzzy, MinConfidence: 0.80, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "local_currency", RuleType: rulemodels.RuleTypeExact, MinConfidence: 0.90, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "notional_amount", RuleType: rulemodels.RuleTypeTolerance, ToleranceValue: floatPtr(0.1), ToleranceUnit: rulemodels.UnitPercent, MinConfidence: 0.85, Enabled: true},
	}))
	s.Require().NoError(s.trades.Create(ctx, &trademodels.Trade{
		TradeID:            "TRS-001",
		PartyA:             "Goldman Sachs International",
		PartyB:             "Acme Asset Management",
		TradeDate:          "2026-03-10",
		EffectiveDate:      "2026-03-12",
		BondReturnPayer:    trademodels.ReturnLegPartyA,
		BondReturnReceiver: trademodels.ReturnLegPartyB,
		LocalCurrency:      "USD",
		NotionalAmount:     1000000,
	}))

	s.service = New(
		s.results,
		s.trades,
		s.rules,
		Thresholds{AutoPass: 0.90, ResolutionFloor: 0.5, MismatchBoundary: 0.5},
		testMetrics,
		audit.NewPublisher(s.sink),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return testClock }),
	)
}

func (s *ValidationServiceSuite) matchingExtraction() *models.ExtractedTrade {
	return extraction(map[string]models.ExtractedField{
		"trade_id":        extractedValue("TRS-001", 0.95),
		"party_a":         extractedValue("Goldman Sachs International", 0.95),
		"party_b":         extractedValue("Acme Asset Management", 0.95),
		"local_currency":  extractedValue("USD", 0.95),
		"notional_amount": extractedValue(float64(1000000), 0.95),
	})
}

func (s *ValidationServiceSuite) TestCleanMatchAutoPasses() {
	ctx := context.Background()

	result, err := s.service.Validate(ctx, id.NewDocumentID(), s.matchingExtraction())
	s.Require().NoError(err)

	s.Equal(models.StatusMatch, result.Status)
	s.Equal("TRS-001", result.SystemTradeID)
	s.InDelta(0.95, result.MachineConfidence, 1e-9)
	s.True(result.AutoPassed)
	s.Equal(models.CheckerApproved, result.CheckerDecision)
	s.Equal(autoApproveComment, result.CheckerComment)
	s.Require().NotNil(result.CheckedAt)
	s.Equal(testClock, *result.CheckedAt)
	s.Equal("Goldman Sachs International", result.PartyA)
	s.Equal(float64(1000000), result.NotionalAmount)

	types := make([]string, 0)
	for _, e := range s.sink.Events() {
		types = append(types, e.Type)
	}
	s.Contains(types, audit.TypeValidationCreated)
	s.Contains(types, audit.TypeAutoPassed)

	stored, err := s.results.Get(ctx, result.ID)
	s.Require().NoError(err)
	s.Equal(models.CheckerApproved, stored.CheckerDecision)
}

func (s *ValidationServiceSuite) TestScoringResolvesAcrossStoredCandidates() {
	ctx := context.Background()
	s.Require().NoError(s.trades.Create(ctx, &trademodels.Trade{
		TradeID:            "TRS-002",
		PartyA:             "Barclays Bank PLC",
		PartyB:             "Meridian Capital Partners",
		TradeDate:          "2026-03-11",
		EffectiveDate:      "2026-03-13",
		BondReturnPayer:    trademodels.ReturnLegPartyB,
		BondReturnReceiver: trademodels.ReturnLegPartyA,
		LocalCurrency:      "GBP",
		NotionalAmount:     5000000,
	}))

	// No trade_id in the extraction, so resolution must score every stored
	// candidate rather than short-circuiting on identity.
	ext := extraction(map[string]models.ExtractedField{
		"party_a":         extractedValue("Goldman Sachs International", 0.95),
		"party_b":         extractedValue("Acme Asset Management", 0.95),
		"local_currency":  extractedValue("USD", 0.95),
		"notional_amount": extractedValue(float64(1000000), 0.95),
	})

	result, err := s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	s.Equal("TRS-001", result.SystemTradeID)
	s.Equal(models.StatusMatch, result.Status)
	s.True(result.AutoPassed)
}

func (s *ValidationServiceSuite) TestPartialMatchRoutesToChecker() {
	ctx := context.Background()
	ext := s.matchingExtraction()
	ext.Fields["local_currency"] = extractedValue("EUR", 0.95)

	result, err := s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	s.Equal(models.StatusPartial, result.Status)
	s.False(result.AutoPassed)
	s.Equal(models.CheckerPending, result.CheckerDecision)
	s.Nil(result.CheckedAt)
}

func (s *ValidationServiceSuite) TestLowConfidenceBlocksAutoPass() {
	ctx := context.Background()
	ext := s.matchingExtraction()
	// Everything matches, but the mean confidence dips below the threshold.
	ext.Fields["party_a"] = extractedValue("Goldman Sachs International", 0.80)
	ext.Fields["party_b"] = extractedValue("Acme Asset Management", 0.80)

	result, err := s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	s.Equal(models.StatusMatch, result.Status)
	s.False(result.AutoPassed)
	s.Equal(models.CheckerPending, result.CheckerDecision)
}

func (s *ValidationServiceSuite) TestUnresolvedTradeIsMismatch() {
	ctx := context.Background()
	ext := extraction(map[string]models.ExtractedField{
		"trade_id":        extractedValue("TRS-999", 0.95),
		"party_a":         extractedValue("Nomura", 0.95),
		"party_b":         extractedValue("Pacific Pension Fund", 0.95),
		"local_currency":  extractedValue("JPY", 0.95),
		"notional_amount": extractedValue(float64(42), 0.95),
	})

	result, err := s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	s.Equal(models.TradeIDNotFound, result.SystemTradeID)
	s.Equal(models.StatusMismatch, result.Status)
	s.Zero(result.MachineConfidence)
	s.False(result.AutoPassed)
	// Enrichment falls back to the extraction when nothing resolved.
	s.Equal("Nomura", result.PartyA)
	s.Equal("JPY", result.LocalCurrency)
}

func (s *ValidationServiceSuite) TestCheckerApprove() {
	ctx := context.Background()
	ext := s.matchingExtraction()
	ext.Fields["local_currency"] = extractedValue("EUR", 0.95)
	created, err := s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	updated, err := s.service.ApplyCheckerAction(ctx, created.ID, models.CheckerAction{
		Type:    models.ActionApprove,
		Comment: "currency confirmed with desk",
	})
	s.Require().NoError(err)
	s.Equal(models.CheckerApproved, updated.CheckerDecision)
	s.Equal("currency confirmed with desk", updated.CheckerComment)
	s.Require().NotNil(updated.CheckedAt)

	stored, err := s.results.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.CheckerApproved, stored.CheckerDecision)
}

func (s *ValidationServiceSuite) TestCheckerOverridePreservesMachineVerdict() {
	ctx := context.Background()
	ext := s.matchingExtraction()
	ext.Fields["local_currency"] = extractedValue("EUR", 0.95)
	created, err := s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	updated, err := s.service.ApplyCheckerAction(ctx, created.ID, models.CheckerAction{
		Type:            models.ActionOverride,
		OverrideStatus:  models.StatusMatch,
		OverrideTradeID: "TRS-002",
	})
	s.Require().NoError(err)
	s.Equal(models.CheckerOverridden, updated.CheckerDecision)
	s.Equal(created.Status, updated.Status)
	s.Equal(created.SystemTradeID, updated.SystemTradeID)
	s.Equal(models.StatusMatch, updated.CheckerOverrideStatus)
	s.Equal("TRS-002", updated.CheckerOverrideTradeID)
}

func (s *ValidationServiceSuite) TestInvalidCheckerActionIsAtomic() {
	ctx := context.Background()
	ext := s.matchingExtraction()
	ext.Fields["local_currency"] = extractedValue("EUR", 0.95)
	created, err := s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	_, err = s.service.ApplyCheckerAction(ctx, created.ID, models.CheckerAction{
		Type: models.ActionOverride,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	stored, err := s.results.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.CheckerPending, stored.CheckerDecision)
	s.Nil(stored.CheckedAt)
}

func (s *ValidationServiceSuite) TestListFilters() {
	ctx := context.Background()

	_, err := s.service.Validate(ctx, id.NewDocumentID(), s.matchingExtraction())
	s.Require().NoError(err)

	ext := s.matchingExtraction()
	ext.Fields["local_currency"] = extractedValue("EUR", 0.95)
	_, err = s.service.Validate(ctx, id.NewDocumentID(), ext)
	s.Require().NoError(err)

	all, err := s.service.List(ctx, store.Filter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	partial, err := s.service.List(ctx, store.Filter{Status: models.StatusPartial})
	s.Require().NoError(err)
	s.Require().Len(partial, 1)
	s.Equal(models.StatusPartial, partial[0].Status)

	auto := true
	passed, err := s.service.List(ctx, store.Filter{AutoPassed: &auto})
	s.Require().NoError(err)
	s.Require().Len(passed, 1)
	s.True(passed[0].AutoPassed)
}
