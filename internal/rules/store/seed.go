package store

import (
	"context"

	"affirm/internal/rules/models"
	id "affirm/pkg/domain"
)

func tol(v float64) *float64 { return &v }

// DefaultTRSRules is the stock rule set for TRS trades. Operations teams tune
// these through the rules endpoint; the defaults mirror back-office matching
// practice (tight dates and currencies, fuzzy counterparty names, percent
// tolerance on notionals).
func DefaultTRSRules() []models.MatchingRule {
	return []models.MatchingRule{
		{ID: id.NewRuleID(), FieldName: "trade_id", RuleType: models.RuleTypeExact, MinConfidence: 0.70, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "party_a", RuleType: models.RuleTypeFuzzy, MinConfidence: 0.80, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "party_b", RuleType: models.RuleTypeFuzzy, MinConfidence: 0.80, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "trade_date", RuleType: models.RuleTypeDateTolerance, ToleranceValue: tol(0), ToleranceUnit: models.UnitDays, MinConfidence: 0.85, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "effective_date", RuleType: models.RuleTypeDateTolerance, ToleranceValue: tol(1), ToleranceUnit: models.UnitDays, MinConfidence: 0.85, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "scheduled_termination_date", RuleType: models.RuleTypeDateTolerance, ToleranceValue: tol(1), ToleranceUnit: models.UnitDays, MinConfidence: 0.85, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "bond_return_payer", RuleType: models.RuleTypeExact, MinConfidence: 0.90, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "bond_return_receiver", RuleType: models.RuleTypeExact, MinConfidence: 0.90, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "local_currency", RuleType: models.RuleTypeExact, MinConfidence: 0.90, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "notional_amount", RuleType: models.RuleTypeTolerance, ToleranceValue: tol(0.1), ToleranceUnit: models.UnitPercent, MinConfidence: 0.85, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "usd_notional_amount", RuleType: models.RuleTypeTolerance, ToleranceValue: tol(0.1), ToleranceUnit: models.UnitPercent, MinConfidence: 0.85, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "initial_spot_rate", RuleType: models.RuleTypeTolerance, ToleranceValue: tol(0.001), ToleranceUnit: models.UnitAbsolute, MinConfidence: 0.80, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "current_market_price", RuleType: models.RuleTypeTolerance, ToleranceValue: tol(0.25), ToleranceUnit: models.UnitAbsolute, MinConfidence: 0.80, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "underlier", RuleType: models.RuleTypeFuzzy, MinConfidence: 0.70, Enabled: true},
		{ID: id.NewRuleID(), FieldName: "isin", RuleType: models.RuleTypeExact, MinConfidence: 0.70, Enabled: true},
	}
}

// SeedDefaults installs the stock TRS rules when the store is empty.
func SeedDefaults(ctx context.Context, s Store) error {
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return s.Replace(ctx, DefaultTRSRules())
}
