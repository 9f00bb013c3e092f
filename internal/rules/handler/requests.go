package handler

import (
	"strings"

	"affirm/internal/rules/models"
	id "affirm/pkg/domain"
	dErrors "affirm/pkg/domain-errors"
)

// SaveRulesRequest is the HTTP request body for PUT /rules. The full rule list
// is replaced in one call so the stored configuration is always a valid set.
type SaveRulesRequest struct {
	Rules []RulePayload `json:"rules"`

	parsed []models.MatchingRule
}

// RulePayload is one rule in the save request.
type RulePayload struct {
	ID             string   `json:"id,omitempty"`
	FieldName      string   `json:"field_name"`
	RuleType       string   `json:"rule_type"`
	ToleranceValue *float64 `json:"tolerance_value,omitempty"`
	ToleranceUnit  string   `json:"tolerance_unit,omitempty"`
	MinConfidence  float64  `json:"min_confidence"`
	Enabled        bool     `json:"enabled"`
}

// Validate parses payload enums into domain types. Unknown rule types and
// units are rejected here, at configuration time, never during evaluation.
func (r *SaveRulesRequest) Validate() error {
	if len(r.Rules) == 0 {
		return dErrors.New(dErrors.CodeValidation, "rules list is required")
	}

	parsed := make([]models.MatchingRule, 0, len(r.Rules))
	for _, p := range r.Rules {
		ruleType, err := models.ParseRuleType(p.RuleType)
		if err != nil {
			return err
		}

		var unit models.ToleranceUnit
		if strings.TrimSpace(p.ToleranceUnit) != "" {
			unit, err = models.ParseToleranceUnit(p.ToleranceUnit)
			if err != nil {
				return err
			}
		}

		ruleID := id.NewRuleID()
		if p.ID != "" {
			ruleID, err = id.ParseRuleID(p.ID)
			if err != nil {
				return err
			}
		}

		rule := models.MatchingRule{
			ID:             ruleID,
			FieldName:      strings.TrimSpace(p.FieldName),
			RuleType:       ruleType,
			ToleranceValue: p.ToleranceValue,
			ToleranceUnit:  unit,
			MinConfidence:  p.MinConfidence,
			Enabled:        p.Enabled,
		}
		if err := rule.Validate(); err != nil {
			return err
		}
		parsed = append(parsed, rule)
	}

	// Reject duplicates before the store sees the payload.
	if _, err := models.NewRuleSet(parsed); err != nil {
		return err
	}

	r.parsed = parsed
	return nil
}

// ParsedRules returns the validated rules.
func (r *SaveRulesRequest) ParsedRules() []models.MatchingRule {
	return r.parsed
}
