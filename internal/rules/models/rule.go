package models

import (
	"fmt"
	"strings"

	id "affirm/pkg/domain"
	dErrors "affirm/pkg/domain-errors"
)

// RuleType selects the comparison semantics for a field.
//
// Invariant: the value must be one of the supported rule types. Unknown types
// are rejected when a rule set is loaded, never at evaluation time.
type RuleType string

const (
	RuleTypeExact         RuleType = "exact"
	RuleTypeTolerance     RuleType = "tolerance"
	RuleTypeFuzzy         RuleType = "fuzzy"
	RuleTypeDateTolerance RuleType = "date_tolerance"
)

// validRuleTypes is the single source of truth for supported rule types.
var validRuleTypes = map[RuleType]bool{
	RuleTypeExact:         true,
	RuleTypeTolerance:     true,
	RuleTypeFuzzy:         true,
	RuleTypeDateTolerance: true,
}

// ParseRuleType constructs a RuleType from external input.
func ParseRuleType(s string) (RuleType, error) {
	t := RuleType(strings.TrimSpace(s))
	if !validRuleTypes[t] {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported rule_type %q", s))
	}
	return t, nil
}

func (t RuleType) IsValid() bool { return validRuleTypes[t] }

// ToleranceUnit qualifies ToleranceValue for tolerance rules.
type ToleranceUnit string

const (
	UnitPercent  ToleranceUnit = "percent"
	UnitAbsolute ToleranceUnit = "absolute"
	UnitDays     ToleranceUnit = "days"
)

var validUnits = map[ToleranceUnit]bool{
	UnitPercent:  true,
	UnitAbsolute: true,
	UnitDays:     true,
}

// ParseToleranceUnit constructs a ToleranceUnit from external input.
func ParseToleranceUnit(s string) (ToleranceUnit, error) {
	u := ToleranceUnit(strings.TrimSpace(s))
	if !validUnits[u] {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported tolerance_unit %q", s))
	}
	return u, nil
}

// MatchingRule configures how one trade field is compared.
//
// Invariants:
//   - FieldName is non-empty and unique within a rule set
//   - RuleType is one of the supported enum values
//   - MinConfidence is within [0,1]
//   - tolerance and date_tolerance rules carry a non-negative ToleranceValue
type MatchingRule struct {
	ID             id.RuleID     `json:"id"`
	FieldName      string        `json:"field_name"`
	RuleType       RuleType      `json:"rule_type"`
	ToleranceValue *float64      `json:"tolerance_value,omitempty"`
	ToleranceUnit  ToleranceUnit `json:"tolerance_unit,omitempty"`
	MinConfidence  float64       `json:"min_confidence"`
	Enabled        bool          `json:"enabled"`
}

// Validate enforces the rule invariants. Called when a rule set is saved or
// loaded so evaluation can assume well-formed configuration.
func (r *MatchingRule) Validate() error {
	if strings.TrimSpace(r.FieldName) == "" {
		return dErrors.New(dErrors.CodeValidation, "field_name is required")
	}
	if !r.RuleType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unsupported rule_type %q for field %s", r.RuleType, r.FieldName))
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("min_confidence must be within [0,1] for field %s", r.FieldName))
	}
	switch r.RuleType {
	case RuleTypeTolerance:
		if r.ToleranceUnit != "" && r.ToleranceUnit != UnitPercent && r.ToleranceUnit != UnitAbsolute {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("tolerance rule for field %s requires unit percent or absolute", r.FieldName))
		}
		if r.ToleranceValue != nil && *r.ToleranceValue < 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("tolerance_value must be non-negative for field %s", r.FieldName))
		}
	case RuleTypeDateTolerance:
		if r.ToleranceUnit != "" && r.ToleranceUnit != UnitDays {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("date_tolerance rule for field %s requires unit days", r.FieldName))
		}
		if r.ToleranceValue != nil && *r.ToleranceValue < 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("tolerance_value must be non-negative for field %s", r.FieldName))
		}
	}
	return nil
}

// Tolerance returns the configured tolerance value, defaulting to zero.
func (r *MatchingRule) Tolerance() float64 {
	if r.ToleranceValue == nil {
		return 0
	}
	return *r.ToleranceValue
}

// RuleSet is an immutable per-validation snapshot of matching rules keyed by
// field name. Build one with NewRuleSet before evaluation begins; a rule edit
// after that point cannot affect an in-flight run.
type RuleSet struct {
	rules   map[string]MatchingRule
	ordered []MatchingRule
}

// NewRuleSet validates the given rules and freezes them into a snapshot.
// Duplicate field names and malformed rules are rejected.
func NewRuleSet(rules []MatchingRule) (*RuleSet, error) {
	set := &RuleSet{
		rules:   make(map[string]MatchingRule, len(rules)),
		ordered: make([]MatchingRule, 0, len(rules)),
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := set.rules[r.FieldName]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("duplicate rule for field %s", r.FieldName))
		}
		set.rules[r.FieldName] = r
		set.ordered = append(set.ordered, r)
	}
	return set, nil
}

// Enabled returns the enabled rule for a field, or false when the field has
// no rule or the rule is disabled.
func (s *RuleSet) Enabled(fieldName string) (MatchingRule, bool) {
	r, ok := s.rules[fieldName]
	if !ok || !r.Enabled {
		return MatchingRule{}, false
	}
	return r, true
}

// EnabledRules returns the enabled rules in their configured order.
func (s *RuleSet) EnabledRules() []MatchingRule {
	out := make([]MatchingRule, 0, len(s.ordered))
	for _, r := range s.ordered {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// All returns a copy of every rule in configured order.
func (s *RuleSet) All() []MatchingRule {
	out := make([]MatchingRule, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len reports the number of rules in the set.
func (s *RuleSet) Len() int {
	return len(s.ordered)
}
