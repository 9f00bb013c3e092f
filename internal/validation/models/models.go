// Package models defines the validation domain: extracted evidence, field
// comparisons, the validation result, and the checker review lifecycle.
package models

import (
	"time"

	id "affirm/pkg/domain"
	dErrors "affirm/pkg/domain-errors"
)

// MatchStatus is the verdict for a single field comparison.
type MatchStatus string

const (
	MatchStatusMatch           MatchStatus = "MATCH"
	MatchStatusWithinTolerance MatchStatus = "WITHIN_TOLERANCE"
	MatchStatusLowConfidence   MatchStatus = "LOW_CONFIDENCE"
	MatchStatusMismatch        MatchStatus = "MISMATCH"
)

// Favorable reports whether the verdict counts toward candidate resolution
// and a clean overall status.
func (m MatchStatus) Favorable() bool {
	return m == MatchStatusMatch || m == MatchStatusWithinTolerance
}

// Status is the machine-computed outcome of a whole validation run.
type Status string

const (
	StatusMatch    Status = "MATCH"
	StatusPartial  Status = "PARTIAL"
	StatusMismatch Status = "MISMATCH"
	StatusPending  Status = "PENDING"
)

// ParseOverrideStatus parses a checker override status. PENDING is not a
// valid override target.
func ParseOverrideStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusMatch, StatusPartial, StatusMismatch:
		return Status(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "override_status must be MATCH, PARTIAL or MISMATCH")
	}
}

// CheckerDecision is the human review state of a validation result.
type CheckerDecision string

const (
	CheckerPending    CheckerDecision = "PENDING"
	CheckerApproved   CheckerDecision = "APPROVED"
	CheckerRejected   CheckerDecision = "REJECTED"
	CheckerOverridden CheckerDecision = "OVERRIDDEN"
)

// SourceType classifies where an extracted value came from.
type SourceType string

const (
	SourceEmailBody  SourceType = "email_body"
	SourceAttachment SourceType = "attachment"
	SourceOCR        SourceType = "ocr"
	SourceUnknown    SourceType = "unknown"
)

// Provenance records where an extracted field value originated.
type Provenance struct {
	SourceType SourceType `json:"source_type"`
	SourceName string     `json:"source_name,omitempty"`
	Page       int        `json:"page,omitempty"`
}

// ExtractedField is one field produced by the evidence extractor. Value is
// string, float64 (JSON number) or nil; the comparator normalizes it.
// Immutable after extraction.
type ExtractedField struct {
	Value      any         `json:"value"`
	Confidence float64     `json:"confidence"`
	Provenance *Provenance `json:"provenance,omitempty"`
}

// ExtractedTrade is the full evidence payload for one document.
type ExtractedTrade struct {
	TradeType     string                    `json:"trade_type"`
	Fields        map[string]ExtractedField `json:"fields"`
	RawText       string                    `json:"raw_text,omitempty"`
	SchemaVersion string                    `json:"schema_version,omitempty"`
}

// Field returns the extracted field for a name, reporting presence.
func (t *ExtractedTrade) Field(name string) (ExtractedField, bool) {
	f, ok := t.Fields[name]
	return f, ok
}

// FieldComparison is the verdict for one field under one rule. Produced fresh
// per validation run and never mutated afterward.
type FieldComparison struct {
	FieldName             string      `json:"field_name"`
	ExtractedValue        any         `json:"extracted_value"`
	SystemValue           any         `json:"system_value"`
	MatchStatus           MatchStatus `json:"match_status"`
	Confidence            float64     `json:"confidence"`
	MinRequiredConfidence float64     `json:"min_required_confidence"`
	RuleApplied           string      `json:"rule_applied"`
}

// TradeIDNotFound is the sentinel system_trade_id for validations where no
// system record cleared the resolution floor.
const TradeIDNotFound = "NOT_FOUND"

// ValidationResult is one validate invocation's outcome.
//
// Invariants:
//   - machine-derived fields (Status, FieldComparisons, MachineConfidence,
//     AutoPassed, SystemTradeID) are write-once at creation
//   - only checker fields and CheckedAt mutate afterward, and only through
//     ApplyCheckerAction
//   - CheckerDecision != PENDING implies CheckedAt is set
//   - on OVERRIDE the machine Status and SystemTradeID are preserved for
//     audit; the override fields are authoritative for reporting
type ValidationResult struct {
	ID                id.ValidationID   `json:"id"`
	DocumentID        id.DocumentID     `json:"document_id"`
	SystemTradeID     string            `json:"system_trade_id"`
	Status            Status            `json:"status"`
	FieldComparisons  []FieldComparison `json:"field_comparisons"`
	MachineConfidence float64           `json:"machine_confidence"`
	AutoPassed        bool              `json:"auto_passed"`
	Warnings          []string          `json:"warnings,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`

	// Enrichment for dashboards and reports, captured at validation time from
	// the resolved trade (or from extraction when unresolved).
	PartyA                   string  `json:"party_a,omitempty"`
	PartyB                   string  `json:"party_b,omitempty"`
	TradeDate                string  `json:"trade_date,omitempty"`
	EffectiveDate            string  `json:"effective_date,omitempty"`
	ScheduledTerminationDate string  `json:"scheduled_termination_date,omitempty"`
	LocalCurrency            string  `json:"local_currency,omitempty"`
	NotionalAmount           float64 `json:"notional_amount,omitempty"`

	CheckerDecision        CheckerDecision `json:"checker_decision"`
	CheckerComment         string          `json:"checker_comment,omitempty"`
	CheckerOverrideStatus  Status          `json:"checker_override_status,omitempty"`
	CheckerOverrideTradeID string          `json:"checker_override_trade_id,omitempty"`
	CheckedAt              *time.Time      `json:"checked_at,omitempty"`
}

// CheckerActionType enumerates the checker verbs.
type CheckerActionType string

const (
	ActionApprove  CheckerActionType = "APPROVE"
	ActionReject   CheckerActionType = "REJECT"
	ActionOverride CheckerActionType = "OVERRIDE"
)

// ParseCheckerActionType constructs a CheckerActionType from external input.
func ParseCheckerActionType(s string) (CheckerActionType, error) {
	switch CheckerActionType(s) {
	case ActionApprove, ActionReject, ActionOverride:
		return CheckerActionType(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "decision must be APPROVE, REJECT or OVERRIDE")
	}
}

// CheckerAction is one human review action against a validation result.
type CheckerAction struct {
	Type            CheckerActionType
	Comment         string
	OverrideStatus  Status
	OverrideTradeID string
}

// Validate enforces action invariants before any state change so a rejected
// action leaves the result untouched.
func (a *CheckerAction) Validate() error {
	switch a.Type {
	case ActionApprove, ActionReject:
		return nil
	case ActionOverride:
		if a.OverrideStatus == "" {
			return dErrors.New(dErrors.CodeValidation, "override_status is required for OVERRIDE")
		}
		if _, err := ParseOverrideStatus(string(a.OverrideStatus)); err != nil {
			return err
		}
		return nil
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown checker action")
	}
}

// ApplyCheckerAction transitions the review state. All terminal states are
// re-entrant: a later action overwrites the prior decision, comment, override
// fields, and timestamp (last action wins). Validation happens before any
// mutation, so a failed action is a no-op.
func (r *ValidationResult) ApplyCheckerAction(action CheckerAction, now time.Time) error {
	if err := action.Validate(); err != nil {
		return err
	}

	r.CheckerComment = action.Comment
	checked := now
	r.CheckedAt = &checked

	switch action.Type {
	case ActionApprove:
		r.CheckerDecision = CheckerApproved
		r.CheckerOverrideStatus = ""
		r.CheckerOverrideTradeID = ""
	case ActionReject:
		r.CheckerDecision = CheckerRejected
		r.CheckerOverrideStatus = ""
		r.CheckerOverrideTradeID = ""
	case ActionOverride:
		// Machine Status and SystemTradeID stay untouched for audit.
		r.CheckerDecision = CheckerOverridden
		r.CheckerOverrideStatus = action.OverrideStatus
		r.CheckerOverrideTradeID = action.OverrideTradeID
	}
	return nil
}

// EffectiveStatus is the status downstream reporting should use: the checker
// override when one is in force, the machine status otherwise.
func (r *ValidationResult) EffectiveStatus() Status {
	if r.CheckerDecision == CheckerOverridden && r.CheckerOverrideStatus != "" {
		return r.CheckerOverrideStatus
	}
	return r.Status
}

// EffectiveTradeID mirrors EffectiveStatus for the system trade id.
func (r *ValidationResult) EffectiveTradeID() string {
	if r.CheckerDecision == CheckerOverridden && r.CheckerOverrideTradeID != "" {
		return r.CheckerOverrideTradeID
	}
	return r.SystemTradeID
}
