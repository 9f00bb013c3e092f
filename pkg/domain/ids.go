// Package domain holds identifier types shared across modules.
//
// IDs are distinct named types so the compiler rejects cross-assignment.
// Construct them via the Parse functions at trust boundaries; direct casting
// bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "affirm/pkg/domain-errors"
)

// ValidationID identifies a stored validation result.
type ValidationID uuid.UUID

// DocumentID identifies the evidence document a validation was run for.
type DocumentID uuid.UUID

// RuleID identifies a matching rule within a rule set.
type RuleID uuid.UUID

// NewValidationID generates a fresh validation ID.
func NewValidationID() ValidationID {
	return ValidationID(uuid.New())
}

// NewDocumentID generates a fresh document ID.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New())
}

// NewRuleID generates a fresh rule ID.
func NewRuleID() RuleID {
	return RuleID(uuid.New())
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}

// ParseValidationID constructs a ValidationID from external input.
func ParseValidationID(s string) (ValidationID, error) {
	u, err := parseUUID(s, "validation_id")
	if err != nil {
		return ValidationID{}, err
	}
	return ValidationID(u), nil
}

// ParseDocumentID constructs a DocumentID from external input.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document_id")
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(u), nil
}

// ParseRuleID constructs a RuleID from external input.
func ParseRuleID(s string) (RuleID, error) {
	u, err := parseUUID(s, "rule_id")
	if err != nil {
		return RuleID{}, err
	}
	return RuleID(u), nil
}

func (id ValidationID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string   { return uuid.UUID(id).String() }
func (id RuleID) String() string       { return uuid.UUID(id).String() }

func (id ValidationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// MarshalText implements encoding.TextMarshaler so IDs serialize as their
// canonical UUID string in JSON maps and struct fields.
func (id ValidationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id RuleID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

// UnmarshalText accepts any valid UUID, including nil, so stored records
// round-trip; boundary validation stays in the Parse functions.
func (id *ValidationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ValidationID(u)
	return nil
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = DocumentID(u)
	return nil
}

func (id *RuleID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = RuleID(u)
	return nil
}
