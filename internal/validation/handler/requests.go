package handler

import (
	"strings"

	"affirm/internal/validation/models"
	id "affirm/pkg/domain"
	dErrors "affirm/pkg/domain-errors"
)

// ValidateRequest submits one extracted document for validation.
type ValidateRequest struct {
	DocumentID string                `json:"document_id"`
	Extracted  models.ExtractedTrade `json:"extracted_trade"`

	documentID id.DocumentID
}

// Validate parses and checks the request after JSON decoding.
func (r *ValidateRequest) Validate() error {
	docID, err := id.ParseDocumentID(strings.TrimSpace(r.DocumentID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "document_id must be a valid uuid")
	}
	r.documentID = docID
	if len(r.Extracted.Fields) == 0 {
		return dErrors.New(dErrors.CodeValidation, "extracted_trade.fields must not be empty")
	}
	for name, f := range r.Extracted.Fields {
		if f.Confidence < 0 || f.Confidence > 1 {
			return dErrors.New(dErrors.CodeValidation, "confidence for field "+name+" must be between 0 and 1")
		}
	}
	return nil
}

// ParsedDocumentID returns the typed document id. Valid only after Validate.
func (r *ValidateRequest) ParsedDocumentID() id.DocumentID { return r.documentID }

// CheckerRequest applies one review action to a validation result.
type CheckerRequest struct {
	Decision        string `json:"decision"`
	Comment         string `json:"comment,omitempty"`
	OverrideStatus  string `json:"override_status,omitempty"`
	OverrideTradeID string `json:"override_trade_id,omitempty"`

	action models.CheckerAction
}

// Validate parses the action so an invalid request never reaches the store.
func (r *CheckerRequest) Validate() error {
	actionType, err := models.ParseCheckerActionType(strings.ToUpper(strings.TrimSpace(r.Decision)))
	if err != nil {
		return err
	}
	action := models.CheckerAction{
		Type:            actionType,
		Comment:         strings.TrimSpace(r.Comment),
		OverrideTradeID: strings.TrimSpace(r.OverrideTradeID),
	}
	if actionType == models.ActionOverride {
		status, err := models.ParseOverrideStatus(strings.ToUpper(strings.TrimSpace(r.OverrideStatus)))
		if err != nil {
			return err
		}
		action.OverrideStatus = status
	}
	r.action = action
	return nil
}

// Action returns the parsed checker action. Valid only after Validate.
func (r *CheckerRequest) Action() models.CheckerAction { return r.action }
