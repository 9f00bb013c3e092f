// Package service implements the validation engine: candidate resolution,
// field comparison, status aggregation, the auto-pass decision and the
// checker review lifecycle.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"affirm/internal/audit"
	rulestore "affirm/internal/rules/store"
	trademodels "affirm/internal/trades/models"
	tradestore "affirm/internal/trades/store"
	"affirm/internal/validation/metrics"
	"affirm/internal/validation/models"
	"affirm/internal/validation/store"
	id "affirm/pkg/domain"
	dErrors "affirm/pkg/domain-errors"
)

// autoApproveComment is recorded on runs that bypass human review.
const autoApproveComment = "Auto-approved: high confidence match"

// Thresholds are the tunable decision boundaries of the engine.
type Thresholds struct {
	// AutoPass is the minimum machine confidence for bypassing review.
	AutoPass float64
	// ResolutionFloor is the minimum candidate score for resolving a trade.
	ResolutionFloor float64
	// MismatchBoundary is the unfavorable-comparison fraction above which a
	// run is MISMATCH rather than PARTIAL.
	MismatchBoundary float64
}

// Service orchestrates validation runs and checker actions.
type Service struct {
	results    store.Store
	trades     tradestore.Store
	rules      rulestore.Store
	thresholds Thresholds
	metrics    *metrics.Metrics
	audit      *audit.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs the validation service.
func New(results store.Store, trades tradestore.Store, rules rulestore.Store, thresholds Thresholds, m *metrics.Metrics, auditPub *audit.Publisher, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		results:    results,
		trades:     trades,
		rules:      rules,
		thresholds: thresholds,
		metrics:    m,
		audit:      auditPub,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate runs one extracted document through the full pipeline: snapshot
// rules, resolve the candidate trade, compare fields, aggregate, decide
// auto-pass, persist.
func (s *Service) Validate(ctx context.Context, documentID id.DocumentID, extracted *models.ExtractedTrade) (*models.ValidationResult, error) {
	start := s.now()
	defer s.metrics.ObserveValidate(start)

	ruleSet, err := s.rules.Snapshot(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load matching rules")
	}
	listed, err := s.trades.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load candidate trades")
	}
	// The resolver scores value copies so concurrent scoring cannot alias
	// store-owned records.
	candidates := make([]trademodels.Trade, len(listed))
	for i, t := range listed {
		candidates[i] = *t
	}

	resolution, err := ResolveCandidate(ctx, ruleSet, extracted, candidates, s.thresholds.ResolutionFloor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve candidate")
	}

	found := resolution.Trade != nil
	status, confidence := Aggregate(resolution.Comparisons, found, s.thresholds.MismatchBoundary)

	result := &models.ValidationResult{
		ID:                id.NewValidationID(),
		DocumentID:        documentID,
		SystemTradeID:     models.TradeIDNotFound,
		Status:            status,
		FieldComparisons:  resolution.Comparisons,
		MachineConfidence: confidence,
		Warnings:          resolution.Warnings,
		CheckerDecision:   models.CheckerPending,
		CreatedAt:         start,
	}
	if found {
		result.SystemTradeID = resolution.Trade.TradeID
	}
	s.enrich(result, resolution.Trade, extracted)

	if AutoPass(status, confidence, found, s.thresholds.AutoPass) {
		result.AutoPassed = true
		if err := result.ApplyCheckerAction(models.CheckerAction{
			Type:    models.ActionApprove,
			Comment: autoApproveComment,
		}, start); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "auto-approve")
		}
	}

	if err := s.results.Create(ctx, result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist validation result")
	}

	s.metrics.RecordValidation(string(status), confidence, result.AutoPassed)
	s.emit(ctx, audit.Event{
		Type:          audit.TypeValidationCreated,
		ValidationID:  result.ID.String(),
		DocumentID:    documentID.String(),
		SystemTradeID: result.SystemTradeID,
		Actor:         "system",
		Detail: map[string]string{
			"status":     string(status),
			"confidence": fmt.Sprintf("%.4f", confidence),
		},
	})
	if result.AutoPassed {
		s.emit(ctx, audit.Event{
			Type:          audit.TypeAutoPassed,
			ValidationID:  result.ID.String(),
			DocumentID:    documentID.String(),
			SystemTradeID: result.SystemTradeID,
			Actor:         "system",
		})
	}

	s.logger.Info("validation completed",
		"validation_id", result.ID,
		"document_id", documentID,
		"system_trade_id", result.SystemTradeID,
		"status", status,
		"confidence", confidence,
		"auto_passed", result.AutoPassed,
		"identity_match", resolution.Identity,
	)
	return result, nil
}

// ApplyCheckerAction applies one human review action. Terminal states are
// re-entrant; an invalid action leaves the result unchanged.
func (s *Service) ApplyCheckerAction(ctx context.Context, resultID id.ValidationID, action models.CheckerAction) (*models.ValidationResult, error) {
	now := s.now()
	updated, err := s.results.Update(ctx, resultID, func(r *models.ValidationResult) error {
		return r.ApplyCheckerAction(action, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCheckerAction(string(action.Type))
	s.emit(ctx, audit.Event{
		Type:          audit.TypeCheckerAction,
		ValidationID:  updated.ID.String(),
		DocumentID:    updated.DocumentID.String(),
		SystemTradeID: updated.SystemTradeID,
		Actor:         "checker",
		Detail: map[string]string{
			"action":   string(action.Type),
			"decision": string(updated.CheckerDecision),
		},
	})
	s.logger.Info("checker action applied",
		"validation_id", resultID,
		"action", action.Type,
		"decision", updated.CheckerDecision,
	)
	return updated, nil
}

// Get returns one validation result.
func (s *Service) Get(ctx context.Context, resultID id.ValidationID) (*models.ValidationResult, error) {
	return s.results.Get(ctx, resultID)
}

// List returns validation results matching the filter, oldest first.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]models.ValidationResult, error) {
	return s.results.List(ctx, filter)
}

// enrich copies reporting fields from the resolved trade, falling back to the
// extraction when no trade resolved.
func (s *Service) enrich(result *models.ValidationResult, trade *trademodels.Trade, extracted *models.ExtractedTrade) {
	if trade != nil {
		result.PartyA = trade.PartyA
		result.PartyB = trade.PartyB
		result.TradeDate = trade.TradeDate
		result.EffectiveDate = trade.EffectiveDate
		result.ScheduledTerminationDate = trade.ScheduledTerminationDate
		result.LocalCurrency = trade.LocalCurrency
		result.NotionalAmount = trade.NotionalAmount
		return
	}
	result.PartyA = extractedString(extracted, "party_a")
	result.PartyB = extractedString(extracted, "party_b")
	result.TradeDate = extractedString(extracted, "trade_date")
	result.EffectiveDate = extractedString(extracted, "effective_date")
	result.ScheduledTerminationDate = extractedString(extracted, "scheduled_termination_date")
	result.LocalCurrency = extractedString(extracted, "local_currency")
	if f, ok := extracted.Field("notional_amount"); ok {
		if d, ok := parseDecimal(f.Value); ok {
			result.NotionalAmount, _ = d.Float64()
		}
	}
}

func extractedString(extracted *models.ExtractedTrade, name string) string {
	f, ok := extracted.Field(name)
	if !ok || isNilValue(f.Value) {
		return ""
	}
	if s, ok := f.Value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", f.Value)
}

// emit publishes an audit event; a failing audit sink never fails the
// business operation.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emit failed", "type", event.Type, "error", err)
	}
}
