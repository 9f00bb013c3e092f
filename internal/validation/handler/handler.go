// Package handler exposes the validation engine over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"affirm/internal/platform/middleware"
	"affirm/internal/validation/models"
	"affirm/internal/validation/store"
	id "affirm/pkg/domain"
	dErrors "affirm/pkg/domain-errors"
	"affirm/pkg/platform/httputil"
	"affirm/pkg/platform/sentinel"
)

// Service is the validation engine surface the handler depends on.
type Service interface {
	Validate(ctx context.Context, documentID id.DocumentID, extracted *models.ExtractedTrade) (*models.ValidationResult, error)
	ApplyCheckerAction(ctx context.Context, resultID id.ValidationID, action models.CheckerAction) (*models.ValidationResult, error)
	Get(ctx context.Context, resultID id.ValidationID) (*models.ValidationResult, error)
	List(ctx context.Context, filter store.Filter) ([]models.ValidationResult, error)
}

// Handler wires validation endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a validation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts validation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/validations", h.handleValidate)
	r.Get("/validations", h.handleList)
	r.Get("/validations/{validationID}", h.handleGet)
	r.Post("/validations/{validationID}/checker", h.handleChecker)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Validate(ctx, req.ParsedDocumentID(), &req.Extracted)
	if err != nil {
		h.writeServiceError(w, r, "validation run failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	results, err := h.service.List(ctx, filter)
	if err != nil {
		h.writeServiceError(w, r, "failed to list validations", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"validations": results,
		"count":       len(results),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validationID, err := id.ParseValidationID(chi.URLParam(r, "validationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "validation id must be a valid uuid"))
		return
	}

	result, err := h.service.Get(ctx, validationID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load validation", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleChecker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	validationID, err := id.ParseValidationID(chi.URLParam(r, "validationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "validation id must be a valid uuid"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CheckerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ApplyCheckerAction(ctx, validationID, req.Action())
	if err != nil {
		h.writeServiceError(w, r, "checker action failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// filterFromQuery builds a list filter from query parameters, rejecting
// unknown enum values.
func filterFromQuery(r *http.Request) (store.Filter, error) {
	var filter store.Filter
	q := r.URL.Query()

	if raw := strings.ToUpper(strings.TrimSpace(q.Get("status"))); raw != "" {
		switch models.Status(raw) {
		case models.StatusMatch, models.StatusPartial, models.StatusMismatch, models.StatusPending:
			filter.Status = models.Status(raw)
		default:
			return store.Filter{}, dErrors.New(dErrors.CodeValidation, "unknown status filter")
		}
	}
	if raw := strings.ToUpper(strings.TrimSpace(q.Get("checker_decision"))); raw != "" {
		switch models.CheckerDecision(raw) {
		case models.CheckerPending, models.CheckerApproved, models.CheckerRejected, models.CheckerOverridden:
			filter.Decision = models.CheckerDecision(raw)
		default:
			return store.Filter{}, dErrors.New(dErrors.CodeValidation, "unknown checker_decision filter")
		}
	}
	if raw := strings.TrimSpace(q.Get("document_id")); raw != "" {
		docID, err := id.ParseDocumentID(raw)
		if err != nil {
			return store.Filter{}, dErrors.New(dErrors.CodeValidation, "document_id filter must be a valid uuid")
		}
		filter.DocumentID = docID
	}
	if raw := strings.TrimSpace(q.Get("auto_passed")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return store.Filter{}, dErrors.New(dErrors.CodeValidation, "auto_passed filter must be a boolean")
		}
		filter.AutoPassed = &v
	}
	return filter, nil
}

// writeServiceError translates service failures into the error envelope.
// dErrors pass through with their own code; sentinels map to HTTP-meaningful
// codes; anything else is internal.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "validation result not found"))
	case errors.Is(err, sentinel.ErrConflict):
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "validation result already exists"))
	case dErrors.Is(err, dErrors.CodeValidation), dErrors.Is(err, dErrors.CodeInvalidInput):
		httputil.WriteError(w, err)
	default:
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, msg))
	}
}
