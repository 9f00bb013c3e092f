package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"affirm/internal/platform/middleware"
	"affirm/internal/rules/store"
	dErrors "affirm/pkg/domain-errors"
	"affirm/pkg/platform/httputil"
)

// Handler wires rule configuration endpoints to the rule store.
type Handler struct {
	store  store.Store
	logger *slog.Logger
}

// New constructs a rules handler with its dependencies.
func New(store store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts rule endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/rules", h.handleListRules)
	r.Put("/rules", h.handleSaveRules)
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rules, err := h.store.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list rules",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rules"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) handleSaveRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SaveRulesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.store.Replace(ctx, req.ParsedRules()); err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to save rules",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save rules"))
		return
	}

	h.logger.InfoContext(ctx, "rules replaced",
		"request_id", requestID,
		"rule_count", len(req.ParsedRules()),
	)

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"rules": req.ParsedRules()})
}
