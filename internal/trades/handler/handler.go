package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"affirm/internal/platform/middleware"
	"affirm/internal/trades/store"
	dErrors "affirm/pkg/domain-errors"
	"affirm/pkg/platform/httputil"
	"affirm/pkg/platform/sentinel"
)

// Handler wires trade CRUD endpoints to the trade store.
type Handler struct {
	store  store.Store
	logger *slog.Logger
}

// New constructs a trades handler with its dependencies.
func New(store store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts trade endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/trades/trs", h.handleList)
	r.Post("/trades/trs", h.handleCreate)
	r.Get("/trades/trs/{tradeID}", h.handleGet)
	r.Put("/trades/trs/{tradeID}", h.handleUpdate)
	r.Delete("/trades/trs/{tradeID}", h.handleDelete)
	r.Post("/trades/import", h.handleImport)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "trade not found"))
	case errors.Is(err, sentinel.ErrConflict):
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "trade_id already exists"))
	default:
		h.logger.ErrorContext(r.Context(), "trade store failure",
			"request_id", middleware.GetRequestID(r.Context()),
			"action", action,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "trade store failure"))
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err, "list")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"trs_trades": trades})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")
	trade, err := h.store.FindByTradeID(r.Context(), tradeID)
	if err != nil {
		h.writeStoreError(w, r, err, "get")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trade)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TradePayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	trade := req.ParsedTrade()
	if err := h.store.Create(ctx, trade); err != nil {
		h.writeStoreError(w, r, err, "create")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, trade)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	tradeID := chi.URLParam(r, "tradeID")

	req, ok := httputil.DecodeAndPrepare[TradePayload](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	existing, err := h.store.FindByTradeID(ctx, tradeID)
	if err != nil {
		h.writeStoreError(w, r, err, "update")
		return
	}

	trade := req.ParsedTrade()
	trade.ID = existing.ID
	trade.TradeID = existing.TradeID
	trade.CreatedAt = existing.CreatedAt
	trade.UpdatedAt = time.Now()

	if err := h.store.Update(ctx, trade); err != nil {
		h.writeStoreError(w, r, err, "update")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trade)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")
	if err := h.store.Delete(r.Context(), tradeID); err != nil {
		h.writeStoreError(w, r, err, "delete")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ImportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	imported := 0
	skipped := 0
	for _, trade := range req.ParsedTrades() {
		err := h.store.Create(ctx, trade)
		if errors.Is(err, sentinel.ErrConflict) {
			skipped++
			continue
		}
		if err != nil {
			h.writeStoreError(w, r, err, "import")
			return
		}
		imported++
	}

	h.logger.InfoContext(ctx, "trades imported",
		"request_id", requestID,
		"imported", imported,
		"skipped", skipped,
	)

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "imported",
		"imported": imported,
		"skipped":  skipped,
	})
}
