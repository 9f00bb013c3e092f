// Package handler serves validation report downloads.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"affirm/internal/platform/middleware"
	"affirm/internal/report"
	"affirm/internal/validation/models"
	"affirm/internal/validation/store"
	dErrors "affirm/pkg/domain-errors"
	"affirm/pkg/platform/httputil"
)

// Lister is the slice of the validation engine the report needs.
type Lister interface {
	List(ctx context.Context, filter store.Filter) ([]models.ValidationResult, error)
}

// Handler streams validation reports.
type Handler struct {
	lister Lister
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a report handler.
func New(lister Lister, logger *slog.Logger) *Handler {
	return &Handler{lister: lister, logger: logger, now: time.Now}
}

// Register mounts the report endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/validations/report", h.handleReport)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "format must be csv or xlsx"))
		return
	}

	results, err := h.lister.List(ctx, store.Filter{})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load validations for report",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build report"))
		return
	}

	stamp := h.now().UTC().Format("20060102-150405")
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=validations-%s.csv", stamp))
		if err := report.WriteCSV(w, results); err != nil {
			h.logger.ErrorContext(ctx, "failed to stream csv report",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
		}
	case "xlsx":
		f, err := report.BuildXLSX(results)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to build xlsx report",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build report"))
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=validations-%s.xlsx", stamp))
		if err := f.Write(w); err != nil {
			h.logger.ErrorContext(ctx, "failed to stream xlsx report",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
		}
	}
}
