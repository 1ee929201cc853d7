// Package handler exposes the analytics reports over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"doctrack/internal/analytics/models"
	"doctrack/internal/analytics/service"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/httputil"
)

// Service defines the analytics operations the handler needs.
type Service interface {
	Trends(ctx context.Context, q service.TrendQuery) (*models.TrendReport, error)
	Patterns(ctx context.Context, months int) (*models.PatternReport, error)
}

// Handler handles analytics endpoints.
type Handler struct {
	analytics Service
	logger    *slog.Logger
}

// New creates an analytics Handler.
func New(analytics Service, logger *slog.Logger) *Handler {
	return &Handler{analytics: analytics, logger: logger}
}

// Register registers the analytics routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/analytics/trends", h.handleTrends)
	r.Get("/analytics/patterns", h.handlePatterns)
}

func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	months, ok := monthsParam(w, r)
	if !ok {
		return
	}
	query := service.TrendQuery{
		Period:   models.Period(r.URL.Query().Get("period")),
		Months:   months,
		Office:   r.URL.Query().Get("office"),
		Category: r.URL.Query().Get("category"),
	}
	if query.Period == "" {
		query.Period = models.PeriodMonthly
	}

	report, err := h.analytics.Trends(ctx, query)
	if err != nil {
		if !domerrors.HasCode(err, domerrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "trend computation failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handlePatterns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	months, ok := monthsParam(w, r)
	if !ok {
		return
	}
	report, err := h.analytics.Patterns(ctx, months)
	if err != nil {
		if !domerrors.HasCode(err, domerrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "pattern detection failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func monthsParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return 0, true
	}
	months, err := strconv.Atoi(raw)
	if err != nil || months < 0 {
		httputil.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "months must be a positive integer"))
		return 0, false
	}
	return months, true
}
