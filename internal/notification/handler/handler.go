// Package handler exposes the notification inbox over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doctrack/internal/notification/models"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/httputil"
)

// Service defines the notification operations the handler needs.
type Service interface {
	List(ctx context.Context, account uuid.UUID) ([]models.Notification, error)
	CountUnread(ctx context.Context, account uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, account uuid.UUID) error
	MarkAllRead(ctx context.Context, account uuid.UUID) (int, error)
}

// Handler handles notification endpoints.
type Handler struct {
	notifications Service
	logger        *slog.Logger
}

// New creates a notification Handler.
func New(notifications Service, logger *slog.Logger) *Handler {
	return &Handler{notifications: notifications, logger: logger}
}

// Register registers the notification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Post("/notifications/{id}/read", h.handleMarkRead)
	r.Post("/notifications/read-all", h.handleMarkAllRead)
}

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	list, err := h.notifications.List(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications", "account", account, "error", err)
		httputil.WriteError(w, err)
		return
	}
	unread, err := h.notifications.CountUnread(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count unread notifications", "account", account, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Notifications: list, UnreadCount: unread})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "invalid notification id"))
		return
	}

	if err := h.notifications.MarkRead(ctx, id, account); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	marked, err := h.notifications.MarkAllRead(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mark all notifications read", "account", account, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

// accountParam reads the required account query parameter. Identity comes
// from the caller until the auth collaborator fronts this service.
func (h *Handler) accountParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("account")
	if raw == "" {
		httputil.WriteError(w, domerrors.New(domerrors.CodeValidation, "account query parameter is required"))
		return uuid.Nil, false
	}
	account, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "invalid account id"))
		return uuid.Nil, false
	}
	return account, true
}
