// Package service exposes the read/mark surface over persisted notifications.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"doctrack/internal/notification/models"
	"doctrack/internal/notification/store"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/sentinel"
)

// Service lists and marks notifications for an account. The unread count is
// served from the Redis counter when it is warm, falling back to the store.
type Service struct {
	store  store.NotificationStore
	unread *store.UnreadCache
	logger *slog.Logger
}

// New constructs the notification service. cache may be nil.
func New(notifications store.NotificationStore, cache *store.UnreadCache, logger *slog.Logger) *Service {
	return &Service{store: notifications, unread: cache, logger: logger}
}

// List returns an account's notifications, newest first.
func (s *Service) List(ctx context.Context, account uuid.UUID) ([]models.Notification, error) {
	list, err := s.store.ListByRecipient(ctx, account)
	if err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to list notifications")
	}
	return list, nil
}

// CountUnread returns the number of unread notifications for an account.
func (s *Service) CountUnread(ctx context.Context, account uuid.UUID) (int, error) {
	if count, ok := s.unread.Get(ctx, account); ok {
		return count, nil
	}
	count, err := s.store.CountUnread(ctx, account)
	if err != nil {
		return 0, domerrors.Wrap(err, domerrors.CodeInternal, "failed to count unread notifications")
	}
	s.unread.Set(ctx, account, count)
	return count, nil
}

// MarkRead marks one notification read. The account must be its recipient.
func (s *Service) MarkRead(ctx context.Context, id, account uuid.UUID) error {
	if err := s.store.MarkRead(ctx, id, account); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domerrors.New(domerrors.CodeNotFound, "notification not found")
		}
		return domerrors.Wrap(err, domerrors.CodeInternal, "failed to mark notification read")
	}
	s.unread.Invalidate(ctx, account)
	return nil
}

// MarkAllRead marks every unread notification for an account read and returns
// how many were marked.
func (s *Service) MarkAllRead(ctx context.Context, account uuid.UUID) (int, error) {
	marked, err := s.store.MarkAllRead(ctx, account)
	if err != nil {
		return 0, domerrors.Wrap(err, domerrors.CodeInternal, "failed to mark notifications read")
	}
	s.unread.Set(ctx, account, 0)
	return marked, nil
}
