package store

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/notification/models"
)

// NotificationStore persists fan-out records. The collection is append-only;
// only the Read flag ever changes after creation.
type NotificationStore interface {
	CreateBatch(ctx context.Context, batch []models.Notification) error
	ListByRecipient(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, recipient uuid.UUID) error
	MarkAllRead(ctx context.Context, recipient uuid.UUID) (int, error)
}
