package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"doctrack/internal/notification/models"
	"doctrack/pkg/sentinel"
)

func notif(recipient uuid.UUID, createdAt time.Time) models.Notification {
	return models.Notification{
		Recipient:  recipient,
		Type:       models.TypeForwarded,
		Title:      "Document Forwarded",
		Message:    "Document DOC-1 forwarded to Budget Office",
		DocumentID: uuid.New(),
		CreatedAt:  createdAt,
	}
}

func TestMemoryBatchAndList(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	recipient := uuid.New()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	batch := []models.Notification{
		notif(recipient, base),
		notif(recipient, base.Add(time.Hour)),
		notif(uuid.New(), base), // someone else's
	}
	require.NoError(t, s.CreateBatch(ctx, batch))

	got, err := s.ListByRecipient(ctx, recipient)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// newest first
	require.True(t, got[0].CreatedAt.After(got[1].CreatedAt))
}

func TestMemoryUnreadLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	recipient := uuid.New()
	now := time.Now()

	require.NoError(t, s.CreateBatch(ctx, []models.Notification{
		notif(recipient, now), notif(recipient, now), notif(recipient, now),
	}))

	count, err := s.CountUnread(ctx, recipient)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	list, err := s.ListByRecipient(ctx, recipient)
	require.NoError(t, err)
	require.NoError(t, s.MarkRead(ctx, list[0].ID, recipient))

	count, err = s.CountUnread(ctx, recipient)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	marked, err := s.MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	require.Equal(t, 2, marked)

	count, err = s.CountUnread(ctx, recipient)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestMemoryMarkReadEnforcesRecipient(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	recipient := uuid.New()

	require.NoError(t, s.CreateBatch(ctx, []models.Notification{notif(recipient, time.Now())}))
	list, err := s.ListByRecipient(ctx, recipient)
	require.NoError(t, err)

	err = s.MarkRead(ctx, list[0].ID, uuid.New())
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	err = s.MarkRead(ctx, uuid.New(), recipient)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
