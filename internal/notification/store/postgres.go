package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"doctrack/internal/notification/models"
	"doctrack/pkg/sentinel"
)

// Postgres persists notifications in PostgreSQL. Batches insert inside one
// transaction so a fan-out either lands whole or not at all.
type Postgres struct {
	db *sql.DB
}

var _ NotificationStore = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateBatch(ctx context.Context, batch []models.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, n := range batch {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		metadata, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshal notification metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (id, recipient, type, title, message, document_id, read, created_at, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, n.ID, n.Recipient, string(n.Type), n.Title, n.Message, n.DocumentID, n.Read, n.CreatedAt, metadata); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Postgres) ListByRecipient(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient, type, title, message, document_id, read, created_at, metadata
		FROM notifications WHERE recipient = $1 ORDER BY created_at DESC
	`, recipient)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n        models.Notification
			typ      string
			metadata []byte
		)
		if err := rows.Scan(&n.ID, &n.Recipient, &typ, &n.Title, &n.Message, &n.DocumentID, &n.Read, &n.CreatedAt, &metadata); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = models.Type(typ)
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) CountUnread(ctx context.Context, recipient uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM notifications WHERE recipient = $1 AND NOT read
	`, recipient).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *Postgres) MarkRead(ctx context.Context, id, recipient uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient = $2
	`, id, recipient)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) MarkAllRead(ctx context.Context, recipient uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE recipient = $1 AND NOT read
	`, recipient)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(affected), nil
}
