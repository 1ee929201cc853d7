package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"doctrack/internal/document/models"
	"doctrack/pkg/sentinel"
)

// Postgres persists documents in PostgreSQL. RoutingHistory, ScanHistory,
// AssignedTo and Tags are jsonb columns: the ledger lives embedded in the
// document row, not in a join table. See migrations/0001_init.sql.
type Postgres struct {
	db *sql.DB
}

var _ DocumentStore = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const documentColumns = `
	id, code, status, current_office, next_office, current_handler, assigned_to,
	priority, date_uploaded, current_stage_start, expected_hours, is_delayed,
	delayed_hours, routing_history, scan_history, submitted_by, department,
	category, tags, reviewer, reviewed_at
`

func (s *Postgres) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	cols, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`, cols...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1
	`, id))
}

func (s *Postgres) FindByCode(ctx context.Context, code string) (*models.Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE lower(code) = lower($1)
	`, code))
}

func (s *Postgres) List(ctx context.Context) ([]models.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents ORDER BY date_uploaded
	`)
}

func (s *Postgres) ListActive(ctx context.Context) ([]models.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status NOT IN ('Approved', 'Rejected', 'Returned')
		ORDER BY date_uploaded
	`)
}

func (s *Postgres) Update(ctx context.Context, doc *models.Document) error {
	cols, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			code = $2, status = $3, current_office = $4, next_office = $5,
			current_handler = $6, assigned_to = $7, priority = $8,
			date_uploaded = $9, current_stage_start = $10, expected_hours = $11,
			is_delayed = $12, delayed_hours = $13, routing_history = $14,
			scan_history = $15, submitted_by = $16, department = $17,
			category = $18, tags = $19, reviewer = $20, reviewed_at = $21
		WHERE id = $1
	`, cols...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute loads the row under SELECT FOR UPDATE, runs validate then mutate,
// and writes back in the same transaction. Concurrent transitions on the same
// document queue on the row lock.
func (s *Postgres) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	doc, err := scanDocument(tx.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

	if err := validate(doc); err != nil {
		return nil, err
	}
	mutate(doc)

	cols, err := marshalDoc(doc)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET
			code = $2, status = $3, current_office = $4, next_office = $5,
			current_handler = $6, assigned_to = $7, priority = $8,
			date_uploaded = $9, current_stage_start = $10, expected_hours = $11,
			is_delayed = $12, delayed_hours = $13, routing_history = $14,
			scan_history = $15, submitted_by = $16, department = $17,
			category = $18, tags = $19, reviewer = $20, reviewed_at = $21
		WHERE id = $1
	`, cols...); err != nil {
		return nil, fmt.Errorf("write transition: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return doc, nil
}

func (s *Postgres) queryDocuments(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

func marshalDoc(doc *models.Document) ([]any, error) {
	routing, err := json.Marshal(doc.RoutingHistory)
	if err != nil {
		return nil, fmt.Errorf("marshal routing history: %w", err)
	}
	scans, err := json.Marshal(doc.ScanHistory)
	if err != nil {
		return nil, fmt.Errorf("marshal scan history: %w", err)
	}
	assigned, err := json.Marshal(doc.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("marshal assignees: %w", err)
	}
	tags, err := json.Marshal(doc.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	var handler any
	if doc.CurrentHandler != nil {
		handler = *doc.CurrentHandler
	}
	var reviewedAt any
	if doc.ReviewedAt != nil {
		reviewedAt = *doc.ReviewedAt
	}

	return []any{
		doc.ID, doc.Code, string(doc.Status), doc.CurrentOffice, doc.NextOffice,
		handler, assigned, string(doc.Priority), doc.DateUploaded,
		doc.CurrentStageStart, doc.ExpectedHours, doc.IsDelayed,
		doc.DelayedHours, routing, scans, doc.SubmittedBy, doc.Department,
		doc.Category, tags, doc.Reviewer, reviewedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (*models.Document, error) {
	doc, err := scanDocumentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*models.Document, error) {
	var (
		doc        models.Document
		status     string
		priority   string
		handler    sql.Null[uuid.UUID]
		reviewedAt sql.NullTime
		routing    []byte
		scans      []byte
		assigned   []byte
		tags       []byte
	)
	err := row.Scan(
		&doc.ID, &doc.Code, &status, &doc.CurrentOffice, &doc.NextOffice,
		&handler, &assigned, &priority, &doc.DateUploaded,
		&doc.CurrentStageStart, &doc.ExpectedHours, &doc.IsDelayed,
		&doc.DelayedHours, &routing, &scans, &doc.SubmittedBy, &doc.Department,
		&doc.Category, &tags, &doc.Reviewer, &reviewedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = models.Status(status)
	doc.Priority = models.Priority(priority)
	if handler.Valid {
		doc.CurrentHandler = &handler.V
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		doc.ReviewedAt = &t
	}
	if err := json.Unmarshal(routing, &doc.RoutingHistory); err != nil {
		return nil, fmt.Errorf("unmarshal routing history: %w", err)
	}
	if err := json.Unmarshal(scans, &doc.ScanHistory); err != nil {
		return nil, fmt.Errorf("unmarshal scan history: %w", err)
	}
	if err := json.Unmarshal(assigned, &doc.AssignedTo); err != nil {
		return nil, fmt.Errorf("unmarshal assignees: %w", err)
	}
	if err := json.Unmarshal(tags, &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &doc, nil
}
