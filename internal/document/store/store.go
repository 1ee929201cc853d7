package store

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/document/models"
)

// DocumentStore persists tracked documents with their embedded routing and
// scan ledgers. Lookups return sentinel.ErrNotFound when absent.
//
// Execute is the atomic validate-then-mutate primitive used by lifecycle
// transitions: the store holds its lock (mutex or SELECT FOR UPDATE) across
// both callbacks, so two concurrent transitions on one document serialize
// instead of racing on the ledger. Returning an error from validate aborts
// with no mutation persisted.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	FindByCode(ctx context.Context, code string) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	ListActive(ctx context.Context) ([]models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error)
}
