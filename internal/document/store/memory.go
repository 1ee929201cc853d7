package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"doctrack/internal/document/models"
	"doctrack/pkg/sentinel"
)

// Memory is a mutex-guarded in-memory document store. The mutex is held for
// the full span of Execute, which is what gives transitions their
// validate-then-mutate atomicity in single-process deployments.
type Memory struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]models.Document
}

var _ DocumentStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{docs: make(map[uuid.UUID]models.Document)}
}

func (s *Memory) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	for _, existing := range s.docs {
		if strings.EqualFold(existing.Code, doc.Code) {
			return sentinel.ErrConflict
		}
	}
	s.docs[doc.ID] = clone(doc)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clone(&doc)
	return &out, nil
}

func (s *Memory) FindByCode(_ context.Context, code string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if strings.EqualFold(doc.Code, code) {
			out := clone(&doc)
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) List(_ context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, clone(&doc))
	}
	return out, nil
}

func (s *Memory) ListActive(_ context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, doc := range s.docs {
		if doc.Status.Active() {
			out = append(out, clone(&doc))
		}
	}
	return out, nil
}

func (s *Memory) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.docs[doc.ID] = clone(doc)
	return nil
}

func (s *Memory) Execute(_ context.Context, id uuid.UUID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(&doc)
	if err := validate(&working); err != nil {
		return nil, err
	}
	mutate(&working)
	s.docs[id] = clone(&working)
	return &working, nil
}

// clone deep-copies the slices so callers never alias stored ledger arrays.
func clone(doc *models.Document) models.Document {
	out := *doc
	out.RoutingHistory = append([]models.RoutingEntry(nil), doc.RoutingHistory...)
	out.ScanHistory = append([]models.ScanEntry(nil), doc.ScanHistory...)
	out.AssignedTo = append([]uuid.UUID(nil), doc.AssignedTo...)
	out.Tags = append([]string(nil), doc.Tags...)
	if doc.CurrentHandler != nil {
		h := *doc.CurrentHandler
		out.CurrentHandler = &h
	}
	if doc.ReviewedAt != nil {
		t := *doc.ReviewedAt
		out.ReviewedAt = &t
	}
	return out
}
