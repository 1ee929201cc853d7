package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"doctrack/internal/notification/models"
	"doctrack/pkg/sentinel"
)

// Memory is a mutex-guarded in-memory notification store.
type Memory struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]models.Notification
	byRecipient map[uuid.UUID][]uuid.UUID // recipient -> notification IDs in insert order
}

var _ NotificationStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		byID:        make(map[uuid.UUID]models.Notification),
		byRecipient: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *Memory) CreateBatch(_ context.Context, batch []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range batch {
		if n.ID == uuid.Nil {
			n.ID = uuid.New()
		}
		s.byID[n.ID] = n
		s.byRecipient[n.Recipient] = append(s.byRecipient[n.Recipient], n.ID)
	}
	return nil
}

func (s *Memory) ListByRecipient(_ context.Context, recipient uuid.UUID) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byRecipient[recipient]
	out := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	// newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) CountUnread(_ context.Context, recipient uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, id := range s.byRecipient[recipient] {
		if !s.byID[id].Read {
			count++
		}
	}
	return count, nil
}

func (s *Memory) MarkRead(_ context.Context, id, recipient uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok || n.Recipient != recipient {
		return sentinel.ErrNotFound
	}
	n.Read = true
	s.byID[id] = n
	return nil
}

func (s *Memory) MarkAllRead(_ context.Context, recipient uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked := 0
	for _, id := range s.byRecipient[recipient] {
		n := s.byID[id]
		if !n.Read {
			n.Read = true
			s.byID[id] = n
			marked++
		}
	}
	return marked, nil
}
