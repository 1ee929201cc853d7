package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/document/models"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/requestcontext"
	"doctrack/pkg/sentinel"
)

// HistoryEntry is one routing ledger record as served to callers. Closed
// entries carry their stored retroactive duration; the open entry reports the
// hours accrued so far without persisting anything.
type HistoryEntry struct {
	Office    string        `json:"office"`
	Action    models.Action `json:"action"`
	Handler   string        `json:"handler"`
	Timestamp string        `json:"timestamp"`
	Comments  string        `json:"comments,omitempty"`
	Hours     float64       `json:"processingTime"`
	Open      bool          `json:"open"`
}

// RoutingHistory returns the ordered ledger with per-entry computed durations.
func (s *Service) RoutingHistory(ctx context.Context, id uuid.UUID) ([]HistoryEntry, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domerrors.New(domerrors.CodeNotFound, "document not found")
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to load document")
	}

	now := requestcontext.Now(ctx)
	out := make([]HistoryEntry, 0, len(doc.RoutingHistory))
	for i, entry := range doc.RoutingHistory {
		he := HistoryEntry{
			Office:    entry.Office,
			Action:    entry.Action,
			Handler:   entry.Handler,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339),
			Comments:  entry.Comments,
			Hours:     entry.ProcessingTime,
		}
		if i == len(doc.RoutingHistory)-1 && doc.Status.Active() {
			he.Open = true
			elapsed := models.HoursBetween(entry.Timestamp, now)
			if elapsed < 0 {
				elapsed = 0
			}
			he.Hours = models.RoundHours(elapsed)
		}
		out = append(out, he)
	}
	return out, nil
}
