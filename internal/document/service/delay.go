package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"doctrack/internal/document/models"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/requestcontext"
)

// checkDelayWorkers bounds the batch delay scan's store concurrency.
const checkDelayWorkers = 8

// EvaluateDelay recomputes the delay flags against the given instant and
// reports whether anything changed. Pure: no store access, no clock reads.
// Re-running at the same instant is a no-op, so flags are write-once-per-check.
func EvaluateDelay(doc *models.Document, now time.Time) bool {
	if !doc.Status.Active() {
		return false
	}

	elapsed := now.Sub(doc.CurrentStageStart).Hours()

	delayed := elapsed > doc.ExpectedHours
	hours := 0
	if delayed {
		hours = int(math.Floor(elapsed - doc.ExpectedHours))
	}

	if doc.IsDelayed == delayed && doc.DelayedHours == hours {
		return false
	}
	doc.IsDelayed = delayed
	doc.DelayedHours = hours
	return true
}

// refreshDelay evaluates the delay flags for one document as a read side
// effect and persists them only when they changed. The flags go stale between
// checks; there is no background recomputation.
func (s *Service) refreshDelay(ctx context.Context, doc *models.Document) (*models.Document, error) {
	now := requestcontext.Now(ctx)
	if !EvaluateDelay(doc, now) {
		return doc, nil
	}
	if doc.IsDelayed {
		s.metrics.RecordDelayFlagged()
	}

	updated, err := s.docs.Execute(ctx, doc.ID,
		func(d *models.Document) error { return nil },
		func(d *models.Document) { EvaluateDelay(d, now) },
	)
	if err != nil {
		// the read itself succeeded; serve the evaluated document and let the
		// next check persist
		s.logger.WarnContext(ctx, "failed to persist delay flags",
			"document", doc.Code, "error", err)
		return doc, nil
	}
	return updated, nil
}

// CheckDelays scans every active document against one consistent instant and
// returns the documents newly flagged as delayed, ordered by code.
func (s *Service) CheckDelays(ctx context.Context) ([]models.Document, error) {
	docs, err := s.docs.ListActive(ctx)
	if err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to list active documents")
	}
	now := requestcontext.Now(ctx)

	var (
		mu    sync.Mutex
		newly []models.Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkDelayWorkers)
	for i := range docs {
		doc := docs[i]
		g.Go(func() error {
			wasDelayed := doc.IsDelayed
			if !EvaluateDelay(&doc, now) {
				return nil
			}
			updated, err := s.docs.Execute(gctx, doc.ID,
				func(d *models.Document) error { return nil },
				func(d *models.Document) { EvaluateDelay(d, now) },
			)
			if err != nil {
				s.logger.WarnContext(gctx, "failed to persist delay flags",
					"document", doc.Code, "error", err)
				return nil
			}
			if !wasDelayed && updated.IsDelayed {
				s.metrics.RecordDelayFlagged()
				mu.Lock()
				newly = append(newly, *updated)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "delay check failed")
	}

	sort.Slice(newly, func(i, j int) bool { return newly[i].Code < newly[j].Code })
	return newly, nil
}
