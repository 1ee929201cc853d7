// Package service implements the document lifecycle state machine: status
// transitions, the append-only routing ledger with retroactive stage
// durations, and on-demand delay detection.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"doctrack/internal/document/metrics"
	"doctrack/internal/document/models"
	"doctrack/internal/document/store"
	notifmodels "doctrack/internal/notification/models"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/requestcontext"
	"doctrack/pkg/sentinel"
)

// Notifier fans a completed lifecycle event out to its audience. Delivery is a
// best-effort side channel: implementations log and swallow their own
// failures.
type Notifier interface {
	Fanout(ctx context.Context, doc *models.Document, event notifmodels.Type)
}

// Service orchestrates document lifecycle transitions.
type Service struct {
	docs     store.DocumentStore
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithNotifier attaches the notification fan-out engine.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the document service.
func New(docs store.DocumentStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{docs: docs, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitInput carries everything needed to register a new document.
type SubmitInput struct {
	Code          string
	Office        string
	SubmittedBy   string
	Department    string
	Category      string
	Tags          []string
	Priority      models.Priority
	ExpectedHours float64
	Comments      string
}

// Validate checks required submission fields.
func (in *SubmitInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return domerrors.New(domerrors.CodeValidation, "document code is required")
	}
	if strings.TrimSpace(in.Office) == "" {
		return domerrors.New(domerrors.CodeValidation, "intake office is required")
	}
	if strings.TrimSpace(in.SubmittedBy) == "" {
		return domerrors.New(domerrors.CodeValidation, "submitter is required")
	}
	if in.Priority != "" && !models.ValidPriority(in.Priority) {
		return domerrors.New(domerrors.CodeValidation, "unknown priority")
	}
	return nil
}

// Submit registers a new document at its intake office and fans out the
// uploaded event.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	expected := in.ExpectedHours
	if expected <= 0 {
		expected = 24
	}

	doc := &models.Document{
		ID:                uuid.New(),
		Code:              strings.TrimSpace(in.Code),
		Status:            models.StatusSubmitted,
		CurrentOffice:     strings.TrimSpace(in.Office),
		Priority:          priority,
		DateUploaded:      now,
		CurrentStageStart: now,
		ExpectedHours:     expected,
		SubmittedBy:       strings.TrimSpace(in.SubmittedBy),
		Department:        in.Department,
		Category:          in.Category,
		Tags:              in.Tags,
	}
	doc.AppendEntry(models.RoutingEntry{
		Office:    doc.CurrentOffice,
		Action:    models.ActionReceived,
		Handler:   doc.SubmittedBy,
		Timestamp: now,
		Comments:  in.Comments,
	})

	if err := s.docs.Create(ctx, doc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, domerrors.New(domerrors.CodeConflict, "document code already exists")
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to create document")
	}

	s.metrics.RecordTransition(string(models.ActionReceived))
	s.notify(ctx, doc, notifmodels.TypeUploaded)
	return doc, nil
}

// ForwardInput names the routing target: an office by name, or an employee.
type ForwardInput struct {
	NextOffice string
	Handler    *uuid.UUID
	Comments   string
	Actor      string
}

// Validate requires exactly one routing target.
func (in *ForwardInput) Validate() error {
	hasOffice := strings.TrimSpace(in.NextOffice) != ""
	hasHandler := in.Handler != nil && *in.Handler != uuid.Nil
	if hasOffice == hasHandler {
		return domerrors.New(domerrors.CodeValidation, "forward requires either a next office or a handler")
	}
	if strings.TrimSpace(in.Actor) == "" {
		return domerrors.New(domerrors.CodeValidation, "actor is required")
	}
	return nil
}

// Forward routes the document to its next office or to a handling person.
// The previous ledger entry is closed out, the stage clock restarts and any
// delay flag is cleared.
func (s *Service) Forward(ctx context.Context, id uuid.UUID, in ForwardInput) (*models.Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	doc, err := s.docs.Execute(ctx, id,
		func(d *models.Document) error { return d.EnsureTransitionable() },
		func(d *models.Document) {
			s.closeStage(d, now)
			if in.Handler != nil && *in.Handler != uuid.Nil {
				handler := *in.Handler
				d.CurrentHandler = &handler
				d.Status = models.StatusUnderReview
			} else {
				target := strings.TrimSpace(in.NextOffice)
				d.NextOffice = target
				d.CurrentOffice = target
				d.CurrentHandler = nil
				d.Status = models.StatusProcessing
			}
			d.CurrentStageStart = now
			d.IsDelayed = false
			d.DelayedHours = 0
			d.AppendEntry(models.RoutingEntry{
				Office:    d.CurrentOffice,
				Action:    models.ActionForwarded,
				Handler:   in.Actor,
				Timestamp: now,
				Comments:  in.Comments,
			})
		},
	)
	if err != nil {
		return nil, transitionErr(err, "forward")
	}

	s.metrics.RecordTransition(string(models.ActionForwarded))
	s.notify(ctx, doc, notifmodels.TypeForwarded)
	return doc, nil
}

// ReviewInput carries the reviewer decision fields shared by the terminal and
// hold transitions.
type ReviewInput struct {
	Reviewer string
	Comments string
}

// Validate requires a reviewer.
func (in *ReviewInput) Validate() error {
	if strings.TrimSpace(in.Reviewer) == "" {
		return domerrors.New(domerrors.CodeValidation, "reviewer is required")
	}
	return nil
}

// Approve terminates the workflow with an approval.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, in ReviewInput) (*models.Document, error) {
	return s.review(ctx, id, in, models.StatusApproved, models.ActionApproved, notifmodels.TypeApproved)
}

// Reject terminates the workflow with a rejection.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, in ReviewInput) (*models.Document, error) {
	return s.review(ctx, id, in, models.StatusRejected, models.ActionRejected, notifmodels.TypeRejected)
}

// Receive places the document on hold at its current office.
func (s *Service) Receive(ctx context.Context, id uuid.UUID, in ReviewInput) (*models.Document, error) {
	return s.review(ctx, id, in, models.StatusOnHold, models.ActionOnHold, notifmodels.TypeUpdated)
}

// Return sends the document back to its submitter, terminating the workflow.
func (s *Service) Return(ctx context.Context, id uuid.UUID, in ReviewInput) (*models.Document, error) {
	return s.review(ctx, id, in, models.StatusReturned, models.ActionReturned, notifmodels.TypeUpdated)
}

func (s *Service) review(ctx context.Context, id uuid.UUID, in ReviewInput, status models.Status, action models.Action, event notifmodels.Type) (*models.Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	doc, err := s.docs.Execute(ctx, id,
		func(d *models.Document) error { return d.EnsureTransitionable() },
		func(d *models.Document) {
			s.closeStage(d, now)
			d.Status = status
			d.Reviewer = in.Reviewer
			reviewedAt := now
			d.ReviewedAt = &reviewedAt
			if status.Terminal() {
				// workflow ends here; nothing is routed onward
				d.NextOffice = ""
			}
			d.AppendEntry(models.RoutingEntry{
				Office:    d.CurrentOffice,
				Action:    action,
				Handler:   in.Reviewer,
				Timestamp: now,
				Comments:  in.Comments,
			})
		},
	)
	if err != nil {
		return nil, transitionErr(err, string(action))
	}

	s.metrics.RecordTransition(string(action))
	s.notify(ctx, doc, event)
	return doc, nil
}

// Assign replaces the set of handlers responsible for the document.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, assignees []uuid.UUID, actor string) (*models.Document, error) {
	if len(assignees) == 0 {
		return nil, domerrors.New(domerrors.CodeValidation, "at least one assignee is required")
	}

	doc, err := s.docs.Execute(ctx, id,
		func(d *models.Document) error { return d.EnsureTransitionable() },
		func(d *models.Document) {
			d.AssignedTo = append([]uuid.UUID(nil), assignees...)
		},
	)
	if err != nil {
		return nil, transitionErr(err, "assign")
	}

	s.notify(ctx, doc, notifmodels.TypeAssigned)
	return doc, nil
}

// RecordScan appends an access-trail entry. Scans never drive lifecycle state
// and trigger no fan-out.
func (s *Service) RecordScan(ctx context.Context, id uuid.UUID, scannedBy, note string) (*models.Document, error) {
	if strings.TrimSpace(scannedBy) == "" {
		return nil, domerrors.New(domerrors.CodeValidation, "scanner identity is required")
	}
	now := requestcontext.Now(ctx)

	doc, err := s.docs.Execute(ctx, id,
		func(d *models.Document) error { return nil },
		func(d *models.Document) {
			d.ScanHistory = append(d.ScanHistory, models.ScanEntry{
				ScannedBy: scannedBy,
				Office:    d.CurrentOffice,
				Timestamp: now,
				Note:      note,
			})
		},
	)
	if err != nil {
		return nil, transitionErr(err, "scan")
	}
	return doc, nil
}

// Get loads a document and refreshes its delay flags as a read side effect.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domerrors.New(domerrors.CodeNotFound, "document not found")
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to load document")
	}
	return s.refreshDelay(ctx, doc)
}

// GetByCode loads a document by its external code, refreshing delay flags.
func (s *Service) GetByCode(ctx context.Context, code string) (*models.Document, error) {
	doc, err := s.docs.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domerrors.New(domerrors.CodeNotFound, "document not found")
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to load document")
	}
	return s.refreshDelay(ctx, doc)
}

// List returns the full corpus.
func (s *Service) List(ctx context.Context) ([]models.Document, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// closeStage stamps the open ledger entry with its retroactive duration and
// feeds the observed stage time into metrics.
func (s *Service) closeStage(d *models.Document, now time.Time) {
	if len(d.RoutingHistory) == 0 {
		return
	}
	d.CloseOpenEntry(now)
	s.metrics.RecordStageHours(d.RoutingHistory[len(d.RoutingHistory)-1].ProcessingTime)
}

func transitionErr(err error, op string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return domerrors.New(domerrors.CodeNotFound, "document not found")
	}
	var de *domerrors.Error
	if errors.As(err, &de) {
		return err
	}
	return domerrors.Wrap(err, domerrors.CodeInternal, "failed to "+op+" document")
}

// notify hands the committed transition to the fan-out engine. Failures there
// never surface to the caller.
func (s *Service) notify(ctx context.Context, doc *models.Document, event notifmodels.Type) {
	if s.notifier == nil {
		return
	}
	s.notifier.Fanout(ctx, doc, event)
}
