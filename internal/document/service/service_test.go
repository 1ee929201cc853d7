package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"doctrack/internal/document/models"
	"doctrack/internal/document/store"
	notifmodels "doctrack/internal/notification/models"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/requestcontext"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// recordingNotifier captures fan-out calls for assertions.
type recordingNotifier struct {
	events []notifmodels.Type
}

func (n *recordingNotifier) Fanout(_ context.Context, _ *models.Document, event notifmodels.Type) {
	n.events = append(n.events, event)
}

func newService(t *testing.T) (*Service, *store.Memory, *recordingNotifier) {
	t.Helper()
	docs := store.NewMemory()
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := New(docs, logger, WithNotifier(notifier))
	return svc, docs, notifier
}

func at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func submit(t *testing.T, svc *Service, code string) *models.Document {
	t.Helper()
	doc, err := svc.Submit(at(t0), SubmitInput{
		Code:        code,
		Office:      "Records Section",
		SubmittedBy: "Juan Cruz",
		Category:    "Payroll",
	})
	require.NoError(t, err)
	return doc
}

func TestSubmitCreatesOpenLedger(t *testing.T) {
	svc, _, notifier := newService(t)
	doc := submit(t, svc, "DOC-1")

	require.Equal(t, models.StatusSubmitted, doc.Status)
	require.Equal(t, "Records Section", doc.CurrentOffice)
	require.Equal(t, t0, doc.DateUploaded)
	require.Equal(t, t0, doc.CurrentStageStart)
	require.Equal(t, 24.0, doc.ExpectedHours)

	require.Len(t, doc.RoutingHistory, 1)
	require.Equal(t, models.ActionReceived, doc.RoutingHistory[0].Action)
	require.Equal(t, 0.0, doc.RoutingHistory[0].ProcessingTime)

	require.Equal(t, []notifmodels.Type{notifmodels.TypeUploaded}, notifier.events)
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Submit(at(t0), SubmitInput{Office: "Records", SubmittedBy: "X"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeValidation))

	_, err = svc.Submit(at(t0), SubmitInput{Code: "D", SubmittedBy: "X"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeValidation))
}

func TestSubmitDuplicateCode(t *testing.T) {
	svc, _, _ := newService(t)
	submit(t, svc, "DOC-1")
	_, err := svc.Submit(at(t0), SubmitInput{Code: "DOC-1", Office: "Records", SubmittedBy: "X"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeConflict))
}

func TestForwardClosesPreviousEntry(t *testing.T) {
	svc, _, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	fwd, err := svc.Forward(at(t0.Add(5*time.Hour)), doc.ID, ForwardInput{
		NextOffice: "Budget Office",
		Actor:      "Maria Santos",
		Comments:   "for budget clearance",
	})
	require.NoError(t, err)

	require.Len(t, fwd.RoutingHistory, 2)
	require.Equal(t, 5.0, fwd.RoutingHistory[0].ProcessingTime)
	require.Equal(t, 0.0, fwd.RoutingHistory[1].ProcessingTime)
	require.Equal(t, models.ActionForwarded, fwd.RoutingHistory[1].Action)
	require.Equal(t, "Maria Santos", fwd.RoutingHistory[1].Handler)

	require.Equal(t, models.StatusProcessing, fwd.Status)
	require.Equal(t, "Budget Office", fwd.CurrentOffice)
	require.Equal(t, "Budget Office", fwd.NextOffice)
	require.Equal(t, t0.Add(5*time.Hour), fwd.CurrentStageStart)
}

func TestForwardToHandlerSetsUnderReview(t *testing.T) {
	svc, _, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	handler := uuid.New()
	fwd, err := svc.Forward(at(t0.Add(time.Hour)), doc.ID, ForwardInput{
		Handler: &handler,
		Actor:   "Maria Santos",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, fwd.Status)
	require.NotNil(t, fwd.CurrentHandler)
	require.Equal(t, handler, *fwd.CurrentHandler)
	// office unchanged when routing to a person
	require.Equal(t, "Records Section", fwd.CurrentOffice)
}

func TestForwardResetsDelayFlags(t *testing.T) {
	svc, docs, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	// flag the document as delayed first
	_, err := svc.Get(at(t0.Add(30*time.Hour)), doc.ID)
	require.NoError(t, err)
	stored, err := docs.FindByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.True(t, stored.IsDelayed)

	fwd, err := svc.Forward(at(t0.Add(31*time.Hour)), doc.ID, ForwardInput{
		NextOffice: "Budget Office",
		Actor:      "Maria Santos",
	})
	require.NoError(t, err)
	require.False(t, fwd.IsDelayed)
	require.Equal(t, 0, fwd.DelayedHours)
}

func TestForwardValidation(t *testing.T) {
	svc, _, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	_, err := svc.Forward(at(t0), doc.ID, ForwardInput{Actor: "X"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeValidation))

	handler := uuid.New()
	_, err = svc.Forward(at(t0), doc.ID, ForwardInput{NextOffice: "A", Handler: &handler, Actor: "X"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeValidation))
}

func TestApproveTerminatesWorkflow(t *testing.T) {
	svc, _, notifier := newService(t)
	doc := submit(t, svc, "DOC-1")

	_, err := svc.Forward(at(t0.Add(time.Hour)), doc.ID, ForwardInput{NextOffice: "Budget Office", Actor: "M"})
	require.NoError(t, err)

	approved, err := svc.Approve(at(t0.Add(6*time.Hour)), doc.ID, ReviewInput{
		Reviewer: "Director Reyes",
		Comments: "cleared",
	})
	require.NoError(t, err)

	require.Equal(t, models.StatusApproved, approved.Status)
	require.Equal(t, "Director Reyes", approved.Reviewer)
	require.NotNil(t, approved.ReviewedAt)
	require.Equal(t, t0.Add(6*time.Hour), *approved.ReviewedAt)
	require.Empty(t, approved.NextOffice)

	// previous stage closed retroactively: 5h at Budget Office
	require.Len(t, approved.RoutingHistory, 3)
	require.Equal(t, 5.0, approved.RoutingHistory[1].ProcessingTime)
	require.Equal(t, models.ActionApproved, approved.RoutingHistory[2].Action)
	require.Equal(t, 0.0, approved.RoutingHistory[2].ProcessingTime)

	require.Equal(t, notifmodels.TypeApproved, notifier.events[len(notifier.events)-1])
}

func TestTerminalStateRejectsFurtherTransitions(t *testing.T) {
	svc, _, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	_, err := svc.Reject(at(t0.Add(time.Hour)), doc.ID, ReviewInput{Reviewer: "R"})
	require.NoError(t, err)

	_, err = svc.Forward(at(t0.Add(2*time.Hour)), doc.ID, ForwardInput{NextOffice: "A", Actor: "X"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeConflict))
}

func TestTransitionOnMissingDocument(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Forward(at(t0), uuid.New(), ForwardInput{NextOffice: "A", Actor: "X"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeNotFound))
}

func TestFailedValidationLeavesNoPartialState(t *testing.T) {
	svc, docs, _ := newService(t)
	doc := submit(t, svc, "DOC-1")
	_, err := svc.Approve(at(t0.Add(time.Hour)), doc.ID, ReviewInput{Reviewer: "R"})
	require.NoError(t, err)

	_, err = svc.Forward(at(t0.Add(2*time.Hour)), doc.ID, ForwardInput{NextOffice: "A", Actor: "X"})
	require.Error(t, err)

	stored, err := docs.FindByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.RoutingHistory, 2)
	require.Equal(t, models.StatusApproved, stored.Status)
}

func TestReceivePutsOnHold(t *testing.T) {
	svc, _, notifier := newService(t)
	doc := submit(t, svc, "DOC-1")

	held, err := svc.Receive(at(t0.Add(time.Hour)), doc.ID, ReviewInput{Reviewer: "R"})
	require.NoError(t, err)
	require.Equal(t, models.StatusOnHold, held.Status)
	require.Equal(t, models.ActionOnHold, held.RoutingHistory[1].Action)
	require.Equal(t, notifmodels.TypeUpdated, notifier.events[len(notifier.events)-1])

	// On Hold is not terminal; the document can still move
	_, err = svc.Forward(at(t0.Add(2*time.Hour)), doc.ID, ForwardInput{NextOffice: "A", Actor: "X"})
	require.NoError(t, err)
}

func TestReturnIsTerminal(t *testing.T) {
	svc, _, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	returned, err := svc.Return(at(t0.Add(time.Hour)), doc.ID, ReviewInput{Reviewer: "R"})
	require.NoError(t, err)
	require.Equal(t, models.StatusReturned, returned.Status)

	_, err = svc.Receive(at(t0.Add(2*time.Hour)), doc.ID, ReviewInput{Reviewer: "R"})
	require.True(t, domerrors.HasCode(err, domerrors.CodeConflict))
}

func TestAssignReplacesAssignees(t *testing.T) {
	svc, _, notifier := newService(t)
	doc := submit(t, svc, "DOC-1")

	a, b := uuid.New(), uuid.New()
	assigned, err := svc.Assign(at(t0), doc.ID, []uuid.UUID{a, b}, "Maria Santos")
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a, b}, assigned.AssignedTo)
	require.Equal(t, notifmodels.TypeAssigned, notifier.events[len(notifier.events)-1])

	_, err = svc.Assign(at(t0), doc.ID, nil, "Maria Santos")
	require.True(t, domerrors.HasCode(err, domerrors.CodeValidation))
}

func TestRecordScanAppendsTrail(t *testing.T) {
	svc, _, notifier := newService(t)
	doc := submit(t, svc, "DOC-1")
	before := len(notifier.events)

	scanned, err := svc.RecordScan(at(t0.Add(time.Hour)), doc.ID, "guard.station", "bar code check")
	require.NoError(t, err)
	require.Len(t, scanned.ScanHistory, 1)
	require.Equal(t, "Records Section", scanned.ScanHistory[0].Office)
	// scans are an access trail only: no fan-out, no ledger entry
	require.Len(t, notifier.events, before)
	require.Len(t, scanned.RoutingHistory, 1)
}
