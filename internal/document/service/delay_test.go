package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"doctrack/internal/document/models"
)

func TestEvaluateDelayFlagsOverdueDocument(t *testing.T) {
	doc := &models.Document{
		Status:            models.StatusProcessing,
		CurrentStageStart: t0,
		ExpectedHours:     24,
	}

	changed := EvaluateDelay(doc, t0.Add(30*time.Hour))
	require.True(t, changed)
	require.True(t, doc.IsDelayed)
	require.Equal(t, 6, doc.DelayedHours)
}

func TestEvaluateDelayFloorsPartialHours(t *testing.T) {
	doc := &models.Document{
		Status:            models.StatusProcessing,
		CurrentStageStart: t0,
		ExpectedHours:     24,
	}

	EvaluateDelay(doc, t0.Add(30*time.Hour+45*time.Minute))
	require.Equal(t, 6, doc.DelayedHours)
}

func TestEvaluateDelayIdempotentAtSameInstant(t *testing.T) {
	doc := &models.Document{
		Status:            models.StatusProcessing,
		CurrentStageStart: t0,
		ExpectedHours:     24,
	}
	now := t0.Add(30 * time.Hour)

	require.True(t, EvaluateDelay(doc, now))
	require.False(t, EvaluateDelay(doc, now))
	require.True(t, doc.IsDelayed)
	require.Equal(t, 6, doc.DelayedHours)
}

func TestEvaluateDelayClearsStaleFlag(t *testing.T) {
	doc := &models.Document{
		Status:            models.StatusProcessing,
		CurrentStageStart: t0,
		ExpectedHours:     24,
		IsDelayed:         true,
		DelayedHours:      6,
	}

	changed := EvaluateDelay(doc, t0.Add(2*time.Hour))
	require.True(t, changed)
	require.False(t, doc.IsDelayed)
	require.Equal(t, 0, doc.DelayedHours)
}

func TestEvaluateDelaySkipsTerminalStatuses(t *testing.T) {
	doc := &models.Document{
		Status:            models.StatusApproved,
		CurrentStageStart: t0,
		ExpectedHours:     1,
	}
	require.False(t, EvaluateDelay(doc, t0.Add(100*time.Hour)))
	require.False(t, doc.IsDelayed)
}

func TestEvaluateDelayExactBoundaryIsNotDelayed(t *testing.T) {
	doc := &models.Document{
		Status:            models.StatusProcessing,
		CurrentStageStart: t0,
		ExpectedHours:     24,
	}
	require.False(t, EvaluateDelay(doc, t0.Add(24*time.Hour)))
	require.False(t, doc.IsDelayed)
}

func TestCheckDelaysReturnsNewlyFlaggedOnly(t *testing.T) {
	svc, _, _ := newService(t)

	submit(t, svc, "DOC-A")

	longer, err := svc.Submit(at(t0), SubmitInput{
		Code: "DOC-C", Office: "Records", SubmittedBy: "X", ExpectedHours: 100,
	})
	require.NoError(t, err)

	// already flagged before the batch: must not appear in "newly" list
	already := submit(t, svc, "DOC-D")
	_, err = svc.Get(at(t0.Add(26*time.Hour)), already.ID)
	require.NoError(t, err)

	newly, err := svc.CheckDelays(at(t0.Add(30 * time.Hour)))
	require.NoError(t, err)

	require.Len(t, newly, 1)
	require.Equal(t, "DOC-A", newly[0].Code)
	require.True(t, newly[0].IsDelayed)
	require.Equal(t, 6, newly[0].DelayedHours)

	// flags were persisted for the already-delayed document too
	d, err := svc.Get(at(t0.Add(30*time.Hour)), already.ID)
	require.NoError(t, err)
	require.True(t, d.IsDelayed)

	c, err := svc.Get(at(t0.Add(30*time.Hour)), longer.ID)
	require.NoError(t, err)
	require.False(t, c.IsDelayed)
}

func TestGetRefreshesDelayAsReadSideEffect(t *testing.T) {
	svc, docs, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	got, err := svc.Get(at(t0.Add(30*time.Hour)), doc.ID)
	require.NoError(t, err)
	require.True(t, got.IsDelayed)
	require.Equal(t, 6, got.DelayedHours)

	// persisted, not just computed on the response
	stored, err := docs.FindByID(at(t0), doc.ID)
	require.NoError(t, err)
	require.True(t, stored.IsDelayed)
}

func TestRoutingHistoryComputesOpenEntryElapsed(t *testing.T) {
	svc, _, _ := newService(t)
	doc := submit(t, svc, "DOC-1")

	_, err := svc.Forward(at(t0.Add(2*time.Hour)), doc.ID, ForwardInput{NextOffice: "Budget Office", Actor: "M"})
	require.NoError(t, err)

	history, err := svc.RoutingHistory(at(t0.Add(5*time.Hour)), doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.False(t, history[0].Open)
	require.Equal(t, 2.0, history[0].Hours)

	require.True(t, history[1].Open)
	require.Equal(t, 3.0, history[1].Hours)
}
