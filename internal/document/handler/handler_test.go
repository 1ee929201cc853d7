package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"doctrack/internal/document/models"
	"doctrack/internal/document/service"
	"doctrack/internal/document/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	docs := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(docs, logger)
	h := New(svc, logger)

	r := chi.NewRouter()
	h.Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func submit(t *testing.T, r http.Handler, code string) models.Document {
	t.Helper()
	body := fmt.Sprintf(`{"code":%q,"office":"Records Office","submittedBy":"mdelacruz","category":"Purchase Request"}`, code)
	rec := do(t, r, http.MethodPost, "/documents", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var doc models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return doc
}

func TestSubmitAndGet(t *testing.T) {
	r := newTestHandler(t)
	doc := submit(t, r, "DOC-2026-0001")
	require.Equal(t, models.StatusSubmitted, doc.Status)
	require.Len(t, doc.RoutingHistory, 1)

	rec := do(t, r, http.MethodGet, "/documents/"+doc.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/documents/code/DOC-2026-0001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), doc.ID.String())
}

func TestSubmitValidation(t *testing.T) {
	r := newTestHandler(t)

	rec := do(t, r, http.MethodPost, "/documents", `{"office":"Records Office"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "document code is required")

	rec = do(t, r, http.MethodPost, "/documents", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitDuplicateCodeConflicts(t *testing.T) {
	r := newTestHandler(t)
	submit(t, r, "DOC-2026-0001")

	body := `{"code":"DOC-2026-0001","office":"Records Office","submittedBy":"mdelacruz"}`
	rec := do(t, r, http.MethodPost, "/documents", body)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestForwardTransition(t *testing.T) {
	r := newTestHandler(t)
	doc := submit(t, r, "DOC-2026-0001")

	body := `{"nextOffice":"Budget Office","comments":"for funding","actor":"Chief Ramos"}`
	rec := do(t, r, http.MethodPost, "/documents/"+doc.ID.String()+"/forward", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, models.StatusProcessing, updated.Status)
	require.Equal(t, "Budget Office", updated.NextOffice)
	require.Len(t, updated.RoutingHistory, 2)
	require.Equal(t, models.ActionForwarded, updated.RoutingHistory[1].Action)
}

func TestForwardValidation(t *testing.T) {
	r := newTestHandler(t)
	doc := submit(t, r, "DOC-2026-0001")

	// neither office nor handler
	rec := do(t, r, http.MethodPost, "/documents/"+doc.ID.String()+"/forward", `{"actor":"Chief Ramos"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveThenFurtherTransitionConflicts(t *testing.T) {
	r := newTestHandler(t)
	doc := submit(t, r, "DOC-2026-0001")

	body := `{"reviewer":"Director Reyes","comments":"ok"}`
	rec := do(t, r, http.MethodPost, "/documents/"+doc.ID.String()+"/approve", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, models.StatusApproved, updated.Status)
	require.Equal(t, "Director Reyes", updated.Reviewer)

	rec = do(t, r, http.MethodPost, "/documents/"+doc.ID.String()+"/forward",
		`{"nextOffice":"Budget Office","actor":"Chief Ramos"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransitionOnMissingDocument(t *testing.T) {
	r := newTestHandler(t)

	rec := do(t, r, http.MethodPost, "/documents/"+uuid.NewString()+"/approve",
		`{"reviewer":"Director Reyes"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/documents/not-a-uuid/approve", `{"reviewer":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignAndScan(t *testing.T) {
	r := newTestHandler(t)
	doc := submit(t, r, "DOC-2026-0001")
	assignee := uuid.New()

	body := fmt.Sprintf(`{"assignees":[%q],"actor":"Chief Ramos"}`, assignee)
	rec := do(t, r, http.MethodPost, "/documents/"+doc.ID.String()+"/assign", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, []uuid.UUID{assignee}, updated.AssignedTo)

	rec = do(t, r, http.MethodPost, "/documents/"+doc.ID.String()+"/scan",
		`{"scannedBy":"guard1","note":"received at gate"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Len(t, updated.ScanHistory, 1)
}

func TestRoutingHistoryEndpoint(t *testing.T) {
	r := newTestHandler(t)
	doc := submit(t, r, "DOC-2026-0001")

	rec := do(t, r, http.MethodGet, "/documents/"+doc.ID.String()+"/routing", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var history []service.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	require.True(t, history[0].Open)
}

func TestDelayCheckEndpoint(t *testing.T) {
	r := newTestHandler(t)
	submit(t, r, "DOC-2026-0001")

	rec := do(t, r, http.MethodPost, "/documents/delay-check", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"count":0`)
}

func TestListDocuments(t *testing.T) {
	r := newTestHandler(t)
	submit(t, r, "DOC-2026-0001")
	submit(t, r, "DOC-2026-0002")

	rec := do(t, r, http.MethodGet, "/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
}
