// Package handler exposes document submission, routing transitions and the
// ledger over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doctrack/internal/document/models"
	"doctrack/internal/document/service"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/httputil"
)

// Service defines the document operations the handler needs.
type Service interface {
	Submit(ctx context.Context, in service.SubmitInput) (*models.Document, error)
	Forward(ctx context.Context, id uuid.UUID, in service.ForwardInput) (*models.Document, error)
	Approve(ctx context.Context, id uuid.UUID, in service.ReviewInput) (*models.Document, error)
	Reject(ctx context.Context, id uuid.UUID, in service.ReviewInput) (*models.Document, error)
	Receive(ctx context.Context, id uuid.UUID, in service.ReviewInput) (*models.Document, error)
	Return(ctx context.Context, id uuid.UUID, in service.ReviewInput) (*models.Document, error)
	Assign(ctx context.Context, id uuid.UUID, assignees []uuid.UUID, actor string) (*models.Document, error)
	RecordScan(ctx context.Context, id uuid.UUID, scannedBy, note string) (*models.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	GetByCode(ctx context.Context, code string) (*models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	RoutingHistory(ctx context.Context, id uuid.UUID) ([]service.HistoryEntry, error)
	CheckDelays(ctx context.Context) ([]models.Document, error)
}

// Handler handles document endpoints.
type Handler struct {
	documents Service
	logger    *slog.Logger
}

// New creates a document Handler.
func New(documents Service, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, logger: logger}
}

// Register registers the document routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", h.handleSubmit)
		r.Get("/", h.handleList)
		r.Post("/delay-check", h.handleDelayCheck)
		r.Get("/code/{code}", h.handleGetByCode)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/routing", h.handleRouting)
			r.Post("/forward", h.handleForward)
			r.Post("/approve", h.review(h.documents.Approve))
			r.Post("/reject", h.review(h.documents.Reject))
			r.Post("/receive", h.review(h.documents.Receive))
			r.Post("/return", h.review(h.documents.Return))
			r.Post("/assign", h.handleAssign)
			r.Post("/scan", h.handleScan)
		})
	})
}

type submitRequest struct {
	Code          string          `json:"code"`
	Office        string          `json:"office"`
	SubmittedBy   string          `json:"submittedBy"`
	Department    string          `json:"department"`
	Category      string          `json:"category"`
	Tags          []string        `json:"tags"`
	Priority      models.Priority `json:"priority"`
	ExpectedHours float64         `json:"expectedProcessingTime"`
	Comments      string          `json:"comments"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[submitRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	doc, err := h.documents.Submit(ctx, service.SubmitInput{
		Code:          req.Code,
		Office:        req.Office,
		SubmittedBy:   req.SubmittedBy,
		Department:    req.Department,
		Category:      req.Category,
		Tags:          req.Tags,
		Priority:      req.Priority,
		ExpectedHours: req.ExpectedHours,
		Comments:      req.Comments,
	})
	if err != nil {
		h.logWriteError(ctx, w, "submit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.documents.List(ctx)
	if err != nil {
		h.logWriteError(ctx, w, "list failed", err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	doc, err := h.documents.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.documents.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

type forwardRequest struct {
	NextOffice string     `json:"nextOffice"`
	Handler    *uuid.UUID `json:"handler"`
	Comments   string     `json:"comments"`
	Actor      string     `json:"actor"`
}

func (h *Handler) handleForward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[forwardRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	doc, err := h.documents.Forward(ctx, id, service.ForwardInput{
		NextOffice: req.NextOffice,
		Handler:    req.Handler,
		Comments:   req.Comments,
		Actor:      req.Actor,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

type reviewRequest struct {
	Reviewer string `json:"reviewer"`
	Comments string `json:"comments"`
}

type reviewFunc func(ctx context.Context, id uuid.UUID, in service.ReviewInput) (*models.Document, error)

// review adapts the four reviewer-driven transitions, which share a request
// shape, into handlers.
func (h *Handler) review(apply reviewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := h.idParam(w, r)
		if !ok {
			return
		}
		req, ok := httputil.Decode[reviewRequest](w, r, h.logger, ctx)
		if !ok {
			return
		}

		doc, err := apply(ctx, id, service.ReviewInput{Reviewer: req.Reviewer, Comments: req.Comments})
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, doc)
	}
}

type assignRequest struct {
	Assignees []uuid.UUID `json:"assignees"`
	Actor     string      `json:"actor"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[assignRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	doc, err := h.documents.Assign(ctx, id, req.Assignees, req.Actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

type scanRequest struct {
	ScannedBy string `json:"scannedBy"`
	Note      string `json:"note"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[scanRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	doc, err := h.documents.RecordScan(ctx, id, req.ScannedBy, req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleRouting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	history, err := h.documents.RoutingHistory(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if history == nil {
		history = []service.HistoryEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleDelayCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flagged, err := h.documents.CheckDelays(ctx)
	if err != nil {
		h.logWriteError(ctx, w, "delay check failed", err)
		return
	}
	if flagged == nil {
		flagged = []models.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"flagged": flagged,
		"count":   len(flagged),
	})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, domerrors.New(domerrors.CodeBadRequest, "invalid document id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) logWriteError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if domerrors.CodeOf(err) == domerrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, "error", err)
	}
	httputil.WriteError(w, err)
}
