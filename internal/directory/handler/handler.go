// Package handler exposes minimal directory upkeep endpoints. The directory
// is owned by collaborator systems; these routes exist so deployments without
// that integration can still seed accounts, employees and offices.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doctrack/internal/directory/models"
	"doctrack/internal/directory/store"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/httputil"
	"doctrack/pkg/sentinel"
)

// Handler handles directory endpoints.
type Handler struct {
	accounts  store.AccountStore
	employees store.EmployeeStore
	offices   store.OfficeStore
	logger    *slog.Logger
}

// New creates a directory Handler.
func New(accounts store.AccountStore, employees store.EmployeeStore, offices store.OfficeStore, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, employees: employees, offices: offices, logger: logger}
}

// Register registers the directory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/directory", func(r chi.Router) {
		r.Post("/accounts", h.handleCreateAccount)
		r.Get("/accounts", h.handleListAccounts)
		r.Post("/employees", h.handleCreateEmployee)
		r.Get("/employees", h.handleListEmployees)
		r.Post("/offices", h.handleCreateOffice)
		r.Get("/offices", h.handleListOffices)
	})
}

type accountRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	EmployeeCode string `json:"employeeCode"`
}

func (req *accountRequest) Validate() error {
	if strings.TrimSpace(req.Username) == "" {
		return domerrors.New(domerrors.CodeValidation, "username is required")
	}
	return nil
}

type accountResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	EmployeeCode string    `json:"employeeCode,omitempty"`
}

func toAccountResponse(a models.Account) accountResponse {
	return accountResponse{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role, EmployeeCode: a.EmployeeCode}
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[accountRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	account := &models.Account{
		Username:     req.Username,
		Email:        req.Email,
		Role:         req.Role,
		EmployeeCode: req.EmployeeCode,
	}
	if err := h.accounts.Create(ctx, account); err != nil {
		h.writeStoreError(w, err, "username already taken")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(*account))
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type employeeRequest struct {
	Name         string     `json:"name"`
	EmployeeCode string     `json:"employeeCode"`
	Department   string     `json:"department"`
	OfficeID     *uuid.UUID `json:"officeId"`
}

func (req *employeeRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return domerrors.New(domerrors.CodeValidation, "employee name is required")
	}
	return nil
}

type employeeResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	EmployeeCode string     `json:"employeeCode,omitempty"`
	Department   string     `json:"department,omitempty"`
	OfficeID     *uuid.UUID `json:"officeId,omitempty"`
}

func toEmployeeResponse(e models.Employee) employeeResponse {
	return employeeResponse{ID: e.ID, Name: e.Name, EmployeeCode: e.EmployeeCode, Department: e.Department, OfficeID: e.OfficeID}
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[employeeRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	if req.OfficeID != nil {
		if _, err := h.offices.FindByID(ctx, *req.OfficeID); err != nil {
			h.writeStoreError(w, err, "")
			return
		}
	}
	employee := &models.Employee{
		Name:         req.Name,
		EmployeeCode: req.EmployeeCode,
		Department:   req.Department,
		OfficeID:     req.OfficeID,
	}
	if err := h.employees.Create(ctx, employee); err != nil {
		h.writeStoreError(w, err, "employee code already registered")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEmployeeResponse(*employee))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		employees []models.Employee
		err       error
	)
	if department := r.URL.Query().Get("department"); department != "" {
		employees, err = h.employees.ListByDepartment(ctx, department)
	} else {
		employees, err = h.employees.List(ctx)
	}
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	out := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type officeRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

func (req *officeRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return domerrors.New(domerrors.CodeValidation, "office name is required")
	}
	return nil
}

type officeResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
}

func (h *Handler) handleCreateOffice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[officeRequest](w, r, h.logger, ctx)
	if !ok {
		return
	}

	office := &models.Office{Name: req.Name, Department: req.Department}
	if err := h.offices.Create(ctx, office); err != nil {
		h.writeStoreError(w, err, "office name already taken")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, officeResponse{ID: office.ID, Name: office.Name, Department: office.Department})
}

func (h *Handler) handleListOffices(w http.ResponseWriter, r *http.Request) {
	offices, err := h.offices.List(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	out := make([]officeResponse, 0, len(offices))
	for _, o := range offices {
		out = append(out, officeResponse{ID: o.ID, Name: o.Name, Department: o.Department})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, conflictMsg string) {
	switch {
	case errors.Is(err, sentinel.ErrConflict) && conflictMsg != "":
		httputil.WriteError(w, domerrors.New(domerrors.CodeConflict, conflictMsg))
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, domerrors.New(domerrors.CodeNotFound, "directory record not found"))
	default:
		h.logger.Error("directory store failure", "error", err)
		httputil.WriteError(w, domerrors.New(domerrors.CodeInternal, "directory store failure"))
	}
}
