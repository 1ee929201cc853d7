package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"doctrack/internal/directory/models"
	"doctrack/pkg/sentinel"
)

// MemoryAccounts is a mutex-guarded in-memory account store. Used in tests
// and when no Postgres URL is configured.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]models.Account
}

var _ AccountStore = (*MemoryAccounts)(nil)

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[uuid.UUID]models.Account)}
}

func (s *MemoryAccounts) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return sentinel.ErrConflict
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *MemoryAccounts) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &account, nil
}

func (s *MemoryAccounts) FindByEmployeeCode(_ context.Context, code string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if code == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, account := range s.accounts {
		if account.EmployeeCode == code {
			a := account
			return &a, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryAccounts) List(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, account)
	}
	return out, nil
}

func (s *MemoryAccounts) ListByRole(_ context.Context, role string) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Account
	for _, account := range s.accounts {
		if strings.EqualFold(account.Role, role) {
			out = append(out, account)
		}
	}
	return out, nil
}

// MemoryEmployees is a mutex-guarded in-memory employee store.
type MemoryEmployees struct {
	mu        sync.RWMutex
	employees map[uuid.UUID]models.Employee
}

var _ EmployeeStore = (*MemoryEmployees)(nil)

func NewMemoryEmployees() *MemoryEmployees {
	return &MemoryEmployees{employees: make(map[uuid.UUID]models.Employee)}
}

func (s *MemoryEmployees) Create(_ context.Context, employee *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	s.employees[employee.ID] = *employee
	return nil
}

func (s *MemoryEmployees) FindByID(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	employee, ok := s.employees[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &employee, nil
}

func (s *MemoryEmployees) List(_ context.Context) ([]models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Employee, 0, len(s.employees))
	for _, employee := range s.employees {
		out = append(out, employee)
	}
	return out, nil
}

func (s *MemoryEmployees) ListByOffice(_ context.Context, officeID uuid.UUID) ([]models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Employee
	for _, employee := range s.employees {
		if employee.OfficeID != nil && *employee.OfficeID == officeID {
			out = append(out, employee)
		}
	}
	return out, nil
}

func (s *MemoryEmployees) ListByDepartment(_ context.Context, department string) ([]models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Employee
	for _, employee := range s.employees {
		if strings.EqualFold(employee.Department, department) {
			out = append(out, employee)
		}
	}
	return out, nil
}

// MemoryOffices is a mutex-guarded in-memory office store. Office names are
// unique case-insensitively; routing targets arrive as free text.
type MemoryOffices struct {
	mu      sync.RWMutex
	offices map[uuid.UUID]models.Office
}

var _ OfficeStore = (*MemoryOffices)(nil)

func NewMemoryOffices() *MemoryOffices {
	return &MemoryOffices{offices: make(map[uuid.UUID]models.Office)}
}

func (s *MemoryOffices) Create(_ context.Context, office *models.Office) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if office.ID == uuid.Nil {
		office.ID = uuid.New()
	}
	for _, existing := range s.offices {
		if strings.EqualFold(existing.Name, office.Name) {
			return sentinel.ErrConflict
		}
	}
	s.offices[office.ID] = *office
	return nil
}

func (s *MemoryOffices) FindByID(_ context.Context, id uuid.UUID) (*models.Office, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	office, ok := s.offices[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &office, nil
}

func (s *MemoryOffices) FindByName(_ context.Context, name string) (*models.Office, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, office := range s.offices {
		if strings.EqualFold(office.Name, name) {
			o := office
			return &o, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryOffices) List(_ context.Context) ([]models.Office, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Office, 0, len(s.offices))
	for _, office := range s.offices {
		out = append(out, office)
	}
	return out, nil
}
