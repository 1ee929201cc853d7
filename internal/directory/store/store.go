package store

import (
	"context"

	"github.com/google/uuid"

	"doctrack/internal/directory/models"
)

// AccountStore gives read access to login accounts, plus creation for
// directory upkeep. Lookups return sentinel.ErrNotFound when absent.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByEmployeeCode(ctx context.Context, code string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	ListByRole(ctx context.Context, role string) ([]models.Account, error)
}

// EmployeeStore gives read access to employee records. Office membership is
// derived from Employee.OfficeID, never stored on the office.
type EmployeeStore interface {
	Create(ctx context.Context, employee *models.Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
	ListByOffice(ctx context.Context, officeID uuid.UUID) ([]models.Employee, error)
	ListByDepartment(ctx context.Context, department string) ([]models.Employee, error)
}

// OfficeStore gives read access to offices. FindByName is case-insensitive:
// routing targets arrive as free text.
type OfficeStore interface {
	Create(ctx context.Context, office *models.Office) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Office, error)
	FindByName(ctx context.Context, name string) (*models.Office, error)
	List(ctx context.Context) ([]models.Office, error)
}
