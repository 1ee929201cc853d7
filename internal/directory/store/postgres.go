package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"doctrack/internal/directory/models"
	"doctrack/pkg/sentinel"
)

// PostgresAccounts persists accounts in PostgreSQL. See migrations/0001_init.sql
// for the schema.
type PostgresAccounts struct {
	db *sql.DB
}

var _ AccountStore = (*PostgresAccounts)(nil)

func NewPostgresAccounts(db *sql.DB) *PostgresAccounts {
	return &PostgresAccounts{db: db}
}

func (s *PostgresAccounts) Create(ctx context.Context, account *models.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, role, employee_code)
		VALUES ($1, $2, $3, $4, $5)
	`, account.ID, account.Username, account.Email, account.Role, account.EmployeeCode)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresAccounts) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, employee_code FROM accounts WHERE id = $1
	`, id)
	return scanAccount(row)
}

func (s *PostgresAccounts) FindByEmployeeCode(ctx context.Context, code string) (*models.Account, error) {
	if code == "" {
		return nil, sentinel.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, employee_code FROM accounts WHERE employee_code = $1
	`, code)
	return scanAccount(row)
}

func (s *PostgresAccounts) List(ctx context.Context) ([]models.Account, error) {
	return s.queryAccounts(ctx, `
		SELECT id, username, email, role, employee_code FROM accounts ORDER BY username
	`)
}

func (s *PostgresAccounts) ListByRole(ctx context.Context, role string) ([]models.Account, error) {
	return s.queryAccounts(ctx, `
		SELECT id, username, email, role, employee_code FROM accounts WHERE lower(role) = lower($1) ORDER BY username
	`, role)
}

func (s *PostgresAccounts) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.Role, &a.EmployeeCode); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Role, &a.EmployeeCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

// PostgresEmployees persists employees in PostgreSQL.
type PostgresEmployees struct {
	db *sql.DB
}

var _ EmployeeStore = (*PostgresEmployees)(nil)

func NewPostgresEmployees(db *sql.DB) *PostgresEmployees {
	return &PostgresEmployees{db: db}
}

func (s *PostgresEmployees) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	var officeID any
	if employee.OfficeID != nil {
		officeID = *employee.OfficeID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, employee_code, department, office_id)
		VALUES ($1, $2, $3, $4, $5)
	`, employee.ID, employee.Name, employee.EmployeeCode, employee.Department, officeID)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

func (s *PostgresEmployees) FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, employee_code, department, office_id FROM employees WHERE id = $1
	`, id)
	var e models.Employee
	var officeID sql.Null[uuid.UUID]
	err := row.Scan(&e.ID, &e.Name, &e.EmployeeCode, &e.Department, &officeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan employee: %w", err)
	}
	if officeID.Valid {
		e.OfficeID = &officeID.V
	}
	return &e, nil
}

func (s *PostgresEmployees) List(ctx context.Context) ([]models.Employee, error) {
	return s.queryEmployees(ctx, `
		SELECT id, name, employee_code, department, office_id FROM employees ORDER BY name
	`)
}

func (s *PostgresEmployees) ListByOffice(ctx context.Context, officeID uuid.UUID) ([]models.Employee, error) {
	return s.queryEmployees(ctx, `
		SELECT id, name, employee_code, department, office_id FROM employees WHERE office_id = $1 ORDER BY name
	`, officeID)
}

func (s *PostgresEmployees) ListByDepartment(ctx context.Context, department string) ([]models.Employee, error) {
	return s.queryEmployees(ctx, `
		SELECT id, name, employee_code, department, office_id FROM employees WHERE lower(department) = lower($1) ORDER BY name
	`, department)
}

func (s *PostgresEmployees) queryEmployees(ctx context.Context, query string, args ...any) ([]models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		var officeID sql.Null[uuid.UUID]
		if err := rows.Scan(&e.ID, &e.Name, &e.EmployeeCode, &e.Department, &officeID); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		if officeID.Valid {
			e.OfficeID = &officeID.V
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PostgresOffices persists offices in PostgreSQL.
type PostgresOffices struct {
	db *sql.DB
}

var _ OfficeStore = (*PostgresOffices)(nil)

func NewPostgresOffices(db *sql.DB) *PostgresOffices {
	return &PostgresOffices{db: db}
}

func (s *PostgresOffices) Create(ctx context.Context, office *models.Office) error {
	if office.ID == uuid.Nil {
		office.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offices (id, name, department) VALUES ($1, $2, $3)
	`, office.ID, office.Name, office.Department)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert office: %w", err)
	}
	return nil
}

func (s *PostgresOffices) FindByID(ctx context.Context, id uuid.UUID) (*models.Office, error) {
	return s.scanOffice(s.db.QueryRowContext(ctx, `
		SELECT id, name, department FROM offices WHERE id = $1
	`, id))
}

func (s *PostgresOffices) FindByName(ctx context.Context, name string) (*models.Office, error) {
	return s.scanOffice(s.db.QueryRowContext(ctx, `
		SELECT id, name, department FROM offices WHERE lower(name) = lower($1)
	`, name))
}

func (s *PostgresOffices) List(ctx context.Context) ([]models.Office, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, department FROM offices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query offices: %w", err)
	}
	defer rows.Close()

	var out []models.Office
	for rows.Next() {
		var o models.Office
		if err := rows.Scan(&o.ID, &o.Name, &o.Department); err != nil {
			return nil, fmt.Errorf("scan office: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresOffices) scanOffice(row *sql.Row) (*models.Office, error) {
	var o models.Office
	err := row.Scan(&o.ID, &o.Name, &o.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan office: %w", err)
	}
	return &o, nil
}
