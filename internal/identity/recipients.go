package identity

import (
	"context"

	"github.com/google/uuid"

	dirmodels "doctrack/internal/directory/models"
	docmodels "doctrack/internal/document/models"
)

// NextRecipients resolves the accounts that should hear about a document's
// current routing target: the assigned handler, plus every member of the next
// office. When no office record matches the routed name, employees are matched
// by department name instead. The result is de-duplicated by account ID.
// Individual resolution misses are logged and skipped.
func (r *Resolver) NextRecipients(ctx context.Context, doc *docmodels.Document) []dirmodels.Account {
	var out []dirmodels.Account
	seen := make(map[uuid.UUID]struct{})

	add := func(account *dirmodels.Account) {
		if account == nil {
			return
		}
		if _, dup := seen[account.ID]; dup {
			return
		}
		seen[account.ID] = struct{}{}
		out = append(out, *account)
	}

	if doc.CurrentHandler != nil {
		employee, err := r.employees.FindByID(ctx, *doc.CurrentHandler)
		if err != nil {
			r.logger.WarnContext(ctx, "current handler not in directory",
				"document", doc.Code, "handler", *doc.CurrentHandler, "error", err)
		} else if account, err := r.accounts.FindByEmployeeCode(ctx, employee.EmployeeCode); err != nil {
			r.logger.WarnContext(ctx, "handler has no linked account",
				"document", doc.Code, "employee", employee.Name)
		} else {
			add(account)
		}
	}

	if doc.NextOffice != "" {
		for _, employee := range r.officeMembers(ctx, doc.NextOffice) {
			account, err := r.accounts.FindByEmployeeCode(ctx, employee.EmployeeCode)
			if err != nil {
				r.logger.WarnContext(ctx, "office member has no linked account",
					"office", doc.NextOffice, "employee", employee.Name)
				continue
			}
			add(account)
		}
	}

	return out
}

// officeMembers returns the employees belonging to the named office, falling
// back to department-name matching when no office record exists by that name.
func (r *Resolver) officeMembers(ctx context.Context, name string) []dirmodels.Employee {
	office, err := r.offices.FindByName(ctx, name)
	if err == nil {
		members, err := r.employees.ListByOffice(ctx, office.ID)
		if err != nil {
			r.logger.WarnContext(ctx, "failed to list office members", "office", name, "error", err)
			return nil
		}
		return members
	}

	members, err := r.employees.ListByDepartment(ctx, name)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to list department members", "department", name, "error", err)
		return nil
	}
	return members
}
