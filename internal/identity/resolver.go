// Package identity maps free-text submitter and handler references onto
// canonical directory accounts.
//
// Data entry in routing slips is inconsistent: the same person appears as a
// username, a full name, an abbreviation or an email address. The resolver
// runs an ordered chain of matcher functions and takes the first hit, keeping
// the tie-break order explicit and testable per strategy. A miss is a
// data-quality event, logged and never fatal.
package identity

import (
	"context"
	"log/slog"
	"strings"

	"doctrack/internal/directory/models"
	"doctrack/internal/directory/store"
)

// Resolver resolves free-text references against the organizational directory.
type Resolver struct {
	accounts  store.AccountStore
	employees store.EmployeeStore
	offices   store.OfficeStore
	logger    *slog.Logger
	matchers  []matcher
}

// matcher tries one resolution strategy. It returns nil with no error when the
// strategy simply does not match; errors are reserved for store failures.
type matcher func(ctx context.Context, text string) (*models.Account, error)

// New constructs a resolver over the directory stores.
func New(accounts store.AccountStore, employees store.EmployeeStore, offices store.OfficeStore, logger *slog.Logger) *Resolver {
	r := &Resolver{
		accounts:  accounts,
		employees: employees,
		offices:   offices,
		logger:    logger,
	}
	// Order is the contract: exact username, employee name via linked code,
	// exact email, then fuzzy username/email.
	r.matchers = []matcher{
		r.matchExactUsername,
		r.matchEmployeeName,
		r.matchExactEmail,
		r.matchFuzzyAccount,
	}
	return r
}

// Resolve maps text to a canonical account. The boolean reports whether any
// strategy matched; store failures are logged and treated as a miss.
func (r *Resolver) Resolve(ctx context.Context, text string) (*models.Account, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	for _, match := range r.matchers {
		account, err := match(ctx, text)
		if err != nil {
			r.logger.WarnContext(ctx, "identity matcher failed", "text", text, "error", err)
			continue
		}
		if account != nil {
			return account, true
		}
	}
	r.logger.WarnContext(ctx, "unresolved identity reference", "text", text)
	return nil, false
}

func (r *Resolver) matchExactUsername(ctx context.Context, text string) (*models.Account, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Username == text {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// matchEmployeeName resolves through the employee directory: an exact name
// match wins, then a case-insensitive substring match in either direction.
// The employee's linked code then selects the account.
func (r *Resolver) matchEmployeeName(ctx context.Context, text string) (*models.Account, error) {
	employees, err := r.employees.List(ctx)
	if err != nil {
		return nil, err
	}

	var found *models.Employee
	for i := range employees {
		if employees[i].Name == text {
			found = &employees[i]
			break
		}
	}
	if found == nil {
		for i := range employees {
			if employees[i].Name == "" {
				continue
			}
			if fuzzyNameMatch(text, employees[i].Name) {
				found = &employees[i]
				break
			}
		}
	}
	if found == nil {
		return nil, nil
	}

	account, err := r.accounts.FindByEmployeeCode(ctx, found.EmployeeCode)
	if err != nil {
		// employee exists but carries no linked account; fall through to the
		// next strategy rather than failing resolution outright
		return nil, nil
	}
	return account, nil
}

func (r *Resolver) matchExactEmail(ctx context.Context, text string) (*models.Account, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Email != "" && accounts[i].Email == text {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// fuzzyNameMatch reports whether two person names plausibly refer to the same
// person: containment in either direction, or every token of one name being a
// prefix of some token of the other. The token rule is what lets abbreviated
// forms like "J. Cruz" find "Juan Cruz".
func fuzzyNameMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return tokensPrefix(a, b) || tokensPrefix(b, a)
}

// tokensPrefix reports whether every token of a is a prefix of some token of b.
func tokensPrefix(a, b string) bool {
	aTokens := nameTokens(a)
	bTokens := nameTokens(b)
	if len(aTokens) == 0 {
		return false
	}
	for _, at := range aTokens {
		matched := false
		for _, bt := range bTokens {
			if strings.HasPrefix(bt, at) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func nameTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, ".,")
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func (r *Resolver) matchFuzzyAccount(ctx context.Context, text string) (*models.Account, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)
	for i := range accounts {
		username := strings.ToLower(accounts[i].Username)
		email := strings.ToLower(accounts[i].Email)
		if username != "" && (strings.Contains(username, lower) || strings.Contains(lower, username)) {
			return &accounts[i], nil
		}
		if email != "" && (strings.Contains(email, lower) || strings.Contains(lower, email)) {
			return &accounts[i], nil
		}
	}
	return nil, nil
}
