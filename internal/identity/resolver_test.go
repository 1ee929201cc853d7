package identity

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	dirmodels "doctrack/internal/directory/models"
	"doctrack/internal/directory/store"
	docmodels "doctrack/internal/document/models"
)

type fixture struct {
	accounts  *store.MemoryAccounts
	employees *store.MemoryEmployees
	offices   *store.MemoryOffices
	resolver  *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		accounts:  store.NewMemoryAccounts(),
		employees: store.NewMemoryEmployees(),
		offices:   store.NewMemoryOffices(),
	}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	f.resolver = New(f.accounts, f.employees, f.offices, logger)
	return f
}

func (f *fixture) account(t *testing.T, username, email, role, code string) *dirmodels.Account {
	t.Helper()
	a := &dirmodels.Account{Username: username, Email: email, Role: role, EmployeeCode: code}
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return a
}

func (f *fixture) employee(t *testing.T, name, code, department string, officeID *dirmodels.Office) *dirmodels.Employee {
	t.Helper()
	e := &dirmodels.Employee{Name: name, EmployeeCode: code, Department: department}
	if officeID != nil {
		e.OfficeID = &officeID.ID
	}
	require.NoError(t, f.employees.Create(context.Background(), e))
	return e
}

func TestResolveExactUsernameWinsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	want := f.account(t, "Juan Cruz", "jcruz@agency.gov", "staff", "")
	// a fuzzy candidate that would also match; exact username must win
	f.account(t, "Juan Cruz Jr", "jcruzjr@agency.gov", "staff", "")

	got, ok := f.resolver.Resolve(ctx, "Juan Cruz")
	require.True(t, ok)
	require.Equal(t, want.ID, got.ID)
}

func TestResolveViaEmployeeSubstring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	linked := f.account(t, "jcruz", "jcruz@agency.gov", "staff", "EMP-777")
	f.employee(t, "Juan Cruz", "EMP-777", "Administration", nil)

	got, ok := f.resolver.Resolve(ctx, "J. Cruz")
	require.True(t, ok)
	require.Equal(t, linked.ID, got.ID)

	got, ok = f.resolver.Resolve(ctx, "Cruz")
	require.True(t, ok)
	require.Equal(t, linked.ID, got.ID)
}

func TestFuzzyNameMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"J. Cruz", "Juan Cruz", true},
		{"Cruz", "Juan Cruz", true},
		{"Juan Cruz", "Cruz", true},
		{"juan cruz", "JUAN CRUZ", true},
		{"M. Santos", "Juan Cruz", false},
		{"", "Juan Cruz", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, fuzzyNameMatch(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestResolveExactEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	want := f.account(t, "asantos", "ana.santos@agency.gov", "staff", "")

	got, ok := f.resolver.Resolve(ctx, "ana.santos@agency.gov")
	require.True(t, ok)
	require.Equal(t, want.ID, got.ID)
}

func TestResolveFuzzyFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	want := f.account(t, "maria.delacruz", "mdc@agency.gov", "staff", "")

	got, ok := f.resolver.Resolve(ctx, "DELACRUZ")
	require.True(t, ok)
	require.Equal(t, want.ID, got.ID)
}

func TestResolveEmployeeWithoutLinkedAccountFallsThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// employee matches but has no account; the fuzzy account strategy should
	// still get its turn
	f.employee(t, "Pedro Ramos", "EMP-000", "Finance", nil)
	want := f.account(t, "ramos", "", "staff", "")

	got, ok := f.resolver.Resolve(ctx, "Pedro Ramos")
	require.True(t, ok)
	require.Equal(t, want.ID, got.ID)
}

func TestResolveMiss(t *testing.T) {
	f := newFixture(t)
	_, ok := f.resolver.Resolve(context.Background(), "completely unknown person")
	require.False(t, ok)

	_, ok = f.resolver.Resolve(context.Background(), "   ")
	require.False(t, ok)
}

func TestNextRecipientsOfficeMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	records := &dirmodels.Office{Name: "Records Section", Department: "Administration"}
	require.NoError(t, f.offices.Create(ctx, records))

	f.employee(t, "Juan Cruz", "EMP-1", "Administration", records)
	f.employee(t, "Ana Santos", "EMP-2", "Administration", records)
	f.employee(t, "Outsider", "EMP-3", "Finance", nil)

	a1 := f.account(t, "jcruz", "", "staff", "EMP-1")
	a2 := f.account(t, "asantos", "", "staff", "EMP-2")
	f.account(t, "outsider", "", "staff", "EMP-3")

	doc := &docmodels.Document{Code: "DOC-1", NextOffice: "Records Section"}
	got := f.resolver.NextRecipients(ctx, doc)
	require.Len(t, got, 2)
	ids := map[string]bool{a1.ID.String(): true, a2.ID.String(): true}
	for _, account := range got {
		require.True(t, ids[account.ID.String()], "unexpected recipient %s", account.Username)
	}
}

func TestNextRecipientsDepartmentFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// no office named "Finance" exists; members match by department instead
	f.employee(t, "Ana Reyes", "EMP-9", "Finance", nil)
	want := f.account(t, "areyes", "", "staff", "EMP-9")

	doc := &docmodels.Document{Code: "DOC-1", NextOffice: "Finance"}
	got := f.resolver.NextRecipients(ctx, doc)
	require.Len(t, got, 1)
	require.Equal(t, want.ID, got[0].ID)
}

func TestNextRecipientsDeduplicatesHandlerAndOffice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	records := &dirmodels.Office{Name: "Records Section"}
	require.NoError(t, f.offices.Create(ctx, records))

	handler := f.employee(t, "Juan Cruz", "EMP-1", "Administration", records)
	f.account(t, "jcruz", "", "staff", "EMP-1")

	doc := &docmodels.Document{
		Code:           "DOC-1",
		CurrentHandler: &handler.ID,
		NextOffice:     "Records Section",
	}
	got := f.resolver.NextRecipients(ctx, doc)
	require.Len(t, got, 1)
}

func TestNextRecipientsSkipsUnlinkedMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	records := &dirmodels.Office{Name: "Records Section"}
	require.NoError(t, f.offices.Create(ctx, records))

	f.employee(t, "No Account", "", "Administration", records)
	f.employee(t, "Has Account", "EMP-2", "Administration", records)
	want := f.account(t, "has.account", "", "staff", "EMP-2")

	doc := &docmodels.Document{Code: "DOC-1", NextOffice: "Records Section"}
	got := f.resolver.NextRecipients(ctx, doc)
	require.Len(t, got, 1)
	require.Equal(t, want.ID, got[0].ID)
}
