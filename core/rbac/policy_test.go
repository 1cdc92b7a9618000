package rbac

import (
	"context"
	"path/filepath"
	"testing"

	"crimetrack/config"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

func newPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return p
}

func TestRoleMatrix(t *testing.T) {
	p := newPolicy(t)
	tests := []struct {
		role store.UserRole
		perm Permission
		want bool
	}{
		{store.RoleAdmin, "incidents.view", true},
		{store.RoleAdmin, "cases.status", true},
		{store.RoleAdmin, "logs.view", true},
		{store.RoleAdmin, "accounts.manage", true},

		{store.RoleViewer, "incidents.view", true},
		{store.RoleViewer, "cases.view", true},
		{store.RoleViewer, "reports.view", true},
		{store.RoleViewer, "incidents.create", false},
		{store.RoleViewer, "cases.status", false},
		{store.RoleViewer, "logs.view", false},

		{store.RoleOfficer, "incidents.view", true},
		{store.RoleOfficer, "incidents.create", true},
		{store.RoleOfficer, "incidents.escalate", false},
		{store.RoleOfficer, "cases.edit", false},
		{store.RoleOfficer, "people.create", false},
		{store.RoleOfficer, "logs.view", false},

		{store.RoleInvestigator, "incidents.create", true},
		{store.RoleInvestigator, "incidents.escalate", true},
		{store.RoleInvestigator, "cases.edit", true},
		{store.RoleInvestigator, "cases.status", true},
		{store.RoleInvestigator, "cases.close", true},
		{store.RoleInvestigator, "cases.people", true},
		{store.RoleInvestigator, "cases.evidence", true},
		{store.RoleInvestigator, "people.create", true},
		{store.RoleInvestigator, "logs.view", false},
		{store.RoleInvestigator, "accounts.manage", false},
	}
	for _, tc := range tests {
		if got := p.Allowed(tc.role, tc.perm); got != tc.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestAllowedUnknownRole(t *testing.T) {
	p := newPolicy(t)
	if p.Allowed("intruder", "incidents.view") {
		t.Fatalf("unknown role must be denied")
	}
}

func TestCanMutateCase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &config.AppConfig{DBDriver: "sqlite", DBURL: filepath.Join(dir, "rbac.db")}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(ctx, db, cfg.DBDriver, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	users := store.NewUsersStore(db)
	cases := store.NewCasesStore(db)

	leadID, err := users.Create(ctx, &store.User{Username: "lead", Role: store.RoleInvestigator, Active: true})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	assignedID, err := users.Create(ctx, &store.User{Username: "assigned", Role: store.RoleInvestigator, Active: true})
	if err != nil {
		t.Fatalf("create assigned: %v", err)
	}
	outsiderID, err := users.Create(ctx, &store.User{Username: "outsider", Role: store.RoleInvestigator, Active: true})
	if err != nil {
		t.Fatalf("create outsider: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	c := &store.Case{CaseNumber: "CASE-2024-0001", Title: "Test", Status: store.CaseOpen, LeadInvestigatorID: &leadID}
	if _, err := cases.CreateTx(ctx, tx, c); err != nil {
		t.Fatalf("create case: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := cases.AddAssignment(ctx, &store.CaseAssignment{CaseID: c.ID, UserID: assignedID, Role: store.AssignInvestigator}); err != nil {
		t.Fatalf("assignment: %v", err)
	}

	p := newPolicy(t)
	check := func(u *store.User, want bool, label string) {
		t.Helper()
		got, err := p.CanMutateCase(ctx, u, c, cases)
		if err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		if got != want {
			t.Fatalf("%s: got %v, want %v", label, got, want)
		}
	}
	check(&store.User{ID: 999, Role: store.RoleAdmin}, true, "admin")
	check(&store.User{ID: leadID, Role: store.RoleInvestigator}, true, "lead investigator")
	check(&store.User{ID: assignedID, Role: store.RoleInvestigator}, true, "assigned investigator")
	check(&store.User{ID: outsiderID, Role: store.RoleInvestigator}, false, "unassigned investigator")
	check(&store.User{ID: leadID, Role: store.RoleOfficer}, false, "officer")
	check(&store.User{ID: leadID, Role: store.RoleViewer}, false, "viewer")
	check(nil, false, "nil user")
}
