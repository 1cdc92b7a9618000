package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"crimetrack/config"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

type testEnv struct {
	db        *sql.DB
	users     store.UsersStore
	incidents store.IncidentsStore
	cases     store.CasesStore
	people    store.PeopleStore
	evidence  store.EvidenceStore
	audits    store.AuditStore
	svc       *Service
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBURL:    filepath.Join(dir, "cases.db"),
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, cfg.DBDriver, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	env := &testEnv{
		db:        db,
		users:     store.NewUsersStore(db),
		incidents: store.NewIncidentsStore(db),
		cases:     store.NewCasesStore(db),
		people:    store.NewPeopleStore(db),
		evidence:  store.NewEvidenceStore(db),
		audits:    store.NewAuditStore(db),
	}
	env.svc = NewService(cfg, db, env.incidents, env.cases, env.people, env.evidence, env.users, env.audits, nil)
	env.svc.SetClock(func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	})
	return env
}

func (e *testEnv) createUser(t *testing.T, username string, role store.UserRole) int64 {
	t.Helper()
	id, err := e.users.Create(context.Background(), &store.User{Username: username, Role: role, Active: true})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return id
}

func (e *testEnv) createIncident(t *testing.T, title string, status store.IncidentStatus) int64 {
	t.Helper()
	id, err := e.incidents.Create(context.Background(), &store.Incident{Title: title, Description: "details", Status: status})
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	return id
}

func (e *testEnv) countRows(t *testing.T, table, where string, args ...any) int {
	t.Helper()
	query := "SELECT COUNT(1) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := e.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestEscalateIncidentCreatesCase(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	leadID := env.createUser(t, "inv1", store.RoleInvestigator)
	incID := env.createIncident(t, "Warehouse break-in", store.IncidentDraft)

	c, err := env.svc.EscalateIncident(ctx, incID, leadID)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if c.CaseNumber != "CASE-2024-0001" {
		t.Fatalf("expected CASE-2024-0001, got %s", c.CaseNumber)
	}
	if c.Status != store.CaseOpen {
		t.Fatalf("expected open case, got %s", c.Status)
	}
	if c.IncidentID == nil || *c.IncidentID != incID {
		t.Fatalf("case not linked to incident")
	}
	if c.LeadInvestigatorID == nil || *c.LeadInvestigatorID != leadID {
		t.Fatalf("lead investigator not set")
	}
	inc, _ := env.incidents.Get(ctx, incID)
	if inc.Status != store.IncidentEscalated {
		t.Fatalf("incident status = %s, want escalated", inc.Status)
	}
	history, err := env.cases.ListHistory(ctx, c.ID)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d (err=%v)", len(history), err)
	}
	if history[0].OldStatus != nil || history[0].NewStatus != store.CaseOpen {
		t.Fatalf("history row = %+v, want null -> open", history[0])
	}
	if history[0].ChangedBy == nil || *history[0].ChangedBy != leadID {
		t.Fatalf("history changed_by not lead")
	}
	audits, _ := env.audits.List(ctx, store.AuditFilter{Action: "escalate_incident"})
	if len(audits) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(audits))
	}
}

func TestEscalateIncidentIdempotent(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	lead1 := env.createUser(t, "inv1", store.RoleInvestigator)
	lead2 := env.createUser(t, "inv2", store.RoleInvestigator)
	incID := env.createIncident(t, "Theft", store.IncidentSubmitted)

	first, err := env.svc.EscalateIncident(ctx, incID, lead1)
	if err != nil {
		t.Fatalf("first escalate: %v", err)
	}
	second, err := env.svc.EscalateIncident(ctx, incID, lead2)
	if err != nil {
		t.Fatalf("second escalate: %v", err)
	}
	if first.ID != second.ID || first.CaseNumber != second.CaseNumber {
		t.Fatalf("second escalation returned different case: %v vs %v", first.ID, second.ID)
	}
	if second.LeadInvestigatorID == nil || *second.LeadInvestigatorID != lead1 {
		t.Fatalf("lead changed on idempotent escalation")
	}
	if n := env.countRows(t, "cases", ""); n != 1 {
		t.Fatalf("expected 1 case, got %d", n)
	}
	if n := env.countRows(t, "case_status_history", ""); n != 1 {
		t.Fatalf("expected 1 history row total, got %d", n)
	}
	if n := env.countRows(t, "audit_log", "action='escalate_incident'"); n != 1 {
		t.Fatalf("expected 1 audit row total, got %d", n)
	}
}

func TestEscalateIncidentMissingUser(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	incID := env.createIncident(t, "Fraud", store.IncidentDraft)

	_, err := env.svc.EscalateIncident(ctx, incID, 999)
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	inc, _ := env.incidents.Get(ctx, incID)
	if inc.Status != store.IncidentDraft {
		t.Fatalf("incident status mutated on failed escalation: %s", inc.Status)
	}
	if n := env.countRows(t, "cases", ""); n != 0 {
		t.Fatalf("case created despite rollback")
	}
	if n := env.countRows(t, "case_status_history", ""); n != 0 {
		t.Fatalf("history created despite rollback")
	}
	if n := env.countRows(t, "audit_log", ""); n != 0 {
		t.Fatalf("audit created despite rollback")
	}
}

func TestEscalateIncidentUnknownIncident(t *testing.T) {
	env := setupEnv(t)
	lead := env.createUser(t, "inv1", store.RoleInvestigator)
	_, err := env.svc.EscalateIncident(context.Background(), 404, lead)
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCaseNumbersSequential(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	lead := env.createUser(t, "inv1", store.RoleInvestigator)
	for i := 1; i <= 3; i++ {
		incID := env.createIncident(t, fmt.Sprintf("Incident %d", i), store.IncidentSubmitted)
		c, err := env.svc.EscalateIncident(ctx, incID, lead)
		if err != nil {
			t.Fatalf("escalate %d: %v", i, err)
		}
		want := fmt.Sprintf("CASE-2024-%04d", i)
		if c.CaseNumber != want {
			t.Fatalf("case %d number = %s, want %s", i, c.CaseNumber, want)
		}
	}
}

func TestCaseNumberFallbackOnUnparseableSuffix(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	lead := env.createUser(t, "inv1", store.RoleInvestigator)
	// A stray number with a non-numeric suffix must not break generation.
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := env.db.Exec(`INSERT INTO cases(case_number, title, description, status, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		"CASE-2024-legacy", "Imported", "", "open", now, now); err != nil {
		t.Fatalf("insert legacy case: %v", err)
	}
	incID := env.createIncident(t, "New incident", store.IncidentSubmitted)
	c, err := env.svc.EscalateIncident(ctx, incID, lead)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if c.CaseNumber != "CASE-2024-0001" {
		t.Fatalf("expected fallback to CASE-2024-0001, got %s", c.CaseNumber)
	}
}

func TestConcurrentEscalationsUniqueNumbers(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	lead := env.createUser(t, "inv1", store.RoleInvestigator)
	const n = 8
	incidentIDs := make([]int64, n)
	for i := range incidentIDs {
		incidentIDs[i] = env.createIncident(t, fmt.Sprintf("Incident %d", i), store.IncidentSubmitted)
	}
	var wg sync.WaitGroup
	results := make(chan string, n)
	for _, id := range incidentIDs {
		wg.Add(1)
		go func(incidentID int64) {
			defer wg.Done()
			c, err := env.svc.EscalateIncident(ctx, incidentID, lead)
			if err != nil {
				t.Errorf("escalate %d: %v", incidentID, err)
				return
			}
			results <- c.CaseNumber
		}(id)
	}
	wg.Wait()
	close(results)
	pattern := regexp.MustCompile(`^CASE-2024-\d{4}$`)
	seen := map[string]bool{}
	for number := range results {
		if !pattern.MatchString(number) {
			t.Fatalf("bad case number format: %s", number)
		}
		if seen[number] {
			t.Fatalf("duplicate case number %s", number)
		}
		seen[number] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d unique numbers, got %d", n, len(seen))
	}
}

func (e *testEnv) createCaseWithStatus(t *testing.T, status store.CaseStatus) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	lead := e.createUser(t, fmt.Sprintf("lead-%s-%d", status, e.countRows(t, "users", "")), store.RoleInvestigator)
	incID := e.createIncident(t, "Setup incident", store.IncidentSubmitted)
	c, err := e.svc.EscalateIncident(ctx, incID, lead)
	if err != nil {
		t.Fatalf("setup escalate: %v", err)
	}
	if status != store.CaseOpen {
		if _, err := e.db.Exec(`UPDATE cases SET status=? WHERE id=?`, string(status), c.ID); err != nil {
			t.Fatalf("force status: %v", err)
		}
	}
	return c.ID, lead
}

func TestAllowedTransitions(t *testing.T) {
	want := map[store.CaseStatus][]store.CaseStatus{
		store.CaseOpen:          {store.CaseInvestigating, store.CaseClosed},
		store.CaseInvestigating: {store.CaseClosed},
		store.CaseClosed:        {store.CaseArchived, store.CaseInvestigating},
		store.CaseArchived:      {},
	}
	for from, targets := range want {
		got := AllowedTransitions(from)
		if len(got) != len(targets) {
			t.Fatalf("from %s: got %v, want %v", from, got, targets)
		}
		for i := range targets {
			if got[i] != targets[i] {
				t.Fatalf("from %s: got %v, want %v", from, got, targets)
			}
		}
	}
}

func TestChangeCaseStatusTransitionTable(t *testing.T) {
	all := []store.CaseStatus{store.CaseOpen, store.CaseInvestigating, store.CaseClosed, store.CaseArchived}
	for _, from := range all {
		for _, to := range all {
			if from == to {
				continue
			}
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				env := setupEnv(t)
				ctx := context.Background()
				caseID, userID := env.createCaseWithStatus(t, from)
				historyBefore := env.countRows(t, "case_status_history", "case_id=?", caseID)

				updated, err := env.svc.ChangeCaseStatus(ctx, caseID, userID, to, "test")
				if transitionAllowed(from, to) {
					if err != nil {
						t.Fatalf("expected %s -> %s to succeed: %v", from, to, err)
					}
					if updated.Status != to {
						t.Fatalf("status = %s, want %s", updated.Status, to)
					}
					after := env.countRows(t, "case_status_history", "case_id=?", caseID)
					if after != historyBefore+1 {
						t.Fatalf("history rows = %d, want %d", after, historyBefore+1)
					}
					return
				}
				if !IsInvalidTransition(err) {
					t.Fatalf("expected InvalidTransitionError for %s -> %s, got %v", from, to, err)
				}
				c, _ := env.cases.Get(ctx, caseID)
				if c.Status != from {
					t.Fatalf("status mutated on rejected transition: %s", c.Status)
				}
				teErr := err.(*InvalidTransitionError)
				if teErr.From != from || teErr.To != to {
					t.Fatalf("error pair = %s -> %s, want %s -> %s", teErr.From, teErr.To, from, to)
				}
				after := env.countRows(t, "case_status_history", "case_id=?", caseID)
				if after != historyBefore {
					t.Fatalf("history appended on rejected transition")
				}
			})
		}
	}
}

func TestConcurrentStatusChangesSerialized(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	caseID, userID := env.createCaseWithStatus(t, store.CaseOpen)

	// Both targets are valid from open. Whichever lands second must see the
	// first one's result, so the history chain records exactly one
	// departure per status.
	var wg sync.WaitGroup
	for _, target := range []store.CaseStatus{store.CaseClosed, store.CaseInvestigating} {
		wg.Add(1)
		go func(to store.CaseStatus) {
			defer wg.Done()
			if _, err := env.svc.ChangeCaseStatus(ctx, caseID, userID, to, "race"); err != nil {
				t.Errorf("change to %s: %v", to, err)
			}
		}(target)
	}
	wg.Wait()

	history, err := env.cases.ListHistory(ctx, caseID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3", len(history))
	}
	departures := map[store.CaseStatus]int{}
	for _, h := range history {
		if h.OldStatus != nil {
			departures[*h.OldStatus]++
		}
	}
	for status, n := range departures {
		if n != 1 {
			t.Fatalf("status %s departed %d times, want 1", status, n)
		}
	}
	if departures[store.CaseOpen] != 1 {
		t.Fatalf("no departure from open recorded")
	}
}

func TestChangeCaseStatusNoOp(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	caseID, userID := env.createCaseWithStatus(t, store.CaseOpen)
	historyBefore := env.countRows(t, "case_status_history", "")
	auditBefore := env.countRows(t, "audit_log", "")

	c, err := env.svc.ChangeCaseStatus(ctx, caseID, userID, store.CaseOpen, "noop")
	if err != nil {
		t.Fatalf("no-op change: %v", err)
	}
	if c.Status != store.CaseOpen {
		t.Fatalf("status = %s", c.Status)
	}
	if env.countRows(t, "case_status_history", "") != historyBefore {
		t.Fatalf("history appended on no-op")
	}
	if env.countRows(t, "audit_log", "") != auditBefore {
		t.Fatalf("audit appended on no-op")
	}
}

func TestChangeCaseStatusMissingUser(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	caseID, _ := env.createCaseWithStatus(t, store.CaseOpen)
	historyBefore := env.countRows(t, "case_status_history", "")

	_, err := env.svc.ChangeCaseStatus(ctx, caseID, 999, store.CaseClosed, "x")
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	c, _ := env.cases.Get(ctx, caseID)
	if c.Status != store.CaseOpen {
		t.Fatalf("status mutated on failed change: %s", c.Status)
	}
	if env.countRows(t, "case_status_history", "") != historyBefore {
		t.Fatalf("history appended on failed change")
	}
}

func TestCloseCaseDefaultsReason(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	caseID, userID := env.createCaseWithStatus(t, store.CaseOpen)

	c, err := env.svc.CloseCase(ctx, caseID, userID, "")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Status != store.CaseClosed {
		t.Fatalf("status = %s, want closed", c.Status)
	}
	audits, _ := env.audits.List(ctx, store.AuditFilter{Action: "change_status"})
	if len(audits) != 1 {
		t.Fatalf("expected 1 change_status audit row, got %d", len(audits))
	}
	if audits[0].Details != "open -> closed. Closing case" {
		t.Fatalf("audit details = %q", audits[0].Details)
	}
}

func TestReopenClosedCase(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	caseID, userID := env.createCaseWithStatus(t, store.CaseClosed)

	c, err := env.svc.ChangeCaseStatus(ctx, caseID, userID, store.CaseInvestigating, "new witness")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if c.Status != store.CaseInvestigating {
		t.Fatalf("status = %s, want investigating", c.Status)
	}
}

func TestAddEvidenceAuditsAndRejectsDuplicates(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	caseID, userID := env.createCaseWithStatus(t, store.CaseOpen)

	ev, err := env.svc.AddEvidence(ctx, caseID, "EV-001", "knife", userID)
	if err != nil {
		t.Fatalf("add evidence: %v", err)
	}
	if ev.ID == 0 {
		t.Fatalf("evidence id not set")
	}
	audits, _ := env.audits.List(ctx, store.AuditFilter{Action: "create_evidence"})
	if len(audits) != 1 {
		t.Fatalf("expected 1 create_evidence audit row, got %d", len(audits))
	}
	if _, err := env.svc.AddEvidence(ctx, caseID, "EV-001", "again", userID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate code, got %v", err)
	}
	// Failed insert must not leave an audit row behind.
	audits, _ = env.audits.List(ctx, store.AuditFilter{Action: "create_evidence"})
	if len(audits) != 1 {
		t.Fatalf("audit rows after duplicate = %d, want 1", len(audits))
	}
}

func TestAddCasePersonRejectsDuplicateTriple(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	caseID, userID := env.createCaseWithStatus(t, store.CaseOpen)
	personID, err := env.people.Create(ctx, &store.Person{FirstName: "Dana", LastName: "Kovacs"})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}

	if _, err := env.svc.AddCasePerson(ctx, caseID, personID, store.PersonWitness, userID); err != nil {
		t.Fatalf("add person: %v", err)
	}
	if _, err := env.svc.AddCasePerson(ctx, caseID, personID, store.PersonWitness, userID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate triple, got %v", err)
	}
	// Same person under a different role is a distinct link.
	if _, err := env.svc.AddCasePerson(ctx, caseID, personID, store.PersonVictim, userID); err != nil {
		t.Fatalf("add person with second role: %v", err)
	}
}
