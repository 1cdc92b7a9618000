package seed

import (
	"context"
	"path/filepath"
	"testing"

	"crimetrack/config"
	"crimetrack/core/cases"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

func TestRunSeedsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBURL:    filepath.Join(t.TempDir(), "seed.db"),
		Pepper:   "pepper",
		Cases:    config.CasesConfig{NumberPrefix: "CASE"},
	}
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
	people := store.NewPeopleStore(db)
	incidents := store.NewIncidentsStore(db)
	casesStore := store.NewCasesStore(db)
	evidence := store.NewEvidenceStore(db)
	audits := store.NewAuditStore(db)
	svc := cases.NewService(cfg, db, incidents, casesStore, people, evidence, users, audits, nil)

	if err := Run(ctx, cfg, users, people, incidents, svc, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	userCount, _ := users.Count(ctx)
	if userCount != 4 {
		t.Fatalf("users = %d, want 4", userCount)
	}
	caseList, err := casesStore.List(ctx, store.CaseFilter{})
	if err != nil || len(caseList) != 2 {
		t.Fatalf("cases = %d, err %v", len(caseList), err)
	}
	for _, c := range caseList {
		items, err := evidence.ListByCase(ctx, c.ID)
		if err != nil || len(items) != 1 {
			t.Fatalf("evidence for case %d = %d, err %v", c.ID, len(items), err)
		}
		links, err := people.ListByCase(ctx, c.ID)
		if err != nil || len(links) != 2 {
			t.Fatalf("people for case %d = %d, err %v", c.ID, len(links), err)
		}
	}
	incList, err := incidents.List(ctx, store.IncidentFilter{Status: store.IncidentEscalated})
	if err != nil || len(incList) != 2 {
		t.Fatalf("escalated incidents = %d, err %v", len(incList), err)
	}

	// A second run against the populated database must change nothing.
	if err := Run(ctx, cfg, users, people, incidents, svc, nil); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	userCount, _ = users.Count(ctx)
	if userCount != 4 {
		t.Fatalf("users after rerun = %d, want 4", userCount)
	}
	caseList, _ = casesStore.List(ctx, store.CaseFilter{})
	if len(caseList) != 2 {
		t.Fatalf("cases after rerun = %d, want 2", len(caseList))
	}
}
