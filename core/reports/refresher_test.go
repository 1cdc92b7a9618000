package reports

import (
	"context"
	"path/filepath"
	"testing"

	"crimetrack/config"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

func TestRefresherStartRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBURL:    filepath.Join(t.TempDir(), "reports.db"),
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
	casesStore := store.NewCasesStore(db)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if _, err := casesStore.CreateTx(ctx, tx, &store.Case{CaseNumber: "CASE-2024-0001", Title: "A", Status: store.CaseOpen}); err != nil {
		t.Fatalf("case: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reports := store.NewReportsStore(db)
	// Scheduling disabled: Start performs the initial rebuild and returns.
	r := NewRefresher(config.ReportsConfig{RefreshEnabled: false}, reports, nil)
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop()

	counts, err := reports.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != 1 || counts[0].Status != store.CaseOpen || counts[0].Count != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}
