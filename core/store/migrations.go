package store

import (
	"context"
	"database/sql"
	"embed"
	"strings"

	"crimetrack/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ApplyMigrations brings the schema up to date using the embedded goose
// migrations. Safe to call on every startup.
func ApplyMigrations(ctx context.Context, db *sql.DB, driver string, logger *utils.Logger) error {
	dialect := "sqlite3"
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx":
		dialect = "postgres"
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return err
	}
	if logger != nil {
		logger.Infof("database migrations applied")
	}
	return nil
}
