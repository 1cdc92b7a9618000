package appbootstrap

import (
	"database/sql"

	"crimetrack/api"
	"crimetrack/config"
	"crimetrack/core/auth"
	"crimetrack/core/cases"
	"crimetrack/core/rbac"
	"crimetrack/core/reports"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
	workers    []api.BackgroundWorker

	users     store.UsersStore
	people    store.PeopleStore
	incidents store.IncidentsStore
	casesSvc  *cases.Service
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*runtimeComposition, error) {
	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	incidents := store.NewIncidentsStore(db)
	casesStore := store.NewCasesStore(db)
	people := store.NewPeopleStore(db)
	evidence := store.NewEvidenceStore(db)
	audits := store.NewAuditStore(db)
	reportsStore := store.NewReportsStore(db)

	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, err
	}
	casesSvc := cases.NewService(cfg, db, incidents, casesStore, people, evidence, users, audits, logger)
	sessionManager := auth.NewSessionManager(sessions, cfg, logger)
	refresher := reports.NewRefresher(cfg.Reports, reportsStore, logger)
	janitor := auth.NewSessionJanitor(sessions, logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			Users:          users,
			Sessions:       sessions,
			Incidents:      incidents,
			Cases:          casesStore,
			People:         people,
			Evidence:       evidence,
			Audits:         audits,
			Reports:        reportsStore,
			Policy:         policy,
			CasesSvc:       casesSvc,
			SessionManager: sessionManager,
		},
		workers:   []api.BackgroundWorker{refresher, janitor},
		users:     users,
		people:    people,
		incidents: incidents,
		casesSvc:  casesSvc,
	}, nil
}
