package api

import (
	"net/http"

	"crimetrack/api/handlers"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	authHandler := handlers.NewAuthHandler(s.cfg, s.users, s.sessionManager, s.audits, s.logger)
	incidentsHandler := handlers.NewIncidentsHandler(s.incidents, s.users, s.casesSvc, s.logger)
	casesHandler := handlers.NewCasesHandler(s.cases, s.people, s.evidence, s.users, s.policy, s.casesSvc, s.logger)
	peopleHandler := handlers.NewPeopleHandler(s.people)
	reportsHandler := handlers.NewReportsHandler(s.reports)
	logsHandler := handlers.NewLogsHandler(s.audits)

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.sessionMiddleware)

	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.MethodFunc("POST", "/auth/login", authHandler.Login)
		apiRouter.MethodFunc("POST", "/auth/logout", authHandler.Logout)
		apiRouter.MethodFunc("GET", "/auth/me", authHandler.Me)

		apiRouter.Route("/incidents", func(incRouter chi.Router) {
			incRouter.MethodFunc("GET", "/", s.requirePermission("incidents.view")(incidentsHandler.List))
			incRouter.MethodFunc("POST", "/", s.requirePermission("incidents.create")(incidentsHandler.Create))
			incRouter.MethodFunc("GET", "/search", s.requirePermission("incidents.view")(incidentsHandler.List))
			incRouter.MethodFunc("GET", "/{id:[0-9]+}", s.requirePermission("incidents.view")(incidentsHandler.Get))
			incRouter.MethodFunc("POST", "/{id:[0-9]+}/escalate", s.requirePermission("incidents.escalate")(incidentsHandler.Escalate))
		})

		apiRouter.Route("/cases", func(casesRouter chi.Router) {
			casesRouter.MethodFunc("GET", "/", s.requirePermission("cases.view")(casesHandler.List))
			casesRouter.MethodFunc("GET", "/{id:[0-9]+}", s.requirePermission("cases.view")(casesHandler.Get))
			casesRouter.MethodFunc("PUT", "/{id:[0-9]+}", s.requirePermission("cases.edit")(casesHandler.Update))
			casesRouter.MethodFunc("POST", "/{id:[0-9]+}/status", s.requirePermission("cases.status")(casesHandler.ChangeStatus))
			casesRouter.MethodFunc("POST", "/{id:[0-9]+}/close", s.requirePermission("cases.close")(casesHandler.Close))
			casesRouter.MethodFunc("GET", "/{id:[0-9]+}/history", s.requirePermission("cases.view")(casesHandler.History))
			casesRouter.MethodFunc("GET", "/{id:[0-9]+}/people", s.requirePermission("cases.view")(casesHandler.ListPeople))
			casesRouter.MethodFunc("POST", "/{id:[0-9]+}/people", s.requirePermission("cases.people")(casesHandler.AddPerson))
			casesRouter.MethodFunc("GET", "/{id:[0-9]+}/evidence", s.requirePermission("cases.view")(casesHandler.ListEvidence))
			casesRouter.MethodFunc("POST", "/{id:[0-9]+}/evidence", s.requirePermission("cases.evidence")(casesHandler.AddEvidence))
		})

		apiRouter.MethodFunc("GET", "/evidence/{id:[0-9]+}", s.requirePermission("cases.view")(casesHandler.GetEvidence))

		apiRouter.Route("/people", func(peopleRouter chi.Router) {
			peopleRouter.MethodFunc("GET", "/", s.requirePermission("people.view")(peopleHandler.List))
			peopleRouter.MethodFunc("POST", "/", s.requirePermission("people.create")(peopleHandler.Create))
			peopleRouter.MethodFunc("GET", "/{id:[0-9]+}", s.requirePermission("people.view")(peopleHandler.Get))
		})

		apiRouter.Route("/reports", func(reportsRouter chi.Router) {
			reportsRouter.MethodFunc("GET", "/case-summary", s.requirePermission("reports.view")(reportsHandler.CaseSummary))
			reportsRouter.MethodFunc("GET", "/case-counts", s.requirePermission("reports.view")(reportsHandler.StatusCounts))
		})

		apiRouter.MethodFunc("GET", "/logs", s.requirePermission("logs.view")(logsHandler.List))
	})

	return r
}
