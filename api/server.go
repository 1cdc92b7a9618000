package api

import (
	"context"
	"net/http"
	"time"

	"crimetrack/config"
	"crimetrack/core/auth"
	"crimetrack/core/cases"
	"crimetrack/core/rbac"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

// BackgroundWorker is anything with a lifecycle tied to the server, like the
// reports refresher.
type BackgroundWorker interface {
	Start(ctx context.Context) error
	Stop()
}

type ServerDeps struct {
	Users          store.UsersStore
	Sessions       store.SessionStore
	Incidents      store.IncidentsStore
	Cases          store.CasesStore
	People         store.PeopleStore
	Evidence       store.EvidenceStore
	Audits         store.AuditStore
	Reports        store.ReportsStore
	Policy         *rbac.Policy
	CasesSvc       *cases.Service
	SessionManager *auth.SessionManager
}

type Server struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessions       store.SessionStore
	incidents      store.IncidentsStore
	cases          store.CasesStore
	people         store.PeopleStore
	evidence       store.EvidenceStore
	audits         store.AuditStore
	reports        store.ReportsStore
	policy         *rbac.Policy
	casesSvc       *cases.Service
	sessionManager *auth.SessionManager
	logger         *utils.Logger

	httpServer *http.Server
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	return &Server{
		cfg:            cfg,
		users:          deps.Users,
		sessions:       deps.Sessions,
		incidents:      deps.Incidents,
		cases:          deps.Cases,
		people:         deps.People,
		evidence:       deps.Evidence,
		audits:         deps.Audits,
		reports:        deps.Reports,
		policy:         deps.Policy,
		casesSvc:       deps.CasesSvc,
		sessionManager: deps.SessionManager,
		logger:         logger,
	}
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.logger != nil {
		s.logger.Infof("listening on %s", s.cfg.ListenAddr)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
