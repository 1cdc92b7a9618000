package cases

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"crimetrack/config"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

// caseTransitions is the closed transition table for case statuses.
// archived is terminal: it has no outbound edges.
var caseTransitions = map[store.CaseStatus][]store.CaseStatus{
	store.CaseOpen:          {store.CaseInvestigating, store.CaseClosed},
	store.CaseInvestigating: {store.CaseClosed},
	store.CaseClosed:        {store.CaseArchived, store.CaseInvestigating},
	store.CaseArchived:      {},
}

// AllowedTransitions returns the statuses reachable from the given one.
func AllowedTransitions(from store.CaseStatus) []store.CaseStatus {
	return caseTransitions[from]
}

// Service owns the case lifecycle: incident escalation, case number
// assignment and state-machine-gated status changes, each executed in a
// single transaction together with its history and audit rows.
type Service struct {
	db        *sql.DB
	incidents store.IncidentsStore
	cases     store.CasesStore
	people    store.PeopleStore
	evidence  store.EvidenceStore
	users     store.UsersStore
	audits    store.AuditStore
	prefix    string
	logger    *utils.Logger
	now       func() time.Time

	// mu serializes the transactions that read case state before writing
	// it: number generation during escalation (two escalations in the same
	// year must never read the same max) and status transitions (two
	// concurrent changes must never both depart the same status). sqlite
	// runs on a single connection, but the postgres pool does not.
	mu sync.Mutex
}

func NewService(cfg *config.AppConfig, db *sql.DB, incidents store.IncidentsStore, cases store.CasesStore, people store.PeopleStore, evidence store.EvidenceStore, users store.UsersStore, audits store.AuditStore, logger *utils.Logger) *Service {
	prefix := "CASE"
	if cfg != nil && strings.TrimSpace(cfg.Cases.NumberPrefix) != "" {
		prefix = strings.TrimSpace(cfg.Cases.NumberPrefix)
	}
	return &Service{
		db:        db,
		incidents: incidents,
		cases:     cases,
		people:    people,
		evidence:  evidence,
		users:     users,
		audits:    audits,
		prefix:    prefix,
		logger:    logger,
		now:       utils.NowUTC,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// nextCaseNumberTx derives the next unused number for the current year in
// the form PREFIX-YYYY-NNNN by incrementing the max existing suffix. An
// unparseable suffix falls back to 1 rather than failing the escalation.
func (s *Service) nextCaseNumberTx(ctx context.Context, tx *sql.Tx) (string, error) {
	year := s.now().Year()
	prefix := fmt.Sprintf("%s-%d-", s.prefix, year)
	latest, err := s.cases.MaxCaseNumberTx(ctx, tx, prefix)
	if err != nil {
		return "", err
	}
	seq := 1
	if latest != "" {
		if idx := strings.LastIndex(latest, "-"); idx >= 0 {
			if n, err := strconv.Atoi(latest[idx+1:]); err == nil {
				seq = n + 1
			}
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// EscalateIncident promotes an incident into a case. Idempotent: an already
// escalated incident returns its linked case with no new writes. Everything
// else (implicit submit, case creation, history, incident status, audit)
// happens in one transaction.
func (s *Service) EscalateIncident(ctx context.Context, incidentID, leadUserID int64) (*store.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	inc, err := s.incidents.GetTx(ctx, tx, incidentID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if inc == nil {
		tx.Rollback()
		return nil, &NotFoundError{Entity: "incident", ID: incidentID}
	}
	if inc.Status == store.IncidentEscalated {
		existing, err := s.cases.GetByIncidentTx(ctx, tx, inc.ID)
		tx.Rollback()
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("incident %d is escalated but has no linked case", inc.ID)
		}
		return existing, nil
	}

	lead, err := s.users.GetByIDTx(ctx, tx, leadUserID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if lead == nil {
		tx.Rollback()
		return nil, &NotFoundError{Entity: "user", ID: leadUserID}
	}

	if inc.Status != store.IncidentSubmitted {
		if err := s.incidents.SetStatusTx(ctx, tx, inc.ID, store.IncidentSubmitted); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	number, err := s.nextCaseNumberTx(ctx, tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	c := &store.Case{
		CaseNumber:         number,
		Title:              inc.Title,
		Description:        inc.Description,
		IncidentID:         &inc.ID,
		Status:             store.CaseOpen,
		LeadInvestigatorID: &lead.ID,
	}
	if _, err := s.cases.CreateTx(ctx, tx, c); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := s.cases.AppendHistoryTx(ctx, tx, &store.CaseStatusHistory{
		CaseID:    c.ID,
		OldStatus: nil,
		NewStatus: store.CaseOpen,
		ChangedAt: s.now(),
		ChangedBy: &lead.ID,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.incidents.SetStatusTx(ctx, tx, inc.ID, store.IncidentEscalated); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := s.audits.AppendTx(ctx, tx, &store.AuditRecord{
		UserID:     &lead.ID,
		Action:     "escalate_incident",
		EntityType: "case",
		EntityID:   strconv.FormatInt(c.ID, 10),
		Details:    fmt.Sprintf("Incident %d escalated to case %s", inc.ID, number),
		CreatedAt:  s.now(),
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Infof("incident %d escalated to case %s by user %d", inc.ID, number, lead.ID)
	}
	return c, nil
}

// ChangeCaseStatus applies one transition of the case state machine. Same
// status is a no-op; a pair outside the transition table fails with
// InvalidTransitionError before any write. The status update and its history
// row are two statements in the same transaction, never a save hook.
func (s *Service) ChangeCaseStatus(ctx context.Context, caseID, userID int64, newStatus store.CaseStatus, reason string) (*store.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.GetTx(ctx, tx, caseID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if c == nil {
		tx.Rollback()
		return nil, &NotFoundError{Entity: "case", ID: caseID}
	}
	if newStatus == c.Status {
		tx.Rollback()
		return c, nil
	}
	if !transitionAllowed(c.Status, newStatus) {
		tx.Rollback()
		return nil, &InvalidTransitionError{From: c.Status, To: newStatus}
	}
	user, err := s.users.GetByIDTx(ctx, tx, userID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if user == nil {
		tx.Rollback()
		return nil, &NotFoundError{Entity: "user", ID: userID}
	}

	old := c.Status
	if err := s.cases.SetStatusTx(ctx, tx, c.ID, newStatus); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := s.cases.AppendHistoryTx(ctx, tx, &store.CaseStatusHistory{
		CaseID:    c.ID,
		OldStatus: &old,
		NewStatus: newStatus,
		ChangedAt: s.now(),
		ChangedBy: &user.ID,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := s.audits.AppendTx(ctx, tx, &store.AuditRecord{
		UserID:     &user.ID,
		Action:     "change_status",
		EntityType: "case",
		EntityID:   strconv.FormatInt(c.ID, 10),
		Details:    fmt.Sprintf("%s -> %s. %s", old, newStatus, reason),
		CreatedAt:  s.now(),
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	c.Status = newStatus
	c.UpdatedAt = s.now()
	return c, nil
}

// CloseCase is sugar for ChangeCaseStatus into closed.
func (s *Service) CloseCase(ctx context.Context, caseID, userID int64, reason string) (*store.Case, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "Closing case"
	}
	return s.ChangeCaseStatus(ctx, caseID, userID, store.CaseClosed, reason)
}

func transitionAllowed(from, to store.CaseStatus) bool {
	for _, next := range caseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AddCasePerson links a person to a case under a role and audits the link in
// the same transaction.
func (s *Service) AddCasePerson(ctx context.Context, caseID, personID int64, role store.CasePersonRole, actorID int64) (*store.CasePerson, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid case person role %q", role)
	}
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Entity: "case", ID: caseID}
	}
	person, err := s.people.Get(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, &NotFoundError{Entity: "person", ID: personID}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	link := &store.CasePerson{CaseID: c.ID, PersonID: person.ID, Role: role}
	if _, err := s.people.LinkToCaseTx(ctx, tx, link); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := s.audits.AppendTx(ctx, tx, &store.AuditRecord{
		UserID:     &actorID,
		Action:     "add_person",
		EntityType: "case",
		EntityID:   strconv.FormatInt(c.ID, 10),
		Details:    fmt.Sprintf("Person %d as %s", person.ID, role),
		CreatedAt:  s.now(),
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	link.FirstName = person.FirstName
	link.LastName = person.LastName
	return link, nil
}

// AddEvidence registers an evidence item on a case. The audit row is an
// explicit statement in the creation transaction, not a listener.
func (s *Service) AddEvidence(ctx context.Context, caseID int64, code, description string, collectedBy int64) (*store.Evidence, error) {
	c, err := s.cases.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Entity: "case", ID: caseID}
	}
	collector, err := s.users.GetByID(ctx, collectedBy)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		return nil, &NotFoundError{Entity: "user", ID: collectedBy}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	ev := &store.Evidence{
		Code:        strings.TrimSpace(code),
		CaseID:      c.ID,
		Description: description,
		CollectedBy: &collector.ID,
	}
	if _, err := s.evidence.CreateTx(ctx, tx, ev); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := s.audits.AppendTx(ctx, tx, &store.AuditRecord{
		UserID:     &collector.ID,
		Action:     "create_evidence",
		EntityType: "evidence",
		EntityID:   strconv.FormatInt(ev.ID, 10),
		Details:    fmt.Sprintf("Code=%s", ev.Code),
		CreatedAt:  s.now(),
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ev, nil
}
