package store

import (
	"errors"
	"time"
)

// ErrConflict is returned when a write violates a uniqueness constraint
// (duplicate case number, duplicate evidence code, duplicate link triple).
var ErrConflict = errors.New("conflict")

type IncidentStatus string

const (
	IncidentDraft     IncidentStatus = "draft"
	IncidentSubmitted IncidentStatus = "submitted"
	IncidentEscalated IncidentStatus = "escalated"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentDraft, IncidentSubmitted, IncidentEscalated:
		return true
	}
	return false
}

type CaseStatus string

const (
	CaseOpen          CaseStatus = "open"
	CaseInvestigating CaseStatus = "investigating"
	CaseClosed        CaseStatus = "closed"
	CaseArchived      CaseStatus = "archived"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseOpen, CaseInvestigating, CaseClosed, CaseArchived:
		return true
	}
	return false
}

type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RoleOfficer      UserRole = "officer"
	RoleInvestigator UserRole = "investigator"
	RoleViewer       UserRole = "viewer"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficer, RoleInvestigator, RoleViewer:
		return true
	}
	return false
}

type CasePersonRole string

const (
	PersonSuspect CasePersonRole = "suspect"
	PersonVictim  CasePersonRole = "victim"
	PersonWitness CasePersonRole = "witness"
)

func (r CasePersonRole) Valid() bool {
	switch r {
	case PersonSuspect, PersonVictim, PersonWitness:
		return true
	}
	return false
}

type AssignmentRole string

const (
	AssignLead         AssignmentRole = "lead"
	AssignInvestigator AssignmentRole = "investigator"
	AssignOfficer      AssignmentRole = "officer"
)

func (r AssignmentRole) Valid() bool {
	switch r {
	case AssignLead, AssignInvestigator, AssignOfficer:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Incident struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      IncidentStatus `json:"status"`
	ReportedBy  *int64         `json:"reported_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Case struct {
	ID                 int64      `json:"id"`
	CaseNumber         string     `json:"case_number"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	IncidentID         *int64     `json:"incident_id,omitempty"`
	Status             CaseStatus `json:"status"`
	LeadInvestigatorID *int64     `json:"lead_investigator_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type Person struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CasePerson struct {
	ID        int64          `json:"id"`
	CaseID    int64          `json:"case_id"`
	PersonID  int64          `json:"person_id"`
	Role      CasePersonRole `json:"role"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type Evidence struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	CaseID      int64     `json:"case_id"`
	Description string    `json:"description"`
	CollectedBy *int64    `json:"collected_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CaseStatusHistory struct {
	ID        int64       `json:"id"`
	CaseID    int64       `json:"case_id"`
	OldStatus *CaseStatus `json:"old_status,omitempty"`
	NewStatus CaseStatus  `json:"new_status"`
	ChangedAt time.Time   `json:"changed_at"`
	ChangedBy *int64      `json:"changed_by,omitempty"`
}

type CaseAssignment struct {
	ID        int64          `json:"id"`
	CaseID    int64          `json:"case_id"`
	UserID    int64          `json:"user_id"`
	Role      AssignmentRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

type AuditRecord struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}
