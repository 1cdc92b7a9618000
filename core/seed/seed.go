package seed

import (
	"context"
	"fmt"

	"crimetrack/config"
	"crimetrack/core/auth"
	"crimetrack/core/cases"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

type demoUser struct {
	username string
	email    string
	role     store.UserRole
	password string
}

var demoUsers = []demoUser{
	{"admin", "admin@example.com", store.RoleAdmin, "admin123"},
	{"officer.oneil", "oneil@example.com", store.RoleOfficer, "officer123"},
	{"inv.santos", "santos@example.com", store.RoleInvestigator, "investigator123"},
	{"viewer.webb", "webb@example.com", store.RoleViewer, "viewer123"},
}

var demoPeople = []struct{ first, last string }{
	{"Marcus", "Hale"},
	{"Dana", "Kovacs"},
	{"Priya", "Natarajan"},
	{"Tomas", "Lindgren"},
	{"Ruth", "Okafor"},
	{"Sergei", "Melnik"},
}

var demoIncidents = []struct{ title, description string }{
	{"Break-in at Harbor St warehouse", "Forced rear door, storage units opened, inventory missing."},
	{"Vehicle theft on 5th Avenue", "Grey sedan taken from monitored parking lot overnight."},
	{"Assault outside Riverside bar", "Altercation reported by door staff around closing time."},
	{"Vandalism at Lincoln school", "Windows broken on the ground floor, paint on facade."},
	{"Fraud report from local retailer", "Series of card chargebacks traced to one terminal."},
}

// Run populates an empty database with demo users, people, incidents and a
// couple of escalated cases with evidence, driving the lifecycle service the
// same way API callers do. A non-empty users table skips seeding.
func Run(ctx context.Context, cfg *config.AppConfig, users store.UsersStore, people store.PeopleStore, incidents store.IncidentsStore, svc *cases.Service, logger *utils.Logger) error {
	existing, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	byRole := map[store.UserRole]*store.User{}
	for _, du := range demoUsers {
		ph := auth.MustHashPassword(du.password, cfg.Pepper)
		u := &store.User{
			Username:     du.username,
			Email:        du.email,
			Role:         du.role,
			PasswordHash: ph.Hash,
			Salt:         ph.Salt,
			Active:       true,
		}
		if _, err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", du.username, err)
		}
		byRole[du.role] = u
	}

	var personIDs []int64
	for _, dp := range demoPeople {
		p := &store.Person{FirstName: dp.first, LastName: dp.last}
		id, err := people.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("seed person: %w", err)
		}
		personIDs = append(personIDs, id)
	}

	officer := byRole[store.RoleOfficer]
	investigator := byRole[store.RoleInvestigator]
	var incidentIDs []int64
	for _, di := range demoIncidents {
		inc := &store.Incident{
			Title:       di.title,
			Description: di.description,
			Status:      store.IncidentSubmitted,
			ReportedBy:  &officer.ID,
		}
		id, err := incidents.Create(ctx, inc)
		if err != nil {
			return fmt.Errorf("seed incident: %w", err)
		}
		incidentIDs = append(incidentIDs, id)
	}

	// Escalate the first two incidents and flesh out the resulting cases.
	for i := 0; i < 2 && i < len(incidentIDs); i++ {
		c, err := svc.EscalateIncident(ctx, incidentIDs[i], investigator.ID)
		if err != nil {
			return fmt.Errorf("seed escalation: %w", err)
		}
		if len(personIDs) > i*2+1 {
			if _, err := svc.AddCasePerson(ctx, c.ID, personIDs[i*2], store.PersonSuspect, investigator.ID); err != nil {
				return err
			}
			if _, err := svc.AddCasePerson(ctx, c.ID, personIDs[i*2+1], store.PersonWitness, investigator.ID); err != nil {
				return err
			}
		}
		code := fmt.Sprintf("EV-%s-001", c.CaseNumber)
		if _, err := svc.AddEvidence(ctx, c.ID, code, "Initial scene photographs", investigator.ID); err != nil {
			return err
		}
	}

	if logger != nil {
		logger.Infof("demo data seeded: %d users, %d people, %d incidents", len(demoUsers), len(demoPeople), len(demoIncidents))
	}
	return nil
}
