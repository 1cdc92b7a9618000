package store

import (
	"context"
	"database/sql"
	"strings"
)

type PeopleStore interface {
	Create(ctx context.Context, p *Person) (int64, error)
	Get(ctx context.Context, id int64) (*Person, error)
	List(ctx context.Context, search string) ([]Person, error)

	LinkToCaseTx(ctx context.Context, tx *sql.Tx, link *CasePerson) (int64, error)
	ListByCase(ctx context.Context, caseID int64) ([]CasePerson, error)
}

type peopleStore struct {
	db *sql.DB
}

func NewPeopleStore(db *sql.DB) PeopleStore {
	return &peopleStore{db: db}
}

func (s *peopleStore) Create(ctx context.Context, p *Person) (int64, error) {
	now := nowUTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO people(first_name, last_name, date_of_birth, created_at, updated_at)
		VALUES(?,?,?,?,?)`,
		strings.TrimSpace(p.FirstName), strings.TrimSpace(p.LastName), nullableTime(p.DateOfBirth), now, now)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return id, nil
}

func (s *peopleStore) Get(ctx context.Context, id int64) (*Person, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, date_of_birth, created_at, updated_at
		FROM people WHERE id=?`, id)
	var p Person
	var dob sql.NullTime
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &dob, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if dob.Valid {
		v := dob.Time
		p.DateOfBirth = &v
	}
	return &p, nil
}

func (s *peopleStore) List(ctx context.Context, search string) ([]Person, error) {
	query := `SELECT id, first_name, last_name, date_of_birth, created_at, updated_at FROM people`
	var args []any
	if q := strings.ToLower(strings.TrimSpace(search)); q != "" {
		query += ` WHERE LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	query += ` ORDER BY last_name, first_name`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Person
	for rows.Next() {
		var p Person
		var dob sql.NullTime
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &dob, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if dob.Valid {
			v := dob.Time
			p.DateOfBirth = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *peopleStore) LinkToCaseTx(ctx context.Context, tx *sql.Tx, link *CasePerson) (int64, error) {
	now := nowUTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO case_people(case_id, person_id, role, created_at)
		VALUES(?,?,?,?)`,
		link.CaseID, link.PersonID, string(link.Role), now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, _ := res.LastInsertId()
	link.ID = id
	link.CreatedAt = now
	return id, nil
}

func (s *peopleStore) ListByCase(ctx context.Context, caseID int64) ([]CasePerson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cp.id, cp.case_id, cp.person_id, cp.role, p.first_name, p.last_name, cp.created_at
		FROM case_people cp JOIN people p ON p.id = cp.person_id
		WHERE cp.case_id=? ORDER BY cp.id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CasePerson
	for rows.Next() {
		var cp CasePerson
		if err := rows.Scan(&cp.ID, &cp.CaseID, &cp.PersonID, &cp.Role, &cp.FirstName, &cp.LastName, &cp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}
