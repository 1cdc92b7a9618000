package store

import (
	"context"
	"database/sql"
	"strings"
)

type CaseFilter struct {
	Status CaseStatus
	Limit  int
	Offset int
}

type CasesStore interface {
	Get(ctx context.Context, id int64) (*Case, error)
	GetTx(ctx context.Context, tx *sql.Tx, id int64) (*Case, error)
	GetByIncidentTx(ctx context.Context, tx *sql.Tx, incidentID int64) (*Case, error)
	CreateTx(ctx context.Context, tx *sql.Tx, c *Case) (int64, error)
	// MaxCaseNumberTx returns the lexicographically largest case number with
	// the given prefix, or "" when none exists.
	MaxCaseNumberTx(ctx context.Context, tx *sql.Tx, prefix string) (string, error)
	SetStatusTx(ctx context.Context, tx *sql.Tx, id int64, status CaseStatus) error
	UpdateDetails(ctx context.Context, id int64, title, description string) (*Case, error)
	List(ctx context.Context, filter CaseFilter) ([]Case, error)

	AppendHistoryTx(ctx context.Context, tx *sql.Tx, h *CaseStatusHistory) (int64, error)
	ListHistory(ctx context.Context, caseID int64) ([]CaseStatusHistory, error)

	AddAssignment(ctx context.Context, a *CaseAssignment) (int64, error)
	ListAssignments(ctx context.Context, caseID int64) ([]CaseAssignment, error)
	HasAssignment(ctx context.Context, caseID, userID int64) (bool, error)
}

type casesStore struct {
	db *sql.DB
}

func NewCasesStore(db *sql.DB) CasesStore {
	return &casesStore{db: db}
}

const caseColumns = `id, case_number, title, description, incident_id, status, lead_investigator_id, created_at, updated_at`

func scanCase(row interface{ Scan(dest ...any) error }) (*Case, error) {
	var c Case
	var incidentID, leadID sql.NullInt64
	if err := row.Scan(&c.ID, &c.CaseNumber, &c.Title, &c.Description, &incidentID, &c.Status, &leadID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if incidentID.Valid {
		v := incidentID.Int64
		c.IncidentID = &v
	}
	if leadID.Valid {
		v := leadID.Int64
		c.LeadInvestigatorID = &v
	}
	return &c, nil
}

func (s *casesStore) Get(ctx context.Context, id int64) (*Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=?`, id)
	return scanCase(row)
}

func (s *casesStore) GetTx(ctx context.Context, tx *sql.Tx, id int64) (*Case, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=?`, id)
	return scanCase(row)
}

func (s *casesStore) GetByIncidentTx(ctx context.Context, tx *sql.Tx, incidentID int64) (*Case, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE incident_id=?`, incidentID)
	return scanCase(row)
}

func (s *casesStore) CreateTx(ctx context.Context, tx *sql.Tx, c *Case) (int64, error) {
	if c.Status == "" {
		c.Status = CaseOpen
	}
	now := nowUTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO cases(case_number, title, description, incident_id, status, lead_investigator_id, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		c.CaseNumber, strings.TrimSpace(c.Title), c.Description, nullableID(c.IncidentID), string(c.Status), nullableID(c.LeadInvestigatorID), now, now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, _ := res.LastInsertId()
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return id, nil
}

func (s *casesStore) MaxCaseNumberTx(ctx context.Context, tx *sql.Tx, prefix string) (string, error) {
	var max sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT MAX(case_number) FROM cases WHERE case_number LIKE ?`, prefix+"%").Scan(&max)
	if err != nil {
		return "", err
	}
	if !max.Valid {
		return "", nil
	}
	return max.String, nil
}

func (s *casesStore) SetStatusTx(ctx context.Context, tx *sql.Tx, id int64, status CaseStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE cases SET status=?, updated_at=? WHERE id=?`,
		string(status), nowUTC(), id)
	return err
}

func (s *casesStore) UpdateDetails(ctx context.Context, id int64, title, description string) (*Case, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE cases SET title=?, description=?, updated_at=? WHERE id=?`,
		strings.TrimSpace(title), description, nowUTC(), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, nil
	}
	return s.Get(ctx, id)
}

func (s *casesStore) List(ctx context.Context, filter CaseFilter) ([]Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status=?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *casesStore) AppendHistoryTx(ctx context.Context, tx *sql.Tx, h *CaseStatusHistory) (int64, error) {
	if h.ChangedAt.IsZero() {
		h.ChangedAt = nowUTC()
	}
	var old any
	if h.OldStatus != nil {
		old = string(*h.OldStatus)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO case_status_history(case_id, old_status, new_status, changed_at, changed_by)
		VALUES(?,?,?,?,?)`,
		h.CaseID, old, string(h.NewStatus), h.ChangedAt, nullableID(h.ChangedBy))
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	h.ID = id
	return id, nil
}

func (s *casesStore) ListHistory(ctx context.Context, caseID int64) ([]CaseStatusHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, old_status, new_status, changed_at, changed_by
		FROM case_status_history WHERE case_id=? ORDER BY changed_at DESC, id DESC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CaseStatusHistory
	for rows.Next() {
		var h CaseStatusHistory
		var old sql.NullString
		var changedBy sql.NullInt64
		if err := rows.Scan(&h.ID, &h.CaseID, &old, &h.NewStatus, &h.ChangedAt, &changedBy); err != nil {
			return nil, err
		}
		if old.Valid {
			v := CaseStatus(old.String)
			h.OldStatus = &v
		}
		if changedBy.Valid {
			v := changedBy.Int64
			h.ChangedBy = &v
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *casesStore) AddAssignment(ctx context.Context, a *CaseAssignment) (int64, error) {
	now := nowUTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO case_assignments(case_id, user_id, role, created_at)
		VALUES(?,?,?,?)`,
		a.CaseID, a.UserID, string(a.Role), now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, _ := res.LastInsertId()
	a.ID = id
	a.CreatedAt = now
	return id, nil
}

func (s *casesStore) ListAssignments(ctx context.Context, caseID int64) ([]CaseAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, user_id, role, created_at
		FROM case_assignments WHERE case_id=? ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CaseAssignment
	for rows.Next() {
		var a CaseAssignment
		if err := rows.Scan(&a.ID, &a.CaseID, &a.UserID, &a.Role, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *casesStore) HasAssignment(ctx context.Context, caseID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM case_assignments WHERE case_id=? AND user_id=?`,
		caseID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
