package store

import (
	"context"
	"database/sql"
	"strings"
)

type IncidentFilter struct {
	Search string
	Status IncidentStatus
	Limit  int
	Offset int
}

type IncidentsStore interface {
	Create(ctx context.Context, inc *Incident) (int64, error)
	Get(ctx context.Context, id int64) (*Incident, error)
	GetTx(ctx context.Context, tx *sql.Tx, id int64) (*Incident, error)
	SetStatusTx(ctx context.Context, tx *sql.Tx, id int64, status IncidentStatus) error
	List(ctx context.Context, filter IncidentFilter) ([]Incident, error)
}

type incidentsStore struct {
	db *sql.DB
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `id, title, description, status, reported_by, created_at, updated_at`

func (s *incidentsStore) Create(ctx context.Context, inc *Incident) (int64, error) {
	if inc.Status == "" {
		inc.Status = IncidentDraft
	}
	now := nowUTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents(title, description, status, reported_by, created_at, updated_at)
		VALUES(?,?,?,?,?,?)`,
		strings.TrimSpace(inc.Title), inc.Description, string(inc.Status), nullableID(inc.ReportedBy), now, now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, _ := res.LastInsertId()
	inc.ID = id
	inc.CreatedAt = now
	inc.UpdatedAt = now
	return id, nil
}

func scanIncident(row interface{ Scan(dest ...any) error }) (*Incident, error) {
	var inc Incident
	var reportedBy sql.NullInt64
	if err := row.Scan(&inc.ID, &inc.Title, &inc.Description, &inc.Status, &reportedBy, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if reportedBy.Valid {
		v := reportedBy.Int64
		inc.ReportedBy = &v
	}
	return &inc, nil
}

func (s *incidentsStore) Get(ctx context.Context, id int64) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	return scanIncident(row)
}

func (s *incidentsStore) GetTx(ctx context.Context, tx *sql.Tx, id int64) (*Incident, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	return scanIncident(row)
}

func (s *incidentsStore) SetStatusTx(ctx context.Context, tx *sql.Tx, id int64, status IncidentStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE incidents SET status=?, updated_at=? WHERE id=?`,
		string(status), nowUTC(), id)
	return err
}

func (s *incidentsStore) List(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	var conds []string
	var args []any
	if q := strings.TrimSpace(filter.Search); q != "" {
		conds = append(conds, `LOWER(title) LIKE ?`)
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	if filter.Status != "" {
		conds = append(conds, `status=?`)
		args = append(args, string(filter.Status))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
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
	var out []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inc)
	}
	return out, rows.Err()
}
