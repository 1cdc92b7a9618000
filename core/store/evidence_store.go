package store

import (
	"context"
	"database/sql"
	"strings"
)

type EvidenceStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, ev *Evidence) (int64, error)
	Get(ctx context.Context, id int64) (*Evidence, error)
	ListByCase(ctx context.Context, caseID int64) ([]Evidence, error)
}

type evidenceStore struct {
	db *sql.DB
}

func NewEvidenceStore(db *sql.DB) EvidenceStore {
	return &evidenceStore{db: db}
}

func (s *evidenceStore) CreateTx(ctx context.Context, tx *sql.Tx, ev *Evidence) (int64, error) {
	now := nowUTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO evidence(code, case_id, description, collected_by, created_at, updated_at)
		VALUES(?,?,?,?,?,?)`,
		strings.TrimSpace(ev.Code), ev.CaseID, ev.Description, nullableID(ev.CollectedBy), now, now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, _ := res.LastInsertId()
	ev.ID = id
	ev.CreatedAt = now
	ev.UpdatedAt = now
	return id, nil
}

func scanEvidence(row interface{ Scan(dest ...any) error }) (*Evidence, error) {
	var ev Evidence
	var collectedBy sql.NullInt64
	if err := row.Scan(&ev.ID, &ev.Code, &ev.CaseID, &ev.Description, &collectedBy, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if collectedBy.Valid {
		v := collectedBy.Int64
		ev.CollectedBy = &v
	}
	return &ev, nil
}

func (s *evidenceStore) Get(ctx context.Context, id int64) (*Evidence, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, code, case_id, description, collected_by, created_at, updated_at
		FROM evidence WHERE id=?`, id)
	return scanEvidence(row)
}

func (s *evidenceStore) ListByCase(ctx context.Context, caseID int64) ([]Evidence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, case_id, description, collected_by, created_at, updated_at
		FROM evidence WHERE case_id=? ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Evidence
	for rows.Next() {
		ev, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}
