package store

import (
	"context"
	"database/sql"
	"time"
)

type CaseSummaryRow struct {
	CaseID        int64      `json:"case_id"`
	CaseNumber    string     `json:"case_number"`
	Status        CaseStatus `json:"status"`
	EvidenceCount int64      `json:"evidence_count"`
	PeopleCount   int64      `json:"people_count"`
}

type StatusCount struct {
	Status      CaseStatus `json:"status"`
	Count       int64      `json:"count"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

type ReportsStore interface {
	// CaseSummary reads the view_case_summary reporting view on demand.
	CaseSummary(ctx context.Context) ([]CaseSummaryRow, error)
	StatusCounts(ctx context.Context) ([]StatusCount, error)
	// RefreshStatusCounts rebuilds the case_status_counts table from the
	// cases table in one transaction.
	RefreshStatusCounts(ctx context.Context) error
}

type reportsStore struct {
	db *sql.DB
}

func NewReportsStore(db *sql.DB) ReportsStore {
	return &reportsStore{db: db}
}

func (s *reportsStore) CaseSummary(ctx context.Context) ([]CaseSummaryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT case_id, case_number, status, evidence_count, people_count
		FROM view_case_summary ORDER BY case_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CaseSummaryRow
	for rows.Next() {
		var r CaseSummaryRow
		if err := rows.Scan(&r.CaseID, &r.CaseNumber, &r.Status, &r.EvidenceCount, &r.PeopleCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *reportsStore) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, count, refreshed_at FROM case_status_counts ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count, &c.RefreshedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *reportsStore) RefreshStatusCounts(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM case_status_counts`); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO case_status_counts(status, count, refreshed_at)
		SELECT status, COUNT(1), ? FROM cases GROUP BY status`, nowUTC()); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
