package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

type AuditFilter struct {
	Action     string
	EntityType string
	UserID     int64
	Since      time.Time
	Limit      int
}

// AuditStore is append-only; records are never updated or deleted.
type AuditStore interface {
	Append(ctx context.Context, rec *AuditRecord) (int64, error)
	AppendTx(ctx context.Context, tx *sql.Tx, rec *AuditRecord) (int64, error)
	List(ctx context.Context, filter AuditFilter) ([]AuditRecord, error)
}

type auditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) AuditStore {
	return &auditStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func appendAudit(ctx context.Context, ex execer, rec *AuditRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = nowUTC()
	}
	res, err := ex.ExecContext(ctx, `
		INSERT INTO audit_log(user_id, action, entity_type, entity_id, details, created_at)
		VALUES(?,?,?,?,?,?)`,
		nullableID(rec.UserID), rec.Action, rec.EntityType, rec.EntityID, rec.Details, rec.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	rec.ID = id
	return id, nil
}

func (s *auditStore) Append(ctx context.Context, rec *AuditRecord) (int64, error) {
	return appendAudit(ctx, s.db, rec)
}

func (s *auditStore) AppendTx(ctx context.Context, tx *sql.Tx, rec *AuditRecord) (int64, error) {
	return appendAudit(ctx, tx, rec)
}

func (s *auditStore) List(ctx context.Context, filter AuditFilter) ([]AuditRecord, error) {
	query := `SELECT id, user_id, action, entity_type, entity_id, details, created_at FROM audit_log`
	var conds []string
	var args []any
	if a := strings.TrimSpace(filter.Action); a != "" {
		conds = append(conds, `action=?`)
		args = append(args, a)
	}
	if et := strings.TrimSpace(filter.EntityType); et != "" {
		conds = append(conds, `entity_type=?`)
		args = append(args, et)
	}
	if filter.UserID > 0 {
		conds = append(conds, `user_id=?`)
		args = append(args, filter.UserID)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, `created_at >= ?`)
		args = append(args, filter.Since)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	if limit > 5000 {
		limit = 5000
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var userID sql.NullInt64
		if err := rows.Scan(&rec.ID, &userID, &rec.Action, &rec.EntityType, &rec.EntityID, &rec.Details, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := userID.Int64
			rec.UserID = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
