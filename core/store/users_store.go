package store

import (
	"context"
	"database/sql"
	"strings"
)

type UsersStore interface {
	Create(ctx context.Context, u *User) (int64, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int64, error)
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, username, email, role, password_hash, salt, active, created_at, updated_at`

func (s *usersStore) Create(ctx context.Context, u *User) (int64, error) {
	if u.Role == "" {
		u.Role = RoleViewer
	}
	now := nowUTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(username, email, role, password_hash, salt, active, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		strings.TrimSpace(u.Username), strings.TrimSpace(u.Email), string(u.Role), u.PasswordHash, u.Salt, boolToInt(u.Active), now, now)
	if err != nil {
		return 0, translateConstraint(err)
	}
	id, _ := res.LastInsertId()
	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return id, nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	var active int
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.PasswordHash, &u.Salt, &active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.Active = active != 0
	return &u, nil
}

func (s *usersStore) GetByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *usersStore) GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*User, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *usersStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`, strings.TrimSpace(username))
	return scanUser(row)
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *usersStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
