package auth

import (
	"context"

	"crimetrack/config"
	"crimetrack/core/store"
	"crimetrack/core/utils"

	"github.com/gofrs/uuid/v5"
)

type contextKey string

// SessionContextKey carries the authenticated *store.SessionRecord through
// request contexts.
const SessionContextKey contextKey = "crimetrack.session"

type SessionManager struct {
	store  store.SessionStore
	cfg    *config.AppConfig
	logger *utils.Logger
}

func NewSessionManager(sessions store.SessionStore, cfg *config.AppConfig, logger *utils.Logger) *SessionManager {
	return &SessionManager{store: sessions, cfg: cfg, logger: logger}
}

func (m *SessionManager) Create(ctx context.Context, user *store.User) (*store.SessionRecord, error) {
	id := uuid.Must(uuid.NewV4()).String()
	csrf, err := utils.RandString(32)
	if err != nil {
		return nil, err
	}
	now := utils.NowUTC()
	rec := &store.SessionRecord{
		ID:         id,
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		CSRFToken:  csrf,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.cfg.EffectiveSessionTTL()),
	}
	if err := m.store.SaveSession(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Resolve returns the live session for id, or nil when missing or expired.
// Expired sessions are removed on sight.
func (m *SessionManager) Resolve(ctx context.Context, id string) (*store.SessionRecord, error) {
	rec, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if utils.NowUTC().After(rec.ExpiresAt) {
		_ = m.store.DeleteSession(ctx, rec.ID)
		return nil, nil
	}
	return rec, nil
}

func (m *SessionManager) Refresh(ctx context.Context, id string) error {
	return m.store.UpdateActivity(ctx, id, utils.NowUTC(), m.cfg.EffectiveSessionTTL())
}

func (m *SessionManager) Delete(ctx context.Context, id string) error {
	return m.store.DeleteSession(ctx, id)
}
