package auth

import (
	"context"

	"crimetrack/core/store"
	"crimetrack/core/utils"

	"github.com/robfig/cron/v3"
)

const sweepSpec = "@hourly"

// SessionJanitor deletes expired session rows on a schedule. Resolve already
// drops an expired session when its cookie comes back, but sessions that are
// never presented again would otherwise sit in the table forever.
type SessionJanitor struct {
	sessions store.SessionStore
	logger   *utils.Logger
	cron     *cron.Cron
}

func NewSessionJanitor(sessions store.SessionStore, logger *utils.Logger) *SessionJanitor {
	return &SessionJanitor{sessions: sessions, logger: logger}
}

func (j *SessionJanitor) Start(ctx context.Context) error {
	if err := j.sweep(ctx); err != nil {
		return err
	}
	c := cron.New()
	if _, err := c.AddFunc(sweepSpec, func() {
		if err := j.sweep(context.Background()); err != nil && j.logger != nil {
			j.logger.Errorf("session sweep: %v", err)
		}
	}); err != nil {
		return err
	}
	c.Start()
	j.cron = c
	return nil
}

func (j *SessionJanitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *SessionJanitor) sweep(ctx context.Context) error {
	n, err := j.sessions.DeleteExpired(ctx, utils.NowUTC())
	if err != nil {
		return err
	}
	if n > 0 && j.logger != nil {
		j.logger.Infof("removed %d expired sessions", n)
	}
	return nil
}
