package reports

import (
	"context"

	"crimetrack/config"
	"crimetrack/core/store"
	"crimetrack/core/utils"

	"github.com/robfig/cron/v3"
)

// Refresher periodically rebuilds the case_status_counts table so the
// counts report stays cheap to serve. The table is also rebuilt once at
// startup.
type Refresher struct {
	cfg     config.ReportsConfig
	reports store.ReportsStore
	logger  *utils.Logger
	cron    *cron.Cron
}

func NewRefresher(cfg config.ReportsConfig, reports store.ReportsStore, logger *utils.Logger) *Refresher {
	return &Refresher{cfg: cfg, reports: reports, logger: logger}
}

func (r *Refresher) Start(ctx context.Context) error {
	if err := r.refresh(ctx); err != nil {
		return err
	}
	if !r.cfg.RefreshEnabled {
		return nil
	}
	spec := r.cfg.RefreshSpec
	if spec == "" {
		spec = "@every 5m"
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := r.refresh(context.Background()); err != nil && r.logger != nil {
			r.logger.Errorf("case status counts refresh: %v", err)
		}
	}); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	if r.logger != nil {
		r.logger.Infof("case status counts refresher scheduled (%s)", spec)
	}
	return nil
}

func (r *Refresher) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Refresher) refresh(ctx context.Context) error {
	return r.reports.RefreshStatusCounts(ctx)
}
