package appbootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crimetrack/api"
	"crimetrack/config"
	"crimetrack/core/seed"
	"crimetrack/core/store"
	"crimetrack/core/utils"
)

// Run wires the whole application together and blocks until SIGINT/SIGTERM.
func Run(configPath string) error {
	logger := utils.NewLogger()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.ApplyMigrations(ctx, db, cfg.DBDriver, logger); err != nil {
		return err
	}
	comp, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}
	if cfg.SeedDemo {
		if err := seed.Run(ctx, cfg, comp.users, comp.people, comp.incidents, comp.casesSvc, logger); err != nil {
			return err
		}
	}
	for _, w := range comp.workers {
		if err := w.Start(ctx); err != nil {
			return err
		}
	}
	defer func() {
		for _, w := range comp.workers {
			w.Stop()
		}
	}()

	server := api.NewServer(cfg, comp.serverDeps, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
