package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/desertwitch/nfsup/internal/config"
	"github.com/desertwitch/nfsup/internal/deps"
	"github.com/desertwitch/nfsup/internal/exports"
	"github.com/desertwitch/nfsup/internal/mounter"
	"github.com/desertwitch/nfsup/internal/scan"
	"github.com/desertwitch/nfsup/internal/schema"
	"github.com/desertwitch/nfsup/internal/status"
	"github.com/desertwitch/nfsup/internal/ui"
)

// App wires the workflow phases together. Discovered hosts and exports are
// explicit values passed between the phases, never process-wide state.
type App struct {
	cfg            *config.Config
	depsHandler    *deps.Handler
	scanHandler    *scan.Handler
	exportsHandler *exports.Handler
	mountHandler   *mounter.Handler
	tracker        *status.Tracker
	uiHandler      *ui.Handler
}

// NewApp returns a pointer to a new [App].
func NewApp(cfg *config.Config,
	depsHandler *deps.Handler,
	scanHandler *scan.Handler,
	exportsHandler *exports.Handler,
	mountHandler *mounter.Handler,
	tracker *status.Tracker,
	uiHandler *ui.Handler,
) *App {
	return &App{
		cfg:            cfg,
		depsHandler:    depsHandler,
		scanHandler:    scanHandler,
		exportsHandler: exportsHandler,
		mountHandler:   mountHandler,
		tracker:        tracker,
		uiHandler:      uiHandler,
	}
}

// Launch runs the workflow to completion: dependency ensure, readiness wait
// with discovery, export enumeration and mounting. Any returned error is a
// fatal outcome for the whole run.
func (app *App) Launch(ctx context.Context) error {
	start := time.Now()

	slog.Info("Starting NFS auto-mount run.",
		"subnet", app.cfg.Subnet,
		"port", app.cfg.Port,
		"policy", app.cfg.MountPolicy,
	)

	if err := app.EnsureDeps(ctx); err != nil {
		return app.fail(err)
	}

	hosts, err := app.Discover(ctx)
	if err != nil {
		return app.fail(err)
	}

	found, err := app.Enumerate(ctx, hosts)
	if err != nil {
		return app.fail(err)
	}

	outcomes, err := app.Mount(ctx, found)
	if err != nil {
		return app.fail(err)
	}

	mounted := 0
	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			mounted++
		}
	}

	app.tracker.SetPhase(status.PhaseDone)

	slog.Info("Finished NFS auto-mount run.",
		"mounted", mounted,
		"attempted", len(outcomes),
		"took", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// EnsureDeps guarantees the scanner and the export lister are present.
func (app *App) EnsureDeps(ctx context.Context) error {
	app.tracker.SetPhase(status.PhaseDependencies)

	slog.Info("Ensuring required tools are present.")

	if err := app.depsHandler.EnsureTools(ctx, deps.RequiredTools()); err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	return nil
}

// Discover performs the readiness wait and returns the discovered hosts. In
// fixed mode a single delay precedes one scan; in poll mode discovery is
// retried until a host appears or the wait budget elapses.
func (app *App) Discover(ctx context.Context) ([]schema.Host, error) {
	app.tracker.SetPhase(status.PhaseDiscovery)

	var hosts []schema.Host

	switch app.cfg.WaitMode {
	case config.WaitModeFixed:
		slog.Info("Waiting before scanning.",
			"delay", app.cfg.FixedDelay,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("(app) %w", ctx.Err())
		case <-time.After(app.cfg.FixedDelay):
		}

		found, err := app.scanHandler.Discover(ctx, app.cfg.Subnet, app.cfg.Port)
		if err != nil {
			return nil, fmt.Errorf("(app) %w", err)
		}

		if len(found) == 0 {
			return nil, fmt.Errorf("(app) %w: subnet %s port %d",
				scan.ErrNoServersFound, app.cfg.Subnet, app.cfg.Port)
		}

		hosts = found

	default:
		found, err := app.scanHandler.WaitForHosts(ctx,
			app.cfg.Subnet, app.cfg.Port, app.cfg.PollTimeout, app.cfg.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("(app) %w", err)
		}

		hosts = found
	}

	app.tracker.SetHosts(len(hosts))

	return hosts, nil
}

// Enumerate collects the exports of every discovered host. One unreachable
// host yields no exports but never aborts the run.
func (app *App) Enumerate(ctx context.Context, hosts []schema.Host) ([]schema.Export, error) {
	app.tracker.SetPhase(status.PhaseEnumeration)

	var found []schema.Export

	for _, host := range hosts {
		listed, err := app.exportsHandler.List(ctx, host, app.cfg.SettleDelay)
		if err != nil {
			return nil, fmt.Errorf("(app) %w", err)
		}

		slog.Info("Enumerated exports for host.",
			"host", host,
			"exports", len(listed),
		)

		candidates := 0
		for _, e := range listed {
			if !e.IsRoot() {
				candidates++
			}
		}
		app.tracker.AddExports(candidates)

		found = append(found, listed...)
	}

	return found, nil
}

// Mount attaches the collected exports under the configured policy.
func (app *App) Mount(ctx context.Context, found []schema.Export) ([]schema.MountOutcome, error) {
	app.tracker.SetPhase(status.PhaseMounting)

	var outcomes []schema.MountOutcome
	var err error

	switch app.cfg.MountPolicy {
	case config.PolicyFirst:
		outcomes, err = app.mountHandler.MountFirst(ctx, found)
	default:
		outcomes, err = app.mountHandler.MountAll(ctx, found)
	}

	if err != nil {
		return nil, fmt.Errorf("(app) %w", err)
	}

	return outcomes, nil
}

// LaunchUI starts the command-line user interface.
func (app *App) LaunchUI() error {
	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}

// fail marks the run as failed and emits the single fatal log line
// identifying the cause.
func (app *App) fail(err error) error {
	app.tracker.SetPhase(status.PhaseFailed)

	slog.Error("NFS auto-mount run failed.",
		"err", err,
	)

	return err
}
