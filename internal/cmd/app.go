package cmd

import (
	"context"
	"fmt"

	"github.com/hollis-m/relay/internal/config"
	"github.com/hollis-m/relay/internal/endpoint"
	"github.com/hollis-m/relay/internal/engine"
	"github.com/hollis-m/relay/internal/event"
	"github.com/hollis-m/relay/internal/executor"
	"github.com/hollis-m/relay/internal/logging"
	"github.com/hollis-m/relay/internal/plan"
)

// app bundles the wired components every command needs.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	bus      *event.Bus
	registry *executor.Registry
	pool     *endpoint.Pool
}

// newApp loads the configuration and wires the shared components.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	bus := event.NewBus()

	registry, err := buildRegistry(cfg.Executors.Enabled)
	if err != nil {
		return nil, err
	}

	pool := endpoint.NewPool(cfg.Endpoints,
		endpoint.WithBus(bus), endpoint.WithLogger(logger))

	return &app{
		cfg:      cfg,
		logger:   logger,
		bus:      bus,
		registry: registry,
		pool:     pool,
	}, nil
}

// buildRegistry registers the enabled subset of the built-in executors.
func buildRegistry(enabled []string) (*executor.Registry, error) {
	builtins := executor.NewDefaultRegistry()

	registry := executor.NewRegistry()
	for _, tag := range enabled {
		exec, err := builtins.Resolve(tag)
		if err != nil {
			return nil, fmt.Errorf("executor type %q is not built in", tag)
		}
		if err := registry.Register(tag, exec); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// newEngine builds an engine around the given planner.
func (a *app) newEngine(planner engine.Planner) (*engine.Engine, error) {
	return engine.New(engine.Config{
		Planner:        planner,
		Direct:         a.directExecutor(),
		Registry:       a.registry,
		Pool:           a.pool,
		PlanRetries:    a.cfg.Engine.PlanRetries,
		MaxConcurrent:  a.cfg.Engine.MaxConcurrent,
		AcquireTimeout: a.cfg.Pool.AcquireTimeout(),
		MinTasks:       a.cfg.Engine.MinTasks,
		MaxTasks:       a.cfg.Engine.MaxTasks,
	}, engine.WithBus(a.bus), engine.WithLogger(a.logger))
}

// directExecutor adapts a registered executor into the single-shot
// fallback. Echo is preferred: the CLI's requests name plan files, which
// are not shell commands.
func (a *app) directExecutor() engine.DirectExecutor {
	for _, tag := range []string{executor.TypeEcho, executor.TypeShell} {
		exec, err := a.registry.Resolve(tag)
		if err != nil {
			continue
		}
		return engine.DirectFunc(func(ctx context.Context, request string) (string, error) {
			return exec.Execute(ctx, executor.Request{
				TaskID:      "direct",
				Description: request,
			})
		})
	}
	return nil
}

// filePlanner serves a plan from disk. Retries re-read the file, so a plan
// corrected between attempts is picked up; the rejection feedback itself
// goes to the log.
type filePlanner struct {
	path   string
	logger *logging.Logger
}

// Plan implements engine.Planner.
func (f filePlanner) Plan(_ context.Context, _ string, feedback string) (*plan.Plan, error) {
	if feedback != "" {
		f.logger.Warn("previous plan attempt rejected", "file", f.path, "feedback", feedback)
	}
	return plan.ParseFile(f.path)
}
