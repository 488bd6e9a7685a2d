package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookgo/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studypilot/internal/backend"
	"studypilot/internal/logging"
	"studypilot/internal/model"
	"studypilot/internal/orchestrator"
	"studypilot/internal/settings"
	"studypilot/internal/statestore"
	"studypilot/internal/subject"
)

// app is the per-invocation wiring: settings, logger, state store,
// backend client and the metrics registry shared by controllers.
type app struct {
	env      *cmdEnv
	settings settings.Settings
	logger   *zap.Logger
	flushLog func() error
	store    statestore.Store
	subjects *subject.Resolver
	client   *backend.Client
	registry *prometheus.Registry
	metrics  *orchestrator.Metrics
	clock    clock.Clock
}

func openApp(env *cmdEnv) (*app, error) {
	s, err := settings.Load(env.opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	logger, flush := logging.New(logging.Options{
		File:    s.LogFile,
		Verbose: env.opts.verbose,
		Console: env.io.errOut,
	})

	store, err := statestore.Open(s.StoreOptions())
	if err != nil {
		_ = flush()
		return nil, fmt.Errorf("open state store: %w", err)
	}
	client, err := backend.New(backend.Options{
		BaseURL: s.APIURL,
		Timeout: s.RequestTimeout(),
		Logger:  logger,
	})
	if err != nil {
		_ = store.Close()
		_ = flush()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	return &app{
		env:      env,
		settings: s,
		logger:   logger,
		flushLog: flush,
		store:    store,
		subjects: subject.NewResolver(store),
		client:   client,
		registry: reg,
		metrics:  orchestrator.NewMetrics(reg),
		clock:    clock.New(),
	}, nil
}

func (a *app) Close() error {
	var errs []error
	if path := a.settings.MetricsFile; path != "" {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			a.logger.Warn("metrics export failed", zap.String("path", path), zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.flushLog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// withApp opens the app for one command run and closes it afterwards.
func withApp(cmd *cobra.Command, env *cmdEnv, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(env)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, a); err != nil {
		a.logger.Error("command failed", zap.String("command", cmd.CommandPath()), zap.Error(err))
		return err
	}
	if cmd.Annotations[annotationCreditsHint] == "true" && !env.opts.jsonOut {
		a.maybePrintCreditsHint(ctx)
	}
	return nil
}

func (a *app) newController(onChange func(model.RetrySession)) (*orchestrator.Controller, error) {
	return orchestrator.New(orchestrator.Options{
		Fetcher:     a.client,
		Resolver:    a.subjects,
		Clock:       a.clock,
		RetryDelay:  a.settings.RetryDelay(),
		MaxAttempts: a.settings.MaxAttempts,
		Logger:      a.logger,
		Metrics:     a.metrics,
		OnChange:    onChange,
	})
}
