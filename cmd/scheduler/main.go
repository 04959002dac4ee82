package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/velastools/velastools/app/scheduler"
	"github.com/velastools/velastools/app/updater"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/logging"
	"github.com/velastools/velastools/pkg/metrics"
	"github.com/velastools/velastools/pkg/temporal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	logger, err := logging.New("scheduler")
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Unable to load config", zap.Error(err))
	}
	var (
		d      scheduler.Dispatcher
		health metrics.HealthFunc
	)
	if cfg.TemporalEnabled {
		tc, err := temporal.NewClient(ctx, logger, cfg.TaskQueue)
		if err != nil {
			logger.Fatal("Unable to connect to Temporal", zap.Error(err))
		}
		defer tc.Close()
		d = &scheduler.TemporalDispatcher{Client: tc.TClient, TaskQueue: tc.TaskQueue, Logger: logger}
		health = func(ctx context.Context) error {
			_, err := tc.Health(ctx)
			return err
		}
	} else {
		app, err := updater.Initialize(ctx, cfg, logger, "updater")
		if err != nil {
			logger.Fatal("Unable to initialize updater", zap.Error(err))
		}
		defer app.Close()
		d = &scheduler.InProcess{Updater: app, Logger: logger}
		health = app.Store.Ping
	}
	metrics.Serve(ctx, cfg.MetricsAddr, logger, health)

	s, err := scheduler.New(ctx, cfg, logger, d)
	if err != nil {
		logger.Fatal("Unable to set up scheduler", zap.Error(err))
	}

	s.Start(ctx)
}
