package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/velastools/velastools/app/updater"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/logging"
	"github.com/velastools/velastools/pkg/metrics"
	"github.com/velastools/velastools/pkg/temporal"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	logger, err := logging.New("worker")
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Unable to load config", zap.Error(err))
	}
	app, err := updater.Initialize(ctx, cfg, logger, "worker")
	if err != nil {
		logger.Fatal("Unable to initialize updater", zap.Error(err))
	}
	defer app.Close()

	tc, err := temporal.NewClient(ctx, logger, cfg.TaskQueue)
	if err != nil {
		logger.Fatal("Unable to connect to Temporal", zap.Error(err))
	}
	defer tc.Close()

	metrics.Serve(ctx, cfg.MetricsAddr, logger, func(ctx context.Context) error {
		if err := app.Store.Ping(ctx); err != nil {
			return err
		}
		_, err := tc.Health(ctx)
		return err
	})

	wkr := app.NewWorker(tc)
	if err := wkr.Start(); err != nil {
		logger.Fatal("Unable to start worker", zap.Error(err))
	}
	logger.Info("Worker started", zap.String("task_queue", tc.TaskQueue))

	<-ctx.Done()
	wkr.Stop()
	logger.Info("Worker stopped")
}
