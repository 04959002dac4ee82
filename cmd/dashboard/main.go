package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/velastools/velastools/app/dashboard"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	logger, err := logging.New("dashboard")
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Unable to load config", zap.Error(err))
	}

	app, err := dashboard.Initialize(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Unable to initialize dashboard", zap.Error(err))
	}

	if err := dashboard.NewServer(app, cfg.Addr); err != nil {
		app.Logger.Fatal("Unable to initialize server", zap.Error(err))
	}

	app.Start(ctx)
}
