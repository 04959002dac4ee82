package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/velastools/velastools/app/updater"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	open := func(ctx context.Context) (*config.Config, Updater, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		logger, err := logging.New("updater")
		if err != nil {
			return nil, nil, err
		}
		app, err := updater.Initialize(ctx, cfg, logger, "updater")
		if err != nil {
			return nil, nil, err
		}
		return cfg, app, nil
	}

	err := newRootCmd(open).ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
