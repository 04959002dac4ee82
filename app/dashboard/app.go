package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/velastools/velastools/app/dashboard/types"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/db/postgres"
	"github.com/velastools/velastools/pkg/db/postgres/ledger"
	"github.com/velastools/velastools/pkg/redis"
)

// Initialize connects the dashboard to Postgres and, when enabled, the Redis table cache.
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*types.App, error) {
	store, err := ledger.New(ctx, logger, cfg.PostgresURL, postgres.GetPoolConfigForComponent("dashboard"))
	if err != nil {
		return nil, err
	}

	app := &types.App{
		Store:  store,
		Logger: logger,
	}

	// Cache failures are not fatal.
	if cfg.RedisEnabled {
		rc, err := redis.NewClient(ctx, logger, cfg.CacheTTL)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - table cache disabled", zap.Error(err))
		} else {
			logger.Info("Redis table cache enabled", zap.Duration("ttl", cfg.CacheTTL))
			app.Cache = rc
		}
	} else {
		logger.Info("Redis disabled - tables are read directly from Postgres")
	}

	return app, nil
}
