package updater

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/worker"
	temporalworkflow "go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/velastools/velastools/app/updater/activity"
	"github.com/velastools/velastools/app/updater/types"
	"github.com/velastools/velastools/app/updater/workflow"
	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/db"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/db/postgres"
	"github.com/velastools/velastools/pkg/db/postgres/ledger"
	"github.com/velastools/velastools/pkg/grabber"
	"github.com/velastools/velastools/pkg/redis"
	"github.com/velastools/velastools/pkg/rpc"
	"github.com/velastools/velastools/pkg/temporal"
)

// App wires the reconcile activities to their backing services. The CLI and the scheduler
// call the passes in-process; the worker registers them with Temporal.
type App struct {
	Config          *config.Config
	Logger          *zap.Logger
	Store           db.LedgerStore
	Redis           *redis.Client
	ActivityContext *activity.Context
}

// Initialize connects to Postgres (and Redis when enabled) and builds the activity context.
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger, component string) (*App, error) {
	store, err := ledger.New(ctx, logger, cfg.PostgresURL, postgres.GetPoolConfigForComponent(component))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize ledger database: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, Store: store}
	app.ActivityContext = &activity.Context{
		Logger:      logger,
		Store:       store,
		RPCFactory:  rpc.NewHTTPFactory(rpc.Opts{RPS: cfg.RPCRateLimit, BreakerFailures: 3, BreakerCooldown: 30 * time.Second}),
		Endpoints:   cfg.Endpoints(),
		Grabber:     grabber.New(cfg.NodeBinary, cfg.GrabberTimeout, logger),
		Parallelism: cfg.UpdaterParallelism,
	}

	if cfg.RedisEnabled {
		rc, err := redis.NewClient(ctx, logger, cfg.CacheTTL)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		app.Redis = rc
		app.ActivityContext.Cache = rc
	}

	return app, nil
}

// UpdateCredits reconciles credits on each cluster in order, stopping at the first failure.
func (a *App) UpdateCredits(ctx context.Context, clusters []cluster.Cluster) ([]types.ReconcileOutput, error) {
	outs := make([]types.ReconcileOutput, 0, len(clusters))
	for _, cl := range clusters {
		a.Logger.Info("Update credits", zap.String("cluster", cl.String()))
		out, err := a.ActivityContext.ReconcileCredits(ctx, types.ReconcileInput{Cluster: cl})
		if err != nil {
			return outs, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// UpdateRewards reconciles rewards on each cluster in order, stopping at the first failure.
func (a *App) UpdateRewards(ctx context.Context, clusters []cluster.Cluster, numEpochs int) ([]types.ReconcileOutput, error) {
	outs := make([]types.ReconcileOutput, 0, len(clusters))
	for _, cl := range clusters {
		a.Logger.Info("Update rewards",
			zap.String("cluster", cl.String()),
			zap.Int("num_epochs", grabber.ClampEpochs(numEpochs)))
		out, err := a.ActivityContext.ReconcileRewards(ctx, types.ReconcileInput{Cluster: cl, NumEpochs: numEpochs})
		if err != nil {
			return outs, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// EpochInfo asks the cluster's endpoint for its current epoch.
func (a *App) EpochInfo(ctx context.Context, cl cluster.Cluster) (rpc.EpochInfo, error) {
	ep, err := a.ActivityContext.ClusterEndpoint(cl)
	if err != nil {
		return rpc.EpochInfo{}, err
	}
	return a.ActivityContext.RPCFactory.NewClient([]string{ep}).GetEpochInfo(ctx)
}

// ClusterNodes lists the gossip peers of cl as reported by its RPC endpoint.
func (a *App) ClusterNodes(ctx context.Context, cl cluster.Cluster) ([]rpc.ClusterNode, error) {
	ep, err := a.ActivityContext.ClusterEndpoint(cl)
	if err != nil {
		return nil, err
	}
	return a.ActivityContext.RPCFactory.NewClient([]string{ep}).GetClusterNodes(ctx)
}

// Balance returns the lamports held by account on cl.
func (a *App) Balance(ctx context.Context, cl cluster.Cluster, account string) (uint64, error) {
	ep, err := a.ActivityContext.ClusterEndpoint(cl)
	if err != nil {
		return 0, err
	}
	return a.ActivityContext.RPCFactory.NewClient([]string{ep}).GetBalance(ctx, account)
}

// Validators lists the identities first seen on cl.
func (a *App) Validators(ctx context.Context, cl cluster.Cluster) ([]models.Validator, error) {
	return a.Store.ListValidators(ctx, cl)
}

// NewWorker registers the reconcile workflow and activities on the client's task queue.
func (a *App) NewWorker(tc *temporal.Client) worker.Worker {
	wc := workflow.Context{ActivityContext: a.ActivityContext}

	wkr := worker.New(tc.TClient, tc.TaskQueue, worker.Options{
		MaxConcurrentWorkflowTaskPollers: 2,
		MaxConcurrentActivityTaskPollers: 2,
		// one pass per cluster and kind is plenty
		MaxConcurrentActivityExecutionSize: 4,
		WorkerStopTimeout:                  time.Minute,
	})
	wkr.RegisterWorkflowWithOptions(
		wc.ReconcileClusterWorkflow,
		temporalworkflow.RegisterOptions{Name: workflow.ReconcileClusterWorkflowName},
	)
	wkr.RegisterActivity(a.ActivityContext.ReconcileCredits)
	wkr.RegisterActivity(a.ActivityContext.ReconcileRewards)
	return wkr
}

// Close releases the database and cache connections.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("Failed to close ledger database", zap.Error(err))
	}
}
