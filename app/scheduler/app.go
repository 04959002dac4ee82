package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/config"
)

// Dispatcher carries out one scheduled tick, either in-process or through Temporal.
type Dispatcher interface {
	DispatchCredits(ctx context.Context, clusters []cluster.Cluster, tick time.Time) error
	DispatchRewards(ctx context.Context, clusters []cluster.Cluster, numEpochs int, tick time.Time) error
}

// App fires the credits and rewards passes on their cron specs.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Dispatcher Dispatcher

	// Cron is the scheduler that triggers the passes, according to Config.CreditsCron and Config.RewardsCron.
	Cron *cron.Cron

	creditsTargets []cluster.Cluster
	rewardsTargets []cluster.Cluster
	now            func() time.Time
}

// New validates the target clusters and registers both jobs. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, d Dispatcher) (*App, error) {
	credits, err := cfg.CreditsTargets()
	if err != nil {
		return nil, err
	}
	rewards, err := cfg.RewardsTargets()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:         cfg,
		Logger:         logger,
		Dispatcher:     d,
		creditsTargets: credits,
		rewardsTargets: rewards,
		now:            time.Now,
	}

	cronLogger := cronZapLogger{logger: logger.Sugar()}
	// Seconds field, optional
	a.Cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := a.Cron.AddFunc(cfg.CreditsCron, func() { _ = a.RunCredits(ctx) }); err != nil {
		return nil, fmt.Errorf("credits cron %q: %w", cfg.CreditsCron, err)
	}
	if _, err := a.Cron.AddFunc(cfg.RewardsCron, func() { _ = a.RunRewards(ctx) }); err != nil {
		return nil, fmt.Errorf("rewards cron %q: %w", cfg.RewardsCron, err)
	}

	return a, nil
}

// RunCredits runs one credits tick bounded by Config.TickTimeout.
func (a *App) RunCredits(ctx context.Context) error {
	tick := a.now().Truncate(time.Second)
	rctx, cancel := context.WithTimeout(ctx, a.Config.TickTimeout)
	defer cancel()

	err := a.Dispatcher.DispatchCredits(rctx, a.creditsTargets, tick)
	if err != nil {
		a.Logger.Error("Credits tick failed", zap.Time("tick", tick), zap.Error(err))
	}
	return err
}

// RunRewards runs one rewards tick bounded by Config.TickTimeout.
func (a *App) RunRewards(ctx context.Context) error {
	tick := a.now().Truncate(time.Second)
	rctx, cancel := context.WithTimeout(ctx, a.Config.TickTimeout)
	defer cancel()

	err := a.Dispatcher.DispatchRewards(rctx, a.rewardsTargets, a.Config.RewardsEpochs, tick)
	if err != nil {
		a.Logger.Error("Rewards tick failed", zap.Time("tick", tick), zap.Error(err))
	}
	return err
}

// Start runs the cron until ctx is cancelled and waits for running jobs to finish.
func (a *App) Start(ctx context.Context) {
	a.Cron.Start()
	a.Logger.Info("Scheduler started",
		zap.String("credits_cron", a.Config.CreditsCron),
		zap.String("rewards_cron", a.Config.RewardsCron))

	<-ctx.Done()
	<-a.Cron.Stop().Done()
	a.Logger.Info("Scheduler stopped")
}

// cronZapLogger adapts zap to cron.Logger.
type cronZapLogger struct {
	logger *zap.SugaredLogger
}

func (l cronZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronZapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
