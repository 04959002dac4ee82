package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/velastools/velastools/app/updater/types"
)

// ActivityOptions bounds a single reconcile pass. Rewards passes shell out once per validator,
// so the start-to-close budget is generous.
var ActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 30 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    10 * time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    5 * time.Minute,
		MaximumAttempts:    5,
	},
}

// ReconcileClusterWorkflow runs the credits pass, then the rewards pass, for one cluster.
// A failing pass is retried by Temporal; when retries are exhausted the workflow fails and
// the rewards pass is not attempted after a failed credits pass.
func (wc *Context) ReconcileClusterWorkflow(ctx workflow.Context, input types.WorkflowReconcileInput) (types.WorkflowReconcileOutput, error) {
	start := workflow.Now(ctx)
	logger := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, ActivityOptions)

	var out types.WorkflowReconcileOutput
	in := types.ReconcileInput{Cluster: input.Cluster, NumEpochs: input.NumEpochs}

	if input.Credits {
		var credits types.ReconcileOutput
		if err := workflow.ExecuteActivity(ctx, wc.ActivityContext.ReconcileCredits, in).Get(ctx, &credits); err != nil {
			logger.Error("Credits reconciliation failed",
				zap.String("cluster", input.Cluster.String()),
				zap.Error(err))
			return out, err
		}
		out.Credits = &credits
	}

	if input.Rewards {
		var rewards types.ReconcileOutput
		if err := workflow.ExecuteActivity(ctx, wc.ActivityContext.ReconcileRewards, in).Get(ctx, &rewards); err != nil {
			logger.Error("Rewards reconciliation failed",
				zap.String("cluster", input.Cluster.String()),
				zap.Error(err))
			return out, err
		}
		out.Rewards = &rewards
	}

	out.DurationMs = float64(workflow.Now(ctx).Sub(start).Milliseconds())
	logger.Info("Cluster reconciled",
		zap.String("cluster", input.Cluster.String()),
		zap.Float64("durationMs", out.DurationMs))
	return out, nil
}
