package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	updatertypes "github.com/velastools/velastools/app/updater/types"
	"github.com/velastools/velastools/app/updater/workflow"
	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/temporal"
)

// Updater is the in-process side of app/updater.
type Updater interface {
	UpdateCredits(ctx context.Context, clusters []cluster.Cluster) ([]updatertypes.ReconcileOutput, error)
	UpdateRewards(ctx context.Context, clusters []cluster.Cluster, numEpochs int) ([]updatertypes.ReconcileOutput, error)
}

// InProcess runs the passes directly, one cluster after the other.
type InProcess struct {
	Updater Updater
	Logger  *zap.Logger
}

func (d *InProcess) DispatchCredits(ctx context.Context, clusters []cluster.Cluster, _ time.Time) error {
	outs, err := d.Updater.UpdateCredits(ctx, clusters)
	d.logOutputs(outs)
	return err
}

func (d *InProcess) DispatchRewards(ctx context.Context, clusters []cluster.Cluster, numEpochs int, _ time.Time) error {
	outs, err := d.Updater.UpdateRewards(ctx, clusters, numEpochs)
	d.logOutputs(outs)
	return err
}

func (d *InProcess) logOutputs(outs []updatertypes.ReconcileOutput) {
	for _, o := range outs {
		d.Logger.Info("Pass complete",
			zap.String("kind", string(o.Kind)),
			zap.String("cluster", o.Cluster.String()),
			zap.Uint32("validators", o.ValidatorsSeen),
			zap.Uint32("created", o.ValidatorsCreated),
			zap.Uint32("rows", o.RowsWritten),
			zap.Float64("duration_ms", o.DurationMs))
	}
}

// WorkflowStarter is the part of client.Client the scheduler uses.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalDispatcher starts one ReconcileClusterWorkflow per cluster and returns without
// waiting for it. Retries are the workflow's business.
type TemporalDispatcher struct {
	Client    WorkflowStarter
	TaskQueue string
	Logger    *zap.Logger
}

func (d *TemporalDispatcher) DispatchCredits(ctx context.Context, clusters []cluster.Cluster, tick time.Time) error {
	var errs []error
	for _, cl := range clusters {
		in := updatertypes.WorkflowReconcileInput{Cluster: cl, Credits: true}
		errs = append(errs, d.start(ctx, models.Credits, in, tick))
	}
	return errors.Join(errs...)
}

func (d *TemporalDispatcher) DispatchRewards(ctx context.Context, clusters []cluster.Cluster, numEpochs int, tick time.Time) error {
	var errs []error
	for _, cl := range clusters {
		in := updatertypes.WorkflowReconcileInput{Cluster: cl, Rewards: true, NumEpochs: numEpochs}
		errs = append(errs, d.start(ctx, models.Rewards, in, tick))
	}
	return errors.Join(errs...)
}

func (d *TemporalDispatcher) start(ctx context.Context, kind models.RecordKind, in updatertypes.WorkflowReconcileInput, tick time.Time) error {
	opts := client.StartWorkflowOptions{
		ID:                       temporal.ReconcileWorkflowID(in.Cluster.String(), string(kind), tick),
		TaskQueue:                d.TaskQueue,
		WorkflowExecutionTimeout: time.Hour,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}
	if _, err := d.Client.ExecuteWorkflow(ctx, opts, workflow.ReconcileClusterWorkflowName, in); err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			d.Logger.Debug("Reconcile workflow already started", zap.String("workflow_id", opts.ID))
			return nil
		}
		return fmt.Errorf("start %s: %w", opts.ID, err)
	}
	d.Logger.Info("Reconcile workflow started",
		zap.String("workflow_id", opts.ID),
		zap.String("task_queue", d.TaskQueue))
	return nil
}
