package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap/zaptest"

	"github.com/velastools/velastools/app/updater/activity"
	"github.com/velastools/velastools/app/updater/types"
	"github.com/velastools/velastools/app/updater/workflow"
	"github.com/velastools/velastools/pkg/cluster"
)

func newWorkflowEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *workflow.Context) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	ac := &activity.Context{Logger: zaptest.NewLogger(t)}
	wc := &workflow.Context{ActivityContext: ac}

	env.RegisterWorkflow(wc.ReconcileClusterWorkflow)
	env.RegisterActivity(ac.ReconcileCredits)
	env.RegisterActivity(ac.ReconcileRewards)
	return env, wc
}

func TestReconcileClusterWorkflowRunsBothPasses(t *testing.T) {
	env, wc := newWorkflowEnv(t)

	env.OnActivity(wc.ActivityContext.ReconcileCredits, mock.Anything, types.ReconcileInput{Cluster: cluster.Mainnet, NumEpochs: 2}).
		Return(types.ReconcileOutput{Kind: "credits", Cluster: cluster.Mainnet, RowsWritten: 10}, nil).Once()
	env.OnActivity(wc.ActivityContext.ReconcileRewards, mock.Anything, types.ReconcileInput{Cluster: cluster.Mainnet, NumEpochs: 2}).
		Return(types.ReconcileOutput{Kind: "rewards", Cluster: cluster.Mainnet, RowsWritten: 4}, nil).Once()

	env.ExecuteWorkflow(wc.ReconcileClusterWorkflow, types.WorkflowReconcileInput{
		Cluster: cluster.Mainnet, Credits: true, Rewards: true, NumEpochs: 2,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out types.WorkflowReconcileOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	require.NotNil(t, out.Credits)
	require.NotNil(t, out.Rewards)
	assert.Equal(t, uint32(10), out.Credits.RowsWritten)
	assert.Equal(t, uint32(4), out.Rewards.RowsWritten)
	env.AssertExpectations(t)
}

func TestReconcileClusterWorkflowCreditsOnly(t *testing.T) {
	env, wc := newWorkflowEnv(t)

	env.OnActivity(wc.ActivityContext.ReconcileCredits, mock.Anything, mock.Anything).
		Return(types.ReconcileOutput{Cluster: cluster.Testnet}, nil).Once()

	env.ExecuteWorkflow(wc.ReconcileClusterWorkflow, types.WorkflowReconcileInput{Cluster: cluster.Testnet, Credits: true})

	require.NoError(t, env.GetWorkflowError())
	var out types.WorkflowReconcileOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.NotNil(t, out.Credits)
	assert.Nil(t, out.Rewards)
}

func TestReconcileClusterWorkflowRetriesThenFails(t *testing.T) {
	env, wc := newWorkflowEnv(t)

	var attempts int
	env.OnActivity(wc.ActivityContext.ReconcileCredits, mock.Anything, mock.Anything).
		Return(func(context.Context, types.ReconcileInput) (types.ReconcileOutput, error) {
			attempts++
			return types.ReconcileOutput{}, errors.New("rpc down")
		})

	env.ExecuteWorkflow(wc.ReconcileClusterWorkflow, types.WorkflowReconcileInput{Cluster: cluster.Mainnet, Credits: true, Rewards: true})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, int(workflow.ActivityOptions.RetryPolicy.MaximumAttempts), attempts)
}

func TestReconcileClusterWorkflowRecoversOnRetry(t *testing.T) {
	env, wc := newWorkflowEnv(t)

	var attempts int
	env.OnActivity(wc.ActivityContext.ReconcileRewards, mock.Anything, mock.Anything).
		Return(func(context.Context, types.ReconcileInput) (types.ReconcileOutput, error) {
			attempts++
			if attempts < 3 {
				return types.ReconcileOutput{}, errors.New("reward command failed")
			}
			return types.ReconcileOutput{RowsWritten: 1}, nil
		})

	env.ExecuteWorkflow(wc.ReconcileClusterWorkflow, types.WorkflowReconcileInput{Cluster: cluster.Mainnet, Rewards: true})

	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, 3, attempts)
}
