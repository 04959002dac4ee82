package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	updatertypes "github.com/velastools/velastools/app/updater/types"
	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/rpc"
)

type fakeUpdater struct {
	credits   []cluster.Cluster
	rewards   []cluster.Cluster
	numEpochs int
	epochFor  cluster.Cluster
	account   string
	err       error
	closed    bool
}

func (u *fakeUpdater) UpdateCredits(_ context.Context, clusters []cluster.Cluster) ([]updatertypes.ReconcileOutput, error) {
	u.credits = clusters
	outs := make([]updatertypes.ReconcileOutput, 0, len(clusters))
	for _, cl := range clusters {
		outs = append(outs, updatertypes.ReconcileOutput{Kind: models.Credits, Cluster: cl, ValidatorsSeen: 2, RowsWritten: 10})
	}
	return outs, u.err
}

func (u *fakeUpdater) UpdateRewards(_ context.Context, clusters []cluster.Cluster, numEpochs int) ([]updatertypes.ReconcileOutput, error) {
	u.rewards, u.numEpochs = clusters, numEpochs
	return nil, u.err
}

func (u *fakeUpdater) EpochInfo(_ context.Context, cl cluster.Cluster) (rpc.EpochInfo, error) {
	u.epochFor = cl
	return rpc.EpochInfo{Epoch: 42, SlotIndex: 108000, SlotsInEpoch: 432000, BlockHeight: 9000}, u.err
}

func (u *fakeUpdater) Validators(_ context.Context, cl cluster.Cluster) ([]models.Validator, error) {
	return []models.Validator{{ID: 1, NodePK: "NodeA", VotePK: "VoteA", Cluster: cl}}, u.err
}

func (u *fakeUpdater) ClusterNodes(_ context.Context, cl cluster.Cluster) ([]rpc.ClusterNode, error) {
	u.epochFor = cl
	gossip, version := "10.0.0.1:8001", "0.6.1"
	return []rpc.ClusterNode{
		{Pubkey: "NodeA", Gossip: &gossip, Version: &version},
		{Pubkey: "NodeB"},
	}, u.err
}

func (u *fakeUpdater) Balance(_ context.Context, cl cluster.Cluster, account string) (uint64, error) {
	u.epochFor, u.account = cl, account
	return 1_125_000_000, u.err
}

func (u *fakeUpdater) Close() { u.closed = true }

func run(t *testing.T, u *fakeUpdater, args ...string) (string, error) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	cmd := newRootCmd(func(context.Context) (*config.Config, Updater, error) { return cfg, u, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUpdateCredits(t *testing.T) {
	for _, name := range []string{"update-credits", "update-clusters"} {
		u := &fakeUpdater{}
		out, err := run(t, u, name)
		require.NoError(t, err, name)

		assert.Equal(t, []cluster.Cluster{cluster.Testnet, cluster.Mainnet}, u.credits)
		assert.Contains(t, out, "credits testnet: 2 validators (0 new), 10 rows")
		assert.True(t, u.closed)
	}
}

func TestUpdateRewardsNumEpoches(t *testing.T) {
	u := &fakeUpdater{}
	_, err := run(t, u, "update-rewards")
	require.NoError(t, err)
	assert.Equal(t, []cluster.Cluster{cluster.Mainnet}, u.rewards)
	assert.Equal(t, 1, u.numEpochs)

	u = &fakeUpdater{}
	_, err = run(t, u, "update-rewards", "--num-epoches", "7")
	require.NoError(t, err)
	assert.Equal(t, 7, u.numEpochs)
}

func TestEpochInfo(t *testing.T) {
	u := &fakeUpdater{}
	out, err := run(t, u, "epoch-info", "--cluster", "testnet")
	require.NoError(t, err)
	assert.Equal(t, cluster.Testnet, u.epochFor)
	assert.Contains(t, out, "epoch:     42")
	assert.Contains(t, out, "(25.0%)")

	_, err = run(t, &fakeUpdater{}, "epoch-info", "--cluster", "moonnet")
	assert.ErrorIs(t, err, cluster.ErrUnknownCluster)
}

func TestErrorsPropagate(t *testing.T) {
	u := &fakeUpdater{err: errors.New("store down")}
	_, err := run(t, u, "update-credits")
	assert.EqualError(t, err, "store down")
	assert.True(t, u.closed)
}

func TestOpenFailure(t *testing.T) {
	cmd := newRootCmd(func(context.Context) (*config.Config, Updater, error) {
		return nil, nil, errors.New("dial tcp: refused")
	})
	cmd.SetArgs([]string{"update-rewards"})
	err := cmd.ExecuteContext(context.Background())
	assert.EqualError(t, err, "initialize: dial tcp: refused")
}

func TestListValidators(t *testing.T) {
	out, err := run(t, &fakeUpdater{}, "list-validators", "--cluster", "testnet")
	require.NoError(t, err)
	assert.Equal(t, "1\tNodeA\tVoteA\n", out)
}

func TestClusterNodes(t *testing.T) {
	u := &fakeUpdater{}
	out, err := run(t, u, "cluster-nodes", "--cluster", "testnet")
	require.NoError(t, err)
	assert.Equal(t, cluster.Testnet, u.epochFor)
	assert.Equal(t, "NodeA\t10.0.0.1:8001\t-\t0.6.1\nNodeB\t-\t-\t-\n", out)
	assert.True(t, u.closed)
}

func TestBalance(t *testing.T) {
	u := &fakeUpdater{}
	out, err := run(t, u, "balance", "--cluster", "mainnet", "Vote111")
	require.NoError(t, err)
	assert.Equal(t, cluster.Mainnet, u.epochFor)
	assert.Equal(t, "Vote111", u.account)
	// 1.125 ties to even
	assert.Equal(t, "Vote111: 1125000000 lamports (1.12 VLX)\n", out)

	_, err = run(t, &fakeUpdater{}, "balance")
	assert.Error(t, err)

	u = &fakeUpdater{err: errors.New("rpc down")}
	_, err = run(t, u, "balance", "Vote111")
	assert.EqualError(t, err, "rpc down")
	assert.True(t, u.closed)
}
