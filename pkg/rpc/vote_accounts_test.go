package rpc_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velastools/velastools/pkg/rpc"
)

const voteAccountsPayload = `{
	"current": [
		{"nodePubkey": "NodeA", "votePubkey": "VoteA", "activatedStake": 100, "commission": 10,
		 "epochVoteAccount": true, "lastVote": 500, "rootSlot": 480,
		 "epochCredits": [[10, 5000, 4000], [11, 6200, 5000]]}
	],
	"delinquent": [
		{"nodePubkey": "NodeB", "votePubkey": "VoteB", "epochCredits": [[11, 300, 300]]}
	]
}`

func TestGetVoteAccounts_Unmerged(t *testing.T) {
	client := newTestRPCClient(resultHandler(t, "getVoteAccounts", json.RawMessage(voteAccountsPayload)))

	accounts, err := client.GetVoteAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts.Current, 1)
	require.Len(t, accounts.Delinquent, 1)

	a := accounts.Current[0]
	assert.Equal(t, "NodeA", a.NodePubkey)
	assert.Equal(t, "VoteA", a.VotePubkey)
	assert.Equal(t, uint64(100), a.ActivatedStake)
	require.Len(t, a.EpochCredits, 2)
	assert.Equal(t, rpc.EpochCredit{Epoch: 11, Max: 6200, Min: 5000}, a.EpochCredits[1])
	assert.Equal(t, int64(1200), a.EpochCredits[1].Delta())
	assert.Equal(t, int64(0), accounts.Delinquent[0].EpochCredits[0].Delta())
}

func TestGetVoteAccounts_Merged(t *testing.T) {
	client := newTestRPCClient(resultHandler(t, "getVoteAccounts", json.RawMessage(voteAccountsPayload)))

	merged, err := client.GetVoteAccountsMerged(context.Background())
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "NodeA", merged[0].NodePubkey)
	assert.Equal(t, "NodeB", merged[1].NodePubkey)
}

// TestMergeVoteAccounts_IsConcatenation checks merge == current ++ delinquent for several shapes,
// including empty halves and duplicated entries.
func TestMergeVoteAccounts_IsConcatenation(t *testing.T) {
	mk := func(prefix string, n int) []rpc.VoteAccount {
		out := make([]rpc.VoteAccount, n)
		for i := range out {
			out[i] = rpc.VoteAccount{NodePubkey: fmt.Sprintf("%s%d", prefix, i)}
		}
		return out
	}
	dup := rpc.VoteAccount{NodePubkey: "same"}

	cases := []rpc.VoteAccounts{
		{},
		{Current: mk("c", 3)},
		{Delinquent: mk("d", 2)},
		{Current: mk("c", 4), Delinquent: mk("d", 5)},
		{Current: []rpc.VoteAccount{dup, dup}, Delinquent: []rpc.VoteAccount{dup}},
	}

	for i, tc := range cases {
		merged := rpc.MergeVoteAccounts(tc)
		want := append(append([]rpc.VoteAccount{}, tc.Current...), tc.Delinquent...)
		assert.Equal(t, len(want), len(merged), "case %d", i)
		for j := range want {
			assert.Equal(t, want[j].NodePubkey, merged[j].NodePubkey, "case %d index %d", i, j)
		}
	}
}

func TestEpochCredit_JSON(t *testing.T) {
	var c rpc.EpochCredit
	require.NoError(t, json.Unmarshal([]byte(`[170, 123456789012, 123456000000]`), &c))
	assert.Equal(t, uint64(170), c.Epoch)
	assert.Equal(t, int64(789012), c.Delta())

	bz, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[170, 123456789012, 123456000000]`, string(bz))

	require.Error(t, json.Unmarshal([]byte(`[1, 2]`), &c))
	require.Error(t, json.Unmarshal([]byte(`[-1, 2, 1]`), &c))
	require.Error(t, json.Unmarshal([]byte(`{"epoch": 1}`), &c))
}

func TestGetVoteAccounts_BadCreditsIsMalformed(t *testing.T) {
	payload := `{"current":[{"nodePubkey":"N","votePubkey":"V","epochCredits":[[1,2]]}],"delinquent":[]}`
	client := newTestRPCClient(resultHandler(t, "getVoteAccounts", json.RawMessage(payload)))

	_, err := client.GetVoteAccountsMerged(context.Background())
	require.ErrorIs(t, err, rpc.ErrMalformedResponse)
}

func TestGetEpochInfo(t *testing.T) {
	client := newTestRPCClient(resultHandler(t, "getEpochInfo", map[string]any{
		"epoch": 212, "slotIndex": 108000, "slotsInEpoch": 432000, "absoluteSlot": 91692000, "blockHeight": 91000000,
	}))

	info, err := client.GetEpochInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(212), info.Epoch)
	assert.Equal(t, uint64(108000), info.SlotIndex)
	assert.Equal(t, uint64(432000), info.SlotsInEpoch)
	assert.InDelta(t, 0.25, info.Progress(), 1e-9)
	assert.Equal(t, 0.0, rpc.EpochInfo{}.Progress())
}

func TestGetClusterNodes(t *testing.T) {
	client := newTestRPCClient(resultHandler(t, "getClusterNodes", []map[string]any{
		{"pubkey": "NodeA", "gossip": "10.0.0.1:8001", "rpc": nil, "version": "0.6.1"},
	}))

	nodes, err := client.GetClusterNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "NodeA", nodes[0].Pubkey)
	require.NotNil(t, nodes[0].Version)
	assert.Equal(t, "0.6.1", *nodes[0].Version)
	assert.Nil(t, nodes[0].RPC)
}

func TestGetBalance(t *testing.T) {
	client := newTestRPCClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		require.Equal(t, "getBalance", req.Method)
		require.Len(t, req.Params, 1)
		assert.JSONEq(t, `"VoteA"`, string(req.Params[0]))
		writeResult(t, w, map[string]any{"context": map[string]any{"slot": 10}, "value": 2_500_000_000})
	}))

	bal, err := client.GetBalance(context.Background(), "VoteA")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000), bal)
}
