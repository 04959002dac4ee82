package cluster_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velastools/velastools/pkg/cluster"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want cluster.Cluster
	}{
		{"devnet", cluster.Devnet},
		{"testnet", cluster.Testnet},
		{"Mainnet", cluster.Mainnet},
		{" mainnet ", cluster.Mainnet},
	} {
		got, err := cluster.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := cluster.Parse("localnet")
	require.ErrorIs(t, err, cluster.ErrUnknownCluster)

	_, err = cluster.ParseList([]string{"testnet", "nope"})
	require.ErrorIs(t, err, cluster.ErrUnknownCluster)
}

func TestPersistedValues(t *testing.T) {
	assert.Equal(t, uint8(0), uint8(cluster.Devnet))
	assert.Equal(t, uint8(1), uint8(cluster.Testnet))
	assert.Equal(t, uint8(2), uint8(cluster.Mainnet))

	c, err := cluster.FromValue(2)
	require.NoError(t, err)
	assert.Equal(t, cluster.Mainnet, c)

	_, err = cluster.FromValue(7)
	require.ErrorIs(t, err, cluster.ErrUnknownCluster)
	_, err = cluster.FromValue(258)
	assert.ErrorIs(t, err, cluster.ErrUnknownCluster)
	_, err = cluster.FromValue(-1)
	require.ErrorIs(t, err, cluster.ErrUnknownCluster)
}

func TestJSONUsesNames(t *testing.T) {
	type payload struct {
		Cluster cluster.Cluster `json:"cluster"`
	}
	bz, err := json.Marshal(payload{Cluster: cluster.Testnet})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cluster":"testnet"}`, string(bz))

	var out payload
	require.NoError(t, json.Unmarshal([]byte(`{"cluster":"mainnet"}`), &out))
	assert.Equal(t, cluster.Mainnet, out.Cluster)

	require.Error(t, json.Unmarshal([]byte(`{"cluster":"moon"}`), &out))
	assert.Equal(t, "cluster(9)", cluster.Cluster(9).String())
}
