package rpc

import "context"

type balanceResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value uint64 `json:"value"`
}

// GetBalance returns the account balance in the smallest native unit.
func (c *HTTPClient) GetBalance(ctx context.Context, account string) (uint64, error) {
	var out balanceResult
	if err := c.Call(ctx, methodGetBalance, []any{account}, &out); err != nil {
		return 0, err
	}
	return out.Value, nil
}

// ClusterNode is one entry of getClusterNodes.
type ClusterNode struct {
	Pubkey  string  `json:"pubkey"`
	Gossip  *string `json:"gossip"`
	TPU     *string `json:"tpu"`
	RPC     *string `json:"rpc"`
	Version *string `json:"version"`
}

// GetClusterNodes lists the nodes participating in the cluster.
func (c *HTTPClient) GetClusterNodes(ctx context.Context) ([]ClusterNode, error) {
	var out []ClusterNode
	if err := c.Call(ctx, methodGetClusterNodes, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
