package rpc

import (
	"context"
)

// Client captures the cluster RPC calls used by the reconciler and the CLI.
type Client interface {
	GetVoteAccounts(ctx context.Context) (VoteAccounts, error)
	GetVoteAccountsMerged(ctx context.Context) ([]VoteAccount, error)
	GetEpochInfo(ctx context.Context) (EpochInfo, error)
	GetBalance(ctx context.Context, account string) (uint64, error)
	GetClusterNodes(ctx context.Context) ([]ClusterNode, error)
}

// Factory produces RPC clients for a given set of endpoints.
type Factory interface {
	NewClient(endpoints []string) Client
}

type httpFactory struct {
	opts Opts
}

// NewHTTPFactory returns a factory that builds HTTP clients with shared defaults.
func NewHTTPFactory(opts Opts) Factory {
	return &httpFactory{opts: opts}
}

func (f *httpFactory) NewClient(endpoints []string) Client {
	o := f.opts
	o.Endpoints = endpoints
	return NewHTTPWithOpts(o)
}
