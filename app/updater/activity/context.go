package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/grabber"
	"github.com/velastools/velastools/pkg/metrics"
	"github.com/velastools/velastools/pkg/retry"
	"github.com/velastools/velastools/pkg/rpc"
)

// CacheInvalidator drops cached dashboard tables after a cluster's records changed.
type CacheInvalidator interface {
	InvalidateCluster(ctx context.Context, kind models.RecordKind, cl cluster.Cluster) error
}

// Context carries the dependencies shared by the reconcile activities. The same value is
// used by the CLI directly and by the Temporal worker.
type Context struct {
	Logger *zap.Logger
	Store  db.LedgerStore
	// For RPC calls to the cluster endpoints
	RPCFactory rpc.Factory
	Endpoints  map[cluster.Cluster]string
	// For reward payouts, which the RPC does not expose
	Grabber grabber.Fetcher
	// Optional; nil disables invalidation
	Cache CacheInvalidator
	// Parallelism > 1 reconciles that many validators at once
	Parallelism int
	// RetryConfig applies to RPC calls; zero value means retry.CallConfig()
	RetryConfig *retry.Config

	validatorsOnce sync.Once
	validators     *xsync.Map[string, models.Validator]
}

func (c *Context) endpoint(cl cluster.Cluster) (string, error) {
	if !cl.Valid() {
		return "", fmt.Errorf("%w: value %d", cluster.ErrUnknownCluster, uint8(cl))
	}
	ep, ok := c.Endpoints[cl]
	if !ok || ep == "" {
		return "", fmt.Errorf("no RPC endpoint configured for %s", cl)
	}
	return ep, nil
}

func (c *Context) retryConfig() retry.Config {
	if c.RetryConfig != nil {
		return *c.RetryConfig
	}
	return retry.CallConfig()
}

func (c *Context) parallelism() int {
	if c.Parallelism < 1 {
		return 1
	}
	return c.Parallelism
}

func (c *Context) validatorCache() *xsync.Map[string, models.Validator] {
	c.validatorsOnce.Do(func() {
		c.validators = xsync.NewMap[string, models.Validator]()
	})
	return c.validators
}

// validator returns the stored identity for acct, creating it on first sight. Identities never
// change once written, so a hit in the cache is authoritative.
func (c *Context) validator(ctx context.Context, acct rpc.VoteAccount, cl cluster.Cluster) (models.Validator, bool, error) {
	cache := c.validatorCache()
	if v, ok := cache.Load(acct.NodePubkey); ok {
		return v, false, nil
	}

	v, created, err := c.Store.GetOrCreateValidator(ctx, acct.NodePubkey, acct.VotePubkey, cl)
	if err != nil {
		return models.Validator{}, false, err
	}
	if created {
		metrics.IncValidatorsCreated(cl.String())
		c.Logger.Info("New validator",
			zap.String("cluster", cl.String()),
			zap.String("node_pk", v.NodePK),
			zap.String("vote_pk", v.VotePK),
			zap.Int64("id", v.ID))
	}
	cache.Store(v.NodePK, v)
	return v, created, nil
}

// voteAccounts fetches current ++ delinquent for cl, retrying transport failures. Malformed
// payloads and JSON-RPC error objects are not retried.
func (c *Context) voteAccounts(ctx context.Context, cl cluster.Cluster) ([]rpc.VoteAccount, error) {
	ep, err := c.endpoint(cl)
	if err != nil {
		return nil, err
	}
	client := c.RPCFactory.NewClient([]string{ep})

	var accounts []rpc.VoteAccount
	err = retry.WithBackoff(ctx, c.retryConfig(), c.Logger, "getVoteAccounts", func() error {
		var callErr error
		accounts, callErr = client.GetVoteAccountsMerged(ctx)
		var rpcErr *rpc.RPCError
		if errors.Is(callErr, rpc.ErrMalformedResponse) || errors.As(callErr, &rpcErr) {
			return retry.Permanent(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("unable to get vote accounts for %s (%s): %w", cl, ep, err)
	}
	return accounts, nil
}

func (c *Context) invalidate(ctx context.Context, kind models.RecordKind, cl cluster.Cluster) {
	if c.Cache == nil {
		return
	}
	if err := c.Cache.InvalidateCluster(ctx, kind, cl); err != nil {
		c.Logger.Warn("Failed to invalidate dashboard cache",
			zap.String("kind", string(kind)),
			zap.String("cluster", cl.String()),
			zap.Error(err))
	}
}
