package activity

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/velastools/velastools/app/updater/types"
	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/metrics"
	"github.com/velastools/velastools/pkg/rpc"
)

// rowsFunc produces the fresh per-epoch rows of one validator.
type rowsFunc func(ctx context.Context, acct rpc.VoteAccount, v models.Validator) ([]models.EpochValue, error)

// ReconcileCredits replaces the stored credits of every validator on the cluster with the
// epochCredits window currently reported by the RPC endpoint.
func (c *Context) ReconcileCredits(ctx context.Context, in types.ReconcileInput) (types.ReconcileOutput, error) {
	return c.reconcile(ctx, models.Credits, in, func(_ context.Context, acct rpc.VoteAccount, _ models.Validator) ([]models.EpochValue, error) {
		return CreditRows(acct), nil
	})
}

// ReconcileRewards replaces the stored rewards of every validator on the cluster with the
// payouts reported by the grabber for the validator's stored vote key.
func (c *Context) ReconcileRewards(ctx context.Context, in types.ReconcileInput) (types.ReconcileOutput, error) {
	if c.Grabber == nil {
		return types.ReconcileOutput{}, errors.New("rewards reconciliation requires a grabber")
	}
	ep, err := c.endpoint(in.Cluster)
	if err != nil {
		return types.ReconcileOutput{}, err
	}

	return c.reconcile(ctx, models.Rewards, in, func(ctx context.Context, _ rpc.VoteAccount, v models.Validator) ([]models.EpochValue, error) {
		seq, err := c.Grabber.FetchRewards(ctx, v.VotePK, ep, in.NumEpochs)
		if err != nil {
			return nil, err
		}
		var rows []models.EpochValue
		for r, ok := seq.Next(); ok; r, ok = seq.Next() {
			rows = append(rows, models.EpochValue{Epoch: r.Epoch, Value: r.Amount})
		}
		return rows, nil
	})
}

// CreditRows turns an account's epochCredits triples into per-epoch deltas.
func CreditRows(acct rpc.VoteAccount) []models.EpochValue {
	rows := make([]models.EpochValue, 0, len(acct.EpochCredits))
	for _, ec := range acct.EpochCredits {
		rows = append(rows, models.EpochValue{Epoch: ec.Epoch, Value: ec.Delta()})
	}
	return rows
}

func (c *Context) reconcile(ctx context.Context, kind models.RecordKind, in types.ReconcileInput, fresh rowsFunc) (out types.ReconcileOutput, err error) {
	start := time.Now()
	out = types.ReconcileOutput{Kind: kind, Cluster: in.Cluster}
	logger := c.Logger.With(zap.String("kind", string(kind)), zap.String("cluster", in.Cluster.String()))

	defer func() {
		d := time.Since(start)
		out.DurationMs = float64(d.Milliseconds())
		metrics.ObservePass(string(kind), in.Cluster.String(), err, d)
	}()

	accounts, err := c.voteAccounts(ctx, in.Cluster)
	if err != nil {
		return out, err
	}
	logger.Info("Reconciling cluster", zap.Int("vote_accounts", len(accounts)), zap.Int("parallelism", c.parallelism()))

	var created, rowsWritten atomic.Uint32

	pool := pond.NewPool(c.parallelism())
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for _, acct := range accounts {
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			v, isNew, err := c.validator(groupCtx, acct, in.Cluster)
			if err != nil {
				return fmt.Errorf("validator %s: %w", acct.NodePubkey, err)
			}
			if isNew {
				created.Add(1)
			}

			rows, err := fresh(groupCtx, acct, v)
			if err != nil {
				return fmt.Errorf("validator %s: %w", v.NodePK, err)
			}
			if err := c.Store.ReplaceEpochRows(groupCtx, kind, v.ID, in.Cluster, rows); err != nil {
				return fmt.Errorf("validator %s: %w", v.NodePK, err)
			}

			rowsWritten.Add(uint32(len(rows)))
			metrics.AddRowsReplaced(string(kind), in.Cluster.String(), len(rows))
			logger.Debug("Replaced epoch rows",
				zap.String("node_pk", v.NodePK),
				zap.Int64("validator_id", v.ID),
				zap.Uint64s("epochs", models.Epochs(rows)))
			return nil
		})
	}

	waitErr := group.Wait()
	out.ValidatorsSeen = uint32(len(accounts))
	out.ValidatorsCreated = created.Load()
	out.RowsWritten = rowsWritten.Load()

	if waitErr != nil {
		logger.Error("Reconciliation failed",
			zap.Uint32("rows_written", out.RowsWritten),
			zap.Error(waitErr))
		return out, fmt.Errorf("reconcile %s on %s: %w", kind, in.Cluster, waitErr)
	}

	c.invalidate(ctx, kind, in.Cluster)
	logger.Info("Reconciliation completed",
		zap.Uint32("validators", out.ValidatorsSeen),
		zap.Uint32("created", out.ValidatorsCreated),
		zap.Uint32("rows", out.RowsWritten),
		zap.Duration("duration", time.Since(start)))

	return out, nil
}

// ClusterEndpoint exposes the endpoint used for cl, for callers that report it.
func (c *Context) ClusterEndpoint(cl cluster.Cluster) (string, error) {
	return c.endpoint(cl)
}
