package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	updatertypes "github.com/velastools/velastools/app/updater/types"
	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/config"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/readmodel"
	"github.com/velastools/velastools/pkg/rpc"
)

// Updater is what the commands need from app/updater.
type Updater interface {
	UpdateCredits(ctx context.Context, clusters []cluster.Cluster) ([]updatertypes.ReconcileOutput, error)
	UpdateRewards(ctx context.Context, clusters []cluster.Cluster, numEpochs int) ([]updatertypes.ReconcileOutput, error)
	EpochInfo(ctx context.Context, cl cluster.Cluster) (rpc.EpochInfo, error)
	Validators(ctx context.Context, cl cluster.Cluster) ([]models.Validator, error)
	ClusterNodes(ctx context.Context, cl cluster.Cluster) ([]rpc.ClusterNode, error)
	Balance(ctx context.Context, cl cluster.Cluster, account string) (uint64, error)
	Close()
}

type opener func(ctx context.Context) (*config.Config, Updater, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "updater",
		Short:         "Reconcile Velas validator credits and rewards into Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	credits := func(cmd *cobra.Command, _ []string) error {
		return withUpdater(cmd, open, func(ctx context.Context, cfg *config.Config, u Updater) error {
			targets, err := cfg.CreditsTargets()
			if err != nil {
				return err
			}
			outs, err := u.UpdateCredits(ctx, targets)
			printOutputs(cmd, outs)
			return err
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "update-credits",
		Short: "Replace the last epochs of vote credits for every validator on the credits clusters",
		Args:  cobra.NoArgs,
		RunE:  credits,
	})
	root.AddCommand(&cobra.Command{
		Use:   "update-clusters",
		Short: "Alias of update-credits",
		Args:  cobra.NoArgs,
		RunE:  credits,
	})

	rewards := &cobra.Command{
		Use:   "update-rewards",
		Short: "Replace the last epochs of staking rewards for every known validator on the rewards clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUpdater(cmd, open, func(ctx context.Context, cfg *config.Config, u Updater) error {
				targets, err := cfg.RewardsTargets()
				if err != nil {
					return err
				}
				n := cfg.RewardsEpochs
				if cmd.Flags().Changed("num-epoches") {
					n, _ = cmd.Flags().GetInt("num-epoches")
				}
				outs, err := u.UpdateRewards(ctx, targets, n)
				printOutputs(cmd, outs)
				return err
			})
		},
	}
	rewards.Flags().Int("num-epoches", 1, "number of epochs to fetch per validator, clamped to [1, 10]")
	root.AddCommand(rewards)

	epochInfo := &cobra.Command{
		Use:   "epoch-info",
		Short: "Print the current epoch of a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("cluster")
			cl, err := cluster.Parse(name)
			if err != nil {
				return err
			}
			return withUpdater(cmd, open, func(ctx context.Context, _ *config.Config, u Updater) error {
				info, err := u.EpochInfo(ctx, cl)
				if err != nil {
					return err
				}
				cmd.Printf("cluster:   %s\n", cl)
				cmd.Printf("epoch:     %d\n", info.Epoch)
				cmd.Printf("slot:      %d/%d (%.1f%%)\n", info.SlotIndex, info.SlotsInEpoch, info.Progress()*100)
				cmd.Printf("height:    %d\n", info.BlockHeight)
				return nil
			})
		},
	}
	epochInfo.Flags().String("cluster", cluster.Mainnet.String(), "cluster to query")
	root.AddCommand(epochInfo)

	listValidators := &cobra.Command{
		Use:   "list-validators",
		Short: "List the validators first seen on a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("cluster")
			cl, err := cluster.Parse(name)
			if err != nil {
				return err
			}
			return withUpdater(cmd, open, func(ctx context.Context, _ *config.Config, u Updater) error {
				vs, err := u.Validators(ctx, cl)
				if err != nil {
					return err
				}
				for _, v := range vs {
					cmd.Printf("%d\t%s\t%s\n", v.ID, v.NodePK, v.VotePK)
				}
				return nil
			})
		},
	}
	listValidators.Flags().String("cluster", cluster.Mainnet.String(), "cluster to list")
	root.AddCommand(listValidators)

	clusterNodes := &cobra.Command{
		Use:   "cluster-nodes",
		Short: "List the gossip peers of a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("cluster")
			cl, err := cluster.Parse(name)
			if err != nil {
				return err
			}
			return withUpdater(cmd, open, func(ctx context.Context, _ *config.Config, u Updater) error {
				nodes, err := u.ClusterNodes(ctx, cl)
				if err != nil {
					return err
				}
				for _, n := range nodes {
					cmd.Printf("%s\t%s\t%s\t%s\n", n.Pubkey, orDash(n.Gossip), orDash(n.RPC), orDash(n.Version))
				}
				return nil
			})
		},
	}
	clusterNodes.Flags().String("cluster", cluster.Mainnet.String(), "cluster to query")
	root.AddCommand(clusterNodes)

	balance := &cobra.Command{
		Use:   "balance <account>",
		Short: "Print the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("cluster")
			cl, err := cluster.Parse(name)
			if err != nil {
				return err
			}
			return withUpdater(cmd, open, func(ctx context.Context, _ *config.Config, u Updater) error {
				lamports, err := u.Balance(ctx, cl, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("%s: %d lamports (%.2f VLX)\n", args[0], lamports, readmodel.ToTokens(int64(lamports)))
				return nil
			})
		},
	}
	balance.Flags().String("cluster", cluster.Mainnet.String(), "cluster to query")
	root.AddCommand(balance)

	return root
}

func withUpdater(cmd *cobra.Command, open opener, fn func(ctx context.Context, cfg *config.Config, u Updater) error) error {
	ctx := cmd.Context()
	cfg, u, err := open(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer u.Close()
	return fn(ctx, cfg, u)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func printOutputs(cmd *cobra.Command, outs []updatertypes.ReconcileOutput) {
	for _, o := range outs {
		cmd.Printf("%s %s: %d validators (%d new), %d rows in %.0fms\n",
			o.Kind, o.Cluster, o.ValidatorsSeen, o.ValidatorsCreated, o.RowsWritten, o.DurationMs)
	}
}
