// Package grabber shells out to the node CLI to read per-epoch reward payouts of a vote account.
package grabber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/metrics"
)

const (
	MaxEpochs      = 10
	DefaultTimeout = 2 * time.Minute
)

var (
	// ErrCommandFailed covers a non-zero exit, a timeout or a binary that cannot be started.
	ErrCommandFailed = errors.New("reward command failed")
	// ErrMalformedOutput means the command exited cleanly but stdout was not the expected JSON.
	ErrMalformedOutput = errors.New("malformed reward output")
)

// EpochReward is one payout reported by the CLI, in the smallest native unit.
type EpochReward struct {
	Epoch  uint64
	Amount int64
}

// Fetcher is what the reconciler needs from the grabber.
type Fetcher interface {
	FetchRewards(ctx context.Context, voteAccount, endpoint string, numEpochs int) (*RewardSeq, error)
}

// Grabber runs `<binary> vote-account ...` synchronously, one call per vote account.
type Grabber struct {
	Binary  string
	Timeout time.Duration
	Runner  Runner
	Logger  *zap.Logger
}

// New returns a Grabber that executes binary through the operating system.
func New(binary string, timeout time.Duration, logger *zap.Logger) *Grabber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Grabber{Binary: binary, Timeout: timeout, Runner: ExecRunner{}, Logger: logger}
}

// ClampEpochs maps anything outside [1, MaxEpochs] to MaxEpochs.
func ClampEpochs(n int) int {
	if n < 1 || n > MaxEpochs {
		return MaxEpochs
	}
	return n
}

// CommandArgs builds the CLI arguments for one vote account.
func CommandArgs(voteAccount, endpoint string, numEpochs int) []string {
	return []string{
		"vote-account", voteAccount,
		"--url", endpoint,
		"--with-rewards",
		"--num-rewards-epochs", strconv.Itoa(ClampEpochs(numEpochs)),
		"--output", "json",
	}
}

// FetchRewards invokes the CLI and returns its epochRewards as a single-use sequence.
// The call blocks until the process exits or Timeout elapses.
func (g *Grabber) FetchRewards(ctx context.Context, voteAccount, endpoint string, numEpochs int) (*RewardSeq, error) {
	start := time.Now()
	args := CommandArgs(voteAccount, endpoint, numEpochs)

	g.Logger.Debug("Grabbing rewards",
		zap.String("vote_account", voteAccount),
		zap.String("endpoint", endpoint),
		zap.Strings("args", args))

	runCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	stdout, err := g.Runner.Run(runCtx, g.Binary, args...)
	if err != nil {
		metrics.ObserveGrabber("failed", time.Since(start))
		return nil, fmt.Errorf("vote account %s: %w", voteAccount, err)
	}

	rewards, err := parseRewards(stdout)
	if err != nil {
		metrics.ObserveGrabber("malformed", time.Since(start))
		return nil, fmt.Errorf("vote account %s: %w", voteAccount, err)
	}
	metrics.ObserveGrabber("ok", time.Since(start))

	return NewRewardSeq(rewards), nil
}

type voteAccountOutput struct {
	EpochRewards *[]struct {
		Epoch  json.Number `json:"epoch"`
		Amount json.Number `json:"amount"`
	} `json:"epochRewards"`
}

func parseRewards(stdout []byte) ([]EpochReward, error) {
	var out voteAccountOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if out.EpochRewards == nil {
		return nil, fmt.Errorf("%w: missing epochRewards", ErrMalformedOutput)
	}

	rewards := make([]EpochReward, 0, len(*out.EpochRewards))
	for i, r := range *out.EpochRewards {
		epoch, err := strconv.ParseUint(r.Epoch.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d epoch %q", ErrMalformedOutput, i, r.Epoch)
		}
		amount, err := strconv.ParseInt(r.Amount.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d amount %q", ErrMalformedOutput, i, r.Amount)
		}
		rewards = append(rewards, EpochReward{Epoch: epoch, Amount: amount})
	}
	return rewards, nil
}
