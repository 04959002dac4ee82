package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// VoteAccounts is the getVoteAccounts result: validators voting in the current epoch and
// the ones that have fallen behind.
type VoteAccounts struct {
	Current    []VoteAccount `json:"current"`
	Delinquent []VoteAccount `json:"delinquent"`
}

// VoteAccount is a single entry of getVoteAccounts.
type VoteAccount struct {
	NodePubkey       string        `json:"nodePubkey"`
	VotePubkey       string        `json:"votePubkey"`
	ActivatedStake   uint64        `json:"activatedStake"`
	Commission       uint8         `json:"commission"`
	EpochVoteAccount bool          `json:"epochVoteAccount"`
	LastVote         uint64        `json:"lastVote"`
	RootSlot         uint64        `json:"rootSlot"`
	EpochCredits     []EpochCredit `json:"epochCredits"`
}

// EpochCredit is one [epoch, credits, previousCredits] triple. Credits are cumulative
// counters, so the epoch's earned credits are Max minus Min.
type EpochCredit struct {
	Epoch uint64
	Max   int64
	Min   int64
}

// Delta returns the credits earned within the epoch.
func (e EpochCredit) Delta() int64 {
	return e.Max - e.Min
}

func (e *EpochCredit) UnmarshalJSON(b []byte) error {
	var triple []json.Number
	if err := json.Unmarshal(b, &triple); err != nil {
		return fmt.Errorf("epoch credit: %w", err)
	}
	if len(triple) != 3 {
		return fmt.Errorf("epoch credit: want 3 elements, got %d", len(triple))
	}
	epoch, err := parseUint(triple[0])
	if err != nil {
		return fmt.Errorf("epoch credit epoch: %w", err)
	}
	maxCredits, err := triple[1].Int64()
	if err != nil {
		return fmt.Errorf("epoch credit max: %w", err)
	}
	minCredits, err := triple[2].Int64()
	if err != nil {
		return fmt.Errorf("epoch credit min: %w", err)
	}
	*e = EpochCredit{Epoch: epoch, Max: maxCredits, Min: minCredits}
	return nil
}

func (e EpochCredit) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int64{int64(e.Epoch), e.Max, e.Min})
}

func parseUint(n json.Number) (uint64, error) {
	v, err := n.Int64()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return uint64(v), nil
}

// MergeVoteAccounts concatenates current and delinquent in that order, keeping duplicates.
func MergeVoteAccounts(v VoteAccounts) []VoteAccount {
	out := make([]VoteAccount, 0, len(v.Current)+len(v.Delinquent))
	out = append(out, v.Current...)
	out = append(out, v.Delinquent...)
	return out
}

// GetVoteAccounts returns the current and delinquent validator sets as reported.
func (c *HTTPClient) GetVoteAccounts(ctx context.Context) (VoteAccounts, error) {
	var out VoteAccounts
	if err := c.Call(ctx, methodGetVoteAccounts, nil, &out); err != nil {
		return VoteAccounts{}, err
	}
	return out, nil
}

// GetVoteAccountsMerged returns current followed by delinquent validators as one list.
func (c *HTTPClient) GetVoteAccountsMerged(ctx context.Context) ([]VoteAccount, error) {
	v, err := c.GetVoteAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return MergeVoteAccounts(v), nil
}
