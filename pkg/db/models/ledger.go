package models

import (
	"github.com/velastools/velastools/pkg/cluster"
)

const (
	ValidatorsTableName = "validators"
	CreditsTableName    = "credits"
	RewardsTableName    = "rewards"
)

// RecordKind selects which per-epoch table a write or read targets.
type RecordKind string

const (
	Credits RecordKind = "credits"
	Rewards RecordKind = "rewards"
)

// Table returns the table name backing the kind.
func (k RecordKind) Table() string {
	if k == Rewards {
		return RewardsTableName
	}
	return CreditsTableName
}

// Column returns the value column of the kind's table.
func (k RecordKind) Column() string {
	return k.Table()
}

// Valid reports whether k is one of the two known kinds.
func (k RecordKind) Valid() bool {
	return k == Credits || k == Rewards
}

// Validator is immutable once created: node_pk is the identity, vote_pk and cluster are
// whatever was observed first.
type Validator struct {
	ID      int64           `json:"id"`
	NodePK  string          `json:"node_pk"`
	VotePK  string          `json:"vote_pk"`
	Cluster cluster.Cluster `json:"cluster"`
}

// EpochValue is a single fresh per-epoch figure produced by a reconcile pass.
type EpochValue struct {
	Epoch uint64 `json:"epoch"`
	Value int64  `json:"value"`
}

// Epochs lists the epoch numbers of rows in input order.
func Epochs(rows []EpochValue) []uint64 {
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = r.Epoch
	}
	return out
}

// WindowRow is one record joined with its validator, as read by the dashboard.
type WindowRow struct {
	ValidatorID int64
	NodePK      string
	VotePK      string
	Epoch       uint64
	Value       int64
}
