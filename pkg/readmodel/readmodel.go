// Package readmodel turns stored per-epoch records into the tables the dashboard renders.
package readmodel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/utils"
)

const (
	DefaultCreditsWindow = 5
	DefaultRewardsWindow = 15
	MaxWindow            = 500

	lamportsPerToken = 1_000_000_000
)

var ErrInvalidWindow = errors.New("invalid window")

// Reader is the read side of the ledger store.
type Reader interface {
	MaxEpoch(ctx context.Context, kind models.RecordKind, cl cluster.Cluster) (uint64, bool, error)
	WindowRows(ctx context.Context, kind models.RecordKind, cl cluster.Cluster, minExclusive int64) ([]models.WindowRow, error)
}

// Value is what a table cell can hold.
type Value interface {
	int64 | float64
}

// ValidatorRow is one line of a table: a validator and its value per epoch.
type ValidatorRow[T Value] struct {
	ValidatorID int64        `json:"validator_id"`
	NodePK      string       `json:"node_pk"`
	VotePK      string       `json:"vote_pk"`
	Values      map[uint64]T `json:"values"`
}

// Cell formats the value for epoch, or returns "" when the validator has no record for it.
func (r ValidatorRow[T]) Cell(epoch uint64) string {
	v, ok := r.Values[epoch]
	if !ok {
		return ""
	}
	switch x := any(v).(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}

// Table holds every epoch greater than max_epoch - Window, sorted ascending, and one row
// per validator with at least one record in that range, ordered by validator id.
type Table[T Value] struct {
	Cluster    cluster.Cluster   `json:"cluster"`
	Kind       models.RecordKind `json:"kind"`
	Window     int               `json:"window"`
	Epochs     []uint64          `json:"epochs"`
	Validators []ValidatorRow[T] `json:"validators"`
}

// Empty reports whether the cluster had no records at all.
func (t Table[T]) Empty() bool {
	return len(t.Epochs) == 0
}

// Credits builds the credits table of cl over the last window epochs.
func Credits(ctx context.Context, r Reader, cl cluster.Cluster, window int) (Table[int64], error) {
	return build(ctx, r, models.Credits, cl, window, func(v int64) int64 { return v })
}

// Rewards builds the rewards table of cl over the last window epochs, in whole tokens
// rounded to two decimals.
func Rewards(ctx context.Context, r Reader, cl cluster.Cluster, window int) (Table[float64], error) {
	return build(ctx, r, models.Rewards, cl, window, ToTokens)
}

// ToTokens converts an amount in the smallest unit to tokens rounded to two decimals.
func ToTokens(amount int64) float64 {
	return utils.Round(float64(amount)/lamportsPerToken, 2)
}

// MinExclusive is the lower bound of a window ending at maxEpoch. It can be negative.
func MinExclusive(maxEpoch uint64, window int) int64 {
	return int64(maxEpoch) - int64(window)
}

func build[T Value](ctx context.Context, r Reader, kind models.RecordKind, cl cluster.Cluster, window int, conv func(int64) T) (Table[T], error) {
	table := Table[T]{
		Cluster:    cl,
		Kind:       kind,
		Window:     window,
		Epochs:     []uint64{},
		Validators: []ValidatorRow[T]{},
	}
	if window < 1 || window > MaxWindow {
		return table, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWindow, window, MaxWindow)
	}

	maxEpoch, ok, err := r.MaxEpoch(ctx, kind, cl)
	if err != nil {
		return table, err
	}
	if !ok {
		return table, nil
	}

	rows, err := r.WindowRows(ctx, kind, cl, MinExclusive(maxEpoch, window))
	if err != nil {
		return table, err
	}

	epochs := map[uint64]struct{}{}
	byID := map[int64]int{}
	for _, row := range rows {
		epochs[row.Epoch] = struct{}{}
		i, seen := byID[row.ValidatorID]
		if !seen {
			i = len(table.Validators)
			byID[row.ValidatorID] = i
			table.Validators = append(table.Validators, ValidatorRow[T]{
				ValidatorID: row.ValidatorID,
				NodePK:      row.NodePK,
				VotePK:      row.VotePK,
				Values:      map[uint64]T{},
			})
		}
		table.Validators[i].Values[row.Epoch] = conv(row.Value)
	}

	for e := range epochs {
		table.Epochs = append(table.Epochs, e)
	}
	sort.Slice(table.Epochs, func(i, j int) bool { return table.Epochs[i] < table.Epochs[j] })
	sort.SliceStable(table.Validators, func(i, j int) bool {
		return table.Validators[i].ValidatorID < table.Validators[j].ValidatorID
	})

	return table, nil
}
