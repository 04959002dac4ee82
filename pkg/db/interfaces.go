package db

import (
	"context"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
)

// LedgerStore is the persistence surface used by the reconciler and the dashboard.
type LedgerStore interface {
	// GetOrCreateValidator returns the validator keyed by nodePK, inserting it with votePK and
	// cl when absent. created is true only for a fresh insert.
	GetOrCreateValidator(ctx context.Context, nodePK, votePK string, cl cluster.Cluster) (v models.Validator, created bool, err error)
	ListValidators(ctx context.Context, cl cluster.Cluster) ([]models.Validator, error)
	// ReplaceEpochRows deletes the rows of (validatorID, cl) whose epoch is in rows and
	// inserts rows, atomically.
	ReplaceEpochRows(ctx context.Context, kind models.RecordKind, validatorID int64, cl cluster.Cluster, rows []models.EpochValue) error
	MaxEpoch(ctx context.Context, kind models.RecordKind, cl cluster.Cluster) (uint64, bool, error)
	WindowRows(ctx context.Context, kind models.RecordKind, cl cluster.Cluster, minExclusive int64) ([]models.WindowRow, error)
	Ping(ctx context.Context) error
	Close() error
}
