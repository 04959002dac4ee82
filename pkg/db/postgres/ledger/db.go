// Package ledger stores validators and their per-epoch credits and rewards in PostgreSQL.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/db"
	"github.com/velastools/velastools/pkg/db/postgres"
)

var _ db.LedgerStore = (*DB)(nil)

// DB implements db.LedgerStore.
type DB struct {
	postgres.Client
}

// New connects to url and creates the schema when missing.
func New(ctx context.Context, logger *zap.Logger, url string, poolConfig *postgres.PoolConfig) (*DB, error) {
	if poolConfig == nil {
		poolConfig = postgres.GetPoolConfigForComponent("")
	}
	client, err := postgres.New(ctx, logger.With(zap.String("component", poolConfig.Component)), url, poolConfig)
	if err != nil {
		return nil, err
	}

	ledgerDB := &DB{Client: client}
	if err := ledgerDB.InitializeDB(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return ledgerDB, nil
}

// Close terminates the underlying PostgreSQL connection
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// InitializeDB ensures the required tables and indexes exist
func (db *DB) InitializeDB(ctx context.Context) error {
	db.Logger.Info("Initialize validators table")
	if err := db.initValidators(ctx); err != nil {
		return fmt.Errorf("init validators: %w", err)
	}

	db.Logger.Info("Initialize credits and rewards tables")
	if err := db.initRecords(ctx); err != nil {
		return fmt.Errorf("init records: %w", err)
	}

	return nil
}
