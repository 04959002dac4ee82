package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
)

func (db *DB) initRecords(ctx context.Context) error {
	for _, kind := range []models.RecordKind{models.Credits, models.Rewards} {
		table := kind.Table()
		queries := []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					validator_id BIGINT NOT NULL REFERENCES validators(id),
					cluster SMALLINT NOT NULL,
					epoch_no BIGINT NOT NULL,
					%s BIGINT NOT NULL
				)
			`, table, kind.Column()),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_cluster_epoch_idx ON %s (cluster, epoch_no)`, table, table),
			// tables created before the unique key may hold duplicates; keep the newest row
			fmt.Sprintf(`
				DELETE FROM %s a USING %s b
				WHERE a.ctid < b.ctid
					AND a.validator_id = b.validator_id
					AND a.cluster = b.cluster
					AND a.epoch_no = b.epoch_no
			`, table, table),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_validator_cluster_epoch_key ON %s (validator_id, cluster, epoch_no)`, table, table),
			fmt.Sprintf(`DROP INDEX IF EXISTS %s_validator_cluster_epoch_idx`, table),
		}
		for _, q := range queries {
			if err := db.Exec(ctx, q); err != nil {
				return fmt.Errorf("%s: %w", table, err)
			}
		}
	}
	return nil
}

// ReplaceEpochRows deletes every row of (validatorID, cl) whose epoch appears in rows, then
// inserts rows, in one transaction. Rows of other validators or other clusters that share
// an epoch number are not touched. When rows repeats an epoch the last value wins, and a
// concurrent replace of the same epoch updates the row instead of duplicating it.
func (db *DB) ReplaceEpochRows(ctx context.Context, kind models.RecordKind, validatorID int64, cl cluster.Cluster, rows []models.EpochValue) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if len(rows) == 0 {
		return nil
	}

	table := pgx.Identifier{kind.Table()}.Sanitize()
	column := pgx.Identifier{kind.Column()}.Sanitize()

	rows = lastPerEpoch(rows)
	epochs := make([]int64, len(rows))
	for i, r := range rows {
		epochs[i] = int64(r.Epoch)
	}

	deleteQuery := fmt.Sprintf(`
		DELETE FROM %s
		WHERE validator_id = $1 AND cluster = $2 AND epoch_no = ANY($3)
	`, table)
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (validator_id, cluster, epoch_no, %s)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (validator_id, cluster, epoch_no) DO UPDATE SET %s = EXCLUDED.%s
	`, table, column, column, column)

	err := db.BeginFunc(ctx, func(ctx context.Context) error {
		if err := db.Exec(ctx, deleteQuery, validatorID, int16(cl), epochs); err != nil {
			return fmt.Errorf("delete: %w", err)
		}

		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(insertQuery, validatorID, int16(cl), int64(r.Epoch), r.Value)
		}

		br := db.GetExecutor(ctx).SendBatch(ctx, batch)
		for range rows {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to replace %s of validator %d on %s: %w", kind, validatorID, cl, err)
	}
	return nil
}

// lastPerEpoch keeps the last value given for each epoch, sorted by epoch so concurrent
// writers lock rows in the same order.
func lastPerEpoch(rows []models.EpochValue) []models.EpochValue {
	idx := make(map[uint64]int, len(rows))
	out := make([]models.EpochValue, 0, len(rows))
	for _, r := range rows {
		if i, ok := idx[r.Epoch]; ok {
			out[i].Value = r.Value
			continue
		}
		idx[r.Epoch] = len(out)
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.EpochValue) int { return cmp.Compare(a.Epoch, b.Epoch) })
	return out
}

// MaxEpoch returns the newest epoch stored for cl. ok is false when the cluster has no rows.
func (db *DB) MaxEpoch(ctx context.Context, kind models.RecordKind, cl cluster.Cluster) (uint64, bool, error) {
	if !kind.Valid() {
		return 0, false, fmt.Errorf("unknown record kind %q", kind)
	}

	query := fmt.Sprintf(`SELECT MAX(epoch_no) FROM %s WHERE cluster = $1`, pgx.Identifier{kind.Table()}.Sanitize())

	var maxEpoch *int64
	if err := db.QueryRow(ctx, query, int16(cl)).Scan(&maxEpoch); err != nil {
		return 0, false, fmt.Errorf("failed to query max %s epoch for %s: %w", kind, cl, err)
	}
	if maxEpoch == nil {
		return 0, false, nil
	}
	return uint64(*maxEpoch), true, nil
}

// WindowRows returns the records of cl with epoch_no > minExclusive, joined with their
// validators and ordered by validator id then epoch.
func (db *DB) WindowRows(ctx context.Context, kind models.RecordKind, cl cluster.Cluster, minExclusive int64) ([]models.WindowRow, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	query := fmt.Sprintf(`
		SELECT v.id, v.node_pk, v.vote_pk, r.epoch_no, r.%s
		FROM %s r
		JOIN validators v ON v.id = r.validator_id
		WHERE r.cluster = $1 AND r.epoch_no > $2
		ORDER BY v.id, r.epoch_no
	`, pgx.Identifier{kind.Column()}.Sanitize(), pgx.Identifier{kind.Table()}.Sanitize())

	rows, err := db.Query(ctx, query, int16(cl), minExclusive)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s window for %s: %w", kind, cl, err)
	}
	defer rows.Close()

	out := make([]models.WindowRow, 0)
	for rows.Next() {
		var (
			r     models.WindowRow
			epoch int64
		)
		if err := rows.Scan(&r.ValidatorID, &r.NodePK, &r.VotePK, &epoch, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", kind, err)
		}
		r.Epoch = uint64(epoch)
		out = append(out, r)
	}
	return out, rows.Err()
}
