package ledger

import (
	"context"
	"fmt"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/db/postgres"
)

func (db *DB) initValidators(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS validators (
			id BIGSERIAL PRIMARY KEY,
			node_pk TEXT NOT NULL UNIQUE,
			vote_pk TEXT NOT NULL,
			cluster SMALLINT NOT NULL
		)
	`
	return db.Exec(ctx, query)
}

// GetOrCreateValidator inserts the validator unless node_pk already exists. An existing
// row is returned untouched even if votePK or cl differ from what is stored.
func (db *DB) GetOrCreateValidator(ctx context.Context, nodePK, votePK string, cl cluster.Cluster) (models.Validator, bool, error) {
	insert := `
		INSERT INTO validators (node_pk, vote_pk, cluster)
		VALUES ($1, $2, $3)
		ON CONFLICT (node_pk) DO NOTHING
		RETURNING id
	`

	var id int64
	err := db.QueryRow(ctx, insert, nodePK, votePK, int16(cl)).Scan(&id)
	if err == nil {
		return models.Validator{ID: id, NodePK: nodePK, VotePK: votePK, Cluster: cl}, true, nil
	}
	if !postgres.IsNoRows(err) {
		return models.Validator{}, false, fmt.Errorf("failed to insert validator %s: %w", nodePK, err)
	}

	v, err := db.getValidator(ctx, nodePK)
	if err != nil {
		return models.Validator{}, false, err
	}
	return v, false, nil
}

func (db *DB) getValidator(ctx context.Context, nodePK string) (models.Validator, error) {
	query := `
		SELECT id, node_pk, vote_pk, cluster
		FROM validators
		WHERE node_pk = $1
	`

	var (
		v  models.Validator
		cv int16
	)
	if err := db.QueryRow(ctx, query, nodePK).Scan(&v.ID, &v.NodePK, &v.VotePK, &cv); err != nil {
		if postgres.IsNoRows(err) {
			return models.Validator{}, fmt.Errorf("validator %s not found", nodePK)
		}
		return models.Validator{}, fmt.Errorf("failed to query validator %s: %w", nodePK, err)
	}

	cl, err := cluster.FromValue(cv)
	if err != nil {
		return models.Validator{}, fmt.Errorf("validator %s: %w", nodePK, err)
	}
	v.Cluster = cl
	return v, nil
}

// ListValidators returns the validators first seen on cl, ordered by id.
func (db *DB) ListValidators(ctx context.Context, cl cluster.Cluster) ([]models.Validator, error) {
	query := `
		SELECT id, node_pk, vote_pk
		FROM validators
		WHERE cluster = $1
		ORDER BY id
	`

	rows, err := db.Query(ctx, query, int16(cl))
	if err != nil {
		return nil, fmt.Errorf("failed to list validators for %s: %w", cl, err)
	}
	defer rows.Close()

	var out []models.Validator
	for rows.Next() {
		v := models.Validator{Cluster: cl}
		if err := rows.Scan(&v.ID, &v.NodePK, &v.VotePK); err != nil {
			return nil, fmt.Errorf("failed to scan validator: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
