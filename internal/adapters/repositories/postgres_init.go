package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"school-bus-routing/internal/domain"
)

const (
	matrixDistance = "distance"
	matrixTime     = "time"
)

var ErrInstanceNotFound = errors.New("instance not found")

// Initialize the Postgres schema holding instances, nodes and matrices.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createInstancesQuery := `
	CREATE TABLE IF NOT EXISTS instances (
		name TEXT PRIMARY KEY,
		matrix_size INTEGER NOT NULL
	);
	`

	createNodesQuery := `
	CREATE TABLE IF NOT EXISTS nodes (
		instance TEXT NOT NULL REFERENCES instances(name) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		node_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		children_1 INTEGER NOT NULL DEFAULT 0,
		children_2 INTEGER NOT NULL DEFAULT 0,
		children_3 INTEGER NOT NULL DEFAULT 0,
		children_4 INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (instance, node_id)
	);
	`

	createMatrixQuery := `
	CREATE TABLE IF NOT EXISTS matrix_cells (
		instance TEXT NOT NULL REFERENCES instances(name) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		row_idx INTEGER NOT NULL,
		col_idx INTEGER NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (instance, kind, row_idx, col_idx)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_nodes_instance_position
	ON nodes(instance, position);
	`

	statements := []string{
		createInstancesQuery,
		createNodesQuery,
		createMatrixQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Store an instance, replacing any previous copy under the same name.
func SeedInstance(ctx context.Context, db *sql.DB, in *domain.Instance) error {
	if db == nil {
		return errors.New("seed instance: DB is nil")
	}
	if in == nil || in.Nodes == nil || in.Distances == nil {
		return errors.New("seed instance: instance is incomplete")
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("seed instance: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed instance %q: begin tx: %w", in.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM instances WHERE name = $1;`, in.Name); err != nil {
		return fmt.Errorf("seed instance %q: delete previous: %w", in.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO instances (name, matrix_size) VALUES ($1, $2);`,
		in.Name, in.Distances.Size(),
	); err != nil {
		return fmt.Errorf("seed instance %q: insert instance: %w", in.Name, err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO nodes (
		instance, position, node_id, role, lat, lon,
		children_1, children_2, children_3, children_4
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`)
	if err != nil {
		return fmt.Errorf("seed instance %q: prepare nodes: %w", in.Name, err)
	}
	defer nodeStmt.Close()

	for pos, n := range in.Nodes.All() {
		if _, err := nodeStmt.ExecContext(ctx,
			in.Name, pos, int(n.ID), roleTag(n.Role), n.Lat, n.Lon,
			n.Demand[0], n.Demand[1], n.Demand[2], n.Demand[3],
		); err != nil {
			return fmt.Errorf("seed instance %q: insert node_id=%d: %w", in.Name, n.ID, err)
		}
	}

	cellStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO matrix_cells (instance, kind, row_idx, col_idx, value)
	VALUES ($1, $2, $3, $4, $5);
	`)
	if err != nil {
		return fmt.Errorf("seed instance %q: prepare matrix: %w", in.Name, err)
	}
	defer cellStmt.Close()

	matrices := map[string]*domain.DistanceMatrix{matrixDistance: in.Distances}
	if in.Times != nil {
		matrices[matrixTime] = in.Times
	}
	for kind, m := range matrices {
		for i, row := range m.Rows() {
			for j, v := range row {
				if _, err := cellStmt.ExecContext(ctx, in.Name, kind, i, j, v); err != nil {
					return fmt.Errorf("seed instance %q: insert %s cell (%d,%d): %w", in.Name, kind, i, j, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed instance %q: commit tx: %w", in.Name, err)
	}

	return nil
}

// roleTag maps a Role back to the tag ParseRole accepts.
func roleTag(r domain.Role) string {
	switch r {
	case domain.RoleDepot:
		return "deposito"
	case domain.RoleStop:
		return "fermata"
	case domain.RoleCluster:
		return "cluster"
	default:
		return "other"
	}
}
