package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"school-bus-routing/internal/domain"
	"school-bus-routing/internal/platform/obs"
	"school-bus-routing/internal/ports"
)

// Postgres-backed implementation of the InstanceRepository port.
// Matrices are read through Cache when one is set.
type PostgresInstanceRepository struct {
	DB    *sql.DB
	Cache ports.MatrixCache
}

func NewPostgresInstanceRepository(db *sql.DB, cache ports.MatrixCache) *PostgresInstanceRepository {
	return &PostgresInstanceRepository{DB: db, Cache: cache}
}

func (p *PostgresInstanceRepository) LoadInstance(ctx context.Context, name string) (_ *domain.Instance, err error) {
	defer obs.Time(ctx, "postgres.LoadInstance")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres instance repository: DB is nil")
	}

	var size int
	err = p.DB.QueryRowContext(ctx, `SELECT matrix_size FROM instances WHERE name = $1;`, name).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load instance %q: %w", name, ErrInstanceNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load instance %q: query instances table: %w", name, err)
	}

	nodes, err := p.loadNodes(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}
	table, err := domain.NewNodeTable(nodes)
	if err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}

	m, err := p.matrices(ctx, name, size)
	if err != nil {
		return nil, fmt.Errorf("load instance %q: %w", name, err)
	}

	distances, err := domain.NewDistanceMatrix(m.Distances)
	if err != nil {
		return nil, fmt.Errorf("load instance %q: distance matrix: %w", name, err)
	}
	instance := &domain.Instance{Name: name, Nodes: table, Distances: distances}

	if len(m.Times) > 0 {
		times, err := domain.NewDistanceMatrix(m.Times)
		if err != nil {
			return nil, fmt.Errorf("load instance %q: time matrix: %w", name, err)
		}
		instance.Times = times
	}

	return instance, nil
}

// Return all stored instance names in alphabetical order.
func (p *PostgresInstanceRepository) ListInstances(ctx context.Context) ([]string, error) {
	if p.DB == nil {
		return nil, errors.New("postgres instance repository: DB is nil")
	}

	rows, err := p.DB.QueryContext(ctx, `SELECT name FROM instances ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list instances: query instances table: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, 8)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list instances: scan row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list instances: row iteration: %w", err)
	}

	return names, nil
}

func (p *PostgresInstanceRepository) loadNodes(ctx context.Context, name string) ([]domain.Node, error) {
	query := `
	SELECT
		node_id,
		role,
		lat,
		lon,
		children_1,
		children_2,
		children_3,
		children_4
	FROM nodes
	WHERE instance = $1
	ORDER BY position;
	`
	rows, err := p.DB.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query nodes table: %w", err)
	}
	defer rows.Close()

	nodes := make([]domain.Node, 0, 64)
	for rows.Next() {
		var id int
		var role string
		var n domain.Node
		err := rows.Scan(&id, &role, &n.Lat, &n.Lon, &n.Demand[0], &n.Demand[1], &n.Demand[2], &n.Demand[3])
		if err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		n.ID = domain.NodeID(id)
		n.Role = domain.ParseRole(role)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("node row iteration: %w", err)
	}

	return nodes, nil
}

// matrices returns the instance matrices, consulting the cache first.
func (p *PostgresInstanceRepository) matrices(ctx context.Context, name string, size int) (ports.Matrices, error) {
	if p.Cache != nil {
		m, ok, err := p.Cache.Get(ctx, name)
		if err != nil {
			return ports.Matrices{}, fmt.Errorf("get matrix cache: %w", err)
		}
		if ok {
			return m, nil
		}
	}

	cells, err := p.loadCells(ctx, name)
	if err != nil {
		return ports.Matrices{}, err
	}

	m := ports.Matrices{}
	if m.Distances, err = assembleMatrix(size, cells[matrixDistance]); err != nil {
		return ports.Matrices{}, fmt.Errorf("%s matrix: %w", matrixDistance, err)
	}
	if len(cells[matrixTime]) > 0 {
		if m.Times, err = assembleMatrix(size, cells[matrixTime]); err != nil {
			return ports.Matrices{}, fmt.Errorf("%s matrix: %w", matrixTime, err)
		}
	}

	if p.Cache != nil {
		if err := p.Cache.Put(ctx, name, m); err != nil {
			log.Printf("matrix cache write failed instance=%s: %v", name, err)
		}
	}

	return m, nil
}

type matrixCell struct {
	Row, Col int
	Value    float64
}

func (p *PostgresInstanceRepository) loadCells(ctx context.Context, name string) (map[string][]matrixCell, error) {
	query := `
	SELECT kind, row_idx, col_idx, value
	FROM matrix_cells
	WHERE instance = $1;
	`
	rows, err := p.DB.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query matrix_cells table: %w", err)
	}
	defer rows.Close()

	out := map[string][]matrixCell{}
	for rows.Next() {
		var kind string
		var c matrixCell
		if err := rows.Scan(&kind, &c.Row, &c.Col, &c.Value); err != nil {
			return nil, fmt.Errorf("scan matrix cell: %w", err)
		}
		out[kind] = append(out[kind], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("matrix cell iteration: %w", err)
	}

	return out, nil
}

// assembleMatrix lays cells out in a size x size grid. Every cell must be present exactly once.
func assembleMatrix(size int, cells []matrixCell) ([][]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid matrix size %d", size)
	}
	if len(cells) != size*size {
		return nil, fmt.Errorf("have %d cells, want %d", len(cells), size*size)
	}

	rows := make([][]float64, size)
	seen := make([][]bool, size)
	for i := range rows {
		rows[i] = make([]float64, size)
		seen[i] = make([]bool, size)
	}
	for _, c := range cells {
		if c.Row < 0 || c.Row >= size || c.Col < 0 || c.Col >= size {
			return nil, fmt.Errorf("cell (%d,%d) outside %dx%d matrix", c.Row, c.Col, size, size)
		}
		if seen[c.Row][c.Col] {
			return nil, fmt.Errorf("duplicate cell (%d,%d)", c.Row, c.Col)
		}
		seen[c.Row][c.Col] = true
		rows[c.Row][c.Col] = c.Value
	}

	return rows, nil
}
