package csvdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"school-bus-routing/internal/domain"
	"school-bus-routing/internal/platform/obs"
	"sort"
	"strconv"
	"strings"
)

const (
	nodesSuffix    = "_nodes.csv"
	distanceSuffix = "_distanceMatrix.csv"
	timeSuffix     = "_timeMatrix.csv"

	nodeColumns = 10
)

// CSVInstanceRepository reads instances from a folder holding
// <name>_nodes.csv, <name>_distanceMatrix.csv and <name>_timeMatrix.csv.
type CSVInstanceRepository struct {
	dir string
}

func NewCSVInstanceRepository(dir string) *CSVInstanceRepository {
	return &CSVInstanceRepository{dir: dir}
}

func (r *CSVInstanceRepository) LoadInstance(ctx context.Context, name string) (_ *domain.Instance, err error) {
	defer obs.Time(ctx, "csv.LoadInstance")(&err)

	if strings.TrimSpace(name) == "" {
		return nil, errors.New("csv load instance: name is required")
	}

	nodes, err := readFile(filepath.Join(r.dir, name+nodesSuffix), ReadNodes)
	if err != nil {
		return nil, fmt.Errorf("csv load instance %q: %w", name, err)
	}
	table, err := domain.NewNodeTable(nodes)
	if err != nil {
		return nil, fmt.Errorf("csv load instance %q: %w", name, err)
	}

	distRows, err := readFile(filepath.Join(r.dir, name+distanceSuffix), ReadMatrix)
	if err != nil {
		return nil, fmt.Errorf("csv load instance %q: %w", name, err)
	}
	distances, err := domain.NewDistanceMatrix(distRows)
	if err != nil {
		return nil, fmt.Errorf("csv load instance %q: distance matrix: %w", name, err)
	}

	instance := &domain.Instance{Name: name, Nodes: table, Distances: distances}

	timeRows, err := readFile(filepath.Join(r.dir, name+timeSuffix), ReadMatrix)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("csv load instance: no time matrix instance=%s", name)
	case err != nil:
		return nil, fmt.Errorf("csv load instance %q: %w", name, err)
	default:
		times, err := domain.NewDistanceMatrix(timeRows)
		if err != nil {
			return nil, fmt.Errorf("csv load instance %q: time matrix: %w", name, err)
		}
		instance.Times = times
	}

	log.Printf("csv instance loaded instance=%s nodes=%d matrix=%d", name, table.Len(), distances.Size())
	return instance, nil
}

// ListInstances returns the names of every <name>_nodes.csv in the folder, sorted.
func (r *CSVInstanceRepository) ListInstances(ctx context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*"+nodesSuffix))
	if err != nil {
		return nil, fmt.Errorf("csv list instances: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), nodesSuffix))
	}
	sort.Strings(names)
	return names, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T

	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// ReadNodes parses node rows:
//
//	id, id2, id3, lat, lon, type, children_to_cluster_1..4
//
// Rows with a different column count are skipped. A leading header row is
// tolerated.
func ReadNodes(r io.Reader) ([]domain.Node, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var nodes []domain.Node
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read nodes: %w", err)
		}
		line++

		if len(rec) != nodeColumns {
			continue
		}
		if line == 1 && !isNumeric(rec[0]) {
			continue
		}

		n, err := parseNode(rec)
		if err != nil {
			return nil, fmt.Errorf("read nodes: line %d: %w", line, err)
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}

func parseNode(rec []string) (domain.Node, error) {
	id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
	if err != nil {
		return domain.Node{}, fmt.Errorf("id: %w", err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
	if err != nil {
		return domain.Node{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
	if err != nil {
		return domain.Node{}, fmt.Errorf("longitude: %w", err)
	}

	n := domain.Node{
		ID:   domain.NodeID(id),
		Role: domain.ParseRole(rec[5]),
		Lat:  lat,
		Lon:  lon,
	}
	for k := 0; k < domain.ClusterCount; k++ {
		c, err := strconv.Atoi(strings.TrimSpace(rec[6+k]))
		if err != nil {
			return domain.Node{}, fmt.Errorf("children to cluster %d: %w", k+1, err)
		}
		n.Demand[k] = c
	}

	return n, nil
}

// ReadMatrix parses a headerless numeric matrix. "nan" parses to NaN.
func ReadMatrix(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read matrix: %w", err)
		}

		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("read matrix: row %d col %d: %w", len(rows)+1, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
