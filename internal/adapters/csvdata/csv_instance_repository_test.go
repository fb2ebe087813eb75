package csvdata

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"school-bus-routing/internal/domain"
	"strconv"
	"strings"
	"testing"
)

const nodesCSV = `id1,id2,id3,lat,lon,type,c1,c2,c3,c4
0,0,0,46.01,13.31,deposito,0,0,0,0
1,11,101,46.02,13.32,fermata,3,2,0,1
2,12,102,46.03,13.33,fermata,0,4,0,0
3,13,103,46.04,13.34,cluster,0,0,0,0
4,14,104,46.05,13.35,cluster,0,0,0,0
5,15,105,46.06,13.36,cluster,0,0,0,0
6,16,106,46.07,13.37,cluster,0,0,0,0
`

func matrixCSV(size int, scale float64) string {
	var b strings.Builder
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if j > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.FormatFloat(scale*math.Abs(float64(i-j)), 'g', -1, 64))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeInstance(t *testing.T, dir, name string, withTimes bool) {
	t.Helper()
	files := map[string]string{
		name + nodesSuffix:    nodesCSV,
		name + distanceSuffix: matrixCSV(8, 1),
	}
	if withTimes {
		files[name+timeSuffix] = matrixCSV(8, 2)
	}
	for f, body := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
}

func TestLoadInstance(t *testing.T) {
	dir := t.TempDir()
	writeInstance(t, dir, "buttrio", true)

	repo := NewCSVInstanceRepository(dir)
	in, err := repo.LoadInstance(context.Background(), "buttrio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if in.Nodes.Len() != 7 {
		t.Fatalf("nodes = %d, want 7", in.Nodes.Len())
	}
	if in.Nodes.Depot() != 0 {
		t.Fatalf("depot = %d, want 0", in.Nodes.Depot())
	}
	stop, ok := in.Nodes.Node(1)
	if !ok {
		t.Fatalf("stop 1 missing")
	}
	if stop.Role != domain.RoleStop || stop.Demand != (domain.Demand{3, 2, 0, 1}) {
		t.Fatalf("stop 1 = %+v", stop)
	}
	if stop.Lat != 46.02 || stop.Lon != 13.32 {
		t.Fatalf("stop 1 coordinates = %v,%v", stop.Lat, stop.Lon)
	}
	if k3, _ := in.Nodes.ClusterID(3); k3 != 5 {
		t.Fatalf("cluster 3 id = %d, want 5", k3)
	}

	d, ok := in.Distances.At(0, 2)
	if !ok || d != 2 {
		t.Fatalf("distance 0->2 = %v,%v, want 2", d, ok)
	}
	if in.Times == nil {
		t.Fatalf("expected time matrix")
	}
	tt, _ := in.Times.At(0, 2)
	if tt != 4 {
		t.Fatalf("time 0->2 = %v, want 4", tt)
	}
}

func TestLoadInstanceWithoutTimes(t *testing.T) {
	dir := t.TempDir()
	writeInstance(t, dir, "small", false)

	in, err := NewCSVInstanceRepository(dir).LoadInstance(context.Background(), "small")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Times != nil {
		t.Fatalf("expected no time matrix")
	}
}

func TestLoadInstanceMissing(t *testing.T) {
	_, err := NewCSVInstanceRepository(t.TempDir()).LoadInstance(context.Background(), "nope")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestListInstances(t *testing.T) {
	dir := t.TempDir()
	writeInstance(t, dir, "zeta", false)
	writeInstance(t, dir, "alpha", false)

	names, err := NewCSVInstanceRepository(dir).ListInstances(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Fatalf("names = %v, want [alpha zeta]", names)
	}
}

func TestReadNodesSkipsShortRows(t *testing.T) {
	nodes, err := ReadNodes(strings.NewReader("0,0,0,1,1,deposito,0,0,0,0\n1,2,3\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(nodes))
	}
}

func TestReadNodesRejectsBadDemand(t *testing.T) {
	_, err := ReadNodes(strings.NewReader("0,0,0,1,1,deposito,0,0,0,0\n1,0,0,1,1,fermata,x,0,0,0\n"))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestReadMatrix(t *testing.T) {
	rows, err := ReadMatrix(strings.NewReader("0,1.5\nnan,0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != 1.5 {
		t.Fatalf("rows = %v", rows)
	}
	if !math.IsNaN(rows[1][0]) {
		t.Fatalf("rows[1][0] = %v, want NaN", rows[1][0])
	}

	if _, err := ReadMatrix(strings.NewReader("0,abc\n")); err == nil {
		t.Fatalf("expected error for non-numeric cell")
	}
}
