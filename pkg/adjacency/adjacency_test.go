package adjacency_test

import (
	"slices"
	"testing"

	"github.com/chazu/facet/pkg/adjacency"
	"github.com/chazu/facet/pkg/mesh"
)

// makeStrip returns a 4-triangle strip whose adjacency chain is
// T1 - T0 - T3 - T2.
func makeStrip() *mesh.Mesh {
	return &mesh.Mesh{
		Positions: []float32{
			0, 0, 0, // v0
			1, 0, 0, // v1
			1, 1, 0, // v2
			0, 1, 0, // v3
			2, 0, 0, // v4
			2, 1, 0, // v5
		},
		Indices: []uint32{
			0, 1, 2, // T0
			0, 2, 3, // T1
			1, 4, 5, // T2
			1, 5, 2, // T3
		},
	}
}

func TestBuildQuad(t *testing.T) {
	m := &mesh.Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	g := adjacency.Build(m.Triangles())

	if g.TriangleCount() != 2 {
		t.Fatalf("TriangleCount() = %d, want 2", g.TriangleCount())
	}
	if got := g.Neighbors(0); !slices.Equal(got, []int32{1}) {
		t.Errorf("Neighbors(0) = %v, want [1]", got)
	}
	if got := g.Neighbors(1); !slices.Equal(got, []int32{0}) {
		t.Errorf("Neighbors(1) = %v, want [0]", got)
	}
}

func TestVertexSharingIsNotAdjacency(t *testing.T) {
	// Two triangles touching at vertex 0 only.
	m := &mesh.Mesh{
		Positions: []float32{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			-1, 0, 0,
			0, -1, 0,
		},
		Indices: []uint32{0, 1, 2, 0, 3, 4},
	}
	g := adjacency.Build(m.Triangles())

	for i := int32(0); i < 2; i++ {
		if got := g.Neighbors(i); len(got) != 0 {
			t.Errorf("Neighbors(%d) = %v, want none", i, got)
		}
	}
}

func TestDegenerateExcluded(t *testing.T) {
	// T1 repeats a vertex index; it must not appear anywhere in the graph.
	m := &mesh.Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices: []uint32{
			0, 1, 2,
			0, 1, 1,
			0, 2, 3,
		},
	}
	g := adjacency.Build(m.Triangles())

	if got := g.Degenerate(); !slices.Equal(got, []int32{1}) {
		t.Fatalf("Degenerate() = %v, want [1]", got)
	}
	if got := g.Neighbors(1); len(got) != 0 {
		t.Errorf("degenerate triangle has neighbors %v", got)
	}
	if got := g.Neighbors(0); !slices.Equal(got, []int32{2}) {
		t.Errorf("Neighbors(0) = %v, want [2]", got)
	}
}

func TestNonManifoldEdge(t *testing.T) {
	// Three triangles fanning off the shared edge v0-v1.
	m := &mesh.Mesh{
		Positions: []float32{
			0, 0, 0,
			1, 0, 0,
			0.5, 1, 0,
			0.5, 0, 1,
			0.5, -1, 0,
		},
		Indices: []uint32{0, 1, 2, 0, 1, 3, 0, 1, 4},
	}
	g := adjacency.Build(m.Triangles())

	want := [][]int32{{1, 2}, {0, 2}, {0, 1}}
	for i, w := range want {
		if got := g.Neighbors(int32(i)); !slices.Equal(got, w) {
			t.Errorf("Neighbors(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestComponents(t *testing.T) {
	g := adjacency.Build(makeStrip().Triangles())

	tests := []struct {
		name    string
		members []int32
		want    [][]int32
	}{
		{
			"full strip is one component",
			[]int32{0, 1, 2, 3},
			[][]int32{{0, 1, 2, 3}},
		},
		{
			"removing the bridge splits the strip",
			[]int32{1, 3},
			[][]int32{{1}, {3}},
		},
		{
			"connected pair stays together",
			[]int32{0, 1},
			[][]int32{{0, 1}},
		},
		{
			"empty subset",
			nil,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Components(tt.members)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d components, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if !slices.Equal(got[i], tt.want[i]) {
					t.Errorf("component %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestComponentsOrderIndependent(t *testing.T) {
	g := adjacency.Build(makeStrip().Triangles())

	a := g.Components([]int32{0, 1, 2, 3})
	b := g.Components([]int32{3, 1, 0, 2})

	if len(a) != len(b) {
		t.Fatalf("component counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !slices.Equal(a[i], b[i]) {
			t.Errorf("component %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}
