package shape_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/shape"
)

// float32 storage rounds coordinates, so geometric checks use a loose eps.
const eps = 1e-5

func surfaceArea(m *mesh.Mesh) float64 {
	var total float64
	for _, tri := range m.Triangles() {
		total += tri.Area
	}
	return total
}

func TestCylinderCounts(t *testing.T) {
	cases := []struct {
		name  string
		sides int
		verts int
		tris  int
	}{
		{"triangle prism", 3, 8, 12},
		{"hexagon", 6, 14, 24},
		{"16-gon", 16, 34, 64},
		{"clamped to 3", 1, 8, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := shape.Cylinder(2, 5, tc.sides)
			if err := m.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if got := m.VertexCount(); got != tc.verts {
				t.Errorf("VertexCount() = %d, want %d", got, tc.verts)
			}
			if got := m.TriangleCount(); got != tc.tris {
				t.Errorf("TriangleCount() = %d, want %d", got, tc.tris)
			}
		})
	}
}

func TestCylinderRingGeometry(t *testing.T) {
	const r, h, sides = 2.0, 5.0, 16

	m := shape.Cylinder(r, h, sides)
	for i := 0; i < 2*sides; i++ {
		p := m.Position(uint32(i))
		if d := math.Hypot(p.X, p.Y); math.Abs(d-r) > eps {
			t.Errorf("ring vertex %d at radial distance %g, want %g", i, d, r)
		}
		if p.Z != 0 && math.Abs(p.Z-h) > eps {
			t.Errorf("ring vertex %d at z=%g, want 0 or %g", i, p.Z, h)
		}
	}

	if deg := len(degenerates(m)); deg != 0 {
		t.Errorf("cylinder has %d degenerate triangles", deg)
	}
}

func degenerates(m *mesh.Mesh) []int {
	var out []int
	for i, tri := range m.Triangles() {
		if tri.Degenerate {
			out = append(out, i)
		}
	}
	return out
}

func TestTubeWall(t *testing.T) {
	m := shape.TubeWall(1.5, 4, 12)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := m.VertexCount(); got != 24 {
		t.Errorf("VertexCount() = %d, want 24", got)
	}
	if got := m.TriangleCount(); got != 24 {
		t.Errorf("TriangleCount() = %d, want 24", got)
	}
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(uint32(i))
		if d := math.Hypot(p.X, p.Y); math.Abs(d-1.5) > eps {
			t.Errorf("vertex %d at radial distance %g, want 1.5", i, d)
		}
	}
}

func TestBox(t *testing.T) {
	const dx, dy, dz = 4.0, 3.0, 2.0

	m := shape.Box(dx, dy, dz)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	// Six faces, each an independent 3x3 vertex grid of 8 triangles.
	if got := m.VertexCount(); got != 54 {
		t.Errorf("VertexCount() = %d, want 54", got)
	}
	if got := m.TriangleCount(); got != 48 {
		t.Errorf("TriangleCount() = %d, want 48", got)
	}

	want := 2 * (dx*dy + dy*dz + dz*dx)
	if got := surfaceArea(m); math.Abs(got-want) > 1e-3 {
		t.Errorf("surface area = %g, want %g", got, want)
	}
}

func TestSphere(t *testing.T) {
	const r, slices, stacks = 2.0, 24, 12

	m := shape.Sphere(r, slices, stacks)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got, want := m.VertexCount(), slices*(stacks-1)+2; got != want {
		t.Errorf("VertexCount() = %d, want %d", got, want)
	}
	if got, want := m.TriangleCount(), 2*slices*(stacks-1); got != want {
		t.Errorf("TriangleCount() = %d, want %d", got, want)
	}
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(uint32(i))
		if d := p.Norm(); math.Abs(d-r) > eps {
			t.Fatalf("vertex %d at distance %g from origin, want %g", i, d, r)
		}
	}
}

func TestTorus(t *testing.T) {
	const major, minor = 3.0, 1.0

	m := shape.Torus(major, minor, 24, 12)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := m.TriangleCount(); got != 2*24*12 {
		t.Errorf("TriangleCount() = %d, want %d", got, 2*24*12)
	}
	for i := 0; i < m.VertexCount(); i++ {
		p := m.Position(uint32(i))
		d := math.Hypot(math.Hypot(p.X, p.Y)-major, p.Z)
		if math.Abs(d-minor) > eps {
			t.Fatalf("vertex %d at tube distance %g, want %g", i, d, minor)
		}
	}
}

func TestFromSDF(t *testing.T) {
	solid, err := shape.RoundedPlate(20, 15, 5, 1)
	if err != nil {
		t.Fatalf("RoundedPlate() = %v", err)
	}

	m, err := shape.FromSDF(solid, 40)
	if err != nil {
		t.Fatalf("FromSDF() = %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("no triangles")
	}
	// Welding must leave the soup with shared vertices.
	if m.VertexCount() >= 3*m.TriangleCount() {
		t.Errorf("%d vertices for %d triangles, welding had no effect",
			m.VertexCount(), m.TriangleCount())
	}
}

// ---------------------------------------------------------------------------
// STL codec
// ---------------------------------------------------------------------------

func TestSTLRoundTrip(t *testing.T) {
	src := shape.Cylinder(2, 5, 16)

	var buf bytes.Buffer
	if err := shape.WriteSTL(&buf, src); err != nil {
		t.Fatalf("WriteSTL() = %v", err)
	}
	if want := 84 + 50*src.TriangleCount(); buf.Len() != want {
		t.Fatalf("encoded %d bytes, want %d", buf.Len(), want)
	}

	got, err := shape.ReadSTL(&buf)
	if err != nil {
		t.Fatalf("ReadSTL() = %v", err)
	}
	if got.TriangleCount() != src.TriangleCount() {
		t.Errorf("TriangleCount() = %d, want %d", got.TriangleCount(), src.TriangleCount())
	}
	// Welding must restore the shared vertices the soup format drops.
	if got.VertexCount() != src.VertexCount() {
		t.Errorf("VertexCount() = %d after weld, want %d", got.VertexCount(), src.VertexCount())
	}
	if a, b := surfaceArea(got), surfaceArea(src); math.Abs(a-b) > 1e-6 {
		t.Errorf("surface area changed across round trip: %g != %g", a, b)
	}
}

func TestReadSTLTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := shape.WriteSTL(&buf, shape.Box(1, 1, 1)); err != nil {
		t.Fatalf("WriteSTL() = %v", err)
	}

	cut := buf.Bytes()[:buf.Len()-25]
	if _, err := shape.ReadSTL(bytes.NewReader(cut)); err == nil {
		t.Fatal("ReadSTL() accepted a truncated stream")
	}
}

func TestReadSTLEmpty(t *testing.T) {
	raw := make([]byte, 84)
	if _, err := shape.ReadSTL(bytes.NewReader(raw)); err == nil {
		t.Fatal("ReadSTL() accepted a zero-triangle file")
	}
}

func TestSaveLoadSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.stl")
	if err := shape.SaveSTL(path, shape.Box(4, 3, 2)); err != nil {
		t.Fatalf("SaveSTL() = %v", err)
	}

	m, err := shape.LoadSTL(path)
	if err != nil {
		t.Fatalf("LoadSTL() = %v", err)
	}
	if m.TriangleCount() != 48 {
		t.Errorf("TriangleCount() = %d, want 48", m.TriangleCount())
	}
	if m.Name != "box.stl" {
		t.Errorf("Name = %q, want %q", m.Name, "box.stl")
	}
}

func TestLoadSTLRejectsASCII(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ascii.stl")
	text := "solid demo\n" + strings.Repeat("facet normal 0 0 1\nendfacet\n", 20) + "endsolid demo\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := shape.LoadSTL(path); err == nil {
		t.Fatal("LoadSTL() accepted an ascii stl")
	}
}
