package mesh_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/facet/pkg/mesh"
)

// unitQuad returns an indexed 2-triangle square in the XY plane with +Z
// facing normals.
func unitQuad() *mesh.Mesh {
	return &mesh.Mesh{
		Positions: []float32{
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mesh    *mesh.Mesh
		wantErr bool
	}{
		{"valid indexed", unitQuad(), false},
		{
			"valid unindexed",
			&mesh.Mesh{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}},
			false,
		},
		{"empty positions", &mesh.Mesh{}, true},
		{
			"positions not multiple of 3",
			&mesh.Mesh{Positions: []float32{0, 0, 0, 1}},
			true,
		},
		{
			"indices not multiple of 3",
			&mesh.Mesh{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1}},
			true,
		},
		{
			"index out of range",
			&mesh.Mesh{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 9}},
			true,
		},
		{
			"unindexed vertex count not multiple of 3",
			&mesh.Mesh{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 2, 2, 2}},
			true,
		},
		{
			"normals length mismatch",
			&mesh.Mesh{
				Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
				Normals:   []float32{0, 0, 1},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if tt.wantErr && !errors.Is(err, mesh.ErrInvalidGeometry) {
				t.Errorf("error %v does not wrap ErrInvalidGeometry", err)
			}
		})
	}
}

func TestTriangles(t *testing.T) {
	m := unitQuad()
	tris := m.Triangles()
	if len(tris) != 2 {
		t.Fatalf("len(tris) = %d, want 2", len(tris))
	}

	for i, tri := range tris {
		if tri.Degenerate {
			t.Errorf("triangle %d flagged degenerate", i)
		}
		if absf(tri.Area-0.5) > 1e-9 {
			t.Errorf("triangle %d area = %g, want 0.5", i, tri.Area)
		}
		if absf(tri.Normal.Z-1) > 1e-9 {
			t.Errorf("triangle %d normal = %v, want +Z", i, tri.Normal)
		}
	}

	c0 := tris[0].Centroid
	want := mesh.Vec3{X: 2.0 / 3.0, Y: 1.0 / 3.0, Z: 0}
	if absf(c0.X-want.X) > 1e-9 || absf(c0.Y-want.Y) > 1e-9 || absf(c0.Z) > 1e-9 {
		t.Errorf("centroid = %v, want %v", c0, want)
	}
}

func TestTrianglesDegenerate(t *testing.T) {
	tests := []struct {
		name string
		mesh *mesh.Mesh
	}{
		{
			"repeated index",
			&mesh.Mesh{
				Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
				Indices:   []uint32{0, 1, 1},
			},
		},
		{
			"collinear vertices",
			&mesh.Mesh{
				Positions: []float32{0, 0, 0, 1, 0, 0, 2, 0, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := tt.mesh.Triangles()
			if len(tris) != 1 {
				t.Fatalf("len(tris) = %d, want 1", len(tris))
			}
			if !tris[0].Degenerate {
				t.Error("triangle not flagged degenerate")
			}
		})
	}
}

func TestTrianglesImplicit(t *testing.T) {
	// Two triangles as a vertex soup, no index buffer.
	m := &mesh.Mesh{
		Positions: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0,
			0, 0, 0, 1, 1, 0, 0, 1, 0,
		},
	}
	if m.TriangleCount() != 2 {
		t.Fatalf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
	tris := m.Triangles()
	if tris[1].V0 != 3 || tris[1].V1 != 4 || tris[1].V2 != 5 {
		t.Errorf("implicit triangle 1 indices = %d,%d,%d, want 3,4,5",
			tris[1].V0, tris[1].V1, tris[1].V2)
	}
}

func TestContentID(t *testing.T) {
	a := unitQuad()
	b := unitQuad()

	if a.ContentID() != b.ContentID() {
		t.Error("identical buffers produced different ids")
	}

	c := unitQuad()
	c.Positions[0] = 0.5
	if a.ContentID() == c.ContentID() {
		t.Error("different positions produced the same id")
	}

	// Supplied normals are detection input, so they alter identity.
	d := unitQuad()
	d.Normals = make([]float32, len(d.Positions))
	for i := 2; i < len(d.Normals); i += 3 {
		d.Normals[i] = 1
	}
	if a.ContentID() == d.ContentID() {
		t.Error("supplied normals did not alter the id")
	}

	// Name is a label, not identity.
	e := unitQuad()
	e.Name = "quad"
	if a.ContentID() != e.ContentID() {
		t.Error("name altered the id")
	}

	if got := a.ContentID().Short(); len(got) != 12 {
		t.Errorf("Short() len = %d, want 12", len(got))
	}
}

func TestVertexNormals(t *testing.T) {
	m := unitQuad()
	normals := m.VertexNormals()
	if len(normals) != len(m.Positions) {
		t.Fatalf("len(normals) = %d, want %d", len(normals), len(m.Positions))
	}
	for v := 0; v < m.VertexCount(); v++ {
		nz := float64(normals[v*3+2])
		if absf(nz-1) > 1e-6 {
			t.Errorf("vertex %d normal z = %g, want 1", v, nz)
		}
	}

	// Supplied normals are returned as-is.
	m.Normals = []float32{1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0}
	got := m.VertexNormals()
	if got[0] != 1 || got[2] != 0 {
		t.Error("supplied normals were not returned unchanged")
	}
}

func TestVec3(t *testing.T) {
	a := mesh.Vec3{X: 1, Y: 2, Z: 3}
	b := mesh.Vec3{X: 4, Y: 5, Z: 6}

	if sum := a.Add(b); sum != (mesh.Vec3{X: 5, Y: 7, Z: 9}) {
		t.Errorf("Add = %v", sum)
	}
	if d := a.Dot(b); d != 32 {
		t.Errorf("Dot = %g, want 32", d)
	}

	x := mesh.Vec3{X: 1}
	y := mesh.Vec3{Y: 1}
	if cr := x.Cross(y); cr != (mesh.Vec3{Z: 1}) {
		t.Errorf("Cross = %v, want +Z", cr)
	}

	n := mesh.Vec3{X: 3, Y: 4}.Normalize()
	if absf(n.Norm()-1) > 1e-12 {
		t.Errorf("Normalize().Norm() = %g, want 1", n.Norm())
	}

	z := mesh.Vec3{}
	if z.Normalize() != z {
		t.Error("Normalize of zero vector should return zero vector")
	}
	if math.IsNaN(z.Normalize().X) {
		t.Error("Normalize of zero vector produced NaN")
	}
}
