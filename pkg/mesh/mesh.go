// Package mesh defines the flat-buffer triangle mesh that the rest of the
// module consumes, along with validation, content identity, and the derived
// per-triangle table detection runs on.
//
// A Mesh is treated as an immutable snapshot: nothing in this module writes
// to caller buffers, and all derived data is freshly allocated.
package mesh

// Mesh is a triangle mesh as flat GPU-style buffers.
// Positions has 3 floats per vertex (x,y,z), Normals has 3 floats per
// vertex, Indices has 3 uint32s per triangle. Indices may be empty, in
// which case consecutive position triples form triangles (vertex soup).
// Normals may be empty, in which case they are computed from positions.
type Mesh struct {
	Positions []float32 `json:"positions"`         // [x0,y0,z0, x1,y1,z1, ...]
	Indices   []uint32  `json:"indices,omitempty"` // [i0,i1,i2, ...] triangles
	Normals   []float32 `json:"normals,omitempty"` // [nx0,ny0,nz0, ...]
	Name      string    `json:"name,omitempty"`    // diagnostic label, not identity
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles, honoring implicit
// triangulation when the mesh has no index buffer.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 9
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// Position returns vertex i as a Vec3.
func (m *Mesh) Position(i uint32) Vec3 {
	return Vec3{
		X: float64(m.Positions[i*3+0]),
		Y: float64(m.Positions[i*3+1]),
		Z: float64(m.Positions[i*3+2]),
	}
}

// VertexNormals returns the supplied per-vertex normals, or computes them
// by accumulating the unnormalized face normal of every incident triangle
// into each of its vertices and normalizing the sums. Unnormalized face
// normals are proportional to triangle area, so large faces dominate.
func (m *Mesh) VertexNormals() []float32 {
	if len(m.Normals) == len(m.Positions) && len(m.Normals) > 0 {
		return m.Normals
	}

	numVerts := m.VertexCount()
	normals := make([]float32, numVerts*3)

	numTris := m.TriangleCount()
	for t := 0; t < numTris; t++ {
		i0, i1, i2 := m.cornerIndices(t)

		a := m.Position(i0)
		e1 := m.Position(i1).Sub(a)
		e2 := m.Position(i2).Sub(a)
		n := e1.Cross(e2)

		for _, idx := range [3]uint32{i0, i1, i2} {
			normals[idx*3+0] += float32(n.X)
			normals[idx*3+1] += float32(n.Y)
			normals[idx*3+2] += float32(n.Z)
		}
	}

	for i := 0; i < numVerts; i++ {
		n := Vec3{
			X: float64(normals[i*3+0]),
			Y: float64(normals[i*3+1]),
			Z: float64(normals[i*3+2]),
		}.Normalize()
		normals[i*3+0] = float32(n.X)
		normals[i*3+1] = float32(n.Y)
		normals[i*3+2] = float32(n.Z)
	}

	return normals
}

// cornerIndices returns the three vertex indices of triangle t, honoring
// implicit triangulation when the mesh has no index buffer.
func (m *Mesh) cornerIndices(t int) (uint32, uint32, uint32) {
	if len(m.Indices) > 0 {
		return m.Indices[t*3+0], m.Indices[t*3+1], m.Indices[t*3+2]
	}
	base := uint32(t * 3)
	return base, base + 1, base + 2
}
