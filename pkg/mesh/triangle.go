package mesh

// degenerateArea is the absolute area floor below which a triangle is
// considered degenerate and excluded from adjacency and detection.
const degenerateArea = 1e-12

// Triangle is one face of a mesh with derived geometric quantities.
// Immutable once the table is built.
type Triangle struct {
	V0, V1, V2 uint32 // vertex indices
	Normal     Vec3   // unit face normal, winding order (CCW = outward)
	Centroid   Vec3
	Area       float64
	Degenerate bool // repeated vertex index or near-zero area
}

// Triangles derives the per-triangle table from the mesh buffers.
// Triangle t of an unindexed mesh uses vertices 3t, 3t+1, 3t+2.
// The table is index-ordered and deterministic; degenerate triangles are
// kept in place (so face indices stay aligned with caller buffers) but
// flagged. Call Validate first; Triangles assumes well-formed buffers.
func (m *Mesh) Triangles() []Triangle {
	numTris := m.TriangleCount()
	tris := make([]Triangle, numTris)

	for t := 0; t < numTris; t++ {
		i0, i1, i2 := m.cornerIndices(t)

		a := m.Position(i0)
		b := m.Position(i1)
		c := m.Position(i2)

		cross := b.Sub(a).Cross(c.Sub(a))
		area := 0.5 * cross.Norm()

		tri := Triangle{
			V0:       i0,
			V1:       i1,
			V2:       i2,
			Centroid: a.Add(b).Add(c).Scale(1.0 / 3.0),
			Area:     area,
		}
		if i0 == i1 || i1 == i2 || i0 == i2 || area < degenerateArea {
			tri.Degenerate = true
		} else {
			tri.Normal = cross.Scale(1 / (2 * area))
		}
		tris[t] = tri
	}

	return tris
}
