// Package shape generates triangle meshes with known geometry: exact
// parametric primitives for tests and calibration, marching-cubes
// triangulation of signed-distance solids for free-form input, and a
// binary STL codec for real model files.
package shape

import (
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/mesh"
)

// Cylinder returns a closed prismatic tube: an N-sided wall of quad pairs
// between two fan-triangulated caps. Ring vertices are shared between the
// wall and the caps, so the wall is edge-connected to both. All ring
// vertices lie exactly on the circumradius r.
func Cylinder(r, h float64, sides int) *mesh.Mesh {
	if sides < 3 {
		sides = 3
	}
	n := uint32(sides)

	// Bottom ring [0,n), top ring [n,2n), then the two cap centers.
	positions := make([]float32, 0, (2*sides+2)*3)
	for _, z := range []float64{0, h} {
		for k := 0; k < sides; k++ {
			a := 2 * math.Pi * float64(k) / float64(sides)
			positions = append(positions,
				float32(r*math.Cos(a)), float32(r*math.Sin(a)), float32(z))
		}
	}
	bottomCenter := 2 * n
	topCenter := 2*n + 1
	positions = append(positions, 0, 0, 0)
	positions = append(positions, 0, 0, float32(h))

	indices := make([]uint32, 0, sides*4*3)
	for k := uint32(0); k < n; k++ {
		k1 := (k + 1) % n
		b0, b1 := k, k1
		t0, t1 := n+k, n+k1

		// Wall, outward winding.
		indices = append(indices, b0, b1, t1)
		indices = append(indices, b0, t1, t0)
		// Bottom cap faces -z.
		indices = append(indices, bottomCenter, b1, b0)
		// Top cap faces +z.
		indices = append(indices, topCenter, t0, t1)
	}

	return &mesh.Mesh{
		Positions: positions,
		Indices:   indices,
		Name:      fmt.Sprintf("cylinder r=%g h=%g n=%d", r, h, sides),
	}
}

// TubeWall returns only the side wall of Cylinder: an open N-sided tube
// with no caps.
func TubeWall(r, h float64, sides int) *mesh.Mesh {
	if sides < 3 {
		sides = 3
	}
	n := uint32(sides)

	positions := make([]float32, 0, 2*sides*3)
	for _, z := range []float64{0, h} {
		for k := 0; k < sides; k++ {
			a := 2 * math.Pi * float64(k) / float64(sides)
			positions = append(positions,
				float32(r*math.Cos(a)), float32(r*math.Sin(a)), float32(z))
		}
	}

	indices := make([]uint32, 0, sides*2*3)
	for k := uint32(0); k < n; k++ {
		k1 := (k + 1) % n
		indices = append(indices, k, k1, n+k1)
		indices = append(indices, k, n+k1, n+k)
	}

	return &mesh.Mesh{
		Positions: positions,
		Indices:   indices,
		Name:      fmt.Sprintf("tube r=%g h=%g n=%d", r, h, sides),
	}
}

// Box returns an axis-aligned box spanning [0,dx]x[0,dy]x[0,dz]. Each of
// the six faces is an independent 2x2 vertex grid (8 triangles), so every
// face survives the minimum-region threshold as exactly one planar
// feature. Faces do not share vertices.
func Box(dx, dy, dz float64) *mesh.Mesh {
	var positions []float32
	var indices []uint32

	// addFace emits a subdivided quad: origin o, edge vectors u and v,
	// wound so the face normal points along u x v.
	addFace := func(o, u, v mesh.Vec3) {
		const div = 2
		base := uint32(len(positions) / 3)
		for j := 0; j <= div; j++ {
			for i := 0; i <= div; i++ {
				p := o.Add(u.Scale(float64(i) / div)).Add(v.Scale(float64(j) / div))
				positions = append(positions, float32(p.X), float32(p.Y), float32(p.Z))
			}
		}
		stride := uint32(div + 1)
		for j := uint32(0); j < div; j++ {
			for i := uint32(0); i < div; i++ {
				a := base + j*stride + i
				b := a + 1
				c := a + stride + 1
				d := a + stride
				indices = append(indices, a, b, c)
				indices = append(indices, a, c, d)
			}
		}
	}

	x := mesh.Vec3{X: dx}
	y := mesh.Vec3{Y: dy}
	z := mesh.Vec3{Z: dz}
	org := mesh.Vec3{}

	addFace(org, y, x) // bottom, -z
	addFace(z, x, y)   // top, +z
	addFace(org, x, z) // front, -y
	addFace(y, z, x)   // back, +y
	addFace(org, z, y) // left, -x
	addFace(x, y, z)   // right, +x

	return &mesh.Mesh{
		Positions: positions,
		Indices:   indices,
		Name:      fmt.Sprintf("box %gx%gx%g", dx, dy, dz),
	}
}

// Sphere returns a UV sphere of the given radius centered at the origin.
func Sphere(r float64, slices, stacks int) *mesh.Mesh {
	if slices < 3 {
		slices = 3
	}
	if stacks < 3 {
		stacks = 3
	}

	var positions []float32
	// Rings from just below the north pole to just above the south pole.
	for i := 1; i < stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		for j := 0; j < slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			positions = append(positions,
				float32(r*math.Sin(phi)*math.Cos(theta)),
				float32(r*math.Sin(phi)*math.Sin(theta)),
				float32(r*math.Cos(phi)))
		}
	}
	north := uint32(len(positions) / 3)
	positions = append(positions, 0, 0, float32(r))
	south := north + 1
	positions = append(positions, 0, 0, float32(-r))

	ring := func(i, j int) uint32 {
		return uint32((i-1)*slices + j%slices)
	}

	var indices []uint32
	for j := 0; j < slices; j++ {
		indices = append(indices, north, ring(1, j), ring(1, j+1))
		indices = append(indices, south, ring(stacks-1, j+1), ring(stacks-1, j))
	}
	for i := 1; i < stacks-1; i++ {
		for j := 0; j < slices; j++ {
			a := ring(i, j)
			b := ring(i+1, j)
			c := ring(i+1, j+1)
			d := ring(i, j+1)
			indices = append(indices, a, b, c)
			indices = append(indices, a, c, d)
		}
	}

	return &mesh.Mesh{
		Positions: positions,
		Indices:   indices,
		Name:      fmt.Sprintf("sphere r=%g %dx%d", r, slices, stacks),
	}
}

// Torus returns a torus around the z axis: major radius to the tube
// center, minor radius of the tube itself.
func Torus(major, minor float64, segments, tubeSegments int) *mesh.Mesh {
	if segments < 3 {
		segments = 3
	}
	if tubeSegments < 3 {
		tubeSegments = 3
	}

	var positions []float32
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		for j := 0; j < tubeSegments; j++ {
			phi := 2 * math.Pi * float64(j) / float64(tubeSegments)
			rad := major + minor*math.Cos(phi)
			positions = append(positions,
				float32(rad*math.Cos(theta)),
				float32(rad*math.Sin(theta)),
				float32(minor*math.Sin(phi)))
		}
	}

	at := func(i, j int) uint32 {
		return uint32((i%segments)*tubeSegments + j%tubeSegments)
	}

	var indices []uint32
	for i := 0; i < segments; i++ {
		for j := 0; j < tubeSegments; j++ {
			a := at(i, j)
			b := at(i+1, j)
			c := at(i+1, j+1)
			d := at(i, j+1)
			indices = append(indices, a, b, c)
			indices = append(indices, a, c, d)
		}
	}

	return &mesh.Mesh{
		Positions: positions,
		Indices:   indices,
		Name:      fmt.Sprintf("torus R=%g r=%g", major, minor),
	}
}
