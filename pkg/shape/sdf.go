package shape

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/mesh"
)

// DefaultCells is the default marching cubes resolution.
const DefaultCells = 200

// FromSDF triangulates a signed-distance solid with uniform marching
// cubes. The renderer emits an unshared triangle soup, so coincident
// vertices are welded by exact coordinate match; detection needs real
// edge adjacency.
func FromSDF(s sdf.SDF3, cells int) (*mesh.Mesh, error) {
	if cells <= 0 {
		cells = DefaultCells
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("marching cubes produced no triangles")
	}

	type vkey [3]float32
	lookup := make(map[vkey]uint32, len(triangles)*3/2)
	positions := make([]float32, 0, len(triangles)*9/2)
	indices := make([]uint32, 0, len(triangles)*3)

	for _, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			key := vkey{float32(v.X), float32(v.Y), float32(v.Z)}
			idx, ok := lookup[key]
			if !ok {
				idx = uint32(len(positions) / 3)
				lookup[key] = idx
				positions = append(positions, key[0], key[1], key[2])
			}
			indices = append(indices, idx)
		}
	}

	return &mesh.Mesh{Positions: positions, Indices: indices}, nil
}

// RoundedPlate returns a box with rounded edges, centered at the origin.
func RoundedPlate(dx, dy, dz, round float64) (sdf.SDF3, error) {
	return sdf.Box3D(v3.Vec{X: dx, Y: dy, Z: dz}, round)
}

// BossPlate returns a plate carrying a cylindrical boss with a through
// hole: a compact solid exercising union, difference, and placement.
func BossPlate() (sdf.SDF3, error) {
	plate, err := sdf.Box3D(v3.Vec{X: 40, Y: 30, Z: 5}, 1)
	if err != nil {
		return nil, fmt.Errorf("plate: %w", err)
	}

	boss, err := sdf.Cylinder3D(10, 6, 0)
	if err != nil {
		return nil, fmt.Errorf("boss: %w", err)
	}
	boss = sdf.Transform3D(boss, sdf.Translate3d(v3.Vec{Z: 5}))

	hole, err := sdf.Cylinder3D(30, 2.5, 0)
	if err != nil {
		return nil, fmt.Errorf("hole: %w", err)
	}

	return sdf.Difference3D(sdf.Union3D(plate, boss), hole), nil
}
