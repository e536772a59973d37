package detect

import (
	"context"
	"math"
	"slices"

	"github.com/chazu/facet/pkg/adjacency"
	"github.com/chazu/facet/pkg/mesh"
)

// ctxCheckStride is how many admissions pass between context checks.
const ctxCheckStride = 4096

// planeRegion is one growing (or grown) planar region.
type planeRegion struct {
	tris        []int32
	normalSum   mesh.Vec3 // unnormalized accumulation of member face normals
	mean        mesh.Vec3 // normalSum renormalized after every admission
	area        float64
	centroidSum mesh.Vec3 // area-weighted centroid accumulation
}

func (r *planeRegion) admit(id int32, t *mesh.Triangle) {
	r.tris = append(r.tris, id)
	r.normalSum = r.normalSum.Add(t.Normal)
	r.mean = r.normalSum.Normalize()
	r.area += t.Area
	r.centroidSum = r.centroidSum.Add(t.Centroid.Scale(t.Area))
}

// center returns the area-weighted centroid of the region.
func (r *planeRegion) center() mesh.Vec3 {
	if r.area == 0 {
		return mesh.Vec3{}
	}
	return r.centroidSum.Scale(1 / r.area)
}

// growPlanes partitions the non-degenerate triangles into accepted planar
// regions and a residual set.
//
// Seeds are taken in ascending index order. Each region grows breadth
// first over the adjacency graph; a candidate is admitted when the cosine
// between its face normal and the region's running mean normal exceeds
// cos(AngleTolerance). A candidate that fails stays unvisited and may
// seed or join a later region once. Regions stop growing at
// MaxTrianglesPerFeature.
//
// Regions below MinPlaneTriangles or MinPlaneArea are dissolved into the
// residual set, which comes back sorted ascending. The whole process is
// deterministic for identical input.
func growPlanes(ctx context.Context, tris []mesh.Triangle, g *adjacency.Graph, opts Options) ([]planeRegion, []int32, error) {
	cosTol := math.Cos(opts.AngleTolerance)

	visited := make([]bool, len(tris))
	for _, d := range g.Degenerate() {
		visited[d] = true
	}

	var regions []planeRegion
	var residual []int32
	sinceCheck := 0

	for seed := range tris {
		if visited[seed] {
			continue
		}

		visited[seed] = true
		var region planeRegion
		region.admit(int32(seed), &tris[seed])

		queue := []int32{int32(seed)}
		for len(queue) > 0 && len(region.tris) < opts.MaxTrianglesPerFeature {
			cur := queue[0]
			queue = queue[1:]

			for _, n := range g.Neighbors(cur) {
				if visited[n] {
					continue
				}
				if tris[n].Normal.Dot(region.mean) <= cosTol {
					continue
				}
				visited[n] = true
				region.admit(n, &tris[n])
				queue = append(queue, n)

				sinceCheck++
				if sinceCheck >= ctxCheckStride {
					sinceCheck = 0
					if err := ctx.Err(); err != nil {
						return nil, nil, err
					}
				}
				if len(region.tris) >= opts.MaxTrianglesPerFeature {
					break
				}
			}
		}

		if len(region.tris) >= opts.MinPlaneTriangles && region.area > opts.MinPlaneArea {
			slices.Sort(region.tris)
			regions = append(regions, region)
		} else {
			residual = append(residual, region.tris...)
		}
	}

	slices.Sort(residual)
	return regions, residual, nil
}
