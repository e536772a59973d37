package detect

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/facet/pkg/adjacency"
	"github.com/chazu/facet/pkg/eventlog"
	"github.com/chazu/facet/pkg/mesh"
)

// maxRefitDepth bounds recursive re-fitting after outlier trimming.
const maxRefitDepth = 2

// cylinderFit is one accepted cylindrical region.
type cylinderFit struct {
	tris       []int32
	axis       mesh.Vec3
	center     mesh.Vec3
	radius     float64
	height     float64
	confidence float64
}

// rejection records why a residual component produced no cylinder.
// measured carries the value that tripped the gate, limit the bound.
type rejection struct {
	reason    eventlog.RejectReason
	triangles int
	measured  float64
	limit     float64
}

// fitCylinders splits the residual set into edge-connected components and
// fits each independently, in ascending component order.
func fitCylinders(ctx context.Context, m *mesh.Mesh, tris []mesh.Triangle, g *adjacency.Graph, residual []int32, opts Options) ([]cylinderFit, []rejection, error) {
	var fits []cylinderFit
	var rejects []rejection

	for _, comp := range g.Components(residual) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		f, r := fitComponent(m, tris, g, comp, opts, 0)
		fits = append(fits, f...)
		rejects = append(rejects, r...)
	}

	return fits, rejects, nil
}

// fitComponent runs the full fit on one component. It can return several
// fits when outlier trimming splits the component apart.
func fitComponent(m *mesh.Mesh, tris []mesh.Triangle, g *adjacency.Graph, comp []int32, opts Options, depth int) ([]cylinderFit, []rejection) {
	if len(comp) < opts.MinCylinderTriangles {
		return nil, []rejection{{
			reason:    eventlog.RejectTooSmall,
			triangles: len(comp),
			measured:  float64(len(comp)),
			limit:     float64(opts.MinCylinderTriangles),
		}}
	}

	points := componentVertices(m, tris, comp)
	c0 := centroidMean(tris, comp)

	axis, ok := estimateAxis(points, c0, tris, comp)
	if !ok {
		return nil, []rejection{{
			reason:    eventlog.RejectDegenerateFit,
			triangles: len(comp),
		}}
	}

	dists := make([]float64, len(points))
	radius, variance := radialStats(points, c0, axis, dists)
	if radius < 1e-12 {
		return nil, []rejection{{
			reason:    eventlog.RejectDegenerateFit,
			triangles: len(comp),
		}}
	}

	confidence := 1 - math.Sqrt(variance)/radius
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	// Tubes have face normals perpendicular to the axis. Cones tilt them
	// by the half-angle, spheres and tori spread them along the axis;
	// all of those must go regardless of how the radial spread scores.
	tilt := meanAxialTilt(tris, comp, axis)
	sinTol := math.Sin(opts.AxisAngleTolerance)
	if tilt > sinTol {
		return nil, []rejection{{
			reason:    eventlog.RejectTilted,
			triangles: len(comp),
			measured:  tilt,
			limit:     sinTol,
		}}
	}

	maxDev := 0.0
	for _, d := range dists {
		if dev := math.Abs(d-radius) / radius; dev > maxDev {
			maxDev = dev
		}
	}
	if maxDev > opts.RadiusTolerance {
		if depth < maxRefitDepth {
			keep := trimOffenders(m, tris, comp, c0, axis, radius, opts.RadiusTolerance)
			if len(keep) > 0 && len(keep) < len(comp) {
				var fits []cylinderFit
				var rejects []rejection
				for _, sub := range g.Components(keep) {
					f, r := fitComponent(m, tris, g, sub, opts, depth+1)
					fits = append(fits, f...)
					rejects = append(rejects, r...)
				}
				return fits, rejects
			}
		}
		return nil, []rejection{{
			reason:    eventlog.RejectRadiusSpread,
			triangles: len(comp),
			measured:  maxDev,
			limit:     opts.RadiusTolerance,
		}}
	}

	if confidence < opts.MinCylinderConfidence {
		return nil, []rejection{{
			reason:    eventlog.RejectLowConfidence,
			triangles: len(comp),
			measured:  confidence,
			limit:     opts.MinCylinderConfidence,
		}}
	}

	tMin, tMax := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		t := p.Sub(c0).Dot(axis)
		if t < tMin {
			tMin = t
		}
		if t > tMax {
			tMax = t
		}
	}

	return []cylinderFit{{
		tris:       comp,
		axis:       axis,
		center:     c0.Add(axis.Scale((tMin + tMax) / 2)),
		radius:     radius,
		height:     tMax - tMin,
		confidence: confidence,
	}}, nil
}

// estimateAxis decomposes the covariance of member centroids and picks
// the eigenvector whose axis minimizes the radial-distance variance of
// the member vertices. The smallest-eigenvalue eigenvector is NOT assumed
// to be the axis: for short wide tubes the centroid cloud is flattest
// along the axis, for tall ones across it, so all three candidates are
// measured against the geometry.
func estimateAxis(points []mesh.Vec3, c0 mesh.Vec3, tris []mesh.Triangle, comp []int32) (mesh.Vec3, bool) {
	var cov [9]float64
	for _, id := range comp {
		d := tris[id].Centroid.Sub(c0)
		cov[0] += d.X * d.X
		cov[1] += d.X * d.Y
		cov[2] += d.X * d.Z
		cov[4] += d.Y * d.Y
		cov[5] += d.Y * d.Z
		cov[8] += d.Z * d.Z
	}
	n := float64(len(comp))
	cov[3] = cov[1]
	cov[6] = cov[2]
	cov[7] = cov[5]
	for i := range cov {
		cov[i] /= n
	}

	covMat := mat.NewSymDense(3, cov[:])

	var eigen mat.EigenSym
	if !eigen.Factorize(covMat, true) {
		return mesh.Vec3{}, false
	}
	var vecs mat.Dense
	eigen.VectorsTo(&vecs)

	dists := make([]float64, len(points))
	best := mesh.Vec3{}
	bestVar := math.Inf(1)
	for col := 0; col < 3; col++ {
		axis := mesh.Vec3{X: vecs.At(0, col), Y: vecs.At(1, col), Z: vecs.At(2, col)}.Normalize()
		_, variance := radialStats(points, c0, axis, dists)
		if variance < bestVar {
			bestVar = variance
			best = axis
		}
	}

	return canonicalAxis(best), true
}

// radialStats fills dists with each point's distance to the axis line
// through c0 and returns the mean and variance.
func radialStats(points []mesh.Vec3, c0, axis mesh.Vec3, dists []float64) (mean, variance float64) {
	for i, p := range points {
		d := p.Sub(c0)
		radial := d.Sub(axis.Scale(d.Dot(axis)))
		dists[i] = radial.Norm()
		mean += dists[i]
	}
	mean /= float64(len(dists))

	for _, d := range dists {
		dev := d - mean
		variance += dev * dev
	}
	variance /= float64(len(dists))
	return mean, variance
}

// meanAxialTilt returns the mean |face normal · axis| over the component.
// Zero for a perfect tube.
func meanAxialTilt(tris []mesh.Triangle, comp []int32, axis mesh.Vec3) float64 {
	sum := 0.0
	for _, id := range comp {
		sum += math.Abs(tris[id].Normal.Dot(axis))
	}
	return sum / float64(len(comp))
}

// trimOffenders keeps the triangles whose vertices all sit within the
// relative radius tolerance of the fitted tube.
func trimOffenders(m *mesh.Mesh, tris []mesh.Triangle, comp []int32, c0, axis mesh.Vec3, radius, tol float64) []int32 {
	var keep []int32
	for _, id := range comp {
		t := &tris[id]
		ok := true
		for _, v := range [3]uint32{t.V0, t.V1, t.V2} {
			d := m.Position(v).Sub(c0)
			radial := d.Sub(axis.Scale(d.Dot(axis)))
			if math.Abs(radial.Norm()-radius) > tol*radius {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, id)
		}
	}
	return keep
}

// componentVertices returns the positions of the component's unique
// vertices, ordered by first appearance in the member scan.
func componentVertices(m *mesh.Mesh, tris []mesh.Triangle, comp []int32) []mesh.Vec3 {
	seen := make(map[uint32]struct{}, len(comp)*3/2)
	ids := make([]uint32, 0, len(comp)*3/2)
	for _, id := range comp {
		t := &tris[id]
		for _, v := range [3]uint32{t.V0, t.V1, t.V2} {
			if _, dup := seen[v]; !dup {
				seen[v] = struct{}{}
				ids = append(ids, v)
			}
		}
	}

	points := make([]mesh.Vec3, len(ids))
	for i, v := range ids {
		points[i] = m.Position(v)
	}
	return points
}

// centroidMean returns the unweighted mean of member triangle centroids.
func centroidMean(tris []mesh.Triangle, comp []int32) mesh.Vec3 {
	var sum mesh.Vec3
	for _, id := range comp {
		sum = sum.Add(tris[id].Centroid)
	}
	return sum.Scale(1 / float64(len(comp)))
}

// canonicalAxis fixes the eigenvector sign ambiguity: the first nonzero
// component in z, y, x order is made positive.
func canonicalAxis(a mesh.Vec3) mesh.Vec3 {
	const eps = 1e-12
	switch {
	case a.Z > eps:
		return a
	case a.Z < -eps:
		return a.Scale(-1)
	case a.Y > eps:
		return a
	case a.Y < -eps:
		return a.Scale(-1)
	case a.X < -eps:
		return a.Scale(-1)
	}
	return a
}
