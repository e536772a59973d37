// Package detect implements surface-feature recognition over triangle
// meshes: planar regions are grown across the adjacency graph first, then
// cylindrical regions are fitted to what remains. The result is an
// immutable feature set with stable content-derived ids and a flat
// face-to-feature lookup table.
//
// The pipeline is deterministic: identical buffers and options always
// produce identical features, ids, and ordering.
package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/facet/pkg/adjacency"
	"github.com/chazu/facet/pkg/eventlog"
	"github.com/chazu/facet/pkg/feature"
	"github.com/chazu/facet/pkg/mesh"
)

// Detector runs the recognition pipeline with a fixed option set. It
// holds no per-run state, so one Detector may serve concurrent runs.
type Detector struct {
	opts Options
	log  eventlog.Logger
}

// New creates a Detector with the given options (zero fields filled with
// defaults). A nil logger disables event emission.
func New(opts Options, logger eventlog.Logger) *Detector {
	if logger == nil {
		logger = eventlog.NoopLogger{}
	}
	return &Detector{opts: opts.Normalized(), log: logger}
}

// Options returns the normalized option set the detector runs with.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect recognizes the features of m. An empty feature set is a normal
// outcome. The context is checked between stages and periodically inside
// them; cancellation or deadline expiry abandons the run and returns the
// context's error. Invalid buffers return an error wrapping
// mesh.ErrInvalidGeometry before any work happens.
func (d *Detector) Detect(ctx context.Context, m *mesh.Mesh) (*feature.Set, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	meshID := string(m.ContentID())

	tris := m.Triangles()
	graph := adjacency.Build(tris)
	d.log.Log(eventlog.NewRunStarted(runID, meshID, len(tris), len(graph.Degenerate())))

	set, err := d.run(ctx, runID, meshID, m, tris, graph)
	if err != nil {
		d.log.Log(eventlog.NewRunFailed(runID, meshID, time.Since(start), err))
		return nil, err
	}

	d.log.Log(eventlog.NewRunCompleted(runID, meshID,
		len(set.Planes), len(set.Cylinders), set.ClassifiedCount(), time.Since(start)))
	return set, nil
}

func (d *Detector) run(ctx context.Context, runID, meshID string, m *mesh.Mesh, tris []mesh.Triangle, graph *adjacency.Graph) (*feature.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions, residual, err := growPlanes(ctx, tris, graph, d.opts)
	if err != nil {
		return nil, err
	}

	fits, rejects, err := fitCylinders(ctx, m, tris, graph, residual, d.opts)
	if err != nil {
		return nil, err
	}

	planes := make([]feature.Plane, len(regions))
	for i := range regions {
		r := &regions[i]
		planes[i] = feature.Plane{
			ID:        feature.MakeID(feature.KindPlane, r.tris),
			Normal:    r.mean,
			Center:    r.center(),
			Area:      r.area,
			Triangles: r.tris,
		}
		d.log.Log(eventlog.NewPlaneFound(runID, meshID,
			string(planes[i].ID), len(r.tris), r.area))
	}

	cylinders := make([]feature.Cylinder, len(fits))
	for i := range fits {
		f := &fits[i]
		cylinders[i] = feature.Cylinder{
			ID:         feature.MakeID(feature.KindCylinder, f.tris),
			Axis:       f.axis,
			Center:     f.center,
			Radius:     f.radius,
			Height:     f.height,
			Confidence: f.confidence,
			Triangles:  f.tris,
		}
		d.log.Log(eventlog.NewCylinderFound(runID, meshID,
			string(cylinders[i].ID), len(f.tris), f.radius, f.height, f.confidence))
	}

	for _, rej := range rejects {
		d.log.Log(eventlog.NewComponentRejected(runID, meshID,
			rej.reason, rej.triangles, rej.measured, rej.limit))
	}

	set, err := feature.NewSet(mesh.ID(meshID), planes, cylinders, len(tris))
	if err != nil {
		return nil, fmt.Errorf("assemble feature set: %w", err)
	}
	return set, nil
}
