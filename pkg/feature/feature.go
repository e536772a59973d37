// Package feature defines the recognized surface features of a mesh and
// the immutable per-mesh result set that serves face lookups.
package feature

import (
	"github.com/chazu/facet/pkg/mesh"
)

// Kind distinguishes feature types.
type Kind int

const (
	KindPlane Kind = iota
	KindCylinder
)

func (k Kind) String() string {
	switch k {
	case KindPlane:
		return "plane"
	case KindCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// Feature is the common surface of recognized features. Implementations
// are value types published inside an immutable Set; callers must treat
// everything they return as read-only.
type Feature interface {
	FeatureID() ID
	Kind() Kind
	// Members returns the owned triangle ids, sorted ascending.
	Members() []int32
}

// Plane is a connected region of near-coplanar triangles.
type Plane struct {
	ID        ID        `json:"id"`
	Normal    mesh.Vec3 `json:"normal"`   // unit, mean of member face normals
	Center    mesh.Vec3 `json:"center"`   // area-weighted member centroid
	Area      float64   `json:"area"`     // sum of member areas
	Triangles []int32   `json:"triangles"` // sorted ascending
}

func (p *Plane) FeatureID() ID    { return p.ID }
func (p *Plane) Kind() Kind       { return KindPlane }
func (p *Plane) Members() []int32 { return p.Triangles }

// Cylinder is a connected region of triangles lying on a circular tube.
type Cylinder struct {
	ID         ID        `json:"id"`
	Axis       mesh.Vec3 `json:"axis"`       // unit, sign canonicalized
	Center     mesh.Vec3 `json:"center"`     // on the axis at mid-span
	Radius     float64   `json:"radius"`     // mean vertex radial distance
	Height     float64   `json:"height"`     // span of vertex projections on the axis
	Confidence float64   `json:"confidence"` // 1 - stddev/mean of radial distances, in [0,1]
	Triangles  []int32   `json:"triangles"`  // sorted ascending
}

func (c *Cylinder) FeatureID() ID    { return c.ID }
func (c *Cylinder) Kind() Kind       { return KindCylinder }
func (c *Cylinder) Members() []int32 { return c.Triangles }

var (
	_ Feature = (*Plane)(nil)
	_ Feature = (*Cylinder)(nil)
)
