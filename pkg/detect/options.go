package detect

import (
	"fmt"
	"math"
)

// Options configures the recognition pipeline. Zero values mean "use the
// default"; call Normalized before reading fields directly.
type Options struct {
	// AngleTolerance is the maximum deviation, in radians, between a
	// candidate triangle's normal and a plane region's running mean
	// normal. Default 0.1.
	AngleTolerance float64 `json:"angleTolerance" yaml:"angleTolerance"`

	// AxisAngleTolerance is the maximum mean tilt, in radians, of member
	// face normals away from perpendicular to a fitted cylinder axis.
	// Rejects cones and spherical caps. Default 0.15.
	AxisAngleTolerance float64 `json:"axisAngleTolerance" yaml:"axisAngleTolerance"`

	// RadiusTolerance is the maximum relative deviation of any member
	// vertex's radial distance from the fitted radius. Default 0.01.
	RadiusTolerance float64 `json:"radiusTolerance" yaml:"radiusTolerance"`

	// MinPlaneTriangles is the smallest region reported as a plane.
	// Default 3.
	MinPlaneTriangles int `json:"minPlaneTriangles" yaml:"minPlaneTriangles"`

	// MinPlaneArea rejects sliver regions whose total area stays below
	// this bound. Default 1e-6.
	MinPlaneArea float64 `json:"minPlaneArea" yaml:"minPlaneArea"`

	// MinCylinderTriangles is the smallest residual component considered
	// for cylinder fitting. Default 6.
	MinCylinderTriangles int `json:"minCylinderTriangles" yaml:"minCylinderTriangles"`

	// MinCylinderConfidence is the acceptance floor for the radial fit
	// quality (1 - stddev/mean of radial distances). Default 0.65.
	MinCylinderConfidence float64 `json:"minCylinderConfidence" yaml:"minCylinderConfidence"`

	// MaxTrianglesPerFeature caps region growth to bound worst-case cost
	// on degenerate input. Default 100000.
	MaxTrianglesPerFeature int `json:"maxTrianglesPerFeature" yaml:"maxTrianglesPerFeature"`
}

// DefaultOptions returns the canonical threshold set.
func DefaultOptions() Options {
	return Options{
		AngleTolerance:         0.1,
		AxisAngleTolerance:     0.15,
		RadiusTolerance:        0.01,
		MinPlaneTriangles:      3,
		MinPlaneArea:           1e-6,
		MinCylinderTriangles:   6,
		MinCylinderConfidence:  0.65,
		MaxTrianglesPerFeature: 100000,
	}
}

// Normalized returns a copy with every zero field replaced by its default.
func (o Options) Normalized() Options {
	def := DefaultOptions()
	if o.AngleTolerance == 0 {
		o.AngleTolerance = def.AngleTolerance
	}
	if o.AxisAngleTolerance == 0 {
		o.AxisAngleTolerance = def.AxisAngleTolerance
	}
	if o.RadiusTolerance == 0 {
		o.RadiusTolerance = def.RadiusTolerance
	}
	if o.MinPlaneTriangles == 0 {
		o.MinPlaneTriangles = def.MinPlaneTriangles
	}
	if o.MinPlaneArea == 0 {
		o.MinPlaneArea = def.MinPlaneArea
	}
	if o.MinCylinderTriangles == 0 {
		o.MinCylinderTriangles = def.MinCylinderTriangles
	}
	if o.MinCylinderConfidence == 0 {
		o.MinCylinderConfidence = def.MinCylinderConfidence
	}
	if o.MaxTrianglesPerFeature == 0 {
		o.MaxTrianglesPerFeature = def.MaxTrianglesPerFeature
	}
	return o
}

// Validate rejects option values the pipeline cannot run with.
func (o Options) Validate() error {
	if o.AngleTolerance < 0 || o.AngleTolerance >= math.Pi/2 {
		return fmt.Errorf("angleTolerance %g out of range [0, pi/2)", o.AngleTolerance)
	}
	if o.AxisAngleTolerance < 0 || o.AxisAngleTolerance >= math.Pi/2 {
		return fmt.Errorf("axisAngleTolerance %g out of range [0, pi/2)", o.AxisAngleTolerance)
	}
	if o.RadiusTolerance < 0 {
		return fmt.Errorf("radiusTolerance %g is negative", o.RadiusTolerance)
	}
	if o.MinCylinderConfidence < 0 || o.MinCylinderConfidence > 1 {
		return fmt.Errorf("minCylinderConfidence %g out of range [0, 1]", o.MinCylinderConfidence)
	}
	if o.MinPlaneTriangles < 1 {
		return fmt.Errorf("minPlaneTriangles %d below 1", o.MinPlaneTriangles)
	}
	if o.MinCylinderTriangles < 3 {
		return fmt.Errorf("minCylinderTriangles %d below 3", o.MinCylinderTriangles)
	}
	if o.MaxTrianglesPerFeature < 1 {
		return fmt.Errorf("maxTrianglesPerFeature %d below 1", o.MaxTrianglesPerFeature)
	}
	return nil
}
