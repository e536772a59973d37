package eventlog

import (
	"time"
)

// Event is one detection or pool occurrence. CBOR encoding uses integer
// keys for compactness. Exactly one of the payload pointers is set,
// matching the Category.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID correlates all events of one detection run (UUID).
	RunID string `cbor:"2,keyasint,omitempty"`

	// MeshID is the content id of the mesh involved.
	MeshID string `cbor:"3,keyasint,omitempty"`

	// Stage of the pipeline that produced the event.
	Stage Stage `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	Run      *RunEvent      `cbor:"6,keyasint,omitempty"`
	Plane    *PlaneEvent    `cbor:"7,keyasint,omitempty"`
	Cylinder *CylinderEvent `cbor:"8,keyasint,omitempty"`
	Reject   *RejectEvent   `cbor:"9,keyasint,omitempty"`
	Cache    *CacheEvent    `cbor:"10,keyasint,omitempty"`
	Error    *ErrorEvent    `cbor:"11,keyasint,omitempty"`
}

// Stage indicates which pipeline stage produced an event.
type Stage uint8

const (
	// StageMesh covers ingest: validation, triangle derivation, adjacency.
	StageMesh Stage = 0
	// StageDetect covers plane growing and cylinder fitting.
	StageDetect Stage = 1
	// StagePool covers cache activity: registration, lookups, eviction.
	StagePool Stage = 2
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageMesh:
		return "MESH"
	case StageDetect:
		return "DETECT"
	case StagePool:
		return "POOL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRun marks detection run lifecycle events.
	CategoryRun Category = 0
	// CategoryFeature marks an accepted plane or cylinder.
	CategoryFeature Category = 1
	// CategoryReject marks a residual component that failed cylinder fit.
	CategoryReject Category = 2
	// CategoryCache marks pool activity.
	CategoryCache Category = 3
	// CategoryError marks failures at any stage.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRun:
		return "RUN"
	case CategoryFeature:
		return "FEATURE"
	case CategoryReject:
		return "REJECT"
	case CategoryCache:
		return "CACHE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// RunState is the lifecycle state reported by a RunEvent.
type RunState uint8

const (
	RunStarted   RunState = 0
	RunCompleted RunState = 1
	RunFailed    RunState = 2
)

// String returns the run state name.
func (s RunState) String() string {
	switch s {
	case RunStarted:
		return "STARTED"
	case RunCompleted:
		return "COMPLETED"
	case RunFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// RunEvent reports detection run lifecycle and final counts.
type RunEvent struct {
	State      RunState      `cbor:"1,keyasint"`
	Triangles  int           `cbor:"2,keyasint,omitempty"`
	Degenerate int           `cbor:"3,keyasint,omitempty"`
	Planes     int           `cbor:"4,keyasint,omitempty"`
	Cylinders  int           `cbor:"5,keyasint,omitempty"`
	Classified int           `cbor:"6,keyasint,omitempty"`
	Elapsed    time.Duration `cbor:"7,keyasint,omitempty"`
}

// PlaneEvent reports an accepted planar region.
type PlaneEvent struct {
	FeatureID string  `cbor:"1,keyasint"`
	Triangles int     `cbor:"2,keyasint"`
	Area      float64 `cbor:"3,keyasint"`
}

// CylinderEvent reports an accepted cylindrical region.
type CylinderEvent struct {
	FeatureID  string  `cbor:"1,keyasint"`
	Triangles  int     `cbor:"2,keyasint"`
	Radius     float64 `cbor:"3,keyasint"`
	Height     float64 `cbor:"4,keyasint"`
	Confidence float64 `cbor:"5,keyasint"`
}

// RejectReason explains why a residual component produced no cylinder.
type RejectReason uint8

const (
	// RejectTooSmall: fewer members than the minimum triangle count.
	RejectTooSmall RejectReason = 0
	// RejectTilted: member normals not perpendicular to the fitted axis
	// (cones, spherical caps).
	RejectTilted RejectReason = 1
	// RejectRadiusSpread: vertex radial distances outside tolerance
	// (spheres, tori, free-form surfaces).
	RejectRadiusSpread RejectReason = 2
	// RejectLowConfidence: radial fit below the confidence floor.
	RejectLowConfidence RejectReason = 3
	// RejectDegenerateFit: the covariance decomposition failed.
	RejectDegenerateFit RejectReason = 4
)

// String returns the reject reason name.
func (r RejectReason) String() string {
	switch r {
	case RejectTooSmall:
		return "TOO_SMALL"
	case RejectTilted:
		return "TILTED"
	case RejectRadiusSpread:
		return "RADIUS_SPREAD"
	case RejectLowConfidence:
		return "LOW_CONFIDENCE"
	case RejectDegenerateFit:
		return "DEGENERATE_FIT"
	default:
		return "UNKNOWN"
	}
}

// RejectEvent reports a residual component that failed cylinder fitting.
// Measured and Limit carry the value that tripped the gate and the
// configured bound, in the gate's own unit.
type RejectEvent struct {
	Reason    RejectReason `cbor:"1,keyasint"`
	Triangles int          `cbor:"2,keyasint"`
	Measured  float64      `cbor:"3,keyasint,omitempty"`
	Limit     float64      `cbor:"4,keyasint,omitempty"`
}

// CacheOp is the pool operation reported by a CacheEvent.
type CacheOp uint8

const (
	CacheRegister CacheOp = 0
	CacheHit      CacheOp = 1
	CacheMiss     CacheOp = 2
	CacheEvict    CacheOp = 3
	CacheRestore  CacheOp = 4
)

// String returns the cache operation name.
func (o CacheOp) String() string {
	switch o {
	case CacheRegister:
		return "REGISTER"
	case CacheHit:
		return "HIT"
	case CacheMiss:
		return "MISS"
	case CacheEvict:
		return "EVICT"
	case CacheRestore:
		return "RESTORE"
	default:
		return "UNKNOWN"
	}
}

// CacheEvent reports pool activity.
type CacheEvent struct {
	Op      CacheOp `cbor:"1,keyasint"`
	Entries int     `cbor:"2,keyasint,omitempty"` // entries after the operation
}

// ErrorEvent reports a failure at any stage.
type ErrorEvent struct {
	Message string `cbor:"1,keyasint"`
	Context string `cbor:"2,keyasint,omitempty"`
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewRunStarted builds the run-start event.
func NewRunStarted(runID, meshID string, triangles, degenerate int) Event {
	return Event{
		Timestamp: time.Now(),
		RunID:     runID,
		MeshID:    meshID,
		Stage:     StageMesh,
		Category:  CategoryRun,
		Run:       &RunEvent{State: RunStarted, Triangles: triangles, Degenerate: degenerate},
	}
}

// NewRunCompleted builds the run-end event with final counts.
func NewRunCompleted(runID, meshID string, planes, cylinders, classified int, elapsed time.Duration) Event {
	return Event{
		Timestamp: time.Now(),
		RunID:     runID,
		MeshID:    meshID,
		Stage:     StageDetect,
		Category:  CategoryRun,
		Run: &RunEvent{
			State:      RunCompleted,
			Planes:     planes,
			Cylinders:  cylinders,
			Classified: classified,
			Elapsed:    elapsed,
		},
	}
}

// NewRunFailed builds the run-failure event.
func NewRunFailed(runID, meshID string, elapsed time.Duration, err error) Event {
	return Event{
		Timestamp: time.Now(),
		RunID:     runID,
		MeshID:    meshID,
		Stage:     StageDetect,
		Category:  CategoryError,
		Run:       &RunEvent{State: RunFailed, Elapsed: elapsed},
		Error:     &ErrorEvent{Message: err.Error()},
	}
}

// NewPlaneFound builds the accepted-plane event.
func NewPlaneFound(runID, meshID, featureID string, triangles int, area float64) Event {
	return Event{
		Timestamp: time.Now(),
		RunID:     runID,
		MeshID:    meshID,
		Stage:     StageDetect,
		Category:  CategoryFeature,
		Plane:     &PlaneEvent{FeatureID: featureID, Triangles: triangles, Area: area},
	}
}

// NewCylinderFound builds the accepted-cylinder event.
func NewCylinderFound(runID, meshID, featureID string, triangles int, radius, height, confidence float64) Event {
	return Event{
		Timestamp: time.Now(),
		RunID:     runID,
		MeshID:    meshID,
		Stage:     StageDetect,
		Category:  CategoryFeature,
		Cylinder: &CylinderEvent{
			FeatureID:  featureID,
			Triangles:  triangles,
			Radius:     radius,
			Height:     height,
			Confidence: confidence,
		},
	}
}

// NewComponentRejected builds the failed-fit event.
func NewComponentRejected(runID, meshID string, reason RejectReason, triangles int, measured, limit float64) Event {
	return Event{
		Timestamp: time.Now(),
		RunID:     runID,
		MeshID:    meshID,
		Stage:     StageDetect,
		Category:  CategoryReject,
		Reject: &RejectEvent{
			Reason:    reason,
			Triangles: triangles,
			Measured:  measured,
			Limit:     limit,
		},
	}
}

// NewCacheEvent builds a pool activity event.
func NewCacheEvent(meshID string, op CacheOp, entries int) Event {
	return Event{
		Timestamp: time.Now(),
		MeshID:    meshID,
		Stage:     StagePool,
		Category:  CategoryCache,
		Cache:     &CacheEvent{Op: op, Entries: entries},
	}
}

// NewErrorEvent builds a failure event outside a detection run.
func NewErrorEvent(meshID string, stage Stage, err error, context string) Event {
	return Event{
		Timestamp: time.Now(),
		MeshID:    meshID,
		Stage:     stage,
		Category:  CategoryError,
		Error:     &ErrorEvent{Message: err.Error(), Context: context},
	}
}
