// Package pool caches computed feature sets per mesh, keyed by content
// id. Registration is cheap and idempotent; detection runs off the
// caller's interactive path with one writer per mesh, a per-mesh time
// budget, and bounded batch parallelism. Lookups are synchronous reads
// that never detect inline. Capacity is bounded by least-recently-used
// eviction of computed sets; eviction keeps the mesh reference, so a
// later detection reproduces the same feature ids.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/chazu/facet/pkg/detect"
	"github.com/chazu/facet/pkg/eventlog"
	"github.com/chazu/facet/pkg/feature"
	"github.com/chazu/facet/pkg/mesh"
)

var (
	// ErrDetectionTimeout reports a mesh whose detection exceeded the
	// per-mesh budget. The batch continues without it.
	ErrDetectionTimeout = errors.New("detection timed out")

	// ErrUnknownMesh reports an id that was never registered.
	ErrUnknownMesh = errors.New("unknown mesh")
)

// Options configures a Pool. Zero values mean "use the default".
type Options struct {
	// Capacity is the number of computed feature sets held before the
	// least recently used one is evicted. Default 64.
	Capacity int `json:"capacity" yaml:"capacity"`

	// DetectBudget is the wall-clock limit for one mesh's detection.
	// Default 2s.
	DetectBudget time.Duration `json:"detectBudget" yaml:"detectBudget"`

	// Workers bounds batch preprocessing parallelism. Default GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`

	// Options configures the detection pipeline itself.
	detect.Options `yaml:",inline"`
}

// DefaultOptions returns the canonical pool configuration.
func DefaultOptions() Options {
	return Options{
		Capacity:     64,
		DetectBudget: 2 * time.Second,
		Workers:      runtime.GOMAXPROCS(0),
		Options:      detect.DefaultOptions(),
	}
}

// Normalized returns a copy with every zero field replaced by its default.
func (o Options) Normalized() Options {
	def := DefaultOptions()
	if o.Capacity == 0 {
		o.Capacity = def.Capacity
	}
	if o.DetectBudget == 0 {
		o.DetectBudget = def.DetectBudget
	}
	if o.Workers == 0 {
		o.Workers = def.Workers
	}
	o.Options = o.Options.Normalized()
	return o
}

// entry is one registered mesh. set is nil while detection is pending and
// after eviction; mesh is nil for snapshot-restored identities until the
// mesh is registered again.
type entry struct {
	mesh       *mesh.Mesh
	set        *feature.Set
	lastAccess atomic.Int64 // unix nanoseconds
}

func (e *entry) touch() {
	e.lastAccess.Store(time.Now().UnixNano())
}

// Pool is the content-addressed feature cache. All methods are safe for
// concurrent use.
type Pool struct {
	opts     Options
	detector *detect.Detector
	log      eventlog.Logger

	mu      sync.RWMutex
	entries map[mesh.ID]*entry

	// group coalesces concurrent detections of the same mesh.
	group singleflight.Group

	// Counters are atomic for lock-free reads.
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	timeouts  atomic.Int64
}

// New creates a Pool (zero option fields filled with defaults). A nil
// logger disables event emission.
func New(opts Options, logger eventlog.Logger) *Pool {
	if logger == nil {
		logger = eventlog.NoopLogger{}
	}
	opts = opts.Normalized()
	return &Pool{
		opts:     opts,
		detector: detect.New(opts.Options, logger),
		log:      logger,
		entries:  make(map[mesh.ID]*entry),
	}
}

// Options returns the normalized option set the pool runs with.
func (p *Pool) Options() Options {
	return p.opts
}

// Register computes the content id of m and stores the mesh under it.
// Registering identical content twice is a no-op that returns the same
// id; re-registering an evicted or snapshot-restored identity reattaches
// the mesh so detection can run again. A mesh with no positions returns
// an error wrapping mesh.ErrInvalidGeometry and caches nothing; deeper
// buffer defects surface when detection runs.
func (p *Pool) Register(m *mesh.Mesh) (mesh.ID, error) {
	if m == nil || len(m.Positions) == 0 {
		return "", fmt.Errorf("%w: empty position buffer", mesh.ErrInvalidGeometry)
	}
	id := m.ContentID()

	p.mu.Lock()
	e, ok := p.entries[id]
	if !ok {
		e = &entry{mesh: m}
		p.entries[id] = e
	} else if e.mesh == nil {
		e.mesh = m
	}
	e.touch()
	entries := len(p.entries)
	p.mu.Unlock()

	p.log.Log(eventlog.NewCacheEvent(string(id), eventlog.CacheRegister, entries))
	return id, nil
}

// Detect returns the feature set of a registered mesh, computing it
// synchronously if needed. Concurrent calls for the same id share one
// detection run. A run that exceeds DetectBudget fails with
// ErrDetectionTimeout and may be retried.
func (p *Pool) Detect(ctx context.Context, id mesh.ID) (*feature.Set, error) {
	if set, ok := p.Features(id); ok {
		p.hits.Add(1)
		return set, nil
	}

	v, err, _ := p.group.Do(string(id), func() (any, error) {
		// Another caller may have finished while this one queued.
		if set, ok := p.Features(id); ok {
			return set, nil
		}
		return p.compute(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*feature.Set), nil
}

// Preprocess detects every listed mesh with at most Workers running at
// once and DetectBudget per mesh. The result maps each id to nil on
// success or its failure; one mesh timing out or failing never aborts
// the rest of the batch.
func (p *Pool) Preprocess(ctx context.Context, ids ...mesh.ID) map[mesh.ID]error {
	results := make(map[mesh.ID]error, len(ids))
	var mu sync.Mutex
	record := func(id mesh.ID, err error) {
		mu.Lock()
		results[id] = err
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)
	for _, id := range ids {
		eg.Go(func() error {
			_, err := p.Detect(egCtx, id)
			record(id, err)
			// Failures are recorded per mesh, never propagated.
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// compute runs one budgeted detection and publishes the result. Callers
// hold the singleflight slot for id.
func (p *Pool) compute(ctx context.Context, id mesh.ID) (*feature.Set, error) {
	p.mu.RLock()
	e, ok := p.entries[id]
	var m *mesh.Mesh
	if ok {
		m = e.mesh
	}
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMesh, id.Short())
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s restored without a mesh", ErrUnknownMesh, id.Short())
	}

	p.misses.Add(1)
	p.log.Log(eventlog.NewCacheEvent(string(id), eventlog.CacheMiss, p.Len()))

	runCtx, cancel := context.WithTimeout(ctx, p.opts.DetectBudget)
	defer cancel()

	set, err := p.detector.Detect(runCtx, m)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.timeouts.Add(1)
			return nil, fmt.Errorf("%w: %s after %s", ErrDetectionTimeout, id.Short(), p.opts.DetectBudget)
		}
		return nil, err
	}

	p.publish(id, set)
	return set, nil
}

// publish stores a computed set and applies the capacity bound.
func (p *Pool) publish(id mesh.ID, set *feature.Set) {
	p.mu.Lock()
	e, ok := p.entries[id]
	if !ok {
		// Cleared while detection ran; drop the result.
		p.mu.Unlock()
		return
	}
	e.set = set
	e.touch()
	evicted := p.evictOverflowLocked(id)
	entries := len(p.entries)
	p.mu.Unlock()

	for _, eid := range evicted {
		p.evictions.Add(1)
		p.log.Log(eventlog.NewCacheEvent(string(eid), eventlog.CacheEvict, entries))
	}
}

// evictOverflowLocked drops the oldest computed sets until at most
// Capacity remain. The entry identities and mesh references stay, so a
// later detection reproduces identical feature ids. keep is exempt.
func (p *Pool) evictOverflowLocked(keep mesh.ID) []mesh.ID {
	var evicted []mesh.ID
	for {
		computed := 0
		var oldest mesh.ID
		oldestAt := int64(math.MaxInt64)
		for eid, e := range p.entries {
			if e.set == nil {
				continue
			}
			computed++
			if eid == keep {
				continue
			}
			if at := e.lastAccess.Load(); at < oldestAt {
				oldestAt = at
				oldest = eid
			}
		}
		if computed <= p.opts.Capacity || oldest == "" {
			return evicted
		}
		p.entries[oldest].set = nil
		evicted = append(evicted, oldest)
	}
}

// ByFace returns the feature owning the given face. Unknown mesh, pending
// or evicted set, out-of-range face, and unclassified face all return
// (nil, false); the call never errors and never detects inline. A lookup
// that lands on an evicted entry schedules a background re-detection so
// later lookups see recomputed results under the same feature ids.
func (p *Pool) ByFace(id mesh.ID, face int) (feature.Feature, bool) {
	p.mu.RLock()
	e, ok := p.entries[id]
	var set *feature.Set
	hasMesh := false
	if ok {
		e.touch()
		set = e.set
		hasMesh = e.mesh != nil
	}
	p.mu.RUnlock()

	if !ok {
		p.misses.Add(1)
		return nil, false
	}
	if set == nil {
		p.misses.Add(1)
		if hasMesh {
			p.redetect(id)
		}
		return nil, false
	}

	p.hits.Add(1)
	return set.ByFace(face)
}

// redetect recomputes an entry's set off the caller's path.
func (p *Pool) redetect(id mesh.ID) {
	go func() {
		if _, err := p.Detect(context.Background(), id); err != nil {
			p.log.Log(eventlog.NewErrorEvent(string(id), eventlog.StagePool, err, "background re-detection"))
		}
	}()
}

// Features returns the computed feature set when one is present.
func (p *Pool) Features(id mesh.ID) (*feature.Set, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[id]
	if !ok || e.set == nil {
		return nil, false
	}
	e.touch()
	return e.set, true
}

// FeatureTriangles returns the member triangles of one feature: the
// reverse of ByFace.
func (p *Pool) FeatureTriangles(id mesh.ID, fid feature.ID) ([]int32, bool) {
	set, ok := p.Features(id)
	if !ok {
		return nil, false
	}
	f, ok := set.Find(fid)
	if !ok {
		return nil, false
	}
	return f.Members(), true
}

// Len returns the number of registered meshes.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Clear drops every entry and resets the counters.
func (p *Pool) Clear() {
	p.mu.Lock()
	p.entries = make(map[mesh.ID]*entry)
	p.mu.Unlock()

	p.hits.Store(0)
	p.misses.Store(0)
	p.evictions.Store(0)
	p.timeouts.Store(0)
}

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Hits      int64 // lookups served from a computed set
	Misses    int64 // lookups that found no computed set
	Evictions int64 // computed sets dropped by the capacity bound
	Timeouts  int64 // detections abandoned at the budget
	Entries   int   // registered meshes
	Computed  int   // entries currently holding a computed set
}

// HitRate returns the hit rate as a percentage (0-100), zero before any
// lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d evictions=%d timeouts=%d entries=%d computed=%d hitRate=%.1f%%",
		s.Hits, s.Misses, s.Evictions, s.Timeouts, s.Entries, s.Computed, s.HitRate())
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	entries := len(p.entries)
	computed := 0
	for _, e := range p.entries {
		if e.set != nil {
			computed++
		}
	}
	p.mu.RUnlock()

	return Stats{
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Evictions: p.evictions.Load(),
		Timeouts:  p.timeouts.Load(),
		Entries:   entries,
		Computed:  computed,
	}
}
