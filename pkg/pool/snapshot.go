package pool

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/chazu/facet/pkg/eventlog"
	"github.com/chazu/facet/pkg/feature"
	"github.com/chazu/facet/pkg/mesh"
)

// snapshotVersion is bumped when the snapshot format changes; files with
// a different version are rejected on load.
const snapshotVersion = 1

type snapshotFile struct {
	Version int             `cbor:"1,keyasint"`
	Saved   time.Time       `cbor:"2,keyasint"`
	Entries []snapshotEntry `cbor:"3,keyasint,omitempty"`
}

type snapshotEntry struct {
	MeshID        string             `cbor:"1,keyasint"`
	TriangleCount int                `cbor:"2,keyasint"`
	Planes        []snapshotPlane    `cbor:"3,keyasint,omitempty"`
	Cylinders     []snapshotCylinder `cbor:"4,keyasint,omitempty"`
	LastAccess    int64              `cbor:"5,keyasint"`
}

type snapshotPlane struct {
	ID        string     `cbor:"1,keyasint"`
	Normal    [3]float64 `cbor:"2,keyasint"`
	Center    [3]float64 `cbor:"3,keyasint"`
	Area      float64    `cbor:"4,keyasint"`
	Triangles []int32    `cbor:"5,keyasint"`
}

type snapshotCylinder struct {
	ID         string     `cbor:"1,keyasint"`
	Axis       [3]float64 `cbor:"2,keyasint"`
	Center     [3]float64 `cbor:"3,keyasint"`
	Radius     float64    `cbor:"4,keyasint"`
	Height     float64    `cbor:"5,keyasint"`
	Confidence float64    `cbor:"6,keyasint"`
	Triangles  []int32    `cbor:"7,keyasint"`
}

func vecArray(v mesh.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func arrayVec(a [3]float64) mesh.Vec3 { return mesh.Vec3{X: a[0], Y: a[1], Z: a[2]} }

func makeSnapshotEntry(id mesh.ID, e *entry) snapshotEntry {
	set := e.set
	se := snapshotEntry{
		MeshID:        string(id),
		TriangleCount: set.TriangleCount(),
		LastAccess:    e.lastAccess.Load(),
	}
	for i := range set.Planes {
		p := &set.Planes[i]
		se.Planes = append(se.Planes, snapshotPlane{
			ID:        string(p.ID),
			Normal:    vecArray(p.Normal),
			Center:    vecArray(p.Center),
			Area:      p.Area,
			Triangles: p.Triangles,
		})
	}
	for i := range set.Cylinders {
		c := &set.Cylinders[i]
		se.Cylinders = append(se.Cylinders, snapshotCylinder{
			ID:         string(c.ID),
			Axis:       vecArray(c.Axis),
			Center:     vecArray(c.Center),
			Radius:     c.Radius,
			Height:     c.Height,
			Confidence: c.Confidence,
			Triangles:  c.Triangles,
		})
	}
	return se
}

// featureSet rebuilds the immutable set, re-validating the member lists.
func (se *snapshotEntry) featureSet() (*feature.Set, error) {
	planes := make([]feature.Plane, len(se.Planes))
	for i, p := range se.Planes {
		planes[i] = feature.Plane{
			ID:        feature.ID(p.ID),
			Normal:    arrayVec(p.Normal),
			Center:    arrayVec(p.Center),
			Area:      p.Area,
			Triangles: p.Triangles,
		}
	}
	cylinders := make([]feature.Cylinder, len(se.Cylinders))
	for i, c := range se.Cylinders {
		cylinders[i] = feature.Cylinder{
			ID:         feature.ID(c.ID),
			Axis:       arrayVec(c.Axis),
			Center:     arrayVec(c.Center),
			Radius:     c.Radius,
			Height:     c.Height,
			Confidence: c.Confidence,
			Triangles:  c.Triangles,
		}
	}
	return feature.NewSet(mesh.ID(se.MeshID), planes, cylinders, se.TriangleCount)
}

// SaveSnapshot writes every computed feature set to path as one CBOR
// document, entries sorted by mesh id. Meshes are not persisted: a
// restored entry serves lookups immediately and regains detection once
// its mesh is registered again.
func (p *Pool) SaveSnapshot(path string) error {
	snap := snapshotFile{Version: snapshotVersion, Saved: time.Now()}

	p.mu.RLock()
	for id, e := range p.entries {
		if e.set == nil {
			continue
		}
		snap.Entries = append(snap.Entries, makeSnapshotEntry(id, e))
	}
	p.mu.RUnlock()

	slices.SortFunc(snap.Entries, func(a, b snapshotEntry) int {
		return strings.Compare(a.MeshID, b.MeshID)
	})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := eventlog.NewEncoder(bw).Encode(snap); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshot merges a snapshot file into the pool. A restored set
// attaches to its existing entry when that entry holds none; entries
// that already have a computed set keep it. The capacity bound applies
// after the merge.
func (p *Pool) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var snap snapshotFile
	if err := eventlog.NewDecoder(bufio.NewReader(f)).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", snap.Version, snapshotVersion)
	}

	p.mu.Lock()
	for _, se := range snap.Entries {
		id := mesh.ID(se.MeshID)
		if existing, ok := p.entries[id]; ok && existing.set != nil {
			continue
		}
		set, err := se.featureSet()
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("snapshot entry %s: %w", mesh.ID(se.MeshID).Short(), err)
		}
		e, ok := p.entries[id]
		if !ok {
			e = &entry{}
			p.entries[id] = e
		}
		e.set = set
		e.lastAccess.Store(se.LastAccess)
	}
	evicted := p.evictOverflowLocked("")
	entries := len(p.entries)
	p.mu.Unlock()

	for _, eid := range evicted {
		p.evictions.Add(1)
		p.log.Log(eventlog.NewCacheEvent(string(eid), eventlog.CacheEvict, entries))
	}
	p.log.Log(eventlog.NewCacheEvent("", eventlog.CacheRestore, entries))
	return nil
}
