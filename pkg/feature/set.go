package feature

import (
	"fmt"

	"github.com/chazu/facet/pkg/mesh"
)

// unclassified is the face-map sentinel for triangles owned by no feature.
const unclassified int32 = -1

// Set is the immutable detection result for one mesh: the recognized
// features plus a flat face-index to feature lookup table. A Set is never
// mutated after construction, so concurrent reads need no locking.
type Set struct {
	MeshID    mesh.ID    `json:"meshId"`
	Planes    []Plane    `json:"planes"`
	Cylinders []Cylinder `json:"cylinders"`

	// faceMap[t] is the slot of the feature owning triangle t
	// (planes first, then cylinders), or unclassified.
	faceMap []int32
	byID    map[ID]int32
}

// NewSet builds the lookup tables over the given features. Slot order is
// planes then cylinders. Returns an error if any triangle is claimed by
// two features or a member id is out of range; an empty feature list is a
// normal, valid result.
func NewSet(meshID mesh.ID, planes []Plane, cylinders []Cylinder, triangleCount int) (*Set, error) {
	s := &Set{
		MeshID:    meshID,
		Planes:    planes,
		Cylinders: cylinders,
		faceMap:   make([]int32, triangleCount),
		byID:      make(map[ID]int32, len(planes)+len(cylinders)),
	}
	for i := range s.faceMap {
		s.faceMap[i] = unclassified
	}

	slot := int32(0)
	claim := func(id ID, members []int32) error {
		if _, dup := s.byID[id]; dup {
			return fmt.Errorf("duplicate feature id %s", id)
		}
		s.byID[id] = slot
		for _, t := range members {
			if t < 0 || int(t) >= triangleCount {
				return fmt.Errorf("feature %s member %d out of range (%d triangles)", id, t, triangleCount)
			}
			if s.faceMap[t] != unclassified {
				return fmt.Errorf("triangle %d claimed by two features", t)
			}
			s.faceMap[t] = slot
		}
		slot++
		return nil
	}

	for i := range planes {
		if err := claim(planes[i].ID, planes[i].Triangles); err != nil {
			return nil, err
		}
	}
	for i := range cylinders {
		if err := claim(cylinders[i].ID, cylinders[i].Triangles); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// TriangleCount returns the size of the face map.
func (s *Set) TriangleCount() int {
	return len(s.faceMap)
}

// ByFace returns the feature owning triangle face, if any. A single array
// read: out-of-range faces and unclassified triangles return (nil, false),
// never an error.
func (s *Set) ByFace(face int) (Feature, bool) {
	if face < 0 || face >= len(s.faceMap) {
		return nil, false
	}
	return s.bySlot(s.faceMap[face])
}

// Find returns the feature with the given id, if present.
func (s *Set) Find(id ID) (Feature, bool) {
	slot, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.bySlot(slot)
}

func (s *Set) bySlot(slot int32) (Feature, bool) {
	switch {
	case slot == unclassified:
		return nil, false
	case int(slot) < len(s.Planes):
		return &s.Planes[slot], true
	default:
		return &s.Cylinders[int(slot)-len(s.Planes)], true
	}
}

// ClassifiedCount returns the number of triangles owned by some feature.
func (s *Set) ClassifiedCount() int {
	n := 0
	for _, slot := range s.faceMap {
		if slot != unclassified {
			n++
		}
	}
	return n
}

func (s *Set) String() string {
	return fmt.Sprintf("features(mesh %s: %d planes, %d cylinders, %d/%d triangles classified)",
		s.MeshID.Short(), len(s.Planes), len(s.Cylinders), s.ClassifiedCount(), len(s.faceMap))
}
