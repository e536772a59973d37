package mesh

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry indicates mesh buffers that cannot be interpreted as
// a triangle mesh. Nothing downstream (detection, caching) runs on a mesh
// that fails validation.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Validate checks buffer shape: positions present and a multiple of 3,
// indices a multiple of 3 and in range, normals (when supplied) matching
// the position count. Degenerate triangles are not an error; they are
// marked during triangle derivation and skipped by consumers.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return fmt.Errorf("%w: empty position buffer", ErrInvalidGeometry)
	}
	if len(m.Positions)%3 != 0 {
		return fmt.Errorf("%w: position buffer length %d is not a multiple of 3",
			ErrInvalidGeometry, len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: index buffer length %d is not a multiple of 3",
			ErrInvalidGeometry, len(m.Indices))
	}
	if len(m.Indices) == 0 && len(m.Positions)%9 != 0 {
		return fmt.Errorf("%w: unindexed position buffer holds %d vertices, not a multiple of 3",
			ErrInvalidGeometry, len(m.Positions)/3)
	}

	numVerts := uint32(len(m.Positions) / 3)
	for off, idx := range m.Indices {
		if idx >= numVerts {
			return fmt.Errorf("%w: index %d at offset %d out of range (%d vertices)",
				ErrInvalidGeometry, idx, off, numVerts)
		}
	}

	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: normal buffer length %d does not match position buffer length %d",
			ErrInvalidGeometry, len(m.Normals), len(m.Positions))
	}

	return nil
}
