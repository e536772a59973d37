package shape

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/chazu/facet/pkg/mesh"
)

// maxSTLTriangles caps how large a triangle count ReadSTL accepts before
// assuming a corrupt or non-binary file.
const maxSTLTriangles = 1 << 27

// ReadSTL parses a binary STL stream: 80-byte header, uint32 triangle
// count, then 50-byte records. Coincident vertices are welded by exact
// coordinate match so the mesh carries edge adjacency; the stored facet
// normals are discarded because positions are authoritative.
func ReadSTL(r io.Reader) (*mesh.Mesh, error) {
	var header [80]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("stl header: %w", err)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("stl triangle count: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("stl contains no triangles")
	}
	if count > maxSTLTriangles {
		return nil, fmt.Errorf("stl triangle count %d implausible, not a binary stl?", count)
	}

	type vkey [3]float32
	lookup := make(map[vkey]uint32, count*3/2)
	positions := make([]float32, 0, count*9/2)
	indices := make([]uint32, 0, count*3)

	record := make([]byte, 50)
	for t := uint32(0); t < count; t++ {
		if _, err := io.ReadFull(r, record); err != nil {
			return nil, fmt.Errorf("stl triangle %d of %d: %w", t, count, err)
		}
		// Bytes 0-11 are the stored normal, 48-49 the attribute count.
		for j := 0; j < 3; j++ {
			off := 12 + j*12
			key := vkey{
				math.Float32frombits(binary.LittleEndian.Uint32(record[off:])),
				math.Float32frombits(binary.LittleEndian.Uint32(record[off+4:])),
				math.Float32frombits(binary.LittleEndian.Uint32(record[off+8:])),
			}
			idx, ok := lookup[key]
			if !ok {
				idx = uint32(len(positions) / 3)
				lookup[key] = idx
				positions = append(positions, key[0], key[1], key[2])
			}
			indices = append(indices, idx)
		}
	}

	return &mesh.Mesh{Positions: positions, Indices: indices}, nil
}

// LoadSTL reads a binary STL file. The file size must match the declared
// triangle count exactly; ASCII STL files are rejected.
func LoadSTL(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < 84 {
		return nil, fmt.Errorf("%s: too short for a binary stl", path)
	}

	m, err := ReadSTL(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if want := int64(84 + 50*m.TriangleCount()); want != info.Size() {
		return nil, fmt.Errorf("%s: size %d does not match %d triangles (ascii stl?)",
			path, info.Size(), m.TriangleCount())
	}

	m.Name = filepath.Base(path)
	return m, nil
}

// WriteSTL writes the mesh as binary STL with recomputed facet normals.
func WriteSTL(w io.Writer, m *mesh.Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var header [80]byte
	copy(header[:], "facet binary stl")
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	tris := m.Triangles()
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tris))); err != nil {
		return err
	}

	record := make([]byte, 50)
	putVec := func(off int, x, y, z float64) {
		binary.LittleEndian.PutUint32(record[off:], math.Float32bits(float32(x)))
		binary.LittleEndian.PutUint32(record[off+4:], math.Float32bits(float32(y)))
		binary.LittleEndian.PutUint32(record[off+8:], math.Float32bits(float32(z)))
	}

	for _, tri := range tris {
		putVec(0, tri.Normal.X, tri.Normal.Y, tri.Normal.Z)
		for j, v := range [3]uint32{tri.V0, tri.V1, tri.V2} {
			p := m.Position(v)
			putVec(12+j*12, p.X, p.Y, p.Z)
		}
		record[48] = 0
		record[49] = 0
		if _, err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// SaveSTL writes the mesh to a binary STL file.
func SaveSTL(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(f)
	if err := WriteSTL(bw, m); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
