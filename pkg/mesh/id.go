package mesh

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// ID is the content identity of a mesh: a hex-encoded sha256 over its
// buffer contents. Byte-identical buffers always produce the same ID,
// regardless of object identity, process, or machine.
type ID string

// Short returns a 12-character prefix for logs.
func (id ID) Short() string {
	if len(id) < 12 {
		return string(id)
	}
	return string(id[:12])
}

// ContentID hashes the mesh buffers. Each buffer is length-prefixed so
// adjacent buffers cannot collide across boundary shifts. Supplied normals
// participate because they change what detection reads; absent normals
// hash as absent, never as the computed fallback.
func (m *Mesh) ContentID() ID {
	h := sha256.New()
	h.Write([]byte("facet/mesh/v1"))

	var lenBuf [4]byte
	writeLen := func(n int) {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(n))
		h.Write(lenBuf[:])
	}

	writeLen(len(m.Positions))
	h.Write(floatBytes(m.Positions))

	writeLen(len(m.Indices))
	idxBuf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(idxBuf[i*4:], idx)
	}
	h.Write(idxBuf)

	writeLen(len(m.Normals))
	h.Write(floatBytes(m.Normals))

	return ID(hex.EncodeToString(h.Sum(nil)))
}

func floatBytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)
	for i, f := range fs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
