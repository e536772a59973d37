package feature

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

// ID is a stable feature identifier derived from the feature's member
// triangle set. Because the derivation is order-independent and content
// based, byte-identical mesh buffers yield byte-identical feature ids
// across runs, processes, and machines.
type ID string

// EncodeMembers produces the canonical encoding of a member triangle set:
// sorted ascending, compressed into "lo-hi" ranges joined by commas, e.g.
// "0-95,100,102-110". The encoding is independent of input order.
func EncodeMembers(members []int32) string {
	if len(members) == 0 {
		return ""
	}

	sorted := slices.Clone(members)
	slices.Sort(sorted)

	var b strings.Builder
	runStart := sorted[0]
	runEnd := sorted[0]

	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(runStart), 10))
		if runEnd > runStart {
			b.WriteByte('-')
			b.WriteString(strconv.FormatInt(int64(runEnd), 10))
		}
	}

	for _, m := range sorted[1:] {
		if m == runEnd || m == runEnd+1 {
			runEnd = m
			continue
		}
		flush()
		runStart, runEnd = m, m
	}
	flush()

	return b.String()
}

// MakeID derives the stable id for a feature of the given kind: a kind
// prefix plus the first 16 hex characters of a sha256 over the canonical
// member encoding.
func MakeID(kind Kind, members []int32) ID {
	sum := sha256.Sum256([]byte(EncodeMembers(members)))
	digest := hex.EncodeToString(sum[:8])

	switch kind {
	case KindPlane:
		return ID("pl-" + digest)
	case KindCylinder:
		return ID("cy-" + digest)
	default:
		return ID("xx-" + digest)
	}
}
