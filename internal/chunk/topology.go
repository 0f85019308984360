// Package chunk maps N-dimensional arrays onto fixed-shape chunks persisted
// in a block substrate, and gathers arbitrary strided hyperslab selections
// back out of them.
//
// Chunks are stored at full chunk shape even at grid edges (edge chunks are
// fill-padded), so element offsets inside a chunk depend only on the chunk
// shape. A chunk that was never written simply has no blob; readers treat it
// as all-fill. Keys are the array name plus the chunk coordinate joined with
// dots: "data/3.0.12".
package chunk

import (
	"fmt"
	"strconv"
	"strings"
)

// Topology describes an array's shape and its chunk shape.
type Topology struct {
	Shape      []int
	ChunkShape []int
}

// NewTopology validates shape against chunk shape. Chunk extents larger than
// the array are clipped so a single chunk covers the axis.
func NewTopology(shape, chunkShape []int) (Topology, error) {
	if len(shape) != len(chunkShape) {
		return Topology{}, fmt.Errorf("shape rank %d != chunk shape rank %d", len(shape), len(chunkShape))
	}
	s := append([]int(nil), shape...)
	c := append([]int(nil), chunkShape...)
	for d := range s {
		if s[d] <= 0 {
			return Topology{}, fmt.Errorf("dimension %d has size %d", d, s[d])
		}
		if c[d] <= 0 {
			return Topology{}, fmt.Errorf("chunk dimension %d has size %d", d, c[d])
		}
		if c[d] > s[d] {
			c[d] = s[d]
		}
	}
	return Topology{Shape: s, ChunkShape: c}, nil
}

// Rank returns the number of dimensions.
func (t Topology) Rank() int { return len(t.Shape) }

// NumElems returns the total element count of the array.
func (t Topology) NumElems() int {
	n := 1
	for _, s := range t.Shape {
		n *= s
	}
	return n
}

// ChunkElems returns the element count of one (full-shape) chunk.
func (t Topology) ChunkElems() int {
	n := 1
	for _, c := range t.ChunkShape {
		n *= c
	}
	return n
}

// ChunkCounts returns the chunk grid extent per dimension.
func (t Topology) ChunkCounts() []int {
	counts := make([]int, t.Rank())
	for d := range counts {
		counts[d] = (t.Shape[d] + t.ChunkShape[d] - 1) / t.ChunkShape[d]
	}
	return counts
}

// NumChunks returns the total number of chunk slots.
func (t Topology) NumChunks() int {
	n := 1
	for _, c := range t.ChunkCounts() {
		n *= c
	}
	return n
}

// ChunkCoord returns the chunk coordinate owning an element position.
func (t Topology) ChunkCoord(pos []int) []int {
	cc := make([]int, t.Rank())
	for d := range cc {
		cc[d] = pos[d] / t.ChunkShape[d]
	}
	return cc
}

// Origin returns the element position of a chunk's first cell.
func (t Topology) Origin(cc []int) []int {
	origin := make([]int, t.Rank())
	for d := range origin {
		origin[d] = cc[d] * t.ChunkShape[d]
	}
	return origin
}

// ChunkStrides returns per-dimension element strides inside a chunk buffer
// (row-major, innermost dimension contiguous).
func (t Topology) ChunkStrides() []int {
	strides := make([]int, t.Rank())
	strides[t.Rank()-1] = 1
	for d := t.Rank() - 2; d >= 0; d-- {
		strides[d] = strides[d+1] * t.ChunkShape[d+1]
	}
	return strides
}

// OffsetInChunk returns the element offset of a global position within its
// owning chunk's buffer.
func (t Topology) OffsetInChunk(pos []int) int {
	strides := t.ChunkStrides()
	off := 0
	for d := range pos {
		off += (pos[d] % t.ChunkShape[d]) * strides[d]
	}
	return off
}

// Key renders a chunk coordinate as a dotted blob key component.
func Key(cc []int) string {
	parts := make([]string, len(cc))
	for i, c := range cc {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}

// ParseKey parses a dotted chunk coordinate.
func ParseKey(s string) ([]int, error) {
	parts := strings.Split(s, ".")
	cc := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad chunk key %q: %w", s, err)
		}
		cc[i] = v
	}
	return cc, nil
}
