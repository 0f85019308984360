package chunk

import (
	"context"
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-mdio/internal/blob"
	"github.com/robert-malhotra/go-mdio/internal/filter"
)

// Array is one chunked N-dimensional array persisted in a block substrate.
// Several arrays (samples, header fields, liveness, sequence numbers) share
// a substrate under distinct name prefixes.
type Array struct {
	name     string
	topo     Topology
	elemSize int
	fill     []byte // one element's fill pattern
	store    blob.Store
	pipe     *filter.Pipeline
}

// New builds an array handle. fill must be exactly elemSize bytes; it is the
// pattern cells hold until written and the value reads return for not-live
// regions.
func New(store blob.Store, pipe *filter.Pipeline, name string, topo Topology, elemSize int, fill []byte) (*Array, error) {
	if len(fill) != elemSize {
		return nil, fmt.Errorf("array %s: fill is %d bytes, element size is %d", name, len(fill), elemSize)
	}
	return &Array{name: name, topo: topo, elemSize: elemSize, fill: fill, store: store, pipe: pipe}, nil
}

// Name returns the array's name prefix in the substrate.
func (a *Array) Name() string { return a.name }

// Topo returns the array topology.
func (a *Array) Topo() Topology { return a.topo }

// ElemSize returns the element width in bytes.
func (a *Array) ElemSize() int { return a.elemSize }

// ChunkKey returns the blob key for a chunk coordinate.
func (a *Array) ChunkKey(cc []int) string {
	return a.name + "/" + Key(cc)
}

// NewChunkBuf allocates a full-shape chunk buffer initialized to fill.
func (a *Array) NewChunkBuf() []byte {
	buf := make([]byte, a.topo.ChunkElems()*a.elemSize)
	a.fillBytes(buf)
	return buf
}

func (a *Array) fillBytes(buf []byte) {
	// Common fast case: zero fill is what make already produced.
	allZero := true
	for _, b := range a.fill {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return
	}
	for i := 0; i < len(buf); i += a.elemSize {
		copy(buf[i:], a.fill)
	}
}

// WriteChunk encodes a raw full-shape chunk buffer through the filter
// pipeline and persists it.
func (a *Array) WriteChunk(ctx context.Context, cc []int, raw []byte) error {
	if len(raw) != a.topo.ChunkElems()*a.elemSize {
		return fmt.Errorf("array %s: chunk %v is %d bytes, want %d",
			a.name, cc, len(raw), a.topo.ChunkElems()*a.elemSize)
	}
	data := raw
	if a.pipe != nil && !a.pipe.Empty() {
		var err error
		data, err = a.pipe.Encode(raw)
		if err != nil {
			return fmt.Errorf("array %s: encoding chunk %v: %w", a.name, cc, err)
		}
	}
	if err := a.store.Put(ctx, a.ChunkKey(cc), data); err != nil {
		return fmt.Errorf("array %s: writing chunk %v: %w", a.name, cc, err)
	}
	return nil
}

// ReadChunk fetches and decodes one chunk. Missing chunks return a
// fill-initialized buffer and found=false.
func (a *Array) ReadChunk(ctx context.Context, cc []int) (buf []byte, found bool, err error) {
	data, err := a.store.Get(ctx, a.ChunkKey(cc))
	if errors.Is(err, blob.ErrNotFound) {
		return a.NewChunkBuf(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("array %s: reading chunk %v: %w", a.name, cc, err)
	}
	if a.pipe != nil && !a.pipe.Empty() {
		data, err = a.pipe.Decode(data)
		if err != nil {
			return nil, false, fmt.Errorf("array %s: decoding chunk %v: %w", a.name, cc, err)
		}
	}
	want := a.topo.ChunkElems() * a.elemSize
	if len(data) != want {
		return nil, false, fmt.Errorf("array %s: chunk %v decoded to %d bytes, want %d", a.name, cc, len(data), want)
	}
	return data, true, nil
}

// ReadSlice gathers a strided hyperslab selection into a dense row-major
// buffer. Only chunks intersecting the selection are fetched; cells in
// missing chunks keep the fill value. The returned shape has scalar axes
// dropped.
func (a *Array) ReadSlice(ctx context.Context, sels []Sel) ([]byte, []int, error) {
	rs, err := resolveAll(sels, a.topo.Shape)
	if err != nil {
		return nil, nil, fmt.Errorf("array %s: %w", a.name, err)
	}

	rank := a.topo.Rank()

	// Dense output strides in elements; scalar axes stay as count-1 axes
	// internally and are dropped from the reported shape at the end.
	outStrides := make([]int, rank)
	outStrides[rank-1] = 1
	for d := rank - 2; d >= 0; d-- {
		outStrides[d] = outStrides[d+1] * rs[d+1].count
	}
	total := outStrides[0] * rs[0].count

	shape := make([]int, 0, rank)
	for _, r := range rs {
		if !r.scalar {
			shape = append(shape, r.count)
		}
	}

	out := make([]byte, total*a.elemSize)
	a.fillBytes(out)
	if total == 0 {
		return out, shape, nil
	}

	chunkStrides := a.topo.ChunkStrides()

	// Walk every chunk coordinate whose box intersects the selection.
	ccLo := make([]int, rank)
	ccHi := make([]int, rank)
	for d := 0; d < rank; d++ {
		ccLo[d] = rs[d].start / a.topo.ChunkShape[d]
		ccHi[d] = rs[d].last() / a.topo.ChunkShape[d]
	}

	cc := make([]int, rank)
	copy(cc, ccLo)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if a.chunkIntersects(cc, rs) {
			src, found, err := a.ReadChunk(ctx, cc)
			if err != nil {
				return nil, nil, err
			}
			if found {
				a.copySelected(out, src, rs, cc, outStrides, chunkStrides, 0, 0, 0)
			}
		}

		// Advance odometer-style through the chunk box.
		d := rank - 1
		for ; d >= 0; d-- {
			cc[d]++
			if cc[d] <= ccHi[d] {
				break
			}
			cc[d] = ccLo[d]
		}
		if d < 0 {
			break
		}
	}

	return out, shape, nil
}

// chunkIntersects reports whether any selected index falls inside the chunk
// on every axis. Large strides can step entirely over a chunk.
func (a *Array) chunkIntersects(cc []int, rs []resolved) bool {
	for d := range cc {
		origin := cc[d] * a.topo.ChunkShape[d]
		first, ok := rs[d].firstIn(origin)
		if !ok || first >= origin+a.topo.ChunkShape[d] {
			return false
		}
	}
	return true
}

// copySelected recursively copies the selected cells of one chunk into the
// output buffer, dimension by dimension. The innermost unit-stride case
// copies whole runs; everything else walks element by element.
func (a *Array) copySelected(
	dst, src []byte,
	rs []resolved,
	cc []int,
	outStrides, chunkStrides []int,
	dim int,
	dstOff, srcOff int,
) {
	origin := cc[dim] * a.topo.ChunkShape[dim]
	end := origin + a.topo.ChunkShape[dim]
	if end > rs[dim].stop {
		end = rs[dim].stop
	}
	first, ok := rs[dim].firstIn(origin)
	if !ok {
		return
	}

	last := dim == len(rs)-1
	if last && rs[dim].step == 1 {
		run := end - first
		if run <= 0 {
			return
		}
		d0 := (dstOff + (first-rs[dim].start)*outStrides[dim]) * a.elemSize
		s0 := (srcOff + (first-origin)*chunkStrides[dim]) * a.elemSize
		copy(dst[d0:d0+run*a.elemSize], src[s0:s0+run*a.elemSize])
		return
	}

	for i := first; i < end; i += rs[dim].step {
		dOff := dstOff + (i-rs[dim].start)/rs[dim].step*outStrides[dim]
		sOff := srcOff + (i-origin)*chunkStrides[dim]
		if last {
			copy(dst[dOff*a.elemSize:(dOff+1)*a.elemSize], src[sOff*a.elemSize:(sOff+1)*a.elemSize])
			continue
		}
		a.copySelected(dst, src, rs, cc, outStrides, chunkStrides, dim+1, dOff, sOff)
	}
}
