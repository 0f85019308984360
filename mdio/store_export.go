package mdio

import (
	"context"
	"sort"

	"github.com/robert-malhotra/go-mdio/internal/chunk"
)

// TraceRecord is one trace yielded by IterOriginalOrder.
type TraceRecord struct {
	Seq     int64            // position in the original file
	Key     []int32          // index-dimension coordinates
	Fields  map[string]int32 // stored header values
	Samples []float32
}

// chunkCache keeps the most recently fetched chunk of one array. Export
// walks traces in original file order, which clusters by chunk, so a single
// slot avoids nearly all refetches without holding the store in memory.
type chunkCache struct {
	a   *chunk.Array
	key string
	buf []byte
}

func (c *chunkCache) get(ctx context.Context, cc []int) ([]byte, error) {
	key := chunk.Key(cc)
	if c.buf != nil && key == c.key {
		return c.buf, nil
	}
	buf, _, err := c.a.ReadChunk(ctx, cc)
	if err != nil {
		return nil, err
	}
	c.key, c.buf = key, buf
	return buf, nil
}

// IterOriginalOrder yields every live trace in ascending original sequence
// order, reconstructing its key, header fields and samples. fn returning an
// error stops the iteration and propagates the error. Fails with
// ErrIncompleteStore until the store is finalized; honors ctx between chunk
// fetches.
func (s *Store) IterOriginalOrder(ctx context.Context, fn func(TraceRecord) error) error {
	if !s.Finalized() {
		return ErrIncompleteStore
	}

	entries, err := s.collectSequence(ctx)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	idxTopo := s.live.Topo()
	idxRank := s.grid.IndexRank()
	idxStrides := rowMajorStrides(idxTopo.Shape)
	sampleLen := s.grid.SampleDim().Len()
	sampleExt := s.data.Topo().ChunkShape[s.grid.Rank()-1]
	nSampleChunks := s.data.Topo().ChunkCounts()[s.grid.Rank()-1]

	hdrCaches := make(map[string]*chunkCache, len(s.order))
	for _, name := range s.order {
		hdrCaches[name] = &chunkCache{a: s.hdr[name]}
	}
	dataCache := &chunkCache{a: s.data}

	pos := make([]int, idxRank)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		flat := e.flat
		for d := 0; d < idxRank; d++ {
			pos[d] = int(flat / int64(idxStrides[d]))
			flat %= int64(idxStrides[d])
		}
		key := make([]int32, idxRank)
		for d := 0; d < idxRank; d++ {
			key[d] = s.grid.dims[d].Coords[pos[d]]
		}
		cc := idxTopo.ChunkCoord(pos)
		cell := idxTopo.OffsetInChunk(pos)

		fields := make(map[string]int32, len(s.order))
		for _, name := range s.order {
			buf, err := hdrCaches[name].get(ctx, cc)
			if err != nil {
				return err
			}
			fields[name] = int32(storeOrder.Uint32(buf[cell*4:]))
		}

		samples := make([]float32, sampleLen)
		for sc := 0; sc < nSampleChunks; sc++ {
			dcc := append(append([]int(nil), cc...), sc)
			buf, err := dataCache.get(ctx, dcc)
			if err != nil {
				return err
			}
			n := sampleLen - sc*sampleExt
			if n > sampleExt {
				n = sampleExt
			}
			for i := 0; i < n; i++ {
				bits := storeOrder.Uint32(buf[(cell*sampleExt+i)*4:])
				samples[sc*sampleExt+i] = f32from(bits)
			}
		}

		if err := fn(TraceRecord{Seq: e.seq, Key: key, Fields: fields, Samples: samples}); err != nil {
			return err
		}
	}
	return nil
}

type seqEntry struct {
	seq  int64
	flat int64 // row-major index over the index dimensions
}

// collectSequence scans the liveness and sequence chunks and returns one
// entry per live cell. Chunks never written are skipped outright.
func (s *Store) collectSequence(ctx context.Context) ([]seqEntry, error) {
	idxTopo := s.live.Topo()
	counts := idxTopo.ChunkCounts()
	idxStrides := rowMajorStrides(idxTopo.Shape)
	chunkStrides := idxTopo.ChunkStrides()
	rank := idxTopo.Rank()

	var entries []seqEntry
	cc := make([]int, rank)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		liveBuf, found, err := s.live.ReadChunk(ctx, cc)
		if err != nil {
			return nil, err
		}
		if found {
			seqBuf, _, err := s.seq.ReadChunk(ctx, cc)
			if err != nil {
				return nil, err
			}
			origin := idxTopo.Origin(cc)
			for cell, alive := range liveBuf {
				if alive == 0 {
					continue
				}
				// Chunk cell offset back to a global flat index.
				var flat int64
				rem := cell
				inBounds := true
				for d := 0; d < rank; d++ {
					p := origin[d] + rem/chunkStrides[d]
					rem %= chunkStrides[d]
					if p >= idxTopo.Shape[d] {
						inBounds = false
						break
					}
					flat += int64(p) * int64(idxStrides[d])
				}
				if !inBounds {
					continue
				}
				entries = append(entries, seqEntry{
					seq:  int64(storeOrder.Uint64(seqBuf[cell*8:])),
					flat: flat,
				})
			}
		}

		d := rank - 1
		for ; d >= 0; d-- {
			cc[d]++
			if cc[d] < counts[d] {
				break
			}
			cc[d] = 0
		}
		if d < 0 {
			break
		}
	}
	return entries, nil
}

// rowMajorStrides returns element strides for a dense row-major layout.
func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	strides[len(shape)-1] = 1
	for d := len(shape) - 2; d >= 0; d-- {
		strides[d] = strides[d+1] * shape[d+1]
	}
	return strides
}
