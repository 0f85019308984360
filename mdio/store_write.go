package mdio

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-mdio/internal/chunk"
)

// column accumulates every trace landing in one index-chunk coordinate: the
// full sample columns plus the per-cell annotations. A column flushes as one
// chunk per annotation array and one data chunk per sample-axis chunk slot,
// so writers touch each chunk exactly once per flush.
type column struct {
	mu      sync.Mutex
	cc      []int
	data    []byte // idxChunkElems x sampleLen, float32
	live    []byte
	seq     []byte
	hdr     map[string][]byte
	count   int
	flushed bool // set once persisted; the buffers must not be touched again
}

// PutTrace writes one trace at the given index key. fields carries the
// decoded header values to keep; seqNo is the trace's position in the
// original file, preserved for export. Safe for concurrent use, including
// with Flush: traces landing in the same chunk serialize on that chunk's
// column, and a writer that loses the race with a flush re-loads the
// column rather than mutating the persisted buffers.
func (s *Store) PutTrace(ctx context.Context, key []int32, fields map[string]int32, samples []float32, seqNo int64) error {
	sampleLen := s.grid.SampleDim().Len()
	if len(samples) != sampleLen {
		return fmt.Errorf("trace %d: %d samples, grid has %d", seqNo, len(samples), sampleLen)
	}
	pos, ok := s.grid.LocateKey(key)
	if !ok {
		return fmt.Errorf("trace %d: key %v is off the grid", seqNo, key)
	}

	idxTopo := s.live.Topo()
	cc := idxTopo.ChunkCoord(pos)
	cell := idxTopo.OffsetInChunk(pos)

	var col *column
	for {
		var err error
		if col, err = s.column(ctx, cc); err != nil {
			return err
		}
		col.mu.Lock()
		if !col.flushed {
			break
		}
		// A concurrent flush persisted this column between lookup and
		// lock. Drop the stale mapping and load a fresh one.
		col.mu.Unlock()
		key := chunk.Key(cc)
		s.mu.Lock()
		if s.columns[key] == col {
			delete(s.columns, key)
		}
		s.mu.Unlock()
	}
	defer col.mu.Unlock()
	if col.live[cell] != 0 {
		first := int64(storeOrder.Uint64(col.seq[cell*8:]))
		return &DuplicateCoordinateError{Key: append([]int32(nil), key...), First: first, Second: seqNo}
	}
	for i, v := range samples {
		storeOrder.PutUint32(col.data[(cell*sampleLen+i)*4:], f32bits(v))
	}
	col.live[cell] = 1
	storeOrder.PutUint64(col.seq[cell*8:], uint64(seqNo))
	for name, v := range fields {
		buf, ok := col.hdr[name]
		if !ok {
			return fmt.Errorf("trace %d: unknown header field %q", seqNo, name)
		}
		storeOrder.PutUint32(buf[cell*4:], uint32(v))
	}
	col.count++

	s.mu.Lock()
	s.meta.TraceCount++
	s.mu.Unlock()
	s.metrics.tracesIngested.Inc()
	return nil
}

// column returns the open column for an index-chunk coordinate, creating it
// from the persisted chunks if needed. Re-loading lets an import flush
// mid-stream without losing already-written cells.
func (s *Store) column(ctx context.Context, cc []int) (*column, error) {
	key := chunk.Key(cc)

	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return nil, ErrStoreFinalized
	}
	if col, ok := s.columns[key]; ok {
		s.mu.Unlock()
		return col, nil
	}
	s.mu.Unlock()

	col, err := s.loadColumn(ctx, cc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return nil, ErrStoreFinalized
	}
	if prior, ok := s.columns[key]; ok {
		// Another writer loaded it first.
		return prior, nil
	}
	s.columns[key] = col
	return col, nil
}

func (s *Store) loadColumn(ctx context.Context, cc []int) (*column, error) {
	col := &column{cc: append([]int(nil), cc...), hdr: make(map[string][]byte, len(s.order))}

	var err error
	if col.live, _, err = s.live.ReadChunk(ctx, cc); err != nil {
		return nil, err
	}
	if col.seq, _, err = s.seq.ReadChunk(ctx, cc); err != nil {
		return nil, err
	}
	for _, name := range s.order {
		if col.hdr[name], _, err = s.hdr[name].ReadChunk(ctx, cc); err != nil {
			return nil, err
		}
	}

	idxElems := s.live.Topo().ChunkElems()
	sampleLen := s.grid.SampleDim().Len()
	col.data = make([]byte, idxElems*sampleLen*4)
	nan := f32bits(nan32())
	for i := 0; i < idxElems*sampleLen; i++ {
		storeOrder.PutUint32(col.data[i*4:], nan)
	}
	// Scatter any previously flushed sample chunks back into the column.
	sampleExt := s.data.Topo().ChunkShape[s.grid.Rank()-1]
	nSampleChunks := s.data.Topo().ChunkCounts()[s.grid.Rank()-1]
	for sc := 0; sc < nSampleChunks; sc++ {
		buf, found, err := s.data.ReadChunk(ctx, append(append([]int(nil), cc...), sc))
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		for cell := 0; cell < idxElems; cell++ {
			n := sampleLen - sc*sampleExt
			if n > sampleExt {
				n = sampleExt
			}
			src := buf[cell*sampleExt*4 : (cell*sampleExt+n)*4]
			dst := col.data[(cell*sampleLen+sc*sampleExt)*4:]
			copy(dst, src)
		}
	}
	return col, nil
}

// flushKey persists and drops a single open column. Imports that batch
// traces by chunk affinity call this as each batch completes so only active
// columns stay resident.
func (s *Store) flushKey(ctx context.Context, key string) error {
	s.mu.Lock()
	col, ok := s.columns[key]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.flushColumn(ctx, col)
}

// Flush persists every open column and drops the buffers. Imports call this
// between chunk-affinity batches to bound memory. Columns stay in the open
// map until each one is persisted, so concurrent writers never mutate a
// column behind a completed flush.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	cols := make([]*column, 0, len(s.columns))
	for _, col := range s.columns {
		cols = append(cols, col)
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, col := range cols {
		col := col
		g.Go(func() error { return s.flushColumn(ctx, col) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Debug("flushed columns", zap.Int("columns", len(cols)))
	return nil
}

func (s *Store) flushColumn(ctx context.Context, col *column) error {
	col.mu.Lock()
	defer col.mu.Unlock()
	if col.flushed {
		return nil
	}

	if err := s.live.WriteChunk(ctx, col.cc, col.live); err != nil {
		return err
	}
	if err := s.seq.WriteChunk(ctx, col.cc, col.seq); err != nil {
		return err
	}
	written := len(col.live) + len(col.seq)
	for _, name := range s.order {
		if err := s.hdr[name].WriteChunk(ctx, col.cc, col.hdr[name]); err != nil {
			return err
		}
		written += len(col.hdr[name])
	}

	idxElems := s.live.Topo().ChunkElems()
	sampleLen := s.grid.SampleDim().Len()
	sampleExt := s.data.Topo().ChunkShape[s.grid.Rank()-1]
	nSampleChunks := s.data.Topo().ChunkCounts()[s.grid.Rank()-1]
	for sc := 0; sc < nSampleChunks; sc++ {
		buf := s.data.NewChunkBuf()
		n := sampleLen - sc*sampleExt
		if n > sampleExt {
			n = sampleExt
		}
		for cell := 0; cell < idxElems; cell++ {
			if col.live[cell] == 0 {
				continue
			}
			src := col.data[(cell*sampleLen+sc*sampleExt)*4 : (cell*sampleLen+sc*sampleExt+n)*4]
			copy(buf[cell*sampleExt*4:], src)
		}
		if err := s.data.WriteChunk(ctx, append(append([]int(nil), col.cc...), sc), buf); err != nil {
			return err
		}
		written += len(buf)
	}

	col.flushed = true
	key := chunk.Key(col.cc)
	s.mu.Lock()
	if s.columns[key] == col {
		delete(s.columns, key)
	}
	s.mu.Unlock()

	s.metrics.chunksFlushed.Add(float64(2 + len(s.order) + nSampleChunks))
	s.metrics.bytesWritten.Add(float64(written))
	return nil
}

// Finalize flushes all open columns, persists the trace count and freezes
// the store. Further PutTrace calls fail with ErrStoreFinalized; reads
// become available. Finalizing twice is a no-op.
func (s *Store) Finalize(ctx context.Context) error {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return nil
	}
	// Freeze before flushing so a late PutTrace fails loudly instead of
	// landing in a column the flush has already persisted.
	s.finalized = true
	s.mu.Unlock()

	if err := s.Flush(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.meta.Finalized = true
	count := s.meta.TraceCount
	s.mu.Unlock()

	if err := s.writeMeta(ctx); err != nil {
		return err
	}
	s.log.Info("store finalized", zap.String("id", s.meta.ID), zap.Int64("traces", count))
	return nil
}
