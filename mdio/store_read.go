package mdio

import (
	"context"
	"math"
)

func f32bits(v float32) uint32 { return math.Float32bits(v) }

func f32from(bits uint32) float32 { return math.Float32frombits(bits) }

func nan32() float32 { return float32(math.NaN()) }

// Read gathers a hyperslab of samples as a dense row-major float32 buffer.
// One Sel per grid dimension, sample axis last. Cells no trace was written
// to come back as NaN. The returned shape drops axes selected with At.
// Fails with ErrIncompleteStore until the store is finalized.
func (s *Store) Read(ctx context.Context, sels ...Sel) ([]float32, []int, error) {
	if !s.Finalized() {
		return nil, nil, ErrIncompleteStore
	}
	raw, shape, err := s.data.ReadSlice(ctx, innerSels(sels))
	if err != nil {
		return nil, nil, err
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(storeOrder.Uint32(raw[i*4:]))
	}
	return out, shape, nil
}

// ReadField gathers a hyperslab of one stored header field over the index
// dimensions. One Sel per index dimension; never-written cells are zero.
func (s *Store) ReadField(ctx context.Context, name string, sels ...Sel) ([]int32, []int, error) {
	if !s.Finalized() {
		return nil, nil, ErrIncompleteStore
	}
	a, ok := s.hdr[name]
	if !ok {
		return nil, nil, ErrNotFound
	}
	raw, shape, err := a.ReadSlice(ctx, innerSels(sels))
	if err != nil {
		return nil, nil, err
	}
	out := make([]int32, len(raw)/4)
	for i := range out {
		out[i] = int32(storeOrder.Uint32(raw[i*4:]))
	}
	return out, shape, nil
}

// ReadLive gathers the liveness mask over the index dimensions: 1 where a
// trace was written, 0 elsewhere.
func (s *Store) ReadLive(ctx context.Context, sels ...Sel) ([]byte, []int, error) {
	if !s.Finalized() {
		return nil, nil, ErrIncompleteStore
	}
	return s.live.ReadSlice(ctx, innerSels(sels))
}
