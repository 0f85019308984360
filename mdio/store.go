package mdio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-mdio/internal/blob"
	"github.com/robert-malhotra/go-mdio/internal/chunk"
	"github.com/robert-malhotra/go-mdio/internal/filter"
	"github.com/robert-malhotra/go-mdio/internal/header"
)

const metaKey = "meta.json"

// Array names inside the block substrate. Sample data is a rank-N float32
// array; everything else is a rank N-1 annotation over the index grid.
const (
	dataArray   = "data"
	liveArray   = "live"
	seqArray    = "seq"
	headerGroup = "headers"
)

// In-store payloads are little endian regardless of the exchange file's
// byte order.
var storeOrder = binary.LittleEndian

// Target names the block substrate a store lives in.
type Target struct {
	Driver   string `json:"driver" yaml:"driver"` // memory, fs or s3
	Root     string `json:"root,omitempty" yaml:"root,omitempty"`
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

func (t Target) open(ctx context.Context) (blob.Store, error) {
	return blob.Open(ctx, blob.Config{
		Driver:   blob.Driver(t.Driver),
		Root:     t.Root,
		Bucket:   t.Bucket,
		Prefix:   t.Prefix,
		Region:   t.Region,
		Endpoint: t.Endpoint,
	})
}

// storeMeta is the JSON document persisted at metaKey. It carries everything
// needed to reopen the store and to reproduce the source file on export.
type storeMeta struct {
	Version      int                `json:"version"`
	ID           string             `json:"id"`
	Dims         []Dimension        `json:"dimensions"`
	ChunkShape   []int              `json:"chunk_shape"`
	Fields       []header.FieldSpec `json:"header_fields"`
	SampleFormat string             `json:"sample_format"`
	SampleEndian string             `json:"sample_endian"`
	Filter       filter.Config      `json:"filter"`
	Prefix       []byte             `json:"exchange_prefix,omitempty"`
	TraceCount   int64              `json:"trace_count"`
	Finalized    bool               `json:"finalized"`
}

const metaVersion = 1

// Store is a chunked multidimensional trace store over a block substrate.
// Writes go through PutTrace and end with Finalize; reads are only served
// once the store is finalized and are lock-free from then on.
type Store struct {
	bs      blob.Store
	grid    *Grid
	meta    storeMeta
	log     *zap.Logger
	metrics *storeMetrics
	workers int

	data  *chunk.Array
	live  *chunk.Array
	seq   *chunk.Array
	hdr   map[string]*chunk.Array
	order []string // header array names in field order

	mu        sync.Mutex
	columns   map[string]*column
	finalized bool
}

// Create initializes an empty store for the given grid in the target
// substrate and persists its metadata. The field specs name the header
// values kept per trace; they must match what PutTrace is later given.
func Create(ctx context.Context, target Target, grid *Grid, fields []header.FieldSpec, opts ...Option) (*Store, error) {
	bs, err := target.open(ctx)
	if err != nil {
		return nil, err
	}
	return create(ctx, bs, grid, fields, opts...)
}

func create(ctx context.Context, bs blob.Store, grid *Grid, fields []header.FieldSpec, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkShape == nil {
		o.chunkShape = defaultChunkShape(grid.Shape())
	}
	if len(o.chunkShape) != grid.Rank() {
		return nil, fmt.Errorf("chunk shape rank %d != grid rank %d", len(o.chunkShape), grid.Rank())
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	meta := storeMeta{
		Version:      metaVersion,
		ID:           o.id,
		Dims:         grid.Dims(),
		ChunkShape:   o.chunkShape,
		Fields:       fields,
		SampleFormat: o.format,
		SampleEndian: o.endian,
		Filter:       o.filter,
		Prefix:       o.prefix,
	}
	s, err := assemble(bs, grid, meta, o)
	if err != nil {
		return nil, err
	}
	if err := s.writeMeta(ctx); err != nil {
		return nil, err
	}
	s.log.Info("store created",
		zap.String("id", s.meta.ID),
		zap.Ints("shape", grid.Shape()),
		zap.Ints("chunk_shape", s.meta.ChunkShape))
	return s, nil
}

// Open loads an existing store's metadata and rebuilds its grid and array
// handles. Opening a store that was never finalized succeeds; reads against
// it fail with ErrIncompleteStore.
func Open(ctx context.Context, target Target, opts ...Option) (*Store, error) {
	bs, err := target.open(ctx)
	if err != nil {
		return nil, err
	}
	return open(ctx, bs, opts...)
}

func open(ctx context.Context, bs blob.Store, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	raw, err := bs.Get(ctx, metaKey)
	if err != nil {
		return nil, fmt.Errorf("%w: store metadata", ErrNotFound)
	}
	var meta storeMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decoding store metadata: %w", err)
	}
	grid, err := NewGrid(meta.Dims...)
	if err != nil {
		return nil, fmt.Errorf("rebuilding grid: %w", err)
	}
	s, err := assemble(bs, grid, meta, o)
	if err != nil {
		return nil, err
	}
	s.finalized = meta.Finalized
	return s, nil
}

func assemble(bs blob.Store, grid *Grid, meta storeMeta, o options) (*Store, error) {
	pipe, err := filter.NewPipeline(meta.Filter)
	if err != nil {
		return nil, err
	}
	dataTopo, err := chunk.NewTopology(grid.Shape(), meta.ChunkShape)
	if err != nil {
		return nil, err
	}
	idxTopo, err := chunk.NewTopology(grid.IndexShape(), meta.ChunkShape[:grid.IndexRank()])
	if err != nil {
		return nil, err
	}

	nanFill := make([]byte, 4)
	storeOrder.PutUint32(nanFill, math.Float32bits(float32(math.NaN())))
	seqFill := make([]byte, 8)
	storeOrder.PutUint64(seqFill, uint64(math.MaxUint64)) // -1

	s := &Store{
		bs:      bs,
		grid:    grid,
		meta:    meta,
		log:     o.logger,
		metrics: newStoreMetrics(o.registerer),
		workers: o.workers,
		hdr:     make(map[string]*chunk.Array, len(meta.Fields)),
		columns: make(map[string]*column),
	}
	if s.data, err = chunk.New(bs, pipe, dataArray, dataTopo, 4, nanFill); err != nil {
		return nil, err
	}
	if s.live, err = chunk.New(bs, pipe, liveArray, idxTopo, 1, []byte{0}); err != nil {
		return nil, err
	}
	if s.seq, err = chunk.New(bs, pipe, seqArray, idxTopo, 8, seqFill); err != nil {
		return nil, err
	}
	for _, f := range meta.Fields {
		a, err := chunk.New(bs, pipe, headerGroup+"/"+f.Name, idxTopo, 4, []byte{0, 0, 0, 0})
		if err != nil {
			return nil, err
		}
		s.hdr[f.Name] = a
		s.order = append(s.order, f.Name)
	}
	return s, nil
}

func (s *Store) writeMeta(ctx context.Context) error {
	raw, err := json.Marshal(s.meta)
	if err != nil {
		return fmt.Errorf("encoding store metadata: %w", err)
	}
	if err := s.bs.Put(ctx, metaKey, raw); err != nil {
		return fmt.Errorf("writing store metadata: %w", err)
	}
	return nil
}

// ID returns the store identifier.
func (s *Store) ID() string { return s.meta.ID }

// Grid returns the store's coordinate grid.
func (s *Store) Grid() *Grid { return s.grid }

// Fields returns the header field specs the store keeps per trace.
func (s *Store) Fields() []header.FieldSpec { return s.meta.Fields }

// ExchangePrefix returns the preserved source-file header prefix, or nil.
func (s *Store) ExchangePrefix() []byte { return s.meta.Prefix }

// SourceFormat returns the recorded sample format and endianness of the
// source file.
func (s *Store) SourceFormat() (format, endian string) {
	return s.meta.SampleFormat, s.meta.SampleEndian
}

// TraceCount returns the number of traces written so far.
func (s *Store) TraceCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.TraceCount
}

// Finalized reports whether the store is frozen.
func (s *Store) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}
