package mdio

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-mdio/internal/chunk"
	"github.com/robert-malhotra/go-mdio/internal/header"
	"github.com/robert-malhotra/go-mdio/internal/override"
	"github.com/robert-malhotra/go-mdio/internal/sample"
	"github.com/robert-malhotra/go-mdio/internal/segy"
)

// Override names one grid override strategy and its parameters, applied to
// the whole key stream before the grid is built. Order matters.
type Override struct {
	Name       string `json:"name" yaml:"name"`
	CableKey   string `json:"cable_key,omitempty" yaml:"cable_key,omitempty"`
	ChannelKey string `json:"channel_key,omitempty" yaml:"channel_key,omitempty"`
	MaxTraces  int    `json:"max_traces,omitempty" yaml:"max_traces,omitempty"`
}

// ImportConfig describes how an exchange file maps onto a grid.
type ImportConfig struct {
	// Fields are all trace-header fields to decode and keep.
	Fields []header.FieldSpec `json:"fields" yaml:"fields"`

	// IndexNames picks the fields whose values form the index dimensions,
	// in axis order. Every name must appear in Fields.
	IndexNames []string `json:"index_names" yaml:"index_names"`

	// Overrides are applied to the key stream in order before the grid is
	// built. Empty means identity.
	Overrides []Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`

	// SampleDim names the trailing sample dimension. Defaults to "sample".
	SampleDim string `json:"sample_dim,omitempty" yaml:"sample_dim,omitempty"`
}

func (c ImportConfig) validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("import config has no header fields")
	}
	if len(c.IndexNames) == 0 {
		return fmt.Errorf("import config has no index names")
	}
	byName := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		byName[f.Name] = true
	}
	for _, name := range c.IndexNames {
		if !byName[name] {
			return fmt.Errorf("index name %q is not a declared field", name)
		}
	}
	return nil
}

func (c ImportConfig) overrideSpecs() []override.Spec {
	specs := make([]override.Spec, len(c.Overrides))
	for i, o := range c.Overrides {
		specs[i] = override.Spec{
			Name:       o.Name,
			CableKey:   o.CableKey,
			ChannelKey: o.ChannelKey,
			MaxTraces:  int64(o.MaxTraces),
		}
	}
	return specs
}

// FromSegy imports an exchange file into a new store. The import runs in two
// phases: a full header scan feeding the override pipeline and the grid
// build, then parallel chunk population batched by chunk affinity. The
// source file's prefix and sample format are preserved in store metadata.
func FromSegy(ctx context.Context, srcPath string, target Target, cfg ImportConfig, opts ...Option) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	pipeline, err := override.NewPipeline(cfg.overrideSpecs())
	if err != nil {
		return nil, err
	}

	src, err := segy.Open(srcPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	codec, err := header.NewCodec(segy.TraceHeaderSize, cfg.Fields)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	n := src.TraceCount()
	log.Info("import started",
		zap.String("source", srcPath),
		zap.Int64("traces", n),
		zap.Int("samples", src.NumSamples()),
		zap.Stringer("format", src.Format()))

	// Phase 1: scan every trace header for the index key tuple.
	keys, err := scanKeys(ctx, src, codec, cfg.IndexNames, o.workers)
	if err != nil {
		return nil, err
	}
	keys, err = pipeline.Apply(keys, cfg.IndexNames)
	if err != nil {
		return nil, err
	}

	sampleName := cfg.SampleDim
	if sampleName == "" {
		sampleName = "sample"
	}
	step := int32(src.SampleInterval())
	if step <= 0 {
		step = 1
	}
	sampleDim := RangeDimension(sampleName, 0, int32(src.NumSamples())*step, step)

	grid, err := BuildGrid(keys, cfg.IndexNames, sampleDim)
	if err != nil {
		return nil, err
	}
	log.Info("grid built", zap.Ints("shape", grid.Shape()))

	opts = append(opts,
		WithExchangePrefix(src.Prefix()),
		WithSourceFormat(src.Format().String(), "big"),
	)
	store, err := Create(ctx, target, grid, cfg.Fields, opts...)
	if err != nil {
		return nil, err
	}

	// Phase 2: populate chunks. Traces are batched by the index chunk they
	// land in, one worker per batch, so no two workers contend on a column
	// and each column flushes exactly once.
	batches := make(map[string][]int64)
	idxTopo := store.live.Topo()
	for i, key := range keys {
		pos, ok := grid.LocateKey(key)
		if !ok {
			return nil, fmt.Errorf("trace %d: key %v is off the grid", i, key)
		}
		ck := chunk.Key(idxTopo.ChunkCoord(pos))
		batches[ck] = append(batches[ck], int64(i))
	}

	order := make([]string, 0, len(batches))
	for ck := range batches {
		order = append(order, ck)
	}
	sort.Strings(order)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, ck := range order {
		ck := ck
		traces := batches[ck]
		g.Go(func() error {
			for _, i := range traces {
				block, err := src.ReadHeader(i)
				if err != nil {
					return err
				}
				fields, err := codec.Decode(block)
				if err != nil {
					return err
				}
				samples, err := src.ReadSamples(i)
				if err != nil {
					return err
				}
				if err := store.PutTrace(gctx, keys[i], fields, samples, i); err != nil {
					return err
				}
			}
			return store.flushKey(gctx, ck)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := store.Finalize(ctx); err != nil {
		return nil, err
	}
	log.Info("import finished",
		zap.String("id", store.ID()),
		zap.Int64("traces", store.TraceCount()),
		zap.Int("chunks", len(order)))
	return store, nil
}

// scanKeys reads the index key tuple of every trace, partitioning the scan
// across workers for large files.
func scanKeys(ctx context.Context, src *segy.File, codec *header.Codec, names []string, workers int) ([][]int32, error) {
	n := src.TraceCount()
	keys := make([][]int32, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	span := (n + int64(workers) - 1) / int64(workers)
	if span < 1 {
		span = 1
	}
	for lo := int64(0); lo < n; lo += span {
		lo := lo
		hi := lo + span
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				block, err := src.ReadHeader(i)
				if err != nil {
					return err
				}
				key := make([]int32, len(names))
				for a, name := range names {
					v, err := codec.DecodeField(block, name)
					if err != nil {
						return err
					}
					key[a] = v
				}
				keys[i] = key
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// ToSegy exports a finalized store back to an exchange file in original
// trace order. format selects the output sample encoding ("ibm32" or
// "ieee32"); empty reuses the source format recorded at import. The source
// file's 3600-byte prefix is written back verbatim when it was preserved.
func ToSegy(ctx context.Context, s *Store, path string, format string) error {
	srcFormat, _ := s.SourceFormat()
	if format == "" {
		format = srcFormat
	}
	code, err := sample.ParseFormat(format)
	if err != nil {
		return err
	}

	codec, err := header.NewCodec(segy.TraceHeaderSize, s.Fields())
	if err != nil {
		return err
	}

	sampleDim := s.grid.SampleDim()
	interval := 0
	if sampleDim.Len() > 1 {
		interval = int(sampleDim.Coords[1] - sampleDim.Coords[0])
	}

	w, err := segy.Create(path, s.ExchangePrefix(), code, sampleDim.Len(), interval)
	if err != nil {
		return err
	}

	err = s.IterOriginalOrder(ctx, func(r TraceRecord) error {
		block := make([]byte, segy.TraceHeaderSize)
		if err := codec.Encode(r.Fields, block); err != nil {
			return err
		}
		return w.WriteTrace(block, r.Samples)
	})
	if err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
