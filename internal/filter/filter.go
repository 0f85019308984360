// Package filter implements the optional chunk payload transforms applied
// before chunks reach the block substrate.
//
// Filters are symmetric: Encode is applied in pipeline order on write, Decode
// in reverse order on read. The pipeline configuration is recorded in store
// metadata so readers reconstruct the same chain.
package filter

import (
	"fmt"
)

// Filter transforms a chunk payload between its raw and stored forms.
type Filter interface {
	// ID returns the filter identifier.
	ID() uint16

	// Encode transforms raw data to stored form.
	Encode(input []byte) ([]byte, error)

	// Decode transforms stored data back to raw form.
	Decode(input []byte) ([]byte, error)
}

// Filter identifiers, recorded in store metadata.
const (
	IDDeflate uint16 = 1
	IDShuffle uint16 = 2
)

// Config selects the pipeline filters. The zero value is an empty pipeline.
type Config struct {
	// Compression is the deflate level: 0 = off, 1-9 per compress/flate.
	Compression int `json:"compression,omitempty" yaml:"compression,omitempty"`

	// Shuffle groups equal byte positions across elements before
	// compression, which compresses floating-point data far better.
	Shuffle bool `json:"shuffle,omitempty" yaml:"shuffle,omitempty"`

	// ElemSize is the element width for the shuffle filter in bytes.
	// Defaults to 4, the canonical sample width.
	ElemSize int `json:"elem_size,omitempty" yaml:"elem_size,omitempty"`
}

// Pipeline is an ordered filter chain.
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds a pipeline from config. Shuffle runs before deflate so
// the compressor sees the grouped byte planes.
func NewPipeline(cfg Config) (*Pipeline, error) {
	p := &Pipeline{}
	if cfg.Shuffle {
		elemSize := cfg.ElemSize
		if elemSize <= 0 {
			elemSize = 4
		}
		p.filters = append(p.filters, NewShuffle(elemSize))
	}
	if cfg.Compression != 0 {
		if cfg.Compression < 0 || cfg.Compression > 9 {
			return nil, fmt.Errorf("invalid compression level %d", cfg.Compression)
		}
		p.filters = append(p.filters, NewDeflate(cfg.Compression))
	}
	return p, nil
}

// Empty returns true if the pipeline has no filters.
func (p *Pipeline) Empty() bool { return len(p.filters) == 0 }

// Encode applies the filters in order.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d encode: %w", f.ID(), err)
		}
	}
	return data, nil
}

// Decode applies the filters in reverse order.
func (p *Pipeline) Decode(input []byte) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %d decode: %w", p.filters[i].ID(), err)
		}
	}
	return data, nil
}
