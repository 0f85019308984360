// Package override repairs per-trace index-key streams whose header values
// alone do not produce a clean rectangular grid.
//
// Overrides are named strategies registered in a package-level registry and
// composed into a [Pipeline] in the caller's declared order. Each strategy is
// a pure transform over the complete key stream: corrections such as channel
// wrap detection depend on global structure, so streams are buffered in full
// before any strategy runs. An empty pipeline leaves the stream unchanged.
package override

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverride indicates a strategy's data-quality invariant was violated.
// Grid topology cannot be trusted after this, so the whole import aborts.
var ErrOverride = errors.New("grid override failed")

// Spec selects a strategy by name and carries its parameters.
type Spec struct {
	Name string `json:"name" yaml:"name"`

	// CableKey and ChannelKey override the index-key names the channel
	// strategies operate on. Defaults: "cable" and "channel".
	CableKey   string `json:"cable_key,omitempty" yaml:"cable_key,omitempty"`
	ChannelKey string `json:"channel_key,omitempty" yaml:"channel_key,omitempty"`

	// MaxTraces is the per-cable trace ceiling for AutoChannelTraceQC.
	MaxTraces int64 `json:"max_traces,omitempty" yaml:"max_traces,omitempty"`
}

// Strategy rewrites a buffered stream of index-key tuples. names gives the
// key name at each tuple position. Implementations return a fresh stream and
// leave the input untouched.
type Strategy interface {
	Name() string
	Apply(keys [][]int32, names []string) ([][]int32, error)
}

type constructor func(Spec) (Strategy, error)

var registry = map[string]constructor{
	"AutoChannelWrap":    newAutoChannelWrap,
	"AutoChannelTraceQC": newAutoChannelTraceQC,
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Pipeline applies strategies in declared order, each strategy's output
// feeding the next.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline builds a pipeline from specs. Unknown strategy names fail
// before any data is touched.
func NewPipeline(specs []Spec) (*Pipeline, error) {
	p := &Pipeline{}
	for _, s := range specs {
		ctor, ok := registry[s.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown strategy %q (have %v)", ErrOverride, s.Name, Names())
		}
		st, err := ctor(s)
		if err != nil {
			return nil, err
		}
		p.strategies = append(p.strategies, st)
	}
	return p, nil
}

// Empty reports whether the pipeline has no strategies.
func (p *Pipeline) Empty() bool { return len(p.strategies) == 0 }

// Apply runs the full pipeline over the key stream.
func (p *Pipeline) Apply(keys [][]int32, names []string) ([][]int32, error) {
	out := keys
	for _, s := range p.strategies {
		var err error
		out, err = s.Apply(out, names)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
	}
	return out, nil
}

func keyIndex(names []string, want string) (int, error) {
	for i, n := range names {
		if n == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: index key %q not present (have %v)", ErrOverride, want, names)
}
