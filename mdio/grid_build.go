package mdio

import (
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// buildParallelThreshold is the trace count above which distinct-value
// collection is partitioned across goroutines.
const buildParallelThreshold = 1 << 16

// BuildGrid derives one dimension per named index-key position from the
// complete, already-corrected key stream, appends the sample dimension, and
// validates that every key tuple is unique.
//
// Coordinates are ordered by ascending numeric value only; input iteration
// order never influences the result. The implied Cartesian product is usually
// sparse and is never materialized here.
func BuildGrid(keys [][]int32, names []string, sampleDim Dimension) (*Grid, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("grid needs at least one index key name")
	}
	for _, k := range keys {
		if len(k) != len(names) {
			return nil, fmt.Errorf("key tuple %v does not match index names %v", k, names)
		}
	}

	distinct := collectDistinct(keys, len(names))

	dims := make([]Dimension, len(names)+1)
	for axis, name := range names {
		coords := make([]int32, 0, len(distinct[axis]))
		for c := range distinct[axis] {
			coords = append(coords, c)
		}
		sort.Slice(coords, func(i, j int) bool { return coords[i] < coords[j] })
		dims[axis] = Dimension{Name: name, Coords: coords}
	}
	dims[len(names)] = sampleDim

	g, err := NewGrid(dims...)
	if err != nil {
		return nil, err
	}

	// Joint-key uniqueness. A duplicate after overrides means a missing
	// override or a genuine data defect, never something to resolve
	// silently. The check is on the whole tuple: per-dimension repeats are
	// expected (that is what the other dimensions disambiguate).
	seen := make(map[string]int64, len(keys))
	var buf []byte
	for i, k := range keys {
		buf = appendKey(buf[:0], k)
		if first, dup := seen[string(buf)]; dup {
			return nil, &DuplicateCoordinateError{
				Key:    append([]int32(nil), k...),
				First:  first,
				Second: int64(i),
			}
		}
		seen[string(buf)] = int64(i)
	}

	return g, nil
}

// collectDistinct gathers per-axis distinct coordinate sets, partitioning the
// stream across goroutines when it is large. Each partition computes private
// sets; merging is cheap because distinct values are few compared to traces.
func collectDistinct(keys [][]int32, rank int) []map[int32]struct{} {
	merged := make([]map[int32]struct{}, rank)
	for axis := range merged {
		merged[axis] = make(map[int32]struct{})
	}

	if len(keys) < buildParallelThreshold {
		for _, k := range keys {
			for axis, c := range k {
				merged[axis][c] = struct{}{}
			}
		}
		return merged
	}

	parts := runtime.GOMAXPROCS(0)
	partial := make([][]map[int32]struct{}, parts)
	var g errgroup.Group
	chunk := (len(keys) + parts - 1) / parts
	for p := 0; p < parts; p++ {
		lo := p * chunk
		hi := min(lo+chunk, len(keys))
		sets := make([]map[int32]struct{}, rank)
		for axis := range sets {
			sets[axis] = make(map[int32]struct{})
		}
		partial[p] = sets
		g.Go(func() error {
			for _, k := range keys[lo:hi] {
				for axis, c := range k {
					sets[axis][c] = struct{}{}
				}
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never fail

	for _, sets := range partial {
		for axis, set := range sets {
			for c := range set {
				merged[axis][c] = struct{}{}
			}
		}
	}
	return merged
}

func appendKey(buf []byte, k []int32) []byte {
	for _, v := range k {
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return buf
}
