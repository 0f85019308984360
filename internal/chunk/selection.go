package chunk

import "fmt"

// Sel selects positions along one dimension: a single index, a strided
// range, or the whole axis.
type Sel struct {
	start  int
	stop   int // exclusive; -1 = to end
	step   int
	all    bool
	scalar bool
}

// All selects every position on the axis.
func All() Sel { return Sel{all: true, step: 1} }

// At selects a single position; the axis is dropped from the result shape.
func At(i int) Sel { return Sel{start: i, stop: i + 1, step: 1, scalar: true} }

// Range selects [start, stop) with step 1.
func Range(start, stop int) Sel { return Sel{start: start, stop: stop, step: 1} }

// Strided selects start, start+step, ... below stop. stop -1 means the end
// of the axis.
func Strided(start, stop, step int) Sel { return Sel{start: start, stop: stop, step: step} }

// Step selects the whole axis with the given stride, like ::step.
func Step(step int) Sel { return Sel{stop: -1, step: step} }

// resolved is a selection bound to a concrete axis length.
type resolved struct {
	start, stop, step int
	count             int
	scalar            bool
}

func (s Sel) resolve(n int) (resolved, error) {
	r := resolved{start: s.start, stop: s.stop, step: s.step, scalar: s.scalar}
	if s.all {
		r.start, r.stop, r.step = 0, n, 1
	}
	if r.step <= 0 {
		r.step = 1
	}
	if r.stop < 0 {
		r.stop = n
	}
	if r.start < 0 || r.start > n || r.stop > n {
		return resolved{}, fmt.Errorf("selection [%d:%d:%d] out of bounds for axis of length %d",
			r.start, r.stop, r.step, n)
	}
	// Inverted ranges select nothing, matching slice conventions.
	if r.stop < r.start {
		r.stop = r.start
	}
	r.count = (r.stop - r.start + r.step - 1) / r.step
	return r, nil
}

// last returns the largest selected index.
func (r resolved) last() int {
	return r.start + (r.count-1)*r.step
}

// firstIn returns the smallest selected index >= lo, or false when the
// selection has none below its stop.
func (r resolved) firstIn(lo int) (int, bool) {
	i := r.start
	if lo > i {
		i += (lo - r.start + r.step - 1) / r.step * r.step
	}
	if i >= r.stop {
		return 0, false
	}
	return i, true
}

// resolveAll binds a full selection tuple to an array shape.
func resolveAll(sels []Sel, shape []int) ([]resolved, error) {
	if len(sels) != len(shape) {
		return nil, fmt.Errorf("selection rank %d != array rank %d", len(sels), len(shape))
	}
	rs := make([]resolved, len(sels))
	for d, s := range sels {
		r, err := s.resolve(shape[d])
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", d, err)
		}
		rs[d] = r
	}
	return rs, nil
}

// ResultShape returns the dense result shape of a selection against shape.
// Axes selected with At are dropped.
func ResultShape(sels []Sel, shape []int) ([]int, error) {
	rs, err := resolveAll(sels, shape)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		if r.scalar {
			continue
		}
		out = append(out, r.count)
	}
	return out, nil
}
