package mdio

import "fmt"

// Grid is the full multidimensional coordinate space of a store: the
// header-derived index dimensions plus the trailing sample dimension.
// Read-only after construction.
type Grid struct {
	dims    []Dimension
	lookups []map[int32]int // coordinate value -> position, per dimension
}

// NewGrid assembles a grid from already-built dimensions. The sample
// dimension is last. Used when opening an existing store; imports go through
// BuildGrid.
func NewGrid(dims ...Dimension) (*Grid, error) {
	if len(dims) < 2 {
		return nil, fmt.Errorf("grid needs at least one index dimension and the sample dimension, got %d", len(dims))
	}
	g := &Grid{dims: dims, lookups: make([]map[int32]int, len(dims))}
	for i, d := range dims {
		if d.Len() == 0 {
			return nil, fmt.Errorf("dimension %q is empty", d.Name)
		}
		lookup := make(map[int32]int, d.Len())
		prev := d.Coords[0]
		for pos, c := range d.Coords {
			if pos > 0 && c <= prev {
				return nil, fmt.Errorf("dimension %q coordinates not strictly ascending at position %d", d.Name, pos)
			}
			prev = c
			lookup[c] = pos
		}
		g.lookups[i] = lookup
	}
	return g, nil
}

// Rank returns the number of dimensions, sample axis included.
func (g *Grid) Rank() int { return len(g.dims) }

// IndexRank returns the number of header-derived index dimensions.
func (g *Grid) IndexRank() int { return len(g.dims) - 1 }

// Shape returns the per-dimension coordinate counts, sample axis last.
func (g *Grid) Shape() []int {
	shape := make([]int, len(g.dims))
	for i, d := range g.dims {
		shape[i] = d.Len()
	}
	return shape
}

// IndexShape returns the coordinate counts of the index dimensions only.
func (g *Grid) IndexShape() []int {
	return g.Shape()[:g.IndexRank()]
}

// Dims returns the dimensions in axis order.
func (g *Grid) Dims() []Dimension { return g.dims }

// SampleDim returns the trailing sample dimension.
func (g *Grid) SampleDim() Dimension { return g.dims[len(g.dims)-1] }

// SelectDim returns the dimension with the given name.
func (g *Grid) SelectDim(name string) (Dimension, error) {
	for _, d := range g.dims {
		if d.Name == name {
			return d, nil
		}
	}
	return Dimension{}, fmt.Errorf("%w: dimension %q", ErrNotFound, name)
}

// Position returns the linear position of a coordinate value on the given
// axis, or false if the value is not on the axis.
func (g *Grid) Position(axis int, coord int32) (int, bool) {
	pos, ok := g.lookups[axis][coord]
	return pos, ok
}

// LocateKey maps an index-key tuple to per-axis positions over the index
// dimensions. The second return is false when any component is off-grid.
func (g *Grid) LocateKey(key []int32) ([]int, bool) {
	if len(key) != g.IndexRank() {
		return nil, false
	}
	pos := make([]int, len(key))
	for i, c := range key {
		p, ok := g.lookups[i][c]
		if !ok {
			return nil, false
		}
		pos[i] = p
	}
	return pos, true
}
