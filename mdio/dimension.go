package mdio

import "fmt"

// Dimension is one named axis of the grid: a sorted sequence of unique
// integer coordinates. Built once, never mutated afterward.
type Dimension struct {
	Name   string  `json:"name"`
	Coords []int32 `json:"coords"`
}

// RangeDimension builds a Dimension whose coordinates are
// start, start+step, ... up to but excluding stop. The sample axis is
// typically a fixed-stride range like this.
func RangeDimension(name string, start, stop, step int32) Dimension {
	if step <= 0 {
		step = 1
	}
	n := (stop - start + step - 1) / step
	if n < 0 {
		n = 0
	}
	coords := make([]int32, n)
	for i := range coords {
		coords[i] = start + int32(i)*step
	}
	return Dimension{Name: name, Coords: coords}
}

// Len returns the number of coordinates.
func (d Dimension) Len() int { return len(d.Coords) }

// Equal reports whether two dimensions match in both name and coordinate
// sequence.
func (d Dimension) Equal(o Dimension) bool {
	if d.Name != o.Name || len(d.Coords) != len(o.Coords) {
		return false
	}
	for i, c := range d.Coords {
		if o.Coords[i] != c {
			return false
		}
	}
	return true
}

// Min returns the smallest coordinate.
func (d Dimension) Min() int32 {
	if len(d.Coords) == 0 {
		return 0
	}
	return d.Coords[0]
}

// Max returns the largest coordinate.
func (d Dimension) Max() int32 {
	if len(d.Coords) == 0 {
		return 0
	}
	return d.Coords[len(d.Coords)-1]
}

func (d Dimension) String() string {
	return fmt.Sprintf("Dimension(%s, %d coords [%d..%d])", d.Name, len(d.Coords), d.Min(), d.Max())
}
