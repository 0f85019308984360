package mdio

import "github.com/robert-malhotra/go-mdio/internal/chunk"

// Sel selects positions along one grid dimension. Build one per dimension
// with the constructors below and pass the tuple to Read.
type Sel struct {
	inner chunk.Sel
}

// All selects the whole axis.
func All() Sel { return Sel{inner: chunk.All()} }

// At selects one position; the axis is dropped from the result shape.
func At(i int) Sel { return Sel{inner: chunk.At(i)} }

// Slice selects [start, stop) with step 1.
func Slice(start, stop int) Sel { return Sel{inner: chunk.Range(start, stop)} }

// Stride selects start, start+step, ... below stop. stop -1 runs to the end
// of the axis.
func Stride(start, stop, step int) Sel { return Sel{inner: chunk.Strided(start, stop, step)} }

// Every selects the whole axis with the given stride, like ::step.
func Every(step int) Sel { return Sel{inner: chunk.Step(step)} }

func innerSels(sels []Sel) []chunk.Sel {
	out := make([]chunk.Sel, len(sels))
	for i, s := range sels {
		out[i] = s.inner
	}
	return out
}
