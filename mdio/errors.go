// Package mdio converts seismic trace collections between a flat,
// header-annotated exchange format and a chunked, randomly-sliceable
// multidimensional store.
package mdio

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-mdio/internal/header"
	"github.com/robert-malhotra/go-mdio/internal/override"
	"github.com/robert-malhotra/go-mdio/internal/sample"
)

// Common errors. The codec and override sentinels are shared with the
// internal packages that raise them, so errors.Is works across the API
// boundary.
var (
	// ErrMalformedHeader indicates a header field spec that does not fit
	// the trace-header block.
	ErrMalformedHeader = header.ErrMalformed

	// ErrUnsupportedFormat indicates an unknown sample format tag.
	ErrUnsupportedFormat = sample.ErrUnsupported

	// ErrGridOverride indicates an override strategy's data-quality
	// invariant was violated; the import aborts.
	ErrGridOverride = override.ErrOverride

	// ErrIncompleteStore indicates a read against a store that was never
	// finalized.
	ErrIncompleteStore = errors.New("store was not finalized")

	// ErrStoreFinalized indicates a write against a finalized store.
	ErrStoreFinalized = errors.New("store is finalized")

	// ErrNotFound indicates a missing store component in the block
	// substrate.
	ErrNotFound = errors.New("not found in store")
)

// DuplicateCoordinateError reports two traces mapping to the same corrected
// grid coordinate. Silent overwrite would corrupt the round trip, so this is
// fatal for the import.
type DuplicateCoordinateError struct {
	Key    []int32 // the colliding index key
	First  int64   // original sequence number of the first trace
	Second int64   // original sequence number of the second trace
}

func (e *DuplicateCoordinateError) Error() string {
	return fmt.Sprintf("duplicate coordinate: traces %d and %d both map to key %v",
		e.First, e.Second, e.Key)
}
