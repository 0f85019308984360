// Package segy reads and writes the flat seismic exchange format the store
// imports from and exports to: a 3200-byte textual header, a 400-byte binary
// header, then fixed-size traces of a 240-byte header block followed by the
// sample payload. Multi-byte values are big endian.
package segy

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/robert-malhotra/go-mdio/internal/sample"
)

const (
	// TextHeaderSize is the textual header length in bytes.
	TextHeaderSize = 3200
	// BinHeaderSize is the binary header length in bytes.
	BinHeaderSize = 400
	// PrefixSize is the combined file prefix length.
	PrefixSize = TextHeaderSize + BinHeaderSize
	// TraceHeaderSize is the per-trace header block length.
	TraceHeaderSize = 240

	// Binary header field offsets, relative to the binary header start.
	binSampleInterval = 16
	binNumSamples     = 20
	binFormat         = 24
)

// File is an open exchange file, readable by trace ordinal.
type File struct {
	f          *os.File
	prefix     []byte
	format     sample.Format
	numSamples int
	interval   int
	traceCount int64
	traceSize  int64
}

// Open maps an exchange file for per-trace reads. The trace count is derived
// from the file size; a size that does not divide into whole traces is
// rejected.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() < PrefixSize {
		f.Close()
		return nil, fmt.Errorf("%s: %d bytes, shorter than the %d-byte prefix", path, info.Size(), PrefixSize)
	}

	prefix := make([]byte, PrefixSize)
	if _, err := io.ReadFull(f, prefix); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: reading prefix: %w", path, err)
	}
	bin := prefix[TextHeaderSize:]

	format := sample.Format(binary.BigEndian.Uint16(bin[binFormat:]))
	if !format.Valid() {
		f.Close()
		return nil, fmt.Errorf("%s: %w: format code %d", path, sample.ErrUnsupported, uint16(format))
	}
	numSamples := int(binary.BigEndian.Uint16(bin[binNumSamples:]))
	if numSamples == 0 {
		f.Close()
		return nil, fmt.Errorf("%s: binary header declares zero samples per trace", path)
	}

	traceSize := int64(TraceHeaderSize + numSamples*sample.SampleSize)
	body := info.Size() - PrefixSize
	if body%traceSize != 0 {
		f.Close()
		return nil, fmt.Errorf("%s: %d body bytes do not divide into %d-byte traces", path, body, traceSize)
	}

	return &File{
		f:          f,
		prefix:     prefix,
		format:     format,
		numSamples: numSamples,
		interval:   int(binary.BigEndian.Uint16(bin[binSampleInterval:])),
		traceCount: body / traceSize,
		traceSize:  traceSize,
	}, nil
}

// Close releases the underlying file.
func (r *File) Close() error { return r.f.Close() }

// Prefix returns the verbatim 3600-byte file prefix.
func (r *File) Prefix() []byte { return r.prefix }

// Format returns the sample format code.
func (r *File) Format() sample.Format { return r.format }

// NumSamples returns the samples per trace.
func (r *File) NumSamples() int { return r.numSamples }

// SampleInterval returns the sample interval in microseconds.
func (r *File) SampleInterval() int { return r.interval }

// TraceCount returns the number of traces in the file.
func (r *File) TraceCount() int64 { return r.traceCount }

func (r *File) traceOffset(i int64) (int64, error) {
	if i < 0 || i >= r.traceCount {
		return 0, fmt.Errorf("trace %d out of range [0, %d)", i, r.traceCount)
	}
	return PrefixSize + i*r.traceSize, nil
}

// ReadHeader returns the raw 240-byte header block of trace i.
func (r *File) ReadHeader(i int64) ([]byte, error) {
	off, err := r.traceOffset(i)
	if err != nil {
		return nil, err
	}
	block := make([]byte, TraceHeaderSize)
	if _, err := r.f.ReadAt(block, off); err != nil {
		return nil, fmt.Errorf("trace %d: reading header: %w", i, err)
	}
	return block, nil
}

// ReadSamples returns the decoded sample values of trace i.
func (r *File) ReadSamples(i int64) ([]float32, error) {
	off, err := r.traceOffset(i)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, r.numSamples*sample.SampleSize)
	if _, err := r.f.ReadAt(raw, off+TraceHeaderSize); err != nil {
		return nil, fmt.Errorf("trace %d: reading samples: %w", i, err)
	}
	return sample.DecodeAlloc(raw, r.format, binary.BigEndian)
}
