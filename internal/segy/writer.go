package segy

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-mdio/internal/sample"
)

// Writer emits an exchange file trace by trace.
type Writer struct {
	f          *os.File
	w          *bufio.Writer
	format     sample.Format
	numSamples int
}

// Create starts an exchange file. prefix is the 3600-byte file prefix to
// write verbatim; pass nil to synthesize one from the remaining arguments.
// The prefix's declared format and sample count are patched to match so the
// file is self-consistent.
func Create(path string, prefix []byte, format sample.Format, numSamples, interval int) (*Writer, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: format code %d", sample.ErrUnsupported, uint16(format))
	}
	if numSamples <= 0 || numSamples > 0xffff {
		return nil, fmt.Errorf("samples per trace %d out of range", numSamples)
	}
	if prefix == nil {
		prefix = make([]byte, PrefixSize)
	} else if len(prefix) != PrefixSize {
		return nil, fmt.Errorf("prefix is %d bytes, want %d", len(prefix), PrefixSize)
	} else {
		prefix = append([]byte(nil), prefix...)
	}
	bin := prefix[TextHeaderSize:]
	binary.BigEndian.PutUint16(bin[binSampleInterval:], uint16(interval))
	binary.BigEndian.PutUint16(bin[binNumSamples:], uint16(numSamples))
	binary.BigEndian.PutUint16(bin[binFormat:], uint16(format))

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1<<20)
	if _, err := w.Write(prefix); err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{f: f, w: w, format: format, numSamples: numSamples}, nil
}

// WriteTrace appends one trace: its raw 240-byte header block and its
// samples, encoded in the writer's format.
func (w *Writer) WriteTrace(block []byte, samples []float32) error {
	if len(block) != TraceHeaderSize {
		return fmt.Errorf("trace header is %d bytes, want %d", len(block), TraceHeaderSize)
	}
	if len(samples) != w.numSamples {
		return fmt.Errorf("trace has %d samples, file declares %d", len(samples), w.numSamples)
	}
	if _, err := w.w.Write(block); err != nil {
		return err
	}
	raw, err := sample.EncodeAlloc(samples, w.format, binary.BigEndian)
	if err != nil {
		return err
	}
	_, err = w.w.Write(raw)
	return err
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
