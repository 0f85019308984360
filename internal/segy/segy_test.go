package segy

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/go-mdio/internal/sample"
)

func writeTestFile(t *testing.T, format sample.Format, traces int, numSamples int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sgy")
	w, err := Create(path, nil, format, numSamples, 4000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < traces; i++ {
		block := make([]byte, TraceHeaderSize)
		binary.BigEndian.PutUint32(block[0:], uint32(i+1)) // trace sequence
		samples := make([]float32, numSamples)
		for j := range samples {
			samples[j] = float32(i*100 + j)
		}
		if err := w.WriteTrace(block, samples); err != nil {
			t.Fatalf("WriteTrace %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestWriteOpenRoundTrip(t *testing.T) {
	for _, format := range []sample.Format{sample.FormatIBM32, sample.FormatIEEE32} {
		path := writeTestFile(t, format, 7, 25)

		r, err := Open(path)
		if err != nil {
			t.Fatalf("%v: Open: %v", format, err)
		}
		defer r.Close()

		if r.TraceCount() != 7 {
			t.Fatalf("%v: TraceCount = %d, want 7", format, r.TraceCount())
		}
		if r.NumSamples() != 25 {
			t.Fatalf("%v: NumSamples = %d, want 25", format, r.NumSamples())
		}
		if r.SampleInterval() != 4000 {
			t.Fatalf("%v: SampleInterval = %d, want 4000", format, r.SampleInterval())
		}
		if r.Format() != format {
			t.Fatalf("Format = %v, want %v", r.Format(), format)
		}

		block, err := r.ReadHeader(3)
		if err != nil {
			t.Fatalf("%v: ReadHeader: %v", format, err)
		}
		if got := binary.BigEndian.Uint32(block[0:]); got != 4 {
			t.Fatalf("%v: header word = %d, want 4", format, got)
		}

		samples, err := r.ReadSamples(3)
		if err != nil {
			t.Fatalf("%v: ReadSamples: %v", format, err)
		}
		for j, s := range samples {
			want := float32(300 + j)
			if math.Abs(float64(s-want)) > 1e-3 {
				t.Fatalf("%v: sample %d = %g, want %g", format, j, s, want)
			}
		}

		if _, err := r.ReadHeader(7); err == nil {
			t.Fatalf("%v: out-of-range trace accepted", format)
		}
	}
}

func TestOpenPreservesPrefix(t *testing.T) {
	prefix := make([]byte, PrefixSize)
	for i := range prefix {
		prefix[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "prefix.sgy")
	w, err := Create(path, prefix, sample.FormatIEEE32, 10, 2000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.WriteTrace(make([]byte, TraceHeaderSize), make([]float32, 10)); err != nil {
		t.Fatalf("WriteTrace: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got := r.Prefix()
	// The text header survives untouched; only the declared binary header
	// fields are patched.
	for i := 0; i < TextHeaderSize; i++ {
		if got[i] != prefix[i] {
			t.Fatalf("text header byte %d = %d, want %d", i, got[i], prefix[i])
		}
	}
	bin := got[TextHeaderSize:]
	if binary.BigEndian.Uint16(bin[binNumSamples:]) != 10 {
		t.Fatal("sample count not patched into binary header")
	}
	if sample.Format(binary.BigEndian.Uint16(bin[binFormat:])) != sample.FormatIEEE32 {
		t.Fatal("format code not patched into binary header")
	}
}

func TestOpenRejectsMalformed(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.sgy")
	if err := os.WriteFile(short, make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(short); err == nil {
		t.Fatal("truncated prefix accepted")
	}

	// Valid prefix, ragged body.
	path := writeTestFile(t, sample.FormatIEEE32, 2, 10)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	ragged := filepath.Join(dir, "ragged.sgy")
	if err := os.WriteFile(ragged, raw[:len(raw)-5], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(ragged); err == nil {
		t.Fatal("ragged trace body accepted")
	}

	// Unknown format code.
	bad := append([]byte(nil), raw...)
	binary.BigEndian.PutUint16(bad[TextHeaderSize+binFormat:], 99)
	badPath := filepath.Join(dir, "badformat.sgy")
	if err := os.WriteFile(badPath, bad, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(badPath); err == nil {
		t.Fatal("unknown format code accepted")
	}
}
