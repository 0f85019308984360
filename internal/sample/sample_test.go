package sample

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		name string
		want Format
	}{
		{"ibm32", FormatIBM32},
		{"ieee32", FormatIEEE32},
		{"float32", FormatIEEE32},
	}
	for _, c := range cases {
		got, err := ParseFormat(c.name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", c.name, got, c.want)
		}
	}

	if _, err := ParseFormat("int16"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ParseFormat(int16) error = %v, want ErrUnsupported", err)
	}
}

func TestDecodeEncodeIEEERoundTrip(t *testing.T) {
	values := []float32{0, 1.5, -2.25, float32(math.Pi), math.MaxFloat32, math.SmallestNonzeroFloat32}

	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		raw := make([]byte, len(values)*SampleSize)
		if err := Encode(raw, values, FormatIEEE32, order); err != nil {
			t.Fatalf("Encode: %v", err)
		}

		back := make([]float32, len(values))
		if err := Decode(back, raw, FormatIEEE32, order); err != nil {
			t.Fatalf("Decode: %v", err)
		}

		for i := range values {
			if math.Float32bits(back[i]) != math.Float32bits(values[i]) {
				t.Errorf("%v: value %d: got %v, want %v", order, i, back[i], values[i])
			}
		}

		// Bit-for-bit: re-encoding must reproduce the block.
		raw2 := make([]byte, len(raw))
		if err := Encode(raw2, back, FormatIEEE32, order); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if !bytes.Equal(raw, raw2) {
			t.Errorf("%v: re-encoded block differs", order)
		}
	}
}

func TestDecodeIBMBigEndianBlock(t *testing.T) {
	// Two samples: 1.0 and -100.0 as big-endian IBM words.
	raw := []byte{0x41, 0x10, 0x00, 0x00, 0xc2, 0x64, 0x00, 0x00}

	got, err := DecodeAlloc(raw, FormatIBM32, binary.BigEndian)
	if err != nil {
		t.Fatalf("DecodeAlloc: %v", err)
	}
	want := []float32{1.0, -100.0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}

	enc, err := EncodeAlloc(got, FormatIBM32, binary.BigEndian)
	if err != nil {
		t.Fatalf("EncodeAlloc: %v", err)
	}
	if !bytes.Equal(enc, raw) {
		t.Errorf("re-encoded block = % x, want % x", enc, raw)
	}
}

func TestDecodeSizeMismatch(t *testing.T) {
	dst := make([]float32, 2)
	if err := Decode(dst, make([]byte, 7), FormatIEEE32, binary.BigEndian); err == nil {
		t.Error("expected error for short block")
	}
	if _, err := DecodeAlloc(make([]byte, 6), FormatIEEE32, binary.BigEndian); err == nil {
		t.Error("expected error for non-multiple block")
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	dst := make([]float32, 1)
	err := Decode(dst, make([]byte, 4), Format(3), binary.BigEndian)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
	err = Encode(make([]byte, 4), dst, Format(3), binary.BigEndian)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
}
