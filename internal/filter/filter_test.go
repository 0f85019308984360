package filter

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestShuffleRoundTrip(t *testing.T) {
	f := NewShuffle(4)

	input := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}
	enc, err := f.Encode(input)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Byte planes: all byte 0s, then byte 1s, ...
	want := []byte{1, 5, 9, 2, 6, 10, 3, 7, 11, 4, 8, 12}
	if !bytes.Equal(enc, want) {
		t.Errorf("Encode = %v, want %v", enc, want)
	}

	dec, err := f.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dec, input) {
		t.Errorf("Decode = %v, want %v", dec, input)
	}
}

func TestShuffleSingleByteElements(t *testing.T) {
	f := NewShuffle(1)
	input := []byte{1, 2, 3}
	enc, err := f.Encode(input)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(enc, input) {
		t.Errorf("single-byte shuffle changed data: %v", enc)
	}
}

func TestDeflateRoundTrip(t *testing.T) {
	f := NewDeflate(6)

	rng := rand.New(rand.NewSource(1))
	input := make([]byte, 4096)
	for i := range input {
		input[i] = byte(rng.Intn(8)) // compressible
	}

	enc, err := f.Encode(input)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(enc) >= len(input) {
		t.Errorf("compressible input grew: %d -> %d bytes", len(input), len(enc))
	}

	dec, err := f.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(dec, input) {
		t.Error("deflate round trip mismatch")
	}
}

func TestPipelineRoundTrip(t *testing.T) {
	cases := []Config{
		{},
		{Compression: 6},
		{Shuffle: true, ElemSize: 4},
		{Compression: 9, Shuffle: true, ElemSize: 4},
	}

	rng := rand.New(rand.NewSource(2))
	input := make([]byte, 64*1024)
	rng.Read(input)

	for _, cfg := range cases {
		p, err := NewPipeline(cfg)
		if err != nil {
			t.Fatalf("NewPipeline(%+v): %v", cfg, err)
		}

		enc, err := p.Encode(input)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", cfg, err)
		}
		dec, err := p.Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%+v): %v", cfg, err)
		}
		if !bytes.Equal(dec, input) {
			t.Errorf("round trip mismatch for %+v", cfg)
		}
	}
}

func TestPipelineInvalidLevel(t *testing.T) {
	if _, err := NewPipeline(Config{Compression: 12}); err == nil {
		t.Error("expected error for invalid compression level")
	}
}
