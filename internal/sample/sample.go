// Package sample converts raw trace sample blocks between the exchange
// encodings (IBM System/360 float32, IEEE 754 float32) and the canonical
// in-store representation (IEEE float32).
//
// # Conversion Strategy
//
// Decoding dispatches on the sample [Format]:
//
//   - IBM32: sign-magnitude mantissa with a base-16 exponent. Decoded through
//     float64 so that every representable pattern converts without rounding,
//     then narrowed to float32.
//   - IEEE32: a straight bit reinterpretation, with an endian swap when the
//     source order differs from the canonical layout.
//
// Encoding is the exact inverse. For IBM32 the encoder always emits the
// normalized form (non-zero leading hex digit), which is the form produced by
// recording systems; normalized patterns and signed zero round-trip
// bit-for-bit through Decode then Encode.
package sample

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Format identifies a sample encoding. The numeric values match the exchange
// format's binary-header format code so headers can be written back directly.
type Format uint16

const (
	// FormatIBM32 is IBM single-precision floating point (format code 1).
	FormatIBM32 Format = 1
	// FormatIEEE32 is IEEE 754 single-precision floating point (format code 5).
	FormatIEEE32 Format = 5
)

// ErrUnsupported is returned for format tags this codec does not handle.
var ErrUnsupported = errors.New("unsupported sample format")

// SampleSize is the encoded size of one sample in bytes. Both supported
// formats are 4-byte encodings.
const SampleSize = 4

// ParseFormat maps a format name to a Format.
// Accepted names: "ibm32", "ieee32", "float32".
func ParseFormat(name string) (Format, error) {
	switch name {
	case "ibm32":
		return FormatIBM32, nil
	case "ieee32", "float32":
		return FormatIEEE32, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
}

func (f Format) String() string {
	switch f {
	case FormatIBM32:
		return "ibm32"
	case FormatIEEE32:
		return "ieee32"
	default:
		return fmt.Sprintf("format(%d)", uint16(f))
	}
}

// Valid reports whether f is a known format tag.
func (f Format) Valid() bool {
	return f == FormatIBM32 || f == FormatIEEE32
}

// Decode converts src, a block of encoded samples in the given format and
// byte order, into canonical float32 values in dst. len(src) must be exactly
// len(dst)*SampleSize.
func Decode(dst []float32, src []byte, f Format, order binary.ByteOrder) error {
	if len(src) != len(dst)*SampleSize {
		return fmt.Errorf("sample block is %d bytes, want %d", len(src), len(dst)*SampleSize)
	}

	switch f {
	case FormatIBM32:
		for i := range dst {
			dst[i] = FromIBM(order.Uint32(src[i*SampleSize:]))
		}
	case FormatIEEE32:
		for i := range dst {
			dst[i] = fromIEEEBits(order.Uint32(src[i*SampleSize:]))
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnsupported, f)
	}
	return nil
}

// Encode converts canonical float32 values into encoded samples in dst.
// len(dst) must be exactly len(src)*SampleSize.
func Encode(dst []byte, src []float32, f Format, order binary.ByteOrder) error {
	if len(dst) != len(src)*SampleSize {
		return fmt.Errorf("sample block is %d bytes, want %d", len(dst), len(src)*SampleSize)
	}

	switch f {
	case FormatIBM32:
		for i, v := range src {
			order.PutUint32(dst[i*SampleSize:], ToIBM(v))
		}
	case FormatIEEE32:
		for i, v := range src {
			order.PutUint32(dst[i*SampleSize:], toIEEEBits(v))
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnsupported, f)
	}
	return nil
}

// DecodeAlloc is Decode with the destination allocated for the caller.
func DecodeAlloc(src []byte, f Format, order binary.ByteOrder) ([]float32, error) {
	if len(src)%SampleSize != 0 {
		return nil, fmt.Errorf("sample block of %d bytes is not a multiple of %d", len(src), SampleSize)
	}
	dst := make([]float32, len(src)/SampleSize)
	if err := Decode(dst, src, f, order); err != nil {
		return nil, err
	}
	return dst, nil
}

// EncodeAlloc is Encode with the destination allocated for the caller.
func EncodeAlloc(src []float32, f Format, order binary.ByteOrder) ([]byte, error) {
	dst := make([]byte, len(src)*SampleSize)
	if err := Encode(dst, src, f, order); err != nil {
		return nil, err
	}
	return dst, nil
}
