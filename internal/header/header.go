// Package header encodes and decodes fixed-width integer fields in raw
// trace-header byte blocks.
//
// A [Codec] is built from a list of [FieldSpec] values, each naming a field
// and giving its byte offset, width, signedness and byte order within the
// block. Decoding never touches bytes outside the declared fields, so for
// non-overlapping specs Encode(Decode(block)) reproduces the block exactly.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed indicates a field spec that does not fit the header block.
var ErrMalformed = errors.New("malformed header: field outside block bounds")

// Endianness selects the byte order of a field. The zero value means big
// endian, the exchange format's native order.
type Endianness string

const (
	BigEndian    Endianness = "big"
	LittleEndian Endianness = "little"
)

// Order returns the encoding/binary byte order for e.
func (e Endianness) Order() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// FieldSpec describes one fixed-width integer field in a header block.
type FieldSpec struct {
	Name   string     `json:"name" yaml:"name"`
	Offset int        `json:"offset" yaml:"offset"`
	Length int        `json:"length" yaml:"length"`
	Signed bool       `json:"signed" yaml:"signed"`
	Endian Endianness `json:"endian,omitempty" yaml:"endian,omitempty"`
}

// Codec decodes and encodes a fixed set of fields against header blocks of a
// known size.
type Codec struct {
	blockSize int
	fields    []FieldSpec
	byName    map[string]int
}

// NewCodec validates the field specs against the block size and returns a
// codec. Specs that run past the block, use an unsupported width, or repeat a
// name are rejected.
func NewCodec(blockSize int, fields []FieldSpec) (*Codec, error) {
	c := &Codec{
		blockSize: blockSize,
		fields:    append([]FieldSpec(nil), fields...),
		byName:    make(map[string]int, len(fields)),
	}

	for i, f := range c.fields {
		switch f.Length {
		case 1, 2, 4:
		default:
			return nil, fmt.Errorf("field %q: unsupported length %d", f.Name, f.Length)
		}
		if f.Offset < 0 || f.Offset+f.Length > blockSize {
			return nil, fmt.Errorf("%w: field %q at offset %d length %d, block size %d",
				ErrMalformed, f.Name, f.Offset, f.Length, blockSize)
		}
		if _, dup := c.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field name %q", f.Name)
		}
		c.byName[f.Name] = i
	}
	return c, nil
}

// BlockSize returns the header block size the codec was built for.
func (c *Codec) BlockSize() int { return c.blockSize }

// Fields returns the field specs in declaration order.
func (c *Codec) Fields() []FieldSpec { return c.fields }

// Names returns the field names in declaration order.
func (c *Codec) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Decode extracts all declared fields from block. It is pure: block is not
// modified and repeated calls yield equal maps.
func (c *Codec) Decode(block []byte) (map[string]int32, error) {
	if len(block) < c.blockSize {
		return nil, fmt.Errorf("%w: block is %d bytes, codec needs %d", ErrMalformed, len(block), c.blockSize)
	}
	out := make(map[string]int32, len(c.fields))
	for _, f := range c.fields {
		out[f.Name] = decodeField(block, f)
	}
	return out, nil
}

// DecodeField extracts a single named field from block.
func (c *Codec) DecodeField(block []byte, name string) (int32, error) {
	i, ok := c.byName[name]
	if !ok {
		return 0, fmt.Errorf("unknown header field %q", name)
	}
	f := c.fields[i]
	if f.Offset+f.Length > len(block) {
		return 0, fmt.Errorf("%w: field %q at offset %d length %d, block size %d",
			ErrMalformed, f.Name, f.Offset, f.Length, len(block))
	}
	return decodeField(block, f), nil
}

// Encode writes the given field values into block in place. Fields absent
// from values keep their existing bytes, as do all bytes outside the declared
// fields.
func (c *Codec) Encode(values map[string]int32, block []byte) error {
	if len(block) < c.blockSize {
		return fmt.Errorf("%w: block is %d bytes, codec needs %d", ErrMalformed, len(block), c.blockSize)
	}
	for _, f := range c.fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		encodeField(block, f, v)
	}
	return nil
}

func decodeField(block []byte, f FieldSpec) int32 {
	b := block[f.Offset : f.Offset+f.Length]
	order := f.Endian.Order()
	switch f.Length {
	case 1:
		if f.Signed {
			return int32(int8(b[0]))
		}
		return int32(b[0])
	case 2:
		v := order.Uint16(b)
		if f.Signed {
			return int32(int16(v))
		}
		return int32(v)
	default: // 4
		return int32(order.Uint32(b))
	}
}

func encodeField(block []byte, f FieldSpec, v int32) {
	b := block[f.Offset : f.Offset+f.Length]
	order := f.Endian.Order()
	switch f.Length {
	case 1:
		b[0] = byte(v)
	case 2:
		order.PutUint16(b, uint16(v))
	default: // 4
		order.PutUint32(b, uint32(v))
	}
}
