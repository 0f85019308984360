package filter

// Shuffle implements the byte shuffle transform. It rearranges bytes so that
// equal byte positions of all elements are grouped (all byte 0s, then all
// byte 1s, ...), which exposes the low entropy of float sign/exponent bytes
// to the compressor.
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter for elements of the given byte width.
func NewShuffle(elemSize int) *Shuffle {
	if elemSize <= 0 {
		elemSize = 1
	}
	return &Shuffle{elemSize: elemSize}
}

func (f *Shuffle) ID() uint16 {
	return IDShuffle
}

// Encode scatters element bytes into grouped byte planes. A trailing partial
// element is passed through unchanged.
func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	if f.elemSize <= 1 {
		return input, nil
	}

	numElems := len(input) / f.elemSize
	if numElems == 0 {
		return input, nil
	}

	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[j*numElems+i] = input[i*f.elemSize+j]
		}
	}
	copy(output[numElems*f.elemSize:], input[numElems*f.elemSize:])
	return output, nil
}

// Decode gathers bytes from grouped planes back into elements.
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	if f.elemSize <= 1 {
		return input, nil
	}

	numElems := len(input) / f.elemSize
	if numElems == 0 {
		return input, nil
	}

	output := make([]byte, len(input))
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			output[i*f.elemSize+j] = input[j*numElems+i]
		}
	}
	copy(output[numElems*f.elemSize:], input[numElems*f.elemSize:])
	return output, nil
}
