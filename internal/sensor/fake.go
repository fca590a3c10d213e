package sensor

import (
	"errors"
	"math/rand"
)

// FakeReader is a test double that returns scripted values.
type FakeReader struct {
	// Values contains scripted readings. Each call to Read() consumes the
	// next value; once exhausted the last value repeats.
	Values []uint32

	// Reads counts calls to Read.
	Reads int

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Closed tracks if Close was called
	Closed bool

	index int
}

// NewFakeReader creates a FakeReader with the given values.
func NewFakeReader(values ...uint32) *FakeReader {
	return &FakeReader{Values: values}
}

// Read returns the next scripted value.
func (f *FakeReader) Read() (uint32, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// NoiseReader returns base plus a small random offset. It stands in for a
// real converter on a bench.
type NoiseReader struct {
	base uint32
	rnd  *rand.Rand
}

// NewNoiseReader creates a NoiseReader around base.
func NewNoiseReader(base uint32) *NoiseReader {
	return &NoiseReader{base: base, rnd: rand.New(rand.NewSource(1))}
}

// Read returns base ±8.
func (n *NoiseReader) Read() (uint32, error) {
	v := int64(n.base) + int64(n.rnd.Intn(17)) - 8
	if v < 0 {
		v = 0
	}
	return uint32(v), nil
}

// Close does nothing.
func (n *NoiseReader) Close() error { return nil }
