//go:build !linux

package gpio

import "errors"

// RealWriter is unavailable off Linux.
type RealWriter struct{}

// NewRealWriter always fails off Linux; use the fake actuator instead.
func NewRealWriter(chip string, line int, activeLow bool) (*RealWriter, error) {
	return nil, errors.New("gpio: character device requires linux")
}

func (w *RealWriter) Write(active bool) error { return errors.New("gpio: not supported") }

func (w *RealWriter) Close() error { return nil }
