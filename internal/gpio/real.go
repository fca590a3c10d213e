//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// outputLine is the part of *gpiocdev.Line the writer uses.
type outputLine interface {
	SetValue(value int) error
	Reconfigure(options ...gpiocdev.LineConfigOption) error
	Close() error
}

// RealWriter drives an output line through the Linux GPIO character device.
type RealWriter struct {
	line outputLine
}

// NewRealWriter requests line on chip as an output, initially inactive.
// With activeLow the logical active level drives the pin low.
func NewRealWriter(chip string, line int, activeLow bool) (*RealWriter, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("smartplug"),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	l, err := gpiocdev.RequestLine(chip, line, opts...)
	if err != nil {
		return nil, fmt.Errorf("request line %s:%d: %w", chip, line, err)
	}
	return &RealWriter{line: l}, nil
}

// Write sets the logical level of the line.
func (w *RealWriter) Write(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := w.line.SetValue(v); err != nil {
		return fmt.Errorf("set line: %w", err)
	}
	return nil
}

// Close drives the line inactive, then reconfigures it as an input so the
// pin is left floating the way it boots.
func (w *RealWriter) Close() error {
	var errs []error
	if w.line == nil {
		return nil
	}
	if err := w.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("set inactive: %w", err))
	}
	if err := w.line.Reconfigure(gpiocdev.AsInput); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure: %w", err))
	}
	if err := w.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close line: %w", err))
	}
	w.line = nil
	return errors.Join(errs...)
}
