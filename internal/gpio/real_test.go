//go:build linux

package gpio

import (
	"errors"
	"testing"

	"github.com/warthog618/go-gpiocdev"
)

type fakeLine struct {
	values       []int
	reconfigured bool
	closed       bool

	setErr, reconfigureErr, closeErr error
}

func (l *fakeLine) SetValue(v int) error {
	l.values = append(l.values, v)
	return l.setErr
}

func (l *fakeLine) Reconfigure(...gpiocdev.LineConfigOption) error {
	l.reconfigured = true
	return l.reconfigureErr
}

func (l *fakeLine) Close() error {
	l.closed = true
	return l.closeErr
}

func TestRealWriterWrite(t *testing.T) {
	line := &fakeLine{}
	w := &RealWriter{line: line}

	w.Write(true)
	w.Write(false)

	if len(line.values) != 2 || line.values[0] != 1 || line.values[1] != 0 {
		t.Errorf("values: got %v, want [1 0]", line.values)
	}
}

func TestRealWriterCloseReleasesInactive(t *testing.T) {
	line := &fakeLine{}
	w := &RealWriter{line: line}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(line.values) != 1 || line.values[0] != 0 {
		t.Errorf("line not driven inactive: %v", line.values)
	}
	if !line.reconfigured || !line.closed {
		t.Error("line should be reconfigured as input and closed")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestRealWriterCloseKeepsEveryError(t *testing.T) {
	errSet := errors.New("set failed")
	errReconfigure := errors.New("reconfigure failed")
	errClose := errors.New("close failed")
	line := &fakeLine{setErr: errSet, reconfigureErr: errReconfigure, closeErr: errClose}
	w := &RealWriter{line: line}

	err := w.Close()
	for _, want := range []error{errSet, errReconfigure, errClose} {
		if !errors.Is(err, want) {
			t.Errorf("errors.Is(%v, %v) = false", err, want)
		}
	}
	if !line.closed {
		t.Error("line should be closed even after earlier failures")
	}
}
