package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIORoot is where the kernel exposes industrial I/O devices.
var IIORoot = "/sys/bus/iio/devices"

// IIOReader reads a raw ADC channel from sysfs.
type IIOReader struct {
	path string
}

// NewIIOReader checks that the channel attribute exists.
func NewIIOReader(device string, channel int) (*IIOReader, error) {
	path := filepath.Join(IIORoot, device, fmt.Sprintf("in_voltage%d_raw", channel))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ADC sysfs not found: %w", err)
	}
	return &IIOReader{path: path}, nil
}

// Read returns the current raw value.
func (r *IIOReader) Read() (uint32, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", r.path, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse ADC value %q: %w", data, err)
	}
	return uint32(v), nil
}

// Close is a no-op; each Read opens the attribute afresh.
func (r *IIOReader) Close() error {
	return nil
}
