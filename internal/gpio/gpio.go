// Package gpio drives the actuator output line with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer drives a single actuator output.
type Writer interface {
	// Write sets the logical level: true = active (relay energised).
	Write(active bool) error

	// Close drives the line inactive and releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 17
)
