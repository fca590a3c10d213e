// Package sensor provides analog input reading with hardware abstraction.
// Real backends read a Linux IIO ADC channel through sysfs or an external
// ADS1115 over I2C. The fake backend allows testing without hardware.
package sensor

import "fmt"

// Reader reads one raw analog sample.
type Reader interface {
	// Read returns the raw ADC value. The range depends on the converter.
	Read() (uint32, error)

	// Close releases hardware resources.
	Close() error
}

// Backend names.
const (
	KindSysfs   = "sysfs"
	KindADS1115 = "ads1115"
	KindFake    = "fake"
)

// Config selects and configures a backend.
type Config struct {
	Kind string

	// sysfs
	Device  string // IIO device, e.g. "iio:device0"
	Channel int

	// ads1115
	I2CBus     string
	I2CAddress uint16
	SampleRate int

	// fake
	Base uint32
}

// Open returns the backend named by cfg.Kind.
func Open(cfg Config) (Reader, error) {
	switch cfg.Kind {
	case KindSysfs:
		return NewIIOReader(cfg.Device, cfg.Channel)
	case KindADS1115:
		return NewADS1115Reader(cfg.I2CBus, cfg.I2CAddress, cfg.Channel, cfg.SampleRate)
	case KindFake:
		return NewNoiseReader(cfg.Base), nil
	default:
		return nil, fmt.Errorf("unknown sensor kind %q", cfg.Kind)
	}
}
