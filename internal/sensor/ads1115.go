package sensor

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	DefaultADS1115Address = 0x48
	DefaultSampleRate     = 128
)

// dataRates maps samples per second to the DR field of the config register.
var dataRates = map[int]byte{
	8: 0x0, 16: 0x1, 32: 0x2, 64: 0x3,
	128: 0x4, 250: 0x5, 475: 0x6, 860: 0x7,
}

// SupportedSampleRate reports whether the converter can run at rate.
func SupportedSampleRate(rate int) bool {
	_, ok := dataRates[rate]
	return ok
}

// ADS1115Reader performs single-shot conversions on one channel of an
// ADS1115 converter. Negative readings clamp to zero.
type ADS1115Reader struct {
	dev        *i2c.Dev
	bus        i2c.BusCloser
	channel    int
	sampleRate int
}

// NewADS1115Reader opens the I2C bus and validates the channel settings.
func NewADS1115Reader(busName string, addr uint16, channel, sampleRate int) (*ADS1115Reader, error) {
	if _, _, err := configForChannel(channel, sampleRate); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	if addr == 0 {
		addr = DefaultADS1115Address
	}
	return &ADS1115Reader{
		dev:        &i2c.Dev{Addr: addr, Bus: bus},
		bus:        bus,
		channel:    channel,
		sampleRate: sampleRate,
	}, nil
}

// Read starts a conversion, waits for it and returns the result.
func (s *ADS1115Reader) Read() (uint32, error) {
	msb, lsb, err := configForChannel(s.channel, s.sampleRate)
	if err != nil {
		return 0, err
	}
	if err := s.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return 0, fmt.Errorf("write config: %w", err)
	}

	time.Sleep(conversionDelay(s.sampleRate))

	buf := make([]byte, 2)
	if err := s.dev.Tx([]byte{pointerConv}, buf); err != nil {
		return 0, fmt.Errorf("read conv: %w", err)
	}
	raw := int16(buf[0])<<8 | int16(buf[1])
	if raw < 0 {
		return 0, nil
	}
	return uint32(raw), nil
}

// Close releases the bus.
func (s *ADS1115Reader) Close() error {
	if s.bus != nil {
		return s.bus.Close()
	}
	return nil
}

// conversionDelay is one conversion period plus 2ms of slack.
func conversionDelay(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return time.Duration(1000/sampleRate+2) * time.Millisecond
}

// configForChannel builds the config register for a single-shot, single
// ended conversion at ±4.096V full scale.
func configForChannel(channel, sampleRate int) (byte, byte, error) {
	var mux byte
	switch channel {
	case 0:
		mux = 0x4
	case 1:
		mux = 0x5
	case 2:
		mux = 0x6
	case 3:
		mux = 0x7
	default:
		return 0, 0, fmt.Errorf("invalid channel %d", channel)
	}
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	dr, ok := dataRates[sampleRate]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported sample rate %d", sampleRate)
	}
	pga := byte(0x1)
	var config uint16 = 0x8000 // OS = 1 (start single conversion)
	config |= uint16(mux) << 12
	config |= uint16(pga) << 9
	config |= 1 << 8 // single-shot mode
	config |= uint16(dr) << 5
	config |= 0x3 // comparator disabled
	return byte(config >> 8), byte(config & 0xFF), nil
}
