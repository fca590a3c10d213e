//go:build !linux

package timer

import (
	"errors"
	"time"
)

// RebootRestarter is not available on non-Linux platforms.
type RebootRestarter struct{}

// NewRebootRestarter returns an error on non-Linux platforms.
func NewRebootRestarter() (*RebootRestarter, error) {
	return nil, errors.New("timer: reboot not supported on this platform (requires Linux)")
}

// Restart is not implemented on non-Linux platforms.
func (r *RebootRestarter) Restart() {}

// DeviceKicker is not available on non-Linux platforms.
type DeviceKicker struct{}

// OpenDeviceKicker returns an error on non-Linux platforms.
func OpenDeviceKicker(path string, timeout time.Duration) (*DeviceKicker, error) {
	return nil, errors.New("timer: watchdog device not supported on this platform (requires Linux)")
}

// Kick is not implemented on non-Linux platforms.
func (k *DeviceKicker) Kick() error {
	return errors.New("timer: not supported")
}

// Close is not implemented on non-Linux platforms.
func (k *DeviceKicker) Close() error {
	return nil
}
