// Package config loads the smartplug daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/smartplug/internal/sensor"
)

// Transport kinds.
const (
	TransportWS   = "ws"
	TransportMQTT = "mqtt"
)

// Actuator kinds.
const (
	ActuatorGPIO = "gpio"
	ActuatorFake = "fake"
)

// Restart modes, matching timer.RestartExit and timer.RestartReboot.
const (
	RestartExit   = "exit"
	RestartReboot = "reboot"
)

// Sensor kinds, matching the sensor package backends.
const (
	SensorSysfs   = "sysfs"
	SensorADS1115 = "ads1115"
	SensorFake    = "fake"
)

// Config represents the daemon configuration.
type Config struct {
	Control   bool            `yaml:"control"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	Loop      LoopConfig      `yaml:"loop"`
	Watchdog  WatchdogConfig  `yaml:"watchdog"`
	Transport TransportConfig `yaml:"transport"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Actuator  ActuatorConfig  `yaml:"actuator"`
	Network   NetworkConfig   `yaml:"network"`
	HTTP      string          `yaml:"http"` // status server address, empty disables
	Log       string          `yaml:"log"`
}

// SamplingConfig contains the periodic sampling source and window settings.
type SamplingConfig struct {
	Period    time.Duration `yaml:"period"`
	Threshold uint32        `yaml:"threshold"` // ticks per averaging window
}

// LoopConfig contains main loop timing.
type LoopConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// WatchdogConfig contains watchdog supervision settings.
type WatchdogConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Restart string        `yaml:"restart"`
	Device  string        `yaml:"device"` // e.g. /dev/watchdog; empty disables
}

// TransportConfig selects and configures the telemetry/command channel.
type TransportConfig struct {
	Kind              string        `yaml:"kind"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	WS                WSConfig      `yaml:"ws"`
	MQTT              MQTTConfig    `yaml:"mqtt"`
}

// WSConfig contains WebSocket session settings.
type WSConfig struct {
	URL            string            `yaml:"url"`
	Subprotocol    string            `yaml:"subprotocol"`
	Username       string            `yaml:"username"`
	Password       string            `yaml:"password"`
	Headers        map[string]string `yaml:"headers"`
	PingInterval   time.Duration     `yaml:"ping_interval"`
	PongTimeout    time.Duration     `yaml:"pong_timeout"`
	MaxMissedPongs int               `yaml:"max_missed_pongs"`
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Broker      string            `yaml:"broker"`
	ClientID    string            `yaml:"client_id"`
	Username    string            `yaml:"username"`
	Password    string            `yaml:"password"`
	Prefix      string            `yaml:"prefix"`
	Headers     map[string]string `yaml:"headers"` // sent when the broker URL is ws:// or wss://
	KeepAlive   time.Duration     `yaml:"keepalive"`
	PingTimeout time.Duration     `yaml:"ping_timeout"`
}

// SensorConfig selects the analog input backend.
type SensorConfig struct {
	Kind       string `yaml:"kind"`
	Device     string `yaml:"device"` // IIO device for sysfs
	Channel    int    `yaml:"channel"`
	I2CBus     string `yaml:"i2c_bus"`
	I2CAddress uint16 `yaml:"i2c_address"`
	SampleRate int    `yaml:"sample_rate"` // ADS1115 samples per second
	Base       uint32 `yaml:"base"`        // fake backend centre value
}

// ActuatorConfig describes the output line of the control variant.
type ActuatorConfig struct {
	Kind      string `yaml:"kind"`
	Chip      string `yaml:"chip"`
	Line      int    `yaml:"line"` // negative means no actuator
	ActiveLow bool   `yaml:"active_low"`
}

// NetworkConfig bounds the startup wait for the endpoint host to resolve.
type NetworkConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Control: true,
		Sampling: SamplingConfig{
			Period:    time.Second,
			Threshold: 10,
		},
		Loop: LoopConfig{
			Delay: 200 * time.Millisecond,
		},
		Watchdog: WatchdogConfig{
			Timeout: 5 * time.Second,
			Restart: RestartExit,
		},
		Transport: TransportConfig{
			Kind:              TransportWS,
			ReconnectInterval: 5 * time.Second,
			WS: WSConfig{
				URL:         "ws://localhost:8080/ws",
				Subprotocol: "smartplug",
				Headers: map[string]string{
					"User-Agent": "Project/0.1",
					"Origin":     "project://id",
				},
				PingInterval:   5 * time.Second,
				PongTimeout:    5 * time.Second,
				MaxMissedPongs: 1,
			},
			MQTT: MQTTConfig{
				Broker:      "tcp://localhost:1883",
				ClientID:    "smartplug",
				KeepAlive:   5 * time.Second,
				PingTimeout: 5 * time.Second,
			},
		},
		Sensor: SensorConfig{
			Kind:       SensorSysfs,
			Device:     "iio:device0",
			Channel:    0,
			I2CBus:     "1",
			I2CAddress: 0x48,
			SampleRate: 128,
			Base:       512,
		},
		Actuator: ActuatorConfig{
			Kind: ActuatorGPIO,
			Chip: "gpiochip0",
			Line: 17,
		},
		Network: NetworkConfig{
			Attempts:   10,
			Backoff:    500 * time.Millisecond,
			MaxBackoff: 8 * time.Second,
		},
		HTTP: ":80",
		Log:  "info",
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist the
// defaults are returned; missing fields take their default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.ensureDefaults()
	return cfg, nil
}

// Encode writes the configuration as YAML to w.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Save writes the configuration as YAML.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ensureDefaults fills zero values left by a partial file.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sampling.Period == 0 {
		c.Sampling.Period = def.Sampling.Period
	}
	if c.Sampling.Threshold == 0 {
		c.Sampling.Threshold = def.Sampling.Threshold
	}
	if c.Loop.Delay == 0 {
		c.Loop.Delay = def.Loop.Delay
	}
	if c.Watchdog.Timeout == 0 {
		c.Watchdog.Timeout = def.Watchdog.Timeout
	}
	if c.Watchdog.Restart == "" {
		c.Watchdog.Restart = def.Watchdog.Restart
	}

	if c.Transport.Kind == "" {
		c.Transport.Kind = def.Transport.Kind
	}
	if c.Transport.ReconnectInterval == 0 {
		c.Transport.ReconnectInterval = def.Transport.ReconnectInterval
	}
	if c.Transport.WS.PongTimeout == 0 {
		c.Transport.WS.PongTimeout = def.Transport.WS.PongTimeout
	}
	if c.Transport.WS.MaxMissedPongs == 0 {
		c.Transport.WS.MaxMissedPongs = def.Transport.WS.MaxMissedPongs
	}
	if c.Transport.MQTT.ClientID == "" {
		c.Transport.MQTT.ClientID = def.Transport.MQTT.ClientID
	}
	if c.Transport.MQTT.KeepAlive == 0 {
		c.Transport.MQTT.KeepAlive = def.Transport.MQTT.KeepAlive
	}
	if c.Transport.MQTT.PingTimeout == 0 {
		c.Transport.MQTT.PingTimeout = def.Transport.MQTT.PingTimeout
	}

	if c.Sensor.Kind == "" {
		c.Sensor.Kind = def.Sensor.Kind
	}
	if c.Sensor.SampleRate == 0 {
		c.Sensor.SampleRate = def.Sensor.SampleRate
	}
	if c.Actuator.Kind == "" {
		c.Actuator.Kind = def.Actuator.Kind
	}
	if c.Actuator.Chip == "" {
		c.Actuator.Chip = def.Actuator.Chip
	}

	if c.Network.Attempts == 0 {
		c.Network.Attempts = def.Network.Attempts
	}
	if c.Network.Backoff == 0 {
		c.Network.Backoff = def.Network.Backoff
	}
	if c.Network.MaxBackoff == 0 {
		c.Network.MaxBackoff = def.Network.MaxBackoff
	}
}

// Validate rejects configurations the daemon cannot run safely.
func (c *Config) Validate() error {
	var errs []error

	if c.Sampling.Threshold < 1 {
		errs = append(errs, errors.New("sampling.threshold must be at least 1"))
	}
	if c.Sampling.Period <= 0 {
		errs = append(errs, errors.New("sampling.period must be positive"))
	}
	if c.Loop.Delay <= 0 {
		errs = append(errs, errors.New("loop.delay must be positive"))
	}
	if c.Watchdog.Timeout <= 0 {
		errs = append(errs, errors.New("watchdog.timeout must be positive"))
	} else if c.Loop.Delay > c.Watchdog.Timeout/4 {
		errs = append(errs, fmt.Errorf("loop.delay %v must be at most a quarter of watchdog.timeout %v", c.Loop.Delay, c.Watchdog.Timeout))
	}
	switch c.Watchdog.Restart {
	case RestartExit, RestartReboot:
	default:
		errs = append(errs, fmt.Errorf("unknown watchdog.restart %q", c.Watchdog.Restart))
	}

	if c.Transport.ReconnectInterval <= 0 {
		errs = append(errs, errors.New("transport.reconnect_interval must be positive"))
	}
	switch c.Transport.Kind {
	case TransportWS:
		if c.Transport.WS.URL == "" {
			errs = append(errs, errors.New("transport.ws.url is required"))
		}
		if c.Transport.WS.PingInterval < 0 {
			errs = append(errs, errors.New("transport.ws.ping_interval must not be negative"))
		}
	case TransportMQTT:
		if c.Transport.MQTT.Broker == "" {
			errs = append(errs, errors.New("transport.mqtt.broker is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport.kind %q", c.Transport.Kind))
	}

	switch c.Sensor.Kind {
	case SensorADS1115:
		if !sensor.SupportedSampleRate(c.Sensor.SampleRate) {
			errs = append(errs, fmt.Errorf("unsupported sensor.sample_rate %d (want 8, 16, 32, 64, 128, 250, 475 or 860)", c.Sensor.SampleRate))
		}
	case SensorSysfs, SensorFake:
	default:
		errs = append(errs, fmt.Errorf("unknown sensor.kind %q", c.Sensor.Kind))
	}

	if c.Control {
		switch c.Actuator.Kind {
		case ActuatorGPIO:
			if c.Actuator.Line < 0 {
				errs = append(errs, errors.New("control requires actuator.line"))
			}
		case ActuatorFake:
		default:
			errs = append(errs, fmt.Errorf("unknown actuator.kind %q", c.Actuator.Kind))
		}
	}

	if c.Network.Attempts < 1 {
		errs = append(errs, errors.New("network.attempts must be at least 1"))
	}

	return errors.Join(errs...)
}

// Endpoint returns the remote address of the selected transport.
func (c *Config) Endpoint() string {
	if c.Transport.Kind == TransportMQTT {
		return c.Transport.MQTT.Broker
	}
	return c.Transport.WS.URL
}
