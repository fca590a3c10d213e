package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smartplug.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Control)
	assert.Equal(t, time.Second, cfg.Sampling.Period)
	assert.Equal(t, uint32(10), cfg.Sampling.Threshold)
	assert.Equal(t, 200*time.Millisecond, cfg.Loop.Delay)
	assert.Equal(t, 5*time.Second, cfg.Watchdog.Timeout)
	assert.Equal(t, RestartExit, cfg.Watchdog.Restart)
	assert.Equal(t, TransportWS, cfg.Transport.Kind)
	assert.Equal(t, 5*time.Second, cfg.Transport.ReconnectInterval)
	assert.Equal(t, 5*time.Second, cfg.Transport.WS.PingInterval)
	assert.Equal(t, 5*time.Second, cfg.Transport.WS.PongTimeout)
	assert.Equal(t, 1, cfg.Transport.WS.MaxMissedPongs)
	assert.Equal(t, "Project/0.1", cfg.Transport.WS.Headers["User-Agent"])
	assert.Equal(t, "project://id", cfg.Transport.WS.Headers["Origin"])
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeFile(t, `
control: false
sampling:
  period: 500ms
  threshold: 20
loop:
  delay: 250ms
watchdog:
  timeout: 8s
  restart: reboot
  device: /dev/watchdog
transport:
  kind: mqtt
  reconnect_interval: 3s
  mqtt:
    broker: tcp://10.0.0.2:1883
    client_id: kitchen
    prefix: home/kitchen/plug
    headers:
      User-Agent: Project/0.1
sensor:
  kind: ads1115
  channel: 2
  i2c_address: 0x49
http: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Control)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampling.Period)
	assert.Equal(t, uint32(20), cfg.Sampling.Threshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Loop.Delay)
	assert.Equal(t, 8*time.Second, cfg.Watchdog.Timeout)
	assert.Equal(t, RestartReboot, cfg.Watchdog.Restart)
	assert.Equal(t, "/dev/watchdog", cfg.Watchdog.Device)
	assert.Equal(t, TransportMQTT, cfg.Transport.Kind)
	assert.Equal(t, 3*time.Second, cfg.Transport.ReconnectInterval)
	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.Transport.MQTT.Broker)
	assert.Equal(t, "kitchen", cfg.Transport.MQTT.ClientID)
	assert.Equal(t, "home/kitchen/plug", cfg.Transport.MQTT.Prefix)
	assert.Equal(t, map[string]string{"User-Agent": "Project/0.1"}, cfg.Transport.MQTT.Headers)
	assert.Equal(t, SensorADS1115, cfg.Sensor.Kind)
	assert.Equal(t, 2, cfg.Sensor.Channel)
	assert.Equal(t, uint16(0x49), cfg.Sensor.I2CAddress)
	assert.Equal(t, "", cfg.HTTP)
	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.Endpoint())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, `
transport:
  ws:
    url: ws://192.168.1.10:8080/ws
    username: user
    password: password
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://192.168.1.10:8080/ws", cfg.Transport.WS.URL)
	assert.Equal(t, "ws://192.168.1.10:8080/ws", cfg.Endpoint())
	assert.Equal(t, "user", cfg.Transport.WS.Username)
	assert.Equal(t, 5*time.Second, cfg.Transport.WS.PingInterval)
	assert.Equal(t, uint32(10), cfg.Sampling.Threshold)
	assert.Equal(t, 5*time.Second, cfg.Watchdog.Timeout)
	assert.Equal(t, TransportWS, cfg.Transport.Kind)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "sampling: [not, a, map")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeFile(t, "loop:\n  delay: soon\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Sampling.Threshold = 5
	cfg.Transport.Kind = TransportMQTT

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero threshold", func(c *Config) { c.Sampling.Threshold = 0 }, "threshold"},
		{"zero period", func(c *Config) { c.Sampling.Period = 0 }, "sampling.period"},
		{"negative loop delay", func(c *Config) { c.Loop.Delay = -time.Second }, "loop.delay"},
		{"loop delay too close to watchdog", func(c *Config) { c.Loop.Delay = 2 * time.Second }, "quarter"},
		{"zero watchdog", func(c *Config) { c.Watchdog.Timeout = 0 }, "watchdog.timeout"},
		{"unknown restart", func(c *Config) { c.Watchdog.Restart = "halt" }, "watchdog.restart"},
		{"unknown transport", func(c *Config) { c.Transport.Kind = "coap" }, "transport.kind"},
		{"missing ws url", func(c *Config) { c.Transport.WS.URL = "" }, "transport.ws.url"},
		{"missing broker", func(c *Config) {
			c.Transport.Kind = TransportMQTT
			c.Transport.MQTT.Broker = ""
		}, "transport.mqtt.broker"},
		{"zero reconnect", func(c *Config) { c.Transport.ReconnectInterval = 0 }, "reconnect_interval"},
		{"unknown sensor", func(c *Config) { c.Sensor.Kind = "thermocouple" }, "sensor.kind"},
		{"unsupported ads1115 rate", func(c *Config) {
			c.Sensor.Kind = SensorADS1115
			c.Sensor.SampleRate = 1000
		}, "sensor.sample_rate"},
		{"control without line", func(c *Config) { c.Actuator.Line = -1 }, "actuator.line"},
		{"unknown actuator", func(c *Config) { c.Actuator.Kind = "relay-board" }, "actuator.kind"},
		{"zero attempts", func(c *Config) { c.Network.Attempts = 0 }, "network.attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_TelemetryOnlyIgnoresActuator(t *testing.T) {
	cfg := Default()
	cfg.Control = false
	cfg.Actuator.Line = -1
	cfg.Actuator.Kind = "anything"

	assert.NoError(t, cfg.Validate())
}

func TestValidate_ADS1115Rates(t *testing.T) {
	for _, rate := range []int{8, 16, 32, 64, 128, 250, 475, 860} {
		cfg := Default()
		cfg.Sensor.Kind = SensorADS1115
		cfg.Sensor.SampleRate = rate
		assert.NoError(t, cfg.Validate(), "rate %d", rate)
	}
}

func TestValidate_HeartbeatDisabled(t *testing.T) {
	cfg := Default()
	cfg.Transport.WS.PingInterval = 0

	assert.NoError(t, cfg.Validate())
}

func TestEncode(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Default().Encode(&buf))

	out := buf.String()
	assert.Contains(t, out, "threshold: 10")
	assert.Contains(t, out, "period: 1s")
	assert.Contains(t, out, "kind: ws")
}
