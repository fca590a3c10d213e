// Command smartplug samples an analog input, reports averaged readings over a
// persistent telemetry channel and drives an actuator from remote commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/smartplug/internal/channel"
	"github.com/sweeney/smartplug/internal/config"
	"github.com/sweeney/smartplug/internal/control"
	"github.com/sweeney/smartplug/internal/gpio"
	"github.com/sweeney/smartplug/internal/irq"
	"github.com/sweeney/smartplug/internal/logger"
	"github.com/sweeney/smartplug/internal/logic"
	"github.com/sweeney/smartplug/internal/mqtt"
	"github.com/sweeney/smartplug/internal/sensor"
	"github.com/sweeney/smartplug/internal/status"
	"github.com/sweeney/smartplug/internal/timer"
	"github.com/sweeney/smartplug/internal/web"
	"github.com/sweeney/smartplug/internal/ws"
)

func main() {
	configPath := flag.String("config", "/etc/smartplug/smartplug.yaml", "YAML config file (missing file means defaults)")
	flag.String("log", "info", "Log level: none, error, warn, info, debug")
	flag.String("http", ":80", "HTTP status address (empty to disable)")
	flag.Bool("control", true, "Enable the actuator controller")
	flag.String("transport", config.TransportWS, "Channel transport: ws or mqtt")
	flag.String("url", "", "WebSocket endpoint URL")
	flag.String("broker", "", "MQTT broker address")
	flag.String("sensor", "", "Sensor backend: sysfs, ads1115 or fake")
	flag.String("actuator", "", "Actuator backend: gpio or fake")
	flag.String("restart", "", "Watchdog restart mode: exit or reboot")
	printConfig := flag.Bool("print-config", false, "Print the effective config and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := applyFlags(cfg, flag.CommandLine); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if *printConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	level, err := logger.ParseLevel(cfg.Log)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	l := logger.NewStd(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatalf("%v", err)
	}
}

// applyFlags overrides file values with flags given on the command line.
// Flags left at their defaults do not touch the file values.
func applyFlags(cfg *config.Config, fs *flag.FlagSet) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "log":
			cfg.Log = v
		case "http":
			cfg.HTTP = v
		case "control":
			cfg.Control = v == "true"
		case "transport":
			cfg.Transport.Kind = v
		case "url":
			cfg.Transport.WS.URL = v
		case "broker":
			cfg.Transport.MQTT.Broker = v
		case "sensor":
			cfg.Sensor.Kind = v
		case "actuator":
			cfg.Actuator.Kind = v
		case "restart":
			cfg.Watchdog.Restart = v
		case "config", "print-config":
		default:
			err = fmt.Errorf("unhandled flag -%s", f.Name)
		}
	})
	return err
}

func run(ctx context.Context, cfg *config.Config, l *logger.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	host, err := endpointHost(cfg.Endpoint())
	if err != nil {
		return err
	}
	if err := waitForNetwork(ctx, host, cfg.Network, net.DefaultResolver.LookupHost, time.After, l.WithTag("net")); err != nil {
		return err
	}

	reader, err := openSensor(cfg.Sensor)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}

	var actuator gpio.Writer
	if cfg.Control {
		actuator, err = openActuator(cfg.Actuator)
		if err != nil {
			reader.Close()
			return fmt.Errorf("init actuator: %w", err)
		}
	}

	wd, err := newWatchdog(cfg.Watchdog, l.WithTag("watchdog"))
	if err != nil {
		reader.Close()
		if actuator != nil {
			actuator.Close()
		}
		return fmt.Errorf("init watchdog: %w", err)
	}

	ch := openChannel(cfg, l)
	state := irq.NewState(cfg.Control)
	sig := irq.NewSignal()
	sampler := timer.NewSampler(cfg.Sampling.Period, state, sig)

	tracker := status.NewTracker(time.Now(), status.Config{
		SamplePeriodMs: cfg.Sampling.Period.Milliseconds(),
		Threshold:      cfg.Sampling.Threshold,
		LoopDelayMs:    cfg.Loop.Delay.Milliseconds(),
		WatchdogMs:     cfg.Watchdog.Timeout.Milliseconds(),
		Transport:      cfg.Transport.Kind,
		Endpoint:       cfg.Endpoint(),
		Control:        cfg.Control,
		HTTPAddr:       cfg.HTTP,
	})

	loop := control.New(control.Config{
		Watchdog:   wd,
		State:      state,
		Signal:     sig,
		Aggregator: logic.NewAggregator(cfg.Sampling.Threshold),
		Sensor:     reader,
		Actuator:   actuator,
		Channel:    ch,
		Tracker:    tracker,
		Log:        l.WithTag("loop"),
	})

	l.Infof("started: control=%v transport=%s endpoint=%s sample=%v window=%d loop=%v watchdog=%v",
		cfg.Control, cfg.Transport.Kind, cfg.Endpoint(), cfg.Sampling.Period,
		cfg.Sampling.Threshold, cfg.Loop.Delay, cfg.Watchdog.Timeout)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sampler.Run(gctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Loop.Delay)
		defer ticker.Stop()

		wd.Start()
		defer func() {
			if err := wd.Stop(); err != nil {
				l.Warnf("stop watchdog: %v", err)
			}
		}()
		return loop.Run(gctx, ticker.C)
	})

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		g.Go(func() error {
			l.Infof("http status server listening on %s", cfg.HTTP)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				// Status is informational; the daemon keeps running without it.
				l.Errorf("http server error: %v", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	l.Infof("shutting down")
	if cerr := loop.Close(); cerr != nil {
		l.Warnf("close: %v", cerr)
	}
	return err
}

func openSensor(cfg config.SensorConfig) (sensor.Reader, error) {
	return sensor.Open(sensor.Config{
		Kind:       cfg.Kind,
		Device:     cfg.Device,
		Channel:    cfg.Channel,
		I2CBus:     cfg.I2CBus,
		I2CAddress: cfg.I2CAddress,
		SampleRate: cfg.SampleRate,
		Base:       cfg.Base,
	})
}

func openActuator(cfg config.ActuatorConfig) (gpio.Writer, error) {
	switch cfg.Kind {
	case config.ActuatorFake:
		return gpio.NewFakeWriter(), nil
	case config.ActuatorGPIO:
		return gpio.NewRealWriter(cfg.Chip, cfg.Line, cfg.ActiveLow)
	default:
		return nil, fmt.Errorf("unknown actuator kind %q", cfg.Kind)
	}
}

func newWatchdog(cfg config.WatchdogConfig, l *logger.Logger) (*timer.Watchdog, error) {
	restarter, err := timer.NewRestarter(cfg.Restart)
	if err != nil {
		return nil, err
	}
	var kicker timer.Kicker
	if cfg.Device != "" {
		k, err := timer.OpenDeviceKicker(cfg.Device, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		kicker = k
	}
	return timer.NewWatchdog(cfg.Timeout, restarter, kicker, l), nil
}

func openChannel(cfg *config.Config, l *logger.Logger) channel.Channel {
	if cfg.Transport.Kind == config.TransportMQTT {
		return mqtt.New(mqttConfig(cfg.Transport), l.WithTag("mqtt"))
	}
	return ws.New(wsConfig(cfg.Transport), l.WithTag("ws"))
}

func mqttConfig(t config.TransportConfig) mqtt.Config {
	return mqtt.Config{
		Broker:            t.MQTT.Broker,
		ClientID:          t.MQTT.ClientID,
		Username:          t.MQTT.Username,
		Password:          t.MQTT.Password,
		Prefix:            t.MQTT.Prefix,
		Headers:           t.MQTT.Headers,
		ReconnectInterval: t.ReconnectInterval,
		KeepAlive:         t.MQTT.KeepAlive,
		PingTimeout:       t.MQTT.PingTimeout,
	}
}

func wsConfig(t config.TransportConfig) ws.Config {
	return ws.Config{
		URL:               t.WS.URL,
		Subprotocol:       t.WS.Subprotocol,
		Username:          t.WS.Username,
		Password:          t.WS.Password,
		Headers:           t.WS.Headers,
		ReconnectInterval: t.ReconnectInterval,
		PingInterval:      t.WS.PingInterval,
		PongTimeout:       t.WS.PongTimeout,
		MaxMissedPongs:    t.WS.MaxMissedPongs,
	}
}

// endpointHost extracts the host name from a ws:// or tcp:// endpoint URL.
func endpointHost(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Hostname(), nil
}

type (
	lookupFunc func(ctx context.Context, host string) ([]string, error)
	afterFunc  func(d time.Duration) <-chan time.Time
)

// waitForNetwork retries until host resolves, doubling the delay between
// attempts up to MaxBackoff. It gives up after Attempts tries.
func waitForNetwork(ctx context.Context, host string, cfg config.NetworkConfig, lookup lookupFunc, after afterFunc, l *logger.Logger) error {
	backoff := cfg.Backoff
	var err error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if _, err = lookup(ctx, host); err == nil {
			if attempt > 1 {
				l.Infof("network up after %d attempts", attempt)
			}
			return nil
		}
		l.Warnf("attempt %d/%d: resolve %s: %v", attempt, cfg.Attempts, host, err)
		if attempt == cfg.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(backoff):
		}
		backoff *= 2
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
	return fmt.Errorf("network not ready after %d attempts: %w", cfg.Attempts, err)
}
