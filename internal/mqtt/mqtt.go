// Package mqtt implements the telemetry/command channel on top of an MQTT
// broker: averages are published to a telemetry topic and commands arrive on
// a command topic.
package mqtt

import (
	"net/http"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/smartplug/internal/channel"
	"github.com/sweeney/smartplug/internal/logger"
)

// Topic layout, relative to the device prefix.
const (
	TopicTelemetry = "current"
	TopicCommand   = "command"
	TopicStatus    = "status"

	StatusOnline  = "online"
	StatusOffline = "offline"

	publishTimeout = 5 * time.Second
)

// Config describes the broker and topics.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Prefix            string // topic prefix, e.g. "smartplug/kitchen"
	Headers           map[string]string
	ReconnectInterval time.Duration
	KeepAlive         time.Duration
	PingTimeout       time.Duration
}

// Topic joins the device prefix and a topic name.
func (c Config) Topic(name string) string {
	if c.Prefix == "" {
		return "smartplug/" + c.ClientID + "/" + name
	}
	return c.Prefix + "/" + name
}

// Client is a channel.Channel backed by paho. Paho callbacks only queue
// events; dispatch happens in Poll.
type Client struct {
	cfg     Config
	log     *logger.Logger
	client  paho.Client
	handler channel.Handler
	queue   channel.Queue

	started   bool
	connected bool
}

// New creates a client. Nothing is sent to the broker until the first Poll.
func New(cfg Config, l *logger.Logger) *Client {
	c := &Client{cfg: cfg, log: l}
	c.client = paho.NewClient(c.options())
	return c
}

func (c *Client) options() *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(c.cfg.Broker).
		SetClientID(c.cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(c.cfg.ReconnectInterval).
		SetMaxReconnectInterval(c.cfg.ReconnectInterval).
		SetKeepAlive(c.cfg.KeepAlive).
		SetPingTimeout(c.cfg.PingTimeout).
		SetWill(c.cfg.Topic(TopicStatus), StatusOffline, 1, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
	}
	if c.cfg.Password != "" {
		opts.SetPassword(c.cfg.Password)
	}
	if len(c.cfg.Headers) > 0 {
		h := http.Header{}
		for k, v := range c.cfg.Headers {
			h.Set(k, v)
		}
		opts.SetHTTPHeaders(h)
	}
	return opts
}

// onConnect runs on a paho goroutine after every (re)connect.
func (c *Client) onConnect(client paho.Client) {
	client.Subscribe(c.cfg.Topic(TopicCommand), 1, c.onMessage)
	client.Publish(c.cfg.Topic(TopicStatus), 1, true, StatusOnline)
	c.queue.Push(channel.Event{Type: channel.EventConnected, Payload: []byte(c.cfg.Broker)})
}

// onConnectionLost runs on a paho goroutine.
func (c *Client) onConnectionLost(_ paho.Client, err error) {
	reason := "connection lost"
	if err != nil {
		reason = err.Error()
	}
	c.queue.Push(channel.Event{Type: channel.EventDisconnected, Payload: []byte(reason)})
}

// onMessage runs on a paho goroutine. Command payloads are text.
func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	payload := append([]byte(nil), msg.Payload()...)
	c.queue.Push(channel.Event{Type: channel.EventText, Payload: payload})
}

// SetHandler implements channel.Channel.
func (c *Client) SetHandler(h channel.Handler) {
	c.handler = h
}

// Poll implements channel.Channel. The first call starts the connection;
// paho retries in the background at the reconnect interval.
func (c *Client) Poll() {
	if !c.started {
		c.started = true
		c.log.Debugf("connecting to %s", c.cfg.Broker)
		c.client.Connect()
	}

	for _, e := range c.queue.Drain() {
		switch e.Type {
		case channel.EventConnected:
			c.connected = true
			c.log.Infof("connected to broker: %s", e.Payload)
		case channel.EventDisconnected:
			c.connected = false
			c.log.Warnf("disconnected: %s", e.Payload)
		case channel.EventText:
			c.log.Infof("get text: %s", e.Payload)
		}
		if c.handler != nil {
			c.handler(e)
		}
	}
}

// Connected implements channel.Channel.
func (c *Client) Connected() bool {
	return c.connected
}

// SendText publishes text to the telemetry topic at QoS 0 without waiting.
// A publish that later fails is only logged.
func (c *Client) SendText(text string) error {
	if !c.connected {
		return channel.ErrNotConnected
	}
	token := c.client.Publish(c.cfg.Topic(TopicTelemetry), 0, false, text)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			c.log.Warnf("publish timeout")
			return
		}
		if err := token.Error(); err != nil {
			c.log.Warnf("publish: %v", err)
		}
	}()
	return nil
}

// Close publishes the offline status and disconnects from the broker.
func (c *Client) Close() error {
	if c.connected {
		token := c.client.Publish(c.cfg.Topic(TopicStatus), 1, true, StatusOffline)
		if token.WaitTimeout(time.Second) && token.Error() != nil {
			c.log.Warnf("publish offline status: %v", token.Error())
		}
	}
	c.connected = false
	if c.started {
		c.client.Disconnect(1000) // 1 second timeout
	}
	return nil
}
