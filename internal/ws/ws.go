// Package ws implements the telemetry/command channel over a WebSocket
// session, with fixed-interval reconnect and a ping/pong heartbeat.
package ws

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/smartplug/internal/channel"
	"github.com/sweeney/smartplug/internal/logger"
)

// Session policy defaults.
const (
	DefaultReconnectInterval = 5 * time.Second
	DefaultPingInterval      = 5 * time.Second
	DefaultPongTimeout       = 5 * time.Second
	DefaultMaxMissedPongs    = 1
	DefaultHandshakeTimeout  = 5 * time.Second
	DefaultWriteTimeout      = time.Second

	maxMessageSize = 4096
	inboxSize      = 32
)

// Config describes the remote endpoint and session policy.
type Config struct {
	URL               string
	Subprotocol       string
	Username          string
	Password          string
	Headers           map[string]string
	ReconnectInterval time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	MaxMissedPongs    int
	HandshakeTimeout  time.Duration
	WriteTimeout      time.Duration
}

type inboundKind int

const (
	inDial inboundKind = iota
	inMessage
	inPong
	inReadError
)

// inbound carries results from the dial and reader goroutines to Poll.
type inbound struct {
	kind    inboundKind
	gen     uint64
	conn    *websocket.Conn
	msgType int
	data    []byte
	err     error
}

// Client is a reconnecting WebSocket session. All methods except the
// internal goroutines run on the caller's goroutine; they are not safe for
// concurrent use.
type Client struct {
	cfg     Config
	log     *logger.Logger
	handler channel.Handler
	now     func() time.Time
	dialer  *websocket.Dialer
	header  http.Header

	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan inbound

	state channel.State
	conn  *websocket.Conn
	gen   uint64
	hb    channel.Heartbeat
	pacer channel.Pacer
}

// New creates a disconnected client. The first Poll starts connecting.
func New(cfg Config, l *logger.Logger) *Client {
	applyDefaults(&cfg)

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg: cfg,
		log: l,
		now: time.Now,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		header: buildHeader(cfg),
		ctx:    ctx,
		cancel: cancel,
		inbox:  make(chan inbound, inboxSize),
		hb: channel.Heartbeat{
			Interval:  cfg.PingInterval,
			Timeout:   cfg.PongTimeout,
			MaxMissed: cfg.MaxMissedPongs,
		},
		pacer: channel.Pacer{Interval: cfg.ReconnectInterval},
	}
	if cfg.Subprotocol != "" {
		c.dialer.Subprotocols = []string{cfg.Subprotocol}
	}
	return c
}

func applyDefaults(cfg *Config) {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = DefaultPongTimeout
	}
	if cfg.MaxMissedPongs <= 0 {
		cfg.MaxMissedPongs = DefaultMaxMissedPongs
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
}

// buildHeader assembles the handshake headers presented once per connection.
func buildHeader(cfg Config) http.Header {
	h := http.Header{}
	for k, v := range cfg.Headers {
		h.Set(k, v)
	}
	if cfg.Username != "" || cfg.Password != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		h.Set("Authorization", "Basic "+cred)
	}
	return h
}

// SetHandler implements channel.Channel.
func (c *Client) SetHandler(h channel.Handler) {
	c.handler = h
}

// State returns the session state.
func (c *Client) State() channel.State {
	return c.state
}

// Connected implements channel.Channel.
func (c *Client) Connected() bool {
	return c.state == channel.StateConnected
}

// Poll implements channel.Channel.
func (c *Client) Poll() {
	now := c.now()

drain:
	for {
		select {
		case in := <-c.inbox:
			c.handle(in, now)
		default:
			break drain
		}
	}

	switch c.state {
	case channel.StateDisconnected:
		if c.ctx.Err() == nil && c.pacer.Ready(now) {
			c.dial(now)
		}
	case channel.StateConnected:
		ping, dead := c.hb.Check(now)
		if dead {
			c.teardown(now, "heartbeat timeout")
			return
		}
		if ping {
			c.log.Debugf("ping")
			if err := c.conn.WriteControl(websocket.PingMessage, nil, now.Add(c.cfg.WriteTimeout)); err != nil {
				c.teardown(now, fmt.Sprintf("ping: %v", err))
			}
		}
	}
}

// SendText implements channel.Channel.
func (c *Client) SendText(text string) error {
	if c.state != channel.StateConnected {
		return channel.ErrNotConnected
	}
	c.conn.SetWriteDeadline(c.now().Add(c.cfg.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		// The reader goroutine sees the closed socket and reports the loss
		// on the next Poll.
		c.conn.Close()
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

// Close implements channel.Channel.
func (c *Client) Close() error {
	c.cancel()
	c.gen++
	if c.conn == nil {
		c.state = channel.StateDisconnected
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, msg, c.now().Add(c.cfg.WriteTimeout))
	err := c.conn.Close()
	c.conn = nil
	c.state = channel.StateDisconnected
	return err
}

func (c *Client) dial(now time.Time) {
	attempt := c.pacer.Attempt(now)
	c.state = channel.StateConnecting
	c.gen++
	gen := c.gen
	c.log.Debugf("connecting to %s (attempt %d)", c.cfg.URL, attempt)

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.HandshakeTimeout)
		defer cancel()
		conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, c.header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil && resp != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		c.post(inbound{kind: inDial, gen: gen, conn: conn, err: err})
	}()
}

// post hands a result to Poll unless the client is closed.
func (c *Client) post(in inbound) {
	select {
	case c.inbox <- in:
	case <-c.ctx.Done():
		if in.conn != nil {
			in.conn.Close()
		}
	}
}

func (c *Client) handle(in inbound, now time.Time) {
	if in.gen != c.gen {
		if in.kind == inDial && in.conn != nil {
			in.conn.Close()
		}
		return
	}

	switch in.kind {
	case inDial:
		if in.err != nil {
			c.state = channel.StateDisconnected
			c.log.Warnf("connect %s: %v", c.cfg.URL, in.err)
			return
		}
		c.established(in.conn, now)

	case inMessage:
		switch in.msgType {
		case websocket.TextMessage:
			c.log.Infof("get text: %s", in.data)
			c.dispatch(channel.Event{Type: channel.EventText, Payload: in.data})
		case websocket.BinaryMessage:
			c.log.Infof("get binary length: %d", len(in.data))
			c.dispatch(channel.Event{Type: channel.EventBinary, Payload: in.data})
		}

	case inPong:
		c.log.Debugf("pong")
		c.hb.Pong()

	case inReadError:
		if c.state == channel.StateConnected {
			c.teardown(now, in.err.Error())
		}
	}
}

func (c *Client) established(conn *websocket.Conn, now time.Time) {
	gen := c.gen
	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		c.post(inbound{kind: inPong, gen: gen})
		return nil
	})

	c.conn = conn
	c.state = channel.StateConnected
	c.pacer.Succeeded()
	c.hb.Reset(now)

	go c.readLoop(conn, gen)

	c.log.Infof("connected to url: %s", c.cfg.URL)
	c.dispatch(channel.Event{Type: channel.EventConnected, Payload: []byte(c.cfg.URL)})
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			c.post(inbound{kind: inReadError, gen: gen, err: err})
			return
		}
		c.post(inbound{kind: inMessage, gen: gen, msgType: mt, data: data})
	}
}

// teardown drops the current session and holds off the next attempt for a
// full reconnect interval.
func (c *Client) teardown(now time.Time, reason string) {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.gen++
	c.state = channel.StateDisconnected
	c.pacer.Hold(now)

	c.log.Warnf("disconnected: %s", reason)
	c.dispatch(channel.Event{Type: channel.EventDisconnected, Payload: []byte(reason)})
}

func (c *Client) dispatch(e channel.Event) {
	if c.handler != nil {
		c.handler(e)
	}
}
