// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/bureau-foundation/chatdesk/lib/clock"
	"github.com/bureau-foundation/chatdesk/lib/netutil"
)

const (
	defaultMaxReconnectAttempts = 5
	defaultReconnectDelay       = time.Second
	defaultHeartbeatInterval    = 30 * time.Second
	defaultTypingInterval       = 2 * time.Second

	writeTimeout = 10 * time.Second
)

var (
	// ErrNotConnected is returned by Send when no connection is open.
	ErrNotConnected = errors.New("push: not connected")

	// ErrClosed is returned by Connect after Close.
	ErrClosed = errors.New("push: client closed")
)

// Config configures a Client.
type Config struct {
	// URL is the ws:// or wss:// endpoint. The token is added as the
	// "token" query parameter.
	URL   string
	Token string
	// UserAgent is sent with the upgrade request when set.
	UserAgent string

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	// Clock schedules reconnects and heartbeats. Defaults to clock.Real().
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// MaxReconnectAttempts is the number of consecutive failures
	// after which the client gives up. Defaults to 5.
	MaxReconnectAttempts int
	// ReconnectDelay is the base delay; attempt N waits N times it.
	// Defaults to 1s.
	ReconnectDelay time.Duration
	// HeartbeatInterval is the period of keepalive pings. Zero means
	// 30s; negative disables the heartbeat.
	HeartbeatInterval time.Duration
	// TypingInterval is the minimum gap between typing notifications
	// for one conversation. Zero means 2s; negative disables limiting.
	TypingInterval time.Duration
}

// State is the connection state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (state State) String() string {
	switch state {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// Client is a reconnecting push connection. All methods are safe for
// concurrent use. Listeners run on the client's goroutines (the read
// loop, or the clock's timer callback for reconnects) and must not
// block for long.
type Client struct {
	endpoint    *url.URL
	token       string
	userAgent   string
	dialer      *websocket.Dialer
	clock       clock.Clock
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	heartbeat   time.Duration
	typingEvery time.Duration

	// lifetime bounds reconnect dials; cancelled by Close.
	lifetime context.Context
	cancel   context.CancelFunc

	mu             sync.Mutex
	state          State
	conn           *websocket.Conn
	generation     uint64
	failures       int
	gaveUp         bool
	closed         bool
	reconnectTimer *clock.Timer
	heartbeatStop  chan struct{}
	typingLimiters map[string]*rate.Limiter

	// writeMu serializes data frames; gorilla allows one writer.
	writeMu sync.Mutex

	connectListeners      registry[func()]
	disconnectListeners   registry[func(Disconnect)]
	messageListeners      registry[func(Event)]
	errorListeners        registry[func(error)]
	giveUpListeners       registry[func(int)]
	reconnectingListeners registry[func(int, time.Duration)]
}

// New validates config and returns a disconnected Client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("push: URL is required")
	}
	endpoint, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("push: invalid URL %q: %w", config.URL, err)
	}
	if endpoint.Scheme != "ws" && endpoint.Scheme != "wss" {
		return nil, fmt.Errorf("push: URL %q must be ws or wss", config.URL)
	}

	client := &Client{
		endpoint:       endpoint,
		token:          config.Token,
		userAgent:      config.UserAgent,
		dialer:         config.Dialer,
		clock:          config.Clock,
		logger:         config.Logger,
		maxAttempts:    config.MaxReconnectAttempts,
		baseDelay:      config.ReconnectDelay,
		heartbeat:      config.HeartbeatInterval,
		typingEvery:    config.TypingInterval,
		typingLimiters: make(map[string]*rate.Limiter),
	}
	if client.dialer == nil {
		client.dialer = websocket.DefaultDialer
	}
	if client.clock == nil {
		client.clock = clock.Real()
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	if client.maxAttempts <= 0 {
		client.maxAttempts = defaultMaxReconnectAttempts
	}
	if client.baseDelay <= 0 {
		client.baseDelay = defaultReconnectDelay
	}
	if client.heartbeat == 0 {
		client.heartbeat = defaultHeartbeatInterval
	}
	if client.typingEvery == 0 {
		client.typingEvery = defaultTypingInterval
	}
	client.lifetime, client.cancel = context.WithCancel(context.Background())
	return client, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failures returns the number of consecutive failed connections.
func (c *Client) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// Connect dials the server. It returns nil immediately when a
// connection is already open or being dialed. After a give-up,
// Connect starts a fresh round of attempts. A failed dial counts as
// an abnormal closure and schedules a reconnect.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	if c.gaveUp {
		c.gaveUp = false
		c.failures = 0
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	return c.dial(ctx)
}

// dial opens a connection. The caller has moved state to
// StateConnecting.
func (c *Client) dial(ctx context.Context) error {
	var header http.Header
	if c.userAgent != "" {
		header = http.Header{"User-Agent": {c.userAgent}}
	}
	conn, response, err := c.dialer.DialContext(ctx, c.dialURL(), header)
	if response != nil && response.Body != nil {
		response.Body.Close()
	}
	if err != nil {
		if response != nil {
			err = fmt.Errorf("push: dial %s: %w (status %d)", c.endpoint.Redacted(), err, response.StatusCode)
		} else {
			err = fmt.Errorf("push: dial %s: %w", c.endpoint.Redacted(), err)
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return err
		}
		c.state = StateDisconnected
		c.mu.Unlock()

		c.logger.Warn("push connection failed", "error", err)
		c.emitError(err)
		c.handleFailure()
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.state = StateConnected
	c.failures = 0
	c.generation++
	generation := c.generation
	var stop chan struct{}
	if c.heartbeat > 0 {
		stop = make(chan struct{})
		c.heartbeatStop = stop
	}
	c.mu.Unlock()

	c.logger.Info("push connected", "url", c.endpoint.Redacted())
	c.ping()
	for _, listener := range c.connectListeners.snapshot() {
		listener()
	}

	go c.readLoop(conn, generation)
	if stop != nil {
		go c.heartbeatLoop(stop)
	}
	return nil
}

func (c *Client) dialURL() string {
	endpoint := *c.endpoint
	query := endpoint.Query()
	if c.token != "" {
		query.Set("token", c.token)
	}
	endpoint.RawQuery = query.Encode()
	return endpoint.String()
}

// readLoop delivers frames from conn until it fails. generation ties
// the loop to the connection it was started for.
func (c *Client) readLoop(conn *websocket.Conn, generation uint64) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(generation, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		event, err := DecodeFrame(data)
		if err != nil {
			var unknown *UnknownTypeError
			if errors.As(err, &unknown) {
				c.logger.Debug("ignoring push frame", "type", unknown.Type)
			} else {
				c.logger.Warn("dropping malformed push frame", "error", err)
			}
			continue
		}
		for _, listener := range c.messageListeners.snapshot() {
			listener(event)
		}
	}
}

// connectionLost tears down the connection identified by generation
// and applies the reconnect policy.
func (c *Client) connectionLost(generation uint64, err error) {
	c.mu.Lock()
	if generation != c.generation || c.conn == nil {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	closed := c.closed
	if !closed {
		c.state = StateDisconnected
	}
	c.mu.Unlock()
	conn.Close()

	disconnect := Disconnect{
		Code:  netutil.CloseCode(err),
		Err:   err,
		Clean: closed || netutil.IsCleanClose(err),
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		disconnect.Reason = closeErr.Text
	}

	if disconnect.Clean {
		c.logger.Info("push disconnected", "code", disconnect.Code)
	} else {
		c.logger.Warn("push connection lost", "code", disconnect.Code, "error", err)
	}
	for _, listener := range c.disconnectListeners.snapshot() {
		listener(disconnect)
	}
	if disconnect.Clean {
		return
	}
	if !netutil.IsExpectedCloseError(err) {
		c.emitError(fmt.Errorf("push: connection lost: %w", err))
	}
	c.handleFailure()
}

// handleFailure counts one abnormal closure and either schedules the
// next attempt or gives up.
func (c *Client) handleFailure() {
	c.mu.Lock()
	if c.closed || c.gaveUp {
		c.mu.Unlock()
		return
	}
	c.failures++
	failures := c.failures

	if failures >= c.maxAttempts {
		c.gaveUp = true
		c.mu.Unlock()

		c.logger.Error("push reconnect abandoned", "failures", failures)
		for _, listener := range c.giveUpListeners.snapshot() {
			listener(failures)
		}
		return
	}

	// baseDelay is positive, so AfterFunc never runs the callback
	// synchronously under the lock.
	delay := time.Duration(failures) * c.baseDelay
	c.reconnectTimer = c.clock.AfterFunc(delay, c.reconnect)
	c.mu.Unlock()

	c.logger.Info("push reconnect scheduled", "attempt", failures, "delay", delay)
	for _, listener := range c.reconnectingListeners.snapshot() {
		listener(failures, delay)
	}
}

func (c *Client) reconnect() {
	c.mu.Lock()
	c.reconnectTimer = nil
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	_ = c.dial(c.lifetime)
}

func (c *Client) heartbeatLoop(stop <-chan struct{}) {
	ticker := c.clock.NewTicker(c.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.ping()
		case <-stop:
			return
		}
	}
}

// ping sends a liveness probe carrying the current unix milliseconds.
// The server echoes it back in a pong.
func (c *Client) ping() {
	if err := c.Send(TypePing, c.clock.Now().UnixMilli()); err != nil {
		c.logger.Debug("push ping failed", "error", err)
	}
}

// Send writes one {type, data} frame.
func (c *Client) Send(frameType string, data any) error {
	payload, err := EncodeFrame(frameType, data)
	if err != nil {
		return fmt.Errorf("push: encode %s: %w", frameType, err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:realclock socket deadline
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("push: send %s: %w", frameType, err)
	}
	return nil
}

// SendTyping tells the server the user is composing in chatUUID.
// Calls closer together than TypingInterval for the same
// conversation are dropped and report false.
func (c *Client) SendTyping(chatUUID string) (bool, error) {
	if c.typingEvery > 0 {
		c.mu.Lock()
		limiter, ok := c.typingLimiters[chatUUID]
		if !ok {
			limiter = rate.NewLimiter(rate.Every(c.typingEvery), 1)
			c.typingLimiters[chatUUID] = limiter
		}
		allowed := limiter.AllowN(c.clock.Now(), 1)
		c.mu.Unlock()
		if !allowed {
			return false, nil
		}
	}
	if err := c.Send(TypeTyping, map[string]string{"chatUuid": chatUUID}); err != nil {
		return false, err
	}
	return true, nil
}

// Close ends the connection with a normal closure and cancels any
// pending reconnect. Disconnect listeners still fire, with Clean set.
// Close does not wait for the read goroutine to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = StateClosed
	timer := c.reconnectTimer
	c.reconnectTimer = nil
	stop := c.heartbeatStop
	c.heartbeatStop = nil
	conn := c.conn
	c.mu.Unlock()

	c.cancel()
	if timer != nil {
		timer.Stop()
	}
	if stop != nil {
		close(stop)
	}
	if conn == nil {
		return nil
	}

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	deadline := time.Now().Add(writeTimeout) //nolint:realclock socket deadline
	if err := conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
		c.logger.Debug("push close frame not sent", "error", err)
	}
	if err := conn.Close(); err != nil && !netutil.IsExpectedCloseError(err) {
		return fmt.Errorf("push: close: %w", err)
	}
	return nil
}

func (c *Client) emitError(err error) {
	for _, listener := range c.errorListeners.snapshot() {
		listener(err)
	}
}
