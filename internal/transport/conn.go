package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/config"
)

// ErrNotConnected is returned when a frame cannot be written because no
// handshake has completed yet.
var ErrNotConnected = errors.New("transport: not connected")

// subscribeFrame is the client -> server control frame. The push channel
// is otherwise read-only: domain state is never mutated over it.
type subscribeFrame struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Topic  string `json:"topic"`
}

// pushFrame is the server -> client envelope.
type pushFrame struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Conn owns one persistent connection to a service domain (quiz, survey,
// contest). It is a process-wide singleton shared by every room view and
// the invitation listener; nobody may assume exclusive use.
//
// Reconnection is automatic: fixed delay, unbounded attempts, with a ping
// keep-alive per live socket. Connection state is observable via
// IsConnected or the OnConnect hook; callers must not assume synchronous
// availability after Activate.
type Conn struct {
	domain   string
	endpoint string
	token    func() string
	metrics  *Metrics
	log      *logrus.Entry

	mu        sync.Mutex
	active    bool
	connected bool
	ws        *websocket.Conn
	onConnect []func()
	onFrame   func(topic string, payload json.RawMessage)
	cancel    context.CancelFunc

	writeMu sync.Mutex
}

// NewConn creates a dormant connection. token is read at dial time so a
// credential appearing later is picked up without re-creating the Conn.
func NewConn(domain, endpoint string, token func() string, metrics *Metrics) *Conn {
	return &Conn{
		domain:   domain,
		endpoint: endpoint,
		token:    token,
		metrics:  metrics,
		log:      logrus.WithField("domain", domain),
	}
}

// Activate starts the connect loop. Idempotent. Without a credential it
// logs and stays dormant: until one exists there is nothing useful to do.
func (c *Conn) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return
	}
	if c.token() == "" {
		c.log.Info("no credential present, connection stays dormant")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.active = true
	go c.run(ctx)
}

// IsConnected reports whether a handshake has completed and the socket is
// still believed healthy.
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// OnConnect registers a hook fired once per successful handshake. Used by
// the registry to replay subscribe frames after a reconnect.
func (c *Conn) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

// Deactivate stops the connect loop and closes the socket. Safe to never
// call: the app-level policy is "stay connected once needed".
func (c *Conn) Deactivate() {
	c.mu.Lock()
	cancel := c.cancel
	ws := c.ws
	c.active = false
	c.connected = false
	c.cancel = nil
	c.ws = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}
}

func (c *Conn) domainLabel() string { return c.domain }

// handleFrames installs the inbound frame consumer. One consumer only;
// the registry fans out to per-topic callbacks.
func (c *Conn) handleFrames(fn func(topic string, payload json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = fn
}

// send writes a control frame. Fails fast when disconnected so the
// caller's retry loop owns the waiting.
func (c *Conn) send(frame subscribeFrame) error {
	c.mu.Lock()
	ws := c.ws
	connected := c.connected
	c.mu.Unlock()

	if !connected || ws == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}

func (c *Conn) run(ctx context.Context) {
	for {
		ws, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.WithError(err).Info("dial failed, retrying")
			if !sleep(ctx, config.ReconnectDelay) {
				return
			}
			continue
		}

		c.mu.Lock()
		c.ws = ws
		c.connected = true
		hooks := append([]func(){}, c.onConnect...)
		c.mu.Unlock()

		c.metrics.ConnectsTotal.WithLabelValues(c.domain).Inc()
		c.log.Info("connected")
		for _, fn := range hooks {
			fn()
		}

		pingCtx, stopPing := context.WithCancel(ctx)
		go c.keepAlive(pingCtx, ws)
		c.readLoop(ctx, ws)
		stopPing()

		c.mu.Lock()
		c.connected = false
		c.ws = nil
		c.mu.Unlock()
		_ = ws.Close(websocket.StatusNormalClosure, "")
		c.metrics.DisconnectsTotal.WithLabelValues(c.domain).Inc()

		if ctx.Err() != nil {
			return
		}
		c.log.Info("disconnected, reconnecting")
		if !sleep(ctx, config.ReconnectDelay) {
			return
		}
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()

	header := http.Header{}
	if tok := c.token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	ws, _, err := websocket.Dial(dialCtx, c.endpoint, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *Conn) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
				c.log.WithError(err).Debug("read error")
			}
			return
		}

		c.metrics.FramesReceived.WithLabelValues(c.domain).Inc()

		var frame pushFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.WithError(err).Warn("malformed frame dropped")
			c.metrics.FramesDropped.WithLabelValues(c.domain).Inc()
			continue
		}

		c.mu.Lock()
		onFrame := c.onFrame
		c.mu.Unlock()
		if onFrame != nil {
			onFrame(frame.Topic, frame.Payload)
		}
	}
}

func (c *Conn) keepAlive(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, config.WriteTimeout)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// sleep waits for d unless ctx is canceled first. Reports whether the
// full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
