// Package stream owns the transport side of a roadworks streaming
// session: dialing the stream endpoint, feeding inbound frames into
// the session transition one at a time, and translating playback
// intents into outbound control frames.
package stream

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/roadstream/roadstream/internal/session"
	"github.com/roadstream/roadstream/pkg/protocol"
)

const (
	streamPath   = "/stream/roadworks"
	writeTimeout = 3 * time.Second
	readLimit    = 1 << 20 // segment geometries can run long
)

type msg interface{ isClientMsg() }

type connectMsg struct {
	baseURL   string
	batchSize int
	tickMS    int
}

type disconnectMsg struct{ done chan struct{} }

type inboundFrame struct {
	conn *websocket.Conn
	data []byte
}

type connOpened struct {
	conn     *websocket.Conn
	err      error
	endpoint string
}

type connClosed struct {
	conn *websocket.Conn
	err  error
}

type controlMsg struct{ ctl protocol.Control }

type snapshotMsg struct{ reply chan session.Snapshot }

type shutdownMsg struct{ done chan struct{} }

func (connectMsg) isClientMsg()    {}
func (connOpened) isClientMsg()    {}
func (disconnectMsg) isClientMsg() {}
func (inboundFrame) isClientMsg()  {}
func (connClosed) isClientMsg()    {}
func (controlMsg) isClientMsg()    {}
func (snapshotMsg) isClientMsg()   {}
func (shutdownMsg) isClientMsg()   {}

// Client is the single consumer of inbound frames for one session.
// One loop goroutine owns the Session value, so every frame is folded
// in before the next one is looked at and no lock guards the state.
type Client struct {
	inbox  chan msg
	sess   session.Session
	conn   *websocket.Conn
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(parent context.Context, log *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(parent)
	c := &Client{
		inbox:  make(chan msg, 64),
		sess:   session.New(),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go c.loop()
	return c
}

// Connect dials baseURL's stream endpoint with the given pacing
// parameters. A no-op if a connection is already open. Dial failures
// surface in the snapshot as an errored state, not as a return value,
// so callers poll state the same way for every failure class.
func (c *Client) Connect(baseURL string, batchSize, tickMS int) {
	c.send(connectMsg{baseURL: baseURL, batchSize: batchSize, tickMS: tickMS})
}

// Disconnect closes the transport. Safe to call when already
// disconnected. It returns once the loop has processed the teardown.
func (c *Client) Disconnect() {
	done := make(chan struct{})
	c.send(disconnectMsg{done: done})
	select {
	case <-done:
	case <-c.ctx.Done():
	}
}

// Pause marks the session paused immediately and asks the producer to
// stop emitting. The local flag does not wait on delivery.
func (c *Client) Pause() { c.send(controlMsg{ctl: protocol.Pause()}) }

// Resume clears the paused flag and asks the producer to continue.
func (c *Client) Resume() { c.send(controlMsg{ctl: protocol.Resume()}) }

// Restart clears the event log, segment table, progress and complete
// flag unconditionally, then attempts to send the restart control.
// The reset happens even when the send is dropped because the
// connection is not open.
func (c *Client) Restart() { c.send(controlMsg{ctl: protocol.Restart()}) }

// SetSpeed proposes new pacing for speed level in [1,10]. Levels are
// caller-validated; out-of-range values go through the formula as-is.
func (c *Client) SetSpeed(level int) { c.send(controlMsg{ctl: protocol.SetSpeed(level)}) }

// Snapshot returns a detached copy of the current session state.
func (c *Client) Snapshot() session.Snapshot {
	reply := make(chan session.Snapshot, 1)
	c.send(snapshotMsg{reply: reply})
	select {
	case snap := <-reply:
		return snap
	case <-c.ctx.Done():
		return session.Snapshot{}
	}
}

// Shutdown tears down the transport and stops the loop goroutine.
func (c *Client) Shutdown() {
	done := make(chan struct{})
	c.send(shutdownMsg{done: done})
	select {
	case <-done:
	case <-c.ctx.Done():
	}
}

func (c *Client) send(m msg) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

func (c *Client) loop() {
	for {
		select {
		case <-c.ctx.Done():
			c.closeConn()
			return

		case m := <-c.inbox:
			switch m := m.(type) {
			case connectMsg:
				c.handleConnect(m)

			case disconnectMsg:
				if c.conn != nil {
					c.closeConn()
					c.sess = session.Closed(c.sess)
					c.log.Info("stream disconnected")
				}
				close(m.done)

			case connOpened:
				c.handleOpened(m)

			case inboundFrame:
				if m.conn != c.conn {
					break // frame from a connection we already dropped
				}
				f, err := protocol.Parse(m.data)
				if err != nil {
					c.log.Warn("dropping unparseable frame", zap.Error(err))
					break
				}
				c.sess = session.Apply(c.sess, f)

			case connClosed:
				if m.conn != c.conn {
					break
				}
				c.conn = nil
				switch websocket.CloseStatus(m.err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					c.sess = session.Closed(c.sess)
					c.log.Info("stream closed by peer")
				default:
					c.sess = session.Failed(c.sess, m.err.Error())
					c.log.Warn("stream transport error", zap.Error(m.err))
				}

			case controlMsg:
				c.handleControl(m.ctl)

			case snapshotMsg:
				m.reply <- session.Snap(c.sess)

			case shutdownMsg:
				c.closeConn()
				c.cancel()
				close(m.done)
				return
			}
		}
	}
}

func (c *Client) handleConnect(m connectMsg) {
	if c.sess.Connected() {
		c.log.Debug("connect ignored, already open")
		return
	}
	if c.sess.State == session.StateConnecting {
		c.log.Debug("connect ignored, dial in flight")
		return
	}

	endpoint, err := StreamURL(m.baseURL, m.batchSize, m.tickMS)
	if err != nil {
		c.sess = session.Failed(c.sess, err.Error())
		c.log.Warn("bad stream url", zap.String("base_url", m.baseURL), zap.Error(err))
		return
	}

	c.sess = session.Connecting(c.sess)

	// Dial off-loop so snapshots and control intents stay serviceable
	// while the handshake is in flight.
	go func() {
		conn, _, err := websocket.Dial(c.ctx, endpoint, nil)
		select {
		case c.inbox <- connOpened{conn: conn, err: err, endpoint: endpoint}:
		case <-c.ctx.Done():
			if conn != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "bye")
			}
		}
	}()
}

func (c *Client) handleOpened(m connOpened) {
	if m.err != nil {
		c.sess = session.Failed(c.sess, m.err.Error())
		c.log.Warn("stream dial failed", zap.String("url", m.endpoint), zap.Error(m.err))
		return
	}

	m.conn.SetReadLimit(readLimit)
	c.conn = m.conn
	c.sess = session.Opened(c.sess)
	c.log.Info("stream open", zap.String("url", m.endpoint))

	go c.read(m.conn)
}

// read pumps frames from one connection into the inbox, preserving
// arrival order. It exits on the first read error.
func (c *Client) read(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			select {
			case c.inbox <- connClosed{conn: conn, err: err}:
			case <-c.ctx.Done():
			}
			return
		}
		select {
		case c.inbox <- inboundFrame{conn: conn, data: data}:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) handleControl(ctl protocol.Control) {
	// Local effects first: pause/resume flip the flag and restart
	// clears the streamed state whether or not the frame goes out.
	switch ctl.Action {
	case protocol.ActionPause:
		c.sess.Paused = true
	case protocol.ActionResume:
		c.sess.Paused = false
	case protocol.ActionRestart:
		c.sess = session.Reset(c.sess)
	}

	if !c.sess.Connected() || c.conn == nil {
		c.log.Debug("dropping control, not connected", zap.String("action", ctl.Action))
		return
	}

	payload, err := protocol.EncodeControl(ctl)
	if err != nil {
		c.log.Warn("encode control failed", zap.String("action", ctl.Action), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	if err := c.conn.Write(ctx, websocket.MessageText, payload); err != nil {
		// Best effort: the read side will surface any real transport
		// failure.
		c.log.Warn("control send failed", zap.String("action", ctl.Action), zap.Error(err))
	}
}

func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	c.conn = nil
}

// StreamURL builds the stream endpoint URL, encoding the pacing
// proposal as query parameters.
func StreamURL(baseURL string, batchSize, tickMS int) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return "", err
	}
	u.Path += streamPath

	q := u.Query()
	q.Set("batch_size", strconv.Itoa(batchSize))
	q.Set("tick_ms", strconv.Itoa(tickMS))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
