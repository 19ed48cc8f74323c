package ws

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ironhaul/server/internal/clock"
	"ironhaul/server/internal/netsync"
	"ironhaul/server/internal/netsync/proto"
	"ironhaul/server/internal/sim"
)

const (
	defaultFrameBuffer = 256
	handshakeTimeout   = 10 * time.Second

	// Frames tolerated before the join acknowledgement arrives.
	maxHandshakeFrames = 32
)

// DialConfig carries the options for connecting to a host.
type DialConfig struct {
	URL          string
	Logger       *zap.Logger
	Clock        clock.Clock
	Dialer       *websocket.Dialer
	FrameBuffer  int
	WriteTimeout time.Duration
}

// Client mirrors a remote host's confirmation stream into a local
// synchronizer so the simulation only executes sealed ticks. The
// embedded synchronizer supplies the gate; Update drains the frames
// the reader goroutine buffered since the last simulation pass.
type Client struct {
	*netsync.Synchronizer

	conn         *websocket.Conn
	logger       *zap.Logger
	clock        clock.Clock
	writeTimeout time.Duration

	frames    chan proto.ServerMessage
	done      chan struct{}
	closeOnce sync.Once

	writeMu sync.Mutex
	seq     atomic.Uint64

	mu        sync.Mutex
	sessionID string
	scenario  string
	rttMillis int64
	lastErr   error
}

// Dial connects to a lockstep host, performs the join handshake, and
// starts the reader feeding confirmations to the synchronizer.
func Dial(cfg DialConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	buffer := cfg.FrameBuffer
	if buffer <= 0 {
		buffer = defaultFrameBuffer
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	conn, resp, err := dialer.Dial(cfg.URL, nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	// The welcome frame may trail confirmations the host broadcast
	// while the session was registering.
	if err := conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("arm handshake deadline: %w", err)
	}
	var welcome proto.ServerMessage
	var early []proto.ServerMessage
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("read join ack: %w", err)
		}
		msg, err := proto.DecodeServerMessage(payload)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("decode join ack: %w", err)
		}
		if msg.Type == proto.TypeJoinAck {
			welcome = msg
			break
		}
		early = append(early, msg)
		if len(early) > maxHandshakeFrames {
			conn.Close()
			return nil, fmt.Errorf("no join ack within %d frames", maxHandshakeFrames)
		}
	}
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("disarm handshake deadline: %w", err)
	}

	lockstep := netsync.NewSynchronizer()
	lockstep.SetNetworked(true)
	lockstep.SetAuthoritativeTick(welcome.Tick)

	c := &Client{
		Synchronizer: lockstep,
		conn:         conn,
		logger:       logger,
		clock:        clk,
		writeTimeout: writeTimeout,
		frames:       make(chan proto.ServerMessage, buffer),
		done:         make(chan struct{}),
		sessionID:    welcome.SessionID,
		scenario:     welcome.Scenario,
		rttMillis:    -1,
	}
	for _, msg := range early {
		c.apply(msg)
	}

	go c.readLoop()

	logger.Info("joined session",
		zap.String("session", c.sessionID),
		zap.Uint32("tick", welcome.Tick))
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.frames)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			c.logger.Info("connection closed", zap.Error(err))
			return
		}
		msg, err := proto.DecodeServerMessage(payload)
		if err != nil {
			c.logger.Warn("discarding malformed frame", zap.Error(err))
			continue
		}
		select {
		case c.frames <- msg:
		case <-c.done:
			return
		}
	}
}

// Update applies every confirmation the reader buffered since the
// last simulation pass. It never blocks.
func (c *Client) Update() {
	for {
		select {
		case msg, ok := <-c.frames:
			if !ok {
				return
			}
			c.apply(msg)
		default:
			return
		}
	}
}

func (c *Client) apply(msg proto.ServerMessage) {
	switch msg.Type {
	case proto.TypeTickConfirm:
		c.ConfirmCommands(msg.Tick, msg.Commands)
		c.SetAuthoritativeTick(msg.Tick)
	case proto.TypeCommandAck:
		c.logger.Debug("command accepted",
			zap.Uint64("seq", msg.Seq),
			zap.Uint32("tick", msg.AckTick))
	case proto.TypeCommandReject:
		c.logger.Warn("command rejected",
			zap.Uint64("seq", msg.Seq),
			zap.String("reason", msg.Reason),
			zap.Bool("retry", msg.Retry))
	case proto.TypeHeartbeat:
		if msg.ClientTime <= 0 {
			return
		}
		rtt := c.clock.Now().UnixMilli() - msg.ClientTime
		if rtt < 0 {
			rtt = 0
		}
		c.mu.Lock()
		c.rttMillis = rtt
		c.mu.Unlock()
	default:
		c.logger.Debug("ignoring frame", zap.String("type", msg.Type))
	}
}

// Send submits a command to the host. The command only executes once
// it returns inside a sealed batch.
func (c *Client) Send(cmd sim.Command) (uint64, error) {
	seq := c.seq.Add(1)
	payload, err := proto.EncodeClientCommand(seq, cmd)
	if err != nil {
		return 0, err
	}
	if err := c.write(payload); err != nil {
		return 0, err
	}
	return seq, nil
}

// Heartbeat sends a keepalive stamped with the local clock.
func (c *Client) Heartbeat() error {
	payload, err := proto.EncodeClientHeartbeat(c.clock.Now().UnixMilli())
	if err != nil {
		return err
	}
	return c.write(payload)
}

func (c *Client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(c.clock.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close tears down the connection and stops the reader.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.conn.Close()
}

// SessionID returns the identifier the host assigned on join.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Scenario returns the scenario path announced by the host.
func (c *Client) Scenario() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scenario
}

// RTT returns the last measured round trip in milliseconds, or -1
// before the first heartbeat echo.
func (c *Client) RTT() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rttMillis
}

// Err returns the error that ended the reader, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

var _ sim.Authority = (*Client)(nil)
