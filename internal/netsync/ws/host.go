package ws

import (
	nethttp "net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ironhaul/server/internal/clock"
	"ironhaul/server/internal/netsync/proto"
	"ironhaul/server/internal/sim"
)

// Reject reasons reported to peers.
const (
	CommandRejectQueueLimit = "queue_limit"
	CommandRejectInvalid    = "invalid_command"
)

const (
	defaultQueueLimit   = 128
	defaultWriteTimeout = 10 * time.Second
)

type session struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex
	lastSeq atomic.Uint64
}

func (s *session) write(deadline time.Time, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *session) lastCommandSeq() uint64       { return s.lastSeq.Load() }
func (s *session) storeLastCommandSeq(v uint64) { s.lastSeq.Store(v) }

// HostConfig carries the tunables for a lockstep host.
type HostConfig struct {
	Logger       *zap.Logger
	Clock        clock.Clock
	Scenario     string
	QueueLimit   int
	WriteTimeout time.Duration
}

// Host owns the authoritative command queue for a lockstep session. It
// collects commands from every connected peer, seals one batch per
// tick, and publishes each sealed batch before the local simulation
// executes it.
type Host struct {
	logger       *zap.Logger
	clock        clock.Clock
	upgrader     websocket.Upgrader
	limit        int
	writeTimeout time.Duration

	mu        sync.Mutex
	scenario  string
	confirmed uint32
	nextSeq   uint64
	intake    []sim.Command
	sessions  map[string]*session
}

// NewHost constructs a host with the given configuration.
func NewHost(cfg HostConfig) *Host {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	limit := cfg.QueueLimit
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Host{
		logger:       logger,
		clock:        clk,
		upgrader:     upgrader,
		scenario:     cfg.Scenario,
		limit:        limit,
		writeTimeout: writeTimeout,
		sessions:     make(map[string]*session),
	}
}

// IsNetworked reports that peers depend on this host's confirmations.
func (h *Host) IsNetworked() bool { return true }

// ShouldProcessTick always grants the host's own simulation the next
// tick; the host is the authority peers wait on.
func (h *Host) ShouldProcessTick(uint32) bool { return true }

// ServerTick returns the latest sealed tick.
func (h *Host) ServerTick() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.confirmed
}

// TicksBehind is always zero: the host defines the reference tick.
func (h *Host) TicksBehind(uint32) int { return 0 }

// Update is a no-op. Sessions stage commands as frames arrive.
func (h *Host) Update() {}

// CommandsFor seals the batch for tick: every staged command is
// stamped with the tick and a global sequence number, the confirmation
// is broadcast to all peers, and the batch is returned for local
// execution. Broadcast precedes local execution.
func (h *Host) CommandsFor(tick uint32) []sim.Command {
	h.mu.Lock()
	batch := h.intake
	h.intake = nil
	for i := range batch {
		h.nextSeq++
		batch[i].Tick = tick
		batch[i].Seq = h.nextSeq
	}
	h.confirmed = tick
	receivers := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		receivers = append(receivers, s)
	}
	h.mu.Unlock()

	payload, err := proto.EncodeTickConfirm(proto.TickConfirm{Tick: tick, Commands: batch})
	if err != nil {
		h.logger.Error("encode tick confirm", zap.Uint32("tick", tick), zap.Error(err))
		return batch
	}
	deadline := h.clock.Now().Add(h.writeTimeout)
	for _, s := range receivers {
		if err := s.write(deadline, payload); err != nil {
			h.logger.Info("dropping unreachable session", zap.String("session", s.id), zap.Error(err))
			h.drop(s)
		}
	}
	return batch
}

// StageCommand queues cmd for the next sealed batch and reports
// whether the intake queue had room. The returned command carries the
// earliest tick it can run at.
func (h *Host) StageCommand(cmd sim.Command) (sim.Command, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.intake) >= h.limit {
		return sim.Command{}, false
	}
	cmd.IssuedAt = h.clock.Now()
	cmd.Tick = h.confirmed + 1
	h.intake = append(h.intake, cmd)
	return cmd, true
}

// PendingCommands reports how many commands await the next seal.
func (h *Host) PendingCommands() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.intake)
}

// SessionCount reports how many peers are connected.
func (h *Host) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// SetScenario updates the scenario path announced to joining peers.
func (h *Host) SetScenario(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scenario = path
}

// Reset rewinds the sealed tick and drops staged commands for a fresh
// scenario. Connected sessions stay attached.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.confirmed = 0
	h.intake = nil
}

// Handle upgrades an HTTP request into a peer session and services it
// until the connection drops.
func (h *Host) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := &session{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.sessions[sess.id] = sess
	confirmed := h.confirmed
	announced := h.scenario
	h.mu.Unlock()

	welcome, err := proto.EncodeJoinAck(proto.JoinAck{
		SessionID: sess.id,
		Tick:      confirmed,
		Scenario:  announced,
	})
	if err != nil {
		h.logger.Error("encode join ack", zap.String("session", sess.id), zap.Error(err))
		h.drop(sess)
		return
	}
	if err := sess.write(h.clock.Now().Add(h.writeTimeout), welcome); err != nil {
		h.drop(sess)
		return
	}

	h.logger.Info("session joined", zap.String("session", sess.id), zap.Uint32("tick", confirmed))
	h.readLoop(sess)
}

func (h *Host) readLoop(sess *session) {
	defer h.drop(sess)

	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			h.logger.Info("session left", zap.String("session", sess.id), zap.Error(err))
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Warn("discarding malformed message", zap.String("session", sess.id), zap.Error(err))
			continue
		}

		if msg.Type == proto.TypeHeartbeat {
			if !h.answerHeartbeat(sess, msg) {
				return
			}
			continue
		}

		normalizedSeq := uint64(0)
		if msg.CommandSeq != nil && *msg.CommandSeq > 0 {
			normalizedSeq = *msg.CommandSeq
		}

		// Retransmits of an already accepted command only need the
		// acknowledgement replayed.
		if normalizedSeq > 0 {
			if last := sess.lastCommandSeq(); last > 0 && normalizedSeq <= last {
				ok := h.writeFrame(sess, func() ([]byte, error) {
					return proto.EncodeCommandAck(proto.CommandAck{Seq: normalizedSeq})
				})
				if !ok {
					return
				}
				continue
			}
		}

		cmd, ok := proto.ClientCommand(msg)
		if !ok {
			if !h.rejectCommand(sess, normalizedSeq, CommandRejectInvalid, false) {
				return
			}
			continue
		}
		cmd.SessionID = sess.id

		staged, accepted := h.StageCommand(cmd)
		if !accepted {
			if !h.rejectCommand(sess, normalizedSeq, CommandRejectQueueLimit, true) {
				return
			}
			continue
		}

		if normalizedSeq > 0 {
			ok := h.writeFrame(sess, func() ([]byte, error) {
				return proto.EncodeCommandAck(proto.CommandAck{Seq: normalizedSeq, Tick: staged.Tick})
			})
			if !ok {
				return
			}
			sess.storeLastCommandSeq(normalizedSeq)
		}
	}
}

func (h *Host) answerHeartbeat(sess *session, msg proto.ClientMessage) bool {
	now := h.clock.Now()
	rtt := now.UnixMilli() - msg.SentAt
	if msg.SentAt <= 0 || rtt < 0 {
		rtt = 0
	}
	return h.writeFrame(sess, func() ([]byte, error) {
		return proto.EncodeHeartbeat(proto.Heartbeat{
			ServerTime: now.UnixMilli(),
			ClientTime: msg.SentAt,
			RTTMillis:  rtt,
		})
	})
}

func (h *Host) rejectCommand(sess *session, seq uint64, reason string, retry bool) bool {
	if seq == 0 {
		return true
	}
	return h.writeFrame(sess, func() ([]byte, error) {
		return proto.EncodeCommandReject(proto.CommandReject{Seq: seq, Reason: reason, Retry: retry})
	})
}

// writeFrame reports false only when the session is unreachable.
func (h *Host) writeFrame(sess *session, encode func() ([]byte, error)) bool {
	payload, err := encode()
	if err != nil {
		h.logger.Error("encode frame", zap.String("session", sess.id), zap.Error(err))
		return true
	}
	return sess.write(h.clock.Now().Add(h.writeTimeout), payload) == nil
}

func (h *Host) drop(sess *session) {
	h.mu.Lock()
	current, ok := h.sessions[sess.id]
	if ok && current == sess {
		delete(h.sessions, sess.id)
	}
	h.mu.Unlock()
	sess.conn.Close()
}

var _ sim.Authority = (*Host)(nil)
