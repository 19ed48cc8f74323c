// Package netsync keeps a simulation in lockstep with its session
// authority: the tick gate, the per-tick confirmed command batches,
// and the catch-up arithmetic.
package netsync

import (
	"sync"

	"ironhaul/server/internal/sim"
)

// Synchronizer tracks the authoritative tick number and the command
// batches confirmed for each tick. A local session always passes the
// gate; a networked session may only process ticks the authority has
// confirmed. Methods are safe for concurrent use because transports
// feed confirmations from reader goroutines while the simulation
// goroutine consumes them.
type Synchronizer struct {
	mu            sync.Mutex
	networked     bool
	authoritative uint32
	pending       map[uint32][]sim.Command
	nextSeq       uint64
}

// NewSynchronizer returns a synchronizer for a local session.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{pending: make(map[uint32][]sim.Command)}
}

// SetNetworked flips the session between local and networked gating.
func (s *Synchronizer) SetNetworked(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networked = on
}

// IsNetworked reports whether the gate is bound to a remote authority.
func (s *Synchronizer) IsNetworked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.networked
}

// SetAuthoritativeTick raises the confirmed tick. Lower values are
// ignored, keeping the gate monotonic when frames arrive reordered.
func (s *Synchronizer) SetAuthoritativeTick(tick uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tick > s.authoritative {
		s.authoritative = tick
	}
}

// ServerTick returns the last tick confirmed by the authority.
func (s *Synchronizer) ServerTick() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authoritative
}

// ShouldProcessTick reports whether the candidate tick may run. A
// networked session never simulates past the authoritative tick.
func (s *Synchronizer) ShouldProcessTick(candidate uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.networked {
		return true
	}
	return s.authoritative >= candidate
}

// TicksBehind reports how far the local tick trails the authority.
func (s *Synchronizer) TicksBehind(local uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.networked || s.authoritative <= local {
		return 0
	}
	return int(s.authoritative - local)
}

// ConfirmCommands appends the batch confirmed for tick, preserving
// the authority's queue order.
func (s *Synchronizer) ConfirmCommands(tick uint32, cmds []sim.Command) {
	if len(cmds) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[tick] = append(s.pending[tick], cmds...)
}

// CommandsFor hands out and forgets the batch for tick.
func (s *Synchronizer) CommandsFor(tick uint32) []sim.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmds, ok := s.pending[tick]
	if !ok {
		return nil
	}
	delete(s.pending, tick)
	return cmds
}

// Update is the per-pass transport drain point. The bookkeeping core
// has nothing to drain.
func (s *Synchronizer) Update() {}

// EnqueueLocal stamps cmd for the tick after current and queues it.
// Local sessions use it so their commands flow through the same
// per-tick application path as networked ones.
func (s *Synchronizer) EnqueueLocal(current uint32, cmd sim.Command) sim.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	cmd.Seq = s.nextSeq
	cmd.Tick = current + 1
	s.pending[cmd.Tick] = append(s.pending[cmd.Tick], cmd)
	return cmd
}

// Reset drops every pending batch and rewinds the authoritative tick
// for a fresh scenario. The networked flag survives.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authoritative = 0
	s.pending = make(map[uint32][]sim.Command)
}

var _ sim.Authority = (*Synchronizer)(nil)
