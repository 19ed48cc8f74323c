package netsync

import (
	"testing"

	"ironhaul/server/internal/sim"
)

func TestLocalSessionAlwaysPassesGate(t *testing.T) {
	s := NewSynchronizer()

	for tick := uint32(1); tick <= 5; tick++ {
		if !s.ShouldProcessTick(tick) {
			t.Fatalf("expected local gate open for tick %d", tick)
		}
	}
	if s.IsNetworked() {
		t.Fatalf("expected fresh synchronizer to be local")
	}
	if got := s.TicksBehind(0); got != 0 {
		t.Fatalf("expected local session never behind, got %d", got)
	}
}

func TestNetworkedGateFollowsAuthority(t *testing.T) {
	s := NewSynchronizer()
	s.SetNetworked(true)

	if s.ShouldProcessTick(1) {
		t.Fatalf("expected gate closed before any confirmation")
	}

	s.SetAuthoritativeTick(3)
	for tick := uint32(1); tick <= 3; tick++ {
		if !s.ShouldProcessTick(tick) {
			t.Fatalf("expected gate open for confirmed tick %d", tick)
		}
	}
	if s.ShouldProcessTick(4) {
		t.Fatalf("expected gate closed for unconfirmed tick 4")
	}

	// Stale confirmations never move the gate backwards.
	s.SetAuthoritativeTick(2)
	if got := s.ServerTick(); got != 3 {
		t.Fatalf("expected authoritative tick to stay at 3, got %d", got)
	}
}

func TestTicksBehindArithmetic(t *testing.T) {
	s := NewSynchronizer()
	s.SetNetworked(true)
	s.SetAuthoritativeTick(10)

	if got := s.TicksBehind(4); got != 6 {
		t.Fatalf("expected 6 ticks behind, got %d", got)
	}
	if got := s.TicksBehind(10); got != 0 {
		t.Fatalf("expected 0 ticks behind at parity, got %d", got)
	}
	if got := s.TicksBehind(12); got != 0 {
		t.Fatalf("expected 0 ticks behind when ahead, got %d", got)
	}
}

func TestConfirmCommandsPreservesQueueOrder(t *testing.T) {
	s := NewSynchronizer()
	s.ConfirmCommands(7, []sim.Command{{SessionID: "a"}, {SessionID: "b"}})
	s.ConfirmCommands(7, []sim.Command{{SessionID: "c"}})

	got := s.CommandsFor(7)
	if len(got) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].SessionID != want {
			t.Fatalf("expected arrival order a,b,c, got %s at %d", got[i].SessionID, i)
		}
	}
	if again := s.CommandsFor(7); again != nil {
		t.Fatalf("expected batch consumed on first read, got %d commands", len(again))
	}
}

func TestEnqueueLocalStampsSequenceAndTick(t *testing.T) {
	s := NewSynchronizer()
	first := s.EnqueueLocal(41, sim.Command{Type: sim.CommandSetPause})
	second := s.EnqueueLocal(41, sim.Command{Type: sim.CommandSetSpeed})

	if first.Tick != 42 || second.Tick != 42 {
		t.Fatalf("expected both commands scheduled for tick 42, got %d and %d", first.Tick, second.Tick)
	}
	if first.Seq >= second.Seq {
		t.Fatalf("expected increasing sequence numbers, got %d then %d", first.Seq, second.Seq)
	}

	batch := s.CommandsFor(42)
	if len(batch) != 2 {
		t.Fatalf("expected 2 queued commands, got %d", len(batch))
	}
	if batch[0].Type != sim.CommandSetPause || batch[1].Type != sim.CommandSetSpeed {
		t.Fatalf("expected pause then speed, got %v then %v", batch[0].Type, batch[1].Type)
	}
}

func TestResetDropsPendingBatches(t *testing.T) {
	s := NewSynchronizer()
	s.SetNetworked(true)
	s.SetAuthoritativeTick(5)
	s.ConfirmCommands(5, []sim.Command{{SessionID: "a"}})

	s.Reset()

	if got := s.ServerTick(); got != 0 {
		t.Fatalf("expected authoritative tick rewound to 0, got %d", got)
	}
	if got := s.CommandsFor(5); got != nil {
		t.Fatalf("expected pending batches dropped, got %d commands", len(got))
	}
	if !s.IsNetworked() {
		t.Fatalf("expected networked flag preserved across reset")
	}
}
