package world

import (
	"reflect"
	"testing"

	"go.uber.org/zap"

	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/scene"
	"ironhaul/server/internal/sim"
)

// scriptedAuthority replays a fixed command schedule, standing in for a
// lockstep session authority.
type scriptedAuthority struct {
	commands map[uint32][]sim.Command
}

func (scriptedAuthority) IsNetworked() bool             { return false }
func (scriptedAuthority) ShouldProcessTick(uint32) bool { return true }
func (scriptedAuthority) ServerTick() uint32            { return 0 }
func (scriptedAuthority) TicksBehind(uint32) int        { return 0 }
func (scriptedAuthority) Update()                       {}

func (a scriptedAuthority) CommandsFor(tick uint32) []sim.Command {
	return a.commands[tick]
}

func buildStack(seed uint64, script map[uint32][]sim.Command, record *rng.Record) (*gamestate.State, *World, *sim.Executor) {
	state := gamestate.New()
	state.Reset(1900, seed)
	state.SetWorldLoaded(true)
	scn := scene.NewManager()
	scn.SetMode(scene.ModeGameplay)

	w := New(Config{}, zap.NewNop())
	w.Populate(state)
	boundary := w.Boundary(nil)
	exec := sim.NewExecutor(sim.ExecutorDeps{
		State:     state,
		Scene:     scn,
		Authority: scriptedAuthority{commands: script},
		Applier:   w.Dispatcher(),
		Updaters:  w.Updaters(),
		Boundary:  &boundary,
		Tweener:   sim.NewTweener(w),
		Record:    record,
	})
	return state, w, exec
}

// Two stacks seeded identically and fed the same command schedule must
// hold bit-identical state after a simulated year, generator included.
func TestPeersStayIdenticalAcrossAYear(t *testing.T) {
	script := map[uint32][]sim.Command{
		10:   {{Tick: 10, Seq: 1, SessionID: "a", Type: sim.CommandSetPause, SetPause: &sim.SetPauseCommand{Paused: true}}},
		12:   {{Tick: 12, Seq: 2, SessionID: "a", Type: sim.CommandSetPause, SetPause: &sim.SetPauseCommand{Paused: false}}},
		50:   {{Tick: 50, Seq: 3, SessionID: "b", Type: sim.CommandOrderVehicle, OrderVehicle: &sim.OrderVehicleCommand{VehicleID: 2, Halt: true}}},
		300:  {{Tick: 300, Seq: 4, SessionID: "a", Type: sim.CommandSetSpeed, SetSpeed: &sim.SetSpeedCommand{Speed: 1}}},
		5000: {{Tick: 5000, Seq: 5, SessionID: "b", Type: sim.CommandOrderVehicle, OrderVehicle: &sim.OrderVehicleCommand{VehicleID: 2, Halt: false}}},
	}

	recA := rng.NewRecord(64)
	recB := rng.NewRecord(64)
	stateA, worldA, execA := buildStack(9, script, recA)
	stateB, worldB, execB := buildStack(9, script, recB)

	const ticks = 96 * 366
	for i := 0; i < ticks; i++ {
		if execA.RunOneTick() != sim.TickRan {
			t.Fatalf("peer A: tick %d did not run", i+1)
		}
	}
	for i := 0; i < ticks; i++ {
		if execB.RunOneTick() != sim.TickRan {
			t.Fatalf("peer B: tick %d did not run", i+1)
		}
	}

	snapA, snapB := stateA.Snapshot(), stateB.Snapshot()
	if !reflect.DeepEqual(snapA, snapB) {
		t.Fatalf("expected identical state snapshots, got %+v vs %+v", snapA, snapB)
	}
	if fpA, fpB := fingerprint(t, worldA), fingerprint(t, worldB); fpA != fpB {
		t.Fatalf("expected identical world fingerprints, got %s vs %s", fpA, fpB)
	}
	if !reflect.DeepEqual(recA.Entries(), recB.Entries()) {
		t.Fatalf("expected identical generator records")
	}

	if co, ok := worldA.Companies().Get(1); !ok || co.Age != 1 {
		t.Fatalf("expected a one year old company after the year rollover, got %+v", co)
	}
	if veh, ok := worldA.Vehicles().Get(2); !ok || veh.Halted {
		t.Fatalf("expected vehicle 2 released by the late order, got %+v", veh)
	}
}

// A diverging command schedule must show up in the fingerprint, or the
// desync check would be blind.
func TestDivergentScheduleChangesFingerprint(t *testing.T) {
	halt := map[uint32][]sim.Command{
		50: {{Tick: 50, Seq: 1, Type: sim.CommandOrderVehicle, OrderVehicle: &sim.OrderVehicleCommand{VehicleID: 1, Halt: true}}},
	}

	_, worldA, execA := buildStack(4, halt, nil)
	_, worldB, execB := buildStack(4, nil, nil)

	for i := 0; i < 500; i++ {
		execA.RunOneTick()
		execB.RunOneTick()
	}

	if fpA, fpB := fingerprint(t, worldA), fingerprint(t, worldB); fpA == fpB {
		t.Fatalf("expected the halted fleet to diverge the fingerprint")
	}
}
