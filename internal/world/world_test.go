package world

import (
	"testing"

	"go.uber.org/zap"

	"ironhaul/server/internal/date"
	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/scene"
	"ironhaul/server/internal/sim"
)

func newGameplayRig(t *testing.T, seed uint64) (*gamestate.State, *scene.Manager, *World, *sim.Executor) {
	t.Helper()
	state := gamestate.New()
	state.Reset(1900, seed)
	state.SetWorldLoaded(true)
	scn := scene.NewManager()
	scn.SetMode(scene.ModeGameplay)

	w := New(Config{}, zap.NewNop())
	w.Populate(state)
	boundary := w.Boundary(nil)
	exec := sim.NewExecutor(sim.ExecutorDeps{
		State:    state,
		Scene:    scn,
		Applier:  w.Dispatcher(),
		Updaters: w.Updaters(),
		Boundary: &boundary,
		Tweener:  sim.NewTweener(w),
	})
	return state, scn, w, exec
}

func runTicks(t *testing.T, exec *sim.Executor, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if got := exec.RunOneTick(); got != sim.TickRan {
			t.Fatalf("tick %d: expected TickRan, got %d", i+1, got)
		}
	}
}

func fingerprint(t *testing.T, w *World) string {
	t.Helper()
	fp, err := w.Fingerprint()
	if err != nil {
		t.Fatalf("expected fingerprint to marshal, got %v", err)
	}
	return fp
}

func TestPopulateMatchesForEqualSeeds(t *testing.T) {
	_, _, w1, _ := newGameplayRig(t, 11)
	_, _, w2, _ := newGameplayRig(t, 11)
	_, _, w3, _ := newGameplayRig(t, 12)

	fp1 := fingerprint(t, w1)
	if fp2 := fingerprint(t, w2); fp2 != fp1 {
		t.Fatalf("expected identical worlds for equal seeds, got %s vs %s", fp1, fp2)
	}
	if fp3 := fingerprint(t, w3); fp3 == fp1 {
		t.Fatalf("expected different worlds for different seeds")
	}
}

func TestUpdaterSequenceIsFixed(t *testing.T) {
	_, _, w, _ := newGameplayRig(t, 1)
	want := []string{
		"tiles", "waves", "towns", "industries", "vehicles", "stations",
		"effects", "companies", "animations", "ambience", "title",
	}
	updaters := w.Updaters()
	if len(updaters) != len(want) {
		t.Fatalf("expected %d updaters, got %d", len(want), len(updaters))
	}
	for i, u := range updaters {
		if u.Name() != want[i] {
			t.Fatalf("expected updater %d to be %q, got %q", i, want[i], u.Name())
		}
	}
}

func TestFirstTickSpawnsDepartureCalls(t *testing.T) {
	_, _, w, exec := newGameplayRig(t, 3)
	runTicks(t, exec, 1)

	fx := w.Effects().Active()
	if len(fx) != 6 {
		t.Fatalf("expected one departure cue per vehicle, got %d", len(fx))
	}
	for _, cue := range fx {
		if cue.Kind != "steam" {
			t.Fatalf("expected steam cues, got %q", cue.Kind)
		}
	}
}

func TestDayBoundaryClosesDays(t *testing.T) {
	state, _, w, exec := newGameplayRig(t, 1)
	runTicks(t, exec, 96*2)

	want := date.Date{Year: 1900, Month: date.January, Day: 2}
	if got := w.dates.LastClosed(); got != want {
		t.Fatalf("expected last closed day %s, got %s", want, got)
	}
	if got := state.Today(); got != (date.Date{Year: 1900, Month: date.January, Day: 3}) {
		t.Fatalf("expected today 1900-01-03, got %s", got)
	}
}

func TestMonthBoundaryAppliesFinancePasses(t *testing.T) {
	state, _, w, exec := newGameplayRig(t, 1)
	runTicks(t, exec, 96*31)

	if state.ObjectiveMonths() != 1 {
		t.Fatalf("expected one objective month, got %d", state.ObjectiveMonths())
	}
	if w.economy.PriceLevel <= basePriceLevel {
		t.Fatalf("expected inflation above %d, got %d", basePriceLevel, w.economy.PriceLevel)
	}
}

func TestDispatcherAppliesSessionCommands(t *testing.T) {
	_, scn, w, exec := newGameplayRig(t, 1)
	d := w.Dispatcher()
	ctx := exec.Context()

	t.Run("pause", func(t *testing.T) {
		cmd := sim.Command{Type: sim.CommandSetPause, SetPause: &sim.SetPauseCommand{Paused: true}}
		if got := d.Apply(cmd, ctx); got != sim.Continue {
			t.Fatalf("expected Continue, got %d", got)
		}
		if !scn.Paused() {
			t.Fatalf("expected the scene to pause")
		}
	})

	t.Run("pause without payload", func(t *testing.T) {
		if got := d.Apply(sim.Command{Type: sim.CommandSetPause}, ctx); got != sim.Continue {
			t.Fatalf("expected malformed command to be skipped, got %d", got)
		}
	})

	t.Run("speed", func(t *testing.T) {
		cmd := sim.Command{Type: sim.CommandSetSpeed, SetSpeed: &sim.SetSpeedCommand{Speed: 2}}
		d.Apply(cmd, ctx)
		if scn.Speed() != scene.SpeedExtraFast {
			t.Fatalf("expected extra fast speed, got %d", scn.Speed())
		}
	})

	t.Run("speed out of range", func(t *testing.T) {
		cmd := sim.Command{Type: sim.CommandSetSpeed, SetSpeed: &sim.SetSpeedCommand{Speed: 9}}
		d.Apply(cmd, ctx)
		if scn.Speed() != scene.SpeedExtraFast {
			t.Fatalf("expected out-of-range speed to be ignored, got %d", scn.Speed())
		}
	})

	t.Run("order vehicle", func(t *testing.T) {
		cmd := sim.Command{Type: sim.CommandOrderVehicle, OrderVehicle: &sim.OrderVehicleCommand{VehicleID: 1, Halt: true}}
		d.Apply(cmd, ctx)
		veh, ok := w.Vehicles().Get(1)
		if !ok || !veh.Halted {
			t.Fatalf("expected vehicle 1 halted, got %+v", veh)
		}
	})

	t.Run("order unknown vehicle", func(t *testing.T) {
		cmd := sim.Command{Type: sim.CommandOrderVehicle, OrderVehicle: &sim.OrderVehicleCommand{VehicleID: 999, Halt: true}}
		if got := d.Apply(cmd, ctx); got != sim.Continue {
			t.Fatalf("expected unknown vehicle order to be skipped, got %d", got)
		}
	})

	t.Run("load scenario", func(t *testing.T) {
		cmd := sim.Command{Type: sim.CommandLoadScenario, LoadScenario: &sim.LoadScenarioCommand{Path: "maps/alpine.yaml"}}
		if got := d.Apply(cmd, ctx); got != sim.Aborted {
			t.Fatalf("expected scenario load to abort the tick, got %d", got)
		}
		path, ok := w.TakePendingScenario()
		if !ok || path != "maps/alpine.yaml" {
			t.Fatalf("expected staged scenario, got %q ok=%v", path, ok)
		}
		if _, ok := w.TakePendingScenario(); ok {
			t.Fatalf("expected the stage to clear after take")
		}
	})

	t.Run("load scenario without path", func(t *testing.T) {
		cmd := sim.Command{Type: sim.CommandLoadScenario, LoadScenario: &sim.LoadScenarioCommand{}}
		if got := d.Apply(cmd, ctx); got != sim.Continue {
			t.Fatalf("expected empty scenario path to be skipped, got %d", got)
		}
		if _, ok := w.TakePendingScenario(); ok {
			t.Fatalf("expected nothing staged")
		}
	})
}

func TestScenarioCommandAbortsTickInFlight(t *testing.T) {
	state := gamestate.New()
	state.Reset(1900, 1)
	state.SetWorldLoaded(true)
	scn := scene.NewManager()
	scn.SetMode(scene.ModeGameplay)

	w := New(Config{}, zap.NewNop())
	w.Populate(state)
	boundary := w.Boundary(nil)
	exec := sim.NewExecutor(sim.ExecutorDeps{
		State: state,
		Scene: scn,
		Authority: scriptedAuthority{commands: map[uint32][]sim.Command{
			3: {{Tick: 3, Seq: 1, Type: sim.CommandLoadScenario, LoadScenario: &sim.LoadScenarioCommand{Path: "maps/coast.yaml"}}},
		}},
		Applier:  w.Dispatcher(),
		Updaters: w.Updaters(),
		Boundary: &boundary,
		Tweener:  sim.NewTweener(w),
	})

	runTicks(t, exec, 2)
	if got := exec.RunOneTick(); got != sim.TickAborted {
		t.Fatalf("expected the scenario tick to abort, got %d", got)
	}
	if state.Ticks() != 3 {
		t.Fatalf("expected the aborted tick to keep its counter, got %d", state.Ticks())
	}
	if path, ok := w.TakePendingScenario(); !ok || path != "maps/coast.yaml" {
		t.Fatalf("expected staged scenario after abort, got %q ok=%v", path, ok)
	}
	runTicks(t, exec, 1)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	_, _, w, exec := newGameplayRig(t, 5)
	runTicks(t, exec, 300)

	before := fingerprint(t, w)
	snap := w.Snapshot()

	runTicks(t, exec, 300)
	if after := fingerprint(t, w); after == before {
		t.Fatalf("expected the world to change over 300 ticks")
	}

	w.Restore(snap)
	if restored := fingerprint(t, w); restored != before {
		t.Fatalf("expected restore to reproduce the snapshot fingerprint")
	}
}
