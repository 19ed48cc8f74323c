package sim

import (
	"testing"
	"time"

	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/rng"
)

type seqUpdater struct {
	name   string
	log    *[]string
	status Status
}

func (u *seqUpdater) Name() string { return u.name }

func (u *seqUpdater) Update(*Context) Status {
	*u.log = append(*u.log, u.name)
	return u.status
}

type gateAuthority struct {
	SoloAuthority
	allowThrough uint32
	commands     map[uint32][]Command
}

func (a *gateAuthority) ShouldProcessTick(tick uint32) bool { return tick <= a.allowThrough }

func (a *gateAuthority) CommandsFor(tick uint32) []Command { return a.commands[tick] }

type captureReporter struct {
	reports []gamestate.LoadError
}

func (r *captureReporter) ReportLoadError(err gamestate.LoadError) {
	r.reports = append(r.reports, err)
}

type captureMetrics struct {
	ticks         []int
	accumulators  []float64
	refusals      int
	interruptions int
	bursts        []int
}

func (m *captureMetrics) ObserveTicks(n int)                 { m.ticks = append(m.ticks, n) }
func (m *captureMetrics) ObservePassDuration(time.Duration)  {}
func (m *captureMetrics) ObserveAccumulator(seconds float64) { m.accumulators = append(m.accumulators, seconds) }
func (m *captureMetrics) RecordGateRefusal()                 { m.refusals++ }
func (m *captureMetrics) RecordInterruption()                { m.interruptions++ }
func (m *captureMetrics) RecordCatchupBurst(ticks int)       { m.bursts = append(m.bursts, ticks) }

func TestRunOneTickRunsStagesInOrder(t *testing.T) {
	var log []string
	state := gamestate.New()
	record := rng.NewRecord(8)
	apply := CommandApplierFunc(func(cmd Command, _ *Context) Status {
		log = append(log, "apply:"+cmd.SessionID)
		return Continue
	})
	authority := &gateAuthority{
		allowThrough: 10,
		commands: map[uint32][]Command{
			1: {{SessionID: "alpha", Type: CommandSetPause}},
		},
	}
	exec := NewExecutor(ExecutorDeps{
		State:     state,
		Authority: authority,
		Applier:   apply,
		Updaters: []Updater{
			&drawUpdater{log: &log},
			&seqUpdater{name: "second", log: &log},
		},
		Record: record,
	})

	before := state.Rng().State()
	if got := exec.RunOneTick(); got != TickRan {
		t.Fatalf("expected TickRan, got %v", got)
	}

	want := []string{"apply:alpha", "draw", "second"}
	if len(log) != len(want) {
		t.Fatalf("expected %d stages, got %v", len(want), log)
	}
	for i, name := range want {
		if log[i] != name {
			t.Fatalf("expected stage %d to be %q, got %q", i, name, log[i])
		}
	}
	if state.Ticks() != 1 || state.Ticks2() != 1 {
		t.Fatalf("expected both counters at 1, got %d and %d", state.Ticks(), state.Ticks2())
	}
	entries := record.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one generator record, got %d", len(entries))
	}
	if entries[0].Tick != 1 {
		t.Fatalf("expected record for tick 1, got %d", entries[0].Tick)
	}
	if entries[0].State != before {
		t.Fatalf("expected recorded generator state %+v, got %+v", before, entries[0].State)
	}
	if state.Rng().State() == before {
		t.Fatalf("expected the draw updater to advance the generator")
	}
}

type drawUpdater struct {
	log *[]string
}

func (u *drawUpdater) Name() string { return "draw" }

func (u *drawUpdater) Update(ctx *Context) Status {
	ctx.State.Rng().Next()
	*u.log = append(*u.log, "draw")
	return Continue
}

func TestRunOneTickRefusedGateLeavesStateUntouched(t *testing.T) {
	var log []string
	state := gamestate.New()
	metrics := &captureMetrics{}
	exec := NewExecutor(ExecutorDeps{
		State:     state,
		Authority: &gateAuthority{allowThrough: 0},
		Updaters:  []Updater{&seqUpdater{name: "tiles", log: &log}},
		Metrics:   metrics,
	})

	if got := exec.RunOneTick(); got != TickSkipped {
		t.Fatalf("expected TickSkipped, got %v", got)
	}
	if state.Ticks() != 0 {
		t.Fatalf("expected counter untouched, got %d", state.Ticks())
	}
	if len(log) != 0 {
		t.Fatalf("expected no updater to run, got %v", log)
	}
	if metrics.refusals != 1 {
		t.Fatalf("expected one recorded refusal, got %d", metrics.refusals)
	}
}

func TestRunOneTickGateMonotonicity(t *testing.T) {
	state := gamestate.New()
	authority := &gateAuthority{allowThrough: 2}
	exec := NewExecutor(ExecutorDeps{State: state, Authority: authority})

	for i := 0; i < 2; i++ {
		if got := exec.RunOneTick(); got != TickRan {
			t.Fatalf("expected tick %d to run, got %v", i+1, got)
		}
	}
	for i := 0; i < 3; i++ {
		if got := exec.RunOneTick(); got != TickSkipped {
			t.Fatalf("expected tick beyond authority to stay refused, got %v", got)
		}
	}
	if state.Ticks() != 2 {
		t.Fatalf("expected counter parked at 2, got %d", state.Ticks())
	}

	authority.allowThrough = 3
	if got := exec.RunOneTick(); got != TickRan {
		t.Fatalf("expected tick to run after authority advanced, got %v", got)
	}
	if state.Ticks() != 3 {
		t.Fatalf("expected counter at 3, got %d", state.Ticks())
	}
}

func TestRunOneTickAbortSkipsRemainingUpdaters(t *testing.T) {
	var log []string
	state := gamestate.New()
	metrics := &captureMetrics{}
	source := &stubSource{poses: map[uint64]Transform{1: {X: 1}}}
	tweener := NewTweener(source)
	tweener.PreTick()
	tweener.PostTick()
	tweener.Tween(1.0)
	if len(tweener.Output()) == 0 {
		t.Fatalf("expected primed tweener output")
	}

	exec := NewExecutor(ExecutorDeps{
		State: state,
		Updaters: []Updater{
			&seqUpdater{name: "tiles", log: &log},
			&seqUpdater{name: "waves", log: &log, status: Aborted},
			&seqUpdater{name: "towns", log: &log},
		},
		Tweener: tweener,
		Metrics: metrics,
	})

	if got := exec.RunOneTick(); got != TickAborted {
		t.Fatalf("expected TickAborted, got %v", got)
	}
	if len(log) != 2 || log[0] != "tiles" || log[1] != "waves" {
		t.Fatalf("expected abort to stop after waves, got %v", log)
	}
	if state.Ticks() != 1 {
		t.Fatalf("expected counter to keep the aborted tick, got %d", state.Ticks())
	}
	if metrics.interruptions != 1 {
		t.Fatalf("expected one recorded interruption, got %d", metrics.interruptions)
	}
	if len(tweener.Output()) != 0 {
		t.Fatalf("expected interpolation state reset on abort")
	}
}

func TestRunOneTickCountsEveryProcessedTickOnce(t *testing.T) {
	var log []string
	state := gamestate.New()
	second := &seqUpdater{name: "waves", log: &log, status: Aborted}
	exec := NewExecutor(ExecutorDeps{
		State:    state,
		Updaters: []Updater{&seqUpdater{name: "tiles", log: &log}, second},
	})

	if got := exec.RunOneTick(); got != TickAborted {
		t.Fatalf("expected first tick to abort, got %v", got)
	}
	second.status = Continue
	for i := 0; i < 2; i++ {
		if got := exec.RunOneTick(); got != TickRan {
			t.Fatalf("expected follow-up tick to run, got %v", got)
		}
	}
	if state.Ticks() != 3 {
		t.Fatalf("expected three processed ticks counted exactly once each, got %d", state.Ticks())
	}
}

func TestRunOneTickAppliesCommandsInQueueOrder(t *testing.T) {
	var applied []string
	state := gamestate.New()
	apply := CommandApplierFunc(func(cmd Command, _ *Context) Status {
		applied = append(applied, cmd.SessionID)
		return Continue
	})
	authority := &gateAuthority{
		allowThrough: 1,
		commands: map[uint32][]Command{
			1: {
				{SessionID: "first", Seq: 9},
				{SessionID: "second", Seq: 2},
				{SessionID: "third", Seq: 5},
			},
		},
	}
	exec := NewExecutor(ExecutorDeps{State: state, Authority: authority, Applier: apply})

	if got := exec.RunOneTick(); got != TickRan {
		t.Fatalf("expected TickRan, got %v", got)
	}
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if applied[i] != id {
			t.Fatalf("expected queue order %v, got %v", want, applied)
		}
	}
}

func TestRunOneTickAbortingCommandStopsTickBody(t *testing.T) {
	var log []string
	state := gamestate.New()
	record := rng.NewRecord(8)
	apply := CommandApplierFunc(func(cmd Command, _ *Context) Status {
		if cmd.Type == CommandLoadScenario {
			return Aborted
		}
		return Continue
	})
	authority := &gateAuthority{
		allowThrough: 1,
		commands: map[uint32][]Command{
			1: {{Type: CommandLoadScenario, LoadScenario: &LoadScenarioCommand{Path: "alpine.yaml"}}},
		},
	}
	exec := NewExecutor(ExecutorDeps{
		State:     state,
		Authority: authority,
		Applier:   apply,
		Updaters:  []Updater{&seqUpdater{name: "tiles", log: &log}},
		Record:    record,
	})

	if got := exec.RunOneTick(); got != TickAborted {
		t.Fatalf("expected TickAborted, got %v", got)
	}
	if len(log) != 0 {
		t.Fatalf("expected no updater after aborting command, got %v", log)
	}
	if record.Len() != 0 {
		t.Fatalf("expected no generator record for the aborted tick, got %d", record.Len())
	}
}

func TestRunOneTickSurfacesLoadErrorOnce(t *testing.T) {
	state := gamestate.New()
	reporter := &captureReporter{}
	raise := CommandApplierFunc(func(cmd Command, ctx *Context) Status {
		ctx.State.RaiseLoadError(gamestate.LoadError{
			Code:    gamestate.LoadErrorObjects,
			Objects: []string{"steam_loco_a", "harbor_crane"},
		})
		return Continue
	})
	authority := &gateAuthority{
		allowThrough: 5,
		commands:     map[uint32][]Command{1: {{Type: CommandLoadScenario}}},
	}
	exec := NewExecutor(ExecutorDeps{
		State:     state,
		Authority: authority,
		Applier:   raise,
		Reporter:  reporter,
	})

	if got := exec.RunOneTick(); got != TickRan {
		t.Fatalf("expected TickRan, got %v", got)
	}
	if len(reporter.reports) != 1 {
		t.Fatalf("expected one surfaced load error, got %d", len(reporter.reports))
	}
	got := reporter.reports[0]
	if got.Code != gamestate.LoadErrorObjects || len(got.Objects) != 2 {
		t.Fatalf("unexpected surfaced error: %+v", got)
	}

	if got := exec.RunOneTick(); got != TickRan {
		t.Fatalf("expected TickRan, got %v", got)
	}
	if len(reporter.reports) != 1 {
		t.Fatalf("expected error cleared after surfacing, got %d reports", len(reporter.reports))
	}
}

func TestRunOneTickAbortedTickKeepsLoadErrorStaged(t *testing.T) {
	state := gamestate.New()
	reporter := &captureReporter{}
	loader := &raiseOnceUpdater{}
	exec := NewExecutor(ExecutorDeps{
		State:    state,
		Updaters: []Updater{loader},
		Reporter: reporter,
	})

	if got := exec.RunOneTick(); got != TickAborted {
		t.Fatalf("expected TickAborted, got %v", got)
	}
	if len(reporter.reports) != 0 {
		t.Fatalf("expected no surfacing on the aborted tick, got %d", len(reporter.reports))
	}

	if got := exec.RunOneTick(); got != TickRan {
		t.Fatalf("expected TickRan, got %v", got)
	}
	if len(reporter.reports) != 1 {
		t.Fatalf("expected staged error surfaced on the next tick, got %d", len(reporter.reports))
	}
	if reporter.reports[0].Message != "bad save" {
		t.Fatalf("unexpected surfaced message %q", reporter.reports[0].Message)
	}
}

type raiseOnceUpdater struct {
	raised bool
}

func (u *raiseOnceUpdater) Name() string { return "loader" }

func (u *raiseOnceUpdater) Update(ctx *Context) Status {
	if !u.raised {
		u.raised = true
		ctx.State.RaiseLoadError(gamestate.LoadError{
			Code:    gamestate.LoadErrorMessage,
			Message: "bad save",
		})
		return Aborted
	}
	return Continue
}
