package sim

import (
	"go.uber.org/zap"

	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/scene"
)

// Authority gates tick advancement and supplies the confirmed command
// batch for each tick. Implementations are the session-mode boundary:
// solo play always allows, lockstep clients allow only confirmed
// ticks.
type Authority interface {
	IsNetworked() bool
	ShouldProcessTick(candidate uint32) bool
	CommandsFor(tick uint32) []Command
	ServerTick() uint32
	TicksBehind(local uint32) int
	Update()
}

// SoloAuthority is the no-network authority: every tick is allowed
// and no remote commands ever arrive.
type SoloAuthority struct{}

func (SoloAuthority) IsNetworked() bool             { return false }
func (SoloAuthority) ShouldProcessTick(uint32) bool { return true }
func (SoloAuthority) CommandsFor(uint32) []Command  { return nil }
func (SoloAuthority) ServerTick() uint32            { return 0 }
func (SoloAuthority) TicksBehind(uint32) int        { return 0 }
func (SoloAuthority) Update()                       {}

var _ Authority = SoloAuthority{}

// TickResult reports what one executor invocation did.
type TickResult uint8

const (
	// TickSkipped means the gate refused the tick; nothing mutated.
	TickSkipped TickResult = iota
	// TickRan means the tick completed every subsystem.
	TickRan
	// TickAborted means the tick stopped early; counters stand.
	TickAborted
)

// ExecutorDeps wires an Executor. Zero fields fall back to inert
// defaults so tests can fill in only what they probe.
type ExecutorDeps struct {
	State     *gamestate.State
	Scene     *scene.Manager
	Authority Authority
	Applier   CommandApplier
	Updaters  []Updater
	Boundary  *Boundary
	Tweener   *Tweener
	Record    *rng.Record
	Reporter  LoadErrorReporter
	Logger    *zap.Logger
	Metrics   Metrics
}

// Executor advances the simulation by exactly one logical step per
// call, or not at all when the session authority refuses.
type Executor struct {
	state     *gamestate.State
	authority Authority
	applier   CommandApplier
	updaters  []Updater
	boundary  *Boundary
	tweener   *Tweener
	record    *rng.Record
	reporter  LoadErrorReporter
	logger    *zap.Logger
	metrics   Metrics
	ctx       Context
}

// NewExecutor builds an executor from deps.
func NewExecutor(deps ExecutorDeps) *Executor {
	state := deps.State
	if state == nil {
		state = gamestate.New()
	}
	sceneMgr := deps.Scene
	if sceneMgr == nil {
		sceneMgr = scene.NewManager()
	}
	authority := deps.Authority
	if authority == nil {
		authority = SoloAuthority{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	tweener := deps.Tweener
	if tweener == nil {
		tweener = NewTweener(nil)
	}
	boundary := deps.Boundary
	if boundary == nil {
		boundary = &Boundary{}
	}
	return &Executor{
		state:     state,
		authority: authority,
		applier:   deps.Applier,
		updaters:  deps.Updaters,
		boundary:  boundary,
		tweener:   tweener,
		record:    deps.Record,
		reporter:  deps.Reporter,
		logger:    logger,
		metrics:   metrics,
		ctx:       Context{State: state, Scene: sceneMgr, Logger: logger},
	}
}

// RunOneTick advances the simulation one logical step. The sequence
// is fixed: gate, counter increment, confirmed commands in queue
// order, generator snapshot, subsystem updaters in registry order,
// calendar boundary, load error surfacing. An Aborted status from any
// stage stops the tick at that point and is absorbed here.
func (e *Executor) RunOneTick() TickResult {
	if e == nil {
		return TickSkipped
	}
	next := e.state.Ticks() + 1
	if !e.authority.ShouldProcessTick(next) {
		e.metrics.RecordGateRefusal()
		return TickSkipped
	}

	e.state.IncrementTicks()
	tick := e.state.Ticks()

	if e.runTickBody(tick) == Aborted {
		e.interrupted(tick)
		return TickAborted
	}
	e.surfaceLoadError(tick)
	return TickRan
}

func (e *Executor) runTickBody(tick uint32) Status {
	for _, cmd := range e.authority.CommandsFor(tick) {
		if e.applier == nil {
			continue
		}
		if e.applier.Apply(cmd, &e.ctx) == Aborted {
			return Aborted
		}
	}

	e.record.RecordTickStart(tick, e.state.Rng().State())

	for _, u := range e.updaters {
		if u.Update(&e.ctx) == Aborted {
			return Aborted
		}
	}

	return e.boundary.Run(&e.ctx)
}

func (e *Executor) interrupted(tick uint32) {
	e.tweener.Reset()
	e.metrics.RecordInterruption()
	e.logger.Info("tick interrupted", zap.Uint32("tick", tick))
}

func (e *Executor) surfaceLoadError(tick uint32) {
	loadErr, ok := e.state.TakeLoadError()
	if !ok {
		return
	}
	if e.reporter != nil {
		e.reporter.ReportLoadError(loadErr)
	}
	if loadErr.Code == gamestate.LoadErrorMessage {
		e.logger.Warn("load failed",
			zap.String("message", loadErr.Message),
			zap.Uint32("tick", tick))
		return
	}
	e.logger.Warn("load reported missing objects",
		zap.Int("count", len(loadErr.Objects)),
		zap.Uint32("tick", tick))
}

// Context returns the tick context the executor passes to updaters.
// Boundary wiring and tests use it to share the same state view.
func (e *Executor) Context() *Context {
	if e == nil {
		return nil
	}
	return &e.ctx
}
