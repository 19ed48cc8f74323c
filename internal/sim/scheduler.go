package sim

import (
	"math"
	"time"

	"go.uber.org/zap"

	"ironhaul/server/internal/clock"
	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/scene"
)

// TickRunner is the scheduler's view of the tick executor.
type TickRunner interface {
	RunOneTick() TickResult
}

// Renderer paints one frame at the given interpolation factor.
type Renderer interface {
	Render(alpha float64)
}

// SchedulerConfig carries the pacing knobs.
type SchedulerConfig struct {
	// StepSeconds is the fixed logical step length.
	StepSeconds float64
	// MaxBacklogSeconds caps the accumulator so a stall, such as a
	// debugger pause, cannot demand a runaway burst of ticks.
	MaxBacklogSeconds float64
	// TimeScale multiplies measured wall time before accumulation.
	// Session speed and pause modulate it further per pass.
	TimeScale float64
	// CatchupTicks is the per-pass tick window while trailing a
	// remote authority.
	CatchupTicks int
	// UncappedFPS selects variable-step mode; otherwise the loop runs
	// at most one step per pass and idles between steps.
	UncappedFPS bool
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.StepSeconds <= 0 {
		c.StepSeconds = float64(LogicIntervalMs) / 1000.0
	}
	if c.MaxBacklogSeconds <= 0 {
		c.MaxBacklogSeconds = float64(MaxTickDeltaMs) / 1000.0
	}
	if c.TimeScale <= 0 {
		c.TimeScale = 1.0
	}
	if c.CatchupTicks <= 0 {
		c.CatchupTicks = CatchupWindow
	}
	return c
}

// SchedulerDeps wires a Scheduler. Zero fields fall back to working
// defaults so tests can fill in only what they probe.
type SchedulerDeps struct {
	Config    SchedulerConfig
	State     *gamestate.State
	Scene     *scene.Manager
	Executor  TickRunner
	Authority Authority
	Tweener   *Tweener
	Clock     clock.Clock
	Sleeper   clock.Sleeper
	Renderer  Renderer
	Logger    *zap.Logger
	Metrics   Metrics
}

// Scheduler converts wall-clock time into executor ticks. It owns the
// accumulator exclusively and mutates it once per Update call.
type Scheduler struct {
	cfg       SchedulerConfig
	state     *gamestate.State
	scene     *scene.Manager
	executor  TickRunner
	authority Authority
	tweener   *Tweener
	clock     clock.Clock
	sleeper   clock.Sleeper
	renderer  Renderer
	logger    *zap.Logger
	metrics   Metrics

	accumulator float64
	lastUpdate  time.Time
	lastTick    time.Time
	tickDeltaMs int64
	started     bool
}

// NewScheduler builds a scheduler from deps.
func NewScheduler(deps SchedulerDeps) *Scheduler {
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
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}
	sleeper := deps.Sleeper
	if sleeper == nil {
		sleeper = clock.SystemSleeper{}
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
	executor := deps.Executor
	if executor == nil {
		executor = NewExecutor(ExecutorDeps{
			State:     state,
			Scene:     sceneMgr,
			Authority: authority,
			Tweener:   tweener,
			Logger:    logger,
			Metrics:   metrics,
		})
	}
	return &Scheduler{
		cfg:       deps.Config.withDefaults(),
		state:     state,
		scene:     sceneMgr,
		executor:  executor,
		authority: authority,
		tweener:   tweener,
		clock:     clk,
		sleeper:   sleeper,
		renderer:  deps.Renderer,
		logger:    logger,
		metrics:   metrics,
	}
}

// Update is the host loop entry point: it measures elapsed wall time,
// feeds the accumulator, and drains whole steps into executor ticks.
// It is callable indefinitely; shutdown is the host's decision.
func (s *Scheduler) Update() {
	if s == nil {
		return
	}
	start := s.clock.Now()
	if !s.started {
		s.lastUpdate = start
		s.lastTick = start
		s.started = true
	}

	s.authority.Update()

	scale := EffectiveTimeScale(s.cfg.TimeScale, s.scene.Speed(), s.scene.Paused())
	elapsed := start.Sub(s.lastUpdate).Seconds() * scale
	s.lastUpdate = start
	s.accumulator = math.Min(s.accumulator+elapsed, s.cfg.MaxBacklogSeconds)

	var executed int
	if s.cfg.UncappedFPS {
		executed = s.variableUpdate()
	} else {
		executed = s.fixedUpdate()
	}
	s.finishPass(start, executed)
}

// variableUpdate drains every whole step from the accumulator, one
// executor tick per step, then renders once with the interpolation
// factor computed before the drain. Only the final pre/post snapshot
// pair feeds interpolation; intermediate ticks are not separately
// rendered.
func (s *Scheduler) variableUpdate() int {
	alpha := math.Min(s.accumulator/s.cfg.StepSeconds, 1.0)

	executed := s.drain(PassTickCap(s.authority.TicksBehind(s.state.Ticks()), s.cfg.CatchupTicks))

	s.tweener.Tween(alpha)
	s.render(alpha)
	return executed
}

// fixedUpdate runs at most one step per pass and sleeps one slice
// when no step is due, keeping the loop responsive to shutdown. A
// pass that is catching up to a remote authority bursts like the
// variable mode does.
func (s *Scheduler) fixedUpdate() int {
	s.tweener.Reset()

	if burst := PassTickCap(s.authority.TicksBehind(s.state.Ticks()), s.cfg.CatchupTicks); burst > 0 {
		executed := s.drain(burst)
		s.render(1.0)
		return executed
	}

	if s.accumulator < s.cfg.StepSeconds {
		s.sleeper.Sleep(time.Millisecond)
		return 0
	}
	executed := 0
	if s.executor.RunOneTick() == TickRan {
		executed = 1
	}
	s.accumulator -= s.cfg.StepSeconds
	s.render(1.0)
	return executed
}

// drain runs executor ticks until the backlog is spent, or until
// capTicks attempts have run when capTicks is positive. A catch-up
// pass keeps ticking with an empty backlog, so the accumulator floors
// at zero instead of going negative. Refused and aborted ticks still
// consume their step: wall time passed either way, and backpressure
// is the gate's job alone.
func (s *Scheduler) drain(capTicks int) int {
	executed := 0
	for attempts := 0; ; attempts++ {
		if capTicks > 0 {
			if attempts >= capTicks {
				break
			}
		} else if s.accumulator <= s.cfg.StepSeconds {
			break
		}
		s.tweener.PreTick()
		if s.executor.RunOneTick() == TickRan {
			executed++
		}
		s.accumulator = math.Max(s.accumulator-s.cfg.StepSeconds, 0)
		s.tweener.PostTick()
	}
	if capTicks > 0 {
		s.metrics.RecordCatchupBurst(executed)
	}
	return executed
}

// finishPass maintains the tick clock, grows the scene age, and
// publishes pass telemetry.
func (s *Scheduler) finishPass(start time.Time, executed int) {
	tutorial := s.scene.Tutorial() != scene.TutorialNone
	s.tickDeltaMs = TickDelta(start.Sub(s.lastTick).Milliseconds(), tutorial)
	if executed > 0 {
		s.lastTick = start
	}

	ageStep := executed
	if ageStep < 1 {
		ageStep = 1
	}
	s.scene.GrowAge(ageStep)

	s.metrics.ObserveTicks(executed)
	s.metrics.ObserveAccumulator(s.accumulator)
	s.metrics.ObservePassDuration(s.clock.Now().Sub(start))
}

func (s *Scheduler) render(alpha float64) {
	if s.renderer == nil {
		return
	}
	s.renderer.Render(alpha)
}

// Accumulator exposes the unconsumed simulated time for diagnostics.
func (s *Scheduler) Accumulator() float64 {
	if s == nil {
		return 0
	}
	return s.accumulator
}

// TickDeltaMs exposes the clamped wall delta of the last pass for
// diagnostics.
func (s *Scheduler) TickDeltaMs() int64 {
	if s == nil {
		return 0
	}
	return s.tickDeltaMs
}
