package sim

import "ironhaul/server/internal/scene"

const (
	// LogicIntervalMs is the wall time one logic tick represents.
	LogicIntervalMs = 31

	// MaxTickDeltaMs clamps the measured time between passes so a
	// stall cannot register as an enormous single delta.
	MaxTickDeltaMs = 500

	// TutorialTickDeltaMs replaces the measured delta during tutorial
	// playback or recording so recorded input stays aligned.
	TutorialTickDeltaMs = 31

	// CatchupWindow is both the lag threshold and the forced per-pass
	// tick count while catching up to a remote authority.
	CatchupWindow = 4
)

// TickDelta returns the wall-clock milliseconds one pass charges to
// the tick clock. Deltas clamp to [0, MaxTickDeltaMs]. The tutorial
// override wins over the clamp when both apply.
func TickDelta(elapsedMs int64, tutorial bool) int64 {
	if tutorial {
		return TutorialTickDeltaMs
	}
	if elapsedMs < 0 {
		return 0
	}
	if elapsedMs > MaxTickDeltaMs {
		return MaxTickDeltaMs
	}
	return elapsedMs
}

// EffectiveTimeScale folds the session speed and pause state into the
// configured time scale. A paused session accumulates no simulated
// time, so the backlog is exactly where it was when the pause began.
func EffectiveTimeScale(base float64, speed scene.Speed, paused bool) float64 {
	if paused {
		return 0
	}
	if base <= 0 {
		base = 1
	}
	return base * float64(speed.Multiplier())
}

// PassTickCap bounds how many ticks one scheduler pass may execute.
// Zero means the accumulated backlog alone decides. A session lagging
// its authority by more than window ticks runs window ticks per pass,
// backlog or not, until it rejoins; the tick gate stops it from
// overshooting the authoritative count. A window of zero or less
// selects CatchupWindow.
func PassTickCap(ticksBehind, window int) int {
	if window <= 0 {
		window = CatchupWindow
	}
	if ticksBehind > window {
		return window
	}
	return 0
}
