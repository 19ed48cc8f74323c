// Package sim contains the deterministic simulation core: the
// timestep scheduler, the tick executor, the subsystem updater
// registry, and the calendar boundary logic. Everything here runs on
// one goroutine; determinism across peers depends on the updater
// sequences never being reordered.
package sim

import (
	"go.uber.org/zap"

	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/scene"
)

// Status is the result every subsystem entry point reports upward.
// Aborted means the current tick must stop now; state mutated so far
// stands and the remaining subsystem updates are discarded.
type Status uint8

const (
	Continue Status = iota
	Aborted
)

func (s Status) String() string {
	if s == Aborted {
		return "aborted"
	}
	return "continue"
}

// Context carries the state an updater may touch during a tick.
type Context struct {
	State  *gamestate.State
	Scene  *scene.Manager
	Logger *zap.Logger
}

// Updater is one subsystem's per-tick entry point.
type Updater interface {
	Name() string
	Update(ctx *Context) Status
}

// DayUpdater runs once per crossed day boundary.
type DayUpdater interface {
	UpdateDaily(ctx *Context) Status
}

// MonthUpdater runs once per crossed month boundary.
type MonthUpdater interface {
	UpdateMonthly(ctx *Context) Status
}

// QuarterUpdater runs when a new month opens a fiscal quarter.
type QuarterUpdater interface {
	UpdateQuarterly(ctx *Context) Status
}

// YearUpdater runs once per crossed year boundary.
type YearUpdater interface {
	UpdateYearly(ctx *Context) Status
}

// MonthObserver is notified after every completed in-game month.
type MonthObserver interface {
	OnMonthElapsed()
}

// LoadErrorReporter receives load errors surfaced at the end of a
// tick. The staged error is cleared whether or not a reporter is
// attached.
type LoadErrorReporter interface {
	ReportLoadError(err gamestate.LoadError)
}
