package sim

import (
	"ironhaul/server/internal/scene"
)

// economyFinalYear is the last in-game year with live economy
// updates. The simulated economy model deliberately freezes after it.
const economyFinalYear = 2029

// Boundary holds the updater handles the calendar invokes at day,
// month, quarter, and year rollovers. Each slice is ordered once at
// startup and never reordered; peers diverge otherwise.
type Boundary struct {
	// Daily runs on every crossed day, before the date recompute.
	Daily []DayUpdater
	// CompanyDaily runs unconditionally at the end of every crossed
	// day, after any month and year work.
	CompanyDaily DayUpdater
	// Monthly runs when the month changed.
	Monthly []MonthUpdater
	// Economy runs with the monthly set while the year is within the
	// live economy range.
	Economy MonthUpdater
	// Quarterly runs when the new month opens a fiscal quarter.
	Quarterly []QuarterUpdater
	// Yearly runs when the year changed.
	Yearly []YearUpdater
	// Autosave is told about every completed month.
	Autosave MonthObserver
}

// Run advances the calendar to the day implied by the tick counter.
// Calling it again for the same counter value is a no-op, so boundary
// work is applied exactly once per crossed day. Multiple pending days
// are processed one at a time so every month and year rollover fires.
func (b *Boundary) Run(ctx *Context) Status {
	if b == nil || ctx == nil || ctx.State == nil {
		return Continue
	}
	if !ctx.State.WorldLoaded() || ctx.Scene.Mode() == scene.ModeEditor {
		return Continue
	}
	target := ctx.State.DerivedDayNumber()
	for ctx.State.DayNumber() < target {
		if b.advanceOneDay(ctx) == Aborted {
			return Aborted
		}
	}
	return Continue
}

func (b *Boundary) advanceOneDay(ctx *Context) Status {
	state := ctx.State
	yesterday := state.Today()

	for _, u := range b.Daily {
		if u.UpdateDaily(ctx) == Aborted {
			return Aborted
		}
	}

	state.SetDay(state.DayNumber() + 1)
	today := state.Today()

	if today.Month != yesterday.Month {
		state.IncrementObjectiveMonths()

		for _, u := range b.Monthly {
			if u.UpdateMonthly(ctx) == Aborted {
				return Aborted
			}
		}

		if b.Economy != nil && today.Year <= economyFinalYear {
			if b.Economy.UpdateMonthly(ctx) == Aborted {
				return Aborted
			}
		}

		if today.Month.QuarterStart() {
			for _, u := range b.Quarterly {
				if u.UpdateQuarterly(ctx) == Aborted {
					return Aborted
				}
			}
		}

		if today.Year != yesterday.Year {
			for _, u := range b.Yearly {
				if u.UpdateYearly(ctx) == Aborted {
					return Aborted
				}
			}
		}

		if b.Autosave != nil {
			b.Autosave.OnMonthElapsed()
		}
	}

	if b.CompanyDaily != nil {
		if b.CompanyDaily.UpdateDaily(ctx) == Aborted {
			return Aborted
		}
	}
	return Continue
}
