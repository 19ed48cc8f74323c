// Package gamestate owns the mutable simulation state shared by every
// subsystem updater. A single goroutine drives all mutation; nothing
// here is safe for concurrent use.
package gamestate

import (
	"ironhaul/server/internal/date"
	"ironhaul/server/internal/rng"
)

// State is the injectable state context. Components receive it
// explicitly instead of reaching for package globals so tests can run
// isolated instances side by side.
type State struct {
	ticks  uint32
	ticks2 uint32

	baseDay   uint32
	dayNumber uint32
	today     date.Date
	season    date.Season

	objectiveMonths uint16
	worldLoaded     bool

	prng    *rng.Prng
	loadErr LoadError
}

// New returns a zeroed state positioned at the calendar epoch.
func New() *State {
	s := &State{prng: rng.New(0, 0)}
	s.applyDay(0)
	return s
}

// Reset rewinds the state for a scenario starting on January 1st of
// startYear, seeding the generator from seed.
func (s *State) Reset(startYear int, seed uint64) {
	s.ticks = 0
	s.ticks2 = 0
	s.baseDay = date.Date{Year: startYear, Month: date.January, Day: 1}.DayNumber()
	s.applyDay(s.baseDay)
	s.objectiveMonths = 0
	s.prng = rng.NewFromSeed(seed)
	s.loadErr = LoadError{}
}

func (s *State) applyDay(day uint32) {
	s.dayNumber = day
	s.today = date.FromDayNumber(day)
	s.season = date.SeasonOf(s.today.Month)
}

// Ticks returns the scenario tick counter.
func (s *State) Ticks() uint32 { return s.ticks }

// Ticks2 returns the secondary diagnostic tick counter.
func (s *State) Ticks2() uint32 { return s.ticks2 }

// IncrementTicks advances both tick counters by one.
func (s *State) IncrementTicks() {
	s.ticks++
	s.ticks2++
}

// DayNumber returns the day the calendar last advanced to.
func (s *State) DayNumber() uint32 { return s.dayNumber }

// DerivedDayNumber computes the day number implied by the current tick
// counter. It exceeds DayNumber exactly when a day boundary is due.
func (s *State) DerivedDayNumber() uint32 {
	return s.baseDay + date.DayNumberFromTicks(s.ticks)
}

// Today returns the current calendar date.
func (s *State) Today() date.Date { return s.today }

// Season returns the current seasonal state.
func (s *State) Season() date.Season { return s.season }

// SetDay moves the calendar to the given day number, recomputing the
// date and season.
func (s *State) SetDay(day uint32) { s.applyDay(day) }

// ObjectiveMonths returns the months elapsed against the scenario
// objective.
func (s *State) ObjectiveMonths() uint16 { return s.objectiveMonths }

// IncrementObjectiveMonths advances the objective month counter.
func (s *State) IncrementObjectiveMonths() { s.objectiveMonths++ }

// WorldLoaded reports whether a world is loaded and tickable.
func (s *State) WorldLoaded() bool { return s.worldLoaded }

// SetWorldLoaded flags the world as loaded or unloaded.
func (s *State) SetWorldLoaded(loaded bool) { s.worldLoaded = loaded }

// Rng returns the deterministic game generator.
func (s *State) Rng() *rng.Prng { return s.prng }

// Snapshot captures the serializable image of the state used by save
// artifacts and determinism comparisons.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Ticks:           s.ticks,
		Ticks2:          s.ticks2,
		BaseDay:         s.baseDay,
		DayNumber:       s.dayNumber,
		Date:            s.today,
		Season:          s.season,
		ObjectiveMonths: s.objectiveMonths,
		Rng:             s.prng.State(),
	}
}

// Restore rewinds the state to a previously captured snapshot. The
// date and season recompute from the day number; the world-loaded flag
// is left to the caller, who loads the matching world image
// separately.
func (s *State) Restore(snap Snapshot) {
	s.ticks = snap.Ticks
	s.ticks2 = snap.Ticks2
	s.baseDay = snap.BaseDay
	s.applyDay(snap.DayNumber)
	s.objectiveMonths = snap.ObjectiveMonths
	s.prng.Restore(snap.Rng)
	s.loadErr = LoadError{}
}

// Snapshot is the serializable image of a State.
type Snapshot struct {
	Ticks           uint32      `json:"ticks"`
	Ticks2          uint32      `json:"ticks2"`
	BaseDay         uint32      `json:"baseDay"`
	DayNumber       uint32      `json:"dayNumber"`
	Date            date.Date   `json:"date"`
	Season          date.Season `json:"season"`
	ObjectiveMonths uint16      `json:"objectiveMonths"`
	Rng             rng.State   `json:"rng"`
}
