// Package scenario loads scenario descriptors and positions the
// simulation state at their starting conditions.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ironhaul/server/internal/date"
	"ironhaul/server/internal/gamestate"
)

// Descriptor describes a playable scenario.
type Descriptor struct {
	Name            string `yaml:"name"`
	StartYear       int    `yaml:"start_year"`
	ObjectiveMonths int    `yaml:"objective_months"`
	Seed            uint64 `yaml:"seed"`
}

// Default returns the freeplay scenario used when no descriptor file
// is configured.
func Default() Descriptor {
	return Descriptor{
		Name:            "Freeplay",
		StartYear:       1900,
		ObjectiveMonths: 0,
		Seed:            1,
	}
}

// Load reads a YAML descriptor from path, overlaying the defaults.
func Load(path string) (Descriptor, error) {
	d := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read scenario %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return d, fmt.Errorf("scenario %s: %w", path, err)
	}
	return d, nil
}

// Validate checks the descriptor for values the simulation cannot run
// with.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("scenario name must not be empty")
	}
	if d.StartYear < date.BaseYear {
		return fmt.Errorf("start_year %d precedes the calendar epoch %d", d.StartYear, date.BaseYear)
	}
	if d.StartYear > 2100 {
		return fmt.Errorf("start_year %d is past the playable range", d.StartYear)
	}
	if d.ObjectiveMonths < 0 {
		return fmt.Errorf("objective_months must not be negative")
	}
	return nil
}

// Start resets the state to the descriptor's opening day and marks the
// world loaded.
func Start(state *gamestate.State, d Descriptor) {
	state.Reset(d.StartYear, d.Seed)
	state.SetWorldLoaded(true)
}
