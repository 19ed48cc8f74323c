package world

import (
	"ironhaul/server/internal/sim"
)

const basePriceLevel = 1000

// Economy tracks the global price level in per-mille of the scenario
// start. The monthly pass applies a small inflation step; the calendar
// boundary stops invoking it once the simulated economy's final year
// has passed.
type Economy struct {
	PriceLevel uint32 `json:"priceLevel"`
}

func newEconomy() *Economy {
	return &Economy{PriceLevel: basePriceLevel}
}

func (e *Economy) UpdateMonthly(ctx *sim.Context) sim.Status {
	e.PriceLevel += e.PriceLevel/200 + ctx.State.Rng().NextN(3)
	return sim.Continue
}

func (e *Economy) reset() {
	e.PriceLevel = basePriceLevel
}
