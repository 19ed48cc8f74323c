package world

import (
	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/sim"
)

const minProductionRate = 1

// Industry is one production site.
type Industry struct {
	ID   uint32 `json:"id"`
	Kind string `json:"kind"`
	// Rate is the base output in cargo units per day.
	Rate      uint32 `json:"rate"`
	Stockpile uint32 `json:"stockpile"`
}

// Industries produce cargo on the daily boundary and let the market
// drift their output rates once a month.
type Industries struct {
	industries []Industry
	workPhase  uint32
}

var industryKinds = []string{
	"coal_mine", "iron_mine", "steel_mill", "sawmill", "quarry", "oil_refinery",
}

func newIndustries() *Industries { return &Industries{} }

func (ind *Industries) Name() string { return "industries" }

func (ind *Industries) Update(ctx *sim.Context) sim.Status {
	ind.workPhase++
	return sim.Continue
}

func (ind *Industries) UpdateDaily(ctx *sim.Context) sim.Status {
	for i := range ind.industries {
		site := &ind.industries[i]
		site.Stockpile += site.Rate + ctx.State.Rng().NextN(site.Rate/4+1)
	}
	return sim.Continue
}

func (ind *Industries) UpdateMonthly(ctx *sim.Context) sim.Status {
	for i := range ind.industries {
		site := &ind.industries[i]
		drift := int32(ctx.State.Rng().NextN(11)) - 5
		rate := int32(site.Rate) + drift
		if rate < minProductionRate {
			rate = minProductionRate
		}
		site.Rate = uint32(rate)
	}
	return sim.Continue
}

// TakeStockpile removes up to want units from the industry and returns
// the amount actually taken.
func (ind *Industries) TakeStockpile(id uint32, want uint32) uint32 {
	for i := range ind.industries {
		site := &ind.industries[i]
		if site.ID != id {
			continue
		}
		take := want
		if take > site.Stockpile {
			take = site.Stockpile
		}
		site.Stockpile -= take
		return take
	}
	return 0
}

func (ind *Industries) count() int { return len(ind.industries) }

func (ind *Industries) generate(cfg Config, prng *rng.Prng) {
	ind.industries = make([]Industry, 0, cfg.Industries)
	for i := 0; i < cfg.Industries; i++ {
		ind.industries = append(ind.industries, Industry{
			ID:   uint32(i + 1),
			Kind: industryKinds[prng.NextN(uint32(len(industryKinds)))],
			Rate: 8 + prng.NextN(24),
		})
	}
}

func (ind *Industries) snapshot() []Industry {
	out := make([]Industry, len(ind.industries))
	copy(out, ind.industries)
	return out
}
