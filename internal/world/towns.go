package world

import (
	"fmt"

	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/sim"
)

const townBuildInterval = 64

// Town is one settlement on the map.
type Town struct {
	ID         uint32 `json:"id"`
	Name       string `json:"name"`
	Population uint32 `json:"population"`
	// GrowthPerMille is the monthly population growth in 1/1000 parts.
	GrowthPerMille uint32 `json:"growthPerMille"`
	Buildings      uint32 `json:"buildings"`
}

// Towns grows settlements on the monthly boundary and churns minor
// construction activity between boundaries.
type Towns struct {
	towns []Town
}

var townNames = []string{
	"Eisenford", "Grauberg", "Nordhaven", "Silbertal",
	"Kohlwick", "Brandmoor", "Stahlbruck", "Weissport",
}

func newTowns() *Towns { return &Towns{} }

func (t *Towns) Name() string { return "towns" }

func (t *Towns) Update(ctx *sim.Context) sim.Status {
	if len(t.towns) == 0 || ctx.State.Ticks()%townBuildInterval != 0 {
		return sim.Continue
	}
	idx := ctx.State.Rng().NextN(uint32(len(t.towns)))
	t.towns[idx].Buildings++
	return sim.Continue
}

func (t *Towns) UpdateMonthly(ctx *sim.Context) sim.Status {
	for i := range t.towns {
		town := &t.towns[i]
		gain := town.Population * town.GrowthPerMille / 1000
		jitter := ctx.State.Rng().NextN(25)
		town.Population += gain + jitter
	}
	return sim.Continue
}

// Get returns the town with the given id.
func (t *Towns) Get(id uint32) (Town, bool) {
	for _, town := range t.towns {
		if town.ID == id {
			return town, true
		}
	}
	return Town{}, false
}

func (t *Towns) count() int { return len(t.towns) }

func (t *Towns) generate(cfg Config, prng *rng.Prng) {
	t.towns = make([]Town, 0, cfg.Towns)
	for i := 0; i < cfg.Towns; i++ {
		name := townNames[i%len(townNames)]
		if i >= len(townNames) {
			name = fmt.Sprintf("%s %d", name, i/len(townNames)+1)
		}
		t.towns = append(t.towns, Town{
			ID:             uint32(i + 1),
			Name:           name,
			Population:     200 + prng.NextN(1800),
			GrowthPerMille: 2 + prng.NextN(8),
			Buildings:      10 + prng.NextN(40),
		})
	}
}

func (t *Towns) snapshot() []Town {
	out := make([]Town, len(t.towns))
	copy(out, t.towns)
	return out
}
