package world

import (
	"fmt"

	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/sim"
)

const stationCargoCap = 4000

// Station is one freight stop. Positions use the fixed-point map scale.
type Station struct {
	ID         uint32 `json:"id"`
	Name       string `json:"name"`
	TownID     uint32 `json:"townId"`
	IndustryID uint32 `json:"industryId"`
	Xf         int32  `json:"xf"`
	Yf         int32  `json:"yf"`
	Waiting    uint32 `json:"waiting"`
	Rating     uint8  `json:"rating"`
}

// Stations drift their service ratings every tick and take on cargo
// from their linked industries on the daily boundary.
type Stations struct {
	stations   []Station
	industries *Industries
}

var stationSuffixes = []string{"Central", "North", "Harbor", "East", "Yard", "West"}

func newStations(industries *Industries) *Stations {
	return &Stations{industries: industries}
}

func (s *Stations) Name() string { return "stations" }

func (s *Stations) Update(ctx *sim.Context) sim.Status {
	for i := range s.stations {
		st := &s.stations[i]
		backlog := st.Waiting / 8
		if backlog > 80 {
			backlog = 80
		}
		target := uint8(100 - backlog)
		switch {
		case st.Rating < target:
			st.Rating++
		case st.Rating > target:
			st.Rating--
		}
	}
	return sim.Continue
}

func (s *Stations) UpdateDaily(ctx *sim.Context) sim.Status {
	for i := range s.stations {
		st := &s.stations[i]
		want := 15 + ctx.State.Rng().NextN(10)
		st.Waiting += s.industries.TakeStockpile(st.IndustryID, want)
		if st.Waiting > stationCargoCap {
			st.Waiting = stationCargoCap
		}
	}
	return sim.Continue
}

// Get returns the station with the given id.
func (s *Stations) Get(id uint32) (Station, bool) {
	for _, st := range s.stations {
		if st.ID == id {
			return st, true
		}
	}
	return Station{}, false
}

// TakeWaiting removes up to want cargo units from the station and
// returns the amount actually taken.
func (s *Stations) TakeWaiting(id uint32, want uint32) uint32 {
	for i := range s.stations {
		st := &s.stations[i]
		if st.ID != id {
			continue
		}
		take := want
		if take > st.Waiting {
			take = st.Waiting
		}
		st.Waiting -= take
		return take
	}
	return 0
}

func (s *Stations) count() int { return len(s.stations) }

func (s *Stations) generate(cfg Config, towns *Towns, prng *rng.Prng) {
	s.stations = make([]Station, 0, cfg.Stations)
	for i := 0; i < cfg.Stations; i++ {
		townID := uint32(i%towns.count() + 1)
		town, _ := towns.Get(townID)
		s.stations = append(s.stations, Station{
			ID:         uint32(i + 1),
			Name:       fmt.Sprintf("%s %s", town.Name, stationSuffixes[i%len(stationSuffixes)]),
			TownID:     townID,
			IndustryID: uint32(i%s.industries.count() + 1),
			Xf:         int32(prng.NextN(uint32(cfg.TileWidth) * posScale)),
			Yf:         int32(prng.NextN(uint32(cfg.TileHeight) * posScale)),
			Rating:     50,
		})
	}
}

func (s *Stations) snapshot() []Station {
	out := make([]Station, len(s.stations))
	copy(out, s.stations)
	return out
}
