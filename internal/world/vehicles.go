package world

import (
	"ironhaul/server/internal/rng"
	"ironhaul/server/internal/sim"
)

const (
	vehicleCapacity   = 40
	cargoPayoutRate   = 7
	breakdownChance   = 3
	maintenanceFee    = 30
	arrivalSteamTicks = 48
	breakdownSmokeTTL = 96
)

// Heading is a cardinal travel direction.
type Heading uint8

const (
	HeadingEast Heading = iota
	HeadingNorth
	HeadingWest
	HeadingSouth
)

var headingAngles = [4]float64{0, 90, 180, 270}

// Vehicle is one consist running a station circuit. Positions and
// speeds use the fixed-point map scale so movement stays identical
// across peers regardless of platform.
type Vehicle struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	CompanyID uint32 `json:"companyId"`
	Xf        int32  `json:"xf"`
	Yf        int32  `json:"yf"`
	// Speed is fixed-point map units per tick.
	Speed   int32    `json:"speed"`
	Heading Heading  `json:"heading"`
	Halted  bool     `json:"halted"`
	Broken  bool     `json:"broken"`
	Route   []uint32 `json:"route"`
	Leg     int      `json:"leg"`
	Cargo   uint32   `json:"cargo"`
	RunCost int64    `json:"runCost"`
}

// Vehicles moves the fleet every tick, settles running costs on the
// daily boundary and services breakdowns on the monthly one. It is
// also the pose source for render interpolation.
type Vehicles struct {
	fleet     []Vehicle
	stations  *Stations
	companies *Companies
	effects   *Effects
}

var vehicleModels = []string{
	"2-6-0 Mogul", "4-4-0 American", "0-6-0 Pannier",
	"Crampton", "Eight-coupled Goods", "2-8-2 Mikado",
}

func newVehicles(stations *Stations, companies *Companies, effects *Effects) *Vehicles {
	return &Vehicles{stations: stations, companies: companies, effects: effects}
}

func (v *Vehicles) Name() string { return "vehicles" }

func (v *Vehicles) Update(ctx *sim.Context) sim.Status {
	for i := range v.fleet {
		v.step(&v.fleet[i])
	}
	return sim.Continue
}

// step advances one vehicle along the leg toward its next station.
// Travel is axis-aligned, east-west first, so the path needs no route
// geometry beyond the station endpoints.
func (v *Vehicles) step(veh *Vehicle) {
	if veh.Halted || veh.Broken || len(veh.Route) == 0 {
		return
	}
	target, ok := v.stations.Get(veh.Route[veh.Leg])
	if !ok {
		return
	}
	switch {
	case veh.Xf != target.Xf:
		if target.Xf > veh.Xf {
			veh.Heading = HeadingEast
		} else {
			veh.Heading = HeadingWest
		}
		veh.Xf = approach(veh.Xf, target.Xf, veh.Speed)
	case veh.Yf != target.Yf:
		if target.Yf > veh.Yf {
			veh.Heading = HeadingSouth
		} else {
			veh.Heading = HeadingNorth
		}
		veh.Yf = approach(veh.Yf, target.Yf, veh.Speed)
	default:
		v.arrive(veh, target)
	}
}

func approach(pos, target, speed int32) int32 {
	if target > pos {
		if target-pos <= speed {
			return target
		}
		return pos + speed
	}
	if pos-target <= speed {
		return target
	}
	return pos - speed
}

// arrive pays out the carried cargo, loads fresh cargo and turns the
// vehicle toward the next leg of its circuit.
func (v *Vehicles) arrive(veh *Vehicle, at Station) {
	if veh.Cargo > 0 {
		v.companies.Book(veh.CompanyID, int64(veh.Cargo)*cargoPayoutRate)
	}
	veh.Cargo = v.stations.TakeWaiting(at.ID, vehicleCapacity)
	v.effects.Spawn("steam", float64(at.Xf)/posScale, float64(at.Yf)/posScale, arrivalSteamTicks)
	veh.Leg = (veh.Leg + 1) % len(veh.Route)
}

func (v *Vehicles) UpdateDaily(ctx *sim.Context) sim.Status {
	for i := range v.fleet {
		veh := &v.fleet[i]
		v.companies.Book(veh.CompanyID, -veh.RunCost)
		if !veh.Broken && ctx.State.Rng().NextN(100) < breakdownChance {
			veh.Broken = true
			v.effects.Spawn("smoke", float64(veh.Xf)/posScale, float64(veh.Yf)/posScale, breakdownSmokeTTL)
		}
	}
	return sim.Continue
}

func (v *Vehicles) UpdateMonthly(ctx *sim.Context) sim.Status {
	for i := range v.fleet {
		veh := &v.fleet[i]
		veh.Broken = false
		v.companies.Book(veh.CompanyID, -maintenanceFee)
	}
	return sim.Continue
}

// Order halts or releases the vehicle with the given id. It reports
// whether the vehicle exists.
func (v *Vehicles) Order(id uint64, halt bool) bool {
	for i := range v.fleet {
		veh := &v.fleet[i]
		if veh.ID != id {
			continue
		}
		veh.Halted = halt
		return true
	}
	return false
}

// Get returns the vehicle with the given id.
func (v *Vehicles) Get(id uint64) (Vehicle, bool) {
	for _, veh := range v.fleet {
		if veh.ID == id {
			out := veh
			out.Route = append([]uint32(nil), veh.Route...)
			return out, true
		}
	}
	return Vehicle{}, false
}

// Transforms converts the fixed-point fleet poses into render space.
func (v *Vehicles) Transforms() map[uint64]sim.Transform {
	out := make(map[uint64]sim.Transform, len(v.fleet))
	for i := range v.fleet {
		veh := &v.fleet[i]
		out[veh.ID] = sim.Transform{
			X:        float64(veh.Xf) / posScale,
			Y:        float64(veh.Yf) / posScale,
			Rotation: headingAngles[veh.Heading%4],
		}
	}
	return out
}

func (v *Vehicles) count() int { return len(v.fleet) }

func (v *Vehicles) generate(cfg Config, prng *rng.Prng) {
	v.fleet = make([]Vehicle, 0, cfg.Vehicles)
	for i := 0; i < cfg.Vehicles; i++ {
		from := uint32(i%v.stations.count() + 1)
		hop := 1 + int(prng.NextN(uint32(v.stations.count()-1)))
		to := uint32((i+hop)%v.stations.count() + 1)
		home, _ := v.stations.Get(from)
		v.fleet = append(v.fleet, Vehicle{
			ID:        uint64(i + 1),
			Name:      vehicleModels[i%len(vehicleModels)],
			CompanyID: uint32(i%v.companies.count() + 1),
			Xf:        home.Xf,
			Yf:        home.Yf,
			Speed:     96 + int32(prng.NextN(160)),
			Route:     []uint32{from, to},
			RunCost:   int64(12 + prng.NextN(10)),
		})
	}
}

func (v *Vehicles) snapshot() []Vehicle {
	out := make([]Vehicle, len(v.fleet))
	for i := range v.fleet {
		out[i] = v.fleet[i]
		out[i].Route = append([]uint32(nil), v.fleet[i].Route...)
	}
	return out
}

func (v *Vehicles) restore(fleet []Vehicle) {
	v.fleet = make([]Vehicle, len(fleet))
	for i := range fleet {
		v.fleet[i] = fleet[i]
		v.fleet[i].Route = append([]uint32(nil), fleet[i].Route...)
	}
}
