package world

import (
	"testing"

	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/scene"
	"ironhaul/server/internal/sim"
)

// newFleetFixture wires a single vehicle running between two stations
// ten tiles apart on the x axis, with cargo waiting at the far end.
func newFleetFixture() (*Vehicles, *Stations, *Companies, *Effects) {
	industries := newIndustries()
	stations := newStations(industries)
	companies := newCompanies()
	effects := newEffects()
	v := newVehicles(stations, companies, effects)

	stations.stations = []Station{
		{ID: 1, Name: "Eisenford Central", Xf: 0, Yf: 0, Rating: 50},
		{ID: 2, Name: "Grauberg Harbor", Xf: 10 * posScale, Yf: 0, Waiting: 100, Rating: 50},
	}
	companies.companies = []Company{{ID: 1, Name: "Iron Haul Co.", Cash: 1000}}
	v.fleet = []Vehicle{{
		ID:        1,
		Name:      "2-6-0 Mogul",
		CompanyID: 1,
		Speed:     2 * posScale,
		Route:     []uint32{1, 2},
		Leg:       1,
		RunCost:   12,
	}}
	return v, stations, companies, effects
}

func testContext() *sim.Context {
	return &sim.Context{State: gamestate.New(), Scene: scene.NewManager()}
}

func TestVehicleRunsItsCircuit(t *testing.T) {
	v, stations, companies, effects := newFleetFixture()
	ctx := testContext()

	for i := 0; i < 5; i++ {
		v.Update(ctx)
	}
	veh, ok := v.Get(1)
	if !ok {
		t.Fatalf("expected vehicle 1 to exist")
	}
	if veh.Xf != 10*posScale {
		t.Fatalf("expected vehicle at x=%d after 5 ticks, got %d", 10*posScale, veh.Xf)
	}
	if veh.Heading != HeadingEast {
		t.Fatalf("expected east heading, got %d", veh.Heading)
	}
	if veh.Cargo != 0 {
		t.Fatalf("expected empty vehicle in transit, got %d cargo", veh.Cargo)
	}

	v.Update(ctx)
	veh, _ = v.Get(1)
	if veh.Cargo != vehicleCapacity {
		t.Fatalf("expected %d cargo loaded on arrival, got %d", vehicleCapacity, veh.Cargo)
	}
	if veh.Leg != 0 {
		t.Fatalf("expected vehicle turned toward leg 0, got %d", veh.Leg)
	}
	if st, _ := stations.Get(2); st.Waiting != 60 {
		t.Fatalf("expected 60 units left waiting, got %d", st.Waiting)
	}
	fx := effects.Active()
	if len(fx) != 1 || fx[0].Kind != "steam" {
		t.Fatalf("expected one steam cue after arrival, got %+v", fx)
	}

	for i := 0; i < 6; i++ {
		v.Update(ctx)
	}
	veh, _ = v.Get(1)
	if veh.Xf != 0 || veh.Cargo != 0 {
		t.Fatalf("expected empty vehicle back at origin, got x=%d cargo=%d", veh.Xf, veh.Cargo)
	}
	if veh.Heading != HeadingWest {
		t.Fatalf("expected west heading on the return leg, got %d", veh.Heading)
	}

	companies.Update(ctx)
	co, _ := companies.Get(1)
	want := int64(1000) + int64(vehicleCapacity)*cargoPayoutRate
	if co.Cash != want {
		t.Fatalf("expected cash %d after delivery payout, got %d", want, co.Cash)
	}
}

func TestOrderHaltsAndReleases(t *testing.T) {
	v, _, _, _ := newFleetFixture()
	ctx := testContext()

	if !v.Order(1, true) {
		t.Fatalf("expected order against existing vehicle to succeed")
	}
	v.Update(ctx)
	if veh, _ := v.Get(1); veh.Xf != 0 {
		t.Fatalf("expected halted vehicle to stand, got x=%d", veh.Xf)
	}

	if !v.Order(1, false) {
		t.Fatalf("expected release order to succeed")
	}
	v.Update(ctx)
	if veh, _ := v.Get(1); veh.Xf != 2*posScale {
		t.Fatalf("expected released vehicle to move, got x=%d", veh.Xf)
	}

	if v.Order(99, true) {
		t.Fatalf("expected order against unknown vehicle to fail")
	}
}

func TestBreakdownAndMonthlyService(t *testing.T) {
	v, _, companies, effects := newFleetFixture()
	state := gamestate.New()
	state.Reset(1900, 1)
	ctx := &sim.Context{State: state, Scene: scene.NewManager()}

	days := 0
	for i := 0; i < 100; i++ {
		v.UpdateDaily(ctx)
		days++
		if veh, _ := v.Get(1); veh.Broken {
			break
		}
	}
	veh, _ := v.Get(1)
	if !veh.Broken {
		t.Fatalf("expected a breakdown within 100 days")
	}
	if days != 8 {
		t.Fatalf("expected the breakdown on day 8 for this seed, got day %d", days)
	}

	smoke := false
	for _, fx := range effects.Active() {
		if fx.Kind == "smoke" {
			smoke = true
		}
	}
	if !smoke {
		t.Fatalf("expected a smoke cue for the breakdown")
	}

	v.Update(ctx)
	if got, _ := v.Get(1); got.Xf != 0 {
		t.Fatalf("expected broken vehicle to stand, got x=%d", got.Xf)
	}

	companies.Update(ctx)
	co, _ := companies.Get(1)
	if co.Cash != 1000-int64(days)*12 {
		t.Fatalf("expected cash %d after %d days of run costs, got %d", 1000-int64(days)*12, days, co.Cash)
	}

	v.UpdateMonthly(ctx)
	if got, _ := v.Get(1); got.Broken {
		t.Fatalf("expected monthly service to clear the breakdown")
	}
	companies.Update(ctx)
	co, _ = companies.Get(1)
	if co.Cash != 1000-int64(days)*12-maintenanceFee {
		t.Fatalf("expected maintenance fee booked, got cash %d", co.Cash)
	}
}

func TestApproachClampsAtTarget(t *testing.T) {
	cases := []struct {
		name               string
		pos, target, speed int32
		want               int32
	}{
		{"forward", 0, 100, 30, 30},
		{"forward snap", 90, 100, 30, 100},
		{"backward", 100, 0, 30, 70},
		{"backward snap", 10, 0, 30, 0},
		{"at target", 5, 5, 30, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := approach(tc.pos, tc.target, tc.speed); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestTransformsUseRenderScale(t *testing.T) {
	v, _, _, _ := newFleetFixture()
	v.fleet[0].Xf = 10 * posScale
	v.fleet[0].Yf = 3 * posScale
	v.fleet[0].Heading = HeadingWest

	poses := v.Transforms()
	pose, ok := poses[1]
	if !ok {
		t.Fatalf("expected a pose for vehicle 1")
	}
	if pose.X != 10 || pose.Y != 3 {
		t.Fatalf("expected pose at (10, 3), got (%v, %v)", pose.X, pose.Y)
	}
	if pose.Rotation != 180 {
		t.Fatalf("expected westward rotation 180, got %v", pose.Rotation)
	}
}
