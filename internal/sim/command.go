package sim

import "time"

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandSetPause     CommandType = "SetPause"
	CommandSetSpeed     CommandType = "SetSpeed"
	CommandOrderVehicle CommandType = "OrderVehicle"
	CommandLoadScenario CommandType = "LoadScenario"
)

// SetPauseCommand pauses or resumes the simulation.
type SetPauseCommand struct {
	Paused bool `json:"paused"`
}

// SetSpeedCommand selects the simulation pace.
type SetSpeedCommand struct {
	Speed uint8 `json:"speed"`
}

// OrderVehicleCommand halts or releases a vehicle.
type OrderVehicleCommand struct {
	VehicleID uint64 `json:"vehicleId"`
	Halt      bool   `json:"halt"`
}

// LoadScenarioCommand asks the simulation to load a new scenario. Its
// application aborts the tick in progress.
type LoadScenarioCommand struct {
	Path string `json:"path"`
}

// Command is an intent confirmed by the session authority for a
// specific tick. Peers apply identical command batches in identical
// order, so the struct carries no receive-side metadata that could
// differ between machines.
type Command struct {
	Tick         uint32               `json:"tick"`
	Seq          uint64               `json:"seq"`
	SessionID    string               `json:"sessionId"`
	Type         CommandType          `json:"type"`
	IssuedAt     time.Time            `json:"issuedAt,omitempty"`
	SetPause     *SetPauseCommand     `json:"setPause,omitempty"`
	SetSpeed     *SetSpeedCommand     `json:"setSpeed,omitempty"`
	OrderVehicle *OrderVehicleCommand `json:"orderVehicle,omitempty"`
	LoadScenario *LoadScenarioCommand `json:"loadScenario,omitempty"`
}

// CommandApplier executes a confirmed command against the simulation.
type CommandApplier interface {
	Apply(cmd Command, ctx *Context) Status
}

// CommandApplierFunc adapts a function to the CommandApplier interface.
type CommandApplierFunc func(cmd Command, ctx *Context) Status

// Apply invokes the wrapped function.
func (f CommandApplierFunc) Apply(cmd Command, ctx *Context) Status {
	return f(cmd, ctx)
}
