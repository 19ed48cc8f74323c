package world

import (
	"go.uber.org/zap"

	"ironhaul/server/internal/scene"
	"ironhaul/server/internal/sim"
)

// Dispatcher applies confirmed session commands against the world.
// Malformed or unknown commands are logged and skipped; every peer
// sees the same batch, so skipping is as deterministic as applying.
type Dispatcher struct {
	world *World
}

// Dispatcher returns the command applier for this world.
func (w *World) Dispatcher() *Dispatcher {
	return &Dispatcher{world: w}
}

func (d *Dispatcher) Apply(cmd sim.Command, ctx *sim.Context) sim.Status {
	switch cmd.Type {
	case sim.CommandSetPause:
		if cmd.SetPause == nil {
			return sim.Continue
		}
		ctx.Scene.SetPaused(cmd.SetPause.Paused)
	case sim.CommandSetSpeed:
		if cmd.SetSpeed == nil {
			return sim.Continue
		}
		speed := scene.Speed(cmd.SetSpeed.Speed)
		if speed > scene.SpeedExtraFast {
			d.world.logger.Warn("ignoring out-of-range speed",
				zap.Uint8("speed", cmd.SetSpeed.Speed))
			return sim.Continue
		}
		ctx.Scene.SetSpeed(speed)
	case sim.CommandOrderVehicle:
		if cmd.OrderVehicle == nil {
			return sim.Continue
		}
		if !d.world.vehicles.Order(cmd.OrderVehicle.VehicleID, cmd.OrderVehicle.Halt) {
			d.world.logger.Warn("order for unknown vehicle",
				zap.Uint64("vehicle", cmd.OrderVehicle.VehicleID))
		}
	case sim.CommandLoadScenario:
		if cmd.LoadScenario == nil || cmd.LoadScenario.Path == "" {
			return sim.Continue
		}
		d.world.stageScenario(cmd.LoadScenario.Path)
		return sim.Aborted
	default:
		d.world.logger.Warn("ignoring unknown command",
			zap.String("type", string(cmd.Type)),
			zap.Uint64("seq", cmd.Seq))
	}
	return sim.Continue
}
