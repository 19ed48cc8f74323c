// Package proto defines the websocket wire frames exchanged between a
// lockstep host and its peers.
package proto

import (
	"encoding/json"
	"fmt"

	"ironhaul/server/internal/scene"
	"ironhaul/server/internal/sim"
)

const (
	// Version tracks the wire-protocol revision expected by peers.
	Version = 1

	// Type identifiers for websocket payloads.
	typeJoinAck       = "joinAck"
	typeTickConfirm   = "tickConfirm"
	typeCommandAck    = "commandAck"
	typeCommandReject = "commandReject"
	typeHeartbeat     = "heartbeat"
)

// Client message type identifiers.
const (
	TypePause        = "pause"
	TypeSpeed        = "speed"
	TypeOrderVehicle = "orderVehicle"
	TypeLoadScenario = "loadScenario"
	TypeHeartbeat    = "heartbeat"
)

// Exported aliases for outbound message type identifiers.
const (
	TypeJoinAck       = typeJoinAck
	TypeTickConfirm   = typeTickConfirm
	TypeCommandAck    = typeCommandAck
	TypeCommandReject = typeCommandReject
)

// ClientMessage captures an inbound websocket message from a peer.
type ClientMessage struct {
	Ver        int     `json:"ver,omitempty"`
	Type       string  `json:"type"`
	Paused     *bool   `json:"paused,omitempty"`
	Speed      *int    `json:"speed,omitempty"`
	VehicleID  uint64  `json:"vehicleId,omitempty"`
	Halt       bool    `json:"halt,omitempty"`
	Scenario   string  `json:"scenario,omitempty"`
	SentAt     int64   `json:"sentAt"`
	CommandSeq *uint64 `json:"seq,omitempty"`
}

// DecodeClientMessage converts raw websocket payloads into a structured message.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	return msg, nil
}

// ClientCommand captures the structured simulation command carried by a
// websocket message. Scheduling metadata is stamped by the host when the
// command is accepted for processing.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case TypePause:
		if msg.Paused == nil {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:     sim.CommandSetPause,
			SetPause: &sim.SetPauseCommand{Paused: *msg.Paused},
		}, true
	case TypeSpeed:
		if msg.Speed == nil {
			return sim.Command{}, false
		}
		speed := *msg.Speed
		if speed < int(scene.SpeedNormal) || speed > int(scene.SpeedExtraFast) {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:     sim.CommandSetSpeed,
			SetSpeed: &sim.SetSpeedCommand{Speed: uint8(speed)},
		}, true
	case TypeOrderVehicle:
		if msg.VehicleID == 0 {
			return sim.Command{}, false
		}
		return sim.Command{
			Type: sim.CommandOrderVehicle,
			OrderVehicle: &sim.OrderVehicleCommand{
				VehicleID: msg.VehicleID,
				Halt:      msg.Halt,
			},
		}, true
	case TypeLoadScenario:
		if msg.Scenario == "" {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:         sim.CommandLoadScenario,
			LoadScenario: &sim.LoadScenarioCommand{Path: msg.Scenario},
		}, true
	default:
		return sim.Command{}, false
	}
}

// EncodeClientCommand renders the websocket frame for a locally issued
// command. It is the inverse of ClientCommand.
func EncodeClientCommand(seq uint64, cmd sim.Command) ([]byte, error) {
	frame := ClientMessage{Ver: Version, CommandSeq: &seq}
	switch cmd.Type {
	case sim.CommandSetPause:
		if cmd.SetPause == nil {
			return nil, fmt.Errorf("pause command missing payload")
		}
		paused := cmd.SetPause.Paused
		frame.Type = TypePause
		frame.Paused = &paused
	case sim.CommandSetSpeed:
		if cmd.SetSpeed == nil {
			return nil, fmt.Errorf("speed command missing payload")
		}
		speed := int(cmd.SetSpeed.Speed)
		frame.Type = TypeSpeed
		frame.Speed = &speed
	case sim.CommandOrderVehicle:
		if cmd.OrderVehicle == nil {
			return nil, fmt.Errorf("order-vehicle command missing payload")
		}
		frame.Type = TypeOrderVehicle
		frame.VehicleID = cmd.OrderVehicle.VehicleID
		frame.Halt = cmd.OrderVehicle.Halt
	case sim.CommandLoadScenario:
		if cmd.LoadScenario == nil {
			return nil, fmt.Errorf("load-scenario command missing payload")
		}
		frame.Type = TypeLoadScenario
		frame.Scenario = cmd.LoadScenario.Path
	default:
		return nil, fmt.Errorf("unsupported command type %q", cmd.Type)
	}
	return json.Marshal(frame)
}

// EncodeClientHeartbeat renders the keepalive frame a peer sends.
func EncodeClientHeartbeat(sentAt int64) ([]byte, error) {
	return json.Marshal(ClientMessage{Ver: Version, Type: TypeHeartbeat, SentAt: sentAt})
}

// JoinAck welcomes a session and reports the authoritative tick it
// must synchronize to.
type JoinAck struct {
	SessionID string
	Tick      uint32
	Scenario  string
}

// EncodeJoinAck renders the session welcome payload.
func EncodeJoinAck(msg JoinAck) ([]byte, error) {
	frame := struct {
		Ver       int    `json:"ver"`
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		Tick      uint32 `json:"t"`
		Scenario  string `json:"scenario,omitempty"`
	}{
		Ver:       Version,
		Type:      typeJoinAck,
		SessionID: msg.SessionID,
		Tick:      msg.Tick,
		Scenario:  msg.Scenario,
	}
	return json.Marshal(frame)
}

// TickConfirm publishes the command batch the authority fixed for a
// tick. An empty batch still opens the receivers' gate for that tick.
type TickConfirm struct {
	Tick     uint32
	Commands []sim.Command
}

// EncodeTickConfirm renders a tick confirmation payload.
func EncodeTickConfirm(msg TickConfirm) ([]byte, error) {
	frame := struct {
		Ver      int           `json:"ver"`
		Type     string        `json:"type"`
		Tick     uint32        `json:"t"`
		Commands []sim.Command `json:"commands,omitempty"`
	}{
		Ver:      Version,
		Type:     typeTickConfirm,
		Tick:     msg.Tick,
		Commands: msg.Commands,
	}
	return json.Marshal(frame)
}

// CommandAck describes an acknowledgement of an accepted command.
type CommandAck struct {
	Seq  uint64
	Tick uint32
}

// EncodeCommandAck renders a command acknowledgement response.
func EncodeCommandAck(msg CommandAck) ([]byte, error) {
	frame := struct {
		Ver  int    `json:"ver"`
		Type string `json:"type"`
		Seq  uint64 `json:"seq"`
		Tick uint32 `json:"tick,omitempty"`
	}{
		Ver:  Version,
		Type: typeCommandAck,
		Seq:  msg.Seq,
	}
	if msg.Tick > 0 {
		frame.Tick = msg.Tick
	}
	return json.Marshal(frame)
}

// CommandReject notifies the peer that a command was refused.
type CommandReject struct {
	Seq    uint64
	Reason string
	Retry  bool
	Tick   uint32
}

// EncodeCommandReject renders a command rejection response.
func EncodeCommandReject(msg CommandReject) ([]byte, error) {
	frame := struct {
		Ver    int    `json:"ver"`
		Type   string `json:"type"`
		Seq    uint64 `json:"seq"`
		Reason string `json:"reason"`
		Retry  bool   `json:"retry,omitempty"`
		Tick   uint32 `json:"tick,omitempty"`
	}{
		Ver:    Version,
		Type:   typeCommandReject,
		Seq:    msg.Seq,
		Reason: msg.Reason,
	}
	if msg.Retry {
		frame.Retry = true
	}
	if msg.Tick > 0 {
		frame.Tick = msg.Tick
	}
	return json.Marshal(frame)
}

// Heartbeat echoes timing metadata back to the peer.
type Heartbeat struct {
	ServerTime int64
	ClientTime int64
	RTTMillis  int64
}

// EncodeHeartbeat renders a heartbeat acknowledgement payload.
func EncodeHeartbeat(msg Heartbeat) ([]byte, error) {
	frame := struct {
		Ver        int    `json:"ver"`
		Type       string `json:"type"`
		ServerTime int64  `json:"serverTime"`
		ClientTime int64  `json:"clientTime"`
		RTTMillis  int64  `json:"rtt"`
	}{
		Ver:        Version,
		Type:       typeHeartbeat,
		ServerTime: msg.ServerTime,
		ClientTime: msg.ClientTime,
		RTTMillis:  msg.RTTMillis,
	}
	return json.Marshal(frame)
}

// ServerMessage captures an inbound websocket message on the peer
// side. Tick confirmations carry the tick under "t"; command
// acknowledgements carry theirs under "tick".
type ServerMessage struct {
	Ver        int           `json:"ver,omitempty"`
	Type       string        `json:"type"`
	SessionID  string        `json:"sessionId,omitempty"`
	Tick       uint32        `json:"t,omitempty"`
	AckTick    uint32        `json:"tick,omitempty"`
	Commands   []sim.Command `json:"commands,omitempty"`
	Seq        uint64        `json:"seq,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Retry      bool          `json:"retry,omitempty"`
	Scenario   string        `json:"scenario,omitempty"`
	ServerTime int64         `json:"serverTime,omitempty"`
	ClientTime int64         `json:"clientTime,omitempty"`
	RTTMillis  int64         `json:"rtt,omitempty"`
}

// DecodeServerMessage converts raw websocket payloads into a structured message.
func DecodeServerMessage(payload []byte) (ServerMessage, error) {
	var msg ServerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, err
	}
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported server protocol version %d", msg.Ver)
	}
	return msg, nil
}
