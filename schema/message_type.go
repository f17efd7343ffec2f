// Package schema
// Author: momentics <momentics@gmail.com>
//
// A real deployment would generate these accessor types from a
// flatbuffers schema compiler; no such Go runtime is available here,
// so payloads are opaque schema-encoded blobs and this package
// implements the accessor types directly with encoding/binary,
// matching the shape of the frame codec in frame/frame_codec.go.
package schema

// MessageType discriminates the payload schema carried by a frame. The
// wire numbers are an external contract defined by the schema
// compiler, not a Go enum ordering concern — this ordering mirrors the
// original library's rlbot::detail::MessageType.
type MessageType uint16

const (
	None MessageType = iota
	GamePacket
	FieldInfo
	StartCommand
	MatchConfiguration
	PlayerInput
	DesiredGameState
	RenderGroup
	RemoveRenderGroup
	MatchComm
	BallPrediction
	ConnectionSettings
	StopCommand
	SetLoadout
	InitComplete
	ControllableTeamInfo
	DisconnectSignal
	RenderingStatus
)

func (t MessageType) String() string {
	switch t {
	case None:
		return "None"
	case GamePacket:
		return "GamePacket"
	case FieldInfo:
		return "FieldInfo"
	case StartCommand:
		return "StartCommand"
	case MatchConfiguration:
		return "MatchConfiguration"
	case PlayerInput:
		return "PlayerInput"
	case DesiredGameState:
		return "DesiredGameState"
	case RenderGroup:
		return "RenderGroup"
	case RemoveRenderGroup:
		return "RemoveRenderGroup"
	case MatchComm:
		return "MatchComm"
	case BallPrediction:
		return "BallPrediction"
	case ConnectionSettings:
		return "ConnectionSettings"
	case StopCommand:
		return "StopCommand"
	case SetLoadout:
		return "SetLoadout"
	case InitComplete:
		return "InitComplete"
	case ControllableTeamInfo:
		return "ControllableTeamInfo"
	case DisconnectSignal:
		return "DisconnectSignal"
	case RenderingStatus:
		return "RenderingStatus"
	default:
		return "Unknown"
	}
}

// Payload is implemented by every message's accessor type.
type Payload interface {
	// Type returns the wire discriminator for this payload.
	Type() MessageType
	// Marshal encodes the payload body (without the frame header).
	Marshal() []byte
	// Unmarshal decodes the payload body in place.
	Unmarshal([]byte) error
}
