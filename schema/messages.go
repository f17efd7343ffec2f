// Author: momentics <momentics@gmail.com>
//
// Accessor types for the message catalog. Each mirrors a flatbuffers
// table from the original schema closely enough to carry the fields
// the core and example agent actually touch; fields the core never
// inspects (cosmetics, full physics state) are intentionally omitted —
// the wire payload is still opaque to everything but the owning
// Payload implementation.

package schema

// Vector3 is a minimal 3D vector, used by the GamePacket, BallPrediction
// and DesiredGameState payloads.
type Vector3 struct {
	X, Y, Z float32
}

// ControllerState is one tick's worth of car input.
type ControllerState struct {
	Throttle   float32
	Steer      float32
	Pitch      float32
	Yaw        float32
	Roll       float32
	Jump       bool
	Boost      bool
	Handbrake  bool
	UseItem    bool
}

func (c *ControllerState) marshal(e *encoder) {
	e.f32(c.Throttle)
	e.f32(c.Steer)
	e.f32(c.Pitch)
	e.f32(c.Yaw)
	e.f32(c.Roll)
	e.bool(c.Jump)
	e.bool(c.Boost)
	e.bool(c.Handbrake)
	e.bool(c.UseItem)
}

func (c *ControllerState) unmarshal(d *decoder) (err error) {
	if c.Throttle, err = d.f32(); err != nil {
		return err
	}
	if c.Steer, err = d.f32(); err != nil {
		return err
	}
	if c.Pitch, err = d.f32(); err != nil {
		return err
	}
	if c.Yaw, err = d.f32(); err != nil {
		return err
	}
	if c.Roll, err = d.f32(); err != nil {
		return err
	}
	if c.Jump, err = d.boolean(); err != nil {
		return err
	}
	if c.Boost, err = d.boolean(); err != nil {
		return err
	}
	if c.Handbrake, err = d.boolean(); err != nil {
		return err
	}
	if c.UseItem, err = d.boolean(); err != nil {
		return err
	}
	return nil
}

// PlayerState is one player's physics snapshot (location and velocity)
// within a GamePacketPayload.
type PlayerState struct {
	Location Vector3
	Velocity Vector3
}

// GamePacketPayload is the per-tick world snapshot.
type GamePacketPayload struct {
	Ball    Vector3
	Players []PlayerState
}

func (p *GamePacketPayload) Type() MessageType { return GamePacket }

func (p *GamePacketPayload) Marshal() []byte {
	e := &encoder{}
	e.f32(p.Ball.X)
	e.f32(p.Ball.Y)
	e.f32(p.Ball.Z)
	e.u32(uint32(len(p.Players)))
	for _, pl := range p.Players {
		e.f32(pl.Location.X)
		e.f32(pl.Location.Y)
		e.f32(pl.Location.Z)
		e.f32(pl.Velocity.X)
		e.f32(pl.Velocity.Y)
		e.f32(pl.Velocity.Z)
	}
	return e.buf
}

func (p *GamePacketPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	if p.Ball.X, err = d.f32(); err != nil {
		return err
	}
	if p.Ball.Y, err = d.f32(); err != nil {
		return err
	}
	if p.Ball.Z, err = d.f32(); err != nil {
		return err
	}
	n, err := d.u32()
	if err != nil {
		return err
	}
	p.Players = make([]PlayerState, n)
	for i := range p.Players {
		pl := &p.Players[i]
		if pl.Location.X, err = d.f32(); err != nil {
			return err
		}
		if pl.Location.Y, err = d.f32(); err != nil {
			return err
		}
		if pl.Location.Z, err = d.f32(); err != nil {
			return err
		}
		if pl.Velocity.X, err = d.f32(); err != nil {
			return err
		}
		if pl.Velocity.Y, err = d.f32(); err != nil {
			return err
		}
		if pl.Velocity.Z, err = d.f32(); err != nil {
			return err
		}
	}
	return nil
}

// FieldInfoPayload carries static field geometry. The core treats it as
// opaque beyond storing it for the agent; no fields are consumed by the
// framework itself.
type FieldInfoPayload struct {
	Raw []byte
}

func (p *FieldInfoPayload) Type() MessageType    { return FieldInfo }
func (p *FieldInfoPayload) Marshal() []byte      { return append([]byte(nil), p.Raw...) }
func (p *FieldInfoPayload) Unmarshal(b []byte) error {
	p.Raw = append([]byte(nil), b...)
	return nil
}

// PlayerVariety distinguishes a human, a Psyonix bot, a custom bot, or
// a party member within MatchConfiguration.
type PlayerVariety uint8

const (
	VarietyHuman PlayerVariety = iota
	VarietyPsyonix
	VarietyCustomBot
	VarietyPartyMember
)

// PlayerConfiguration is one entry in MatchConfiguration's player list.
type PlayerConfiguration struct {
	SpawnID int32
	Team    uint8
	Name    string
	Variety PlayerVariety
	AgentID string
	Hivemind bool
}

// MatchConfigurationPayload carries match rules and the player list.
type MatchConfigurationPayload struct {
	EnableRendering    bool
	EnableStateSetting bool
	Players            []PlayerConfiguration
}

func (p *MatchConfigurationPayload) Type() MessageType { return MatchConfiguration }

func (p *MatchConfigurationPayload) Marshal() []byte {
	e := &encoder{}
	e.bool(p.EnableRendering)
	e.bool(p.EnableStateSetting)
	e.u32(uint32(len(p.Players)))
	for _, pc := range p.Players {
		e.i32(pc.SpawnID)
		e.u8(pc.Team)
		e.str(pc.Name)
		e.u8(uint8(pc.Variety))
		e.str(pc.AgentID)
		e.bool(pc.Hivemind)
	}
	return e.buf
}

func (p *MatchConfigurationPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	if p.EnableRendering, err = d.boolean(); err != nil {
		return err
	}
	if p.EnableStateSetting, err = d.boolean(); err != nil {
		return err
	}
	n, err := d.u32()
	if err != nil {
		return err
	}
	p.Players = make([]PlayerConfiguration, n)
	for i := range p.Players {
		pc := &p.Players[i]
		if pc.SpawnID, err = d.i32(); err != nil {
			return err
		}
		team, err := d.u8()
		if err != nil {
			return err
		}
		pc.Team = team
		if pc.Name, err = d.str(); err != nil {
			return err
		}
		variety, err := d.u8()
		if err != nil {
			return err
		}
		pc.Variety = PlayerVariety(variety)
		if pc.AgentID, err = d.str(); err != nil {
			return err
		}
		if pc.Hivemind, err = d.boolean(); err != nil {
			return err
		}
	}
	return nil
}

// Controllable names a {index, spawn_id} entry this connection is
// responsible for.
type Controllable struct {
	Index   uint32
	SpawnID int32
}

// ControllableTeamInfoPayload names which players this connection
// controls.
type ControllableTeamInfoPayload struct {
	Team          uint8
	Controllables []Controllable
}

func (p *ControllableTeamInfoPayload) Type() MessageType { return ControllableTeamInfo }

func (p *ControllableTeamInfoPayload) Marshal() []byte {
	e := &encoder{}
	e.u8(p.Team)
	e.u32(uint32(len(p.Controllables)))
	for _, c := range p.Controllables {
		e.u32(c.Index)
		e.i32(c.SpawnID)
	}
	return e.buf
}

func (p *ControllableTeamInfoPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	team, err := d.u8()
	if err != nil {
		return err
	}
	p.Team = team
	n, err := d.u32()
	if err != nil {
		return err
	}
	p.Controllables = make([]Controllable, n)
	for i := range p.Controllables {
		if p.Controllables[i].Index, err = d.u32(); err != nil {
			return err
		}
		if p.Controllables[i].SpawnID, err = d.i32(); err != nil {
			return err
		}
	}
	return nil
}

// MatchCommPayload is an inter-agent message.
type MatchCommPayload struct {
	Index    uint32
	Team     uint8
	TeamOnly bool
	Display  string
	Content  []byte
}

func (p *MatchCommPayload) Type() MessageType { return MatchComm }

func (p *MatchCommPayload) Marshal() []byte {
	e := &encoder{}
	e.u32(p.Index)
	e.u8(p.Team)
	e.bool(p.TeamOnly)
	e.str(p.Display)
	e.bytes(p.Content)
	return e.buf
}

func (p *MatchCommPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	if p.Index, err = d.u32(); err != nil {
		return err
	}
	if p.Team, err = d.u8(); err != nil {
		return err
	}
	if p.TeamOnly, err = d.boolean(); err != nil {
		return err
	}
	if p.Display, err = d.str(); err != nil {
		return err
	}
	if p.Content, err = d.bytes(); err != nil {
		return err
	}
	return nil
}

// BallPredictionPayload carries trajectory slices.
type BallPredictionPayload struct {
	Slices []Vector3
}

func (p *BallPredictionPayload) Type() MessageType { return BallPrediction }

func (p *BallPredictionPayload) Marshal() []byte {
	e := &encoder{}
	e.u32(uint32(len(p.Slices)))
	for _, s := range p.Slices {
		e.f32(s.X)
		e.f32(s.Y)
		e.f32(s.Z)
	}
	return e.buf
}

func (p *BallPredictionPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	n, err := d.u32()
	if err != nil {
		return err
	}
	p.Slices = make([]Vector3, n)
	for i := range p.Slices {
		if p.Slices[i].X, err = d.f32(); err != nil {
			return err
		}
		if p.Slices[i].Y, err = d.f32(); err != nil {
			return err
		}
		if p.Slices[i].Z, err = d.f32(); err != nil {
			return err
		}
	}
	return nil
}

// PlayerInputPayload is one tick's outbound control state for one
// player index.
type PlayerInputPayload struct {
	PlayerIndex uint32
	Controller  ControllerState
}

func (p *PlayerInputPayload) Type() MessageType { return PlayerInput }

func (p *PlayerInputPayload) Marshal() []byte {
	e := &encoder{}
	e.u32(p.PlayerIndex)
	p.Controller.marshal(e)
	return e.buf
}

func (p *PlayerInputPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	if p.PlayerIndex, err = d.u32(); err != nil {
		return err
	}
	return p.Controller.unmarshal(d)
}

// PlayerLoadout is the cosmetic loadout for one controlled player.
type PlayerLoadout struct {
	CarID int32
}

// SetLoadoutPayload assigns a loadout to one controlled index.
type SetLoadoutPayload struct {
	Index   uint32
	Loadout PlayerLoadout
}

func (p *SetLoadoutPayload) Type() MessageType { return SetLoadout }
func (p *SetLoadoutPayload) Marshal() []byte {
	e := &encoder{}
	e.u32(p.Index)
	e.i32(p.Loadout.CarID)
	return e.buf
}
func (p *SetLoadoutPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	if p.Index, err = d.u32(); err != nil {
		return err
	}
	p.Loadout.CarID, err = d.i32()
	return err
}

// DesiredGameStatePayload requests a state-setting mutation; suppressed
// entirely when the match configuration disables state setting.
type DesiredGameStatePayload struct {
	BallLocation *Vector3
}

func (p *DesiredGameStatePayload) Type() MessageType { return DesiredGameState }
func (p *DesiredGameStatePayload) Marshal() []byte {
	e := &encoder{}
	e.bool(p.BallLocation != nil)
	if p.BallLocation != nil {
		e.f32(p.BallLocation.X)
		e.f32(p.BallLocation.Y)
		e.f32(p.BallLocation.Z)
	}
	return e.buf
}
func (p *DesiredGameStatePayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	has, err := d.boolean()
	if err != nil {
		return err
	}
	if !has {
		p.BallLocation = nil
		return nil
	}
	v := &Vector3{}
	if v.X, err = d.f32(); err != nil {
		return err
	}
	if v.Y, err = d.f32(); err != nil {
		return err
	}
	if v.Z, err = d.f32(); err != nil {
		return err
	}
	p.BallLocation = v
	return nil
}

// RenderMessage is one draw primitive within a render group.
type RenderMessage struct {
	Text string
}

// RenderGroupPayload replaces the contents of one render group. An
// empty Messages slice is an explicit "remove this group" request.
type RenderGroupPayload struct {
	GroupID  int32
	Messages []RenderMessage
}

func (p *RenderGroupPayload) Type() MessageType { return RenderGroup }
func (p *RenderGroupPayload) Marshal() []byte {
	e := &encoder{}
	e.i32(p.GroupID)
	e.u32(uint32(len(p.Messages)))
	for _, m := range p.Messages {
		e.str(m.Text)
	}
	return e.buf
}
func (p *RenderGroupPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	if p.GroupID, err = d.i32(); err != nil {
		return err
	}
	n, err := d.u32()
	if err != nil {
		return err
	}
	p.Messages = make([]RenderMessage, n)
	for i := range p.Messages {
		if p.Messages[i].Text, err = d.str(); err != nil {
			return err
		}
	}
	return nil
}

// RemoveRenderGroupPayload removes a previously-sent render group.
type RemoveRenderGroupPayload struct {
	GroupID int32
}

func (p *RemoveRenderGroupPayload) Type() MessageType { return RemoveRenderGroup }
func (p *RemoveRenderGroupPayload) Marshal() []byte {
	e := &encoder{}
	e.i32(p.GroupID)
	return e.buf
}
func (p *RemoveRenderGroupPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	p.GroupID, err = d.i32()
	return err
}

// ConnectionSettingsPayload is sent once after connect.
type ConnectionSettingsPayload struct {
	AgentID             string
	WantBallPredictions bool
	WantComms           bool
	CloseBetweenMatches bool
}

func (p *ConnectionSettingsPayload) Type() MessageType { return ConnectionSettings }
func (p *ConnectionSettingsPayload) Marshal() []byte {
	e := &encoder{}
	e.str(p.AgentID)
	e.bool(p.WantBallPredictions)
	e.bool(p.WantComms)
	e.bool(p.CloseBetweenMatches)
	return e.buf
}
func (p *ConnectionSettingsPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	if p.AgentID, err = d.str(); err != nil {
		return err
	}
	if p.WantBallPredictions, err = d.boolean(); err != nil {
		return err
	}
	if p.WantComms, err = d.boolean(); err != nil {
		return err
	}
	p.CloseBetweenMatches, err = d.boolean()
	return err
}

// StartCommandPayload requests the coordinator to start a configured
// match.
type StartCommandPayload struct {
	ConfigPath string
}

func (p *StartCommandPayload) Type() MessageType   { return StartCommand }
func (p *StartCommandPayload) Marshal() []byte {
	e := &encoder{}
	e.str(p.ConfigPath)
	return e.buf
}
func (p *StartCommandPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	p.ConfigPath, err = d.str()
	return err
}

// StopCommandPayload requests the current match to stop.
type StopCommandPayload struct {
	ShutdownServer bool
}

func (p *StopCommandPayload) Type() MessageType { return StopCommand }
func (p *StopCommandPayload) Marshal() []byte {
	e := &encoder{}
	e.bool(p.ShutdownServer)
	return e.buf
}
func (p *StopCommandPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	p.ShutdownServer, err = d.boolean()
	return err
}

// InitCompletePayload marks all workers as initialized.
type InitCompletePayload struct{}

func (p *InitCompletePayload) Type() MessageType       { return InitComplete }
func (p *InitCompletePayload) Marshal() []byte         { return nil }
func (p *InitCompletePayload) Unmarshal([]byte) error  { return nil }

// DisconnectSignalPayload is the "no message"/terminate sentinel.
type DisconnectSignalPayload struct{}

func (p *DisconnectSignalPayload) Type() MessageType      { return DisconnectSignal }
func (p *DisconnectSignalPayload) Marshal() []byte        { return nil }
func (p *DisconnectSignalPayload) Unmarshal([]byte) error { return nil }

// RenderingStatusPayload reports whether rendering is currently
// permitted by the coordinator.
type RenderingStatusPayload struct {
	Enabled bool
}

func (p *RenderingStatusPayload) Type() MessageType { return RenderingStatus }
func (p *RenderingStatusPayload) Marshal() []byte {
	e := &encoder{}
	e.bool(p.Enabled)
	return e.buf
}
func (p *RenderingStatusPayload) Unmarshal(b []byte) error {
	d := &decoder{buf: b}
	var err error
	p.Enabled, err = d.boolean()
	return err
}

// MatchConfigurationEchoPayload is the MatchConfiguration sent outbound
// by the match-launch helper; same wire shape as MatchConfigurationPayload.
type MatchConfigurationEchoPayload = MatchConfigurationPayload

// New constructs a zero-value Payload for a given wire type, or nil if
// the type is unrecognized. Used by the frame/message decode path.
func New(t MessageType) Payload {
	switch t {
	case GamePacket:
		return &GamePacketPayload{}
	case FieldInfo:
		return &FieldInfoPayload{}
	case StartCommand:
		return &StartCommandPayload{}
	case MatchConfiguration:
		return &MatchConfigurationPayload{}
	case PlayerInput:
		return &PlayerInputPayload{}
	case DesiredGameState:
		return &DesiredGameStatePayload{}
	case RenderGroup:
		return &RenderGroupPayload{}
	case RemoveRenderGroup:
		return &RemoveRenderGroupPayload{}
	case MatchComm:
		return &MatchCommPayload{}
	case BallPrediction:
		return &BallPredictionPayload{}
	case ConnectionSettings:
		return &ConnectionSettingsPayload{}
	case StopCommand:
		return &StopCommandPayload{}
	case SetLoadout:
		return &SetLoadoutPayload{}
	case InitComplete:
		return &InitCompletePayload{}
	case ControllableTeamInfo:
		return &ControllableTeamInfoPayload{}
	case DisconnectSignal:
		return &DisconnectSignalPayload{}
	case RenderingStatus:
		return &RenderingStatusPayload{}
	default:
		return nil
	}
}
