// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package agent defines the capability interface a bot implements,
// translating include/rlbot/Bot.h's virtual-method contract into a Go
// interface plus an embeddable Base providing the same queued-output
// bookkeeping the original kept behind a private mutex.
package agent

import (
	"sync"

	"github.com/RLBot/cpp-interface/schema"
)

// Agent is the interface a bot implements. On each worker iteration the
// runtime first calls MatchComm for every pending inbound comm not
// filtered out by self-echo/team-only rules, then, if a GamePacket is
// pending, Update once, then Output for each of the agent's player
// indices that is within the packet's player list.
type Agent interface {
	// Update receives the latest world state. ballPrediction may be nil
	// if the client did not request ball predictions.
	Update(gamePacket *schema.GamePacketPayload, ballPrediction *schema.BallPredictionPayload,
		fieldInfo *schema.FieldInfoPayload, matchConfiguration *schema.MatchConfigurationPayload)

	// Output returns the controller state for player index, called
	// after Update for every index this agent controls that is within
	// the packet's player list.
	Output(index uint32) schema.ControllerState

	// MatchComm is invoked for every match communication addressed to
	// this agent, including ones from other agents in the same runtime.
	MatchComm(comm *schema.MatchCommPayload)

	// Loadout is called once immediately after spawn for each
	// controlled index; ok false means "no preference".
	Loadout(index uint32) (loadout schema.PlayerLoadout, ok bool)
}

// Base implements the queued-output bookkeeping shared by all agents:
// pending match comms, desired game state, and render messages,
// translating Bot's private m_matchComms/m_gameState/m_renderMessages
// plus their accessor methods.
type Base struct {
	Indices map[uint32]struct{}
	Team    uint32
	Name    string

	mu             sync.Mutex
	matchComms     []schema.MatchCommPayload
	gameState      *schema.DesiredGameStatePayload
	renderMessages map[int32][]schema.RenderMessage
}

// NewBase constructs a Base for the given controlled indices and team.
func NewBase(indices map[uint32]struct{}, team uint32, name string) *Base {
	return &Base{Indices: indices, Team: team, Name: name}
}

// Output provides a default of the zero ControllerState; agents that
// track per-index outputs directly should override this.
func (b *Base) Output(uint32) schema.ControllerState { return schema.ControllerState{} }

// MatchComm's default implementation ignores incoming comms.
func (b *Base) MatchComm(*schema.MatchCommPayload) {}

// Loadout's default expresses no preference.
func (b *Base) Loadout(uint32) (schema.PlayerLoadout, bool) { return schema.PlayerLoadout{}, false }

// SendMatchComm queues a comm to be flushed by the worker after Output.
func (b *Base) SendMatchComm(index uint32, display string, data []byte, teamOnly bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.matchComms = append(b.matchComms, schema.MatchCommPayload{
		Index:    index,
		Team:     uint8(b.Team),
		TeamOnly: teamOnly,
		Display:  display,
		Content:  data,
	})
}

// SendDesiredGameState queues a desired game state, overwriting any
// unflushed one, matching the original's std::optional single-slot.
func (b *Base) SendDesiredGameState(state schema.DesiredGameStatePayload) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := state
	b.gameState = &s
}

// SendRenderMessage appends a render message to the named group.
func (b *Base) SendRenderMessage(group int32, msg schema.RenderMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.renderMessages == nil {
		b.renderMessages = make(map[int32][]schema.RenderMessage)
	}
	b.renderMessages[group] = append(b.renderMessages[group], msg)
}

// ClearRenderGroup queues an empty message list for group, which the
// worker translates into a remove-group frame per spec.
func (b *Base) ClearRenderGroup(group int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.renderMessages == nil {
		b.renderMessages = make(map[int32][]schema.RenderMessage)
	}
	b.renderMessages[group] = []schema.RenderMessage{}
}

// TakeMatchComms drains and returns pending match comms.
func (b *Base) TakeMatchComms() []schema.MatchCommPayload {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.matchComms) == 0 {
		return nil
	}
	out := b.matchComms
	b.matchComms = nil
	return out
}

// TakeDesiredGameState drains the pending desired game state, if any.
func (b *Base) TakeDesiredGameState() (schema.DesiredGameStatePayload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gameState == nil {
		return schema.DesiredGameStatePayload{}, false
	}
	out := *b.gameState
	b.gameState = nil
	return out, true
}

// TakeRenderMessages drains pending render messages, keyed by group id.
func (b *Base) TakeRenderMessages() map[int32][]schema.RenderMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.renderMessages) == 0 {
		return nil
	}
	out := b.renderMessages
	b.renderMessages = nil
	return out
}
