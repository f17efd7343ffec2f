// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake agent.Agent recording every call it receives, for worker/runtime
// tests that need to assert on dispatch behavior rather than real bot
// decision logic.

package fake

import (
	"sync"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/schema"
)

// Agent is a fake agent.Agent built on agent.Base, recording every
// Update/MatchComm call and returning a scriptable ControllerState.
type Agent struct {
	*agent.Base

	mu          sync.Mutex
	Updates     int
	LastPacket  *schema.GamePacketPayload
	MatchComms  []*schema.MatchCommPayload
	Out         schema.ControllerState
	LoadoutVal  schema.PlayerLoadout
	LoadoutOK   bool
}

// NewAgent constructs a fake Agent for indices/team/name.
func NewAgent(indices map[uint32]struct{}, team uint32, name string) *Agent {
	return &Agent{Base: agent.NewBase(indices, team, name)}
}

func (a *Agent) Update(gamePacket *schema.GamePacketPayload, _ *schema.BallPredictionPayload,
	_ *schema.FieldInfoPayload, _ *schema.MatchConfigurationPayload) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Updates++
	a.LastPacket = gamePacket
}

func (a *Agent) Output(uint32) schema.ControllerState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Out
}

func (a *Agent) MatchComm(comm *schema.MatchCommPayload) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.MatchComms = append(a.MatchComms, comm)
}

func (a *Agent) Loadout(uint32) (schema.PlayerLoadout, bool) {
	return a.LoadoutVal, a.LoadoutOK
}

var _ agent.Agent = (*Agent)(nil)
