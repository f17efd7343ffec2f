// File: cmd/examplebot/bot.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// exampleBot steers toward the ball, translating
// original_source/examples/ATBA/ATBA.cpp. Deliberately simple: the
// point is to exercise every agent.Agent method, not to play well.

package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/schema"
)

type exampleBot struct {
	*agent.Base

	outputs map[uint32]schema.ControllerState

	comms     bool
	rendered  bool
	stateSet  bool
}

// newExampleBot constructs a bot for indices on team, printing one line
// per controlled index like ATBA's constructor.
func newExampleBot(indices map[uint32]struct{}, team uint32, name string) agent.Agent {
	sorted := make([]uint32, 0, len(indices))
	for i := range indices {
		sorted = append(sorted, i)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, index := range sorted {
		fmt.Printf("Team %d Index %d: Example Bot created\n", team, index)
	}

	return &exampleBot{
		Base:    agent.NewBase(indices, team, name),
		outputs: make(map[uint32]schema.ControllerState),
	}
}

func (b *exampleBot) Update(packet *schema.GamePacketPayload, _ *schema.BallPredictionPayload,
	_ *schema.FieldInfoPayload, matchConfiguration *schema.MatchConfigurationPayload) {
	for index := range b.Indices {
		b.outputs[index] = schema.ControllerState{}
	}

	if packet == nil {
		return
	}

	for index := range b.Indices {
		if int(index) >= len(packet.Players) {
			continue
		}

		car := packet.Players[index].Location
		dx := float64(packet.Ball.X - car.X)
		dy := float64(packet.Ball.Y - car.Y)
		angle := math.Atan2(dy, dx)

		steer := float32(1)
		if angle < 0 {
			steer = -1
		}

		b.outputs[index] = schema.ControllerState{Throttle: 1, Steer: steer}
	}

	if !b.stateSet && matchConfiguration != nil && matchConfiguration.EnableStateSetting {
		b.stateSet = true
		b.SendDesiredGameState(schema.DesiredGameStatePayload{BallLocation: &packet.Ball})
	}

	if !b.rendered && matchConfiguration != nil && matchConfiguration.EnableRendering {
		b.rendered = true
		b.SendRenderMessage(0, schema.RenderMessage{Text: "Example Bot"})
	}
}

func (b *exampleBot) Output(index uint32) schema.ControllerState {
	return b.outputs[index]
}

func (b *exampleBot) MatchComm(comm *schema.MatchCommPayload) {
	if b.comms {
		return
	}
	b.comms = true
	for index := range b.Indices {
		b.SendMatchComm(index, "ExampleBot: got your message", nil, false)
	}
}
