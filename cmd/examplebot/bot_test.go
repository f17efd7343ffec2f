package main

import (
	"testing"

	"github.com/RLBot/cpp-interface/schema"
)

func TestExampleBot_UpdateSteersTowardBall(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	b := newExampleBot(indices, 0, "test")

	packet := &schema.GamePacketPayload{
		Ball: schema.Vector3{X: 100},
		Players: []schema.PlayerState{
			{Location: schema.Vector3{X: 0}},
		},
	}
	b.Update(packet, nil, nil, &schema.MatchConfigurationPayload{})

	out := b.Output(0)
	if out.Throttle != 1 {
		t.Fatalf("Throttle = %v, want 1", out.Throttle)
	}
	if out.Steer != 1 {
		t.Fatalf("Steer = %v, want 1 (ball ahead in +x)", out.Steer)
	}
}

func TestExampleBot_UpdateIgnoresIndicesBeyondPlayerList(t *testing.T) {
	indices := map[uint32]struct{}{5: {}}
	b := newExampleBot(indices, 0, "test")

	packet := &schema.GamePacketPayload{
		Ball:    schema.Vector3{X: 100},
		Players: []schema.PlayerState{{}},
	}
	b.Update(packet, nil, nil, &schema.MatchConfigurationPayload{})

	out := b.Output(5)
	if out != (schema.ControllerState{}) {
		t.Fatalf("Output(5) = %+v, want zero value for out-of-range index", out)
	}
}

func TestExampleBot_UpdateNilPacketZeroesOutputs(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	b := newExampleBot(indices, 0, "test")
	b.Update(nil, nil, nil, nil)

	if out := b.Output(0); out != (schema.ControllerState{}) {
		t.Fatalf("Output(0) = %+v, want zero value on nil packet", out)
	}
}

func TestExampleBot_UpdateQueuesStateAndRenderOnce(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	b := newExampleBot(indices, 0, "test")
	bot := b.(*exampleBot)

	packet := &schema.GamePacketPayload{
		Ball:    schema.Vector3{X: 1},
		Players: []schema.PlayerState{{}},
	}
	cfg := &schema.MatchConfigurationPayload{EnableRendering: true, EnableStateSetting: true}

	bot.Update(packet, nil, nil, cfg)
	if _, ok := bot.TakeDesiredGameState(); !ok {
		t.Fatalf("expected a desired game state after first Update")
	}
	if got := bot.TakeRenderMessages(); len(got[0]) != 1 {
		t.Fatalf("render messages = %+v, want one entry in group 0", got)
	}

	// Second Update must not queue either again.
	bot.Update(packet, nil, nil, cfg)
	if _, ok := bot.TakeDesiredGameState(); ok {
		t.Fatalf("expected no desired game state on second Update")
	}
	if got := bot.TakeRenderMessages(); got != nil {
		t.Fatalf("expected no render messages on second Update, got %+v", got)
	}
}

func TestExampleBot_MatchCommRepliesOnceToFirstMessage(t *testing.T) {
	indices := map[uint32]struct{}{0: {}, 1: {}}
	b := newExampleBot(indices, 0, "test")
	bot := b.(*exampleBot)

	bot.MatchComm(&schema.MatchCommPayload{Index: 9})
	bot.MatchComm(&schema.MatchCommPayload{Index: 9})

	queued := bot.TakeMatchComms()
	if len(queued) != 2 {
		t.Fatalf("queued comms = %d, want 2 (one per controlled index, only on first MatchComm)", len(queued))
	}
}
