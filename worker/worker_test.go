package worker

import (
	"testing"
	"time"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/fake"
	"github.com/RLBot/cpp-interface/schema"
)

// panickingAgent panics from Update, to exercise LoopOnce's recover path.
type panickingAgent struct {
	*agent.Base
}

func (a *panickingAgent) Update(*schema.GamePacketPayload, *schema.BallPredictionPayload,
	*schema.FieldInfoPayload, *schema.MatchConfigurationPayload) {
	panic("boom")
}

func newTestWorker(t *testing.T, bot agent.Agent, indices map[uint32]struct{}, dispatcher *fake.Dispatcher) *Worker {
	t.Helper()
	matchConfig := &schema.MatchConfigurationPayload{EnableRendering: true, EnableStateSetting: true}
	return New(indices, 0, "test", bot, &schema.FieldInfoPayload{}, matchConfig, dispatcher)
}

func TestWorker_LoopOnceRunsUpdateAndEnqueuesInput(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := fake.NewAgent(indices, 0, "test")
	bot.Out = schema.ControllerState{Throttle: 1}
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)

	packet := &schema.GamePacketPayload{Players: []schema.PlayerState{{}}}
	w.SetGamePacket(packet, false)

	if ok := w.LoopOnce(); !ok {
		t.Fatalf("LoopOnce() = false, want true")
	}
	if bot.Updates != 1 {
		t.Fatalf("Updates = %d, want 1", bot.Updates)
	}

	msgs := d.Snapshot()
	if len(msgs) != 1 {
		t.Fatalf("dispatched %d messages, want 1", len(msgs))
	}
	pi, ok := msgs[0].(*schema.PlayerInputPayload)
	if !ok {
		t.Fatalf("message type = %T, want *schema.PlayerInputPayload", msgs[0])
	}
	if pi.Controller.Throttle != 1 {
		t.Fatalf("Controller.Throttle = %v, want 1", pi.Controller.Throttle)
	}
}

func TestWorker_LoopOnceNoWorkReturnsFalse(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := fake.NewAgent(indices, 0, "test")
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)

	if ok := w.LoopOnce(); ok {
		t.Fatalf("LoopOnce() = true with no pending work")
	}
}

func TestWorker_AddMatchCommFiltersSelfEcho(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := fake.NewAgent(indices, 0, "test")
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)

	w.AddMatchComm(&schema.MatchCommPayload{Index: 0}, false)
	if w.hasWorkLocked() {
		t.Fatalf("self-echoed comm should not be queued")
	}

	w.AddMatchComm(&schema.MatchCommPayload{Index: 5}, false)
	if !w.hasWorkLocked() {
		t.Fatalf("comm from another index should be queued")
	}
	w.LoopOnce()
	if len(bot.MatchComms) != 1 {
		t.Fatalf("MatchComm calls = %d, want 1", len(bot.MatchComms))
	}
}

func TestWorker_AddMatchCommFiltersTeamOnly(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := fake.NewAgent(indices, 0, "test")
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)

	w.AddMatchComm(&schema.MatchCommPayload{Index: 5, Team: 1, TeamOnly: true}, false)
	if w.hasWorkLocked() {
		t.Fatalf("team-only comm from the other team should be dropped")
	}
}

func TestWorker_FlushOutputsEnqueuesRenderAndGameState(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := fake.NewAgent(indices, 0, "test")
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)

	bot.SendRenderMessage(1, schema.RenderMessage{Text: "hi"})
	bot.SendDesiredGameState(schema.DesiredGameStatePayload{})
	bot.SendMatchComm(0, "out", nil, false)

	w.SetGamePacket(&schema.GamePacketPayload{Players: []schema.PlayerState{{}}}, false)
	w.LoopOnce()

	msgs := d.Snapshot()
	var sawRender, sawState, sawComm bool
	for _, m := range msgs {
		switch m.(type) {
		case *schema.RenderGroupPayload:
			sawRender = true
		case *schema.DesiredGameStatePayload:
			sawState = true
		case *schema.MatchCommPayload:
			sawComm = true
		}
	}
	if !sawRender || !sawState || !sawComm {
		t.Fatalf("expected render/state/comm messages, got %+v", msgs)
	}
}

type countingMetrics struct {
	ticks map[string]int
}

func (m *countingMetrics) IncWorkerTicks(name string) {
	if m.ticks == nil {
		m.ticks = make(map[string]int)
	}
	m.ticks[name]++
}

func TestWorker_LoopOnceRecordsMetrics(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := fake.NewAgent(indices, 0, "test")
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)
	m := &countingMetrics{}
	w.SetMetrics(m)

	w.SetGamePacket(&schema.GamePacketPayload{Players: []schema.PlayerState{{}}}, false)
	w.LoopOnce()

	if m.ticks["test"] != 1 {
		t.Fatalf("ticks[test] = %d, want 1", m.ticks["test"])
	}
}

func TestWorker_LoopOnceRecoversAgentPanicAndTerminatesWorker(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := &panickingAgent{Base: agent.NewBase(indices, 0, "test")}
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)

	w.SetGamePacket(&schema.GamePacketPayload{Players: []schema.PlayerState{{}}}, false)

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("LoopOnce() did not recover agent panic: %v", r)
			}
		}()
		if ok := w.LoopOnce(); !ok {
			t.Fatalf("LoopOnce() = false, want true (a panic still counts as a completed tick)")
		}
	}()

	w.SetGamePacket(&schema.GamePacketPayload{Players: []schema.PlayerState{{}}}, false)
	if ok := w.LoopOnce(); ok {
		t.Fatalf("LoopOnce() = true after a recovered panic, want false (worker terminated)")
	}
}

func TestWorker_RunStopsOnTerminate(t *testing.T) {
	indices := map[uint32]struct{}{0: {}}
	bot := fake.NewAgent(indices, 0, "test")
	d := fake.NewDispatcher()
	w := newTestWorker(t, bot, indices, d)

	doneCh := make(chan struct{})
	go func() {
		w.Run()
		close(doneCh)
	}()
	w.Terminate()

	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Terminate")
	}
}
