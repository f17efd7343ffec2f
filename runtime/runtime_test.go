package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/RLBot/cpp-interface/agent"
	"github.com/RLBot/cpp-interface/api"
	"github.com/RLBot/cpp-interface/control"
	"github.com/RLBot/cpp-interface/fake"
	"github.com/RLBot/cpp-interface/frame"
	"github.com/RLBot/cpp-interface/schema"
	"github.com/RLBot/cpp-interface/transport"
)

func waitForRuntime(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

// frameFeeder scripts one frame at a time into a fake.Proactor's read
// path, waiting for the Transport to have armed the next read before
// filling and completing it.
type frameFeeder struct {
	t *testing.T
	p *fake.Proactor
	n int
}

func (f *frameFeeder) send(payload schema.Payload) {
	f.t.Helper()
	wire, err := frame.Encode(payload)
	if err != nil {
		f.t.Fatalf("Encode: %v", err)
	}
	waitForRuntime(f.t, func() bool { return f.p.ReadCount() > f.n })
	f.p.FillLastRead(wire)
	f.p.Push(api.Completion{Key: api.CompletionRead, Bytes: len(wire)})
	f.n++
}

type spawnRecorder struct {
	mu     sync.Mutex
	agents []*fake.Agent
}

func (s *spawnRecorder) spawn(indices map[uint32]struct{}, team uint32, name string) agent.Agent {
	a := fake.NewAgent(indices, team, name)
	s.mu.Lock()
	s.agents = append(s.agents, a)
	s.mu.Unlock()
	return a
}

func (s *spawnRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}

func newTestRuntime(t *testing.T, batchHivemind bool, metrics *control.MetricsRegistry) (*Runtime, *fake.Proactor, *spawnRecorder) {
	t.Helper()
	p := fake.NewProactor()
	bp := fake.NewBufferPool()
	tr := transport.NewForTesting(p, bp)
	rec := &spawnRecorder{}
	rt := New(tr, rec.spawn, batchHivemind, metrics)

	done := make(chan error, 1)
	go func() { done <- rt.Run() }()
	t.Cleanup(func() {
		rt.Terminate()
		<-done
	})
	return rt, p, rec
}

func bootstrapMessages() (schema.ControllableTeamInfoPayload, schema.FieldInfoPayload, schema.MatchConfigurationPayload) {
	cti := schema.ControllableTeamInfoPayload{
		Team:          0,
		Controllables: []schema.Controllable{{Index: 0, SpawnID: 1}},
	}
	fi := schema.FieldInfoPayload{}
	mc := schema.MatchConfigurationPayload{
		Players: []schema.PlayerConfiguration{{SpawnID: 1, Team: 0, Name: "Bot"}},
	}
	return cti, fi, mc
}

func TestRuntime_SpawnsOnceAllThreeBootstrapMessagesArrive(t *testing.T) {
	t.Setenv("RLBOT_AGENT_ID", "test-agent")
	rt, p, rec := newTestRuntime(t, false, nil)
	_ = rt

	cti, fi, mc := bootstrapMessages()
	feeder := &frameFeeder{t: t, p: p}
	feeder.send(&cti)
	feeder.send(&fi)

	// Two of three bootstrap messages: no spawn yet.
	time.Sleep(20 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Fatalf("spawned %d agents before MatchConfiguration arrived, want 0", got)
	}

	feeder.send(&mc)
	waitForRuntime(t, func() bool { return rec.count() == 1 })

	waitForRuntime(t, func() bool { return p.WriteCount() >= 1 })
	iov := p.LastWrite()
	typ, _, err := frame.PeekHeader(iov[len(iov)-1])
	if err != nil {
		t.Fatalf("PeekHeader: %v", err)
	}
	if typ != schema.InitComplete {
		t.Fatalf("last outbound message type = %v, want InitComplete", typ)
	}
}

func TestRuntime_NoSpawnWithoutAgentID(t *testing.T) {
	t.Setenv("RLBOT_AGENT_ID", "")
	_, p, rec := newTestRuntime(t, false, nil)

	cti, fi, mc := bootstrapMessages()
	feeder := &frameFeeder{t: t, p: p}
	feeder.send(&cti)
	feeder.send(&fi)
	feeder.send(&mc)

	time.Sleep(50 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Fatalf("spawned %d agents with empty RLBOT_AGENT_ID, want 0", got)
	}
}

func TestRuntime_HivemindBatchesIndicesIntoOneSpawnCall(t *testing.T) {
	t.Setenv("RLBOT_AGENT_ID", "test-agent")
	_, p, rec := newTestRuntime(t, true, nil)

	cti := schema.ControllableTeamInfoPayload{
		Team: 0,
		Controllables: []schema.Controllable{
			{Index: 0, SpawnID: 1},
			{Index: 1, SpawnID: 2},
		},
	}
	fi := schema.FieldInfoPayload{}
	mc := schema.MatchConfigurationPayload{
		Players: []schema.PlayerConfiguration{
			{SpawnID: 1, Team: 0, Name: "Bot", Hivemind: true},
			{SpawnID: 2, Team: 0, Name: "Bot", Hivemind: true},
		},
	}

	feeder := &frameFeeder{t: t, p: p}
	feeder.send(&cti)
	feeder.send(&fi)
	feeder.send(&mc)

	waitForRuntime(t, func() bool { return rec.count() == 1 })
	rec.mu.Lock()
	indices := rec.agents[0].Indices
	rec.mu.Unlock()
	if len(indices) != 2 {
		t.Fatalf("hivemind spawn indices = %v, want 2 entries", indices)
	}
}

func TestRuntime_GamePacketFanOutRunsPrimaryInline(t *testing.T) {
	t.Setenv("RLBOT_AGENT_ID", "test-agent")
	_, p, rec := newTestRuntime(t, false, nil)

	cti, fi, mc := bootstrapMessages()
	feeder := &frameFeeder{t: t, p: p}
	feeder.send(&cti)
	feeder.send(&fi)
	feeder.send(&mc)
	waitForRuntime(t, func() bool { return rec.count() == 1 })

	packet := &schema.GamePacketPayload{Players: []schema.PlayerState{{}}}
	feeder.send(packet)

	waitForRuntime(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.agents[0].Updates >= 1
	})
}

func TestRuntime_MetricsRecordQueueDepth(t *testing.T) {
	t.Setenv("RLBOT_AGENT_ID", "test-agent")
	metrics := control.NewMetricsRegistry()
	rt, p, rec := newTestRuntime(t, false, metrics)

	cti, fi, mc := bootstrapMessages()
	feeder := &frameFeeder{t: t, p: p}
	feeder.send(&cti)
	feeder.send(&fi)
	feeder.send(&mc)
	waitForRuntime(t, func() bool { return rec.count() == 1 })

	rt.EnqueueMessage(&schema.InitCompletePayload{})

	snap := metrics.GetSnapshot()
	if _, ok := snap["transport.outbound_queue_depth"]; !ok {
		t.Fatalf("expected transport.outbound_queue_depth to be recorded, got %+v", snap)
	}
}
