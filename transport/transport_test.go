package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/RLBot/cpp-interface/api"
	"github.com/RLBot/cpp-interface/fake"
	"github.com/RLBot/cpp-interface/frame"
	"github.com/RLBot/cpp-interface/schema"
)

func runTransport(t *testing.T, tr *Transport, handler MessageHandler) (done chan error) {
	t.Helper()
	done = make(chan error, 1)
	go func() { done <- tr.Run(handler) }()
	return done
}

func waitFor(t *testing.T, cond func() bool) {
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

func TestTransport_SendIssuesImmediateWrite(t *testing.T) {
	p := fake.NewProactor()
	bp := fake.NewBufferPool()
	tr := newTransport(p, bp)

	done := runTransport(t, tr, func(frame.Message) {})
	defer func() {
		tr.Terminate()
		<-done
	}()

	if err := tr.Send(&schema.InitCompletePayload{}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	waitFor(t, func() bool { return p.WriteCount() == 1 })
}

func TestTransport_WriterIdleHandshake(t *testing.T) {
	p := fake.NewProactor()
	bp := fake.NewBufferPool()
	tr := newTransport(p, bp)

	done := runTransport(t, tr, func(frame.Message) {})
	defer func() {
		tr.Terminate()
		<-done
	}()

	if err := tr.Send(&schema.InitCompletePayload{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitFor(t, func() bool { return p.WriteCount() == 1 })

	sent := p.LastWriteBytes()

	idleDone := make(chan struct{})
	go func() {
		tr.WaitWriterIdle()
		close(idleDone)
	}()

	p.Push(api.Completion{Key: api.CompletionWrite, Bytes: sent})

	select {
	case <-idleDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("WaitWriterIdle never returned")
	}

	if depth := tr.OutboundQueueDepth(); depth != 0 {
		t.Fatalf("OutboundQueueDepth() = %d, want 0", depth)
	}
}

func TestTransport_HandleReadDispatchesCompleteFrame(t *testing.T) {
	p := fake.NewProactor()
	bp := fake.NewBufferPool()
	tr := newTransport(p, bp)

	wire, err := frame.Encode(&schema.InitCompletePayload{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var mu sync.Mutex
	var gotTypes []schema.MessageType
	done := runTransport(t, tr, func(m frame.Message) {
		mu.Lock()
		gotTypes = append(gotTypes, m.Type())
		mu.Unlock()
	})
	defer func() {
		tr.Terminate()
		<-done
	}()

	waitFor(t, func() bool { return p.ReadCount() == 1 })

	p.FillLastRead(wire)
	p.Push(api.Completion{Key: api.CompletionRead, Bytes: len(wire)})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(gotTypes) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if gotTypes[0] != schema.InitComplete {
		t.Fatalf("dispatched type = %v, want InitComplete", gotTypes[0])
	}
}

func TestTransport_TerminateStopsRun(t *testing.T) {
	p := fake.NewProactor()
	bp := fake.NewBufferPool()
	tr := newTransport(p, bp)

	done := runTransport(t, tr, func(frame.Message) {})
	tr.Terminate()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Terminate")
	}
	if tr.Connected() {
		t.Fatalf("Connected() = true after Terminate")
	}
}
