// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package transport implements the framed, length-prefixed byte stream
// over a single TCP connection, translating library/Connection.cpp's
// ConnectionImpl: one read outstanding at a time, one write outstanding
// at a time, FIFO delivery of both inbound frames and outbound messages.
// The platform-specific proactor package supplies the actual completion
// I/O; this package owns buffering, framing, and the output queue.
package transport

import (
	"sync"
	"sync/atomic"

	"github.com/RLBot/cpp-interface/api"
	"github.com/RLBot/cpp-interface/frame"
	"github.com/RLBot/cpp-interface/internal/logx"
	"github.com/RLBot/cpp-interface/pool"
	"github.com/RLBot/cpp-interface/schema"
)

// socketBufferSize mirrors the original SOCKET_BUFFER_SIZE: large enough
// to hold at least 4 maximum-size messages.
const socketBufferSize = 4 * (1 << 16)

// preallocatedBuffers mirrors PREALLOCATED_BUFFERS: the number of
// kernel-registerable ("preferred") buffers seeded at connect time and
// the cap on how many outbound messages one writev batches together.
const preallocatedBuffers = 32

// MessageHandler is invoked on the Transport's own goroutine for every
// complete inbound frame. Implementations must not block; dispatching
// onward to a worker queue is the caller's responsibility.
type MessageHandler func(frame.Message)

// Transport drives one framed connection's read and write state
// machines against an api.Proactor.
type Transport struct {
	proactor api.Proactor
	bufPool  api.BufferPool
	onMessage MessageHandler

	inBuffer api.Buffer
	inStart  int
	inEnd    int

	outMu       sync.Mutex
	outputQueue []frame.OutboundMessage
	outStart    int
	iov         [][]byte
	iovSlot     *[][]byte
	writerIdle  bool
	writerCond  *sync.Cond

	quit    atomic.Bool
	running atomic.Bool

	iovPool *pool.SyncPool[*[][]byte]
}

func newTransport(p api.Proactor, bufPool api.BufferPool) *Transport {
	t := &Transport{proactor: p, bufPool: bufPool, writerIdle: true}
	t.writerCond = sync.NewCond(&t.outMu)
	t.iovPool = pool.NewSyncPool(
		func() *[][]byte { s := make([][]byte, 0, preallocatedBuffers); return &s },
		func(s *[][]byte) { *s = (*s)[:0] },
	)
	return t
}

// NewForTesting builds a Transport directly over an api.Proactor and
// api.BufferPool, bypassing Dial's socket bootstrap. Intended for tests
// driving the Transport against a fake Proactor.
func NewForTesting(p api.Proactor, bufPool api.BufferPool) *Transport {
	return newTransport(p, bufPool)
}

// Connected reports whether the service loop is currently running.
func (t *Transport) Connected() bool { return t.running.Load() }

// OutboundQueueDepth reports the current number of unsent or
// partially-sent outbound messages, for diagnostics.
func (t *Transport) OutboundQueueDepth() int {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	return len(t.outputQueue)
}

// Run drives the completion loop until Terminate is called or a fatal
// I/O error occurs. It is meant to be called from its own goroutine.
func (t *Transport) Run(handler MessageHandler) error {
	t.onMessage = handler
	t.inBuffer = t.bufPool.Get()
	t.running.Store(true)
	defer t.running.Store(false)

	if err := t.requestRead(); err != nil {
		return err
	}

	for !t.quit.Load() {
		c, err := t.proactor.Wait()
		if err != nil {
			return err
		}
		switch c.Key {
		case api.CompletionRead:
			if err := t.handleRead(c); err != nil {
				logx.Warningf("transport: read: %v", err)
				t.Terminate()
				return err
			}
		case api.CompletionWrite:
			t.handleWrite(c)
		case api.CompletionWriteQueued:
			t.requestWrite()
		case api.CompletionQuit:
			return nil
		}
	}
	return nil
}

// handleRead parses as many complete frames as are available in the
// input buffer, dispatching each to onMessage, then re-arms the read.
func (t *Transport) handleRead(c api.Completion) error {
	if c.Err != nil {
		return c.Err
	}
	count := c.Bytes
	if count == 0 {
		return api.ErrPeerClosed
	}

	t.inEnd += count
	for t.inEnd-t.inStart >= frame.HeaderSize {
		msg := frame.New(t.inBuffer, t.inStart)
		available := t.inEnd - t.inStart
		size := msg.TotalSize()
		if size > available {
			if t.inEnd == len(t.inBuffer.Bytes()) {
				nb := t.bufPool.Get()
				copy(nb.Bytes(), t.inBuffer.Bytes()[t.inStart:t.inEnd])
				t.inBuffer.Release()
				t.inBuffer = nb
				t.inEnd -= t.inStart
				t.inStart = 0
			}
			break
		}

		if t.onMessage != nil {
			t.onMessage(msg)
		}
		t.inStart += size
	}

	if t.inStart == t.inEnd {
		t.inBuffer.Release()
		t.inBuffer = t.bufPool.Get()
		t.inStart, t.inEnd = 0, 0
	}

	return t.requestRead()
}

func (t *Transport) requestRead() error {
	b := t.inBuffer.Bytes()
	return t.proactor.SubmitRead(b[t.inEnd:], t.inBuffer.Preferred())
}

// Send enqueues p for transmission, encoding it into a pooled buffer.
// The first enqueue on an idle writer issues the write directly; later
// enqueues wake the service loop via a posted completion so the single
// in-flight writev invariant holds without extra locking there.
func (t *Transport) Send(p schema.Payload) error {
	buf := t.bufPool.Get()
	msg, err := frame.BuildInto(buf, p)
	if err != nil {
		buf.Release()
		return err
	}

	t.outMu.Lock()
	t.writerIdle = false
	t.outputQueue = append(t.outputQueue, msg)
	first := len(t.outputQueue) == 1
	if first {
		t.requestWriteLocked()
	}
	t.outMu.Unlock()

	if first {
		return nil
	}
	return t.proactor.Post(api.CompletionWriteQueued)
}

// releaseIovLocked returns the scatter/gather scratch slice to the pool
// once its writev has fully completed or failed. Must be called with
// outMu held.
func (t *Transport) releaseIovLocked() {
	if t.iovSlot != nil {
		t.iovPool.Put(t.iovSlot)
		t.iovSlot = nil
	}
	t.iov = nil
}

func (t *Transport) requestWrite() {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	if len(t.outputQueue) == 0 {
		return
	}
	t.requestWriteLocked()
}

// requestWriteLocked must be called with outMu held. It is a no-op if a
// write is already outstanding, preserving the single-writev invariant.
func (t *Transport) requestWriteLocked() {
	if len(t.iov) > 0 {
		return
	}
	n := len(t.outputQueue)
	if n > preallocatedBuffers {
		n = preallocatedBuffers
	}

	slot := t.iovPool.Get()
	start := t.outStart
	for i := 0; i < n; i++ {
		span := t.outputQueue[i].Span()
		*slot = append(*slot, span[start:])
		start = 0
	}
	t.iov = *slot
	t.iovSlot = slot
	if err := t.proactor.SubmitWritev(t.iov, true); err != nil {
		logx.Errorf("transport: submit write: %v", err)
	}
}

// handleWrite consumes count_ bytes worth of fully- or partially-
// written messages from the front of the queue and, if more remain,
// issues the next writev.
func (t *Transport) handleWrite(c api.Completion) {
	t.outMu.Lock()
	defer t.outMu.Unlock()

	if c.Err != nil {
		logx.Warningf("transport: write: %v", c.Err)
		t.releaseIovLocked()
		return
	}

	count := c.Bytes
	idx := 0
	for count > 0 && idx < len(t.outputQueue) {
		size := t.outputQueue[idx].TotalSize()
		rem := size - t.outStart
		if count < rem {
			t.outStart += count
			break
		}
		count -= rem
		t.outStart = 0
		idx++
	}

	for i := 0; i < idx; i++ {
		t.outputQueue[i].Reset()
	}
	if idx > 0 {
		t.outputQueue = t.outputQueue[idx:]
	}
	// The completed batch is fully accounted for; the next requestWriteLocked
	// rebuilds the scatter/gather list from whatever remains in the queue.
	t.releaseIovLocked()

	if len(t.outputQueue) == 0 {
		t.writerIdle = true
		t.writerCond.Broadcast()
		return
	}

	t.requestWriteLocked()
}

// WaitWriterIdle blocks until the output queue has fully drained at
// least once, matching the original write-queue-empty handshake used
// to know an interface packet has left the process.
func (t *Transport) WaitWriterIdle() {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	for !t.writerIdle {
		t.writerCond.Wait()
	}
}

// Terminate requests the service loop to stop and wakes any waiters.
func (t *Transport) Terminate() {
	t.outMu.Lock()
	t.writerIdle = true
	t.outMu.Unlock()
	t.writerCond.Broadcast()

	t.quit.Store(true)
	if err := t.proactor.Post(api.CompletionQuit); err != nil {
		logx.Warningf("transport: post quit: %v", err)
	}
}

// Close terminates the service loop and releases the underlying
// proactor and any buffered buffers.
func (t *Transport) Close() error {
	t.Terminate()

	t.outMu.Lock()
	for i := range t.outputQueue {
		t.outputQueue[i].Reset()
	}
	t.outputQueue = nil
	t.outMu.Unlock()

	if t.inBuffer != nil {
		t.inBuffer.Release()
		t.inBuffer = nil
	}
	return t.proactor.Close()
}
