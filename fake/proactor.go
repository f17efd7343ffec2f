// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake api.Proactor with a controllable-error-injection style, adapted
// to the completion-based Proactor contract: tests script exactly the
// completions Transport.Run observes and can assert on what was
// submitted.

package fake

import (
	"sync"

	"github.com/RLBot/cpp-interface/api"
)

// Proactor is a fake api.Proactor. Tests drive the Transport's service
// loop by calling Push to enqueue the next completion Wait should
// return, and can inspect Reads/Writes to assert what was submitted.
type Proactor struct {
	mu          sync.Mutex
	cond        *sync.Cond
	completions []api.Completion
	closed      bool

	Reads  [][]byte
	Writes [][][]byte

	submitReadErr  error
	submitWriteErr error
}

// NewProactor constructs an idle fake Proactor.
func NewProactor() *Proactor {
	p := &Proactor{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Proactor) SubmitRead(buf []byte, preferred bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitReadErr != nil {
		return p.submitReadErr
	}
	p.Reads = append(p.Reads, buf)
	return nil
}

func (p *Proactor) SubmitWritev(iov [][]byte, preferred bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitWriteErr != nil {
		return p.submitWriteErr
	}
	cp := make([][]byte, len(iov))
	copy(cp, iov)
	p.Writes = append(p.Writes, cp)
	return nil
}

func (p *Proactor) Post(key api.CompletionKey) error {
	p.Push(api.Completion{Key: key})
	return nil
}

// Push enqueues a completion for the next Wait call to return, in FIFO
// order, waking any blocked waiter.
func (p *Proactor) Push(c api.Completion) {
	p.mu.Lock()
	p.completions = append(p.completions, c)
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *Proactor) Wait() (api.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.completions) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.completions) == 0 {
		return api.Completion{}, api.ErrTransportClosed
	}
	c := p.completions[0]
	p.completions = p.completions[1:]
	return c, nil
}

func (p *Proactor) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

// SetSubmitReadError makes future SubmitRead calls fail with err.
func (p *Proactor) SetSubmitReadError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitReadErr = err
}

// SetSubmitWriteError makes future SubmitWritev calls fail with err.
func (p *Proactor) SetSubmitWriteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitWriteErr = err
}

// ReadCount reports how many SubmitRead calls have been recorded.
func (p *Proactor) ReadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Reads)
}

// FillLastRead copies src into the buffer submitted by the most recent
// SubmitRead call, for scripting an inbound byte stream in tests.
func (p *Proactor) FillLastRead(src []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	copy(p.Reads[len(p.Reads)-1], src)
}

// WriteCount reports how many SubmitWritev calls have been recorded.
func (p *Proactor) WriteCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Writes)
}

// LastWriteBytes sums the byte length of the most recent SubmitWritev's
// scatter/gather list.
func (p *Proactor) LastWriteBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, iov := range p.Writes[len(p.Writes)-1] {
		n += len(iov)
	}
	return n
}

// LastWrite returns a copy of the most recent SubmitWritev's
// scatter/gather list, for decoding what was actually sent.
func (p *Proactor) LastWrite() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	src := p.Writes[len(p.Writes)-1]
	out := make([][]byte, len(src))
	copy(out, src)
	return out
}

var _ api.Proactor = (*Proactor)(nil)
