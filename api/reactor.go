// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for the completion-based I/O backend
// (IOCP on Windows, io_uring on Linux) that drives the Transport's single
// service thread.

package api

// CompletionKey discriminates what a completion from Wait refers to.
type CompletionKey int

const (
	// CompletionRead marks a finished read submission.
	CompletionRead CompletionKey = iota
	// CompletionWrite marks a finished write submission.
	CompletionWrite
	// CompletionWriteQueued is posted by an enqueuer that appended to an
	// already non-empty outbound queue; the service thread then issues
	// the next write unless one is already in flight.
	CompletionWriteQueued
	// CompletionWorkerWakeup is a reserved key for worker wakeups. No
	// component in this module posts it, and Transport.Run ignores it.
	CompletionWorkerWakeup
	// CompletionQuit is a sentinel unblocking the completion wait so the
	// service loop can observe the quit flag and return.
	CompletionQuit
)

// Completion is one event returned from Proactor.Wait.
type Completion struct {
	Key   CompletionKey
	Bytes int // bytes transferred, meaningful for CompletionRead/CompletionWrite
	Err   error
}

// Proactor abstracts the OS completion primitive so the Transport's read
// and write paths are platform-independent. Two implementations exist:
// a completion-port style backend (Windows) and a submission/completion
// queue style backend (Linux io_uring), with a plain-syscall epoll
// fallback when io_uring is unavailable.
type Proactor interface {
	// SubmitRead issues one asynchronous read into buf. At most one read
	// may be outstanding at a time; callers are responsible for this
	// invariant.
	SubmitRead(buf []byte, preferred bool) error

	// SubmitWritev issues one coalesced scatter/gather write. At most one
	// write may be outstanding at a time.
	SubmitWritev(iov [][]byte, preferred bool) error

	// Post enqueues a synthetic completion (used for CompletionWriteQueued,
	// CompletionWorkerWakeup and CompletionQuit) without touching the
	// socket.
	Post(key CompletionKey) error

	// Wait blocks until one completion is available.
	Wait() (Completion, error)

	// Close tears down the backend and releases kernel resources.
	Close() error
}
