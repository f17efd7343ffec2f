//go:build linux && !io_uring
// +build linux,!io_uring

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Default Linux backend: epoll readiness driving SendmsgBuffers/
// RecvmsgBuffers, translating reactor/epoll_reactor.go's event loop and
// internal/transport/transport_linux.go's zero-copy batch I/O into the
// single-outstanding-op api.Proactor contract. An eventfd folds Post()
// into the same epoll_wait call, so one Wait() always resolves exactly
// one of: a completed read, a completed write, or a posted key.

package proactor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/RLBot/cpp-interface/api"
)

type epollProactor struct {
	fd    int // connected socket
	epfd  int
	evfd  int // eventfd used to wake Wait() for Post()
	closed bool

	pendingRead  [][]byte
	readPreferred bool
	pendingWrite [][]byte
	writePreferred bool

	postQueue []api.CompletionKey
}

// New constructs the epoll-backed Proactor over an already-connected,
// non-blocking socket fd. The Transport owns socket bootstrap (resolve,
// connect, setsockopt); this type owns only completion I/O.
func New(fd int) (api.Proactor, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("proactor: epoll create: %w", err)
	}
	evfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("proactor: eventfd: %w", err)
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, evfd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(evfd)}); err != nil {
		unix.Close(epfd)
		unix.Close(evfd)
		return nil, fmt.Errorf("proactor: epoll add eventfd: %w", err)
	}
	return &epollProactor{fd: fd, epfd: epfd, evfd: evfd}, nil
}

func (p *epollProactor) SubmitRead(buf []byte, preferred bool) error {
	if p.pendingRead != nil {
		return api.ErrInvalidArgument
	}
	p.pendingRead = [][]byte{buf}
	p.readPreferred = preferred
	return p.rearm()
}

func (p *epollProactor) SubmitWritev(iov [][]byte, preferred bool) error {
	if p.pendingWrite != nil {
		return api.ErrInvalidArgument
	}
	p.pendingWrite = iov
	p.writePreferred = preferred
	return p.rearm()
}

func (p *epollProactor) rearm() error {
	events := uint32(0)
	if p.pendingRead != nil {
		events |= unix.EPOLLIN
	}
	if p.pendingWrite != nil {
		events |= unix.EPOLLOUT
	}
	if events == 0 {
		return nil
	}
	ev := &unix.EpollEvent{Events: events, Fd: int32(p.fd)}
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, p.fd, ev)
	if err == unix.ENOENT {
		err = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, p.fd, ev)
	}
	return err
}

// Post queues a synthetic completion key and wakes Wait() via the
// eventfd, mirroring the io_uring backend's NOP-SQE wakeup sentinel.
func (p *epollProactor) Post(key api.CompletionKey) error {
	p.postQueue = append(p.postQueue, key)
	var one [8]byte
	one[7] = 1
	_, err := unix.Write(p.evfd, one[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("proactor: post: %w", err)
	}
	return nil
}

// Wait blocks until the socket completes its pending read/write or a
// key is posted, and returns exactly one api.Completion. Registration
// for the fd is added lazily on first SubmitRead/SubmitWritev; calling
// Wait with neither pending and no posted keys blocks until one is set.
func (p *epollProactor) Wait() (api.Completion, error) {
	if len(p.postQueue) > 0 {
		key := p.postQueue[0]
		p.postQueue = p.postQueue[1:]
		return api.Completion{Key: key}, nil
	}
	if p.pendingRead == nil && p.pendingWrite == nil {
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, p.fd, &unix.EpollEvent{Events: 0, Fd: int32(p.fd)}); err != nil && err != unix.EEXIST {
			return api.Completion{}, fmt.Errorf("proactor: epoll add fd: %w", err)
		}
	}

	var events [4]unix.EpollEvent
	for {
		n, err := unix.EpollWait(p.epfd, events[:], -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return api.Completion{}, fmt.Errorf("proactor: epoll wait: %w", err)
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if int(ev.Fd) == p.evfd {
				var drain [8]byte
				unix.Read(p.evfd, drain[:])
				if len(p.postQueue) > 0 {
					key := p.postQueue[0]
					p.postQueue = p.postQueue[1:]
					return api.Completion{Key: key}, nil
				}
				continue
			}
			if int(ev.Fd) == p.fd {
				if ev.Events&(unix.EPOLLIN) != 0 && p.pendingRead != nil {
					return p.completeRead()
				}
				if ev.Events&(unix.EPOLLOUT) != 0 && p.pendingWrite != nil {
					return p.completeWrite()
				}
				if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
					return api.Completion{Key: api.CompletionQuit, Err: api.ErrPeerClosed}, nil
				}
			}
		}
	}
}

func (p *epollProactor) completeRead() (api.Completion, error) {
	bufs := p.pendingRead
	p.pendingRead = nil
	n, _, _, _, err := unix.RecvmsgBuffers(p.fd, bufs, nil, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			p.pendingRead = bufs
			return p.Wait()
		}
		return api.Completion{Key: api.CompletionRead, Err: err}, nil
	}
	if n == 0 {
		return api.Completion{Key: api.CompletionRead, Err: api.ErrPeerClosed}, nil
	}
	return api.Completion{Key: api.CompletionRead, Bytes: n}, nil
}

func (p *epollProactor) completeWrite() (api.Completion, error) {
	bufs := p.pendingWrite
	p.pendingWrite = nil
	n, err := unix.SendmsgBuffers(p.fd, bufs, nil, nil, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			p.pendingWrite = bufs
			return p.Wait()
		}
		return api.Completion{Key: api.CompletionWrite, Err: err}, nil
	}
	return api.Completion{Key: api.CompletionWrite, Bytes: n}, nil
}

func (p *epollProactor) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	unix.Close(p.evfd)
	return unix.Close(p.epfd)
}

var _ api.Proactor = (*epollProactor)(nil)
