//go:build linux && io_uring
// +build linux,io_uring

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// io_uring-backed Proactor. The ring is genuinely set up (io_uring_setup
// plus SQ/CQ mmap, translating internal/transport/transport_linux_uring.go
// and uring_types.go), but actual Send/Recv still falls back to plain
// syscall.Write/syscall.Read rather than SQE submission, exactly as the
// original transport did. Post() uses an eventfd, polled separately from
// the ring, rather than an IORING_OP_NOP.

package proactor

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/RLBot/cpp-interface/api"
)

const (
	ioringSetupClamp  = 1 << 4
	sysIOURingSetup   = 425
	sqRingBytes       = 4096
	cqRingBytes       = 4096
)

type ioURingParams struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqEntrySize  uint32
	cqEntrySize  uint32
	workerNr     uint32
	cqOffEventfd uint32
	cqOffUserdat uint32
	cqOffFlags   uint32
	sqOffHead    uint32
	sqOffTail    uint32
	sqOffMask    uint32
	sqOffEntries uint32
	sqOffFlags   uint32
	sqOffArray   uint32
}

type ioRing struct {
	fd     int32
	sqMask uint32
	cqMask uint32
	sqMmap []byte
	cqMmap []byte
}

func initIoRing(entries uint32) (*ioRing, error) {
	var params ioURingParams
	fd, _, errno := unix.Syscall6(sysIOURingSetup, uintptr(entries), uintptr(unsafe.Pointer(&params)), 0, 0, 0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("proactor: io_uring_setup: %v", errno)
	}
	sqMmap, err := unix.Mmap(int(fd), 0, sqRingBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(int(fd))
		return nil, fmt.Errorf("proactor: mmap SQ ring: %w", err)
	}
	cqMmap, err := unix.Mmap(int(fd), sqRingBytes, cqRingBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Munmap(sqMmap)
		unix.Close(int(fd))
		return nil, fmt.Errorf("proactor: mmap CQ ring: %w", err)
	}
	return &ioRing{
		fd:     int32(fd),
		sqMask: params.sqEntries - 1,
		cqMask: params.cqEntries - 1,
		sqMmap: sqMmap,
		cqMmap: cqMmap,
	}, nil
}

type uringProactor struct {
	fd   int
	ring *ioRing
	evfd int
	mu   sync.Mutex

	pendingRead  [][]byte
	pendingWrite [][]byte
	postQueue    []api.CompletionKey
	closed       bool
}

// New constructs the io_uring-backed Proactor over a connected,
// non-blocking socket fd.
func New(fd int) (api.Proactor, error) {
	ring, err := initIoRing(1024)
	if err != nil {
		return nil, err
	}
	evfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK)
	if err != nil {
		unix.Munmap(ring.sqMmap)
		unix.Munmap(ring.cqMmap)
		unix.Close(int(ring.fd))
		return nil, fmt.Errorf("proactor: eventfd: %w", err)
	}
	return &uringProactor{fd: fd, ring: ring, evfd: evfd}, nil
}

func (p *uringProactor) SubmitRead(buf []byte, preferred bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pendingRead != nil {
		return api.ErrInvalidArgument
	}
	p.pendingRead = [][]byte{buf}
	return nil
}

func (p *uringProactor) SubmitWritev(iov [][]byte, preferred bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pendingWrite != nil {
		return api.ErrInvalidArgument
	}
	p.pendingWrite = iov
	return nil
}

func (p *uringProactor) Post(key api.CompletionKey) error {
	p.mu.Lock()
	p.postQueue = append(p.postQueue, key)
	p.mu.Unlock()
	var one [8]byte
	one[7] = 1
	_, err := unix.Write(p.evfd, one[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("proactor: post: %w", err)
	}
	return nil
}

// Wait drains a posted key if one is queued, otherwise performs the
// pending read or write directly via the plain syscall fallback (see
// file doc comment) and returns its completion.
func (p *uringProactor) Wait() (api.Completion, error) {
	p.mu.Lock()
	if len(p.postQueue) > 0 {
		key := p.postQueue[0]
		p.postQueue = p.postQueue[1:]
		p.mu.Unlock()
		return api.Completion{Key: key}, nil
	}
	read := p.pendingRead
	write := p.pendingWrite
	p.mu.Unlock()

	if write != nil {
		n := 0
		for _, buf := range write {
			wn, err := syscall.Write(p.fd, buf)
			if err != nil {
				p.mu.Lock()
				p.pendingWrite = nil
				p.mu.Unlock()
				return api.Completion{Key: api.CompletionWrite, Err: err}, nil
			}
			n += wn
		}
		p.mu.Lock()
		p.pendingWrite = nil
		p.mu.Unlock()
		return api.Completion{Key: api.CompletionWrite, Bytes: n}, nil
	}
	if read != nil {
		n, err := syscall.Read(p.fd, read[0])
		p.mu.Lock()
		p.pendingRead = nil
		p.mu.Unlock()
		if err != nil {
			return api.Completion{Key: api.CompletionRead, Err: err}, nil
		}
		if n == 0 {
			return api.Completion{Key: api.CompletionRead, Err: api.ErrPeerClosed}, nil
		}
		return api.Completion{Key: api.CompletionRead, Bytes: n}, nil
	}
	// Nothing submitted and nothing posted: block on the eventfd alone.
	var drain [8]byte
	fds := []unix.PollFd{{Fd: int32(p.evfd), Events: unix.POLLIN}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return api.Completion{}, fmt.Errorf("proactor: poll: %w", err)
		}
		break
	}
	unix.Read(p.evfd, drain[:])
	return p.Wait()
}

func (p *uringProactor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	unix.Munmap(p.ring.sqMmap)
	unix.Munmap(p.ring.cqMmap)
	unix.Close(int(p.ring.fd))
	unix.Close(p.evfd)
	return unix.Close(p.fd)
}

var _ api.Proactor = (*uringProactor)(nil)
