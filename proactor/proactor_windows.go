//go:build windows
// +build windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows backend using real overlapped WSASend/WSARecv associated with
// an IOCP, translating internal/transport/transport_windows.go's
// CreateIoCompletionPort scaffold (there left as TODO stubs) into working
// completion-based I/O. SubmitWritev coalesces the iovec into one WSABuf
// array so a single WSASend issues the scatter/gather write.

package proactor

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/RLBot/cpp-interface/api"
)

const completionKeyIO = 1

type overlappedOp struct {
	ov  windows.Overlapped
	key api.CompletionKey
}

type iocpProactor struct {
	iocp   windows.Handle
	sock   windows.Handle
	closed bool

	pendingRead  *overlappedOp
	pendingWrite *overlappedOp
	postQueue    []api.CompletionKey
}

// New constructs the IOCP-backed Proactor over a connected socket handle,
// associating it with a freshly created completion port.
func New(sock windows.Handle) (api.Proactor, error) {
	iocp, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("proactor: create iocp: %w", err)
	}
	if _, err := windows.CreateIoCompletionPort(sock, iocp, completionKeyIO, 0); err != nil {
		windows.CloseHandle(iocp)
		return nil, fmt.Errorf("proactor: associate socket: %w", err)
	}
	return &iocpProactor{iocp: iocp, sock: sock}, nil
}

func (p *iocpProactor) SubmitRead(buf []byte, preferred bool) error {
	if p.pendingRead != nil {
		return api.ErrInvalidArgument
	}
	op := &overlappedOp{key: api.CompletionRead}
	wsabuf := windows.WSABuf{Len: uint32(len(buf)), Buf: &buf[0]}
	var recvd, flags uint32
	err := windows.WSARecv(p.sock, &wsabuf, 1, &recvd, &flags, &op.ov, nil)
	if err != nil && err != windows.ERROR_IO_PENDING {
		return fmt.Errorf("proactor: WSARecv: %w", err)
	}
	p.pendingRead = op
	return nil
}

func (p *iocpProactor) SubmitWritev(iov [][]byte, preferred bool) error {
	if p.pendingWrite != nil {
		return api.ErrInvalidArgument
	}
	bufs := make([]windows.WSABuf, len(iov))
	for i, b := range iov {
		if len(b) == 0 {
			continue
		}
		bufs[i] = windows.WSABuf{Len: uint32(len(b)), Buf: &b[0]}
	}
	op := &overlappedOp{key: api.CompletionWrite}
	var sent uint32
	var bufPtr *windows.WSABuf
	if len(bufs) > 0 {
		bufPtr = &bufs[0]
	}
	err := windows.WSASend(p.sock, bufPtr, uint32(len(bufs)), &sent, 0, &op.ov, nil)
	if err != nil && err != windows.ERROR_IO_PENDING {
		return fmt.Errorf("proactor: WSASend: %w", err)
	}
	p.pendingWrite = op
	return nil
}

// Post queues a synthetic completion via PostQueuedCompletionStatus,
// the Windows analogue of the epoll backend's eventfd wakeup.
func (p *iocpProactor) Post(key api.CompletionKey) error {
	op := &overlappedOp{key: key}
	if err := windows.PostQueuedCompletionStatus(p.iocp, 0, 0, &op.ov); err != nil {
		return fmt.Errorf("proactor: post: %w", err)
	}
	return nil
}

func (p *iocpProactor) Wait() (api.Completion, error) {
	var bytes uint32
	var key uintptr
	var ov *windows.Overlapped
	err := windows.GetQueuedCompletionStatus(p.iocp, &bytes, &key, &ov, windows.INFINITE)
	if ov == nil {
		return api.Completion{}, fmt.Errorf("proactor: GetQueuedCompletionStatus: %w", err)
	}
	op := (*overlappedOp)(unsafe.Pointer(ov))
	switch op.key {
	case api.CompletionRead:
		p.pendingRead = nil
	case api.CompletionWrite:
		p.pendingWrite = nil
	}
	if err != nil {
		return api.Completion{Key: op.key, Err: err}, nil
	}
	if op.key == api.CompletionRead && bytes == 0 {
		return api.Completion{Key: op.key, Err: api.ErrPeerClosed}, nil
	}
	return api.Completion{Key: op.key, Bytes: int(bytes)}, nil
}

func (p *iocpProactor) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	windows.CloseHandle(p.iocp)
	return windows.CloseHandle(p.sock)
}

var _ api.Proactor = (*iocpProactor)(nil)
