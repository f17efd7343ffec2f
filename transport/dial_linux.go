//go:build linux
// +build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket bootstrap grounded on Connection::connect(): resolve, blocking
// connect, TCP_NODELAY plus SO_RCVBUF/SO_SNDBUF tuning, then switch to
// non-blocking for the proactor's completion-driven reads/writes.

package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/RLBot/cpp-interface/pool"
	"github.com/RLBot/cpp-interface/proactor"
)

// Dial connects to host:port and returns a Transport ready for Run.
func Dial(host string, port int, bufPool *pool.BufferPool) (*Transport, error) {
	ip, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", host, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}

	var sa unix.SockaddrInet4
	sa.Port = port
	copy(sa.Addr[:], ip.IP.To4())
	if err := unix.Connect(fd, &sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: connect: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: setsockopt TCP_NODELAY: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, socketBufferSize)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, socketBufferSize)

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: set nonblocking: %w", err)
	}

	p, err := proactor.New(fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	bufPool.RegisterPreferred(preallocatedBuffers)
	return newTransport(p, bufPool), nil
}
