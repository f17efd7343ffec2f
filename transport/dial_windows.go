//go:build windows
// +build windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows socket bootstrap grounded on Connection::connect(): resolve,
// blocking connect, TCP_NODELAY/SO_RCVBUF/SO_SNDBUF, then associate the
// socket with an IOCP via the proactor package.

package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/windows"

	"github.com/RLBot/cpp-interface/pool"
	"github.com/RLBot/cpp-interface/proactor"
)

// Dial connects to host:port and returns a Transport ready for Run.
func Dial(host string, port int, bufPool *pool.BufferPool) (*Transport, error) {
	if err := windows.WSAStartup(0x0202, new(windows.WSAData)); err != nil {
		return nil, fmt.Errorf("transport: WSAStartup: %w", err)
	}

	ip, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", host, err)
	}

	sock, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("transport: socket: %w", err)
	}

	var sa windows.SockaddrInet4
	sa.Port = port
	copy(sa.Addr[:], ip.IP.To4())
	if err := windows.Connect(sock, &sa); err != nil {
		windows.CloseHandle(sock)
		return nil, fmt.Errorf("transport: connect: %w", err)
	}

	if err := windows.SetsockoptInt(sock, windows.IPPROTO_TCP, windows.TCP_NODELAY, 1); err != nil {
		windows.CloseHandle(sock)
		return nil, fmt.Errorf("transport: setsockopt TCP_NODELAY: %w", err)
	}
	size := socketBufferSize
	_ = windows.SetsockoptInt(sock, windows.SOL_SOCKET, windows.SO_RCVBUF, size)
	_ = windows.SetsockoptInt(sock, windows.SOL_SOCKET, windows.SO_SNDBUF, size)

	p, err := proactor.New(sock)
	if err != nil {
		windows.CloseHandle(sock)
		return nil, err
	}

	bufPool.RegisterPreferred(preallocatedBuffers)
	return newTransport(p, bufPool), nil
}
