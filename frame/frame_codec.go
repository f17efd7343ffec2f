// File: frame/frame_codec.go
// Package frame implements the length-prefixed framed message codec with
// frame size enforcement.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Header layout (4 bytes): bytes 0-1 = message-type (big-endian u16);
// bytes 2-3 = payload length (big-endian u16). Payload immediately
// follows; this is the one consistent layout used throughout
// HeaderSize, PeekHeader, EncodeHeader and Message's Type, PayloadSize,
// PayloadSpan and As.

package frame

import (
	"encoding/binary"
	"errors"

	"github.com/RLBot/cpp-interface/api"
	"github.com/RLBot/cpp-interface/schema"
)

// HeaderSize is the fixed framed-header length in bytes.
const HeaderSize = 4

// MaxPayload is the largest payload length representable in the 16-bit
// length field.
const MaxPayload = 1<<16 - 1

var (
	// ErrShortHeader means fewer than HeaderSize bytes are available.
	ErrShortHeader = errors.New("frame: buffer shorter than header")
	// ErrShortPayload means the declared payload is not fully present.
	ErrShortPayload = errors.New("frame: buffer shorter than declared payload")
)

// PeekHeader reads the type and payload length from the first
// HeaderSize bytes of buf without consuming anything.
func PeekHeader(buf []byte) (t schema.MessageType, payloadLen int, err error) {
	if len(buf) < HeaderSize {
		return 0, 0, ErrShortHeader
	}
	t = schema.MessageType(binary.BigEndian.Uint16(buf[0:2]))
	payloadLen = int(binary.BigEndian.Uint16(buf[2:4]))
	return t, payloadLen, nil
}

// EncodeHeader writes the 4-byte header for a payload of length n and
// the given type into dst, which must be at least HeaderSize long.
func EncodeHeader(dst []byte, t schema.MessageType, n int) error {
	if n > MaxPayload {
		return api.NewError(api.ErrCodeInvalidArgument, api.ErrFrameTooLarge.Error()).
			WithContext("type", t).WithContext("size", n)
	}
	if len(dst) < HeaderSize {
		return ErrShortHeader
	}
	binary.BigEndian.PutUint16(dst[0:2], uint16(t))
	binary.BigEndian.PutUint16(dst[2:4], uint16(n))
	return nil
}

// Encode builds a standalone header+payload byte slice for a given
// payload. Used by tests, which do not go through the pooled buffer
// path.
func Encode(p schema.Payload) ([]byte, error) {
	body := p.Marshal()
	if len(body) > MaxPayload {
		return nil, api.NewError(api.ErrCodeInvalidArgument, api.ErrFrameTooLarge.Error()).
			WithContext("type", p.Type()).WithContext("size", len(body))
	}
	out := make([]byte, HeaderSize+len(body))
	if err := EncodeHeader(out, p.Type(), len(body)); err != nil {
		return nil, err
	}
	copy(out[HeaderSize:], body)
	return out, nil
}
