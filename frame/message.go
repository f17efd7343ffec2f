// Author: momentics <momentics@gmail.com>
//
// FramedMessage is a handle to (buffer reference, byte offset into it),
// translating the original library's Message class (library/Message.h):
// construction from (buffer, offset) is O(1) and records only the
// offset; the header is read lazily from the buffer's bytes.

package frame

import (
	"github.com/RLBot/cpp-interface/api"
	"github.com/RLBot/cpp-interface/internal/logx"
	"github.com/RLBot/cpp-interface/schema"
)

// Message is a view onto a pooled buffer at an offset, carrying the
// framed header plus payload. It is cheap to copy: copies share the
// underlying buffer reference.
type Message struct {
	buf api.Buffer
	off int
}

// OutboundMessage is identical in representation to Message; the
// outbound queue holds these by value so the Transport's scatter/gather
// list can point directly at their bytes.
type OutboundMessage = Message

// New constructs a Message viewing buf starting at off. buf must already
// contain a complete header+payload at that offset.
func New(buf api.Buffer, off int) Message {
	return Message{buf: buf, off: off}
}

// Valid reports whether this message holds a non-empty buffer
// reference, mirroring Message::operator bool().
func (m Message) Valid() bool { return m.buf != nil }

// Type returns the wire message-type discriminator.
func (m Message) Type() schema.MessageType {
	t, _, _ := PeekHeader(m.header())
	return t
}

// PayloadSize returns the message size excluding the header.
func (m Message) PayloadSize() int {
	_, n, _ := PeekHeader(m.header())
	return n
}

// TotalSize returns the message size including the header.
func (m Message) TotalSize() int {
	return HeaderSize + m.PayloadSize()
}

// PayloadSpan returns the payload bytes (excluding the header).
func (m Message) PayloadSpan() []byte {
	b := m.buf.Bytes()
	lo := m.off + HeaderSize
	hi := lo + m.PayloadSize()
	return b[lo:hi]
}

// Span returns the full header+payload bytes.
func (m Message) Span() []byte {
	b := m.buf.Bytes()
	return b[m.off : m.off+m.TotalSize()]
}

func (m Message) header() []byte {
	b := m.buf.Bytes()
	return b[m.off:]
}

// Buffer returns the referenced buffer.
func (m Message) Buffer() api.Buffer { return m.buf }

// Reset makes the message invalid and releases the underlying buffer
// reference.
func (m *Message) Reset() {
	if m.buf != nil {
		m.buf.Release()
	}
	m.buf = nil
	m.off = 0
}

// As decodes the payload via the schema accessor type for this
// message's wire type. When verify is true and decoding fails, it logs
// a warning and returns nil — callers must treat that as "drop this
// frame".
func (m Message) As(verify bool) schema.Payload {
	p := schema.New(m.Type())
	if p == nil {
		if verify {
			logx.Warningf("frame: unknown message type %d", uint16(m.Type()))
		}
		return nil
	}
	if err := p.Unmarshal(m.PayloadSpan()); err != nil {
		if verify {
			verr := api.NewError(api.ErrCodeVerification, api.ErrVerificationFailed.Error()).
				WithContext("type", m.Type()).WithContext("cause", err.Error())
			logx.Warningf("frame: %v", verr)
		}
		return nil
	}
	return p
}

// BuildInto encodes p into buf at offset 0 and returns a Message
// viewing it. The Message takes over the caller's reference to buf
// (BuildInto does not Retain it), so Reset on the Message releases that
// reference. buf must be large enough to hold
// HeaderSize+len(marshaled payload).
func BuildInto(buf api.Buffer, p schema.Payload) (Message, error) {
	body := p.Marshal()
	b := buf.Bytes()
	if len(b) < HeaderSize+len(body) {
		return Message{}, ErrShortPayload
	}
	if err := EncodeHeader(b, p.Type(), len(body)); err != nil {
		return Message{}, err
	}
	copy(b[HeaderSize:], body)
	return Message{buf: buf, off: 0}, nil
}
