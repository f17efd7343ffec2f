// Author: momentics <momentics@gmail.com>
//
// Shared little encoding helpers used by every Payload implementation.
// Strings and byte blobs are length-prefixed with a big-endian u16,
// matching the header's own length-field convention.

package schema

import (
	"encoding/binary"
	"fmt"
	"math"
)

type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) bool(v bool)  { e.u8(boolToByte(v)) }
func (e *encoder) u32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }
func (e *encoder) i32(v int32)  { e.u32(uint32(v)) }
func (e *encoder) f32(v float32) {
	e.u32(math.Float32bits(v))
}
func (e *encoder) bytes(v []byte) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(len(v)))
	e.buf = append(e.buf, v...)
}
func (e *encoder) str(v string) { e.bytes([]byte(v)) }

func boolToByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) u8() (uint8, error) {
	if d.remaining() < 1 {
		return 0, fmt.Errorf("schema: short buffer reading u8")
	}
	v := d.buf[d.off]
	d.off++
	return v, nil
}

func (d *decoder) boolean() (bool, error) {
	v, err := d.u8()
	return v != 0, err
}

func (d *decoder) u32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, fmt.Errorf("schema: short buffer reading u32")
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) i32() (int32, error) {
	v, err := d.u32()
	return int32(v), err
}

func (d *decoder) f32() (float32, error) {
	v, err := d.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (d *decoder) bytes() ([]byte, error) {
	if d.remaining() < 2 {
		return nil, fmt.Errorf("schema: short buffer reading length")
	}
	n := int(binary.BigEndian.Uint16(d.buf[d.off:]))
	d.off += 2
	if d.remaining() < n {
		return nil, fmt.Errorf("schema: short buffer reading %d bytes", n)
	}
	v := d.buf[d.off : d.off+n]
	d.off += n
	return v, nil
}

func (d *decoder) str() (string, error) {
	b, err := d.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
