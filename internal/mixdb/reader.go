package mixdb

import (
	"encoding/binary"
	"math"
)

// cursor reads little-endian fields from a fixed buffer at an advancing
// offset. Callers check the buffer length up front.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) u8() byte {
	v := c.buf[c.off]
	c.off++
	return v
}

func (c *cursor) i16() int16 {
	v := int16(binary.LittleEndian.Uint16(c.buf[c.off:]))
	c.off += 2
	return v
}

func (c *cursor) u32() uint32 {
	v := binary.LittleEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v
}

func (c *cursor) i32() int32 { return int32(c.u32()) }

func (c *cursor) f32() float32 { return math.Float32frombits(c.u32()) }

func (c *cursor) skip(n int) { c.off += n }

// putter is the writing counterpart of cursor.
type putter struct {
	buf []byte
	off int
}

func (p *putter) u8(v byte) {
	p.buf[p.off] = v
	p.off++
}

func (p *putter) i16(v int16) {
	binary.LittleEndian.PutUint16(p.buf[p.off:], uint16(v))
	p.off += 2
}

func (p *putter) u32(v uint32) {
	binary.LittleEndian.PutUint32(p.buf[p.off:], v)
	p.off += 4
}

func (p *putter) i32(v int32) { p.u32(uint32(v)) }

func (p *putter) f32(v float32) { p.u32(math.Float32bits(v)) }

func (p *putter) skip(n int) { p.off += n }
