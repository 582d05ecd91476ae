package utils

import (
	"encoding/binary"
	"fmt"
	"math"
)

// fixed point divisor used by packed vertex attributes (1.0 == 0x4000)
const Fixp14Divisor = 1.0 / float32(0x4000)

type OutOfBoundsError struct {
	Name   string
	Offset int
	Need   int
	Size   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("read out of bounds in %s: offset 0x%x need 0x%x size 0x%x",
		e.Name, e.Offset, e.Need, e.Size)
}

// Cursor is a little-endian reader over an in-memory buffer.
// Reads past the end do not panic. Instead the first failure is
// remembered, every later read returns a zero value and Err()
// reports what went wrong and where.
type Cursor struct {
	name string
	base int
	buf  []byte
	pos  int
	err  error
}

func NewCursor(name string, b []byte) *Cursor {
	return &Cursor{name: name, buf: b}
}

// NewCursorAt keeps the absolute file offset of the buffer start so
// error messages and dumps can point into the original file.
func NewCursorAt(name string, b []byte, base int) *Cursor {
	return &Cursor{name: name, buf: b, base: base}
}

func (c *Cursor) Name() string { return c.name }
func (c *Cursor) Pos() int     { return c.pos }
func (c *Cursor) AbsPos() int  { return c.base + c.pos }
func (c *Cursor) Size() int    { return len(c.buf) }
func (c *Cursor) Err() error   { return c.err }

func (c *Cursor) Remaining() int {
	if c.pos > len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

func (c *Cursor) String() string {
	return fmt.Sprintf("cur<%s>[pos:0x%x size:0x%x abs:0x%x]", c.name, c.pos, len(c.buf), c.AbsPos())
}

func (c *Cursor) fail(need int) {
	if c.err == nil {
		c.err = &OutOfBoundsError{Name: c.name, Offset: c.base + c.pos, Need: need, Size: len(c.buf)}
	}
}

// take returns a view into the buffer, not a copy.
func (c *Cursor) take(amount int) []byte {
	if c.err != nil {
		return nil
	}
	if amount < 0 || c.pos+amount > len(c.buf) {
		c.fail(amount)
		return nil
	}
	b := c.buf[c.pos : c.pos+amount]
	c.pos += amount
	return b
}

func (c *Cursor) Skip(amount int) {
	if c.err != nil {
		return
	}
	if amount < 0 || c.pos+amount > len(c.buf) {
		c.fail(amount)
		return
	}
	c.pos += amount
}

// ReadBytes returns a view over the next amount bytes. Callers that
// keep the slice past the life of the source buffer must copy it.
func (c *Cursor) ReadBytes(amount int) []byte {
	return c.take(amount)
}

func (c *Cursor) ReadByte() byte {
	if b := c.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (c *Cursor) ReadLU16() uint16 {
	if b := c.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (c *Cursor) ReadLU32() uint32 {
	if b := c.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (c *Cursor) ReadLU64() uint64 {
	if b := c.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (c *Cursor) ReadLI16() int16 {
	return int16(c.ReadLU16())
}

func (c *Cursor) ReadLI32() int32 {
	return int32(c.ReadLU32())
}

func (c *Cursor) ReadLF() float32 {
	return math.Float32frombits(c.ReadLU32())
}

// ReadFixp14 reads a signed 2.14 fixed point value (0x4000 == 1.0).
func (c *Cursor) ReadFixp14() float32 {
	return float32(c.ReadLI16()) * Fixp14Divisor
}

// ReadUFixp14 reads an unsigned 2.14 fixed point value.
func (c *Cursor) ReadUFixp14() float32 {
	return float32(c.ReadLU16()) * Fixp14Divisor
}

func (c *Cursor) ReadLU32Table(count int) []uint32 {
	b := c.take(count * 4)
	if b == nil {
		return nil
	}
	table := make([]uint32, count)
	for i := range table {
		table[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return table
}

// ReadStringFixed reads a fixed-size field and cuts it at the first
// zero byte, decoding the rest with the configured game charmap.
func (c *Cursor) ReadStringFixed(size int) string {
	b := c.take(size)
	if b == nil {
		return ""
	}
	return BytesToString(b)
}

// SubCursor opens a window over [offset:offset+size) with its own
// name for error reporting. The window itself is bounds checked.
func (c *Cursor) SubCursor(name string, offset, size int) *Cursor {
	if c.err != nil {
		return &Cursor{name: name, err: c.err}
	}
	if offset < 0 || size < 0 || offset+size > len(c.buf) {
		err := &OutOfBoundsError{Name: name, Offset: c.base + offset, Need: size, Size: len(c.buf)}
		return &Cursor{name: name, err: err}
	}
	return &Cursor{name: name, buf: c.buf[offset : offset+size], base: c.base + offset}
}
