// Package cursor reads little-endian primitives from an in-memory buffer.
//
// A Cursor borrows its buffer and keeps a single read offset. Every read is
// bounds-checked and fails with diag.ErrOutOfBounds instead of panicking;
// Skip, Align and Seek only move the offset and never touch memory.
package cursor

import (
	"bytes"
	"encoding/binary"
	"math"

	"sly-level-decoder/internal/diag"
	"sly-level-decoder/internal/mathutil"
)

// Cursor is a little-endian reader over a borrowed byte slice.
type Cursor struct {
	data []byte
	off  int
}

// New returns a Cursor at offset 0. The buffer is not copied.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// NewAt returns a Cursor positioned at off.
func NewAt(data []byte, off int) *Cursor {
	return &Cursor{data: data, off: off}
}

// Offset returns the current read offset.
func (c *Cursor) Offset() int { return c.off }

// Seek moves the read offset to an absolute position.
func (c *Cursor) Seek(off int) { c.off = off }

// Len returns the size of the underlying buffer.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns how many bytes lie past the offset (0 if beyond the end).
func (c *Cursor) Remaining() int {
	if c.off >= len(c.data) {
		return 0
	}
	return len(c.data) - c.off
}

// Buffer returns the underlying buffer.
func (c *Cursor) Buffer() []byte { return c.data }

// Rel resolves an offset stored relative to base.
func Rel(base int, rel uint32) int {
	return base + int(rel)
}

// Skip advances the offset by n bytes.
func (c *Cursor) Skip(n int) { c.off += n }

// Align advances the offset to the next multiple of k (a power of two).
func (c *Cursor) Align(k int) {
	c.off += (-c.off) & (k - 1)
}

func (c *Cursor) check(off, n int) error {
	if off < 0 || n < 0 || off > len(c.data)-n {
		return diag.Errorf(diag.OutOfBounds, off, "read of %d bytes past end of %d-byte buffer", n, len(c.data))
	}
	return nil
}

// U8At reads a byte at off without moving the cursor.
func (c *Cursor) U8At(off int) (uint8, error) {
	if err := c.check(off, 1); err != nil {
		return 0, err
	}
	return c.data[off], nil
}

// U16At reads a uint16 at off without moving the cursor.
func (c *Cursor) U16At(off int) (uint16, error) {
	if err := c.check(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(c.data[off:]), nil
}

// U32At reads a uint32 at off without moving the cursor.
func (c *Cursor) U32At(off int) (uint32, error) {
	if err := c.check(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(c.data[off:]), nil
}

// BytesAt returns data[off:off+n] without moving the cursor.
func (c *Cursor) BytesAt(off, n int) ([]byte, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	return c.data[off : off+n : off+n], nil
}

// StringAt reads n bytes at off and truncates at the first NUL.
func (c *Cursor) StringAt(off, n int) (string, error) {
	b, err := c.BytesAt(off, n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// U8 reads a byte and advances past it.
func (c *Cursor) U8() (uint8, error) {
	v, err := c.U8At(c.off)
	if err != nil {
		return 0, err
	}
	c.off++
	return v, nil
}

// U16 reads a uint16 and advances past it.
func (c *Cursor) U16() (uint16, error) {
	v, err := c.U16At(c.off)
	if err != nil {
		return 0, err
	}
	c.off += 2
	return v, nil
}

// U32 reads a uint32 and advances past it.
func (c *Cursor) U32() (uint32, error) {
	v, err := c.U32At(c.off)
	if err != nil {
		return 0, err
	}
	c.off += 4
	return v, nil
}

// F32 reads an IEEE 754 float32.
func (c *Cursor) F32() (float32, error) {
	v, err := c.U32()
	return math.Float32frombits(v), err
}

// F64 reads an IEEE 754 float64.
func (c *Cursor) F64() (float64, error) {
	if err := c.check(c.off, 8); err != nil {
		return 0, err
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(c.data[c.off:]))
	c.off += 8
	return v, nil
}

// floats reads len(dst) consecutive float32 values.
func (c *Cursor) floats(dst []float32) error {
	if err := c.check(c.off, 4*len(dst)); err != nil {
		return err
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(c.data[c.off:]))
		c.off += 4
	}
	return nil
}

// Vec2 reads two float32 values.
func (c *Cursor) Vec2() (mathutil.Vec2, error) {
	var v mathutil.Vec2
	err := c.floats(v[:])
	return v, err
}

// Vec3 reads three float32 values.
func (c *Cursor) Vec3() (mathutil.Vec3, error) {
	var v mathutil.Vec3
	err := c.floats(v[:])
	return v, err
}

// Vec4 reads four float32 values.
func (c *Cursor) Vec4() (mathutil.Vec4, error) {
	var v mathutil.Vec4
	err := c.floats(v[:])
	return v, err
}

// Mat3 reads nine float32 values, row by row.
func (c *Cursor) Mat3() (mathutil.Mat3, error) {
	var m mathutil.Mat3
	err := c.floats(m[:])
	return m, err
}

// Mat4 reads 12 floats (four rows of three) and pads the last column
// with [0, 0, 0, 1].
func (c *Cursor) Mat4() (mathutil.Mat4, error) {
	var rows [12]float32
	if err := c.floats(rows[:]); err != nil {
		return mathutil.Mat4{}, err
	}
	return mathutil.Mat4FromRows(rows), nil
}

// String reads n bytes and truncates the result at the first NUL.
func (c *Cursor) String(n int) (string, error) {
	s, err := c.StringAt(c.off, n)
	if err != nil {
		return "", err
	}
	c.off += n
	return s, nil
}

// Bytes returns the next n bytes as a sub-slice of the buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	b, err := c.BytesAt(c.off, n)
	if err != nil {
		return nil, err
	}
	c.off += n
	return b, nil
}

// U16s reads n consecutive uint16 values.
func (c *Cursor) U16s(n int) ([]uint16, error) {
	if err := c.check(c.off, 2*n); err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(c.data[c.off:])
		c.off += 2
	}
	return out, nil
}

// U32s reads n consecutive uint32 values.
func (c *Cursor) U32s(n int) ([]uint32, error) {
	if err := c.check(c.off, 4*n); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(c.data[c.off:])
		c.off += 4
	}
	return out, nil
}

// F32s reads n consecutive float32 values.
func (c *Cursor) F32s(n int) ([]float32, error) {
	if err := c.check(c.off, 4*n); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	if err := c.floats(out); err != nil {
		return nil, err
	}
	return out, nil
}
