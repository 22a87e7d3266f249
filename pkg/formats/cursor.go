package formats

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/anaminus/parse"

	"github.com/Faultbox/mu-import/pkg/encoding"
)

// Cursor errors.
var (
	ErrUnexpectedEndOfData = errors.New("unexpected end of data")
	ErrMalformedBlock      = errors.New("malformed block")
)

// maxStringPrefix is the longest 7-bit encoded length prefix of a 32-bit count.
const maxStringPrefix = 5

// Cursor is a forward-only little-endian reader over an in-memory buffer.
// Every read is bounds-checked before it touches the underlying reader, so
// running out of data always yields ErrUnexpectedEndOfData.
type Cursor struct {
	data []byte
	base int64 // absolute offset of data[0] in the original buffer
	pos  int
	fr   *parse.BinaryReader
	text encoding.Charset
}

// NewCursor creates a cursor over data. Strings are decoded as UTF-8.
func NewCursor(data []byte) *Cursor {
	return newCursor(data, 0, encoding.UTF8)
}

func newCursor(data []byte, base int64, text encoding.Charset) *Cursor {
	return &Cursor{
		data: data,
		base: base,
		fr:   parse.NewBinaryReader(bytes.NewReader(data)),
		text: text,
	}
}

// Offset returns the absolute position of the next byte to be read.
func (c *Cursor) Offset() int64 {
	return c.base + int64(c.pos)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEndOfData, n, c.Offset(), c.Remaining())
	}
	return nil
}

func (c *Cursor) failed() error {
	_, err := c.fr.End()
	return fmt.Errorf("%w: at offset %d: %v", ErrUnexpectedEndOfData, c.Offset(), err)
}

// number reads one scalar. v must point to a fixed-size number type.
func (c *Cursor) number(v any) error {
	size := parse.NumberSize(v)
	if err := c.need(size); err != nil {
		return err
	}
	if c.fr.Number(v) {
		return c.failed()
	}
	c.pos += size
	return nil
}

// float32s fills dst with consecutive floats after checking they all fit.
func (c *Cursor) float32s(dst []float32) error {
	if err := c.need(4 * len(dst)); err != nil {
		return err
	}
	for i := range dst {
		if err := c.number(&dst[i]); err != nil {
			return err
		}
	}
	return nil
}

// int32s fills dst with consecutive int32 values after checking they all fit.
func (c *Cursor) int32s(dst []int32) error {
	if err := c.need(4 * len(dst)); err != nil {
		return err
	}
	for i := range dst {
		if err := c.number(&dst[i]); err != nil {
			return err
		}
	}
	return nil
}

// Int8 reads a signed byte.
func (c *Cursor) Int8() (int8, error) {
	var v int8
	err := c.number(&v)
	return v, err
}

// Uint8 reads an unsigned byte.
func (c *Cursor) Uint8() (uint8, error) {
	var v uint8
	err := c.number(&v)
	return v, err
}

// Bool reads a one-byte boolean. Any non-zero value is true.
func (c *Cursor) Bool() (bool, error) {
	v, err := c.Uint8()
	return v != 0, err
}

// Int16 reads a little-endian int16.
func (c *Cursor) Int16() (int16, error) {
	var v int16
	err := c.number(&v)
	return v, err
}

// Int32 reads a little-endian int32.
func (c *Cursor) Int32() (int32, error) {
	var v int32
	err := c.number(&v)
	return v, err
}

// Uint32 reads a little-endian uint32.
func (c *Cursor) Uint32() (uint32, error) {
	var v uint32
	err := c.number(&v)
	return v, err
}

// Float32 reads a little-endian IEEE-754 float.
func (c *Cursor) Float32() (float32, error) {
	var v float32
	err := c.number(&v)
	return v, err
}

// Vec2 reads two floats.
func (c *Cursor) Vec2() ([2]float32, error) {
	var v [2]float32
	err := c.float32s(v[:])
	return v, err
}

// Vec3 reads three floats.
func (c *Cursor) Vec3() ([3]float32, error) {
	var v [3]float32
	err := c.float32s(v[:])
	return v, err
}

// Vec4 reads four floats.
func (c *Cursor) Vec4() ([4]float32, error) {
	var v [4]float32
	err := c.float32s(v[:])
	return v, err
}

// Bytes reads exactly n bytes into a new slice.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if c.fr.Bytes(buf) {
		return nil, c.failed()
	}
	c.pos += n
	return buf, nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.Bytes(n)
	return err
}

// ReadString reads a 7-bit length-prefixed string and decodes it with the
// cursor's charset.
func (c *Cursor) ReadString() (string, error) {
	var length uint32
	for i := 0; ; i++ {
		if i == maxStringPrefix {
			return "", fmt.Errorf("%w: string length prefix too long at offset %d", ErrMalformedBlock, c.Offset())
		}
		b, err := c.Uint8()
		if err != nil {
			return "", err
		}
		length |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			break
		}
	}
	if int64(length) > int64(c.Remaining()) {
		return "", fmt.Errorf("%w: string of %d bytes at offset %d, have %d", ErrUnexpectedEndOfData, length, c.Offset(), c.Remaining())
	}
	raw, err := c.Bytes(int(length))
	if err != nil {
		return "", err
	}
	return c.text.Decode(raw), nil
}

// Count reads an int32 element count and checks that count elements of at
// least minSize bytes each can still fit in the remaining data.
func (c *Cursor) Count(minSize int) (int, error) {
	offset := c.Offset()
	n, err := c.Int32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d at offset %d", ErrMalformedBlock, n, offset)
	}
	if minSize > 0 && int64(n)*int64(minSize) > int64(c.Remaining()) {
		return 0, fmt.Errorf("%w: count %d of %d-byte elements at offset %d, have %d bytes",
			ErrUnexpectedEndOfData, n, minSize, offset, c.Remaining())
	}
	return int(n), nil
}

// Sub returns a cursor restricted to the next n bytes and advances c past them.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	start := c.pos
	sub := newCursor(c.data[start:start+n], c.base+int64(start), c.text)
	if err := c.Skip(n); err != nil {
		return nil, err
	}
	return sub, nil
}
