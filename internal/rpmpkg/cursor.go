package rpmpkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// cursor is a bounds-checked big-endian reader over an in-memory byte
// slice, shared by the lead parser and the header/tag-store decoder.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) need(n int) error {
	if n < 0 || c.remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", errTruncated, n, c.remaining())
	}
	return nil
}

func (c *cursor) bytesN(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytesN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytesN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytesN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.bytesN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// cstringAt reads one NUL-terminated string starting at absolute offset
// off within the underlying buffer, without moving the cursor.
func cstringAt(buf []byte, off int) (string, int, error) {
	if off < 0 || off > len(buf) {
		return "", 0, fmt.Errorf("%w: string offset %d out of range", errOutOfRange, off)
	}
	rest := buf[off:]
	idx := bytes.IndexByte(rest, 0)
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: unterminated string at offset %d", errTruncated, off)
	}
	return string(rest[:idx]), idx + 1, nil
}
