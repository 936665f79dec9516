// pkg/epl2/cursor.go
package epl2

// Position is a byte offset into a job buffer.
type Position int

// Cursor owns a read-only job buffer and a forward-only read position.
// It holds no parsing logic.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor at offset 0 of buf. The buffer must not be
// modified while the cursor is in use.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Position returns the current read offset.
func (c *Cursor) Position() Position {
	return Position(c.pos)
}

// Len returns the size of the whole buffer.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// AtEnd reports whether every byte has been consumed.
func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.buf)
}

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (byte, bool) {
	return c.PeekAt(0)
}

// PeekAt returns the byte n positions ahead without consuming anything.
func (c *Cursor) PeekAt(n int) (byte, bool) {
	i := c.pos + n
	if n < 0 || i >= len(c.buf) {
		return 0, false
	}
	return c.buf[i], true
}

// Advance moves the position forward by n bytes, stopping at the end.
func (c *Cursor) Advance(n int) {
	if n <= 0 {
		return
	}
	c.pos += n
	if c.pos > len(c.buf) {
		c.pos = len(c.buf)
	}
}

// ReadWhile consumes bytes while pred holds and returns them.
// The returned slice aliases the buffer.
func (c *Cursor) ReadWhile(pred func(byte) bool) []byte {
	start := c.pos
	for c.pos < len(c.buf) && pred(c.buf[c.pos]) {
		c.pos++
	}
	return c.buf[start:c.pos:c.pos]
}

// ReadExact consumes exactly n bytes. When fewer remain it fails with
// KindUnexpectedEnd and consumes nothing. The returned slice aliases the buffer.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errAt(KindUnexpectedEnd, Position(len(c.buf)))
	}
	start := c.pos
	c.pos += n
	return c.buf[start:c.pos:c.pos], nil
}

// SkipLine consumes everything up to and including the next line feed,
// or the rest of the buffer when there is none.
func (c *Cursor) SkipLine() {
	c.ReadWhile(func(b byte) bool { return b != '\n' })
	c.Advance(1)
}

