// pkg/epl2/primitives.go
package epl2

import (
	"bytes"
	"math"
)

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseUnsigned reads one or more ASCII digits as a value within the signed
// 32-bit range.
func parseUnsigned(c *Cursor) (int, error) {
	return parseDigits(c, c.Position(), math.MaxInt32)
}

// parseSigned reads an optional '+' or '-' followed by digits.
func parseSigned(c *Cursor) (int, error) {
	start := c.Position()
	neg := false
	if b, ok := c.Peek(); ok && (b == '+' || b == '-') {
		neg = b == '-'
		c.Advance(1)
	}
	limit := int64(math.MaxInt32)
	if neg {
		limit++
	}
	v, err := parseDigits(c, start, limit)
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

func parseDigits(c *Cursor, start Position, limit int64) (int, error) {
	if b, ok := c.Peek(); !ok {
		return 0, errAt(KindUnexpectedEnd, c.Position())
	} else if !isDigit(b) {
		return 0, errAt(KindNotANumber, start)
	}
	var v int64
	overflow := false
	for _, d := range c.ReadWhile(isDigit) {
		if overflow {
			continue
		}
		v = v*10 + int64(d-'0')
		if v > limit {
			overflow = true
		}
	}
	if overflow {
		return 0, errAt(KindIntegerOverflow, start)
	}
	return int(v), nil
}

var unescape = map[byte]byte{
	'"':  '"',
	'\\': '\\',
	'/':  '/',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
}

// parseEscapedString reads a double-quoted literal and resolves backslash
// escapes. The returned bytes are raw code-page bytes. A line feed before the
// closing quote ends the literal as unterminated.
func parseEscapedString(c *Cursor) ([]byte, error) {
	start := c.Position()
	b, ok := c.Peek()
	if !ok {
		return nil, errAt(KindUnexpectedEnd, start)
	}
	if b != '"' {
		return nil, expected('"', start)
	}
	c.Advance(1)

	var out []byte
	for {
		b, ok := c.Peek()
		if !ok || b == '\n' {
			return nil, errAt(KindUnterminatedString, start)
		}
		switch b {
		case '"':
			c.Advance(1)
			if out == nil {
				out = []byte{}
			}
			return out, nil
		case '\\':
			esc, ok := c.PeekAt(1)
			if !ok {
				return nil, errAt(KindUnterminatedString, start)
			}
			r, known := unescape[esc]
			if !known {
				return nil, errAt(KindInvalidEscape, c.Position())
			}
			out = append(out, r)
			c.Advance(2)
		default:
			out = append(out, b)
			c.Advance(1)
		}
	}
}

// readBlock consumes exactly n bytes verbatim. It is the only primitive that
// may consume separator-valued bytes as data. The result does not alias the
// input buffer.
func readBlock(c *Cursor, n int) ([]byte, error) {
	raw, err := c.ReadExact(n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(raw), nil
}

// expectComma consumes one field separator.
func expectComma(c *Cursor) error {
	if b, ok := c.Peek(); ok && b == ',' {
		c.Advance(1)
		return nil
	}
	return expected(',', c.Position())
}

// expectLineEnd consumes a command terminator: LF, CR LF, or the end of the
// buffer.
func expectLineEnd(c *Cursor) error {
	b, ok := c.Peek()
	if !ok {
		return nil
	}
	switch b {
	case '\n':
		c.Advance(1)
		return nil
	case '\r':
		if next, ok := c.PeekAt(1); !ok || next == '\n' {
			c.Advance(2)
			return nil
		}
	}
	return expected('\n', c.Position())
}

// expectByte consumes one literal byte such as a sub-field tag.
func expectByte(c *Cursor, want byte) error {
	if b, ok := c.Peek(); ok && b == want {
		c.Advance(1)
		return nil
	}
	return expected(want, c.Position())
}

