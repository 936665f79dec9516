package epl2

import (
	"errors"
	"testing"
)

func TestCursorPeekAdvance(t *testing.T) {
	c := NewCursor([]byte("abc"))

	if b, ok := c.Peek(); !ok || b != 'a' {
		t.Fatalf("Peek = %q, %v, want 'a', true", b, ok)
	}
	if b, ok := c.PeekAt(2); !ok || b != 'c' {
		t.Fatalf("PeekAt(2) = %q, %v, want 'c', true", b, ok)
	}
	if _, ok := c.PeekAt(3); ok {
		t.Fatal("PeekAt(3) past end should report false")
	}
	if c.Position() != 0 {
		t.Fatalf("peeking moved the cursor to %d", c.Position())
	}

	c.Advance(10)
	if !c.AtEnd() || c.Position() != 3 {
		t.Fatalf("Advance past end: pos = %d, AtEnd = %v", c.Position(), c.AtEnd())
	}
	if _, ok := c.Peek(); ok {
		t.Fatal("Peek at end should report false")
	}
}

func TestCursorReadExact(t *testing.T) {
	c := NewCursor([]byte("abc"))

	_, err := c.ReadExact(4)
	if !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("ReadExact(4) err = %v, want ErrUnexpectedEnd", err)
	}
	if c.Position() != 0 {
		t.Fatalf("failed ReadExact consumed input: pos = %d", c.Position())
	}

	got, err := c.ReadExact(2)
	if err != nil {
		t.Fatalf("ReadExact(2): %v", err)
	}
	if string(got) != "ab" || c.Position() != 2 || c.Remaining() != 1 {
		t.Fatalf("ReadExact(2) = %q, pos %d, remaining %d", got, c.Position(), c.Remaining())
	}
}

func TestCursorReadWhile(t *testing.T) {
	c := NewCursor([]byte("123,4"))

	got := c.ReadWhile(isDigit)
	if string(got) != "123" {
		t.Fatalf("ReadWhile = %q, want 123", got)
	}
	if got := c.ReadWhile(isDigit); len(got) != 0 {
		t.Fatalf("ReadWhile on separator = %q, want empty", got)
	}
	if c.Position() != 3 {
		t.Fatalf("pos = %d, want 3", c.Position())
	}
}

func TestCursorSkipLine(t *testing.T) {
	c := NewCursor([]byte("ab\ncd"))

	c.SkipLine()
	if c.Position() != 3 {
		t.Fatalf("first SkipLine pos = %d, want 3", c.Position())
	}
	c.SkipLine()
	if !c.AtEnd() {
		t.Fatalf("SkipLine without LF should stop at end, pos = %d", c.Position())
	}
}
