package epl2

import (
	"bytes"
	"errors"
	"testing"
)

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error %v is not a *DecodeError", err)
	}
	return de.Kind
}

func TestParseUnsigned(t *testing.T) {
	tests := []struct {
		in   string
		want int
		kind ErrorKind
		pos  Position
	}{
		{in: "123,", want: 123, pos: 3},
		{in: "0", want: 0, pos: 1},
		{in: "2147483647", want: 2147483647, pos: 10},
		{in: "2147483648", kind: KindIntegerOverflow},
		{in: "99999999999999999999", kind: KindIntegerOverflow},
		{in: "abc", kind: KindNotANumber},
		{in: ",1", kind: KindNotANumber},
		{in: "", kind: KindUnexpectedEnd},
	}
	for _, tt := range tests {
		c := NewCursor([]byte(tt.in))
		got, err := parseUnsigned(c)
		if tt.kind != 0 {
			if err == nil {
				t.Errorf("parseUnsigned(%q) = %d, want %v", tt.in, got, tt.kind)
				continue
			}
			if k := kindOf(t, err); k != tt.kind {
				t.Errorf("parseUnsigned(%q) kind = %v, want %v", tt.in, k, tt.kind)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseUnsigned(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want || c.Position() != tt.pos {
			t.Errorf("parseUnsigned(%q) = %d at %d, want %d at %d", tt.in, got, c.Position(), tt.want, tt.pos)
		}
	}
}

func TestParseSigned(t *testing.T) {
	tests := []struct {
		in   string
		want int
		kind ErrorKind
	}{
		{in: "-5", want: -5},
		{in: "+7", want: 7},
		{in: "42", want: 42},
		{in: "-2147483648", want: -2147483648},
		{in: "-2147483649", kind: KindIntegerOverflow},
		{in: "-x", kind: KindNotANumber},
		{in: "-", kind: KindUnexpectedEnd},
	}
	for _, tt := range tests {
		got, err := parseSigned(NewCursor([]byte(tt.in)))
		if tt.kind != 0 {
			if err == nil || kindOf(t, err) != tt.kind {
				t.Errorf("parseSigned(%q) = %d, %v, want %v", tt.in, got, err, tt.kind)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseSigned(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestParseEscapedString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Company"`, "Company"},
		{`"\"Company\""`, `"Company"`},
		{`"a,b"`, "a,b"},
		{`"a\/b\\c"`, `a/b\c`},
		{`"\b\f\n\r\t"`, "\b\f\n\r\t"},
		{`""`, ""},
	}
	for _, tt := range tests {
		c := NewCursor([]byte(tt.in + ",rest"))
		got, err := parseEscapedString(c)
		if err != nil {
			t.Errorf("parseEscapedString(%s): %v", tt.in, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("parseEscapedString(%s) = %q, want %q", tt.in, got, tt.want)
		}
		if int(c.Position()) != len(tt.in) {
			t.Errorf("parseEscapedString(%s) stopped at %d, want %d", tt.in, c.Position(), len(tt.in))
		}
	}
}

func TestParseEscapedStringErrors(t *testing.T) {
	tests := []struct {
		in   string
		kind ErrorKind
		pos  Position
	}{
		{`"abc`, KindUnterminatedString, 0},
		{`"ab\`, KindUnterminatedString, 0},
		{"\"ab\ncd\"", KindUnterminatedString, 0},
		{`"a\qb"`, KindInvalidEscape, 2},
		{`abc`, KindExpectedSeparator, 0},
		{``, KindUnexpectedEnd, 0},
	}
	for _, tt := range tests {
		_, err := parseEscapedString(NewCursor([]byte(tt.in)))
		if err == nil {
			t.Errorf("parseEscapedString(%q) succeeded, want %v", tt.in, tt.kind)
			continue
		}
		var de *DecodeError
		if !errors.As(err, &de) || de.Kind != tt.kind || de.Pos != tt.pos {
			t.Errorf("parseEscapedString(%q) err = %v, want %v at %d", tt.in, err, tt.kind, tt.pos)
		}
	}
}

func TestReadBlockKeepsSeparators(t *testing.T) {
	payload := []byte{'\n', ',', '\n', ',', 0x00, 0xff}
	buf := append(append([]byte{}, payload...), 'N')
	c := NewCursor(buf)

	got, err := readBlock(c, len(payload))
	if err != nil {
		t.Fatalf("readBlock: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("readBlock = %v, want %v", got, payload)
	}
	buf[0] = 'x'
	if got[0] != '\n' {
		t.Fatal("readBlock result aliases the input buffer")
	}
	if c.Position() != 6 {
		t.Fatalf("pos = %d, want 6", c.Position())
	}
}

func TestExpectLineEnd(t *testing.T) {
	tests := []struct {
		in  string
		pos Position
		ok  bool
	}{
		{"\nN", 1, true},
		{"\r\nN", 2, true},
		{"", 0, true},
		{"x", 0, false},
		{",", 0, false},
	}
	for _, tt := range tests {
		c := NewCursor([]byte(tt.in))
		err := expectLineEnd(c)
		if (err == nil) != tt.ok {
			t.Errorf("expectLineEnd(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if err != nil && !errors.Is(err, ErrExpectedSeparator) {
			t.Errorf("expectLineEnd(%q) err = %v, want ErrExpectedSeparator", tt.in, err)
		}
		if c.Position() != tt.pos {
			t.Errorf("expectLineEnd(%q) pos = %d, want %d", tt.in, c.Position(), tt.pos)
		}
	}
}
