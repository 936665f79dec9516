package epl2

import (
	"errors"
	"testing"
)

func TestHorizontalMultiplierDomain(t *testing.T) {
	for _, v := range []int{1, 2, 3, 4, 5, 6, 8} {
		m, err := NewHorizontalMultiplier(v)
		if err != nil {
			t.Errorf("NewHorizontalMultiplier(%d): %v", v, err)
			continue
		}
		if m.Int() != v {
			t.Errorf("NewHorizontalMultiplier(%d).Int() = %d", v, m.Int())
		}
	}
	for _, v := range []int{0, 7, 9, -1} {
		_, err := NewHorizontalMultiplier(v)
		if !errors.Is(err, ErrOutOfDomain) {
			t.Errorf("NewHorizontalMultiplier(%d) err = %v, want ErrOutOfDomain", v, err)
		}
	}
	if got := (HorizontalMultiplier{}).Int(); got != 1 {
		t.Errorf("zero HorizontalMultiplier = %d, want 1", got)
	}
}

func TestVerticalMultiplierDomain(t *testing.T) {
	for v := 1; v <= 9; v++ {
		m, err := NewVerticalMultiplier(v)
		if err != nil || m.Int() != v {
			t.Errorf("NewVerticalMultiplier(%d) = %v, %v", v, m, err)
		}
	}
	for _, v := range []int{0, 10} {
		if _, err := NewVerticalMultiplier(v); !errors.Is(err, ErrOutOfDomain) {
			t.Errorf("NewVerticalMultiplier(%d) err = %v, want ErrOutOfDomain", v, err)
		}
	}
	if got := (VerticalMultiplier{}).Int(); got != 1 {
		t.Errorf("zero VerticalMultiplier = %d, want 1", got)
	}
}

func TestRotationAndFont(t *testing.T) {
	r, err := NewRotation(3)
	if err != nil || r != Rotate270 || r.Degrees() != 270 {
		t.Fatalf("NewRotation(3) = %v, %v", r, err)
	}
	if _, err := NewRotation(4); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("NewRotation(4) err = %v", err)
	}

	f, err := NewFont(4)
	if err != nil || f != FontSize4 || f.String() != "Size4" {
		t.Fatalf("NewFont(4) = %v, %v", f, err)
	}
	for _, v := range []int{0, 6, 9} {
		if _, err := NewFont(v); !errors.Is(err, ErrOutOfDomain) {
			t.Errorf("NewFont(%d) err = %v", v, err)
		}
	}
}

func TestReverseImageDistinguishesR(t *testing.T) {
	n, err := NewReverseImage('N')
	if err != nil || n != ImageNormal {
		t.Fatalf("NewReverseImage('N') = %v, %v", n, err)
	}
	r, err := NewReverseImage('R')
	if err != nil || r != ImageReverse {
		t.Fatalf("NewReverseImage('R') = %v, %v", r, err)
	}
	if r.Byte() != 'R' || n.Byte() != 'N' {
		t.Fatalf("Byte() = %q, %q", r.Byte(), n.Byte())
	}
	if _, err := NewReverseImage('X'); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("NewReverseImage('X') err = %v", err)
	}
}

func TestCodePage(t *testing.T) {
	tests := []struct {
		token string
		want  CodePage
	}{
		{"0", DOS437},
		{"13", DOS869},
		{"A", Windows1252},
		{"F", Windows1255},
	}
	for _, tt := range tests {
		got, err := NewCodePage(tt.token)
		if err != nil || got != tt.want {
			t.Errorf("NewCodePage(%q) = %v, %v, want %v", tt.token, got, err, tt.want)
		}
		if got.Token() != tt.token {
			t.Errorf("%v.Token() = %q, want %q", got, got.Token(), tt.token)
		}
	}
	for _, tok := range []string{"", "14", "G", "100", "a"} {
		if _, err := NewCodePage(tok); !errors.Is(err, ErrOutOfDomain) {
			t.Errorf("NewCodePage(%q) err = %v, want ErrOutOfDomain", tok, err)
		}
	}
}

func TestCountryCode(t *testing.T) {
	c, err := NewCountryCode(49)
	if err != nil || c != CountryGermany || c.Token() != "049" {
		t.Fatalf("NewCountryCode(49) = %v (%s), %v", c, c.Token(), err)
	}
	if _, err := NewCountryCode(4); !errors.Is(err, ErrOutOfDomain) {
		t.Errorf("NewCountryCode(4) err = %v", err)
	}
}

func TestBarCodeSymbology(t *testing.T) {
	for _, tok := range []string{"1", "1A", "1B", "1C"} {
		s, err := NewBarCodeSymbology(tok)
		if err != nil || s.Code() != tok {
			t.Errorf("NewBarCodeSymbology(%q) = %v, %v", tok, s, err)
		}
	}
	var de *DecodeError
	_, err := NewBarCodeSymbology("3")
	if !errors.As(err, &de) || de.Field != "BarCodeSymbology" || de.Value != "3" {
		t.Errorf("NewBarCodeSymbology(\"3\") err = %v", err)
	}
}

func TestFieldZeroValues(t *testing.T) {
	if got := (Rotation{}); got != NoRotation || got.Int() != 0 {
		t.Errorf("zero Rotation = %v", got)
	}
	if got := (Font{}); got != FontSize1 || got.Int() != 1 {
		t.Errorf("zero Font = %v", got)
	}
	if got := (BarCodeSymbology{}); got != Code128Auto || got.Code() != "1" {
		t.Errorf("zero BarCodeSymbology = %v", got)
	}
	if got := (CodePage{}); got != DOS437 || got.Token() != "0" {
		t.Errorf("zero CodePage = %v", got)
	}
	if got := (CountryCode{}); got != CountryUSA || got.Token() != "001" {
		t.Errorf("zero CountryCode = %v", got)
	}
	if got := (ReverseImage{}); got.Byte() != 'N' {
		t.Errorf("zero ReverseImage = %v", got)
	}
	if got := (Direction{}); got.Byte() != 'T' {
		t.Errorf("zero Direction = %v", got)
	}
	if got := (CharacterBits{}); got.Int() != 8 {
		t.Errorf("zero CharacterBits = %d", got.Int())
	}
}

func TestFieldTextForm(t *testing.T) {
	text, err := Rotate180.MarshalText()
	if err != nil || string(text) != "Rotate180" {
		t.Errorf("Rotate180.MarshalText() = %q, %v", text, err)
	}
	if text, _ := CountryFinland.MarshalText(); string(text) != "Finland" || CountryFinland.Int() != 358 {
		t.Errorf("CountryFinland = %q, %d", text, CountryFinland.Int())
	}
}
