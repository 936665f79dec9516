// pkg/epl2/fields.go
package epl2

import "fmt"

// The field types below are opaque: the zero value of each is a valid wire
// value, and the constructors are the only way to reach the others. A
// hand-built command therefore always carries encodable fields.

// Rotation is the print orientation of a text, barcode or 2D field.
// The zero value is NoRotation.
type Rotation struct{ quarters uint8 }

// Rotations, in wire order 0-3.
var (
	NoRotation = Rotation{0}
	Rotate90   = Rotation{1}
	Rotate180  = Rotation{2}
	Rotate270  = Rotation{3}
)

// NewRotation validates a wire rotation value.
func NewRotation(v int) (Rotation, error) {
	if v < 0 || v > 3 {
		return Rotation{}, outOfDomain("Rotation", v)
	}
	return Rotation{quarters: uint8(v)}, nil
}

// Int returns the wire value 0-3.
func (r Rotation) Int() int { return int(r.quarters) }

// Degrees returns the clockwise rotation in degrees.
func (r Rotation) Degrees() int { return r.Int() * 90 }

func (r Rotation) String() string {
	if r == NoRotation {
		return "NoRotation"
	}
	return fmt.Sprintf("Rotate%d", r.Degrees())
}

func (r Rotation) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Font selects one of the five resident fonts. Soft fonts and the
// numeric-only fonts are not supported. The zero value is FontSize1.
type Font struct{ off uint8 }

// Resident fonts.
var (
	FontSize1 = Font{0}
	FontSize2 = Font{1}
	FontSize3 = Font{2}
	FontSize4 = Font{3}
	FontSize5 = Font{4}
)

// NewFont validates a wire font number.
func NewFont(v int) (Font, error) {
	if v < 1 || v > 5 {
		return Font{}, outOfDomain("Font", v)
	}
	return Font{off: uint8(v - 1)}, nil
}

// Int returns the wire font number 1-5.
func (f Font) Int() int { return int(f.off) + 1 }

func (f Font) String() string { return fmt.Sprintf("Size%d", f.Int()) }

func (f Font) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

var horizontalMultipliers = [...]int{1, 2, 3, 4, 5, 6, 8}

// HorizontalMultiplier is a text width expansion in {1,2,3,4,5,6,8}.
// The zero value is 1.
type HorizontalMultiplier struct{ idx uint8 }

// NewHorizontalMultiplier validates a wire horizontal multiplier.
func NewHorizontalMultiplier(v int) (HorizontalMultiplier, error) {
	for i, m := range horizontalMultipliers {
		if m == v {
			return HorizontalMultiplier{idx: uint8(i)}, nil
		}
	}
	return HorizontalMultiplier{}, outOfDomain("HorizontalMultiplier", v)
}

// Int returns the multiplier value.
func (m HorizontalMultiplier) Int() int { return horizontalMultipliers[m.idx] }

func (m HorizontalMultiplier) String() string { return fmt.Sprintf("x%d", m.Int()) }

func (m HorizontalMultiplier) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// VerticalMultiplier is a text height expansion in 1..9. The zero value is 1.
type VerticalMultiplier struct{ off uint8 }

// NewVerticalMultiplier validates a wire vertical multiplier.
func NewVerticalMultiplier(v int) (VerticalMultiplier, error) {
	if v < 1 || v > 9 {
		return VerticalMultiplier{}, outOfDomain("VerticalMultiplier", v)
	}
	return VerticalMultiplier{off: uint8(v - 1)}, nil
}

// Int returns the multiplier value.
func (m VerticalMultiplier) Int() int { return int(m.off) + 1 }

func (m VerticalMultiplier) String() string { return fmt.Sprintf("x%d", m.Int()) }

func (m VerticalMultiplier) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ReverseImage selects normal or inverted text. The zero value is ImageNormal.
type ReverseImage struct{ reverse bool }

var (
	ImageNormal  = ReverseImage{false}
	ImageReverse = ReverseImage{true}
)

// NewReverseImage maps 'N' to ImageNormal and 'R' to ImageReverse.
func NewReverseImage(b byte) (ReverseImage, error) {
	switch b {
	case 'N':
		return ImageNormal, nil
	case 'R':
		return ImageReverse, nil
	}
	return ReverseImage{}, outOfDomain("ReverseImage", string(rune(b)))
}

// Byte returns the wire character.
func (r ReverseImage) Byte() byte { return flagByte(r.reverse, 'R', 'N') }

func (r ReverseImage) String() string {
	if r.reverse {
		return "Reverse"
	}
	return "Normal"
}

func (r ReverseImage) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// BarCodeSymbology is the linear barcode selection of a B command.
// Only the Code 128 family is supported. The zero value is Code128Auto.
type BarCodeSymbology struct{ idx uint8 }

var (
	Code128Auto = BarCodeSymbology{0}
	Code128A    = BarCodeSymbology{1}
	Code128B    = BarCodeSymbology{2}
	Code128C    = BarCodeSymbology{3}
)

var symbologies = [...]struct{ code, name string }{
	{"1", "Code128Auto"},
	{"1A", "Code128A"},
	{"1B", "Code128B"},
	{"1C", "Code128C"},
}

// NewBarCodeSymbology validates a wire barcode selection token.
func NewBarCodeSymbology(token string) (BarCodeSymbology, error) {
	for i, s := range symbologies {
		if s.code == token {
			return BarCodeSymbology{idx: uint8(i)}, nil
		}
	}
	return BarCodeSymbology{}, outOfDomain("BarCodeSymbology", token)
}

// Code returns the wire token.
func (s BarCodeSymbology) Code() string { return symbologies[s.idx].code }

func (s BarCodeSymbology) String() string { return symbologies[s.idx].name }

func (s BarCodeSymbology) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// BarCode2DSymbology is the symbol type of a b command. Only PDF417 is
// supported, so the type has a single value.
type BarCode2DSymbology struct{}

var PDF417 = BarCode2DSymbology{}

// NewBarCode2DSymbology validates a wire 2D symbology character.
func NewBarCode2DSymbology(b byte) (BarCode2DSymbology, error) {
	if b != 'P' {
		return PDF417, outOfDomain("BarCode2DSymbology", string(rune(b)))
	}
	return PDF417, nil
}

// Byte returns the wire character.
func (BarCode2DSymbology) Byte() byte { return 'P' }

func (BarCode2DSymbology) String() string { return "PDF417" }

func (s BarCode2DSymbology) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// CharacterBits is the data width of a character set selection.
// Only 8-bit data is supported, so the type has a single value.
type CharacterBits struct{}

var Bits8 = CharacterBits{}

// NewCharacterBits validates the bit width.
func NewCharacterBits(v int) (CharacterBits, error) {
	if v != 8 {
		return Bits8, outOfDomain("CharacterBits", v)
	}
	return Bits8, nil
}

// Int returns the bit width.
func (CharacterBits) Int() int { return 8 }

func (CharacterBits) MarshalText() ([]byte, error) { return []byte("8"), nil }

// CodePage is the 8-bit character encoding selected by an I command.
// The zero value is DOS437.
type CodePage struct{ idx uint8 }

var (
	DOS437      = CodePage{0}
	DOS850      = CodePage{1}
	DOS852      = CodePage{2}
	DOS860      = CodePage{3}
	DOS863      = CodePage{4}
	DOS865      = CodePage{5}
	DOS857      = CodePage{6}
	DOS861      = CodePage{7}
	DOS862      = CodePage{8}
	DOS855      = CodePage{9}
	DOS866      = CodePage{10}
	DOS737      = CodePage{11}
	DOS851      = CodePage{12}
	DOS869      = CodePage{13}
	Windows1252 = CodePage{14}
	Windows1250 = CodePage{15}
	Windows1251 = CodePage{16}
	Windows1253 = CodePage{17}
	Windows1254 = CodePage{18}
	Windows1255 = CodePage{19}
)

// windowsPages is the index of the first page selected by a letter.
const windowsPages = 14

var codePageNames = [...]string{
	"DOS437", "DOS850", "DOS852", "DOS860", "DOS863", "DOS865", "DOS857",
	"DOS861", "DOS862", "DOS855", "DOS866", "DOS737", "DOS851", "DOS869",
	"Windows1252", "Windows1250", "Windows1251", "Windows1253", "Windows1254", "Windows1255",
}

// NewCodePage validates a wire code page token: 0-13 for DOS pages,
// A-F for Windows pages.
func NewCodePage(token string) (CodePage, error) {
	if len(token) == 1 && token[0] >= 'A' && token[0] <= 'F' {
		return CodePage{idx: windowsPages + token[0] - 'A'}, nil
	}
	n := 0
	for i := 0; i < len(token); i++ {
		if !isDigit(token[i]) || i >= 2 {
			return CodePage{}, outOfDomain("CodePage", token)
		}
		n = n*10 + int(token[i]-'0')
	}
	if token == "" || n >= windowsPages {
		return CodePage{}, outOfDomain("CodePage", token)
	}
	return CodePage{idx: uint8(n)}, nil
}

// Token returns the canonical wire token.
func (p CodePage) Token() string {
	if p.idx >= windowsPages {
		return string(rune('A' + p.idx - windowsPages))
	}
	return fmt.Sprint(p.idx)
}

func (p CodePage) String() string { return codePageNames[p.idx] }

func (p CodePage) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// CountryCode is a KDU country code. The zero value is CountryUSA.
type CountryCode struct{ idx uint8 }

var countries = [...]struct {
	code int
	name string
}{
	{1, "USA"}, {2, "Canada"}, {3, "LatinAm"}, {27, "SAfrica"},
	{31, "Netherlands"}, {32, "Belgium"}, {33, "France"}, {34, "Spain"},
	{39, "Italy"}, {41, "Switzerland"}, {44, "UK"}, {45, "Denmark"},
	{46, "Sweden"}, {47, "Norway"}, {49, "Germany"}, {351, "Portugal"},
	{358, "Finland"},
}

// Countries, in table order.
var (
	CountryUSA         = CountryCode{0}
	CountryCanada      = CountryCode{1}
	CountryLatinAm     = CountryCode{2}
	CountrySAfrica     = CountryCode{3}
	CountryNetherlands = CountryCode{4}
	CountryBelgium     = CountryCode{5}
	CountryFrance      = CountryCode{6}
	CountrySpain       = CountryCode{7}
	CountryItaly       = CountryCode{8}
	CountrySwitzerland = CountryCode{9}
	CountryUK          = CountryCode{10}
	CountryDenmark     = CountryCode{11}
	CountrySweden      = CountryCode{12}
	CountryNorway      = CountryCode{13}
	CountryGermany     = CountryCode{14}
	CountryPortugal    = CountryCode{15}
	CountryFinland     = CountryCode{16}
)

// NewCountryCode validates a numeric KDU country code.
func NewCountryCode(v int) (CountryCode, error) {
	for i, c := range countries {
		if c.code == v {
			return CountryCode{idx: uint8(i)}, nil
		}
	}
	return CountryCode{}, outOfDomain("CountryCode", fmt.Sprintf("%03d", v))
}

// Int returns the numeric dialing code.
func (c CountryCode) Int() int { return countries[c.idx].code }

// Token returns the three-digit wire form.
func (c CountryCode) Token() string { return fmt.Sprintf("%03d", c.Int()) }

func (c CountryCode) String() string { return countries[c.idx].name }

func (c CountryCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Direction is the label orientation selected by Z. The zero value is
// DirectionTop.
type Direction struct{ bottom bool }

var (
	DirectionTop    = Direction{false}
	DirectionBottom = Direction{true}
)

// NewDirection maps 'T' and 'B'.
func NewDirection(b byte) (Direction, error) {
	switch b {
	case 'T':
		return DirectionTop, nil
	case 'B':
		return DirectionBottom, nil
	}
	return Direction{}, outOfDomain("Direction", string(rune(b)))
}

// Byte returns the wire character.
func (d Direction) Byte() byte { return flagByte(d.bottom, 'B', 'T') }

func (d Direction) String() string {
	if d.bottom {
		return "Bottom"
	}
	return "Top"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// newFlag maps a two-valued character field such as B/N or Y/N to a bool.
func newFlag(field string, b, yes, no byte) (bool, error) {
	switch b {
	case yes:
		return true, nil
	case no:
		return false, nil
	}
	return false, outOfDomain(field, string(rune(b)))
}

// inRange validates a bounded integer field.
func inRange(field string, v, lo, hi int) (int, error) {
	if v < lo || v > hi {
		return 0, outOfDomain(field, v)
	}
	return v, nil
}
