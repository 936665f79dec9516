// pkg/epl2/grammar.go
package epl2

import (
	"errors"
	"math"
)

// fieldReader walks the comma-separated fields of one command. The first
// failure sticks: every later read is a no-op returning a zero value, so a
// grammar reads as a straight list of fields and checks once at the end.
type fieldReader struct {
	c   *Cursor
	err error

	// unsafe is set while a failure would leave the cursor inside data whose
	// extent is unknown. Skipping to the next line is then not a safe resync.
	unsafe bool
}

// grammar parses one command, starting at its tag.
type grammar func(r *fieldReader) Command

func (r *fieldReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// validated records a domain error against the offset of the field it came from.
func (r *fieldReader) validated(start Position, err error) {
	if err == nil {
		return
	}
	var de *DecodeError
	if errors.As(err, &de) && de.Kind == KindOutOfDomain {
		de.Pos = start
	}
	r.fail(err)
}

func (r *fieldReader) tag(t string) {
	for i := 0; i < len(t) && r.err == nil; i++ {
		r.fail(expectByte(r.c, t[i]))
	}
}

func (r *fieldReader) lit(b byte) {
	if r.err == nil {
		r.fail(expectByte(r.c, b))
	}
}

func (r *fieldReader) comma() {
	if r.err == nil {
		r.fail(expectComma(r.c))
	}
}

func (r *fieldReader) end() {
	if r.err == nil {
		r.fail(expectLineEnd(r.c))
	}
}

// endAfterBlock consumes an optional "\n" or "\r\n" following raw data.
// Anything else is the start of the next command.
func (r *fieldReader) endAfterBlock() {
	if r.err != nil {
		return
	}
	b, _ := r.c.Peek()
	next, _ := r.c.PeekAt(1)
	switch {
	case b == '\n':
		r.c.Advance(1)
	case b == '\r' && next == '\n':
		r.c.Advance(2)
	}
}

func (r *fieldReader) uint() int {
	if r.err != nil {
		return 0
	}
	v, err := parseUnsigned(r.c)
	r.fail(err)
	return v
}

func (r *fieldReader) int() int {
	if r.err != nil {
		return 0
	}
	v, err := parseSigned(r.c)
	r.fail(err)
	return v
}

// bounded reads an unsigned field limited to lo..hi.
func (r *fieldReader) bounded(field string, lo, hi int) int {
	start := r.c.Position()
	v := r.uint()
	if r.err != nil {
		return 0
	}
	v, err := inRange(field, v, lo, hi)
	r.validated(start, err)
	return v
}

func (r *fieldReader) signedBounded(field string, lo, hi int) int {
	start := r.c.Position()
	v := r.int()
	if r.err != nil {
		return 0
	}
	v, err := inRange(field, v, lo, hi)
	r.validated(start, err)
	return v
}

func (r *fieldReader) flag(field string, yes, no byte) bool {
	return character(r, func(b byte) (bool, error) { return newFlag(field, b, yes, no) })
}

// peekChar returns the byte of a one-character field. The byte is consumed
// only once it validates, so a stray line feed is left for recovery.
func (r *fieldReader) peekChar() byte {
	if r.err != nil {
		return 0
	}
	b, ok := r.c.Peek()
	if !ok {
		r.fail(errAt(KindUnexpectedEnd, r.c.Position()))
	}
	return b
}

// token reads an alphanumeric selector such as "1A" or "13".
func (r *fieldReader) token() string {
	if r.err != nil {
		return ""
	}
	if r.c.AtEnd() {
		r.fail(errAt(KindUnexpectedEnd, r.c.Position()))
		return ""
	}
	return string(r.c.ReadWhile(func(b byte) bool {
		return isDigit(b) || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
	}))
}

func (r *fieldReader) str() []byte {
	if r.err != nil {
		return nil
	}
	s, err := parseEscapedString(r.c)
	r.fail(err)
	return s
}

func (r *fieldReader) block(n int) []byte {
	if r.err != nil {
		return nil
	}
	data, err := readBlock(r.c, n)
	r.fail(err)
	return data
}

// numeric reads an unsigned field and maps it through a validator.
func numeric[T any](r *fieldReader, validate func(int) (T, error)) T {
	var zero T
	start := r.c.Position()
	v := r.uint()
	if r.err != nil {
		return zero
	}
	out, err := validate(v)
	r.validated(start, err)
	return out
}

// character reads a one-byte field and maps it through a validator.
func character[T any](r *fieldReader, validate func(byte) (T, error)) T {
	var zero T
	start := r.c.Position()
	b := r.peekChar()
	if r.err != nil {
		return zero
	}
	out, err := validate(b)
	if err != nil {
		r.validated(start, err)
		return zero
	}
	r.c.Advance(1)
	return out
}

// selector reads an alphanumeric token and maps it through a validator.
func selector[T any](r *fieldReader, validate func(string) (T, error)) T {
	var zero T
	start := r.c.Position()
	tok := r.token()
	if r.err != nil {
		return zero
	}
	out, err := validate(tok)
	r.validated(start, err)
	return out
}

// A{h},{v},{rot},{font},{hmult},{vmult},{N|R},"{data}"
func parseAsciiText(r *fieldReader) Command {
	cmd := &AsciiText{}
	r.tag("A")
	cmd.HStart = r.uint()
	r.comma()
	cmd.VStart = r.uint()
	r.comma()
	cmd.Rotation = numeric(r, NewRotation)
	r.comma()
	cmd.Font = numeric(r, NewFont)
	r.comma()
	cmd.HMult = numeric(r, NewHorizontalMultiplier)
	r.comma()
	cmd.VMult = numeric(r, NewVerticalMultiplier)
	r.comma()
	cmd.Reverse = character(r, NewReverseImage)
	r.comma()
	cmd.Data = r.str()
	r.end()
	return cmd
}

// B{h},{v},{rot},{sel},{narrow},{wide},{height},{B|N},"{data}"
func parseBarCodeStandard(r *fieldReader) Command {
	cmd := &BarCodeStandard{}
	r.tag("B")
	cmd.HStart = r.uint()
	r.comma()
	cmd.VStart = r.uint()
	r.comma()
	cmd.Rotation = numeric(r, NewRotation)
	r.comma()
	cmd.Symbology = selector(r, NewBarCodeSymbology)
	r.comma()
	cmd.NarrowWidth = r.bounded("NarrowWidth", 1, math.MaxInt32)
	r.comma()
	cmd.WideWidth = r.bounded("WideWidth", 2, 30)
	r.comma()
	cmd.Height = r.bounded("Height", 1, math.MaxInt32)
	r.comma()
	cmd.HumanReadable = r.flag("HumanReadable", 'B', 'N')
	r.comma()
	cmd.Data = r.str()
	r.end()
	return cmd
}

// b{h},{v},P,{maxw},{maxh},s{ecc},c{comp},x{modw},y{barh},r{rows},l{cols},t{0|1},o{rot},
// followed by "{data}" or {n},{n raw bytes}.
func parseBarCode2D(r *fieldReader) Command {
	cmd := &BarCode2D{}
	r.unsafe = true
	r.tag("b")
	cmd.HStart = r.uint()
	r.comma()
	cmd.VStart = r.uint()
	r.comma()
	cmd.Symbology = character(r, NewBarCode2DSymbology)
	r.comma()
	cmd.MaxWidth = r.uint()
	r.comma()
	cmd.MaxHeight = r.uint()
	r.comma()
	r.lit('s')
	cmd.ErrorCorrection = r.bounded("ErrorCorrection", 0, 8)
	r.comma()
	r.lit('c')
	cmd.Compression = r.bounded("Compression", 0, 1)
	r.comma()
	r.lit('x')
	cmd.ModuleWidth = r.bounded("ModuleWidth", 2, 9)
	r.comma()
	r.lit('y')
	cmd.BarHeight = r.bounded("BarHeight", 4, 99)
	r.comma()
	r.lit('r')
	cmd.MaxRows = r.bounded("MaxRows", 3, 90)
	r.comma()
	r.lit('l')
	cmd.MaxCols = r.bounded("MaxCols", 1, 30)
	r.comma()
	r.lit('t')
	cmd.Truncated = r.flag("Truncated", '1', '0')
	r.comma()
	r.lit('o')
	cmd.Rotation = numeric(r, NewRotation)
	r.comma()
	if r.err != nil {
		return cmd
	}

	if b, ok := r.c.Peek(); ok && b == '"' {
		r.unsafe = false
		cmd.Data = r.str()
		r.end()
		return cmd
	}
	cmd.Binary = true
	n := r.uint()
	r.comma()
	cmd.Data = r.block(n)
	r.endAfterBlock()
	return cmd
}

// D{0-15}
func parseDensity(r *fieldReader) Command {
	cmd := &Density{}
	r.tag("D")
	cmd.Setting = r.bounded("Density", 0, 15)
	r.end()
	return cmd
}

// GW{h},{v},{width bytes},{length dots},{width*length raw bytes}
func parseGraphics(r *fieldReader) Command {
	cmd := &Graphics{}
	r.unsafe = true
	r.tag("GW")
	cmd.HStart = r.uint()
	r.comma()
	cmd.VStart = r.uint()
	r.comma()
	cmd.WidthBytes = r.bounded("WidthBytes", 1, math.MaxInt32)
	r.comma()
	cmd.LengthDots = r.bounded("LengthDots", 1, math.MaxInt32)
	r.comma()
	if r.err != nil {
		return cmd
	}
	size := int64(cmd.WidthBytes) * int64(cmd.LengthDots)
	if size > int64(r.c.Remaining()) {
		r.fail(errAt(KindUnexpectedEnd, Position(r.c.Len())))
		return cmd
	}
	cmd.Data = r.block(int(size))
	r.endAfterBlock()
	return cmd
}

// I8,{0-13|A-F},{country}
func parseCharacterSetSelection(r *fieldReader) Command {
	cmd := &CharacterSetSelection{}
	r.tag("I")
	cmd.Bits = numeric(r, NewCharacterBits)
	r.comma()
	cmd.CodePage = selector(r, NewCodePage)
	r.comma()
	cmd.Country = numeric(r, NewCountryCode)
	r.end()
	return cmd
}

// LO{h},{v},{hlen},{vlen}
func parseLineDraw(r *fieldReader) Command {
	cmd := &LineDraw{}
	r.tag("LO")
	cmd.HStart = r.uint()
	r.comma()
	cmd.VStart = r.uint()
	r.comma()
	cmd.HLength = r.uint()
	r.comma()
	cmd.VLength = r.uint()
	r.end()
	return cmd
}

func parseClearImageBuffer(r *fieldReader) Command {
	r.tag("N")
	r.end()
	return &ClearImageBuffer{}
}

// P{sets}[,{copies}]
func parsePrint(r *fieldReader) Command {
	cmd := &Print{Copies: 1}
	r.tag("P")
	cmd.Sets = r.bounded("Sets", 1, math.MaxUint16)
	if b, ok := r.c.Peek(); ok && b == ',' && r.err == nil {
		r.comma()
		cmd.Copies = r.bounded("Copies", 1, math.MaxUint16)
	}
	r.end()
	return cmd
}

func parseSetFormWidth(r *fieldReader) Command {
	cmd := &SetFormWidth{}
	r.tag("q")
	cmd.Width = r.bounded("Width", 1, math.MaxInt32)
	r.end()
	return cmd
}

// Q{length},{gap},{offset}
func parseSetFormLength(r *fieldReader) Command {
	cmd := &SetFormLength{}
	r.tag("Q")
	cmd.Length = r.bounded("Length", 1, math.MaxUint16)
	r.comma()
	cmd.Gap = r.bounded("Gap", 0, math.MaxUint16)
	r.comma()
	cmd.Offset = r.signedBounded("Offset", -math.MaxUint16, math.MaxUint16)
	r.end()
	return cmd
}

func parseSpeedSelect(r *fieldReader) Command {
	cmd := &SpeedSelect{}
	r.tag("S")
	cmd.Speed = r.bounded("Speed", 0, math.MaxUint8)
	r.end()
	return cmd
}

func parsePrintConfiguration(r *fieldReader) Command {
	r.tag("U")
	r.end()
	return &PrintConfiguration{}
}

func parseWindowsMode(r *fieldReader) Command {
	cmd := &WindowsMode{}
	r.tag("W")
	cmd.Enabled = r.flag("WindowsMode", 'Y', 'N')
	r.end()
	return cmd
}

// X{h},{v},{thickness},{hend},{vend}
func parseBoxDraw(r *fieldReader) Command {
	cmd := &BoxDraw{}
	r.tag("X")
	cmd.HStart = r.uint()
	r.comma()
	cmd.VStart = r.uint()
	r.comma()
	cmd.Thickness = r.uint()
	r.comma()
	cmd.HEnd = r.uint()
	r.comma()
	cmd.VEnd = r.uint()
	r.end()
	return cmd
}

func parsePrintDirection(r *fieldReader) Command {
	cmd := &PrintDirection{}
	r.tag("Z")
	cmd.Direction = character(r, NewDirection)
	r.end()
	return cmd
}
