// pkg/epl2/commands.go
package epl2

// Kind identifies a Command variant.
type Kind uint8

// Supported command kinds.
const (
	KindAsciiText Kind = iota + 1
	KindBarCodeStandard
	KindBarCode2D
	KindDensity
	KindGraphics
	KindCharacterSetSelection
	KindLineDraw
	KindClearImageBuffer
	KindPrint
	KindSetFormWidth
	KindSetFormLength
	KindSpeedSelect
	KindPrintConfiguration
	KindWindowsMode
	KindBoxDraw
	KindPrintDirection
)

var kindInfo = map[Kind]struct{ name, tag string }{
	KindAsciiText:             {"AsciiText", "A"},
	KindBarCodeStandard:       {"BarCodeStandard", "B"},
	KindBarCode2D:             {"BarCode2D", "b"},
	KindDensity:               {"Density", "D"},
	KindGraphics:              {"Graphics", "GW"},
	KindCharacterSetSelection: {"CharacterSetSelection", "I"},
	KindLineDraw:              {"LineDraw", "LO"},
	KindClearImageBuffer:      {"ClearImageBuffer", "N"},
	KindPrint:                 {"Print", "P"},
	KindSetFormWidth:          {"SetFormWidth", "q"},
	KindSetFormLength:         {"SetFormLength", "Q"},
	KindSpeedSelect:           {"SpeedSelect", "S"},
	KindPrintConfiguration:    {"PrintConfiguration", "U"},
	KindWindowsMode:           {"WindowsMode", "W"},
	KindBoxDraw:               {"BoxDraw", "X"},
	KindPrintDirection:        {"PrintDirection", "Z"},
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindInfo))
	for k := KindAsciiText; k <= KindPrintDirection; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return "Unknown"
}

// Tag returns the command letters that introduce the kind on the wire.
func (k Kind) Tag() string {
	return kindInfo[k].tag
}

// Command is one decoded EPL2 command. The set of implementations is closed;
// switch on the concrete type or on Kind.
type Command interface {
	Kind() Kind
	command()
}

// AsciiText (A) prints a line of resident-font text.
type AsciiText struct {
	HStart   int
	VStart   int
	Rotation Rotation
	Font     Font
	HMult    HorizontalMultiplier
	VMult    VerticalMultiplier
	Reverse  ReverseImage
	Data     []byte
}

// BarCodeStandard (B) prints a linear barcode.
type BarCodeStandard struct {
	HStart        int
	VStart        int
	Rotation      Rotation
	Symbology     BarCodeSymbology
	NarrowWidth   int
	WideWidth     int
	Height        int
	HumanReadable bool
	Data          []byte
}

// BarCode2D (b) prints a PDF417 symbol. Data is either a quoted literal or,
// when Binary is set, a counted block of raw bytes.
type BarCode2D struct {
	HStart          int
	VStart          int
	Symbology       BarCode2DSymbology
	MaxWidth        int
	MaxHeight       int
	ErrorCorrection int
	Compression     int
	ModuleWidth     int
	BarHeight       int
	MaxRows         int
	MaxCols         int
	Truncated       bool
	Rotation        Rotation
	Binary          bool
	Data            []byte
}

// Density (D) sets print darkness 0-15.
type Density struct {
	Setting int
}

// Graphics (GW) writes a raster directly to the image buffer. Each of the
// LengthDots rows is WidthBytes bytes, eight dots per byte.
type Graphics struct {
	HStart     int
	VStart     int
	WidthBytes int
	LengthDots int
	Data       []byte
}

// WidthDots returns the raster width in dots.
func (g *Graphics) WidthDots() int { return g.WidthBytes * 8 }

// CharacterSetSelection (I) selects the code page and country variant.
type CharacterSetSelection struct {
	Bits     CharacterBits
	CodePage CodePage
	Country  CountryCode
}

// LineDraw (LO) draws a black line.
type LineDraw struct {
	HStart  int
	VStart  int
	HLength int
	VLength int
}

// ClearImageBuffer (N) starts a new label.
type ClearImageBuffer struct{}

// Print (P) prints Sets labels, each Copies times.
type Print struct {
	Sets   int
	Copies int
}

// SetFormWidth (q) sets the label width in dots.
type SetFormWidth struct {
	Width int
}

// SetFormLength (Q) sets the label length, gap length and gap offset in dots.
type SetFormLength struct {
	Length int
	Gap    int
	Offset int
}

// SpeedSelect (S) carries a printer-specific speed index, left uninterpreted.
type SpeedSelect struct {
	Speed int
}

// PrintConfiguration (U) asks the printer to print its configuration.
type PrintConfiguration struct{}

// WindowsMode (W) toggles Windows mode.
type WindowsMode struct {
	Enabled bool
}

// BoxDraw (X) draws a rectangle outline.
type BoxDraw struct {
	HStart    int
	VStart    int
	Thickness int
	HEnd      int
	VEnd      int
}

// PrintDirection (Z) selects printing from the top or bottom.
type PrintDirection struct {
	Direction Direction
}

func (*AsciiText) Kind() Kind             { return KindAsciiText }
func (*BarCodeStandard) Kind() Kind       { return KindBarCodeStandard }
func (*BarCode2D) Kind() Kind             { return KindBarCode2D }
func (*Density) Kind() Kind               { return KindDensity }
func (*Graphics) Kind() Kind              { return KindGraphics }
func (*CharacterSetSelection) Kind() Kind { return KindCharacterSetSelection }
func (*LineDraw) Kind() Kind              { return KindLineDraw }
func (*ClearImageBuffer) Kind() Kind      { return KindClearImageBuffer }
func (*Print) Kind() Kind                 { return KindPrint }
func (*SetFormWidth) Kind() Kind          { return KindSetFormWidth }
func (*SetFormLength) Kind() Kind         { return KindSetFormLength }
func (*SpeedSelect) Kind() Kind           { return KindSpeedSelect }
func (*PrintConfiguration) Kind() Kind    { return KindPrintConfiguration }
func (*WindowsMode) Kind() Kind           { return KindWindowsMode }
func (*BoxDraw) Kind() Kind               { return KindBoxDraw }
func (*PrintDirection) Kind() Kind        { return KindPrintDirection }

func (*AsciiText) command()             {}
func (*BarCodeStandard) command()       {}
func (*BarCode2D) command()             {}
func (*Density) command()               {}
func (*Graphics) command()              {}
func (*CharacterSetSelection) command() {}
func (*LineDraw) command()              {}
func (*ClearImageBuffer) command()      {}
func (*Print) command()                 {}
func (*SetFormWidth) command()          {}
func (*SetFormLength) command()         {}
func (*SpeedSelect) command()           {}
func (*PrintConfiguration) command()    {}
func (*WindowsMode) command()           {}
func (*BoxDraw) command()               {}
func (*PrintDirection) command()        {}
