// pkg/epl2/encode.go
package epl2

import (
	"fmt"
	"math"
	"strconv"
)

// Marshal serializes commands to canonical EPL2, one command per line.
// Decoding the result yields the same commands. Nothing is returned if any
// command fails to encode.
func Marshal(cmds ...Command) ([]byte, error) {
	var out []byte
	for i, cmd := range cmds {
		var err error
		if out, err = AppendCommand(out, cmd); err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
	}
	return out, nil
}

// AppendCommand appends the canonical form of cmd, including its line
// terminator, to dst. Print always carries its copies count; text escapes
// use the shortest form, so "\/" is written back as "/".
//
// Integer fields must lie in the range the decoder accepts and raw payloads
// must match their declared size; otherwise dst is returned unchanged with
// an *EncodeError.
func AppendCommand(dst []byte, cmd Command) ([]byte, error) {
	if cmd == nil {
		return dst, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	if err := checkCommand(cmd); err != nil {
		return dst, err
	}

	switch c := cmd.(type) {
	case *AsciiText:
		dst = append(dst, 'A')
		dst = appendInts(dst, c.HStart, c.VStart, c.Rotation.Int(), c.Font.Int(), c.HMult.Int(), c.VMult.Int())
		dst = append(dst, ',', c.Reverse.Byte(), ',')
		dst = appendQuoted(dst, c.Data)
	case *BarCodeStandard:
		dst = append(dst, 'B')
		dst = appendInts(dst, c.HStart, c.VStart, c.Rotation.Int())
		dst = append(dst, ',')
		dst = append(dst, c.Symbology.Code()...)
		dst = append(dst, ',')
		dst = appendInts(dst, c.NarrowWidth, c.WideWidth, c.Height)
		dst = append(dst, ',', flagByte(c.HumanReadable, 'B', 'N'), ',')
		dst = appendQuoted(dst, c.Data)
	case *BarCode2D:
		dst = append(dst, 'b')
		dst = appendInts(dst, c.HStart, c.VStart)
		dst = append(dst, ',', c.Symbology.Byte(), ',')
		dst = appendInts(dst, c.MaxWidth, c.MaxHeight)
		dst = fmt.Appendf(dst, ",s%d,c%d,x%d,y%d,r%d,l%d,t%c,o%d,",
			c.ErrorCorrection, c.Compression, c.ModuleWidth, c.BarHeight,
			c.MaxRows, c.MaxCols, flagByte(c.Truncated, '1', '0'), c.Rotation.Int())
		if c.Binary {
			dst = strconv.AppendInt(dst, int64(len(c.Data)), 10)
			dst = append(dst, ',')
			dst = append(dst, c.Data...)
		} else {
			dst = appendQuoted(dst, c.Data)
		}
	case *Density:
		dst = fmt.Appendf(dst, "D%d", c.Setting)
	case *Graphics:
		dst = append(dst, 'G', 'W')
		dst = appendInts(dst, c.HStart, c.VStart, c.WidthBytes, c.LengthDots)
		dst = append(dst, ',')
		dst = append(dst, c.Data...)
	case *CharacterSetSelection:
		dst = fmt.Appendf(dst, "I%d,%s,%s", c.Bits.Int(), c.CodePage.Token(), c.Country.Token())
	case *LineDraw:
		dst = append(dst, 'L', 'O')
		dst = appendInts(dst, c.HStart, c.VStart, c.HLength, c.VLength)
	case *ClearImageBuffer:
		dst = append(dst, 'N')
	case *Print:
		dst = fmt.Appendf(dst, "P%d,%d", c.Sets, printCopies(c))
	case *SetFormWidth:
		dst = fmt.Appendf(dst, "q%d", c.Width)
	case *SetFormLength:
		dst = fmt.Appendf(dst, "Q%d,%d,%d", c.Length, c.Gap, c.Offset)
	case *SpeedSelect:
		dst = fmt.Appendf(dst, "S%d", c.Speed)
	case *PrintConfiguration:
		dst = append(dst, 'U')
	case *WindowsMode:
		dst = append(dst, 'W', flagByte(c.Enabled, 'Y', 'N'))
	case *BoxDraw:
		dst = append(dst, 'X')
		dst = appendInts(dst, c.HStart, c.VStart, c.Thickness, c.HEnd, c.VEnd)
	case *PrintDirection:
		dst = append(dst, 'Z', c.Direction.Byte())
	}
	return append(dst, '\n'), nil
}

// printCopies treats an unset copies count as one.
func printCopies(p *Print) int {
	if p.Copies == 0 {
		return 1
	}
	return p.Copies
}

// fieldCheck records the first field outside its wire range, the encoding
// counterpart of fieldReader's sticky error.
type fieldCheck struct {
	kind Kind
	err  error
}

func (f *fieldCheck) bound(field string, v, lo, hi int) {
	if f.err == nil && (v < lo || v > hi) {
		f.err = &EncodeError{Kind: f.kind, Field: field, Value: strconv.Itoa(v)}
	}
}

func (f *fieldCheck) uint(field string, v int) {
	f.bound(field, v, 0, math.MaxInt32)
}

// size checks a raw payload against the byte count its header declares.
func (f *fieldCheck) size(field string, got int, want int64) {
	if f.err == nil && int64(got) != want {
		f.err = &EncodeError{Kind: f.kind, Field: field, Value: fmt.Sprintf("%d bytes, want %d", got, want)}
	}
}

// checkCommand applies the decoder's field ranges to a command.
func checkCommand(cmd Command) error {
	f := &fieldCheck{kind: cmd.Kind()}
	switch c := cmd.(type) {
	case *AsciiText:
		f.uint("HStart", c.HStart)
		f.uint("VStart", c.VStart)
	case *BarCodeStandard:
		f.uint("HStart", c.HStart)
		f.uint("VStart", c.VStart)
		f.bound("NarrowWidth", c.NarrowWidth, 1, math.MaxInt32)
		f.bound("WideWidth", c.WideWidth, 2, 30)
		f.bound("Height", c.Height, 1, math.MaxInt32)
	case *BarCode2D:
		f.uint("HStart", c.HStart)
		f.uint("VStart", c.VStart)
		f.uint("MaxWidth", c.MaxWidth)
		f.uint("MaxHeight", c.MaxHeight)
		f.bound("ErrorCorrection", c.ErrorCorrection, 0, 8)
		f.bound("Compression", c.Compression, 0, 1)
		f.bound("ModuleWidth", c.ModuleWidth, 2, 9)
		f.bound("BarHeight", c.BarHeight, 4, 99)
		f.bound("MaxRows", c.MaxRows, 3, 90)
		f.bound("MaxCols", c.MaxCols, 1, 30)
		if c.Binary {
			f.uint("DataLength", len(c.Data))
		}
	case *Density:
		f.bound("Density", c.Setting, 0, 15)
	case *Graphics:
		f.uint("HStart", c.HStart)
		f.uint("VStart", c.VStart)
		f.bound("WidthBytes", c.WidthBytes, 1, math.MaxInt32)
		f.bound("LengthDots", c.LengthDots, 1, math.MaxInt32)
		f.size("Data", len(c.Data), int64(c.WidthBytes)*int64(c.LengthDots))
	case *LineDraw:
		f.uint("HStart", c.HStart)
		f.uint("VStart", c.VStart)
		f.uint("HLength", c.HLength)
		f.uint("VLength", c.VLength)
	case *Print:
		f.bound("Sets", c.Sets, 1, math.MaxUint16)
		f.bound("Copies", printCopies(c), 1, math.MaxUint16)
	case *SetFormWidth:
		f.bound("Width", c.Width, 1, math.MaxInt32)
	case *SetFormLength:
		f.bound("Length", c.Length, 1, math.MaxUint16)
		f.bound("Gap", c.Gap, 0, math.MaxUint16)
		f.bound("Offset", c.Offset, -math.MaxUint16, math.MaxUint16)
	case *SpeedSelect:
		f.bound("Speed", c.Speed, 0, math.MaxUint8)
	case *BoxDraw:
		f.uint("HStart", c.HStart)
		f.uint("VStart", c.VStart)
		f.uint("Thickness", c.Thickness)
		f.uint("HEnd", c.HEnd)
		f.uint("VEnd", c.VEnd)
	}
	return f.err
}

// appendInts writes vs comma-separated, with no leading comma.
func appendInts(dst []byte, vs ...int) []byte {
	for i, v := range vs {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	return dst
}

var escapes = map[byte]byte{
	'"':  '"',
	'\\': '\\',
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
}

func appendQuoted(dst, s []byte) []byte {
	dst = append(dst, '"')
	for _, b := range s {
		if e, ok := escapes[b]; ok {
			dst = append(dst, '\\', e)
			continue
		}
		dst = append(dst, b)
	}
	return append(dst, '"')
}

func flagByte(v bool, yes, no byte) byte {
	if v {
		return yes
	}
	return no
}
