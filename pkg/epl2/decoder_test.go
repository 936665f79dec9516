package epl2

import (
	"bytes"
	"errors"
	"testing"
)

func decodeOne(t *testing.T, input string) Command {
	t.Helper()
	items := Decode([]byte(input))
	if len(items) != 1 {
		t.Fatalf("Decode(%q) returned %d items, want 1", input, len(items))
	}
	if items[0].Err != nil {
		t.Fatalf("Decode(%q): %v", input, items[0].Err)
	}
	return items[0].Command
}

func decodeErr(t *testing.T, item Item) *DecodeError {
	t.Helper()
	var de *DecodeError
	if !errors.As(item.Err, &de) {
		t.Fatalf("item at %d: err = %v, want *DecodeError", item.Pos, item.Err)
	}
	return de
}

func TestDecodeAsciiText(t *testing.T) {
	cmd, ok := decodeOne(t, `A79,216,0,4,2,2,N,"USPS"`).(*AsciiText)
	if !ok {
		t.Fatal("command is not *AsciiText")
	}
	if cmd.HStart != 79 || cmd.VStart != 216 {
		t.Errorf("start = %d,%d, want 79,216", cmd.HStart, cmd.VStart)
	}
	if cmd.Rotation != NoRotation || cmd.Font != FontSize4 {
		t.Errorf("rotation, font = %v, %v", cmd.Rotation, cmd.Font)
	}
	if cmd.HMult.Int() != 2 || cmd.VMult.Int() != 2 {
		t.Errorf("multipliers = %v, %v", cmd.HMult, cmd.VMult)
	}
	if cmd.Reverse != ImageNormal || string(cmd.Data) != "USPS" {
		t.Errorf("reverse, data = %v, %q", cmd.Reverse, cmd.Data)
	}
}

func TestDecodeAsciiTextReverseAndComma(t *testing.T) {
	cmd := decodeOne(t, `A0,0,1,1,8,9,R,"a,b \"c\""`).(*AsciiText)
	if cmd.Reverse != ImageReverse {
		t.Errorf("reverse = %v, want Reverse", cmd.Reverse)
	}
	if string(cmd.Data) != `a,b "c"` {
		t.Errorf("data = %q", cmd.Data)
	}
}

func TestDecodeOutOfDomainPosition(t *testing.T) {
	items := Decode([]byte(`A79,216,0,4,9,2,N,"USPS"`))
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Command != nil {
		t.Fatal("a command was emitted for an invalid line")
	}
	de := decodeErr(t, items[0])
	if de.Kind != KindOutOfDomain || de.Field != "HorizontalMultiplier" || de.Value != "9" {
		t.Fatalf("err = %v", de)
	}
	if de.Pos != 12 {
		t.Errorf("error pos = %d, want 12 (the multiplier field)", de.Pos)
	}
	if items[0].Pos != 0 {
		t.Errorf("item pos = %d, want command start 0", items[0].Pos)
	}
}

func TestDecodeRecoversAtNextLine(t *testing.T) {
	input := "A10,10,0,9,1,1,N,\"x\"\nN\n"
	items := Decode([]byte(input))
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if decodeErr(t, items[0]).Field != "Font" {
		t.Errorf("first item err = %v, want Font out of domain", items[0].Err)
	}
	if _, ok := items[1].Command.(*ClearImageBuffer); !ok {
		t.Fatalf("second item = %#v, want ClearImageBuffer", items[1])
	}
	if items[1].Pos != 21 {
		t.Errorf("N pos = %d, want 21", items[1].Pos)
	}
}

func TestDecodeMissingFlagDoesNotEatNextLine(t *testing.T) {
	items := Decode([]byte("W\nN\n"))
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Err == nil {
		t.Fatal("W without a flag decoded")
	}
	if items[1].Command == nil || items[1].Command.Kind() != KindClearImageBuffer {
		t.Fatalf("second item = %#v", items[1])
	}
}

func TestDecodeGraphicsConsumesSeparatorBytes(t *testing.T) {
	payload := []byte{'\n', ',', '\n', ',', 0x00, 0xff}
	input := append([]byte("GW10,20,2,3,"), payload...)
	input = append(input, "\nN\n"...)

	items := Decode(input)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	g, ok := items[0].Command.(*Graphics)
	if !ok {
		t.Fatalf("first item = %#v, want Graphics", items[0])
	}
	if g.WidthBytes != 2 || g.LengthDots != 3 || g.WidthDots() != 16 {
		t.Errorf("size = %d bytes x %d dots", g.WidthBytes, g.LengthDots)
	}
	if !bytes.Equal(g.Data, payload) {
		t.Errorf("data = %v, want %v", g.Data, payload)
	}
	if items[1].Command.Kind() != KindClearImageBuffer {
		t.Errorf("second item = %v", items[1].Command.Kind())
	}
}

func TestDecodeGraphicsWithoutTrailingLineFeed(t *testing.T) {
	items := Decode([]byte("GW0,0,1,2,abN\n"))
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if string(items[0].Command.(*Graphics).Data) != "ab" {
		t.Errorf("data = %q", items[0].Command.(*Graphics).Data)
	}
	if items[1].Pos != 12 || items[1].Command.Kind() != KindClearImageBuffer {
		t.Errorf("second item = %#v", items[1])
	}
}

func TestDecodeGraphicsTerminators(t *testing.T) {
	items := Decode([]byte("GW0,0,1,2,ab\r\nN\n"))
	if len(items) != 2 || items[0].Err != nil {
		t.Fatalf("items = %#v", items)
	}
	if items[1].Pos != 14 || items[1].Command.Kind() != KindClearImageBuffer {
		t.Errorf("second item = %#v", items[1])
	}

	// A carriage return alone is not a terminator and stays in the stream.
	d := NewDecoder([]byte("GW0,0,1,1,a\r"))
	item, ok := d.Next()
	if !ok || item.Err != nil {
		t.Fatalf("first item = %#v", item)
	}
	if d.Position() != 11 {
		t.Errorf("position after block = %d, want 11", d.Position())
	}
	if _, ok := d.Next(); ok {
		t.Error("trailing carriage return decoded as an item")
	}
}

func TestDecodeBinaryFailureEndsPass(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{"short block", "N\nGW0,0,2,3,ab", KindUnexpectedEnd},
		{"bad header", "N\nGW0,0,x,3,\nN\n", KindNotANumber},
		{"zero width", "N\nGW0,0,0,3,\nN\n", KindOutOfDomain},
		{"2D header", "N\nb0,0,P,1,1,s9,c0,x2,y4,r3,l1,t0,o0,1,\nN\n", KindOutOfDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Decode([]byte(tt.input))
			if len(items) != 2 {
				t.Fatalf("got %d items, want N then the error", len(items))
			}
			if items[0].Command == nil || items[0].Command.Kind() != KindClearImageBuffer {
				t.Fatalf("first item = %#v", items[0])
			}
			if k := decodeErr(t, items[1]).Kind; k != tt.kind {
				t.Fatalf("err kind = %v, want %v", k, tt.kind)
			}
			if items[1].Pos != 2 {
				t.Errorf("err item pos = %d, want 2", items[1].Pos)
			}
		})
	}
}

func TestDecodeUnknownCommand(t *testing.T) {
	items := Decode([]byte("K1,2\nGG0,0\nN\n"))
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	first := decodeErr(t, items[0])
	if first.Kind != KindUnknownCommand || first.Token != "K" || first.Pos != 0 {
		t.Errorf("first err = %+v", first)
	}
	second := decodeErr(t, items[1])
	if second.Kind != KindUnknownCommand || second.Token != "GG" || second.Pos != 5 {
		t.Errorf("second err = %+v", second)
	}
	if !errors.Is(items[1].Err, ErrUnknownCommand) {
		t.Errorf("err does not unwrap to ErrUnknownCommand")
	}
	if items[2].Command == nil {
		t.Fatalf("third item = %#v", items[2])
	}
}

func TestDecodeFailFast(t *testing.T) {
	items := Decode([]byte("N\nK1\nN\n"), WithRecovery(RecoverFailFast))
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[1].Err == nil {
		t.Fatal("second item should be the error")
	}
}

func TestDecoderHalted(t *testing.T) {
	drain := func(d *Decoder) {
		for {
			if _, ok := d.Next(); !ok {
				return
			}
		}
	}

	d := NewDecoder([]byte("K1\nN\n"))
	drain(d)
	if d.Halted() {
		t.Error("skip_line pass over a bad line should not halt")
	}

	d = NewDecoder([]byte("N\nK1\nN\n"), WithRecovery(RecoverFailFast))
	drain(d)
	if !d.Halted() {
		t.Error("fail_fast pass should halt")
	}
	if d.Position() != 2 {
		t.Errorf("position = %d, want 2", d.Position())
	}

	d = NewDecoder([]byte("N\nGW0,0,2,3,ab"))
	drain(d)
	if !d.Halted() {
		t.Error("short graphics block should halt")
	}
}

func TestDecodeSkipsBlankLinesAndCRLF(t *testing.T) {
	items := Decode([]byte("\r\n \t\r\nN\r\nP1\r\n  \r\n\t"))
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Pos != 6 || items[0].Command.Kind() != KindClearImageBuffer {
		t.Fatalf("first item = %#v", items[0])
	}
	p, ok := items[1].Command.(*Print)
	if !ok || p.Sets != 1 || p.Copies != 1 {
		t.Fatalf("second item = %#v", items[1])
	}
}

func TestDecodeIndentedCommandIsUnknown(t *testing.T) {
	items := Decode([]byte("   N\nP1\n"))
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	de := decodeErr(t, items[0])
	if de.Kind != KindUnknownCommand || de.Token != " " || de.Pos != 0 {
		t.Errorf("first item err = %v", items[0].Err)
	}
	if items[1].Pos != 5 || items[1].Command.Kind() != KindPrint {
		t.Errorf("second item = %#v", items[1])
	}
}

func TestDecodeEmpty(t *testing.T) {
	if items := Decode(nil); len(items) != 0 {
		t.Fatalf("Decode(nil) = %v", items)
	}
	d := NewDecoder([]byte("\n\n"))
	if _, ok := d.Next(); ok {
		t.Fatal("Next on blank input returned an item")
	}
	if _, ok := d.Next(); ok {
		t.Fatal("Next after Done returned an item")
	}
}

func TestDecodePositionsAreMonotonic(t *testing.T) {
	input := "N\nq812\nK\nQ1218,24,0\nA0,0,0,1,1,1,N,\"x\"\nP1\n"
	var last Position = -1
	for _, it := range Decode([]byte(input)) {
		if it.Pos <= last {
			t.Fatalf("item pos %d after %d", it.Pos, last)
		}
		last = it.Pos
	}
}

func TestDecodeSimpleCommands(t *testing.T) {
	tests := []struct {
		in    string
		check func(Command) bool
	}{
		{"D15", func(c Command) bool { return c.(*Density).Setting == 15 }},
		{"q812", func(c Command) bool { return c.(*SetFormWidth).Width == 812 }},
		{"Q1218,24,-5", func(c Command) bool {
			q := c.(*SetFormLength)
			return q.Length == 1218 && q.Gap == 24 && q.Offset == -5
		}},
		{"S4", func(c Command) bool { return c.(*SpeedSelect).Speed == 4 }},
		{"U", func(c Command) bool { return c.Kind() == KindPrintConfiguration }},
		{"WY", func(c Command) bool { return c.(*WindowsMode).Enabled }},
		{"WN", func(c Command) bool { return !c.(*WindowsMode).Enabled }},
		{"ZB", func(c Command) bool { return c.(*PrintDirection).Direction == DirectionBottom }},
		{"P2,3", func(c Command) bool { p := c.(*Print); return p.Sets == 2 && p.Copies == 3 }},
		{"P2", func(c Command) bool { p := c.(*Print); return p.Sets == 2 && p.Copies == 1 }},
		{"LO10,20,300,4", func(c Command) bool {
			l := c.(*LineDraw)
			return l.HStart == 10 && l.VStart == 20 && l.HLength == 300 && l.VLength == 4
		}},
		{"X5,6,2,200,100", func(c Command) bool {
			x := c.(*BoxDraw)
			return x.HStart == 5 && x.VStart == 6 && x.Thickness == 2 && x.HEnd == 200 && x.VEnd == 100
		}},
		{"I8,A,049", func(c Command) bool {
			i := c.(*CharacterSetSelection)
			return i.Bits == Bits8 && i.CodePage == Windows1252 && i.Country == CountryGermany
		}},
		{"I8,0,001", func(c Command) bool {
			i := c.(*CharacterSetSelection)
			return i.CodePage == DOS437 && i.Country == CountryUSA
		}},
	}
	for _, tt := range tests {
		cmd := decodeOne(t, tt.in+"\n")
		if !tt.check(cmd) {
			t.Errorf("Decode(%q) = %#v", tt.in, cmd)
		}
	}
}

func TestDecodeFieldDomains(t *testing.T) {
	tests := []struct {
		in    string
		field string
	}{
		{"D16", "Density"},
		{"P0", "Sets"},
		{"P1,70000", "Copies"},
		{"S256", "Speed"},
		{"ZX", "Direction"},
		{"I7,0,001", "CharacterBits"},
		{"I8,G,001", "CodePage"},
		{"I8,0,004", "CountryCode"},
		{`B0,0,0,3,2,4,50,B,"1"`, "BarCodeSymbology"},
		{`B0,0,0,1,2,31,50,B,"1"`, "WideWidth"},
		{`B0,0,0,1,2,4,50,Y,"1"`, "HumanReadable"},
		{`A0,0,4,1,1,1,N,"x"`, "Rotation"},
		{`A0,0,0,1,1,10,N,"x"`, "VerticalMultiplier"},
		{`A0,0,0,1,1,1,X,"x"`, "ReverseImage"},
	}
	for _, tt := range tests {
		items := Decode([]byte(tt.in))
		if len(items) != 1 || items[0].Err == nil {
			t.Errorf("Decode(%q) = %#v, want one error", tt.in, items)
			continue
		}
		if de := decodeErr(t, items[0]); de.Kind != KindOutOfDomain || de.Field != tt.field {
			t.Errorf("Decode(%q) err = %v, want %s out of domain", tt.in, de, tt.field)
		}
	}
}

func TestDecodeBarCodeStandard(t *testing.T) {
	b := decodeOne(t, `B10,20,1,1A,2,4,50,B,"12345"`).(*BarCodeStandard)
	if b.HStart != 10 || b.VStart != 20 || b.Rotation != Rotate90 {
		t.Errorf("placement = %d,%d %v", b.HStart, b.VStart, b.Rotation)
	}
	if b.Symbology != Code128A || b.NarrowWidth != 2 || b.WideWidth != 4 || b.Height != 50 {
		t.Errorf("symbol = %v %d/%d h%d", b.Symbology, b.NarrowWidth, b.WideWidth, b.Height)
	}
	if !b.HumanReadable || string(b.Data) != "12345" {
		t.Errorf("readable, data = %v, %q", b.HumanReadable, b.Data)
	}
}

func TestDecodeBarCode2D(t *testing.T) {
	quoted := decodeOne(t, `b10,20,P,400,300,s2,c0,x3,y9,r30,l5,t1,o0,"PDF DATA"`).(*BarCode2D)
	if quoted.Binary || string(quoted.Data) != "PDF DATA" {
		t.Errorf("quoted data = %q binary=%v", quoted.Data, quoted.Binary)
	}
	if quoted.MaxWidth != 400 || quoted.MaxHeight != 300 || quoted.ErrorCorrection != 2 ||
		quoted.ModuleWidth != 3 || quoted.BarHeight != 9 || quoted.MaxRows != 30 ||
		quoted.MaxCols != 5 || !quoted.Truncated {
		t.Errorf("quoted = %+v", quoted)
	}

	items := Decode([]byte("b10,20,P,400,300,s2,c0,x3,y9,r30,l5,t0,o2,5,a\n,\"b\nN\n"))
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	bin := items[0].Command.(*BarCode2D)
	if !bin.Binary || string(bin.Data) != "a\n,\"b" || bin.Rotation != Rotate180 {
		t.Errorf("binary = %+v", bin)
	}
	if items[1].Command.Kind() != KindClearImageBuffer {
		t.Errorf("second item = %v", items[1].Command.Kind())
	}
}

func TestCommandsSplitsItems(t *testing.T) {
	cmds, errs := Commands(Decode([]byte("N\nK\nP1\n")))
	if len(cmds) != 2 || len(errs) != 1 {
		t.Fatalf("Commands = %d commands, %d errors", len(cmds), len(errs))
	}
}

func TestParseRecoveryPolicy(t *testing.T) {
	if p, err := ParseRecoveryPolicy("fail_fast"); err != nil || p != RecoverFailFast {
		t.Errorf("fail_fast = %v, %v", p, err)
	}
	if p, err := ParseRecoveryPolicy(""); err != nil || p != RecoverSkipLine {
		t.Errorf("empty = %v, %v", p, err)
	}
	if _, err := ParseRecoveryPolicy("retry"); err == nil {
		t.Error("unknown policy accepted")
	}
}
