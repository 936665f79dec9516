// pkg/epl2/dispatch.go
package epl2

// Single-letter commands.
var grammars = map[byte]grammar{
	'A': parseAsciiText,
	'B': parseBarCodeStandard,
	'b': parseBarCode2D,
	'D': parseDensity,
	'I': parseCharacterSetSelection,
	'N': parseClearImageBuffer,
	'P': parsePrint,
	'q': parseSetFormWidth,
	'Q': parseSetFormLength,
	'S': parseSpeedSelect,
	'U': parsePrintConfiguration,
	'W': parseWindowsMode,
	'X': parseBoxDraw,
	'Z': parsePrintDirection,
}

// Commands whose first letter names a family; the second byte picks the subform.
var subGrammars = map[byte]map[byte]grammar{
	'G': {'W': parseGraphics},
	'L': {'O': parseLineDraw},
}

// dispatch selects the grammar for the command at the cursor without
// consuming anything.
func dispatch(c *Cursor) (grammar, error) {
	start := c.Position()
	letter, ok := c.Peek()
	if !ok {
		return nil, errAt(KindUnexpectedEnd, start)
	}
	if g, ok := grammars[letter]; ok {
		return g, nil
	}
	if family, ok := subGrammars[letter]; ok {
		sub, ok := c.PeekAt(1)
		if !ok {
			return nil, unknownCommand(string([]byte{letter}), start)
		}
		if g, ok := family[sub]; ok {
			return g, nil
		}
		return nil, unknownCommand(string([]byte{letter, sub}), start)
	}
	return nil, unknownCommand(string([]byte{letter}), start)
}

// decodeCommand dispatches and parses one command. fatal reports a failure
// after which the rest of the buffer cannot be resynchronised.
func decodeCommand(c *Cursor) (cmd Command, fatal bool, err error) {
	g, err := dispatch(c)
	if err != nil {
		return nil, false, err
	}
	r := &fieldReader{c: c}
	cmd = g(r)
	if r.err != nil {
		return nil, r.unsafe, r.err
	}
	return cmd, false, nil
}
