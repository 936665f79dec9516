// pkg/epl2/decoder.go
package epl2

import "fmt"

// RecoveryPolicy decides what the decoder does after a failed command.
type RecoveryPolicy int

const (
	// RecoverSkipLine records the error, skips to the next line terminator
	// and carries on. Failures inside GW and binary b payloads still end the pass.
	RecoverSkipLine RecoveryPolicy = iota
	// RecoverFailFast ends the pass at the first error.
	RecoverFailFast
)

// ParseRecoveryPolicy maps the configuration names "skip_line" and "fail_fast".
func ParseRecoveryPolicy(s string) (RecoveryPolicy, error) {
	switch s {
	case "", "skip_line":
		return RecoverSkipLine, nil
	case "fail_fast":
		return RecoverFailFast, nil
	}
	return 0, fmt.Errorf("epl2: unknown recovery policy %q", s)
}

func (p RecoveryPolicy) String() string {
	if p == RecoverFailFast {
		return "fail_fast"
	}
	return "skip_line"
}

// Item is one entry of a decoded stream: a command or the error that replaced
// it. Pos is the offset of the command's first byte.
type Item struct {
	Pos     Position
	Command Command
	Err     error
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithRecovery sets the recovery policy.
func WithRecovery(p RecoveryPolicy) Option {
	return func(d *Decoder) { d.policy = p }
}

type decoderState int

const (
	stateReady decoderState = iota
	stateDispatching
	stateEmit
	stateRecover
	stateDone
)

// Decoder runs one pass over a job buffer. It is not safe for concurrent use;
// independent passes over any buffers may run in parallel.
type Decoder struct {
	cur    *Cursor
	policy RecoveryPolicy
	state  decoderState
	item   Item
	halt   bool
}

// NewDecoder starts a pass over data.
func NewDecoder(data []byte, opts ...Option) *Decoder {
	d := &Decoder{cur: NewCursor(data)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Position returns how far the pass has read.
func (d *Decoder) Position() Position {
	return d.cur.Position()
}

// Halted reports whether an error ended the pass before the buffer was
// exhausted. Only meaningful once Next has returned false.
func (d *Decoder) Halted() bool {
	return d.state == stateDone && d.halt
}

// Next returns the next item in stream order. It returns false once the pass
// is over: the buffer is exhausted or an error ended it. Callers may stop
// calling Next at any time.
func (d *Decoder) Next() (Item, bool) {
	for {
		switch d.state {
		case stateReady:
			d.skipBlankLines()
			if d.cur.AtEnd() {
				d.state = stateDone
				continue
			}
			d.state = stateDispatching

		case stateDispatching:
			start := d.cur.Position()
			cmd, fatal, err := decodeCommand(d.cur)
			if err != nil {
				d.item = Item{Pos: start, Err: err}
				d.halt = fatal || d.policy == RecoverFailFast
				d.state = stateRecover
				continue
			}
			d.item = Item{Pos: start, Command: cmd}
			d.state = stateEmit

		case stateEmit:
			d.state = stateReady
			return d.item, true

		case stateRecover:
			if d.halt {
				d.state = stateDone
			} else {
				d.cur.SkipLine()
				d.state = stateReady
			}
			return d.item, true

		default:
			return Item{}, false
		}
	}
}

// Decode runs a whole pass and returns every item in stream order.
func Decode(data []byte, opts ...Option) []Item {
	d := NewDecoder(data, opts...)
	var items []Item
	for {
		item, ok := d.Next()
		if !ok {
			return items
		}
		items = append(items, item)
	}
}

// Commands splits a decoded stream into its commands and its errors,
// both in stream order.
func Commands(items []Item) ([]Command, []error) {
	var cmds []Command
	var errs []error
	for _, it := range items {
		if it.Err != nil {
			errs = append(errs, it.Err)
			continue
		}
		cmds = append(cmds, it.Command)
	}
	return cmds, errs
}

// skipBlankLines consumes whole lines of spaces, tabs and carriage returns,
// and trailing whitespace at the end of the buffer. Whitespace in front of a
// command is left in place, so the dispatcher reports it.
func (d *Decoder) skipBlankLines() {
	for {
		n := 0
		for {
			b, ok := d.cur.PeekAt(n)
			if !ok || !isBlank(b) {
				break
			}
			n++
		}
		b, ok := d.cur.PeekAt(n)
		switch {
		case !ok:
			d.cur.Advance(n)
			return
		case b == '\n':
			d.cur.Advance(n + 1)
		default:
			return
		}
	}
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}
