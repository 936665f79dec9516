// pkg/epl2/errors.go
package epl2

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure.
type ErrorKind int

// Decode failure kinds.
const (
	KindUnexpectedEnd ErrorKind = iota + 1
	KindNotANumber
	KindIntegerOverflow
	KindUnterminatedString
	KindInvalidEscape
	KindExpectedSeparator
	KindOutOfDomain
	KindUnknownCommand
)

// Sentinel errors, one per ErrorKind. A *DecodeError unwraps to the sentinel
// of its kind so callers can match with errors.Is.
var (
	ErrUnexpectedEnd      = errors.New("epl2: unexpected end of input")
	ErrNotANumber         = errors.New("epl2: not a number")
	ErrIntegerOverflow    = errors.New("epl2: integer overflow")
	ErrUnterminatedString = errors.New("epl2: unterminated string")
	ErrInvalidEscape      = errors.New("epl2: invalid escape")
	ErrExpectedSeparator  = errors.New("epl2: expected separator")
	ErrOutOfDomain        = errors.New("epl2: value out of domain")
	ErrUnknownCommand     = errors.New("epl2: unknown command")
)

var kindNames = map[ErrorKind]string{
	KindUnexpectedEnd:      "UnexpectedEnd",
	KindNotANumber:         "NotANumber",
	KindIntegerOverflow:    "IntegerOverflow",
	KindUnterminatedString: "UnterminatedString",
	KindInvalidEscape:      "InvalidEscape",
	KindExpectedSeparator:  "ExpectedSeparator",
	KindOutOfDomain:        "OutOfDomain",
	KindUnknownCommand:     "UnknownCommand",
}

var kindSentinels = map[ErrorKind]error{
	KindUnexpectedEnd:      ErrUnexpectedEnd,
	KindNotANumber:         ErrNotANumber,
	KindIntegerOverflow:    ErrIntegerOverflow,
	KindUnterminatedString: ErrUnterminatedString,
	KindInvalidEscape:      ErrInvalidEscape,
	KindExpectedSeparator:  ErrExpectedSeparator,
	KindOutOfDomain:        ErrOutOfDomain,
	KindUnknownCommand:     ErrUnknownCommand,
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// DecodeError is a decode failure attached to the offset where it was detected.
type DecodeError struct {
	Kind ErrorKind
	Pos  Position

	// Field and Value are set for KindOutOfDomain.
	Field string
	Value string

	// Token holds the command letter(s) for KindUnknownCommand.
	Token string

	// Expected holds the wanted delimiter for KindExpectedSeparator.
	Expected byte
}

// Error implements error.
func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindOutOfDomain:
		return fmt.Sprintf("epl2: %s out of domain: %s (offset %d)", e.Field, e.Value, e.Pos)
	case KindUnknownCommand:
		return fmt.Sprintf("epl2: unknown command %q (offset %d)", e.Token, e.Pos)
	case KindExpectedSeparator:
		return fmt.Sprintf("epl2: expected %s (offset %d)", delimiterName(e.Expected), e.Pos)
	}
	return fmt.Sprintf("%v (offset %d)", e.Unwrap(), e.Pos)
}

// Unwrap returns the sentinel error for the kind.
func (e *DecodeError) Unwrap() error {
	if err, ok := kindSentinels[e.Kind]; ok {
		return err
	}
	return nil
}

func errAt(kind ErrorKind, pos Position) *DecodeError {
	return &DecodeError{Kind: kind, Pos: pos}
}

// outOfDomain builds a position-less domain error; the grammar fills Pos with
// the offset of the field being validated.
func outOfDomain(field string, value any) *DecodeError {
	return &DecodeError{Kind: KindOutOfDomain, Field: field, Value: fmt.Sprint(value)}
}

func unknownCommand(token string, pos Position) *DecodeError {
	return &DecodeError{Kind: KindUnknownCommand, Token: token, Pos: pos}
}

func expected(delim byte, pos Position) *DecodeError {
	return &DecodeError{Kind: KindExpectedSeparator, Expected: delim, Pos: pos}
}

func delimiterName(b byte) string {
	switch b {
	case ',':
		return "comma"
	case '\n':
		return "line terminator"
	case '"':
		return "quote"
	}
	return fmt.Sprintf("%q", b)
}

// ErrInvalidCommand is the sentinel of every *EncodeError.
var ErrInvalidCommand = errors.New("epl2: invalid command")

// EncodeError reports a command field that has no canonical wire form, such
// as a negative position or raster data whose size disagrees with its
// dimensions.
type EncodeError struct {
	Kind  Kind
	Field string
	Value string
}

// Error implements error.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("epl2: cannot encode %s: %s out of domain: %s", e.Kind, e.Field, e.Value)
}

// Unwrap returns ErrInvalidCommand.
func (e *EncodeError) Unwrap() error { return ErrInvalidCommand }
