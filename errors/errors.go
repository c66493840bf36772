// Package errors defines the error codes, suggestions and formatting shared by
// the cocode assembler, listing decoder and artifact stores.
package errors

import (
	"errors"
	"fmt"
)

// Location identifies where an error occurred. Listing errors carry a line and
// column; assembly errors carry the instruction index and, once pass 1 has
// run, the byte offset.
type Location struct {
	Filename    string
	Line        int // 1-based line in a listing file, 0 if unknown
	Column      int // 1-based column in a listing file, 0 if unknown
	Instruction int // index in the instruction sequence, -1 if unknown
	Offset      int // byte offset, -1 if unknown
}

// NoLocation is the location of errors not tied to an instruction.
var NoLocation = Location{Instruction: -1, Offset: -1}

// At returns the location of the instruction at the given index.
func At(index int) Location {
	return Location{Instruction: index, Offset: -1}
}

// String returns a formatted representation of the location, for example
// "prog.yaml:4:3" or "instruction 7 (offset 12)".
func (l Location) String() string {
	var s string
	switch {
	case l.Filename != "" && l.Line > 0:
		s = fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
	case l.Line > 0:
		s = fmt.Sprintf("%d:%d", l.Line, l.Column)
	case l.Filename != "":
		s = l.Filename
	}
	if l.Instruction >= 0 {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("instruction %d", l.Instruction)
		if l.Offset >= 0 {
			s += fmt.Sprintf(" (offset %d)", l.Offset)
		}
	}
	return s
}

// IsZero returns true if the location carries no information.
func (l Location) IsZero() bool {
	return l.Filename == "" && l.Line == 0 && l.Instruction < 0
}

// Formattable is implemented by errors that can render themselves through a
// Formatter.
type Formattable interface {
	error
	ToFormatted() *FormattedError
}

// ToFormatted converts any error into a FormattedError. Errors that do not
// implement Formattable are rendered with their message only.
func ToFormatted(err error) *FormattedError {
	var f Formattable
	if errors.As(err, &f) {
		return f.ToFormatted()
	}
	return &FormattedError{Kind: "error", Message: err.Error(), Location: NoLocation}
}

// New, Is and As mirror the standard library helpers.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)
