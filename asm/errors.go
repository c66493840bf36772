package asm

import (
	"fmt"

	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/op"
)

// locatable is implemented by errors raised before their instruction index is
// known, such as from Validate and Render.
type locatable interface {
	locate(index, offset int)
}

// locate fills in the instruction index and byte offset of err if it is one
// of the assembler's error types and does not already carry them.
func locate(err error, index, offset int) error {
	var l locatable
	if errors.As(err, &l) {
		l.locate(index, offset)
	}
	return err
}

func location(index, offset int) errors.Location {
	loc := errors.NoLocation
	loc.Instruction = index
	loc.Offset = offset
	return loc
}

func suggestLabels(label string, known []string) errors.Suggestions {
	return errors.SuggestSimilar(label, known)
}

// UnresolvedLabelError is returned when a jump refers to a label that does
// not occur in the sequence.
type UnresolvedLabelError struct {
	Label       string
	Index       int
	Offset      int
	Opcode      op.Code
	Suggestions errors.Suggestions
}

func (e *UnresolvedLabelError) Error() string {
	msg := fmt.Sprintf("unresolved label %q", e.Label)
	if e.Index >= 0 {
		msg = fmt.Sprintf("instruction %d: %s", e.Index, msg)
	}
	if len(e.Suggestions) > 0 {
		msg += " (" + e.Suggestions.String() + ")"
	}
	return msg
}

func (e *UnresolvedLabelError) locate(index, offset int) {
	if e.Index < 0 {
		e.Index, e.Offset = index, offset
	}
}

// ToFormatted implements errors.Formattable.
func (e *UnresolvedLabelError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     errors.E2001,
		Kind:     "assembly error",
		Message:  fmt.Sprintf("unresolved label %q", e.Label),
		Location: location(e.Index, e.Offset),
		Opcode:   e.Opcode.String(),
		Hint:     e.Suggestions.String(),
	}
}

// DuplicateLabelError is returned when two labels share a name.
type DuplicateLabelError struct {
	Label  string
	Index  int
	Offset int
	First  int // index of the first label with this name
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("instruction %d: duplicate label %q (first defined at instruction %d)",
		e.Index, e.Label, e.First)
}

// ToFormatted implements errors.Formattable.
func (e *DuplicateLabelError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     errors.E2002,
		Kind:     "assembly error",
		Message:  fmt.Sprintf("duplicate label %q", e.Label),
		Location: location(e.Index, e.Offset),
		Note:     fmt.Sprintf("first defined at instruction %d", e.First),
	}
}

// InvalidOperandError is returned when an instruction or its operand cannot
// be encoded.
type InvalidOperandError struct {
	Index   int
	Offset  int
	Opcode  op.Code
	Operand any
	Reason  string
}

func (e *InvalidOperandError) Error() string {
	name := e.Opcode.String()
	if name == "" {
		name = "label"
		if e.Opcode != op.Invalid {
			name = fmt.Sprintf("opcode %d", e.Opcode)
		}
	}
	if e.Index >= 0 {
		return fmt.Sprintf("instruction %d: invalid operand for %s: %s", e.Index, name, e.Reason)
	}
	return fmt.Sprintf("invalid operand for %s: %s", name, e.Reason)
}

func (e *InvalidOperandError) locate(index, offset int) {
	if e.Index < 0 {
		e.Index, e.Offset = index, offset
	}
}

// ToFormatted implements errors.Formattable.
func (e *InvalidOperandError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     errors.E2003,
		Kind:     "assembly error",
		Message:  e.Reason,
		Location: location(e.Index, e.Offset),
		Opcode:   e.Opcode.String(),
	}
}

// StackDepthError is returned when stack analysis finds an underflow in
// strict mode, or a depth that cannot be declared.
type StackDepthError struct {
	Index  int
	Offset int
	Depth  int
	Reason string
}

func (e *StackDepthError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s (depth %d)", e.Reason, e.Depth)
	}
	return fmt.Sprintf("instruction %d: %s (depth %d)", e.Index, e.Reason, e.Depth)
}

// ToFormatted implements errors.Formattable.
func (e *StackDepthError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     errors.E2004,
		Kind:     "assembly error",
		Message:  fmt.Sprintf("%s (depth %d)", e.Reason, e.Depth),
		Location: location(e.Index, e.Offset),
	}
}

// ConfigError is returned for interface metadata that cannot describe a code
// object.
type ConfigError struct {
	Code   errors.ErrorCode
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// ToFormatted implements errors.Formattable.
func (e *ConfigError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     e.Code,
		Kind:     "assembly error",
		Message:  fmt.Sprintf("%s: %s", e.Field, e.Reason),
		Location: errors.NoLocation,
	}
}
