package bytecode

import (
	"fmt"

	"github.com/cocode-io/cocode/errors"
)

// ConstantError reports a constant that cannot be stored in an artifact.
type ConstantError struct {
	Index int
	Value any
}

func (e *ConstantError) Error() string {
	return fmt.Sprintf("unsupported constant %d of type %T", e.Index, e.Value)
}

// ToFormatted implements errors.Formattable.
func (e *ConstantError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     errors.E3001,
		Kind:     "artifact error",
		Message:  e.Error(),
		Location: errors.NoLocation,
		Note:     "constants must be nil, bool, int, float, string or complex",
	}
}

// CorruptError reports a serialized artifact that cannot be decoded into a
// consistent Code.
type CorruptError struct {
	Reason string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt artifact: %s: %v", e.Reason, e.Err)
	}
	return "corrupt artifact: " + e.Reason
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// ToFormatted implements errors.Formattable.
func (e *CorruptError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     errors.E3002,
		Kind:     "artifact error",
		Message:  e.Error(),
		Location: errors.NoLocation,
	}
}
