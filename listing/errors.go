package listing

import (
	"regexp"
	"strconv"

	"github.com/cocode-io/cocode/errors"
)

// SyntaxError reports a listing entry that cannot be turned into an
// instruction or a header field with an invalid value.
type SyntaxError struct {
	Code        errors.ErrorCode
	Filename    string
	Line        int
	Column      int
	Message     string
	Source      string
	Suggestions errors.Suggestions
}

func (e *SyntaxError) Error() string {
	msg := e.Message
	if len(e.Suggestions) > 0 {
		msg += " (" + e.Suggestions.String() + ")"
	}
	if loc := e.location().String(); loc != "" {
		return loc + ": " + msg
	}
	return msg
}

func (e *SyntaxError) location() errors.Location {
	loc := errors.NoLocation
	loc.Filename = e.Filename
	loc.Line = e.Line
	loc.Column = e.Column
	return loc
}

// ToFormatted implements errors.Formattable.
func (e *SyntaxError) ToFormatted() *errors.FormattedError {
	return &errors.FormattedError{
		Code:     e.Code,
		Kind:     "listing error",
		Message:  e.Message,
		Location: e.location(),
		Source:   e.Source,
		Hint:     e.Suggestions.String(),
	}
}

var yamlLinePattern = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// fromYAML converts a yaml.v3 parse error into a SyntaxError.
func fromYAML(err error, filename string) *SyntaxError {
	e := &SyntaxError{Code: errors.E1005, Filename: filename, Message: err.Error()}
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		e.Line, _ = strconv.Atoi(m[1])
		e.Message = m[2]
	}
	return e
}
