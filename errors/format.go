package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders errors in a compact rustc-like layout:
//
//	error[E2001]: unresolved label "loop"
//	  --> prog.yaml:7:5 instruction 4 (offset 9)
//	   |
//	 7 | - JUMP_ABSOLUTE: loop
//	   = hint: did you mean 'top'?
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	colorErrorBold = color.New(color.FgHiRed, color.Bold)
	colorError     = color.New(color.FgRed)
	colorCode      = color.New(color.FgHiBlack)
	colorLocation  = color.New(color.FgCyan)
	colorPipe      = color.New(color.FgHiBlack)
	colorHint      = color.New(color.FgHiYellow)
	colorNote      = color.New(color.FgHiBlue)
)

// FormattedError is an error ready for display.
type FormattedError struct {
	Code     ErrorCode
	Kind     string // "error", "listing error", "assembly error", ...
	Message  string
	Location Location
	Opcode   string // mnemonic of the offending instruction, if any
	Source   string // listing line text, if known
	Hint     string
	Note     string
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	return c.Sprint(s)
}

// Format formats the error as a string.
func (f *Formatter) Format(err *FormattedError) string {
	return f.FormatWithPrefix(err, "")
}

// FormatWithPrefix formats the error with an optional prefix like "1/5",
// shown in place of the error code.
func (f *Formatter) FormatWithPrefix(err *FormattedError, prefix string) string {
	var b strings.Builder

	label := "error"
	if err.Kind != "" {
		label = err.Kind
	}
	b.WriteString(f.paint(colorErrorBold, label))
	if err.Code != "" {
		b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", err.Code)))
	} else if prefix != "" {
		b.WriteString(f.paint(colorCode, fmt.Sprintf("[%s]", prefix)))
	}
	b.WriteString(f.paint(colorError, ": "))
	b.WriteString(err.Message)
	b.WriteString("\n")

	if loc := err.Location.String(); loc != "" {
		b.WriteString("  ")
		b.WriteString(f.paint(colorLocation, "--> "+loc))
		if err.Opcode != "" {
			b.WriteString(" ")
			b.WriteString(err.Opcode)
		}
		b.WriteString("\n")
	}

	gutter := "   "
	if err.Location.Line >= 100 {
		gutter = strings.Repeat(" ", len(fmt.Sprint(err.Location.Line))+1)
	}
	if err.Source != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorPipe, "|\n"))
		num := fmt.Sprintf("%*d ", len(gutter)-1, err.Location.Line)
		b.WriteString(f.paint(colorPipe, num+"| "))
		b.WriteString(err.Source)
		b.WriteString("\n")
	}
	if err.Hint != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorPipe, "= "))
		b.WriteString(f.paint(colorHint, "hint: "))
		b.WriteString(err.Hint)
		b.WriteString("\n")
	}
	if err.Note != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorPipe, "= "))
		b.WriteString(f.paint(colorNote, "note: "))
		b.WriteString(err.Note)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatMultiple formats multiple errors, numbering them when there is more
// than one and closing with a summary line.
func (f *Formatter) FormatMultiple(errs []*FormattedError) string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return f.Format(errs[0])
	}
	var b strings.Builder
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.FormatWithPrefix(err, fmt.Sprintf("%d/%d", i+1, len(errs))))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(colorErrorBold, fmt.Sprintf("found %d errors", len(errs))))
	b.WriteString("\n")
	return b.String()
}
