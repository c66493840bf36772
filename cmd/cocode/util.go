package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/listing"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
)

var red = color.New(color.FgRed).SprintFunc()

// exitError ends the command with a status code after its diagnostics have
// already been printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func printError(w io.Writer, msg string) {
	if isTerminal(w) && !color.NoColor {
		msg = red(msg)
	}
	fmt.Fprintln(w, msg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON writes v as indented JSON, colorized when w is a terminal.
func (a *app) writeJSON(w io.Writer, v any) error {
	var data []byte
	var err error
	if a.useColor(w) {
		data, err = prettyjson.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// readSource reads a file, or standard input when path is "-".
func (a *app) readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// parseListing reads and decodes a listing. Standard input is reported under
// the name "<stdin>".
func (a *app) parseListing(path string) (*listing.Program, error) {
	data, err := a.readSource(path)
	if err != nil {
		return nil, err
	}
	name := path
	if path == "-" {
		name = "<stdin>"
	}
	return listing.Parse(data, name)
}

type artifactFormat int

const (
	formatListing artifactFormat = iota
	formatJSON
	formatCBOR
)

func formatOf(path string) artifactFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON
	case ".cbor":
		return formatCBOR
	default:
		return formatListing
	}
}

func parseFormat(name string) (artifactFormat, error) {
	switch strings.ToLower(name) {
	case "json":
		return formatJSON, nil
	case "cbor":
		return formatCBOR, nil
	default:
		return 0, fmt.Errorf("unknown output format: %s", name)
	}
}

func encodeArtifact(code *bytecode.Code, format artifactFormat) ([]byte, error) {
	if format == formatCBOR {
		return bytecode.MarshalCBOR(code)
	}
	data, err := json.MarshalIndent(code, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// report prints assembly or listing errors as diagnostics and returns the
// error that ends the command. Instruction errors are annotated with their
// listing position when p is not nil.
func (a *app) report(w io.Writer, p *listing.Program, err error) error {
	var errs []error
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	} else {
		errs = []error{err}
	}
	formatted := make([]*errors.FormattedError, 0, len(errs))
	for _, e := range errs {
		fe := errors.ToFormatted(e)
		if p != nil {
			fe = p.Annotate(fe)
		}
		formatted = append(formatted, fe)
	}
	fmt.Fprint(w, errors.NewFormatter(a.useColor(w)).FormatMultiple(formatted))
	return &exitError{code: 1}
}
