// Package listing decodes YAML instruction listings into instruction
// sequences and assembler configuration.
//
// A listing is a mapping with interface metadata and a code sequence:
//
//	name: fib
//	params: [n]
//	flags: [OPTIMIZED, NEWLOCALS, NOFREE]
//	code:
//	  - LOAD_FAST: n
//	  - LOAD_CONST: 2
//	  - COMPARE_OP: <
//	  - POP_JUMP_IF_FALSE: recurse
//	  - LOAD_FAST: n
//	  - RETURN_VALUE
//	  - label: recurse
//	  - ...
//
// Each code entry is either a bare mnemonic, a single-key mapping from a
// mnemonic to its operand, or a label. Mnemonics are case insensitive.
// Constants keep their YAML type; complex constants use the !complex tag, as
// in `LOAD_CONST: !complex 1+2i`.
package listing

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cocode-io/cocode/asm"
	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/op"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var fieldNames = []string{
	"name", "filename", "firstlineno", "params", "args", "kwargs",
	"flags", "stacksize", "strict", "code",
}

// Program is a decoded listing.
type Program struct {
	// Filename is the path the listing was read from, if any.
	Filename string

	// Config is the assembler configuration described by the header.
	Config asm.Config

	// Instructions is the decoded code sequence.
	Instructions []asm.Instruction

	// Lines and Columns give the listing position of each instruction.
	Lines   []int
	Columns []int

	source []string
}

// ParseFile reads and decodes the listing at path.
func ParseFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes a listing. Every problem found is reported, aggregated in a
// *multierror.Error of *SyntaxError values.
func Parse(data []byte, filename string) (*Program, error) {
	p := &Program{
		Filename: filename,
		source:   strings.Split(string(data), "\n"),
	}
	p.Config.Filename = filename
	p.Config.Flags = bytecode.DefaultFlags
	d := &decoder{p: p}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fromYAML(err, filename)
	}
	if len(doc.Content) == 0 {
		return nil, &SyntaxError{Code: errors.E1005, Filename: filename, Message: "empty listing"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		d.errorf(errors.E1005, root, "listing must be a mapping")
		return nil, d.errs
	}

	var args *int
	var code *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "name":
			d.decode(value, &p.Config.Name)
		case "filename":
			d.decode(value, &p.Config.Filename)
		case "firstlineno":
			d.decode(value, &p.Config.FirstLineNo)
		case "params":
			d.decode(value, &p.Config.Params)
		case "args":
			var n int
			if d.decode(value, &n) {
				args = &n
			}
		case "kwargs":
			d.decode(value, &p.Config.KwOnlyArgCount)
		case "flags":
			d.flags(value)
		case "stacksize":
			d.decode(value, &p.Config.StackSize)
		case "strict":
			d.decode(value, &p.Config.StrictStack)
		case "code":
			code = value
		default:
			e := d.errorf(errors.E1005, key, "unknown field %q", key.Value)
			e.Suggestions = errors.SuggestSimilar(key.Value, fieldNames)
		}
	}
	if args != nil {
		p.Config.ArgCount = *args
	} else if n := len(p.Config.Params) - p.Config.KwOnlyArgCount; n > 0 {
		p.Config.ArgCount = n
	}
	if code == nil {
		d.errorf(errors.E1005, root, "missing code field")
	} else {
		d.code(code)
	}
	if d.errs != nil {
		return nil, d.errs
	}
	return p, nil
}

// Locate returns the listing position of the instruction at index.
func (p *Program) Locate(index int) errors.Location {
	loc := errors.At(index)
	loc.Filename = p.Filename
	if index >= 0 && index < len(p.Lines) {
		loc.Line = p.Lines[index]
		loc.Column = p.Columns[index]
	}
	return loc
}

// Annotate adds the listing position and source text of the instruction an
// assembly error refers to.
func (p *Program) Annotate(fe *errors.FormattedError) *errors.FormattedError {
	index := fe.Location.Instruction
	if index < 0 || index >= len(p.Lines) {
		if fe.Location.Filename == "" {
			fe.Location.Filename = p.Filename
		}
		return fe
	}
	offset := fe.Location.Offset
	fe.Location = p.Locate(index)
	fe.Location.Offset = offset
	fe.Source = p.sourceLine(p.Lines[index])
	return fe
}

func (p *Program) sourceLine(line int) string {
	if line < 1 || line > len(p.source) {
		return ""
	}
	return strings.TrimRight(p.source[line-1], "\r")
}

type decoder struct {
	p    *Program
	errs *multierror.Error
}

func (d *decoder) errorf(code errors.ErrorCode, n *yaml.Node, format string, args ...any) *SyntaxError {
	e := &SyntaxError{
		Code:     code,
		Filename: d.p.Filename,
		Line:     n.Line,
		Column:   n.Column,
		Message:  fmt.Sprintf(format, args...),
		Source:   d.p.sourceLine(n.Line),
	}
	d.errs = multierror.Append(d.errs, e)
	return e
}

// decode decodes a header value, reporting a type mismatch as an error.
func (d *decoder) decode(n *yaml.Node, out any) bool {
	if err := n.Decode(out); err != nil {
		msg := err.Error()
		if te, ok := err.(*yaml.TypeError); ok && len(te.Errors) > 0 {
			msg = te.Errors[0]
		}
		d.errorf(errors.E1002, n, "invalid value: %s", msg)
		return false
	}
	return true
}

// flags accepts either an integer bitmask or a list of flag names.
func (d *decoder) flags(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		var bits uint32
		if d.decode(n, &bits) {
			d.p.Config.Flags = bytecode.Flags(bits)
		}
		return
	}
	if n.Kind != yaml.SequenceNode {
		d.errorf(errors.E1002, n, "flags must be an integer or a list of names")
		return
	}
	var flags bytecode.Flags
	for _, item := range n.Content {
		f, ok := bytecode.FlagByName(item.Value)
		if item.Kind != yaml.ScalarNode || !ok {
			e := d.errorf(errors.E1002, item, "unknown flag %q", item.Value)
			e.Suggestions = errors.SuggestSimilar(strings.ToUpper(item.Value), bytecode.FlagNames())
			continue
		}
		flags |= f
	}
	d.p.Config.Flags = flags
}

func (d *decoder) code(n *yaml.Node) {
	if n.Kind != yaml.SequenceNode {
		if n.ShortTag() == "!!null" {
			return
		}
		d.errorf(errors.E1005, n, "code must be a list of instructions")
		return
	}
	for _, entry := range n.Content {
		d.entry(entry)
	}
}

func (d *decoder) add(instr asm.Instruction, at *yaml.Node) {
	d.p.Instructions = append(d.p.Instructions, instr)
	d.p.Lines = append(d.p.Lines, at.Line)
	d.p.Columns = append(d.p.Columns, at.Column)
}

func (d *decoder) entry(n *yaml.Node) {
	switch n.Kind {
	case yaml.ScalarNode:
		d.instruction(n, n.Value, nil)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			d.errorf(errors.E1002, n, "entry must have exactly one key, found %d", len(n.Content)/2)
			return
		}
		key, value := n.Content[0], n.Content[1]
		if key.Value == "label" {
			if value.Kind != yaml.ScalarNode || value.ShortTag() == "!!null" || value.Value == "" {
				d.errorf(errors.E1002, key, "label name must be a non-empty string")
				return
			}
			d.add(asm.Label{Name: value.Value}, key)
			return
		}
		d.instruction(key, key.Value, value)
	default:
		d.errorf(errors.E1002, n, "entry must be a mnemonic or a single-key mapping")
	}
}

func (d *decoder) instruction(at *yaml.Node, mnemonic string, operand *yaml.Node) {
	code, ok := op.Lookup(mnemonic)
	if !ok {
		e := d.errorf(errors.E1001, at, "unknown opcode %q", mnemonic)
		e.Suggestions = errors.SuggestSimilar(strings.ToUpper(mnemonic), op.Names())
		return
	}
	info := op.GetInfo(code)
	missing := operand == nil || (operand.ShortTag() == "!!null" && info.Operand != op.ConstOperand)
	switch {
	case info.Operand == op.NoOperand && missing:
		d.add(asm.Simple{Code: code}, at)
		return
	case info.Operand == op.NoOperand:
		d.errorf(errors.E1004, operand, "%s takes no operand", info.Name)
		return
	case missing:
		d.errorf(errors.E1003, at, "%s requires a %s operand", info.Name, info.Operand)
		return
	}
	value, err := d.operand(info, operand)
	if err != nil {
		d.errorf(errors.E1002, operand, "%s: %v", info.Name, err)
		return
	}
	instr, err := asm.Make(code, value)
	if err != nil {
		var invalid *asm.InvalidOperandError
		if errors.As(err, &invalid) {
			d.errorf(errors.E1002, operand, "%s: %s", info.Name, invalid.Reason)
		} else {
			d.errorf(errors.E1002, operand, "%v", err)
		}
		return
	}
	d.add(instr, at)
}

func (d *decoder) operand(info op.Info, n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("operand must be a scalar")
	}
	switch info.Operand {
	case op.ConstOperand:
		return constant(n)
	case op.IntOperand:
		if info.Code == op.CompareOp && n.ShortTag() == "!!str" {
			cop, ok := op.LookupCompareOp(n.Value)
			if !ok {
				return nil, fmt.Errorf("unknown comparison %q", n.Value)
			}
			return int(cop), nil
		}
		var i int
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("operand must be an integer, got %q", n.Value)
		}
		return i, nil
	default:
		return n.Value, nil
	}
}

func constant(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		err := n.Decode(&b)
		return b, err
	case "!!int":
		var i int64
		err := n.Decode(&i)
		return i, err
	case "!!float":
		var f float64
		err := n.Decode(&f)
		return f, err
	case "!!str":
		return n.Value, nil
	case "!complex":
		c, err := strconv.ParseComplex(strings.ReplaceAll(n.Value, " ", ""), 128)
		if err != nil {
			return nil, fmt.Errorf("invalid complex constant %q", n.Value)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported constant tag %s", n.ShortTag())
	}
}
