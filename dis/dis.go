// Package dis disassembles code artifacts produced by the asm package. It
// decodes instructions with bytecode.InstructionIter and resolves operands
// against the artifact's pools and label map.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/internal/table"
	"github.com/cocode-io/cocode/op"
	"github.com/fatih/color"
)

// Instruction is one decoded instruction together with what its operand
// refers to.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operand    int
	HasOperand bool
	Labels     []string // labels resolving to Offset
	Target     int      // jump target offset, -1 if not a jump
	Annotation string
	Constant   any
}

// Disassemble returns a parsed representation of the given code.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	var instructions []Instruction
	iter := bytecode.NewInstructionIter(code)
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		info := op.GetInfo(val.Opcode)
		if !info.Known() {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", val.Opcode, val.Offset)
		}
		instr := Instruction{
			Offset:     val.Offset,
			Name:       info.Name,
			Opcode:     val.Opcode,
			Operand:    val.Arg,
			HasOperand: val.HasArg,
			Labels:     code.LabelsAt(val.Offset),
			Target:     -1,
		}
		var err error
		switch info.Operand {
		case op.ConstOperand:
			instr.Constant, err = getConstantValue(code, val.Arg)
			instr.Annotation = formatConstant(instr.Constant)
		case op.NameOperand:
			instr.Annotation, err = getName(code, val.Arg)
		case op.VarnameOperand:
			instr.Annotation, err = getVarname(code, val.Arg)
		case op.JumpOperand:
			instr.Target = val.Arg
			if info.Jump == op.Relative {
				instr.Target = val.Offset + val.Len() + val.Arg
			}
			instr.Annotation = "to " + strconv.Itoa(instr.Target)
			if names := code.LabelsAt(instr.Target); len(names) > 0 {
				instr.Annotation += " (" + strings.Join(names, ", ") + ")"
			}
		case op.IntOperand:
			switch val.Opcode {
			case op.CompareOp:
				instr.Annotation = op.CompareOpType(val.Arg).String()
			case op.CallFunction:
				instr.Annotation = fmt.Sprintf("%d positional, %d keyword", val.Arg&0xff, (val.Arg>>8)&0xff)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", val.Offset, err)
		}
		instructions = append(instructions, instr)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return instructions, nil
}

var (
	colorOpcode   = color.New(color.Bold)
	colorLabel    = color.New(color.FgMagenta)
	colorNumber   = color.New(color.FgYellow)
	colorString   = color.New(color.FgGreen)
	colorInfo     = color.New(color.FgHiCyan)
	colorConstant = color.New(color.Bold)
)

func formatConstant(c any) string {
	switch c := c.(type) {
	case nil:
		return "nil"
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	case string:
		if len(c) > 80 {
			c = c[:77] + "..."
		}
		return strconv.Quote(c)
	default:
		return fmt.Sprintf("%v", c)
	}
}

// Print writes the instructions as a table. Colors follow color.NoColor.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		var values []string
		values = append(values, strconv.Itoa(instr.Offset))
		values = append(values, colorLabel.Sprint(strings.Join(instr.Labels, ", ")))
		values = append(values, colorOpcode.Sprint(instr.Name))
		if instr.HasOperand {
			values = append(values, strconv.Itoa(instr.Operand))
		} else {
			values = append(values, "")
		}
		switch c := instr.Constant.(type) {
		case int64, float64, complex128:
			values = append(values, colorNumber.Sprint(instr.Annotation))
		case string:
			values = append(values, colorString.Sprint(instr.Annotation))
		case nil:
			if instr.Annotation != "" {
				values = append(values, colorInfo.Sprint(instr.Annotation))
			} else {
				values = append(values, "")
			}
		default:
			values = append(values, colorConstant.Sprint(fmt.Sprintf("%v", c)))
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "LABEL", "OPCODE", "OPERAND", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// PrintSummary writes the artifact's interface metadata and pool sizes.
func PrintSummary(code *bytecode.Code, writer io.Writer) {
	rows := []struct {
		key   string
		value any
	}{
		{"name", code.Name()},
		{"filename", code.Filename()},
		{"firstlineno", code.FirstLineNo()},
		{"argcount", code.ArgCount()},
		{"kwonlyargcount", code.KwOnlyArgCount()},
		{"nlocals", code.NLocals()},
		{"stacksize", code.StackSize()},
		{"flags", code.Flags()},
		{"constants", code.ConstantCount()},
		{"names", strings.Join(code.Names(), ", ")},
		{"varnames", strings.Join(code.Varnames(), ", ")},
		{"size", code.Len()},
		{"id", code.ID()},
	}
	for _, row := range rows {
		fmt.Fprintf(writer, "%-15s %v\n", row.key+":", row.value)
	}
}

func getConstantValue(code *bytecode.Code, index int) (any, error) {
	if code.ConstantCount() <= index {
		return nil, fmt.Errorf("constant index out of range: %d", index)
	}
	return code.ConstantAt(index), nil
}

func getName(code *bytecode.Code, index int) (string, error) {
	if code.NameCount() <= index {
		return "", fmt.Errorf("name index out of range: %d", index)
	}
	return code.NameAt(index), nil
}

func getVarname(code *bytecode.Code, index int) (string, error) {
	if code.VarnameCount() <= index {
		return "", fmt.Errorf("variable index out of range: %d", index)
	}
	return code.VarnameAt(index), nil
}
