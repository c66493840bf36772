package bytecode

import (
	"strconv"

	"github.com/cocode-io/cocode/op"
)

// Instruction is one decoded instruction.
type Instruction struct {
	Offset int
	Opcode op.Code
	Arg    int
	HasArg bool
}

// Len returns the encoded length of the instruction.
func (i Instruction) Len() int {
	if i.HasArg {
		return 3
	}
	return 1
}

// InstructionIter iterates over the instructions encoded in a Code object.
type InstructionIter struct {
	code *Code
	pos  int
	err  error
}

// NewInstructionIter creates a new instruction iterator for the given code.
func NewInstructionIter(code *Code) *InstructionIter {
	return &InstructionIter{code: code}
}

// Next returns the next instruction. It returns false at the end of the code
// or when an operand is truncated, in which case Err reports the problem.
func (i *InstructionIter) Next() (Instruction, bool) {
	if i.err != nil || i.pos >= i.code.Len() {
		return Instruction{}, false
	}
	opcode := op.Code(i.code.ByteAt(i.pos))
	instr := Instruction{Offset: i.pos, Opcode: opcode}
	if !opcode.HasArg() {
		i.pos++
		return instr, true
	}
	if i.pos+2 >= i.code.Len() {
		i.err = &CorruptError{Reason: "truncated operand at offset " + strconv.Itoa(i.pos)}
		return Instruction{}, false
	}
	instr.HasArg = true
	instr.Arg = int(i.code.ByteAt(i.pos+1)) | int(i.code.ByteAt(i.pos+2))<<8
	i.pos += 3
	return instr, true
}

// Err returns the decoding error that stopped iteration, if any.
func (i *InstructionIter) Err() error {
	return i.err
}

// All returns all remaining instructions.
func (i *InstructionIter) All() ([]Instruction, error) {
	var results []Instruction
	for {
		instr, ok := i.Next()
		if !ok {
			break
		}
		results = append(results, instr)
	}
	return results, i.err
}
