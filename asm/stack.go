package asm

import "github.com/cocode-io/cocode/op"

// MaxStackSize is the deepest stack an artifact can declare.
const MaxStackSize = MaxOperand

// stackDepth computes the maximum stack depth reached on any path through the
// sequence. Paths follow jump targets and stop after unconditional jumps and
// returns; unreachable instructions are not analyzed. When strict is false a
// pop below an empty stack is treated as popping nothing.
func stackDepth(instrs []Instruction, layout *Layout, strict bool) (int, error) {
	if len(instrs) == 0 {
		return 0, nil
	}
	// Entry depth per instruction, -1 until reached. The extra slot is the
	// end of the sequence.
	depths := make([]int, len(instrs)+1)
	for i := range depths {
		depths[i] = -1
	}
	depths[0] = 0
	work := []int{0}
	maxDepth := 0

	push := func(from, to, depth int) error {
		if depth < 0 {
			if strict {
				return &StackDepthError{
					Index:  from,
					Offset: layout.Position(from),
					Depth:  depth,
					Reason: "stack underflow",
				}
			}
			depth = 0
		}
		if depth > MaxStackSize {
			return &StackDepthError{
				Index:  from,
				Offset: layout.Position(from),
				Depth:  depth,
				Reason: "stack grows without bound",
			}
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		if depths[to] >= depth {
			return nil
		}
		depths[to] = depth
		work = append(work, to)
		return nil
	}

	for len(work) > 0 {
		i := work[len(work)-1]
		work = work[:len(work)-1]
		if i >= len(instrs) {
			continue
		}
		depth := depths[i]
		instr := instrs[i]
		info := op.GetInfo(instr.Opcode())
		fallthru := !info.Terminal
		if j, ok := instr.(jumper); ok {
			if target, ok := layout.LabelIndex(j.Target()); ok {
				if err := push(i, target, depth+instr.StackEffect(true)); err != nil {
					return 0, err
				}
			}
			if info.Jump != op.NotJump && !info.Conditional {
				fallthru = false
			}
		}
		if fallthru {
			if err := push(i, i+1, depth+instr.StackEffect(false)); err != nil {
				return 0, err
			}
		}
	}
	return maxDepth, nil
}
