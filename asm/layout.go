package asm

import "sort"

// Layout holds the result of pass 1 for one instruction sequence: the byte
// position of every instruction and the offset of every label. It is not
// modified after construction.
type Layout struct {
	positions  []int
	size       int
	labels     map[string]int // name -> byte offset
	labelIndex map[string]int // name -> instruction index
}

// labeler is implemented by zero-width label instructions.
type labeler interface {
	labelName() string
}

func (l Label) labelName() string { return l.Name }

// jumper is implemented by instructions whose operand is a label.
type jumper interface {
	Target() string
}

// NewLayout validates each instruction, assigns byte positions starting at 0
// and resolves every label to the position of the instruction following it.
// A label at the end of the sequence resolves to the total length.
func NewLayout(instrs []Instruction) (*Layout, error) {
	l, err := computePositions(instrs, nil)
	if err != nil {
		return nil, err
	}
	if err := l.resolveLabels(instrs, nil); err != nil {
		return nil, err
	}
	return l, nil
}

// computePositions runs the position half of pass 1. When report is non-nil
// errors are passed to it with the instruction index and processing continues.
func computePositions(instrs []Instruction, report func(int, error)) (*Layout, error) {
	l := &Layout{positions: make([]int, len(instrs))}
	offset := 0
	for i, instr := range instrs {
		if err := instr.Validate(); err != nil {
			err = locate(err, i, offset)
			if report == nil {
				return nil, err
			}
			report(i, err)
		}
		l.positions[i] = offset
		offset += instr.Len()
	}
	l.size = offset
	return l, nil
}

func (l *Layout) resolveLabels(instrs []Instruction, report func(error)) error {
	l.labels = map[string]int{}
	l.labelIndex = map[string]int{}
	for i, instr := range instrs {
		lbl, ok := instr.(labeler)
		if !ok || lbl.labelName() == "" {
			continue
		}
		name := lbl.labelName()
		if first, exists := l.labelIndex[name]; exists {
			err := &DuplicateLabelError{
				Label:  name,
				Index:  i,
				Offset: l.positions[i],
				First:  first,
			}
			if report == nil {
				return err
			}
			report(err)
			continue
		}
		l.labels[name] = l.positions[i]
		l.labelIndex[name] = i
	}
	return nil
}

// Len returns the number of instructions laid out.
func (l *Layout) Len() int {
	return len(l.positions)
}

// Position returns the byte offset of the instruction at index i.
func (l *Layout) Position(i int) int {
	return l.positions[i]
}

// Size returns the total encoded length of the sequence.
func (l *Layout) Size() int {
	return l.size
}

// Offset returns the byte offset of the named label.
func (l *Layout) Offset(name string) (int, bool) {
	offset, ok := l.labels[name]
	return offset, ok
}

// LabelIndex returns the sequence index of the named label.
func (l *Layout) LabelIndex(name string) (int, bool) {
	i, ok := l.labelIndex[name]
	return i, ok
}

// Labels returns a copy of the label name to offset map.
func (l *Layout) Labels() map[string]int {
	labels := make(map[string]int, len(l.labels))
	for name, offset := range l.labels {
		labels[name] = offset
	}
	return labels
}

// LabelNames returns the label names in sequence order.
func (l *Layout) LabelNames() []string {
	names := make([]string, 0, len(l.labelIndex))
	for name := range l.labelIndex {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return l.labelIndex[names[i]] < l.labelIndex[names[j]]
	})
	return names
}
