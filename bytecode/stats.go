package bytecode

// Stats contains statistics about an assembled code artifact.
type Stats struct {
	// Size is the length of the byte sequence.
	Size int

	// InstructionCount is the number of decoded instructions.
	InstructionCount int

	ConstantCount int
	NameCount     int
	VarnameCount  int
	LabelCount    int

	// StackSize is the declared maximum stack depth.
	StackSize int
}
