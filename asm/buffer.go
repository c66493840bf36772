package asm

// Buffer is the append-only byte sequence an assembly run renders into,
// together with the declared stack depth of the result.
type Buffer struct {
	code      []byte
	stackSize int
}

// NewBuffer returns an empty buffer with room for size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{code: make([]byte, 0, size)}
}

// Append appends bytes to the buffer.
func (b *Buffer) Append(bs ...byte) {
	b.code = append(b.code, bs...)
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.code)
}

// Bytes returns a copy of the bytes written so far.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.code))
	copy(out, b.code)
	return out
}

// StackSize returns the declared stack depth.
func (b *Buffer) StackSize() int {
	return b.stackSize
}

// SetStackSize declares the stack depth.
func (b *Buffer) SetStackSize(n int) {
	b.stackSize = n
}
