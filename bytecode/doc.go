// Package bytecode provides the immutable code artifact produced by the cocode
// assembler.
//
// A [Code] combines the finished byte sequence with the pooled constants,
// names and variable names it references, the interface metadata it was
// assembled against, and the label offsets resolved during assembly.
//
// # Immutability Guarantees
//
//   - All fields are unexported and there are no mutation methods
//   - [NewCode] copies every input slice and map
//   - Slice and map accessors return copies
//
// Index-based access is provided for the pools:
//
//	code.ConstantAt(0)
//	code.NameAt(i)
//	code.VarnameAt(j)
//
// # Serialization
//
// [Marshal] and [Unmarshal] use JSON; [MarshalCBOR] and [UnmarshalCBOR] use
// canonical CBOR. Both carry the same fields and preserve constant types.
// Every Code has a content-derived ID (a version 5 UUID over its canonical
// CBOR encoding), so equal artifacts always share an ID.
package bytecode
