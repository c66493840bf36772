package errors

import "sort"

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Listing errors
//   - E2xxx: Assembly errors
//   - E3xxx: Artifact errors
type ErrorCode string

const (
	// Listing errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unknown opcode
	E1002 ErrorCode = "E1002" // Malformed entry
	E1003 ErrorCode = "E1003" // Missing operand
	E1004 ErrorCode = "E1004" // Unexpected operand
	E1005 ErrorCode = "E1005" // Invalid document

	// Assembly errors (E2xxx)
	E2001 ErrorCode = "E2001" // Unresolved label
	E2002 ErrorCode = "E2002" // Duplicate label
	E2003 ErrorCode = "E2003" // Invalid operand
	E2004 ErrorCode = "E2004" // Stack depth error
	E2005 ErrorCode = "E2005" // Invalid interface
	E2006 ErrorCode = "E2006" // Duplicate parameter name

	// Artifact errors (E3xxx)
	E3001 ErrorCode = "E3001" // Unsupported constant
	E3002 ErrorCode = "E3002" // Corrupt artifact
	E3003 ErrorCode = "E3003" // Artifact not found
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "unknown opcode",
	E1002: "malformed entry",
	E1003: "missing operand",
	E1004: "unexpected operand",
	E1005: "invalid document",

	E2001: "unresolved label",
	E2002: "duplicate label",
	E2003: "invalid operand",
	E2004: "stack depth error",
	E2005: "invalid interface",
	E2006: "duplicate parameter name",

	E3001: "unsupported constant",
	E3002: "corrupt artifact",
	E3003: "artifact not found",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "listing"
	case '2':
		return "assembly"
	case '3':
		return "artifact"
	default:
		return "unknown"
	}
}

// Codes returns every defined error code in ascending order.
func Codes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(codeDescriptions))
	for code := range codeDescriptions {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
