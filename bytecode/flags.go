package bytecode

import (
	"strconv"
	"strings"
)

// Flags is the code flags bitmask. The assembler passes it through verbatim;
// the named bits are provided for callers and for display.
type Flags uint32

const (
	FlagOptimized Flags = 1 << iota
	FlagNewLocals
	FlagVarArgs
	FlagVarKeywords
	FlagNested
	FlagGenerator
	FlagNoFree
)

// DefaultFlags is used when no flags are configured.
const DefaultFlags = FlagNoFree

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagOptimized, "OPTIMIZED"},
	{FlagNewLocals, "NEWLOCALS"},
	{FlagVarArgs, "VARARGS"},
	{FlagVarKeywords, "VARKEYWORDS"},
	{FlagNested, "NESTED"},
	{FlagGenerator, "GENERATOR"},
	{FlagNoFree, "NOFREE"},
}

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// String returns the set flags joined by "|", for example
// "OPTIMIZED|NEWLOCALS|NOFREE". Unnamed bits are rendered in hex.
func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	rest := f
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, "|")
}

// FlagByName returns the flag with the given name, ignoring case.
func FlagByName(name string) (Flags, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// FlagNames returns the names of all named flags, in bit order.
func FlagNames() []string {
	names := make([]string, len(flagNames))
	for i, fn := range flagNames {
		names[i] = fn.name
	}
	return names
}
