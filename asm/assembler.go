// Package asm assembles sequences of symbolic stack-machine instructions into
// immutable bytecode.Code artifacts.
//
// # Two-Pass Assembly
//
// Jumps may refer to labels that appear later in the sequence, so assembly
// runs in two passes over the same instructions.
//
// Pass 1 (NewLayout) validates every instruction and assigns byte positions
// from a running offset starting at 0. Labels occupy no space; each resolves
// to the position of the instruction that follows it, or to the total length
// when it ends the sequence. Duplicate label names are an error.
//
// Pass 2 renders each instruction in order into a Buffer. Rendering registers
// constants, names and local variable names in their pools and looks up jump
// targets in the label map built by pass 1. Nothing computed by pass 1 changes
// during pass 2.
//
// # Encoding
//
// Every instruction starts with its opcode byte. Opcodes at or above
// op.HaveArgument are followed by a 16-bit little-endian operand:
//
//	LOAD_CONST 1      -> 64 01 00
//	BINARY_ADD        -> 17
//	JUMP_ABSOLUTE end -> 71 07 00
//
// # Runs
//
// An Assembler holds only configuration. Every call to Assemble creates a Run
// with its own Layout, pools and buffer, so one Assembler and one instruction
// slice may be used from many goroutines at once.
package asm

import (
	"fmt"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/rs/zerolog"
)

// DefaultStackSize is the conservative stack depth used by callers that opt
// out of stack analysis by declaring a fixed size.
const DefaultStackSize = 3

// Config holds the interface metadata of the code object being assembled.
type Config struct {
	// ArgCount is the number of positional parameters.
	ArgCount int

	// KwOnlyArgCount is the number of keyword-only parameters.
	KwOnlyArgCount int

	// Flags is passed through to the artifact verbatim.
	Flags bytecode.Flags

	// Params are the parameter names. They seed the varnames pool in order,
	// positional parameters first.
	Params []string

	// Name, Filename and FirstLineNo are artifact metadata.
	Name        string
	Filename    string
	FirstLineNo int

	// StackSize declares a fixed stack depth. When zero the depth is
	// computed from the stack effects of the instructions.
	StackSize int

	// StrictStack makes popping from an empty stack an error. Otherwise such
	// pops are treated as popping nothing, which allows assembling fragments
	// that expect values already on the stack.
	StrictStack bool

	// Logger receives debug output for each pass. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns the configuration used when nil is passed to New.
func DefaultConfig() *Config {
	return &Config{Flags: bytecode.DefaultFlags}
}

// Validate checks that the configuration describes a valid interface.
func (c *Config) Validate() error {
	switch {
	case c.ArgCount < 0:
		return &ConfigError{Code: errors.E2005, Field: "argcount", Reason: "must not be negative"}
	case c.KwOnlyArgCount < 0:
		return &ConfigError{Code: errors.E2005, Field: "kwonlyargcount", Reason: "must not be negative"}
	case c.StackSize < 0 || c.StackSize > MaxStackSize:
		return &ConfigError{Code: errors.E2005, Field: "stacksize",
			Reason: fmt.Sprintf("%d out of range [0, %d]", c.StackSize, MaxStackSize)}
	case c.ArgCount+c.KwOnlyArgCount > len(c.Params):
		return &ConfigError{Code: errors.E2005, Field: "params", Reason: fmt.Sprintf(
			"%d parameters declared but %d names given", c.ArgCount+c.KwOnlyArgCount, len(c.Params))}
	}
	seen := make(map[string]bool, len(c.Params))
	for _, p := range c.Params {
		if p == "" {
			return &ConfigError{Code: errors.E2005, Field: "params", Reason: "parameter name must not be empty"}
		}
		if seen[p] {
			return &ConfigError{Code: errors.E2006, Field: "params", Reason: fmt.Sprintf("duplicate parameter %q", p)}
		}
		seen[p] = true
	}
	return nil
}

// State is the progress of one assembly run.
type State int

const (
	Unassembled State = iota
	PositionsComputed
	LabelsResolved
	Rendered
	ArtifactReady
)

func (s State) String() string {
	switch s {
	case Unassembled:
		return "unassembled"
	case PositionsComputed:
		return "positions computed"
	case LabelsResolved:
		return "labels resolved"
	case Rendered:
		return "rendered"
	case ArtifactReady:
		return "artifact ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Assembler turns instruction sequences into code artifacts for one
// interface configuration.
type Assembler struct {
	cfg    Config
	logger zerolog.Logger
}

// Assemble assembles the instructions with the given configuration. Pass nil
// for cfg to use defaults.
func Assemble(instrs []Instruction, cfg *Config) (*bytecode.Code, error) {
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return a.Assemble(instrs)
}

// New returns an Assembler for the given configuration. Pass nil for cfg to
// use defaults.
func New(cfg *Config) (*Assembler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Assembler{cfg: *cfg, logger: zerolog.Nop()}
	a.cfg.Params = append([]string(nil), cfg.Params...)
	if cfg.Logger != nil {
		a.logger = *cfg.Logger
	}
	return a, nil
}

// Config returns a copy of the assembler's configuration.
func (a *Assembler) Config() Config {
	cfg := a.cfg
	cfg.Params = append([]string(nil), a.cfg.Params...)
	return cfg
}

// Assemble runs both passes over the instructions and returns the artifact.
// No artifact is returned if any step fails.
func (a *Assembler) Assemble(instrs []Instruction) (*bytecode.Code, error) {
	return a.NewRun(instrs).Execute()
}

// NewRun prepares a run over the instructions without executing it.
func (a *Assembler) NewRun(instrs []Instruction) *Run {
	return &Run{asm: a, instrs: instrs}
}

// Run is a single assembly of one instruction sequence. The sequence is not
// modified; all state derived from it lives in the run.
type Run struct {
	asm    *Assembler
	instrs []Instruction
	state  State
	layout *Layout
	ctx    *Context
}

// State returns how far the run has progressed.
func (r *Run) State() State {
	return r.state
}

// Layout returns the layout computed by pass 1, or nil before it has run.
func (r *Run) Layout() *Layout {
	return r.layout
}

// Execute performs the run. Calling it again starts over from Unassembled.
func (r *Run) Execute() (*bytecode.Code, error) {
	r.state = Unassembled
	r.layout, r.ctx = nil, nil
	cfg := &r.asm.cfg
	log := r.asm.logger.With().Str("name", cfg.Name).Logger()

	layout, err := computePositions(r.instrs, nil)
	if err != nil {
		return nil, err
	}
	r.layout = layout
	r.state = PositionsComputed
	log.Debug().Int("instructions", len(r.instrs)).Int("size", layout.Size()).Msg("positions computed")

	if err := layout.resolveLabels(r.instrs, nil); err != nil {
		return nil, err
	}
	r.state = LabelsResolved
	log.Debug().Int("labels", len(layout.labels)).Msg("labels resolved")

	depth, err := stackDepth(r.instrs, layout, cfg.StrictStack)
	if err != nil {
		return nil, err
	}
	stackSize, err := declaredStackSize(cfg, depth)
	if err != nil {
		return nil, err
	}

	ctx := NewContext(layout, cfg.Params)
	r.ctx = ctx
	for i, instr := range r.instrs {
		ctx.seek(i)
		if err := instr.Render(ctx); err != nil {
			return nil, locate(err, i, layout.Position(i))
		}
	}
	ctx.buf.SetStackSize(stackSize)
	r.state = Rendered
	log.Debug().
		Int("size", ctx.buf.Len()).
		Int("constants", ctx.constants.Len()).
		Int("names", ctx.names.Len()).
		Int("varnames", ctx.varnames.Len()).
		Int("stacksize", stackSize).
		Msg("rendered")

	code, err := bytecode.NewCode(bytecode.CodeParams{
		ArgCount:       cfg.ArgCount,
		KwOnlyArgCount: cfg.KwOnlyArgCount,
		StackSize:      ctx.buf.StackSize(),
		Flags:          cfg.Flags,
		Code:           ctx.buf.Bytes(),
		Constants:      ctx.constants.Values(),
		Names:          ctx.names.Values(),
		Varnames:       ctx.varnames.Values(),
		Filename:       cfg.Filename,
		Name:           cfg.Name,
		FirstLineNo:    cfg.FirstLineNo,
		Labels:         layout.Labels(),
	})
	if err != nil {
		return nil, err
	}
	r.state = ArtifactReady
	log.Debug().Str("id", code.ID()).Msg("artifact ready")
	return code, nil
}

// declaredStackSize returns the stack size recorded in the artifact: the
// declared size when one is set, otherwise the computed depth. In strict mode
// a declared size below the computed depth is an error.
func declaredStackSize(cfg *Config, depth int) (int, error) {
	if cfg.StackSize <= 0 {
		return depth, nil
	}
	if cfg.StrictStack && depth > cfg.StackSize {
		return 0, &StackDepthError{
			Index:  -1,
			Offset: -1,
			Depth:  depth,
			Reason: fmt.Sprintf("computed depth exceeds declared stack size %d", cfg.StackSize),
		}
	}
	return cfg.StackSize, nil
}
