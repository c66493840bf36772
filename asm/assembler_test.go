package asm

import (
	"bytes"
	"math"
	"sync"
	"testing"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/op"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestAssembleDupAddReturn(t *testing.T) {
	instrs := []Instruction{Dup(), Add(), Return()}
	code, err := Assemble(instrs, &Config{})
	require.NoError(t, err)
	require.Equal(t, 0, code.ArgCount())
	require.Equal(t, 0, code.KwOnlyArgCount())
	require.Equal(t, 0, code.NLocals())
	require.Equal(t, 0, code.ConstantCount())
	require.Equal(t, 0, code.NameCount())
	require.Equal(t, Dup().Len()+Add().Len()+Return().Len(), code.Len())
	require.Equal(t, []byte{byte(op.DupTop), byte(op.BinaryAdd), byte(op.ReturnValue)}, code.Bytes())
	require.Equal(t, 1, code.StackSize())
}

func TestAssembleDefaults(t *testing.T) {
	code, err := Assemble([]Instruction{LoadConst(nil), Return()}, nil)
	require.NoError(t, err)
	require.Equal(t, bytecode.DefaultFlags, code.Flags())
	require.Equal(t, bytecode.DefaultName, code.Name())
	require.Equal(t, bytecode.DefaultFilename, code.Filename())
	require.Equal(t, 0, code.FirstLineNo())
	require.Empty(t, code.Lnotab())
}

func TestAssembleMetadata(t *testing.T) {
	code, err := Assemble([]Instruction{LoadFast("a"), Return()}, &Config{
		ArgCount:    1,
		Params:      []string{"a"},
		Flags:       bytecode.FlagOptimized | bytecode.FlagNewLocals,
		Name:        "identity",
		Filename:    "identity.yaml",
		FirstLineNo: 4,
	})
	require.NoError(t, err)
	require.Equal(t, 1, code.ArgCount())
	require.Equal(t, bytecode.FlagOptimized|bytecode.FlagNewLocals, code.Flags())
	require.Equal(t, "identity", code.Name())
	require.Equal(t, "identity.yaml", code.Filename())
	require.Equal(t, 4, code.FirstLineNo())
}

func TestAssembleOperands(t *testing.T) {
	instrs := []Instruction{
		LoadConst("hello"),
		LoadGlobal("print"),
		LoadConst(1),
		LoadConst("hello"),
		StoreFast("x"),
		LoadGlobal("len"),
		LoadGlobal("print"),
		CallFunction(1, 0),
		Return(),
	}
	code, err := Assemble(instrs, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(op.LoadConst), 0, 0,
		byte(op.LoadGlobal), 0, 0,
		byte(op.LoadConst), 1, 0,
		byte(op.LoadConst), 0, 0,
		byte(op.StoreFast), 0, 0,
		byte(op.LoadGlobal), 1, 0,
		byte(op.LoadGlobal), 0, 0,
		byte(op.CallFunction), 1, 0,
		byte(op.ReturnValue),
	}, code.Bytes())
	require.Equal(t, []any{"hello", int64(1)}, code.Constants())
	require.Equal(t, []string{"print", "len"}, code.Names())
	require.Equal(t, []string{"x"}, code.Varnames())
}

func TestAssembleIntConstantsShareIndex(t *testing.T) {
	code, err := Assemble([]Instruction{LoadConst(1), LoadConst(int64(1)), LoadConst(1.0)}, nil)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), 1.0}, code.Constants())
	require.Equal(t, byte(0), code.ByteAt(4))
	require.Equal(t, byte(1), code.ByteAt(7))
}

func TestAssembleNaNConstantsShareIndex(t *testing.T) {
	nan := math.NaN()
	code, err := Assemble([]Instruction{
		LoadConst(nan),
		LoadConst(math.NaN()),
		LoadConst(complex(nan, 1)),
		LoadConst(complex(nan, 1)),
		LoadConst(complex(1, nan)),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 3, code.ConstantCount())
	require.True(t, math.IsNaN(code.ConstantAt(0).(float64)))
	require.Equal(t, []byte{0, 0, 1, 1, 2}, []byte{
		code.ByteAt(1), code.ByteAt(4), code.ByteAt(7), code.ByteAt(10), code.ByteAt(13),
	})
}

func TestAssembleNLocals(t *testing.T) {
	instrs := []Instruction{
		LoadFast("a"),
		StoreFast("b"),
		LoadFast("a"),
		DeleteFast("c"),
		LoadName("not_a_local"),
	}
	code, err := Assemble(instrs, &Config{ArgCount: 1, Params: []string{"x"}})
	require.NoError(t, err)
	require.Equal(t, []string{"x", "a", "b", "c"}, code.Varnames())
	require.Equal(t, 4, code.NLocals())
	require.Equal(t, 1, code.NameCount())
}

func TestAssembleJumps(t *testing.T) {
	instrs := []Instruction{
		Label{Name: "top"},
		LoadName("x"),
		PopJumpIfFalse("end"),
		JumpAbsolute("top"),
		Label{Name: "end"},
		LoadConst(nil),
		Return(),
	}
	code, err := Assemble(instrs, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{
		byte(op.LoadName), 0, 0,
		byte(op.PopJumpIfFalse), 9, 0,
		byte(op.JumpAbsolute), 0, 0,
		byte(op.LoadConst), 0, 0,
		byte(op.ReturnValue),
	}, code.Bytes())
	require.Equal(t, []string{"top", "end"}, code.LabelNames())
	end, ok := code.Label("end")
	require.True(t, ok)
	require.Equal(t, 9, end)
	require.Equal(t, 1, code.StackSize())
}

func TestAssembleRelativeJump(t *testing.T) {
	instrs := []Instruction{
		JumpForward("end"),
		Nop(),
		Nop(),
		Label{Name: "end"},
	}
	code, err := Assemble(instrs, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{byte(op.JumpForward), 2, 0, byte(op.Nop), byte(op.Nop)}, code.Bytes())
	end, _ := code.Label("end")
	require.Equal(t, code.Len(), end)
}

func TestAssembleRelativeJumpBackward(t *testing.T) {
	instrs := []Instruction{
		Label{Name: "top"},
		Nop(),
		JumpForward("top"),
	}
	code, err := Assemble(instrs, nil)
	require.Nil(t, code)
	var invalid *InvalidOperandError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, 2, invalid.Index)
	require.Equal(t, 1, invalid.Offset)
	require.Equal(t, op.JumpForward, invalid.Opcode)
}

func TestAssembleUnresolvedLabel(t *testing.T) {
	instrs := []Instruction{
		Label{Name: "loop"},
		LoadConst(true),
		PopJumpIfTrue("lop"),
		JumpAbsolute("missing"),
	}
	code, err := Assemble(instrs, nil)
	require.Nil(t, code)
	var unresolved *UnresolvedLabelError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "lop", unresolved.Label)
	require.Equal(t, 2, unresolved.Index)
	require.Equal(t, 3, unresolved.Offset)
	require.Equal(t, op.PopJumpIfTrue, unresolved.Opcode)
	require.Len(t, unresolved.Suggestions, 1)
	require.Equal(t, "loop", unresolved.Suggestions[0].Value)
	require.Contains(t, err.Error(), "did you mean 'loop'?")

	formatted := unresolved.ToFormatted()
	require.Equal(t, errors.E2001, formatted.Code)
	require.Equal(t, "POP_JUMP_IF_TRUE", formatted.Opcode)
}

func TestAssembleMissingLabel(t *testing.T) {
	code, err := Assemble([]Instruction{JumpAbsolute("missing")}, nil)
	require.Nil(t, code)
	var unresolved *UnresolvedLabelError
	require.ErrorAs(t, err, &unresolved)
	require.Empty(t, unresolved.Suggestions)
}

func TestAssembleDuplicateLabel(t *testing.T) {
	code, err := Assemble([]Instruction{Label{Name: "a"}, Nop(), Label{Name: "a"}}, nil)
	require.Nil(t, code)
	var dup *DuplicateLabelError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, errors.E2002, dup.ToFormatted().Code)
}

func TestAssembleUnrepresentableConstant(t *testing.T) {
	code, err := Assemble([]Instruction{Nop(), LoadConst(struct{}{})}, nil)
	require.Nil(t, code)
	var invalid *InvalidOperandError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, 1, invalid.Index)
	require.Equal(t, errors.E2003, invalid.ToFormatted().Code)
}

func TestAssembleIsDeterministic(t *testing.T) {
	instrs := []Instruction{
		LoadFast("n"),
		LoadConst(2),
		CompareOp(op.LessThan),
		PopJumpIfFalse("recurse"),
		LoadFast("n"),
		Return(),
		Label{Name: "recurse"},
		LoadGlobal("fib"),
		LoadFast("n"),
		LoadConst(1),
		Sub(),
		CallFunction(1, 0),
		Return(),
	}
	cfg := &Config{ArgCount: 1, Params: []string{"n"}, Name: "fib"}
	a, err := Assemble(instrs, cfg)
	require.NoError(t, err)
	b, err := Assemble(instrs, cfg)
	require.NoError(t, err)
	require.Equal(t, a.Bytes(), b.Bytes())
	require.Equal(t, a.Constants(), b.Constants())
	require.Equal(t, a.Names(), b.Names())
	require.Equal(t, a.Varnames(), b.Varnames())
	require.Equal(t, a.ID(), b.ID())

	ab, err := bytecode.MarshalCBOR(a)
	require.NoError(t, err)
	bb, err := bytecode.MarshalCBOR(b)
	require.NoError(t, err)
	require.Equal(t, ab, bb)
}

func TestAssembleRepeatedWithDifferentParams(t *testing.T) {
	instrs := []Instruction{LoadFast("a"), Return()}

	first, err := Assemble(instrs, &Config{ArgCount: 1, Params: []string{"a"}})
	require.NoError(t, err)
	second, err := Assemble(instrs, &Config{ArgCount: 2, Params: []string{"b", "a"}})
	require.NoError(t, err)

	require.Equal(t, []byte{byte(op.LoadFast), 0, 0, byte(op.ReturnValue)}, first.Bytes())
	require.Equal(t, []byte{byte(op.LoadFast), 1, 0, byte(op.ReturnValue)}, second.Bytes())
	require.Equal(t, 1, first.NLocals())
	require.Equal(t, 2, second.NLocals())
}

func TestAssembleConcurrently(t *testing.T) {
	instrs := []Instruction{
		LoadFast("x"),
		PopJumpIfFalse("else"),
		LoadConst("yes"),
		Return(),
		Label{Name: "else"},
		LoadConst("no"),
		Return(),
	}
	a, err := New(&Config{ArgCount: 1, Params: []string{"x"}})
	require.NoError(t, err)
	want, err := a.Assemble(instrs)
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make([]string, 16)
	errs := make([]error, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := a.Assemble(instrs)
			errs[i] = err
			if err == nil {
				ids[i] = code.ID()
			}
		}(i)
	}
	wg.Wait()
	for i := range ids {
		require.NoError(t, errs[i])
		require.Equal(t, want.ID(), ids[i])
	}
}

func TestStackDepth(t *testing.T) {
	tests := []struct {
		name   string
		instrs []Instruction
		depth  int
	}{
		{"empty", nil, 0},
		{"tuple", []Instruction{LoadConst(1), LoadConst(2), LoadConst(3), BuildTuple(3), Return()}, 3},
		{"call", []Instruction{LoadGlobal("f"), LoadConst(1), LoadConst(2), CallFunction(2, 0), Pop()}, 3},
		{"yield", []Instruction{LoadConst(1), Yield(), Yield(), Return()}, 1},
		{"branches", []Instruction{
			LoadName("c"),
			PopJumpIfFalse("else"),
			LoadConst(1),
			LoadConst(2),
			Add(),
			JumpForward("end"),
			Label{Name: "else"},
			LoadConst(3),
			Label{Name: "end"},
			Return(),
		}, 2},
		{"or", []Instruction{
			LoadName("a"),
			JumpIfTrueOrPop("done"),
			LoadName("b"),
			Label{Name: "done"},
			Return(),
		}, 1},
		{"unreachable", []Instruction{LoadConst(1), Return(), LoadConst(1), LoadConst(2), LoadConst(3)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Assemble(tt.instrs, &Config{StrictStack: true})
			require.NoError(t, err)
			require.Equal(t, tt.depth, code.StackSize())
		})
	}
}

func TestStackDepthFixed(t *testing.T) {
	code, err := Assemble([]Instruction{Dup(), Add(), Return()}, &Config{StackSize: DefaultStackSize})
	require.NoError(t, err)
	require.Equal(t, DefaultStackSize, code.StackSize())

	instrs := []Instruction{LoadConst(1), LoadConst(2), LoadConst(3), LoadConst(4), BuildList(4), Return()}
	_, err = Assemble(instrs, &Config{StackSize: DefaultStackSize, StrictStack: true})
	var depthErr *StackDepthError
	require.ErrorAs(t, err, &depthErr)
	require.Equal(t, 4, depthErr.Depth)
}

func TestStackDepthStrictUnderflow(t *testing.T) {
	_, err := Assemble([]Instruction{Dup(), Add(), Return()}, &Config{StrictStack: true})
	var depthErr *StackDepthError
	require.ErrorAs(t, err, &depthErr)
	require.Equal(t, 2, depthErr.Index)
	require.Equal(t, -1, depthErr.Depth)
	require.Equal(t, errors.E2004, depthErr.ToFormatted().Code)
}

func TestStackDepthUnbounded(t *testing.T) {
	instrs := []Instruction{
		Label{Name: "top"},
		LoadConst(1),
		JumpAbsolute("top"),
	}
	_, err := Assemble(instrs, nil)
	var depthErr *StackDepthError
	require.ErrorAs(t, err, &depthErr)
	require.Contains(t, depthErr.Reason, "without bound")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code errors.ErrorCode
	}{
		{"negative argcount", Config{ArgCount: -1}, errors.E2005},
		{"negative kwonlyargcount", Config{KwOnlyArgCount: -1}, errors.E2005},
		{"negative stacksize", Config{StackSize: -1}, errors.E2005},
		{"stacksize too large", Config{StackSize: MaxStackSize + 1}, errors.E2005},
		{"too few params", Config{ArgCount: 1, KwOnlyArgCount: 1, Params: []string{"a"}}, errors.E2005},
		{"empty param", Config{Params: []string{""}}, errors.E2005},
		{"duplicate param", Config{Params: []string{"a", "b", "a"}}, errors.E2006},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tt.code, cfgErr.Code)
			require.Equal(t, tt.code, cfgErr.ToFormatted().Code)
		})
	}
	require.NoError(t, (&Config{ArgCount: 1, KwOnlyArgCount: 1, Params: []string{"a", "b", "c"}}).Validate())
}

func TestAssemblerCopiesConfig(t *testing.T) {
	params := []string{"a"}
	a, err := New(&Config{ArgCount: 1, Params: params})
	require.NoError(t, err)
	params[0] = "z"
	require.Equal(t, []string{"a"}, a.Config().Params)
}

func TestRunStates(t *testing.T) {
	a, err := New(nil)
	require.NoError(t, err)

	run := a.NewRun([]Instruction{Label{Name: "a"}, JumpAbsolute("a")})
	require.Equal(t, Unassembled, run.State())
	require.Nil(t, run.Layout())
	code, err := run.Execute()
	require.NoError(t, err)
	require.NotNil(t, code)
	require.Equal(t, ArtifactReady, run.State())
	require.Equal(t, 3, run.Layout().Size())

	again, err := run.Execute()
	require.NoError(t, err)
	require.Equal(t, code.ID(), again.ID())

	run = a.NewRun([]Instruction{JumpAbsolute("missing")})
	_, err = run.Execute()
	require.Error(t, err)
	require.Equal(t, LabelsResolved, run.State())

	run = a.NewRun([]Instruction{Label{Name: "a"}, Label{Name: "a"}})
	_, err = run.Execute()
	require.Error(t, err)
	require.Equal(t, PositionsComputed, run.State())

	run = a.NewRun([]Instruction{BuildList(-1)})
	_, err = run.Execute()
	require.Error(t, err)
	require.Equal(t, Unassembled, run.State())

	require.Equal(t, "artifact ready", ArtifactReady.String())
}

func TestAssembleLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := Assemble([]Instruction{LoadConst(1), Return()}, &Config{Name: "logged", Logger: &logger})
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, `"message":"positions computed"`)
	require.Contains(t, out, `"message":"labels resolved"`)
	require.Contains(t, out, `"message":"rendered"`)
	require.Contains(t, out, `"message":"artifact ready"`)
	require.Contains(t, out, `"name":"logged"`)
	require.Contains(t, out, `"stacksize":1`)
}
