package bytecode

import (
	"testing"

	"github.com/cocode-io/cocode/op"
	"github.com/stretchr/testify/require"
)

func sampleParams() CodeParams {
	return CodeParams{
		ArgCount:  1,
		StackSize: 2,
		Flags:     FlagOptimized | FlagNewLocals | FlagNoFree,
		Code: []byte{
			byte(op.LoadFast), 0, 0,
			byte(op.LoadConst), 0, 0,
			byte(op.BinaryAdd),
			byte(op.ReturnValue),
		},
		Constants: []any{1},
		Varnames:  []string{"x"},
		Name:      "inc",
		Filename:  "inc.yaml",
		Labels:    map[string]int{"start": 0},
	}
}

func TestNewCode(t *testing.T) {
	code, err := NewCode(sampleParams())
	require.NoError(t, err)
	require.Equal(t, 1, code.ArgCount())
	require.Equal(t, 0, code.KwOnlyArgCount())
	require.Equal(t, 1, code.NLocals())
	require.Equal(t, 2, code.StackSize())
	require.Equal(t, 8, code.Len())
	require.Equal(t, byte(op.BinaryAdd), code.ByteAt(6))
	require.Equal(t, 1, code.ConstantCount())
	require.Equal(t, int64(1), code.ConstantAt(0))
	require.Equal(t, 0, code.NameCount())
	require.Equal(t, "x", code.VarnameAt(0))
	require.Equal(t, "inc", code.Name())
	require.Equal(t, "inc.yaml", code.Filename())
	require.NotEmpty(t, code.ID())
}

func TestNewCodeDefaults(t *testing.T) {
	code, err := NewCode(CodeParams{})
	require.NoError(t, err)
	require.Equal(t, DefaultName, code.Name())
	require.Equal(t, DefaultFilename, code.Filename())
	require.Equal(t, 0, code.Len())
	require.NotNil(t, code.Bytes())
	require.Equal(t, 0, code.LabelCount())
}

func TestNewCodeCopiesInputs(t *testing.T) {
	params := sampleParams()
	code, err := NewCode(params)
	require.NoError(t, err)

	params.Code[0] = byte(op.Nop)
	params.Varnames[0] = "y"
	params.Labels["start"] = 5

	require.Equal(t, byte(op.LoadFast), code.ByteAt(0))
	require.Equal(t, "x", code.VarnameAt(0))
	offset, ok := code.Label("start")
	require.True(t, ok)
	require.Equal(t, 0, offset)

	out := code.Bytes()
	out[0] = byte(op.Nop)
	require.Equal(t, byte(op.LoadFast), code.ByteAt(0))
}

func TestNewCodeRejectsConstant(t *testing.T) {
	params := sampleParams()
	params.Constants = []any{1, []int{1}}
	_, err := NewCode(params)
	require.Error(t, err)
	var constErr *ConstantError
	require.ErrorAs(t, err, &constErr)
	require.Equal(t, 1, constErr.Index)
}

func TestIDIsContentDerived(t *testing.T) {
	a, err := NewCode(sampleParams())
	require.NoError(t, err)
	b, err := NewCode(sampleParams())
	require.NoError(t, err)
	require.Equal(t, a.ID(), b.ID())

	params := sampleParams()
	params.Name = "dec"
	c, err := NewCode(params)
	require.NoError(t, err)
	require.NotEqual(t, a.ID(), c.ID())
}

func TestLabelNames(t *testing.T) {
	params := sampleParams()
	params.Labels = map[string]int{"end": 7, "b": 3, "a": 3, "start": 0}
	code, err := NewCode(params)
	require.NoError(t, err)
	require.Equal(t, []string{"start", "a", "b", "end"}, code.LabelNames())
	require.Equal(t, []string{"a", "b"}, code.LabelsAt(3))
	require.Empty(t, code.LabelsAt(1))
}

func TestStats(t *testing.T) {
	code, err := NewCode(sampleParams())
	require.NoError(t, err)
	stats := code.Stats()
	require.Equal(t, 8, stats.Size)
	require.Equal(t, 4, stats.InstructionCount)
	require.Equal(t, 1, stats.ConstantCount)
	require.Equal(t, 1, stats.VarnameCount)
	require.Equal(t, 1, stats.LabelCount)
	require.Equal(t, 2, stats.StackSize)
}

func TestNormalizeConstant(t *testing.T) {
	tests := []struct {
		in   any
		want any
		ok   bool
	}{
		{nil, nil, true},
		{true, true, true},
		{3, int64(3), true},
		{int64(3), int64(3), true},
		{1.5, 1.5, true},
		{"s", "s", true},
		{complex(1, 2), complex(1, 2), true},
		{int32(3), nil, false},
		{[]byte("x"), nil, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeConstant(tt.in)
		require.Equal(t, tt.ok, ok, "%#v", tt.in)
		require.Equal(t, tt.want, got, "%#v", tt.in)
	}
}

func TestFlagsString(t *testing.T) {
	require.Equal(t, "0", Flags(0).String())
	require.Equal(t, "NOFREE", DefaultFlags.String())
	require.Equal(t, "OPTIMIZED|NEWLOCALS|NOFREE", (FlagOptimized | FlagNewLocals | FlagNoFree).String())
	require.Equal(t, "VARARGS|0x100", (FlagVarArgs | 0x100).String())
	require.True(t, (FlagVarArgs | FlagNested).Has(FlagNested))
	require.False(t, FlagVarArgs.Has(FlagNested))
}

func TestFlagByName(t *testing.T) {
	f, ok := FlagByName("newlocals")
	require.True(t, ok)
	require.Equal(t, FlagNewLocals, f)
	_, ok = FlagByName("FREE")
	require.False(t, ok)
	require.Len(t, FlagNames(), 7)
	require.Equal(t, "OPTIMIZED", FlagNames()[0])
}
