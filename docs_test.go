package cocode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocsSummary(t *testing.T) {
	j := Docs().JSON()
	require.Contains(t, j, `"version": "`+Version+`"`)
	require.Contains(t, j, "listing_example")
	require.Contains(t, j, "topics")
}

func TestDocsCategoryOpcodes(t *testing.T) {
	var data struct {
		Count   int          `json:"count"`
		Opcodes []docsOpcode `json:"opcodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(Docs(DocsCategory("opcodes")).JSON()), &data))
	require.Equal(t, len(data.Opcodes), data.Count)

	byName := map[string]docsOpcode{}
	for _, o := range data.Opcodes {
		byName[o.Name] = o
	}
	require.Equal(t, 1, byName["BINARY_ADD"].Width)
	require.Equal(t, "const", byName["LOAD_CONST"].Operand)
	require.Equal(t, 3, byName["LOAD_CONST"].Width)
	require.Equal(t, "relative", byName["JUMP_FORWARD"].Jump)
	require.Equal(t, "absolute", byName["POP_JUMP_IF_FALSE"].Jump)
	require.True(t, byName["POP_JUMP_IF_FALSE"].Conditional)
	require.True(t, byName["RETURN_VALUE"].Terminal)
}

func TestDocsCategories(t *testing.T) {
	require.Contains(t, Docs(DocsCategory("flags")).JSON(), `"NOFREE"`)
	require.Contains(t, Docs(DocsCategory("errors")).JSON(), `"E2001"`)
	require.Contains(t, Docs(DocsCategory("operands")).JSON(), "varnames pool")
	require.Contains(t, Docs(DocsCategory("bogus")).JSON(), "unknown category: bogus")
}

func TestDocsTopic(t *testing.T) {
	require.Contains(t, Docs(DocsTopic("load_const")).JSON(), `"name": "LOAD_CONST"`)
	require.Contains(t, Docs(DocsTopic("newlocals")).JSON(), `"name": "NEWLOCALS"`)
	require.Contains(t, Docs(DocsTopic("e2002")).JSON(), "duplicate label")

	unknown := Docs(DocsTopic("LOAD_CONTS")).Data().(map[string]any)
	require.Equal(t, "unknown topic: LOAD_CONTS", unknown["error"])
	require.Contains(t, unknown["hint"], "LOAD_CONST")
}
