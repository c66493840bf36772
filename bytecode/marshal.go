package bytecode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal converts a Code object into a JSON representation.
func Marshal(code *Code) ([]byte, error) {
	return json.Marshal(stateWithID(code))
}

// Unmarshal converts a JSON representation into a Code object.
func Unmarshal(data []byte) (*Code, error) {
	var state codeState
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&state); err != nil {
		return nil, &CorruptError{Reason: "invalid json", Err: err}
	}
	return codeFromState(&state)
}

// MarshalCBOR converts a Code object into canonical CBOR.
func MarshalCBOR(code *Code) ([]byte, error) {
	return cborEncMode.Marshal(stateWithID(code))
}

// UnmarshalCBOR converts a CBOR representation into a Code object.
func UnmarshalCBOR(data []byte) (*Code, error) {
	var state codeState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, &CorruptError{Reason: "invalid cbor", Err: err}
	}
	return codeFromState(&state)
}

// MarshalJSON implements json.Marshaler.
func (c *Code) MarshalJSON() ([]byte, error) {
	return Marshal(c)
}

// Serialization types

type codeState struct {
	ID             string         `json:"id,omitempty" cbor:"id,omitempty"`
	Name           string         `json:"name" cbor:"name"`
	Filename       string         `json:"filename" cbor:"filename"`
	FirstLineNo    int            `json:"firstlineno" cbor:"firstlineno"`
	ArgCount       int            `json:"argcount" cbor:"argcount"`
	KwOnlyArgCount int            `json:"kwonlyargcount" cbor:"kwonlyargcount"`
	NLocals        int            `json:"nlocals" cbor:"nlocals"`
	StackSize      int            `json:"stacksize" cbor:"stacksize"`
	Flags          uint32         `json:"flags" cbor:"flags"`
	Code           []byte         `json:"code" cbor:"code"`
	Constants      []constantDef  `json:"constants" cbor:"constants"`
	Names          []string       `json:"names" cbor:"names"`
	Varnames       []string       `json:"varnames" cbor:"varnames"`
	Lnotab         []byte         `json:"lnotab" cbor:"lnotab"`
	Labels         map[string]int `json:"labels" cbor:"labels"`
}

type constantDef struct {
	Type  string `json:"type" cbor:"type"`
	Value any    `json:"value,omitempty" cbor:"value,omitempty"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func stateWithID(code *Code) *codeState {
	state := stateFromCode(code)
	state.ID = code.id
	return state
}

func stateFromCode(code *Code) *codeState {
	constants := make([]constantDef, len(code.constants))
	for i, c := range code.constants {
		constants[i] = constantToDef(c)
	}
	return &codeState{
		Name:           code.name,
		Filename:       code.filename,
		FirstLineNo:    code.firstLineNo,
		ArgCount:       code.argCount,
		KwOnlyArgCount: code.kwOnlyArgCount,
		NLocals:        code.nlocals,
		StackSize:      code.stackSize,
		Flags:          uint32(code.flags),
		Code:           code.code,
		Constants:      constants,
		Names:          nonNil(code.names),
		Varnames:       nonNil(code.varnames),
		Lnotab:         code.lnotab,
		Labels:         code.labels,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func constantToDef(c any) constantDef {
	switch c := c.(type) {
	case nil:
		return constantDef{Type: "nil"}
	case bool:
		return constantDef{Type: "bool", Value: c}
	case int64:
		return constantDef{Type: "int", Value: c}
	case float64:
		return constantDef{Type: "float", Value: formatFloat(c)}
	case string:
		return constantDef{Type: "string", Value: c}
	case complex128:
		return constantDef{Type: "complex", Value: []string{formatFloat(real(c)), formatFloat(imag(c))}}
	default:
		// NewCode rejects every other type.
		panic(fmt.Sprintf("bytecode: unexpected constant type %T", c))
	}
}

func defToConstant(def constantDef) (any, error) {
	switch def.Type {
	case "nil":
		return nil, nil
	case "bool":
		if def.Value == nil {
			return false, nil
		}
		b, ok := def.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("bool constant holds %T", def.Value)
		}
		return b, nil
	case "int":
		return toInt64(def.Value)
	case "float":
		s, ok := def.Value.(string)
		if !ok {
			return nil, fmt.Errorf("float constant holds %T", def.Value)
		}
		return strconv.ParseFloat(s, 64)
	case "string":
		if def.Value == nil {
			return "", nil
		}
		s, ok := def.Value.(string)
		if !ok {
			return nil, fmt.Errorf("string constant holds %T", def.Value)
		}
		return s, nil
	case "complex":
		parts, ok := def.Value.([]any)
		if !ok || len(parts) != 2 {
			return nil, fmt.Errorf("complex constant must hold two parts")
		}
		var xs [2]float64
		for i, p := range parts {
			s, ok := p.(string)
			if !ok {
				return nil, fmt.Errorf("complex constant part holds %T", p)
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, err
			}
			xs[i] = f
		}
		return complex(xs[0], xs[1]), nil
	default:
		return nil, fmt.Errorf("unknown constant type %q", def.Type)
	}
}

func toInt64(v any) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return v.Int64()
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("int constant %d overflows int64", v)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("int constant %v is not integral", v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("int constant holds %T", v)
	}
}

func codeFromState(state *codeState) (*Code, error) {
	constants := make([]any, len(state.Constants))
	for i, def := range state.Constants {
		c, err := defToConstant(def)
		if err != nil {
			return nil, &CorruptError{Reason: fmt.Sprintf("constant %d", i), Err: err}
		}
		constants[i] = c
	}
	if state.NLocals != len(state.Varnames) {
		return nil, &CorruptError{Reason: fmt.Sprintf(
			"nlocals is %d but there are %d varnames", state.NLocals, len(state.Varnames))}
	}
	code, err := NewCode(CodeParams{
		ArgCount:       state.ArgCount,
		KwOnlyArgCount: state.KwOnlyArgCount,
		StackSize:      state.StackSize,
		Flags:          Flags(state.Flags),
		Code:           state.Code,
		Constants:      constants,
		Names:          state.Names,
		Varnames:       state.Varnames,
		Filename:       state.Filename,
		Name:           state.Name,
		FirstLineNo:    state.FirstLineNo,
		Lnotab:         state.Lnotab,
		Labels:         state.Labels,
	})
	if err != nil {
		return nil, err
	}
	if state.ID != "" && state.ID != code.ID() {
		return nil, &CorruptError{Reason: fmt.Sprintf("id %s does not match content (%s)", state.ID, code.ID())}
	}
	return code, nil
}
