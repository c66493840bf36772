package cocode

import (
	"encoding/json"
	"strings"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/op"
)

// Version is the current cocode version.
const Version = "0.4.0"

// DocsOption configures documentation retrieval.
type DocsOption func(*docsOptions)

type docsOptions struct {
	category string
	topic    string
}

// DocsCategory filters documentation to a specific category.
// Valid categories: "opcodes", "operands", "flags", "errors"
func DocsCategory(cat string) DocsOption {
	return func(o *docsOptions) {
		o.category = cat
	}
}

// DocsTopic retrieves documentation for a specific topic: an opcode mnemonic,
// a flag name or an error code. Examples: "LOAD_CONST", "NOFREE", "E2001"
func DocsTopic(topic string) DocsOption {
	return func(o *docsOptions) {
		o.topic = topic
	}
}

// Documentation provides structured access to the opcode catalog and error
// reference.
type Documentation struct {
	data any
}

// JSON returns the documentation as a JSON string.
func (d *Documentation) JSON() string {
	b, _ := json.MarshalIndent(d.data, "", "  ")
	return string(b)
}

// Data returns the raw documentation data.
func (d *Documentation) Data() any {
	return d.data
}

type docsInfo struct {
	Version     string `json:"version"`
	Description string `json:"description"`
	Pipeline    string `json:"pipeline"`
}

type docsSummary struct {
	Cocode  docsInfo          `json:"cocode"`
	Counts  map[string]int    `json:"counts"`
	Topics  map[string]string `json:"topics"`
	Listing string            `json:"listing_example"`
}

type docsOpcode struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Operand     string `json:"operand"`
	Width       int    `json:"width"`
	Jump        string `json:"jump,omitempty"`
	Conditional bool   `json:"conditional,omitempty"`
	Terminal    bool   `json:"terminal,omitempty"`
}

type docsFlag struct {
	Name  string `json:"name"`
	Value uint32 `json:"value"`
}

type docsErrorCode struct {
	Code        string `json:"code"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

var docsOperandKinds = map[string]string{
	op.NoOperand.String():      "Single-byte instruction without an operand",
	op.ConstOperand.String():   "Constant registered in the constants pool; the operand is its index",
	op.NameOperand.String():    "Name registered in the names pool; the operand is its index",
	op.VarnameOperand.String(): "Local variable registered in the varnames pool; the operand is its index",
	op.IntOperand.String():     "Integer encoded as given (COMPARE_OP also accepts a comparison symbol)",
	op.JumpOperand.String():    "Label name resolved to an absolute offset or a forward distance",
}

const docsListingExample = `name: inc
params: [x]
code:
  - LOAD_FAST: x
  - LOAD_CONST: 1
  - BINARY_ADD
  - RETURN_VALUE
`

// Docs returns structured documentation about the instruction set. With no
// options it returns a summary.
//
//	docs := cocode.Docs(cocode.DocsCategory("opcodes"))
//	fmt.Println(docs.JSON())
func Docs(opts ...DocsOption) *Documentation {
	o := &docsOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.topic != "" {
		return &Documentation{data: buildTopicDocs(o.topic)}
	}
	if o.category != "" {
		return &Documentation{data: buildCategoryDocs(o.category)}
	}
	return &Documentation{data: buildSummary()}
}

func buildSummary() docsSummary {
	return docsSummary{
		Cocode: docsInfo{
			Version:     Version,
			Description: "Two-pass assembler for stack-machine bytecode",
			Pipeline:    "instructions → positions → labels → render → artifact",
		},
		Counts: map[string]int{
			"opcodes": len(op.Names()),
			"flags":   len(bytecode.FlagNames()),
			"errors":  len(errors.Codes()),
		},
		Topics: map[string]string{
			"opcodes":  "Opcode catalog (codes, operands, widths, jumps)",
			"operands": "Operand kinds and how they are resolved",
			"flags":    "Artifact flags",
			"errors":   "Error codes",
		},
		Listing: docsListingExample,
	}
}

func opcodeDoc(info op.Info) docsOpcode {
	doc := docsOpcode{
		Code:        int(info.Code),
		Name:        info.Name,
		Operand:     info.Operand.String(),
		Width:       info.Width(),
		Conditional: info.Conditional,
		Terminal:    info.Terminal,
	}
	switch info.Jump {
	case op.Absolute:
		doc.Jump = "absolute"
	case op.Relative:
		doc.Jump = "relative"
	}
	return doc
}

func flagDocs() []docsFlag {
	var flags []docsFlag
	for _, name := range bytecode.FlagNames() {
		f, _ := bytecode.FlagByName(name)
		flags = append(flags, docsFlag{Name: name, Value: uint32(f)})
	}
	return flags
}

func errorDoc(code errors.ErrorCode) docsErrorCode {
	return docsErrorCode{
		Code:        code.String(),
		Category:    code.Category(),
		Description: code.Description(),
	}
}

func buildCategoryDocs(category string) any {
	switch category {
	case "opcodes":
		var opcodes []docsOpcode
		for _, name := range op.Names() {
			code, _ := op.Lookup(name)
			opcodes = append(opcodes, opcodeDoc(op.GetInfo(code)))
		}
		return map[string]any{
			"category":    "opcodes",
			"description": "Opcodes at or above HAVE_ARGUMENT take a 16-bit little-endian operand",
			"count":       len(opcodes),
			"opcodes":     opcodes,
		}
	case "operands":
		return map[string]any{
			"category":    "operands",
			"description": "Operand kinds",
			"kinds":       docsOperandKinds,
		}
	case "flags":
		flags := flagDocs()
		return map[string]any{
			"category":    "flags",
			"description": "Flags are recorded in the artifact verbatim",
			"default":     bytecode.DefaultFlags.String(),
			"count":       len(flags),
			"flags":       flags,
		}
	case "errors":
		var codes []docsErrorCode
		for _, code := range errors.Codes() {
			codes = append(codes, errorDoc(code))
		}
		return map[string]any{
			"category":    "errors",
			"description": "Error codes reported by the listing decoder, the assembler and stores",
			"count":       len(codes),
			"codes":       codes,
		}
	default:
		return map[string]any{
			"error": "unknown category: " + category,
		}
	}
}

func buildTopicDocs(topic string) any {
	if code, ok := op.Lookup(topic); ok {
		return map[string]any{
			"type":   "opcode",
			"opcode": opcodeDoc(op.GetInfo(code)),
		}
	}
	if f, ok := bytecode.FlagByName(topic); ok {
		return map[string]any{
			"type": "flag",
			"flag": docsFlag{Name: f.String(), Value: uint32(f)},
		}
	}
	code := errors.ErrorCode(strings.ToUpper(topic))
	if code.Description() != "unknown error" {
		return map[string]any{
			"type":  "error",
			"error": errorDoc(code),
		}
	}
	result := map[string]any{
		"error": "unknown topic: " + topic,
	}
	if s := errors.SuggestSimilar(strings.ToUpper(topic), op.Names()); len(s) > 0 {
		result["hint"] = s.String()
	}
	return result
}
