package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
)

const incListing = `name: inc
params: [x]
code:
  - LOAD_FAST: x
  - LOAD_CONST: 1
  - BINARY_ADD
  - RETURN_VALUE
`

const badListing = `name: bad
code:
  - LOAD_CONTS: 1
  - RETURN_VALUE
`

const loopListing = `code:
  - LOAD_CONST: true
  - POP_JUMP_IF_TRUE: lop
  - label: loop
  - RETURN_VALUE
`

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// isolate points HOME at an empty directory so no user configuration is read.
func isolate(t *testing.T) string {
	t.Helper()
	homedir.DisableCache = true
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	t.Setenv("COCODE_STORE", "")
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAssembleCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "inc.yaml", incListing)

	res := run(t, "", "assemble", path)
	require.Equal(t, 0, res.code, res.stderr)
	code, err := bytecode.Unmarshal([]byte(res.stdout))
	require.NoError(t, err)
	require.Equal(t, "inc", code.Name())
	require.Equal(t, path, code.Filename())

	out := filepath.Join(dir, "inc.cbor")
	res = run(t, "", "asm", path, "-o", out, "--name", "plus")
	require.Equal(t, 0, res.code, res.stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	stored, err := bytecode.UnmarshalCBOR(data)
	require.NoError(t, err)
	require.Equal(t, "plus", stored.Name())

	out = filepath.Join(dir, "inc.bin")
	res = run(t, "", "assemble", path, "-o", out, "--format", "json")
	require.Equal(t, 0, res.code, res.stderr)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	_, err = bytecode.Unmarshal(data)
	require.NoError(t, err)
}

func TestAssembleStdin(t *testing.T) {
	isolate(t)
	res := run(t, incListing, "assemble", "-", "--stacksize", "8")
	require.Equal(t, 0, res.code, res.stderr)
	code, err := bytecode.Unmarshal([]byte(res.stdout))
	require.NoError(t, err)
	require.Equal(t, "<stdin>", code.Filename())
	require.Equal(t, 8, code.StackSize())
}

func TestAssembleDiagnostics(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	res := run(t, "", "assemble", writeFile(t, dir, "bad.yaml", badListing))
	require.Equal(t, 1, res.code)
	require.Empty(t, res.stdout)
	require.Contains(t, res.stderr, "listing error[E1001]")
	require.Contains(t, res.stderr, "bad.yaml:3:5")
	require.Contains(t, res.stderr, "did you mean 'LOAD_CONST'?")

	res = run(t, "", "assemble", writeFile(t, dir, "loop.yaml", loopListing))
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "assembly error[E2001]")
	require.Contains(t, res.stderr, "loop.yaml:3:5 instruction 1 (offset 3)")
	require.Contains(t, res.stderr, "POP_JUMP_IF_TRUE: lop")

	res = run(t, "", "assemble", filepath.Join(dir, "missing.yaml"))
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "no such file")
}

func TestCheckCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "inc.yaml", incListing)
	bad := writeFile(t, dir, "loop.yaml", loopListing)

	res := run(t, "", "check", good)
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, "ok "+good+" (4 instructions)\n", res.stdout)

	res = run(t, "", "check", good, bad)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stdout, "ok "+good)
	require.Contains(t, res.stderr, "E2001")

	pop := writeFile(t, dir, "pop.yaml", "code:\n  - POP_TOP\n")
	require.Equal(t, 0, run(t, "", "check", pop).code)
	res = run(t, "", "check", "--strict", pop)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "stack underflow")
}

func TestDisCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "inc.yaml", incListing)

	res := run(t, "", "dis", path)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "| LOAD_FAST ")
	require.Contains(t, res.stdout, "| BINARY_ADD ")
	require.NotContains(t, res.stdout, "name:")

	out := filepath.Join(dir, "inc.json")
	require.Equal(t, 0, run(t, "", "assemble", path, "-o", out).code)
	res = run(t, "", "dis", "--summary", out)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "name:           inc\n")
	require.Contains(t, res.stdout, "| RETURN_VALUE ")

	res = run(t, "", "dis")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "no input provided")
}

func TestPushPull(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	inc := writeFile(t, dir, "inc.yaml", incListing)
	pop := writeFile(t, dir, "pop.yaml", "name: pop\ncode:\n  - POP_TOP\n")

	res := run(t, "", "--store", storeDir, "push", "--jobs", "2", inc, pop)
	require.Equal(t, 0, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	incID := strings.Fields(lines[0])[0]
	require.Equal(t, inc, strings.Fields(lines[0])[1])
	require.Equal(t, pop, strings.Fields(lines[1])[1])

	res = run(t, "", "--store", storeDir, "pull", incID)
	require.Equal(t, 0, res.code, res.stderr)
	code, err := bytecode.Unmarshal([]byte(res.stdout))
	require.NoError(t, err)
	require.Equal(t, incID, code.ID())

	out := filepath.Join(dir, "pulled.cbor")
	require.Equal(t, 0, run(t, "", "--store", storeDir, "pull", incID, "-o", out).code)
	require.FileExists(t, out)

	// Artifacts are pushed as they are.
	res = run(t, "", "--store", storeDir, "push", out)
	require.Equal(t, 0, res.code, res.stderr)
	require.True(t, strings.HasPrefix(res.stdout, incID))

	t.Setenv("COCODE_STORE", storeDir)
	res = run(t, "", "dis", "--id", incID)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "LOAD_CONST")

	res = run(t, "", "pull", "00000000-0000-5000-8000-000000000000")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "artifact not found")
}

func TestPushFailures(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	inc := writeFile(t, dir, "inc.yaml", incListing)

	res := run(t, "", "push", inc)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "no store configured")

	loop := writeFile(t, dir, "loop.yaml", loopListing)
	res = run(t, "", "--store", filepath.Join(dir, "store"), "push", inc, loop)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "loop.yaml:3:5")
	require.NoDirExists(t, filepath.Join(dir, "store"))
}

func TestConfigFile(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "from-config")
	writeFile(t, home, ".cocode.yaml", "store: "+storeDir+"\n")
	inc := writeFile(t, dir, "inc.yaml", incListing)

	res := run(t, "", "push", inc)
	require.Equal(t, 0, res.code, res.stderr)
	require.DirExists(t, storeDir)

	other := filepath.Join(dir, "explicit")
	cfg := writeFile(t, dir, "cocode.yaml", "store: "+other+"\nlog-level: debug\n")
	res = run(t, "", "--config", cfg, "push", inc)
	require.Equal(t, 0, res.code, res.stderr)
	require.DirExists(t, other)
	require.Contains(t, res.stderr, "artifact ready")

	res = run(t, "", "--config", filepath.Join(dir, "missing.yaml"), "version")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "read config")
}

func TestLogLevel(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "inc.yaml", incListing)

	res := run(t, "", "--log-level", "info", "assemble", path)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stderr, "assembled")
	require.NotContains(t, res.stderr, "artifact ready")

	t.Setenv("COCODE_LOG_LEVEL", "loud")
	res = run(t, "", "version")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, `invalid log level "loud"`)
}

func TestDocCommand(t *testing.T) {
	isolate(t)
	res := run(t, "", "doc", "load_const")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, `"name": "LOAD_CONST"`)

	res = run(t, "", "doc", "--category", "errors")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, `"E3003"`)
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	res := run(t, "", "version")
	require.Equal(t, 0, res.code, res.stderr)
	require.True(t, strings.HasPrefix(res.stdout, "cocode dev (library "))

	res = run(t, "", "version", "-o", "json")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, `"version": "dev"`)

	res = run(t, "", "version", "-o", "yaml")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "unknown output format: yaml")
}
