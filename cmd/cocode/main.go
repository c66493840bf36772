package main

import (
	"io"
	"os"

	"github.com/cocode-io/cocode/errors"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the CLI with the given arguments and returns the exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			printError(stderr, err.Error())
			return 1
		}
		return exitErr.code
	}
	return 0
}
