package main

import (
	"fmt"

	"github.com/cocode-io/cocode"
	"github.com/spf13/cobra"
)

func (a *app) checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <listing>...",
		Short: "Report every problem in one or more listings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if !a.check(cmd, path) {
					failed++
				}
			}
			if failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	addAssembleFlags(cmd)
	return cmd
}

func (a *app) check(cmd *cobra.Command, path string) bool {
	p, err := a.loadProgram(cmd, path)
	if err != nil {
		if _, ok := err.(*exitError); !ok {
			printError(cmd.ErrOrStderr(), err.Error())
		}
		return false
	}
	if err := cocode.CheckProgram(p, a.assembleOptions(cmd)...); err != nil {
		a.report(cmd.ErrOrStderr(), p, err)
		return false
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok %s (%d instructions)\n", path, len(p.Instructions))
	return true
}
