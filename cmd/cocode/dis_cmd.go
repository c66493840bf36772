package main

import (
	"fmt"
	"io"

	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/dis"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) disCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble an artifact",
		Long: `Disassemble an artifact.

The file may be a JSON (.json) or CBOR (.cbor) artifact, or a listing, which is
assembled first. With --id the artifact is loaded from the configured store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			var code *bytecode.Code
			var err error
			switch {
			case id != "" && len(args) > 0:
				return fmt.Errorf("specify either a file or --id, not both")
			case id != "":
				code, err = a.pull(cmd, id)
			case len(args) == 1:
				code, err = a.loadArtifact(cmd, args[0])
			default:
				return fmt.Errorf("no input provided")
			}
			if err != nil {
				return err
			}
			summary, _ := cmd.Flags().GetBool("summary")
			return a.disassemble(cmd.OutOrStdout(), code, summary)
		},
	}
	addAssembleFlags(cmd)
	cmd.Flags().String("id", "", "disassemble the stored artifact with this ID")
	cmd.Flags().BoolP("summary", "s", false, "print artifact metadata before the instructions")
	return cmd
}

func (a *app) disassemble(w io.Writer, code *bytecode.Code, summary bool) error {
	instructions, err := dis.Disassemble(code)
	if err != nil {
		return err
	}
	color.NoColor = !a.useColor(w)
	if summary {
		dis.PrintSummary(code, w)
		fmt.Fprintln(w)
	}
	dis.Print(instructions, w)
	return nil
}

// loadArtifact reads a serialized artifact, or assembles a listing, from
// path.
func (a *app) loadArtifact(cmd *cobra.Command, path string) (*bytecode.Code, error) {
	switch formatOf(path) {
	case formatJSON:
		data, err := a.readSource(path)
		if err != nil {
			return nil, err
		}
		return bytecode.Unmarshal(data)
	case formatCBOR:
		data, err := a.readSource(path)
		if err != nil {
			return nil, err
		}
		return bytecode.UnmarshalCBOR(data)
	default:
		return a.assemble(cmd, path)
	}
}
