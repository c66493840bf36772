package main

import (
	"github.com/cocode-io/cocode"
	"github.com/spf13/cobra"
)

func (a *app) docCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc [topic]",
		Aliases: []string{"d"},
		Short:   "Browse the instruction set reference",
		Long: `Browse the instruction set reference.

A topic is an opcode mnemonic, a flag name or an error code. Without a topic a
summary is printed, or the category selected with --category: opcodes,
operands, flags or errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []cocode.DocsOption
			if len(args) == 1 {
				opts = append(opts, cocode.DocsTopic(args[0]))
			}
			if category, _ := cmd.Flags().GetString("category"); category != "" {
				opts = append(opts, cocode.DocsCategory(category))
			}
			return a.writeJSON(cmd.OutOrStdout(), cocode.Docs(opts...).Data())
		},
	}
	cmd.Flags().StringP("category", "c", "", "documentation category")
	return cmd
}
