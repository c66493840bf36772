package main

import (
	"fmt"
	"os"

	"github.com/cocode-io/cocode"
	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/listing"
	"github.com/spf13/cobra"
)

func (a *app) assembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assemble <listing>",
		Aliases: []string{"asm"},
		Short:   "Assemble a listing into an artifact",
		Long: `Assemble a YAML listing into an artifact.

The artifact is written to the --out file, as CBOR when the file name ends in
.cbor and as JSON otherwise. Without --out the JSON artifact is printed. Use
"-" to read the listing from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := a.assemble(cmd, args[0])
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return a.writeJSON(cmd.OutOrStdout(), code)
			}
			format := formatOf(out)
			if cmd.Flags().Changed("format") {
				name, _ := cmd.Flags().GetString("format")
				if format, err = parseFormat(name); err != nil {
					return err
				}
			}
			return writeArtifact(out, code, format)
		},
	}
	addAssembleFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "write the artifact to a file")
	cmd.Flags().String("format", "", "artifact encoding: json or cbor (default from the file extension)")
	return cmd
}

// loadProgram decodes the listing at path, printing syntax errors as
// diagnostics.
func (a *app) loadProgram(cmd *cobra.Command, path string) (*listing.Program, error) {
	p, err := a.parseListing(path)
	if err != nil {
		var syntaxErr *listing.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, a.report(cmd.ErrOrStderr(), nil, err)
		}
		return nil, err
	}
	return p, nil
}

// assemble decodes and assembles the listing at path.
func (a *app) assemble(cmd *cobra.Command, path string) (*bytecode.Code, error) {
	p, err := a.loadProgram(cmd, path)
	if err != nil {
		return nil, err
	}
	code, err := cocode.AssembleProgram(p, a.assembleOptions(cmd)...)
	if err != nil {
		return nil, a.report(cmd.ErrOrStderr(), p, err)
	}
	a.logger.Info().Str("listing", path).Str("id", code.ID()).Int("size", code.Len()).Msg("assembled")
	return code, nil
}

func writeArtifact(path string, code *bytecode.Code, format artifactFormat) error {
	data, err := encodeArtifact(code, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
