package main

import (
	"fmt"

	"github.com/cocode-io/cocode"
	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/errors"
	"github.com/cocode-io/cocode/listing"
	"github.com/spf13/cobra"
)

func (a *app) pushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push <file>...",
		Short: "Assemble listings and save the artifacts to the store",
		Long: `Assemble listings and save the artifacts to the configured store.

Listings are assembled in parallel. Serialized artifacts (.json, .cbor) are
saved as they are. The ID of each saved artifact is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := a.assembleFiles(cmd, args)
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			for i, code := range codes {
				id, err := s.Put(cmd.Context(), code)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", id, args[i])
			}
			return nil
		},
	}
	addAssembleFlags(cmd)
	cmd.Flags().Int("jobs", 0, "number of listings to assemble at once (default GOMAXPROCS)")
	return cmd
}

// assembleFiles loads the artifacts and listings at paths, assembling the
// listings in parallel. Results are in path order.
func (a *app) assembleFiles(cmd *cobra.Command, paths []string) ([]*bytecode.Code, error) {
	codes := make([]*bytecode.Code, len(paths))
	var jobs []cocode.Job
	var programs []*listing.Program
	var slots []int
	for i, path := range paths {
		if formatOf(path) != formatListing {
			code, err := a.loadArtifact(cmd, path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			codes[i] = code
			continue
		}
		p, err := a.loadProgram(cmd, path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, cocode.Job{Name: path, Instructions: p.Instructions, Config: &p.Config})
		programs = append(programs, p)
		slots = append(slots, i)
	}
	if len(jobs) == 0 {
		return codes, nil
	}
	n, _ := cmd.Flags().GetInt("jobs")
	opts := append(a.assembleOptions(cmd), cocode.WithConcurrency(n))
	assembled, err := cocode.AssembleAll(cmd.Context(), jobs, opts...)
	if err != nil {
		var jobErr *cocode.JobError
		if errors.As(err, &jobErr) {
			return nil, a.report(cmd.ErrOrStderr(), programs[jobErr.Index], jobErr.Err)
		}
		return nil, err
	}
	for j, code := range assembled {
		codes[slots[j]] = code
	}
	return codes, nil
}

func (a *app) pullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <id>",
		Short: "Load an artifact from the store",
		Long: `Load an artifact from the configured store.

The artifact is written to the --out file, as CBOR when the file name ends in
.cbor and as JSON otherwise. Without --out the JSON artifact is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := a.pull(cmd, args[0])
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return a.writeJSON(cmd.OutOrStdout(), code)
			}
			return writeArtifact(out, code, formatOf(out))
		},
	}
	cmd.Flags().StringP("out", "o", "", "write the artifact to a file")
	return cmd
}

func (a *app) pull(cmd *cobra.Command, id string) (*bytecode.Code, error) {
	s, err := a.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Get(cmd.Context(), id)
}
