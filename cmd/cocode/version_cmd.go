package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/cocode-io/cocode"
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version   string `json:"version"`
	Library   string `json:"library"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

func (a *app) versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version:   version,
				Library:   cocode.Version,
				Commit:    commit,
				Date:      date,
				GoVersion: runtime.Version(),
			}
			output, _ := cmd.Flags().GetString("output")
			switch strings.ToLower(output) {
			case "json":
				return a.writeJSON(cmd.OutOrStdout(), info)
			case "", "text":
				fmt.Fprintf(cmd.OutOrStdout(), "cocode %s (library %s, commit %s, built %s)\n",
					info.Version, info.Library, info.Commit, info.Date)
				return nil
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}
		},
	}
	cmd.Flags().StringP("output", "o", "", "output format: json or text")
	return cmd
}
