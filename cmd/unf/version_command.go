package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"xdao.co/unf/unf"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := struct {
				Version    string `json:"version" yaml:"version"`
				UNFVersion int    `json:"unf_version" yaml:"unf_version"`
				Go         string `json:"go" yaml:"go"`
				Module     string `json:"module,omitempty" yaml:"module,omitempty"`
			}{Version: version, UNFVersion: unf.Version, Go: runtime.Version()}
			if bi, ok := debug.ReadBuildInfo(); ok {
				info.Module = bi.Main.Path
			}
			if handled, err := ctx.emit(cmd, info); handled {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unf %s (UNF v%d, %s)\n", info.Version, info.UNFVersion, info.Go)
			return nil
		},
	}
}
