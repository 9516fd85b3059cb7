package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xdao.co/unf/unf"
)

func newCombineCommand(ctx *commandContext) *cobra.Command {
	var fp fingerprintFlags

	cmd := &cobra.Command{
		Use:   "combine <unf>... | -",
		Short: "Combine fingerprints into one order-independent UNF",
		Long: `Combines UNF strings given as arguments, or one per line on stdin when the
only argument is "-". Each input must be a well-formed UNF:6 fingerprint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ucfg, err := fp.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			inputs := args
			if len(args) == 1 && args[0] == "-" {
				inputs = nil
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if line := strings.TrimSpace(sc.Text()); line != "" {
						inputs = append(inputs, line)
					}
				}
				if err := sc.Err(); err != nil {
					return err
				}
			}
			combined, err := unf.Combine(inputs, ucfg)
			if err != nil {
				return err
			}
			result := struct {
				Inputs []string `json:"inputs" yaml:"inputs"`
				UNF    string   `json:"unf" yaml:"unf"`
			}{Inputs: inputs, UNF: combined.String()}
			if handled, err := ctx.emit(cmd, result); handled {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.UNF)
			return nil
		},
	}
	fp.register(cmd)
	return cmd
}
