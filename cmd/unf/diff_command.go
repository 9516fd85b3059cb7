package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"xdao.co/unf/dataset"
)

// errDiffers makes `unf diff` exit non-zero when reports differ, like diff(1).
var errDiffers = errors.New("reports differ")

func newDiffCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <report|cid> <report|cid>",
		Short: "List column-level differences between two reports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := ctx.loadReport(cmd, args[0])
			if err != nil {
				return err
			}
			b, _, err := ctx.loadReport(cmd, args[1])
			if err != nil {
				return err
			}
			changes := dataset.Diff(a, b)
			if changes == nil {
				changes = []dataset.Change{}
			}
			if handled, err := ctx.emit(cmd, changes); handled {
				if err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				if len(changes) == 0 {
					fmt.Fprintln(out, "no differences")
				}
				for _, c := range changes {
					fmt.Fprintln(out, c)
				}
			}
			if len(changes) > 0 {
				return errDiffers
			}
			return nil
		},
	}
}
