package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the report cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			type row struct {
				Source    string `json:"source" yaml:"source"`
				SourceCID string `json:"source_cid" yaml:"source_cid"`
				Profile   string `json:"profile" yaml:"profile"`
				ReportCID string `json:"report_cid" yaml:"report_cid"`
				UNF       string `json:"unf" yaml:"unf"`
				Rows      int    `json:"rows" yaml:"rows"`
				Columns   int    `json:"columns" yaml:"columns"`
				CreatedAt string `json:"created_at" yaml:"created_at"`
			}
			rows := make([]row, 0, len(entries))
			lines := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, row{
					Source: e.SourceName, SourceCID: e.SourceCID, Profile: e.Profile, ReportCID: e.ReportCID,
					UNF: e.UNF, Rows: e.Rows, Columns: e.Columns, CreatedAt: e.CreatedAt.Format(time.RFC3339),
				})
				lines = append(lines, []string{
					e.SourceName, e.UNF, humanize.Comma(int64(e.Rows)), strconv.Itoa(e.Columns), humanize.Time(e.CreatedAt),
				})
			}
			if handled, err := ctx.emit(cmd, rows); handled {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "cache %s is empty\n", store.Path())
				return nil
			}
			renderTable(cmd.OutOrStdout(), []string{"SOURCE", "UNF", "ROWS", "COLUMNS", "CACHED"}, lines,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "remove <source-cid>",
		Short: "Remove the cached reports of one source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Remove(cmd.Context(), args[0], profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entr%s\n", n, plural(n, "y", "ies"))
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Only remove the entry for this profile")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached report",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entr%s\n", n, plural(n, "y", "ies"))
			return nil
		},
	}
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
