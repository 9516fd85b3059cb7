package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/dataset"
	"xdao.co/unf/internal/logging"
	"xdao.co/unf/storage"
	"xdao.co/unf/storage/bundle"
	"xdao.co/unf/storage/casregistry"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Publish and fetch canonical reports",
	}
	storeCmd.AddCommand(newStorePutCommand(ctx))
	storeCmd.AddCommand(newStoreGetCommand(ctx))
	storeCmd.AddCommand(newStoreHasCommand(ctx))
	storeCmd.AddCommand(newStoreExportCommand(ctx))
	storeCmd.AddCommand(newStoreImportCommand(ctx))
	storeCmd.AddCommand(newStoreBackendsCommand(ctx))
	return storeCmd
}

func newStorePutCommand(ctx *commandContext) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "put <report>",
		Short: "Publish a canonical report and print its CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, _, err := ctx.loadReport(cmd, args[0])
			if err != nil {
				return err
			}
			cas, closeFn, err := ctx.openStore(backend)
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}

			if rc, ok := cas.(storage.ReplicatingCAS); ok {
				canon, err := report.Canonical()
				if err != nil {
					return err
				}
				if err := dataset.ValidateCanonical(canon); err != nil {
					return err
				}
				id, per, err := rc.PutAll(cmd.Context(), canon)
				if err != nil {
					return err
				}
				for name, got := range per {
					ctx.log("store").Debug("replicated",
						logging.String("backend", name),
						logging.String(logging.FieldReportCID, got.String()),
					)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			}

			id, err := dataset.Publish(cmd.Context(), cas, report)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "Store backend to write to first")
	return cmd
}

func newStoreGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <cid>",
		Short: "Fetch a report by CID and write its canonical bytes to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cidutil.Parse(args[0])
			if err != nil {
				return usageError{err}
			}
			cas, closeFn, err := ctx.openStore("")
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}
			report, err := dataset.Fetch(cmd.Context(), cas, id)
			if err != nil {
				return err
			}
			if handled, err := ctx.emit(cmd, report); handled {
				return err
			}
			b, err := report.Canonical()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

func newStoreHasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "has <cid>",
		Short: "Report whether the store holds a CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cidutil.Parse(args[0])
			if err != nil {
				return usageError{err}
			}
			cas, closeFn, err := ctx.openStore("")
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}
			ok, err := cas.Has(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: %w", id, storage.ErrNotFound)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "present")
			return nil
		},
	}
}

func newStoreBackendsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "backends",
		Short:       "List available store backends and their options",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			backends := casregistry.List(casregistry.UsageCLI)
			type row struct {
				Name        string   `json:"name" yaml:"name"`
				Description string   `json:"description" yaml:"description"`
				Options     []string `json:"options" yaml:"options"`
			}
			rows := make([]row, 0, len(backends))
			table := make([][]string, 0, len(backends))
			for _, b := range backends {
				rows = append(rows, row{Name: b.Name, Description: b.Description, Options: b.Keys})
				table = append(table, []string{b.Name, strings.Join(b.Keys, ", "), b.Description})
			}
			if handled, err := ctx.emit(cmd, rows); handled {
				return err
			}
			renderTable(cmd.OutOrStdout(), []string{"BACKEND", "OPTIONS", "DESCRIPTION"}, table, nil)
			return nil
		},
	}
}

func newStoreExportCommand(ctx *commandContext) *cobra.Command {
	var (
		outPath string
		noIndex bool
	)
	cmd := &cobra.Command{
		Use:   "export <cid>...",
		Short: "Write reports to a TAR bundle",
		Long: `Writes the named reports to a deterministic TAR bundle that "store import"
reads back into any store. The bundle index labels each report with its
source file name when that name is unique.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return usagef("--out is required")
			}
			cas, closeFn, err := ctx.openStore("")
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}

			ids := make([]cid.Cid, 0, len(args))
			labels := map[string]cid.Cid{}
			dup := map[string]bool{}
			for _, arg := range args {
				id, err := cidutil.Parse(strings.TrimSpace(arg))
				if err != nil {
					return usagef("%q: %v", arg, err)
				}
				r, err := dataset.Fetch(cmd.Context(), cas, id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				ids = append(ids, id)
				if r.Source == nil || r.Source.Name == "" {
					continue
				}
				if prev, ok := labels[r.Source.Name]; ok && !prev.Equals(id) {
					dup[r.Source.Name] = true
				}
				labels[r.Source.Name] = id
			}
			for name := range dup {
				delete(labels, name)
			}

			var buf bytes.Buffer
			err = bundle.Export(cmd.Context(), &buf, cas, ids, bundle.ExportOptions{
				IncludeIndex: !noIndex,
				Labels:       labels,
				Validate:     dataset.ValidateCanonical,
			})
			if err != nil {
				return err
			}
			if outPath == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return err
			}
			ctx.log("store").Info("bundle written",
				logging.String("path", outPath),
				logging.Int("reports", len(ids)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Bundle file to write (- for stdout)")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Omit index.json")
	return cmd
}

func newStoreImportCommand(ctx *commandContext) *cobra.Command {
	var (
		backend       string
		ignoreUnknown bool
	)
	cmd := &cobra.Command{
		Use:   "import <bundle>",
		Short: "Store every report of a TAR bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			cas, closeFn, err := ctx.openStore(backend)
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}
			ids, err := bundle.Import(cmd.Context(), bytes.NewReader(b), cas, bundle.ImportOptions{
				IgnoreUnknown: ignoreUnknown,
				Validate:      dataset.ValidateCanonical,
			})
			if err != nil {
				return err
			}
			out := make([]string, 0, len(ids))
			for _, id := range ids {
				out = append(out, id.String())
			}
			if handled, err := ctx.emit(cmd, out); handled {
				return err
			}
			for _, id := range out {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "Store backend to write to first")
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip entries that are not reports")
	return cmd
}
