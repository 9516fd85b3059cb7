package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"xdao.co/unf/cache"
	"xdao.co/unf/dataset"
	"xdao.co/unf/internal/logging"
	"xdao.co/unf/table"
)

type computeResult struct {
	Path      string          `json:"path" yaml:"path"`
	Cached    bool            `json:"cached" yaml:"cached"`
	ReportCID string          `json:"report_cid" yaml:"report_cid"`
	Published string          `json:"published,omitempty" yaml:"published,omitempty"`
	Report    *dataset.Report `json:"report" yaml:"report"`
}

func newComputeCommand(ctx *commandContext) *cobra.Command {
	var (
		fp        fingerprintFlags
		rd        readerFlags
		columns   []string
		noCache   bool
		publish   bool
		backend   string
		outPath   string
		workers   int
		perColumn bool
	)

	cmd := &cobra.Command{
		Use:   "compute <file>...",
		Short: "Fingerprint delimited data files",
		Long: `Reads each file as a table, fingerprints every column and combines the
column UNFs into the dataset UNF. Results are cached by the file's content id
and the fingerprint/reader settings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ucfg, err := fp.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			ropts, err := rd.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			if outPath != "" && len(args) != 1 {
				return usagef("--write needs exactly one input file")
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Compute.Workers
			}
			logger := ctx.log("compute")

			var store *cache.Store
			if cfg.Cache.Enabled && !noCache && len(columns) == 0 {
				store, err = ctx.openCache()
				if err != nil {
					logger.Warn("cache unavailable", logging.Error(err))
				} else {
					defer store.Close()
				}
			}
			profile := cache.Profile(ucfg, ropts)

			results := make([]computeResult, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				src, err := dataset.SourceOf(filepath.Base(path), bytes.NewReader(data))
				if err != nil {
					return err
				}
				plog := logger.With(logging.String(logging.FieldPath, path), logging.String(logging.FieldSourceCID, src.CID))

				res := computeResult{Path: path}
				if store != nil {
					entry, ok, err := store.Lookup(cmd.Context(), src.CID, profile)
					if err != nil {
						plog.Warn("cache lookup failed", logging.Error(err))
					} else if ok && sameSource(entry.Report, src) {
						plog.Debug("cache hit")
						res.Cached = true
						res.Report = entry.Report
						res.ReportCID = entry.ReportCID
					}
				}

				if res.Report == nil {
					tbl, err := table.ReadCSV(bytes.NewReader(data), ropts)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					if len(columns) > 0 {
						if tbl, err = tbl.Select(columns...); err != nil {
							return fmt.Errorf("%s: %w", path, err)
						}
					}
					report, err := dataset.Compute(cmd.Context(), tbl, ucfg, dataset.Options{
						Workers: workers,
						Logger:  plog,
						Source:  src,
					})
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					res.Report = report
					if res.ReportCID, err = report.CID(); err != nil {
						return err
					}
					if store != nil {
						if _, err := store.Put(cmd.Context(), src.CID, profile, report); err != nil {
							plog.Warn("cache store failed", logging.Error(err))
						}
					}
				}

				if publish {
					cas, closeFn, err := ctx.openStore(backend)
					if err != nil {
						return err
					}
					id, err := dataset.Publish(cmd.Context(), cas, res.Report)
					if closeFn != nil {
						_ = closeFn()
					}
					if err != nil {
						return fmt.Errorf("publish %s: %w", path, err)
					}
					res.Published = id.String()
					plog.Info("report published", logging.String(logging.FieldReportCID, res.Published))
				}

				if outPath != "" {
					b, err := res.Report.Canonical()
					if err != nil {
						return err
					}
					if err := os.WriteFile(outPath, b, 0o644); err != nil {
						return err
					}
				}
				results = append(results, res)
			}

			if handled, err := ctx.emit(cmd, results); handled {
				return err
			}
			printComputeResults(cmd, results, perColumn)
			return nil
		},
	}

	fp.register(cmd)
	rd.register(cmd)
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Fingerprint only these columns, in this order")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the report cache")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish the canonical report to the configured store")
	cmd.Flags().StringVar(&backend, "backend", "", "Store backend to write to (name or id from [[store.backends]])")
	cmd.Flags().StringVarP(&outPath, "write", "w", "", "Write the canonical report to this file")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Columns fingerprinted concurrently (default from config)")
	cmd.Flags().BoolVar(&perColumn, "columns-table", false, "Print per-column fingerprints")
	return cmd
}

// sameSource reports whether a cached report was made from a file of the
// same name; the name is part of the report bytes.
func sameSource(r *dataset.Report, src *dataset.Source) bool {
	return r != nil && r.Source != nil && *r.Source == *src
}

func printComputeResults(cmd *cobra.Command, results []computeResult, perColumn bool) {
	out := cmd.OutOrStdout()
	if len(results) == 1 && !perColumn {
		fmt.Fprintln(out, results[0].Report.UNF)
		return
	}
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		r := res.Report
		size := ""
		if r.Source != nil {
			size = humanize.Bytes(uint64(r.Source.Bytes))
		}
		fmt.Fprintf(out, "%s  %s\n", r.UNF, res.Path)
		fmt.Fprintf(out, "  rows %s, columns %d, %s", humanize.Comma(int64(r.Rows)), len(r.Columns), size)
		if res.Cached {
			fmt.Fprint(out, ", cached")
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  report %s\n", res.ReportCID)
		if res.Published != "" {
			fmt.Fprintf(out, "  published %s\n", res.Published)
		}
		if !perColumn {
			continue
		}
		rows := make([][]string, 0, len(r.Columns))
		for _, c := range r.Columns {
			rows = append(rows, []string{c.Name, c.Type, strconv.Itoa(c.Missing), c.UNF})
		}
		renderTable(out, []string{"COLUMN", "TYPE", "MISSING", "UNF"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
	}
}
