package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"xdao.co/unf/internal/logging"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

// Options controls Compute.
type Options struct {
	// Workers bounds concurrent column fingerprinting. Zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
	// Source describes the file the table was read from, if any.
	Source *Source
}

// Compute fingerprints every column of tbl under cfg and combines the column
// UNFs into the dataset UNF. Columns without rows still contribute the UNF
// of their empty vector; only a table with no columns has the UNF of an
// empty combination.
func Compute(ctx context.Context, tbl *table.Table, cfg unf.Config, opts Options) (*Report, error) {
	if tbl == nil {
		return nil, errors.New("dataset: nil table")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	columns := make([]Column, len(tbl.Columns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, col := range tbl.Columns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := unf.Compute(col.Values, cfg)
			if err != nil {
				return fmt.Errorf("column %q: %w", col.Name, err)
			}
			columns[i] = Column{
				Name:    col.Name,
				Type:    col.Type.String(),
				Missing: col.Missing(),
				UNF:     fp.String(),
			}
			logger.Debug("column fingerprinted",
				logging.String(logging.FieldColumn, col.Name),
				logging.String(logging.FieldUNF, columns[i].UNF),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		Format:     ReportFormat,
		UNFVersion: unf.Version,
		Params:     ParamsOf(cfg),
		Rows:       tbl.Rows,
		Columns:    columns,
	}
	if opts.Source != nil {
		src := *opts.Source
		r.Source = &src
	}
	fp, err := r.combine(cfg)
	if err != nil {
		return nil, err
	}
	r.UNF = fp.String()

	logger.Info("dataset fingerprinted",
		logging.String(logging.FieldUNF, r.UNF),
		logging.Int("columns", len(columns)),
		logging.Int("rows", tbl.Rows),
		logging.Duration("elapsed", time.Since(start)),
	)
	return r, nil
}

// combine derives the dataset UNF from the report's column UNFs.
func (r *Report) combine(cfg unf.Config) (unf.Fingerprint, error) {
	fps := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		fps[i] = c.UNF
	}
	return unf.Combine(fps, cfg)
}

// Fingerprint is Compute without the report: the dataset UNF alone.
func Fingerprint(ctx context.Context, tbl *table.Table, cfg unf.Config, opts Options) (unf.Fingerprint, error) {
	r, err := Compute(ctx, tbl, cfg, opts)
	if err != nil {
		return unf.Fingerprint{}, err
	}
	return unf.ParseFingerprint(r.UNF)
}
