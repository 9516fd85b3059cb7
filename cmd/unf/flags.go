package main

import (
	"strings"

	"github.com/spf13/cobra"

	"xdao.co/unf/config"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

// fingerprintFlags override the [fingerprint] section.
type fingerprintFlags struct {
	precision int
	maxChars  int
	hashBits  int
	truncate  bool
}

func (f *fingerprintFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.precision, "precision", "N", 0, "Significant digits for numbers (default from config, 7)")
	cmd.Flags().IntVarP(&f.maxChars, "max-chars", "X", 0, "Characters kept per string (default from config, 128)")
	cmd.Flags().IntVarP(&f.hashBits, "hash-bits", "H", 0, "Digest bits: 128, 192, 196 or 256 (default from config)")
	cmd.Flags().BoolVar(&f.truncate, "truncate", false, "Round toward zero instead of half-even")
}

func (f *fingerprintFlags) resolve(cmd *cobra.Command, cfg *config.Config) (unf.Config, error) {
	base, err := cfg.UNF()
	if err != nil {
		return unf.Config{}, err
	}
	opts := []unf.Option{
		unf.WithPrecision(base.Precision),
		unf.WithMaxChars(base.MaxChars),
		unf.WithHashBits(base.HashBits),
		unf.WithTruncate(base.Truncate),
	}
	if cmd.Flags().Changed("precision") {
		opts = append(opts, unf.WithPrecision(f.precision))
	}
	if cmd.Flags().Changed("max-chars") {
		opts = append(opts, unf.WithMaxChars(f.maxChars))
	}
	if cmd.Flags().Changed("hash-bits") {
		opts = append(opts, unf.WithHashBits(f.hashBits))
	}
	if cmd.Flags().Changed("truncate") {
		opts = append(opts, unf.WithTruncate(f.truncate))
	}
	out, err := unf.NewConfig(opts...)
	if err != nil {
		return unf.Config{}, usageError{err}
	}
	return out, nil
}

// readerFlags override the [reader] section.
type readerFlags struct {
	delimiter string
	encoding  string
	missing   []string
	noHeader  bool
	noInfer   bool
	keepNaN   bool
}

func (f *readerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.delimiter, "delimiter", "d", "", `Field delimiter (\t for tab)`)
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "Input encoding: utf-8, latin1, windows-1252, utf-16le, utf-16be")
	cmd.Flags().StringSliceVar(&f.missing, "missing", nil, "Cell spellings read as missing (replaces the configured list)")
	cmd.Flags().BoolVar(&f.noHeader, "no-header", false, "First row is data; columns are named V1, V2, ...")
	cmd.Flags().BoolVar(&f.noInfer, "no-infer", false, "Treat every column as text")
	cmd.Flags().BoolVar(&f.keepNaN, "keep-nan", false, "Fingerprint NaN cells as +nan instead of missing")
}

func (f *readerFlags) resolve(cmd *cobra.Command, cfg *config.Config) (table.ReadOptions, error) {
	opts := cfg.ReadOptions()
	if cmd.Flags().Changed("delimiter") {
		r, err := table.ParseDelimiter(f.delimiter)
		if err != nil {
			return opts, usageError{err}
		}
		opts.Delimiter = r
	}
	if cmd.Flags().Changed("encoding") {
		if _, err := table.LookupEncoding(f.encoding); err != nil {
			return opts, usageError{err}
		}
		opts.Encoding = strings.ToLower(f.encoding)
	}
	if cmd.Flags().Changed("missing") {
		opts.MissingTokens = f.missing
	}
	if f.noHeader {
		opts.NoHeader = true
	}
	if f.noInfer {
		opts.InferTypes = false
	}
	if f.keepNaN {
		opts.NaNAsMissing = false
	}
	return opts, nil
}
