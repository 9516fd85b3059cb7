package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"xdao.co/unf/cidutil"
	"xdao.co/unf/dataset"
)

// loadReport reads a report from a file path, "-" for stdin, or a report CID
// fetched from the configured store. It returns the canonical bytes as well.
func (c *commandContext) loadReport(cmd *cobra.Command, ref string) (*dataset.Report, []byte, error) {
	if ref != "-" {
		if _, err := os.Stat(ref); errors.Is(err, fs.ErrNotExist) {
			if id, cerr := cidutil.Parse(ref); cerr == nil {
				cas, closeFn, err := c.openStore("")
				if err != nil {
					return nil, nil, err
				}
				if closeFn != nil {
					defer closeFn()
				}
				r, err := dataset.Fetch(cmd.Context(), cas, id)
				if err != nil {
					return nil, nil, err
				}
				b, err := r.Canonical()
				return r, b, err
			}
		}
	}
	b, err := readInput(cmd, ref)
	if err != nil {
		return nil, nil, err
	}
	r, err := dataset.ParseReport(b)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ref, err)
	}
	return r, b, nil
}
