package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"xdao.co/unf/internal/vectors"
	"xdao.co/unf/unf"
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	var (
		fp          fingerprintFlags
		typ         string
		fingerprint bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <value>...",
		Short: "Show the canonical encoding of literal values",
		Long: `Prints the exact bytes each value contributes to a fingerprint, quoted.
Values are read as the --type given; numbers are exact decimals, dates are
YYYY-MM-DD and datetimes RFC 3339. Use --type missing to encode a missing
value. With --fingerprint the vector UNF of all values is printed too.`,
		Example: `  unf normalize -N 3 -- 3.14159 -0 1e-5
  unf normalize --type text --fingerprint a b ""`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ucfg, err := fp.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			if _, ok := unf.ParseType(typ); !ok {
				return usagef("unknown --type %q", typ)
			}
			if typ == "missing" && len(args) == 0 {
				args = []string{""}
			}

			type encoded struct {
				Input    string `json:"input" yaml:"input"`
				Encoding string `json:"encoding" yaml:"encoding"`
			}
			values := make([]unf.Value, 0, len(args))
			rows := make([]encoded, 0, len(args))
			for _, arg := range args {
				v, err := vectors.Value{Type: typ, Value: arg}.Decode()
				if err != nil {
					return usagef("%q: %v", arg, err)
				}
				b, err := unf.EncodeValue(v, ucfg)
				if err != nil {
					return err
				}
				values = append(values, v)
				rows = append(rows, encoded{Input: arg, Encoding: strconv.Quote(string(b))})
			}

			result := struct {
				Values []encoded `json:"values" yaml:"values"`
				UNF    string    `json:"unf,omitempty" yaml:"unf,omitempty"`
			}{Values: rows}
			if fingerprint {
				f, err := unf.Compute(values, ucfg)
				if err != nil {
					return err
				}
				result.UNF = f.String()
			}
			if handled, err := ctx.emit(cmd, result); handled {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rows {
				fmt.Fprintf(out, "%s\t%s\n", r.Input, r.Encoding)
			}
			if result.UNF != "" {
				fmt.Fprintln(out, result.UNF)
			}
			return nil
		},
	}
	fp.register(cmd)
	cmd.Flags().StringVarP(&typ, "type", "t", "numeric", "Value type: numeric, text, boolean, date, datetime or missing")
	cmd.Flags().BoolVarP(&fingerprint, "fingerprint", "f", false, "Also print the UNF of the value vector")
	return cmd
}
