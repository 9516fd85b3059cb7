package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"xdao.co/unf/attest"
	"xdao.co/unf/dataset"
	"xdao.co/unf/table"
)

type verifyResult struct {
	Report      string           `json:"report" yaml:"report"`
	UNF         string           `json:"unf" yaml:"unf"`
	Consistent  bool             `json:"consistent" yaml:"consistent"`
	Data        string           `json:"data,omitempty" yaml:"data,omitempty"`
	Changes     []dataset.Change `json:"changes,omitempty" yaml:"changes,omitempty"`
	Attestation string           `json:"attestation,omitempty" yaml:"attestation,omitempty"`
	Issuer      string           `json:"issuer,omitempty" yaml:"issuer,omitempty"`
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var (
		rd      readerFlags
		data    string
		attPath string
	)

	cmd := &cobra.Command{
		Use:   "verify <report|cid>",
		Short: "Check a report, optionally against its data and an attestation",
		Long: `Parses a canonical report and recomputes its dataset UNF from the column
UNFs. With --data the file is fingerprinted again under the report's own
parameters and every difference is listed. With --attestation the signature
and subject of an attestation over the report are checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, raw, err := ctx.loadReport(cmd, args[0])
			if err != nil {
				return err
			}
			res := verifyResult{Report: args[0], UNF: report.UNF}
			if err := dataset.Verify(report); err != nil {
				return err
			}
			res.Consistent = true

			if data != "" {
				ropts, err := rd.resolve(cmd, cfg)
				if err != nil {
					return err
				}
				tbl, err := table.ReadFile(data, ropts)
				if err != nil {
					return err
				}
				if report.Source != nil {
					f, err := os.Open(data)
					if err != nil {
						return err
					}
					src, err := dataset.SourceOf(filepath.Base(data), f)
					f.Close()
					if err != nil {
						return err
					}
					if src.CID != report.Source.CID {
						res.Changes = append(res.Changes, dataset.Change{
							Kind: dataset.ChangeChanged, Field: "source_cid", Old: report.Source.CID, New: src.CID,
						})
					}
				}
				changes, err := dataset.Recheck(cmd.Context(), report, tbl, dataset.Options{
					Workers: cfg.Compute.Workers,
					Logger:  ctx.log("verify"),
				})
				if err != nil {
					return err
				}
				res.Data = data
				res.Changes = append(res.Changes, changes...)
			}

			if attPath != "" {
				attBytes, err := os.ReadFile(attPath)
				if err != nil {
					return err
				}
				a, err := attest.Verify(attBytes, raw)
				if err != nil {
					return fmt.Errorf("attestation %s: %w", attPath, err)
				}
				res.Attestation = attPath
				res.Issuer = a.IssuerKey
				if a.Issuer != "" {
					res.Issuer = a.Issuer + " (" + a.IssuerKey + ")"
				}
			}

			if handled, err := ctx.emit(cmd, res); !handled {
				printVerifyResult(cmd, res)
			} else if err != nil {
				return err
			}
			if len(res.Changes) > 0 {
				return fmt.Errorf("%s no longer matches %s: %d difference(s)", res.Data, res.Report, len(res.Changes))
			}
			return nil
		},
	}
	rd.register(cmd)
	cmd.Flags().StringVar(&data, "data", "", "Data file to fingerprint again and compare")
	cmd.Flags().StringVar(&attPath, "attestation", "", "Attestation file to verify against the report")
	return cmd
}

func printVerifyResult(cmd *cobra.Command, res verifyResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "report %s: consistent, %s\n", res.Report, res.UNF)
	if res.Data != "" {
		if len(res.Changes) == 0 {
			fmt.Fprintf(out, "data %s: matches\n", res.Data)
		}
		for _, c := range res.Changes {
			fmt.Fprintf(out, "  %s\n", c)
		}
	}
	if res.Attestation != "" {
		fmt.Fprintf(out, "attestation %s: valid, signed by %s\n", res.Attestation, res.Issuer)
	}
}
