package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"xdao.co/unf/attest"
)

func newAttestCommand(ctx *commandContext) *cobra.Command {
	attestCmd := &cobra.Command{
		Use:   "attest",
		Short: "Sign reports and verify attestations",
	}
	attestCmd.AddCommand(newAttestKeygenCommand())
	attestCmd.AddCommand(newAttestSignCommand(ctx))
	attestCmd.AddCommand(newAttestVerifyCommand(ctx))
	return attestCmd
}

func newAttestKeygenCommand() *cobra.Command {
	var (
		alg   string
		out   string
		force bool
	)
	cmd := &cobra.Command{
		Use:         "keygen",
		Short:       "Generate a signing key and print its issuer key",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return usagef("--out is required")
			}
			key, err := attest.GenerateKey(alg, rand.Reader)
			if err != nil {
				return usageError{err}
			}
			if err := attest.SavePrivateKey(out, key, force); err != nil {
				return fmt.Errorf("write key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.IssuerKey())
			return nil
		},
	}
	cmd.Flags().StringVar(&alg, "alg", attest.AlgEd25519, "Signature algorithm: ed25519 or dilithium3")
	cmd.Flags().StringVar(&out, "out", "", "Private key file to create (mode 0600)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing key file")
	return cmd
}

func newAttestSignCommand(ctx *commandContext) *cobra.Command {
	var (
		keyPath string
		hashAlg string
		issuer  string
		out     string
		noTime  bool
	)
	cmd := &cobra.Command{
		Use:   "sign <report|cid>",
		Short: "Write a canonical attestation over a report",
		Long: `Signs the canonical bytes of a report. The attestation is written to
stdout, or --out, without a trailing newline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyPath == "" {
				return usagef("--key is required")
			}
			key, err := attest.LoadPrivateKey(keyPath)
			if err != nil {
				return err
			}
			_, raw, err := ctx.loadReport(cmd, args[0])
			if err != nil {
				return err
			}
			opts := attest.SignOptions{HashAlg: hashAlg, Issuer: issuer}
			if !noTime {
				opts.IssuedAt = time.Now()
			}
			att, err := attest.Sign(raw, key, opts)
			if err != nil {
				return err
			}
			if out != "" {
				return os.WriteFile(out, att, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(att)
			return err
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "Private key file from `unf attest keygen`")
	cmd.Flags().StringVar(&hashAlg, "hash", attest.HashSHA256, "Digest signed: sha256, sha512 or sha3-256")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer name recorded in CLAIMS")
	cmd.Flags().StringVar(&out, "out", "", "Write the attestation to this file")
	cmd.Flags().BoolVar(&noTime, "no-time", false, "Omit Issued-At")
	return cmd
}

func newAttestVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <attestation> <report|cid>",
		Short: "Verify an attestation against the report it names",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attBytes, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			_, raw, err := ctx.loadReport(cmd, args[1])
			if err != nil {
				return err
			}
			a, err := attest.Verify(attBytes, raw)
			if err != nil {
				return err
			}
			result := struct {
				ReportCID string `json:"report_cid" yaml:"report_cid"`
				UNF       string `json:"unf" yaml:"unf"`
				Issuer    string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
				IssuerKey string `json:"issuer_key" yaml:"issuer_key"`
				IssuedAt  string `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
				Signature string `json:"signature_alg" yaml:"signature_alg"`
				Hash      string `json:"hash_alg" yaml:"hash_alg"`
			}{
				ReportCID: a.ReportCID, UNF: a.UNF, Issuer: a.Issuer, IssuerKey: a.IssuerKey,
				Signature: a.SigAlg, Hash: a.HashAlg,
			}
			if !a.IssuedAt.IsZero() {
				result.IssuedAt = a.IssuedAt.Format(time.RFC3339)
			}
			if handled, err := ctx.emit(cmd, result); handled {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid %s/%s attestation of %s (%s)\n", a.SigAlg, a.HashAlg, a.ReportCID, a.UNF)
			return nil
		},
	}
}
