package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "unf",
		Short:         "Universal Numerical Fingerprints (UNF v6) for tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validateOutput(); err != nil {
				return err
			}
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path (default ~/.config/unf/config.toml, or $UNF_CONFIG)")
	pf.StringVarP(&flags.output, "output", "o", "text", "Output format: text, json or yaml")
	pf.StringVar(&flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Override logging.format (console, json)")

	rootCmd.AddCommand(newComputeCommand(ctx))
	rootCmd.AddCommand(newCombineCommand(ctx))
	rootCmd.AddCommand(newNormalizeCommand(ctx))
	rootCmd.AddCommand(newVerifyCommand(ctx))
	rootCmd.AddCommand(newDiffCommand(ctx))
	rootCmd.AddCommand(newStoreCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newAttestCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))

	return rootCmd
}
