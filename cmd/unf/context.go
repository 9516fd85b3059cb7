package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"xdao.co/unf/cache"
	"xdao.co/unf/config"
	"xdao.co/unf/internal/logging"
	"xdao.co/unf/storage"
	"xdao.co/unf/storage/casregistry"

	_ "xdao.co/unf/storage/grpccas"
	_ "xdao.co/unf/storage/ipfs"
	_ "xdao.co/unf/storage/localfs"
)

type globalFlags struct {
	config    string
	output    string
	logLevel  string
	logFormat string
}

func (f *globalFlags) validateOutput() error {
	switch f.output {
	case "text", "json", "yaml":
		return nil
	default:
		return usagef("--output must be text, json or yaml, got %q", f.output)
	}
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags.logLevel != "" {
			cfg.Logging.Level = c.flags.logLevel
		}
		if c.flags.logFormat != "" {
			cfg.Logging.Format = c.flags.logFormat
		}
		opts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
		if cfg.Logging.File != "" {
			opts.OutputPaths = []string{"stderr", cfg.Logging.File}
		}
		logger, err := logging.New(opts)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) log(component string) *slog.Logger {
	if c.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(c.logger, component)
}

// openStore opens the configured report store. backend selects one
// [[store.backends]] entry to prefer for writes.
func (c *commandContext) openStore(backend string) (storage.CAS, func() error, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	cas, closeFn, err := cfg.Store.Open(casregistry.UsageCLI, backend)
	if err != nil {
		return nil, nil, fmt.Errorf("open report store: %w", err)
	}
	return cas, closeFn, nil
}

func (c *commandContext) openCache() (*cache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return cache.Open(cfg.Cache.Path, c.log("cache"))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
