package config

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"xdao.co/unf/internal/logging"
	"xdao.co/unf/table"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.UNF(); err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}
	if err := c.validateReader(); err != nil {
		return err
	}
	if c.Compute.Workers < 0 {
		return errors.New("compute.workers must not be negative")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("cache.path must be set when the cache is enabled")
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if c.Daemon.Backend != "" {
		found := false
		for _, b := range c.Store.Backends {
			if b.Label() == c.Daemon.Backend || b.Name == c.Daemon.Backend {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("daemon.backend %q does not name a store backend", c.Daemon.Backend)
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateReader() error {
	if utf8.RuneCountInString(c.Reader.Delimiter) != 1 {
		return fmt.Errorf("reader.delimiter must be a single character, got %q", c.Reader.Delimiter)
	}
	if _, err := table.LookupEncoding(c.Reader.Encoding); err != nil {
		return fmt.Errorf("reader.encoding: unsupported value %q", c.Reader.Encoding)
	}
	return nil
}
