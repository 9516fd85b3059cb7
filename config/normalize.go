package config

import (
	"fmt"
	"runtime"
	"strings"

	"xdao.co/unf/storage/casconfig"
)

func (c *Config) normalize() error {
	c.normalizeReader()
	if c.Compute.Workers <= 0 {
		c.Compute.Workers = runtime.GOMAXPROCS(0)
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeReader() {
	if c.Reader.Delimiter == "" {
		c.Reader.Delimiter = defaultDelimiter
	}
	if c.Reader.Delimiter == `\t` {
		c.Reader.Delimiter = "\t"
	}
	c.Reader.Encoding = strings.ToLower(strings.TrimSpace(c.Reader.Encoding))
	if c.Reader.Encoding == "" {
		c.Reader.Encoding = defaultEncoding
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if strings.TrimSpace(c.Daemon.LockPath) == "" {
		c.Daemon.LockPath = defaultDaemonLock
	}
	if c.Daemon.LockPath, err = expandPath(c.Daemon.LockPath); err != nil {
		return fmt.Errorf("daemon.lock_path: %w", err)
	}
	c.Daemon.Listen = strings.TrimSpace(c.Daemon.Listen)
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = defaultDaemonListen
	}
	if c.Daemon.MaxMsgBytes <= 0 {
		c.Daemon.MaxMsgBytes = defaultMaxMsgBytes
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

// normalizeStore installs the local report directory when no backend is
// configured and expands the path options of local backends.
func (c *Config) normalizeStore() error {
	if len(c.Store.Backends) == 0 {
		c.Store.Backends = []casconfig.BackendConfig{{
			Name:    defaultStoreBackend,
			Options: map[string]string{"dir": defaultStoreDir},
		}}
	}
	c.Store.WritePolicy = strings.ToLower(strings.TrimSpace(c.Store.WritePolicy))
	for i := range c.Store.Backends {
		b := &c.Store.Backends[i]
		b.Name = strings.TrimSpace(b.Name)
		var key string
		switch b.Name {
		case "localfs":
			key = "dir"
		case "ipfs":
			key = "repo"
		default:
			continue
		}
		p, err := expandPath(b.Options[key])
		if err != nil {
			return fmt.Errorf("store.backends[%d].options.%s: %w", i, key, err)
		}
		if p != "" {
			b.Options[key] = p
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
