package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"

	"xdao.co/unf/storage/casconfig"
	"xdao.co/unf/table"
	"xdao.co/unf/unf"
)

//go:embed sample_config.toml
var sampleConfig string

// Fingerprint holds the UNF parameters used when none are given on the
// command line.
type Fingerprint struct {
	Precision int  `toml:"precision"`
	MaxChars  int  `toml:"max_chars"`
	HashBits  int  `toml:"hash_bits"`
	Truncate  bool `toml:"truncate"`
}

// Reader controls how delimited files are turned into typed columns.
type Reader struct {
	Delimiter     string   `toml:"delimiter"`
	Encoding      string   `toml:"encoding"`
	MissingTokens []string `toml:"missing_tokens"`
	NaNAsMissing  bool     `toml:"nan_as_missing"`
	InferTypes    bool     `toml:"infer_types"`
	NoHeader      bool     `toml:"no_header"`
}

// Compute bounds the column fan-out of dataset fingerprinting.
type Compute struct {
	Workers int `toml:"workers"`
}

// Cache locates the sqlite fingerprint cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Daemon configures unf-casd.
type Daemon struct {
	Listen      string `toml:"listen"`
	LockPath    string `toml:"lock_path"`
	MaxMsgBytes int    `toml:"max_msg_bytes"`
	// Backend names the [[store.backends]] entry the daemon serves.
	Backend string `toml:"backend"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for the unf tools.
//
// Configuration sections:
//   - Fingerprint: default UNF parameters
//   - Reader: CSV decoding and type inference
//   - Compute: column worker count
//   - Cache: sqlite cache of computed reports
//   - Store: report store backends (see casconfig)
//   - Daemon: unf-casd listener and lock
//   - Logging: log format, level and file
type Config struct {
	Fingerprint Fingerprint      `toml:"fingerprint"`
	Reader      Reader           `toml:"reader"`
	Compute     Compute          `toml:"compute"`
	Cache       Cache            `toml:"cache"`
	Store       casconfig.Config `toml:"store"`
	Daemon      Daemon           `toml:"daemon"`
	Logging     Logging          `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, normalizes and validates a configuration file. A
// missing file is not an error; defaults apply. It reports the resolved path
// and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if env, ok := os.LookupEnv("UNF_CONFIG"); ok && strings.TrimSpace(env) != "" {
			path = env
		}
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("unf.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// UNF returns the fingerprint section as a validated unf.Config.
func (c *Config) UNF() (unf.Config, error) {
	return unf.NewConfig(
		unf.WithPrecision(c.Fingerprint.Precision),
		unf.WithMaxChars(c.Fingerprint.MaxChars),
		unf.WithHashBits(c.Fingerprint.HashBits),
		unf.WithTruncate(c.Fingerprint.Truncate),
	)
}

// ReadOptions converts the reader section for table.ReadFile.
func (c *Config) ReadOptions() table.ReadOptions {
	delim, _ := utf8.DecodeRuneInString(c.Reader.Delimiter)
	return table.ReadOptions{
		Delimiter:     delim,
		Encoding:      c.Reader.Encoding,
		MissingTokens: append([]string(nil), c.Reader.MissingTokens...),
		NaNAsMissing:  c.Reader.NaNAsMissing,
		InferTypes:    c.Reader.InferTypes,
		NoHeader:      c.Reader.NoHeader,
	}
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path. It
// refuses to overwrite an existing file unless force is set.
func CreateSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Sample returns the annotated sample configuration.
func Sample() string { return sampleConfig }
