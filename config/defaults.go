package config

import "xdao.co/unf/unf"

const (
	defaultConfigPath    = "~/.config/unf/config.toml"
	defaultDelimiter     = ","
	defaultEncoding      = "utf-8"
	defaultCachePath     = "~/.cache/unf/cache.db"
	defaultStoreDir      = "~/.local/share/unf/reports"
	defaultDaemonListen  = "127.0.0.1:7450"
	defaultDaemonLock    = "~/.local/share/unf/unf-casd.lock"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultMaxMsgBytes   = 16 << 20
	defaultStoreBackend  = "localfs"
)

// defaultMissingTokens are the cell spellings read as missing.
var defaultMissingTokens = []string{"", "NA", "N/A", "null", "NULL"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Fingerprint: Fingerprint{
			Precision: unf.DefaultPrecision,
			MaxChars:  unf.DefaultMaxChars,
			HashBits:  unf.DefaultHashBits,
		},
		Reader: Reader{
			Delimiter:     defaultDelimiter,
			Encoding:      defaultEncoding,
			MissingTokens: append([]string(nil), defaultMissingTokens...),
			NaNAsMissing:  true,
			InferTypes:    true,
		},
		Cache: Cache{
			Enabled: true,
			Path:    defaultCachePath,
		},
		Daemon: Daemon{
			Listen:      defaultDaemonListen,
			LockPath:    defaultDaemonLock,
			MaxMsgBytes: defaultMaxMsgBytes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
