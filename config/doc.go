// Package config loads the unf TOML configuration.
//
// Load applies defaults, overlays the file (the --config flag, $UNF_CONFIG,
// ~/.config/unf/config.toml or ./unf.toml), expands "~" in paths and
// validates the result. Unknown keys are rejected so typos surface early.
package config
