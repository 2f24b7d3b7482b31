// Package config loads kural settings from an optional YAML or TOML file,
// then applies environment overrides. Command-line flags are layered on top
// by the cmd package.
package config
