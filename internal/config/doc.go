// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file and environment variables. The loaded
// Config is immutable after startup and is handed to each component explicitly.
package config
