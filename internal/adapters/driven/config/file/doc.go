// Package file loads run options from a TOML or YAML config file,
// an optional dotenv file and WIKICHUNK_* environment variables.
//
// Precedence, lowest first: Defaults, config file, environment.
// Command-line flags are applied on top by the CLI.
package file
