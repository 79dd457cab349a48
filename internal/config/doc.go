// Package config loads and validates the docsort TOML configuration.
//
// Load resolves the config path, applies defaults for anything the file
// leaves out, expands ~ in path fields, and validates the result. A missing
// file is not an error; the defaults describe a working local setup.
package config
