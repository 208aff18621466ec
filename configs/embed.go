// Package configs provides the embedded default configuration for ignr.
//
// The template is embedded at build time so every distribution (go install,
// release binaries, package managers) can write a commented config file on
// first run, for "ignr init", and for "ignr config reset".
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults (internal/config NewConfig)
//  2. User config ($XDG_CONFIG_HOME/ignr/config.yaml or --config)
//  3. Environment variables (IGNR_*)
package configs

import _ "embed"

// ConfigTemplate is the commented default user configuration.
//
//go:embed config.example.yaml
var ConfigTemplate string
