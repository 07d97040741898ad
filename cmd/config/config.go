// Package config is a thin process-entry-point wrapper around the shared
// loader in pkg/config, exposing the loaded configuration via AppConfig for
// the cmd/ binaries (config file loading is an out-of-scope
// entry-point concern; this package is the thin wiring that calls into the
// in-scope pkg/config loader).
package config

import (
	pkgconfig "ton-gmp-adapter/pkg/config"
)

// AppConfig holds the currently loaded configuration for command line
// utilities, mirroring pkg/config.AppConfig.
var AppConfig pkgconfig.Config

// LoadConfig loads config.<network>.yaml (network may be empty to load
// config.yaml) and stores it in AppConfig. Any loading failure panics,
// which is acceptable for process-entry-point initialization where
// startup should abort.
func LoadConfig(network string) {
	cfg, err := pkgconfig.Load(network)
	if err != nil {
		panic(err)
	}
	AppConfig = *cfg
}
