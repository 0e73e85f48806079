package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix is prepended to every variable name, e.g. KEYBIND_STORE.
const EnvPrefix = "KEYBIND"

// parseEnv overlays KEYBIND_* environment variables onto config. Unset
// variables leave fields untouched; malformed values panic like bad flags do.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
