// Package config loads runtime configuration for the licensectl client.
//
// Sources, later ones winning: built-in defaults, an optional JSON file
// (-c / -config), LICENSECTL_* environment variables and the global flags
// placed before the command name.
//
//	licensectl -a license.example.com:50051 -t 10 check KEY
package config

import (
	"os"
	"path/filepath"
	"time"
)

// GlobalValueFlags are the global flags that take a value. They must come
// before the command name.
var GlobalValueFlags = []string{"-a", "-t", "-k", "-f", "-c", "-config"}

// Config holds runtime settings for licensectl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the keybind gRPC endpoint.
//   - RequestTimeout: deadline of a single call.
//   - AdminToken: admin token sent with administrative commands. When
//     empty the token saved by "login" in TokenFile is used.
type Config struct {
	ServerEndpointAddr string        `envconfig:"SERVER_ADDR"`
	RequestTimeout     time.Duration `envconfig:"TIMEOUT"`
	AdminToken         string        `envconfig:"ADMIN_TOKEN"`
	TokenFile          string        `envconfig:"TOKEN_FILE"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.TokenFile = defaultTokenFile()
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".licensectl-token"
	}
	return filepath.Join(dir, "licensectl", "token")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON, environment and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
