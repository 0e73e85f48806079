// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StoreS3       = "s3"
	StoreMemory   = "memory"
)

// Config holds runtime settings for the keybind server.
//
// Fields:
//   - EndpointAddrGRPC / EndpointAddrHTTP: bind addresses of the two APIs.
//   - StoreBackend: one of postgres, sqlite, redis, s3, memory.
//   - DatabaseDSN: DSN for the postgres (pgx) or sqlite (modernc) backend.
//   - SecretKey: HMAC secret for signing admin tokens (HS256).
//   - AdminPasswordHash: bcrypt hash checked by the admin login.
//   - StoreTimeout: upper bound for one authentication call.
//   - Redis* / S3*: settings of the corresponding store backend.
type Config struct {
	EndpointAddrGRPC           string        `envconfig:"GRPC_ADDR"`
	EndpointAddrHTTP           string        `envconfig:"HTTP_ADDR"`
	StoreBackend               string        `envconfig:"STORE"`
	DatabaseDSN                string        `envconfig:"DATABASE_DSN"`
	SecretKey                  string        `envconfig:"SECRET_KEY"`
	AdminPasswordHash          string        `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminTokenValidityDuration time.Duration `envconfig:"ADMIN_TOKEN_VALIDITY"`
	StoreTimeout               time.Duration `envconfig:"STORE_TIMEOUT"`
	StoreBreaker               bool          `envconfig:"STORE_BREAKER"`
	ShutdownTimeout            time.Duration `envconfig:"SHUTDOWN_TIMEOUT"`
	RedisAddr                  string        `envconfig:"REDIS_ADDR"`
	RedisPassword              string        `envconfig:"REDIS_PASSWORD"`
	RedisDB                    int           `envconfig:"REDIS_DB"`
	S3RootUser                 string        `envconfig:"S3_ROOT_USER"`
	S3RootPassword             string        `envconfig:"S3_ROOT_PASSWORD"`
	S3Bucket                   string        `envconfig:"S3_BUCKET"`
	S3Region                   string        `envconfig:"S3_REGION"`
	S3BaseEndpoint             string        `envconfig:"S3_BASE_ENDPOINT"`
	S3ObjectKey                string        `envconfig:"S3_OBJECT_KEY"`
	LogLevel                   string        `envconfig:"LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey is insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.StoreBackend = StoreSQLite
	c.DatabaseDSN = "file:keybind.db?_time_format=sqlite"
	c.SecretKey = "secretKey"
	c.AdminTokenValidityDuration = 15 * time.Minute
	c.StoreTimeout = 5 * time.Second
	c.StoreBreaker = true
	c.ShutdownTimeout = 10 * time.Second
	c.RedisAddr = "127.0.0.1:6379"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "keybind"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3ObjectKey = "licenses.json"
	c.LogLevel = "info"
}

// Validate rejects settings the server can't start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres, StoreSQLite, StoreRedis, StoreS3, StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.SecretKey == "" {
		return errors.New("secret key must not be empty")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if c.AdminTokenValidityDuration <= 0 {
		return errors.New("admin token validity must be positive")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the KEYBIND_* environment and finally
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
