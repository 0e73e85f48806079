package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/keybind/internal/flagx"
	"github.com/dmitrijs2005/keybind/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Durations use timex.Duration, which accepts both "1s"-style strings and
// integer nanoseconds. Pointers distinguish "absent" from "zero".
type JsonConfig struct {
	EndpointAddrGRPC           string          `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP           string          `json:"endpoint_addr_http"`
	StoreBackend               string          `json:"store_backend"`
	DatabaseDSN                string          `json:"database_dsn"`
	SecretKey                  string          `json:"secret_key"`
	AdminPasswordHash          string          `json:"admin_password_hash"`
	AdminTokenValidityDuration *timex.Duration `json:"admin_token_validity_duration"`
	StoreTimeout               *timex.Duration `json:"store_timeout"`
	StoreBreaker               *bool           `json:"store_breaker"`
	ShutdownTimeout            *timex.Duration `json:"shutdown_timeout"`
	RedisAddr                  string          `json:"redis_addr"`
	RedisPassword              string          `json:"redis_password"`
	RedisDB                    *int            `json:"redis_db"`
	S3RootUser                 string          `json:"s3_root_user"`
	S3RootPassword             string          `json:"s3_root_password"`
	S3Bucket                   string          `json:"s3_bucket"`
	S3Region                   string          `json:"s3_region"`
	S3BaseEndpoint             string          `json:"s3_base_endpoint"`
	S3ObjectKey                string          `json:"s3_object_key"`
	LogLevel                   string          `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Keys missing from the file leave the current value
// alone. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminPasswordHash, c.AdminPasswordHash)
	if c.AdminTokenValidityDuration != nil {
		config.AdminTokenValidityDuration = c.AdminTokenValidityDuration.Duration
	}
	if c.StoreTimeout != nil {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.StoreBreaker != nil {
		config.StoreBreaker = *c.StoreBreaker
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3ObjectKey, c.S3ObjectKey)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
