package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, StoreSQLite, c.StoreBackend)
	assert.Equal(t, "file:keybind.db?_time_format=sqlite", c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 15*time.Minute, c.AdminTokenValidityDuration)
	assert.Equal(t, 5*time.Second, c.StoreTimeout)
	assert.True(t, c.StoreBreaker)
	assert.Equal(t, "127.0.0.1:6379", c.RedisAddr)
	assert.Equal(t, "keybind", c.S3Bucket)
	assert.Equal(t, "licenses.json", c.S3ObjectKey)
	assert.Equal(t, "info", c.LogLevel)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"keybind"}

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"endpoint_addr_grpc": "json:1",
		"endpoint_addr_http": "json:2",
		"store_backend":      "redis",
	})
	t.Setenv("KEYBIND_HTTP_ADDR", "env:2")
	t.Setenv("KEYBIND_STORE", "memory")
	os.Args = []string{"keybind", "-c", path, "-m", "s3"}

	c := LoadConfig()

	assert.Equal(t, "json:1", c.EndpointAddrGRPC)
	assert.Equal(t, "env:2", c.EndpointAddrHTTP)
	assert.Equal(t, StoreS3, c.StoreBackend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"each backend", func(c *Config) { c.StoreBackend = StorePostgres }, true},
		{"unknown backend", func(c *Config) { c.StoreBackend = "mongo" }, false},
		{"empty secret", func(c *Config) { c.SecretKey = "" }, false},
		{"zero timeout", func(c *Config) { c.StoreTimeout = 0 }, false},
		{"negative token validity", func(c *Config) { c.AdminTokenValidityDuration = -time.Minute }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}
