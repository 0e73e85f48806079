package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/keybind/internal/server/config"
	"github.com/dmitrijs2005/keybind/internal/server/models"
	"github.com/dmitrijs2005/keybind/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.StoreBackend = config.StoreMemory
	c.ShutdownTimeout = time.Second
	c.LogLevel = "error"
	return c
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.StoreBackend = "floppy"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_Backends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name  string
		setup func(c *config.Config)
	}{
		{"memory", func(c *config.Config) {}},
		{"sqlite", func(c *config.Config) {
			c.StoreBackend = config.StoreSQLite
			c.DatabaseDSN = "file:" + filepath.Join(t.TempDir(), "keybind.db") + "?_time_format=sqlite"
		}},
		{"redis", func(c *config.Config) {
			c.StoreBackend = config.StoreRedis
			c.RedisAddr = mr.Addr()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t)
			tt.setup(c)

			app, err := NewApp(context.Background(), c)
			require.NoError(t, err)
			t.Cleanup(func() { _ = app.store.close() })

			ctx := context.Background()
			require.NoError(t, app.store.licenses.Create(ctx, &models.License{
				LicenseKey: "APPKEY",
				UserName:   "Alice",
				UserEmail:  "alice@example.com",
				CreatedAt:  time.Now(),
				ExpiresAt:  time.Now().Add(time.Hour),
				IsActive:   true,
			}))

			res, err := app.licenseService.Authenticate(ctx, services.AuthRequest{LicenseKey: "APPKEY", HWID: "HW-1"})
			require.NoError(t, err)
			assert.Equal(t, "Alice", res.UserName)
		})
	}
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	c := testConfig(t)
	c.StoreBackend = config.StoreRedis
	c.RedisAddr = "127.0.0.1:1"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}


func TestNewApp_StoreBreaker(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.store.close() })

	require.NotNil(t, app.breaker)
	assert.NoError(t, app.breaker.Check(context.Background()))

	c := testConfig(t)
	c.StoreBreaker = false
	app, err = NewApp(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.store.close() })

	assert.Nil(t, app.breaker)
}
