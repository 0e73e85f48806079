// Package server wires the keybind server: it opens the configured license
// store, builds the services and runs the gRPC and HTTP APIs until a
// shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/keybind/internal/logging"
	"github.com/dmitrijs2005/keybind/internal/server/config"
	"github.com/dmitrijs2005/keybind/internal/server/httpapi"
	"github.com/dmitrijs2005/keybind/internal/server/metrics"
	"github.com/dmitrijs2005/keybind/internal/server/repositories/licenses"
	"github.com/dmitrijs2005/keybind/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/keybind/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	metrics        *metrics.Metrics
	store          *store
	breaker        *licenses.BreakerRepository
	licenseService *services.LicenseService
	adminService   *services.AdminService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger, metrics: metrics.New()}

	st, err := app.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	app.store = st

	repo := st.licenses
	if c.StoreBreaker {
		s := licenses.DefaultBreakerSettings()
		s.OnStateChange = app.metrics.BreakerStateChanged
		app.breaker = licenses.NewBreakerRepository(repo, c.StoreBackend, s)
		repo = app.breaker
	}

	app.adminService = services.NewAdminService(c, logger)
	app.licenseService = services.NewLicenseService(repo, st.attempts, app.adminService.Verifier(), c, logger, app.metrics)

	if c.AdminPasswordHash == "" {
		logger.Warn(ctx, "no admin password hash configured, administrative operations are disabled")
	}

	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

func (app *App) startGRPCServer(ctx context.Context) error {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.licenseService, app.adminService, app.adminService.Verifier())
	if err != nil {
		return err
	}

	return s.Run(ctx)
}

func (app *App) startHTTPServer(ctx context.Context) error {

	h := httpapi.NewHandler(app.licenseService, app.adminService, app.logger)
	if app.breaker != nil {
		h.AddHealthCheck("store", app.breaker.Check)
	}
	router := httpapi.NewRouter(h, app.metrics.Handler(), app.logger)

	return httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.config.ShutdownTimeout, app.logger).Run(ctx)
}

// Run serves both APIs until ctx is cancelled, a signal arrives or one of
// the servers fails, then closes the store.
func (app *App) Run(ctx context.Context) error {

	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreBackend)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.startGRPCServer(ctx) })
	g.Go(func() error { return app.startHTTPServer(ctx) })

	err := g.Wait()

	if cerr := app.store.close(); cerr != nil {
		app.logger.Error(ctx, "store close error", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")

	return err
}
