// Package server wires storage, services and the HTTP and gRPC transports
// into one process and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/waitlist/internal/logging"
	"github.com/dmitrijs2005/waitlist/internal/server/config"
	"github.com/dmitrijs2005/waitlist/internal/server/notify"
	"github.com/dmitrijs2005/waitlist/internal/server/rest"
	"github.com/dmitrijs2005/waitlist/internal/server/services"
	"github.com/dmitrijs2005/waitlist/internal/server/storage"

	gs "github.com/dmitrijs2005/waitlist/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	store      storage.Storage
	httpServer *rest.HTTPServer
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.IsDevelopment()).WithContextFields(rest.RequestIDFields)

	store, err := storage.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	return newApp(c, logger, store), nil
}

func newApp(c *config.Config, logger logging.Logger, store storage.Storage) *App {
	notifier := notify.NewLogNotifier(logger, c.PublicBaseURL, c.IsDevelopment())
	ws := services.NewWaitlistService(store, notifier, logger)

	handler := rest.NewHandler(ws, logger, c.IsDevelopment())
	router := rest.NewRouter(handler, logger, rest.RouterOptions{
		AllowedOrigins: c.AllowedOrigins,
		RequestTimeout: c.RequestTimeout,
	})

	return &App{
		config:     c,
		logger:     logger,
		store:      store,
		httpServer: rest.NewHTTPServer(c.HTTPAddr, logger, router, c.ShutdownTimeout),
		grpcServer: gs.NewGRPCServer(c.GRPCAddr, logger, store),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runServer runs one transport; if it fails the whole app is cancelled.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or either server
// fails, then closes storage.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend, "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.httpServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", app.grpcServer.Run)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
