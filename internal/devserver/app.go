package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/devserver/config"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	server *Server
}

// NewApp builds the store and HTTP server, creating the seed account when
// cfg.SeedUser is set.
func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, cfg.LogLevel, "json").With("module", "devserver")

	store := NewStore(cfg.BcryptCost)

	if cfg.SeedUser != "" {
		email, password, ok := strings.Cut(cfg.SeedUser, ":")
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("seed user must be email:password, got %q", cfg.SeedUser)
		}
		if _, err := store.CreateUser("Demo", email, password); err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
	}

	return &App{config: cfg, logger: logger, server: NewServer(cfg, store, logger)}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (app *App) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           app.server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown", logging.Err(err))
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", l.Addr().String(), "base_path", app.config.BasePath)

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	l, err := net.Listen("tcp", app.config.Addr)
	if err != nil {
		return err
	}

	return app.Serve(ctx, l)
}
