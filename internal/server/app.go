// Package server assembles the KeyVault server: storage backends, the master
// keyring, the auth and vault services, and the HTTP and gRPC listeners.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/keyvault/internal/cryptox"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/auth"
	"github.com/dmitrijs2005/keyvault/internal/server/config"
	"github.com/dmitrijs2005/keyvault/internal/server/httpapi"
	"github.com/dmitrijs2005/keyvault/internal/server/keyring"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keyvault/internal/server/services"

	gs "github.com/dmitrijs2005/keyvault/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	repos        *repomanager.Manager
	registry     *prometheus.Registry
	metrics      *metrics.Collector
	authService  *services.AuthService
	vaultService *services.KeyVaultService
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (_ *App, err error) {
	app := &App{config: c, logger: logger.With("module", "app")}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(app.registry)

	app.repos, err = repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = app.repos.Close()
		}
	}()

	if err := app.repos.RunMigrations(ctx); err != nil {
		return nil, err
	}

	if c.SeedDemoUsers {
		n, err := app.repos.SeedDemoUsers(ctx, credentials.DemoUsers, func(p string) (string, error) {
			return cryptox.HashPassword(p, cryptox.DefaultArgon2Params)
		})
		if err != nil {
			return nil, fmt.Errorf("seeding demo users: %w", err)
		}
		app.logger.Info(ctx, "demo users seeded", "created", n)
	}

	source, err := keyring.ParseSource(c.MasterKeySource)
	if err != nil {
		return nil, err
	}
	ring, err := keyring.Load(keyring.Options{
		Source:          source,
		EnvValue:        c.MasterKey,
		File:            c.MasterKeyFile,
		AgeIdentityFile: c.AgeIdentityFile,
	})
	if err != nil {
		return nil, err
	}
	if source == keyring.SourceEphemeral {
		app.logger.Warn(ctx, "using an ephemeral master key; stored key pairs will not survive a restart")
	}

	tokenOpts := []auth.Option{auth.WithIssuer(c.TokenIssuer), auth.WithLeeway(c.TokenLeeway)}
	if !c.IsDevelopment() {
		tokenOpts = append(tokenOpts, auth.RequireStrongSecret())
	}
	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.TokenTTL, tokenOpts...)
	if err != nil {
		return nil, err
	}

	app.authService, err = services.NewAuthService(app.repos.Credentials(), tokens,
		services.WithLoginRateLimit(rate.Limit(c.LoginRate), c.LoginBurst),
		services.WithAuthMetrics(app.metrics),
		services.WithAuthLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	app.vaultService, err = services.NewKeyVaultService(app.repos.Keys(), ring,
		services.WithRSABits(c.RSABits),
		services.WithVaultMetrics(app.metrics),
		services.WithVaultLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT until the returned
// stop function is called. stop waits for the watcher goroutine to exit.
func (app *App) initSignalHandler(cancelFunc context.CancelFunc) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
		<-exited
	}
}

func (app *App) httpHandler() http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Auth:           app.authService,
		Vault:          app.vaultService,
		Logger:         app.logger,
		Metrics:        app.metrics,
		MetricsHandler: metrics.Handler(app.registry),
	})
}

// Run serves until ctx is cancelled, a signal arrives or a listener fails.
// Storage is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stopSignals := app.initSignalHandler(cancelFunc)
	defer stopSignals()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	if app.config.HTTPAddr != "" {
		s := httpapi.NewServer(app.config.HTTPAddr, app.httpHandler(), app.logger, app.config.ShutdownTimeout)
		start("http", s.Run)
	}
	if app.config.GRPCAddr != "" {
		s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.authService, app.vaultService, app.metrics)
		start("grpc", s.Run)
	}

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}
	app.logger.Info(context.Background(), "App stopped")

	return errors.Join(errs...)
}
