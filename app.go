// Package api assembles the provider API: persistence, identity, route
// guards, provider endpoints, metrics and docs.
package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-provider-api/activitymap"
	"github.com/goliatone/go-provider-api/auth"
	"github.com/goliatone/go-provider-api/config"
	"github.com/goliatone/go-provider-api/docs"
	"github.com/goliatone/go-provider-api/metrics"
	"github.com/goliatone/go-provider-api/persistence"
	"github.com/goliatone/go-provider-api/provider"
	"github.com/goliatone/go-router"
)

const (
	MetricsPath = "/metrics"
	APIVersion  = "v1"
)

// App holds the wired components
type App struct {
	config  config.Config
	logger  *glog.BaseLogger
	db      *persistence.Client
	ownsDB  bool
	repo    auth.RepositoryManager
	metrics *metrics.Metrics
	srv     router.Server[*fiber.App]
	tokens  *auth.TokenServiceImpl
	auther  *auth.Auther
	guards  *auth.RouteAuthenticator
}

type Option func(*App)

// WithLogger sets the root logger, components get named children of it
func WithLogger(l *glog.BaseLogger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDatabase uses an existing client instead of opening one from
// the configuration. The caller keeps ownership.
func WithDatabase(db *persistence.Client) Option {
	return func(a *App) {
		a.db = db
	}
}

// New builds the application. The HTTP server is ready but not
// listening.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	app := &App{
		config: cfg,
		logger: glog.NewLogger(
			glog.WithName("app"),
			glog.WithLoggerTypeJSON(),
			glog.WithLevel(glog.Info),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		),
	}

	for _, opt := range opts {
		opt(app)
	}

	app.metrics = metrics.New()

	steps := []func(context.Context, *App) error{
		WithPersistence,
		WithIdentity,
		WithHTTPServer,
		WithRoutes,
	}

	for _, step := range steps {
		if err := step(ctx, app); err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	return app, nil
}

func (a *App) Config() config.Config {
	return a.config
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) DB() *persistence.Client {
	return a.db
}

func (a *App) Repository() auth.RepositoryManager {
	return a.repo
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *App) Server() router.Server[*fiber.App] {
	return a.srv
}

func (a *App) TokenService() auth.TokenService {
	return a.tokens
}

func (a *App) Auther() *auth.Auther {
	return a.auther
}

// Listen blocks serving HTTP on the configured address
func (a *App) Listen() error {
	a.logger.Info("http server listening", "address", a.config.HTTP.Address)
	return a.srv.WrappedRouter().Listen(a.config.HTTP.Address)
}

// Shutdown stops the HTTP server and releases the database
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.srv != nil {
		err = a.srv.WrappedRouter().ShutdownWithContext(ctx)
	}
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the database when the app opened it
func (a *App) Close() error {
	if a.db == nil || !a.ownsDB {
		return nil
	}
	return a.db.Close()
}

// WithPersistence opens the database and creates the schema
func WithPersistence(ctx context.Context, app *App) error {
	models := []any{
		(*auth.User)(nil),
		(*auth.UserClaim)(nil),
		(*provider.Provider)(nil),
	}

	if app.db == nil {
		client, err := persistence.Open(ctx, app.config.Database, models...)
		if err != nil {
			return err
		}
		app.db = client
		app.ownsDB = true
	} else {
		app.db.RegisterModel(models...)
	}

	app.db.SetLogger(app.GetLogger("persistence"))

	if err := app.db.CreateSchema(ctx); err != nil {
		return err
	}

	app.repo = auth.NewRepositoryManager(app.db.DB())
	return app.repo.Validate()
}

// WithIdentity builds the token service, the authenticator and the
// route guards, then applies configured claim grants to existing
// accounts
func WithIdentity(ctx context.Context, app *App) error {
	logger := app.GetLogger("auth")

	tokens, err := auth.NewTokenServiceFromConfig(app.config, logger)
	if err != nil {
		return err
	}
	app.tokens = tokens

	hasher := auth.NewBcryptHasher(app.config.Auth.BcryptCost)

	users := auth.NewUserProvider(app.repo.Users(),
		auth.WithPasswordHasher(hasher),
		auth.WithLockout(app.config.GetLockout()),
	).WithLogger(logger)

	registerer := auth.NewRegisterUserHandler(
		app.repo,
		hasher,
		app.config.GetPasswordPolicy(),
		app.config.Auth.Grants...,
	)

	app.auther = auth.NewAuthenticator(users, app.repo, tokens, registerer,
		auth.WithActivitySink(activitymap.Fanout(
			app.metrics,
			activitymap.NewLogSink(app.GetLogger("activity")),
		)),
		auth.WithAutherLogger(logger),
		auth.WithHashidUserIDs(app.config.Auth.UseHashid),
	)

	app.guards = auth.NewHTTPAuthenticator(tokens, app.config, app.config.GetPolicies()...)
	app.guards.Logger = app.GetLogger("guard")

	if err := auth.ApplyClaimGrants(ctx, app.repo, app.config.Auth.Grants, logger); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to apply claim grants")
	}

	return nil
}

// WithHTTPServer creates the fiber backed router
func WithHTTPServer(_ context.Context, app *App) error {
	app.srv = router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:               app.config.App.Name,
			DisableStartupMessage: true,
		}))
	})
	app.srv.Router().WithLogger(app.GetLogger("router"))
	return nil
}

// WithRoutes mounts every endpoint
func WithRoutes(_ context.Context, app *App) error {
	r := app.srv.Router()
	debug := app.config.App.Debug

	auth.RegisterAuthRoutes(r,
		auth.WithAccountService(app.auther),
		auth.WithControllerLogger(app.GetLogger("auth:ctrl")),
		auth.WithControllerDebug(debug),
	)

	provider.RegisterProviderRoutes(r,
		provider.WithRepository(provider.NewProvidersRepository(app.db.DB())),
		provider.WithLogger(app.GetLogger("provider:ctrl")),
		provider.WithRecorder(app.metrics),
		provider.WithDebug(debug),
		provider.WithGuards(
			app.guards.ProtectedRoute(),
			app.guards.RequirePolicy(auth.PolicyDeleteProvider),
		),
	)

	if app.config.HTTP.Metrics {
		app.srv.WrappedRouter().Get(MetricsPath, adaptor.HTTPHandler(app.metrics.Handler()))
	}

	if app.config.IsDevelopment() {
		docs.RegisterRoutes(r, docs.NewRenderer(app.config.App.Name, APIVersion))
	}

	return nil
}
