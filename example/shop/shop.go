// Package shop wires the storefront from configuration: database, session
// store, file storage, authentication and routes.
package shop

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dmitrymomot/storefront"
	"github.com/dmitrymomot/storefront/example/handlers"
	"github.com/dmitrymomot/storefront/example/migrations"
	"github.com/dmitrymomot/storefront/example/models"
	"github.com/dmitrymomot/storefront/example/views"
	"github.com/dmitrymomot/storefront/middlewares"
	"github.com/dmitrymomot/storefront/pkg/auth"
	"github.com/dmitrymomot/storefront/pkg/cache"
	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/container"
	"github.com/dmitrymomot/storefront/pkg/db"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/model"
	"github.com/dmitrymomot/storefront/pkg/query"
	"github.com/dmitrymomot/storefront/pkg/redis"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

const (
	sessionPrefix = "session:"
	// writeGrace leaves room to send the 503 after a request times out.
	writeGrace = 5 * time.Second
)

type options struct {
	logOutput io.Writer
}

// Option configures New.
type Option func(*options)

// WithLogOutput sends application logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.logOutput = w
		}
	}
}

// Shop is a wired storefront.
type Shop struct {
	App       *storefront.App
	Container *container.Container

	cfg   *config.Config
	log   *slog.Logger
	hooks []func(context.Context) error
}

// Container registers every service the storefront needs. Nothing is
// built until it is resolved.
func Container(ctx context.Context, cfg *config.Config, opts ...Option) *container.Container {
	o := options{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	c := container.New()
	container.Instance(c, cfg)

	container.Provide(c, func(*container.Container) (*slog.Logger, error) {
		return logger.New(cfg.Log,
			logger.WithOutput(o.logOutput),
			logger.WithExtractors(middlewares.RequestIDExtractor()),
		), nil
	})

	container.Provide(c, func(*container.Container) (*sql.DB, error) {
		return db.Connect(ctx, cfg.Database)
	})

	container.Provide(c, func(c *container.Container) (*query.DB, error) {
		conn, err := container.Resolve[*sql.DB](c)
		if err != nil {
			return nil, err
		}
		return db.Query(conn, cfg.Database, container.MustResolve[*slog.Logger](c))
	})

	// Redis is optional: without a URL the client resolves to nil.
	container.Provide(c, func(c *container.Container) (redis.Client, error) {
		if cfg.Redis.URL == "" {
			return nil, nil
		}
		return redis.Open(ctx, cfg.Redis.URL,
			redis.WithPoolSize(cfg.Redis.PoolSize),
			redis.WithTimeouts(cfg.Redis.ReadTimeout, cfg.Redis.WriteTimeout, cfg.Redis.DialTimeout),
			redis.WithLogger(container.MustResolve[*slog.Logger](c)),
		)
	})

	container.Provide(c, func(c *container.Container) (cache.Cache[session.Data], error) {
		if strings.EqualFold(cfg.Session.Driver, "redis") {
			client, err := container.Resolve[redis.Client](c)
			if err != nil {
				return nil, err
			}
			if client == nil {
				return nil, ErrRedisRequired
			}
			return cache.NewRedis[session.Data](client, cache.JSON[session.Data]{}, cache.WithPrefix(sessionPrefix)), nil
		}
		return cache.NewMemory[session.Data](cache.WithTTL(cfg.Session.TTL)), nil
	})

	container.Provide(c, func(c *container.Container) (session.Store, error) {
		store, err := container.Resolve[cache.Cache[session.Data]](c)
		if err != nil {
			return nil, err
		}
		return session.NewCacheStore(store), nil
	})

	container.Provide(c, func(*container.Container) (storage.Storage, error) {
		return storage.Open(cfg.Storage)
	})

	container.Provide(c, func(c *container.Container) (*handlers.Users, error) {
		qdb, err := container.Resolve[*query.DB](c)
		if err != nil {
			return nil, err
		}
		return auth.New(auth.NewModelProvider(model.NewRepository[models.User](qdb), "email"), nil), nil
	})

	return c
}

// New resolves the services registered by Container and builds the app.
// Close releases whatever was opened, also when New fails halfway.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Shop, error) {
	c := Container(ctx, cfg, opts...)
	s := &Shop{Container: c, cfg: cfg, log: container.MustResolve[*slog.Logger](c)}

	conn, err := container.Resolve[*sql.DB](c)
	if err != nil {
		return nil, err
	}
	s.hooks = append(s.hooks, db.Shutdown(conn))

	client, err := container.Resolve[redis.Client](c)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	if client != nil {
		s.hooks = append(s.hooks, redis.Shutdown(client))
	}

	sessions, err := container.Resolve[cache.Cache[session.Data]](c)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	s.hooks = append(s.hooks, func(context.Context) error { return sessions.Close() })

	qdb, err := container.Resolve[*query.DB](c)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	store, err := container.Resolve[session.Store](c)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	files, err := container.Resolve[storage.Storage](c)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	users, err := container.Resolve[*handlers.Users](c)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	checks := []storefront.HealthOption{
		storefront.WithReadinessCheck("database", db.Healthcheck(conn)),
	}
	if client != nil {
		checks = append(checks, storefront.WithReadinessCheck("redis", redis.Healthcheck(client)))
	}

	appOpts := []storefront.Option{
		storefront.WithLogger(s.log),
		storefront.WithSession(store,
			storefront.WithSessionCookieName(cfg.Session.CookieName),
			storefront.WithSessionDomain(cfg.Session.Domain),
			storefront.WithSessionSameSite(storefront.ParseSameSite(cfg.Session.SameSite)),
			storefront.WithSessionLifetime(cfg.Session.Lifetime),
			storefront.WithSessionTTL(cfg.Session.TTL),
			storefront.WithSessionSecure(cfg.Session.Secure),
		),
		storefront.WithMiddleware(
			middlewares.Recover(),
			middlewares.RequestID(),
			middlewares.Timeout(cfg.App.RequestTimeout),
			middlewares.TrimInput(),
			middlewares.EmptyStringToNull(),
			middlewares.SanitizeInput("name", "description"),
		),
		storefront.WithExceptionOptions(
			storefront.WithDebug(cfg.App.Debug),
			storefront.WithErrorPage(views.ErrorPage),
		),
		storefront.WithHealthChecks(checks...),
		storefront.WithBodyLimit(cfg.App.MaxBodyBytes),
		storefront.WithHandlers(
			handlers.NewAuth(qdb, users),
			handlers.NewProducts(qdb, users, files),
			handlers.NewCarts(qdb, users),
			handlers.NewOrders(qdb, users),
		),
	}
	if cfg.App.StaticDir != "" {
		appOpts = append(appOpts, storefront.WithStaticFiles("/static/", os.DirFS(cfg.App.StaticDir), "."))
	}
	if local := cfg.Storage.Local; strings.EqualFold(cfg.Storage.Driver, "local") && local.PublicURL != "" {
		appOpts = append(appOpts, storefront.WithStaticFiles(strings.TrimSuffix(local.PublicURL, "/")+"/", os.DirFS(local.Root), "."))
	}

	s.App = storefront.New(appOpts...)
	return s, nil
}

// Migrate applies pending schema migrations for the configured driver.
func (s *Shop) Migrate(ctx context.Context) error {
	fsys, err := migrations.For(s.cfg.Database.Driver)
	if err != nil {
		return err
	}
	conn, err := container.Resolve[*sql.DB](s.Container)
	if err != nil {
		return err
	}
	return db.Migrate(ctx, conn, s.cfg.Database, fsys, s.log)
}

// Run serves until ctx is canceled or the process receives SIGINT/SIGTERM,
// then releases every resource.
func (s *Shop) Run(ctx context.Context) error {
	return s.App.Run(
		storefront.WithContext(ctx),
		storefront.Address(s.cfg.App.Address),
		storefront.Logger(s.log),
		storefront.ServerTimeouts(0, s.cfg.App.RequestTimeout+writeGrace, 0),
		storefront.ShutdownTimeout(s.cfg.App.ShutdownTimeout),
		storefront.ShutdownHook(s.Close),
	)
}

// Logger returns the application logger.
func (s *Shop) Logger() *slog.Logger { return s.log }

// Close runs the shutdown hooks in reverse order of acquisition.
func (s *Shop) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.hooks) - 1; i >= 0; i-- {
		if err := s.hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.hooks = nil
	return errors.Join(errs...)
}

func (s *Shop) fail(ctx context.Context, err error) error {
	return errors.Join(err, s.Close(ctx))
}
