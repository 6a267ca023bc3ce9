// Package portfoliogate serves a portfolio page gated behind a visitor
// registration form, and an admin JSON API with analytics over the
// registered visitors.
//
// Visitors and admins share one server-side session per browser. The
// session cookie carries only a signed random token; the session facts live
// in the database or in Redis.
package portfoliogate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eringen/portfoliogate/analytics"
	"github.com/eringen/portfoliogate/sessionstore"
	"github.com/eringen/portfoliogate/store"
)

// sessionCleanupInterval is how often expired SQL session rows are purged.
const sessionCleanupInterval = time.Hour

// App wires together the store, services, session store and HTTP routes.
type App struct {
	Config      Config
	Echo        *echo.Echo
	Store       *store.Store
	Credentials *Credentials
	Registrar   *Registrar
	Analytics   *analytics.Service

	sessions        *sessionstore.Store
	redis           *redis.Client
	loginLimiter    *Limiter
	registerLimiter *Limiter
	stopCleanup     func()
}

// New creates an App. Call Setup before serving requests.
func New(cfg Config) *App {
	cfg.setDefaults()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &App{Config: cfg, Echo: e}
}

// Setup opens the store, bootstraps the admin account and registers the
// middleware and routes.
func (a *App) Setup(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("portfoliogate: %w", err)
	}

	st, err := store.Open(ctx, a.Config.storeConfig())
	if err != nil {
		return fmt.Errorf("portfoliogate: open store: %w", err)
	}
	a.Store = st

	a.Credentials, err = NewCredentials(st, a.Config.BcryptCost)
	if err != nil {
		return fmt.Errorf("portfoliogate: %w", err)
	}
	created, err := a.Credentials.Bootstrap(ctx, a.Config.AdminUsername, a.Config.AdminPassword)
	if err != nil {
		return fmt.Errorf("portfoliogate: bootstrap admin: %w", err)
	}
	if created {
		a.Echo.Logger.Infof("created admin account %q", a.Config.AdminUsername)
	}

	a.Registrar = NewRegistrar(st)
	a.Analytics = analytics.NewService(st)

	var backend sessionstore.Backend = st
	if a.Config.SessionBackend == "redis" {
		a.redis, err = sessionstore.NewRedisClient(ctx, a.Config.RedisURL)
		if err != nil {
			return fmt.Errorf("portfoliogate: connect redis: %w", err)
		}
		backend = sessionstore.NewRedisBackend(a.redis, "portfoliogate:session:")
	} else {
		a.stopCleanup = st.StartCleanupScheduler(sessionCleanupInterval, func(err error) {
			a.Echo.Logger.Errorf("session cleanup: op=%s", store.FailedOp(err))
		})
	}
	a.sessions = a.newSessionStore(backend)

	a.loginLimiter = NewLimiter(a.Config.LoginRateLimit, time.Minute)
	a.registerLimiter = NewLimiter(a.Config.RegisterRateLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo
	gate := Gate{Sliding: a.Config.SessionSliding}

	// Only the assets subtree is public; the HTML pages sit behind handlers.
	e.Static("/public", filepath.Join(a.Config.StaticDir, "assets"))
	e.GET("/healthz", a.handleHealth)

	e.GET("/", a.handleIndex, gate.RequireVisitor)
	e.GET("/index.html", a.handleIndex, gate.RequireVisitor)
	e.GET("/login", a.handleLoginPage)
	e.GET("/login.html", a.handleLoginPage)

	api := e.Group("/api")
	api.GET("/csrf", handleCSRFToken)
	api.POST("/register", a.handleRegister)
	api.POST("/logout", handleLogout)
	api.POST("/admin/login", a.handleAdminLogin)
	api.POST("/admin/logout", handleAdminLogout)

	stats := analytics.NewHandler(a.Analytics)
	admin := api.Group("/admin", gate.RequireAdmin)
	admin.GET("/me", handleAdminMe)
	stats.RegisterRoutes(admin)
	api.GET("/users", stats.Users, gate.RequireAdmin)
}

// Start serves HTTP on Config.Addr until Shutdown is called.
func (a *App) Start() error {
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close stops background work and releases the store and Redis client.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.registerLimiter != nil {
		a.registerLimiter.Stop()
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
