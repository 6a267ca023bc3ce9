package portfoliogate

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/portfoliogate/store"
)

// MinBcryptCost is the lowest work factor accepted from configuration.
const MinBcryptCost = 12

// Config holds all configuration for a portfoliogate server.
type Config struct {
	Addr string // Listen address (default ":3000")

	DatabaseDriver string        // "sqlite" (default) or "postgres"
	DatabaseURL    string        // PostgreSQL DSN
	DatabasePath   string        // SQLite path (default "data/portfolio.db")
	DBMaxConns     int           // Connection pool size (default 10)
	DBTimeout      time.Duration // Per-query timeout (default 5s)

	SessionSecret        string        // Required: signs session tokens, at least 32 bytes
	SessionEncryptionKey string        // Optional: 16, 24 or 32 bytes, encrypts session tokens
	SessionBackend       string        // "sql" (default) or "redis"
	RedisURL             string        // Required when SessionBackend is "redis"
	SessionMaxAge        time.Duration // Absolute session lifetime (default 24h)
	SessionSliding       bool          // Renew the lifetime on every gated request
	// CookieInsecure drops the Secure attribute and falls back to
	// SameSite=Lax. Only for local development over plain HTTP.
	CookieInsecure bool

	AllowedOrigins []string // Cross-origin clients allowed to send credentials

	AdminUsername string // Bootstrap admin (default "admin")
	AdminPassword string // Required: bootstrap admin password
	BcryptCost    int    // default 12

	StaticDir string // Portfolio pages and assets (default "public")

	LoginRateLimit    int // Failed admin logins per IP per minute, 0 disables (default 5)
	RegisterRateLimit int // Registrations per IP per minute, 0 disables (default 30)

	LogLevel string // debug, info, warn, error (default "info")
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = string(store.DialectSQLite)
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/portfolio.db"
	}
	if c.DBMaxConns == 0 {
		c.DBMaxConns = 10
	}
	if c.DBTimeout == 0 {
		c.DBTimeout = 5 * time.Second
	}
	if c.SessionBackend == "" {
		c.SessionBackend = "sql"
	}
	if c.SessionMaxAge == 0 {
		c.SessionMaxAge = 24 * time.Hour
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = MinBcryptCost
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	if c.AdminPassword == "" {
		return errors.New("AdminPassword is required")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SessionSecret must be at least 32 bytes")
	}
	switch len(c.SessionEncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return errors.New("SessionEncryptionKey must be 16, 24 or 32 bytes")
	}
	switch store.Dialect(c.DatabaseDriver) {
	case store.DialectSQLite:
	case store.DialectPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DatabaseURL is required for postgres")
		}
	default:
		return fmt.Errorf("unknown DatabaseDriver %q", c.DatabaseDriver)
	}
	switch c.SessionBackend {
	case "sql":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("RedisURL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown SessionBackend %q", c.SessionBackend)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BcryptCost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.SessionMaxAge < time.Minute {
		return errors.New("SessionMaxAge must be at least one minute")
	}
	return nil
}

// storeConfig translates the database settings for store.Open.
func (c *Config) storeConfig() store.Config {
	return store.Config{
		Dialect:      store.Dialect(c.DatabaseDriver),
		DSN:          c.DatabaseURL,
		Path:         c.DatabasePath,
		MaxOpenConns: c.DBMaxConns,
		QueryTimeout: c.DBTimeout,
	}
}

// LoadConfig reads the configuration from the environment, after loading a
// .env file from the working directory if one exists. Production deployments
// must keep BCRYPT_COST at MinBcryptCost or above.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Addr:                 listenAddr(),
		DatabaseDriver:       os.Getenv("DB_DRIVER"),
		DatabaseURL:          databaseURL(),
		DatabasePath:         EnvOr("DATABASE_PATH", "data/portfolio.db"),
		SessionSecret:        os.Getenv("SESSION_SECRET"),
		SessionEncryptionKey: os.Getenv("SESSION_ENCRYPTION_KEY"),
		SessionBackend:       EnvOr("SESSION_BACKEND", "sql"),
		RedisURL:             os.Getenv("REDIS_URL"),
		AllowedOrigins:       SplitList(os.Getenv("ALLOWED_ORIGINS")),
		AdminUsername:        EnvOr("ADMIN_USERNAME", "admin"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		StaticDir:            EnvOr("STATIC_DIR", "public"),
		LogLevel:             EnvOr("LOG_LEVEL", "info"),
		LoginRateLimit:       5,
		RegisterRateLimit:    30,
	}
	if cfg.DatabaseDriver == "" && cfg.DatabaseURL != "" {
		cfg.DatabaseDriver = string(store.DialectPostgres)
	}

	var err error
	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", 0); err != nil {
		return Config{}, err
	}
	if cfg.DBTimeout, err = envDuration("DB_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.SessionMaxAge, err = envDuration("SESSION_MAX_AGE", 0); err != nil {
		return Config{}, err
	}
	if cfg.SessionSliding, err = envBool("SESSION_SLIDING", false); err != nil {
		return Config{}, err
	}
	if cfg.CookieInsecure, err = envBool("COOKIE_INSECURE", false); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = envInt("BCRYPT_COST", 0); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost != 0 && cfg.BcryptCost < MinBcryptCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be at least %d", MinBcryptCost)
	}
	if cfg.LoginRateLimit, err = envInt("LOGIN_RATE_LIMIT", cfg.LoginRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.RegisterRateLimit, err = envInt("REGISTER_RATE_LIMIT", cfg.RegisterRateLimit); err != nil {
		return Config{}, err
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// listenAddr honours ADDR, then PORT.
func listenAddr() string {
	if v := os.Getenv("ADDR"); v != "" {
		return v
	}
	if v := os.Getenv("PORT"); v != "" {
		return ":" + v
	}
	return ""
}

// databaseURL returns DATABASE_URL, or builds a PostgreSQL URL from the
// DB_HOST/DB_PORT/DB_USER/DB_PASS/DB_NAME variables when DB_HOST is set.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		host += ":" + port
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASS")),
		Host:   host,
		Path:   "/" + os.Getenv("DB_NAME"),
	}
	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(mode)
	}
	return u.String()
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
