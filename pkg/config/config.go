package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dmitrymomot/storefront/pkg/db"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// EnvPrefix prefixes environment overrides: STOREFRONT_DATABASE_DSN sets database.dsn.
const EnvPrefix = "STOREFRONT"

var (
	ErrRead      = errors.New("config: failed to read file")
	ErrUnmarshal = errors.New("config: failed to decode")
	ErrInvalid   = errors.New("config: invalid value")
)

type Config struct {
	App      App            `mapstructure:"app"`
	Database db.Config      `mapstructure:"database"`
	Redis    Redis          `mapstructure:"redis"`
	Session  Session        `mapstructure:"session"`
	Storage  storage.Config `mapstructure:"storage"`
	Log      logger.Config  `mapstructure:"log"`
}

type App struct {
	Name            string        `mapstructure:"name"`
	Env             string        `mapstructure:"env"`
	Address         string        `mapstructure:"address"`
	StaticDir       string        `mapstructure:"static_dir"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	// Debug exposes error details in 500 responses. Never enable in production.
	Debug bool `mapstructure:"debug"`
}

type Redis struct {
	URL          string        `mapstructure:"url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
}

type Session struct {
	// Driver is "memory" or "redis".
	Driver     string `mapstructure:"driver"`
	CookieName string `mapstructure:"cookie_name"`
	Domain     string `mapstructure:"domain"`
	SameSite   string `mapstructure:"same_site"`
	// Lifetime is the cookie Max-Age; zero makes it a browser session cookie.
	Lifetime time.Duration `mapstructure:"lifetime"`
	// TTL is how long an idle session is kept by the store.
	TTL    time.Duration `mapstructure:"ttl"`
	Secure bool          `mapstructure:"secure"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.name", "storefront")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.address", ":8080")
	v.SetDefault("app.static_dir", "")
	v.SetDefault("app.request_timeout", 30*time.Second)
	v.SetDefault("app.shutdown_timeout", 30*time.Second)
	v.SetDefault("app.max_body_bytes", int64(10<<20))
	v.SetDefault("app.debug", false)

	d := db.DefaultConfig()
	v.SetDefault("database.driver", d.Driver)
	v.SetDefault("database.dsn", d.DSN)
	v.SetDefault("database.migrations_table", d.MigrationsTable)
	v.SetDefault("database.conn_max_idle_time", d.ConnMaxIdleTime)
	v.SetDefault("database.conn_max_lifetime", d.ConnMaxLifetime)
	v.SetDefault("database.query_timeout", d.QueryTimeout)
	v.SetDefault("database.retry_attempts", d.RetryAttempts)
	v.SetDefault("database.retry_interval", d.RetryInterval)
	v.SetDefault("database.max_open_conns", d.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.MaxIdleConns)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("session.driver", "memory")
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("session.domain", "")
	v.SetDefault("session.same_site", "lax")
	v.SetDefault("session.lifetime", time.Duration(0))
	v.SetDefault("session.ttl", 2*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.root", "storage/uploads")
	v.SetDefault("storage.local.public_url", "/uploads")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", storage.DefaultRegion)
	v.SetDefault("storage.s3.public_url", "")
	v.SetDefault("storage.s3.default_acl", string(storage.ACLPublicRead))
	v.SetDefault("storage.s3.path_style", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.sentry_dsn", "")
	v.SetDefault("log.environment", "development")
}

// Load reads defaults, then the optional YAML file at path, then
// STOREFRONT_* environment variables, each layer overriding the previous.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Join(ErrRead, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Session.Driver) {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.Join(ErrInvalid, errors.New("session.driver=redis requires redis.url"))
		}
	default:
		return errors.Join(ErrInvalid, errors.New("session.driver must be memory or redis"))
	}
	switch strings.ToLower(c.Session.SameSite) {
	case "lax", "strict", "none":
	default:
		return errors.Join(ErrInvalid, errors.New("session.same_site must be lax, strict or none"))
	}
	if c.App.Debug && c.IsProduction() {
		return errors.Join(ErrInvalid, errors.New("app.debug must be off in production"))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}
