package db

import "time"

// Config holds database connection parameters. Loaded by pkg/config from the
// "database" section.
type Config struct {
	// Driver is "postgres" (pgx) or "sqlite" (modernc).
	Driver string `mapstructure:"driver"`
	// DSN is a postgres:// URL or an SQLite file name such as "file:shop.db?_pragma=foreign_keys(1)".
	DSN string `mapstructure:"dsn"`

	MigrationsTable string `mapstructure:"migrations_table"`

	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`

	// Connection attempts at startup; the delay grows linearly from RetryInterval.
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`

	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Driver:          "sqlite",
		DSN:             "file:storefront.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		MigrationsTable: "schema_migrations",
		ConnMaxIdleTime: 10 * time.Minute,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Second,
		RetryAttempts:   3,
		RetryInterval:   2 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
	}
}
