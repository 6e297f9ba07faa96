package dbhelper

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"go.uber.org/zap"
)

// Config describes the database connection and pool limits.
type Config struct {
	// Driver is the database driver name (mysql, postgres, sqlite3).
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver" toml:"driver" default:"mysql"`

	// DSN is the data source name passed to the driver.
	DSN string `mapstructure:"dsn" json:"dsn" yaml:"dsn" toml:"dsn"`

	// MaxOpenConns limits the number of open connections.
	MaxOpenConns int `mapstructure:"max-open-conns" json:"maxOpenConns" yaml:"max-open-conns" toml:"max-open-conns" default:"25"`

	// MaxIdleConns limits the number of idle connections.
	MaxIdleConns int `mapstructure:"max-idle-conns" json:"maxIdleConns" yaml:"max-idle-conns" toml:"max-idle-conns" default:"5"`

	// ConnMaxLifetime is the maximum lifetime of a connection in seconds.
	ConnMaxLifetime int `mapstructure:"conn-max-lifetime" json:"connMaxLifetime" yaml:"conn-max-lifetime" toml:"conn-max-lifetime" default:"300"`

	// LogSQL enables per-statement logging at debug level.
	LogSQL bool `mapstructure:"log-sql" json:"logSQL" yaml:"log-sql" toml:"log-sql"`
}

// Validate checks the config invariants.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("dbhelper: dsn is required")
	}
	if _, err := dialectName(c.Driver); err != nil {
		return err
	}
	return nil
}

// dialectName maps a driver name to the ent dialect constant.
func dialectName(driver string) (string, error) {
	switch driver {
	case dialect.MySQL:
		return dialect.MySQL, nil
	case dialect.Postgres:
		return dialect.Postgres, nil
	case dialect.SQLite:
		return dialect.SQLite, nil
	default:
		return "", fmt.Errorf("dbhelper: unsupported driver %q", driver)
	}
}

// Open connects using the given config and returns an ent driver with
// pool limits applied. When LogSQL is set, every statement is logged
// through log at debug level.
func Open(cfg Config, log *zap.Logger) (dialect.Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	name, err := dialectName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	drv, err := entsql.Open(name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("dbhelper: open %s: %w", name, err)
	}

	db := drv.DB()
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if cfg.LogSQL {
		sugar := log.Named("sql").Sugar()
		return dialect.Debug(drv, func(args ...any) {
			sugar.Debug(args...)
		}), nil
	}

	return drv, nil
}

// Ping verifies the connection is alive.
func Ping(ctx context.Context, drv dialect.Driver) error {
	if d, ok := drv.(*entsql.Driver); ok {
		return d.DB().PingContext(ctx)
	}
	// Debug drivers do not expose the underlying pool; issue a no-op query.
	var rows entsql.Rows
	if err := drv.Query(ctx, "SELECT 1", []any{}, &rows); err != nil {
		return err
	}
	return rows.Close()
}
