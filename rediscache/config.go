package rediscache

import (
	"fmt"
	"time"
)

type Config struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host" toml:"host"`
	Port     string `mapstructure:"port" json:"port" yaml:"port" toml:"port"`
	Password string `mapstructure:"password" json:"password" yaml:"password" toml:"password"`
	DB       int    `mapstructure:"db" json:"db" yaml:"db" toml:"db"`

	// Pool tuning. Zero values fall back to the client defaults.
	PoolSize     int           `mapstructure:"pool-size" json:"poolSize" yaml:"pool-size" toml:"pool-size"`
	MinIdleConns int           `mapstructure:"min-idle-conns" json:"minIdleConns" yaml:"min-idle-conns" toml:"min-idle-conns"`
	DialTimeout  time.Duration `mapstructure:"dial-timeout" json:"dialTimeout" yaml:"dial-timeout" toml:"dial-timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout" json:"idleTimeout" yaml:"idle-timeout" toml:"idle-timeout"`
	MaxConnAge   time.Duration `mapstructure:"max-conn-age" json:"maxConnAge" yaml:"max-conn-age" toml:"max-conn-age"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func configLogFields(cnf Config) string {
	return fmt.Sprintf("addr=%s db=%d password=%s", cnf.Addr(), cnf.DB, redactedPassword(cnf.Password))
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}
