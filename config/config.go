package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/wishwell/wishwell/connector"
	"github.com/wishwell/wishwell/dialect"
)

// EnvPrefix is the envconfig prefix for all settings.
const EnvPrefix = "wishwell"

type Config struct {
	App AppConfig
	DB  DBConfig
}

type AppConfig struct {
	Env      string `envconfig:"WISHWELL_APP_ENV" default:"development"`
	LogLevel string `envconfig:"WISHWELL_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "development")
}

type DBConfig struct {
	Dialect  string `envconfig:"WISHWELL_DB_DIALECT" default:"sqlite"`
	Host     string `envconfig:"WISHWELL_DB_HOST"`
	Port     int    `envconfig:"WISHWELL_DB_PORT"`
	Name     string `envconfig:"WISHWELL_DB_NAME" default:"wishwell"`
	User     string `envconfig:"WISHWELL_DB_USER"`
	Password string `envconfig:"WISHWELL_DB_PASSWORD"`
	SSLMode  string `envconfig:"WISHWELL_DB_SSLMODE"`
	Path     string `envconfig:"WISHWELL_DB_PATH" default:"wishwell.db"`

	MaxOpenConns    int           `envconfig:"WISHWELL_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"WISHWELL_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"WISHWELL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WISHWELL_DB_CONN_MAX_IDLE_TIME" default:"30m"`
	ConnectTimeout  time.Duration `envconfig:"WISHWELL_DB_CONNECT_TIMEOUT" default:"10s"`

	ConnectRetries    int           `envconfig:"WISHWELL_DB_CONNECT_RETRIES" default:"0"`
	ConnectRetryDelay time.Duration `envconfig:"WISHWELL_DB_CONNECT_RETRY_DELAY" default:"1s"`
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, ok := dialect.ByName(c.DB.Dialect); !ok {
		return fmt.Errorf("unsupported dialect %q", c.DB.Dialect)
	}
	return nil
}

// Connector maps the database settings onto a connector config.
func (db DBConfig) Connector() connector.Config {
	cc := connector.Config{
		Dialect:        db.Dialect,
		Host:           db.Host,
		Port:           db.Port,
		Database:       db.Name,
		Username:       db.User,
		Password:       db.Password,
		SSLMode:        db.SSLMode,
		Path:           db.Path,
		ConnectTimeout: db.ConnectTimeout,
		Pool: connector.PoolConfig{
			MaxOpen:     db.MaxOpenConns,
			MaxIdle:     db.MaxIdleConns,
			MaxLifetime: db.ConnMaxLifetime,
			MaxIdleTime: db.ConnMaxIdleTime,
		},
	}
	if db.ConnectRetries > 0 {
		cc.Retry = &connector.RetryConfig{
			MaxRetries: db.ConnectRetries,
			BaseDelay:  db.ConnectRetryDelay,
		}
	}
	return cc
}
