package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DBDriver is mysql or sqlite.
	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	// DBHost is e.g. tcp(host:3306) or unix(/cloudsql/instance).
	DBHost                 string `env:"DB_HOST"`
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	SQLitePath             string `env:"SQLITE_PATH" envDefault:"bargain.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	EventsChannel string `env:"EVENTS_CHANNEL" envDefault:"bargain.events"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	AuthDevHeader     bool   `env:"AUTH_DEV_HEADER" envDefault:"false"`

	BargainTTL          time.Duration `env:"BARGAIN_TTL" envDefault:"168h"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SweepBatchSize      int           `env:"SWEEP_BATCH_SIZE" envDefault:"100"`
	AutoResponseEnabled bool          `env:"BARGAIN_AUTO_RESPONSE" envDefault:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "mysql":
		if c.DBUser == "" || c.DBName == "" || (c.DBHost == "" && c.InstanceConnectionName == "") {
			return errors.New("DB_USER, DB_NAME and DB_HOST (or INSTANCE_CONNECTION_NAME) are required for mysql")
		}
	default:
		return errors.New("DB_DRIVER must be mysql or sqlite")
	}
	if c.BargainTTL <= 0 {
		return errors.New("BARGAIN_TTL must be positive")
	}
	if c.SweepBatchSize <= 0 {
		return errors.New("SWEEP_BATCH_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
