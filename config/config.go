package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	CORSOrigin string `env:"CORS_ORIGIN"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver         string `env:"DB_DRIVER" envDefault:"postgres"`
	DBURL            string `env:"DB_URL,required,notEmpty"`
	DBMaxConcurrency int    `env:"DB_MAX_CONCURRENCY" envDefault:"4"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	SyncTimeout    time.Duration `env:"SYNC_TIMEOUT" envDefault:"5m"`

	SyncPolicy        string `env:"SYNC_POLICY" envDefault:"patch"`
	SyncIncludeEvents bool   `env:"SYNC_INCLUDE_EVENTS" envDefault:"false"`
	SyncJWTSecret     string `env:"SYNC_JWT_SECRET"`

	SanityProjectID  string `env:"SANITY_PROJECT_ID"`
	SanityDataset    string `env:"SANITY_DATASET" envDefault:"production"`
	SanityToken      string `env:"SANITY_TOKEN"`
	SanityAPIVersion string `env:"SANITY_API_VERSION" envDefault:"2023-05-30"`
	SanityBaseURL    string `env:"SANITY_BASE_URL"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// LoadEnv reads an optional .env file and parses the environment.
func LoadEnv() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found. Using system environment variables.")
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if cfg.DBMaxConcurrency < 1 {
		return Config{}, errors.Errorf("DB_MAX_CONCURRENCY must be positive, got %d", cfg.DBMaxConcurrency)
	}
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
