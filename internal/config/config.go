// Package config loads the directory service settings from the environment.
package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/directory/pkg/db"
	"github.com/dmitrymomot/directory/pkg/job"
	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/redis"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the full service configuration.
type Config struct {
	Log      logger.Config
	Redis    redis.Config
	Database db.Config
	HTTP     HTTP
	App      App
}

// HTTP holds server settings.
type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins     []string      `env:"HTTP_CORS_ORIGINS" envSeparator:","`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"20s"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

// App holds directory behavior settings.
type App struct {
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"directory"`
	BackfillSchedule string        `env:"BACKFILL_SCHEDULE" envDefault:"@hourly"`
	TreeCacheTTL     time.Duration `env:"TREE_CACHE_TTL" envDefault:"5m"`
	SlugRetries      int           `env:"SLUG_RETRY_ATTEMPTS" envDefault:"3"`
	JobWorkers       int           `env:"JOB_WORKERS" envDefault:"10"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := job.ParseSchedule(c.App.BackfillSchedule); err != nil {
		errs = append(errs, err)
	}
	if c.App.SlugRetries < 1 {
		errs = append(errs, errors.New("SLUG_RETRY_ATTEMPTS must be positive"))
	}
	if c.App.TreeCacheTTL < 0 {
		errs = append(errs, errors.New("TREE_CACHE_TTL must not be negative"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
