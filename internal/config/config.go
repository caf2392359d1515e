// Package config reads the feedcache CLI configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the CLI configuration. Every field has an env var; see the tags.
type Config struct {
	URL       string `env:"FEEDCACHE_URL"`
	Provider  string `env:"FEEDCACHE_PROVIDER" envDefault:"file"`
	Path      string `env:"FEEDCACHE_PATH" envDefault:"feedcache.snapshot"`
	RedisAddr string `env:"FEEDCACHE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisKey  string `env:"FEEDCACHE_REDIS_KEY" envDefault:"feedcache"`
	Codec     string `env:"FEEDCACHE_CODEC" envDefault:"cbor"`

	MaxAge    time.Duration `env:"FEEDCACHE_MAX_AGE" envDefault:"168h"`
	QueueSize int           `env:"FEEDCACHE_QUEUE_SIZE" envDefault:"64"`

	LogFormat string `env:"FEEDCACHE_LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"FEEDCACHE_LOG_LEVEL" envDefault:"info"`

	UserAgent   string        `env:"FEEDCACHE_USER_AGENT" envDefault:"feedcache/1"`
	HTTPTimeout time.Duration `env:"FEEDCACHE_HTTP_TIMEOUT" envDefault:"10s"`
}

var (
	providers = []string{"file", "sqlite", "redis"}
	// In-process caches lose the snapshot when the process exits.
	inProcess  = []string{"bigcache", "ristretto"}
	codecs     = []string{"json", "cbor", "msgpack", "proto"}
	logFormats = []string{"text", "json", "zap", "logrus"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Codec = strings.ToLower(strings.TrimSpace(cfg.Codec))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch {
	case oneOf(c.Provider, inProcess):
		errs = append(errs, fmt.Errorf("FEEDCACHE_PROVIDER %q is in-process and does not persist across runs: want one of %s", c.Provider, strings.Join(providers, ", ")))
	case !oneOf(c.Provider, providers):
		errs = append(errs, fmt.Errorf("FEEDCACHE_PROVIDER %q: want one of %s", c.Provider, strings.Join(providers, ", ")))
	}
	if !oneOf(c.Codec, codecs) {
		errs = append(errs, fmt.Errorf("FEEDCACHE_CODEC %q: want one of %s", c.Codec, strings.Join(codecs, ", ")))
	}
	if !oneOf(c.LogFormat, logFormats) {
		errs = append(errs, fmt.Errorf("FEEDCACHE_LOG_FORMAT %q: want one of %s", c.LogFormat, strings.Join(logFormats, ", ")))
	}
	if !oneOf(c.LogLevel, logLevels) {
		errs = append(errs, fmt.Errorf("FEEDCACHE_LOG_LEVEL %q: want one of %s", c.LogLevel, strings.Join(logLevels, ", ")))
	}
	if (c.Provider == "file" || c.Provider == "sqlite") && strings.TrimSpace(c.Path) == "" {
		errs = append(errs, errors.New("FEEDCACHE_PATH is required for file and sqlite providers"))
	}
	if c.MaxAge <= 0 {
		errs = append(errs, errors.New("FEEDCACHE_MAX_AGE must be positive"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("FEEDCACHE_HTTP_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
