// Package config loads coursesync settings.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, a .env
// file, then COURSESYNC_* process environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COURSESYNC_"

// DefaultUser is the learner id used when none is configured.
const DefaultUser = "dev_user_123"

// Config is the full application configuration.
type Config struct {
	User          string      `yaml:"user"`
	Store         Store       `yaml:"store"`
	Collections   Collections `yaml:"collections"`
	Retry         Retry       `yaml:"retry"`
	Queue         Queue       `yaml:"queue"`
	Watch         Watch       `yaml:"watch"`
	Log           Log         `yaml:"log"`
	ChapterWrites bool        `yaml:"chapter_writes"`
}

// Store selects and addresses the document store backend.
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`    // sqlite3 file or postgres connection string
	Addr   string `yaml:"addr"`   // redis host:port
	Prefix string `yaml:"prefix"` // redis key prefix
}

// Collections names the collections used.
type Collections struct {
	Chapters  string `yaml:"chapters"`
	Progress  string `yaml:"progress"`
	Resources string `yaml:"resources"`
}

// Retry configures the write-path retry executor.
type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

// Queue configures the write queues.
type Queue struct {
	Delay time.Duration `yaml:"delay"`
}

// Watch configures the polling refresher.
type Watch struct {
	Interval time.Duration `yaml:"interval"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		User: DefaultUser,
		Store: Store{
			Driver: DriverSQLite,
			DSN:    "coursesync.db",
			Addr:   "localhost:6379",
			Prefix: "coursesync",
		},
		Collections: Collections{
			Chapters:  "chapters",
			Progress:  "userProgress",
			Resources: "resources",
		},
		Retry:         Retry{MaxAttempts: 3, Delay: 500 * time.Millisecond},
		Queue:         Queue{Delay: 500 * time.Millisecond},
		Watch:         Watch{Interval: 30 * time.Second},
		Log:           Log{Level: "info", Format: "text"},
		ChapterWrites: true,
	}
}

// LoadOption adjusts how Load reads its sources.
type LoadOption func(*loader)

type loader struct {
	envFiles []string
	lookup   func(string) (string, bool)
}

// WithEnvFiles replaces the default ".env" file list. Missing files are skipped.
func WithEnvFiles(paths ...string) LoadOption {
	return func(l *loader) {
		l.envFiles = paths
	}
}

// WithLookup replaces os.LookupEnv as the source of process environment.
func WithLookup(fn func(string) (string, bool)) LoadOption {
	return func(l *loader) {
		l.lookup = fn
	}
}

// Load builds a Config. An empty path skips the YAML file; a non-empty path
// must exist.
func Load(path string, opts ...LoadOption) (Config, error) {
	l := loader{envFiles: []string{".env"}, lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(&l)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dotenv, err := readEnvFiles(l.envFiles)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := l.lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readEnvFiles(paths []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, p := range paths {
		vals, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", p, err)
		}
		for k, v := range vals {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("USER", &cfg.User)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("STORE_DSN", &cfg.Store.DSN)
	str("REDIS_ADDR", &cfg.Store.Addr)
	str("REDIS_PREFIX", &cfg.Store.Prefix)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"RETRY_DELAY", &cfg.Retry.Delay},
		{"QUEUE_DELAY", &cfg.Queue.Delay},
		{"WATCH_INTERVAL", &cfg.Watch.Interval},
	}
	for _, d := range durations {
		v, ok := lookup(EnvPrefix + d.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, d.name, err)
		}
		*d.dst = parsed
	}

	if v, ok := lookup(EnvPrefix + "RETRY_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRETRY_ATTEMPTS: %w", EnvPrefix, err)
		}
		cfg.Retry.MaxAttempts = n
	}
	if v, ok := lookup(EnvPrefix + "CHAPTER_WRITES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCHAPTER_WRITES: %w", EnvPrefix, err)
		}
		cfg.ChapterWrites = b
	}
	return nil
}

// Validate checks the configuration for values the rest of the program cannot use.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.User) == "" {
		errs = append(errs, errors.New("user must not be empty"))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver))
		}
	case DriverRedis:
		if c.Store.Addr == "" {
			errs = append(errs, errors.New("store.addr is required for driver redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Collections.Chapters == "" || c.Collections.Progress == "" || c.Collections.Resources == "" {
		errs = append(errs, errors.New("collection names must not be empty"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.Delay < 0 || c.Queue.Delay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.Watch.Interval <= 0 {
		errs = append(errs, errors.New("watch.interval must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
