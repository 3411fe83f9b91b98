// Package config loads stakegraph settings.
//
// Settings are resolved in order, later sources winning:
//  1. built-in defaults ([Default])
//  2. a TOML file (--config, or ~/.config/stakegraph/config.toml if present)
//  3. a .env file in the working directory
//  4. STAKEGRAPH_* environment variables
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/snapshot"
	"github.com/matzehuels/stakegraph/pkg/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STAKEGRAPH_"

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Filters  store.Filters  `toml:"filters"`

	// LoadSample seeds the store with the built-in dataset on start.
	LoadSample bool `toml:"load_sample"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type SnapshotConfig struct {
	Backend   string      `toml:"backend"`
	Dir       string      `toml:"dir"`
	CacheSize int         `toml:"cache_size"`
	Redis     RedisConfig `toml:"redis"`
	Mongo     MongoConfig `toml:"mongo"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Snapshot: SnapshotConfig{
			Backend:   snapshot.BackendFile,
			CacheSize: 64,
			Redis:     RedisConfig{Addr: "localhost:6379", Prefix: "stakegraph:snapshot:"},
			Mongo:     MongoConfig{URI: "mongodb://localhost:27017", Database: "stakegraph", Collection: "snapshots"},
		},
	}
}

// DefaultPath returns ~/.config/stakegraph/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stakegraph", "config.toml"), nil
}

// Load resolves the configuration. An explicit path must exist; with an
// empty path the default location is used if a file is there.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(names, ", "))
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s%s", EnvPrefix, name)
		}
		*dst = n
		return nil
	}

	str("ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("SNAPSHOT_BACKEND", &c.Snapshot.Backend)
	str("SNAPSHOT_DIR", &c.Snapshot.Dir)
	str("REDIS_ADDR", &c.Snapshot.Redis.Addr)
	str("REDIS_PASSWORD", &c.Snapshot.Redis.Password)
	str("REDIS_PREFIX", &c.Snapshot.Redis.Prefix)
	str("MONGO_URI", &c.Snapshot.Mongo.URI)
	str("MONGO_DATABASE", &c.Snapshot.Mongo.Database)
	str("MONGO_COLLECTION", &c.Snapshot.Mongo.Collection)
	str("FILTER_REGION", &c.Filters.Region)
	str("FILTER_ENTITY_TYPE", &c.Filters.EntityType)
	if v, ok := lookup(EnvPrefix + "FILTER_COMPLIANCE"); ok {
		c.Filters.Compliance = entity.ComplianceStatus(strings.TrimSpace(v))
	}

	if err := num("SNAPSHOT_CACHE", &c.Snapshot.CacheSize); err != nil {
		return err
	}
	if err := num("REDIS_DB", &c.Snapshot.Redis.DB); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%sSHUTDOWN_TIMEOUT", EnvPrefix)
		}
		c.Server.ShutdownTimeout = d
	}
	if v, ok := lookup(EnvPrefix + "LOAD_SAMPLE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%sLOAD_SAMPLE", EnvPrefix)
		}
		c.LoadSample = b
	}
	return nil
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid log level %q", c.Log.Level)
	}
	switch c.Snapshot.Backend {
	case snapshot.BackendMemory, snapshot.BackendFile, snapshot.BackendRedis, snapshot.BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid snapshot backend %q (want memory, file, redis or mongo)", c.Snapshot.Backend)
	}
	if c.Snapshot.CacheSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "snapshot cache_size must not be negative")
	}
	if s := c.Filters.Compliance; s != "" && !s.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid compliance filter %q", s)
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// SnapshotOptions converts the snapshot section for [snapshot.Open].
func (c *Config) SnapshotOptions() snapshot.Options {
	s := c.Snapshot
	return snapshot.Options{
		Backend:   s.Backend,
		CacheSize: s.CacheSize,
		Dir:       s.Dir,
		Redis: snapshot.RedisConfig{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
			Prefix:   s.Redis.Prefix,
		},
		Mongo: snapshot.MongoConfig{
			URI:        s.Mongo.URI,
			Database:   s.Mongo.Database,
			Collection: s.Mongo.Collection,
		},
	}
}
