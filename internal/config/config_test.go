package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stakegraph/pkg/entity"
	"github.com/matzehuels/stakegraph/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Level() != log.InfoLevel {
		t.Errorf("Level() = %v, want info", cfg.Level())
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
load_sample = true

[server]
addr = "127.0.0.1:9000"
shutdown_timeout = "3s"

[log]
level = "debug"

[snapshot]
backend = "redis"
cache_size = 8

[snapshot.redis]
addr = "redis:6379"
db = 2

[filters]
region = "EMEA"
compliance = "pending"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Level() != log.DebugLevel {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
	if !cfg.LoadSample {
		t.Error("LoadSample = false, want true")
	}
	if cfg.Filters.Region != "EMEA" || cfg.Filters.Compliance != entity.CompliancePending {
		t.Errorf("Filters = %+v", cfg.Filters)
	}

	opts := cfg.SnapshotOptions()
	if opts.Backend != "redis" || opts.CacheSize != 8 {
		t.Errorf("SnapshotOptions() = %+v", opts)
	}
	if opts.Redis.Addr != "redis:6379" || opts.Redis.DB != 2 {
		t.Errorf("Redis = %+v", opts.Redis)
	}
	// Unset keys keep their defaults.
	if opts.Redis.Prefix != "stakegraph:snapshot:" {
		t.Errorf("Redis.Prefix = %q", opts.Redis.Prefix)
	}
	if opts.Mongo.Database != "stakegraph" {
		t.Errorf("Mongo.Database = %q", opts.Mongo.Database)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"unknown key", "[server]\nport = 1\n", errors.ErrCodeInvalidInput},
		{"bad toml", "[server\n", errors.ErrCodeInvalidFormat},
		{"bad backend", "[snapshot]\nbackend = \"s3\"\n", errors.ErrCodeInvalidInput},
		{"bad level", "[log]\nlevel = \"loud\"\n", errors.ErrCodeInvalidInput},
		{"bad compliance", "[filters]\ncompliance = \"fine\"\n", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() without file: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want default", cfg.Server.Addr)
	}

	dir := filepath.Join(home, ".config", "stakegraph")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server]\naddr = \":7000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q, want :7000 from default path", cfg.Server.Addr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STAKEGRAPH_ADDR", ":9999")
	t.Setenv("STAKEGRAPH_SNAPSHOT_BACKEND", "memory")
	t.Setenv("STAKEGRAPH_SNAPSHOT_CACHE", "0")
	t.Setenv("STAKEGRAPH_LOAD_SAMPLE", "true")
	t.Setenv("STAKEGRAPH_FILTER_ENTITY_TYPE", "opco")

	cfg, err := Load(writeConfig(t, "[server]\naddr = \":1234\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q, env should win over file", cfg.Server.Addr)
	}
	if cfg.Snapshot.Backend != "memory" || cfg.Snapshot.CacheSize != 0 {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if !cfg.LoadSample || cfg.Filters.EntityType != "opco" {
		t.Errorf("LoadSample = %v, EntityType = %q", cfg.LoadSample, cfg.Filters.EntityType)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"STAKEGRAPH_SNAPSHOT_CACHE", "many"},
		{"STAKEGRAPH_REDIS_DB", "x"},
		{"STAKEGRAPH_SHUTDOWN_TIMEOUT", "soon"},
		{"STAKEGRAPH_LOAD_SAMPLE", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == tt.key {
					return tt.value, true
				}
				return "", false
			}
			if err := Default().applyEnv(lookup); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("applyEnv() error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("../../examples/config.toml")
	if err != nil {
		t.Fatalf("Load(example) error: %v", err)
	}
	if !cfg.LoadSample || cfg.Snapshot.Backend != "file" {
		t.Errorf("example config = %+v", cfg)
	}
}
