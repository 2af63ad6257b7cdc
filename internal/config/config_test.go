package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ROUTER_UPSTREAM__URL", "http://localhost:4000/graphql")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Timeout != 30*time.Second {
			t.Errorf("timeout = %v, want 30s", cfg.Server.Timeout)
		}
		if !cfg.APQ.Enabled {
			t.Error("apq should be enabled by default")
		}
		if cfg.Store.Type != StoreMemory || cfg.Store.Capacity != 1000 {
			t.Errorf("store = %+v", cfg.Store)
		}
		if cfg.Store.TTL != 24*time.Hour || cfg.Store.Shards != 64 {
			t.Errorf("sturdyc defaults = %v/%d", cfg.Store.TTL, cfg.Store.Shards)
		}
		if cfg.Telemetry.ServiceName != "apq-router" {
			t.Errorf("service name = %q", cfg.Telemetry.ServiceName)
		}
	})

	t.Run("file values", func(t *testing.T) {
		path := writeFile(t, `
server:
  port: 9090
  timeout: 5s
apq:
  enabled: false
  manifest: /etc/router/manifest.json
store:
  type: tiered
  capacity: 50
  database:
    dsn: /var/lib/router/apq.db
upstream:
  url: http://graphql:4000/graphql
  timeout: 2s
telemetry:
  enabled: true
`)

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9090 || cfg.Server.Timeout != 5*time.Second {
			t.Errorf("server = %+v", cfg.Server)
		}
		if cfg.APQ.Enabled || cfg.APQ.Manifest != "/etc/router/manifest.json" {
			t.Errorf("apq = %+v", cfg.APQ)
		}
		if cfg.Store.Type != StoreTiered || cfg.Store.Capacity != 50 {
			t.Errorf("store = %+v", cfg.Store)
		}
		if cfg.DatabaseDriver() != StoreSQLite {
			t.Errorf("DatabaseDriver() = %q, want sqlite", cfg.DatabaseDriver())
		}
		if cfg.Upstream.Timeout != 2*time.Second {
			t.Errorf("upstream timeout = %v", cfg.Upstream.Timeout)
		}
		if !cfg.Telemetry.Enabled {
			t.Error("telemetry should be enabled")
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := writeFile(t, `
server:
  port: 9090
upstream:
  url: http://graphql:4000/graphql
`)
		t.Setenv("ROUTER_SERVER__PORT", "7070")
		t.Setenv("ROUTER_APQ__ENABLED", "false")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 7070 {
			t.Errorf("port = %v, want 7070", cfg.Server.Port)
		}
		if cfg.APQ.Enabled {
			t.Error("apq should be disabled by env")
		}
	})

	t.Run("missing file uses env", func(t *testing.T) {
		t.Setenv("ROUTER_UPSTREAM__URL", "http://localhost:4000/graphql")

		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, "server: [port")
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Store:    StoreConfig{Type: StoreMemory, Capacity: 10, TTL: time.Hour, Shards: 4},
			Upstream: UpstreamConfig{URL: "http://localhost:4000/graphql"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantField: "server.port"},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantField: "server.port"},
		{name: "zero capacity", mutate: func(c *Config) { c.Store.Capacity = 0 }, wantField: "store.capacity"},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Type = "redis" }, wantField: "store.type"},
		{name: "sturdyc without ttl", mutate: func(c *Config) {
			c.Store.Type = StoreSturdyc
			c.Store.TTL = 0
		}, wantField: "store.ttl"},
		{name: "sturdyc without shards", mutate: func(c *Config) {
			c.Store.Type = StoreSturdyc
			c.Store.Shards = 0
		}, wantField: "store.shards"},
		{name: "sturdyc shards above capacity", mutate: func(c *Config) {
			c.Store.Type = StoreSturdyc
			c.Store.Shards = 64
		}, wantField: "store.shards"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Store.Type = StoreSQLite }, wantField: "store.database.dsn"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Type = StorePostgres }, wantField: "store.database.dsn"},
		{name: "missing upstream", mutate: func(c *Config) { c.Upstream.URL = "" }, wantField: "upstream.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *Error", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestDatabaseDriver(t *testing.T) {
	tests := []struct {
		storeType string
		driver    string
		want      string
	}{
		{storeType: StoreSQLite, want: "sqlite"},
		{storeType: StoreMySQL, want: "mysql"},
		{storeType: StorePostgres, want: "postgres"},
		{storeType: StoreTiered, want: "sqlite"},
		{storeType: StoreTiered, driver: "postgres", want: "postgres"},
	}

	for _, tt := range tests {
		cfg := &Config{Store: StoreConfig{Type: tt.storeType, Database: DatabaseConfig{Driver: tt.driver}}}
		if got := cfg.DatabaseDriver(); got != tt.want {
			t.Errorf("DatabaseDriver(%s, %q) = %q, want %q", tt.storeType, tt.driver, got, tt.want)
		}
	}
}
