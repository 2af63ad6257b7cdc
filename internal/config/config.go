// Package config loads gateway configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding file values.
// Nested keys are separated by a double underscore: ROUTER_APQ__ENABLED.
const EnvPrefix = "ROUTER_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	APQ       APQConfig       `koanf:"apq"`
	Store     StoreConfig     `koanf:"store"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// APQConfig controls the persisted query stage.
type APQConfig struct {
	// Enabled turns the stage on. When false the gate forwards every
	// operation unchanged, whatever its extensions say.
	Enabled bool `koanf:"enabled"`
	// Manifest is an optional Apollo persisted query manifest loaded into the
	// store at startup.
	Manifest string `koanf:"manifest"`
}

// StoreConfig selects and sizes the query store backend.
type StoreConfig struct {
	Type     string         `koanf:"type"` // memory, sturdyc, sqlite, mysql, postgres, tiered
	Capacity int            `koanf:"capacity"`
	TTL      time.Duration  `koanf:"ttl"`    // sturdyc only
	Shards   int            `koanf:"shards"` // sturdyc only
	Database DatabaseConfig `koanf:"database"`
}

// DatabaseConfig is the SQL backend configuration.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres, mysql
	DSN    string `koanf:"dsn"`    // Data source name / connection string
}

type UpstreamConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// Store backend names.
const (
	StoreMemory   = "memory"
	StoreSturdyc  = "sturdyc"
	StoreSQLite   = "sqlite"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreTiered   = "tiered"
)

var defaults = map[string]any{
	"server.port":            8080,
	"server.timeout":         "30s",
	"apq.enabled":            true,
	"store.type":             StoreMemory,
	"store.capacity":         1000,
	"store.ttl":              "24h",
	"store.shards":           64,
	"upstream.timeout":       "30s",
	"telemetry.service_name": "apq-router",
}

// Load reads path (if it exists) and then the environment, which overrides
// file values. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	for key, val := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, val); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks whether the configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &Error{Field: "server.port", Message: "must be between 1 and 65535"}
	}

	if c.Store.Capacity <= 0 {
		return &Error{Field: "store.capacity", Message: "must be greater than 0"}
	}

	switch c.Store.Type {
	case StoreMemory:
	case StoreSturdyc:
		if c.Store.TTL <= 0 {
			return &Error{Field: "store.ttl", Message: "must be greater than 0"}
		}
		if c.Store.Shards <= 0 {
			return &Error{Field: "store.shards", Message: "must be greater than 0"}
		}
		if c.Store.Shards > c.Store.Capacity {
			return &Error{Field: "store.shards", Message: "must not exceed store.capacity"}
		}
	case StoreSQLite, StoreMySQL, StorePostgres, StoreTiered:
		if c.Store.Database.DSN == "" {
			return &Error{Field: "store.database.dsn", Message: "required for " + c.Store.Type + " store"}
		}
	default:
		return &Error{Field: "store.type", Message: "unknown store type " + c.Store.Type}
	}

	if c.Upstream.URL == "" {
		return &Error{Field: "upstream.url", Message: "required"}
	}

	return nil
}

// DatabaseDriver returns the SQL driver for the configured store. The store
// type doubles as the driver name unless the tiered store is used.
func (c *Config) DatabaseDriver() string {
	if c.Store.Database.Driver != "" {
		return c.Store.Database.Driver
	}
	if c.Store.Type == StoreTiered {
		return StoreSQLite
	}
	return c.Store.Type
}

// Error represents a configuration validation error.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
