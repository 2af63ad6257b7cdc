package runtime

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tinnou/router/internal/adapters/config/file"
	"github.com/tinnou/router/internal/config"
	"github.com/tinnou/router/internal/core/ports"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithFileConfig uses file-based configuration with hot-reload (default).
// The path should point to a config.yaml file that will be watched for changes.
func WithFileConfig(path string) Option {
	return func(g *Gateway) error {
		provider, err := file.NewProvider(path, g.logger)
		if err != nil {
			return fmt.Errorf("create file config provider: %w", err)
		}
		g.config = provider
		return nil
	}
}

// WithConfig uses a fixed, already loaded configuration. It is validated
// when the gateway starts.
func WithConfig(cfg *config.Config) Option {
	return func(g *Gateway) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		g.config = &staticConfig{cfg: cfg}
		return nil
	}
}

// WithConfigProvider sets a custom config provider.
// For advanced use cases where you need full control over config loading.
func WithConfigProvider(provider ports.ConfigProvider) Option {
	return func(g *Gateway) error {
		g.config = provider
		return nil
	}
}

// WithLogger sets a custom logger. Pass it before WithFileConfig for the
// config watcher to use it too.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		g.logger = logger
		return nil
	}
}

// WithStore injects the query store instead of building one from the
// store section of the configuration. The caller keeps ownership and
// closes it.
func WithStore(store ports.QueryStore) Option {
	return func(g *Gateway) error {
		g.store = store
		return nil
	}
}

// WithDownstream replaces the upstream proxy with handler. Useful to embed
// the gate in front of an in-process GraphQL executor.
func WithDownstream(handler ports.Handler) Option {
	return func(g *Gateway) error {
		g.downstream = handler
		return nil
	}
}

// WithRegistry registers the gateway metrics on reg and serves it on
// /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(g *Gateway) error {
		g.registry = reg
		return nil
	}
}
