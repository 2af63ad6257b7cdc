// Package gateway provides the public API for embedding the persisted query
// router. This is the stable API for external consumers.
package gateway

import (
	"github.com/tinnou/router/internal/config"
	"github.com/tinnou/router/internal/core/domain"
	"github.com/tinnou/router/internal/core/ports"
	"github.com/tinnou/router/internal/runtime"
)

// Gateway is the main entry point for running the router.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// Types needed to implement custom stores and downstream handlers.
type (
	Config      = config.Config
	Operation   = domain.Operation
	Response    = domain.Response
	QueryStore  = ports.QueryStore
	Handler     = ports.Handler
	HandlerFunc = ports.HandlerFunc
)

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithFileConfig("config.yaml"),
//	)
var New = runtime.New

// LoadConfig reads a YAML config file overlaid with ROUTER_ environment
// variables.
var LoadConfig = config.Load

// Configuration options
var (
	// Config sources
	WithFileConfig     = runtime.WithFileConfig
	WithConfig         = runtime.WithConfig
	WithConfigProvider = runtime.WithConfigProvider

	// Collaborators
	WithStore      = runtime.WithStore
	WithDownstream = runtime.WithDownstream

	// Observability
	WithLogger   = runtime.WithLogger
	WithRegistry = runtime.WithRegistry
)
