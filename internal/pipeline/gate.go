package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/tinnou/router/internal/core/domain"
	"github.com/tinnou/router/internal/core/ports"
)

// Outcome labels the gate attaches to the request log under LogFieldAPQ.
const (
	LogFieldAPQ = "apq"

	OutcomeDisabled     = "disabled"
	OutcomePassThrough  = "pass_through"
	OutcomeHit          = "hit"
	OutcomeRegistered   = "registered"
	OutcomeNotFound     = "not_found"
	OutcomeHashMismatch = "hash_mismatch"
	OutcomeNotSupported = "not_supported"
	OutcomeError        = "error"
)

// AnnotateFunc records a request-scoped key/value, typically into the
// request log.
type AnnotateFunc func(ctx context.Context, key, value string)

// StageConfig is the configuration for a single stage.
type StageConfig struct {
	Name  string
	Order int
	Stage ports.Stage
}

// GateConfig configures a Gate.
type GateConfig struct {
	Stages     []StageConfig
	Downstream ports.Handler
	// Enabled is the initial state; see Gate.SetEnabled.
	Enabled  bool
	Logger   *slog.Logger
	Annotate AnnotateFunc
}

// Gate runs the configured stages in order in front of a downstream handler.
// A rejecting stage answers the request itself and the downstream handler is
// never called.
type Gate struct {
	stages     []ports.Stage
	downstream ports.Handler
	enabled    atomic.Bool
	logger     *slog.Logger
	annotate   AnnotateFunc
}

var _ ports.Handler = (*Gate)(nil)

// NewGate creates a gate from configuration.
func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Downstream == nil {
		return nil, errors.New("pipeline: downstream handler is required")
	}

	stages := make([]StageConfig, len(cfg.Stages))
	copy(stages, cfg.Stages)
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Order < stages[j].Order
	})

	g := &Gate{
		stages:     make([]ports.Stage, len(stages)),
		downstream: cfg.Downstream,
		logger:     cfg.Logger,
		annotate:   cfg.Annotate,
	}
	for i, s := range stages {
		if s.Stage == nil {
			return nil, fmt.Errorf("pipeline: stage %q has no implementation", s.Name)
		}
		g.stages[i] = s.Stage
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.annotate == nil {
		g.annotate = func(context.Context, string, string) {}
	}
	g.enabled.Store(cfg.Enabled)

	return g, nil
}

// SetEnabled turns the stages on or off. It is safe to call while requests
// are in flight.
func (g *Gate) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

// Enabled reports whether stages run.
func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}

// Serve runs the stages and then, unless a stage rejected the operation or
// failed, the downstream handler with the resulting operation.
func (g *Gate) Serve(ctx context.Context, op *domain.Operation) (*domain.Response, error) {
	if !g.Enabled() {
		g.annotate(ctx, LogFieldAPQ, OutcomeDisabled)
		return g.downstream.Serve(ctx, op)
	}

	current := op
	for _, stage := range g.stages {
		hadQuery := current != nil && current.HasQuery()

		decision, err := stage.Process(ctx, current)
		if err != nil {
			g.annotate(ctx, LogFieldAPQ, OutcomeError)
			g.logger.ErrorContext(ctx, "pipeline stage failed",
				slog.String("stage", stage.Name()),
				slog.String("error", err.Error()),
			)
			return domain.InternalErrorResponse(), nil
		}

		switch decision.Action {
		case ports.ActionReject:
			g.annotate(ctx, LogFieldAPQ, rejectOutcome(decision.Err))
			if decision.Err == nil {
				g.logger.ErrorContext(ctx, "pipeline stage rejected without an error",
					slog.String("stage", stage.Name()),
				)
				return domain.InternalErrorResponse(), nil
			}
			return domain.RejectionResponse(decision.Err), nil
		case ports.ActionContinue:
			if decision.Operation != nil {
				current = decision.Operation
			}
			if hadQuery {
				g.annotate(ctx, LogFieldAPQ, OutcomeRegistered)
			} else {
				g.annotate(ctx, LogFieldAPQ, OutcomeHit)
			}
		case ports.ActionPassThrough:
			g.annotate(ctx, LogFieldAPQ, OutcomePassThrough)
		}
	}

	return g.downstream.Serve(ctx, current)
}

func rejectOutcome(err *domain.APQError) string {
	if err == nil {
		return OutcomeError
	}
	switch err.Kind {
	case domain.KindNotFound:
		return OutcomeNotFound
	case domain.KindHashMismatch:
		return OutcomeHashMismatch
	case domain.KindNotSupported:
		return OutcomeNotSupported
	default:
		return OutcomeError
	}
}
