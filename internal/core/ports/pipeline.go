// Package ports defines the core interfaces for the gateway.
// This file contains the pipeline stage interfaces and the decision type a
// stage returns.
package ports

import (
	"context"

	"github.com/tinnou/router/internal/core/domain"
)

// Action is the outcome class of a pipeline stage.
type Action int

const (
	// ActionPassThrough leaves the operation untouched; the stage was inert.
	ActionPassThrough Action = iota
	// ActionContinue forwards the (possibly rewritten) operation downstream.
	ActionContinue
	// ActionReject answers the request immediately without going downstream.
	ActionReject
)

// String returns the lower-case name of the action.
func (a Action) String() string {
	switch a {
	case ActionPassThrough:
		return "pass_through"
	case ActionContinue:
		return "continue"
	case ActionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Decision is the sole output of a stage.
// Operation is set for ActionContinue, Err for ActionReject.
type Decision struct {
	Action    Action
	Operation *domain.Operation
	Err       *domain.APQError
}

// PassThrough returns an inert decision.
func PassThrough() Decision {
	return Decision{Action: ActionPassThrough}
}

// Continue returns a decision forwarding op.
func Continue(op *domain.Operation) Decision {
	return Decision{Action: ActionContinue, Operation: op}
}

// Reject returns a decision terminating the request with err.
func Reject(err *domain.APQError) Decision {
	return Decision{Action: ActionReject, Err: err}
}

// Stage inspects an operation and decides how the pipeline proceeds.
// A non-nil error is an internal fault, not a protocol rejection.
type Stage interface {
	// Name returns the unique identifier for this stage.
	Name() string
	// Process executes the stage logic.
	Process(ctx context.Context, op *domain.Operation) (Decision, error)
}

// Handler serves an operation and produces a response. Downstream stages and
// the pipeline gate itself both implement it.
type Handler interface {
	Serve(ctx context.Context, op *domain.Operation) (*domain.Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, op *domain.Operation) (*domain.Response, error)

// Serve calls f(ctx, op).
func (f HandlerFunc) Serve(ctx context.Context, op *domain.Operation) (*domain.Response, error) {
	return f(ctx, op)
}
