package apq

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tinnou/router/internal/core/domain"
	"github.com/tinnou/router/internal/core/ports"
)

// SupportedVersion is the only persisted query protocol version accepted.
const SupportedVersion = 1

// StageName identifies the persisted query stage in the pipeline.
const StageName = "apq"

const tracerName = "github.com/tinnou/router/internal/apq"

// Protocol is the persisted query pipeline stage.
type Protocol struct {
	store   ports.QueryStore
	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(p *Protocol) { p.metrics = m }
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Protocol) { p.logger = logger }
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Protocol) { p.tracer = tp.Tracer(tracerName) }
}

// New creates the stage around store.
func New(store ports.QueryStore, opts ...Option) *Protocol {
	p := &Protocol{
		store:  store,
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the stage identifier.
func (p *Protocol) Name() string {
	return StageName
}

// Process classifies op and returns the pipeline decision. The returned
// error is non-nil only for store faults and is then an *domain.InternalError.
func (p *Protocol) Process(ctx context.Context, op *domain.Operation) (ports.Decision, error) {
	if op == nil {
		p.metrics.observe(OutcomePassThrough)
		return ports.PassThrough(), nil
	}

	pq, present, parseErr := domain.ParsePersistedQuery(op.Extensions)
	if !present {
		p.metrics.observe(OutcomePassThrough)
		return ports.PassThrough(), nil
	}

	ctx, span := p.tracer.Start(ctx, "apq.Process")
	defer span.End()
	span.SetAttributes(attribute.String("apq.hash", pq.SHA256Hash))

	decision, outcome, err := p.decide(ctx, op, pq, parseErr)
	p.metrics.observe(outcome)
	span.SetAttributes(attribute.String("apq.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return decision, err
}

func (p *Protocol) decide(ctx context.Context, op *domain.Operation, pq domain.PersistedQuery, parseErr error) (ports.Decision, string, error) {
	if parseErr != nil {
		p.logger.DebugContext(ctx, "malformed persisted query extension", slog.String("error", parseErr.Error()))
		return ports.Reject(domain.ErrNotSupported()), OutcomeNotSupported, nil
	}
	if pq.Version != SupportedVersion {
		return ports.Reject(domain.ErrNotSupported()), OutcomeNotSupported, nil
	}

	if !op.HasQuery() {
		return p.lookup(ctx, op, pq.SHA256Hash)
	}

	if !Verify(op.Query, pq.SHA256Hash) {
		return ports.Reject(domain.ErrHashMismatch()), OutcomeHashMismatch, nil
	}

	if err := p.store.Put(ctx, pq.SHA256Hash, op.Query); err != nil {
		p.metrics.storeError("put")
		return ports.Decision{}, OutcomeError, &domain.InternalError{Op: "store put", Err: err}
	}

	return ports.Continue(op), OutcomeRegistered, nil
}

func (p *Protocol) lookup(ctx context.Context, op *domain.Operation, hash string) (ports.Decision, string, error) {
	// Nothing malformed can ever have been stored.
	if !ValidHash(hash) {
		return ports.Reject(domain.ErrNotFound()), OutcomeNotFound, nil
	}

	query, ok, err := p.store.Get(ctx, hash)
	if err != nil {
		p.metrics.storeError("get")
		return ports.Decision{}, OutcomeError, &domain.InternalError{Op: "store get", Err: err}
	}
	if !ok {
		return ports.Reject(domain.ErrNotFound()), OutcomeNotFound, nil
	}

	rewritten := op.Clone()
	rewritten.Query = query
	return ports.Continue(rewritten), OutcomeHit, nil
}
