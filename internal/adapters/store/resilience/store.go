// Package resilience decorates a quote store with a circuit breaker,
// OpenTelemetry spans and metrics, and Prometheus collectors.
//
// Only infrastructure faults trip the breaker. Not-found and validation
// results are normal answers from a healthy store, and calls abandoned by a
// canceled caller say nothing about the store at all.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-api/internal/domain"
	"github.com/jsamuelsen/quote-api/internal/platform/logging"
	"github.com/jsamuelsen/quote-api/internal/ports"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-api/store"

	// ServiceName identifies the store in unavailable errors and health checks.
	ServiceName = "quote-store"

	// ReasonCircuitOpen is the UnavailableError reason for rejected calls.
	ReasonCircuitOpen = "circuit breaker open"
)

// Call outcomes used as metric labels.
const (
	resultSuccess  = "success"
	resultMiss     = "miss"
	resultFailure  = "failure"
	resultCanceled = "canceled"
	resultRejected = "rejected"
)

// Store is a ports.QuoteStore that guards another store.
type Store struct {
	next    ports.QuoteStore
	breaker *Breaker
	logger  *slog.Logger
	tracer  trace.Tracer

	duration metric.Float64Histogram
	calls    *prometheus.CounterVec
	state    prometheus.Gauge
}

type options struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	registerer     prometheus.Registerer
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithRegisterer sets where the Prometheus collectors are registered.
// Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// New wraps next with a breaker built from cfg.
func New(next ports.QuoteStore, cfg BreakerConfig, opts ...Option) (*Store, error) {
	o := options{
		logger:         slog.Default(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		registerer:     prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(&o)
	}

	duration, err := o.meterProvider.Meter(instrumentationName).Float64Histogram(
		"quote_store.operation.duration",
		metric.WithDescription("Duration of quote store operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	calls, err := register(o.registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_store_operations_total",
		Help: "Quote store operations by outcome.",
	}, []string{"operation", "result"}))
	if err != nil {
		return nil, fmt.Errorf("registering operations counter: %w", err)
	}

	state, err := register(o.registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quote_store_circuit_state",
		Help: "Quote store circuit breaker state (0 closed, 1 open, 2 half-open).",
	}))
	if err != nil {
		return nil, fmt.Errorf("registering circuit state gauge: %w", err)
	}

	s := &Store{
		next:     next,
		breaker:  NewBreaker(cfg),
		logger:   o.logger.With(slog.String("component", "resilience.Store")),
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		duration: duration,
		calls:    calls,
		state:    state,
	}

	s.state.Set(float64(StateClosed))
	s.breaker.OnStateChange(s.stateChanged)

	return s, nil
}

// register adds c to reg, reusing an identical collector that is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	var zero C

	return zero, err
}

// Breaker exposes the underlying circuit breaker.
func (s *Store) Breaker() *Breaker {
	return s.breaker
}

func (s *Store) stateChanged(from, to State) {
	s.state.Set(float64(to))

	level := slog.LevelWarn
	if to == StateClosed {
		level = slog.LevelInfo
	}

	s.logger.Log(context.Background(), level, "quote store circuit breaker state changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// List implements ports.QuoteStore.
func (s *Store) List(ctx context.Context) ([]*domain.Quote, error) {
	return call(ctx, s, "List", s.next.List)
}

// Get implements ports.QuoteStore.
func (s *Store) Get(ctx context.Context, id string) (*domain.Quote, error) {
	return call(ctx, s, "Get", func(ctx context.Context) (*domain.Quote, error) {
		return s.next.Get(ctx, id)
	})
}

// Random implements ports.QuoteStore.
func (s *Store) Random(ctx context.Context) (*domain.Quote, error) {
	return call(ctx, s, "Random", s.next.Random)
}

// Create implements ports.QuoteStore.
func (s *Store) Create(ctx context.Context, in domain.QuoteInput) (*domain.Quote, error) {
	return call(ctx, s, "Create", func(ctx context.Context) (*domain.Quote, error) {
		return s.next.Create(ctx, in)
	})
}

// Update implements ports.QuoteStore.
func (s *Store) Update(ctx context.Context, q *domain.Quote) error {
	_, err := call(ctx, s, "Update", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.next.Update(ctx, q)
	})

	return err
}

// Delete implements ports.QuoteStore.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := call(ctx, s, "Delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.next.Delete(ctx, id)
	})

	return err
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return ServiceName
}

// Check implements ports.HealthChecker. An open circuit is unhealthy;
// otherwise the wrapped store's own check is used when it has one.
func (s *Store) Check(ctx context.Context) error {
	if s.breaker.State() == StateOpen {
		return domain.NewUnavailableError(ServiceName, ReasonCircuitOpen)
	}

	if hc, ok := s.next.(ports.HealthChecker); ok {
		return hc.Check(ctx)
	}

	return nil
}

func call[T any](ctx context.Context, s *Store, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "QuoteStore."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("store.operation", op)),
	)
	defer span.End()

	var zero T

	if !s.breaker.Allow() {
		err := domain.NewUnavailableError(ServiceName, ReasonCircuitOpen)
		span.SetStatus(codes.Error, err.Error())
		s.record(ctx, op, resultRejected, 0)

		return zero, err
	}

	start := time.Now()
	v, err := fn(ctx)
	elapsed := time.Since(start)

	result := classify(ctx, err)

	switch result {
	case resultFailure:
		s.breaker.Failure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.FromContextOr(ctx, s.logger).WarnContext(ctx, "quote store operation failed",
			slog.String("operation", op),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
	case resultCanceled:
		s.breaker.Release()
		span.SetStatus(codes.Error, err.Error())
	default:
		s.breaker.Success()
	}

	span.SetAttributes(attribute.String("store.result", result))
	s.record(ctx, op, result, elapsed)

	return v, err
}

// classify maps a store error onto a metric result. Only resultFailure
// counts against the breaker.
func classify(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case domain.IsNotFound(err), domain.IsValidation(err):
		return resultMiss
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return resultCanceled
	default:
		return resultFailure
	}
}

func (s *Store) record(ctx context.Context, op, result string, elapsed time.Duration) {
	s.calls.WithLabelValues(op, result).Inc()
	s.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("store.operation", op),
		attribute.String("store.result", result),
	))
}
