package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

const tracerName = "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/observability/gateway"

// Gateway decorates a catalog gateway with tracing, logging, and metrics.
type Gateway struct {
	inner   ports.CatalogGateway
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics gatewayMetrics
}

type Option func(*Gateway)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = tr
	}
}

// WithMeter injects the meter used to create gateway metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(g *Gateway) {
		g.metrics = newGatewayMetrics(m)
	}
}

// New wires a decorator around a session's catalog gateway.
func New(inner ports.CatalogGateway, opts ...Option) ports.CatalogGateway {
	g := &Gateway{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newGatewayMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.tracer == nil {
		g.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if g.logger == nil {
		g.logger = defaultLogger()
	}
	return g
}

// Decorator adapts New to the dialer's decorator hook.
func Decorator(opts ...Option) func(ports.CatalogGateway) ports.CatalogGateway {
	return func(inner ports.CatalogGateway) ports.CatalogGateway {
		return New(inner, opts...)
	}
}

func (g *Gateway) ListBreeds(ctx context.Context) ([]string, error) {
	ctx, span := g.startSpan(ctx, "CatalogGateway.ListBreeds")
	defer span.End()
	start := time.Now()

	breeds, err := g.inner.ListBreeds(ctx)
	g.metrics.recordCall(ctx, "breeds", start, err)
	if err != nil {
		return nil, g.handleError(ctx, span, err, "failed to list breeds")
	}
	span.SetAttributes(attribute.Int("catalog.breeds.count", len(breeds)))
	return breeds, nil
}

func (g *Gateway) Search(ctx context.Context, criteria domain.Criteria, cursor domain.Cursor) (domain.ResultPage, error) {
	attrs := []attribute.KeyValue{
		attribute.StringSlice("catalog.search.breeds", criteria.Breeds),
		attribute.String("catalog.search.sort", criteria.Sort.String()),
		attribute.Int("catalog.search.size", criteria.PageSize),
		attribute.Bool("catalog.search.cursor", cursor != ""),
	}
	ctx, span := g.startSpan(ctx, "CatalogGateway.Search", attrs...)
	defer span.End()
	start := time.Now()

	g.logDebug(ctx, "searching catalog", slog.Any("breeds", criteria.Breeds), slog.String("cursor", string(cursor)))
	page, err := g.inner.Search(ctx, criteria, cursor)
	g.metrics.recordCall(ctx, "search", start, err)
	if err != nil {
		return domain.ResultPage{}, g.handleError(ctx, span, err, "failed to search catalog", slog.String("cursor", string(cursor)))
	}
	span.SetAttributes(attribute.Int("catalog.search.results", len(page.IDs)), attribute.Int("catalog.search.total", page.Total))
	return page, nil
}

func (g *Gateway) Hydrate(ctx context.Context, ids []string) ([]domain.Dog, error) {
	ctx, span := g.startSpan(ctx, "CatalogGateway.Hydrate", attribute.Int("catalog.hydrate.requested", len(ids)))
	defer span.End()
	start := time.Now()

	dogs, err := g.inner.Hydrate(ctx, ids)
	g.metrics.recordCall(ctx, "hydrate", start, err)
	if err != nil {
		return nil, g.handleError(ctx, span, err, "failed to hydrate dogs", slog.Int("ids", len(ids)))
	}
	span.SetAttributes(attribute.Int("catalog.hydrate.returned", len(dogs)))
	return dogs, nil
}

func (g *Gateway) Match(ctx context.Context, ids []string) (string, error) {
	ctx, span := g.startSpan(ctx, "CatalogGateway.Match", attribute.Int("catalog.match.candidates", len(ids)))
	defer span.End()
	start := time.Now()

	id, err := g.inner.Match(ctx, ids)
	g.metrics.recordCall(ctx, "match", start, err)
	if err != nil {
		return "", g.handleError(ctx, span, err, "failed to request match", slog.Int("candidates", len(ids)))
	}
	span.SetAttributes(attribute.String("dog.id", id))
	g.logInfo(ctx, "match found", slog.String("dog.id", id), slog.Int("candidates", len(ids)))
	return id, nil
}

func (g *Gateway) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func (g *Gateway) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	g.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (g *Gateway) logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	g.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func (g *Gateway) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	level := slog.LevelError
	// an expired session is routine, not an outage
	if errors.Is(err, ports.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		level = slog.LevelWarn
	}
	g.logger.LogAttrs(ctx, level, msg, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type gatewayMetrics struct {
	calls    metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

func newGatewayMetrics(m metric.Meter) gatewayMetrics {
	if m == nil {
		return gatewayMetrics{}
	}
	calls, _ := m.Int64Counter("catalog.gateway.calls", metric.WithDescription("Calls made to the dog catalog"))
	failures, _ := m.Int64Counter("catalog.gateway.failures", metric.WithDescription("Failed calls to the dog catalog"))
	latency, _ := m.Float64Histogram("catalog.gateway.duration", metric.WithDescription("Dog catalog call latency"), metric.WithUnit("ms"))
	return gatewayMetrics{calls: calls, failures: failures, latency: latency}
}

func (m gatewayMetrics) recordCall(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("catalog.op", op))
	if m.calls != nil {
		m.calls.Add(ctx, 1, attrs)
	}
	if err != nil && m.failures != nil {
		m.failures.Add(ctx, 1, attrs, metric.WithAttributes(attribute.String("catalog.failure", failureKind(err))))
	}
	if m.latency != nil {
		m.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ports.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ports.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

var _ ports.CatalogGateway = (*Gateway)(nil)
