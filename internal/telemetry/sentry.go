// Package telemetry wraps Sentry tracing for the search and chunking paths.
package telemetry

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/logging"
)

const (
	serverName   = "panelsearch"
	flushTimeout = 5 * time.Second
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
	Logger           *zap.Logger
}

// Init starts the Sentry client and returns a flush function. Without a DSN
// it does nothing, and a client that fails to start is logged and skipped.
func Init(cfg Config) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return noop, nil
	}
	logger := logging.OrNop(cfg.Logger)

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	rate := cfg.TracesSampleRate
	if rate <= 0 {
		rate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: rate,
		Debug:            cfg.Debug,
		ServerName:       serverName,
		TracesSampler: func(sc sentry.SamplingContext) float64 {
			return sampleRate(sc.Span, rate)
		},
	})
	if err != nil {
		logger.Warn("sentry init failed, tracing disabled", zap.Error(err))
		return noop, nil
	}

	logger.Info("sentry tracing enabled",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", rate),
	)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// sampleRate drops health checks and keeps child spans with their parent.
func sampleRate(span *sentry.Span, rate float64) float64 {
	if span == nil {
		return rate
	}
	if strings.HasSuffix(span.Name, "/health") {
		return 0
	}
	if span.ParentSpanID != (sentry.SpanID{}) {
		if span.Sampled.Bool() {
			return 1
		}
		return 0
	}
	return rate
}

// SpanAttributes are the tags attached to service spans. Empty fields are
// left off.
type SpanAttributes struct {
	Operation  string
	SourceFile string
	VectorUUID string
}

func (a SpanAttributes) apply(span *sentry.Span) {
	tags := map[string]string{
		"source_file": a.SourceFile,
		"vector_uuid": a.VectorUUID,
	}
	for k, v := range tags {
		if v != "" {
			span.SetTag(k, v)
		}
	}
	if a.Operation != "" {
		span.SetData("operation", a.Operation)
	}
}

// Span is a nil-safe handle on a Sentry span.
type Span struct {
	inner *sentry.Span
}

// StartSpan opens a child of the span already in ctx, or a new transaction
// when there is none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}
	attrs.apply(span)
	return span.Context(), &Span{inner: span}
}

// End finishes the span.
func (s *Span) End() {
	if s != nil && s.inner != nil {
		s.inner.Finish()
	}
}

// SetCount records a result size such as chunks written or panels matched.
func (s *Span) SetCount(key string, n int) {
	if s != nil && s.inner != nil {
		s.inner.SetData(key, n)
	}
}

// SetError marks the span failed and reports err to the span's hub.
func (s *Span) SetError(err error) {
	if s == nil || s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

// Status reports the span status, "" for a nil span.
func (s *Span) Status() string {
	if s == nil || s.inner == nil {
		return ""
	}
	return s.inner.Status.String()
}
