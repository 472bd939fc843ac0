package pipeline

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/cwbudde/algo-nmr/nmr/chain"
)

// DefaultGroupConcurrency bounds the spectra processed in parallel by group
// commands.
const DefaultGroupConcurrency = 4

type config struct {
	logger      *slog.Logger
	registerer  prometheus.Registerer
	tracer      trace.Tracer
	concurrency int
	cacheSize   int
}

func defaultConfig() config {
	return config{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:      otel.Tracer("github.com/cwbudde/algo-nmr/nmr/pipeline"),
		concurrency: DefaultGroupConcurrency,
		cacheSize:   chain.DefaultCacheSize,
	}
}

// Option configures a Pipeline.
type Option func(*config)

// WithLogger sets the command logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRegisterer registers the pipeline metrics on r. Without it metrics
// are collected but not exported.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) { c.registerer = r }
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithGroupConcurrency bounds group command parallelism.
func WithGroupConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCacheSize sets the replay prefix cache size of the engine. Zero
// disables the cache.
func WithCacheSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.cacheSize = n
		}
	}
}
