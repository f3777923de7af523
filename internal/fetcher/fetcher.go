// Package fetcher issues the browser's upstream queries in generations.
//
// A generation is one batch of fetches started by a single user selection.
// Every generation owns a cancelable context; starting a new generation cancels
// the previous one, so anything still in flight under the old generation
// resolves to serrors.ErrCanceled instead of reaching the view. All failures are
// normalised to an error kind so callers can treat them as "no result":
//
//	identifier not set        -> serrors.ErrBadRequest (nothing is sent)
//	generation superseded     -> serrors.ErrCanceled   (logged at debug)
//	non-success HTTP status   -> serrors.ErrUpstream or ErrNotFound (logged at warn)
//	anything else             -> serrors.ErrUpstream   (logged at error)
package fetcher

import (
	"context"
	"errors"
	"postbrowser/pkg/logger"
	"postbrowser/pkg/metrics"
	"postbrowser/pkg/placeholder"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrSuperseded is the cancellation cause of a generation replaced by a newer one.
var ErrSuperseded = errors.New("generation superseded")

// ErrClosed is the cancellation cause of a generation canceled by Fetcher.Close.
var ErrClosed = errors.New("fetcher closed")

// Options configure a Fetcher.
type Options struct {
	// MeterProvider receives the request counter and latency histogram. The
	// global provider is used when nil.
	MeterProvider metric.MeterProvider
	// TracerProvider receives one client span per upstream query. The global
	// provider is used when nil.
	TracerProvider trace.TracerProvider
}

// Fetcher hands out generations and keeps track of the live one.
type Fetcher struct {
	client placeholder.Client

	requests metric.Int64Counter
	duration metric.Float64Histogram
	tracer   trace.Tracer

	// mu protects current and seq.
	mu      sync.Mutex
	current *Generation
	seq     uint64
}

// New constructs a Fetcher querying client.
func New(client placeholder.Client, opts Options) (*Fetcher, error) {
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("postbrowser/internal/fetcher")

	requests, err := meter.Int64Counter("fetcher.requests",
		metric.WithDescription("Upstream queries by query name and outcome."))
	if err != nil {
		return nil, err //nolint: wrapcheck
	}
	duration, err := meter.Float64Histogram("fetcher.request.duration",
		metric.WithDescription("Upstream query latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...))
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Fetcher{
		client:   client,
		requests: requests,
		duration: duration,
		tracer:   tp.Tracer("postbrowser/internal/fetcher"),
	}, nil
}

// Begin cancels the live generation, if any, and starts a new one derived
// from ctx.
func (f *Fetcher) Begin(ctx context.Context) *Generation {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.cancel(ErrSuperseded)
	}
	f.seq++

	id := uuid.New()
	gctx, cancel := context.WithCancelCause(ctx)
	gctx = logger.WithFields(gctx, zap.String("generation", id.String()), zap.Uint64("seq", f.seq))

	g := &Generation{
		ID:      id,
		Seq:     f.seq,
		ctx:     gctx,
		cancel:  cancel,
		fetcher: f,
	}
	f.current = g
	logger.Debug(gctx, "generation started")

	return g
}

// Detached starts a generation that never becomes the live one: Begin does
// not cancel it and IsCurrent never reports it. It ends with ctx.
func (f *Fetcher) Detached(ctx context.Context) *Generation {
	id := uuid.New()
	gctx, cancel := context.WithCancelCause(ctx)
	gctx = logger.WithFields(gctx, zap.String("generation", id.String()), zap.Bool("detached", true))

	return &Generation{
		ID:      id,
		ctx:     gctx,
		cancel:  cancel,
		fetcher: f,
	}
}

// Current returns the live generation, or nil before the first Begin.
func (f *Fetcher) Current() *Generation {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.current
}

// IsCurrent reports whether g is the live generation and has not been canceled.
func (f *Fetcher) IsCurrent(g *Generation) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return g != nil && f.current == g && g.ctx.Err() == nil
}

// Close cancels the live generation.
func (f *Fetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil {
		f.current.cancel(ErrClosed)
	}
}
