// Package refresher keeps a source's snapshot current by periodically
// downloading, mapping and publishing it.
package refresher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"screener/internal/screening/dataset"
	"screener/internal/screening/fetch"
	"screener/internal/screening/metrics"
)

//go:generate mockgen -source=refresher.go -destination=mocks/mocks.go -package=mocks Fetcher,Builder

const (
	DefaultInterval     = 300 * time.Second
	DefaultFetchTimeout = 120 * time.Second

	outcomeOK = "ok"
)

// Fetcher downloads the raw table of a source.
type Fetcher interface {
	Fetch(ctx context.Context) (fetch.Table, error)
}

// Builder maps a downloaded table into a snapshot.
type Builder interface {
	Build(t fetch.Table, now time.Time) (*dataset.Dataset, error)
}

// Status describes the refresh history of a source.
type Status struct {
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   string
}

// Refresher publishes new snapshots of one source into a Store.
type Refresher struct {
	name     string
	fetcher  Fetcher
	builder  Builder
	store    *dataset.Store
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time

	mu     sync.RWMutex
	status Status
}

type Option func(*Refresher)

func WithInterval(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(r *Refresher) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Refresher) {
		r.metrics = m
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) {
		r.now = now
	}
}

func New(name string, fetcher Fetcher, builder Builder, store *dataset.Store, opts ...Option) (*Refresher, error) {
	if name == "" {
		return nil, errors.New("source name is required")
	}
	if fetcher == nil || builder == nil {
		return nil, errors.New("fetcher and builder are required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}

	r := &Refresher{
		name:     name,
		fetcher:  fetcher,
		builder:  builder,
		store:    store,
		interval: DefaultInterval,
		timeout:  DefaultFetchTimeout,
		tracer:   otel.Tracer("screener/refresher"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// Name returns the source this refresher maintains.
func (r *Refresher) Name() string {
	return r.name
}

// Store returns the store this refresher publishes into.
func (r *Refresher) Store() *dataset.Store {
	return r.store
}

// Load runs one fetch, build and publish cycle. On failure the previous
// snapshot stays in place.
func (r *Refresher) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "refresher.load",
		trace.WithAttributes(attribute.String("source", r.name)))
	defer span.End()

	start := r.now()
	d, outcome, err := r.cycle(ctx, start)
	elapsed := r.now().Sub(start)
	r.metrics.ObserveRefresh(r.name, outcome, elapsed)
	r.record(start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		r.logger.WarnContext(ctx, "dataset refresh failed",
			"source", r.name,
			"outcome", outcome,
			"error", err,
			"kept_previous", r.store.Loaded(),
		)
		return err
	}

	r.store.Replace(d)
	r.metrics.SetSnapshot(r.name, len(d.Candidates), d.LoadedAt)
	span.SetAttributes(
		attribute.Int("records", len(d.Records)),
		attribute.Int("candidates", len(d.Candidates)),
	)
	r.logger.InfoContext(ctx, "dataset refreshed",
		"source", r.name,
		"records", len(d.Records),
		"candidates", len(d.Candidates),
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

func (r *Refresher) cycle(ctx context.Context, now time.Time) (*dataset.Dataset, string, error) {
	t, err := r.fetcher.Fetch(ctx)
	if err != nil {
		outcome := string(fetch.KindOf(err))
		if outcome == "" {
			outcome = string(fetch.KindFetch)
		}
		return nil, outcome, err
	}
	d, err := r.builder.Build(t, now)
	if err != nil {
		return nil, string(fetch.KindParse), err
	}
	if d == nil {
		return nil, string(fetch.KindParse), errors.New("builder returned no dataset")
	}
	return d, outcomeOK, nil
}

func (r *Refresher) record(at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.LastAttempt = at
	if err != nil {
		r.status.LastError = err.Error()
		return
	}
	r.status.LastSuccess = at
	r.status.LastError = ""
}

// Status returns a copy of the refresh history.
func (r *Refresher) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Run calls Load every interval until ctx is cancelled. It does not perform
// an immediate load; callers run Load once at startup.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "refresher started", "source", r.name, "interval", r.interval.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "refresher stopped", "source", r.name)
			return
		case <-ticker.C:
			// Errors are already logged and counted by Load.
			_ = r.Load(ctx)
		}
	}
}
