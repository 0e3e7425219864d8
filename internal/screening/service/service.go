// Package service fans a screening query out over every registered source
// and merges the per-source hits into one result.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"screener/internal/screening"
	"screener/internal/screening/dataset"
	"screener/internal/screening/matcher"
	"screener/internal/screening/metrics"
	"screener/internal/screening/refresher"
	dErrors "screener/pkg/domain-errors"
	"screener/pkg/platform/sentinel"
)

const DefaultQueryTimeout = 10 * time.Second

// ErrAllSourcesFailed is returned when no source could answer a query.
var ErrAllSourcesFailed = errors.New("all sources failed")

// StatusReporter exposes the refresh history of a source.
type StatusReporter interface {
	Status() refresher.Status
}

// Source registers one list with the service. Registration order is the
// order in which hits are returned.
type Source struct {
	Name      string
	Store     *dataset.Store
	Refresher StatusReporter
}

// SourceStatus describes the live snapshot and refresh history of a source.
type SourceStatus struct {
	Name        string
	Loaded      bool
	Records     int
	Candidates  int
	LoadedAt    time.Time
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   string
}

type matchFunc func(ctx context.Context, q screening.Query, candidates []dataset.Candidate, source string) ([]screening.Match, error)

// Service screens queries against all registered sources concurrently.
type Service struct {
	sources []Source
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	match   matchFunc
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithQueryTimeout bounds the whole fan-out. Non-positive values keep the default.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(sources []Source, opts ...Option) (*Service, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if src.Name == "" {
			return nil, errors.New("source name is required")
		}
		if src.Store == nil {
			return nil, fmt.Errorf("source %s: store is required", src.Name)
		}
		if _, dup := seen[src.Name]; dup {
			return nil, fmt.Errorf("source %s: registered twice", src.Name)
		}
		seen[src.Name] = struct{}{}
	}

	s := &Service{
		sources: sources,
		timeout: DefaultQueryTimeout,
		tracer:  otel.Tracer("screener/service"),
		match:   matcher.Match,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

type sourceOutcome struct {
	hits []screening.Match
	err  error
}

// Screen runs q against every source and waits for all of them. A source
// that has no snapshot or fails to match is reported in FailedSources; the
// call only fails when every source did.
func (s *Service) Screen(ctx context.Context, q screening.Query) (*screening.Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "screening.screen",
		trace.WithAttributes(
			attribute.Int("sources", len(s.sources)),
			attribute.Int("min_score", q.MinScore),
			attribute.Bool("has_country", q.Country != ""),
			attribute.Bool("has_dob", q.DOB != nil),
		))
	defer span.End()

	outcomes := make([]sourceOutcome, len(s.sources))
	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			hits, err := s.search(ctx, src, q)
			outcomes[i] = sourceOutcome{hits: hits, err: err}
			// Failures are isolated per source and never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	result := &screening.Result{Hits: []screening.Match{}}
	timedOut := 0
	for i, o := range outcomes {
		name := s.sources[i].Name
		if o.err != nil {
			if errors.Is(o.err, context.DeadlineExceeded) {
				timedOut++
			}
			result.FailedSources = append(result.FailedSources, screening.SourceFailure{
				Source: name,
				Reason: failureReason(o.err),
			})
			s.metrics.IncrementSourceFailure(name)
			s.logger.WarnContext(ctx, "source failed during screening",
				"source", name,
				"error", o.err,
			)
			continue
		}
		result.Hits = append(result.Hits, o.hits...)
	}
	result.TotalHits = len(result.Hits)

	if len(result.FailedSources) == len(s.sources) {
		span.SetStatus(codes.Error, "all sources failed")
		if timedOut == len(s.sources) {
			return nil, dErrors.Wrap(ErrAllSourcesFailed, dErrors.CodeTimeout, "screening timed out")
		}
		return nil, dErrors.Wrap(ErrAllSourcesFailed, dErrors.CodeUnavailable, "no sanctions source is available")
	}

	span.SetAttributes(
		attribute.Int("total_hits", result.TotalHits),
		attribute.Int("failed_sources", len(result.FailedSources)),
	)
	s.metrics.ObserveScreen(time.Since(start), result.TotalHits)
	return result, nil
}

func (s *Service) search(ctx context.Context, src Source, q screening.Query) ([]screening.Match, error) {
	ctx, span := s.tracer.Start(ctx, "screening.search",
		trace.WithAttributes(attribute.String("source", src.Name)))
	defer span.End()

	d := src.Store.Get()
	if d == nil {
		span.SetStatus(codes.Error, "not loaded")
		return nil, fmt.Errorf("source %s: %w", src.Name, sentinel.ErrNotLoaded)
	}

	hits, err := s.match(ctx, q, d.Candidates, src.Name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "match failed")
		return nil, fmt.Errorf("source %s: %w", src.Name, err)
	}
	span.SetAttributes(
		attribute.Int("candidates", len(d.Candidates)),
		attribute.Int("hits", len(hits)),
	)
	return hits, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrNotLoaded):
		return "dataset not loaded"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "search failed"
	}
}

// Sources reports the live snapshot and refresh history of every source in
// registration order.
func (s *Service) Sources() []SourceStatus {
	out := make([]SourceStatus, 0, len(s.sources))
	for _, src := range s.sources {
		st := SourceStatus{Name: src.Name}
		if d := src.Store.Get(); d != nil {
			st.Loaded = true
			st.Records = len(d.Records)
			st.Candidates = len(d.Candidates)
			st.LoadedAt = d.LoadedAt
		}
		if src.Refresher != nil {
			rs := src.Refresher.Status()
			st.LastAttempt = rs.LastAttempt
			st.LastSuccess = rs.LastSuccess
			st.LastError = rs.LastError
		}
		out = append(out, st)
	}
	return out
}
