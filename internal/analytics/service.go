// Package analytics runs the fetch, forecast and publish pipeline and keeps
// the cached snapshot fresh for the dashboard server.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/beehiiv-forecast/internal/forecast"
	"github.com/ignite/beehiiv-forecast/internal/metrics"
	"github.com/ignite/beehiiv-forecast/internal/notify"
	"github.com/ignite/beehiiv-forecast/internal/pkg/logger"
	"github.com/ignite/beehiiv-forecast/internal/report"
	"github.com/ignite/beehiiv-forecast/internal/storage"
)

// Clock returns the current time
type Clock func() time.Time

// Fetcher pulls the raw data for one run
type Fetcher interface {
	Fetch(ctx context.Context) (forecast.Input, error)
}

// Renderer turns a snapshot into the text report
type Renderer interface {
	Render(s *forecast.Snapshot) (string, error)
}

// Result is the output of one pipeline run
type Result struct {
	Snapshot  *forecast.Snapshot
	Report    string
	JSON      []byte
	Locations []string
	Duration  time.Duration
}

// Service runs the forecast pipeline end to end
type Service struct {
	fetcher  Fetcher
	engine   *forecast.Engine
	renderer Renderer
	writer   storage.ReportWriter
	notifier notify.Notifier
	clock    Clock
}

// Option configures a Service
type Option func(*Service)

// WithWriter persists every run's report files
func WithWriter(w storage.ReportWriter) Option {
	return func(s *Service) { s.writer = w }
}

// WithNotifier e-mails every run's report
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides time.Now
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService creates a pipeline service
func NewService(fetcher Fetcher, engine *forecast.Engine, renderer Renderer, opts ...Option) *Service {
	s := &Service{
		fetcher:  fetcher,
		engine:   engine,
		renderer: renderer,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run fetches, forecasts, renders and publishes one snapshot. A notification
// failure is logged but does not fail the run.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := s.clock()

	res, err := s.run(ctx)
	duration := s.clock().Sub(start)
	if err != nil {
		metrics.RecordRun("error", duration)
		logger.Error("forecast run failed", "error", err, "duration_ms", duration.Milliseconds())
		return nil, err
	}
	res.Duration = duration

	metrics.RecordRun("success", duration)
	metrics.ObserveSnapshot(res.Snapshot)
	logger.Info("forecast run completed",
		"run_id", res.Snapshot.RunID,
		"subscribers", res.Snapshot.CurrentMetrics.Subscribers,
		"projected", res.Snapshot.Projections.ProjectedSubscribers,
		"status", res.Snapshot.Projections.Status,
		"posts_analyzed", res.Snapshot.PostsAnalyzed,
		"duration_ms", duration.Milliseconds(),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	in, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching beehiiv data: %w", err)
	}

	snap, err := s.engine.Run(s.clock(), in)
	if err != nil {
		return nil, fmt.Errorf("running forecast: %w", err)
	}

	text, err := s.renderer.Render(snap)
	if err != nil {
		return nil, err
	}
	data, err := report.JSON(snap)
	if err != nil {
		return nil, err
	}

	res := &Result{Snapshot: snap, Report: text, JSON: data}

	if s.writer != nil {
		locations, err := s.writer.Write(ctx, storage.Output{
			RunID:       snap.RunID,
			GeneratedAt: snap.GeneratedAt,
			Text:        text,
			JSON:        data,
		})
		if err != nil {
			return nil, fmt.Errorf("saving report: %w", err)
		}
		res.Locations = locations
		logger.Info("report saved", "locations", locations)
	}

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, snap, text); err != nil {
			logger.Warn("report notification failed", "run_id", snap.RunID, "error", err)
		}
	}

	return res, nil
}
