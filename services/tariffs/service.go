// Package tariffs orchestrates extraction runs: it routes configured
// sites to provider strategies, enforces the one-scrape-at-a-time
// gate the single browser session requires, and keeps the last run's
// outcome per provider for the status API.
package tariffs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"magenta-backend/lib/browser"
	"magenta-backend/lib/report"
	"magenta-backend/lib/scrapers"
	"magenta-backend/lib/tariff"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/tariffs")

var ErrAlreadyRunning = errors.New("a scrape is already running")
var ErrUnknownProvider = errors.New("no configured site matches this provider")

type Site struct {
	Name string `json:"name"`
	Url  string `json:"url"`
}

type Config struct {
	Sites      []Site `json:"sites"`
	OutputFile string `json:"output_file"`
	Port       int    `json:"port"`
	// Headful turns the browser window on for debugging selectors.
	Headful bool `json:"headful"`
}

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Run is the last known outcome for one provider. Records are the
// aggregated output of the most recent successful run; a new run
// replaces them wholesale, there is no merging.
type Run struct {
	Status      Status              `json:"status"`
	Message     string              `json:"message"`
	Timestamp   time.Time           `json:"timestamp"`
	Records     []tariff.Record     `json:"records"`
	Diagnostics []tariff.Diagnostic `json:"diagnostics"`
}

type Service struct {
	cfg      Config
	registry *scrapers.Registry
	// baseCtx bounds background runs to the process lifetime instead
	// of the triggering request
	baseCtx context.Context

	mu      sync.Mutex
	running bool
	current string
	runs    map[string]*Run
}

func NewService(ctx context.Context, cfg Config, registry *scrapers.Registry) *Service {
	return &Service{
		cfg:      cfg,
		registry: registry,
		baseCtx:  ctx,
		runs:     map[string]*Run{},
	}
}

func (s *Service) browserOptions() browser.Options {
	return browser.Options{Headless: !s.cfg.Headful}
}

// siteFor resolves the configured site whose URL the given provider's
// strategy claims. Sites matching no strategy at all are skipped with
// a warning, never treated as errors.
func (s *Service) siteFor(ctx context.Context, provider string) (Site, scrapers.Strategy, error) {
	for _, site := range s.cfg.Sites {
		strategy := s.registry.Match(site.Url)
		if strategy == nil {
			slog.WarnContext(ctx, "no extraction strategy for site, skipping", "site", site.Name, "url", site.Url)
			continue
		}
		if strategy.Provider() == provider {
			return site, strategy, nil
		}
	}
	return Site{}, nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
}

// StartScrape launches a background extraction for provider. A run
// already in flight is rejected; the browser session and the result
// registry are not safe to share between concurrent runs.
func (s *Service) StartScrape(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.current = provider
	// the status query keeps answering with the last good record set
	// while the new run is in flight
	running := &Run{
		Status:    StatusRunning,
		Message:   fmt.Sprintf("extraction for %s started", provider),
		Timestamp: time.Now(),
	}
	if prev, ok := s.runs[provider]; ok {
		running.Records = prev.Records
	}
	s.runs[provider] = running

	go s.runScrape(provider)
	return nil
}

func (s *Service) runScrape(provider string) {
	ctx, span := tracer.Start(s.baseCtx, "runScrape")
	defer span.End()

	run := s.executeProvider(ctx, provider)

	s.mu.Lock()
	s.running = false
	s.current = ""
	// only a successful run replaces the record set; a failure keeps
	// the previous one alongside the error status
	if run.Status == StatusError {
		if prev, ok := s.runs[provider]; ok {
			run.Records = prev.Records
		}
	}
	s.runs[provider] = run
	s.mu.Unlock()
}

func (s *Service) executeProvider(ctx context.Context, provider string) *Run {
	_, span := tracer.Start(ctx, "executeProvider")
	defer span.End()

	diags := &tariff.Diagnostics{}
	finish := func(status Status, message string, records []tariff.Record) *Run {
		if status == StatusError {
			span.SetStatus(codes.Error, message)
		}
		return &Run{
			Status:      status,
			Message:     message,
			Timestamp:   time.Now(),
			Records:     records,
			Diagnostics: diags.Entries(),
		}
	}

	site, strategy, err := s.siteFor(ctx, provider)
	if err != nil {
		span.RecordError(err)
		return finish(StatusError, err.Error(), nil)
	}

	session, err := browser.NewSession(ctx, s.browserOptions())
	if err != nil {
		span.RecordError(err)
		return finish(StatusError, fmt.Sprintf("failed to start browser: %s", err), nil)
	}
	defer session.Close()

	slog.InfoContext(ctx, "extracting tariffs", "provider", provider, "url", site.Url)
	records, err := strategy.Scrape(ctx, session, site.Url, diags)
	if err != nil {
		span.RecordError(err)
		return finish(StatusError, fmt.Sprintf("extraction for %s failed: %s", provider, err), nil)
	}

	ordered := tariff.Aggregate(records)
	capturedAt := time.Now()
	if len(ordered) > 0 && s.cfg.OutputFile != "" {
		err = report.WriteXLSX(s.cfg.OutputFile, ordered, capturedAt)
		if err != nil {
			span.RecordError(err)
			return finish(StatusError, fmt.Sprintf("failed to write report: %s", err), nil)
		}
	}

	// a zero-record run is a valid outcome, the diagnostics tell the
	// operator why it came up empty
	return finish(StatusCompleted, fmt.Sprintf("%d tariffs extracted for %s", len(ordered), provider), ordered)
}

// ScrapeAll extracts every configured site sequentially and writes a
// single consolidated report. Used by the one-shot CLI; the context
// is checked between providers so a deadline aborts cleanly at a
// provider boundary.
func (s *Service) ScrapeAll(ctx context.Context) ([]tariff.Record, []tariff.Diagnostic, error) {
	ctx, span := tracer.Start(ctx, "ScrapeAll")
	defer span.End()

	diags := &tariff.Diagnostics{}
	var all []tariff.Record

	for _, site := range s.cfg.Sites {
		if err := ctx.Err(); err != nil {
			return all, diags.Entries(), err
		}
		strategy := s.registry.Match(site.Url)
		if strategy == nil {
			slog.WarnContext(ctx, "no extraction strategy for site, skipping", "site", site.Name, "url", site.Url)
			diags.Add("dispatch", "no strategy for %s (%s)", site.Name, site.Url)
			continue
		}

		session, err := browser.NewSession(ctx, s.browserOptions())
		if err != nil {
			return all, diags.Entries(), err
		}
		records, err := strategy.Scrape(ctx, session, site.Url, diags)
		session.Close()
		if err != nil {
			// one provider failing leaves the others alone
			span.RecordError(err)
			diags.Add("provider", "%s failed: %s", strategy.Provider(), err)
			continue
		}
		all = append(all, records...)
	}

	ordered := tariff.Aggregate(all)
	if len(ordered) > 0 && s.cfg.OutputFile != "" {
		err := report.WriteXLSX(s.cfg.OutputFile, ordered, time.Now())
		if err != nil {
			return ordered, diags.Entries(), err
		}
	}
	return ordered, diags.Entries(), nil
}

// StatusSnapshot is what the status endpoint reports: every
// provider's last run plus whether something is in flight right now.
type StatusSnapshot struct {
	Providers       map[string]*Run `json:"providers"`
	Status          Status          `json:"status"`
	Message         string          `json:"message"`
	Timestamp       *time.Time      `json:"timestamp"`
	CurrentProvider string          `json:"current_provider"`
}

func (s *Service) Snapshot() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := StatusSnapshot{
		Providers: map[string]*Run{},
		Status:    StatusIdle,
	}
	var latest *Run
	for provider, run := range s.runs {
		copied := *run
		out.Providers[provider] = &copied
		if latest == nil || run.Timestamp.After(latest.Timestamp) {
			latest = run
		}
	}
	if latest != nil {
		out.Status = latest.Status
		out.Message = latest.Message
		ts := latest.Timestamp
		out.Timestamp = &ts
	}
	if s.running {
		out.Status = StatusRunning
		out.CurrentProvider = s.current
	}
	return out
}

func (s *Service) OutputFile() string {
	return s.cfg.OutputFile
}
