// Package snapshot fetches the bulk window snapshot that initializes an
// aggregator: the window's events, the entity name index and the feed cursor.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
	"github.com/menulens/menulens/internal/core/analytics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// ErrSnapshotFetchFailed matches every error returned by Provider.Fetch.
var ErrSnapshotFetchFailed = errors.New("snapshot fetch failed")

// FetchError describes which part of a snapshot fetch failed.
type FetchError struct {
	WindowDays int
	Stage      string // "events" or "names"
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("snapshot fetch failed for %dd window (%s): %v", e.WindowDays, e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrSnapshotFetchFailed so callers can match on the sentinel.
func (e *FetchError) Is(target error) bool {
	return target == ErrSnapshotFetchFailed
}

// Source is the slice of the event store a snapshot needs.
type Source interface {
	RetrieveWindowSnapshot(ctx context.Context, start, end time.Time) ([]*v1.Event, int64, error)
	ListEntityNames(ctx context.Context) (map[string]string, error)
}

// Result is a complete snapshot. It is never returned partially filled.
type Result struct {
	WindowDays  int
	WindowStart time.Time
	WindowEnd   time.Time
	Events      []v1.Event
	Names       analytics.EntityNameIndex

	// Cursor is the highest ingest_seq covered by Events. Live events at or
	// below it are already part of the snapshot.
	Cursor int64
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the clock used to place the window.
func WithClock(nowFn func() time.Time) Option {
	return func(p *Provider) {
		p.nowFn = nowFn
	}
}

// WithDurationObserver records every fetch duration in seconds.
func WithDurationObserver(obs prometheus.Observer) Option {
	return func(p *Provider) {
		p.observer = obs
	}
}

// Provider runs snapshot fetches against a Source with a per-fetch timeout.
type Provider struct {
	source   Source
	timeout  time.Duration
	nowFn    func() time.Time
	observer prometheus.Observer
}

// NewProvider creates a provider. A timeout <= 0 disables the fetch deadline.
func NewProvider(source Source, timeout time.Duration, opts ...Option) *Provider {
	p := &Provider{
		source:  source,
		timeout: timeout,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch loads the trailing windowDays of events and the entity name index
// concurrently. Any failure or timeout yields a *FetchError and no result.
func (p *Provider) Fetch(ctx context.Context, windowDays int) (*Result, error) {
	if windowDays <= 0 {
		return nil, &FetchError{WindowDays: windowDays, Stage: "events", Err: fmt.Errorf("window days must be positive")}
	}

	started := time.Now()
	if p.observer != nil {
		defer func() {
			p.observer.Observe(time.Since(started).Seconds())
		}()
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	now := p.nowFn()
	start := analytics.WindowStart(now, windowDays)
	end := analytics.WindowEnd(now)

	var (
		events []*v1.Event
		cursor int64
		names  map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		events, cursor, err = p.source.RetrieveWindowSnapshot(gctx, start, end)
		if err != nil {
			return &FetchError{WindowDays: windowDays, Stage: "events", Err: err}
		}
		return nil
	})

	g.Go(func() error {
		var err error
		names, err = p.source.ListEntityNames(gctx)
		if err != nil {
			return &FetchError{WindowDays: windowDays, Stage: "names", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Warn("[Snapshot] Fetch failed", "window_days", windowDays, "error", err)
		return nil, err
	}

	result := &Result{
		WindowDays:  windowDays,
		WindowStart: start,
		WindowEnd:   end,
		Events:      make([]v1.Event, 0, len(events)),
		Names:       analytics.EntityNameIndex(names),
		Cursor:      cursor,
	}
	for _, evt := range events {
		result.Events = append(result.Events, *evt)
	}

	slog.Debug("[Snapshot] Fetched",
		"window_days", windowDays,
		"events", len(result.Events),
		"entities", len(result.Names),
		"cursor", cursor,
		"took", time.Since(started),
	)
	return result, nil
}
