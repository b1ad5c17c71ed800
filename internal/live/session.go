// Package live keeps one aggregator per dashboard window in sync with the
// live event feed.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
	"github.com/menulens/menulens/internal/core/analytics"
	"github.com/menulens/menulens/internal/observability"
	"github.com/menulens/menulens/internal/settings"
	"github.com/menulens/menulens/internal/snapshot"
)

const (
	// defaultReconnectDelay is the default delay before the first resync attempt.
	defaultReconnectDelay = time.Second

	// defaultMaxReconnectDelay caps the exponential backoff.
	defaultMaxReconnectDelay = 60 * time.Second

	// reconnectBackoffMultiplier is the multiplier for exponential backoff.
	reconnectBackoffMultiplier = 2

	// queueSize bounds the single-consumer queue between the feed and the aggregator.
	queueSize = 1024
)

// State is the lifecycle state of a Session.
type State int

const (
	StateUninitialized State = iota
	StateSyncing
	StateLive
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSyncing:
		return "syncing"
	case StateLive:
		return "live"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resync reasons, as reported in logs and metrics.
const (
	reasonInitial    = "initial"
	reasonDisconnect = "disconnect"
	reasonInterval   = "interval"
)

var (
	// ErrNotReady is returned by Snapshot until the first sync has succeeded.
	ErrNotReady = errors.New("live session not ready")

	errResyncDue  = errors.New("periodic resync due")
	errStreamDone = errors.New("live stream ended")
)

// SnapshotFetcher fetches the snapshot that initializes an aggregator.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, windowDays int) (*snapshot.Result, error)
}

// SettingsSource provides the restaurant settings applied at every sync.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Notifier is told after the view changed.
type Notifier interface {
	Trigger()
}

// SessionConfig configures a Session.
type SessionConfig struct {
	WindowDays int

	// ResyncInterval forces a periodic re-initialization so the trailing
	// window rolls forward. Zero disables it.
	ResyncInterval time.Duration

	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration

	// RecentActivityBound limits the activity feed built from a snapshot.
	// Zero keeps every event.
	RecentActivityBound int
}

// Status is a point-in-time description of a session.
type Status struct {
	WindowDays   int       `json:"window_days"`
	State        string    `json:"state"`
	LastSyncedAt time.Time `json:"last_synced_at,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

// Session owns exactly one aggregator at a time and drives it through
// Uninitialized → Syncing → Live, falling back to Disconnected on transport
// failure. Every transition into Syncing builds a fresh aggregator from a
// new snapshot; missed events are never replayed incrementally.
//
// Live events are delivered by a single pump goroutine into one queue and
// applied by the Run goroutine only, so the aggregator sees a single writer.
type Session struct {
	cfg      SessionConfig
	label    string
	feed     Feed
	fetcher  SnapshotFetcher
	settings SettingsSource
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger
	nowFn    func() time.Time

	mu       sync.RWMutex
	state    State
	agg      *analytics.Aggregator
	cursor   int64
	covered  map[int64]struct{}
	lastSync time.Time
	lastErr  error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSettings applies restaurant settings (timezone, unknown item name) at every sync.
func WithSettings(src SettingsSource) SessionOption {
	return func(s *Session) {
		s.settings = src
	}
}

// WithNotifier is triggered after every sync and every applied event.
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithMetrics records session metrics.
func WithMetrics(m *observability.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session in StateUninitialized. Nothing happens until Run.
func NewSession(cfg SessionConfig, feed Feed, fetcher SnapshotFetcher, opts ...SessionOption) *Session {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = defaultMaxReconnectDelay
		if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
			cfg.MaxReconnectDelay = cfg.ReconnectDelay
		}
	}

	s := &Session{
		cfg:     cfg,
		label:   analytics.WindowLabel(cfg.WindowDays),
		feed:    feed,
		fetcher: fetcher,
		logger:  slog.Default(),
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setState(StateUninitialized)
	return s
}

// WindowDays returns the window this session aggregates.
func (s *Session) WindowDays() int {
	return s.cfg.WindowDays
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the current state and a deep copy of the view. Before the
// first successful sync it returns ErrNotReady. While resyncing it keeps
// serving the last view.
func (s *Session) Snapshot() (State, analytics.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.agg == nil {
		return s.state, analytics.View{}, ErrNotReady
	}
	return s.state, s.agg.View(), nil
}

// Status describes the session for health and dashboard responses.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		WindowDays:   s.cfg.WindowDays,
		State:        s.state.String(),
		LastSyncedAt: s.lastSync,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Run drives the state machine until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("[Session] Starting", "window", s.label)

	delay := s.cfg.ReconnectDelay
	reason := reasonInitial

	for {
		s.setState(StateSyncing)
		attempt := s.nowFn()
		err := s.syncAndConsume(ctx, reason)

		if ctx.Err() != nil {
			s.logger.Info("[Session] Stopping (context cancelled)", "window", s.label)
			return nil
		}

		if errors.Is(err, errResyncDue) {
			s.logger.Info("[Session] Periodic resync", "window", s.label)
			reason = reasonInterval
			delay = s.cfg.ReconnectDelay
			continue
		}

		s.mu.Lock()
		s.lastErr = err
		if !s.lastSync.Before(attempt) {
			// Reached Live before failing: start backing off from scratch
			delay = s.cfg.ReconnectDelay
		}
		s.mu.Unlock()
		s.setState(StateDisconnected)

		s.logger.Warn("[Session] Disconnected, will resync",
			"window", s.label,
			"error", err,
			"retry_in", delay,
		)

		select {
		case <-ctx.Done():
			s.logger.Info("[Session] Stopping (context cancelled)", "window", s.label)
			return nil
		case <-time.After(delay):
		}

		reason = reasonDisconnect

		// Exponential backoff
		delay *= reconnectBackoffMultiplier
		if delay > s.cfg.MaxReconnectDelay {
			delay = s.cfg.MaxReconnectDelay
		}
	}
}

type queued struct {
	event *v1.Event
	err   error
}

// syncAndConsume subscribes, initializes a fresh aggregator from a snapshot
// and applies live events until the stream fails, a resync is due or ctx ends.
// The subscription is opened first so nothing published during the snapshot
// fetch is lost; live events whose sequence the snapshot already holds are
// dropped. A sequence at or below the cursor that the snapshot lacks belongs to
// a transaction that committed after the read and is applied.
func (s *Session) syncAndConsume(ctx context.Context, reason string) error {
	stream, err := s.feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	pumpCtx, cancelPump := context.WithCancel(ctx)
	queue := make(chan queued, queueSize)
	pumpDone := make(chan struct{})

	// Receive may not observe cancellation; closing the stream unblocks it.
	context.AfterFunc(pumpCtx, func() {
		_ = stream.Close()
	})

	go func() {
		defer close(pumpDone)
		s.pump(pumpCtx, stream, queue)
	}()

	defer func() {
		cancelPump()
		<-pumpDone
	}()

	result, err := s.fetcher.Fetch(ctx, s.cfg.WindowDays)
	if err != nil {
		return err
	}

	agg := analytics.New(result.Names, s.aggregatorOptions(ctx)...)
	if err := agg.Initialize(result.Events, s.cfg.WindowDays); err != nil {
		return fmt.Errorf("initialize aggregator: %w", err)
	}

	covered := make(map[int64]struct{}, len(result.Events))
	for i := range result.Events {
		if seq := result.Events[i].IngestSeq; seq > 0 {
			covered[seq] = struct{}{}
		}
	}

	s.mu.Lock()
	s.agg = agg
	s.cursor = result.Cursor
	s.covered = covered
	s.lastSync = s.nowFn()
	s.lastErr = nil
	s.mu.Unlock()
	s.setState(StateLive)

	if s.metrics != nil {
		s.metrics.SessionResyncsTotal.WithLabelValues(s.label, reason).Inc()
	}
	s.notify()

	s.logger.Info("[Session] Live",
		"window", s.label,
		"reason", reason,
		"snapshot_events", len(result.Events),
		"cursor", result.Cursor,
	)

	var resync <-chan time.Time
	if s.cfg.ResyncInterval > 0 {
		timer := time.NewTimer(s.cfg.ResyncInterval)
		defer timer.Stop()
		resync = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resync:
			return errResyncDue
		case item, ok := <-queue:
			if !ok {
				return errStreamDone
			}
			if item.err != nil {
				return fmt.Errorf("live feed: %w", item.err)
			}
			s.apply(item.event)
		}
	}
}

// pump is the only reader of stream. Malformed payloads are dropped here; the
// first transport error is forwarded and ends the pump.
func (s *Session) pump(ctx context.Context, stream Stream, queue chan<- queued) {
	defer close(queue)

	for {
		evt, err := stream.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrMalformedPayload) {
				s.logger.Warn("[Session] Dropping undecodable live message", "window", s.label, "error", err)
				s.skipped("undecodable")
				continue
			}
			select {
			case queue <- queued{err: err}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case queue <- queued{event: evt}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) apply(evt *v1.Event) {
	s.mu.Lock()
	if _, ok := s.covered[evt.IngestSeq]; ok && evt.IngestSeq > 0 {
		// Each sequence is delivered once
		delete(s.covered, evt.IngestSeq)
		s.mu.Unlock()
		s.skipped("already_covered")
		return
	}
	err := s.agg.ApplyEvent(*evt)
	s.mu.Unlock()

	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.EventsAppliedTotal.WithLabelValues(s.label).Inc()
		}
		s.notify()
	case errors.Is(err, analytics.ErrMalformedEvent):
		s.skipped("malformed")
	case errors.Is(err, analytics.ErrOutsideWindow):
		s.skipped("outside_window")
	default:
		s.logger.Error("[Session] Failed to apply event", "window", s.label, "event_id", evt.ID, "error", err)
		s.skipped("error")
	}
}

func (s *Session) aggregatorOptions(ctx context.Context) []analytics.Option {
	opts := []analytics.Option{
		analytics.WithLogger(s.logger),
		analytics.WithRecentLimit(s.cfg.RecentActivityBound),
		analytics.WithClock(s.nowFn),
	}
	if s.settings == nil {
		return opts
	}

	current, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("[Session] Settings unavailable, using defaults", "window", s.label, "error", err)
		return opts
	}
	return append(opts,
		analytics.WithLocation(current.Location()),
		analytics.WithUnknownName(current.UnknownItemName),
	)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionState.WithLabelValues(s.label).Set(float64(state))
	}
}

func (s *Session) skipped(reason string) {
	if s.metrics != nil {
		s.metrics.EventsSkippedTotal.WithLabelValues(s.label, reason).Inc()
	}
}

func (s *Session) notify() {
	if s.notifier != nil {
		s.notifier.Trigger()
	}
}
