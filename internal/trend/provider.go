package trend

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
	"github.com/menulens/menulens/internal/core/analytics"
	"golang.org/x/sync/errgroup"
)

// Metric names a period-over-period comparison shown on the dashboard.
type Metric string

const (
	MetricViews    Metric = "views"
	MetricCarts    Metric = "carts"
	MetricSessions Metric = "sessions"
)

// metricSources maps each metric to the event type it counts, in display order.
var metricSources = []struct {
	metric    Metric
	eventType v1.EventType
}{
	{MetricViews, v1.EventViewItem},
	{MetricCarts, v1.EventAddToCart},
	{MetricSessions, v1.EventSessionStart},
}

// Snapshot is one recomputed trend. It is transient and replaced wholesale.
type Snapshot struct {
	Metric              Metric          `json:"metric"`
	CurrentPeriodValue  int64           `json:"current_period_value"`
	PreviousPeriodValue int64           `json:"previous_period_value"`
	Trend               analytics.Trend `json:"trend"`
}

// Counter is the slice of the event store trends need.
type Counter interface {
	CountEventsByType(ctx context.Context, types []v1.EventType, start, end time.Time) (map[v1.EventType]int64, error)
}

// Provider computes trends from two equal-length windows.
type Provider struct {
	counter Counter
	nowFn   func() time.Time
}

// NewProvider creates a trend provider.
func NewProvider(counter Counter) *Provider {
	return &Provider{
		counter: counter,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Compute counts the current window [now-w, WindowEnd(now)) and the preceding
// window [now-2w, now-w) for every metric and applies ComputeTrend. The current
// window has the same bounds as the dashboard snapshot.
func (p *Provider) Compute(ctx context.Context, windowDays int) ([]Snapshot, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("window days must be positive, got %d", windowDays)
	}

	now := p.nowFn()
	currentStart := analytics.WindowStart(now, windowDays)
	currentEnd := analytics.WindowEnd(now)
	previousStart := analytics.WindowStart(currentStart, windowDays)

	types := make([]v1.EventType, len(metricSources))
	for i, src := range metricSources {
		types[i] = src.eventType
	}

	var current, previous map[v1.EventType]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = p.counter.CountEventsByType(gctx, types, currentStart, currentEnd)
		if err != nil {
			return fmt.Errorf("count current window: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previous, err = p.counter.CountEventsByType(gctx, types, previousStart, currentStart)
		if err != nil {
			return fmt.Errorf("count previous window: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(metricSources))
	for _, src := range metricSources {
		cur := current[src.eventType]
		prev := previous[src.eventType]
		snapshots = append(snapshots, Snapshot{
			Metric:              src.metric,
			CurrentPeriodValue:  cur,
			PreviousPeriodValue: prev,
			Trend:               analytics.ComputeTrend(float64(cur), float64(prev)),
		})
	}
	return snapshots, nil
}
