// Package dashboard renders the live aggregations, trends and restaurant
// settings for the dashboard client.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/menulens/menulens/internal/core/analytics"
	"github.com/menulens/menulens/internal/live"
	"github.com/menulens/menulens/internal/settings"
	"github.com/menulens/menulens/internal/trend"
)

const (
	maxTopItems = 100
	maxRecent   = 500
)

var (
	// ErrInvalidQuery marks request validation errors that should return HTTP 400.
	ErrInvalidQuery = errors.New("invalid dashboard query")

	// ErrTrendsNotReady is returned until trends of a window were computed once.
	ErrTrendsNotReady = errors.New("trends not computed yet")
)

// ViewSource serves the live views of every configured window.
type ViewSource interface {
	View(windowDays int) (live.State, analytics.View, error)
	Windows() []int
}

// TrendSource serves the latest trend report of a window.
type TrendSource interface {
	Latest(windowDays int) (trend.Report, bool)
}

// SettingsStore is the cached restaurant settings.
type SettingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
	Invalidate()
}

// Service implements the dashboard read path. It holds no state of its own:
// every response is rendered from copies handed out by the live sessions.
type Service struct {
	views    ViewSource
	trends   TrendSource
	settings SettingsStore
	nowFn    func() time.Time
}

// NewService creates a new dashboard service.
func NewService(views ViewSource, trends TrendSource, store SettingsStore) *Service {
	return &Service{
		views:    views,
		trends:   trends,
		settings: store,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// DefaultWindow is the smallest configured window.
func (s *Service) DefaultWindow() int {
	windows := s.views.Windows()
	if len(windows) == 0 {
		return 0
	}
	return windows[0]
}

// Dashboard renders the dashboard of req.WindowDays. While a session has not
// synced once it returns live.ErrNotReady; while it resyncs the last view is
// served with the session's state.
func (s *Service) Dashboard(ctx context.Context, req DashboardRequest) (*DashboardResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	state, view, err := s.views.View(req.WindowDays)
	if err != nil {
		return nil, err
	}

	current := s.currentSettings(ctx)

	top := req.Top
	if top == 0 {
		top = current.TopItems
	}
	recent := req.Recent
	if recent == 0 {
		recent = current.RecentActivityLimit
	}

	return &DashboardResponse{
		RestaurantName:                  current.RestaurantName,
		Window:                          analytics.WindowLabel(req.WindowDays),
		State:                           state.String(),
		GeneratedAt:                     s.nowFn(),
		WindowStart:                     view.WindowStart,
		Totals:                          view.TotalsByType,
		TopItems:                        view.Top(top),
		PerDay:                          view.PerDay,
		AverageSessionEngagementSeconds: view.AverageSessionEngagementSeconds,
		RecentActivity:                  view.Recent(recent),
	}, nil
}

// Trends returns the latest trend report of windowDays.
func (s *Service) Trends(windowDays int) (*TrendsResponse, error) {
	if !s.configured(windowDays) {
		return nil, fmt.Errorf("%w: %dd", live.ErrUnknownWindow, windowDays)
	}

	report, ok := s.trends.Latest(windowDays)
	if !ok {
		return nil, ErrTrendsNotReady
	}
	return &TrendsResponse{
		Window:     analytics.WindowLabel(windowDays),
		ComputedAt: report.ComputedAt,
		Trends:     report.Snapshots,
	}, nil
}

// Settings returns the current restaurant settings.
func (s *Service) Settings(ctx context.Context) (settings.Settings, error) {
	return s.settings.Get(ctx)
}

// InvalidateSettings drops the cached settings. Sessions pick up timezone and
// placeholder name changes on their next sync.
func (s *Service) InvalidateSettings() {
	s.settings.Invalidate()
}

func (s *Service) currentSettings(ctx context.Context) settings.Settings {
	current, err := s.settings.Get(ctx)
	if err != nil {
		slog.Warn("[Dashboard] Settings unavailable, rendering with defaults", "error", err)
		return settings.Defaults()
	}
	return current
}

func (s *Service) configured(windowDays int) bool {
	for _, days := range s.views.Windows() {
		if days == windowDays {
			return true
		}
	}
	return false
}

func validateRequest(req DashboardRequest) error {
	if req.WindowDays <= 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidQuery)
	}
	if req.Top < 0 || req.Top > maxTopItems {
		return fmt.Errorf("%w: top must be between 0 and %d (0 uses the default)", ErrInvalidQuery, maxTopItems)
	}
	if req.Recent < 0 || req.Recent > maxRecent {
		return fmt.Errorf("%w: recent must be between 0 and %d (0 uses the default)", ErrInvalidQuery, maxRecent)
	}
	return nil
}
