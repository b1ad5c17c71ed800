package dashboard

import (
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
	"github.com/menulens/menulens/internal/core/analytics"
	"github.com/menulens/menulens/internal/trend"
)

// DashboardRequest selects a window and the render limits. Zero limits use
// the restaurant settings.
type DashboardRequest struct {
	WindowDays int
	Top        int
	Recent     int
}

// DashboardResponse is the rendered dashboard of one window.
type DashboardResponse struct {
	RestaurantName                  string                  `json:"restaurant_name"`
	Window                          string                  `json:"window"`
	State                           string                  `json:"state"`
	GeneratedAt                     time.Time               `json:"generated_at"`
	WindowStart                     time.Time               `json:"window_start"`
	Totals                          map[v1.EventType]int64  `json:"totals"`
	TopItems                        []analytics.EntityStats `json:"top_items"`
	PerDay                          []analytics.DayStats    `json:"per_day"`
	AverageSessionEngagementSeconds float64                 `json:"average_session_engagement_seconds"`
	RecentActivity                  []analytics.Activity    `json:"recent_activity"`
}

// TrendsResponse is the latest trend report of one window.
type TrendsResponse struct {
	Window     string           `json:"window"`
	ComputedAt time.Time        `json:"computed_at"`
	Trends     []trend.Snapshot `json:"trends"`
}
