package analytics

import (
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
)

// DefaultUnknownName is the display name used when an event references an
// entity missing from the EntityNameIndex.
const DefaultUnknownName = "Unknown"

// EntityNameIndex maps menu item IDs to display names. It is read-only once
// built and may be shared by any number of aggregators.
type EntityNameIndex map[string]string

// Resolve returns the display name for id.
func (idx EntityNameIndex) Resolve(id string) (string, bool) {
	name, ok := idx[id]
	return name, ok
}

// EntityStats is the per-item breakdown row.
type EntityStats struct {
	EntityID       string  `json:"entity_id"`
	DisplayName    string  `json:"display_name"`
	ViewCount      int64   `json:"view_count"`
	CartCount      int64   `json:"cart_count"`
	ConversionRate float64 `json:"conversion_rate"` // CartCount / ViewCount, 0 when ViewCount is 0
}

// DayStats is the per-day breakdown row. DayKey is an ISO date (2006-01-02).
type DayStats struct {
	DayKey            string `json:"day"`
	ViewCount         int64  `json:"view_count"`
	CartCount         int64  `json:"cart_count"`
	HotspotCount      int64  `json:"hotspot_count"`
	SessionStartCount int64  `json:"session_start_count"`
	SessionEndCount   int64  `json:"session_end_count"`
}

// Activity is one resolved entry of the recent activity feed.
type Activity struct {
	ID          string                 `json:"id"`
	Type        v1.EventType           `json:"type"`
	EntityID    string                 `json:"entity_id,omitempty"`
	DisplayName string                 `json:"display_name,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
	SessionID   string                 `json:"session_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// View is the set of derived views over the active window.
//
// Invariants: PerEntity is sorted by ViewCount descending (EntityID ascending
// on ties); PerDay is unique by DayKey and sorted ascending; RecentActivity is
// newest first.
type View struct {
	WindowDays                      int                    `json:"window_days"`
	WindowStart                     time.Time              `json:"window_start"`
	TotalsByType                    map[v1.EventType]int64 `json:"totals_by_type"`
	PerEntity                       []EntityStats          `json:"per_entity"`
	PerDay                          []DayStats             `json:"per_day"`
	AverageSessionEngagementSeconds float64                `json:"average_session_engagement_seconds"`
	RecentActivity                  []Activity             `json:"recent_activity"`
}

// Top returns at most k rows of PerEntity. k <= 0 returns all rows.
func (v View) Top(k int) []EntityStats {
	if k <= 0 || k >= len(v.PerEntity) {
		return v.PerEntity
	}
	return v.PerEntity[:k]
}

// Recent returns at most k rows of RecentActivity. k <= 0 returns all rows.
func (v View) Recent(k int) []Activity {
	if k <= 0 || k >= len(v.RecentActivity) {
		return v.RecentActivity
	}
	return v.RecentActivity[:k]
}

func newTotals() map[v1.EventType]int64 {
	totals := make(map[v1.EventType]int64, len(v1.EventTypes))
	for _, typ := range v1.EventTypes {
		totals[typ] = 0
	}
	return totals
}
