package v1

import (
	"fmt"
	"math"
	"time"
)

// EventType enumerates the menu interactions the dashboard tracks.
type EventType string

const (
	EventViewItem     EventType = "view_item"
	EventAddToCart    EventType = "add_to_cart"
	EventHotspotClick EventType = "hotspot_click"
	EventSessionStart EventType = "session_start"
	EventSessionEnd   EventType = "session_end"
)

// EventTypes lists every known type in display order.
var EventTypes = []EventType{
	EventViewItem,
	EventAddToCart,
	EventHotspotClick,
	EventSessionStart,
	EventSessionEnd,
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventViewItem, EventAddToCart, EventHotspotClick, EventSessionStart, EventSessionEnd:
		return true
	}
	return false
}

// Event is an immutable fact about a guest interacting with the AR menu.
// The store owns events; everything downstream holds read-only copies.
type Event struct {
	// ID is unique across the store. Ingestion assigns one when the client omits it.
	ID string `json:"id"`

	Type EventType `json:"type"`

	// EntityID references a menu item. Empty for session-level events.
	EntityID string `json:"entity_id,omitempty"`

	// SessionID groups events of one AR viewing session.
	SessionID string `json:"session_id,omitempty"`

	// OccurredAt is the client-side time of the interaction.
	OccurredAt time.Time `json:"occurred_at"`

	// DurationSeconds is reported on session_end events.
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`

	// Metadata is opaque client context (device, hotspot label, table number...).
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IngestedAt is set by the ingestion service, not the client.
	IngestedAt time.Time `json:"ingested_at"`

	// IngestSeq is the store's monotonic sequence number. It travels on the live
	// feed so subscribers can drop events their snapshot already covers.
	IngestSeq int64 `json:"ingest_seq,omitempty"`
}

// Validate ensures the event has every attribute the aggregator relies on.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}

	if e.Type == "" {
		return fmt.Errorf("type is required")
	}

	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}

	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	if e.DurationSeconds != nil {
		d := *e.DurationSeconds
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return fmt.Errorf("duration_seconds must be a finite non-negative number")
		}
	}

	return nil
}

// Duration returns a pointer to d, for building events in code.
func Duration(d float64) *float64 {
	return &d
}
