package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/menulens/menulens/internal/api/v1"
)

// ErrDuplicate is returned when an event with the same id already exists.
var ErrDuplicate = errors.New("event already exists")

// EventStore defines the interface for storing and querying menu events.
type EventStore interface {
	// SaveEvent persists event and populates its IngestSeq.
	SaveEvent(ctx context.Context, event *v1.Event) error

	// RetrieveWindowSnapshot returns the events with occurred_at in [start, end)
	// ordered by occurred_at, together with the store's highest ingest_seq at the
	// moment of the read. Both come from one statement, so every event with a
	// sequence at or below the cursor is either in the result or outside the range.
	RetrieveWindowSnapshot(ctx context.Context, start, end time.Time) ([]*v1.Event, int64, error)

	// ListEntityNames returns the menu item id -> display name index.
	ListEntityNames(ctx context.Context) (map[string]string, error)

	// CountEventsByType counts events per type with occurred_at in [start, end).
	// Types with no events are present with a zero count.
	CountEventsByType(ctx context.Context, types []v1.EventType, start, end time.Time) (map[v1.EventType]int64, error)

	Ping(ctx context.Context) error
}
