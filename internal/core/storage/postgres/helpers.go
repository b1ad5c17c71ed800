package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	v1 "github.com/menulens/menulens/internal/api/v1"
)

// marshalMetadata marshals an event's opaque metadata to JSON.
//
// Nil or empty metadata produces nil (SQL NULL) rather than JSON "null" string.
func marshalMetadata(event *v1.Event) ([]byte, error) {
	if len(event.Metadata) == 0 {
		return nil, nil
	}
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return metadataJSON, nil
}

// nullString maps the empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// snapshotRow is one row of queryWindowSnapshot. Event columns are nullable
// because of the LEFT JOIN.
type snapshotRow struct {
	cursor          int64
	id              sql.NullString
	eventType       sql.NullString
	entityID        sql.NullString
	sessionID       sql.NullString
	occurredAt      sql.NullTime
	durationSeconds sql.NullFloat64
	ingestedAt      sql.NullTime
	metadata        []byte
	ingestSeq       sql.NullInt64
}

// scanSnapshotRow scans a row and returns the event it carries, or nil for the
// placeholder row of an empty window.
func scanSnapshotRow(row scanner) (int64, *v1.Event, error) {
	var r snapshotRow

	err := row.Scan(
		&r.cursor,
		&r.id,
		&r.eventType,
		&r.entityID,
		&r.sessionID,
		&r.occurredAt,
		&r.durationSeconds,
		&r.ingestedAt,
		&r.metadata,
		&r.ingestSeq,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	if !r.id.Valid {
		return r.cursor, nil, nil
	}

	evt := &v1.Event{
		ID:         r.id.String,
		Type:       v1.EventType(r.eventType.String),
		EntityID:   r.entityID.String,
		SessionID:  r.sessionID.String,
		OccurredAt: r.occurredAt.Time,
		IngestedAt: r.ingestedAt.Time,
		IngestSeq:  r.ingestSeq.Int64,
	}
	if r.durationSeconds.Valid {
		evt.DurationSeconds = v1.Duration(r.durationSeconds.Float64)
	}

	if len(r.metadata) > 0 {
		if err := json.Unmarshal(r.metadata, &evt.Metadata); err != nil {
			return 0, nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return r.cursor, evt, nil
}
