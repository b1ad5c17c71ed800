package postgres

// SQL queries for menu event storage

const (
	// querySaveEvent inserts an event keyed by id.
	// RETURNING clause retrieves auto-generated ingest_seq for the live feed cursor.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveEvent = `
		INSERT INTO menu_events (
			id, type, entity_id, session_id,
			occurred_at, duration_seconds, ingested_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
		RETURNING ingest_seq
	`

	// queryWindowSnapshot reads the high-water ingest_seq and the window's events
	// in one statement so both observe the same MVCC snapshot.
	// LEFT JOIN emits a single row with NULL event columns when the window is empty.
	queryWindowSnapshot = `
		WITH high_water AS (
			SELECT COALESCE(MAX(ingest_seq), 0) AS cursor FROM menu_events
		),
		windowed AS (
			SELECT
				id, type, entity_id, session_id,
				occurred_at, duration_seconds, ingested_at, metadata, ingest_seq
			FROM menu_events
			WHERE occurred_at >= $1
			  AND occurred_at < $2
		)
		SELECT
			high_water.cursor,
			windowed.id,
			windowed.type,
			windowed.entity_id,
			windowed.session_id,
			windowed.occurred_at,
			windowed.duration_seconds,
			windowed.ingested_at,
			windowed.metadata,
			windowed.ingest_seq
		FROM high_water
		LEFT JOIN windowed ON TRUE
		ORDER BY windowed.occurred_at ASC NULLS LAST, windowed.ingest_seq ASC
	`

	queryListEntityNames = `
		SELECT id, name
		FROM menu_items
	`

	// queryCountEventsByType counts events per type for one half-open range.
	queryCountEventsByType = `
		SELECT type, COUNT(*)
		FROM menu_events
		WHERE type = ANY($1)
		  AND occurred_at >= $2
		  AND occurred_at < $3
		GROUP BY type
	`
)
