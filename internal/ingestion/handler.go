package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	v1 "github.com/menulens/menulens/internal/api/v1"
	httperr "github.com/menulens/menulens/internal/core/errors"
	"github.com/menulens/menulens/internal/core/storage"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
	msgDuplicateEvent = "Event already exists"
	msgBodyTooLarge   = "Request body exceeds maximum allowed size"
)

// Ingestion results, as counted in metrics.
const (
	resultAccepted  = "accepted"
	resultInvalid   = "invalid"
	resultDuplicate = "duplicate"
	resultTooLarge  = "too_large"
	resultError     = "error"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
	result     string
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST requests for event ingestion.
func (s *Service) IngestHandler(c *gin.Context) {
	evt, payloadSize, err := s.parseEvent(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.validateEvent(evt); err != nil {
		s.writeError(c, err)
		return
	}

	slog.Info("[Ingestion] Received event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"entity_id", evt.EntityID,
		"session_id", evt.SessionID,
		"payload_size", payloadSize)

	if err := s.persistEvent(c.Request.Context(), evt); err != nil {
		s.writeError(c, err)
		return
	}

	s.publishEvent(c.Request.Context(), evt)

	s.count(resultAccepted)
	c.JSON(http.StatusAccepted, gin.H{
		"status":     "accepted",
		"id":         evt.ID,
		"ingest_seq": evt.IngestSeq,
	})
}

// parseEvent reads the raw request body and binds it into an Event struct.
// Returns the parsed event and the raw payload size (used for structured logging upstream).
func (s *Service) parseEvent(c *gin.Context) (*v1.Event, int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
			result:     resultError,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpPayloadTooLarge,
			message:    msgBodyTooLarge,
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
			result: resultTooLarge,
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var evt v1.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			result:     resultInvalid,
		}
	}

	if evt.ID == "" {
		evt.ID = s.newID()
	}

	// Server-owned fields are never taken from the client.
	evt.IngestedAt = s.nowFn()
	evt.IngestSeq = 0
	return &evt, len(bodyBytes), nil
}

func (s *Service) validateEvent(evt *v1.Event) *ingestionError {
	if err := evt.Validate(); err != nil {
		slog.Warn("[Ingestion] Envelope validation failed", "error", err, "event_id", evt.ID)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    err.Error(),
			result:     resultInvalid,
		}
	}
	return nil
}

// persistEvent saves the event to the backing store, which assigns IngestSeq.
func (s *Service) persistEvent(ctx context.Context, evt *v1.Event) *ingestionError {
	if err := s.store.SaveEvent(ctx, evt); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("[Ingestion] Duplicate event rejected", "event_id", evt.ID)
			return &ingestionError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateEventError,
				message:    msgDuplicateEvent,
				result:     resultDuplicate,
			}
		}

		slog.Error("[Ingestion] Failed to persist event", "error", err, "event_id", evt.ID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
			result:     resultError,
		}
	}

	return nil
}

// publishEvent is best effort: the event is already durable and live sessions
// pick it up on their next resync.
func (s *Service) publishEvent(ctx context.Context, evt *v1.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Warn("[Ingestion] Failed to publish event to live feed",
			"event_id", evt.ID,
			"ingest_seq", evt.IngestSeq,
			"error", err)
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func (s *Service) writeError(c *gin.Context, err *ingestionError) {
	s.count(err.result)
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
