package ingestion

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	v1 "github.com/menulens/menulens/internal/api/v1"
	"github.com/menulens/menulens/internal/core/storage"
	"github.com/menulens/menulens/internal/observability"
)

// Publisher fans a stored event out to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, evt *v1.Event) error
}

type Service struct {
	store            storage.EventStore
	publisher        Publisher
	metrics          *observability.Metrics
	maxBodySizeBytes int
	nowFn            func() time.Time
	newID            func() string
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes every stored event. Without one, events only reach
// dashboards on the next resync.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithMetrics counts ingestion results.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(repo storage.EventStore, maxBodySizeMB int, opts ...Option) *Service {
	if repo == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	s := &Service{
		store:            repo,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.IngestHandler)

	// Alias used by the AR menu client SDK.
	r.POST("/v1/track", s.IngestHandler)
}

func (s *Service) count(result string) {
	if s.metrics != nil {
		s.metrics.EventsIngestedTotal.WithLabelValues(result).Inc()
	}
}
