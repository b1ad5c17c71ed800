package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/menulens/menulens/internal/api/v1"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis Pub/Sub channel carrying newly stored events.
const DefaultChannel = "menulens:events"

// ErrMalformedPayload is returned by Stream.Receive for a message that could
// not be decoded. The stream stays usable.
var ErrMalformedPayload = errors.New("malformed live event payload")

// Stream delivers live events one at a time.
type Stream interface {
	// Receive blocks until the next event arrives. Any error other than
	// ErrMalformedPayload means the transport failed and events may be lost.
	Receive(ctx context.Context) (*v1.Event, error)
	Close() error
}

// Feed opens live event subscriptions.
type Feed interface {
	Subscribe(ctx context.Context) (Stream, error)
}

// RedisFeed is a Feed backed by Redis Pub/Sub.
type RedisFeed struct {
	client  *redis.Client
	channel string
}

// NewRedisFeed creates a feed on channel. An empty channel uses DefaultChannel.
func NewRedisFeed(client *redis.Client, channel string) *RedisFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisFeed{client: client, channel: channel}
}

// Subscribe opens a dedicated Pub/Sub connection and waits for the server to
// confirm the subscription, so no event published after it returns is missed.
func (f *RedisFeed) Subscribe(ctx context.Context) (Stream, error) {
	pubsub := f.client.Subscribe(ctx, f.channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", f.channel, err)
	}

	slog.Debug("[LiveFeed] Subscribed", "channel", f.channel)
	return &redisStream{pubsub: pubsub, channel: f.channel}, nil
}

// Ping checks Redis connectivity.
func (f *RedisFeed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

type redisStream struct {
	pubsub  *redis.PubSub
	channel string
}

func (s *redisStream) Receive(ctx context.Context) (*v1.Event, error) {
	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("receive from %s: %w", s.channel, err)
	}

	var evt v1.Event
	if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &evt, nil
}

func (s *redisStream) Close() error {
	return s.pubsub.Close()
}

// RedisPublisher publishes stored events to the live feed channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on channel. An empty channel uses DefaultChannel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends evt as JSON, including its IngestSeq.
func (p *RedisPublisher) Publish(ctx context.Context, evt *v1.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal live event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}
