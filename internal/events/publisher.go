// Package events publishes pipeline events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jobsift/jobsift/internal/logger"
)

// StreamName is the Redis stream all pipeline events go to.
const StreamName = "jobsift:events"

// asyncPublishTimeout bounds fire-and-forget publishes.
const asyncPublishTimeout = 5 * time.Second

// EventType identifies a pipeline event.
type EventType string

const (
	EventScrapeCompleted EventType = "scrape.completed"
	EventScrapeFailed    EventType = "scrape.failed"
	EventOffersImported  EventType = "offers.imported"
)

// Event is the payload written to the stream.
type Event struct {
	EventID   uuid.UUID      `json:"event_id"`
	EventType EventType      `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	TaskID    string         `json:"task_id,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Publisher publishes events to Redis Streams. A nil Publisher is a valid
// no-op, so callers never guard their publish sites.
type Publisher struct {
	client *redis.Client
	log    logger.Logger
}

// NewPublisher creates an event publisher. Returns nil if client is nil.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client, log: log}
}

// Publish sends an event to the stream.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]any{
			"event": string(payload),
		},
	})
	if publishErr := result.Err(); publishErr != nil {
		p.log.Error("failed to publish event",
			logger.String("event_type", string(event.EventType)),
			logger.Error(publishErr),
		)
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("published event",
		logger.String("event_type", string(event.EventType)),
		logger.String("stream_id", result.Val()),
	)
	return nil
}

// PublishAsync publishes an event on its own goroutine. Errors are logged,
// never returned.
func (p *Publisher) PublishAsync(event Event) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()
		//nolint:errcheck // Publish already logs its failures
		_ = p.Publish(ctx, event)
	}()
}
