// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/slbailey/retrovue/internal/cache"
	"github.com/slbailey/retrovue/internal/logging"
	"github.com/slbailey/retrovue/internal/metrics"
)

// MessageSource defines the interface for receiving messages.
// This abstraction allows the consumer to work with different message sources.
type MessageSource interface {
	// Subscribe subscribes to a topic and returns a channel of messages.
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Close closes the message source.
	Close() error
}

// ConsumerConfig holds configuration for the DuckDB consumer.
type ConsumerConfig struct {
	// Topic is the NATS subject pattern to subscribe to (default: "horizon.>")
	Topic string

	// EnableDeduplication enables event deduplication based on EventID
	EnableDeduplication bool

	// DeduplicationWindow is how long to remember event IDs for deduplication
	DeduplicationWindow time.Duration

	// MaxDeduplicationEntries is the maximum number of entries in the dedup cache
	MaxDeduplicationEntries int

	// WorkerCount is the number of concurrent message processors
	WorkerCount int
}

// DefaultConsumerConfig returns a ConsumerConfig with sensible defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:                   "horizon.>",
		EnableDeduplication:     true,
		DeduplicationWindow:     5 * time.Minute,
		MaxDeduplicationEntries: 10000,
		WorkerCount:             1,
	}
}

// ConsumerStats holds runtime statistics for monitoring.
type ConsumerStats struct {
	MessagesReceived  int64     // Total messages received
	MessagesProcessed int64     // Successfully processed messages
	ParseErrors       int64     // JSON parse failures
	DuplicatesSkipped int64     // Messages skipped due to deduplication
	LastMessageTime   time.Time // Time of last received message
}

// DuckDBConsumer consumes horizon audit events from JetStream and writes
// them to DuckDB. It handles deserialization, EventID deduplication, and
// batch buffering through the Appender.
//
// Performance: Uses BloomLRU for O(1) deduplication with ~90%+ fast-path
// rejections.
type DuckDBConsumer struct {
	source   MessageSource
	appender *Appender
	config   ConsumerConfig

	// Deduplication cache using BloomLRU
	dedupCache *cache.BloomLRU

	// State
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Metrics
	messagesReceived  atomic.Int64
	messagesProcessed atomic.Int64
	parseErrors       atomic.Int64
	duplicatesSkipped atomic.Int64
	lastMessageTime   atomic.Value // stores time.Time
}

// NewDuckDBConsumer creates a new DuckDB consumer.
// The appender should be started separately to enable batch flushing.
func NewDuckDBConsumer(source MessageSource, appender *Appender, cfg *ConsumerConfig) (*DuckDBConsumer, error) {
	if source == nil {
		return nil, fmt.Errorf("message source required")
	}
	if appender == nil {
		return nil, fmt.Errorf("appender required")
	}

	dedupCache := cache.NewBloomLRU(
		cfg.MaxDeduplicationEntries,
		cfg.DeduplicationWindow,
		0.01, // 1% false positive rate
	)

	c := &DuckDBConsumer{
		source:     source,
		appender:   appender,
		config:     *cfg,
		dedupCache: dedupCache,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	c.lastMessageTime.Store(time.Time{})

	return c, nil
}

// Start begins consuming messages from the source.
// Returns immediately - consumption happens in a goroutine.
func (c *DuckDBConsumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return nil // Already running
	}

	messages, err := c.source.Subscribe(ctx, c.config.Topic)
	if err != nil {
		c.running.Store(false)
		return fmt.Errorf("subscribe to %s: %w", c.config.Topic, err)
	}

	go c.consumeLoop(ctx, messages)

	if c.config.EnableDeduplication {
		go c.dedupCleanupLoop(ctx)
	}

	logging.Info().
		Str("topic", c.config.Topic).
		Bool("dedup", c.config.EnableDeduplication).
		Msg("DuckDB consumer started")
	return nil
}

// Stop gracefully stops the consumer.
func (c *DuckDBConsumer) Stop() {
	if !c.running.Swap(false) {
		return // Already stopped
	}

	close(c.stopCh)
	<-c.doneCh

	logging.Info().Msg("DuckDB consumer stopped")
}

// IsRunning returns whether the consumer is currently running.
func (c *DuckDBConsumer) IsRunning() bool {
	return c.running.Load()
}

// Stats returns current runtime statistics.
func (c *DuckDBConsumer) Stats() ConsumerStats {
	var lastTime time.Time
	if t, ok := c.lastMessageTime.Load().(time.Time); ok {
		lastTime = t
	}
	return ConsumerStats{
		MessagesReceived:  c.messagesReceived.Load(),
		MessagesProcessed: c.messagesProcessed.Load(),
		ParseErrors:       c.parseErrors.Load(),
		DuplicatesSkipped: c.duplicatesSkipped.Load(),
		LastMessageTime:   lastTime,
	}
}

// consumeLoop processes messages from the subscription.
// DETERMINISM: Implements graceful shutdown with message draining to prevent data loss.
// When shutdown is signaled, it drains all pending messages before returning.
func (c *DuckDBConsumer) consumeLoop(ctx context.Context, messages <-chan *message.Message) {
	defer func() {
		c.running.Store(false)
		close(c.doneCh)
	}()

	for {
		select {
		case <-ctx.Done():
			c.drainMessages(messages)
			return
		case <-c.stopCh:
			c.drainMessages(messages)
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.processMessage(ctx, msg)
		}
	}
}

// drainMessages processes all remaining messages in the channel before shutdown.
// Uses a timeout to prevent blocking indefinitely if the channel keeps receiving.
func (c *DuckDBConsumer) drainMessages(messages <-chan *message.Message) {
	drainTimeout := time.After(100 * time.Millisecond)
	drainedCount := 0

	for {
		select {
		case <-drainTimeout:
			if drainedCount > 0 {
				logging.Info().Int("count", drainedCount).Msg("DuckDB consumer drained messages during shutdown")
			}
			return
		case msg, ok := <-messages:
			if !ok {
				if drainedCount > 0 {
					logging.Info().Int("count", drainedCount).Msg("DuckDB consumer drained messages during shutdown (channel closed)")
				}
				return
			}
			// Use a background context since the original context is canceled
			c.processMessage(context.Background(), msg)
			drainedCount++
		default:
			if drainedCount > 0 {
				logging.Info().Int("count", drainedCount).Msg("DuckDB consumer drained messages during shutdown")
			}
			return
		}
	}
}

// processMessage handles a single message.
func (c *DuckDBConsumer) processMessage(ctx context.Context, msg *message.Message) {
	startTime := time.Now()
	c.messagesReceived.Add(1)
	c.lastMessageTime.Store(startTime)

	metrics.RecordNATSConsume()

	var event HorizonAuditEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		logging.Warn().
			Str("message_uuid", msg.UUID).
			Err(err).
			Msg("Failed to parse message")

		msg.Ack() // Ack to prevent redelivery of malformed messages
		return
	}

	if c.config.EnableDeduplication && c.dedupCache.IsDuplicate(event.EventID) {
		c.duplicatesSkipped.Add(1)
		metrics.RecordNATSDeduplicated()
		msg.Ack()
		return
	}

	if err := c.appender.Append(ctx, &event); err != nil {
		logging.Warn().
			Str("event_id", event.EventID).
			Err(err).
			Msg("Failed to append event")

		msg.Nack() // Nack for redelivery by NATS
		return
	}

	if c.config.EnableDeduplication {
		c.dedupCache.Record(event.EventID)
	}

	c.messagesProcessed.Add(1)
	metrics.RecordNATSProcessed()
	metrics.RecordNATSProcessingDuration(time.Since(startTime))
	msg.Ack()
}

// dedupCleanupLoop periodically cleans up expired deduplication entries.
// The BloomLRU handles LRU eviction automatically, but this provides
// periodic cleanup of expired entries from the LRU portion.
func (c *DuckDBConsumer) dedupCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.DeduplicationWindow / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.dedupCache.CleanupExpired()
		}
	}
}
