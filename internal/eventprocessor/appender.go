// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slbailey/retrovue/internal/logging"
	"github.com/slbailey/retrovue/internal/metrics"
)

// EventStore defines the interface for persisting horizon audit events.
// Implementations include the DuckDB-backed horizon_audit_log table and
// in-memory stores for testing.
type EventStore interface {
	// InsertEvents inserts a batch of horizon audit events.
	InsertEvents(ctx context.Context, events []*HorizonAuditEvent) error
}

// AppenderStats holds runtime statistics for monitoring.
type AppenderStats struct {
	EventsReceived int64
	EventsFlushed  int64
	FlushCount     int64
	ErrorCount     int64
	LastFlushTime  time.Time
	LastError      string
	BufferSize     int
	AvgFlushTime   time.Duration
}

// Appender provides batch buffering and periodic flushing of horizon audit
// events. It buffers incoming events and writes them to the store in
// batches, either when the batch size is reached or the flush interval
// elapses.
//
// DETERMINISM: Flush operations are serialized via flushMu so timer-based
// and batch-triggered flushes cannot interleave and reorder inserts.
type Appender struct {
	store  EventStore
	config AppenderConfig

	mu     sync.Mutex
	buffer []*HorizonAuditEvent

	flushMu sync.Mutex

	closed   atomic.Bool
	started  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}
	flushWg  sync.WaitGroup

	eventsReceived atomic.Int64
	eventsFlushed  atomic.Int64
	flushCount     atomic.Int64
	errorCount     atomic.Int64
	lastFlushTime  atomic.Value
	lastError      atomic.Value
	totalFlushTime atomic.Int64
}

// NewAppender creates a new Appender with the given store and configuration.
func NewAppender(store EventStore, cfg AppenderConfig) (*Appender, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if cfg.FlushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive")
	}

	a := &Appender{
		store:    store,
		config:   cfg,
		buffer:   make([]*HorizonAuditEvent, 0, cfg.BatchSize),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	a.lastFlushTime.Store(time.Time{})
	a.lastError.Store("")

	return a, nil
}

// Start begins the periodic flush timer. Safe to call multiple times.
func (a *Appender) Start(ctx context.Context) error {
	if a.closed.Load() {
		return fmt.Errorf("appender is closed")
	}
	if a.started.Swap(true) {
		return nil
	}

	go a.flushLoop(ctx)
	return nil
}

// Append adds an event to the buffer. If the buffer reaches batch size, an
// async flush is triggered.
func (a *Appender) Append(ctx context.Context, event *HorizonAuditEvent) error {
	if a.closed.Load() {
		return fmt.Errorf("appender is closed")
	}

	a.mu.Lock()
	a.buffer = append(a.buffer, event)
	bufferSize := len(a.buffer)
	received := a.eventsReceived.Add(1)
	needsFlush := bufferSize >= a.config.BatchSize
	a.mu.Unlock()

	logging.Trace().
		Int64("received", received).
		Str("channel_id", event.ChannelID).
		Str("event_id", event.EventID).
		Int("buffer_size", bufferSize).
		Int("batch_size", a.config.BatchSize).
		Msg("APPENDER: buffered")

	if needsFlush {
		a.flushWg.Add(1)
		go func() {
			defer a.flushWg.Done()
			// The caller's context (a Watermill message context) may be
			// canceled when the handler returns; the flush must outlive it.
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			a.doFlush(flushCtx)
		}()
	}

	return nil
}

// Flush manually flushes all buffered events, waiting for any in-flight
// async flush first.
func (a *Appender) Flush(ctx context.Context) error {
	a.flushWg.Wait()
	return a.doFlushSync(ctx)
}

// Close stops the appender and flushes any pending events.
func (a *Appender) Close() error {
	if a.closed.Swap(true) {
		return nil
	}

	if a.started.Load() {
		close(a.stopChan)
		<-a.doneChan
	}

	a.flushWg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.doFlushSync(ctx)
}

// Stats returns current runtime statistics.
func (a *Appender) Stats() AppenderStats {
	a.mu.Lock()
	bufferSize := len(a.buffer)
	a.mu.Unlock()

	var avgFlushTime time.Duration
	if count := a.flushCount.Load(); count > 0 {
		avgFlushTime = time.Duration(a.totalFlushTime.Load() / count)
	}

	var lastFlushTime time.Time
	if t, ok := a.lastFlushTime.Load().(time.Time); ok {
		lastFlushTime = t
	}
	var lastError string
	if e, ok := a.lastError.Load().(string); ok {
		lastError = e
	}

	return AppenderStats{
		EventsReceived: a.eventsReceived.Load(),
		EventsFlushed:  a.eventsFlushed.Load(),
		FlushCount:     a.flushCount.Load(),
		ErrorCount:     a.errorCount.Load(),
		LastFlushTime:  lastFlushTime,
		LastError:      lastError,
		BufferSize:     bufferSize,
		AvgFlushTime:   avgFlushTime,
	}
}

func (a *Appender) flushLoop(ctx context.Context) {
	defer close(a.doneChan)

	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopChan:
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			a.doFlush(flushCtx)
			cancel()
		}
	}
}

func (a *Appender) doFlush(ctx context.Context) {
	if err := a.doFlushSync(ctx); err != nil {
		a.lastError.Store(err.Error())
		logging.Debug().Err(err).Msg("APPENDER: async flush error")
	}
}

// doFlushSync flushes the buffer in chunks of BatchSize to bound memory use
// during large backlogs, and serializes against concurrent flush triggers
// to keep insert ordering deterministic.
func (a *Appender) doFlushSync(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	bufferSize := len(a.buffer)
	if bufferSize == 0 {
		a.mu.Unlock()
		return nil
	}

	events := a.buffer
	a.buffer = make([]*HorizonAuditEvent, 0, a.config.BatchSize)
	a.mu.Unlock()

	logging.Debug().Int("count", len(events)).Msg("APPENDER: flushing events to store")

	totalFlushed := 0
	totalStart := time.Now()

	for start := 0; start < len(events); start += a.config.BatchSize {
		end := start + a.config.BatchSize
		if end > len(events) {
			end = len(events)
		}
		chunk := events[start:end]

		chunkStart := time.Now()
		err := a.store.InsertEvents(ctx, chunk)
		chunkElapsed := time.Since(chunkStart)

		if err != nil {
			unflushed := events[start:]
			a.mu.Lock()
			a.buffer = append(unflushed, a.buffer...)
			a.mu.Unlock()

			a.errorCount.Add(1)
			a.lastError.Store(err.Error())
			if totalFlushed > 0 {
				a.eventsFlushed.Add(int64(totalFlushed))
				a.flushCount.Add(1)
			}
			return fmt.Errorf("flush events (chunk %d-%d): %w", start, end, err)
		}

		totalFlushed += len(chunk)
		metrics.RecordNATSBatchFlush(chunkElapsed, len(chunk))
	}

	totalElapsed := time.Since(totalStart)
	logging.Debug().
		Int("count", totalFlushed).
		Dur("elapsed", totalElapsed).
		Msg("APPENDER: successfully flushed all events")

	a.eventsFlushed.Add(int64(totalFlushed))
	a.flushCount.Add(1)
	a.totalFlushTime.Add(totalElapsed.Nanoseconds())
	a.lastFlushTime.Store(time.Now())
	a.lastError.Store("")

	return nil
}
