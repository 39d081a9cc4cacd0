// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats && wal

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/slbailey/retrovue/internal/wal"
)

// DurablePublisher wraps Publisher with a write-ahead log: an event is
// persisted to BadgerDB before the NATS publish attempt, and confirmed out
// of the WAL only once the publish succeeds. If the process crashes or NATS
// is unreachable between write and confirm, RecoverPending and RetryLoop
// redeliver the entry on a later run instead of losing it.
type DurablePublisher struct {
	publisher *Publisher
	wal       *wal.BadgerWAL
}

// NewDurablePublisher wraps publisher with w. w should already be open.
func NewDurablePublisher(publisher *Publisher, w *wal.BadgerWAL) *DurablePublisher {
	return &DurablePublisher{publisher: publisher, wal: w}
}

// PublishEvent writes event to the WAL, attempts the NATS publish, and
// confirms the WAL entry on success. A publish failure is not returned as
// an error here: the event survives in the WAL and the retry loop will
// redeliver it, matching the durability contract the WAL package documents.
func (d *DurablePublisher) PublishEvent(ctx context.Context, event *HorizonAuditEvent) error {
	entryID, err := d.wal.Write(ctx, event)
	if err != nil {
		return fmt.Errorf("wal write: %w", err)
	}

	if err := d.publisher.PublishEvent(ctx, event); err != nil {
		return nil
	}

	if err := d.wal.Confirm(ctx, entryID); err != nil {
		return fmt.Errorf("wal confirm: %w", err)
	}
	return nil
}

// PublishEntry implements wal.Publisher for RetryLoop: it redelivers a
// previously-written entry by unmarshaling its payload back into a
// HorizonAuditEvent and publishing it directly, bypassing a second WAL
// write since the entry already exists.
func (d *DurablePublisher) PublishEntry(ctx context.Context, entry *wal.Entry) error {
	var event HorizonAuditEvent
	if err := entry.UnmarshalPayload(&event); err != nil {
		return fmt.Errorf("unmarshal wal entry %s: %w", entry.ID, err)
	}
	return d.publisher.PublishEvent(ctx, &event)
}

// RecoverPending redelivers every unconfirmed entry left over from a
// previous run, confirming each as it succeeds. Call once at startup before
// the retry loop takes over steady-state redelivery.
func (d *DurablePublisher) RecoverPending(ctx context.Context) (recovered, failed int, err error) {
	pending, err := d.wal.GetPending(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending wal entries: %w", err)
	}
	for _, entry := range pending {
		if pubErr := d.PublishEntry(ctx, entry); pubErr != nil {
			failed++
			continue
		}
		if confirmErr := d.wal.Confirm(ctx, entry.ID); confirmErr != nil {
			failed++
			continue
		}
		recovered++
	}
	return recovered, failed, nil
}
