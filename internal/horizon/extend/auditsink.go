// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats

package extend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/eventprocessor"
	"github.com/slbailey/retrovue/internal/horizon/manager"
)

// PublishTimeout bounds how long a single audit publish may block the
// Manager's evaluation loop before being abandoned.
const PublishTimeout = 5 * time.Second

// eventPublisher is the publish surface AuditBus needs. Both
// *eventprocessor.Publisher and its WAL-backed wrapper,
// *eventprocessor.DurablePublisher, satisfy it.
type eventPublisher interface {
	PublishEvent(ctx context.Context, event *eventprocessor.HorizonAuditEvent) error
}

// AuditBus adapts an eventPublisher to manager.AuditSink, turning
// ExtensionAttempt/SeamViolation values into HorizonAuditEvent messages on
// the horizon audit bus. A publish failure is logged and swallowed: the
// Manager's in-memory attemptLog/seamViolations already hold the
// authoritative record, so a dropped audit event does not affect behavior.
type AuditBus struct {
	pub eventPublisher
	log zerolog.Logger
}

// NewAuditBus wraps pub for use as a channel's manager.AuditSink. pub may be
// a plain Publisher or a DurablePublisher when the WAL is enabled.
func NewAuditBus(pub eventPublisher, log zerolog.Logger) *AuditBus {
	return &AuditBus{pub: pub, log: log}
}

var _ manager.AuditSink = (*AuditBus)(nil)

// PublishExtensionAttempt implements manager.AuditSink.
func (b *AuditBus) PublishExtensionAttempt(channelID string, a manager.ExtensionAttempt) {
	broadcastDay := time.UnixMilli(a.NowUTCMS).UTC().Format("2006-01-02")
	event := eventprocessor.NewExtensionAttemptEvent(channelID, broadcastDay, a.WindowEndAfterMS, a.ReasonCode, nil)
	b.publish(channelID, event)
}

// PublishSeamViolation implements manager.AuditSink.
func (b *AuditBus) PublishSeamViolation(channelID string, v manager.SeamViolation) {
	event := eventprocessor.NewSeamViolationEvent(channelID, nil)
	event.FrontierUTCMS = v.RightStartUTCMS
	b.publish(channelID, event)
}

func (b *AuditBus) publish(channelID string, event *eventprocessor.HorizonAuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	if err := b.pub.PublishEvent(ctx, event); err != nil {
		b.log.Warn().Err(err).Str("channel_id", channelID).Str("event_type", event.EventType).
			Msg("horizon audit publish failed")
	}
}
