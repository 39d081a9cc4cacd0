// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats

package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/channel"
	"github.com/slbailey/retrovue/internal/config"
	"github.com/slbailey/retrovue/internal/database"
	"github.com/slbailey/retrovue/internal/eventprocessor"
	"github.com/slbailey/retrovue/internal/horizon/extend"
	"github.com/slbailey/retrovue/internal/horizon/manager"
	"github.com/slbailey/retrovue/internal/supervisor"
	"github.com/slbailey/retrovue/internal/supervisor/services"
)

// auditPublisher is the publish surface newChannelAuditSink needs. Satisfied
// by *eventprocessor.Publisher directly, or by
// *eventprocessor.DurablePublisher when built with the wal tag.
type auditPublisher interface {
	PublishEvent(ctx context.Context, event *eventprocessor.HorizonAuditEvent) error
}

// eventBus bundles the horizon audit bus's live components. publisher is
// used for raw command delivery (newPlayoutEngine); audit is used for
// ExtensionAttempt/SeamViolation events (newChannelAuditSink) and may be a
// WAL-backed wrapper around publisher. The consumer side is self-driving
// once registered with the supervisor tree in setupEventBus.
type eventBus struct {
	publisher *eventprocessor.Publisher
	audit     auditPublisher
}

// setupEventBus stands up the horizon audit bus when cfg.Enabled: an
// embedded JetStream server (or a connection to an external one), the
// HORIZON_AUDIT stream, a resilient publisher for newChannelAuditSink, and
// a DuckDB consumer registered with tree so ExtensionAttempt/SeamViolation
// events land in horizon_audit_log. Returns a nil eventBus when NATS is
// disabled, in which case channels run without an audit sink.
func setupEventBus(ctx context.Context, cfg *config.NATSConfig, db *database.DB, tree *supervisor.SupervisorTree, log zerolog.Logger) (*eventBus, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	wmLogger := watermill.NewStdLogger(false, false)

	clientURL := cfg.URL
	if cfg.EmbeddedServer {
		serverCfg := eventprocessor.DefaultServerConfig()
		serverCfg.StoreDir = cfg.StoreDir
		srv, err := eventprocessor.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		clientURL = srv.ClientURL()
		log.Info().Str("url", clientURL).Msg("embedded NATS server ready")
	}

	nc, err := natsgo.Connect(clientURL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", clientURL, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventprocessor.DefaultStreamConfig()
	streamInit, err := eventprocessor.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	if _, err := streamInit.EnsureStream(ctx); err != nil {
		return nil, fmt.Errorf("ensure %s stream: %w", streamCfg.Name, err)
	}

	pub, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(clientURL), wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create horizon audit publisher: %w", err)
	}
	cbCfg := eventprocessor.DefaultCircuitBreakerConfig("horizon-audit-publish")
	pub.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(cbCfg), cbCfg.Name)

	subCfg := eventprocessor.DefaultSubscriberConfig(clientURL)
	subCfg.StreamName = streamCfg.Name
	sub, err := eventprocessor.NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create horizon audit subscriber: %w", err)
	}

	auditStore, err := eventprocessor.NewDuckDBStore(database.NewHorizonAuditStore(db))
	if err != nil {
		return nil, fmt.Errorf("create horizon audit store: %w", err)
	}
	appender, err := eventprocessor.NewAppender(auditStore, eventprocessor.DefaultAppenderConfig())
	if err != nil {
		return nil, fmt.Errorf("create horizon audit appender: %w", err)
	}

	consumerCfg := eventprocessor.ConsumerConfig{
		Topic:                   "horizon.>",
		EnableDeduplication:     true,
		DeduplicationWindow:     streamCfg.DuplicateWindow,
		MaxDeduplicationEntries: 10000,
		WorkerCount:             subCfg.SubscribersCount,
	}
	consumer, err := eventprocessor.NewDuckDBConsumer(sub, appender, &consumerCfg)
	if err != nil {
		return nil, fmt.Errorf("create horizon audit consumer: %w", err)
	}
	tree.AddMessagingService(services.NewStartStopService(consumer, "horizon-audit-consumer"))

	bus := &eventBus{publisher: pub, audit: pub}
	attachWAL(ctx, pub, tree, log, bus)

	return bus, nil
}

// newChannelAuditSink adapts bus into one channel's manager.AuditSink, or
// returns nil when the bus is unavailable (NATS disabled). A nil AuditSink
// is safe: Manager.SetAuditSink treats it as "no sink configured".
func newChannelAuditSink(bus *eventBus, log zerolog.Logger) manager.AuditSink {
	if bus == nil {
		return nil
	}
	return extend.NewAuditBus(bus.audit, log)
}

// newPlayoutEngine returns the channel's command-delivery edge to the
// external playout engine: a NATS command publisher when the audit bus is
// up, or a no-op engine that only logs intents otherwise.
func newPlayoutEngine(bus *eventBus, channelID string, log zerolog.Logger) channel.PlayoutEngine {
	if bus == nil {
		return channel.NewNoopPlayoutEngine(log)
	}
	return channel.NewNATSPlayoutEngine(bus.publisher, channelID, log)
}
