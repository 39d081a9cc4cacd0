// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build !nats

package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/channel"
	"github.com/slbailey/retrovue/internal/config"
	"github.com/slbailey/retrovue/internal/database"
	"github.com/slbailey/retrovue/internal/horizon/manager"
	"github.com/slbailey/retrovue/internal/supervisor"
)

// eventBus mirrors the nats-tagged build's bundle so main.go stays
// build-tag-agnostic; it carries no state without the nats tag.
type eventBus struct{}

// setupEventBus is a no-op without the nats build tag: the horizon audit
// bus is unavailable, so channels run with ExtensionAttempt/SeamViolation
// events logged but not durably recorded. Binaries built with -tags nats
// get the real bus.
func setupEventBus(_ context.Context, _ *config.NATSConfig, _ *database.DB, _ *supervisor.SupervisorTree, log zerolog.Logger) (*eventBus, error) {
	log.Warn().Msg("built without nats tag: horizon audit bus disabled, ExtensionAttempt/SeamViolation events are logged only")
	return nil, nil
}

// newChannelAuditSink always returns nil without the nats tag.
func newChannelAuditSink(_ *eventBus, _ zerolog.Logger) manager.AuditSink {
	return nil
}

// newPlayoutEngine always returns the no-op engine without the nats tag.
func newPlayoutEngine(_ *eventBus, _ string, log zerolog.Logger) channel.PlayoutEngine {
	return channel.NewNoopPlayoutEngine(log)
}
