// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats && wal

package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/eventprocessor"
	"github.com/slbailey/retrovue/internal/supervisor"
	"github.com/slbailey/retrovue/internal/supervisor/services"
	"github.com/slbailey/retrovue/internal/wal"
)

// attachWAL opens the event durability WAL, recovers anything left pending
// from a previous run, and registers the retry loop and compactor with
// tree. bus.audit is swapped to the WAL-backed wrapper so every event
// published through newChannelAuditSink is durable before the NATS publish
// attempt. A WAL open failure is logged and swallowed: the bus still works,
// just without crash durability, which matches running without this tag.
func attachWAL(ctx context.Context, pub *eventprocessor.Publisher, tree *supervisor.SupervisorTree, log zerolog.Logger, bus *eventBus) {
	cfg := wal.LoadConfig()
	if !cfg.Enabled {
		log.Info().Msg("horizon audit WAL disabled")
		return
	}

	w, err := wal.Open(&cfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Path).Msg("open horizon audit WAL, continuing without durability")
		return
	}

	durable := eventprocessor.NewDurablePublisher(pub, w)

	recovered, failed, err := durable.RecoverPending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("recover pending horizon audit WAL entries")
	} else if recovered > 0 || failed > 0 {
		log.Info().Int("recovered", recovered).Int("failed", failed).Msg("horizon audit WAL recovery complete")
	}

	retryLoop := wal.NewRetryLoop(w, durable)
	compactor := wal.NewCompactor(w)
	tree.AddDataService(services.NewWALRetryLoopService(retryLoop))
	tree.AddDataService(services.NewWALCompactorService(compactor))

	bus.audit = durable
}
