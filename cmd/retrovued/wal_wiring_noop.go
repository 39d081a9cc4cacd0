// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats && !wal

package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/slbailey/retrovue/internal/eventprocessor"
	"github.com/slbailey/retrovue/internal/supervisor"
)

// attachWAL is a no-op in builds without the wal tag: bus.audit stays the
// plain publisher set by setupEventBus, with no crash durability.
func attachWAL(ctx context.Context, pub *eventprocessor.Publisher, tree *supervisor.SupervisorTree, log zerolog.Logger, bus *eventBus) {
}
