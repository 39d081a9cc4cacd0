// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package services

import (
	"context"
	"fmt"
)

// StartStopComponent is any component whose lifecycle is Start(ctx)/Stop()
// rather than suture's native Serve(ctx). Satisfied by
// *eventprocessor.DuckDBConsumer, the horizon audit bus's JetStream
// subscriber that drains ExtensionAttempt/SeamViolation events into
// horizon_audit_log.
type StartStopComponent interface {
	Start(ctx context.Context) error
	Stop() error
}

// StartStopService adapts a StartStopComponent to suture's Serve pattern:
// Start on entry, block on ctx, Stop on exit.
type StartStopService struct {
	component StartStopComponent
	name      string
}

// NewStartStopService wraps component as a supervised service identified by
// name in logs.
func NewStartStopService(component StartStopComponent, name string) *StartStopService {
	return &StartStopService{
		component: component,
		name:      name,
	}
}

// Serve implements suture.Service.
func (s *StartStopService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.component.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *StartStopService) String() string {
	return s.name
}
