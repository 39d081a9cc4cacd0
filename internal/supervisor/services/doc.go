// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

/*
Package services provides suture.Service wrappers for components whose
native lifecycle isn't already shaped like suture's Serve(ctx) error.

This package adapts those components to the suture v4 supervision model,
translating Start/Stop and ListenAndServe patterns into suture's
context-aware Serve pattern. Components that already implement
suture.Service directly — horizon.Manager, playlog.Daemon, channel.Manager —
need no wrapper and are added to the tree as-is via ChannelSupervisor or
SupervisorTree.AddMessagingService.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (Start/Stop to Serve pattern)
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections
  - Used for both the operator HTTP API and the evidence server

Generic Start/Stop Adapter (StartStopService):
  - Wraps any StartStopComponent (Start(ctx) error; Stop() error)
  - Concrete consumer: *eventprocessor.RouterComponents, which bundles the
    horizon audit bus's NATS connection, JetStream stream provisioning,
    and publisher/subscriber pair behind one Start/Stop lifecycle
  - Build tag: nats (RouterComponents only exists under that tag)

WAL Services (WALRetryLoopService, WALCompactorService):
  - Wraps wal.RetryLoop and wal.Compactor
  - Handles BadgerDB lifecycle management
  - Build tag: wal (disabled by default)

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/slbailey/retrovue/internal/supervisor"
	    "github.com/slbailey/retrovue/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, routerComponents *eventprocessor.RouterComponents) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 30s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 30*time.Second)
	    tree.AddAPIService(httpSvc)

	    // Horizon audit bus (NATS/JetStream)
	    busSvc := services.NewStartStopService(routerComponents, "horizon-audit-bus")
	    tree.AddMessagingService(busSvc)

	    // Start supervision
	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles two common lifecycle patterns:

Start/Stop Pattern:

	type StartStopComponent interface {
	    Start(ctx context.Context) error
	    Stop() error
	}

	// Wrapped as:
	func (s *StartStopService) Serve(ctx context.Context) error {
	    if err := s.component.Start(ctx); err != nil {
	        return err
	    }
	    <-ctx.Done()
	    return s.component.Stop()
	}

ListenAndServe Pattern:

	type Listener interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (s *Service) Serve(ctx context.Context) error {
	    go s.server.ListenAndServe()
	    <-ctx.Done()
	    return s.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *HTTPServerService) String() string {
	    return "http-server"
	}

Suture uses this for log messages:

	INFO http-server: starting
	INFO http-server: stopped
	ERROR http-server: restarting after failure

# Testing

Services can be tested with mock components satisfying the relevant
interface (HTTPServer, StartStopComponent, WALStartStopper). See
sync_service_test.go and http_service_test.go for examples.

# Thread Safety

All service wrappers are safe for concurrent use:
  - State is protected by mutexes where needed
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree and ChannelSupervisor that manage these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/eventprocessor: horizon audit bus, source of RouterComponents
  - internal/wal: BadgerDB write-ahead log, source of RetryLoop/Compactor
*/
package services
