// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

/*
Package api provides a thin HTTP surface over RetroVue's supervised
components, for operator tooling that prefers HTTP over the CLI.

# Overview

The API is read-mostly: it mirrors the status and health information the
CLI's JSON-mode commands already expose, plus the mount point for the
bidirectional ExecutionEvidenceStream.

Routes:

  - GET /api/v1/health/live, /api/v1/health/ready: liveness/readiness probes
  - GET /api/v1/healthz/horizon: every channel's Horizon Manager EPG/
    execution depth compliance report, keyed by channel ID — there is no
    single global Horizon Manager, each channel runs its own
  - GET /api/v1/channels: every channel's supervision status
  - GET /api/v1/channels/{channelID}: one channel's supervision and
    boundary-state status
  - GET /api/v1/channels/{channelID}/playlog: one channel's Playlog
    Horizon Daemon depth compliance
  - GET /api/v1/channels/{channelID}/horizon: one channel's Horizon
    Manager depth compliance
  - GET /metrics: Prometheus exposition
  - GET /evidence/{channelID}/{sessionID}: the ExecutionEvidenceStream
    websocket upgrade

# Authentication

Write operations (none yet exposed by this package; channel add/remove
goes through ChannelSupervisor directly, invoked from cmd/retrovuectl) are
gated by RequireBearerAuth, a golang-jwt/jwt/v5 bearer-token check.

# Usage Example

	handler := api.NewHandler(db, channelSupervisor, horizonManagers, playlogDaemons, liveManagers)
	router := api.NewRouter(handler, nil, evidenceServer, []byte(cfg.Security.JWTSecret))
	http.ListenAndServe(cfg.Server.Addr, router.Setup())

# See Also

  - internal/supervisor: ChannelSupervisor, the source of channel status
  - internal/horizon/manager: the global Horizon Manager
  - internal/horizon/playlog: per-channel Playlog Horizon Daemons
  - internal/evidence: the ExecutionEvidenceStream server
*/
package api
