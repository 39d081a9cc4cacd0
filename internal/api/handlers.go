// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/slbailey/retrovue/internal/channel"
	"github.com/slbailey/retrovue/internal/database"
	horizonmgr "github.com/slbailey/retrovue/internal/horizon/manager"
	"github.com/slbailey/retrovue/internal/horizon/playlog"
	"github.com/slbailey/retrovue/internal/supervisor"
	"github.com/slbailey/retrovue/internal/validation"
)

func chiURLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// Handler serves the operator HTTP API: a thin, read-mostly surface over
// the same components the CLI drives, for tooling that prefers HTTP over
// shelling out. Write operations (channel add/remove) go through
// ChannelSupervisor and are gated by RequireBearerAuth.
type Handler struct {
	db        *database.DB
	channels  *supervisor.ChannelSupervisor
	horizons  map[string]*horizonmgr.Manager
	playlogs  map[string]*playlog.Daemon
	live      map[string]*channel.Manager
	startedAt time.Time
}

// NewHandler constructs the operator API handler. horizons, playlogs, and
// live are all keyed by channel ID — each channel runs its own Horizon
// Manager, Playlog Horizon Daemon, and channel manager instance, there is
// no single global Horizon Manager. Any may be nil or missing entries for
// channels with no per-channel detail endpoint support yet.
func NewHandler(db *database.DB, channels *supervisor.ChannelSupervisor, horizons map[string]*horizonmgr.Manager, playlogs map[string]*playlog.Daemon, live map[string]*channel.Manager) *Handler {
	return &Handler{
		db:        db,
		channels:  channels,
		horizons:  horizons,
		playlogs:  playlogs,
		live:      live,
		startedAt: time.Now(),
	}
}

// HealthLive reports process liveness: if this handler can run at all,
// the process is alive. Used for a Kubernetes-style liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"status": "alive",
		"uptime": time.Since(h.startedAt).String(),
	})
}

// HealthReady reports readiness: the system-of-record database must be
// reachable. Used for a readiness probe gating traffic.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.db == nil {
		rw.ServiceUnavailable("database not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		rw.ServiceUnavailable("database unreachable: " + err.Error())
		return
	}

	rw.Success(map[string]any{"status": "ready"})
}

// HorizonHealth reports every channel's Horizon Manager EPG/execution
// depth compliance, keyed by channel ID, for the /healthz/horizon endpoint
// referenced by SPEC_FULL.md. There is no single global Horizon Manager —
// each channel runs its own.
func (h *Handler) HorizonHealth(w http.ResponseWriter, r *http.Request) {
	reports := make(map[string]horizonmgr.HealthReport, len(h.horizons))
	for channelID, mgr := range h.horizons {
		if mgr != nil {
			reports[channelID] = mgr.GetHealthReport()
		}
	}
	NewResponseWriter(w, r).Success(reports)
}

// ChannelHorizonHealth reports one channel's Horizon Manager health.
func (h *Handler) ChannelHorizonHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	channelID := chiURLParam(r, "channelID")
	if channelID == "" {
		rw.BadRequest("channel id is required")
		return
	}

	mgr, ok := h.horizons[channelID]
	if !ok || mgr == nil {
		rw.NotFound("no horizon manager for channel: " + channelID)
		return
	}

	rw.Success(mgr.GetHealthReport())
}

// channelListQuery is the optional pagination window for ChannelList,
// validated with the same struct-tag rules the rest of the operator API
// uses for request binding.
type channelListQuery struct {
	Limit  int `validate:"min=0,max=1000"`
	Offset int `validate:"min=0"`
}

// ChannelList reports the supervision status of every configured channel,
// optionally windowed by ?limit=&offset= for deployments with many
// channels.
func (h *Handler) ChannelList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.channels == nil {
		rw.ServiceUnavailable("channel supervisor not configured")
		return
	}

	q := channelListQuery{Limit: 0, Offset: 0}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			rw.BadRequest("limit must be an integer")
			return
		}
		q.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			rw.BadRequest("offset must be an integer")
			return
		}
		q.Offset = n
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	statuses := h.channels.GetAllChannelStatuses()
	if q.Offset >= len(statuses) {
		rw.Success([]supervisor.ChannelStatus{})
		return
	}
	end := len(statuses)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	rw.Success(statuses[q.Offset:end])
}

// channelStatusResponse combines supervision status with live playout
// state for one channel.
type channelStatusResponse struct {
	supervisor.ChannelStatus
	BoundaryState  string `json:"boundary_state,omitempty"`
	IsLive         bool   `json:"is_live"`
	PendingFatal   string `json:"pending_fatal,omitempty"`
	PlaylogHealthy *bool  `json:"playlog_healthy,omitempty"`
}

// ChannelStatus reports one channel's supervision and playout status.
func (h *Handler) ChannelStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	channelID := chiURLParam(r, "channelID")
	if channelID == "" {
		rw.BadRequest("channel id is required")
		return
	}

	if h.channels == nil {
		rw.ServiceUnavailable("channel supervisor not configured")
		return
	}

	status, err := h.channels.GetChannelStatus(channelID)
	if err != nil {
		rw.NotFound("channel not found: " + channelID)
		return
	}

	resp := channelStatusResponse{ChannelStatus: *status}

	if mgr, ok := h.live[channelID]; ok && mgr != nil {
		resp.BoundaryState = string(mgr.BoundaryState())
		resp.IsLive = mgr.IsLive()
		if err := mgr.PendingFatal(); err != nil {
			resp.PendingFatal = err.Error()
		}
	}

	if d, ok := h.playlogs[channelID]; ok && d != nil {
		healthy := d.GetHealthReport().IsHealthy
		resp.PlaylogHealthy = &healthy
	}

	rw.Success(resp)
}

// ChannelPlaylogHealth reports one channel's Playlog Horizon Daemon depth
// compliance (Tier 1/Tier 2 coverage), separate from the global EPG
// horizon reported by HorizonHealth.
func (h *Handler) ChannelPlaylogHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	channelID := chiURLParam(r, "channelID")
	if channelID == "" {
		rw.BadRequest("channel id is required")
		return
	}

	d, ok := h.playlogs[channelID]
	if !ok || d == nil {
		rw.NotFound("no playlog daemon for channel: " + channelID)
		return
	}

	rw.Success(d.GetHealthReport())
}
