// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slbailey/retrovue/internal/middleware"
)

// EvidenceHandler serves one ExecutionEvidenceStream connection, scoped to
// the channel and session named in the URL. Satisfied by *evidence.Server.
type EvidenceHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request, channelID, sessionID string)
}

// Router assembles the operator HTTP API's route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	evidence      EvidenceHandler // mounted at /evidence/{channelID}/{sessionID}, may be nil
	jwtSecret     []byte
	perfMonitor   *middleware.PerformanceMonitor
}

// NewRouter constructs a Router. jwtSecret gates write operations via
// RequireBearerAuth; evidence, if non-nil, is mounted to serve the
// bidirectional ExecutionEvidenceStream.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, evidence EvidenceHandler, jwtSecret []byte) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(DefaultChiMiddlewareConfig())
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
		evidence:      evidence,
		jwtSecret:     jwtSecret,
		perfMonitor:   middleware.NewPerformanceMonitor(1000),
	}
}

// PerformanceStats returns per-endpoint latency percentiles gathered since
// the router started, for an operator diagnosing a slow channel query.
func (router *Router) PerformanceStats() []middleware.EndpointStats {
	return router.perfMonitor.GetStats()
}

// asChiMiddleware adapts the http.HandlerFunc-based middleware package to
// chi's func(http.Handler) http.Handler shape.
func asChiMiddleware(h func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return h(next.ServeHTTP)
	}
}

// Setup builds the chi.Router serving the operator API.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(router.perfMonitor.Middleware)
	r.Use(asChiMiddleware(middleware.PrometheusMetrics))
	r.Use(asChiMiddleware(middleware.Compression))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/healthz", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/horizon", router.handler.HorizonHealth)
	})

	r.Route("/api/v1/channels", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.ChannelList)
		r.Get("/{channelID}", router.handler.ChannelStatus)
		r.Get("/{channelID}/playlog", router.handler.ChannelPlaylogHealth)
		r.Get("/{channelID}/horizon", router.handler.ChannelHorizonHealth)
	})

	r.Route("/metrics", func(r chi.Router) {
		r.Handle("/", promhttp.Handler())
	})

	if router.evidence != nil {
		r.Get("/evidence/{channelID}/{sessionID}", func(w http.ResponseWriter, req *http.Request) {
			router.evidence.ServeHTTP(w, req, chi.URLParam(req, "channelID"), chi.URLParam(req, "sessionID"))
		})
	}

	return r
}
