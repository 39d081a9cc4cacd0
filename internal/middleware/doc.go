// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

/*
Package middleware provides HTTP middleware components for the operator API.

This package implements infrastructure middleware for compression and
performance monitoring. internal/api carries its own chi-native request ID
and CORS/rate-limit middleware (see internal/api.RequestIDWithLogging and
internal/api.ChiMiddleware); this package covers what chi doesn't.

Key Components:

  - Compression: Gzip compression for responses >1KB
  - Performance Monitor: Request latency tracking with percentile calculations
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

internal/api.Router.Setup wires these, outer to inner, onto every operator
API route:

	RequestIDWithLogging -> RealIP -> Recoverer -> CORS ->
	    PerformanceMonitor.Middleware -> PrometheusMetrics -> Compression ->
	    route handler

Usage Example - Compression:

	import "github.com/slbailey/retrovue/internal/middleware"

	// Wrap handler with gzip compression
	http.HandleFunc("/api/v1/data",
	    middleware.Compression(handler),
	)

	// Responses >1KB are automatically compressed
	// Accept-Encoding: gzip header is required

Usage Example - Performance Monitoring:

	// Create performance monitor
	perfMon := middleware.NewPerformanceMonitor()

	// Wrap handler
	http.HandleFunc("/api/v1/stats",
	    perfMon.Middleware(handler),
	)

	// Get performance statistics
	stats := perfMon.GetStats()
	fmt.Printf("p50: %v, p95: %v, p99: %v\n",
	    stats.P50, stats.P95, stats.P99)

Performance Characteristics:

  - Compression: 70-90% size reduction for JSON (text/json mime types)
  - Compression overhead: ~1-2ms for typical responses
  - Metrics overhead: <0.1ms per request
  - Performance monitor: Lock-free ring buffer for latency samples

Compression Details:

The compression middleware:
  - Only compresses responses >1KB (configurable threshold)
  - Supports gzip encoding (Accept-Encoding: gzip)
  - Applies to text/json/javascript/xml mime types
  - Automatically sets Content-Encoding header
  - Flushes compressed data for streaming responses

Performance Monitor:

The performance monitor tracks:
  - Request count and error rate
  - Latency percentiles (p50, p95, p99)
  - Rolling window of 1000 most recent requests
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Compression uses per-request gzip writers
  - Performance monitor uses sync.RWMutex
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: the Router that wires this package into the operator API,
    plus its own chi-native request ID, CORS, and rate-limit middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
