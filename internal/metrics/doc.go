// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

/*
Package metrics provides Prometheus metrics for the operator HTTP API and
the horizon audit bus.

# Overview

The package covers three surfaces:
  - the operator API (request rate, latency, active requests, rate-limit
    rejections)
  - the horizon audit bus publisher's circuit breaker (state, transitions,
    consecutive failures)
  - the horizon audit bus itself (publish/consume/process counts,
    deduplication, batch flush timing)

# Metrics Endpoint

internal/api.Router.Setup mounts these at /metrics in Prometheus text
format:

	curl http://localhost:8080/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests through the breaker (counter)
    Labels: name, result ("success", "failure", "rejected")
  - circuit_breaker_consecutive_failures: Current streak (gauge)
    Labels: name
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

Horizon Audit Bus Metrics:
  - nats_messages_published_total / nats_messages_consumed_total /
    nats_messages_processed_total: bus throughput (counters)
  - nats_messages_deduplicated_total / nats_messages_parse_failed_total:
    consumer rejection counts (counters)
  - nats_processing_duration_seconds: per-message processing time (histogram)
  - nats_batch_flush_duration_seconds / nats_batch_size: DuckDB appender
    batch flush timing and size (histogram)

System Metrics:
  - app_info: version/go_version labels, value always 1 (gauge)
  - app_uptime_seconds: seconds since retrovued started (gauge)

# Usage Example

	import "github.com/slbailey/retrovue/internal/metrics"

	metrics.RecordAPIRequest("GET", "/api/v1/channels", "200", 23*time.Millisecond)
	metrics.TrackActiveRequest(true)
	defer metrics.TrackActiveRequest(false)

internal/middleware.PrometheusMetrics wraps these two calls around every
request that reaches internal/api.Router.Setup.

# Prometheus Configuration

	scrape_configs:
	  - job_name: 'retrovue'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# API p95 latency
	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))

	# Horizon audit bus publish rate
	rate(nats_messages_published_total[5m])

	# Circuit breaker currently open
	circuit_breaker_state > 0

# Cardinality Management

  - endpoint labels use the route pattern, not the raw path with IDs
  - circuit breaker names are fixed per publisher (one per process)

# See Also

  - internal/middleware: HTTP middleware recording the API metrics
  - internal/eventprocessor: horizon audit bus publisher, consumer, and
    circuit breaker recording the remaining metrics
  - internal/api: mounts /metrics via promhttp.Handler
*/
package metrics
