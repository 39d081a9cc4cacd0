// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

//go:build nats

package eventprocessor

import (
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/slbailey/retrovue/internal/metrics"
)

// NewCircuitBreaker creates a circuit breaker for protecting the horizon
// audit bus publisher against a down or unreachable NATS server, tripping
// open after cfg.FailureThreshold consecutive publish failures.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[interface{}] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}
	return gobreaker.NewCircuitBreaker[interface{}](settings)
}
