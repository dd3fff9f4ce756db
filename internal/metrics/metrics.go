// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curtains_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curtains_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "curtains_api_active_requests",
			Help: "Number of requests currently being handled",
		},
	)

	// Curtain control
	CurtainCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curtains_commands_total",
			Help: "Curtain commands sent to the controller",
		},
		[]string{"building", "action", "result"}, // result: success, rejected, error
	)

	CurtainCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curtains_command_duration_seconds",
			Help:    "Round trip time of controller requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"building"},
	)

	// Authorization
	AuthDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curtains_auth_decisions_total",
			Help: "Authorization layer outcomes",
		},
		[]string{"decision"}, // public, static, allow, redirect, unauthorized, forbidden, blocked
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curtains_logins_total",
			Help: "Identity callback outcomes",
		},
		[]string{"result"}, // new_user, existing_user, failure
	)

	ISPLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curtains_isp_lookups_total",
			Help: "ISP allow-list lookups",
		},
		[]string{"result"}, // allowed, blocked, error, cached
	)

	// Domain state
	StatsUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curtains_stats_updates_total",
			Help: "Daily statistics increments",
		},
		[]string{"action"},
	)

	ReferralsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curtains_referrals_total",
			Help: "Referral resolutions by outcome",
		},
		[]string{"outcome"},
	)

	PremiumGrantsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curtains_premium_grants_total",
			Help: "Users who crossed the premium threshold",
		},
	)

	ChatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curtains_chat_messages_total",
			Help: "Chat messages accepted",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCurtainCommand records one controller request.
func RecordCurtainCommand(building, action, result string, duration time.Duration) {
	CurtainCommandsTotal.WithLabelValues(building, action, result).Inc()
	if duration > 0 {
		CurtainCommandDuration.WithLabelValues(building).Observe(duration.Seconds())
	}
}

// RecordAuthDecision counts an authorization layer outcome.
func RecordAuthDecision(decision string) {
	AuthDecisionsTotal.WithLabelValues(decision).Inc()
}
