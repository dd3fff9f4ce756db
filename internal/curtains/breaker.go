// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package curtains

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/curtains/internal/logging"
	"github.com/tomtom215/curtains/internal/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects commands.
var ErrCircuitOpen = errors.New("curtain controller unavailable")

// errServerStatus marks a 5xx answer as a breaker failure while still
// handing the response back to the caller.
var errServerStatus = errors.New("controller server error")

// BreakerGateway wraps a Gateway with a circuit breaker.
//
// The breaker uses real time for its interval and timeout, so tests drive
// it through request outcomes rather than a clock.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[Response]
	name string
}

// BreakerSettings tunes BreakerGateway.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // allowed in half-open state
	Interval    time.Duration // counts reset period while closed
	Timeout     time.Duration // open -> half-open delay
	MinRequests uint32        // requests needed before tripping
	FailureRate float64       // trip ratio
}

// DefaultBreakerSettings opens after 60% failures over at least 10
// requests and retries after 2 minutes.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "curtain-controller",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		MinRequests: 10,
		FailureRate: 0.6,
	}
}

// NewBreakerGateway wraps next.
func NewBreakerGateway(next Gateway, s BreakerSettings) *BreakerGateway {
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[Response](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRate {
				logging.Warn().
					Str("breaker", s.Name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerGateway{next: next, cb: cb, name: s.Name}
}

// Send forwards req unless the circuit is open.
func (g *BreakerGateway) Send(ctx context.Context, req Request) (Response, error) {
	resp, err := g.cb.Execute(func() (Response, error) {
		resp, err := g.next.Send(ctx, req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "success").Inc()
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "rejected").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("breaker", g.name).Msg("Curtain command rejected by circuit breaker")
		return Response{}, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case errors.Is(err, errServerStatus):
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "failure").Inc()
		return resp, nil
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "failure").Inc()
		return Response{}, err
	}
}

// State is the breaker's current state name.
func (g *BreakerGateway) State() string {
	return stateToString(g.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

var _ Gateway = (*BreakerGateway)(nil)
