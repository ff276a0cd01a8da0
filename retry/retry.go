// Package retry implements the exponential-backoff attempt loop used
// for a single logical fetch: classifying which failures are worth
// retrying, computing the delay before the next attempt, and recording
// how many attempts were made.
//
// Grounded on the teacher's own sleep-and-retry-once pattern in
// updater.go (updateEntry: on failure, sleep a second and try exactly
// once more), generalized here to a configurable exponential policy —
// the teacher's single hardcoded retry was enough for its background
// cache-refresh job but not for a general-purpose fetch client.
package retry

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Policy configures the backoff schedule. Limiter, when set, paces
// retries across every in-flight fetch sharing it — the exponential
// backoff alone only spaces out one request's own attempts, so a burst
// of requests that each hit a failing origin at once would otherwise
// still retry in lockstep.
type Policy struct {
	Retries    int
	Factor     float64
	MinTimeout time.Duration
	MaxTimeout time.Duration
	Randomize  bool
	Limiter    *rate.Limiter
}

// Delay returns how long to wait before attempt (1-indexed: the delay
// before the *second* attempt is Delay(1)).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.MinTimeout) * math.Pow(p.Factor, float64(attempt))
	if p.Randomize {
		d = d * (1 + rand.Float64())
	}
	if d > float64(p.MaxTimeout) {
		d = float64(p.MaxTimeout)
	}
	return time.Duration(d)
}

// Wait blocks until the next attempt may run: the backoff delay for
// this attempt, then (if Limiter is set) a reservation from the shared
// limiter. Returns ctx.Err() if ctx is done first.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.Delay(attempt)):
	}
	if p.Limiter == nil {
		return nil
	}
	return p.Limiter.Wait(ctx)
}

// RetriableStatus reports whether an HTTP response status is worth
// retrying: request timeout, a couple of platform-specific rate-limit
// conventions, and the 5xx range.
func RetriableStatus(statusCode int) bool {
	switch statusCode {
	case 408, 420, 429:
		return true
	default:
		return statusCode >= 500 && statusCode <= 599
	}
}

// retriableErr is satisfied by gofetch.TransportError without retry
// importing the root package (which would cycle); it only needs the
// one method it cares about.
type retriableErr interface {
	Retriable() bool
}

// RetriableError reports whether err (as classified by the caller, e.g.
// gofetch.TransportError) should trigger another attempt.
func RetriableError(err error) bool {
	if re, ok := err.(retriableErr); ok {
		return re.Retriable()
	}
	return false
}

// AttemptsHeader is the informational header set on the final response
// of a retried request, naming how many attempts were made in total.
const AttemptsHeader = "X-Fetch-Attempts"

// SetAttempts stamps the attempt count onto a response header.
func SetAttempts(header http.Header, attempts int) {
	header.Set(AttemptsHeader, strconv.Itoa(attempts))
}

// Retriable reports whether a request may be retried at all: unsafe,
// non-idempotent methods (POST) are never retried, nor is any request
// whose body cannot be rewound for a second attempt.
func Retriable(method string, bodyRewindable bool) bool {
	if method == http.MethodPost {
		return false
	}
	return bodyRewindable
}
