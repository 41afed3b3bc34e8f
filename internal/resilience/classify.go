package resilience

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
	"time"
)

// FailureClass buckets a failed upstream call for backoff purposes.
type FailureClass int

const (
	// FailureOther covers malformed replies, empty content and anything
	// not recognized below.
	FailureOther FailureClass = iota
	// FailureRateLimited is an HTTP 429 or an equivalent message.
	FailureRateLimited
	// FailureServerError is a 5xx, a 408 or a timeout.
	FailureServerError
)

func (c FailureClass) String() string {
	switch c {
	case FailureRateLimited:
		return "rate_limited"
	case FailureServerError:
		return "server_error"
	default:
		return "other"
	}
}

var (
	rateLimitMarkers = []string{"429", "too many requests", "rate limit", "rate_limit"}
	serverMarkers    = []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"bad gateway",
		"service unavailable",
		"internal server error",
		"gateway timeout",
		"overloaded",
	}
	serverStatusRe = regexp.MustCompile(`\b5\d\d\b`)
)

// Classify assigns err to exactly one FailureClass. A status code carried
// by a TransientError wins over message heuristics.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureOther
	}

	switch code := StatusCodeOf(err); {
	case code == 429:
		return FailureRateLimited
	case code == 408 || code >= 500 && code <= 599:
		return FailureServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureServerError
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return FailureRateLimited
		}
	}
	if serverStatusRe.MatchString(msg) {
		return FailureServerError
	}
	for _, m := range serverMarkers {
		if strings.Contains(msg, m) {
			return FailureServerError
		}
	}
	return FailureOther
}

// ClassBackoff computes per-class retry delays. Rate limits and server
// errors scale linearly with the attempt number; everything else waits a
// fixed delay.
type ClassBackoff struct {
	RateLimitStep   time.Duration
	ServerErrorStep time.Duration
	OtherDelay      time.Duration
}

// DefaultClassBackoff waits attempt×5s after a rate limit, attempt×2s after
// a server error and 1s otherwise.
func DefaultClassBackoff() ClassBackoff {
	return ClassBackoff{
		RateLimitStep:   5 * time.Second,
		ServerErrorStep: 2 * time.Second,
		OtherDelay:      time.Second,
	}
}

// Delay returns the wait before retrying after the given 1-based attempt
// failed with class.
func (b ClassBackoff) Delay(class FailureClass, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch class {
	case FailureRateLimited:
		return time.Duration(attempt) * b.RateLimitStep
	case FailureServerError:
		return time.Duration(attempt) * b.ServerErrorStep
	default:
		return b.OtherDelay
	}
}
