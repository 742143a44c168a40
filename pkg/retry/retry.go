package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/smithy-go"
)

// Policy holds the retry configuration applied uniformly at scan and delete
// call sites.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	Retryable    func(error) bool
}

// DefaultPolicy returns the retry policy used for AWS Config API calls.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:  5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		Retryable:    IsThrottle,
	}
}

// retryableCodes are the API error codes worth waiting out. ResourceInUse
// shows up when a rule is still being evaluated while its recorder winds down.
var retryableCodes = map[string]bool{
	"ThrottlingException":         true,
	"TooManyRequestsException":    true,
	"RequestLimitExceeded":        true,
	"ResourceInUseException":      true,
	"ServiceUnavailableException": true,
}

// IsThrottle reports whether err is a transient AWS API error that a backoff
// retry can recover from.
func IsThrottle(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if retryableCodes[apiErr.ErrorCode()] {
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "rate exceeded")
}

// Do executes fn with exponential backoff until it succeeds, the error is
// not retryable, attempts are exhausted, or ctx is cancelled.
func Do(ctx context.Context, policy *Policy, fn func() error) error {
	if policy == nil {
		policy = DefaultPolicy()
	}

	var lastErr error
	delay := policy.InitialDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if policy.Retryable != nil && !policy.Retryable(err) {
			return err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		if attempt > 1 {
			delay = time.Duration(float64(delay) * policy.Multiplier)
			if delay > policy.MaxDelay {
				delay = policy.MaxDelay
			}
		}

		wait := delay
		if policy.Jitter {
			wait += time.Duration(rand.Float64() * float64(delay) * 0.3)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", policy.MaxAttempts, lastErr)
}
