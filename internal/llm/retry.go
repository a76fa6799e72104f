// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// retry.go wraps the call contracts with exponential backoff. The
// orchestration core never retries internally; wrapping the backends
// here is the one supported way to add a retry policy.
package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/company-research/internal/agent"
	"github.com/pdiddy/company-research/pkg/types"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

const defaultMaxRetries = 3

// Retrying decorates a pair of call backends with retry-on-error.
type Retrying struct {
	caller     agent.Caller
	structured agent.StructuredCaller
	maxRetries int
}

// WithRetry wraps backends so each call is attempted up to maxRetries+1
// times with exponential backoff. maxRetries <= 0 uses the default (3).
func WithRetry(caller agent.Caller, structured agent.StructuredCaller, maxRetries int) *Retrying {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Retrying{caller: caller, structured: structured, maxRetries: maxRetries}
}

func (r *Retrying) Call(ctx context.Context, system, user string) (string, error) {
	return retry(ctx, r.maxRetries, func() (string, error) {
		return r.caller.Call(ctx, system, user)
	})
}

func (r *Retrying) CallReflection(ctx context.Context, system, user string) (types.Reflection, error) {
	return retry(ctx, r.maxRetries, func() (types.Reflection, error) {
		return r.structured.CallReflection(ctx, system, user)
	})
}

func (r *Retrying) CallReview(ctx context.Context, system, user string) (types.GapReport, error) {
	return retry(ctx, r.maxRetries, func() (types.GapReport, error) {
		return r.structured.CallReview(ctx, system, user)
	})
}

func retry[T any](ctx context.Context, maxRetries int, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
		}
		out, err := call()
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return zero, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
