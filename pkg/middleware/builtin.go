// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jllopis/a2alite/pkg/errors"
)

// MetadataDurationMS is the Context metadata key written by Timing.
const MetadataDurationMS = "duration_ms"

// Logging records the skill and params before the continuation and the
// outcome after it. Errors are re-raised after logging, never swallowed.
func Logging(logger *slog.Logger) Func {
	return func(ctx context.Context, mctx *Context, next Next) (any, error) {
		log := logger
		if log == nil {
			log = slog.Default()
		}
		log.InfoContext(ctx, "skill call", "skill", mctx.Skill, "params", mctx.Params)
		result, err := next()
		if err != nil {
			log.ErrorContext(ctx, "skill failed", "skill", mctx.Skill, "error", err)
			return nil, err
		}
		log.InfoContext(ctx, "skill returned", "skill", mctx.Skill)
		return result, nil
	}
}

// Timing records elapsed wall-clock milliseconds into the context metadata
// under MetadataDurationMS. The result passes through untouched.
func Timing() Func {
	return func(_ context.Context, mctx *Context, next Next) (any, error) {
		start := time.Now()
		result, err := next()
		mctx.Metadata[MetadataDurationMS] = float64(time.Since(start).Microseconds()) / 1000.0
		return result, err
	}
}

// Retry calls the continuation up to maxAttempts times with linear backoff
// (delay × attempt number between attempts), returning the first success or
// the last error. Everything inside the chain re-executes on each attempt;
// idempotence of retried work is the skill author's responsibility.
func Retry(maxAttempts int, delay time.Duration) Func {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(ctx context.Context, _ *Context, next Next) (any, error) {
		var lastErr error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			result, err := next()
			if err == nil {
				return result, nil
			}
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay * time.Duration(attempt)):
				}
			}
		}
		return nil, lastErr
	}
}

// RateLimiter bounds calls with a sliding one-minute window of timestamps.
// The window is owned by this instance and is per-process: multi-worker
// deployments get independent windows.
type RateLimiter struct {
	limit int
	now   func() time.Time

	mu     sync.Mutex
	window []time.Time
}

// NewRateLimiter creates a limiter allowing perMinute calls per sliding
// minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{limit: perMinute, now: time.Now}
}

// Middleware returns the interceptor enforcing this limiter. When the window
// already holds the configured limit, it fails with a RATE_LIMITED error
// without calling the continuation.
func (r *RateLimiter) Middleware() Func {
	return func(_ context.Context, _ *Context, next Next) (any, error) {
		if err := r.take(); err != nil {
			return nil, err
		}
		return next()
	}
}

func (r *RateLimiter) take() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-time.Minute)
	kept := r.window[:0]
	for _, ts := range r.window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.window = kept

	if len(r.window) >= r.limit {
		return errors.Newf(errors.CodeRateLimited,
			"rate limit exceeded: %d requests per minute", r.limit)
	}
	r.window = append(r.window, now)
	return nil
}
