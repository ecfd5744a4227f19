// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
	"github.com/google/go-cmp/cmp"
)

func TestEmptyChainEqualsDirectCall(t *testing.T) {
	chain := NewChain()
	mctx := NewContext("add", map[string]any{"a": 1}, "")

	result, err := chain.Execute(context.Background(), mctx, func(_ context.Context, got *Context) (any, error) {
		if got != mctx {
			t.Errorf("final handler received a different context instance")
		}
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Errorf("expected 42, got %v, %v", result, err)
	}
}

func TestOrderingAndWrapLaw(t *testing.T) {
	chain := NewChain()
	var trace []string
	for _, name := range []string{"first", "second", "third"} {
		chain.Use(func(_ context.Context, _ *Context, next Next) (any, error) {
			trace = append(trace, "before "+name)
			result, err := next()
			trace = append(trace, "after "+name)
			return result, err
		})
	}

	result, err := chain.Execute(context.Background(), NewContext("", nil, ""),
		func(context.Context, *Context) (any, error) {
			trace = append(trace, "handler")
			return "V", nil
		})
	if err != nil || result != "V" {
		t.Fatalf("expected pass-through of V, got %v, %v", result, err)
	}

	want := []string{
		"before first", "before second", "before third",
		"handler",
		"after third", "after second", "after first",
	}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestShortCircuit(t *testing.T) {
	chain := NewChain()
	innerRan := false
	handlerRan := false

	chain.Use(func(context.Context, *Context, Next) (any, error) {
		return "cached", nil // never calls next
	})
	chain.Use(func(_ context.Context, _ *Context, next Next) (any, error) {
		innerRan = true
		return next()
	})

	result, err := chain.Execute(context.Background(), NewContext("", nil, ""),
		func(context.Context, *Context) (any, error) {
			handlerRan = true
			return "real", nil
		})
	if err != nil || result != "cached" {
		t.Errorf("expected short-circuit value, got %v, %v", result, err)
	}
	if innerRan || handlerRan {
		t.Errorf("inner interceptor or handler ran after short-circuit")
	}
}

func TestResultRewriting(t *testing.T) {
	chain := NewChain()
	chain.Use(func(_ context.Context, _ *Context, next Next) (any, error) {
		result, err := next()
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("wrapped(%v)", result), nil
	})

	result, _ := chain.Execute(context.Background(), NewContext("", nil, ""),
		func(context.Context, *Context) (any, error) { return "x", nil })
	if result != "wrapped(x)" {
		t.Errorf("expected rewritten result, got %v", result)
	}
}

func TestSharedMetadataVisibility(t *testing.T) {
	chain := NewChain()
	chain.Use(func(_ context.Context, mctx *Context, next Next) (any, error) {
		mctx.Metadata["request_id"] = "r-1"
		return next()
	})
	chain.Use(func(_ context.Context, mctx *Context, next Next) (any, error) {
		if mctx.Metadata["request_id"] != "r-1" {
			t.Errorf("outer metadata not visible to inner interceptor")
		}
		return next()
	})

	_, _ = chain.Execute(context.Background(), NewContext("", nil, ""),
		func(_ context.Context, mctx *Context) (any, error) {
			if mctx.Metadata["request_id"] != "r-1" {
				t.Errorf("outer metadata not visible to final handler")
			}
			return nil, nil
		})
}

func TestErrorPropagatesThroughEnteredInterceptors(t *testing.T) {
	chain := NewChain()
	sawError := false
	chain.Use(func(_ context.Context, _ *Context, next Next) (any, error) {
		_, err := next()
		if err != nil {
			sawError = true
		}
		return nil, err
	})

	boom := errors.New("boom")
	_, err := chain.Execute(context.Background(), NewContext("", nil, ""),
		func(context.Context, *Context) (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected boom to propagate, got %v", err)
	}
	if !sawError {
		t.Errorf("outer interceptor did not observe the error")
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	chain := NewChain()
	chain.Use(Retry(3, time.Millisecond))

	calls := 0
	result, err := chain.Execute(context.Background(), NewContext("", nil, ""),
		func(context.Context, *Context) (any, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("transient")
			}
			return "ok", nil
		})
	if err != nil || result != "ok" {
		t.Fatalf("expected success, got %v, %v", result, err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryExhaustsAndReturnsLastError(t *testing.T) {
	chain := NewChain()
	chain.Use(Retry(2, time.Millisecond))

	calls := 0
	last := errors.New("still failing")
	_, err := chain.Execute(context.Background(), NewContext("", nil, ""),
		func(context.Context, *Context) (any, error) {
			calls++
			return nil, last
		})
	if !errors.Is(err, last) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestTimingRecordsDuration(t *testing.T) {
	chain := NewChain()
	chain.Use(Timing())
	mctx := NewContext("", nil, "")

	_, _ = chain.Execute(context.Background(), mctx,
		func(context.Context, *Context) (any, error) {
			time.Sleep(2 * time.Millisecond)
			return nil, nil
		})

	ms, ok := mctx.Metadata[MetadataDurationMS].(float64)
	if !ok || ms <= 0 {
		t.Errorf("expected positive duration_ms, got %v", mctx.Metadata[MetadataDurationMS])
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2)
	now := time.Unix(1000, 0)
	limiter.now = func() time.Time { return now }

	chain := NewChain()
	chain.Use(limiter.Middleware())

	handlerCalls := 0
	run := func() error {
		_, err := chain.Execute(context.Background(), NewContext("", nil, ""),
			func(context.Context, *Context) (any, error) {
				handlerCalls++
				return nil, nil
			})
		return err
	}

	if err := run(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := run(); err != nil {
		t.Fatalf("second call: %v", err)
	}

	err := run()
	var ae *a2aerrors.Error
	if !errors.As(err, &ae) || ae.Code != a2aerrors.CodeRateLimited {
		t.Fatalf("expected RATE_LIMITED, got %v", err)
	}
	if handlerCalls != 2 {
		t.Errorf("handler ran after limit: %d calls", handlerCalls)
	}

	// Window slides: a minute later the limiter admits calls again.
	now = now.Add(61 * time.Second)
	if err := run(); err != nil {
		t.Errorf("expected call after window slide, got %v", err)
	}
}
