// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	a2aerrors "github.com/jllopis/a2alite/pkg/errors"
	"github.com/jllopis/a2alite/pkg/middleware"
)

// DispatchMetrics instruments skill dispatch with counters and a latency
// histogram.
type DispatchMetrics struct {
	tracer   trace.Tracer
	calls    metric.Int64Counter
	faults   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewDispatchMetrics registers the dispatch instruments on the global
// meter provider.
func NewDispatchMetrics() (*DispatchMetrics, error) {
	meter := otel.Meter("a2alite/dispatch")

	calls, err := meter.Int64Counter(
		"a2alite.skill.calls",
		metric.WithDescription("Skill invocations by skill name"),
	)
	if err != nil {
		return nil, err
	}
	faults, err := meter.Int64Counter(
		"a2alite.skill.faults",
		metric.WithDescription("Skill faults by skill name and error code"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"a2alite.skill.duration",
		metric.WithDescription("Skill execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{
		tracer:   otel.Tracer("a2alite/dispatch"),
		calls:    calls,
		faults:   faults,
		duration: duration,
	}, nil
}

// Middleware returns an interceptor that opens a span per call and records
// invocation count, latency, and fault codes. Install it first so every
// inner interceptor runs inside the span.
func (m *DispatchMetrics) Middleware() middleware.Func {
	return func(ctx context.Context, mctx *middleware.Context, next middleware.Next) (any, error) {
		skillAttr := attribute.String("skill", mctx.Skill)
		ctx, span := m.tracer.Start(ctx, "skill.dispatch", trace.WithAttributes(skillAttr))
		defer span.End()

		start := time.Now()
		result, err := next()
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)

		// The final handler may have resolved an unaddressed call.
		skillAttr = attribute.String("skill", mctx.Skill)
		span.SetAttributes(skillAttr)
		m.calls.Add(ctx, 1, metric.WithAttributes(skillAttr))
		m.duration.Record(ctx, elapsed, metric.WithAttributes(skillAttr))

		if err != nil {
			code := string(a2aerrors.As(err).Code)
			m.faults.Add(ctx, 1, metric.WithAttributes(skillAttr, attribute.String("code", code)))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.SetStatus(codes.Ok, "")
		return result, nil
	}
}
