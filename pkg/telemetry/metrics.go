// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/maarifa/agentcore/pkg/errors"
)

// RequestMetrics tracks request outcomes, latency, policy blocks and
// cache effectiveness for production monitoring.
type RequestMetrics struct {
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCounter    metric.Int64Counter
	blockCounter    metric.Int64Counter
	cacheCounter    metric.Int64Counter
}

// NewRequestMetrics registers the agent core meters.
func NewRequestMetrics() (*RequestMetrics, error) {
	meter := otel.Meter("agentcore/agent")

	requestCounter, err := meter.Int64Counter(
		"agentcore.requests.total",
		metric.WithDescription("Requests by intent and outcome"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"agentcore.requests.duration",
		metric.WithDescription("End to end request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"agentcore.errors.total",
		metric.WithDescription("Errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	blockCounter, err := meter.Int64Counter(
		"agentcore.policy.blocks",
		metric.WithDescription("Requests blocked by policy, by reason"),
	)
	if err != nil {
		return nil, err
	}

	cacheCounter, err := meter.Int64Counter(
		"agentcore.cache.lookups",
		metric.WithDescription("Cache lookups by namespace and hit/miss"),
	)
	if err != nil {
		return nil, err
	}

	return &RequestMetrics{
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		errorCounter:    errorCounter,
		blockCounter:    blockCounter,
		cacheCounter:    cacheCounter,
	}, nil
}

// RecordRequest records one completed request.
func (m *RequestMetrics) RecordRequest(ctx context.Context, intentName, outcome string, elapsedMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("intent", intentName),
		attribute.String("outcome", outcome),
	)
	m.requestCounter.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, elapsedMs, attrs)
}

// RecordError counts an error by its taxonomy code.
func (m *RequestMetrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}
	m.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error.code", string(errors.CodeOf(err))),
			attribute.String("component", component),
			attribute.Bool("retryable", errors.IsRetryable(err)),
		),
	)
}

// RecordBlock counts a request rejected by policy.
func (m *RequestMetrics) RecordBlock(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.blockCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordCacheLookup counts a cache hit or miss per namespace.
func (m *RequestMetrics) RecordCacheLookup(ctx context.Context, namespace string, hit bool) {
	if m == nil {
		return
	}
	m.cacheCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("namespace", namespace),
			attribute.Bool("hit", hit),
		),
	)
}
