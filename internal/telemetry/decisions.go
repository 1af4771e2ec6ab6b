// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/ManuGH/feedpool/internal/coordinator"

	// DecisionCounterName counts coordinator decisions by kind and result.
	DecisionCounterName = "feedpool_coordinator_decision_total"

	DecisionKindKey   = "decision"
	DecisionResultKey = "result"
)

// Decision kinds.
const (
	DecisionAcquire   = "acquire"
	DecisionAdmission = "admission"
)

// RecordDecision counts one pool acquisition or play admission outcome on the
// global meter provider. The provider is looked up per call so tests can swap it.
func RecordDecision(ctx context.Context, kind, result string) {
	meter := otel.GetMeterProvider().Meter(meterName)
	counter, err := meter.Int64Counter(DecisionCounterName,
		metric.WithDescription("Coordinator acquire and admission decisions"))
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(DecisionKindKey, kind),
		attribute.String(DecisionResultKey, result),
	))
}
