package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ReconcileOutcome is an outcome label of a reconcile batch
type ReconcileOutcome string

const (
	ReconcileOutcomeSuccess ReconcileOutcome = "success"
	ReconcileOutcomeFailure ReconcileOutcome = "failure"
)

var (
	AttrOutcome   = attribute.Key("outcome")
	AttrOperation = attribute.Key("operation")
)

// ErrMeterNil is returned when a metrics collector is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// BatchCounts is the per-batch row accounting reported by the reconciler
type BatchCounts interface {
	Counts() (inserted, updated int, pruned int64)
}

// ReconcileMetrics records line item reconcile batches.
// A nil *ReconcileMetrics is valid and records nothing.
type ReconcileMetrics struct {
	batchesTotal *Counter
	rowsTotal    *Counter
	duration     *Histogram
}

// NewReconcileMetrics creates the reconcile instruments on meter
func NewReconcileMetrics(meter metric.Meter) (*ReconcileMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &ReconcileMetrics{}
	var err error

	m.batchesTotal, err = NewCounter(meter,
		"line_item_reconcile_batches_total",
		"Total number of reconcile batches by outcome",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	m.rowsTotal, err = NewCounter(meter,
		"line_item_reconcile_rows_total",
		"Line item rows written by reconcile batches, by operation",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	m.duration, err = NewHistogram(meter,
		"line_item_reconcile_duration_seconds",
		"Duration of reconcile batches",
		"s",
		0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordBatch records one finished batch. counts is ignored when err is not nil.
func (m *ReconcileMetrics) RecordBatch(ctx context.Context, counts BatchCounts, err error, d time.Duration) {
	if m == nil {
		return
	}

	outcome := ReconcileOutcomeSuccess
	if err != nil {
		outcome = ReconcileOutcomeFailure
	}
	m.batchesTotal.Add(ctx, 1, AttrOutcome.String(string(outcome)))
	m.duration.RecordDuration(ctx, d, AttrOutcome.String(string(outcome)))

	if err != nil || counts == nil {
		return
	}
	inserted, updated, pruned := counts.Counts()
	m.rowsTotal.Add(ctx, int64(inserted), AttrOperation.String("insert"))
	m.rowsTotal.Add(ctx, int64(updated), AttrOperation.String("update"))
	m.rowsTotal.Add(ctx, pruned, AttrOperation.String("prune"))
}
