package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/focusvent/backend/internal/domain/sales"
	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/focusvent/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LineItemReconciler merges a submitted batch of line items into the persisted
// line items of a sale, keyed by (sale, product).
type LineItemReconciler struct {
	txScope      TransactionScope
	locker       SaleLocker
	logger       *zap.Logger
	metrics      *telemetry.ReconcileMetrics
	pruneOmitted bool
}

// NewLineItemReconciler creates a new LineItemReconciler
func NewLineItemReconciler(txScope TransactionScope, logger *zap.Logger) *LineItemReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineItemReconciler{
		txScope: txScope,
		locker:  NoopSaleLocker{},
		logger:  logger,
	}
}

// SetSaleLocker sets the lock held per sale for the duration of a batch
func (r *LineItemReconciler) SetSaleLocker(locker SaleLocker) {
	if locker == nil {
		locker = NoopSaleLocker{}
	}
	r.locker = locker
}

// SetMetrics sets the reconcile metrics collector
func (r *LineItemReconciler) SetMetrics(m *telemetry.ReconcileMetrics) {
	r.metrics = m
}

// SetPruneOmitted makes each batch authoritative: persisted line items of the
// sale whose product is absent from the batch are deleted.
func (r *LineItemReconciler) SetPruneOmitted(prune bool) {
	r.pruneOmitted = prune
}

// Reconcile processes the items in submission order inside one transaction.
// An existing (sale, product) row is revised in place and keeps its id; a new
// pair is inserted under cmd.SaleID. The first failure aborts the batch and
// rolls back every write made for it.
func (r *LineItemReconciler) Reconcile(ctx context.Context, cmd ReconcileLineItemsCommand) (*ReconcileResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "line_item", "reconcile",
		telemetry.WithAttribute("sale_id", cmd.SaleID),
		telemetry.WithAttribute("items_count", len(cmd.Items)),
	)
	defer span.End()
	start := time.Now()

	result, err := r.reconcile(ctx, cmd)
	r.metrics.RecordBatch(ctx, result, err, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		r.logger.Error("line item reconcile failed",
			zap.Int64("sale_id", cmd.SaleID),
			zap.Int("items_count", len(cmd.Items)),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"pruned", result.Pruned,
	)
	telemetry.SetOK(span)
	r.logger.Info("line items reconciled",
		zap.Int64("sale_id", cmd.SaleID),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int64("pruned", result.Pruned),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (r *LineItemReconciler) reconcile(ctx context.Context, cmd ReconcileLineItemsCommand) (*ReconcileResult, error) {
	if cmd.SaleID <= 0 {
		return nil, fmt.Errorf("%w: sale id must be positive", shared.ErrInvalidInput)
	}

	unlock, err := r.locker.Lock(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("failed to release sale lock",
				zap.Int64("sale_id", cmd.SaleID),
				zap.Error(err),
			)
		}
	}()

	r.logger.Debug("reconciling line items",
		zap.Int64("sale_id", cmd.SaleID),
		zap.Int("items_count", len(cmd.Items)),
		zap.Bool("prune_omitted", r.pruneOmitted),
	)

	var result *ReconcileResult
	err = r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		result = &ReconcileResult{SaleID: cmd.SaleID}
		repo := repos.LineItemRepo()

		productIDs := make([]int64, 0, len(cmd.Items))
		for i, in := range cmd.Items {
			inserted, err := r.reconcileItem(ctx, repo, cmd.SaleID, in)
			if err != nil {
				return fmt.Errorf("item %d (product %d): %w", i, in.ProductID, err)
			}
			if inserted {
				result.Inserted++
			} else {
				result.Updated++
			}
			productIDs = append(productIDs, in.ProductID)
		}

		if r.pruneOmitted {
			pruned, err := repo.DeleteBySaleExcept(ctx, cmd.SaleID, productIDs)
			if err != nil {
				return err
			}
			result.Pruned = pruned
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reconcileItem writes one item and reports whether a new row was inserted
func (r *LineItemReconciler) reconcileItem(ctx context.Context, repo sales.LineItemRepository, saleID int64, in LineItemInput) (bool, error) {
	existing, err := repo.FindBySaleAndProduct(ctx, saleID, in.ProductID)
	switch {
	case err == nil:
		if err := existing.Revise(in.CalculationInput(), in.Observation); err != nil {
			return false, err
		}
		return false, repo.Update(ctx, existing.ID, existing)

	case errors.Is(err, shared.ErrNotFound):
		item, err := sales.NewLineItem(saleID, in.ProductID, in.CalculationInput(), in.Observation)
		if err != nil {
			return false, err
		}
		return true, repo.Insert(ctx, item)

	default:
		return false, err
	}
}
