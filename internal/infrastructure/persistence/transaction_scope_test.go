package persistence

import (
	"context"
	"errors"
	"testing"

	appsales "github.com/focusvent/backend/internal/application/sales"
	"github.com/focusvent/backend/internal/domain/shared"
	"github.com/focusvent/backend/internal/domain/shared/valueobject"
	"github.com/focusvent/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.LineItemModel{}).Count(&n).Error)
	return n
}

func TestGormTransactionScope_Commit(t *testing.T) {
	db := newSQLiteDB(t)
	scope := NewGormTransactionScope(db)

	err := scope.Execute(context.Background(), func(repos appsales.TransactionalRepositories) error {
		if err := repos.LineItemRepo().Insert(context.Background(), newItem(t, 1, 10, "1", "0", nil, "1")); err != nil {
			return err
		}
		return repos.LineItemRepo().Insert(context.Background(), newItem(t, 1, 20, "1", "0", nil, "1"))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), countRows(t, db))
}

func TestGormTransactionScope_RollbackReturnsCallbackError(t *testing.T) {
	db := newSQLiteDB(t)
	scope := NewGormTransactionScope(db)
	boom := errors.New("boom")

	err := scope.Execute(context.Background(), func(repos appsales.TransactionalRepositories) error {
		require.NoError(t, repos.LineItemRepo().Insert(context.Background(), newItem(t, 1, 10, "1", "0", nil, "1")))
		return boom
	})
	assert.Same(t, boom, err)
	assert.Equal(t, int64(0), countRows(t, db))
}

func newSQLiteReconciler(t *testing.T) (*appsales.LineItemReconciler, *gorm.DB) {
	t.Helper()
	db := newSQLiteDB(t)
	return appsales.NewLineItemReconciler(NewGormTransactionScope(db), zap.NewNop()), db
}

func line(t *testing.T, productID int64, price, tax, quantity string) appsales.LineItemInput {
	t.Helper()
	return appsales.LineItemInput{
		ProductID: productID,
		Quantity:  valueobject.MustNewQuantityFromString(quantity),
		UnitPrice: money(t, price),
		UnitTax:   money(t, tax),
	}
}

func TestReconcile_SQLite_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newSQLiteReconciler(t)
	cmd := appsales.ReconcileLineItemsCommand{
		SaleID: 5,
		Items:  []appsales.LineItemInput{line(t, 1, "30", "1.5", "1"), line(t, 2, "10", "0", "3")},
	}

	first, err := reconciler.Reconcile(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := reconciler.Reconcile(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Updated)

	assert.Equal(t, int64(2), countRows(t, db))

	items, err := NewGormLineItemRepository(db).FindBySale(ctx, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "31.5", items[0].Amounts().Total.String())
	assert.Equal(t, "30", items[1].Amounts().Total.String())
}

func TestReconcile_SQLite_MidBatchFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newSQLiteReconciler(t)

	huge := valueobject.NewMoneyFromMinorUnits(1 << 62)
	overflowing := appsales.LineItemInput{
		ProductID: 2,
		Quantity:  valueobject.MustNewQuantityFromString("4"),
		UnitPrice: huge,
		UnitTax:   valueobject.ZeroMoney(),
	}

	_, err := reconciler.Reconcile(ctx, appsales.ReconcileLineItemsCommand{
		SaleID: 5,
		Items:  []appsales.LineItemInput{line(t, 1, "30", "0", "1"), overflowing},
	})
	require.ErrorIs(t, err, shared.ErrOverflow)
	assert.Equal(t, int64(0), countRows(t, db))
}

func TestReconcile_SQLite_PruneOmitted(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newSQLiteReconciler(t)

	_, err := reconciler.Reconcile(ctx, appsales.ReconcileLineItemsCommand{
		SaleID: 5,
		Items:  []appsales.LineItemInput{line(t, 1, "1", "0", "1"), line(t, 2, "1", "0", "1")},
	})
	require.NoError(t, err)

	reconciler.SetPruneOmitted(true)
	result, err := reconciler.Reconcile(ctx, appsales.ReconcileLineItemsCommand{
		SaleID: 5,
		Items:  []appsales.LineItemInput{line(t, 2, "2", "0", "1")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, int64(1), result.Pruned)
	assert.Equal(t, int64(1), countRows(t, db))
}
