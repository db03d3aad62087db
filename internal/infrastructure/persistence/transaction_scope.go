package persistence

import (
	"context"

	appsales "github.com/focusvent/backend/internal/application/sales"
	"github.com/focusvent/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back and that error is returned.
// A failure to begin or commit is returned as a storage error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&gormTransactionalRepositories{tx: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return translateError("transaction", err)
}

// gormTransactionalRepositories provides access to repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LineItemRepo returns the line item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LineItemRepo() sales.LineItemRepository {
	return NewGormLineItemRepository(r.tx)
}

var _ appsales.TransactionScope = (*GormTransactionScope)(nil)
var _ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
