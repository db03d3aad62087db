package sales

import (
	"context"

	"github.com/focusvent/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to sales repositories.
// All repository operations performed inside Execute are committed or rolled
// back atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the sales repositories within a transaction
type TransactionalRepositories interface {
	// LineItemRepo returns the line item repository scoped to the current transaction
	LineItemRepo() sales.LineItemRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	lineItemRepo sales.LineItemRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repository.
func NewNoOpTransactionScope(lineItemRepo sales.LineItemRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{lineItemRepo: lineItemRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LineItemRepo returns the line item repository
func (s *NoOpTransactionScope) LineItemRepo() sales.LineItemRepository {
	return s.lineItemRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
