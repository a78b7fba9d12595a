package ledger

import (
	"context"

	"github.com/procura/backoffice/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories. A
// sync operation executed within a scope is committed or rolled back atomically
// with the surrounding document mutation.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to ledger repositories bound to
// the current transaction.
type TransactionalRepositories interface {
	// EntryRepo returns the ledger entry repository scoped to the transaction
	EntryRepo() ledger.LedgerEntryRepository
}

// NoOpTransactionScope runs the function without a real transaction. Useful in
// tests and for callers that already hold a transaction.
type NoOpTransactionScope struct {
	entryRepo ledger.LedgerEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repository.
func NewNoOpTransactionScope(entryRepo ledger.LedgerEntryRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{entryRepo: entryRepo}
}

// Execute runs the function directly.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// EntryRepo returns the ledger entry repository.
func (s *NoOpTransactionScope) EntryRepo() ledger.LedgerEntryRepository {
	return s.entryRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
