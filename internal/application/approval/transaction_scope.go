package approval

import (
	"context"

	"github.com/procura/backoffice/internal/domain/approval"
)

// TransactionScope provides transactional access to approval repositories so
// chain mutations commit or roll back atomically with the surrounding document
// mutation.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to approval repositories bound to
// the current transaction.
type TransactionalRepositories interface {
	// StepRepo returns the approval step repository scoped to the transaction
	StepRepo() approval.ApprovalStepRepository
	// StatusWriter returns the document status writer scoped to the
	// transaction, so a derived status commits or rolls back with the step
	// mutations it was derived from
	StatusWriter() approval.DocumentStatusWriter
}

// NoOpTransactionScope runs the function without a real transaction. Useful in
// tests and for callers that already hold a transaction.
type NoOpTransactionScope struct {
	stepRepo     approval.ApprovalStepRepository
	statusWriter approval.DocumentStatusWriter
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given collaborators.
func NewNoOpTransactionScope(stepRepo approval.ApprovalStepRepository, statusWriter approval.DocumentStatusWriter) *NoOpTransactionScope {
	return &NoOpTransactionScope{stepRepo: stepRepo, statusWriter: statusWriter}
}

// Execute runs the function directly.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StepRepo returns the approval step repository.
func (s *NoOpTransactionScope) StepRepo() approval.ApprovalStepRepository {
	return s.stepRepo
}

// StatusWriter returns the document status writer.
func (s *NoOpTransactionScope) StatusWriter() approval.DocumentStatusWriter {
	return s.statusWriter
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
