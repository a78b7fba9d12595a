package persistence

import (
	"context"

	appapproval "github.com/procura/backoffice/internal/application/approval"
	"github.com/procura/backoffice/internal/domain/approval"
	"gorm.io/gorm"
)

// GormApprovalTransactionScope implements the approval TransactionScope using
// GORM transactions. Row locks taken by FindByDocument(forUpdate) live for the
// duration of one Execute call.
type GormApprovalTransactionScope struct {
	db *gorm.DB
}

// NewGormApprovalTransactionScope creates a new GormApprovalTransactionScope
func NewGormApprovalTransactionScope(db *gorm.DB) *GormApprovalTransactionScope {
	return &GormApprovalTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormApprovalTransactionScope) Execute(ctx context.Context, fn func(repos appapproval.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormApprovalRepositories{tx: tx})
	})
}

// gormApprovalRepositories provides repositories bound to the open transaction
type gormApprovalRepositories struct {
	tx *gorm.DB
}

// StepRepo returns the approval step repository scoped to the current transaction
func (r *gormApprovalRepositories) StepRepo() approval.ApprovalStepRepository {
	return NewGormApprovalStepRepository(r.tx)
}

// StatusWriter returns a document status writer bound to the current
// transaction, so the projected status commits or rolls back together with
// the step mutations.
func (r *gormApprovalRepositories) StatusWriter() approval.DocumentStatusWriter {
	return NewGormDocumentStatusWriter(r.tx)
}

var _ appapproval.TransactionScope = (*GormApprovalTransactionScope)(nil)
var _ appapproval.TransactionalRepositories = (*gormApprovalRepositories)(nil)
