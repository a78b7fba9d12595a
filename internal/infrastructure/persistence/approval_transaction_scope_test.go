package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appapproval "github.com/procura/backoffice/internal/application/approval"
	"github.com/procura/backoffice/internal/domain/approval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupScopeTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&approval.ApprovalStep{}, &DocumentStatusProjection{})
	require.NoError(t, err)

	return db
}

func TestGormApprovalTransactionScope_StatusWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("status write commits with the step batch", func(t *testing.T) {
		db := setupScopeTestDB(t)
		scope := NewGormApprovalTransactionScope(db)
		docID := uuid.New()

		err := scope.Execute(ctx, func(repos appapproval.TransactionalRepositories) error {
			step := makeStep(t, approval.KindPurchaseRequest, docID, "initial", uuid.New())
			if err := repos.StepRepo().CreateBatch(ctx, []*approval.ApprovalStep{step}); err != nil {
				return err
			}
			return repos.StatusWriter().SetStatus(ctx, approval.KindPurchaseRequest, docID, approval.DocumentPending)
		})
		require.NoError(t, err)

		status, found, err := NewGormDocumentStatusWriter(db).GetStatus(ctx, approval.KindPurchaseRequest, docID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, approval.DocumentPending, status)
	})

	t.Run("status write rolls back with a failed step batch", func(t *testing.T) {
		db := setupScopeTestDB(t)
		scope := NewGormApprovalTransactionScope(db)
		docID := uuid.New()

		boom := errors.New("batch rejected")
		err := scope.Execute(ctx, func(repos appapproval.TransactionalRepositories) error {
			if err := repos.StatusWriter().SetStatus(ctx, approval.KindPurchaseRequest, docID, approval.DocumentPending); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, found, err := NewGormDocumentStatusWriter(db).GetStatus(ctx, approval.KindPurchaseRequest, docID)
		require.NoError(t, err)
		assert.False(t, found, "rolled-back status must not be visible")
	})

	t.Run("upsert keeps one row per document", func(t *testing.T) {
		db := setupScopeTestDB(t)
		scope := NewGormApprovalTransactionScope(db)
		docID := uuid.New()

		for _, status := range []approval.DocumentStatus{approval.DocumentPending, approval.DocumentApproved} {
			err := scope.Execute(ctx, func(repos appapproval.TransactionalRepositories) error {
				return repos.StatusWriter().SetStatus(ctx, approval.KindPurchaseRequest, docID, status)
			})
			require.NoError(t, err)
		}

		var count int64
		require.NoError(t, db.Model(&DocumentStatusProjection{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		status, found, err := NewGormDocumentStatusWriter(db).GetStatus(ctx, approval.KindPurchaseRequest, docID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, approval.DocumentApproved, status)
	})
}
