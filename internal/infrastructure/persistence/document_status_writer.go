package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/approval"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentStatusProjection is the persisted derived status of a document.
// The owning document tables live in the host modules; this projection keeps
// the latest status queryable from this service without reaching into them.
type DocumentStatusProjection struct {
	Kind         approval.DocumentKind   `gorm:"type:varchar(30);primaryKey"`
	ApprovableID uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Status       approval.DocumentStatus `gorm:"type:varchar(20);not null"`
	UpdatedAt    time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentStatusProjection) TableName() string {
	return "document_status_projections"
}

// GormDocumentStatusWriter persists derived document statuses into the
// projection table, upserting on (kind, approvable_id).
type GormDocumentStatusWriter struct {
	db *gorm.DB
}

// NewGormDocumentStatusWriter creates a new GormDocumentStatusWriter
func NewGormDocumentStatusWriter(db *gorm.DB) *GormDocumentStatusWriter {
	return &GormDocumentStatusWriter{db: db}
}

// SetStatus writes the derived status of a document
func (w *GormDocumentStatusWriter) SetStatus(ctx context.Context, kind approval.DocumentKind, approvableID uuid.UUID, status approval.DocumentStatus) error {
	record := DocumentStatusProjection{
		Kind:         kind,
		ApprovableID: approvableID,
		Status:       status,
		UpdatedAt:    time.Now(),
	}
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "approvable_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&record).Error
}

// GetStatus reads the projected status of a document, reporting whether a
// projection row exists yet.
func (w *GormDocumentStatusWriter) GetStatus(ctx context.Context, kind approval.DocumentKind, approvableID uuid.UUID) (approval.DocumentStatus, bool, error) {
	var record DocumentStatusProjection
	err := w.db.WithContext(ctx).
		Where("kind = ? AND approvable_id = ?", kind, approvableID).
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return record.Status, true, nil
}

var _ approval.DocumentStatusWriter = (*GormDocumentStatusWriter)(nil)
