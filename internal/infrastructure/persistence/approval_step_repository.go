package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/approval"
	"github.com/procura/backoffice/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormApprovalStepRepository implements ApprovalStepRepository using GORM
type GormApprovalStepRepository struct {
	db *gorm.DB
}

// NewGormApprovalStepRepository creates a new GormApprovalStepRepository
func NewGormApprovalStepRepository(db *gorm.DB) *GormApprovalStepRepository {
	return &GormApprovalStepRepository{db: db}
}

// FindByID finds a step by its ID
func (r *GormApprovalStepRepository) FindByID(ctx context.Context, id uuid.UUID) (*approval.ApprovalStep, error) {
	var step approval.ApprovalStep
	if err := r.db.WithContext(ctx).First(&step, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &step, nil
}

// FindByDocument returns all steps of one document in chain order. With
// forUpdate the rows are locked for the surrounding transaction so two
// responders acting at once serialize on the same chain.
func (r *GormApprovalStepRepository) FindByDocument(ctx context.Context, kind approval.DocumentKind, approvableID uuid.UUID, forUpdate bool) ([]approval.ApprovalStep, error) {
	var steps []approval.ApprovalStep
	query := r.db.WithContext(ctx).
		Where("approvable_type = ? AND approvable_id = ?", kind, approvableID).
		Order("ordinal ASC, created_at ASC, id ASC")

	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	if err := query.Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// FindPendingForResponder lists a responder's actionable inbox
func (r *GormApprovalStepRepository) FindPendingForResponder(ctx context.Context, responderID uuid.UUID, filter shared.Filter) ([]approval.ApprovalStep, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&approval.ApprovalStep{}).
			Where("responder_id = ? AND approval_status = ?", responderID, approval.StepPending)
		return r.applyFilterConditions(q, filter)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var steps []approval.ApprovalStep
	if err := r.applyPagination(base(), filter).Find(&steps).Error; err != nil {
		return nil, 0, err
	}
	return steps, total, nil
}

// CountPendingUnseen counts a responder's pending steps not yet seen
func (r *GormApprovalStepRepository) CountPendingUnseen(ctx context.Context, responderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&approval.ApprovalStep{}).
		Where("responder_id = ? AND approval_status = ? AND is_seen = ?", responderID, approval.StepPending, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateBatch inserts a document's whole step chain
func (r *GormApprovalStepRepository) CreateBatch(ctx context.Context, steps []*approval.ApprovalStep) error {
	if len(steps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&steps).Error
}

// Update persists a step mutation (action, reassignment, seen flag)
func (r *GormApprovalStepRepository) Update(ctx context.Context, step *approval.ApprovalStep) error {
	return r.db.WithContext(ctx).Save(step).Error
}

// MarkSeen flags a step as seen by its responder
func (r *GormApprovalStepRepository) MarkSeen(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&approval.ApprovalStep{}).
		Where("id = ?", id).
		Update("is_seen", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByDocument removes a document's whole step chain
func (r *GormApprovalStepRepository) DeleteByDocument(ctx context.Context, kind approval.DocumentKind, approvableID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("approvable_type = ? AND approvable_id = ?", kind, approvableID).
		Delete(&approval.ApprovalStep{})
	return result.RowsAffected, result.Error
}

// applyFilterConditions applies non-pagination filter options to the query
func (r *GormApprovalStepRepository) applyFilterConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "approvable_type":
			query = query.Where("approvable_type = ?", value)
		case "request_type":
			query = query.Where("request_type = ?", value)
		case "is_seen":
			query = query.Where("is_seen = ?", value)
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("document_name LIKE ? OR document_reference LIKE ?", pattern, pattern)
	}
	return query
}

// applyPagination applies pagination and ordering to the query
func (r *GormApprovalStepRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormApprovalStepRepository implements ApprovalStepRepository
var _ approval.ApprovalStepRepository = (*GormApprovalStepRepository)(nil)
