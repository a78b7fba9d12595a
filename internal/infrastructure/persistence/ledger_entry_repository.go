package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/ledger"
	"github.com/procura/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM.
// The table is append/delete only; no update path exists.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// FindForReplay returns all entries matching the query in replay order.
// The (transaction_date, created_at, id) ordering makes the fold deterministic
// for entries sharing a transaction date.
func (r *GormLedgerEntryRepository) FindForReplay(ctx context.Context, query ledger.ReplayQuery) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	q := r.db.WithContext(ctx).
		Where("product_id = ?", query.ProductID)

	if query.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *query.WarehouseID)
	}
	if query.Cutoff != nil {
		// Entries on the cutoff date are included
		q = q.Where("transaction_date <= ?", *query.Cutoff)
	}

	if err := q.Order("transaction_date ASC, created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByItem finds the single entry for a source line item
func (r *GormLedgerEntryRepository) FindByItem(ctx context.Context, itemID uuid.UUID, txType ledger.TransactionType) (*ledger.LedgerEntry, error) {
	var entry ledger.LedgerEntry
	if err := r.db.WithContext(ctx).
		First(&entry, "item_id = ? AND transaction_type = ?", itemID, txType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByParentReference finds all entries belonging to one source document
func (r *GormLedgerEntryRepository) FindByParentReference(ctx context.Context, reference string) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("parent_reference = ?", reference).
		Order("transaction_date ASC, created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByProduct lists entries for a product with pagination, for reports
func (r *GormLedgerEntryRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.LedgerEntry{}).
			Where("product_id = ?", productID),
		filter,
	)

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Create inserts a new entry (append-only, no update allowed)
func (r *GormLedgerEntryRepository) Create(ctx context.Context, entry *ledger.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// DeleteByItem removes the entry for a source line item. The row count lets
// callers detect a missing counterpart during update/delete synchronization.
func (r *GormLedgerEntryRepository) DeleteByItem(ctx context.Context, itemID uuid.UUID, txType ledger.TransactionType) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("item_id = ? AND transaction_type = ?", itemID, txType).
		Delete(&ledger.LedgerEntry{})
	return result.RowsAffected, result.Error
}

// DeleteByParentReference removes all entries of one source document
func (r *GormLedgerEntryRepository) DeleteByParentReference(ctx context.Context, reference string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("parent_reference = ?", reference).
		Delete(&ledger.LedgerEntry{})
	return result.RowsAffected, result.Error
}

// CountByProduct counts entries for a product
func (r *GormLedgerEntryRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.LedgerEntry{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormLedgerEntryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "transaction_type":
			query = query.Where("transaction_type = ?", value)
		case "parent_reference":
			query = query.Where("parent_reference = ?", value)
		case "start_date":
			query = query.Where("transaction_date >= ?", value)
		case "end_date":
			query = query.Where("transaction_date <= ?", value)
		}
	}

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
		query = query.Order("transaction_date ASC, created_at ASC, id ASC")
	}

	return query
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ ledger.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
