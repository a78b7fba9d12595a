package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/shared"
)

// ReplayQuery scopes a chronological replay of ledger entries for one product.
// WarehouseID nil means all warehouses (global costing); Cutoff nil means no
// upper date bound. Entries dated after the cutoff are excluded, entries on the
// cutoff date are included.
type ReplayQuery struct {
	ProductID   uuid.UUID
	WarehouseID *uuid.UUID
	Cutoff      *time.Time
}

// LedgerEntryRepository defines the interface for ledger entry persistence.
// The table is append/delete only; implementations must not expose updates.
type LedgerEntryRepository interface {
	// FindForReplay returns all entries matching the query ordered by
	// (transaction_date, created_at, id) ascending
	FindForReplay(ctx context.Context, query ReplayQuery) ([]LedgerEntry, error)

	// FindByItem finds the single entry for a source line item, if present
	FindByItem(ctx context.Context, itemID uuid.UUID, txType TransactionType) (*LedgerEntry, error)

	// FindByParentReference finds all entries belonging to one source document
	FindByParentReference(ctx context.Context, reference string) ([]LedgerEntry, error)

	// FindByProduct lists entries for a product with pagination, for reports
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]LedgerEntry, error)

	// Create inserts a new entry (append-only, no update allowed)
	Create(ctx context.Context, entry *LedgerEntry) error

	// DeleteByItem removes the entry for a source line item. Returns the number
	// of rows removed so callers can detect a missing counterpart.
	DeleteByItem(ctx context.Context, itemID uuid.UUID, txType TransactionType) (int64, error)

	// DeleteByParentReference removes all entries of one source document
	DeleteByParentReference(ctx context.Context, reference string) (int64, error)

	// CountByProduct counts entries for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
