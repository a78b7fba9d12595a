package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of source document a ledger entry originates from
type TransactionType string

const (
	// TypeStockIn represents a receipt line (goods received into a warehouse)
	TypeStockIn TransactionType = "STOCK_IN"
	// TypeStockOut represents an issue line (goods leaving a warehouse)
	TypeStockOut TransactionType = "STOCK_OUT"
	// TypeStockCount represents a physical count line, recorded as an absolute
	// inbound-style entry layered on the running balance (not a variance delta)
	TypeStockCount TransactionType = "STOCK_COUNT"
	// TypeStockBegin represents an opening balance line
	TypeStockBegin TransactionType = "STOCK_BEGIN"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeStockIn, TypeStockOut, TypeStockCount, TypeStockBegin:
		return true
	}
	return false
}

// Sign returns +1 for inbound entry kinds and -1 for outbound ones
func (t TransactionType) Sign() int {
	if t == TypeStockOut {
		return -1
	}
	return 1
}

// LedgerEntry is one immutable record of a signed quantity/value movement for a
// product. Entries are never patched in place: a change to the source line item
// is applied as delete-then-insert so replay stays trivial and auditable.
// At most one entry exists per (item_id, transaction_type) at any time.
type LedgerEntry struct {
	shared.BaseEntity
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_item_type,priority:1"`
	TransactionType   TransactionType `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_item_type,priority:2"`
	TransactionDate   time.Time       `gorm:"type:date;not null;index:idx_ledger_replay,priority:3"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_replay,priority:1"`
	WarehouseID       *uuid.UUID      `gorm:"type:uuid;index:idx_ledger_replay,priority:2"` // nil for global (count/opening) rows
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`                  // signed: positive inbound, negative outbound
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(28,10);not null"` // Quantity * UnitPrice, carries the sign
	ParentReference   string          `gorm:"type:varchar(100);index"`      // denormalized document reference for filtering
	ParentWarehouseID *uuid.UUID      `gorm:"type:uuid"`                    // denormalized document warehouse
	CreatedBy         uuid.UUID       `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewLedgerEntry creates a ledger entry from a source line item. The quantity
// argument is the unsigned magnitude from the source document; the sign is
// applied from the transaction type.
func NewLedgerEntry(
	itemID uuid.UUID,
	txType TransactionType,
	transactionDate time.Time,
	productID uuid.UUID,
	warehouseID *uuid.UUID,
	quantity decimal.Decimal,
	unitPrice decimal.Decimal,
	createdBy uuid.UUID,
) (*LedgerEntry, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if transactionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Transaction date cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID != nil && *warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty when provided")
	}
	if quantity.IsNegative() || quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Created-by user ID cannot be empty")
	}

	signed := quantity
	if txType.Sign() < 0 {
		signed = quantity.Neg()
	}

	return &LedgerEntry{
		BaseEntity:      shared.NewBaseEntity(),
		ItemID:          itemID,
		TransactionType: txType,
		TransactionDate: transactionDate,
		ProductID:       productID,
		WarehouseID:     warehouseID,
		Quantity:        signed,
		UnitPrice:       unitPrice,
		TotalPrice:      signed.Mul(unitPrice),
		CreatedBy:       createdBy,
	}, nil
}

// WithParent sets the denormalized parent document reference and warehouse
func (e *LedgerEntry) WithParent(reference string, warehouseID *uuid.UUID) *LedgerEntry {
	e.ParentReference = reference
	e.ParentWarehouseID = warehouseID
	return e
}

// IsInbound returns true if the entry adds to the running balance
func (e *LedgerEntry) IsInbound() bool {
	return e.TransactionType.Sign() > 0
}

// IsOutbound returns true if the entry subtracts from the running balance
func (e *LedgerEntry) IsOutbound() bool {
	return e.TransactionType.Sign() < 0
}
