package ledger

import (
	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeLedgerEntry = "LedgerEntry"

// Event type constants
const (
	EventTypeLedgerEntryRecorded = "LedgerEntryRecorded"
	EventTypeLedgerEntryRemoved  = "LedgerEntryRemoved"
)

// LedgerEntryRecordedEvent is raised when a ledger entry is inserted for a
// source line item (create, update re-insert, or restore)
type LedgerEntryRecordedEvent struct {
	shared.BaseDomainEvent
	ItemID          uuid.UUID       `json:"item_id"`
	TransactionType TransactionType `json:"transaction_type"`
	ProductID       uuid.UUID       `json:"product_id"`
	WarehouseID     *uuid.UUID      `json:"warehouse_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// NewLedgerEntryRecordedEvent creates a new LedgerEntryRecordedEvent
func NewLedgerEntryRecordedEvent(entry *LedgerEntry) *LedgerEntryRecordedEvent {
	return &LedgerEntryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntryRecorded, AggregateTypeLedgerEntry, entry.ID),
		ItemID:          entry.ItemID,
		TransactionType: entry.TransactionType,
		ProductID:       entry.ProductID,
		WarehouseID:     entry.WarehouseID,
		Quantity:        entry.Quantity,
		TotalPrice:      entry.TotalPrice,
	}
}

// EventType returns the event type name
func (e *LedgerEntryRecordedEvent) EventType() string {
	return EventTypeLedgerEntryRecorded
}

// LedgerEntryRemovedEvent is raised when a ledger entry is deleted because its
// source line item was deleted or is about to be replaced
type LedgerEntryRemovedEvent struct {
	shared.BaseDomainEvent
	ItemID          uuid.UUID       `json:"item_id"`
	TransactionType TransactionType `json:"transaction_type"`
	ProductID       uuid.UUID       `json:"product_id"`
}

// NewLedgerEntryRemovedEvent creates a new LedgerEntryRemovedEvent
func NewLedgerEntryRemovedEvent(itemID uuid.UUID, txType TransactionType, productID uuid.UUID) *LedgerEntryRemovedEvent {
	return &LedgerEntryRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntryRemoved, AggregateTypeLedgerEntry, itemID),
		ItemID:          itemID,
		TransactionType: txType,
		ProductID:       productID,
	}
}

// EventType returns the event type name
func (e *LedgerEntryRemovedEvent) EventType() string {
	return EventTypeLedgerEntryRemoved
}
