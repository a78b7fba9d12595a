package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// MovementRow is one row of a stock movement report: a ledger entry together
// with the cumulative position after it.
type MovementRow struct {
	EntryID         uuid.UUID       `json:"entry_id"`
	ItemID          uuid.UUID       `json:"item_id"`
	TransactionType string          `json:"transaction_type"`
	TransactionDate time.Time       `json:"transaction_date"`
	WarehouseID     *uuid.UUID      `json:"warehouse_id,omitempty"`
	ParentReference string          `json:"parent_reference,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	RunningQty      decimal.Decimal `json:"running_qty"`
	RunningValue    decimal.Decimal `json:"running_value"`
	RunningAvgCost  decimal.Decimal `json:"running_avg_cost"`
}

// MovementReportResponse is the movement report for one product
type MovementReportResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID *uuid.UUID      `json:"warehouse_id,omitempty"`
	AsOf        *time.Time      `json:"as_of,omitempty"`
	Rows        []MovementRow   `json:"rows"`
	OnHand      decimal.Decimal `json:"on_hand"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
}

// ToMovementRow maps a replay snapshot to a report row
func ToMovementRow(s ledger.ReplaySnapshot) MovementRow {
	return MovementRow{
		EntryID:         s.Entry.ID,
		ItemID:          s.Entry.ItemID,
		TransactionType: s.Entry.TransactionType.String(),
		TransactionDate: s.Entry.TransactionDate,
		WarehouseID:     s.Entry.WarehouseID,
		ParentReference: s.Entry.ParentReference,
		Quantity:        s.Entry.Quantity,
		UnitPrice:       s.Entry.UnitPrice,
		TotalPrice:      s.Entry.TotalPrice,
		RunningQty:      s.RunningQty,
		RunningValue:    s.RunningValue,
		RunningAvgCost:  s.RunningAvgCost,
	}
}

// StockOnHandResponse answers an on-hand query
type StockOnHandResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	AsOf        time.Time       `json:"as_of"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AvgPriceResponse answers an average price query
type AvgPriceResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID *uuid.UUID      `json:"warehouse_id,omitempty"` // nil for the global average
	AsOf        time.Time       `json:"as_of"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
}
