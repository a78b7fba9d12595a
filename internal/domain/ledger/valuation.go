package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// avgCostPrecision is the number of fractional digits kept when deriving the
// moving average cost. Intermediate quantity*price products are stored to 10
// digits, so dividing back must not round below that.
const avgCostPrecision = 10

// ReplaySnapshot is one row of a replayed ledger: the entry itself plus the
// cumulative position after applying it.
type ReplaySnapshot struct {
	Entry          LedgerEntry
	RunningQty     decimal.Decimal
	RunningValue   decimal.Decimal
	RunningAvgCost decimal.Decimal
}

// ValuationEngine derives running on-hand quantity and moving weighted-average
// unit cost by replaying ledger entries. It never writes; all aggregation is
// deferred to read time so writers stay O(1) per source mutation.
type ValuationEngine struct {
	entries LedgerEntryRepository
}

// NewValuationEngine creates a new ValuationEngine
func NewValuationEngine(entries LedgerEntryRepository) *ValuationEngine {
	return &ValuationEngine{entries: entries}
}

// RecalcProduct replays all ledger entries for a product, optionally scoped to
// one warehouse and bounded by a cutoff date, and returns the cumulative
// position after every entry. The result is a pure function of the stored rows:
// identical rows produce identical sequences regardless of call order.
// An empty ledger yields an empty sequence.
func (v *ValuationEngine) RecalcProduct(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, cutoff *time.Time) ([]ReplaySnapshot, error) {
	rows, err := v.entries.FindForReplay(ctx, ReplayQuery{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Cutoff:      cutoff,
	})
	if err != nil {
		return nil, err
	}
	return Replay(rows), nil
}

// Replay folds an ordered slice of ledger entries into cumulative snapshots.
// The average cost is running value over running quantity while the quantity is
// positive; once it drops to zero or below the last known average is carried
// forward (zero if none exists) so the fold never divides by zero.
func Replay(rows []LedgerEntry) []ReplaySnapshot {
	snapshots := make([]ReplaySnapshot, 0, len(rows))

	runningQty := decimal.Zero
	runningValue := decimal.Zero
	avgCost := decimal.Zero

	for _, row := range rows {
		runningQty = runningQty.Add(row.Quantity)
		runningValue = runningValue.Add(row.TotalPrice)

		if runningQty.IsPositive() {
			avgCost = runningValue.DivRound(runningQty, avgCostPrecision)
		}

		snapshots = append(snapshots, ReplaySnapshot{
			Entry:          row,
			RunningQty:     runningQty,
			RunningValue:   runningValue,
			RunningAvgCost: avgCost,
		})
	}

	return snapshots
}

// StockOnHand returns the on-hand quantity of a product in one warehouse as of
// the given date. A product with no ledger entries has zero on hand.
func (v *ValuationEngine) StockOnHand(ctx context.Context, productID, warehouseID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	snapshots, err := v.RecalcProduct(ctx, productID, &warehouseID, &asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if len(snapshots) == 0 {
		return decimal.Zero, nil
	}
	return snapshots[len(snapshots)-1].RunningQty, nil
}

// AvgPrice returns the moving weighted-average unit cost of a product in one
// warehouse as of the given date.
func (v *ValuationEngine) AvgPrice(ctx context.Context, productID, warehouseID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	snapshots, err := v.RecalcProduct(ctx, productID, &warehouseID, &asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if len(snapshots) == 0 {
		return decimal.Zero, nil
	}
	return snapshots[len(snapshots)-1].RunningAvgCost, nil
}

// GlobalAvgPrice returns the moving weighted-average unit cost of a product
// across all warehouses as of the given date, for cross-warehouse costing.
func (v *ValuationEngine) GlobalAvgPrice(ctx context.Context, productID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	snapshots, err := v.RecalcProduct(ctx, productID, nil, &asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if len(snapshots) == 0 {
		return decimal.Zero, nil
	}
	return snapshots[len(snapshots)-1].RunningAvgCost, nil
}
