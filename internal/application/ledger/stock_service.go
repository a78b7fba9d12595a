package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// StockQueryService is the read side over the valuation engine, backing stock
// reports and on-hand queries for the web layer. It never writes.
type StockQueryService struct {
	valuation *ledger.ValuationEngine
}

// NewStockQueryService creates a new StockQueryService
func NewStockQueryService(valuation *ledger.ValuationEngine) *StockQueryService {
	return &StockQueryService{valuation: valuation}
}

// MovementReport replays a product's ledger and returns every movement with
// its cumulative position, optionally scoped to one warehouse and bounded by a
// cutoff date
func (s *StockQueryService) MovementReport(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, asOf *time.Time) (*MovementReportResponse, error) {
	snapshots, err := s.valuation.RecalcProduct(ctx, productID, warehouseID, asOf)
	if err != nil {
		return nil, err
	}

	rows := make([]MovementRow, 0, len(snapshots))
	for _, snapshot := range snapshots {
		rows = append(rows, ToMovementRow(snapshot))
	}

	onHand := decimal.Zero
	avgCost := decimal.Zero
	if len(snapshots) > 0 {
		last := snapshots[len(snapshots)-1]
		onHand = last.RunningQty
		avgCost = last.RunningAvgCost
	}

	return &MovementReportResponse{
		ProductID:   productID,
		WarehouseID: warehouseID,
		AsOf:        asOf,
		Rows:        rows,
		OnHand:      onHand,
		AvgCost:     avgCost,
	}, nil
}

// StockOnHand returns a product's on-hand quantity in one warehouse as of a date
func (s *StockQueryService) StockOnHand(ctx context.Context, productID, warehouseID uuid.UUID, asOf time.Time) (*StockOnHandResponse, error) {
	qty, err := s.valuation.StockOnHand(ctx, productID, warehouseID, asOf)
	if err != nil {
		return nil, err
	}
	return &StockOnHandResponse{
		ProductID:   productID,
		WarehouseID: warehouseID,
		AsOf:        asOf,
		Quantity:    qty,
	}, nil
}

// AvgPrice returns a product's moving average cost in one warehouse as of a date
func (s *StockQueryService) AvgPrice(ctx context.Context, productID, warehouseID uuid.UUID, asOf time.Time) (*AvgPriceResponse, error) {
	price, err := s.valuation.AvgPrice(ctx, productID, warehouseID, asOf)
	if err != nil {
		return nil, err
	}
	return &AvgPriceResponse{
		ProductID:   productID,
		WarehouseID: &warehouseID,
		AsOf:        asOf,
		AvgCost:     price,
	}, nil
}

// GlobalAvgPrice returns a product's cross-warehouse moving average cost as of a date
func (s *StockQueryService) GlobalAvgPrice(ctx context.Context, productID uuid.UUID, asOf time.Time) (*AvgPriceResponse, error) {
	price, err := s.valuation.GlobalAvgPrice(ctx, productID, asOf)
	if err != nil {
		return nil, err
	}
	return &AvgPriceResponse{
		ProductID: productID,
		AsOf:      asOf,
		AvgCost:   price,
	}, nil
}
