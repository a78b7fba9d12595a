package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/procura/backoffice/internal/application/ledger"
)

// StockHandler exposes the stock ledger's read side: movement reports, on-hand
// quantities and moving average costs. All answers are derived by replay; no
// endpoint here writes.
type StockHandler struct {
	BaseHandler
	stockService *ledgerapp.StockQueryService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *ledgerapp.StockQueryService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// stockQuery holds the common query parameters of stock endpoints
type stockQuery struct {
	WarehouseID string `form:"warehouse_id" binding:"omitempty,uuid"`
	AsOf        string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

func (q *stockQuery) warehouseID() *uuid.UUID {
	if q.WarehouseID == "" {
		return nil
	}
	id := uuid.MustParse(q.WarehouseID)
	return &id
}

func (q *stockQuery) asOf() *time.Time {
	if q.AsOf == "" {
		return nil
	}
	t, _ := time.Parse("2006-01-02", q.AsOf)
	return &t
}

// MovementReport returns a product's full movement history with running
// quantity, value and average cost per row
// GET /api/v1/stock/:product_id/movements
func (h *StockHandler) MovementReport(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	var query stockQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.stockService.MovementReport(c.Request.Context(), productID, query.warehouseID(), query.asOf())
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, report)
}

// StockOnHand returns a product's on-hand quantity in one warehouse
// GET /api/v1/stock/:product_id/on-hand
func (h *StockHandler) StockOnHand(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	var query stockQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	warehouseID := query.warehouseID()
	if warehouseID == nil {
		h.BadRequest(c, "warehouse_id is required")
		return
	}

	asOf := time.Now()
	if t := query.asOf(); t != nil {
		asOf = *t
	}

	response, err := h.stockService.StockOnHand(c.Request.Context(), productID, *warehouseID, asOf)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, response)
}

// AvgPrice returns a product's moving average cost, per warehouse when
// warehouse_id is given and across all warehouses otherwise
// GET /api/v1/stock/:product_id/avg-price
func (h *StockHandler) AvgPrice(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	var query stockQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	asOf := time.Now()
	if t := query.asOf(); t != nil {
		asOf = *t
	}

	if warehouseID := query.warehouseID(); warehouseID != nil {
		response, err := h.stockService.AvgPrice(c.Request.Context(), productID, *warehouseID, asOf)
		if err != nil {
			h.DomainError(c, err)
			return
		}
		h.Success(c, response)
		return
	}

	response, err := h.stockService.GlobalAvgPrice(c.Request.Context(), productID, asOf)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, response)
}
