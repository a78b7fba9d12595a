package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/procura/backoffice/internal/application/ledger"
	"github.com/procura/backoffice/internal/domain/ledger"
	"github.com/procura/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerHandler exposes the ledger sync surface to host document modules.
// Each request carries the owning document's reference inline, so the syncer's
// parent resolver is bound to the request payload rather than to a document
// table this service does not own.
type LedgerHandler struct {
	BaseHandler
	scope     ledgerapp.TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(scope ledgerapp.TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		scope:     scope,
		publisher: publisher,
		logger:    logger,
	}
}

// syncerFor builds a syncer whose parent resolver answers from the request's
// inline parent document
func (h *LedgerHandler) syncerFor(parent ledgerapp.ParentDocument) *ledgerapp.Syncer {
	resolver := ledgerapp.ParentResolverFunc(func(context.Context, ledgerapp.SourceItem) (*ledgerapp.ParentDocument, error) {
		return &parent, nil
	})
	syncer := ledgerapp.NewSyncer(h.scope, resolver, h.logger)
	syncer.SetEventPublisher(h.publisher)
	return syncer
}

// SourceItemRequest is the ledger-relevant projection of one document line
type SourceItemRequest struct {
	TransactionType string  `json:"transaction_type" binding:"required"`
	TransactionDate string  `json:"transaction_date" binding:"required,datetime=2006-01-02"`
	ProductID       string  `json:"product_id" binding:"required,uuid"`
	WarehouseID     *string `json:"warehouse_id" binding:"omitempty,uuid"`
	Quantity        string  `json:"quantity" binding:"required,decimal"`
	UnitPrice       string  `json:"unit_price" binding:"required,decimal"`
}

// toSourceItem converts the request into a SourceItem for the given item and
// actor. Quantity and unit price arrive as decimal strings so no precision is
// lost in transit.
func (r *SourceItemRequest) toSourceItem(itemID, actorID uuid.UUID) (ledgerapp.SourceItem, error) {
	qty, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return ledgerapp.SourceItem{}, fmt.Errorf("invalid quantity %q", r.Quantity)
	}
	price, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return ledgerapp.SourceItem{}, fmt.Errorf("invalid unit price %q", r.UnitPrice)
	}
	txDate, err := time.Parse("2006-01-02", r.TransactionDate)
	if err != nil {
		return ledgerapp.SourceItem{}, fmt.Errorf("invalid transaction date %q", r.TransactionDate)
	}

	item := ledgerapp.SourceItem{
		ItemID:          itemID,
		TransactionType: ledger.TransactionType(r.TransactionType),
		TransactionDate: txDate,
		ProductID:       uuid.MustParse(r.ProductID),
		Quantity:        qty,
		UnitPrice:       price,
		ActorID:         actorID,
	}
	if r.WarehouseID != nil {
		warehouseID := uuid.MustParse(*r.WarehouseID)
		item.WarehouseID = &warehouseID
	}
	return item, nil
}

// ParentDocumentRequest identifies the document owning the synced line
type ParentDocumentRequest struct {
	Reference   string  `json:"reference" binding:"required,max=100"`
	WarehouseID *string `json:"warehouse_id" binding:"omitempty,uuid"`
}

func (r *ParentDocumentRequest) toParent() ledgerapp.ParentDocument {
	parent := ledgerapp.ParentDocument{Reference: r.Reference}
	if r.WarehouseID != nil {
		warehouseID := uuid.MustParse(*r.WarehouseID)
		parent.WarehouseID = &warehouseID
	}
	return parent
}

// CreateItemRequest is the request body for recording a new document line
type CreateItemRequest struct {
	ItemID string                `json:"item_id" binding:"required,uuid"`
	Item   SourceItemRequest     `json:"item" binding:"required"`
	Parent ParentDocumentRequest `json:"parent" binding:"required"`
}

// UpdateItemRequest carries both the previous and current field values of an
// edited line; the previous values locate the existing ledger entry.
type UpdateItemRequest struct {
	Previous SourceItemRequest     `json:"previous" binding:"required"`
	Current  SourceItemRequest     `json:"current" binding:"required"`
	Parent   ParentDocumentRequest `json:"parent" binding:"required"`
}

// RestoreItemRequest is the request body for re-recording a restored line
type RestoreItemRequest struct {
	Item   SourceItemRequest     `json:"item" binding:"required"`
	Parent ParentDocumentRequest `json:"parent" binding:"required"`
}

// deleteItemQuery identifies the ledger entry of a deleted line
type deleteItemQuery struct {
	TransactionType string `form:"transaction_type" binding:"required"`
	ProductID       string `form:"product_id" binding:"required,uuid"`
}

// CreateItem records the ledger entry for a newly created document line
// POST /api/v1/ledger/items
func (h *LedgerHandler) CreateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := req.Item.toSourceItem(uuid.MustParse(req.ItemID), userID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.syncerFor(req.Parent.toParent()).OnCreate(c.Request.Context(), item); err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, gin.H{"item_id": item.ItemID})
}

// UpdateItem replaces the ledger entry of an edited document line
// PUT /api/v1/ledger/items/:item_id
func (h *LedgerHandler) UpdateItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	prev, err := req.Previous.toSourceItem(itemID, userID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	next, err := req.Current.toSourceItem(itemID, userID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.syncerFor(req.Parent.toParent()).OnUpdate(c.Request.Context(), prev, next); err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, gin.H{"item_id": itemID})
}

// DeleteItem removes the ledger entry of a deleted document line
// DELETE /api/v1/ledger/items/:item_id
func (h *LedgerHandler) DeleteItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "invalid item ID")
		return
	}

	var query deleteItemQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item := ledgerapp.SourceItem{
		ItemID:          itemID,
		TransactionType: ledger.TransactionType(query.TransactionType),
		ProductID:       uuid.MustParse(query.ProductID),
		ActorID:         userID,
	}

	// Delete never builds an entry, so no parent document is needed
	if err := h.syncerFor(ledgerapp.ParentDocument{}).OnDelete(c.Request.Context(), item); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// RestoreItem re-records the ledger entry of a restored document line
// POST /api/v1/ledger/items/:item_id/restore
func (h *LedgerHandler) RestoreItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "invalid item ID")
		return
	}

	var req RestoreItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := req.Item.toSourceItem(itemID, userID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.syncerFor(req.Parent.toParent()).OnRestore(c.Request.Context(), item); err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, gin.H{"item_id": itemID})
}
