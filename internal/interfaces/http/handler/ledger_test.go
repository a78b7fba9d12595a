package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/procura/backoffice/internal/application/ledger"
	"github.com/procura/backoffice/internal/domain/ledger"
	"github.com/procura/backoffice/internal/interfaces/http/dto"
	"github.com/procura/backoffice/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLedgerRouter(repo ledger.LedgerEntryRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	h := NewLedgerHandler(ledgerapp.NewNoOpTransactionScope(repo), nil, zap.NewNop())
	engine := gin.New()
	engine.POST("/api/v1/ledger/items", h.CreateItem)
	engine.PUT("/api/v1/ledger/items/:item_id", h.UpdateItem)
	engine.DELETE("/api/v1/ledger/items/:item_id", h.DeleteItem)
	engine.POST("/api/v1/ledger/items/:item_id/restore", h.RestoreItem)
	return engine
}

func performJSON(engine *gin.Engine, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func receiptLine(productID uuid.UUID, qty, price string) SourceItemRequest {
	return SourceItemRequest{
		TransactionType: "STOCK_IN",
		TransactionDate: "2026-02-01",
		ProductID:       productID.String(),
		Quantity:        qty,
		UnitPrice:       price,
	}
}

func TestLedgerHandler_CreateItem(t *testing.T) {
	actorID := uuid.New().String()
	productID := uuid.New()

	t.Run("records a ledger entry with the parent reference", func(t *testing.T) {
		repo := &mockEntryRepo{}
		engine := newLedgerRouter(repo)
		itemID := uuid.New()

		body := CreateItemRequest{
			ItemID: itemID.String(),
			Item:   receiptLine(productID, "12", "3.50"),
			Parent: ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w := performJSON(engine, http.MethodPost, "/api/v1/ledger/items", body, actorID)

		require.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, repo.entries, 1)
		entry := repo.entries[0]
		assert.Equal(t, itemID, entry.ItemID)
		assert.Equal(t, "GRN-2026-0011", entry.ParentReference)
		assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(12)))
	})

	t.Run("requires the actor header", func(t *testing.T) {
		repo := &mockEntryRepo{}
		engine := newLedgerRouter(repo)

		body := CreateItemRequest{
			ItemID: uuid.New().String(),
			Item:   receiptLine(productID, "12", "3.50"),
			Parent: ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w := performJSON(engine, http.MethodPost, "/api/v1/ledger/items", body, "")

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, repo.entries)
	})

	t.Run("rejects a malformed quantity", func(t *testing.T) {
		repo := &mockEntryRepo{}
		engine := newLedgerRouter(repo)

		item := receiptLine(productID, "twelve", "3.50")
		body := CreateItemRequest{
			ItemID: uuid.New().String(),
			Item:   item,
			Parent: ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w := performJSON(engine, http.MethodPost, "/api/v1/ledger/items", body, actorID)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, repo.entries)
	})
}

func TestLedgerHandler_UpdateItem(t *testing.T) {
	actorID := uuid.New().String()
	productID := uuid.New()

	t.Run("replaces the entry by previous values", func(t *testing.T) {
		repo := &mockEntryRepo{}
		engine := newLedgerRouter(repo)
		itemID := uuid.New()

		create := CreateItemRequest{
			ItemID: itemID.String(),
			Item:   receiptLine(productID, "12", "3.50"),
			Parent: ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w := performJSON(engine, http.MethodPost, "/api/v1/ledger/items", create, actorID)
		require.Equal(t, http.StatusCreated, w.Code)

		update := UpdateItemRequest{
			Previous: receiptLine(productID, "12", "3.50"),
			Current:  receiptLine(productID, "8", "3.75"),
			Parent:   ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w = performJSON(engine, http.MethodPut, "/api/v1/ledger/items/"+itemID.String(), update, actorID)

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, repo.entries, 1)
		assert.True(t, repo.entries[0].Quantity.Equal(decimal.NewFromInt(8)))
	})

	t.Run("missing counterpart surfaces as a consistency error", func(t *testing.T) {
		repo := &mockEntryRepo{}
		engine := newLedgerRouter(repo)

		update := UpdateItemRequest{
			Previous: receiptLine(productID, "12", "3.50"),
			Current:  receiptLine(productID, "8", "3.75"),
			Parent:   ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w := performJSON(engine, http.MethodPut, "/api/v1/ledger/items/"+uuid.New().String(), update, actorID)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeConsistency, resp.Error.Code)
	})
}

func TestLedgerHandler_DeleteItem(t *testing.T) {
	actorID := uuid.New().String()
	productID := uuid.New()

	t.Run("removes the entry for the deleted line", func(t *testing.T) {
		repo := &mockEntryRepo{}
		engine := newLedgerRouter(repo)
		itemID := uuid.New()

		create := CreateItemRequest{
			ItemID: itemID.String(),
			Item:   receiptLine(productID, "12", "3.50"),
			Parent: ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w := performJSON(engine, http.MethodPost, "/api/v1/ledger/items", create, actorID)
		require.Equal(t, http.StatusCreated, w.Code)

		w = performJSON(engine, http.MethodDelete,
			"/api/v1/ledger/items/"+itemID.String()+"?transaction_type=STOCK_IN&product_id="+productID.String(),
			nil, actorID)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, repo.entries)
	})

	t.Run("rejects a misspelled transaction type", func(t *testing.T) {
		repo := &mockEntryRepo{}
		engine := newLedgerRouter(repo)
		itemID := uuid.New()

		create := CreateItemRequest{
			ItemID: itemID.String(),
			Item:   receiptLine(productID, "12", "3.50"),
			Parent: ParentDocumentRequest{Reference: "GRN-2026-0011"},
		}
		w := performJSON(engine, http.MethodPost, "/api/v1/ledger/items", create, actorID)
		require.Equal(t, http.StatusCreated, w.Code)

		w = performJSON(engine, http.MethodDelete,
			"/api/v1/ledger/items/"+itemID.String()+"?transaction_type=STOCK_INN&product_id="+productID.String(),
			nil, actorID)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Len(t, repo.entries, 1, "entry must survive a rejected delete")
	})
}
