package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionType(t *testing.T) {
	t.Run("validity", func(t *testing.T) {
		assert.True(t, TypeStockIn.IsValid())
		assert.True(t, TypeStockOut.IsValid())
		assert.True(t, TypeStockCount.IsValid())
		assert.True(t, TypeStockBegin.IsValid())
		assert.False(t, TransactionType("STOCK_TRANSFER").IsValid())
		assert.False(t, TransactionType("").IsValid())
	})

	t.Run("sign convention", func(t *testing.T) {
		assert.Equal(t, 1, TypeStockIn.Sign())
		assert.Equal(t, 1, TypeStockBegin.Sign())
		assert.Equal(t, 1, TypeStockCount.Sign())
		assert.Equal(t, -1, TypeStockOut.Sign())
	})
}

func TestNewLedgerEntry(t *testing.T) {
	itemID := uuid.New()
	productID := uuid.New()
	warehouseID := uuid.New()
	actorID := uuid.New()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("creates inbound entry with positive quantity", func(t *testing.T) {
		entry, err := NewLedgerEntry(itemID, TypeStockIn, date, productID, &warehouseID,
			decimal.NewFromInt(10), decimal.RequireFromString("2.50"), actorID)

		require.NoError(t, err)
		assert.Equal(t, "10", entry.Quantity.String())
		assert.Equal(t, "25", entry.TotalPrice.String())
		assert.True(t, entry.IsInbound())
		assert.NotEqual(t, uuid.Nil, entry.ID)
	})

	t.Run("creates outbound entry with negated quantity", func(t *testing.T) {
		entry, err := NewLedgerEntry(itemID, TypeStockOut, date, productID, &warehouseID,
			decimal.NewFromInt(4), decimal.RequireFromString("2.50"), actorID)

		require.NoError(t, err)
		assert.Equal(t, "-4", entry.Quantity.String())
		assert.Equal(t, "-10", entry.TotalPrice.String())
		assert.True(t, entry.IsOutbound())
	})

	t.Run("allows nil warehouse for global rows", func(t *testing.T) {
		entry, err := NewLedgerEntry(itemID, TypeStockBegin, date, productID, nil,
			decimal.NewFromInt(1), decimal.NewFromInt(1), actorID)

		require.NoError(t, err)
		assert.Nil(t, entry.WarehouseID)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		entry, err := NewLedgerEntry(itemID, TypeStockIn, date, productID, &warehouseID,
			decimal.Zero, decimal.NewFromInt(1), actorID)

		require.Error(t, err)
		assert.Nil(t, entry)
		assert.Contains(t, err.Error(), "Quantity")
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewLedgerEntry(itemID, TypeStockIn, date, productID, &warehouseID,
			decimal.NewFromInt(-3), decimal.NewFromInt(1), actorID)

		require.Error(t, err)
	})

	t.Run("rejects negative unit price", func(t *testing.T) {
		_, err := NewLedgerEntry(itemID, TypeStockIn, date, productID, &warehouseID,
			decimal.NewFromInt(3), decimal.NewFromInt(-1), actorID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "price")
	})

	t.Run("rejects unknown transaction type", func(t *testing.T) {
		_, err := NewLedgerEntry(itemID, TransactionType("BOGUS"), date, productID, &warehouseID,
			decimal.NewFromInt(3), decimal.NewFromInt(1), actorID)

		require.Error(t, err)
	})

	t.Run("rejects nil identifiers", func(t *testing.T) {
		_, err := NewLedgerEntry(uuid.Nil, TypeStockIn, date, productID, &warehouseID,
			decimal.NewFromInt(3), decimal.NewFromInt(1), actorID)
		require.Error(t, err)

		_, err = NewLedgerEntry(itemID, TypeStockIn, date, uuid.Nil, &warehouseID,
			decimal.NewFromInt(3), decimal.NewFromInt(1), actorID)
		require.Error(t, err)

		nilWh := uuid.Nil
		_, err = NewLedgerEntry(itemID, TypeStockIn, date, productID, &nilWh,
			decimal.NewFromInt(3), decimal.NewFromInt(1), actorID)
		require.Error(t, err)
	})

	t.Run("stores parent document denormalization", func(t *testing.T) {
		entry, err := NewLedgerEntry(itemID, TypeStockIn, date, productID, &warehouseID,
			decimal.NewFromInt(10), decimal.NewFromInt(2), actorID)
		require.NoError(t, err)

		entry.WithParent("GRN-2026-0042", &warehouseID)

		assert.Equal(t, "GRN-2026-0042", entry.ParentReference)
		require.NotNil(t, entry.ParentWarehouseID)
		assert.Equal(t, warehouseID, *entry.ParentWarehouseID)
	})
}
