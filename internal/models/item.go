package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int64           `json:"quantity"`
	Threshold   int64           `json:"threshold"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// LowStock is derived, never stored.
func (i *InventoryItem) LowStock() bool {
	return i.Quantity < i.Threshold
}

// StockValue is quantity times unit cost.
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(i.Quantity))
}

type InventoryHistory struct {
	ID            int64       `json:"id"`
	ItemID        int64       `json:"item_id"`
	Delta         int64       `json:"delta"`
	QuantityAfter int64       `json:"quantity_after"`
	Reason        StockReason `json:"reason"`
	Note          string      `json:"note,omitempty"`
	ActorID       int64       `json:"actor_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// StockAdjustment is a request to change an item's quantity.
type StockAdjustment struct {
	ItemID int64       `json:"item_id"`
	Delta  int64       `json:"delta"`
	Reason StockReason `json:"reason"`
	Note   string      `json:"note"`
}

// StockOutcome is the result of a successful adjustment.
type StockOutcome struct {
	Item     *InventoryItem    `json:"item"`
	History  *InventoryHistory `json:"history"`
	LowStock bool              `json:"low_stock"`
	Advice   string            `json:"advice,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

type ItemFilter struct {
	Category string
	Limit    int
}

// ImportRecord is one row of a bulk import. ItemID or Name identifies the
// item; Category, Threshold and UnitCost are used when the item is new.
type ImportRecord struct {
	ItemID      int64            `json:"item_id,omitempty"`
	Name        string           `json:"name"`
	Category    string           `json:"category,omitempty"`
	Delta       int64            `json:"delta"`
	Reason      string           `json:"reason,omitempty"`
	Threshold   *int64           `json:"threshold,omitempty"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	Description string           `json:"description,omitempty"`
}

type ImportResult struct {
	Index   int    `json:"index"`
	Item    string `json:"item"`
	Success bool   `json:"success"`
	Created bool   `json:"created,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ImportReport struct {
	SuccessCount int            `json:"success_count"`
	ErrorCount   int            `json:"error_count"`
	Results      []ImportResult `json:"results"`
}

type CategorySummary struct {
	Items      int             `json:"items"`
	Units      int64           `json:"units"`
	StockValue decimal.Decimal `json:"stock_value"`
}

type InventorySummary struct {
	Items         int                        `json:"items"`
	Units         int64                      `json:"units"`
	StockValue    decimal.Decimal            `json:"stock_value"`
	LowStockCount int                        `json:"low_stock_count"`
	ByCategory    map[string]CategorySummary `json:"by_category"`
}
