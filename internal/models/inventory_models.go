package models

import "time"

// Inventory adjustment types. Consumption and wastage reduce stock (negative
// quantity), correction and production may carry either sign.
const (
	AdjustmentConsumption = "consumption"
	AdjustmentWastage     = "wastage"
	AdjustmentCorrection  = "correction"
	AdjustmentProduction  = "production"
)

// InventoryItem is a stock-tracked good (raw material or prepared item).
// CurrentStock is mutated exclusively through InventoryAdjustment records;
// a sale never writes it directly.
type InventoryItem struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	CurrentStock      float64   `json:"current_stock"`
	Unit              string    `json:"unit"`
	LowStockThreshold float64   `json:"low_stock_threshold"`
	IsPreparedItem    bool      `json:"is_prepared_item"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsLowStock reports whether current stock has fallen below the alert threshold.
func (i *InventoryItem) IsLowStock() bool {
	return i.CurrentStock < i.LowStockThreshold
}

// InventoryAdjustment is an append-only signed stock mutation. Applying an
// adjustment atomically increments the referenced item's CurrentStock by
// Quantity, so stock always equals the initial value plus the sum of all
// applied adjustments.
type InventoryAdjustment struct {
	ID                int64     `json:"id"`
	InventoryItemID   int64     `json:"inventory_item_id"`
	InventoryItemName string    `json:"inventory_item_name"`
	AdjustmentType    string    `json:"adjustment_type"`
	Quantity          float64   `json:"quantity"` // signed
	Unit              string    `json:"unit"`
	Reason            string    `json:"reason"`
	AdjustedBy        string    `json:"adjusted_by"`
	Date              time.Time `json:"date"`
	CreatedAt         time.Time `json:"created_at"`
}

// AdjustmentFilters defines the available filters for querying adjustments.
type AdjustmentFilters struct {
	ItemID         *int64  `form:"item_id"`
	AdjustmentType *string `form:"adjustment_type"`
	Page           int     `form:"page"`
	PageSize       int     `form:"page_size"`
}
