package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RecipeItem declares the raw-material cost (inventory item + quantity) of
// producing one unit of a menu item.
type RecipeItem struct {
	InventoryItemID   int64   `json:"inventory_item_id"`
	InventoryItemName string  `json:"inventory_item_name"`
	QuantityUsed      float64 `json:"quantity_used"`
	Unit              string  `json:"unit"`
}

// RecipeList is the recipe mapping of a menu item, stored as JSONB.
type RecipeList []RecipeItem

// Value implements driver.Valuer for JSONB storage.
func (r RecipeList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (r *RecipeList) Scan(src interface{}) error {
	if src == nil {
		*r = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("RecipeList.Scan: expected []byte, got %T", src)
	}
	return json.Unmarshal(data, r)
}

// MenuItem is a sellable product. Immutable during a sale; the consumption
// resolver reads it to translate sold quantities into stock adjustments.
type MenuItem struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Price          float64    `json:"price"`
	TaxRate        float64    `json:"tax_rate"` // e.g. 5 for 5%
	Unit           *string    `json:"unit,omitempty"`
	SoldByWeight   bool       `json:"sold_by_weight"`
	IsActive       bool       `json:"is_active"`
	Description    *string    `json:"description,omitempty"`
	RecipeMapping  RecipeList `json:"recipe_mapping,omitempty"`
	PreparedItemID *int64     `json:"prepared_item_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DealMenuItem is one constituent of a deal bundle, with the standard price
// it would sell for outside the bundle.
type DealMenuItem struct {
	MenuItemID    int64   `json:"menu_item_id"`
	MenuItemName  string  `json:"menu_item_name"`
	Quantity      int     `json:"quantity"`
	StandardPrice float64 `json:"standard_price"`
}

// DealItemList is a deal's constituent list, stored as JSONB both on the deal
// and as the immutable snapshot embedded in order lines.
type DealItemList []DealMenuItem

// Value implements driver.Valuer for JSONB storage.
func (d DealItemList) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (d *DealItemList) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("DealItemList.Scan: expected []byte, got %T", src)
	}
	return json.Unmarshal(data, d)
}

// Deal is a fixed-price bundle of menu items sold as one cart line. It is a
// price bundle, not an inventory entity: consumption always resolves through
// its constituent menu items.
type Deal struct {
	ID             int64        `json:"id"`
	Name           string       `json:"name"`
	Description    *string      `json:"description,omitempty"`
	Items          DealItemList `json:"items"`
	OriginalPrice  float64      `json:"original_price"`
	DealPrice      float64      `json:"deal_price"`
	Savings        float64      `json:"savings"`
	SavingsPercent float64      `json:"savings_percent"`
	IsActive       bool         `json:"is_active"`
	StartDate      *time.Time   `json:"start_date,omitempty"`
	EndDate        *time.Time   `json:"end_date,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// RecomputeSavings refreshes the derived pricing fields from the constituent
// list and the deal price.
func (d *Deal) RecomputeSavings() {
	var original float64
	for _, item := range d.Items {
		original += item.StandardPrice * float64(item.Quantity)
	}
	d.OriginalPrice = original
	d.Savings = original - d.DealPrice
	if original > 0 {
		d.SavingsPercent = (d.Savings / original) * 100
	} else {
		d.SavingsPercent = 0
	}
}

// IsCurrentlyActive reports whether the deal may be sold at the given moment:
// the active flag is set and now falls inside the optional validity window.
func (d *Deal) IsCurrentlyActive(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}
