package models

import "time"

// Order line discriminators. An order line is either a plain menu item or a
// deal bundle carrying an immutable snapshot of its constituents.
const (
	LineTypeMenuItem = "menu_item"
	LineTypeDeal     = "deal"
)

// OrderItem is one line of an order. Name and unit price are snapshots taken
// at add-to-cart time so later catalog edits cannot retroactively change a
// settled order. For deal lines, DealItems is the constituent snapshot the
// consumption resolver expands.
type OrderItem struct {
	ID         int64        `json:"id"`
	OrderID    int64        `json:"order_id"`
	LineType   string       `json:"line_type"`
	MenuItemID *int64       `json:"menu_item_id,omitempty"`
	DealID     *int64       `json:"deal_id,omitempty"`
	Name       string       `json:"name"`
	Quantity   float64      `json:"quantity"` // fractional for sold-by-weight items
	UnitPrice  float64      `json:"unit_price"`
	TotalPrice float64      `json:"total_price"`
	TaxRate    float64      `json:"tax_rate"` // snapshot; zero for deal lines
	DealItems  DealItemList `json:"deal_items,omitempty"`
	Notes      *string      `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// IsDeal reports whether this line is a deal bundle.
func (i *OrderItem) IsDeal() bool {
	return i.LineType == LineTypeDeal
}

// Order is a kitchen order ticket progressing through the lifecycle state
// machine. Invariant at every committed state:
// TotalAmount == Subtotal + Tax - Discount.
type Order struct {
	ID               int64       `json:"id"`
	OrderNumber      string      `json:"order_number"`
	TableNumber      *string     `json:"table_number,omitempty"` // nil for takeaway
	IsTakeaway       bool        `json:"is_takeaway"`
	CustomerName     *string     `json:"customer_name,omitempty"`
	Items            []OrderItem `json:"items"`
	Subtotal         float64     `json:"subtotal"`
	Tax              float64     `json:"tax"`
	Discount         float64     `json:"discount"`
	DiscountType     *string     `json:"discount_type,omitempty"`
	DiscountValue    *float64    `json:"discount_value,omitempty"`
	TotalAmount      float64     `json:"total_amount"`
	Status           string      `json:"status"`
	PaymentMethod    *string     `json:"payment_method,omitempty"`
	CreditCustomerID *int64      `json:"credit_customer_id,omitempty"`
	Notes            *string     `json:"notes,omitempty"`
	CashierID        int64       `json:"cashier_id"`
	CashierName      string      `json:"cashier_name"`
	CreatedAt        time.Time   `json:"created_at"`
	StartedCookingAt *time.Time  `json:"started_cooking_at,omitempty"`
	ReadyAt          *time.Time  `json:"ready_at,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	CancelledAt      *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason     *string     `json:"cancel_reason,omitempty"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	Status      *string `form:"status"`
	TableNumber *string `form:"table_number"`
	Date        *string `form:"date"` // YYYY-MM-DD
	Page        int     `form:"page"`
	PageSize    int     `form:"page_size"`
}
