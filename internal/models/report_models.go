package models

import "time"

// ItemPerformance aggregates how a menu item (or deal) sold over a period.
type ItemPerformance struct {
	Name         string  `json:"name"`
	QuantitySold float64 `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

// SalesReport summarizes completed sales and collections over a date range.
type SalesReport struct {
	StartDate            time.Time         `json:"start_date"`
	EndDate              time.Time         `json:"end_date"`
	TotalRevenue         float64           `json:"total_revenue"`
	TotalOrders          int               `json:"total_orders"`
	CashRevenue          float64           `json:"cash_revenue"`
	CardRevenue          float64           `json:"card_revenue"`
	BankTransferRevenue  float64           `json:"bank_transfer_revenue"`
	CreditAccountRevenue float64           `json:"credit_account_revenue"`
	CollectionsTotal     float64           `json:"collections_total"`
	CollectionsCash      float64           `json:"collections_cash"`
	CollectionsBank      float64           `json:"collections_bank"`
	CollectionsCheck     float64           `json:"collections_check"`
	ItemPerformance      []ItemPerformance `json:"item_performance"`
}

// AgingReportEntry classifies one customer's outstanding receivables into
// time buckets: current (0-15 days), overdue (16-30 days), critical (>30
// days). Buckets hold gross sale amounts by age; payments are not allocated
// to specific sales.
type AgingReportEntry struct {
	CustomerID      int64      `json:"customer_id"`
	CustomerName    string     `json:"customer_name"`
	Phone           string     `json:"phone"`
	TotalBalance    float64    `json:"total_balance"`
	Current         float64    `json:"current"`
	Overdue         float64    `json:"overdue"`
	Critical        float64    `json:"critical"`
	OldestDebtDate  *time.Time `json:"oldest_debt_date,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
}
