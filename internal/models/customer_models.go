package models

import "time"

// Ledger entry reference types. A sale adds debt, a payment reduces it.
const (
	ReferenceSale    = "sale"
	ReferencePayment = "payment"
)

// Customer payment modes.
const (
	PaymentModeCash         = "cash"
	PaymentModeBankTransfer = "bank_transfer"
	PaymentModeCheck        = "check"
)

// CreditCustomer is a customer allowed to settle orders on account.
// CurrentBalance is a derived cache; the invariant
// CurrentBalance == sum(ledger.Debit) - sum(ledger.Credit) holds whenever the
// ledger is fully applied.
type CreditCustomer struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Address         *string   `json:"address,omitempty"`
	CompanyName     *string   `json:"company_name,omitempty"`
	CurrentBalance  float64   `json:"current_balance"`
	IsCreditEnabled bool      `json:"is_credit_enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CustomerLedgerEntry is an append-only accounting record of either a
// credit-sale debit or a payment credit. Entries are never mutated; deletion
// only happens paired with reversal of the originating payment.
type CustomerLedgerEntry struct {
	ID              int64     `json:"id"`
	CustomerID      int64     `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	Date            time.Time `json:"date"`
	ReferenceType   string    `json:"reference_type"`
	ReferenceNumber string    `json:"reference_number"`
	Debit           float64   `json:"debit"`
	Credit          float64   `json:"credit"`
	RunningBalance  float64   `json:"running_balance"` // balance immediately after this entry
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CustomerPayment records a debt repayment. One payment maps to exactly one
// ledger credit entry, created in the same transaction.
type CustomerPayment struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	ReceiptNumber string    `json:"receipt_number"`
	Amount        float64   `json:"amount"`
	PaymentMode   string    `json:"payment_mode"`
	CheckNumber   *string   `json:"check_number,omitempty"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	ReceivedBy    string    `json:"received_by"`
	LedgerEntryID int64     `json:"ledger_entry_id"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}
