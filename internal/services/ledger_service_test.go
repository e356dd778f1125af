package services

import (
	"errors"
	"testing"

	"restropos_backend/internal/models"
)

type ledgerFixture struct {
	svc       *LedgerService
	customers *fakeCustomerRepo
}

func newLedgerFixture() *ledgerFixture {
	customers := newFakeCustomerRepo()
	tx := &fakeTxManager{stores: []snapshotter{customers}}
	return &ledgerFixture{svc: NewLedgerService(customers, tx), customers: customers}
}

func TestPostSaleThenPaymentThenReversal(t *testing.T) {
	f := newLedgerFixture()
	f.customers.addCustomer(1, "Bashir Traders", true)
	order := &models.Order{OrderNumber: "ORD-20260828-AAAA1111", TotalAmount: 500}

	if err := f.svc.PostSaleInTx(nil, order, 1, testNow); err != nil {
		t.Fatalf("PostSaleInTx: %v", err)
	}
	if got := f.customers.customers[1].CurrentBalance; got != 500 {
		t.Fatalf("balance after sale = %v, want 500", got)
	}
	entries, _ := f.customers.GetLedgerEntries(1)
	if len(entries) != 1 || entries[0].Debit != 500 || entries[0].RunningBalance != 500 {
		t.Fatalf("sale entry = %+v", entries)
	}

	payment, err := f.svc.RecordPayment(PaymentRequest{
		CustomerID: 1, Amount: 200, PaymentMode: models.PaymentModeCash,
	}, testActor, testNow)
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if got := f.customers.customers[1].CurrentBalance; got != 300 {
		t.Fatalf("balance after payment = %v, want 300", got)
	}
	if payment.ReceiptNumber == "" || payment.LedgerEntryID == 0 {
		t.Errorf("payment missing receipt or ledger back-reference: %+v", payment)
	}
	entries, _ = f.customers.GetLedgerEntries(1)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	if err := f.svc.DeletePayment(payment.ID); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}
	if got := f.customers.customers[1].CurrentBalance; got != 500 {
		t.Fatalf("balance after reversal = %v, want 500", got)
	}
	entries, _ = f.customers.GetLedgerEntries(1)
	if len(entries) != 1 {
		t.Fatalf("entries after reversal = %d, want 1", len(entries))
	}

	// Balance always equals the ledger sum.
	if got := f.customers.ledgerSums(1); got != f.customers.customers[1].CurrentBalance {
		t.Errorf("balance %v diverged from ledger sum %v", f.customers.customers[1].CurrentBalance, got)
	}
}

func TestBalanceMatchesLedgerAfterAnySequence(t *testing.T) {
	f := newLedgerFixture()
	f.customers.addCustomer(1, "Hotel Shalimar", true)

	sale := func(amount float64) {
		t.Helper()
		order := &models.Order{OrderNumber: "ORD-X", TotalAmount: amount}
		if err := f.svc.PostSaleInTx(nil, order, 1, testNow); err != nil {
			t.Fatalf("PostSaleInTx: %v", err)
		}
	}
	pay := func(amount float64) *models.CustomerPayment {
		t.Helper()
		p, err := f.svc.RecordPayment(PaymentRequest{CustomerID: 1, Amount: amount, PaymentMode: models.PaymentModeCash}, testActor, testNow)
		if err != nil {
			t.Fatalf("RecordPayment: %v", err)
		}
		return p
	}

	sale(1200)
	p1 := pay(400)
	sale(300)
	pay(250)
	if err := f.svc.DeletePayment(p1.ID); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}

	balance := f.customers.customers[1].CurrentBalance
	if balance != 1250 {
		t.Errorf("balance = %v, want 1250", balance)
	}
	if got := f.customers.ledgerSums(1); got != balance {
		t.Errorf("balance %v diverged from ledger sum %v", balance, got)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newLedgerFixture()
	f.customers.addCustomer(1, "Bashir Traders", true)

	cases := []struct {
		name string
		req  PaymentRequest
	}{
		{"zero amount", PaymentRequest{CustomerID: 1, Amount: 0, PaymentMode: models.PaymentModeCash}},
		{"negative amount", PaymentRequest{CustomerID: 1, Amount: -50, PaymentMode: models.PaymentModeCash}},
		{"unknown mode", PaymentRequest{CustomerID: 1, Amount: 100, PaymentMode: "crypto"}},
		{"check without number", PaymentRequest{CustomerID: 1, Amount: 100, PaymentMode: models.PaymentModeCheck}},
		{"transfer without transaction id", PaymentRequest{CustomerID: 1, Amount: 100, PaymentMode: models.PaymentModeBankTransfer}},
	}
	for _, tc := range cases {
		if _, err := f.svc.RecordPayment(tc.req, testActor, testNow); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: want ErrValidation, got %v", tc.name, err)
		}
	}

	// Nothing was written by the rejected attempts.
	entries, _ := f.customers.GetLedgerEntries(1)
	if len(entries) != 0 {
		t.Errorf("rejected payments left %d ledger entries", len(entries))
	}

	checkNo := "CHQ-991"
	if _, err := f.svc.RecordPayment(PaymentRequest{
		CustomerID: 1, Amount: 100, PaymentMode: models.PaymentModeCheck, CheckNumber: &checkNo,
	}, testActor, testNow); err != nil {
		t.Errorf("valid check payment rejected: %v", err)
	}
}

func TestRecordPaymentUnknownCustomer(t *testing.T) {
	f := newLedgerFixture()
	if _, err := f.svc.RecordPayment(PaymentRequest{
		CustomerID: 42, Amount: 100, PaymentMode: models.PaymentModeCash,
	}, testActor, testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestPostSaleRequiresCreditEnabled(t *testing.T) {
	f := newLedgerFixture()
	f.customers.addCustomer(1, "Cash Only", false)
	order := &models.Order{OrderNumber: "ORD-X", TotalAmount: 100}

	if err := f.svc.PostSaleInTx(nil, order, 1, testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("want ErrValidation, got %v", err)
	}
	if err := f.svc.PostSaleInTx(nil, order, 99, testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown customer: want ErrNotFound, got %v", err)
	}
}

func TestDeletePaymentIdempotent(t *testing.T) {
	f := newLedgerFixture()
	f.customers.addCustomer(1, "Bashir Traders", true)
	order := &models.Order{OrderNumber: "ORD-X", TotalAmount: 500}
	if err := f.svc.PostSaleInTx(nil, order, 1, testNow); err != nil {
		t.Fatalf("PostSaleInTx: %v", err)
	}
	payment, err := f.svc.RecordPayment(PaymentRequest{CustomerID: 1, Amount: 200, PaymentMode: models.PaymentModeCash}, testActor, testNow)
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	if err := f.svc.DeletePayment(payment.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := f.svc.DeletePayment(payment.ID); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
	if got := f.customers.customers[1].CurrentBalance; got != 500 {
		t.Errorf("balance = %v, want 500 (reversal applied once)", got)
	}
}

func TestLedgerOrderingNewestFirst(t *testing.T) {
	f := newLedgerFixture()
	f.customers.addCustomer(1, "Bashir Traders", true)

	older := testNow.AddDate(0, 0, -3)
	if err := f.svc.PostSaleInTx(nil, &models.Order{OrderNumber: "ORD-OLD", TotalAmount: 100}, 1, older); err != nil {
		t.Fatalf("PostSaleInTx: %v", err)
	}
	if err := f.svc.PostSaleInTx(nil, &models.Order{OrderNumber: "ORD-NEW", TotalAmount: 100}, 1, testNow); err != nil {
		t.Fatalf("PostSaleInTx: %v", err)
	}

	entries, err := f.svc.Ledger(1)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Date.Before(entries[1].Date) {
		t.Error("ledger not newest-first")
	}
}
