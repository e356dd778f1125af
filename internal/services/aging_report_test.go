package services

import (
	"testing"
	"time"

	"restropos_backend/internal/models"
)

func saleEntry(customerID int64, amount float64, date time.Time) models.CustomerLedgerEntry {
	return models.CustomerLedgerEntry{
		CustomerID: customerID, ReferenceType: models.ReferenceSale, Debit: amount, Date: date,
	}
}

func paymentEntry(customerID int64, amount float64, date time.Time) models.CustomerLedgerEntry {
	return models.CustomerLedgerEntry{
		CustomerID: customerID, ReferenceType: models.ReferencePayment, Credit: amount, Date: date,
	}
}

func TestComputeAgingBucketBoundaries(t *testing.T) {
	customer := models.CreditCustomer{ID: 1, Name: "Bashir Traders", CurrentBalance: 400}
	entries := []models.CustomerLedgerEntry{
		saleEntry(1, 100, testNow.AddDate(0, 0, -15)), // still current
		saleEntry(1, 100, testNow.AddDate(0, 0, -16)), // first overdue day
		saleEntry(1, 100, testNow.AddDate(0, 0, -30)), // still overdue
		saleEntry(1, 100, testNow.AddDate(0, 0, -31)), // critical
	}

	report := ComputeAging(customer, entries, testNow)
	if report.Current != 100 {
		t.Errorf("current = %v, want 100", report.Current)
	}
	if report.Overdue != 200 {
		t.Errorf("overdue = %v, want 200", report.Overdue)
	}
	if report.Critical != 100 {
		t.Errorf("critical = %v, want 100", report.Critical)
	}
	if report.TotalBalance != 400 {
		t.Errorf("total = %v, want 400", report.TotalBalance)
	}
}

func TestComputeAgingDates(t *testing.T) {
	customer := models.CreditCustomer{ID: 1, Name: "Bashir Traders", CurrentBalance: 150}
	oldest := testNow.AddDate(0, 0, -40)
	latestPayment := testNow.AddDate(0, 0, -2)
	entries := []models.CustomerLedgerEntry{
		saleEntry(1, 200, oldest),
		saleEntry(1, 100, testNow.AddDate(0, 0, -10)),
		paymentEntry(1, 100, testNow.AddDate(0, 0, -20)),
		paymentEntry(1, 50, latestPayment),
	}

	report := ComputeAging(customer, entries, testNow)
	if report.OldestDebtDate == nil || !report.OldestDebtDate.Equal(oldest) {
		t.Errorf("oldest debt date = %v, want %v", report.OldestDebtDate, oldest)
	}
	if report.LastPaymentDate == nil || !report.LastPaymentDate.Equal(latestPayment) {
		t.Errorf("last payment date = %v, want %v", report.LastPaymentDate, latestPayment)
	}
	// Buckets hold gross sale amounts; the payments reduce only the total.
	if report.Current != 100 || report.Critical != 200 {
		t.Errorf("buckets = current %v / critical %v, want 100 / 200", report.Current, report.Critical)
	}
}

func TestComputeAgingNoEntries(t *testing.T) {
	customer := models.CreditCustomer{ID: 1, Name: "New Account"}
	report := ComputeAging(customer, nil, testNow)
	if report.Current != 0 || report.Overdue != 0 || report.Critical != 0 {
		t.Errorf("empty ledger produced buckets: %+v", report)
	}
	if report.OldestDebtDate != nil || report.LastPaymentDate != nil {
		t.Error("empty ledger produced dates")
	}
}

func TestAgingReportFiltersToOutstandingBalances(t *testing.T) {
	customers := newFakeCustomerRepo()
	svc := NewAgingReportService(customers)

	indebted := customers.addCustomer(1, "Bashir Traders", true)
	indebted.CurrentBalance = 900
	settled := customers.addCustomer(2, "Settled Co", true)
	settled.CurrentBalance = 0

	entry := saleEntry(1, 900, testNow.AddDate(0, 0, -5))
	entry.ID = 1
	customers.entries[1] = &entry

	report, err := svc.AgingReport(testNow)
	if err != nil {
		t.Fatalf("AgingReport: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("report entries = %d, want 1", len(report))
	}
	if report[0].CustomerID != 1 || report[0].Current != 900 {
		t.Errorf("report = %+v", report[0])
	}
}
