package services

import (
	"errors"
	"testing"
	"time"

	"restropos_backend/internal/models"
)

func completedOrder(f *fakeOrderRepo, number, method string, total float64, at time.Time, items ...models.OrderItem) {
	f.nextID++
	f.orders[f.nextID] = &models.Order{
		ID: f.nextID, OrderNumber: number, Status: StatusCompleted,
		PaymentMethod: &method, TotalAmount: total, CompletedAt: &at, Items: items,
	}
}

func TestSalesReportAggregation(t *testing.T) {
	orders := newFakeOrderRepo()
	customers := newFakeCustomerRepo()
	svc := NewReportService(orders, customers)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	inRange := start.AddDate(0, 0, 10)

	completedOrder(orders, "ORD-1", PaymentCash, 500, inRange,
		models.OrderItem{Name: "Karahi", Quantity: 1, TotalPrice: 500})
	completedOrder(orders, "ORD-2", PaymentCreditAccount, 1200, inRange,
		models.OrderItem{Name: "Karahi", Quantity: 2, TotalPrice: 1000},
		models.OrderItem{Name: "Naan", Quantity: 4, TotalPrice: 200})
	// Outside the range; must not count.
	completedOrder(orders, "ORD-3", PaymentCash, 999, end.AddDate(0, 0, 1))

	customers.addCustomer(1, "Bashir Traders", true)
	customers.nextID = 100
	customers.payments[101] = &models.CustomerPayment{
		ID: 101, CustomerID: 1, Amount: 300, PaymentMode: models.PaymentModeCash, Date: inRange,
	}
	customers.payments[102] = &models.CustomerPayment{
		ID: 102, CustomerID: 1, Amount: 150, PaymentMode: models.PaymentModeCheck, Date: inRange,
	}

	report, err := svc.SalesReport(start, end)
	if err != nil {
		t.Fatalf("SalesReport: %v", err)
	}
	if report.TotalRevenue != 1700 || report.TotalOrders != 2 {
		t.Errorf("revenue/orders = %v/%d, want 1700/2", report.TotalRevenue, report.TotalOrders)
	}
	if report.CashRevenue != 500 || report.CreditAccountRevenue != 1200 {
		t.Errorf("splits = cash %v / credit %v", report.CashRevenue, report.CreditAccountRevenue)
	}
	if report.CollectionsTotal != 450 || report.CollectionsCash != 300 || report.CollectionsCheck != 150 {
		t.Errorf("collections = %+v", report)
	}
	if len(report.ItemPerformance) != 2 {
		t.Fatalf("item performance entries = %d, want 2", len(report.ItemPerformance))
	}
	top := report.ItemPerformance[0]
	if top.Name != "Karahi" || top.QuantitySold != 3 || top.Revenue != 1500 {
		t.Errorf("top item = %+v", top)
	}
}

func TestSalesReportRejectsInvertedRange(t *testing.T) {
	svc := NewReportService(newFakeOrderRepo(), newFakeCustomerRepo())
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.SalesReport(start, start); !errors.Is(err, ErrValidation) {
		t.Errorf("want ErrValidation, got %v", err)
	}
}
