package services

import (
	"fmt"
	"sort"
	"time"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
)

// ReportService aggregates sales and collections over a date range. Read
// side only; aggregation happens in memory so the store needs no compound
// filter-plus-sort queries.
type ReportService struct {
	orderRepo    repositories.OrderRepository
	customerRepo repositories.CustomerRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(orderRepo repositories.OrderRepository, customerRepo repositories.CustomerRepository) *ReportService {
	return &ReportService{orderRepo: orderRepo, customerRepo: customerRepo}
}

// SalesReport summarizes completed orders and payment collections within
// [start, end).
func (s *ReportService) SalesReport(start, end time.Time) (*models.SalesReport, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: report end must be after start", ErrValidation)
	}

	orders, err := s.orderRepo.GetCompletedOrdersBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	payments, err := s.customerRepo.GetPaymentsBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	report := &models.SalesReport{
		StartDate:       start,
		EndDate:         end,
		TotalOrders:     len(orders),
		ItemPerformance: []models.ItemPerformance{},
	}

	performance := map[string]*models.ItemPerformance{}
	for _, order := range orders {
		report.TotalRevenue += order.TotalAmount
		if order.PaymentMethod != nil {
			switch *order.PaymentMethod {
			case PaymentCash:
				report.CashRevenue += order.TotalAmount
			case PaymentCard:
				report.CardRevenue += order.TotalAmount
			case PaymentBankTransfer:
				report.BankTransferRevenue += order.TotalAmount
			case PaymentCreditAccount:
				report.CreditAccountRevenue += order.TotalAmount
			}
		}
		for _, item := range order.Items {
			perf, ok := performance[item.Name]
			if !ok {
				perf = &models.ItemPerformance{Name: item.Name}
				performance[item.Name] = perf
			}
			perf.QuantitySold += item.Quantity
			perf.Revenue += item.TotalPrice
		}
	}

	for _, payment := range payments {
		report.CollectionsTotal += payment.Amount
		switch payment.PaymentMode {
		case models.PaymentModeCash:
			report.CollectionsCash += payment.Amount
		case models.PaymentModeBankTransfer:
			report.CollectionsBank += payment.Amount
		case models.PaymentModeCheck:
			report.CollectionsCheck += payment.Amount
		}
	}

	for _, perf := range performance {
		report.ItemPerformance = append(report.ItemPerformance, *perf)
	}
	sort.Slice(report.ItemPerformance, func(i, j int) bool {
		return report.ItemPerformance[i].Revenue > report.ItemPerformance[j].Revenue
	})
	return report, nil
}
