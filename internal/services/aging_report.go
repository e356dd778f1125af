package services

import (
	"fmt"
	"sort"
	"time"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
)

// Aging bucket boundaries in days.
const (
	agingCurrentMaxDays = 15
	agingOverdueMaxDays = 30
)

// ComputeAging classifies one customer's receivables by age. Sale debits are
// bucketed by days outstanding: 0-15 current, 16-30 overdue, >30 critical.
// Payments reduce the total balance but are not allocated against specific
// sales, so buckets hold gross sale amounts regardless of partial repayment.
func ComputeAging(customer models.CreditCustomer, entries []models.CustomerLedgerEntry, now time.Time) models.AgingReportEntry {
	report := models.AgingReportEntry{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Phone:        customer.Phone,
		TotalBalance: customer.CurrentBalance,
	}

	for i := range entries {
		entry := &entries[i]
		switch entry.ReferenceType {
		case models.ReferenceSale:
			ageDays := int(now.Sub(entry.Date).Hours() / 24)
			switch {
			case ageDays <= agingCurrentMaxDays:
				report.Current += entry.Debit
			case ageDays <= agingOverdueMaxDays:
				report.Overdue += entry.Debit
			default:
				report.Critical += entry.Debit
			}
			if report.OldestDebtDate == nil || entry.Date.Before(*report.OldestDebtDate) {
				d := entry.Date
				report.OldestDebtDate = &d
			}
		case models.ReferencePayment:
			if report.LastPaymentDate == nil || entry.Date.After(*report.LastPaymentDate) {
				d := entry.Date
				report.LastPaymentDate = &d
			}
		}
	}
	return report
}

// AgingReportService builds the receivables aging report across all credit
// customers. Pure read side; nothing is mutated.
type AgingReportService struct {
	customerRepo repositories.CustomerRepository
}

// NewAgingReportService creates a new instance of AgingReportService.
func NewAgingReportService(customerRepo repositories.CustomerRepository) *AgingReportService {
	return &AgingReportService{customerRepo: customerRepo}
}

// AgingReport reports every customer with an outstanding balance, worst
// debtors first.
func (s *AgingReportService) AgingReport(now time.Time) ([]models.AgingReportEntry, error) {
	customers, _, err := s.customerRepo.GetCustomers(0, 0, "", true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(customers) == 0 {
		return []models.AgingReportEntry{}, nil
	}

	ids := make([]int64, 0, len(customers))
	for _, c := range customers {
		ids = append(ids, c.ID)
	}
	entries, err := s.customerRepo.GetLedgerEntriesForCustomers(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	byCustomer := make(map[int64][]models.CustomerLedgerEntry, len(customers))
	for _, entry := range entries {
		byCustomer[entry.CustomerID] = append(byCustomer[entry.CustomerID], entry)
	}

	report := make([]models.AgingReportEntry, 0, len(customers))
	for _, customer := range customers {
		report = append(report, ComputeAging(customer, byCustomer[customer.ID], now))
	}
	sort.Slice(report, func(i, j int) bool {
		return report[i].TotalBalance > report[j].TotalBalance
	})
	return report, nil
}
