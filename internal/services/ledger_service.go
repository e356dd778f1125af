package services

import (
	"errors"
	"fmt"
	"time"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
	"restropos_backend/pkg/utils"
)

// LedgerService owns the credit ledger: sale debits, payment credits and the
// cached customer balance. Every posting locks the customer row first, so
// concurrent writes for the same customer serialize and running balances stay
// exact.
type LedgerService struct {
	customerRepo repositories.CustomerRepository
	txManager    repositories.TxManager
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(customerRepo repositories.CustomerRepository, txManager repositories.TxManager) *LedgerService {
	return &LedgerService{customerRepo: customerRepo, txManager: txManager}
}

// PaymentRequest is the input for recording a customer debt repayment.
type PaymentRequest struct {
	CustomerID    int64    `json:"customer_id" binding:"required"`
	Amount        float64  `json:"amount" binding:"required"`
	PaymentMode   string   `json:"payment_mode" binding:"required"`
	CheckNumber   *string  `json:"check_number,omitempty"`
	TransactionID *string  `json:"transaction_id,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// PostSaleInTx posts a credit sale inside the caller's transaction: one sale
// debit entry plus the balance update, serialized on the customer row lock.
// Used by order completion so the status change and the posting commit as one
// unit.
func (s *LedgerService) PostSaleInTx(executor repositories.SQLExecutor, order *models.Order, customerID int64, now time.Time) error {
	customer, err := s.customerRepo.GetCustomerByIDForUpdate(executor, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: credit customer %d", ErrNotFound, customerID)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !customer.IsCreditEnabled {
		return fmt.Errorf("%w: credit is disabled for customer %s", ErrValidation, customer.Name)
	}

	newBalance := customer.CurrentBalance + order.TotalAmount
	entry := &models.CustomerLedgerEntry{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		Date:            now,
		ReferenceType:   models.ReferenceSale,
		ReferenceNumber: order.OrderNumber,
		Debit:           order.TotalAmount,
		RunningBalance:  newBalance,
	}
	if _, err := s.customerRepo.CreateLedgerEntry(executor, entry); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := s.customerRepo.SetBalance(executor, customer.ID, newBalance); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RecordPayment records a repayment: payment row, its ledger credit entry and
// the balance decrement in one transaction.
func (s *LedgerService) RecordPayment(req PaymentRequest, actor Actor, now time.Time) (*models.CustomerPayment, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	switch req.PaymentMode {
	case models.PaymentModeCash:
	case models.PaymentModeCheck:
		if req.CheckNumber == nil || utils.IsBlank(*req.CheckNumber) {
			return nil, fmt.Errorf("%w: check payments require a check number", ErrValidation)
		}
	case models.PaymentModeBankTransfer:
		if req.TransactionID == nil || utils.IsBlank(*req.TransactionID) {
			return nil, fmt.Errorf("%w: bank transfer payments require a transaction id", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown payment mode %q", ErrValidation, req.PaymentMode)
	}

	payment := &models.CustomerPayment{
		CustomerID:    req.CustomerID,
		ReceiptNumber: newReceiptNumber(now),
		Amount:        req.Amount,
		PaymentMode:   req.PaymentMode,
		CheckNumber:   req.CheckNumber,
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
		ReceivedBy:    actor.Name,
		Date:          now,
		CreatedAt:     now,
	}

	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		customer, err := s.customerRepo.GetCustomerByIDForUpdate(executor, req.CustomerID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: credit customer %d", ErrNotFound, req.CustomerID)
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		newBalance := customer.CurrentBalance - req.Amount
		entry := &models.CustomerLedgerEntry{
			CustomerID:      customer.ID,
			CustomerName:    customer.Name,
			Date:            now,
			ReferenceType:   models.ReferencePayment,
			ReferenceNumber: payment.ReceiptNumber,
			Credit:          req.Amount,
			RunningBalance:  newBalance,
			Notes:           req.Notes,
		}
		entryID, err := s.customerRepo.CreateLedgerEntry(executor, entry)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		payment.CustomerName = customer.Name
		payment.LedgerEntryID = entryID
		paymentID, err := s.customerRepo.CreatePayment(executor, payment)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		payment.ID = paymentID

		if err := s.customerRepo.SetBalance(executor, customer.ID, newBalance); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// DeletePayment reverses a recorded payment: the balance goes back up, the
// linked ledger entry and the payment row go away, all in one transaction.
// Deleting an already-deleted payment is a no-op.
func (s *LedgerService) DeletePayment(paymentID int64) error {
	payment, err := s.customerRepo.GetPaymentByID(paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		customer, err := s.customerRepo.GetCustomerByIDForUpdate(executor, payment.CustomerID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if err := s.customerRepo.DeletePayment(executor, payment.ID); err != nil {
			// Lost a race with another delete; the reversal already happened.
			if errors.Is(err, repositories.ErrNotFound) {
				return repositories.ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if err := s.customerRepo.DeleteLedgerEntry(executor, payment.LedgerEntryID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if err := s.customerRepo.SetBalance(executor, customer.ID, customer.CurrentBalance+payment.Amount); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	return err
}

// Ledger returns a customer's full ledger history, newest first.
func (s *LedgerService) Ledger(customerID int64) ([]models.CustomerLedgerEntry, error) {
	if _, err := s.customerRepo.GetCustomerByID(customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: credit customer %d", ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	entries, err := s.customerRepo.GetLedgerEntries(customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// The store query orders oldest first; flip for display.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// RecentPayments lists the latest recorded payments across all customers.
func (s *LedgerService) RecentPayments(limit int) ([]models.CustomerPayment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	payments, err := s.customerRepo.GetRecentPayments(limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return payments, nil
}
