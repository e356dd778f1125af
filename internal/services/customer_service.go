package services

import (
	"errors"
	"fmt"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
	"restropos_backend/pkg/utils"
)

// CustomerService manages credit customer records. Balances are never edited
// here; they only move through the ledger.
type CustomerService struct {
	customerRepo repositories.CustomerRepository
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(customerRepo repositories.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CustomerRequest is the input for creating or updating a credit customer.
type CustomerRequest struct {
	Name            string  `json:"name" binding:"required"`
	Phone           string  `json:"phone" binding:"required"`
	Address         *string `json:"address,omitempty"`
	CompanyName     *string `json:"company_name,omitempty"`
	IsCreditEnabled bool    `json:"is_credit_enabled"`
}

func (s *CustomerService) CreateCustomer(req CustomerRequest) (*models.CreditCustomer, error) {
	if utils.IsBlank(req.Name) || utils.IsBlank(req.Phone) {
		return nil, fmt.Errorf("%w: customer name and phone are required", ErrValidation)
	}

	customer := &models.CreditCustomer{
		Name:            req.Name,
		Phone:           req.Phone,
		Address:         req.Address,
		CompanyName:     req.CompanyName,
		IsCreditEnabled: req.IsCreditEnabled,
	}
	id, err := s.customerRepo.CreateCustomer(customer)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: a customer with phone %s already exists", ErrValidation, req.Phone)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.GetCustomer(id)
}

func (s *CustomerService) GetCustomer(id int64) (*models.CreditCustomer, error) {
	customer, err := s.customerRepo.GetCustomerByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: credit customer %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return customer, nil
}

func (s *CustomerService) GetCustomers(page, pageSize int, search string, withBalanceOnly bool) ([]models.CreditCustomer, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	customers, total, err := s.customerRepo.GetCustomers(page, pageSize, search, withBalanceOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return customers, total, nil
}

func (s *CustomerService) UpdateCustomer(id int64, req CustomerRequest) (*models.CreditCustomer, error) {
	if utils.IsBlank(req.Name) || utils.IsBlank(req.Phone) {
		return nil, fmt.Errorf("%w: customer name and phone are required", ErrValidation)
	}

	customer, err := s.GetCustomer(id)
	if err != nil {
		return nil, err
	}
	customer.Name = req.Name
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.CompanyName = req.CompanyName
	customer.IsCreditEnabled = req.IsCreditEnabled

	if err := s.customerRepo.UpdateCustomer(customer); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("%w: credit customer %d", ErrNotFound, id)
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, fmt.Errorf("%w: a customer with phone %s already exists", ErrValidation, req.Phone)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.GetCustomer(id)
}
