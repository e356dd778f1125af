package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"restropos_backend/internal/services"
	"restropos_backend/pkg/utils"
)

// CustomerHandler exposes credit customers, their ledger and payments.
type CustomerHandler struct {
	customerService *services.CustomerService
	ledgerService   *services.LedgerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService *services.CustomerService, ledgerService *services.LedgerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, ledgerService: ledgerService}
}

// CreateCustomer registers a credit customer.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	customer, err := h.customerService.CreateCustomer(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomers lists customers with search and pagination.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	search := c.Query("search")
	withBalanceOnly := c.Query("with_balance") == "true"

	customers, total, err := h.customerService.GetCustomers(page, pageSize, search, withBalanceOnly)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "total_count": total})
}

// GetCustomer returns one customer.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer edits customer contact details and the credit flag. The
// balance is not editable; it only moves through the ledger.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	customer, err := h.customerService.UpdateCustomer(id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// GetLedger returns a customer's ledger history, newest first.
func (h *CustomerHandler) GetLedger(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.ledgerService.Ledger(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ledger_entries": entries})
}

// RecordPayment records a debt repayment.
func (h *CustomerHandler) RecordPayment(c *gin.Context) {
	var req services.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	payment, err := h.ledgerService.RecordPayment(req, actorFromContext(c), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetPayments lists the most recent payments.
func (h *CustomerHandler) GetPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	payments, err := h.ledgerService.RecentPayments(limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// DeletePayment reverses a payment. Deleting twice is a no-op.
func (h *CustomerHandler) DeletePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeletePayment(id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment reversed."})
}
