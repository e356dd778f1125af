package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restropos_backend/internal/models"
	"restropos_backend/internal/services"
	"restropos_backend/pkg/utils"
)

// OrderHandler drives the order lifecycle over HTTP.
type OrderHandler struct {
	orderService *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type orderLineRequest struct {
	LineType   string  `json:"line_type" binding:"required"`
	MenuItemID *int64  `json:"menu_item_id,omitempty"`
	DealID     *int64  `json:"deal_id,omitempty"`
	Quantity   float64 `json:"quantity" binding:"required"`
	Notes      *string `json:"notes,omitempty"`
}

func toSoldLines(reqs []orderLineRequest) ([]services.SoldLine, *utils.APIError) {
	lines := make([]services.SoldLine, 0, len(reqs))
	for _, r := range reqs {
		switch r.LineType {
		case models.LineTypeMenuItem:
			if r.MenuItemID == nil {
				return nil, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "menu_item lines require menu_item_id.", "")
			}
			lines = append(lines, services.MenuItemLine{MenuItemID: *r.MenuItemID, Quantity: r.Quantity, Notes: r.Notes})
		case models.LineTypeDeal:
			if r.DealID == nil {
				return nil, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "deal lines require deal_id.", "")
			}
			lines = append(lines, services.DealLine{DealID: *r.DealID, Quantity: int(r.Quantity), Notes: r.Notes})
		default:
			return nil, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "line_type must be menu_item or deal.", "")
		}
	}
	return lines, nil
}

type createOrderRequest struct {
	TableNumber  *string            `json:"table_number,omitempty"`
	IsTakeaway   bool               `json:"is_takeaway"`
	CustomerName *string            `json:"customer_name,omitempty"`
	Items        []orderLineRequest `json:"items" binding:"required"`
	Notes        *string            `json:"notes,omitempty"`
	StartReady   bool               `json:"start_ready"`
}

// CreateOrder opens a new order.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}
	lines, apiErr := toSoldLines(req.Items)
	if apiErr != nil {
		utils.RespondWithError(c, apiErr)
		return
	}

	order, err := h.orderService.CreateOrder(services.CreateOrderRequest{
		TableNumber:  req.TableNumber,
		IsTakeaway:   req.IsTakeaway,
		CustomerName: req.CustomerName,
		Lines:        lines,
		Notes:        req.Notes,
		StartReady:   req.StartReady,
	}, actorFromContext(c), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrders lists orders with filters and pagination.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	orders, total, err := h.orderService.GetOrders(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total_count": total})
}

// GetOrder returns a single order with its lines.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateStatusRequest struct {
	Target           string  `json:"target" binding:"required"`
	PaymentMethod    *string `json:"payment_method,omitempty"`
	CreditCustomerID *int64  `json:"credit_customer_id,omitempty"`
}

// UpdateStatus advances the order state machine. Completing a credit sale
// posts the ledger; stock consumption failures come back as warnings next to
// the completed order rather than failing the request.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	var payment *services.PaymentDetails
	if req.PaymentMethod != nil {
		payment = &services.PaymentDetails{Method: *req.PaymentMethod, CreditCustomerID: req.CreditCustomerID}
	}

	order, err := h.orderService.Advance(id, req.Target, payment, actorFromContext(c), time.Now())
	if err != nil {
		var partial *services.PartialConsumptionError
		if errors.As(err, &partial) {
			c.JSON(http.StatusOK, gin.H{"order": order, "warnings": partial.Failures})
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelOrder aborts a pending order.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	order, err := h.orderService.Cancel(id, req.Reason, actorFromContext(c), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type appendItemsRequest struct {
	Items []orderLineRequest `json:"items" binding:"required"`
}

// AppendItems adds lines to an order still being prepared.
func (h *OrderHandler) AppendItems(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req appendItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}
	lines, apiErr := toSoldLines(req.Items)
	if apiErr != nil {
		utils.RespondWithError(c, apiErr)
		return
	}

	order, err := h.orderService.AppendItems(id, lines, actorFromContext(c), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type applyDiscountRequest struct {
	DiscountType string  `json:"discount_type" binding:"required"`
	Value        float64 `json:"value"`
}

// ApplyDiscount sets or replaces the order discount.
func (h *OrderHandler) ApplyDiscount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req applyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	order, err := h.orderService.ApplyDiscount(id, req.DiscountType, req.Value, actorFromContext(c), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
