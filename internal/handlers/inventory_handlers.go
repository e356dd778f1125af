package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"restropos_backend/internal/models"
	"restropos_backend/internal/services"
	"restropos_backend/pkg/utils"
)

// InventoryHandler exposes stock levels and manual adjustments.
type InventoryHandler struct {
	inventoryService *services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// GetItems lists all inventory items with current stock.
func (h *InventoryHandler) GetItems(c *gin.Context) {
	items, err := h.inventoryService.Items()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory_items": items})
}

// GetLowStockItems lists items below their low-stock threshold.
func (h *InventoryHandler) GetLowStockItems(c *gin.Context) {
	items, err := h.inventoryService.LowStockItems()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"low_stock_items": items})
}

// GetAdjustments lists the adjustment history with filters.
func (h *InventoryHandler) GetAdjustments(c *gin.Context) {
	var filters models.AdjustmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters.", err.Error()))
		return
	}

	adjustments, total, err := h.inventoryService.Adjustments(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments, "total_count": total})
}

// CreateAdjustment records a manual stock adjustment.
func (h *InventoryHandler) CreateAdjustment(c *gin.Context) {
	var req services.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
		return
	}

	adjustment, err := h.inventoryService.RecordAdjustment(req, actorFromContext(c), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, adjustment)
}
