package services

import (
	"errors"
	"fmt"
	"time"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
	"restropos_backend/pkg/utils"
)

// InventoryService handles manual stock adjustments and stock queries. All
// stock mutation goes through an adjustment row plus an atomic increment; the
// current level is never read, recomputed and written back.
type InventoryService struct {
	inventoryRepo repositories.InventoryRepository
	txManager     repositories.TxManager
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(inventoryRepo repositories.InventoryRepository, txManager repositories.TxManager) *InventoryService {
	return &InventoryService{inventoryRepo: inventoryRepo, txManager: txManager}
}

// AdjustmentRequest is the input for a manual stock adjustment.
type AdjustmentRequest struct {
	InventoryItemID int64   `json:"inventory_item_id" binding:"required"`
	AdjustmentType  string  `json:"adjustment_type" binding:"required"`
	Quantity        float64 `json:"quantity" binding:"required"`
	Reason          string  `json:"reason" binding:"required"`
}

// RecordAdjustment applies a manual adjustment. Wastage must reduce stock;
// correction and production may carry either sign; consumption is reserved
// for the order completion flow.
func (s *InventoryService) RecordAdjustment(req AdjustmentRequest, actor Actor, now time.Time) (*models.InventoryAdjustment, error) {
	if req.Quantity == 0 {
		return nil, fmt.Errorf("%w: adjustment quantity cannot be zero", ErrValidation)
	}
	switch req.AdjustmentType {
	case models.AdjustmentWastage:
		if req.Quantity > 0 {
			return nil, fmt.Errorf("%w: wastage must reduce stock", ErrValidation)
		}
	case models.AdjustmentCorrection, models.AdjustmentProduction:
	case models.AdjustmentConsumption:
		return nil, fmt.Errorf("%w: consumption adjustments are recorded by order completion", ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown adjustment type %q", ErrValidation, req.AdjustmentType)
	}
	if utils.IsBlank(req.Reason) {
		return nil, fmt.Errorf("%w: adjustment reason is required", ErrValidation)
	}

	item, err := s.inventoryRepo.GetItemByID(req.InventoryItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: inventory item %d", ErrNotFound, req.InventoryItemID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	adjustment := &models.InventoryAdjustment{
		InventoryItemID:   item.ID,
		InventoryItemName: item.Name,
		AdjustmentType:    req.AdjustmentType,
		Quantity:          req.Quantity,
		Unit:              item.Unit,
		Reason:            req.Reason,
		AdjustedBy:        actor.Name,
		Date:              now,
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		id, err := s.inventoryRepo.CreateAdjustment(executor, adjustment)
		if err != nil {
			return err
		}
		adjustment.ID = id
		_, err = s.inventoryRepo.ApplyStockDelta(executor, adjustment.InventoryItemID, adjustment.Quantity)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return adjustment, nil
}

// Items lists all inventory items.
func (s *InventoryService) Items() ([]models.InventoryItem, error) {
	items, err := s.inventoryRepo.GetItems()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return items, nil
}

// LowStockItems lists items whose stock has fallen below their threshold.
func (s *InventoryService) LowStockItems() ([]models.InventoryItem, error) {
	items, err := s.inventoryRepo.GetLowStockItems()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return items, nil
}

// Adjustments lists the adjustment history with filters and pagination.
func (s *InventoryService) Adjustments(filters models.AdjustmentFilters) ([]models.InventoryAdjustment, int64, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	adjustments, total, err := s.inventoryRepo.GetAdjustments(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return adjustments, total, nil
}
