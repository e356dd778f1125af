package services

import (
	"fmt"
	"time"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
	"restropos_backend/pkg/utils"
)

// ConsumptionResolver translates the sold lines of a completed order into
// inventory adjustments. Planning expands deal bundles into their constituent
// snapshot and resolves each menu item against the catalog; applying writes
// each adjustment in its own transaction so one failure cannot block the rest.
type ConsumptionResolver struct {
	catalogRepo   repositories.CatalogRepository
	inventoryRepo repositories.InventoryRepository
	txManager     repositories.TxManager
}

// NewConsumptionResolver creates a new instance of ConsumptionResolver.
func NewConsumptionResolver(catalogRepo repositories.CatalogRepository, inventoryRepo repositories.InventoryRepository, txManager repositories.TxManager) *ConsumptionResolver {
	return &ConsumptionResolver{
		catalogRepo:   catalogRepo,
		inventoryRepo: inventoryRepo,
		txManager:     txManager,
	}
}

// Plan computes the consumption adjustments for an order without writing
// anything. A line that cannot be resolved (missing catalog or inventory row)
// becomes a failure entry; it never aborts planning for the other lines.
func (r *ConsumptionResolver) Plan(order *models.Order, actor Actor, now time.Time) ([]models.InventoryAdjustment, []ConsumptionFailure) {
	adjustments := []models.InventoryAdjustment{}
	failures := []ConsumptionFailure{}

	for _, item := range order.Items {
		if item.IsDeal() {
			// Consumption goes through the constituent snapshot captured at
			// add-to-cart time, so later deal edits cannot change it.
			for _, constituent := range item.DealItems {
				quantity := float64(constituent.Quantity) * item.Quantity
				adj, fails := r.resolveMenuItem(constituent.MenuItemID, constituent.MenuItemName, quantity, order.OrderNumber, actor, now)
				adjustments = append(adjustments, adj...)
				failures = append(failures, fails...)
			}
			continue
		}
		if item.MenuItemID == nil {
			failures = append(failures, ConsumptionFailure{
				MenuItemName: item.Name,
				Quantity:     item.Quantity,
				Reason:       fmt.Sprintf("order line %q carries no menu item reference", item.Name),
			})
			continue
		}
		adj, fails := r.resolveMenuItem(*item.MenuItemID, item.Name, item.Quantity, order.OrderNumber, actor, now)
		adjustments = append(adjustments, adj...)
		failures = append(failures, fails...)
	}
	return adjustments, failures
}

// resolveMenuItem emits the adjustments for quantity units of one menu item.
// A prepared-item link and a recipe mapping may both apply; neither means the
// item has no inventory impact.
func (r *ConsumptionResolver) resolveMenuItem(menuItemID int64, name string, quantity float64, orderNumber string, actor Actor, now time.Time) ([]models.InventoryAdjustment, []ConsumptionFailure) {
	menuItem, err := r.catalogRepo.GetMenuItemByID(menuItemID)
	if err != nil {
		return nil, []ConsumptionFailure{{
			MenuItemName: name,
			Quantity:     quantity,
			Reason:       fmt.Sprintf("menu item %d (%s) could not be resolved: %v", menuItemID, name, err),
		}}
	}

	adjustments := []models.InventoryAdjustment{}
	failures := []ConsumptionFailure{}

	if menuItem.PreparedItemID != nil {
		stockItem, err := r.inventoryRepo.GetItemByID(*menuItem.PreparedItemID)
		if err != nil {
			failures = append(failures, ConsumptionFailure{
				InventoryItemID: *menuItem.PreparedItemID,
				MenuItemName:    menuItem.Name,
				Quantity:        quantity,
				Reason:          fmt.Sprintf("prepared item %d for %s could not be resolved: %v", *menuItem.PreparedItemID, menuItem.Name, err),
			})
		} else {
			adjustments = append(adjustments, models.InventoryAdjustment{
				InventoryItemID:   stockItem.ID,
				InventoryItemName: stockItem.Name,
				AdjustmentType:    models.AdjustmentConsumption,
				Quantity:          -quantity,
				Unit:              stockItem.Unit,
				Reason:            fmt.Sprintf("Sold %g x %s (order %s)", quantity, menuItem.Name, orderNumber),
				AdjustedBy:        actor.Name,
				Date:              now,
			})
		}
	}

	for _, recipe := range menuItem.RecipeMapping {
		adjustments = append(adjustments, models.InventoryAdjustment{
			InventoryItemID:   recipe.InventoryItemID,
			InventoryItemName: recipe.InventoryItemName,
			AdjustmentType:    models.AdjustmentConsumption,
			Quantity:          -(recipe.QuantityUsed * quantity),
			Unit:              recipe.Unit,
			Reason:            fmt.Sprintf("Sold %g x %s (order %s)", quantity, menuItem.Name, orderNumber),
			AdjustedBy:        actor.Name,
			Date:              now,
		})
	}

	return adjustments, failures
}

// Apply writes each planned adjustment in its own transaction: the adjustment
// row and the atomic stock increment land together or not at all. Failed
// adjustments are collected; the others still apply.
func (r *ConsumptionResolver) Apply(adjustments []models.InventoryAdjustment) []ConsumptionFailure {
	failures := []ConsumptionFailure{}

	for _, adjustment := range adjustments {
		adj := adjustment
		err := r.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
			if _, err := r.inventoryRepo.CreateAdjustment(executor, &adj); err != nil {
				return err
			}
			_, err := r.inventoryRepo.ApplyStockDelta(executor, adj.InventoryItemID, adj.Quantity)
			return err
		})
		if err != nil {
			utils.LogError(err, fmt.Sprintf("applying consumption adjustment for inventory item %d", adj.InventoryItemID))
			failures = append(failures, ConsumptionFailure{
				InventoryItemID:   adj.InventoryItemID,
				InventoryItemName: adj.InventoryItemName,
				Quantity:          adj.Quantity,
				Reason:            fmt.Sprintf("adjustment of %g %s for %s failed: %v", adj.Quantity, adj.Unit, adj.InventoryItemName, err),
			})
		}
	}
	return failures
}

// Consume plans and applies consumption for a completed order. A non-nil
// return is always a *PartialConsumptionError; the order itself stays
// completed regardless.
func (r *ConsumptionResolver) Consume(order *models.Order, actor Actor, now time.Time) error {
	adjustments, failures := r.Plan(order, actor, now)
	failures = append(failures, r.Apply(adjustments)...)
	if len(failures) > 0 {
		return &PartialConsumptionError{OrderNumber: order.OrderNumber, Failures: failures}
	}
	return nil
}
