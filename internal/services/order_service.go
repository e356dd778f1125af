package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
	"restropos_backend/pkg/utils"
)

// Order lifecycle states. Orders move strictly forward:
// pending -> cooking -> ready -> completed, with cancelled reachable only
// from pending. completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusCooking   = "cooking"
	StatusReady     = "ready"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Order payment methods.
const (
	PaymentCash          = "cash"
	PaymentCard          = "card"
	PaymentBankTransfer  = "bank_transfer"
	PaymentCreditAccount = "credit_account"
)

// Discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFlat       = "flat"
)

// SoldLine is one cart line: either a plain menu item or a deal bundle. Each
// variant carries only the fields relevant to its case.
type SoldLine interface {
	soldLine()
}

// MenuItemLine sells quantity units of a single menu item. Quantity may be
// fractional for sold-by-weight items.
type MenuItemLine struct {
	MenuItemID int64
	Quantity   float64
	Notes      *string
}

// DealLine sells quantity bundles of a deal.
type DealLine struct {
	DealID   int64
	Quantity int
	Notes    *string
}

func (MenuItemLine) soldLine() {}
func (DealLine) soldLine()     {}

// CreateOrderRequest is the input for opening a new order.
type CreateOrderRequest struct {
	TableNumber  *string
	IsTakeaway   bool
	CustomerName *string
	Lines        []SoldLine
	Notes        *string
	// StartReady opens the order directly in ready, skipping the kitchen.
	// Takeaway only.
	StartReady bool
}

// PaymentDetails settles an order on completion.
type PaymentDetails struct {
	Method           string
	CreditCustomerID *int64
}

// OrderService owns the order state machine. Status changes are
// compare-and-set against the status read before validating, so a concurrent
// edit surfaces as ErrStaleState instead of a silent overwrite. Inventory
// consumption and credit posting fire exactly once, on ready -> completed.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	catalogRepo repositories.CatalogRepository
	resolver    *ConsumptionResolver
	ledger      *LedgerService
	txManager   repositories.TxManager
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, catalogRepo repositories.CatalogRepository, resolver *ConsumptionResolver, ledger *LedgerService, txManager repositories.TxManager) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		resolver:    resolver,
		ledger:      ledger,
		txManager:   txManager,
	}
}

// nextStatus returns the only forward transition from a status, or "".
func nextStatus(status string) string {
	switch status {
	case StatusPending:
		return StatusCooking
	case StatusCooking:
		return StatusReady
	case StatusReady:
		return StatusCompleted
	default:
		return ""
	}
}

// CreateOrder validates and opens an order, snapshotting names, prices and
// deal constituents so later catalog edits cannot change it.
func (s *OrderService) CreateOrder(req CreateOrderRequest, actor Actor, now time.Time) (*models.Order, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	if req.IsTakeaway {
		if req.TableNumber != nil {
			return nil, fmt.Errorf("%w: takeaway orders cannot carry a table number", ErrValidation)
		}
	} else {
		if req.TableNumber == nil || utils.IsBlank(*req.TableNumber) {
			return nil, fmt.Errorf("%w: dine-in orders require a table number", ErrValidation)
		}
	}
	if req.StartReady && !req.IsTakeaway {
		return nil, fmt.Errorf("%w: only takeaway orders may start ready", ErrValidation)
	}

	if !req.IsTakeaway {
		active, err := s.orderRepo.GetActiveOrderForTable(*req.TableNumber)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if active != nil {
			return nil, fmt.Errorf("%w: table %s already has active order %s", ErrValidation, *req.TableNumber, active.OrderNumber)
		}
	}

	items, err := s.snapshotLines(req.Lines, now)
	if err != nil {
		return nil, err
	}

	status := StatusPending
	if req.StartReady {
		status = StatusReady
	}

	order := &models.Order{
		OrderNumber:  newOrderNumber(now),
		TableNumber:  req.TableNumber,
		IsTakeaway:   req.IsTakeaway,
		CustomerName: req.CustomerName,
		Status:       status,
		Notes:        req.Notes,
		CashierID:    actor.ID,
		CashierName:  actor.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	order.Subtotal, order.Tax, order.Discount, order.TotalAmount = computeTotals(items, nil, nil)
	if req.StartReady {
		order.ReadyAt = &now
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		orderID, err := s.orderRepo.CreateOrder(executor, order)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		order.ID = orderID
		for i := range items {
			items[i].OrderID = orderID
			itemID, err := s.orderRepo.CreateOrderItem(executor, &items[i])
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			items[i].ID = itemID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	utils.LogInfo("order created", map[string]interface{}{
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"cashier":      actor.Name,
	})
	return order, nil
}

// snapshotLines resolves cart lines against the catalog into persisted order
// items carrying price/name snapshots.
func (s *OrderService) snapshotLines(lines []SoldLine, now time.Time) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))

	for _, line := range lines {
		switch l := line.(type) {
		case MenuItemLine:
			if l.Quantity <= 0 {
				return nil, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
			}
			menuItem, err := s.catalogRepo.GetMenuItemByID(l.MenuItemID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, fmt.Errorf("%w: menu item %d", ErrNotFound, l.MenuItemID)
				}
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			if !menuItem.IsActive {
				return nil, fmt.Errorf("%w: menu item %s is not available", ErrValidation, menuItem.Name)
			}
			if !menuItem.SoldByWeight && l.Quantity != math.Trunc(l.Quantity) {
				return nil, fmt.Errorf("%w: %s is not sold by weight; quantity must be whole", ErrValidation, menuItem.Name)
			}
			menuItemID := menuItem.ID
			items = append(items, models.OrderItem{
				LineType:   models.LineTypeMenuItem,
				MenuItemID: &menuItemID,
				Name:       menuItem.Name,
				Quantity:   l.Quantity,
				UnitPrice:  menuItem.Price,
				TotalPrice: menuItem.Price * l.Quantity,
				TaxRate:    menuItem.TaxRate,
				Notes:      l.Notes,
				CreatedAt:  now,
			})

		case DealLine:
			if l.Quantity <= 0 {
				return nil, fmt.Errorf("%w: deal quantity must be positive", ErrValidation)
			}
			deal, err := s.catalogRepo.GetDealByID(l.DealID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, fmt.Errorf("%w: deal %d", ErrNotFound, l.DealID)
				}
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			if !deal.IsCurrentlyActive(now) {
				return nil, fmt.Errorf("%w: deal %s is not currently available", ErrValidation, deal.Name)
			}
			dealID := deal.ID
			items = append(items, models.OrderItem{
				LineType:   models.LineTypeDeal,
				DealID:     &dealID,
				Name:       deal.Name,
				Quantity:   float64(l.Quantity),
				UnitPrice:  deal.DealPrice,
				TotalPrice: deal.DealPrice * float64(l.Quantity),
				DealItems:  deal.Items,
				Notes:      l.Notes,
				CreatedAt:  now,
			})

		default:
			return nil, fmt.Errorf("%w: unknown line type %T", ErrValidation, line)
		}
	}
	return items, nil
}

// computeTotals derives the money fields from the current lines and discount
// settings. Deal bundles are tax-inclusive, so only menu lines accrue tax.
// The returned values always satisfy total == subtotal + tax - discount.
func computeTotals(items []models.OrderItem, discountType *string, discountValue *float64) (subtotal, tax, discount, total float64) {
	for _, item := range items {
		subtotal += item.TotalPrice
		if !item.IsDeal() {
			tax += item.TotalPrice * item.TaxRate / 100
		}
	}
	if discountType != nil && discountValue != nil {
		switch *discountType {
		case DiscountPercentage:
			discount = subtotal * *discountValue / 100
		case DiscountFlat:
			discount = *discountValue
		}
		if discount > subtotal+tax {
			discount = subtotal + tax
		}
	}
	total = subtotal + tax - discount
	return subtotal, tax, discount, total
}

// Advance moves an order one step forward. Advancing to the order's current
// status is a no-op returning the order unchanged, so a duplicate completion
// call cannot double-deduct stock or double-post the ledger.
//
// ready -> completed commits the status change and, for credit sales, the
// ledger posting in one transaction; inventory consumption runs after the
// commit and reports failures without undoing the sale (the returned error is
// then a *PartialConsumptionError and the order is still returned).
func (s *OrderService) Advance(orderID int64, target string, payment *PaymentDetails, actor Actor, now time.Time) (*models.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	if target == order.Status {
		return order, nil
	}
	if nextStatus(order.Status) != target {
		return nil, fmt.Errorf("%w: cannot move order %s from %s to %s", ErrInvalidTransition, order.OrderNumber, order.Status, target)
	}

	if target == StatusCompleted {
		return s.complete(order, payment, actor, now)
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.orderRepo.TransitionStatus(executor, order.ID, order.Status, target, now)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.staleOrGone(order.ID, order.Status)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s.getOrder(order.ID)
}

// complete settles a ready order. The CAS completion write and the credit
// posting share one transaction; consumption follows after commit.
func (s *OrderService) complete(order *models.Order, payment *PaymentDetails, actor Actor, now time.Time) (*models.Order, error) {
	if payment == nil {
		return nil, fmt.Errorf("%w: completing an order requires payment details", ErrValidation)
	}
	switch payment.Method {
	case PaymentCash, PaymentCard, PaymentBankTransfer:
	case PaymentCreditAccount:
		if payment.CreditCustomerID == nil {
			return nil, fmt.Errorf("%w: credit sales require a credit customer", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, payment.Method)
	}

	err := s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		if err := s.orderRepo.CompleteOrder(executor, order.ID, order.Status, payment.Method, payment.CreditCustomerID, now); err != nil {
			return err
		}
		if payment.Method == PaymentCreditAccount {
			return s.ledger.PostSaleInTx(executor, order, *payment.CreditCustomerID, now)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.staleOrGone(order.ID, order.Status)
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	completed, err := s.getOrder(order.ID)
	if err != nil {
		return nil, err
	}

	utils.LogInfo("order completed", map[string]interface{}{
		"order_number":   completed.OrderNumber,
		"payment_method": payment.Method,
		"total":          completed.TotalAmount,
		"cashier":        actor.Name,
	})

	if consumeErr := s.resolver.Consume(completed, actor, now); consumeErr != nil {
		return completed, consumeErr
	}
	return completed, nil
}

// Cancel aborts a pending order. Nothing was cooked or consumed, so there is
// no inventory or ledger effect; the table is freed.
func (s *OrderService) Cancel(orderID int64, reason string, actor Actor, now time.Time) (*models.Order, error) {
	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusCancelled {
		return order, nil
	}
	if order.Status != StatusPending {
		return nil, fmt.Errorf("%w: only pending orders can be cancelled, order %s is %s", ErrInvalidTransition, order.OrderNumber, order.Status)
	}

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.orderRepo.CancelOrder(executor, order.ID, StatusPending, reason, now)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.staleOrGone(order.ID, StatusPending)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	utils.LogInfo("order cancelled", map[string]interface{}{
		"order_number": order.OrderNumber,
		"reason":       reason,
		"cashier":      actor.Name,
	})
	return s.getOrder(order.ID)
}

// AppendItems adds lines to an order still in the kitchen's hands. Totals are
// recomputed preserving the existing discount settings; consumption is not
// re-triggered (it fires once, at completion, over the final line set).
func (s *OrderService) AppendItems(orderID int64, lines []SoldLine, actor Actor, now time.Time) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no items to add", ErrValidation)
	}

	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPending && order.Status != StatusCooking {
		return nil, fmt.Errorf("%w: items can only be added while pending or cooking, order %s is %s", ErrInvalidTransition, order.OrderNumber, order.Status)
	}

	newItems, err := s.snapshotLines(lines, now)
	if err != nil {
		return nil, err
	}

	combined := append(append([]models.OrderItem{}, order.Items...), newItems...)
	order.Subtotal, order.Tax, order.Discount, order.TotalAmount = computeTotals(combined, order.DiscountType, order.DiscountValue)
	order.UpdatedAt = now

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		for i := range newItems {
			newItems[i].OrderID = order.ID
			if _, err := s.orderRepo.CreateOrderItem(executor, &newItems[i]); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}
		if err := s.orderRepo.UpdateTotals(executor, order); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return s.staleOrGone(order.ID, order.Status)
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getOrder(order.ID)
}

// ApplyDiscount sets or replaces the order discount before completion.
func (s *OrderService) ApplyDiscount(orderID int64, discountType string, value float64, actor Actor, now time.Time) (*models.Order, error) {
	if discountType != DiscountPercentage && discountType != DiscountFlat {
		return nil, fmt.Errorf("%w: unknown discount type %q", ErrValidation, discountType)
	}
	if value < 0 {
		return nil, fmt.Errorf("%w: discount value cannot be negative", ErrValidation)
	}
	if discountType == DiscountPercentage && value > 100 {
		return nil, fmt.Errorf("%w: percentage discount cannot exceed 100", ErrValidation)
	}

	order, err := s.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusCompleted || order.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: discounts cannot change on a %s order", ErrInvalidTransition, order.Status)
	}

	order.DiscountType = &discountType
	order.DiscountValue = &value
	order.Subtotal, order.Tax, order.Discount, order.TotalAmount = computeTotals(order.Items, order.DiscountType, order.DiscountValue)
	order.UpdatedAt = now

	err = s.txManager.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.orderRepo.UpdateTotals(executor, order)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.staleOrGone(order.ID, order.Status)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.getOrder(order.ID)
}

// GetOrder returns one order with its lines.
func (s *OrderService) GetOrder(orderID int64) (*models.Order, error) {
	return s.getOrder(orderID)
}

// GetOrders lists orders with filters and pagination.
func (s *OrderService) GetOrders(filters models.OrderFilters) ([]models.Order, int64, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 200 {
		filters.PageSize = 50
	}
	orders, total, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return orders, total, nil
}

func (s *OrderService) getOrder(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return order, nil
}

// staleOrGone distinguishes a lost CAS race from a deleted order after a
// guarded write matched no row.
func (s *OrderService) staleOrGone(orderID int64, expectedStatus string) error {
	current, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: order %s moved from %s to %s", ErrStaleState, current.OrderNumber, expectedStatus, current.Status)
}
