package services

import (
	"fmt"
	"sort"
	"time"

	"restropos_backend/internal/models"
	"restropos_backend/internal/repositories"
)

// In-memory stand-ins for the repository layer. They run transaction
// functions directly and model the CAS / guarded-write behavior of the real
// SQL, so the services can be exercised without a database.

// snapshotter lets the fake transaction manager undo writes on rollback.
type snapshotter interface {
	snapshot() (restore func())
}

type fakeTxManager struct {
	stores   []snapshotter
	beginErr error
}

func (f *fakeTxManager) WithinTx(fn func(executor repositories.SQLExecutor) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	restores := make([]func(), 0, len(f.stores))
	for _, store := range f.stores {
		restores = append(restores, store.snapshot())
	}
	if err := fn(nil); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type fakeCatalogRepo struct {
	menuItems map[int64]models.MenuItem
	deals     map[int64]models.Deal
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		menuItems: map[int64]models.MenuItem{},
		deals:     map[int64]models.Deal{},
	}
}

func (f *fakeCatalogRepo) GetMenuItemByID(id int64) (*models.MenuItem, error) {
	item, ok := f.menuItems[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (f *fakeCatalogRepo) GetMenuItems(activeOnly bool) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	for _, item := range f.menuItems {
		if activeOnly && !item.IsActive {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (f *fakeCatalogRepo) GetDealByID(id int64) (*models.Deal, error) {
	deal, ok := f.deals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &deal, nil
}

func (f *fakeCatalogRepo) GetDeals(activeOnly bool) ([]models.Deal, error) {
	deals := []models.Deal{}
	for _, deal := range f.deals {
		if activeOnly && !deal.IsActive {
			continue
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

type fakeInventoryRepo struct {
	items          map[int64]*models.InventoryItem
	adjustments    []models.InventoryAdjustment
	nextID         int64
	failForItemIDs map[int64]bool
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		items:          map[int64]*models.InventoryItem{},
		failForItemIDs: map[int64]bool{},
	}
}

func (f *fakeInventoryRepo) addItem(id int64, name string, stock float64, unit string, threshold float64) {
	f.items[id] = &models.InventoryItem{
		ID: id, Name: name, CurrentStock: stock, Unit: unit, LowStockThreshold: threshold,
	}
}

func (f *fakeInventoryRepo) GetItemByID(id int64) (*models.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeInventoryRepo) GetItems() ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	for _, item := range f.items {
		items = append(items, *item)
	}
	return items, nil
}

func (f *fakeInventoryRepo) GetLowStockItems() ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	for _, item := range f.items {
		if item.IsLowStock() {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (f *fakeInventoryRepo) CreateAdjustment(_ repositories.SQLExecutor, adjustment *models.InventoryAdjustment) (int64, error) {
	if f.failForItemIDs[adjustment.InventoryItemID] {
		return 0, fmt.Errorf("%w: injected failure", repositories.ErrDatabaseError)
	}
	f.nextID++
	adjustment.ID = f.nextID
	f.adjustments = append(f.adjustments, *adjustment)
	return f.nextID, nil
}

func (f *fakeInventoryRepo) ApplyStockDelta(_ repositories.SQLExecutor, itemID int64, delta float64) (float64, error) {
	item, ok := f.items[itemID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	item.CurrentStock += delta
	return item.CurrentStock, nil
}

func (f *fakeInventoryRepo) GetAdjustments(filters models.AdjustmentFilters) ([]models.InventoryAdjustment, int64, error) {
	result := []models.InventoryAdjustment{}
	for _, adj := range f.adjustments {
		if filters.ItemID != nil && adj.InventoryItemID != *filters.ItemID {
			continue
		}
		if filters.AdjustmentType != nil && adj.AdjustmentType != *filters.AdjustmentType {
			continue
		}
		result = append(result, adj)
	}
	return result, int64(len(result)), nil
}

type fakeOrderRepo struct {
	orders map[int64]*models.Order
	nextID int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*models.Order{}}
}

func (f *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	f.nextID++
	stored := *order
	stored.ID = f.nextID
	stored.Items = nil
	f.orders[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeOrderRepo) CreateOrderItem(_ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	order, ok := f.orders[item.OrderID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	f.nextID++
	stored := *item
	stored.ID = f.nextID
	order.Items = append(order.Items, stored)
	return stored.ID, nil
}

func copyOrder(order *models.Order) *models.Order {
	copied := *order
	copied.Items = append([]models.OrderItem{}, order.Items...)
	return &copied
}

func (f *fakeOrderRepo) GetOrderByID(id int64) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyOrder(order), nil
}

func (f *fakeOrderRepo) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			return copyOrder(order), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int64, error) {
	result := []models.Order{}
	for _, order := range f.orders {
		if filters.Status != nil && order.Status != *filters.Status {
			continue
		}
		result = append(result, *copyOrder(order))
	}
	return result, int64(len(result)), nil
}

func (f *fakeOrderRepo) GetActiveOrderForTable(tableNumber string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.TableNumber == nil || *order.TableNumber != tableNumber {
			continue
		}
		switch order.Status {
		case StatusPending, StatusCooking, StatusReady:
			return copyOrder(order), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) GetCompletedOrdersBetween(start, end time.Time) ([]models.Order, error) {
	result := []models.Order{}
	for _, order := range f.orders {
		if order.Status != StatusCompleted || order.CompletedAt == nil {
			continue
		}
		if order.CompletedAt.Before(start) || !order.CompletedAt.Before(end) {
			continue
		}
		result = append(result, *copyOrder(order))
	}
	return result, nil
}

func (f *fakeOrderRepo) TransitionStatus(_ repositories.SQLExecutor, orderID int64, from, to string, at time.Time) error {
	order, ok := f.orders[orderID]
	if !ok || order.Status != from {
		return repositories.ErrNotFound
	}
	order.Status = to
	order.UpdatedAt = at
	switch to {
	case StatusCooking:
		order.StartedCookingAt = &at
	case StatusReady:
		order.ReadyAt = &at
	}
	return nil
}

func (f *fakeOrderRepo) CompleteOrder(_ repositories.SQLExecutor, orderID int64, from, paymentMethod string, creditCustomerID *int64, at time.Time) error {
	order, ok := f.orders[orderID]
	if !ok || order.Status != from {
		return repositories.ErrNotFound
	}
	order.Status = StatusCompleted
	order.PaymentMethod = &paymentMethod
	order.CreditCustomerID = creditCustomerID
	order.CompletedAt = &at
	order.UpdatedAt = at
	return nil
}

func (f *fakeOrderRepo) CancelOrder(_ repositories.SQLExecutor, orderID int64, from, reason string, at time.Time) error {
	order, ok := f.orders[orderID]
	if !ok || order.Status != from {
		return repositories.ErrNotFound
	}
	order.Status = StatusCancelled
	order.CancelReason = &reason
	order.CancelledAt = &at
	order.UpdatedAt = at
	return nil
}

func (f *fakeOrderRepo) UpdateTotals(_ repositories.SQLExecutor, updated *models.Order) error {
	order, ok := f.orders[updated.ID]
	if !ok || order.Status == StatusCompleted || order.Status == StatusCancelled {
		return repositories.ErrNotFound
	}
	order.Subtotal = updated.Subtotal
	order.Tax = updated.Tax
	order.Discount = updated.Discount
	order.DiscountType = updated.DiscountType
	order.DiscountValue = updated.DiscountValue
	order.TotalAmount = updated.TotalAmount
	order.UpdatedAt = updated.UpdatedAt
	return nil
}

type fakeCustomerRepo struct {
	customers map[int64]*models.CreditCustomer
	entries   map[int64]*models.CustomerLedgerEntry
	payments  map[int64]*models.CustomerPayment
	nextID    int64
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		customers: map[int64]*models.CreditCustomer{},
		entries:   map[int64]*models.CustomerLedgerEntry{},
		payments:  map[int64]*models.CustomerPayment{},
	}
}

func (f *fakeCustomerRepo) addCustomer(id int64, name string, creditEnabled bool) *models.CreditCustomer {
	customer := &models.CreditCustomer{
		ID: id, Name: name, Phone: fmt.Sprintf("0300-%07d", id), IsCreditEnabled: creditEnabled,
	}
	f.customers[id] = customer
	return customer
}

func (f *fakeCustomerRepo) CreateCustomer(customer *models.CreditCustomer) (int64, error) {
	f.nextID++
	stored := *customer
	stored.ID = f.nextID
	f.customers[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeCustomerRepo) GetCustomerByID(id int64) (*models.CreditCustomer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *customer
	return &copied, nil
}

func (f *fakeCustomerRepo) GetCustomerByIDForUpdate(_ repositories.SQLExecutor, id int64) (*models.CreditCustomer, error) {
	return f.GetCustomerByID(id)
}

func (f *fakeCustomerRepo) GetCustomers(page, pageSize int, search string, withBalanceOnly bool) ([]models.CreditCustomer, int64, error) {
	result := []models.CreditCustomer{}
	for _, customer := range f.customers {
		if withBalanceOnly && customer.CurrentBalance <= 0 {
			continue
		}
		result = append(result, *customer)
	}
	return result, int64(len(result)), nil
}

func (f *fakeCustomerRepo) UpdateCustomer(customer *models.CreditCustomer) error {
	stored, ok := f.customers[customer.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	balance := stored.CurrentBalance
	*stored = *customer
	stored.CurrentBalance = balance
	return nil
}

func (f *fakeCustomerRepo) SetBalance(_ repositories.SQLExecutor, customerID int64, balance float64) error {
	customer, ok := f.customers[customerID]
	if !ok {
		return repositories.ErrNotFound
	}
	customer.CurrentBalance = balance
	return nil
}

func (f *fakeCustomerRepo) CreateLedgerEntry(_ repositories.SQLExecutor, entry *models.CustomerLedgerEntry) (int64, error) {
	if _, ok := f.customers[entry.CustomerID]; !ok {
		return 0, repositories.ErrNotFound
	}
	f.nextID++
	stored := *entry
	stored.ID = f.nextID
	f.entries[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeCustomerRepo) GetLedgerEntries(customerID int64) ([]models.CustomerLedgerEntry, error) {
	result := []models.CustomerLedgerEntry{}
	for _, entry := range f.entries {
		if entry.CustomerID == customerID {
			result = append(result, *entry)
		}
	}
	// The SQL query orders oldest first; mirror that.
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (f *fakeCustomerRepo) GetLedgerEntriesForCustomers(customerIDs []int64) ([]models.CustomerLedgerEntry, error) {
	result := []models.CustomerLedgerEntry{}
	for _, id := range customerIDs {
		entries, _ := f.GetLedgerEntries(id)
		result = append(result, entries...)
	}
	return result, nil
}

func (f *fakeCustomerRepo) DeleteLedgerEntry(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.entries[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeCustomerRepo) CreatePayment(_ repositories.SQLExecutor, payment *models.CustomerPayment) (int64, error) {
	if _, ok := f.customers[payment.CustomerID]; !ok {
		return 0, repositories.ErrNotFound
	}
	f.nextID++
	stored := *payment
	stored.ID = f.nextID
	f.payments[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeCustomerRepo) GetPaymentByID(id int64) (*models.CustomerPayment, error) {
	payment, ok := f.payments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (f *fakeCustomerRepo) GetRecentPayments(limit int) ([]models.CustomerPayment, error) {
	result := []models.CustomerPayment{}
	for _, payment := range f.payments {
		result = append(result, *payment)
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeCustomerRepo) GetPaymentsBetween(start, end time.Time) ([]models.CustomerPayment, error) {
	result := []models.CustomerPayment{}
	for _, payment := range f.payments {
		if payment.Date.Before(start) || !payment.Date.Before(end) {
			continue
		}
		result = append(result, *payment)
	}
	return result, nil
}

func (f *fakeCustomerRepo) DeletePayment(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.payments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.payments, id)
	return nil
}

func (f *fakeOrderRepo) snapshot() func() {
	saved := make(map[int64]*models.Order, len(f.orders))
	for id, order := range f.orders {
		saved[id] = copyOrder(order)
	}
	savedID := f.nextID
	return func() {
		f.orders = saved
		f.nextID = savedID
	}
}

func (f *fakeInventoryRepo) snapshot() func() {
	savedItems := make(map[int64]*models.InventoryItem, len(f.items))
	for id, item := range f.items {
		copied := *item
		savedItems[id] = &copied
	}
	savedAdjustments := append([]models.InventoryAdjustment{}, f.adjustments...)
	savedID := f.nextID
	return func() {
		f.items = savedItems
		f.adjustments = savedAdjustments
		f.nextID = savedID
	}
}

func (f *fakeCustomerRepo) snapshot() func() {
	savedCustomers := make(map[int64]*models.CreditCustomer, len(f.customers))
	for id, customer := range f.customers {
		copied := *customer
		savedCustomers[id] = &copied
	}
	savedEntries := make(map[int64]*models.CustomerLedgerEntry, len(f.entries))
	for id, entry := range f.entries {
		copied := *entry
		savedEntries[id] = &copied
	}
	savedPayments := make(map[int64]*models.CustomerPayment, len(f.payments))
	for id, payment := range f.payments {
		copied := *payment
		savedPayments[id] = &copied
	}
	savedID := f.nextID
	return func() {
		f.customers = savedCustomers
		f.entries = savedEntries
		f.payments = savedPayments
		f.nextID = savedID
	}
}

// ledgerSums recomputes a customer's balance from scratch.
func (f *fakeCustomerRepo) ledgerSums(customerID int64) float64 {
	var sum float64
	for _, entry := range f.entries {
		if entry.CustomerID == customerID {
			sum += entry.Debit - entry.Credit
		}
	}
	return sum
}

var _ repositories.CatalogRepository = (*fakeCatalogRepo)(nil)
var _ repositories.OrderRepository = (*fakeOrderRepo)(nil)
var _ repositories.InventoryRepository = (*fakeInventoryRepo)(nil)
var _ repositories.CustomerRepository = (*fakeCustomerRepo)(nil)
var _ repositories.TxManager = (*fakeTxManager)(nil)
