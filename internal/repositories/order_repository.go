package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"restropos_backend/internal/models"
)

// OrderRepository persists orders and their line items. Status changes are
// compare-and-set writes: the UPDATE is guarded by the expected current
// status and a zero-row result means the order moved (or vanished) under the
// caller, who must re-read and decide.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderByID(id int64) (*models.Order, error)
	GetOrderByNumber(orderNumber string) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int64, error)
	GetActiveOrderForTable(tableNumber string) (*models.Order, error)
	GetCompletedOrdersBetween(start, end time.Time) ([]models.Order, error)
	TransitionStatus(executor SQLExecutor, orderID int64, from, to string, at time.Time) error
	CompleteOrder(executor SQLExecutor, orderID int64, from, paymentMethod string, creditCustomerID *int64, at time.Time) error
	CancelOrder(executor SQLExecutor, orderID int64, from, reason string, at time.Time) error
	UpdateTotals(executor SQLExecutor, order *models.Order) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `
		INSERT INTO orders (order_number, table_number, is_takeaway, customer_name,
		                    subtotal, tax, discount, discount_type, discount_value, total_amount,
		                    status, notes, cashier_id, cashier_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		RETURNING id`

	var id int64
	err := executor.QueryRow(query,
		order.OrderNumber, order.TableNumber, order.IsTakeaway, order.CustomerName,
		order.Subtotal, order.Tax, order.Discount, order.DiscountType, order.DiscountValue,
		order.TotalAmount, order.Status, order.Notes, order.CashierID, order.CashierName,
		order.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: order number %s", ErrDuplicateKey, order.OrderNumber)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `
		INSERT INTO order_items (order_id, line_type, menu_item_id, deal_id, name, quantity,
		                         unit_price, total_price, tax_rate, deal_items, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	var id int64
	err := executor.QueryRow(query,
		item.OrderID, item.LineType, item.MenuItemID, item.DealID, item.Name, item.Quantity,
		item.UnitPrice, item.TotalPrice, item.TaxRate, item.DealItems, item.Notes, item.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: order %d does not exist", ErrNotFound, item.OrderID)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return id, nil
}

const orderColumns = `id, order_number, table_number, is_takeaway, customer_name,
	                 subtotal, tax, discount, discount_type, discount_value, total_amount,
	                 status, payment_method, credit_customer_id, notes, cashier_id, cashier_name,
	                 created_at, started_cooking_at, ready_at, completed_at, cancelled_at,
	                 cancel_reason, updated_at`

func scanOrder(row scanner) (*models.Order, error) {
	order := &models.Order{}
	var tableNumber, customerName, discountType, paymentMethod, notes, cancelReason sql.NullString
	var discountValue sql.NullFloat64
	var creditCustomerID sql.NullInt64
	var startedCookingAt, readyAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&order.ID, &order.OrderNumber, &tableNumber, &order.IsTakeaway, &customerName,
		&order.Subtotal, &order.Tax, &order.Discount, &discountType, &discountValue,
		&order.TotalAmount, &order.Status, &paymentMethod, &creditCustomerID, &notes,
		&order.CashierID, &order.CashierName, &order.CreatedAt, &startedCookingAt, &readyAt,
		&completedAt, &cancelledAt, &cancelReason, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tableNumber.Valid {
		order.TableNumber = &tableNumber.String
	}
	if customerName.Valid {
		order.CustomerName = &customerName.String
	}
	if discountType.Valid {
		order.DiscountType = &discountType.String
	}
	if discountValue.Valid {
		order.DiscountValue = &discountValue.Float64
	}
	if paymentMethod.Valid {
		order.PaymentMethod = &paymentMethod.String
	}
	if creditCustomerID.Valid {
		order.CreditCustomerID = &creditCustomerID.Int64
	}
	if notes.Valid {
		order.Notes = &notes.String
	}
	if cancelReason.Valid {
		order.CancelReason = &cancelReason.String
	}
	if startedCookingAt.Valid {
		order.StartedCookingAt = &startedCookingAt.Time
	}
	if readyAt.Valid {
		order.ReadyAt = &readyAt.Time
	}
	if completedAt.Valid {
		order.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		order.CancelledAt = &cancelledAt.Time
	}
	return order, nil
}

const orderItemColumns = `id, order_id, line_type, menu_item_id, deal_id, name, quantity,
	                 unit_price, total_price, tax_rate, deal_items, notes, created_at`

func scanOrderItem(row scanner) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	var menuItemID, dealID sql.NullInt64
	var notes sql.NullString

	err := row.Scan(
		&item.ID, &item.OrderID, &item.LineType, &menuItemID, &dealID, &item.Name,
		&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.TaxRate, &item.DealItems,
		&notes, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if menuItemID.Valid {
		item.MenuItemID = &menuItemID.Int64
	}
	if dealID.Valid {
		item.DealID = &dealID.Int64
	}
	if notes.Valid {
		item.Notes = &notes.String
	}
	return item, nil
}

func (r *orderRepository) loadItems(orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	index := make(map[int64]*models.Order, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		index[orders[i].ID] = &orders[i]
		orders[i].Items = []models.OrderItem{}
	}

	query := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY id`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: querying order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		if order, ok := index[item.OrderID]; ok {
			order.Items = append(order.Items, *item)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *orderRepository) getOrderWhere(clause string, args ...interface{}) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + clause
	order, err := scanOrder(r.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order: %v", ErrDatabaseError, err)
	}

	single := []models.Order{*order}
	if err := r.loadItems(single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

func (r *orderRepository) GetOrderByID(id int64) (*models.Order, error) {
	return r.getOrderWhere(`id = $1`, id)
}

func (r *orderRepository) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	return r.getOrderWhere(`order_number = $1`, orderNumber)
}

// GetActiveOrderForTable returns the open (not completed, not cancelled) order
// occupying a dine-in table, or ErrNotFound when the table is free.
func (r *orderRepository) GetActiveOrderForTable(tableNumber string) (*models.Order, error) {
	return r.getOrderWhere(
		`table_number = $1 AND status IN ('pending', 'cooking', 'ready') ORDER BY created_at LIMIT 1`,
		tableNumber,
	)
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int64, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	args := []interface{}{}
	conditions := []string{}

	if filters.Status != nil && *filters.Status != "" {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.TableNumber != nil && *filters.TableNumber != "" {
		args = append(args, *filters.TableNumber)
		conditions = append(conditions, fmt.Sprintf("table_number = $%d", len(args)))
	}
	if filters.Date != nil && *filters.Date != "" {
		args = append(args, *filters.Date)
		conditions = append(conditions, fmt.Sprintf("created_at::date = $%d::date", len(args)))
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filters.PageSize > 0 {
		args = append(args, filters.PageSize)
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
		if filters.Page > 1 {
			args = append(args, (filters.Page-1)*filters.PageSize)
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	var totalCount int64
	for rows.Next() {
		order := models.Order{}
		var tableNumber, customerName, discountType, paymentMethod, notes, cancelReason sql.NullString
		var discountValue sql.NullFloat64
		var creditCustomerID sql.NullInt64
		var startedCookingAt, readyAt, completedAt, cancelledAt sql.NullTime

		err := rows.Scan(
			&order.ID, &order.OrderNumber, &tableNumber, &order.IsTakeaway, &customerName,
			&order.Subtotal, &order.Tax, &order.Discount, &discountType, &discountValue,
			&order.TotalAmount, &order.Status, &paymentMethod, &creditCustomerID, &notes,
			&order.CashierID, &order.CashierName, &order.CreatedAt, &startedCookingAt, &readyAt,
			&completedAt, &cancelledAt, &cancelReason, &order.UpdatedAt, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if tableNumber.Valid {
			order.TableNumber = &tableNumber.String
		}
		if customerName.Valid {
			order.CustomerName = &customerName.String
		}
		if discountType.Valid {
			order.DiscountType = &discountType.String
		}
		if discountValue.Valid {
			order.DiscountValue = &discountValue.Float64
		}
		if paymentMethod.Valid {
			order.PaymentMethod = &paymentMethod.String
		}
		if creditCustomerID.Valid {
			order.CreditCustomerID = &creditCustomerID.Int64
		}
		if notes.Valid {
			order.Notes = &notes.String
		}
		if cancelReason.Valid {
			order.CancelReason = &cancelReason.String
		}
		if startedCookingAt.Valid {
			order.StartedCookingAt = &startedCookingAt.Time
		}
		if readyAt.Valid {
			order.ReadyAt = &readyAt.Time
		}
		if completedAt.Valid {
			order.CompletedAt = &completedAt.Time
		}
		if cancelledAt.Valid {
			order.CancelledAt = &cancelledAt.Time
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}

	if err := r.loadItems(orders); err != nil {
		return nil, 0, err
	}
	return orders, totalCount, nil
}

// GetCompletedOrdersBetween returns completed orders (with items) whose
// completion time falls in [start, end), for report aggregation.
func (r *orderRepository) GetCompletedOrdersBetween(start, end time.Time) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE status = 'completed' AND completed_at >= $1 AND completed_at < $2
	          ORDER BY completed_at`

	rows, err := r.db.Query(query, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: querying completed orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning completed order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating completed order rows: %v", ErrDatabaseError, err)
	}

	if err := r.loadItems(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// statusTimestampColumn maps a target status to the column stamped on entry.
func statusTimestampColumn(status string) string {
	switch status {
	case "cooking":
		return "started_cooking_at"
	case "ready":
		return "ready_at"
	case "completed":
		return "completed_at"
	case "cancelled":
		return "cancelled_at"
	default:
		return ""
	}
}

// TransitionStatus advances an order from one status to another only if it is
// still in the expected status. ErrNotFound means no row matched; the caller
// re-reads to tell a missing order from a concurrent move.
func (r *orderRepository) TransitionStatus(executor SQLExecutor, orderID int64, from, to string, at time.Time) error {
	var query string
	if col := statusTimestampColumn(to); col != "" {
		query = fmt.Sprintf(
			`UPDATE orders SET status = $1, %s = $2, updated_at = $2 WHERE id = $3 AND status = $4`, col)
	} else {
		query = `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	}

	result, err := executor.Exec(query, to, at, orderID, from)
	if err != nil {
		return fmt.Errorf("%w: transitioning order %d to %s: %v", ErrDatabaseError, orderID, to, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteOrder settles an order in one guarded write: status, payment method
// and completion timestamp move together or not at all.
func (r *orderRepository) CompleteOrder(executor SQLExecutor, orderID int64, from, paymentMethod string, creditCustomerID *int64, at time.Time) error {
	query := `
		UPDATE orders
		SET status = 'completed', payment_method = $1, credit_customer_id = $2,
		    completed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5`

	result, err := executor.Exec(query, paymentMethod, creditCustomerID, at, orderID, from)
	if err != nil {
		return fmt.Errorf("%w: completing order %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) CancelOrder(executor SQLExecutor, orderID int64, from, reason string, at time.Time) error {
	query := `
		UPDATE orders
		SET status = 'cancelled', cancel_reason = $1, cancelled_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4`

	result, err := executor.Exec(query, reason, at, orderID, from)
	if err != nil {
		return fmt.Errorf("%w: cancelling order %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTotals rewrites an order's money fields. The write is refused once the
// order reaches a terminal status.
func (r *orderRepository) UpdateTotals(executor SQLExecutor, order *models.Order) error {
	query := `
		UPDATE orders
		SET subtotal = $1, tax = $2, discount = $3, discount_type = $4, discount_value = $5,
		    total_amount = $6, updated_at = $7
		WHERE id = $8 AND status NOT IN ('completed', 'cancelled')`

	result, err := executor.Exec(query,
		order.Subtotal, order.Tax, order.Discount, order.DiscountType, order.DiscountValue,
		order.TotalAmount, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating totals for order %d: %v", ErrDatabaseError, order.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
