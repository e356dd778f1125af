package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"restropos_backend/internal/models"
)

// InventoryRepository persists inventory items and their adjustment history.
// Stock changes go through CreateAdjustment + ApplyStockDelta; nothing writes
// current_stock with an absolute value, so concurrent adjustments compose.
type InventoryRepository interface {
	GetItemByID(id int64) (*models.InventoryItem, error)
	GetItems() ([]models.InventoryItem, error)
	GetLowStockItems() ([]models.InventoryItem, error)
	CreateAdjustment(executor SQLExecutor, adjustment *models.InventoryAdjustment) (int64, error)
	ApplyStockDelta(executor SQLExecutor, itemID int64, delta float64) (float64, error)
	GetAdjustments(filters models.AdjustmentFilters) ([]models.InventoryAdjustment, int64, error)
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryItemColumns = `id, name, category, current_stock, unit, low_stock_threshold,
	                 is_prepared_item, created_at, updated_at`

func scanInventoryItem(row scanner) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}
	err := row.Scan(
		&item.ID, &item.Name, &item.Category, &item.CurrentStock, &item.Unit,
		&item.LowStockThreshold, &item.IsPreparedItem, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *inventoryRepository) GetItemByID(id int64) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryItemColumns + ` FROM inventory_items WHERE id = $1`
	item, err := scanInventoryItem(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *inventoryRepository) queryItems(query string, args ...interface{}) ([]models.InventoryItem, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying inventory items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning inventory item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating inventory item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *inventoryRepository) GetItems() ([]models.InventoryItem, error) {
	return r.queryItems(`SELECT ` + inventoryItemColumns + ` FROM inventory_items ORDER BY category, name`)
}

func (r *inventoryRepository) GetLowStockItems() ([]models.InventoryItem, error) {
	return r.queryItems(`SELECT ` + inventoryItemColumns + ` FROM inventory_items
	                     WHERE current_stock < low_stock_threshold ORDER BY name`)
}

func (r *inventoryRepository) CreateAdjustment(executor SQLExecutor, adjustment *models.InventoryAdjustment) (int64, error) {
	query := `
		INSERT INTO inventory_adjustments (inventory_item_id, inventory_item_name, adjustment_type,
		                                   quantity, unit, reason, adjusted_by, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id`

	var id int64
	err := executor.QueryRow(query,
		adjustment.InventoryItemID, adjustment.InventoryItemName, adjustment.AdjustmentType,
		adjustment.Quantity, adjustment.Unit, adjustment.Reason, adjustment.AdjustedBy,
		adjustment.Date,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: inventory item %d does not exist", ErrNotFound, adjustment.InventoryItemID)
		}
		return 0, fmt.Errorf("%w: creating inventory adjustment: %v", ErrDatabaseError, err)
	}
	return id, nil
}

// ApplyStockDelta atomically increments an item's stock by delta (negative for
// consumption) and returns the resulting stock level. Stock may go negative;
// the caller surfaces that as a low-stock condition, not an error.
func (r *inventoryRepository) ApplyStockDelta(executor SQLExecutor, itemID int64, delta float64) (float64, error) {
	query := `
		UPDATE inventory_items
		SET current_stock = current_stock + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING current_stock`

	var newStock float64
	err := executor.QueryRow(query, delta, itemID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: applying stock delta to item %d: %v", ErrDatabaseError, itemID, err)
	}
	return newStock, nil
}

func (r *inventoryRepository) GetAdjustments(filters models.AdjustmentFilters) ([]models.InventoryAdjustment, int64, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, inventory_item_id, inventory_item_name, adjustment_type, quantity, unit,
		       reason, adjusted_by, date, created_at, COUNT(*) OVER() AS total_count
		FROM inventory_adjustments`)

	args := []interface{}{}
	conditions := []string{}

	if filters.ItemID != nil {
		args = append(args, *filters.ItemID)
		conditions = append(conditions, fmt.Sprintf("inventory_item_id = $%d", len(args)))
	}
	if filters.AdjustmentType != nil && *filters.AdjustmentType != "" {
		args = append(args, *filters.AdjustmentType)
		conditions = append(conditions, fmt.Sprintf("adjustment_type = $%d", len(args)))
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY date DESC, id DESC")

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
		return nil, 0, fmt.Errorf("%w: querying inventory adjustments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	adjustments := []models.InventoryAdjustment{}
	var totalCount int64
	for rows.Next() {
		adj := models.InventoryAdjustment{}
		err := rows.Scan(
			&adj.ID, &adj.InventoryItemID, &adj.InventoryItemName, &adj.AdjustmentType,
			&adj.Quantity, &adj.Unit, &adj.Reason, &adj.AdjustedBy, &adj.Date, &adj.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory adjustment: %v", ErrDatabaseError, err)
		}
		adjustments = append(adjustments, adj)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory adjustment rows: %v", ErrDatabaseError, err)
	}
	return adjustments, totalCount, nil
}
