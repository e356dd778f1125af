package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"restropos_backend/internal/models"
)

// CatalogRepository provides read access to the menu item and deal catalogs.
// The order core never writes the catalog; menu management is a separate
// concern.
type CatalogRepository interface {
	GetMenuItemByID(id int64) (*models.MenuItem, error)
	GetMenuItems(activeOnly bool) ([]models.MenuItem, error)
	GetDealByID(id int64) (*models.Deal, error)
	GetDeals(activeOnly bool) ([]models.Deal, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

const menuItemColumns = `id, name, category, price, tax_rate, unit, sold_by_weight, is_active,
	                 description, recipe_mapping, prepared_item_id, created_at, updated_at`

func scanMenuItem(row scanner) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	var unit, description sql.NullString
	var preparedItemID sql.NullInt64

	err := row.Scan(
		&item.ID, &item.Name, &item.Category, &item.Price, &item.TaxRate, &unit, &item.SoldByWeight,
		&item.IsActive, &description, &item.RecipeMapping, &preparedItemID, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if unit.Valid {
		item.Unit = &unit.String
	}
	if description.Valid {
		item.Description = &description.String
	}
	if preparedItemID.Valid {
		item.PreparedItemID = &preparedItemID.Int64
	}
	return item, nil
}

func (r *catalogRepository) GetMenuItemByID(id int64) (*models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`
	item, err := scanMenuItem(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *catalogRepository) GetMenuItems(activeOnly bool) ([]models.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

const dealColumns = `id, name, description, items, original_price, deal_price, savings,
	                 savings_percent, is_active, start_date, end_date, created_at, updated_at`

func scanDeal(row scanner) (*models.Deal, error) {
	deal := &models.Deal{}
	var description sql.NullString
	var startDate, endDate sql.NullTime

	err := row.Scan(
		&deal.ID, &deal.Name, &description, &deal.Items, &deal.OriginalPrice, &deal.DealPrice,
		&deal.Savings, &deal.SavingsPercent, &deal.IsActive, &startDate, &endDate,
		&deal.CreatedAt, &deal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		deal.Description = &description.String
	}
	if startDate.Valid {
		deal.StartDate = &startDate.Time
	}
	if endDate.Valid {
		deal.EndDate = &endDate.Time
	}
	return deal, nil
}

func (r *catalogRepository) GetDealByID(id int64) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`
	deal, err := scanDeal(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting deal by ID %d: %v", ErrDatabaseError, id, err)
	}
	return deal, nil
}

// GetDeals returns deals; with activeOnly the active-flag filter is applied in
// SQL and the validity window is checked by the caller against its own clock.
func (r *catalogRepository) GetDeals(activeOnly bool) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying deals: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning deal: %v", ErrDatabaseError, err)
		}
		deals = append(deals, *deal)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating deal rows: %v", ErrDatabaseError, err)
	}
	return deals, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
