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

// CustomerRepository persists credit customers, their append-only ledger and
// their payments. Ledger posting callers take the customer row lock via
// GetCustomerByIDForUpdate so running balances stay consistent under
// concurrent posts.
type CustomerRepository interface {
	CreateCustomer(customer *models.CreditCustomer) (int64, error)
	GetCustomerByID(id int64) (*models.CreditCustomer, error)
	GetCustomerByIDForUpdate(executor SQLExecutor, id int64) (*models.CreditCustomer, error)
	GetCustomers(page, pageSize int, search string, withBalanceOnly bool) ([]models.CreditCustomer, int64, error)
	UpdateCustomer(customer *models.CreditCustomer) error
	SetBalance(executor SQLExecutor, customerID int64, balance float64) error
	CreateLedgerEntry(executor SQLExecutor, entry *models.CustomerLedgerEntry) (int64, error)
	GetLedgerEntries(customerID int64) ([]models.CustomerLedgerEntry, error)
	GetLedgerEntriesForCustomers(customerIDs []int64) ([]models.CustomerLedgerEntry, error)
	DeleteLedgerEntry(executor SQLExecutor, id int64) error
	CreatePayment(executor SQLExecutor, payment *models.CustomerPayment) (int64, error)
	GetPaymentByID(id int64) (*models.CustomerPayment, error)
	GetRecentPayments(limit int) ([]models.CustomerPayment, error)
	GetPaymentsBetween(start, end time.Time) ([]models.CustomerPayment, error)
	DeletePayment(executor SQLExecutor, id int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, phone, address, company_name, current_balance,
	                 is_credit_enabled, created_at, updated_at`

func scanCustomer(row scanner) (*models.CreditCustomer, error) {
	customer := &models.CreditCustomer{}
	var address, companyName sql.NullString

	err := row.Scan(
		&customer.ID, &customer.Name, &customer.Phone, &address, &companyName,
		&customer.CurrentBalance, &customer.IsCreditEnabled, &customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if address.Valid {
		customer.Address = &address.String
	}
	if companyName.Valid {
		customer.CompanyName = &companyName.String
	}
	return customer, nil
}

func (r *customerRepository) CreateCustomer(customer *models.CreditCustomer) (int64, error) {
	query := `
		INSERT INTO credit_customers (name, phone, address, company_name, current_balance,
		                              is_credit_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, NOW(), NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRow(query,
		customer.Name, customer.Phone, customer.Address, customer.CompanyName,
		customer.IsCreditEnabled,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: customer phone %s", ErrDuplicateKey, customer.Phone)
		}
		return 0, fmt.Errorf("%w: creating credit customer: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *customerRepository) GetCustomerByID(id int64) (*models.CreditCustomer, error) {
	query := `SELECT ` + customerColumns + ` FROM credit_customers WHERE id = $1`
	customer, err := scanCustomer(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting credit customer by ID %d: %v", ErrDatabaseError, id, err)
	}
	return customer, nil
}

// GetCustomerByIDForUpdate reads a customer holding its row lock until the
// surrounding transaction ends. Concurrent ledger posts for the same customer
// serialize on this lock.
func (r *customerRepository) GetCustomerByIDForUpdate(executor SQLExecutor, id int64) (*models.CreditCustomer, error) {
	query := `SELECT ` + customerColumns + ` FROM credit_customers WHERE id = $1 FOR UPDATE`
	customer, err := scanCustomer(executor.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking credit customer %d: %v", ErrDatabaseError, id, err)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomers(page, pageSize int, search string, withBalanceOnly bool) ([]models.CreditCustomer, int64, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + customerColumns + `, COUNT(*) OVER() AS total_count FROM credit_customers`)

	args := []interface{}{}
	conditions := []string{}

	if search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args)))
	}
	if withBalanceOnly {
		conditions = append(conditions, "current_balance > 0")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name")

	if pageSize > 0 {
		args = append(args, pageSize)
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
		if page > 1 {
			args = append(args, (page-1)*pageSize)
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying credit customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	customers := []models.CreditCustomer{}
	var totalCount int64
	for rows.Next() {
		customer := models.CreditCustomer{}
		var address, companyName sql.NullString
		err := rows.Scan(
			&customer.ID, &customer.Name, &customer.Phone, &address, &companyName,
			&customer.CurrentBalance, &customer.IsCreditEnabled, &customer.CreatedAt,
			&customer.UpdatedAt, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning credit customer: %v", ErrDatabaseError, err)
		}
		if address.Valid {
			customer.Address = &address.String
		}
		if companyName.Valid {
			customer.CompanyName = &companyName.String
		}
		customers = append(customers, customer)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating credit customer rows: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) UpdateCustomer(customer *models.CreditCustomer) error {
	query := `
		UPDATE credit_customers
		SET name = $1, phone = $2, address = $3, company_name = $4, is_credit_enabled = $5,
		    updated_at = NOW()
		WHERE id = $6`

	result, err := r.db.Exec(query,
		customer.Name, customer.Phone, customer.Address, customer.CompanyName,
		customer.IsCreditEnabled, customer.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: customer phone %s", ErrDuplicateKey, customer.Phone)
		}
		return fmt.Errorf("%w: updating credit customer %d: %v", ErrDatabaseError, customer.ID, err)
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

func (r *customerRepository) SetBalance(executor SQLExecutor, customerID int64, balance float64) error {
	query := `UPDATE credit_customers SET current_balance = $1, updated_at = NOW() WHERE id = $2`

	result, err := executor.Exec(query, balance, customerID)
	if err != nil {
		return fmt.Errorf("%w: setting balance for customer %d: %v", ErrDatabaseError, customerID, err)
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

const ledgerColumns = `id, customer_id, customer_name, date, reference_type, reference_number,
	                 debit, credit, running_balance, notes, created_at`

func scanLedgerEntry(row scanner) (*models.CustomerLedgerEntry, error) {
	entry := &models.CustomerLedgerEntry{}
	var notes sql.NullString

	err := row.Scan(
		&entry.ID, &entry.CustomerID, &entry.CustomerName, &entry.Date, &entry.ReferenceType,
		&entry.ReferenceNumber, &entry.Debit, &entry.Credit, &entry.RunningBalance, &notes,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		entry.Notes = &notes.String
	}
	return entry, nil
}

func (r *customerRepository) CreateLedgerEntry(executor SQLExecutor, entry *models.CustomerLedgerEntry) (int64, error) {
	query := `
		INSERT INTO customer_ledger_entries (customer_id, customer_name, date, reference_type,
		                                     reference_number, debit, credit, running_balance,
		                                     notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $3)
		RETURNING id`

	var id int64
	err := executor.QueryRow(query,
		entry.CustomerID, entry.CustomerName, entry.Date, entry.ReferenceType,
		entry.ReferenceNumber, entry.Debit, entry.Credit, entry.RunningBalance, entry.Notes,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: customer %d does not exist", ErrNotFound, entry.CustomerID)
		}
		return 0, fmt.Errorf("%w: creating ledger entry: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *customerRepository) queryLedgerEntries(query string, args ...interface{}) ([]models.CustomerLedgerEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying ledger entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	entries := []models.CustomerLedgerEntry{}
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning ledger entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, *entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ledger entry rows: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *customerRepository) GetLedgerEntries(customerID int64) ([]models.CustomerLedgerEntry, error) {
	return r.queryLedgerEntries(
		`SELECT `+ledgerColumns+` FROM customer_ledger_entries WHERE customer_id = $1 ORDER BY date, id`,
		customerID,
	)
}

// GetLedgerEntriesForCustomers loads the full ledger history of the given
// customers in one query, ordered by posting time. Used by report builders.
func (r *customerRepository) GetLedgerEntriesForCustomers(customerIDs []int64) ([]models.CustomerLedgerEntry, error) {
	if len(customerIDs) == 0 {
		return []models.CustomerLedgerEntry{}, nil
	}
	return r.queryLedgerEntries(
		`SELECT `+ledgerColumns+` FROM customer_ledger_entries WHERE customer_id = ANY($1) ORDER BY customer_id, date, id`,
		pq.Array(customerIDs),
	)
}

func (r *customerRepository) DeleteLedgerEntry(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM customer_ledger_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting ledger entry %d: %v", ErrDatabaseError, id, err)
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

const paymentColumns = `id, customer_id, customer_name, receipt_number, amount, payment_mode,
	                 check_number, transaction_id, notes, received_by, ledger_entry_id, date, created_at`

func scanPayment(row scanner) (*models.CustomerPayment, error) {
	payment := &models.CustomerPayment{}
	var checkNumber, transactionID, notes sql.NullString

	err := row.Scan(
		&payment.ID, &payment.CustomerID, &payment.CustomerName, &payment.ReceiptNumber,
		&payment.Amount, &payment.PaymentMode, &checkNumber, &transactionID, &notes,
		&payment.ReceivedBy, &payment.LedgerEntryID, &payment.Date, &payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if checkNumber.Valid {
		payment.CheckNumber = &checkNumber.String
	}
	if transactionID.Valid {
		payment.TransactionID = &transactionID.String
	}
	if notes.Valid {
		payment.Notes = &notes.String
	}
	return payment, nil
}

func (r *customerRepository) CreatePayment(executor SQLExecutor, payment *models.CustomerPayment) (int64, error) {
	query := `
		INSERT INTO customer_payments (customer_id, customer_name, receipt_number, amount,
		                               payment_mode, check_number, transaction_id, notes,
		                               received_by, ledger_entry_id, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`

	var id int64
	err := executor.QueryRow(query,
		payment.CustomerID, payment.CustomerName, payment.ReceiptNumber, payment.Amount,
		payment.PaymentMode, payment.CheckNumber, payment.TransactionID, payment.Notes,
		payment.ReceivedBy, payment.LedgerEntryID, payment.Date,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch {
			case pqErr.Code.Name() == "unique_violation":
				return 0, fmt.Errorf("%w: receipt number %s", ErrDuplicateKey, payment.ReceiptNumber)
			case pqErr.Code == "23503":
				return 0, fmt.Errorf("%w: customer %d does not exist", ErrNotFound, payment.CustomerID)
			}
		}
		return 0, fmt.Errorf("%w: creating customer payment: %v", ErrDatabaseError, err)
	}
	return id, nil
}

func (r *customerRepository) GetPaymentByID(id int64) (*models.CustomerPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM customer_payments WHERE id = $1`
	payment, err := scanPayment(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer payment by ID %d: %v", ErrDatabaseError, id, err)
	}
	return payment, nil
}

func (r *customerRepository) queryPayments(query string, args ...interface{}) ([]models.CustomerPayment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying customer payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.CustomerPayment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning customer payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, *payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customer payment rows: %v", ErrDatabaseError, err)
	}
	return payments, nil
}

func (r *customerRepository) GetRecentPayments(limit int) ([]models.CustomerPayment, error) {
	return r.queryPayments(
		`SELECT `+paymentColumns+` FROM customer_payments ORDER BY date DESC, id DESC LIMIT $1`,
		limit,
	)
}

func (r *customerRepository) GetPaymentsBetween(start, end time.Time) ([]models.CustomerPayment, error) {
	return r.queryPayments(
		`SELECT `+paymentColumns+` FROM customer_payments WHERE date >= $1 AND date < $2 ORDER BY date`,
		start, end,
	)
}

func (r *customerRepository) DeletePayment(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM customer_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting customer payment %d: %v", ErrDatabaseError, id, err)
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
