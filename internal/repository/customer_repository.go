package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moto-parts/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerEmailTaken = errors.New("customer with this email already exists")
	ErrCustomerTaxIDTaken = errors.New("customer with this tax id already exists")
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context, search string, page, perPage int) ([]*domain.Customer, int, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	ExistsByTaxID(ctx context.Context, taxID string, excludeID uuid.UUID) (bool, error)
	CountOrders(ctx context.Context, id uuid.UUID) (int, error)
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `
	id, name, email, password_hash, phone, tax_id, birth_date, address,
	active, created_at, updated_at
`

func scanCustomer(row interface{ Scan(dest ...interface{}) error }) (*domain.Customer, error) {
	customer := &domain.Customer{}
	err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.PasswordHash,
		&customer.Phone,
		&customer.TaxID,
		&customer.BirthDate,
		&customer.Address,
		&customer.Active,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Create inserts a new customer into the database using parameterized queries
func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, password_hash, phone, tax_id,
			birth_date, address, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
		customer.Phone,
		customer.TaxID,
		customer.BirthDate,
		customer.Address,
		customer.Active,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			return ErrCustomerEmailTaken
		}
		if isUniqueViolation(err, "customers_tax_id_key") {
			return ErrCustomerTaxIDTaken
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// Update updates an existing customer using parameterized queries
func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, email = $3, password_hash = $4, phone = $5, tax_id = $6,
		    birth_date = $7, address = $8, active = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
		customer.Phone,
		customer.TaxID,
		customer.BirthDate,
		customer.Address,
		customer.Active,
	)

	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			return ErrCustomerEmailTaken
		}
		if isUniqueViolation(err, "customers_tax_id_key") {
			return ErrCustomerTaxIDTaken
		}
		return fmt.Errorf("failed to update customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

// Delete removes a customer. The orders foreign key is RESTRICT, so the
// delete fails while orders still reference the customer.
func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM customers WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err, "orders_customer_id_fkey") {
			return fmt.Errorf("customer still referenced by orders: %w", err)
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}

// FindByID retrieves a customer by ID using parameterized queries
func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer by ID: %w", err)
	}

	return customer, nil
}

// FindByEmail retrieves a customer by email using parameterized queries
func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE email = $1`, customerColumns)

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}

	return customer, nil
}

// List retrieves active customers matching the search term over
// name/email/tax id, ordered by name, with the total count for pagination
func (r *customerRepository) List(ctx context.Context, search string, page, perPage int) ([]*domain.Customer, int, error) {
	whereClause := "WHERE active = TRUE"
	args := []interface{}{}
	argIndex := 1

	if search != "" {
		whereClause += fmt.Sprintf(
			" AND (name ILIKE $%d OR email ILIKE $%d OR tax_id ILIKE $%d)",
			argIndex, argIndex, argIndex)
		args = append(args, "%"+search+"%")
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	offset := (page - 1) * perPage

	query := fmt.Sprintf(`
		SELECT %s
		FROM customers
		%s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, argIndex, argIndex+1)

	args = append(args, perPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*domain.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, total, nil
}

// ExistsByEmail reports whether another customer already uses the given email
func (r *customerRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1 AND id != $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check customer email: %w", err)
	}

	return exists, nil
}

// ExistsByTaxID reports whether another customer already uses the given tax id
func (r *customerRepository) ExistsByTaxID(ctx context.Context, taxID string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE tax_id = $1 AND id != $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, taxID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check customer tax id: %w", err)
	}

	return exists, nil
}

// CountOrders returns the number of orders owned by the customer
func (r *customerRepository) CountOrders(ctx context.Context, id uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE customer_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders for customer: %w", err)
	}

	return count, nil
}
