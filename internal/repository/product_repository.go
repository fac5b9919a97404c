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
	ErrProductNotFound    = errors.New("product not found")
	ErrProductCodeTaken   = errors.New("product with this code already exists")
	ErrProductInUse       = errors.New("product is referenced by order items")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrProductCategoryBad = errors.New("product category does not exist")
)

// ProductFilter holds the optional filters for product listing
type ProductFilter struct {
	CategoryID   *uuid.UUID
	Brand        string
	VehicleModel string
	Search       string
	InStock      bool
	Page         int
	PerPage      int
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	ExistsByCode(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
	CountOrderItems(ctx context.Context, id uuid.UUID) (int, error)
	SetStock(ctx context.Context, id uuid.UUID, quantity int) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `
	p.id, p.name, p.description, p.product_code, p.price, p.stock_quantity,
	p.brand, p.vehicle_model, p.manufacture_year, p.images, p.category_id,
	p.active, p.created_at, p.updated_at,
	c.id, c.name, c.description, c.slug, c.active, c.created_at, c.updated_at
`

func scanProduct(row interface{ Scan(dest ...interface{}) error }) (*domain.Product, error) {
	product := &domain.Product{Category: &domain.Category{}}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.ProductCode,
		&product.Price,
		&product.StockQuantity,
		&product.Brand,
		&product.VehicleModel,
		&product.ManufactureYear,
		&product.Images,
		&product.CategoryID,
		&product.Active,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Category.ID,
		&product.Category.Name,
		&product.Category.Description,
		&product.Category.Slug,
		&product.Category.Active,
		&product.Category.CreatedAt,
		&product.Category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, product_code, price, stock_quantity,
			brand, vehicle_model, manufacture_year, images, category_id, active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.ProductCode,
		product.Price,
		product.StockQuantity,
		product.Brand,
		product.VehicleModel,
		product.ManufactureYear,
		product.Images,
		product.CategoryID,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_product_code_key") {
			return ErrProductCodeTaken
		}
		if isForeignKeyViolation(err, "products_category_id_fkey") {
			return ErrProductCategoryBad
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates an existing product using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, product_code = $4, price = $5,
		    stock_quantity = $6, brand = $7, vehicle_model = $8,
		    manufacture_year = $9, images = $10, category_id = $11, active = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.ProductCode,
		product.Price,
		product.StockQuantity,
		product.Brand,
		product.VehicleModel,
		product.ManufactureYear,
		product.Images,
		product.CategoryID,
		product.Active,
	)

	if err != nil {
		if isUniqueViolation(err, "products_product_code_key") {
			return ErrProductCodeTaken
		}
		if isForeignKeyViolation(err, "products_category_id_fkey") {
			return ErrProductCategoryBad
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product. The order_items foreign key is RESTRICT, so the
// delete fails once the product has been ordered.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err, "order_items_product_id_fkey") {
			return ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product with its category using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves active products matching the filter, ordered by name,
// with the total count for pagination
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	whereClause := "WHERE p.active = TRUE"
	args := []interface{}{}
	argIndex := 1

	if filter.CategoryID != nil {
		whereClause += fmt.Sprintf(" AND p.category_id = $%d", argIndex)
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.Brand != "" {
		whereClause += fmt.Sprintf(" AND p.brand ILIKE $%d", argIndex)
		args = append(args, "%"+filter.Brand+"%")
		argIndex++
	}

	if filter.VehicleModel != "" {
		whereClause += fmt.Sprintf(" AND p.vehicle_model ILIKE $%d", argIndex)
		args = append(args, "%"+filter.VehicleModel+"%")
		argIndex++
	}

	if filter.Search != "" {
		whereClause += fmt.Sprintf(
			" AND (p.name ILIKE $%d OR p.description ILIKE $%d OR p.product_code ILIKE $%d)",
			argIndex, argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	if filter.InStock {
		whereClause += " AND p.stock_quantity > 0"
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products p %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (filter.Page - 1) * filter.PerPage

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY p.name ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.PerPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// ExistsByCode reports whether another product already uses the given code.
// excludeID allows update paths to ignore the record being updated.
func (r *productRepository) ExistsByCode(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE product_code = $1 AND id != $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, code, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product code: %w", err)
	}

	return exists, nil
}

// CountOrderItems returns the number of order items referencing the product
func (r *productRepository) CountOrderItems(ctx context.Context, id uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM order_items WHERE product_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count order items for product: %w", err)
	}

	return count, nil
}

// SetStock sets the stock quantity to an absolute value
func (r *productRepository) SetStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `UPDATE products SET stock_quantity = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		if isCheckViolation(err) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("failed to set stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// AdjustStock applies a relative stock change, refusing to go below zero
func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity + $2
		WHERE id = $1 AND stock_quantity + $2 >= 0
	`

	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the product is missing or the adjustment would go negative
		var exists bool
		checkErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("failed to adjust stock: %w", checkErr)
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}

	return nil
}
