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
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNumberTaken = errors.New("order with this number already exists")
)

// OrderFilter holds the optional filters for order listing
type OrderFilter struct {
	CustomerID *uuid.UUID
	Status     *domain.OrderStatus
	Page       int
	PerPage    int
}

// OrderRepository defines the interface for order data access.
// Create and Delete run the order row, its items and the stock
// adjustments inside a single transaction.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error)
	MaxOrderSequence(ctx context.Context, year int) (int, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	id, order_number, customer_id, total_amount, shipping_amount, status,
	payment_method, delivery_address, notes, delivery_date, created_at, updated_at
`

func scanOrder(row interface{ Scan(dest ...interface{}) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.TotalAmount,
		&order.ShippingAmount,
		&order.Status,
		&order.PaymentMethod,
		&order.DeliveryAddress,
		&order.Notes,
		&order.DeliveryDate,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create inserts the order, its items and the stock decrements in one
// transaction. Stock never goes negative; a failed decrement rolls
// everything back.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (id, order_number, customer_id, total_amount,
			shipping_amount, status, payment_method, delivery_address, notes,
			delivery_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.TotalAmount,
		order.ShippingAmount,
		order.Status,
		order.PaymentMethod,
		order.DeliveryAddress,
		order.Notes,
		order.DeliveryDate,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return ErrOrderNumberTaken
		}
		if isForeignKeyViolation(err, "orders_customer_id_fkey") {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price,
			subtotal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stockQuery := `
		UPDATE products
		SET stock_quantity = stock_quantity - $2
		WHERE id = $1 AND stock_quantity >= $2
	`

	for _, item := range order.Items {
		_, err = tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.Subtotal,
			item.CreatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err, "order_items_product_id_fkey") {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to create order item: %w", err)
		}

		result, err := tx.ExecContext(ctx, stockQuery, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrInsufficientStock
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// Update updates the mutable order fields using parameterized queries.
// Item lines are immutable after creation.
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET total_amount = $2, shipping_amount = $3, status = $4,
		    payment_method = $5, delivery_address = $6, notes = $7,
		    delivery_date = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.TotalAmount,
		order.ShippingAmount,
		order.Status,
		order.PaymentMethod,
		order.DeliveryAddress,
		order.Notes,
		order.DeliveryDate,
	)

	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Delete removes the order after restoring the stock its items consumed.
// Items are removed by the ON DELETE CASCADE on order_items.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	restoreQuery := `
		UPDATE products p
		SET stock_quantity = p.stock_quantity + i.quantity
		FROM order_items i
		WHERE i.order_id = $1 AND i.product_id = p.id
	`
	if _, err := tx.ExecContext(ctx, restoreQuery, id); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order delete: %w", err)
	}

	return nil
}

// FindByID retrieves an order with its items and their products
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	items, err := r.findItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) findItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	query := fmt.Sprintf(`
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.unit_price,
		       i.subtotal, i.created_at,
		       %s
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE i.order_id = $1
		ORDER BY i.created_at ASC
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []*domain.OrderItem{}
	for rows.Next() {
		item := &domain.OrderItem{Product: &domain.Product{Category: &domain.Category{}}}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
			&item.CreatedAt,
			&item.Product.ID,
			&item.Product.Name,
			&item.Product.Description,
			&item.Product.ProductCode,
			&item.Product.Price,
			&item.Product.StockQuantity,
			&item.Product.Brand,
			&item.Product.VehicleModel,
			&item.Product.ManufactureYear,
			&item.Product.Images,
			&item.Product.CategoryID,
			&item.Product.Active,
			&item.Product.CreatedAt,
			&item.Product.UpdatedAt,
			&item.Product.Category.ID,
			&item.Product.Category.Name,
			&item.Product.Category.Description,
			&item.Product.Category.Slug,
			&item.Product.Category.Active,
			&item.Product.Category.CreatedAt,
			&item.Product.Category.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// List retrieves orders matching the filter, newest first, with the
// total count for pagination. Items are loaded per order by read paths
// that need them.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	addCondition := func(cond string, value interface{}) {
		if whereClause == "" {
			whereClause = "WHERE "
		} else {
			whereClause += " AND "
		}
		whereClause += fmt.Sprintf(cond, argIndex)
		args = append(args, value)
		argIndex++
	}

	if filter.CustomerID != nil {
		addCondition("customer_id = $%d", *filter.CustomerID)
	}
	if filter.Status != nil {
		addCondition("status = $%d", *filter.Status)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (filter.Page - 1) * filter.PerPage

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.PerPage, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

// ListByCustomer returns every order belonging to a customer, newest
// first, without item lines. Customer reads embed the result.
func (r *orderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`, orderColumns)

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer orders: %w", err)
	}

	return orders, nil
}

// MaxOrderSequence returns the highest numeric suffix among order numbers
// generated for the given year, 0 when none exist. Generated numbers follow
// PED-<year>-<6 digit sequence>; explicitly supplied numbers with any other
// shape are skipped so the cast only ever sees digits.
func (r *orderRepository) MaxOrderSequence(ctx context.Context, year int) (int, error) {
	query := `
		SELECT COALESCE(MAX(CAST(SPLIT_PART(order_number, '-', 3) AS INTEGER)), 0)
		FROM orders
		WHERE order_number ~ $1
	`

	var max int
	pattern := fmt.Sprintf("^PED-%d-[0-9]{6}$", year)
	if err := r.db.QueryRowContext(ctx, query, pattern).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max order sequence: %w", err)
	}

	return max, nil
}
