package service

import (
	"context"
	"fmt"
	"time"

	"moto-parts/internal/domain"
	"moto-parts/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemInput carries one requested product line. UnitPrice is
// optional; the product's current price is used when absent.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// OrderInput carries the fields accepted at order creation
type OrderInput struct {
	OrderNumber     string
	CustomerID      uuid.UUID
	ShippingAmount  decimal.Decimal
	Status          string
	PaymentMethod   *string
	DeliveryAddress domain.Address
	Notes           string
	DeliveryDate    *time.Time
	Items           []OrderItemInput
}

// OrderUpdateInput carries the mutable fields of an existing order.
// Item lines are immutable after creation.
type OrderUpdateInput struct {
	Status         *string
	PaymentMethod  *string
	ShippingAmount *decimal.Decimal
	Notes          *string
	DeliveryDate   *time.Time
}

// OrderService defines the interface for order business logic
type OrderService interface {
	List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Create(ctx context.Context, input OrderInput) (*domain.Order, error)
	Update(ctx context.Context, id uuid.UUID, input OrderUpdateInput) (*domain.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
	}
}

// List returns orders matching the filter with the total count
func (s *orderService) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// Get returns a single order with its items and customer
func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByID(ctx, order.CustomerID)
	if err != nil && err != repository.ErrCustomerNotFound {
		return nil, fmt.Errorf("failed to load order customer: %w", err)
	}
	order.Customer = customer

	return order, nil
}

// Create validates the order, computes each item's subtotal and the
// total, generates the order number when absent and stores everything
// in one transaction
func (s *orderService) Create(ctx context.Context, input OrderInput) (*domain.Order, error) {
	validationErr := newValidationError()

	if _, err := s.customerRepo.FindByID(ctx, input.CustomerID); err != nil {
		if err == repository.ErrCustomerNotFound {
			validationErr.add("customer_id", "does not exist")
		} else {
			return nil, fmt.Errorf("failed to check customer: %w", err)
		}
	}

	if len(input.Items) == 0 {
		validationErr.add("items", "at least one item is required")
	}

	status := domain.OrderStatusPending
	if input.Status != "" {
		status = domain.OrderStatus(input.Status)
		if !status.Valid() {
			validationErr.add("status", "is not a valid status")
		}
	}

	var paymentMethod *domain.PaymentMethod
	if input.PaymentMethod != nil {
		method := domain.PaymentMethod(*input.PaymentMethod)
		if !method.Valid() {
			validationErr.add("payment_method", "is not a valid payment method")
		}
		paymentMethod = &method
	}

	if input.ShippingAmount.IsNegative() {
		validationErr.add("shipping_amount", "must be greater than or equal to 0")
	}

	now := time.Now()
	orderID := uuid.New()
	items := make([]*domain.OrderItem, 0, len(input.Items))
	total := decimal.Zero

	for i, itemInput := range input.Items {
		if itemInput.Quantity <= 0 {
			validationErr.add(fmt.Sprintf("items.%d.quantity", i), "must be greater than 0")
			continue
		}

		product, err := s.productRepo.FindByID(ctx, itemInput.ProductID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				validationErr.add(fmt.Sprintf("items.%d.product_id", i), "does not exist")
				continue
			}
			return nil, fmt.Errorf("failed to check product: %w", err)
		}
		if !product.Active {
			validationErr.add(fmt.Sprintf("items.%d.product_id", i), "is not active")
			continue
		}
		if product.StockQuantity < itemInput.Quantity {
			validationErr.add(fmt.Sprintf("items.%d.quantity", i), "exceeds available stock")
			continue
		}

		unitPrice := product.Price
		if itemInput.UnitPrice != nil {
			if itemInput.UnitPrice.IsNegative() {
				validationErr.add(fmt.Sprintf("items.%d.unit_price", i), "must be greater than or equal to 0")
				continue
			}
			unitPrice = itemInput.UnitPrice.Round(2)
		}

		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(itemInput.Quantity))).Round(2)
		total = total.Add(subtotal)

		items = append(items, &domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  itemInput.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
			CreatedAt: now,
		})
	}

	if validationErr.hasErrors() {
		return nil, validationErr
	}

	orderNumber := input.OrderNumber
	if orderNumber == "" {
		number, err := s.nextOrderNumber(ctx, now)
		if err != nil {
			return nil, err
		}
		orderNumber = number
	}

	order := &domain.Order{
		ID:              orderID,
		OrderNumber:     orderNumber,
		CustomerID:      input.CustomerID,
		TotalAmount:     total.Add(input.ShippingAmount.Round(2)),
		ShippingAmount:  input.ShippingAmount.Round(2),
		Status:          status,
		PaymentMethod:   paymentMethod,
		DeliveryAddress: input.DeliveryAddress,
		Notes:           input.Notes,
		DeliveryDate:    input.DeliveryDate,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           items,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		switch err {
		case repository.ErrOrderNumberTaken:
			numberErr := newValidationError()
			numberErr.add("order_number", "has already been taken")
			return nil, numberErr
		case repository.ErrInsufficientStock:
			stockErr := newValidationError()
			stockErr.add("items", "insufficient stock for one or more products")
			return nil, stockErr
		case repository.ErrCustomerNotFound, repository.ErrProductNotFound:
			refErr := newValidationError()
			refErr.add("items", "referenced record no longer exists")
			return nil, refErr
		}
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, orderID)
}

// Update modifies the mutable order fields and recomputes the total
// when the shipping amount changes
func (s *orderService) Update(ctx context.Context, id uuid.UUID, input OrderUpdateInput) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	validationErr := newValidationError()

	if input.Status != nil {
		status := domain.OrderStatus(*input.Status)
		if !status.Valid() {
			validationErr.add("status", "is not a valid status")
		} else {
			order.Status = status
		}
	}

	if input.PaymentMethod != nil {
		method := domain.PaymentMethod(*input.PaymentMethod)
		if !method.Valid() {
			validationErr.add("payment_method", "is not a valid payment method")
		} else {
			order.PaymentMethod = &method
		}
	}

	if input.ShippingAmount != nil {
		if input.ShippingAmount.IsNegative() {
			validationErr.add("shipping_amount", "must be greater than or equal to 0")
		} else {
			itemsTotal := order.TotalAmount.Sub(order.ShippingAmount)
			order.ShippingAmount = input.ShippingAmount.Round(2)
			order.TotalAmount = itemsTotal.Add(order.ShippingAmount)
		}
	}

	if validationErr.hasErrors() {
		return nil, validationErr
	}

	if input.Notes != nil {
		order.Notes = *input.Notes
	}
	if input.DeliveryDate != nil {
		order.DeliveryDate = input.DeliveryDate
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, id)
}

// Delete removes an order, restoring the stock its items consumed.
// Only pending and cancelled orders can be deleted.
func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusCancelled {
		return ErrOrderNotDeletable
	}

	return s.orderRepo.Delete(ctx, id)
}

// nextOrderNumber generates PED-<year>-<6 digit sequence>, the sequence
// strictly increasing within the year
func (s *orderService) nextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	year := now.Year()
	max, err := s.orderRepo.MaxOrderSequence(ctx, year)
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	return fmt.Sprintf("PED-%d-%06d", year, max+1), nil
}
