package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the closed set of order states
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a member of the status enumeration
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is the closed set of accepted payment methods
type PaymentMethod string

const (
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodBankSlip   PaymentMethod = "bank_slip"
)

// Valid reports whether m is a member of the payment method enumeration
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodBankSlip:
		return true
	}
	return false
}

// Order represents a customer order
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	CustomerID      uuid.UUID       `json:"customer_id" db:"customer_id"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount" db:"shipping_amount"`
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentMethod   *PaymentMethod  `json:"payment_method" db:"payment_method"`
	DeliveryAddress Address         `json:"delivery_address" db:"delivery_address"`
	Notes           string          `json:"notes" db:"notes"`
	DeliveryDate    *time.Time      `json:"delivery_date" db:"delivery_date"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	// Items and Customer are populated by read paths that load them
	Items    []*OrderItem `json:"items,omitempty" db:"-"`
	Customer *Customer    `json:"customer,omitempty" db:"-"`
}

// OrderItem is a single product line within an order.
// Subtotal always equals Quantity x UnitPrice; the writer computes it
// before insertion, the store only persists it.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal" db:"subtotal"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`

	// Product is populated by read paths that join the product
	Product *Product `json:"product,omitempty" db:"-"`
}
