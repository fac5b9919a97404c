package transport

import (
	"errors"
	"net/http"
	"time"

	"moto-parts/internal/domain"
	"moto-parts/internal/middleware"
	"moto-parts/internal/repository"
	"moto-parts/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderItemRequest represents one requested product line
type OrderItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// OrderRequest represents the order creation payload
type OrderRequest struct {
	OrderNumber     string             `json:"order_number" validate:"max=30"`
	CustomerID      uuid.UUID          `json:"customer_id" validate:"required"`
	ShippingAmount  decimal.Decimal    `json:"shipping_amount"`
	Status          string             `json:"status" validate:"omitempty,oneof=pending confirmed preparing shipped delivered cancelled"`
	PaymentMethod   *string            `json:"payment_method" validate:"omitempty,oneof=pix credit_card debit_card bank_slip"`
	DeliveryAddress AddressPayload     `json:"delivery_address" validate:"required"`
	Notes           string             `json:"notes" validate:"max=2000"`
	DeliveryDate    *time.Time         `json:"delivery_date"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderUpdateRequest represents the order update payload. Item lines
// are immutable after creation and intentionally absent here.
type OrderUpdateRequest struct {
	Status         *string          `json:"status" validate:"omitempty,oneof=pending confirmed preparing shipped delivered cancelled"`
	PaymentMethod  *string          `json:"payment_method" validate:"omitempty,oneof=pix credit_card debit_card bank_slip"`
	ShippingAmount *decimal.Decimal `json:"shipping_amount"`
	Notes          *string          `json:"notes" validate:"omitempty,max=2000"`
	DeliveryDate   *time.Time       `json:"delivery_date"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns orders matching the query filters, newest first
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.OrderFilter{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", service.DefaultPerPage),
	}

	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondValidationErrors(w, map[string][]string{
				"customer_id": {"must be a valid uuid"},
			})
			return
		}
		filter.CustomerID = &customerID
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.OrderStatus(raw)
		if !status.Valid() {
			middleware.RespondValidationErrors(w, map[string][]string{
				"status": {"must be one of: pending, confirmed, preparing, shipped, delivered, cancelled"},
			})
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.orderService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondInternalError(w, "failed to list orders", err)
		return
	}

	page := NewPaginatedResponse(orders, total, filter.Page, filter.PerPage)
	middleware.RespondSuccess(w, http.StatusOK, page, "Orders retrieved successfully")
}

// Get returns a single order with its items and customer
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := h.orderService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err))
		middleware.RespondInternalError(w, "failed to get order", err)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, order, "Order retrieved successfully")
}

// Create stores a new order with its items
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.orderService.Create(r.Context(), service.OrderInput{
		OrderNumber:    req.OrderNumber,
		CustomerID:     req.CustomerID,
		ShippingAmount: req.ShippingAmount,
		Status:         req.Status,
		PaymentMethod:  req.PaymentMethod,
		DeliveryAddress: domain.Address{
			PostalCode:   req.DeliveryAddress.PostalCode,
			Street:       req.DeliveryAddress.Street,
			Number:       req.DeliveryAddress.Number,
			Complement:   req.DeliveryAddress.Complement,
			Neighborhood: req.DeliveryAddress.Neighborhood,
			City:         req.DeliveryAddress.City,
			State:        req.DeliveryAddress.State,
		},
		Notes:        req.Notes,
		DeliveryDate: req.DeliveryDate,
		Items:        items,
	})
	if err != nil {
		h.respondOrderError(w, err, "failed to create order")
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)
	middleware.RespondSuccess(w, http.StatusCreated, order, "Order created successfully")
}

// Update modifies the mutable fields of an existing order
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "order not found")
		return
	}

	var req OrderUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.Update(r.Context(), id, service.OrderUpdateInput{
		Status:         req.Status,
		PaymentMethod:  req.PaymentMethod,
		ShippingAmount: req.ShippingAmount,
		Notes:          req.Notes,
		DeliveryDate:   req.DeliveryDate,
	})
	if err != nil {
		h.respondOrderError(w, err, "failed to update order")
		return
	}

	h.logger.Info("Order updated", zap.String("order_id", order.ID.String()))
	middleware.RespondSuccess(w, http.StatusOK, order, "Order updated successfully")
}

// Delete removes a pending or cancelled order, restoring stock
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "order not found")
		return
	}

	if err := h.orderService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrOrderNotDeletable) {
			middleware.RespondError(w, http.StatusConflict, "only pending or cancelled orders can be deleted")
			return
		}
		h.respondOrderError(w, err, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted", zap.String("order_id", id.String()))
	middleware.RespondSuccess(w, http.StatusOK, nil, "Order deleted successfully")
}

func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error, internalMsg string) {
	if errors.Is(err, repository.ErrOrderNotFound) {
		middleware.RespondError(w, http.StatusNotFound, "order not found")
		return
	}
	if validationErr, ok := service.AsValidationError(err); ok {
		middleware.RespondValidationErrors(w, validationErr.Fields)
		return
	}
	h.logger.Error(internalMsg, zap.Error(err))
	middleware.RespondInternalError(w, internalMsg, err)
}
