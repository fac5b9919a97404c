package transport

import (
	"errors"
	"net/http"

	"moto-parts/internal/middleware"
	"moto-parts/internal/repository"
	"moto-parts/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the product create/update payload
type ProductRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Description     string          `json:"description" validate:"max=2000"`
	ProductCode     string          `json:"product_code" validate:"required,max=60"`
	Price           decimal.Decimal `json:"price"`
	StockQuantity   int             `json:"stock_quantity"`
	Brand           string          `json:"brand" validate:"max=100"`
	VehicleModel    string          `json:"vehicle_model" validate:"max=100"`
	ManufactureYear *int            `json:"manufacture_year"`
	Images          []string        `json:"images"`
	CategoryID      uuid.UUID       `json:"category_id" validate:"required"`
	Active          *bool           `json:"active"`
}

// StockRequest represents the stock mutation payload. Exactly one of
// quantity (absolute) or adjustment (relative) must be present.
type StockRequest struct {
	Quantity   *int `json:"quantity"`
	Adjustment *int `json:"adjustment"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Patch("/{id}/stock", h.UpdateStock)
		})
	})
}

// List returns active products matching the query filters
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		Brand:        r.URL.Query().Get("brand"),
		VehicleModel: r.URL.Query().Get("vehicle_model"),
		Search:       r.URL.Query().Get("search"),
		InStock:      r.URL.Query().Get("in_stock") == "true",
		Page:         queryInt(r, "page", 1),
		PerPage:      queryInt(r, "per_page", service.DefaultPerPage),
	}

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondValidationErrors(w, map[string][]string{
				"category_id": {"must be a valid uuid"},
			})
			return
		}
		filter.CategoryID = &categoryID
	}

	products, total, err := h.productService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondInternalError(w, "failed to list products", err)
		return
	}

	page := NewPaginatedResponse(products, total, filter.Page, filter.PerPage)
	middleware.RespondSuccess(w, http.StatusOK, page, "Products retrieved successfully")
}

// Get returns a single product with its category
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondInternalError(w, "failed to get product", err)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, product, "Product retrieved successfully")
}

// Create stores a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), h.toInput(req))
	if err != nil {
		h.respondProductError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("product_code", product.ProductCode),
	)
	middleware.RespondSuccess(w, http.StatusCreated, product, "Product created successfully")
}

// Update modifies an existing product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "product not found")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Update(r.Context(), id, h.toInput(req))
	if err != nil {
		h.respondProductError(w, err, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", product.ID.String()))
	middleware.RespondSuccess(w, http.StatusOK, product, "Product updated successfully")
}

// Delete removes a product never sold in an order
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductHasOrders) {
			middleware.RespondError(w, http.StatusConflict, "product has been sold in orders")
			return
		}
		h.respondProductError(w, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondSuccess(w, http.StatusOK, nil, "Product deleted successfully")
}

// UpdateStock sets or adjusts the stock quantity
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "product not found")
		return
	}

	var req StockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.UpdateStock(r.Context(), id, service.StockInput{
		Quantity:   req.Quantity,
		Adjustment: req.Adjustment,
	})
	if err != nil {
		h.respondProductError(w, err, "failed to update stock")
		return
	}

	h.logger.Info("Product stock updated",
		zap.String("product_id", product.ID.String()),
		zap.Int("stock_quantity", product.StockQuantity),
	)
	middleware.RespondSuccess(w, http.StatusOK, product, "Stock updated successfully")
}

func (h *ProductHandler) toInput(req ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:            req.Name,
		Description:     req.Description,
		ProductCode:     req.ProductCode,
		Price:           req.Price,
		StockQuantity:   req.StockQuantity,
		Brand:           req.Brand,
		VehicleModel:    req.VehicleModel,
		ManufactureYear: req.ManufactureYear,
		Images:          req.Images,
		CategoryID:      req.CategoryID,
		Active:          req.Active,
	}
}

func (h *ProductHandler) respondProductError(w http.ResponseWriter, err error, internalMsg string) {
	if errors.Is(err, repository.ErrProductNotFound) {
		middleware.RespondError(w, http.StatusNotFound, "product not found")
		return
	}
	if validationErr, ok := service.AsValidationError(err); ok {
		middleware.RespondValidationErrors(w, validationErr.Fields)
		return
	}
	h.logger.Error(internalMsg, zap.Error(err))
	middleware.RespondInternalError(w, internalMsg, err)
}
