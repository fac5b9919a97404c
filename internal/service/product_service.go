package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"moto-parts/internal/domain"
	"moto-parts/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinManufactureYear is the lower bound for the manufacture year field
const MinManufactureYear = 1900

// ProductInput carries the writable product fields
type ProductInput struct {
	Name            string
	Description     string
	ProductCode     string
	Price           decimal.Decimal
	StockQuantity   int
	Brand           string
	VehicleModel    string
	ManufactureYear *int
	Images          []string
	CategoryID      uuid.UUID
	Active          *bool
}

// StockInput carries a stock mutation: either an absolute quantity or a
// relative adjustment
type StockInput struct {
	Quantity   *int
	Adjustment *int
}

// ProductService defines the interface for product business logic
type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStock(ctx context.Context, id uuid.UUID, input StockInput) (*domain.Product, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// List returns active products matching the filter with the total count
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	if filter.PerPage > MaxPerPage {
		filter.PerPage = MaxPerPage
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// Get returns a single product with its category
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// Create validates and stores a new product
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := s.validate(ctx, input, uuid.Nil); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	now := time.Now()
	product := &domain.Product{
		ID:              uuid.New(),
		Name:            input.Name,
		Description:     input.Description,
		ProductCode:     input.ProductCode,
		Price:           input.Price.Round(2),
		StockQuantity:   input.StockQuantity,
		Brand:           input.Brand,
		VehicleModel:    input.VehicleModel,
		ManufactureYear: input.ManufactureYear,
		Images:          input.Images,
		CategoryID:      input.CategoryID,
		Active:          active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, mapProductConstraintError(err)
	}

	// Reload to embed the category
	return s.productRepo.FindByID(ctx, product.ID)
}

// Update validates and modifies an existing product, re-checking code
// uniqueness excluding the record itself
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validate(ctx, input, id); err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.ProductCode = input.ProductCode
	product.Price = input.Price.Round(2)
	product.StockQuantity = input.StockQuantity
	product.Brand = input.Brand
	product.VehicleModel = input.VehicleModel
	product.ManufactureYear = input.ManufactureYear
	product.Images = input.Images
	product.CategoryID = input.CategoryID
	if input.Active != nil {
		product.Active = *input.Active
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, mapProductConstraintError(err)
	}

	return s.productRepo.FindByID(ctx, id)
}

// Delete removes a product unless order items reference it
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.productRepo.CountOrderItems(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product order items: %w", err)
	}
	if count > 0 {
		return ErrProductHasOrders
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if err == repository.ErrProductInUse {
			return ErrProductHasOrders
		}
		return err
	}
	return nil
}

// UpdateStock sets or adjusts the stock quantity, never below zero.
// Exactly one of quantity and adjustment must be set.
func (s *productService) UpdateStock(ctx context.Context, id uuid.UUID, input StockInput) (*domain.Product, error) {
	validationErr := newValidationError()

	if input.Quantity != nil && input.Adjustment != nil {
		validationErr.add("quantity", "only one of quantity or adjustment may be set")
		return nil, validationErr
	}

	switch {
	case input.Quantity != nil:
		if *input.Quantity < 0 {
			validationErr.add("quantity", "must be greater than or equal to 0")
			return nil, validationErr
		}
		if err := s.productRepo.SetStock(ctx, id, *input.Quantity); err != nil {
			return nil, err
		}
	case input.Adjustment != nil:
		err := s.productRepo.AdjustStock(ctx, id, *input.Adjustment)
		if err == repository.ErrInsufficientStock {
			validationErr.add("adjustment", "stock quantity cannot go below 0")
			return nil, validationErr
		}
		if err != nil {
			return nil, err
		}
	default:
		validationErr.add("quantity", "either quantity or adjustment is required")
		return nil, validationErr
	}

	return s.productRepo.FindByID(ctx, id)
}

func (s *productService) validate(ctx context.Context, input ProductInput, excludeID uuid.UUID) error {
	validationErr := newValidationError()

	if input.Price.IsNegative() {
		validationErr.add("price", "must be greater than or equal to 0")
	}
	if input.StockQuantity < 0 {
		validationErr.add("stock_quantity", "must be greater than or equal to 0")
	}

	if input.ManufactureYear != nil {
		maxYear := time.Now().Year() + 1
		if *input.ManufactureYear < MinManufactureYear || *input.ManufactureYear > maxYear {
			validationErr.add("manufacture_year",
				fmt.Sprintf("must be between %d and %d", MinManufactureYear, maxYear))
		}
	}

	for i, image := range input.Images {
		parsed, err := url.Parse(image)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			validationErr.add(fmt.Sprintf("images.%d", i), "must be a valid URL")
		}
	}

	exists, err := s.productRepo.ExistsByCode(ctx, input.ProductCode, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check product code: %w", err)
	}
	if exists {
		validationErr.add("product_code", "has already been taken")
	}

	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		if err == repository.ErrCategoryNotFound {
			validationErr.add("category_id", "does not exist")
		} else {
			return fmt.Errorf("failed to check category: %w", err)
		}
	}

	if validationErr.hasErrors() {
		return validationErr
	}
	return nil
}

// mapProductConstraintError converts storage-level constraint violations
// into field errors so a lost race still surfaces as a validation failure
func mapProductConstraintError(err error) error {
	switch err {
	case repository.ErrProductCodeTaken:
		validationErr := newValidationError()
		validationErr.add("product_code", "has already been taken")
		return validationErr
	case repository.ErrProductCategoryBad:
		validationErr := newValidationError()
		validationErr.add("category_id", "does not exist")
		return validationErr
	}
	return err
}
