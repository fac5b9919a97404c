package service

import (
	"context"
	"fmt"
	"time"

	"moto-parts/internal/domain"
	"moto-parts/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// CategoryInput carries the writable category fields
type CategoryInput struct {
	Name        string
	Description string
	Slug        string
	Active      *bool
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

// List returns all categories, active first, then alphabetical
func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Get returns a single category by id with its product count
func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count category products: %w", err)
	}
	category.ProductCount = &count

	return category, nil
}

// Create stores a new category. The slug is derived from the name as an
// explicit pre-insert step when the caller did not supply one.
func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	if err := s.checkNameAvailable(ctx, input.Name, uuid.Nil); err != nil {
		return nil, err
	}

	categorySlug := input.Slug
	if categorySlug == "" {
		categorySlug = slug.Make(input.Name)
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	now := time.Now()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Slug:        categorySlug,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, mapCategoryConstraintError(err)
	}

	return category, nil
}

// Update modifies an existing category, re-checking name uniqueness
// excluding the record itself
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkNameAvailable(ctx, input.Name, id); err != nil {
		return nil, err
	}

	category.Name = input.Name
	category.Description = input.Description
	if input.Slug != "" {
		category.Slug = input.Slug
	}
	if input.Active != nil {
		category.Active = *input.Active
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, mapCategoryConstraintError(err)
	}

	return category, nil
}

// Delete removes a category unless it still owns products
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category products: %w", err)
	}
	if count > 0 {
		return ErrCategoryHasProducts
	}

	return s.categoryRepo.Delete(ctx, id)
}

func (s *categoryService) checkNameAvailable(ctx context.Context, name string, excludeID uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		validationErr := newValidationError()
		validationErr.add("name", "has already been taken")
		return validationErr
	}
	return nil
}

// mapCategoryConstraintError converts storage-level uniqueness violations
// into field errors so a lost race still surfaces as a validation failure
func mapCategoryConstraintError(err error) error {
	switch err {
	case repository.ErrCategoryNameTaken:
		validationErr := newValidationError()
		validationErr.add("name", "has already been taken")
		return validationErr
	case repository.ErrCategorySlugTaken:
		validationErr := newValidationError()
		validationErr.add("slug", "has already been taken")
		return validationErr
	}
	return err
}
