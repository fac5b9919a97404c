package transport

import (
	"errors"
	"net/http"

	"moto-parts/internal/middleware"
	"moto-parts/internal/repository"
	"moto-parts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryRequest represents the category create/update payload
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Slug        string `json:"slug" validate:"max=140"`
	Active      *bool  `json:"active"`
}

// CategoryHandler handles HTTP requests for category operations
type CategoryHandler struct {
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// RegisterRoutes registers all category routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List returns all categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondInternalError(w, "failed to list categories", err)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, categories, "Categories retrieved successfully")
}

// Get returns a single category
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "category not found")
		return
	}

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to get category", zap.Error(err))
		middleware.RespondInternalError(w, "failed to get category", err)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, category, "Category retrieved successfully")
}

// Create stores a new category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.categoryService.Create(r.Context(), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Active:      req.Active,
	})
	if err != nil {
		h.respondCategoryError(w, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondSuccess(w, http.StatusCreated, category, "Category created successfully")
}

// Update modifies an existing category
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "category not found")
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Active:      req.Active,
	})
	if err != nil {
		h.respondCategoryError(w, err, "failed to update category")
		return
	}

	h.logger.Info("Category updated", zap.String("category_id", category.ID.String()))
	middleware.RespondSuccess(w, http.StatusOK, category, "Category updated successfully")
}

// Delete removes a category without products
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "category not found")
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrCategoryHasProducts) {
			middleware.RespondError(w, http.StatusConflict, "category has associated products")
			return
		}
		h.respondCategoryError(w, err, "failed to delete category")
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	middleware.RespondSuccess(w, http.StatusOK, nil, "Category deleted successfully")
}

func (h *CategoryHandler) respondCategoryError(w http.ResponseWriter, err error, internalMsg string) {
	if errors.Is(err, repository.ErrCategoryNotFound) {
		middleware.RespondError(w, http.StatusNotFound, "category not found")
		return
	}
	if validationErr, ok := service.AsValidationError(err); ok {
		middleware.RespondValidationErrors(w, validationErr.Fields)
		return
	}
	h.logger.Error(internalMsg, zap.Error(err))
	middleware.RespondInternalError(w, internalMsg, err)
}
