package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"moto-parts/internal/domain"
	"moto-parts/internal/middleware"
	"moto-parts/internal/repository"
	"moto-parts/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddressPayload represents the structured address in request bodies
type AddressPayload struct {
	PostalCode   string `json:"postal_code" validate:"omitempty,len=8"`
	Street       string `json:"street" validate:"max=200"`
	Number       string `json:"number" validate:"max=20"`
	Complement   string `json:"complement" validate:"max=100"`
	Neighborhood string `json:"neighborhood" validate:"max=100"`
	City         string `json:"city" validate:"max=100"`
	State        string `json:"state" validate:"omitempty,len=2"`
}

// CreateCustomerRequest represents the customer creation payload
type CreateCustomerRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,min=8"`
	Phone     string          `json:"phone" validate:"max=20"`
	TaxID     *string         `json:"tax_id" validate:"omitempty,len=11"`
	BirthDate string          `json:"birth_date"`
	Address   *AddressPayload `json:"address"`
	Active    *bool           `json:"active"`
}

// UpdateCustomerRequest represents the customer update payload.
// Password is optional; when present it replaces the stored hash.
type UpdateCustomerRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"omitempty,min=8"`
	Phone     string          `json:"phone" validate:"max=20"`
	TaxID     *string         `json:"tax_id" validate:"omitempty,len=11"`
	BirthDate string          `json:"birth_date"`
	Address   *AddressPayload `json:"address"`
	Active    *bool           `json:"active"`
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh and logout payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CustomerResponse is the password-free customer projection
type CustomerResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	TaxID     *string         `json:"tax_id"`
	BirthDate *string         `json:"birth_date"`
	Address   *domain.Address `json:"address"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Customer     CustomerResponse `json:"customer"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// CustomerHandler handles HTTP requests for customer operations
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// RegisterRoutes registers all customer and auth routes
func (h *CustomerHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)
		r.Post("/logout", h.Logout)
	})

	r.Route("/api/customers", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns active customers matching the search query
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", service.DefaultPerPage)

	customers, total, err := h.customerService.List(r.Context(), search, page, perPage)
	if err != nil {
		h.logger.Error("Failed to list customers", zap.Error(err))
		middleware.RespondInternalError(w, "failed to list customers", err)
		return
	}

	responses := make([]CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		responses = append(responses, toCustomerResponse(customer))
	}

	payload := NewPaginatedResponse(responses, total, page, perPage)
	middleware.RespondSuccess(w, http.StatusOK, payload, "Customers retrieved successfully")
}

// Get returns a single customer
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "customer not found")
		return
	}

	customer, err := h.customerService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			middleware.RespondError(w, http.StatusNotFound, "customer not found")
			return
		}
		h.logger.Error("Failed to get customer", zap.Error(err))
		middleware.RespondInternalError(w, "failed to get customer", err)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, toCustomerResponse(customer), "Customer retrieved successfully")
}

// Create stores a new customer
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := h.toInput(req.Name, req.Email, req.Password, req.Phone, req.TaxID, req.BirthDate, req.Address, req.Active)
	if err != nil {
		middleware.RespondValidationErrors(w, map[string][]string{
			"birth_date": {"must be a valid date in format YYYY-MM-DD"},
		})
		return
	}

	customer, err := h.customerService.Create(r.Context(), input)
	if err != nil {
		h.respondCustomerError(w, err, "failed to create customer")
		return
	}

	h.logger.Info("Customer created", zap.String("customer_id", customer.ID.String()))
	middleware.RespondSuccess(w, http.StatusCreated, toCustomerResponse(customer), "Customer created successfully")
}

// Update modifies an existing customer
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "customer not found")
		return
	}

	var req UpdateCustomerRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := h.toInput(req.Name, req.Email, req.Password, req.Phone, req.TaxID, req.BirthDate, req.Address, req.Active)
	if err != nil {
		middleware.RespondValidationErrors(w, map[string][]string{
			"birth_date": {"must be a valid date in format YYYY-MM-DD"},
		})
		return
	}

	customer, err := h.customerService.Update(r.Context(), id, input)
	if err != nil {
		h.respondCustomerError(w, err, "failed to update customer")
		return
	}

	h.logger.Info("Customer updated", zap.String("customer_id", customer.ID.String()))
	middleware.RespondSuccess(w, http.StatusOK, toCustomerResponse(customer), "Customer updated successfully")
}

// Delete removes a customer without orders
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		middleware.RespondError(w, http.StatusNotFound, "customer not found")
		return
	}

	if err := h.customerService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrCustomerHasOrders) {
			middleware.RespondError(w, http.StatusConflict, "customer has associated orders")
			return
		}
		h.respondCustomerError(w, err, "failed to delete customer")
		return
	}

	h.logger.Info("Customer deleted", zap.String("customer_id", id.String()))
	middleware.RespondSuccess(w, http.StatusOK, nil, "Customer deleted successfully")
}

// Login handles customer authentication
func (h *CustomerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accessToken, refreshToken, customer, err := h.customerService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			middleware.RespondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondInternalError(w, "failed to login", err)
		return
	}

	response := LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Customer:     toCustomerResponse(customer),
	}

	h.logger.Info("Customer logged in", zap.String("customer_id", customer.ID.String()))
	middleware.RespondSuccess(w, http.StatusOK, response, "Login successful")
}

// Logout revokes a refresh token
func (h *CustomerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.customerService.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		middleware.RespondInternalError(w, "failed to logout", err)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, nil, "Logged out successfully")
}

// RefreshToken exchanges a refresh token for a new access token
func (h *CustomerHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newAccessToken, err := h.customerService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			middleware.RespondError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		if errors.Is(err, service.ErrTokenExpired) {
			middleware.RespondError(w, http.StatusUnauthorized, "refresh token expired")
			return
		}
		h.logger.Error("Token refresh failed", zap.Error(err))
		middleware.RespondInternalError(w, "failed to refresh token", err)
		return
	}

	middleware.RespondSuccess(w, http.StatusOK, RefreshResponse{AccessToken: newAccessToken}, "Token refreshed successfully")
}

func (h *CustomerHandler) toInput(name, email, password, phone string, taxID *string, birthDate string, address *AddressPayload, active *bool) (service.CustomerInput, error) {
	input := service.CustomerInput{
		Name:     name,
		Email:    email,
		Password: password,
		Phone:    phone,
		TaxID:    taxID,
		Active:   active,
	}

	if birthDate != "" {
		parsed, err := time.Parse("2006-01-02", birthDate)
		if err != nil {
			return service.CustomerInput{}, err
		}
		input.BirthDate = &parsed
	}

	if address != nil {
		input.Address = &domain.Address{
			PostalCode:   address.PostalCode,
			Street:       address.Street,
			Number:       address.Number,
			Complement:   address.Complement,
			Neighborhood: address.Neighborhood,
			City:         address.City,
			State:        address.State,
		}
	}

	return input, nil
}

func (h *CustomerHandler) respondCustomerError(w http.ResponseWriter, err error, internalMsg string) {
	if errors.Is(err, repository.ErrCustomerNotFound) {
		middleware.RespondError(w, http.StatusNotFound, "customer not found")
		return
	}
	if validationErr, ok := service.AsValidationError(err); ok {
		middleware.RespondValidationErrors(w, validationErr.Fields)
		return
	}
	h.logger.Error(internalMsg, zap.Error(err))
	middleware.RespondInternalError(w, internalMsg, err)
}

func toCustomerResponse(customer *domain.Customer) CustomerResponse {
	var birthDate *string
	if customer.BirthDate != nil {
		formatted := customer.BirthDate.Format("2006-01-02")
		birthDate = &formatted
	}

	return CustomerResponse{
		ID:        customer.ID.String(),
		Name:      customer.Name,
		Email:     customer.Email,
		Phone:     customer.Phone,
		TaxID:     customer.TaxID,
		BirthDate: birthDate,
		Address:   customer.Address,
		Active:    customer.Active,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}
