package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moto-parts/internal/domain"
	"moto-parts/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// Token lifetimes used when the configuration does not set them
	DefaultAccessTokenExpiration  = 15 * time.Minute
	DefaultRefreshTokenExpiration = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)

// Claims represents the JWT claims issued for customer sessions
type Claims struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Email      string    `json:"email"`
	jwt.RegisteredClaims
}

// CustomerInput carries the writable customer fields. Password is the
// plaintext credential; it is hashed before it reaches the repository
// and never stored or returned as given.
type CustomerInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	TaxID     *string
	BirthDate *time.Time
	Address   *domain.Address
	Active    *bool
}

// CustomerService defines the interface for customer business logic
type CustomerService interface {
	List(ctx context.Context, search string, page, perPage int) ([]*domain.Customer, int, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	Create(ctx context.Context, input CustomerInput) (*domain.Customer, error)
	Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, customer *domain.Customer, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type customerService struct {
	customerRepo     repository.CustomerRepository
	refreshTokenRepo repository.RefreshTokenRepository
	orderRepo        repository.OrderRepository
	jwtSecret        string
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
}

// NewCustomerService creates a new instance of CustomerService. Token
// lifetimes of zero or less fall back to the defaults.
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	orderRepo repository.OrderRepository,
	jwtSecret string,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) CustomerService {
	if accessTokenTTL <= 0 {
		accessTokenTTL = DefaultAccessTokenExpiration
	}
	if refreshTokenTTL <= 0 {
		refreshTokenTTL = DefaultRefreshTokenExpiration
	}

	return &customerService{
		customerRepo:     customerRepo,
		refreshTokenRepo: refreshTokenRepo,
		orderRepo:        orderRepo,
		jwtSecret:        jwtSecret,
		accessTokenTTL:   accessTokenTTL,
		refreshTokenTTL:  refreshTokenTTL,
	}
}

// List returns active customers matching the search term with the total count
func (s *customerService) List(ctx context.Context, search string, page, perPage int) ([]*domain.Customer, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	customers, total, err := s.customerRepo.List(ctx, search, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

// Get returns a single customer by id with their orders embedded
func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByCustomer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer orders: %w", err)
	}
	customer.Orders = orders

	return customer, nil
}

// Create validates and stores a new customer with a hashed password
func (s *customerService) Create(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	if err := s.validate(ctx, input, uuid.Nil); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	now := time.Now()
	customer := &domain.Customer{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Phone:        input.Phone,
		TaxID:        input.TaxID,
		BirthDate:    input.BirthDate,
		Address:      input.Address,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, mapCustomerConstraintError(err)
	}

	return customer, nil
}

// Update validates and modifies an existing customer. Password is optional;
// when present it is re-hashed, otherwise the stored hash is kept.
func (s *customerService) Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*domain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validate(ctx, input, id); err != nil {
		return nil, err
	}

	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.TaxID = input.TaxID
	customer.BirthDate = input.BirthDate
	customer.Address = input.Address
	if input.Active != nil {
		customer.Active = *input.Active
	}

	passwordChanged := input.Password != ""
	if passwordChanged {
		hashedPassword, err := s.hashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		customer.PasswordHash = hashedPassword
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, mapCustomerConstraintError(err)
	}

	// A password change invalidates every open session.
	if passwordChanged {
		if err := s.refreshTokenRepo.RevokeAllForCustomer(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to revoke customer sessions: %w", err)
		}
	}

	return customer, nil
}

// Delete removes a customer unless orders reference them
func (s *customerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.customerRepo.CountOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check customer orders: %w", err)
	}
	if count > 0 {
		return ErrCustomerHasOrders
	}

	return s.customerRepo.Delete(ctx, id)
}

// Login authenticates a customer and returns JWT tokens
func (s *customerService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, customer *domain.Customer, err error) {
	customer, err = s.customerRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrCustomerNotFound {
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, fmt.Errorf("failed to find customer: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err = s.generateAccessToken(customer)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = s.generateRefreshToken(ctx, customer)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, customer, nil
}

// Logout invalidates the refresh token
func (s *customerService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil {
		if err == repository.ErrRefreshTokenNotFound {
			// Token doesn't exist, consider it already logged out
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RefreshToken generates a new access token using a valid refresh token
func (s *customerService) RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, err error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if err == repository.ErrRefreshTokenNotFound || err == repository.ErrRefreshTokenRevoked {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return "", ErrTokenExpired
	}

	customer, err := s.customerRepo.FindByID(ctx, refreshToken.CustomerID)
	if err != nil {
		return "", fmt.Errorf("failed to find customer: %w", err)
	}

	newAccessToken, err = s.generateAccessToken(customer)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return newAccessToken, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *customerService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *customerService) validate(ctx context.Context, input CustomerInput, excludeID uuid.UUID) error {
	validationErr := newValidationError()

	if input.BirthDate != nil && !input.BirthDate.Before(time.Now()) {
		validationErr.add("birth_date", "must be in the past")
	}

	if input.Address != nil {
		if input.Address.PostalCode != "" && len(input.Address.PostalCode) != 8 {
			validationErr.add("address.postal_code", "must be 8 characters")
		}
		if input.Address.State != "" && len(input.Address.State) != 2 {
			validationErr.add("address.state", "must be 2 characters")
		}
	}

	exists, err := s.customerRepo.ExistsByEmail(ctx, input.Email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check customer email: %w", err)
	}
	if exists {
		validationErr.add("email", "has already been taken")
	}

	if input.TaxID != nil {
		if len(*input.TaxID) != 11 {
			validationErr.add("tax_id", "must be 11 characters")
		} else {
			exists, err := s.customerRepo.ExistsByTaxID(ctx, *input.TaxID, excludeID)
			if err != nil {
				return fmt.Errorf("failed to check customer tax id: %w", err)
			}
			if exists {
				validationErr.add("tax_id", "has already been taken")
			}
		}
	}

	if validationErr.hasErrors() {
		return validationErr
	}
	return nil
}

func (s *customerService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *customerService) generateAccessToken(customer *domain.Customer) (string, error) {
	expirationTime := time.Now().Add(s.accessTokenTTL)
	claims := &Claims{
		CustomerID: customer.ID,
		Email:      customer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *customerService) generateRefreshToken(ctx context.Context, customer *domain.Customer) (string, error) {
	tokenString := uuid.New().String()

	refreshToken := &domain.RefreshToken{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		Token:      tokenString,
		ExpiresAt:  time.Now().Add(s.refreshTokenTTL),
		CreatedAt:  time.Now(),
		Revoked:    false,
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return tokenString, nil
}

// mapCustomerConstraintError converts storage-level uniqueness violations
// into field errors so a lost race still surfaces as a validation failure
func mapCustomerConstraintError(err error) error {
	switch err {
	case repository.ErrCustomerEmailTaken:
		validationErr := newValidationError()
		validationErr.add("email", "has already been taken")
		return validationErr
	case repository.ErrCustomerTaxIDTaken:
		validationErr := newValidationError()
		validationErr.add("tax_id", "has already been taken")
		return validationErr
	}
	return err
}
