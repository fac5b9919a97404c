package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moto-parts/internal/domain"
	"moto-parts/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// testEnvelope mirrors the response wrapper for assertions. Data stays
// raw so each test can decode it into the expected shape.
type testEnvelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

type testEnv struct {
	router       chi.Router
	categoryRepo *mockCategoryRepository
	productRepo  *mockProductRepository
	customerRepo *mockCustomerRepository
	orderRepo    *mockOrderRepository
}

func newTestEnv() *testEnv {
	logger := zap.NewNop()

	categoryRepo := newMockCategoryRepository()
	productRepo := newMockProductRepository()
	customerRepo := newMockCustomerRepository()
	refreshTokenRepo := newMockRefreshTokenRepository()
	orderRepo := newMockOrderRepository(productRepo)

	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	customerService := service.NewCustomerService(customerRepo, refreshTokenRepo, orderRepo, "test-secret", 0, 0)
	orderService := service.NewOrderService(orderRepo, customerRepo, productRepo)

	// Handlers are exercised without token checks; auth middleware has
	// its own tests
	passthrough := func(next http.Handler) http.Handler { return next }

	router := chi.NewRouter()
	NewCategoryHandler(categoryService, logger).RegisterRoutes(router, passthrough)
	NewProductHandler(productService, logger).RegisterRoutes(router, passthrough)
	NewCustomerHandler(customerService, logger).RegisterRoutes(router, passthrough)
	NewOrderHandler(orderService, logger).RegisterRoutes(router, passthrough)

	return &testEnv{
		router:       router,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) envelope(t *testing.T, w *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var envelope testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response body is not a valid envelope: %v", err)
	}
	return envelope
}

func (e *testEnv) seedCategory(t *testing.T, name, slug string) *domain.Category {
	t.Helper()

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := e.categoryRepo.Create(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	return category
}

func (e *testEnv) seedProduct(t *testing.T, categoryID uuid.UUID, code string, stock int) *domain.Product {
	t.Helper()

	product := &domain.Product{
		ID:            uuid.New(),
		Name:          "Brake Pad " + code,
		ProductCode:   code,
		Price:         decimal.NewFromFloat(89.90),
		StockQuantity: stock,
		Brand:         "Cobreq",
		CategoryID:    categoryID,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := e.productRepo.Create(context.Background(), product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func (e *testEnv) seedCustomer(t *testing.T, email, password string) *domain.Customer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), service.BcryptCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	customer := &domain.Customer{
		ID:           uuid.New(),
		Name:         "Carlos Oliveira",
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := e.customerRepo.Create(context.Background(), customer); err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return customer
}
