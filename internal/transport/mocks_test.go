package transport

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"moto-parts/internal/domain"
	"moto-parts/internal/repository"

	"github.com/google/uuid"
)

// In-memory repositories backing the handler tests

type mockCategoryRepository struct {
	categories    map[uuid.UUID]*domain.Category
	productCounts map[uuid.UUID]int
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories:    make(map[uuid.UUID]*domain.Category),
		productCounts: make(map[uuid.UUID]int),
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, existing := range m.categories {
		if existing.Name == category.Name {
			return repository.ErrCategoryNameTaken
		}
		if existing.Slug == category.Slug {
			return repository.ErrCategorySlugTaken
		}
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	result := make([]*domain.Category, 0, len(m.categories))
	for _, category := range m.categories {
		copied := *category
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Active != result[j].Active {
			return result[i].Active
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *mockCategoryRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	for id, category := range m.categories {
		if id != excludeID && category.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	return m.productCounts[id], nil
}

type mockProductRepository struct {
	products        map[uuid.UUID]*domain.Product
	orderItemCounts map[uuid.UUID]int
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products:        make(map[uuid.UUID]*domain.Product),
		orderItemCounts: make(map[uuid.UUID]int),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	for _, existing := range m.products {
		if existing.ProductCode == product.ProductCode {
			return repository.ErrProductCodeTaken
		}
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	if m.orderItemCounts[id] > 0 {
		return repository.ErrProductInUse
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	matches := make([]*domain.Product, 0)
	for _, product := range m.products {
		if !product.Active {
			continue
		}
		if filter.CategoryID != nil && product.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Brand != "" && !strings.Contains(strings.ToLower(product.Brand), strings.ToLower(filter.Brand)) {
			continue
		}
		if filter.InStock && product.StockQuantity <= 0 {
			continue
		}
		copied := *product
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := len(matches)
	start := (filter.Page - 1) * filter.PerPage
	if start > total {
		start = total
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (m *mockProductRepository) ExistsByCode(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	for id, product := range m.products {
		if id != excludeID && product.ProductCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProductRepository) CountOrderItems(ctx context.Context, id uuid.UUID) (int, error) {
	return m.orderItemCounts[id], nil
}

func (m *mockProductRepository) SetStock(ctx context.Context, id uuid.UUID, quantity int) error {
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.StockQuantity = quantity
	return nil
}

func (m *mockProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if product.StockQuantity+delta < 0 {
		return repository.ErrInsufficientStock
	}
	product.StockQuantity += delta
	return nil
}

type mockCustomerRepository struct {
	customers   map[uuid.UUID]*domain.Customer
	orderCounts map[uuid.UUID]int
}

func newMockCustomerRepository() *mockCustomerRepository {
	return &mockCustomerRepository{
		customers:   make(map[uuid.UUID]*domain.Customer),
		orderCounts: make(map[uuid.UUID]int),
	}
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	for _, existing := range m.customers {
		if existing.Email == customer.Email {
			return repository.ErrCustomerEmailTaken
		}
		if existing.TaxID != nil && customer.TaxID != nil && *existing.TaxID == *customer.TaxID {
			return repository.ErrCustomerTaxIDTaken
		}
	}
	copied := *customer
	m.customers[customer.ID] = &copied
	return nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	if _, ok := m.customers[customer.ID]; !ok {
		return repository.ErrCustomerNotFound
	}
	copied := *customer
	m.customers[customer.ID] = &copied
	return nil
}

func (m *mockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.customers[id]; !ok {
		return repository.ErrCustomerNotFound
	}
	delete(m.customers, id)
	return nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, ok := m.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	copied := *customer
	return &copied, nil
}

func (m *mockCustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	for _, customer := range m.customers {
		if customer.Email == email {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, repository.ErrCustomerNotFound
}

func (m *mockCustomerRepository) List(ctx context.Context, search string, page, perPage int) ([]*domain.Customer, int, error) {
	matches := make([]*domain.Customer, 0)
	for _, customer := range m.customers {
		if !customer.Active {
			continue
		}
		if search != "" {
			needle := strings.ToLower(search)
			if !strings.Contains(strings.ToLower(customer.Name), needle) &&
				!strings.Contains(strings.ToLower(customer.Email), needle) {
				continue
			}
		}
		copied := *customer
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := len(matches)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (m *mockCustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	for id, customer := range m.customers {
		if id != excludeID && customer.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCustomerRepository) ExistsByTaxID(ctx context.Context, taxID string, excludeID uuid.UUID) (bool, error) {
	for id, customer := range m.customers {
		if id != excludeID && customer.TaxID != nil && *customer.TaxID == taxID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCustomerRepository) CountOrders(ctx context.Context, id uuid.UUID) (int, error) {
	return m.orderCounts[id], nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForCustomer(ctx context.Context, customerID uuid.UUID) error {
	for _, refreshToken := range m.tokens {
		if refreshToken.CustomerID == customerID {
			refreshToken.Revoked = true
		}
	}
	return nil
}

// mockOrderRepository mirrors the stock movement of the real transaction
type mockOrderRepository struct {
	orders   map[uuid.UUID]*domain.Order
	products *mockProductRepository
}

func newMockOrderRepository(products *mockProductRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:   make(map[uuid.UUID]*domain.Order),
		products: products,
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	for _, existing := range m.orders {
		if existing.OrderNumber == order.OrderNumber {
			return repository.ErrOrderNumberTaken
		}
	}
	for _, item := range order.Items {
		product, ok := m.products.products[item.ProductID]
		if !ok {
			return repository.ErrProductNotFound
		}
		if product.StockQuantity < item.Quantity {
			return repository.ErrInsufficientStock
		}
	}
	for _, item := range order.Items {
		m.products.products[item.ProductID].StockQuantity -= item.Quantity
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	for _, item := range order.Items {
		if product, ok := m.products.products[item.ProductID]; ok {
			product.StockQuantity += item.Quantity
		}
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	matches := make([]*domain.Order, 0)
	for _, order := range m.orders {
		if filter.CustomerID != nil && order.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		copied := *order
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })

	total := len(matches)
	start := (filter.Page - 1) * filter.PerPage
	if start > total {
		start = total
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (m *mockOrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	matches := make([]*domain.Order, 0)
	for _, order := range m.orders {
		if order.CustomerID != customerID {
			continue
		}
		copied := *order
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return matches, nil
}

func (m *mockOrderRepository) MaxOrderSequence(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("PED-%d-", year)
	max := 0
	for _, order := range m.orders {
		if !strings.HasPrefix(order.OrderNumber, prefix) {
			continue
		}
		// Only the generated 6-digit shape participates in the sequence
		suffix := order.OrderNumber[len(prefix):]
		if len(suffix) != 6 {
			continue
		}
		seq, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}
