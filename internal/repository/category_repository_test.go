package repository

import (
	"context"
	"testing"
	"time"

	"moto-parts/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func seedCategory(t *testing.T, name, slug string, active bool) *domain.Category {
	t.Helper()
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Active:    active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := NewCategoryRepository(testDB).Create(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category %q: %v", name, err)
	}
	return category
}

func TestCategoryRepository_CreateAndFind(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        "Brake Pads",
		Description: "Front and rear brake pads",
		Slug:        "brake-pads",
		Active:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := repo.Create(ctx, category); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	retrieved, err := repo.FindByID(ctx, category.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if retrieved.Name != category.Name || retrieved.Slug != category.Slug {
		t.Errorf("retrieved category does not match: got %q/%q, want %q/%q",
			retrieved.Name, retrieved.Slug, category.Name, category.Slug)
	}
	if !retrieved.Active {
		t.Error("expected category to be active")
	}
}

func TestCategoryRepository_FindByID_NotFound(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	if err != ErrCategoryNotFound {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestCategoryRepository_DuplicateName(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	seedCategory(t, "Exhausts", "exhausts", true)

	duplicate := &domain.Category{
		ID:        uuid.New(),
		Name:      "Exhausts",
		Slug:      "exhausts-2",
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repo.Create(ctx, duplicate); err != ErrCategoryNameTaken {
		t.Errorf("expected ErrCategoryNameTaken, got %v", err)
	}
}

func TestCategoryRepository_DuplicateSlug(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	seedCategory(t, "Filters", "filters", true)

	duplicate := &domain.Category{
		ID:        uuid.New(),
		Name:      "Air Filters",
		Slug:      "filters",
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repo.Create(ctx, duplicate); err != ErrCategorySlugTaken {
		t.Errorf("expected ErrCategorySlugTaken, got %v", err)
	}
}

func TestCategoryRepository_List_ActiveFirstThenName(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)

	seedCategory(t, "Zeta Parts", "zeta-parts", true)
	seedCategory(t, "Alpha Parts", "alpha-parts", false)
	seedCategory(t, "Mid Parts", "mid-parts", true)

	categories, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(categories))
	}

	want := []string{"Mid Parts", "Zeta Parts", "Alpha Parts"}
	for i, name := range want {
		if categories[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, categories[i].Name)
		}
	}
}

func TestCategoryRepository_ExistsByName(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	existing := seedCategory(t, "Suspension", "suspension", true)

	exists, err := repo.ExistsByName(ctx, "Suspension", uuid.Nil)
	if err != nil {
		t.Fatalf("ExistsByName failed: %v", err)
	}
	if !exists {
		t.Error("expected name to exist")
	}

	// Excluding the owning record itself must report available
	exists, err = repo.ExistsByName(ctx, "Suspension", existing.ID)
	if err != nil {
		t.Fatalf("ExistsByName with exclusion failed: %v", err)
	}
	if exists {
		t.Error("expected name to be available when excluding its own record")
	}
}

func TestCategoryRepository_CountProducts(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	category := seedCategory(t, "Tires", "tires", true)
	seedProduct(t, category.ID, "TIRE-001", 10)
	seedProduct(t, category.ID, "TIRE-002", 5)

	count, err := repo.CountProducts(ctx, category.ID)
	if err != nil {
		t.Fatalf("CountProducts failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 products, got %d", count)
	}
}

func TestCategoryRepository_Delete(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	category := seedCategory(t, "Mirrors", "mirrors", true)

	if err := repo.Delete(ctx, category.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, category.ID); err != ErrCategoryNotFound {
		t.Errorf("expected ErrCategoryNotFound after delete, got %v", err)
	}
}

func TestProperty_CategoryRoundTripPreservesAttributes(t *testing.T) {
	truncateAll(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a category preserves all attributes", prop.ForAll(
		func(name string, description string, slugValue string, active bool) bool {
			category := &domain.Category{
				ID:          uuid.New(),
				Name:        name + "-" + uuid.New().String(),
				Description: description,
				Slug:        slugValue + "-" + uuid.New().String(),
				Active:      active,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}

			if err := repo.Create(ctx, category); err != nil {
				t.Logf("FAIL: Failed to create category: %v", err)
				return false
			}

			retrieved, err := repo.FindByID(ctx, category.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve category: %v", err)
				return false
			}

			ok := retrieved.Name == category.Name &&
				retrieved.Description == category.Description &&
				retrieved.Slug == category.Slug &&
				retrieved.Active == category.Active
			if !ok {
				t.Logf("FAIL: Attribute mismatch for category %s", category.ID)
			}

			_ = repo.Delete(ctx, category.ID)
			return ok
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,40}`),
		gen.RegexMatch(`[A-Za-z0-9 .,]{0,200}`),
		gen.RegexMatch(`[a-z0-9-]{3,40}`),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
