package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products in the catalog
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Slug        string    `json:"slug" db:"slug"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// ProductCount is populated on single-category reads only
	ProductCount *int `json:"products_count,omitempty" db:"-"`
}
