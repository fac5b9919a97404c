package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImageList is an ordered list of image URLs stored as a jsonb column
type ImageList []string

// Value implements driver.Valuer for jsonb storage
func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for jsonb storage
func (l *ImageList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into ImageList", src)
	}
}

// Product represents a part in the catalog
type Product struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	ProductCode     string          `json:"product_code" db:"product_code"`
	Price           decimal.Decimal `json:"price" db:"price"`
	StockQuantity   int             `json:"stock_quantity" db:"stock_quantity"`
	Brand           string          `json:"brand" db:"brand"`
	VehicleModel    string          `json:"vehicle_model" db:"vehicle_model"`
	ManufactureYear *int            `json:"manufacture_year" db:"manufacture_year"`
	Images          ImageList       `json:"images" db:"images"`
	CategoryID      uuid.UUID       `json:"category_id" db:"category_id"`
	Active          bool            `json:"active" db:"active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	// Category is populated by read paths that join the owning category
	Category *Category `json:"category,omitempty" db:"-"`
}
