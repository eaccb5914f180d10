package domain

import (
	"time"
)

// Collection names shared by the seeder and the read API.
const (
	CategoriesCollection = "categories"
	ProductsCollection   = "products"
)

// DefaultCategoryIcon is used when a catalog entry has no icon.
const DefaultCategoryIcon = "🎁"

// Category represents a stored category document
type Category struct {
	ID        string    `json:"id" mapstructure:"-"`
	Name      string    `json:"name" mapstructure:"name"`
	Slug      string    `json:"slug" mapstructure:"slug"`
	Icon      string    `json:"icon" mapstructure:"icon"`
	ImageURL  string    `json:"imageUrl" mapstructure:"imageUrl"`
	CreatedAt time.Time `json:"createdAt" mapstructure:"createdAt"`
}

// Product represents a stored product document. CategoryID and CategorySlug
// are copied from the owning category when the product is written.
type Product struct {
	ID             string            `json:"id" mapstructure:"-"`
	CategoryID     string            `json:"categoryId" mapstructure:"categoryId"`
	CategorySlug   string            `json:"categorySlug" mapstructure:"categorySlug"`
	Name           string            `json:"name" mapstructure:"name"`
	Slug           string            `json:"slug" mapstructure:"slug"`
	Price          float64           `json:"price" mapstructure:"price"`
	Stock          int               `json:"stock" mapstructure:"stock"`
	Description    string            `json:"description" mapstructure:"description"`
	ImageURL       string            `json:"imageUrl" mapstructure:"imageUrl"`
	Specifications map[string]string `json:"specifications,omitempty" mapstructure:"specifications"`
	CreatedAt      time.Time         `json:"createdAt" mapstructure:"createdAt"`
}
