package domain

// Catalog is the ordered seed dataset: categories in insertion order, each
// with its products in insertion order.
type Catalog struct {
	Categories []CatalogCategory `yaml:"categories" validate:"required,min=1,dive"`
}

// CatalogCategory is one category entry of a seed catalog
type CatalogCategory struct {
	Name     string           `yaml:"name" validate:"required"`
	Slug     string           `yaml:"slug" validate:"required"`
	Icon     string           `yaml:"icon"`
	Image    string           `yaml:"image" validate:"required,url"`
	Products []CatalogProduct `yaml:"products" validate:"dive"`
}

// CatalogProduct is one product entry of a seed catalog
type CatalogProduct struct {
	Name        string            `yaml:"name" validate:"required"`
	Slug        string            `yaml:"slug" validate:"required"`
	Price       float64           `yaml:"price" validate:"gte=0"`
	Stock       int               `yaml:"stock" validate:"gte=0"`
	Description string            `yaml:"description"`
	Image       string            `yaml:"image" validate:"required,url"`
	Details     map[string]string `yaml:"details"`
}

// IconOrDefault returns the category icon, falling back to DefaultCategoryIcon.
func (c CatalogCategory) IconOrDefault() string {
	if c.Icon == "" {
		return DefaultCategoryIcon
	}
	return c.Icon
}

// ProductCount returns the number of products across all categories.
func (c Catalog) ProductCount() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Products)
	}
	return n
}
