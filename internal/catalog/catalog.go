// Package catalog loads and validates seed catalogs.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"toy-catalog/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed christmas.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

var validate = validator.New()

// Default returns the embedded Christmas toy catalog.
func Default() (*domain.Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file. An empty path selects the
// embedded catalog.
func Load(path string) (*domain.Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*domain.Catalog, error) {
	var c domain.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if err := Validate(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks field constraints and slug uniqueness.
func Validate(c *domain.Catalog) error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidCatalog, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	categorySlugs := make(map[string]bool)
	productSlugs := make(map[string]bool)
	for _, cat := range c.Categories {
		if categorySlugs[cat.Slug] {
			return fmt.Errorf("%w: duplicate category slug %q", ErrInvalidCatalog, cat.Slug)
		}
		categorySlugs[cat.Slug] = true

		for _, p := range cat.Products {
			if productSlugs[p.Slug] {
				return fmt.Errorf("%w: duplicate product slug %q", ErrInvalidCatalog, p.Slug)
			}
			productSlugs[p.Slug] = true
		}
	}

	return nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %q", e.Namespace(), e.Tag()))
	}
	return strings.Join(msgs, "; ")
}
