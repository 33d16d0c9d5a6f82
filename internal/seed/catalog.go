package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/karmapos/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the initial data written by Seed.
type Catalog struct {
	Cashier    model.CashierInfo `yaml:"cashier"`
	QuickPrice float64           `yaml:"quick_price"`
	Sections   []SectionItems    `yaml:"sections"`
}

// SectionItems lists the items of one section.
type SectionItems struct {
	ID    string        `yaml:"id"`
	Items []CatalogItem `yaml:"items"`
}

// CatalogItem is an item without an id; ids are assigned when seeding.
type CatalogItem struct {
	Name        string  `yaml:"name"`
	Price       float64 `yaml:"price"`
	SubCategory string  `yaml:"sub_category,omitempty"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a catalog. Unknown fields are rejected.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if c.QuickPrice < 0 {
		return fmt.Errorf("quick_price must not be negative")
	}
	for i, s := range c.Sections {
		if s.ID == "" {
			return fmt.Errorf("sections[%d]: id is required", i)
		}
		for j, item := range s.Items {
			if model.Normalize(item.Name) == "" {
				return fmt.Errorf("sections[%d].items[%d]: name is required", i, j)
			}
			if item.Price < 0 {
				return fmt.Errorf("sections[%d].items[%d]: price must not be negative", i, j)
			}
		}
	}
	return nil
}

// ItemCount is the number of items across all sections.
func (c *Catalog) ItemCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Items)
	}
	return n
}
