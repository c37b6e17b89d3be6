package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyCatalog     = errors.New("catalog has no products")
	ErrDuplicateProduct = errors.New("duplicate product id")
	ErrInvalidProduct   = errors.New("invalid product")
)

// Product is a static catalog entry. Values are never mutated after load.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	BasePrice  decimal.Decimal `json:"base_price"`
	BaseDemand float64         `json:"base_demand"`
}

// SuggestedPrice is the listing price at which demand is neither boosted nor damped.
func (p Product) SuggestedPrice() decimal.Decimal {
	return p.BasePrice.Mul(decimal.NewFromFloat(1.5)).Round(2)
}

// Catalog keeps products in declaration order and indexes them by id.
type Catalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" {
			return nil, fmt.Errorf("%w: missing id", ErrInvalidProduct)
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if !p.BasePrice.IsPositive() {
			return nil, fmt.Errorf("%w: %s base price must be > 0", ErrInvalidProduct, p.ID)
		}
		if p.BaseDemand <= 0 {
			return nil, fmt.Errorf("%w: %s base demand must be > 0", ErrInvalidProduct, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Default returns the built-in corner-shop catalog.
func Default() *Catalog {
	c, err := New([]Product{
		{ID: "apple", Name: "Apple", Icon: "🍎", BasePrice: decimal.NewFromInt(2), BaseDemand: 20},
		{ID: "bread", Name: "Bread", Icon: "🍞", BasePrice: decimal.NewFromInt(5), BaseDemand: 30},
		{ID: "milk", Name: "Milk", Icon: "🥛", BasePrice: decimal.NewFromInt(15), BaseDemand: 25},
		{ID: "cheese", Name: "Cheese", Icon: "🧀", BasePrice: decimal.NewFromInt(40), BaseDemand: 15},
		{ID: "water", Name: "Water", Icon: "💧", BasePrice: decimal.NewFromInt(1), BaseDemand: 40},
		{ID: "chocolate", Name: "Chocolate", Icon: "🍫", BasePrice: decimal.NewFromInt(8), BaseDemand: 18},
		{ID: "egg", Name: "Egg", Icon: "🥚", BasePrice: decimal.NewFromInt(3), BaseDemand: 28},
		{ID: "soda", Name: "Soda", Icon: "🥤", BasePrice: decimal.NewFromInt(10), BaseDemand: 22},
	})
	if err != nil {
		panic(err)
	}
	return c
}

type fileFormat struct {
	Products []struct {
		ID         string  `yaml:"id"`
		Name       string  `yaml:"name"`
		Icon       string  `yaml:"icon"`
		BasePrice  string  `yaml:"base_price"`
		BaseDemand float64 `yaml:"base_demand"`
	} `yaml:"products"`
}

// Parse decodes a YAML catalog document of the form
//
//	products:
//	  - id: apple
//	    name: Apple
//	    base_price: "2.00"
//	    base_demand: 20
func Parse(raw []byte) (*Catalog, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	products := make([]Product, 0, len(doc.Products))
	for _, row := range doc.Products {
		price, err := decimal.NewFromString(strings.TrimSpace(row.BasePrice))
		if err != nil {
			return nil, fmt.Errorf("%w: %s base price %q", ErrInvalidProduct, row.ID, row.BasePrice)
		}
		products = append(products, Product{
			ID:         row.ID,
			Name:       row.Name,
			Icon:       row.Icon,
			BasePrice:  price,
			BaseDemand: row.BaseDemand,
		})
	}
	return New(products)
}

// Load reads the catalog at path, or returns the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Products returns a copy of the catalog in declaration order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Lookup(id string) (Product, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[idx], true
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Each visits products in declaration order.
func (c *Catalog) Each(fn func(Product)) {
	for _, p := range c.products {
		fn(p)
	}
}
