package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if c.Len() != 8 {
		t.Fatalf("expected 8 products got %d", c.Len())
	}
	apple, ok := c.Lookup("apple")
	if !ok {
		t.Fatalf("expected apple in default catalog")
	}
	if !apple.BasePrice.Equal(decimal.NewFromInt(2)) || apple.BaseDemand != 20 {
		t.Fatalf("unexpected apple entry: %+v", apple)
	}
	if got := apple.SuggestedPrice(); !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("suggested price got %s want 3", got)
	}
	if first := c.Products()[0].ID; first != "apple" {
		t.Fatalf("expected declaration order, first=%s", first)
	}
}

func TestParse(t *testing.T) {
	raw := []byte(`
products:
  - id: tea
    name: Tea
    icon: "🍵"
    base_price: "4.50"
    base_demand: 12
  - id: cake
    base_price: "12"
    base_demand: 6
`)
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tea, ok := c.Lookup("tea")
	if !ok {
		t.Fatalf("expected tea")
	}
	if !tea.BasePrice.Equal(decimal.RequireFromString("4.5")) {
		t.Fatalf("tea price got %s", tea.BasePrice)
	}
	cake, _ := c.Lookup("cake")
	if cake.Name != "cake" {
		t.Fatalf("expected name to default to id, got %q", cake.Name)
	}
}

func TestParseRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "empty", raw: "products: []", want: ErrEmptyCatalog},
		{name: "zero price", raw: "products:\n  - id: a\n    base_price: \"0\"\n    base_demand: 1\n", want: ErrInvalidProduct},
		{name: "bad price", raw: "products:\n  - id: a\n    base_price: abc\n    base_demand: 1\n", want: ErrInvalidProduct},
		{name: "no demand", raw: "products:\n  - id: a\n    base_price: \"1\"\n", want: ErrInvalidProduct},
		{name: "duplicate", raw: "products:\n  - id: a\n    base_price: \"1\"\n    base_demand: 1\n  - id: a\n    base_price: \"2\"\n    base_demand: 1\n", want: ErrDuplicateProduct},
	}
	for _, tc := range tests {
		_, err := Parse([]byte(tc.raw))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got err %v want %v", tc.name, err, tc.want)
		}
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || c.Len() != Default().Len() {
		t.Fatalf("expected built-in catalog, err=%v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("products:\n  - id: tea\n    base_price: \"3\"\n    base_demand: 10\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 product got %d", c.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
