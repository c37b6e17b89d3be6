package game

import (
	"github.com/shopspring/decimal"

	"marketsim/internal/catalog"
)

// Quote maps product id to today's supplier unit price.
type Quote map[string]decimal.Decimal

// RefreshPrices draws one fluctuation per product and returns a fresh quote.
// Prices are base * (1 + U), U in [-0.2, 0.2], floored at 1 and rounded to cents.
func RefreshPrices(cat *catalog.Catalog, rnd Rand) Quote {
	out := make(Quote, cat.Len())
	floor := decimal.NewFromInt(MinSupplierPrice)
	cat.Each(func(p catalog.Product) {
		fluctuation := (rnd.Float64() - 0.5) * 2 * PriceFluctuation
		price := p.BasePrice.Mul(decimal.NewFromFloat(1 + fluctuation))
		out[p.ID] = Cents(decimal.Max(floor, price))
	})
	return out
}

// priceFor falls back to the base price when the quote has no entry.
func (q Quote) priceFor(p catalog.Product) decimal.Decimal {
	if v, ok := q[p.ID]; ok {
		return v
	}
	return p.BasePrice
}
