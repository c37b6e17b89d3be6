package game

import (
	"math"

	"github.com/shopspring/decimal"

	"marketsim/internal/catalog"
)

type SaleRecord struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type DemandResult struct {
	Revenue decimal.Decimal
	Sales   []SaleRecord
}

// ResolveDemand sells listed stock against a noisy, price-sensitive demand curve
// and decrements the ledger's listings in place. Products resolve independently,
// one random draw each, in catalog order.
func ResolveDemand(l *Ledger, cat *catalog.Catalog, rnd Rand) DemandResult {
	out := DemandResult{Revenue: decimal.Zero}
	for _, item := range l.Listings() {
		p, ok := cat.Lookup(item.ProductID)
		if !ok {
			continue
		}
		sold := unitsSold(p, item, rnd.Float64())
		if sold > 0 {
			revenue := item.SellingPrice.Mul(decimal.NewFromInt(int64(sold)))
			out.Revenue = out.Revenue.Add(revenue)
			out.Sales = append(out.Sales, SaleRecord{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    sold,
				Revenue:     revenue,
			})
		}
		l.setListed(item.ProductID, item.Quantity-sold)
	}
	return out
}

func unitsSold(p catalog.Product, item ForSaleItem, draw float64) int {
	price := item.SellingPrice.InexactFloat64()
	if price <= 0 || item.Quantity <= 0 {
		return 0
	}
	attractiveness := p.BasePrice.InexactFloat64() * ListingMarkup / price
	potential := p.BaseDemand * attractiveness * (DemandVarianceLow + draw*DemandVarianceSpan)
	sold := math.Floor(potential)
	if sold <= 0 || math.IsNaN(sold) {
		return 0
	}
	if sold >= float64(item.Quantity) {
		return item.Quantity
	}
	return int(sold)
}
