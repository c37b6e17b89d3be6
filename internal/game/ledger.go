package game

import (
	"github.com/shopspring/decimal"

	"marketsim/internal/catalog"
)

type InventoryItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ForSaleItem struct {
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// Ledger tracks owned stock and for-sale listings per product. Entries are
// deleted as soon as their quantity reaches zero.
type Ledger struct {
	cat     *catalog.Catalog
	owned   map[string]int
	listing map[string]ForSaleItem
}

func NewLedger(cat *catalog.Catalog) *Ledger {
	return &Ledger{
		cat:     cat,
		owned:   make(map[string]int),
		listing: make(map[string]ForSaleItem),
	}
}

// Purchase adds quantity to owned stock. Funds are the caller's concern.
func (l *Ledger) Purchase(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, ok := l.cat.Lookup(productID); !ok {
		return ErrUnknownProduct
	}
	l.owned[productID] += quantity
	return nil
}

// ListForSale moves up to quantity owned units into the product's listing and
// overwrites its price. Requests above the owned amount are clamped; non-positive
// quantity or price is a no-op. It returns the number of units moved.
func (l *Ledger) ListForSale(productID string, quantity int, price decimal.Decimal) int {
	if quantity <= 0 || !price.IsPositive() {
		return 0
	}
	if owned := l.owned[productID]; quantity > owned {
		quantity = owned
	}
	if quantity <= 0 {
		return 0
	}
	l.setOwned(productID, l.owned[productID]-quantity)
	item := l.listing[productID]
	item.ProductID = productID
	item.Quantity += quantity
	item.SellingPrice = price
	l.listing[productID] = item
	return quantity
}

// ReturnListings moves every listed unit back to owned stock and clears listings.
// It returns the number of units moved.
func (l *Ledger) ReturnListings() int {
	moved := 0
	for id, item := range l.listing {
		l.owned[id] += item.Quantity
		moved += item.Quantity
	}
	l.listing = make(map[string]ForSaleItem)
	return moved
}

// Steal removes n units of a product, listed stock first, then owned stock.
// Neither side goes below zero. It returns the number of units actually removed.
func (l *Ledger) Steal(productID string, n int) int {
	if n <= 0 {
		return 0
	}
	taken := 0
	if item, ok := l.listing[productID]; ok {
		if item.Quantity >= n {
			l.setListed(productID, item.Quantity-n)
			return n
		}
		taken = item.Quantity
		delete(l.listing, productID)
	}
	remaining := n - taken
	owned := l.owned[productID]
	if remaining > owned {
		remaining = owned
	}
	l.setOwned(productID, owned-remaining)
	return taken + remaining
}

func (l *Ledger) Owned(productID string) int {
	return l.owned[productID]
}

func (l *Ledger) Listed(productID string) (ForSaleItem, bool) {
	item, ok := l.listing[productID]
	return item, ok
}

// Total is owned plus listed units for a product.
func (l *Ledger) Total(productID string) int {
	return l.owned[productID] + l.listing[productID].Quantity
}

func (l *Ledger) HasStock() bool {
	for _, q := range l.owned {
		if q > 0 {
			return true
		}
	}
	for _, item := range l.listing {
		if item.Quantity > 0 {
			return true
		}
	}
	return false
}

// Inventory returns owned stock in catalog order.
func (l *Ledger) Inventory() []InventoryItem {
	out := make([]InventoryItem, 0, len(l.owned))
	l.cat.Each(func(p catalog.Product) {
		if q := l.owned[p.ID]; q > 0 {
			out = append(out, InventoryItem{ProductID: p.ID, Quantity: q})
		}
	})
	return out
}

// Listings returns for-sale stock in catalog order.
func (l *Ledger) Listings() []ForSaleItem {
	out := make([]ForSaleItem, 0, len(l.listing))
	l.cat.Each(func(p catalog.Product) {
		if item, ok := l.listing[p.ID]; ok && item.Quantity > 0 {
			out = append(out, item)
		}
	})
	return out
}

func (l *Ledger) setOwned(productID string, q int) {
	if q <= 0 {
		delete(l.owned, productID)
		return
	}
	l.owned[productID] = q
}

func (l *Ledger) setListed(productID string, q int) {
	if q <= 0 {
		delete(l.listing, productID)
		return
	}
	item := l.listing[productID]
	item.Quantity = q
	l.listing[productID] = item
}
