package game

import (
	"github.com/shopspring/decimal"
)

type Cheat string

const CheatInfiniteMoney Cheat = "INFINITE_MONEY"

// Snapshot is a read-only copy of the session for presentation layers.
type Snapshot struct {
	SessionID      string          `json:"session_id"`
	Phase          Phase           `json:"phase"`
	Day            int             `json:"day"`
	Balance        Balance         `json:"balance"`
	DailyPurchases decimal.Decimal `json:"daily_purchases"`
	Inventory      []InventoryItem `json:"inventory"`
	ForSale        []ForSaleItem   `json:"for_sale"`
	Quote          []QuoteView     `json:"quote"`
	PendingTheft   *TheftEvent     `json:"pending_theft,omitempty"`
	Report         *DailyReport    `json:"report,omitempty"`
	Log            []LogEntry      `json:"log"`
	Cheats         []Cheat         `json:"cheats"`
}

type QuoteView struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Icon        string          `json:"icon"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Price       decimal.Decimal `json:"price"`
}

func (s Snapshot) Owned(productID string) int {
	for _, item := range s.Inventory {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func (s Snapshot) Listing(productID string) (ForSaleItem, bool) {
	for _, item := range s.ForSale {
		if item.ProductID == productID {
			return item, true
		}
	}
	return ForSaleItem{}, false
}

func (s Snapshot) Price(productID string) (decimal.Decimal, bool) {
	for _, q := range s.Quote {
		if q.ProductID == productID {
			return q.Price, true
		}
	}
	return decimal.Zero, false
}

func (s Snapshot) HasCheat(c Cheat) bool {
	for _, have := range s.Cheats {
		if have == c {
			return true
		}
	}
	return false
}
