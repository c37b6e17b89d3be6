package game

import (
	"errors"
	mathrand "math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"marketsim/internal/catalog"
)

func TestLedgerPurchaseValidation(t *testing.T) {
	l := NewLedger(catalog.Default())
	if err := l.Purchase("apple", 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := l.Purchase("caviar", 1); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
	if err := l.Purchase("apple", 3); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if err := l.Purchase("apple", 2); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := l.Owned("apple"); got != 5 {
		t.Fatalf("owned got=%d want=5", got)
	}
}

func TestLedgerListForSale(t *testing.T) {
	tests := []struct {
		name       string
		owned      int
		qty        int
		price      string
		wantListed int
		wantOwned  int
	}{
		{name: "partial", owned: 10, qty: 4, price: "3", wantListed: 4, wantOwned: 6},
		{name: "clamped to owned", owned: 5, qty: 9, price: "3", wantListed: 5, wantOwned: 0},
		{name: "zero quantity", owned: 5, qty: 0, price: "3", wantListed: 0, wantOwned: 5},
		{name: "zero price", owned: 5, qty: 2, price: "0", wantListed: 0, wantOwned: 5},
		{name: "negative price", owned: 5, qty: 2, price: "-1", wantListed: 0, wantOwned: 5},
		{name: "nothing owned", owned: 0, qty: 2, price: "3", wantListed: 0, wantOwned: 0},
	}
	for _, tc := range tests {
		l := NewLedger(catalog.Default())
		if tc.owned > 0 {
			if err := l.Purchase("bread", tc.owned); err != nil {
				t.Fatalf("%s: purchase: %v", tc.name, err)
			}
		}
		got := l.ListForSale("bread", tc.qty, dec(tc.price))
		if got != tc.wantListed {
			t.Fatalf("%s: listed got=%d want=%d", tc.name, got, tc.wantListed)
		}
		if l.Owned("bread") != tc.wantOwned {
			t.Fatalf("%s: owned got=%d want=%d", tc.name, l.Owned("bread"), tc.wantOwned)
		}
		item, ok := l.Listed("bread")
		if tc.wantListed == 0 && ok {
			t.Fatalf("%s: expected no listing, got %+v", tc.name, item)
		}
		if l.Total("bread") != tc.owned {
			t.Fatalf("%s: total got=%d want=%d", tc.name, l.Total("bread"), tc.owned)
		}
	}
}

func TestLedgerRelistOverwritesPrice(t *testing.T) {
	l := NewLedger(catalog.Default())
	if err := l.Purchase("milk", 10); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	l.ListForSale("milk", 3, dec("20"))
	l.ListForSale("milk", 2, dec("25"))
	item, ok := l.Listed("milk")
	if !ok {
		t.Fatalf("expected milk listing")
	}
	if item.Quantity != 5 || !item.SellingPrice.Equal(dec("25")) {
		t.Fatalf("unexpected listing %+v", item)
	}
	if l.Owned("milk") != 5 {
		t.Fatalf("owned got=%d want=5", l.Owned("milk"))
	}
}

func TestLedgerReturnListings(t *testing.T) {
	l := NewLedger(catalog.Default())
	_ = l.Purchase("egg", 6)
	_ = l.Purchase("soda", 2)
	l.ListForSale("egg", 4, dec("5"))
	l.ListForSale("soda", 2, dec("15"))
	if moved := l.ReturnListings(); moved != 6 {
		t.Fatalf("moved got=%d want=6", moved)
	}
	if len(l.Listings()) != 0 {
		t.Fatalf("expected listings cleared")
	}
	if l.Owned("egg") != 6 || l.Owned("soda") != 2 {
		t.Fatalf("unexpected owned egg=%d soda=%d", l.Owned("egg"), l.Owned("soda"))
	}
}

func TestLedgerSteal(t *testing.T) {
	tests := []struct {
		name       string
		owned      int
		listed     int
		steal      int
		wantTaken  int
		wantOwned  int
		wantListed int
	}{
		{name: "listing covers", owned: 6, listed: 4, steal: 3, wantTaken: 3, wantOwned: 6, wantListed: 1},
		{name: "shortfall from owned", owned: 6, listed: 2, steal: 5, wantTaken: 5, wantOwned: 3, wantListed: 0},
		{name: "owned only", owned: 6, listed: 0, steal: 2, wantTaken: 2, wantOwned: 4, wantListed: 0},
		{name: "floors at zero", owned: 1, listed: 1, steal: 5, wantTaken: 2, wantOwned: 0, wantListed: 0},
		{name: "zero request", owned: 3, listed: 3, steal: 0, wantTaken: 0, wantOwned: 3, wantListed: 3},
	}
	for _, tc := range tests {
		l := NewLedger(catalog.Default())
		if err := l.Purchase("cheese", tc.owned+tc.listed); err != nil {
			t.Fatalf("%s: purchase: %v", tc.name, err)
		}
		l.ListForSale("cheese", tc.listed, dec("50"))
		if got := l.Steal("cheese", tc.steal); got != tc.wantTaken {
			t.Fatalf("%s: taken got=%d want=%d", tc.name, got, tc.wantTaken)
		}
		if l.Owned("cheese") != tc.wantOwned {
			t.Fatalf("%s: owned got=%d want=%d", tc.name, l.Owned("cheese"), tc.wantOwned)
		}
		item, ok := l.Listed("cheese")
		if item.Quantity != tc.wantListed {
			t.Fatalf("%s: listed got=%d want=%d", tc.name, item.Quantity, tc.wantListed)
		}
		if tc.wantListed == 0 && ok {
			t.Fatalf("%s: empty listing must be removed", tc.name)
		}
	}
}

func TestLedgerConservesUnitsAcrossListing(t *testing.T) {
	cat := catalog.Default()
	l := NewLedger(cat)
	rnd := mathrand.New(mathrand.NewSource(7))
	bought := make(map[string]int)
	products := cat.Products()
	for i := 0; i < 300; i++ {
		p := products[rnd.Intn(len(products))]
		switch rnd.Intn(3) {
		case 0:
			n := 1 + rnd.Intn(10)
			if err := l.Purchase(p.ID, n); err != nil {
				t.Fatalf("purchase: %v", err)
			}
			bought[p.ID] += n
		case 1:
			l.ListForSale(p.ID, rnd.Intn(12), decimal.NewFromInt(int64(1+rnd.Intn(50))))
		default:
			l.ReturnListings()
		}
		for _, q := range products {
			if l.Total(q.ID) != bought[q.ID] {
				t.Fatalf("step %d: %s total=%d bought=%d", i, q.ID, l.Total(q.ID), bought[q.ID])
			}
			if l.Owned(q.ID) < 0 {
				t.Fatalf("step %d: %s owned negative", i, q.ID)
			}
		}
	}
}

func TestLedgerViewsFollowCatalogOrder(t *testing.T) {
	l := NewLedger(catalog.Default())
	_ = l.Purchase("soda", 1)
	_ = l.Purchase("apple", 1)
	_ = l.Purchase("milk", 1)
	inv := l.Inventory()
	want := []string{"apple", "milk", "soda"}
	if len(inv) != len(want) {
		t.Fatalf("inventory got=%d want=%d", len(inv), len(want))
	}
	for i, id := range want {
		if inv[i].ProductID != id {
			t.Fatalf("inventory[%d] got=%s want=%s", i, inv[i].ProductID, id)
		}
	}
}
