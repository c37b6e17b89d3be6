package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"marketsim/internal/catalog"
)

// StockSource says which side of the ledger a theft target was drawn from.
type StockSource string

const (
	SourceOwned  StockSource = "owned"
	SourceListed StockSource = "listed"
)

type TheftChoice string

const (
	ChoiceCatch TheftChoice = "catch"
	ChoiceLetGo TheftChoice = "let_go"
)

func ParseTheftChoice(s string) (TheftChoice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "catch", "c":
		return ChoiceCatch, nil
	case "let_go", "letgo", "let-go", "go", "g":
		return ChoiceLetGo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
}

// TheftEvent is a pending break-in. Quantity is at risk, not yet removed.
type TheftEvent struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Source      StockSource `json:"source"`
	Quantity    int         `json:"quantity"`
}

type TheftOutcome struct {
	EventID     string      `json:"event_id"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Choice      TheftChoice `json:"choice"`
	Caught      bool        `json:"caught"`
	AtRisk      int         `json:"at_risk"`
	Stolen      int         `json:"stolen"`
}

type stockEntry struct {
	productID string
	source    StockSource
	quantity  int
}

// theftPool lists every positive stock entry: owned items first, then listings,
// each in catalog order. A product held on both sides appears twice.
func theftPool(l *Ledger) []stockEntry {
	var pool []stockEntry
	for _, item := range l.Inventory() {
		pool = append(pool, stockEntry{productID: item.ProductID, source: SourceOwned, quantity: item.Quantity})
	}
	for _, item := range l.Listings() {
		pool = append(pool, stockEntry{productID: item.ProductID, source: SourceListed, quantity: item.Quantity})
	}
	return pool
}

// RollTheft decides whether a thief shows up tonight and what they target. It
// returns nil when no thief comes. Nothing is drawn when the shop holds no
// stock, so a triggered thief always has a target.
func RollTheft(l *Ledger, cat *catalog.Catalog, rnd Rand) *TheftEvent {
	pool := theftPool(l)
	if len(pool) == 0 {
		return nil
	}
	if rnd.Float64() >= TheftChance {
		return nil
	}
	idx := int(rnd.Float64() * float64(len(pool)))
	if idx >= len(pool) {
		idx = len(pool) - 1
	}
	target := pool[idx]
	name := "Unknown product"
	if p, ok := cat.Lookup(target.productID); ok {
		name = p.Name
	}
	return &TheftEvent{
		ID:          uuid.NewString(),
		ProductID:   target.productID,
		ProductName: name,
		Source:      target.source,
		Quantity:    atRisk(target.quantity),
	}
}

// ResolveTheft applies the player's choice to the ledger. A catch attempt draws
// once at resolution time.
func ResolveTheft(l *Ledger, ev TheftEvent, choice TheftChoice, rnd Rand) (TheftOutcome, error) {
	out := TheftOutcome{
		EventID:     ev.ID,
		ProductID:   ev.ProductID,
		ProductName: ev.ProductName,
		Choice:      choice,
		AtRisk:      ev.Quantity,
	}
	stolen := 0
	switch choice {
	case ChoiceCatch:
		if rnd.Float64() < CatchChance {
			out.Caught = true
		} else {
			stolen = ev.Quantity
		}
	case ChoiceLetGo:
		stolen = LetGoLoss(ev.Quantity)
	default:
		return TheftOutcome{}, fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}
	if stolen > ev.Quantity {
		stolen = ev.Quantity
	}
	out.Stolen = l.Steal(ev.ProductID, stolen)
	return out, nil
}
