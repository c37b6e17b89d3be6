package game

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

const (
	InitialDay = 1

	ListingMarkup = 1.5

	PriceFluctuation = 0.2
	MinSupplierPrice = 1

	DemandVarianceLow  = 0.75
	DemandVarianceSpan = 0.5

	TheftChance      = 0.20
	CatchChance      = 0.5
	TheftShare       = 0.5
	LetGoDivisor     = 3
	UtilityBase      = 20
	UtilityPerDay    = 1.5
	UtilityVariance  = 15
	ActivityLogLimit = 100
)

var InitialBalance = decimal.NewFromInt(500)

var (
	ErrPhaseLocked       = errors.New("operation not allowed in current phase")
	ErrUnknownProduct    = errors.New("unknown product")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidPrice      = errors.New("price must be > 0")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidChoice     = errors.New("invalid theft choice")
)

// Balance is the player's cash. Unbounded is the infinite-funds sentinel.
type Balance struct {
	Amount    decimal.Decimal
	Unbounded bool
}

func Bounded(amount decimal.Decimal) Balance {
	return Balance{Amount: amount}
}

func UnboundedBalance() Balance {
	return Balance{Unbounded: true}
}

func (b Balance) CanAfford(cost decimal.Decimal) bool {
	return b.Unbounded || b.Amount.GreaterThanOrEqual(cost)
}

// Add returns b shifted by delta. The sentinel absorbs every delta.
func (b Balance) Add(delta decimal.Decimal) Balance {
	if b.Unbounded {
		return b
	}
	return Balance{Amount: b.Amount.Add(delta)}
}

func (b Balance) Negative() bool {
	return !b.Unbounded && b.Amount.IsNegative()
}

func (b Balance) String() string {
	if b.Unbounded {
		return "∞"
	}
	return b.Amount.StringFixed(2)
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount    string `json:"amount"`
		Unbounded bool   `json:"unbounded"`
	}{Amount: b.String(), Unbounded: b.Unbounded})
}

// Cents rounds a money value to two decimals.
func Cents(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// atRisk is the share of a stock item a thief goes for.
func atRisk(quantity int) int {
	if quantity <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(quantity) * TheftShare))
	if n > quantity {
		return quantity
	}
	return n
}

// LetGoLoss is the number of units a thief takes when allowed to leave.
func LetGoLoss(atRisk int) int {
	n := atRisk / LetGoDivisor
	if n < 1 {
		return 1
	}
	return n
}
