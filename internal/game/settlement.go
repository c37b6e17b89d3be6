package game

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DailyReport struct {
	ID          string          `json:"id"`
	Day         int             `json:"day"`
	Revenue     decimal.Decimal `json:"revenue"`
	Purchases   decimal.Decimal `json:"purchases"`
	UtilityBill decimal.Decimal `json:"utility_bill"`
	Expenses    decimal.Decimal `json:"expenses"`
	Profit      decimal.Decimal `json:"profit"`
	Sales       []SaleRecord    `json:"sales"`
	Theft       *TheftOutcome   `json:"theft,omitempty"`
}

// UtilityBill is 20 + 1.5 per day + U*15, U in [0, 1), rounded to cents.
func UtilityBill(day int, rnd Rand) decimal.Decimal {
	bill := UtilityBase + float64(day)*UtilityPerDay + rnd.Float64()*UtilityVariance
	return Cents(decimal.NewFromFloat(bill))
}

type SettlementInput struct {
	Day         int
	Balance     Balance
	Revenue     decimal.Decimal
	Sales       []SaleRecord
	Purchases   decimal.Decimal
	UtilityBill decimal.Decimal
	Theft       *TheftOutcome
}

type Settlement struct {
	Report   DailyReport
	Balance  Balance
	GameOver bool
}

// Settle closes the day. The new balance is the current balance plus the
// day's profit, where profit counts purchases and the utility bill as expenses.
func Settle(in SettlementInput) Settlement {
	expenses := in.Purchases.Add(in.UtilityBill)
	profit := in.Revenue.Sub(expenses)
	sales := make([]SaleRecord, len(in.Sales))
	copy(sales, in.Sales)

	report := DailyReport{
		ID:          uuid.NewString(),
		Day:         in.Day,
		Revenue:     in.Revenue,
		Purchases:   in.Purchases,
		UtilityBill: in.UtilityBill,
		Expenses:    expenses,
		Profit:      profit,
		Sales:       sales,
		Theft:       in.Theft,
	}
	closing := in.Balance.Add(profit)
	return Settlement{
		Report:   report,
		Balance:  closing,
		GameOver: closing.Negative(),
	}
}
