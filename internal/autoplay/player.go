// Package autoplay drives a game session with a fixed heuristic, without a
// human at the keyboard.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"marketsim/internal/game"
)

// DefaultSpendShare is the fraction of cash spent restocking each morning.
const DefaultSpendShare = 0.5

type Options struct {
	SpendShare float64
	Logger     *slog.Logger
}

// DayResult is reported once per settled day.
type DayResult struct {
	Day     int
	Report  game.DailyReport
	Balance game.Balance
	Bought  int
	Listed  int
}

type Summary struct {
	Days         int
	Bankrupt     bool
	FinalBalance game.Balance
	Revenue      decimal.Decimal
	Profit       decimal.Decimal
	Thefts       int
	UnitsStolen  int
}

// Player restocks each product up to its base demand, lists everything at the
// suggested price and answers thieves with the smaller expected loss.
type Player struct {
	svc   *game.Service
	log   *slog.Logger
	share decimal.Decimal
}

func New(svc *game.Service, opts Options) *Player {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SpendShare <= 0 || opts.SpendShare > 1 {
		opts.SpendShare = DefaultSpendShare
	}
	return &Player{
		svc:   svc,
		log:   opts.Logger,
		share: decimal.NewFromFloat(opts.SpendShare),
	}
}

// Run plays up to days days, or until bankruptcy or ctx is done. onDay may be nil.
func (p *Player) Run(ctx context.Context, days int, onDay func(DayResult)) (Summary, error) {
	sum := Summary{Revenue: decimal.Zero, Profit: decimal.Zero}
	if days <= 0 {
		return sum, fmt.Errorf("days must be > 0")
	}

	events := make(chan game.Event, 16)
	unsubscribe := p.svc.Subscribe(func(ev game.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	if ph := p.svc.Snapshot().Phase; ph == game.PhaseStartMenu || ph == game.PhaseGameOver {
		if err := p.svc.StartGame(); err != nil {
			return sum, err
		}
	}

	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		bought, err := p.restock()
		if err != nil {
			return sum, err
		}
		listed, err := p.listAll()
		if err != nil {
			return sum, err
		}
		if err := p.svc.EndDay(); err != nil {
			return sum, err
		}
		snap, err := p.awaitSettlement(ctx, events)
		if err != nil {
			return sum, err
		}
		if snap.Phase == game.PhaseThiefEvent && snap.PendingTheft != nil {
			choice := ChooseTheftResponse(snap.PendingTheft.Quantity)
			out, err := p.svc.ResolveTheft(choice)
			if err != nil {
				return sum, err
			}
			p.log.Debug("thief handled", "product", out.ProductID, "choice", string(choice), "stolen", out.Stolen)
			sum.Thefts++
			sum.UnitsStolen += out.Stolen
			snap = p.svc.Snapshot()
		}
		if snap.Report == nil {
			return sum, fmt.Errorf("day %d settled without a report in phase %s", snap.Day, snap.Phase)
		}

		sum.Days++
		sum.Revenue = sum.Revenue.Add(snap.Report.Revenue)
		sum.Profit = sum.Profit.Add(snap.Report.Profit)
		sum.FinalBalance = snap.Balance
		if onDay != nil {
			onDay(DayResult{Day: snap.Day, Report: *snap.Report, Balance: snap.Balance, Bought: bought, Listed: listed})
		}
		if snap.Phase == game.PhaseGameOver {
			sum.Bankrupt = true
			p.log.Info("autoplay bankrupt", "day", snap.Day, "balance", snap.Balance.String())
			return sum, nil
		}
		if i == days-1 {
			break
		}
		if err := p.svc.StartNewDay(); err != nil {
			return sum, err
		}
	}
	p.log.Info("autoplay finished", "days", sum.Days, "balance", sum.FinalBalance.String())
	return sum, nil
}

func (p *Player) restock() (int, error) {
	snap := p.svc.Snapshot()
	if len(snap.Quote) == 0 {
		return 0, nil
	}
	budget := decimal.Zero
	if !snap.Balance.Unbounded {
		budget = snap.Balance.Amount.Mul(p.share).Div(decimal.NewFromInt(int64(len(snap.Quote))))
	}

	total := 0
	for _, q := range snap.Quote {
		product, ok := p.svc.Catalog().Lookup(q.ProductID)
		if !ok || !q.Price.IsPositive() {
			continue
		}
		want := int(product.BaseDemand) - snap.Owned(q.ProductID)
		if !snap.Balance.Unbounded {
			if affordable := int(budget.Div(q.Price).IntPart()); affordable < want {
				want = affordable
			}
		}
		if want <= 0 {
			continue
		}
		if _, err := p.svc.Buy(q.ProductID, want); err != nil {
			if errors.Is(err, game.ErrInsufficientFunds) {
				continue
			}
			return total, err
		}
		total += want
	}
	return total, nil
}

func (p *Player) listAll() (int, error) {
	total := 0
	for _, item := range p.svc.Snapshot().Inventory {
		product, ok := p.svc.Catalog().Lookup(item.ProductID)
		if !ok {
			continue
		}
		n, err := p.svc.ListForSale(item.ProductID, item.Quantity, product.SuggestedPrice())
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (p *Player) awaitSettlement(ctx context.Context, events <-chan game.Event) (game.Snapshot, error) {
	for {
		snap := p.svc.Snapshot()
		if snap.Phase != game.PhaseSimulating {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-events:
		}
	}
}

// ChooseTheftResponse picks the answer with the smaller expected loss. Letting
// the thief go costs a third of the units at risk (at least one); a catch
// attempt loses everything at risk half the time.
func ChooseTheftResponse(atRisk int) game.TheftChoice {
	if float64(atRisk)*(1-game.CatchChance) < float64(game.LetGoLoss(atRisk)) {
		return game.ChoiceCatch
	}
	return game.ChoiceLetGo
}
