package game

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketsim/internal/catalog"
)

// CheatCodeInfiniteMoney is the code that unlocks CheatInfiniteMoney.
const CheatCodeInfiniteMoney = "babapro"

type Options struct {
	Catalog     *catalog.Catalog
	Rand        Rand
	Scheduler   Scheduler
	SettleDelay time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// Service is the game phase controller. It owns the session state and is the
// only mutation surface exposed to presentation layers. Every operation is
// gated on the current phase.
type Service struct {
	mu    sync.Mutex
	log   *slog.Logger
	cat   *catalog.Catalog
	rand  Rand
	sched Scheduler
	delay time.Duration
	now   func() time.Time

	cheats map[Cheat]struct{}
	st     session

	listeners    map[int]func(Event)
	nextListener int
	outbox       []Event
	delivering   bool
}

type session struct {
	id        string
	phase     Phase
	day       int
	balance   Balance
	purchases decimal.Decimal
	ledger    *Ledger
	quote     Quote
	pending   *pendingDay
	theft     *TheftEvent
	report    *DailyReport
	log       *activityLog
	run       uint64
}

// pendingDay carries demand results across the thief event until settlement.
type pendingDay struct {
	revenue decimal.Decimal
	sales   []SaleRecord
	bill    decimal.Decimal
}

func NewService(opts Options) *Service {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(0)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		log:       opts.Logger,
		cat:       opts.Catalog,
		rand:      opts.Rand,
		sched:     opts.Scheduler,
		delay:     opts.SettleDelay,
		now:       opts.Now,
		cheats:    make(map[Cheat]struct{}),
		listeners: make(map[int]func(Event)),
	}
	s.st = session{
		phase:     PhaseStartMenu,
		day:       InitialDay,
		balance:   Bounded(InitialBalance),
		purchases: decimal.Zero,
		ledger:    NewLedger(opts.Catalog),
		quote:     Quote{},
		log:       newActivityLog(ActivityLogLimit),
	}
	return s
}

func (s *Service) Catalog() *catalog.Catalog {
	return s.cat
}

// Subscribe registers fn for phase-change events. Listeners run outside the
// service lock and may call back into the service.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// StartGame begins a fresh session from the start menu or after game over.
// Active cheats carry over.
func (s *Service) StartGame() error {
	return s.do(func() error {
		if s.st.phase != PhaseStartMenu && s.st.phase != PhaseGameOver {
			return phaseErr("start game", s.st.phase)
		}
		balance := Bounded(InitialBalance)
		if s.hasCheat(CheatInfiniteMoney) {
			balance = UnboundedBalance()
		}
		s.st = session{
			id:        uuid.NewString(),
			phase:     s.st.phase,
			day:       InitialDay,
			balance:   balance,
			purchases: decimal.Zero,
			ledger:    NewLedger(s.cat),
			quote:     RefreshPrices(s.cat, s.rand),
			log:       s.st.log,
			run:       s.st.run,
		}
		s.st.log.reset()
		s.logf("Welcome to the market! Open your shop and start earning.")
		if s.hasCheat(CheatInfiniteMoney) {
			s.logf("Cheat code %q is active. Playing with infinite money!", CheatCodeInfiniteMoney)
		}
		s.log.Info("game started", "session_id", s.st.id, "balance", s.st.balance.String())
		s.setPhase(PhasePlaying)
		return nil
	})
}

// ApplyCheatCode activates a cheat for the rest of the process. Unknown codes
// are rejected without any state change.
func (s *Service) ApplyCheatCode(code string) bool {
	if strings.ToLower(strings.TrimSpace(code)) != CheatCodeInfiniteMoney {
		return false
	}
	_ = s.do(func() error {
		s.cheats[CheatInfiniteMoney] = struct{}{}
		if s.st.phase != PhaseStartMenu && s.st.phase != PhaseGameOver {
			s.st.balance = UnboundedBalance()
			s.logf("Cheat active: infinite money!")
		}
		s.log.Info("cheat applied", "cheat", string(CheatInfiniteMoney), "session_id", s.st.id)
		return nil
	})
	return true
}

// Buy purchases quantity units at today's supplier price and returns the cost.
func (s *Service) Buy(productID string, quantity int) (decimal.Decimal, error) {
	cost := decimal.Zero
	err := s.do(func() error {
		if s.st.phase != PhasePlaying {
			return phaseErr("buy", s.st.phase)
		}
		if quantity <= 0 {
			return ErrInvalidQuantity
		}
		p, ok := s.cat.Lookup(productID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
		}
		total := s.st.quote.priceFor(p).Mul(decimal.NewFromInt(int64(quantity)))
		if !s.st.balance.CanAfford(total) {
			s.logf("Insufficient funds: not enough cash to buy %s.", p.Name)
			return fmt.Errorf("%w: %s costs %s, balance %s", ErrInsufficientFunds, p.Name, total.StringFixed(2), s.st.balance)
		}
		if err := s.st.ledger.Purchase(p.ID, quantity); err != nil {
			return err
		}
		s.st.balance = s.st.balance.Add(total.Neg())
		s.st.purchases = s.st.purchases.Add(total)
		s.logf("Bought %d x %s (%s).", quantity, p.Name, total.StringFixed(2))
		cost = total
		return nil
	})
	return cost, err
}

// ListForSale moves owned stock onto the shelf at price. Quantities above the
// owned amount are clamped; non-positive quantity or price is a no-op. It
// returns the number of units listed.
func (s *Service) ListForSale(productID string, quantity int, price decimal.Decimal) (int, error) {
	listed := 0
	err := s.do(func() error {
		if s.st.phase != PhasePlaying {
			return phaseErr("list for sale", s.st.phase)
		}
		p, ok := s.cat.Lookup(productID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
		}
		listed = s.st.ledger.ListForSale(p.ID, quantity, price)
		if listed > 0 {
			s.logf("Listed %d x %s for sale at %s.", listed, p.Name, price.StringFixed(2))
		}
		return nil
	})
	return listed, err
}

// EndDay locks the shop and schedules the settlement pipeline. Exactly one
// pipeline runs per accepted call, and it cannot be cancelled.
func (s *Service) EndDay() error {
	var run uint64
	err := s.do(func() error {
		if s.st.phase != PhasePlaying {
			return phaseErr("end day", s.st.phase)
		}
		s.st.run++
		run = s.st.run
		s.logf("Closing time... customers are coming in.")
		s.setPhase(PhaseSimulating)
		return nil
	})
	if err != nil {
		return err
	}
	s.sched.AfterFunc(s.delay, func() { s.simulate(run) })
	return nil
}

func (s *Service) simulate(run uint64) {
	_ = s.do(func() error {
		if s.st.phase != PhaseSimulating || s.st.run != run {
			s.log.Warn("stale day pipeline ignored", "session_id", s.st.id, "run", run)
			return nil
		}
		demand := ResolveDemand(s.st.ledger, s.cat, s.rand)
		bill := UtilityBill(s.st.day, s.rand)
		s.logf("Utility bill arrived: %s.", bill.StringFixed(2))
		s.st.pending = &pendingDay{revenue: demand.Revenue, sales: demand.Sales, bill: bill}

		if ev := RollTheft(s.st.ledger, s.cat, s.rand); ev != nil {
			s.logf("A thief walked into the shop!")
			s.st.theft = ev
			s.log.Info("theft event", "session_id", s.st.id, "day", s.st.day, "product", ev.ProductID, "at_risk", ev.Quantity)
			s.setPhase(PhaseThiefEvent)
			return nil
		}
		s.settle(nil)
		return nil
	})
}

// ResolveTheft applies the player's answer to the pending thief and settles the day.
func (s *Service) ResolveTheft(choice TheftChoice) (TheftOutcome, error) {
	var out TheftOutcome
	err := s.do(func() error {
		if s.st.phase != PhaseThiefEvent || s.st.theft == nil {
			return phaseErr("resolve theft", s.st.phase)
		}
		if choice != ChoiceCatch && choice != ChoiceLetGo {
			return fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
		}
		res, err := ResolveTheft(s.st.ledger, *s.st.theft, choice, s.rand)
		if err != nil {
			return err
		}
		switch {
		case choice == ChoiceLetGo:
			s.logf("You let the thief go. They took %d x %s.", res.Stolen, res.ProductName)
		case res.Caught:
			s.logf("Got them! The thief was caught and took nothing.")
		default:
			s.logf("The thief got away with %d x %s!", res.Stolen, res.ProductName)
		}
		s.st.theft = nil
		out = res
		s.settle(&res)
		return nil
	})
	return out, err
}

// StartNewDay acknowledges the daily report. Unsold listings go back to owned
// stock and the supplier reprices.
func (s *Service) StartNewDay() error {
	return s.do(func() error {
		if s.st.phase != PhaseEndDayReport {
			return phaseErr("start new day", s.st.phase)
		}
		s.st.day++
		s.st.purchases = decimal.Zero
		s.st.report = nil
		s.logf("Day %d has begun. Good luck!", s.st.day)
		if moved := s.st.ledger.ReturnListings(); moved > 0 {
			s.logf("Unsold stock returned to inventory.")
		}
		s.st.quote = RefreshPrices(s.cat, s.rand)
		s.setPhase(PhasePlaying)
		return nil
	})
}

// Snapshot returns a deep copy of the session.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:      s.st.id,
		Phase:          s.st.phase,
		Day:         s.st.day,
		Balance:     s.st.balance,
		DailyPurchases: s.st.purchases,
		Inventory:      s.st.ledger.Inventory(),
		ForSale:        s.st.ledger.Listings(),
		Log:            s.st.log.newestFirst(),
	}
	s.cat.Each(func(p catalog.Product) {
		price, ok := s.st.quote[p.ID]
		if !ok {
			return
		}
		snap.Quote = append(snap.Quote, QuoteView{
			ProductID:   p.ID,
			ProductName: p.Name,
			Icon:        p.Icon,
			BasePrice:   p.BasePrice,
			Price:       price,
		})
	})
	if s.st.theft != nil {
		ev := *s.st.theft
		snap.PendingTheft = &ev
	}
	if s.st.report != nil {
		r := *s.st.report
		r.Sales = append([]SaleRecord(nil), s.st.report.Sales...)
		if s.st.report.Theft != nil {
			t := *s.st.report.Theft
			r.Theft = &t
		}
		snap.Report = &r
	}
	for c := range s.cheats {
		snap.Cheats = append(snap.Cheats, c)
	}
	sort.Slice(snap.Cheats, func(i, j int) bool { return snap.Cheats[i] < snap.Cheats[j] })
	return snap
}

// settle closes the day. Caller holds the lock.
func (s *Service) settle(theft *TheftOutcome) {
	p := s.st.pending
	if p == nil {
		p = &pendingDay{revenue: decimal.Zero, bill: decimal.Zero}
	}
	res := Settle(SettlementInput{
		Day:         s.st.day,
		Balance:     s.st.balance,
		Revenue:     p.revenue,
		Sales:       p.sales,
		Purchases:   s.st.purchases,
		UtilityBill: p.bill,
		Theft:       theft,
	})
	s.st.pending = nil
	s.st.balance = res.Balance
	s.st.report = &res.Report
	s.log.Info("day settled",
		"session_id", s.st.id,
		"day", s.st.day,
		"revenue", res.Report.Revenue.StringFixed(2),
		"expenses", res.Report.Expenses.StringFixed(2),
		"profit", res.Report.Profit.StringFixed(2),
		"balance", res.Balance.String(),
	)
	if res.GameOver {
		s.logf("Bankrupt! Balance fell to %s.", res.Balance)
		s.setPhase(PhaseGameOver)
		return
	}
	s.setPhase(PhaseEndDayReport)
}

func (s *Service) setPhase(to Phase) {
	from := s.st.phase
	s.st.phase = to
	s.log.Debug("phase changed", "session_id", s.st.id, "from", from.String(), "to", to.String(), "day", s.st.day)
	s.outbox = append(s.outbox, Event{
		Type:  EventPhaseChanged,
		From:  from,
		Phase: to,
		Day:   s.st.day,
		At:    s.now(),
	})
}

func (s *Service) logf(format string, args ...any) {
	s.st.log.add(LogEntry{
		Day:     s.st.day,
		Message: fmt.Sprintf(format, args...),
		At:      s.now(),
	})
}

func (s *Service) hasCheat(c Cheat) bool {
	_, ok := s.cheats[c]
	return ok
}

// do runs fn under the lock, then delivers queued events with the lock
// released. One caller at a time drains the outbox, so listeners see events in
// the order the transitions happened, including events queued by other
// goroutines or by listeners calling back into the service.
func (s *Service) do(fn func() error) error {
	s.mu.Lock()
	err := fn()
	if s.delivering {
		s.mu.Unlock()
		return err
	}
	s.delivering = true
	for len(s.outbox) > 0 {
		ev := s.outbox[0]
		s.outbox = s.outbox[1:]
		listeners := s.listenersLocked()
		s.mu.Unlock()
		for _, l := range listeners {
			l(ev)
		}
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
	return err
}

func (s *Service) listenersLocked() []func(Event) {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

func phaseErr(op string, phase Phase) error {
	return fmt.Errorf("%w: cannot %s during %s", ErrPhaseLocked, op, phase)
}
