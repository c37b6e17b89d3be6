package game

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"marketsim/internal/catalog"
)

// seqRand replays vals in order, then keeps returning fallback.
type seqRand struct {
	vals     []float64
	fallback float64
	drawn    int
}

func (r *seqRand) Float64() float64 {
	r.drawn++
	if len(r.vals) == 0 {
		return r.fallback
	}
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v
}

// noDrawRand fails the test if the engine consumes randomness.
type noDrawRand struct {
	t *testing.T
}

func (r noDrawRand) Float64() float64 {
	r.t.Helper()
	r.t.Fatalf("unexpected random draw")
	return 0
}

// manualScheduler queues deferred work until run is called.
type manualScheduler struct {
	queued []func()
	delays []time.Duration
}

func (m *manualScheduler) AfterFunc(d time.Duration, fn func()) {
	m.queued = append(m.queued, fn)
	m.delays = append(m.delays, d)
}

func (m *manualScheduler) run() {
	queued := m.queued
	m.queued = nil
	for _, fn := range queued {
		fn()
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService starts a game whose opening prices equal the base prices.
func newTestService(t *testing.T, rnd Rand) *Service {
	t.Helper()
	svc := NewService(Options{
		Catalog:   catalog.Default(),
		Rand:      rnd,
		Scheduler: ImmediateScheduler{},
		Logger:    quietLogger(),
	})
	return svc
}

func mustStart(t *testing.T, svc *Service) {
	t.Helper()
	if err := svc.StartGame(); err != nil {
		t.Fatalf("start game: %v", err)
	}
}
