package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"marketsim/internal/catalog"
	"marketsim/internal/game"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func newModel(t *testing.T, rnd game.Rand) Model {
	t.Helper()
	svc := game.NewService(game.Options{
		Catalog:   catalog.Default(),
		Rand:      rnd,
		Scheduler: game.ImmediateScheduler{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return New(svc, nil)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func enter(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.input.SetValue(line)
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestParseCommand(t *testing.T) {
	cat := catalog.Default()
	tests := []struct {
		line    string
		kind    commandKind
		product string
		qty     int
		price   string
		wantErr bool
	}{
		{line: "buy apple 10", kind: cmdBuy, product: "apple", qty: 10},
		{line: "B 2 3", kind: cmdBuy, product: "bread", qty: 3},
		{line: "sell Milk 4 19.50", kind: cmdSell, product: "milk", qty: 4, price: "19.5"},
		{line: "list egg 2", kind: cmdSell, product: "egg", qty: 2},
		{line: "end", kind: cmdEndDay},
		{line: "?", kind: cmdHelp},
		{line: "buy apple", wantErr: true},
		{line: "buy caviar 1", wantErr: true},
		{line: "buy apple -1", wantErr: true},
		{line: "sell apple 1 free", wantErr: true},
		{line: "sell apple 1 0", wantErr: true},
		{line: "dance", wantErr: true},
		{line: "   ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := parseCommand(tc.line, cat)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got %+v", tc.line, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if got.kind != tc.kind || got.productID != tc.product || got.quantity != tc.qty {
			t.Fatalf("%q: unexpected command %+v", tc.line, got)
		}
		if tc.price != "" && (got.price == nil || got.price.String() != tc.price) {
			t.Fatalf("%q: price got=%v want=%s", tc.line, got.price, tc.price)
		}
		if tc.price == "" && got.price != nil {
			t.Fatalf("%q: unexpected price %s", tc.line, got.price)
		}
	}
}

func TestModelDayCycle(t *testing.T) {
	m := newModel(t, fixedRand(0.5))
	if !strings.Contains(m.View(), "Press enter to open the shop") {
		t.Fatalf("start menu not rendered")
	}

	m = enter(t, m, "")
	if m.snap.Phase != game.PhasePlaying {
		t.Fatalf("phase got=%s want=playing", m.snap.Phase)
	}

	m = enter(t, m, "buy apple 10")
	if m.statusErr || m.snap.Owned("apple") != 10 {
		t.Fatalf("buy failed: %q owned=%d", m.status, m.snap.Owned("apple"))
	}
	m = enter(t, m, "sell apple 10")
	if item, ok := m.snap.Listing("apple"); !ok || item.Quantity != 10 || item.SellingPrice.String() != "3" {
		t.Fatalf("listing got=%+v", item)
	}
	if !strings.Contains(m.View(), "10 @ 3.00") {
		t.Fatalf("shelf not rendered:\n%s", m.View())
	}

	m = enter(t, m, "end")
	if m.snap.Phase != game.PhaseEndDayReport {
		t.Fatalf("phase got=%s want=end_day_report", m.snap.Phase)
	}
	if view := m.View(); !strings.Contains(view, "End of day 1") || !strings.Contains(view, "30.00") {
		t.Fatalf("report not rendered:\n%s", view)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.snap.Phase != game.PhasePlaying || m.snap.Day != 2 {
		t.Fatalf("phase=%s day=%d", m.snap.Phase, m.snap.Day)
	}
}

func TestModelReportsErrors(t *testing.T) {
	m := newModel(t, fixedRand(0.5))
	m = enter(t, m, "")
	m = enter(t, m, "buy cheese 100")
	if !m.statusErr || m.status != "Not enough cash for that." {
		t.Fatalf("status=%q err=%v", m.status, m.statusErr)
	}
	m = enter(t, m, "sell water 3")
	if !m.statusErr || !strings.Contains(m.status, "no Water in stock") {
		t.Fatalf("status=%q", m.status)
	}
	m = enter(t, m, "bogus")
	if !m.statusErr {
		t.Fatalf("expected parse error status")
	}
}

func TestModelCheatCode(t *testing.T) {
	m := newModel(t, fixedRand(0.5))
	m = enter(t, m, "wrong")
	if !m.statusErr {
		t.Fatalf("wrong code must be rejected")
	}
	m = enter(t, m, "babapro")
	if m.statusErr {
		t.Fatalf("cheat rejected: %q", m.status)
	}
	m = enter(t, m, "")
	if !m.snap.Balance.Unbounded {
		t.Fatalf("expected unbounded balance")
	}
	if !strings.Contains(m.View(), "infinite money") {
		t.Fatalf("cheat badge not rendered")
	}
}

func TestModelThief(t *testing.T) {
	m := newModel(t, fixedRand(0.1))
	m = enter(t, m, "")
	m = enter(t, m, "buy apple 4")
	m = enter(t, m, "end")
	if m.snap.Phase != game.PhaseThiefEvent {
		t.Fatalf("phase got=%s want=thief_event", m.snap.Phase)
	}
	if !strings.Contains(m.View(), "THIEF") {
		t.Fatalf("thief prompt not rendered")
	}
	m = press(t, m, key('x'))
	if m.snap.Phase != game.PhaseThiefEvent {
		t.Fatalf("unrelated key resolved the thief")
	}
	m = press(t, m, key('c'))
	if m.snap.Phase != game.PhaseEndDayReport {
		t.Fatalf("phase got=%s want=end_day_report", m.snap.Phase)
	}
	if m.status != "Caught the thief! Nothing was taken." {
		t.Fatalf("status=%q", m.status)
	}
}

func TestModelQuit(t *testing.T) {
	m := newModel(t, fixedRand(0.5))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
