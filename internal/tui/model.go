package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"marketsim/internal/game"
)

// eventMsg wraps an engine phase change delivered through the subscription channel.
type eventMsg game.Event

type Model struct {
	svc    *game.Service
	events <-chan game.Event

	input textinput.Model
	spin  spinner.Model

	snap      game.Snapshot
	status    string
	statusErr bool
	showHelp  bool
	width     int
	quitting  bool
}

func New(svc *game.Service, events <-chan game.Event) Model {
	ti := textinput.New()
	ti.Placeholder = "cheat code, or enter to open the shop"
	ti.CharLimit = 64
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		svc:    svc,
		events: events,
		input:  ti,
		spin:   sp,
		snap:   svc.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, waitForEvent(m.events))
}

func waitForEvent(ch <-chan game.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case eventMsg:
		m.refresh()
		return m, waitForEvent(m.events)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.snap.Phase {
	case game.PhaseSimulating:
		return m, nil
	case game.PhaseThiefEvent:
		switch strings.ToLower(msg.String()) {
		case "c":
			m.resolveTheft(game.ChoiceCatch)
		case "l", "g":
			m.resolveTheft(game.ChoiceLetGo)
		}
		return m, nil
	case game.PhaseEndDayReport:
		if msg.Type == tea.KeyEnter || msg.String() == "n" {
			m.setResult(m.svc.StartNewDay(), "")
			m.input.Placeholder = "buy apple 10 | sell apple 10 3.00 | end | help"
		}
		return m, nil
	case game.PhaseGameOver:
		switch {
		case msg.String() == "q":
			m.quitting = true
			return m, tea.Quit
		case msg.Type == tea.KeyEnter || msg.String() == "r":
			m.setResult(m.svc.StartGame(), "A fresh start. Good luck!")
		}
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		line := m.input.Value()
		m.input.SetValue("")
		return m.submit(line)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	line = strings.TrimSpace(line)
	if m.snap.Phase == game.PhaseStartMenu {
		switch strings.ToLower(line) {
		case "":
			m.setResult(m.svc.StartGame(), "")
			m.input.Placeholder = "buy apple 10 | sell apple 10 3.00 | end | help"
		case "q", "quit":
			m.quitting = true
			return m, tea.Quit
		default:
			if m.svc.ApplyCheatCode(line) {
				m.setStatus("Cheat code accepted.", false)
			} else {
				m.setStatus("That code does nothing.", true)
			}
		}
		return m, nil
	}

	cmd, err := parseCommand(line, m.svc.Catalog())
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	switch cmd.kind {
	case cmdHelp:
		m.showHelp = !m.showHelp
		m.status = ""
	case cmdQuit:
		m.quitting = true
		return m, tea.Quit
	case cmdEndDay:
		m.setResult(m.svc.EndDay(), "")
	case cmdBuy:
		cost, err := m.svc.Buy(cmd.productID, cmd.quantity)
		m.setResult(err, fmt.Sprintf("Bought %d %s for %s.", cmd.quantity, m.name(cmd.productID), cost.StringFixed(2)))
	case cmdSell:
		p, _ := m.svc.Catalog().Lookup(cmd.productID)
		price := p.SuggestedPrice()
		if cmd.price != nil {
			price = *cmd.price
		}
		n, err := m.svc.ListForSale(cmd.productID, cmd.quantity, price)
		if err == nil && n == 0 {
			m.refresh()
			m.setStatus(fmt.Sprintf("You have no %s in stock to list.", p.Name), true)
			return m, nil
		}
		m.setResult(err, fmt.Sprintf("Listed %d %s at %s.", n, p.Name, price.StringFixed(2)))
	}
	return m, nil
}

func (m *Model) resolveTheft(choice game.TheftChoice) {
	out, err := m.svc.ResolveTheft(choice)
	if err != nil {
		m.setResult(err, "")
		return
	}
	msg := fmt.Sprintf("The thief got away with %d %s.", out.Stolen, out.ProductName)
	if out.Caught {
		msg = "Caught the thief! Nothing was taken."
	}
	m.setResult(nil, msg)
}

func (m *Model) setResult(err error, ok string) {
	m.refresh()
	if err != nil {
		m.setStatus(describeError(err), true)
		return
	}
	m.setStatus(ok, false)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) refresh() {
	m.snap = m.svc.Snapshot()
}

func (m Model) name(productID string) string {
	if p, ok := m.svc.Catalog().Lookup(productID); ok {
		return p.Name
	}
	return productID
}

func describeError(err error) string {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return "Not enough cash for that."
	case errors.Is(err, game.ErrPhaseLocked):
		return "Not now, the shop is busy."
	default:
		return err.Error()
	}
}
