package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"marketsim/internal/game"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#3C6E47")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	border      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("2")).Padding(0, 1)
)

const logLines = 6

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var body string
	switch m.snap.Phase {
	case game.PhaseStartMenu:
		body = m.viewStartMenu()
	case game.PhasePlaying:
		body = m.viewShop()
	case game.PhaseSimulating:
		body = m.viewShop() + "\n\n" + m.spin.View() + " Customers are shopping..."
	case game.PhaseThiefEvent:
		body = m.viewThief()
	case game.PhaseEndDayReport:
		body = m.viewReport()
	case game.PhaseGameOver:
		body = m.viewGameOver()
	}

	parts := []string{m.viewHeader(), body}
	if m.snap.Phase != game.PhaseStartMenu {
		parts = append(parts, m.viewLog())
	}
	parts = append(parts, m.viewFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewHeader() string {
	line := titleStyle.Render("🏪 Market Simulator")
	if m.snap.Phase == game.PhaseStartMenu {
		return line + "\n"
	}
	info := fmt.Sprintf("  Day %d   Cash %s   Spent today %s", m.snap.Day, m.snap.Balance, m.snap.DailyPurchases.StringFixed(2))
	if m.snap.HasCheat(game.CheatInfiniteMoney) {
		info += alertStyle.Render("  [infinite money]")
	}
	return line + info + "\n"
}

func (m Model) viewStartMenu() string {
	var b strings.Builder
	b.WriteString("Buy stock from the supplier, set your prices and survive the bills.\n")
	b.WriteString("Prices move every morning. Thieves visit at night.\n\n")
	b.WriteString(dimStyle.Render("Press enter to open the shop, or type a cheat code first."))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) viewShop() string {
	rows := make([][]string, 0, len(m.snap.Quote))
	for i, q := range m.snap.Quote {
		listed := "-"
		if item, ok := m.snap.Listing(q.ProductID); ok {
			listed = fmt.Sprintf("%d @ %s", item.Quantity, item.SellingPrice.StringFixed(2))
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			q.Icon + " " + q.ProductName,
			q.Price.StringFixed(2),
			strconv.Itoa(m.snap.Owned(q.ProductID)),
			listed,
		})
	}
	t := newTable("#", "Product", "Supplier", "Owned", "On shelf").Rows(rows...)

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(panelStyle.Render(helpText))
		b.WriteString("\n")
	}
	if m.snap.Phase == game.PhasePlaying {
		b.WriteString(m.input.View())
	}
	return b.String()
}

const helpText = `buy <product> <qty>            buy from the supplier
sell <product> <qty> [price]   put stock on the shelf (default price is base x 1.5)
end                            close the shop for the day
help                           toggle this help
quit                           leave the game
Products can be named by number, id or name.`

func (m Model) viewThief() string {
	ev := m.snap.PendingTheft
	if ev == nil {
		return ""
	}
	where := "from your stockroom"
	if ev.Source == game.SourceListed {
		where = "off the shelf"
	}
	msg := fmt.Sprintf("A thief is grabbing %d %s %s!\n\n[c] try to catch them (50/50, lose all %d if they escape)\n[l] let them go (lose %d)",
		ev.Quantity, ev.ProductName, where, ev.Quantity, game.LetGoLoss(ev.Quantity))
	return panelStyle.BorderForeground(lipgloss.Color("1")).Render(alertStyle.Render("🦹 THIEF!") + "\n" + msg)
}

func (m Model) viewReport() string {
	r := m.snap.Report
	if r == nil {
		return ""
	}
	rows := make([][]string, 0, len(r.Sales))
	for _, s := range r.Sales {
		rows = append(rows, []string{s.ProductName, strconv.Itoa(s.Quantity), s.Revenue.StringFixed(2)})
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("End of day %d", r.Day)))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("Nothing sold today."))
	} else {
		b.WriteString(newTable("Product", "Sold", "Revenue").Rows(rows...).Render())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Revenue       %s\n", r.Revenue.StringFixed(2))
	fmt.Fprintf(&b, "Purchases     %s\n", r.Purchases.StringFixed(2))
	fmt.Fprintf(&b, "Utility bill  %s\n", r.UtilityBill.StringFixed(2))
	fmt.Fprintf(&b, "Profit        %s\n", signed(r.Profit.StringFixed(2), r.Profit.Sign()))
	if r.Theft != nil {
		if r.Theft.Caught {
			b.WriteString(goodStyle.Render("The thief was caught."))
		} else {
			b.WriteString(badStyle.Render(fmt.Sprintf("Stolen: %d %s", r.Theft.Stolen, r.Theft.ProductName)))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Press enter to start the next day."))
	return b.String()
}

func (m Model) viewGameOver() string {
	msg := fmt.Sprintf("You went bankrupt on day %d with %s in the till.", m.snap.Day, m.snap.Balance)
	return panelStyle.BorderForeground(lipgloss.Color("1")).Render(badStyle.Render("GAME OVER") + "\n" + msg + "\n\n[enter] play again   [q] quit")
}

func (m Model) viewLog() string {
	entries := m.snap.Log
	if len(entries) > logLines {
		entries = entries[:logLines]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("d%-3d %s", e.Day, e.Message))
	}
	if len(lines) == 0 {
		lines = append(lines, "Nothing has happened yet.")
	}
	return "\n" + dimStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewFooter() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return "\n" + badStyle.Render(m.status)
	}
	return "\n" + goodStyle.Render(m.status)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		BorderHeader(true).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}

func signed(text string, sign int) string {
	switch {
	case sign > 0:
		return goodStyle.Render("+" + text)
	case sign < 0:
		return badStyle.Render(text)
	default:
		return text
	}
}
