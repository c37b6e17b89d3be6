// Package tui is the interactive terminal front end for a game session.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"marketsim/internal/game"
)

// Run blocks until the player quits. Engine phase changes, including the
// deferred end-of-day settlement, are forwarded to the program as messages.
func Run(svc *game.Service) error {
	events := make(chan game.Event, 16)
	unsubscribe := svc.Subscribe(func(ev game.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer unsubscribe()

	_, err := tea.NewProgram(New(svc, events), tea.WithAltScreen()).Run()
	return err
}
