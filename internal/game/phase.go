package game

import (
	"fmt"
	"time"
)

type Phase int

const (
	PhaseStartMenu Phase = iota
	PhasePlaying
	PhaseSimulating
	PhaseThiefEvent
	PhaseEndDayReport
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseStartMenu:    "start_menu",
	PhasePlaying:      "playing",
	PhaseSimulating:   "simulating",
	PhaseThiefEvent:   "thief_event",
	PhaseEndDayReport: "end_day_report",
	PhaseGameOver:     "game_over",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Event is emitted to subscribers on every phase change.
type Event struct {
	Type  string    `json:"type"`
	From  Phase     `json:"from"`
	Phase Phase     `json:"phase"`
	Day   int       `json:"day"`
	At    time.Time `json:"at"`
}

const EventPhaseChanged = "phase_changed"

// LogEntry is one line of the player-facing activity log.
type LogEntry struct {
	Day     int       `json:"day"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// activityLog is a fixed-capacity ring buffer read newest first.
type activityLog struct {
	entries []LogEntry
	next    int
	full    bool
}

func newActivityLog(capacity int) *activityLog {
	if capacity <= 0 {
		capacity = ActivityLogLimit
	}
	return &activityLog{entries: make([]LogEntry, capacity)}
}

func (a *activityLog) add(e LogEntry) {
	a.entries[a.next] = e
	a.next = (a.next + 1) % len(a.entries)
	if a.next == 0 {
		a.full = true
	}
}

func (a *activityLog) reset() {
	a.next = 0
	a.full = false
}

func (a *activityLog) len() int {
	if a.full {
		return len(a.entries)
	}
	return a.next
}

// newestFirst copies entries out, latest entry at index 0.
func (a *activityLog) newestFirst() []LogEntry {
	n := a.len()
	out := make([]LogEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (a.next - i + len(a.entries)) % len(a.entries)
		out = append(out, a.entries[idx])
	}
	return out
}
