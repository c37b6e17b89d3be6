package game

import (
	"fmt"
	"testing"
)

func TestPhaseString(t *testing.T) {
	if PhaseThiefEvent.String() != "thief_event" {
		t.Fatalf("got %q", PhaseThiefEvent.String())
	}
	if Phase(42).String() != "phase(42)" {
		t.Fatalf("got %q", Phase(42).String())
	}
	raw, err := PhaseEndDayReport.MarshalText()
	if err != nil || string(raw) != "end_day_report" {
		t.Fatalf("got %q err=%v", raw, err)
	}
}

func TestActivityLogNewestFirst(t *testing.T) {
	log := newActivityLog(3)
	if got := log.newestFirst(); len(got) != 0 {
		t.Fatalf("expected empty log, got %d entries", len(got))
	}
	for i := 1; i <= 5; i++ {
		log.add(LogEntry{Day: 1, Message: fmt.Sprintf("msg %d", i)})
	}
	got := log.newestFirst()
	want := []string{"msg 5", "msg 4", "msg 3"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries want %d", len(got), len(want))
	}
	for i, msg := range want {
		if got[i].Message != msg {
			t.Fatalf("entry %d got=%q want=%q", i, got[i].Message, msg)
		}
	}
}

func TestActivityLogReset(t *testing.T) {
	log := newActivityLog(2)
	log.add(LogEntry{Message: "a"})
	log.add(LogEntry{Message: "b"})
	log.reset()
	if log.len() != 0 {
		t.Fatalf("expected empty log after reset")
	}
	log.add(LogEntry{Message: "c"})
	got := log.newestFirst()
	if len(got) != 1 || got[0].Message != "c" {
		t.Fatalf("unexpected entries %+v", got)
	}
}
