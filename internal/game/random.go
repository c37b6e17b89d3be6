package game

import (
	mathrand "math/rand"
	"time"
)

// Rand is the engine's source of randomness. *math/rand.Rand satisfies it;
// tests supply scripted sequences.
type Rand interface {
	Float64() float64
}

// NewRand seeds a math/rand source. A zero seed uses the wall clock.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return mathrand.New(mathrand.NewSource(seed))
}

// Scheduler defers the settlement pipeline after EndDay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// TimerScheduler runs deferred work on time.AfterFunc goroutines.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// ImmediateScheduler runs deferred work inline, ignoring the delay.
type ImmediateScheduler struct{}

func (ImmediateScheduler) AfterFunc(_ time.Duration, fn func()) {
	fn()
}
