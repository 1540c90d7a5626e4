package snake

import (
	"time"

	"golang.org/x/exp/rand"
)

// Clock is the engine's source of wall-clock time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable one-shot callback.
type Timer interface {
	Stop() bool
}

// Rand is the engine's random source.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the Clock backed by package time.
func SystemClock() Clock { return realClock{} }

func newDefaultRand() Rand {
	return rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
}
