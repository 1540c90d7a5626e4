package snake

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hoshinonyaruko/snake-core/structs"
)

func newTestEffects() (*Effects, *fakeClock, *int) {
	clock := newFakeClock()
	expired := 0
	e := NewEffects(&sync.Mutex{}, clock, func(structs.PowerUpType) { expired++ })
	return e, clock, &expired
}

func TestEffectExpiresAfterDuration(t *testing.T) {
	e, clock, expired := newTestEffects()
	e.Arm(structs.Shield)

	clock.Advance(EffectDuration - time.Millisecond)
	if !e.Active(structs.Shield) {
		t.Fatal("shield expired early")
	}
	clock.Advance(time.Millisecond)
	if e.Active(structs.Shield) {
		t.Fatal("shield still active after duration")
	}
	if *expired != 1 {
		t.Fatalf("onExpire calls = %d, want 1", *expired)
	}
}

func TestEffectRearmRestartsWindow(t *testing.T) {
	e, clock, _ := newTestEffects()
	e.Arm(structs.DoublePoints)
	clock.Advance(3 * time.Second)
	e.Arm(structs.DoublePoints)

	clock.Advance(3 * time.Second)
	if !e.Active(structs.DoublePoints) {
		t.Fatal("first expiry cleared the re-armed slot")
	}
	clock.Advance(2 * time.Second)
	if e.Active(structs.DoublePoints) {
		t.Fatal("re-armed slot did not expire")
	}
}

func TestEffectResetInvalidatesPendingExpiry(t *testing.T) {
	e, clock, expired := newTestEffects()
	e.Arm(structs.SpeedBoost)
	clock.Advance(time.Second)

	e.Reset()
	if clock.pending() != 0 {
		t.Fatalf("pending timers after reset = %d, want 0", clock.pending())
	}
	clock.Advance(2 * time.Second)
	e.Arm(structs.SpeedBoost)

	// 旧的到期时间点 (t=5s) 不能清掉新效果
	clock.Advance(2500 * time.Millisecond)
	if !e.Active(structs.SpeedBoost) {
		t.Fatal("stale expiry cleared the new effect")
	}
	if *expired != 0 {
		t.Fatalf("onExpire calls = %d, want 0", *expired)
	}
}

func TestEffectClearStopsTimer(t *testing.T) {
	e, clock, expired := newTestEffects()
	e.Arm(structs.Shield)
	e.Clear(structs.Shield)
	clock.Advance(EffectDuration)
	if *expired != 0 {
		t.Fatalf("cleared slot still expired (%d calls)", *expired)
	}
}

func TestEffectiveSpeed(t *testing.T) {
	e, _, _ := newTestEffects()
	if got := e.EffectiveSpeed(150); got != 150 {
		t.Fatalf("no effects: %v, want 150", got)
	}
	e.Arm(structs.SpeedBoost)
	if got := e.EffectiveSpeed(150); got != 100 {
		t.Fatalf("speed boost: %v, want 100", got)
	}
	e.Arm(structs.SlowDown)
	if got := e.EffectiveSpeed(150); math.Abs(got-70) > 1e-9 {
		t.Fatalf("boost and slow: %v, want 70", got)
	}
	if got := e.ScoreMultiplier(); got != 1 {
		t.Fatalf("multiplier without double points = %v", got)
	}
	e.Arm(structs.DoublePoints)
	if got := e.ScoreMultiplier(); got != 2 {
		t.Fatalf("multiplier with double points = %v", got)
	}
}

func TestEffectSnapshot(t *testing.T) {
	e, clock, _ := newTestEffects()
	armed := clock.Now()
	e.Arm(structs.SlowDown)
	clock.Advance(time.Second)

	active, timers := e.Snapshot()
	if active.SlowDown == nil || *active.SlowDown != slowDownFactor {
		t.Fatalf("slowDown = %v, want %v", active.SlowDown, slowDownFactor)
	}
	if active.SpeedBoost != nil || active.Shield != nil || active.DoublePoints != nil {
		t.Fatalf("unexpected active effects: %+v", active)
	}
	if len(timers) != 1 || timers[0].ArmedAt != armed.UnixMilli() ||
		timers[0].ExpiresAt != armed.Add(EffectDuration).UnixMilli() {
		t.Fatalf("timers = %+v", timers)
	}
	if got := e.Remaining(structs.SlowDown); got != 4*time.Second {
		t.Fatalf("Remaining = %v, want 4s", got)
	}
}
