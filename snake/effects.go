package snake

import (
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-core/structs"
)

// EffectDuration 每个道具效果的持续时间（真实时间）
const EffectDuration = 5000 * time.Millisecond

const (
	speedBoostFactor = 1.5
	slowDownFactor   = 0.7
)

var effectKinds = []structs.PowerUpType{
	structs.SpeedBoost,
	structs.SlowDown,
	structs.DoublePoints,
	structs.Shield,
}

type effectSlot struct {
	value   float64
	armedAt time.Time
	timer   Timer
	token   uint64
}

// Effects tracks the four time-limited modifiers. Each armed slot clears
// itself after EffectDuration of wall-clock time, paused or not.
//
// Expiry callbacks take lock before touching the slots; every other method
// expects the caller to already hold it. Reset bumps the generation so an
// expiry scheduled for a previous game is ignored even if it already fired.
type Effects struct {
	lock     sync.Locker
	clock    Clock
	duration time.Duration
	onExpire func(structs.PowerUpType)

	slots map[structs.PowerUpType]*effectSlot
	gen   uint64
	seq   uint64
}

// NewEffects returns an empty effect table. onExpire may be nil.
func NewEffects(lock sync.Locker, clock Clock, onExpire func(structs.PowerUpType)) *Effects {
	return &Effects{
		lock:     lock,
		clock:    clock,
		duration: EffectDuration,
		onExpire: onExpire,
		slots:    make(map[structs.PowerUpType]*effectSlot),
	}
}

// payloadFor 道具类型对应的效果数值
func payloadFor(t structs.PowerUpType) float64 {
	switch t {
	case structs.SpeedBoost:
		return speedBoostFactor
	case structs.SlowDown:
		return slowDownFactor
	default:
		return float64(EffectDuration.Milliseconds())
	}
}

// Arm activates the slot for t with its fixed payload and (re)starts its expiry.
func (e *Effects) Arm(t structs.PowerUpType) {
	e.ArmValue(t, payloadFor(t))
}

// ArmValue is Arm with an explicit payload.
func (e *Effects) ArmValue(t structs.PowerUpType, value float64) {
	if s, ok := e.slots[t]; ok && s.timer != nil {
		s.timer.Stop()
	}
	e.seq++
	gen, token := e.gen, e.seq
	s := &effectSlot{value: value, armedAt: e.clock.Now(), token: token}
	s.timer = e.clock.AfterFunc(e.duration, func() { e.expire(t, gen, token) })
	e.slots[t] = s
}

func (e *Effects) expire(t structs.PowerUpType, gen, token uint64) {
	e.lock.Lock()
	defer e.lock.Unlock()
	s, ok := e.slots[t]
	if gen != e.gen || !ok || s.token != token {
		return
	}
	delete(e.slots, t)
	if e.onExpire != nil {
		e.onExpire(t)
	}
}

// Clear 立即移除效果并取消其定时器
func (e *Effects) Clear(t structs.PowerUpType) {
	if s, ok := e.slots[t]; ok {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(e.slots, t)
	}
}

// Reset clears every slot and invalidates all pending expiries.
func (e *Effects) Reset() {
	for t := range e.slots {
		e.Clear(t)
	}
	e.gen++
}

// Active 效果是否生效
func (e *Effects) Active(t structs.PowerUpType) bool {
	_, ok := e.slots[t]
	return ok
}

// Value returns the payload of an active slot.
func (e *Effects) Value(t structs.PowerUpType) (float64, bool) {
	s, ok := e.slots[t]
	if !ok {
		return 0, false
	}
	return s.value, true
}

// Remaining 距离到期的剩余时间，未生效返回 0
func (e *Effects) Remaining(t structs.PowerUpType) time.Duration {
	s, ok := e.slots[t]
	if !ok {
		return 0
	}
	left := s.armedAt.Add(e.duration).Sub(e.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// EffectiveSpeed = base / speedBoost * slowDown, missing factors count as 1.
func (e *Effects) EffectiveSpeed(base float64) float64 {
	speed := base
	if v, ok := e.Value(structs.SpeedBoost); ok {
		speed = speed / v
	}
	if v, ok := e.Value(structs.SlowDown); ok {
		speed = speed * v
	}
	return speed
}

// ScoreMultiplier 双倍分数生效时为 2
func (e *Effects) ScoreMultiplier() float64 {
	if e.Active(structs.DoublePoints) {
		return 2
	}
	return 1
}

// Snapshot copies the active slots into the snapshot representation.
func (e *Effects) Snapshot() (structs.ActiveEffects, []structs.EffectTimer) {
	var active structs.ActiveEffects
	var timers []structs.EffectTimer
	for _, t := range effectKinds {
		s, ok := e.slots[t]
		if !ok {
			continue
		}
		v := s.value
		switch t {
		case structs.SpeedBoost:
			active.SpeedBoost = &v
		case structs.SlowDown:
			active.SlowDown = &v
		case structs.DoublePoints:
			active.DoublePoints = &v
		case structs.Shield:
			active.Shield = &v
		}
		timers = append(timers, structs.EffectTimer{
			Type:      t,
			ArmedAt:   s.armedAt.UnixMilli(),
			ExpiresAt: s.armedAt.Add(e.duration).UnixMilli(),
		})
	}
	return active, timers
}
