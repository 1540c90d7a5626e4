package snake

import (
	"sync"
	"testing"
	"time"

	"github.com/hoshinonyaruko/snake-core/structs"
)

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{c: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		live := c.timers[:0]
		for _, t := range c.timers {
			if t.stopped || t.fired {
				continue
			}
			live = append(live, t)
			if t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
				next = t
			}
		}
		c.timers = live
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()
		next.f()
	}
}

// pending counts timers that have neither fired nor been stopped.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// scriptedRand returns queued ints (then 0) and a fixed float.
type scriptedRand struct {
	ints  []int
	float float64
	calls int
}

func (r *scriptedRand) Intn(n int) int {
	r.calls++
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 { return r.float }

type recordingFeedback struct {
	eats     int
	powerUps []structs.PowerUpType
	overs    []string
	final    structs.GameStats
	pauses   int
	resumes  int
	warnings int
}

func (f *recordingFeedback) OnEat(structs.GameStats)         { f.eats++ }
func (f *recordingFeedback) OnPowerUp(t structs.PowerUpType) { f.powerUps = append(f.powerUps, t) }
func (f *recordingFeedback) OnGameOver(reason string, stats structs.GameStats, _ structs.GameConfig) {
	f.overs = append(f.overs, reason)
	f.final = stats
}
func (f *recordingFeedback) OnPause()   { f.pauses++ }
func (f *recordingFeedback) OnResume()  { f.resumes++ }
func (f *recordingFeedback) OnWarning() { f.warnings++ }

type fakeStore struct {
	loaded int
	has    bool
	saved  []int
}

func (s *fakeStore) LoadHighScore() (int, bool, error) { return s.loaded, s.has, nil }

func (s *fakeStore) SaveHighScore(score int) error {
	s.saved = append(s.saved, score)
	return nil
}

type fixture struct {
	g     *Game
	clock *fakeClock
	rng   *scriptedRand
	fb    *recordingFeedback
	store *fakeStore
}

func newFixture(t *testing.T, cfg structs.PartialConfig) *fixture {
	t.Helper()
	f := &fixture{
		clock: newFakeClock(),
		rng:   &scriptedRand{float: 0.99},
		fb:    &recordingFeedback{},
		store: &fakeStore{},
	}
	g, err := NewGame(cfg,
		WithClock(f.clock),
		WithRand(f.rng),
		WithFeedback(f.fb),
		WithHighScoreStore(f.store),
	)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	f.g = g
	t.Cleanup(g.Destroy)
	return f
}

// step forces exactly one logical tick at the current fake time.
func (f *fixture) step() {
	f.g.mu.Lock()
	defer f.g.mu.Unlock()
	f.g.update(f.clock.Now())
}

func ptr[T any](v T) *T { return &v }
