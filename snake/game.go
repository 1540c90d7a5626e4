package snake

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-core/structs"
)

const (
	// SchedulerInterval 调度检查间隔（约 60fps），与逻辑速度无关
	SchedulerInterval = 16 * time.Millisecond

	DefaultGridSize   = 20
	DefaultDifficulty = structs.Medium

	MinGridSize = 8
	MaxGridSize = 200
	MinSpeed    = 10
	MaxSpeed    = 5000

	initialLength = 3
)

// ErrInvalidConfig is returned for configuration values the engine cannot run with.
var ErrInvalidConfig = errors.New("invalid game config")

// Option customises a Game at construction.
type Option func(*Game)

// WithClock replaces the wall clock and timer source.
func WithClock(c Clock) Option { return func(g *Game) { g.clock = c } }

// WithRand replaces the random source.
func WithRand(r Rand) Option { return func(g *Game) { g.rng = r } }

// WithFeedback installs the feedback sink.
func WithFeedback(f Feedback) Option { return func(g *Game) { g.feedback = f } }

// WithHighScoreStore installs high-score persistence.
func WithHighScoreStore(s HighScoreStore) Option { return func(g *Game) { g.store = s } }

// Game is the authoritative single-player snake simulation.
//
// Every exported method, scheduler tick and effect expiry runs under mu,
// so the game behaves as if driven by one logical thread.
type Game struct {
	mu sync.Mutex

	state         structs.GameState
	snake         []structs.Point
	direction     structs.Direction
	nextDirection structs.Direction
	food          structs.Point
	powerUp       *structs.PowerUp
	stats         structs.GameStats
	config        structs.GameConfig
	effects       *Effects
	combo         float64
	reason        string
	version       uint64

	clock    Clock
	rng      Rand
	feedback Feedback
	store    HighScoreStore

	loop       Timer
	loopGen    uint64
	startTime  time.Time
	lastUpdate time.Time
	lastPoll   time.Time
	pauseStart time.Time
	pausedFor  time.Duration
}

// NewGame builds a game in the IDLE state. Nil fields of cfg take defaults;
// a difficulty without an explicit speed selects the difficulty's speed.
func NewGame(cfg structs.PartialConfig, opts ...Option) (*Game, error) {
	g := &Game{
		state: structs.Idle,
		config: structs.GameConfig{
			GridSize:   DefaultGridSize,
			Difficulty: DefaultDifficulty,
			PowerUps:   true,
		},
		combo: MinCombo,
	}
	g.config.Speed, _ = SpeedByDifficulty(DefaultDifficulty)
	for _, opt := range opts {
		opt(g)
	}
	if g.clock == nil {
		g.clock = SystemClock()
	}
	if g.rng == nil {
		g.rng = newDefaultRand()
	}
	if g.feedback == nil {
		g.feedback = NopFeedback{}
	}
	if g.store == nil {
		g.store = &memoryStore{}
	}
	g.effects = NewEffects(&g.mu, g.clock, func(structs.PowerUpType) { g.version++ })

	merged, err := mergeConfig(g.config, cfg)
	if err != nil {
		return nil, err
	}
	g.config = merged

	// 加载最高分
	if score, ok, err := g.store.LoadHighScore(); err != nil {
		log.Printf("load high score: %v", err)
	} else if ok {
		g.stats.HighScore = score
	}

	g.mu.Lock()
	g.init()
	g.mu.Unlock()
	return g, nil
}

// mergeConfig 合并部分配置并校验
func mergeConfig(base structs.GameConfig, p structs.PartialConfig) (structs.GameConfig, error) {
	c := base
	if p.GridSize != nil {
		c.GridSize = *p.GridSize
	}
	if p.Difficulty != nil {
		speed, ok := SpeedByDifficulty(*p.Difficulty)
		if !ok {
			return base, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, *p.Difficulty)
		}
		c.Difficulty = *p.Difficulty
		if p.Speed == nil {
			c.Speed = speed
		}
	}
	if p.Speed != nil {
		c.Speed = *p.Speed
	}
	if p.WrapWalls != nil {
		c.WrapWalls = *p.WrapWalls
	}
	if p.PowerUps != nil {
		c.PowerUps = *p.PowerUps
	}
	if err := ValidateConfig(c); err != nil {
		return base, err
	}
	return c, nil
}

// ValidateConfig checks the grid and speed bounds.
func ValidateConfig(c structs.GameConfig) error {
	if c.GridSize < MinGridSize || c.GridSize > MaxGridSize {
		return fmt.Errorf("%w: gridSize %d out of [%d, %d]", ErrInvalidConfig, c.GridSize, MinGridSize, MaxGridSize)
	}
	if c.Speed < MinSpeed || c.Speed > MaxSpeed {
		return fmt.Errorf("%w: speed %d out of [%d, %d]", ErrInvalidConfig, c.Speed, MinSpeed, MaxSpeed)
	}
	if _, ok := SpeedByDifficulty(c.Difficulty); !ok {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, c.Difficulty)
	}
	return nil
}

// Init re-initialises the board and returns to IDLE.
func (g *Game) Init() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLoop()
	g.init()
}

// init 初始化游戏，调用方持有 g.mu
func (g *Game) init() {
	g.state = structs.Idle
	y := g.config.GridSize / 2
	g.snake = []structs.Point{{X: 5, Y: y}, {X: 4, Y: y}, {X: 3, Y: y}}
	g.direction = structs.Right
	g.nextDirection = structs.Right
	g.stats = structs.GameStats{
		HighScore: g.stats.HighScore,
		Length:    initialLength,
	}
	g.effects.Reset()
	g.combo = MinCombo
	g.reason = ""
	g.powerUp = nil
	g.pausedFor = 0
	g.spawnFood()
	g.version++
}

// Start begins a fresh game from IDLE or GAME_OVER, or resumes a paused one.
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case structs.Paused:
		g.resume()
		return
	case structs.Running:
		return
	}
	g.init()
	g.state = structs.Running
	now := g.clock.Now()
	g.startTime = now
	g.lastUpdate = now
	g.lastPoll = now
	g.startLoop()
	g.version++
}

// Pause 暂停游戏，只停止调度器，不影响道具效果计时
func (g *Game) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != structs.Running {
		return
	}
	g.state = structs.Paused
	g.pauseStart = g.clock.Now()
	g.stopLoop()
	g.version++
	g.feedback.OnPause()
}

// Resume 恢复游戏
func (g *Game) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resume()
}

func (g *Game) resume() {
	if g.state != structs.Paused {
		return
	}
	g.state = structs.Running
	now := g.clock.Now()
	g.pausedFor += now.Sub(g.pauseStart)
	g.lastUpdate = now
	g.lastPoll = now
	g.startLoop()
	g.version++
	g.feedback.OnResume()
}

// Reset stops the scheduler and re-initialises to IDLE from any state.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLoop()
	g.init()
}

// Destroy stops the scheduler and cancels pending effect expiries.
// A running or paused game is left IDLE so pollers see it stopped.
func (g *Game) Destroy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLoop()
	g.effects.Reset()
	if g.state == structs.Running || g.state == structs.Paused {
		g.state = structs.Idle
	}
	g.version++
}

// ChangeDirection sets the pending direction unless d reverses the
// direction of the last committed move. Later calls overwrite earlier ones.
func (g *Game) ChangeDirection(d structs.Direction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !ValidDirection(d) || OppositeDirection(g.direction) == d {
		return
	}
	if g.nextDirection != d {
		g.nextDirection = d
		g.version++
	}
}

// UpdateConfig merges p into the configuration. On error nothing changes.
// The grid size can only change between games; an IDLE board is rebuilt
// for the new size.
func (g *Game) UpdateConfig(p structs.PartialConfig) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, err := mergeConfig(g.config, p)
	if err != nil {
		return err
	}
	resized := c.GridSize != g.config.GridSize
	if resized && (g.state == structs.Running || g.state == structs.Paused) {
		return fmt.Errorf("%w: grid size cannot change during a game", ErrInvalidConfig)
	}
	g.config = c
	if resized && g.state == structs.Idle {
		g.init()
	}
	g.version++
	return nil
}

// GetConfig 返回配置副本
func (g *Game) GetConfig() structs.GameConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.config
}

// GetCurrentSpeed returns the logical tick period in ms after speed effects.
func (g *Game) GetCurrentSpeed() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentSpeed()
}

func (g *Game) currentSpeed() float64 {
	return g.effects.EffectiveSpeed(float64(g.config.Speed))
}

// GetState returns a deep copy of the game state.
func (g *Game) GetState() structs.GameStateData {
	g.mu.Lock()
	defer g.mu.Unlock()

	snake := make([]structs.Point, len(g.snake))
	copy(snake, g.snake)
	var pu *structs.PowerUp
	if g.powerUp != nil {
		cp := *g.powerUp
		pu = &cp
	}
	active, timers := g.effects.Snapshot()
	return structs.GameStateData{
		Snake:          snake,
		Direction:      g.direction,
		NextDirection:  g.nextDirection,
		Food:           g.food,
		PowerUp:        pu,
		State:          g.state,
		Stats:          g.stats,
		Config:         g.config,
		ActiveEffects:  active,
		EffectTimers:   timers,
		Combo:          g.combo,
		GameOverReason: g.reason,
		Version:        g.version,
	}
}

// Version returns the snapshot version without copying the state.
func (g *Game) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

func (g *Game) startLoop() {
	g.stopLoop()
	gen := g.loopGen
	g.loop = g.clock.AfterFunc(SchedulerInterval, func() { g.schedulerTick(gen) })
}

func (g *Game) stopLoop() {
	g.loopGen++
	if g.loop != nil {
		g.loop.Stop()
		g.loop = nil
	}
}

// schedulerTick 固定间隔触发，到达逻辑速度才真正更新
func (g *Game) schedulerTick(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.loopGen || g.state != structs.Running {
		return
	}
	g.poll(g.clock.Now())
	if g.state == structs.Running {
		g.loop = g.clock.AfterFunc(SchedulerInterval, func() { g.schedulerTick(gen) })
	}
}

// poll runs one scheduler tick at now. Caller holds g.mu.
func (g *Game) poll(now time.Time) {
	if msSince(now, g.lastUpdate) >= g.currentSpeed() {
		g.update(now)
		g.lastUpdate = now
	}
	g.stats.TimeElapsed = g.elapsed(now)
	g.combo = decayCombo(g.combo, msSince(now, g.lastPoll))
	g.lastPoll = now
	g.version++
}

// elapsed 本局用时（毫秒），不含暂停
func (g *Game) elapsed(now time.Time) int64 {
	return (now.Sub(g.startTime) - g.pausedFor).Milliseconds()
}

func msSince(now, then time.Time) float64 {
	return float64(now.Sub(then)) / float64(time.Millisecond)
}

// gameOver 游戏结束，调用方持有 g.mu
func (g *Game) gameOver(reason string) {
	g.state = structs.GameOver
	g.reason = reason
	g.stats.TimeElapsed = g.elapsed(g.clock.Now())
	g.stopLoop()
	log.Printf("游戏结束: %s (score=%d)", reason, g.stats.Score)
	g.feedback.OnGameOver(reason, g.stats, g.config)
}

// recordHighScore 更新并持久化最高分
func (g *Game) recordHighScore() {
	if g.stats.Score <= g.stats.HighScore {
		return
	}
	g.stats.HighScore = g.stats.Score
	if err := g.store.SaveHighScore(g.stats.HighScore); err != nil {
		log.Printf("save high score: %v", err)
	}
}
