package snake

import "github.com/hoshinonyaruko/snake-core/structs"

// Feedback receives fire-and-forget notifications from the engine.
// Methods are called with the engine lock held: implementations must return
// quickly and must not call back into the Game.
type Feedback interface {
	OnEat(stats structs.GameStats)
	OnPowerUp(t structs.PowerUpType)
	OnGameOver(reason string, stats structs.GameStats, cfg structs.GameConfig)
	OnPause()
	OnResume()
	// OnWarning fires when a shield absorbs a collision.
	OnWarning()
}

// HighScoreStore persists the single high-score value.
type HighScoreStore interface {
	// LoadHighScore returns ok=false when no score was saved yet.
	LoadHighScore() (score int, ok bool, err error)
	SaveHighScore(score int) error
}

// NopFeedback 空实现
type NopFeedback struct{}

func (NopFeedback) OnEat(structs.GameStats)                                  {}
func (NopFeedback) OnPowerUp(structs.PowerUpType)                            {}
func (NopFeedback) OnGameOver(string, structs.GameStats, structs.GameConfig) {}
func (NopFeedback) OnPause()                                                 {}
func (NopFeedback) OnResume()                                                {}
func (NopFeedback) OnWarning()                                               {}

type memoryStore struct {
	score int
	ok    bool
}

func (m *memoryStore) LoadHighScore() (int, bool, error) { return m.score, m.ok, nil }

func (m *memoryStore) SaveHighScore(score int) error {
	m.score, m.ok = score, true
	return nil
}
