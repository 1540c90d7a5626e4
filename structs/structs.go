package structs

// Point 描述网格上的一个整数坐标。
type Point struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Direction 移动方向
type Direction string

const (
	Up    Direction = "UP"
	Down  Direction = "DOWN"
	Left  Direction = "LEFT"
	Right Direction = "RIGHT"
)

// GameState 游戏状态
type GameState string

const (
	Idle     GameState = "IDLE"
	Running  GameState = "RUNNING"
	Paused   GameState = "PAUSED"
	GameOver GameState = "GAME_OVER"
)

// Difficulty 难度级别，每一级对应固定的速度
type Difficulty string

const (
	Easy    Difficulty = "EASY"
	Medium  Difficulty = "MEDIUM"
	Hard    Difficulty = "HARD"
	Extreme Difficulty = "EXTREME"
)

// PowerUpType 道具类型
type PowerUpType string

const (
	SpeedBoost   PowerUpType = "SPEED_BOOST"
	SlowDown     PowerUpType = "SLOW_DOWN"
	DoublePoints PowerUpType = "DOUBLE_POINTS"
	Shield       PowerUpType = "SHIELD"
)

// GameConfig 描述一局游戏的配置。Speed 单位为毫秒/逻辑帧。
type GameConfig struct {
	GridSize   int        `json:"gridSize"`
	Speed      int        `json:"speed"`
	Difficulty Difficulty `json:"difficulty"`
	WrapWalls  bool       `json:"wrapWalls"` // 是否穿墙
	PowerUps   bool       `json:"powerUps"`  // 是否启用道具
}

// PartialConfig 用于部分更新配置，nil 字段保持原值。
type PartialConfig struct {
	GridSize   *int        `json:"gridSize,omitempty"`
	Speed      *int        `json:"speed,omitempty"`
	Difficulty *Difficulty `json:"difficulty,omitempty"`
	WrapWalls  *bool       `json:"wrapWalls,omitempty"`
	PowerUps   *bool       `json:"powerUps,omitempty"`
}

// PowerUp 场上的道具，同一时间最多一个。ExpiresAt 为 Unix 毫秒。
type PowerUp struct {
	Type      PowerUpType `json:"type"`
	Position  Point       `json:"position"`
	ExpiresAt int64       `json:"expiresAt"`
}

// GameStats 游戏统计。TimeElapsed 单位为毫秒，不含暂停时间。
type GameStats struct {
	Score             int   `json:"score"`
	HighScore         int   `json:"highScore"`
	Length            int   `json:"length"`
	TimeElapsed       int64 `json:"timeElapsed"`
	ApplesEaten       int   `json:"applesEaten"`
	PowerUpsCollected int   `json:"powerUpsCollected"`
}

// ActiveEffects 当前生效的道具效果，nil 表示未生效。
type ActiveEffects struct {
	SpeedBoost   *float64 `json:"speedBoost,omitempty"`   // 速度倍率
	SlowDown     *float64 `json:"slowDown,omitempty"`     // 减速倍率
	DoublePoints *float64 `json:"doublePoints,omitempty"` // 双倍分数持续时间
	Shield       *float64 `json:"shield,omitempty"`       // 护盾持续时间
}

// EffectTimer 记录一个效果的激活和到期时间（Unix 毫秒）。
type EffectTimer struct {
	Type      PowerUpType `json:"type"`
	ArmedAt   int64       `json:"armedAt"`
	ExpiresAt int64       `json:"expiresAt"`
}

// GameStateData 是某一时刻完整游戏状态的只读快照。
type GameStateData struct {
	Snake          []Point       `json:"snake"`
	Direction      Direction     `json:"direction"`
	NextDirection  Direction     `json:"nextDirection"`
	Food           Point         `json:"food"`
	PowerUp        *PowerUp      `json:"powerUp,omitempty"`
	State          GameState     `json:"state"`
	Stats          GameStats     `json:"stats"`
	Config         GameConfig    `json:"config"`
	ActiveEffects  ActiveEffects `json:"activeEffects"`
	EffectTimers   []EffectTimer `json:"effectTimers,omitempty"`
	Combo          float64       `json:"combo"`
	GameOverReason string        `json:"gameOverReason,omitempty"`
	Version        uint64        `json:"version"` // 每次状态变化自增
}

// GameRecord 一局结束后的存档记录
type GameRecord struct {
	SessionID         string     `json:"sessionId"`
	Score             int        `json:"score"`
	ApplesEaten       int        `json:"applesEaten"`
	PowerUpsCollected int        `json:"powerUpsCollected"`
	Length            int        `json:"length"`
	TimeElapsed       int64      `json:"timeElapsed"`
	Reason            string     `json:"reason"`
	Difficulty        Difficulty `json:"difficulty"`
	EndedAt           int64      `json:"endedAt"` // Unix 秒
}
