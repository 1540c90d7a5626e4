package snake

import "math"

const (
	// FoodPoints is the base value of one apple.
	FoodPoints = 10
	// PowerUpPoints 道具额外分数，不受倍率和连击影响
	PowerUpPoints = 50

	MinCombo  = 1.0
	MaxCombo  = 5.0
	ComboStep = 0.1
	// ComboDecayPerMs 每毫秒连击衰减量（每 10 秒衰减 1）
	ComboDecayPerMs = 1.0 / 10000
)

// CalculateScore returns floor(basePoints * multiplier * combo).
func CalculateScore(basePoints int, multiplier, combo float64) int {
	return int(math.Floor(float64(basePoints) * multiplier * combo))
}

// nextCombo 吃到食物后的连击值
func nextCombo(combo float64) float64 {
	return math.Min(combo+ComboStep, MaxCombo)
}

// decayCombo 按经过的毫秒数把连击向 1 衰减
func decayCombo(combo float64, elapsedMs float64) float64 {
	if combo <= MinCombo {
		return combo
	}
	return math.Max(MinCombo, combo-elapsedMs*ComboDecayPerMs)
}
