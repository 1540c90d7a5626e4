package snake

import (
	"fmt"

	"github.com/hoshinonyaruko/snake-core/structs"
)

// MaxPlacementAttempts 随机放置的最大尝试次数，超过后接受可能重叠的位置
const MaxPlacementAttempts = 100

var opposites = map[structs.Direction]structs.Direction{
	structs.Up:    structs.Down,
	structs.Down:  structs.Up,
	structs.Left:  structs.Right,
	structs.Right: structs.Left,
}

var difficultySpeeds = map[structs.Difficulty]int{
	structs.Easy:    200,
	structs.Medium:  150,
	structs.Hard:    100,
	structs.Extreme: 60,
}

// RandomPoint draws a point in [0,maxX)x[0,maxY) that is not in exclude.
// After MaxPlacementAttempts draws the last one is returned even if it collides,
// so a full board still terminates.
func RandomPoint(rng Rand, maxX, maxY int, exclude []structs.Point) structs.Point {
	var p structs.Point
	for attempts := 0; attempts < MaxPlacementAttempts; attempts++ {
		p = structs.Point{X: rng.Intn(maxX), Y: rng.Intn(maxY)}
		if !PointInSlice(p, exclude) {
			return p
		}
	}
	return p
}

// PointsEqual 检查两个点是否相等
func PointsEqual(a, b structs.Point) bool {
	return a.X == b.X && a.Y == b.Y
}

// PointInSlice 检查点是否在数组中
func PointInSlice(p structs.Point, points []structs.Point) bool {
	for _, q := range points {
		if PointsEqual(p, q) {
			return true
		}
	}
	return false
}

// OppositeDirection 获取反方向
func OppositeDirection(d structs.Direction) structs.Direction {
	return opposites[d]
}

// ValidDirection reports whether d is one of the four directions.
func ValidDirection(d structs.Direction) bool {
	_, ok := opposites[d]
	return ok
}

// MovePoint 把点沿方向移动一格
func MovePoint(p structs.Point, d structs.Direction) structs.Point {
	switch d {
	case structs.Up:
		p.Y--
	case structs.Down:
		p.Y++
	case structs.Left:
		p.X--
	case structs.Right:
		p.X++
	}
	return p
}

// WrapPosition 确保位置不会超出地图边界，按宽高取模
func WrapPosition(p structs.Point, width, height int) structs.Point {
	p.X = ((p.X % width) + width) % width
	p.Y = ((p.Y % height) + height) % height
	return p
}

// InBounds reports whether p lies on a size x size grid.
func InBounds(p structs.Point, size int) bool {
	return p.X >= 0 && p.X < size && p.Y >= 0 && p.Y < size
}

// SpeedByDifficulty 根据难度获取速度(ms)，未知难度返回 false
func SpeedByDifficulty(d structs.Difficulty) (int, bool) {
	speed, ok := difficultySpeeds[d]
	return speed, ok
}

// FormatTime 把毫秒格式化为 mm:ss
func FormatTime(ms int64) string {
	seconds := ms / 1000
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
