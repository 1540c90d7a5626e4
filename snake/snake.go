// 关于蛇的每一帧更新
package snake

import (
	"time"

	"github.com/hoshinonyaruko/snake-core/structs"
)

const (
	// PowerUpSpawnChance 每个逻辑帧生成道具的概率
	PowerUpSpawnChance = 0.05
	// PowerUpLifetime 未拾取道具的存在时间
	PowerUpLifetime = 10000 * time.Millisecond

	ReasonWall = "wall collision"
	ReasonSelf = "self collision"
)

// update advances the snake by one cell. Caller holds g.mu.
func (g *Game) update(now time.Time) {
	// 应用下一个方向
	g.direction = g.nextDirection

	head := MovePoint(g.snake[0], g.direction)
	size := g.config.GridSize

	if g.config.WrapWalls {
		head = WrapPosition(head, size, size)
	} else if !InBounds(head, size) {
		g.collide(ReasonWall)
		return
	}

	// 自撞检测，对比移动前的身体
	if PointInSlice(head, g.snake[1:]) {
		g.collide(ReasonSelf)
		return
	}

	g.snake = append([]structs.Point{head}, g.snake...)

	switch {
	case PointsEqual(head, g.food):
		// 吃到食物，保留尾部
		g.eatFood()
	case g.powerUp != nil && PointsEqual(head, g.powerUp.Position):
		// 道具不增加长度
		g.eatPowerUp()
		g.dropTail()
	default:
		g.dropTail()
	}

	if g.config.PowerUps && g.powerUp == nil && g.rng.Float64() < PowerUpSpawnChance {
		g.spawnPowerUp(now)
	}

	if g.powerUp != nil && now.UnixMilli() > g.powerUp.ExpiresAt {
		g.powerUp = nil
	}
}

// collide 处理碰撞：护盾抵消一次，否则游戏结束
func (g *Game) collide(reason string) {
	if !g.effects.Active(structs.Shield) {
		g.gameOver(reason)
		return
	}
	g.effects.Clear(structs.Shield)
	if reason == ReasonWall {
		// 护盾保护，弹回
		g.direction = OppositeDirection(g.direction)
		g.nextDirection = g.direction
	}
	g.feedback.OnWarning()
}

func (g *Game) dropTail() {
	g.snake = g.snake[:len(g.snake)-1]
}

// eatFood 吃食物：按当前连击计分，然后连击 +0.1
func (g *Game) eatFood() {
	points := CalculateScore(FoodPoints, g.effects.ScoreMultiplier(), g.combo)
	g.stats.Score += points
	g.stats.ApplesEaten++
	g.stats.Length = len(g.snake)
	g.recordHighScore()
	g.combo = nextCombo(g.combo)
	g.feedback.OnEat(g.stats)
	g.spawnFood()
}

// eatPowerUp 吃道具：固定加分并激活对应效果
func (g *Game) eatPowerUp() {
	if g.powerUp == nil {
		return
	}
	t := g.powerUp.Type
	g.stats.PowerUpsCollected++
	g.stats.Score += PowerUpPoints
	g.recordHighScore()
	g.effects.Arm(t)
	g.feedback.OnPowerUp(t)
	g.powerUp = nil
}

// spawnFood 避开蛇身和场上的道具
func (g *Game) spawnFood() {
	exclude := g.snake
	if g.powerUp != nil {
		exclude = make([]structs.Point, 0, len(g.snake)+1)
		exclude = append(exclude, g.snake...)
		exclude = append(exclude, g.powerUp.Position)
	}
	g.food = RandomPoint(g.rng, g.config.GridSize, g.config.GridSize, exclude)
}

func (g *Game) spawnPowerUp(now time.Time) {
	t := effectKinds[g.rng.Intn(len(effectKinds))]
	exclude := make([]structs.Point, 0, len(g.snake)+1)
	exclude = append(exclude, g.snake...)
	exclude = append(exclude, g.food)
	g.powerUp = &structs.PowerUp{
		Type:      t,
		Position:  RandomPoint(g.rng, g.config.GridSize, g.config.GridSize, exclude),
		ExpiresAt: now.Add(PowerUpLifetime).UnixMilli(),
	}
}
