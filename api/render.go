package api

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-core/memimg"
	"github.com/hoshinonyaruko/snake-core/snake"
	"github.com/hoshinonyaruko/snake-core/structs"
)

const minStatusHeight = 16

type rgb struct{ r, g, b float64 }

var (
	headColor  = rgb{0.10, 0.40, 0.10}
	bodyColor  = rgb{0.30, 0.70, 0.30}
	foodColor  = rgb{0.85, 0.15, 0.15}
	shieldRing = rgb{0.20, 0.50, 0.95}
)

// 道具图标与找不到图标时的替代颜色
var powerUpIcons = map[structs.PowerUpType]struct {
	file     string
	fallback rgb
}{
	structs.SpeedBoost:   {memimg.IconSpeedBoost, rgb{1.0, 0.80, 0.0}},
	structs.SlowDown:     {memimg.IconSlowDown, rgb{0.40, 0.60, 1.0}},
	structs.DoublePoints: {memimg.IconDoublePoints, rgb{0.80, 0.30, 0.90}},
	structs.Shield:       {memimg.IconShield, rgb{0.20, 0.50, 0.95}},
}

func statusHeight(blockSize int) int {
	if blockSize < minStatusHeight {
		return minStatusHeight
	}
	return blockSize
}

// RenderSnapshot draws the board with a status line underneath.
func RenderSnapshot(snap structs.GameStateData, blockSize int) image.Image {
	boardPx := snap.Config.GridSize * blockSize
	statusH := statusHeight(blockSize)

	dc := gg.NewContext(boardPx, boardPx+statusH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	renderGrid(dc, boardPx, boardPx, blockSize)

	drawCell(dc, snap.Food, blockSize, memimg.IconFood, foodColor)
	if snap.PowerUp != nil {
		icon := powerUpIcons[snap.PowerUp.Type]
		drawCell(dc, snap.PowerUp.Position, blockSize, icon.file, icon.fallback)
	}

	// 先画身体再画头，头部颜色更深
	for i := len(snap.Snake) - 1; i >= 0; i-- {
		c := bodyColor
		if i == 0 {
			c = headColor
		}
		fillCell(dc, snap.Snake[i], blockSize, c)
	}
	if snap.ActiveEffects.Shield != nil && len(snap.Snake) > 0 {
		head := snap.Snake[0]
		dc.SetRGB(shieldRing.r, shieldRing.g, shieldRing.b)
		dc.SetLineWidth(2)
		dc.DrawCircle(float64(head.X*blockSize)+float64(blockSize)/2, float64(head.Y*blockSize)+float64(blockSize)/2, float64(blockSize)*0.7)
		dc.Stroke()
		dc.SetLineWidth(1)
	}

	if snap.State == structs.GameOver {
		blurred := imaging.Blur(dc.Image(), 3.5)
		dc = gg.NewContextForImage(blurred)
		dc.SetRGB(0.8, 0, 0)
		dc.DrawStringAnchored("GAME OVER", float64(boardPx)/2, float64(boardPx)/2, 0.5, 0.5)
	}

	// 状态栏
	dc.SetRGB(0.95, 0.95, 0.95)
	dc.DrawRectangle(0, float64(boardPx), float64(boardPx), float64(statusH))
	dc.Fill()
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(statusLine(snap), 4, float64(boardPx)+float64(statusH)/2, 0, 0.5)

	return dc.Image()
}

func statusLine(snap structs.GameStateData) string {
	return fmt.Sprintf("%d/%d %s x%.1f", snap.Stats.Score, snap.Stats.HighScore,
		snake.FormatTime(snap.Stats.TimeElapsed), snap.Combo)
}

func drawCell(dc *gg.Context, p structs.Point, blockSize int, icon string, fallback rgb) {
	if img, found := memimg.GetIcon(icon); found {
		dc.DrawImage(img, p.X*blockSize, p.Y*blockSize)
		return
	}
	fillCell(dc, p, blockSize, fallback)
}

func fillCell(dc *gg.Context, p structs.Point, blockSize int, c rgb) {
	dc.SetRGB(c.r, c.g, c.b)
	dc.DrawRectangle(float64(p.X*blockSize), float64(p.Y*blockSize), float64(blockSize), float64(blockSize))
	dc.Fill()
}

func renderGrid(dc *gg.Context, width, height, blockSize int) {
	dc.SetRGB(0.9, 0.9, 0.9)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
		dc.Stroke()
	}
}
