package api

import (
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-core/snake"
	"github.com/hoshinonyaruko/snake-core/structs"
)

// 合法的方向参数
var validDirections = map[string]structs.Direction{
	"up":    structs.Up,
	"down":  structs.Down,
	"left":  structs.Left,
	"right": structs.Right,
}

// 最近对局列表的长度
const recentGamesLimit = 10

// GameHistory lists finished games.
type GameHistory interface {
	RecentGames(limit int) ([]structs.GameRecord, error)
}

// RenderOptions controls /render-map.
type RenderOptions struct {
	BlockSize int
	SelfPath  string // 对外访问地址，用于拼接 image_url
	StaticDir string
}

// RegisterRoutes wires every endpoint onto router. history may be nil.
func RegisterRoutes(router *gin.Engine, g *snake.Game, hub *Hub, history GameHistory, opts RenderOptions) {
	// 生命周期
	router.POST("/start", Control(g, (*snake.Game).Start))
	router.POST("/pause", Control(g, (*snake.Game).Pause))
	router.POST("/resume", Control(g, (*snake.Game).Resume))
	router.POST("/reset", Control(g, (*snake.Game).Reset))
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(g))
	router.GET("/state", GetState(g))
	router.GET("/config", GetConfig(g))
	router.POST("/config", UpdateConfig(g))
	// 渲染函数 返回静态地址
	router.GET("/render-map", RenderMapHandler(g, opts))
	router.GET("/high-scores", HighScores(g, history))
	router.GET("/ws", StreamState(g, hub))
	router.Static("/static", opts.StaticDir)
}

// Control runs a lifecycle operation and answers with the new snapshot.
func Control(g *snake.Game, op func(*snake.Game)) gin.HandlerFunc {
	return func(c *gin.Context) {
		op(g)
		c.JSON(http.StatusOK, g.GetState())
	}
}

func UpdateDirection(g *snake.Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		newDirection := strings.ToLower(c.Query("direction"))

		// 验证是否提供了必要的查询参数
		if newDirection == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: direction"})
			return
		}
		d, valid := validDirections[newDirection]
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid direction '%s' provided", newDirection)})
			return
		}

		// 180 度掉头会被引擎静默忽略
		g.ChangeDirection(d)
		c.JSON(http.StatusOK, gin.H{
			"message":       "Direction updated successfully",
			"nextDirection": g.GetState().NextDirection,
		})
	}
}

// GetState answers 304 when ?since= already matches the current version.
func GetState(g *snake.Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.Query("since"); raw != "" {
			since, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
				return
			}
			if g.Version() <= since {
				c.Status(http.StatusNotModified)
				return
			}
		}
		c.JSON(http.StatusOK, g.GetState())
	}
}

func GetConfig(g *snake.Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, g.GetConfig())
	}
}

func UpdateConfig(g *snake.Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		var partial structs.PartialConfig
		if err := c.ShouldBindJSON(&partial); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := g.UpdateConfig(partial); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, snake.ErrInvalidConfig) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, g.GetConfig())
	}
}

func RenderMapHandler(g *snake.Game, opts RenderOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		img := RenderSnapshot(g.GetState(), opts.BlockSize)

		if c.Query("inline") == "1" {
			c.Header("Content-Type", "image/png")
			c.Status(http.StatusOK)
			if err := png.Encode(c.Writer, img); err != nil {
				log.Printf("输出图片失败: %v", err)
			}
			return
		}

		// 保存图片
		if err := os.MkdirAll(opts.StaticDir, os.ModePerm); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to create static directory"})
			return
		}
		if err := imaging.Save(img, filepath.Join(opts.StaticDir, "board.png")); err != nil {
			log.Printf("保存图片失败: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save board image"})
			return
		}

		imageUrl := fmt.Sprintf("%s/static/board.png", strings.TrimRight(opts.SelfPath, "/"))
		c.JSON(http.StatusOK, gin.H{"image_url": imageUrl})
	}
}

func HighScores(g *snake.Game, history GameHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		recent := []structs.GameRecord{}
		if history != nil {
			var err error
			recent, err = history.RecentGames(recentGamesLimit)
			if err != nil {
				log.Printf("读取对局记录失败: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load game history"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"highScore": g.GetState().Stats.HighScore,
			"recent":    recent,
		})
	}
}
