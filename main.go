package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-core/api"
	"github.com/hoshinonyaruko/snake-core/config"
	"github.com/hoshinonyaruko/snake-core/memimg"
	"github.com/hoshinonyaruko/snake-core/snake"
	"github.com/hoshinonyaruko/snake-core/sqlite"
)

const configPath = "./config.json"

func main() {
	// Initialize the configuration
	cfg := config.LoadConfig(configPath)
	EnsureFoldersExist(cfg.IconDir)

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("打开数据库失败: %v", err)
	}
	defer db.Close()
	store := sqlite.NewStore(db)

	hub := api.NewHub()
	recorder := api.NewRecorder(store, 64)
	defer recorder.Close()

	game, err := snake.NewGame(cfg.Game.Partial(),
		snake.WithHighScoreStore(store),
		snake.WithFeedback(api.NewFeedback(hub, recorder)),
	)
	if err != nil {
		log.Fatalf("游戏配置无效: %v", err)
	}
	defer game.Destroy()

	// 获取blockSize
	blockSize := config.GetConfigValue("blocksize").(int)
	// 载入图标到内存 加速绘图
	if err := memimg.LoadIcons(cfg.IconDir, blockSize); err != nil {
		log.Printf("加载图标失败: %v", err)
	}
	if w, err := memimg.WatchIcons(cfg.IconDir, blockSize); err != nil {
		log.Printf("监听图标目录失败: %v", err)
	} else {
		defer w.Close()
	}

	// 配置热更新，只下发 game 块
	if w, err := config.Watch(configPath, func(c *config.AppConfig) {
		if err := game.UpdateConfig(c.Game.Partial()); err != nil {
			log.Printf("忽略无效的游戏配置: %v", err)
		}
	}); err != nil {
		log.Printf("监听配置文件失败: %v", err)
	} else {
		defer w.Close()
	}

	router := gin.Default()
	api.RegisterRoutes(router, game, hub, store, api.RenderOptions{
		BlockSize: blockSize,
		SelfPath:  config.GetConfigValue("selfpath").(string),
		StaticDir: "./static",
	})
	// 从配置单例读取端口 监听
	if err := router.Run(":" + config.GetConfigValue("port").(string)); err != nil {
		log.Printf("服务退出: %v", err)
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(iconDir string) {
	folders := []string{"static", iconDir}

	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			err := os.MkdirAll(folder, 0755)
			if err != nil {
				log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			log.Printf("Created %s directory", folder)
		} else {
			// 文件夹已存在
			log.Printf("%s directory already exists", folder)
		}
	}
}
