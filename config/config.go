package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hoshinonyaruko/snake-core/structs"
	"github.com/joho/godotenv"
)

// GameSettings 配置文件里的 game 块。Speed 为 0 时按难度取速度。
type GameSettings struct {
	GridSize   int    `json:"gridSize"`
	Difficulty string `json:"difficulty"`
	Speed      int    `json:"speed,omitempty"`
	WrapWalls  bool   `json:"wrapWalls"`
	PowerUps   bool   `json:"powerUps"`
}

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath  string       `json:"selfpath"`
	Port      string       `json:"port"`
	Blocksize int          `json:"blocksize"`
	DBPath    string       `json:"dbpath"`
	IconDir   string       `json:"icondir"`
	Game      GameSettings `json:"game"`
}

// 可以覆盖配置文件的环境变量
const (
	EnvPort     = "SNAKE_PORT"
	EnvSelfPath = "SNAKE_SELFPATH"
	EnvDB       = "SNAKE_DB"
)

var (
	instance *AppConfig
	once     sync.Once
)

// Defaults returns the configuration written when no file exists.
func Defaults() *AppConfig {
	return &AppConfig{
		SelfPath:  "http://127.0.0.1:38870",
		Port:      "38870",
		Blocksize: 20,
		DBPath:    "snake.db",
		IconDir:   "icons",
		Game: GameSettings{
			GridSize:   20,
			Difficulty: string(structs.Medium),
			WrapWalls:  false,
			PowerUps:   true,
		},
	}
}

// LoadConfig initializes and returns the instance of AppConfig
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		// .env 可选
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("加载 .env 失败: %v", err)
		}
		cfg, err := Load(filePath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		instance = cfg
	})
	return instance
}

// Load reads filePath, creating it with defaults when missing, then applies
// environment overrides. It does not touch the singleton.
func Load(filePath string) (*AppConfig, error) {
	cfg := Defaults()
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := saveConfig(filePath, cfg); err != nil {
			return nil, err
		}
	} else if err := loadConfig(filePath, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return cfg, nil
}

// loadConfig loads the settings from the file
func loadConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decoding %s: %w", filePath, err)
	}
	return nil
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(EnvPort); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv(EnvSelfPath); v != "" {
		cfg.SelfPath = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
}

func (c *AppConfig) validate() error {
	if c.Port == "" {
		return errors.New("port is empty")
	}
	if c.Blocksize <= 0 {
		return fmt.Errorf("blocksize must be positive, got %d", c.Blocksize)
	}
	return nil
}

// Partial converts the game block into a partial engine config.
// Difficulty 为空或 Speed 为 0 的字段不下发。
func (s GameSettings) Partial() structs.PartialConfig {
	p := structs.PartialConfig{
		WrapWalls: &s.WrapWalls,
		PowerUps:  &s.PowerUps,
	}
	if s.GridSize > 0 {
		p.GridSize = &s.GridSize
	}
	if s.Difficulty != "" {
		d := structs.Difficulty(strings.ToUpper(s.Difficulty))
		p.Difficulty = &d
	}
	if s.Speed > 0 {
		p.Speed = &s.Speed
	}
	return p
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	switch key {
	case "selfpath":
		return instance.SelfPath
	case "port":
		return instance.Port
	case "blocksize":
		return instance.Blocksize
	case "dbpath":
		return instance.DBPath
	case "icondir":
		return instance.IconDir
	default:
		return ""
	}
}

// Watch reloads filePath whenever it is written and hands the result to onChange.
// 监听所在目录，编辑器整体替换文件时也能收到事件。
func Watch(filePath string, onChange func(*AppConfig)) (io.Closer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	target := filepath.Clean(filePath)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					cfg, err := Load(filePath)
					if err != nil {
						log.Printf("重新加载配置失败: %v", err)
						continue
					}
					log.Println("配置已重新加载:", event.Name)
					onChange(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Println("error:", err)
			}
		}
	}()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}
