package memimg

import (
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

// 渲染器使用的图标文件名
const (
	IconFood         = "food.png"
	IconSpeedBoost   = "speed_boost.png"
	IconSlowDown     = "slow_down.png"
	IconDoublePoints = "double_points.png"
	IconShield       = "shield.png"
)

var (
	icons      = map[string]image.Image{}
	iconsMutex sync.RWMutex
)

var supportedExt = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true}

// LoadIcons replaces the cache with every image under directory, scaled to blockSize.
func LoadIcons(directory string, blockSize int) error {
	loaded := make(map[string]image.Image)
	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !supportedExt[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		img, err := loadIcon(path, blockSize)
		if err != nil {
			// 单个坏文件不影响其他图标
			log.Printf("跳过图标 %s: %v", path, err)
			return nil
		}
		loaded[filepath.Base(path)] = img
		return nil
	})
	if err != nil {
		return err
	}

	iconsMutex.Lock()
	icons = loaded
	iconsMutex.Unlock()
	return nil
}

func loadIcon(path string, blockSize int) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, blockSize, blockSize, imaging.Lanczos), nil
}

// WatchIcons keeps the cache in sync with directory until the returned closer is closed.
func WatchIcons(directory string, blockSize int) (io.Closer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name := filepath.Base(event.Name)
				if !supportedExt[strings.ToLower(filepath.Ext(name))] {
					continue
				}
				if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
					img, err := loadIcon(event.Name, blockSize)
					if err == nil {
						iconsMutex.Lock()
						icons[name] = img
						iconsMutex.Unlock()
					}
				}
				if event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename {
					iconsMutex.Lock()
					delete(icons, name)
					iconsMutex.Unlock()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Println("error:", err)
			}
		}
	}()

	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func GetIcon(filename string) (image.Image, bool) {
	iconsMutex.RLock()
	img, exists := icons[filename]
	iconsMutex.RUnlock()
	return img, exists
}
