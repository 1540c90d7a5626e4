package api

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-core/structs"
)

// 事件类型
const (
	EventEat      = "eat"
	EventPowerUp  = "powerUp"
	EventGameOver = "gameOver"
	EventPause    = "pause"
	EventResume   = "resume"
	EventWarning  = "warning"
)

// Event is a feedback notification pushed to stream subscribers.
type Event struct {
	Kind    string              `json:"kind"`
	PowerUp structs.PowerUpType `json:"powerUp,omitempty"`
	Reason  string              `json:"reason,omitempty"`
	Stats   *structs.GameStats  `json:"stats,omitempty"`
	At      int64               `json:"at"` // Unix 毫秒
}

// Hub fans events out to subscribers. Publish never blocks; a slow
// subscriber loses events instead of stalling the game tick.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe returns an event channel and a function that detaches it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// GameWriter stores finished games.
type GameWriter interface {
	RecordGame(structs.GameRecord) error
}

// Recorder writes finished games in the background.
type Recorder struct {
	store     GameWriter
	queue     chan structs.GameRecord
	done      chan struct{}
	closeOnce sync.Once
}

func NewRecorder(store GameWriter, size int) *Recorder {
	r := &Recorder{
		store: store,
		queue: make(chan structs.GameRecord, size),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Enqueue reports false when the queue is full and the record was dropped.
// Must not be called after Close.
func (r *Recorder) Enqueue(rec structs.GameRecord) bool {
	select {
	case r.queue <- rec:
		return true
	default:
		log.Printf("记录队列已满，丢弃对局 %s", rec.SessionID)
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		if err := r.store.RecordGame(rec); err != nil {
			log.Printf("保存对局 %s 失败: %v", rec.SessionID, err)
		}
	}
}

// Close flushes queued records and stops the worker.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() { close(r.queue) })
	<-r.done
}

// Feedback is the engine's feedback sink. It runs under the engine lock,
// so it only logs and hands work off.
type Feedback struct {
	hub      *Hub
	recorder *Recorder
}

// NewFeedback accepts a nil recorder when game history is not kept.
func NewFeedback(hub *Hub, recorder *Recorder) *Feedback {
	return &Feedback{hub: hub, recorder: recorder}
}

func (f *Feedback) publish(ev Event) {
	ev.At = time.Now().UnixMilli()
	f.hub.Publish(ev)
}

func (f *Feedback) OnEat(stats structs.GameStats) {
	f.publish(Event{Kind: EventEat, Stats: &stats})
}

func (f *Feedback) OnPowerUp(t structs.PowerUpType) {
	f.publish(Event{Kind: EventPowerUp, PowerUp: t})
}

func (f *Feedback) OnGameOver(reason string, stats structs.GameStats, cfg structs.GameConfig) {
	log.Printf("对局结束: %s, 得分 %d, 长度 %d, 用时 %dms", reason, stats.Score, stats.Length, stats.TimeElapsed)
	f.publish(Event{Kind: EventGameOver, Reason: reason, Stats: &stats})
	if f.recorder == nil {
		return
	}
	f.recorder.Enqueue(structs.GameRecord{
		SessionID:         uuid.NewString(),
		Score:             stats.Score,
		ApplesEaten:       stats.ApplesEaten,
		PowerUpsCollected: stats.PowerUpsCollected,
		Length:            stats.Length,
		TimeElapsed:       stats.TimeElapsed,
		Reason:            reason,
		Difficulty:        cfg.Difficulty,
		EndedAt:           time.Now().Unix(),
	})
}

func (f *Feedback) OnPause()   { f.publish(Event{Kind: EventPause}) }
func (f *Feedback) OnResume()  { f.publish(Event{Kind: EventResume}) }
func (f *Feedback) OnWarning() { f.publish(Event{Kind: EventWarning}) }
