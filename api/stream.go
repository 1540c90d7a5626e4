package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-core/snake"
	"github.com/hoshinonyaruko/snake-core/structs"
	"github.com/vmihailenco/msgpack/v5"
)

// 推送检查间隔，只有版本号变化时才真正发送
const streamInterval = 33 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope is one server-to-client frame.
type Envelope struct {
	Type  string                 `json:"type"` // state / event / error
	State *structs.GameStateData `json:"state,omitempty"`
	Event *Event                 `json:"event,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// ClientMessage is one client-to-server frame.
type ClientMessage struct {
	Action string `json:"action"`
}

// EncodeMsgpack encodes v using its json tags as msgpack keys.
func EncodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeMsgpack(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// StreamState pushes snapshots and feedback events over a websocket and
// applies the actions the client sends back. ?format=msgpack switches the
// server frames to binary msgpack.
func StreamState(g *snake.Game, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		binary := c.Query("format") == "msgpack"

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("Upgrade error:", err)
			return
		}
		defer conn.Close()

		events, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		// 写操作加锁，读协程也会回写
		var writeMu sync.Mutex
		send := func(env Envelope) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			if !binary {
				return conn.WriteJSON(env)
			}
			data, err := EncodeMsgpack(env)
			if err != nil {
				return err
			}
			return conn.WriteMessage(websocket.BinaryMessage, data)
		}

		var lastVersion uint64
		var versionMu sync.Mutex
		pushState := func() error {
			state := g.GetState()
			versionMu.Lock()
			lastVersion = state.Version
			versionMu.Unlock()
			return send(Envelope{Type: "state", State: &state})
		}

		if err := pushState(); err != nil {
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				msgType, data, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						log.Println("Read error:", err)
					}
					return
				}
				var msg ClientMessage
				if msgType == websocket.BinaryMessage {
					err = DecodeMsgpack(data, &msg)
				} else {
					err = json.Unmarshal(data, &msg)
				}
				if err != nil || !ApplyAction(g, msg.Action) {
					send(Envelope{Type: "error", Error: "unknown action: " + msg.Action})
					continue
				}
				// 立即回推，界面响应更快
				pushState()
			}
		}()

		ticker := time.NewTicker(streamInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := send(Envelope{Type: "event", Event: &ev}); err != nil {
					log.Println("Write error:", err)
					return
				}
			case <-ticker.C:
				versionMu.Lock()
				changed := g.Version() != lastVersion
				versionMu.Unlock()
				if !changed {
					continue
				}
				if err := pushState(); err != nil {
					log.Println("Write error:", err)
					return
				}
			}
		}
	}
}

// ApplyAction maps a client action onto the game. It reports false for
// unknown actions.
func ApplyAction(g *snake.Game, action string) bool {
	if d, ok := validDirections[action]; ok {
		g.ChangeDirection(d)
		return true
	}
	switch action {
	case "start":
		g.Start()
	case "pause":
		g.Pause()
	case "resume":
		g.Resume()
	case "reset":
		g.Reset()
	case "toggle":
		switch g.GetState().State {
		case structs.Running:
			g.Pause()
		case structs.Paused:
			g.Resume()
		default:
			g.Start()
		}
	default:
		return false
	}
	return true
}
