package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-core/snake"
	"github.com/hoshinonyaruko/snake-core/structs"
)

func dialStream(t *testing.T, query string) (*websocket.Conn, *snake.Game, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	g, err := snake.NewGame(structs.PartialConfig{WrapWalls: ptr(true)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(g.Destroy)

	hub := NewHub()
	router := gin.New()
	router.GET("/ws", StreamState(g, hub))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn, g, hub
}

func ptr[T any](v T) *T { return &v }

func TestStreamSendsStateAndAppliesActions(t *testing.T) {
	conn, g, _ := dialStream(t, "")

	var first Envelope
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("reading initial frame: %v", err)
	}
	if first.Type != "state" || first.State == nil || first.State.State != structs.Idle {
		t.Fatalf("initial frame = %+v", first)
	}

	if err := conn.WriteJSON(ClientMessage{Action: "start"}); err != nil {
		t.Fatal(err)
	}
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for RUNNING: %v", err)
		}
		if env.Type == "state" && env.State.State == structs.Running {
			break
		}
	}
	if g.GetState().State != structs.Running {
		t.Fatal("game not started")
	}

	if err := conn.WriteJSON(ClientMessage{Action: "fly"}); err != nil {
		t.Fatal(err)
	}
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for error frame: %v", err)
		}
		if env.Type == "error" {
			break
		}
	}
}

func TestStreamForwardsEvents(t *testing.T) {
	conn, _, hub := dialStream(t, "")

	var first Envelope
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	// 订阅在首帧之前完成
	hub.Publish(Event{Kind: EventWarning})

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for event: %v", err)
		}
		if env.Type == "event" {
			if env.Event.Kind != EventWarning {
				t.Fatalf("event = %+v", env.Event)
			}
			return
		}
	}
}

func TestStreamMsgpack(t *testing.T) {
	conn, _, _ := dialStream(t, "?format=msgpack")

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", msgType)
	}
	var env Envelope
	if err := DecodeMsgpack(data, &env); err != nil {
		t.Fatalf("decoding msgpack frame: %v", err)
	}
	if env.Type != "state" || env.State == nil || len(env.State.Snake) != 3 {
		t.Fatalf("frame = %+v", env)
	}

	// 客户端也可以发送 msgpack
	payload, err := EncodeMsgpack(ClientMessage{Action: "start"})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		t.Fatal(err)
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for RUNNING: %v", err)
		}
		var env Envelope
		if err := DecodeMsgpack(data, &env); err != nil {
			t.Fatal(err)
		}
		if env.Type == "state" && env.State.State == structs.Running {
			return
		}
	}
}
