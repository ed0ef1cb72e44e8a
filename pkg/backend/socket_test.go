package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sitsense/go-sitsense/pkg/posture"
	"github.com/sitsense/go-sitsense/pkg/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsServer upgrades one connection and hands it to fn.
func wsServer(t *testing.T, fn func(*websocket.Conn, *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		fn(ws, r)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSocketClient_ReceivesSettingsPush(t *testing.T) {
	srv := wsServer(t, func(ws *websocket.Conn, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" || r.Header.Get("X-Device-ID") != "device-1" {
			t.Error("missing auth headers on dial")
		}
		msg, _ := protocol.NewSettingsMessage(45, 65, true)
		raw, _ := msg.Bytes()
		ws.WriteMessage(websocket.TextMessage, raw)
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	store := NewStore(posture.Settings{Sensitivity: 75})
	c := NewSocketClient(wsURL(srv), "secret", "device-1", store)
	c.SetTiming(time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitFor(t, time.Second, func() bool {
		return store.Current().Sensitivity == 45
	}, "settings push never reached the store")

	got := store.Current()
	if got.VibrationIntensity != 65 || !got.HasActiveSession {
		t.Errorf("store = %+v", got)
	}
}

func TestSocketClient_SessionStatusFlipsFlag(t *testing.T) {
	srv := wsServer(t, func(ws *websocket.Conn, r *http.Request) {
		msg, _ := protocol.NewSessionStatusMessage(protocol.SessionStop)
		raw, _ := msg.Bytes()
		ws.WriteMessage(websocket.TextMessage, raw)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	store := NewStore(posture.Settings{Sensitivity: 60, HasActiveSession: true})
	c := NewSocketClient(wsURL(srv), "secret", "device-1", store)
	c.SetTiming(time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitFor(t, time.Second, func() bool {
		return !store.Current().HasActiveSession
	}, "session stop never reached the store")

	if got := store.Current(); got.Sensitivity != 60 {
		t.Errorf("sensitivity changed on session flip: %+v", got)
	}
}

func TestSocketClient_SendsHeartbeat(t *testing.T) {
	heartbeats := make(chan string, 4)
	srv := wsServer(t, func(ws *websocket.Conn, r *http.Request) {
		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.ParseMessage(raw)
			if err != nil || msg.Type != protocol.TypeHeartbeat {
				continue
			}
			hb, err := msg.GetHeartbeatData()
			if err != nil {
				continue
			}
			heartbeats <- hb.DeviceID
		}
	})
	defer srv.Close()

	store := NewStore(posture.Settings{})
	c := NewSocketClient(wsURL(srv), "secret", "device-1", store)
	c.SetTiming(10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	select {
	case id := <-heartbeats:
		if id != "device-1" {
			t.Errorf("heartbeat device = %q, want device-1", id)
		}
	case <-time.After(time.Second):
		t.Fatal("no heartbeat received")
	}
}

func TestSocketClient_ReconnectsAfterDrop(t *testing.T) {
	conns := make(chan struct{}, 8)
	srv := wsServer(t, func(ws *websocket.Conn, r *http.Request) {
		conns <- struct{}{}
		// Drop immediately to force a reconnect.
	})
	defer srv.Close()

	store := NewStore(posture.Settings{})
	c := NewSocketClient(wsURL(srv), "secret", "device-1", store)
	c.SetTiming(time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-conns:
		case <-time.After(time.Second):
			t.Fatalf("connection %d never arrived", i+1)
		}
	}
}
