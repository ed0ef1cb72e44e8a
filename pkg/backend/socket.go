package backend

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sitsense/go-sitsense/internal/log"
	"github.com/sitsense/go-sitsense/pkg/posture"
	"github.com/sitsense/go-sitsense/pkg/protocol"
)

// Socket client timing.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
	handshakeTimeout         = 10 * time.Second
)

// SocketClient maintains a WebSocket connection to the backend for
// realtime settings pushes and session transitions. It sends periodic
// heartbeats so the backend can track device liveness.
type SocketClient struct {
	url      string
	apiKey   string
	deviceID string
	store    *Store

	heartbeat time.Duration
	reconnect time.Duration

	wsMutex sync.Mutex
	ws      *websocket.Conn
}

// NewSocketClient creates a settings socket client. url is the full
// ws:// or wss:// endpoint.
func NewSocketClient(url, apiKey, deviceID string, store *Store) *SocketClient {
	return &SocketClient{
		url:       url,
		apiKey:    apiKey,
		deviceID:  deviceID,
		store:     store,
		heartbeat: DefaultHeartbeatInterval,
		reconnect: DefaultReconnectDelay,
	}
}

// SetTiming overrides the heartbeat interval and reconnect delay.
func (c *SocketClient) SetTiming(heartbeat, reconnect time.Duration) {
	c.heartbeat = heartbeat
	c.reconnect = reconnect
}

// Run connects and serves the socket until the context is cancelled,
// reconnecting after connection failures.
func (c *SocketClient) Run(ctx context.Context) {
	for {
		if err := c.serve(ctx); err != nil && ctx.Err() == nil {
			log.Warn("Settings socket disconnected", "error", err)
		}
		select {
		case <-ctx.Done():
			log.Info("Settings socket stopped")
			return
		case <-time.After(c.reconnect):
		}
	}
}

func (c *SocketClient) serve(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := http.Header{}
	header.Set("X-API-Key", c.apiKey)
	header.Set("X-Device-ID", c.deviceID)

	ws, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}
	log.Info("Settings socket connected", "url", c.url)

	c.wsMutex.Lock()
	c.ws = ws
	c.wsMutex.Unlock()
	defer ws.Close()

	// Close the connection when the context ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-done:
		}
	}()

	go c.heartbeatLoop(ctx, done)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		c.handleMessage(raw)
	}
}

func (c *SocketClient) heartbeatLoop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	// First heartbeat right away so the backend marks the device online.
	c.sendHeartbeat()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			c.sendHeartbeat()
		}
	}
}

func (c *SocketClient) sendHeartbeat() {
	msg, err := protocol.NewHeartbeatMessage(c.deviceID)
	if err != nil {
		return
	}
	raw, err := msg.Bytes()
	if err != nil {
		return
	}

	c.wsMutex.Lock()
	defer c.wsMutex.Unlock()
	if c.ws == nil {
		return
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
		log.Debug("Heartbeat write failed", "error", err)
	}
}

func (c *SocketClient) handleMessage(raw []byte) {
	msg, err := protocol.ParseMessage(raw)
	if err != nil {
		log.Warn("Settings socket received invalid message", "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeSettings:
		data, err := msg.GetSettingsData()
		if err != nil {
			log.Warn("Invalid settings push", "error", err)
			return
		}
		c.store.Update(posture.Settings{
			Sensitivity:        data.Sensitivity,
			VibrationIntensity: data.VibrationIntensity,
			HasActiveSession:   data.HasActiveSession,
		})
		log.Info("Settings pushed",
			"sensitivity", data.Sensitivity,
			"intensity", data.VibrationIntensity,
			"active_session", data.HasActiveSession)

	case protocol.TypeSessionStatus:
		data, err := msg.GetSessionStatusData()
		if err != nil {
			log.Warn("Invalid session status", "error", err)
			return
		}
		c.store.SetActiveSession(data.Action == protocol.SessionStart)
		log.Info("Session status changed", "action", data.Action)

	default:
		log.Debug("Unhandled socket message", "type", msg.Type)
	}
}
