// Package web provides the device HTTP surface: a realtime dashboard
// feed, the pose ingest websocket, and health/metrics endpoints.
package web

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/sitsense/go-sitsense/internal/log"
	"github.com/sitsense/go-sitsense/pkg/hub"
	"github.com/sitsense/go-sitsense/pkg/pose"
	"github.com/sitsense/go-sitsense/pkg/posture"
)

// StatsProvider exposes pipeline counters for the metrics endpoint.
type StatsProvider interface {
	GetStats() posture.Stats
}

// Server is the device web server. It implements the pipeline's frame
// source (pose frames arrive over /ws/pose) and its state publisher
// (state fans out to /ws/status dashboards).
type Server struct {
	app  *fiber.App
	port string

	// Latest published state
	stateMu  sync.RWMutex
	state    posture.State
	hasState bool

	statusHub *hub.Hub

	// Pose ingest
	framesMu     sync.Mutex
	frames       chan pose.Frame
	framesClosed bool

	stats StatsProvider

	framesIngested atomic.Uint64
	framesDropped  atomic.Uint64
}

// NewServer creates the device web server on the given port.
func NewServer(port string, stats StatsProvider) *Server {
	s := &Server{
		port:      port,
		statusHub: hub.New("status"),
		frames:    make(chan pose.Frame, 64),
		stats:     stats,
	}

	app := fiber.New(fiber.Config{
		AppName:               "SitSense",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	// Static dashboard assets
	app.Static("/", "./web")

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/scores", s.handleScores)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/pose", websocket.New(s.handlePoseWS))

	s.app = app
	return s
}

// SetStatsProvider wires the metrics endpoint to the pipeline. The
// server is built before the pipeline, so this is set after the fact.
func (s *Server) SetStatsProvider(stats StatsProvider) {
	s.stats = stats
}

// Start runs the status hub and serves HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	log.Info("Web server listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// PublishState records the latest pipeline state and broadcasts it to
// connected dashboards.
func (s *Server) PublishState(state posture.State) {
	s.stateMu.Lock()
	s.state = state
	s.hasState = true
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// Frames returns the channel of ingested pose frames.
func (s *Server) Frames() <-chan pose.Frame {
	return s.frames
}

// Close stops the frame source. Safe to call more than once.
func (s *Server) Close() error {
	s.framesMu.Lock()
	defer s.framesMu.Unlock()
	if !s.framesClosed {
		s.framesClosed = true
		close(s.frames)
	}
	return nil
}

// offerFrame hands a frame to the pipeline, dropping it when the
// pipeline is behind.
func (s *Server) offerFrame(f pose.Frame) {
	s.framesMu.Lock()
	defer s.framesMu.Unlock()
	if s.framesClosed {
		return
	}
	select {
	case s.frames <- f:
		s.framesIngested.Add(1)
	default:
		s.framesDropped.Add(1)
	}
}

func (s *Server) currentState() (posture.State, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state, s.hasState
}
