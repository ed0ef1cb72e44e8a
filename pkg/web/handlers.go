package web

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/sitsense/go-sitsense/internal/log"
	"github.com/sitsense/go-sitsense/pkg/hub"
	"github.com/sitsense/go-sitsense/pkg/posture"
	"github.com/sitsense/go-sitsense/pkg/protocol"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"dashboards": s.statusHub.ClientCount(),
	})
}

// handleStatus returns the latest published pipeline state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	state, ok := s.currentState()
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frames processed yet",
		})
	}
	return c.JSON(state)
}

// handleScores returns only the component scores from the latest state.
func (s *Server) handleScores(c *fiber.Ctx) error {
	state, ok := s.currentState()
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frames processed yet",
		})
	}
	return c.JSON(state.Scores)
}

// handleMetrics serves pipeline counters in Prometheus text format.
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	var stats posture.Stats
	if s.stats != nil {
		stats = s.stats.GetStats()
	}
	return c.SendString(fmt.Sprintf(`# HELP sitsense_dashboards Connected dashboard count
# TYPE sitsense_dashboards gauge
sitsense_dashboards %d

# HELP sitsense_frames_ingested Total pose frames accepted on /ws/pose
# TYPE sitsense_frames_ingested counter
sitsense_frames_ingested %d

# HELP sitsense_frames_dropped Total pose frames dropped at ingest
# TYPE sitsense_frames_dropped counter
sitsense_frames_dropped %d

# HELP sitsense_frames_processed Total frames run through the pipeline
# TYPE sitsense_frames_processed counter
sitsense_frames_processed %d

# HELP sitsense_frames_degraded Total frames with missing keypoints
# TYPE sitsense_frames_degraded counter
sitsense_frames_degraded %d

# HELP sitsense_frames_skipped Total frames skipped outside a session
# TYPE sitsense_frames_skipped counter
sitsense_frames_skipped %d

# HELP sitsense_frames_admitted Total frames recorded into score history
# TYPE sitsense_frames_admitted counter
sitsense_frames_admitted %d

# HELP sitsense_alerts_fired Total haptic alerts fired
# TYPE sitsense_alerts_fired counter
sitsense_alerts_fired %d
`, s.statusHub.ClientCount(), s.framesIngested.Load(), s.framesDropped.Load(),
		stats.FramesProcessed, stats.FramesDegraded, stats.FramesSkipped,
		stats.FramesAdmitted, stats.AlertsFired))
}

// handleStatusWS streams state updates to a dashboard client.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	// Send the current state so the dashboard doesn't wait a frame.
	if state, ok := s.currentState(); ok {
		c.WriteJSON(state)
	}

	client := hub.NewClient(s.statusHub, c)
	client.Run() // Blocks until the connection closes
}

// handlePoseWS ingests keypoint frames from the pose producer.
func (s *Server) handlePoseWS(c *websocket.Conn) {
	log.Info("Pose producer connected")
	defer log.Info("Pose producer disconnected")

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			log.Warn("Invalid pose message", "error", err)
			continue
		}
		if msg.Type != protocol.TypePoseFrame {
			log.Debug("Unexpected message on pose socket", "type", msg.Type)
			continue
		}

		data, err := msg.GetPoseFrameData()
		if err != nil {
			log.Warn("Invalid pose frame payload", "error", err)
			continue
		}
		s.offerFrame(data.ToFrame())
	}
}
