// pose-sim: synthetic pose producer for local development
// Streams keypoint frames to a sitsense daemon's /ws/pose endpoint,
// simulating a subject who alternates between good and bad posture.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sitsense/go-sitsense/internal/log"
	"github.com/sitsense/go-sitsense/pkg/pose"
	"github.com/sitsense/go-sitsense/pkg/protocol"
)

var (
	url      = flag.String("url", "ws://localhost:8090/ws/pose", "Pose ingest endpoint")
	fps      = flag.Int("fps", 15, "Frames per second")
	slouch   = flag.Duration("slouch", 0, "Slouch continuously after this long (0 = alternate)")
	interval = flag.Duration("interval", 45*time.Second, "How often to flip between postures")
)

func main() {
	flag.Parse()
	log.Init("info")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for ctx.Err() == nil {
		if err := stream(ctx); err != nil && ctx.Err() == nil {
			log.Warn("Stream ended, reconnecting", "error", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func stream(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, *url, nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	log.Info("Streaming synthetic pose frames", "url", *url, "fps", *fps)

	start := time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			msg, err := protocol.NewPoseFrameMessage(frameAt(now, slouching(now.Sub(start))))
			if err != nil {
				return err
			}
			raw, err := msg.Bytes()
			if err != nil {
				return err
			}
			if err := ws.WriteMessage(websocket.TextMessage, raw); err != nil {
				return err
			}
		}
	}
}

// slouching decides the simulated subject's posture at elapsed time t.
func slouching(t time.Duration) bool {
	if *slouch > 0 {
		return t >= *slouch
	}
	return int(t / *interval)%2 == 1
}

// frameAt builds a synthetic side-view frame with pixel jitter. The
// upright subject sits with a vertical torso; the slouching one bends
// the neck well past any sensible alert threshold.
func frameAt(now time.Time, slouching bool) pose.Frame {
	earX := 116
	if slouching {
		earX = 178 // bends the neck to roughly 45 degrees
	}

	points := map[pose.Joint]pose.Keypoint{
		pose.LShoulder: {X: 107, Y: 200, Visibility: 0.98},
		pose.RShoulder: {X: 157, Y: 200, Visibility: 0.97},
		pose.LEar:      {X: earX, Y: 100, Visibility: 0.96},
		pose.REar:      {X: earX + 44, Y: 100, Visibility: 0.79},
		pose.LHip:      {X: 100, Y: 400, Visibility: 0.92},
		pose.RHip:      {X: 150, Y: 400, Visibility: 0.85},
	}
	for joint, p := range points {
		p.X += rand.Intn(3) - 1
		p.Y += rand.Intn(3) - 1
		points[joint] = p
	}

	return pose.Frame{Time: now, Points: points}
}
