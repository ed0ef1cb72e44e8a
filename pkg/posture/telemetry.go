package posture

import (
	"context"
	"time"

	"github.com/sitsense/go-sitsense/internal/log"
)

// TelemetrySink receives aggregated scores. Implementations own their wire
// format; the pipeline only hands over the short-window averages.
type TelemetrySink interface {
	SendScores(ctx context.Context, scores Scores) error
}

// Scheduler rate-limits telemetry emission. It always reads the SHORT
// window regardless of what the alert coordinator evaluates. Sends are
// dispatched on their own goroutine so a slow backend never stalls the
// frame loop; failures are logged and the next interval retries, the
// interval itself being the only throttle.
type Scheduler struct {
	sink        TelemetrySink
	interval    time.Duration
	sendTimeout time.Duration

	lastSent time.Time
	sent     bool
}

// NewScheduler creates a telemetry scheduler.
func NewScheduler(sink TelemetrySink, interval time.Duration) *Scheduler {
	return &Scheduler{
		sink:        sink,
		interval:    interval,
		sendTimeout: 10 * time.Second,
	}
}

// MaybeSend emits the short-window averages if the interval has elapsed.
// Returns true when a send was dispatched.
func (s *Scheduler) MaybeSend(now time.Time, hist *Aggregator) bool {
	if s.sink == nil {
		return false
	}
	if s.sent && now.Sub(s.lastSent) < s.interval {
		return false
	}

	scores := hist.ShortAverages(now)
	s.lastSent = now
	s.sent = true

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		defer cancel()
		if err := s.sink.SendScores(ctx, scores); err != nil {
			log.Warn("telemetry send failed", "err", err)
		}
	}()
	return true
}
