package posture

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sitsense/go-sitsense/internal/log"
	"github.com/sitsense/go-sitsense/pkg/pose"
)

// IntScores is the rounded per-component score payload for the UI.
type IntScores struct {
	Neck      int `json:"neck"`
	Torso     int `json:"torso"`
	Shoulders int `json:"shoulders"`
}

// State is published to the UI collaborator once per processed frame while
// a session is active.
type State struct {
	Scores         IntScores            `json:"scores"`
	Issues         map[Component]string `json:"issues"`
	Placement      PlacementQuality     `json:"placement_quality"`
	Guidance       string               `json:"guidance,omitempty"`
	GoodPosture    bool                 `json:"good_posture"`
	SubjectVisible bool                 `json:"subject_visible"`
	HeadTiltedBack bool                 `json:"head_tilted_back"`
}

// StatePublisher surfaces per-frame state to the UI collaborator.
type StatePublisher interface {
	PublishState(State)
}

// Pipeline is the frame-processing loop. It exclusively owns the placement
// validator, history aggregator, and alert coordinator; no other goroutine
// touches them. Telemetry sends and actuator pulses are dispatched off the
// loop so it stays paced at the camera frame rate.
type Pipeline struct {
	cfg       Config
	source    pose.Source
	extractor *Extractor
	placement *Validator
	history   *Aggregator
	alerts    *Coordinator
	telemetry *Scheduler

	settings  SettingsSource
	publisher StatePublisher

	now func() time.Time

	framesProcessed atomic.Uint64
	framesDegraded  atomic.Uint64
	framesSkipped   atomic.Uint64
	framesAdmitted  atomic.Uint64
	alertsFired     atomic.Uint64
}

// New creates a pipeline reading frames from source. actuator and sink may
// be nil (alerts and telemetry become no-ops).
func New(cfg Config, source pose.Source, actuator Actuator, sink TelemetrySink) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		source:    source,
		extractor: NewExtractor(cfg),
		placement: NewValidator(cfg),
		history:   NewAggregator(cfg.ShortWindow, cfg.LongWindow),
		alerts:    NewCoordinator(actuator, cfg.AlertCooldown),
		telemetry: NewScheduler(sink, cfg.SendInterval),
		now:       time.Now,
	}
}

// SetSettingsSource sets the hot-reloadable settings provider. Without one
// the pipeline runs with config defaults and an always-active session.
func (p *Pipeline) SetSettingsSource(s SettingsSource) {
	p.settings = s
}

// SetStatePublisher sets the UI state sink.
func (p *Pipeline) SetStatePublisher(pub StatePublisher) {
	p.publisher = pub
}

// Run consumes frames until the context is cancelled or the source closes.
func (p *Pipeline) Run(ctx context.Context) {
	log.Info("posture pipeline started",
		"fps", p.cfg.CameraFPS,
		"short_window", p.cfg.ShortWindow,
		"long_window", p.cfg.LongWindow,
		"cooldown", p.cfg.AlertCooldown)

	for {
		select {
		case <-ctx.Done():
			log.Info("posture pipeline stopped")
			return
		case f, ok := <-p.source.Frames():
			if !ok {
				log.Info("pose source closed, pipeline stopping")
				return
			}
			p.processFrame(f)
		}
	}
}

func (p *Pipeline) currentSettings() Settings {
	if p.settings != nil {
		return p.settings.Current()
	}
	return Settings{
		Sensitivity:        p.cfg.DefaultSensitivity,
		VibrationIntensity: 100,
		HasActiveSession:   true,
	}
}

func (p *Pipeline) processFrame(f pose.Frame) {
	st := p.currentSettings()
	if !st.HasActiveSession {
		p.framesSkipped.Add(1)
		return
	}

	now := f.Time
	if now.IsZero() {
		now = p.now()
	}
	p.framesProcessed.Add(1)

	primary, quality := p.placement.Observe(f)

	metrics, ok := p.extractor.Extract(f, primary)
	if !ok {
		p.framesDegraded.Add(1)
		p.publish(State{
			Issues:    map[Component]string{},
			Placement: quality,
			Guidance:  "Subject not visible",
		})
		return
	}

	scores := p.extractor.Score(metrics)
	p.history.Record(Sample{Time: now, Scores: scores, Placement: quality})
	if quality == PlacementGood {
		p.framesAdmitted.Add(1)
	}

	good := scores.Min() >= float64(st.Sensitivity)
	issues := make(map[Component]string)
	for _, comp := range Components {
		if scores.Get(comp) < float64(st.Sensitivity) {
			issues[comp] = Guidance(comp)
		}
	}

	if !good {
		fired := p.alerts.Evaluate(now, p.history.LongAverages(now), st.Sensitivity, st.VibrationIntensity)
		p.alertsFired.Add(uint64(len(fired)))
	}

	p.telemetry.MaybeSend(now, p.history)

	p.publish(State{
		Scores: IntScores{
			Neck:      int(scores.Neck),
			Torso:     int(scores.Torso),
			Shoulders: int(scores.Shoulders),
		},
		Issues:         issues,
		Placement:      quality,
		Guidance:       PlacementGuidance(quality),
		GoodPosture:    good,
		SubjectVisible: true,
		HeadTiltedBack: metrics.HeadTiltedBack,
	})
}

func (p *Pipeline) publish(s State) {
	if p.publisher != nil {
		p.publisher.PublishState(s)
	}
}

// Stats contains pipeline counters for the metrics endpoint.
type Stats struct {
	FramesProcessed uint64 `json:"frames_processed"`
	FramesDegraded  uint64 `json:"frames_degraded"`
	FramesSkipped   uint64 `json:"frames_skipped"`
	FramesAdmitted  uint64 `json:"frames_admitted"`
	AlertsFired     uint64 `json:"alerts_fired"`
}

// GetStats returns a snapshot of the pipeline counters.
func (p *Pipeline) GetStats() Stats {
	return Stats{
		FramesProcessed: p.framesProcessed.Load(),
		FramesDegraded:  p.framesDegraded.Load(),
		FramesSkipped:   p.framesSkipped.Load(),
		FramesAdmitted:  p.framesAdmitted.Load(),
		AlertsFired:     p.alertsFired.Load(),
	}
}
