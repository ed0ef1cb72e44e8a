package posture

import (
	"math"

	"github.com/sitsense/go-sitsense/pkg/pose"
)

// Extractor converts raw keypoints into the geometric metrics the
// pipeline scores: neck angle, torso angle, shoulder offset, and the
// head-tilted-back flag.
type Extractor struct {
	cfg Config
}

// NewExtractor creates a metric extractor with the given tunables.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// AngleToVertical returns the angle in integer degrees between the segment
// p1->p2 and the vertical axis through p1. Image Y grows downward, so the
// reference direction is -Y. The angle is negative when p2 sits to the
// left of p1. When the points share a Y coordinate the segment is
// horizontal and the angle is 90.
func AngleToVertical(p1, p2 pose.Keypoint) int {
	if p1.Y == p2.Y {
		return 90
	}
	dx := float64(p2.X - p1.X)
	dy := float64(p2.Y - p1.Y)
	dist := math.Sqrt(dx*dx + dy*dy)

	theta := math.Acos(-dy / dist)
	deg := int(math.Round(theta * 180 / math.Pi))
	if p2.X < p1.X {
		deg = -deg
	}
	return deg
}

// Distance returns the Euclidean distance between two keypoints in pixels.
func Distance(a, b pose.Keypoint) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Extract derives RawMetrics from a frame, measuring the primary side where
// possible and falling back to whichever side has data. ok is false when the
// mandatory joints (both shoulders, at least one ear, at least one hip) are
// not all present; such frames carry no metrics and never enter history.
func (e *Extractor) Extract(f pose.Frame, primary Side) (RawMetrics, bool) {
	lShoulder, lsOK := f.Get(pose.LShoulder)
	rShoulder, rsOK := f.Get(pose.RShoulder)
	lEar, leOK := f.Get(pose.LEar)
	rEar, reOK := f.Get(pose.REar)
	lHip, lhOK := f.Get(pose.LHip)
	rHip, rhOK := f.Get(pose.RHip)

	if !lsOK || !rsOK || (!leOK && !reOK) || (!lhOK && !rhOK) {
		return RawMetrics{}, false
	}

	// Measure the primary side; if its ear or hip is occluded, use the
	// other side. The shoulder pairs with whichever ear was chosen.
	ear, shoulder := lEar, lShoulder
	if primary == SideRight {
		ear, shoulder = rEar, rShoulder
		if !reOK {
			ear, shoulder = lEar, lShoulder
		}
	} else if !leOK {
		ear, shoulder = rEar, rShoulder
	}

	hip := lHip
	if primary == SideRight {
		hip = rHip
		if !rhOK {
			hip = lHip
		}
	} else if !lhOK {
		hip = rHip
	}

	m := RawMetrics{
		NeckAngle:      AngleToVertical(shoulder, ear),
		TorsoAngle:     AngleToVertical(hip, shoulder),
		ShoulderOffset: Distance(lShoulder, rShoulder),
	}

	rel := math.Min(math.Abs(float64(m.NeckAngle-m.TorsoAngle)), float64(m.NeckAngle))
	if float64(m.TorsoAngle) <= e.cfg.ReclinedTorsoAngle {
		// Reclined seating exaggerates the ear-shoulder angle; soften it
		// so a leaned-back but aligned neck is not over-flagged.
		rel /= e.cfg.ReclinedCorrection
	}
	m.RelNeckAngle = rel

	torsoLeaningBack := float64(m.TorsoAngle) > e.cfg.HeadBackTorsoAngle
	neckAligned := rel <= e.cfg.NeckAlignmentThreshold
	m.HeadTiltedBack = (torsoLeaningBack && neckAligned) || m.NeckAngle < m.TorsoAngle

	return m, true
}

// Score calibrates raw metrics into per-component 0-100 scores.
func (e *Extractor) Score(m RawMetrics) Scores {
	return Scores{
		Neck:      e.cfg.NeckCurve.Score(math.Abs(m.RelNeckAngle)),
		Torso:     e.cfg.TorsoCurve.Score(math.Abs(float64(m.TorsoAngle))),
		Shoulders: e.cfg.ShouldersCurve.Score(m.ShoulderOffset),
	}
}
