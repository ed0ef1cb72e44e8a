// Package posture implements the posture signal pipeline: geometric metric
// extraction from keypoints, score calibration, camera-placement validation,
// time-windowed aggregation, and cooldown-gated alerting.
package posture

import "time"

// Component identifies a scored body component.
type Component string

const (
	ComponentNeck      Component = "neck"
	ComponentTorso     Component = "torso"
	ComponentShoulders Component = "shoulders"
)

// Components lists every scored component in evaluation order.
var Components = []Component{ComponentNeck, ComponentTorso, ComponentShoulders}

// Side identifies which side of the body is measured.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// PlacementQuality classifies how trustworthy the current camera framing is.
// Only PlacementGood frames count toward scoring history.
type PlacementQuality string

const (
	PlacementGood     PlacementQuality = "good"
	PlacementEar      PlacementQuality = "ear"
	PlacementHip      PlacementQuality = "hip"
	PlacementShoulder PlacementQuality = "shoulder"
)

// RawMetrics holds the geometric measurements derived from one frame.
// Angles are in degrees relative to the vertical axis, offsets in pixels.
type RawMetrics struct {
	NeckAngle      int
	TorsoAngle     int
	RelNeckAngle   float64 // relative neck angle after reclined correction
	ShoulderOffset float64
	HeadTiltedBack bool
}

// Scores holds calibrated 0-100 scores per component.
type Scores struct {
	Neck      float64 `json:"neck"`
	Torso     float64 `json:"torso"`
	Shoulders float64 `json:"shoulders"`
}

// Get returns the score for a component.
func (s Scores) Get(c Component) float64 {
	switch c {
	case ComponentNeck:
		return s.Neck
	case ComponentTorso:
		return s.Torso
	case ComponentShoulders:
		return s.Shoulders
	}
	return 0
}

// Min returns the lowest component score.
func (s Scores) Min() float64 {
	min := s.Neck
	if s.Torso < min {
		min = s.Torso
	}
	if s.Shoulders < min {
		min = s.Shoulders
	}
	return min
}

// Sample is one admissible frame's scores, owned by the history aggregator.
type Sample struct {
	Time      time.Time
	Scores    Scores
	Placement PlacementQuality
}

// Settings is the hot-reloadable remote configuration snapshot.
// Writers replace the whole snapshot; fields are never mutated in place.
type Settings struct {
	Sensitivity        int  `json:"sensitivity"`
	VibrationIntensity int  `json:"vibration_intensity"`
	HasActiveSession   bool `json:"has_active_session"`
}

// SettingsSource provides the current settings snapshot.
type SettingsSource interface {
	Current() Settings
}

// guidance maps each component to its correction message.
var guidance = map[Component]string{
	ComponentNeck:      "Straighten your neck",
	ComponentTorso:     "Sit upright",
	ComponentShoulders: "Face the desk/screen",
}

// Guidance returns the correction message for a component.
func Guidance(c Component) string {
	return guidance[c]
}

// placementGuidance maps non-good placement classes to reposition hints.
var placementGuidance = map[PlacementQuality]string{
	PlacementEar:      "Turn the camera so your ear is visible",
	PlacementHip:      "Move back so your hips are in frame",
	PlacementShoulder: "Face the desk/screen",
}

// PlacementGuidance returns the reposition hint for a placement class,
// or "" for PlacementGood.
func PlacementGuidance(q PlacementQuality) string {
	return placementGuidance[q]
}
