package posture

import "github.com/sitsense/go-sitsense/pkg/pose"

// Validator decides which body side to measure and whether the current
// camera framing is trustworthy enough for the frame to count toward
// history. It owns the side-debounce counter; nothing else mutates it.
type Validator struct {
	cfg Config

	primary     Side
	initialized bool
	counter     int
}

// NewValidator creates a placement validator.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// PrimarySide returns the currently debounced primary side.
func (v *Validator) PrimarySide() Side {
	if !v.initialized {
		return SideLeft
	}
	return v.primary
}

// Observe processes one frame and returns the primary side to measure and
// the placement classification. The primary side only changes when the
// winning side has held through the debounce window, so single-frame
// visibility flicker cannot flip which side is analyzed.
func (v *Validator) Observe(f pose.Frame) (Side, PlacementQuality) {
	winner := SideLeft
	if f.Visibility(pose.REar) > f.Visibility(pose.LEar) {
		winner = SideRight
	}

	if !v.initialized {
		v.primary = winner
		v.initialized = true
		v.counter = 0
	} else {
		v.counter++
		if v.counter >= v.cfg.SideDebounceFrames {
			v.primary = winner
			v.counter = 0
		}
	}

	return v.primary, v.classify(f)
}

// classify runs the placement checks in ascending-override priority:
// a failing shoulder check overrides hip, which overrides ear.
func (v *Validator) classify(f pose.Frame) PlacementQuality {
	quality := PlacementGood

	primaryEar := pose.LEar
	if v.primary == SideRight {
		primaryEar = pose.REar
	}
	if f.Visibility(primaryEar) < v.cfg.EarVisibilityMin {
		quality = PlacementEar
	}

	hipVis := f.Visibility(pose.LHip)
	if rv := f.Visibility(pose.RHip); rv > hipVis {
		hipVis = rv
	}
	if hipVis < v.cfg.HipVisibilityMin {
		quality = PlacementHip
	}

	shoulderVis := f.Visibility(pose.LShoulder)
	if rv := f.Visibility(pose.RShoulder); rv < shoulderVis {
		shoulderVis = rv
	}
	if shoulderVis < v.cfg.ShoulderVisibilityMin {
		quality = PlacementShoulder
	}

	return quality
}
