// Package pose defines the keypoint frame model produced by an external
// pose-estimation source. The estimator itself (camera capture, model
// inference) lives outside this process; frames arrive over the ingest
// socket already reduced to named joints with pixel coordinates.
package pose

import "time"

// Joint names the body keypoints the posture pipeline consumes.
type Joint string

const (
	LShoulder Joint = "l_shoulder"
	RShoulder Joint = "r_shoulder"
	LEar      Joint = "l_ear"
	REar      Joint = "r_ear"
	LHip      Joint = "l_hip"
	RHip      Joint = "r_hip"
)

// Joints lists all joints the pipeline knows about.
var Joints = []Joint{LShoulder, RShoulder, LEar, REar, LHip, RHip}

// Keypoint is a single detected joint in pixel coordinates.
// Visibility is the estimator's confidence in [0,1].
type Keypoint struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Frame is one frame's worth of keypoints. Any joint may be absent
// (occlusion); consumers must treat missing joints as not visible.
type Frame struct {
	Time   time.Time
	Points map[Joint]Keypoint
}

// Get returns the keypoint for a joint and whether it was detected.
func (f Frame) Get(j Joint) (Keypoint, bool) {
	kp, ok := f.Points[j]
	return kp, ok
}

// Visibility returns the joint's visibility, or 0 when the joint is absent.
func (f Frame) Visibility(j Joint) float64 {
	if kp, ok := f.Points[j]; ok {
		return kp.Visibility
	}
	return 0
}

// Has reports whether the joint was detected in this frame.
func (f Frame) Has(j Joint) bool {
	_, ok := f.Points[j]
	return ok
}

// Source delivers keypoint frames to the pipeline.
type Source interface {
	// Frames returns the channel frames arrive on. The channel is closed
	// when the source shuts down.
	Frames() <-chan Frame

	// Close releases the source. Safe to call more than once.
	Close() error
}
