package protocol

import (
	"time"

	"github.com/sitsense/go-sitsense/pkg/pose"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewPoseFrameMessage creates a pose frame message from a keypoint frame
func NewPoseFrameMessage(f pose.Frame) (*Message, error) {
	keypoints := make(map[string]KeypointData, len(f.Points))
	for joint, p := range f.Points {
		keypoints[string(joint)] = KeypointData{X: p.X, Y: p.Y, Visibility: p.Visibility}
	}
	ts := f.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return NewMessage(TypePoseFrame, PoseFrameData{
		Timestamp: ts.UnixMilli(),
		Keypoints: keypoints,
	})
}

// NewSettingsMessage creates a settings push message
func NewSettingsMessage(sensitivity, intensity int, activeSession bool) (*Message, error) {
	return NewMessage(TypeSettings, SettingsData{
		Sensitivity:        sensitivity,
		VibrationIntensity: intensity,
		HasActiveSession:   activeSession,
	})
}

// NewSessionStatusMessage creates a session transition message
func NewSessionStatusMessage(action string) (*Message, error) {
	return NewMessage(TypeSessionStatus, SessionStatusData{Action: action})
}

// NewHeartbeatMessage creates a heartbeat message
func NewHeartbeatMessage(deviceID string) (*Message, error) {
	return NewMessage(TypeHeartbeat, HeartbeatData{DeviceID: deviceID})
}

// NewStatusMessage wraps an already-serializable posture state payload
func NewStatusMessage(state interface{}) (*Message, error) {
	return NewMessage(TypeStatus, state)
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetPoseFrameData extracts pose frame data from a message
func (m *Message) GetPoseFrameData() (*PoseFrameData, error) {
	var data PoseFrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ToFrame converts the wire keypoints back into a pose frame
func (p *PoseFrameData) ToFrame() pose.Frame {
	points := make(map[pose.Joint]pose.Keypoint, len(p.Keypoints))
	for name, kp := range p.Keypoints {
		points[pose.Joint(name)] = pose.Keypoint{X: kp.X, Y: kp.Y, Visibility: kp.Visibility}
	}
	return pose.Frame{
		Time:   time.UnixMilli(p.Timestamp),
		Points: points,
	}
}

// GetSettingsData extracts a settings push from a message
func (m *Message) GetSettingsData() (*SettingsData, error) {
	var data SettingsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSessionStatusData extracts a session transition from a message
func (m *Message) GetSessionStatusData() (*SessionStatusData, error) {
	var data SessionStatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetHeartbeatData extracts heartbeat data from a message
func (m *Message) GetHeartbeatData() (*HeartbeatData, error) {
	var data HeartbeatData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
