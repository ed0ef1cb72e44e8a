// Package protocol defines the WebSocket message types shared by the
// device daemon, the pose producer, and the SitSense backend.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Producer → Device messages
	TypePoseFrame MessageType = "pose_frame" // Keypoint frame from the pose estimator

	// Backend → Device messages
	TypeSettings      MessageType = "settings"       // Device settings push
	TypeSessionStatus MessageType = "session_status" // Session start/stop

	// Device → Backend messages
	TypeHeartbeat MessageType = "heartbeat" // Liveness signal

	// Device → Dashboard messages
	TypeStatus MessageType = "status" // Current posture state
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Producer → Device Message Types
// =============================================================================

// PoseFrameData contains one frame of estimated keypoints. Keys are the
// joint names from pkg/pose; coordinates are pixels, visibility is 0..1.
type PoseFrameData struct {
	Timestamp int64                   `json:"ts"` // Unix milliseconds
	Keypoints map[string]KeypointData `json:"keypoints"`
}

// KeypointData is a single joint observation
type KeypointData struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Visibility float64 `json:"visibility"`
}

// =============================================================================
// Backend → Device Message Types
// =============================================================================

// SettingsData contains a device settings push
type SettingsData struct {
	Sensitivity        int  `json:"sensitivity"`         // 0-100 alert threshold
	VibrationIntensity int  `json:"vibration_intensity"` // 0-100
	HasActiveSession   bool `json:"has_active_session"`
}

// SessionStatusData announces a session transition
type SessionStatusData struct {
	Action string `json:"action"` // "start" or "stop"
}

const (
	SessionStart = "start"
	SessionStop  = "stop"
)

// =============================================================================
// Device → Backend Message Types
// =============================================================================

// HeartbeatData identifies the device sending the liveness signal
type HeartbeatData struct {
	DeviceID string `json:"device_id"`
}
