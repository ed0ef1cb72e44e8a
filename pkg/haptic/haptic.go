// Package haptic drives the vibration motor used for posture alerts.
package haptic

import "github.com/sitsense/go-sitsense/internal/log"

// NopActuator satisfies the alert actuator interface without hardware.
// Used when the daemon runs off-device.
type NopActuator struct{}

// Trigger logs the request and does nothing else.
func (NopActuator) Trigger(intensity int) {
	log.Debug("Haptic trigger (no hardware)", "intensity", intensity)
}
