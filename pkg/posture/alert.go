package posture

import (
	"time"

	"github.com/sitsense/go-sitsense/internal/log"
)

// Actuator fires a physical alert. Trigger must not block the frame loop;
// implementations run their pulse sequence on their own goroutine and are
// a safe no-op when the device is unavailable.
type Actuator interface {
	Trigger(intensity int)
}

// Coordinator gates actuator triggers behind a cooldown timer. One shared
// timer covers all components: while a neck alert is cooling down, a torso
// violation will not fire either. See DESIGN.md for the rationale.
type Coordinator struct {
	actuator Actuator
	cooldown time.Duration

	lastAlert time.Time
	alerted   bool
}

// NewCoordinator creates an alert coordinator.
func NewCoordinator(actuator Actuator, cooldown time.Duration) *Coordinator {
	return &Coordinator{actuator: actuator, cooldown: cooldown}
}

// ready reports whether the cooldown has elapsed. The cooling-down state
// expires purely by time; there is no explicit reset event.
func (c *Coordinator) ready(now time.Time) bool {
	return !c.alerted || now.Sub(c.lastAlert) > c.cooldown
}

// Evaluate checks long-window averages against the sensitivity threshold
// and triggers the actuator for each violating component whose turn clears
// the cooldown. Because the timer is shared, at most one trigger fires per
// evaluation even when several components violate simultaneously. Returns
// the components that fired.
func (c *Coordinator) Evaluate(now time.Time, longAvg Scores, sensitivity, intensity int) []Component {
	var fired []Component
	for _, comp := range Components {
		avg := longAvg.Get(comp)
		if avg >= float64(sensitivity) {
			continue
		}
		if !c.ready(now) {
			continue
		}
		log.Info("posture alert",
			"component", string(comp),
			"average", avg,
			"sensitivity", sensitivity)
		if c.actuator != nil {
			c.actuator.Trigger(intensity)
		}
		c.lastAlert = now
		c.alerted = true
		fired = append(fired, comp)
	}
	return fired
}

// LastAlert returns when the most recent alert fired, and whether any
// alert has fired yet.
func (c *Coordinator) LastAlert() (time.Time, bool) {
	return c.lastAlert, c.alerted
}
