package posture

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable parameters for the posture pipeline.
type Config struct {
	// Timing
	CameraFPS     int           // expected frame arrival rate
	ShortWindow   time.Duration // telemetry averaging window
	LongWindow    time.Duration // alert averaging window
	AlertCooldown time.Duration // minimum gap between actuator triggers
	SendInterval  time.Duration // telemetry emission interval

	// Scoring
	NeckCurve          Curve
	TorsoCurve         Curve
	ShouldersCurve     Curve
	DefaultSensitivity int // used until remote settings arrive

	// Placement validation
	EarVisibilityMin      float64 // primary ear below this -> "ear"
	HipVisibilityMin      float64 // best hip below this -> "hip"
	ShoulderVisibilityMin float64 // worst shoulder below this -> "shoulder"
	SideDebounceFrames    int     // frames a side must hold before switching

	// Metric extraction
	NeckAlignmentThreshold float64 // max relative neck angle while reclined
	HeadBackTorsoAngle     float64 // torso angle that counts as leaning back
	ReclinedTorsoAngle     float64 // at or below this the subject is reclined
	// ReclinedCorrection divides the relative neck angle for reclined
	// seating. Empirically tuned; keep overridable.
	ReclinedCorrection float64
}

// DefaultConfig returns the recommended pipeline configuration.
func DefaultConfig() Config {
	return Config{
		CameraFPS:     15,
		ShortWindow:   30 * time.Second,
		LongWindow:    120 * time.Second,
		AlertCooldown: 300 * time.Second,
		SendInterval:  30 * time.Second,

		NeckCurve: Curve{
			{Breakpoint: 0, Score: 100},
			{Breakpoint: 25, Score: 75},
			{Breakpoint: 40, Score: 20},
			{Breakpoint: 50, Score: 0},
		},
		TorsoCurve: Curve{
			{Breakpoint: 0, Score: 100},
			{Breakpoint: 15, Score: 75},
			{Breakpoint: 30, Score: 10},
			{Breakpoint: 40, Score: 0},
		},
		ShouldersCurve: Curve{
			{Breakpoint: 0, Score: 100},
			{Breakpoint: 100, Score: 50},
			{Breakpoint: 200, Score: 0},
		},
		DefaultSensitivity: 75,

		EarVisibilityMin:      0.90,
		HipVisibilityMin:      0.75,
		ShoulderVisibilityMin: 0.93,
		SideDebounceFrames:    60,

		NeckAlignmentThreshold: 10,
		HeadBackTorsoAngle:     20,
		ReclinedTorsoAngle:     -30,
		ReclinedCorrection:     1.5,
	}
}

// fileConfig is the YAML shape of Config. Durations are plain seconds so
// config files stay readable on-device.
type fileConfig struct {
	CameraFPS            *int     `yaml:"camera_fps"`
	ShortWindowSeconds   *int     `yaml:"short_window_seconds"`
	LongWindowSeconds    *int     `yaml:"long_window_seconds"`
	AlertCooldownSeconds *int     `yaml:"alert_cooldown_seconds"`
	SendIntervalSeconds  *int     `yaml:"send_interval_seconds"`
	NeckCurve            Curve    `yaml:"neck_curve"`
	TorsoCurve           Curve    `yaml:"torso_curve"`
	ShouldersCurve       Curve    `yaml:"shoulders_curve"`
	DefaultSensitivity   *int     `yaml:"default_sensitivity"`
	EarVisibilityMin     *float64 `yaml:"ear_visibility_min"`
	HipVisibilityMin     *float64 `yaml:"hip_visibility_min"`
	ShoulderVisibility   *float64 `yaml:"shoulder_visibility_min"`
	SideDebounceFrames   *int     `yaml:"side_debounce_frames"`
	NeckAlignment        *float64 `yaml:"neck_alignment_threshold"`
	HeadBackTorsoAngle   *float64 `yaml:"head_back_torso_angle"`
	ReclinedTorsoAngle   *float64 `yaml:"reclined_torso_angle"`
	ReclinedCorrection   *float64 `yaml:"reclined_correction"`
}

// LoadFile reads a YAML config file and overlays it on DefaultConfig.
// Absent keys keep their defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setSeconds := func(dst *time.Duration, src *int) {
		if src != nil {
			*dst = time.Duration(*src) * time.Second
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&cfg.CameraFPS, fc.CameraFPS)
	setSeconds(&cfg.ShortWindow, fc.ShortWindowSeconds)
	setSeconds(&cfg.LongWindow, fc.LongWindowSeconds)
	setSeconds(&cfg.AlertCooldown, fc.AlertCooldownSeconds)
	setSeconds(&cfg.SendInterval, fc.SendIntervalSeconds)
	setInt(&cfg.DefaultSensitivity, fc.DefaultSensitivity)
	setFloat(&cfg.EarVisibilityMin, fc.EarVisibilityMin)
	setFloat(&cfg.HipVisibilityMin, fc.HipVisibilityMin)
	setFloat(&cfg.ShoulderVisibilityMin, fc.ShoulderVisibility)
	setInt(&cfg.SideDebounceFrames, fc.SideDebounceFrames)
	setFloat(&cfg.NeckAlignmentThreshold, fc.NeckAlignment)
	setFloat(&cfg.HeadBackTorsoAngle, fc.HeadBackTorsoAngle)
	setFloat(&cfg.ReclinedTorsoAngle, fc.ReclinedTorsoAngle)
	setFloat(&cfg.ReclinedCorrection, fc.ReclinedCorrection)

	if len(fc.NeckCurve) > 0 {
		cfg.NeckCurve = fc.NeckCurve.Normalized()
	}
	if len(fc.TorsoCurve) > 0 {
		cfg.TorsoCurve = fc.TorsoCurve.Normalized()
	}
	if len(fc.ShouldersCurve) > 0 {
		cfg.ShouldersCurve = fc.ShouldersCurve.Normalized()
	}

	return cfg, nil
}
