// Package config loads engine tuning parameters from JSON files.
// Fields are pointer-typed so partial configs merge over the built-in
// defaults; omitted fields keep their default values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/gait.report/internal/gait"
)

// MaxConfigFileSize bounds how much of a tuning file is read.
const MaxConfigFileSize = 1 << 20 // 1 MB

// Tuning holds the adjustable gait-detection parameters. The JSON
// schema mirrors gait.Config so a deployment can tune detection
// without a rebuild.
type Tuning struct {
	WindowDurationS     *float64 `json:"window_duration_s,omitempty"`
	RefractoryPeriodS   *float64 `json:"refractory_period_s,omitempty"`
	MinDownwardVelocity *float64 `json:"min_downward_velocity,omitempty"`

	MinStrideLengthM   *float64 `json:"min_stride_length_m,omitempty"`
	MaxStrideLengthM   *float64 `json:"max_stride_length_m,omitempty"`
	MinStrideIntervalS *float64 `json:"min_stride_interval_s,omitempty"`
	MaxStrideIntervalS *float64 `json:"max_stride_interval_s,omitempty"`
	MinStepLengthM     *float64 `json:"min_step_length_m,omitempty"`
	MaxStepLengthM     *float64 `json:"max_step_length_m,omitempty"`
	MinFootClearanceM  *float64 `json:"min_foot_clearance_m,omitempty"`

	CadenceWindowS *float64 `json:"cadence_window_s,omitempty"`
	SpeedWindowS   *float64 `json:"speed_window_s,omitempty"`

	StrideHistoryCap   *int `json:"stride_history_cap,omitempty"`
	IntervalHistoryCap *int `json:"interval_history_cap,omitempty"`
	StepWidthCap       *int `json:"step_width_cap,omitempty"`

	// Session posture score weights (trunk + lateral should sum to 1).
	SessionTrunkWeight   *float64 `json:"session_trunk_weight,omitempty"`
	SessionLateralWeight *float64 `json:"session_lateral_weight,omitempty"`
}

// Load reads a Tuning from a JSON file. Partial files are safe; only
// the fields present override defaults at apply time.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var t Tuning
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &t, nil
}

// GaitConfig applies the tuning over gait.DefaultConfig and returns
// the effective detection configuration.
func (t *Tuning) GaitConfig() gait.Config {
	cfg := gait.DefaultConfig()
	if t == nil {
		return cfg
	}
	setFloat(&cfg.WindowDuration, t.WindowDurationS)
	setFloat(&cfg.RefractoryPeriod, t.RefractoryPeriodS)
	setFloat(&cfg.MinDownwardVelocity, t.MinDownwardVelocity)
	setFloat(&cfg.MinStrideLength, t.MinStrideLengthM)
	setFloat(&cfg.MaxStrideLength, t.MaxStrideLengthM)
	setFloat(&cfg.MinStrideInterval, t.MinStrideIntervalS)
	setFloat(&cfg.MaxStrideInterval, t.MaxStrideIntervalS)
	setFloat(&cfg.MinStepLength, t.MinStepLengthM)
	setFloat(&cfg.MaxStepLength, t.MaxStepLengthM)
	setFloat(&cfg.MinFootClearance, t.MinFootClearanceM)
	setFloat(&cfg.CadenceWindow, t.CadenceWindowS)
	setFloat(&cfg.SpeedWindow, t.SpeedWindowS)
	setInt(&cfg.StrideHistoryCap, t.StrideHistoryCap)
	setInt(&cfg.IntervalHistoryCap, t.IntervalHistoryCap)
	setInt(&cfg.StepWidthCap, t.StepWidthCap)
	return cfg
}

// SessionWeights returns the session posture score weights, falling
// back to the 0.6/0.4 defaults.
func (t *Tuning) SessionWeights() (trunk, lateral float64) {
	trunk, lateral = 0.6, 0.4
	if t == nil {
		return trunk, lateral
	}
	if t.SessionTrunkWeight != nil {
		trunk = *t.SessionTrunkWeight
	}
	if t.SessionLateralWeight != nil {
		lateral = *t.SessionLateralWeight
	}
	return trunk, lateral
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
