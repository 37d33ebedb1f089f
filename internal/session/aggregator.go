// Package session accumulates per-frame engine output into
// session-level summaries. The aggregator is the in-process consumer
// of the gait and posture snapshots; persistence lives in sessiondb.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/posture"
)

// MaxLeanSamples caps the trunk/lateral lean series kept for the
// session posture score. At 60 Hz this covers several hours; beyond
// the cap the series is downsampled by dropping every other sample so
// long captures stay bounded without discarding the early session.
const MaxLeanSamples = 500000

// Summary is the aggregate view of a capture session.
type Summary struct {
	SessionID  string    `json:"session_id"`
	StartedAt  time.Time `json:"started_at"`
	FrameCount int       `json:"frame_count"`

	LeftStrikes  int `json:"left_strikes"`
	RightStrikes int `json:"right_strikes"`

	AvgCadenceSpm   float64 `json:"avg_cadence_spm"`
	PeakCadenceSpm  float64 `json:"peak_cadence_spm"`
	AvgSpeedMps     float64 `json:"avg_speed_mps"`
	DistanceM       float64 `json:"distance_m"`
	AvgStrideM      float64 `json:"avg_stride_m"`
	AvgCompositeScr float64 `json:"avg_composite_score"`

	// SessionPostureScore is the trunk/lateral lean fold computed by
	// posture.ComputeSessionScore over the whole capture.
	SessionPostureScore float64 `json:"session_posture_score"`
}

// Aggregator folds per-frame metrics into a running session summary.
// Like the engines it is single-owner, not safe for concurrent use.
type Aggregator struct {
	sessionID string
	startedAt time.Time

	frameCount   int
	leftStrikes  int
	rightStrikes int

	cadenceSum  float64
	cadenceN    int
	peakCadence float64

	lastFrameT float64
	hasFrameT  bool
	distanceM  float64
	speedSum   float64
	speedN     int

	compositeSum float64
	compositeN   int

	trunkLeans   []float64
	lateralLeans []float64

	trunkWeight   float64
	lateralWeight float64
}

// NewAggregator starts a fresh session with a generated ID and the
// default session-score weights.
func NewAggregator() *Aggregator {
	return NewAggregatorWeighted(posture.DefaultTrunkWeight, posture.DefaultLateralWeight)
}

// NewAggregatorWeighted starts a fresh session with explicit session
// posture score weights.
func NewAggregatorWeighted(trunkWeight, lateralWeight float64) *Aggregator {
	return &Aggregator{
		sessionID:     uuid.NewString(),
		startedAt:     time.Now(),
		trunkWeight:   trunkWeight,
		lateralWeight: lateralWeight,
	}
}

// SessionID returns the generated session identifier.
func (a *Aggregator) SessionID() string { return a.sessionID }

// Observe folds one frame's engine output into the session. pm may be
// nil when posture analysis degraded for the frame.
func (a *Aggregator) Observe(timestamp float64, gm gait.Metrics, pm *posture.Metrics) {
	a.frameCount++

	if gm.StepDetected != nil {
		switch gm.StepDetected.Foot {
		case gait.FootLeft:
			a.leftStrikes++
		case gait.FootRight:
			a.rightStrikes++
		}
	}

	if gm.CadenceSpm > 0 {
		a.cadenceSum += gm.CadenceSpm
		a.cadenceN++
		if gm.CadenceSpm > a.peakCadence {
			a.peakCadence = gm.CadenceSpm
		}
	}

	if gm.WalkingSpeedMps > 0 {
		a.speedSum += gm.WalkingSpeedMps
		a.speedN++
		if a.hasFrameT && timestamp > a.lastFrameT {
			a.distanceM += gm.WalkingSpeedMps * (timestamp - a.lastFrameT)
		}
	}
	a.lastFrameT = timestamp
	a.hasFrameT = true

	if pm != nil {
		a.compositeSum += pm.CompositeScore
		a.compositeN++
		a.trunkLeans = appendLean(a.trunkLeans, pm.SagittalLeanDeg)
		a.lateralLeans = appendLean(a.lateralLeans, pm.FrontalLeanDeg)
	}
}

// Summarize returns the current session summary. avgStride is taken
// from the most recent gait snapshot fed to it.
func (a *Aggregator) Summarize(latest gait.Metrics) Summary {
	s := Summary{
		SessionID:    a.sessionID,
		StartedAt:    a.startedAt,
		FrameCount:   a.frameCount,
		LeftStrikes:  a.leftStrikes,
		RightStrikes: a.rightStrikes,
	}
	s.PeakCadenceSpm = a.peakCadence
	s.AvgStrideM = latest.AvgStrideLengthM
	s.DistanceM = a.distanceM
	if a.cadenceN > 0 {
		s.AvgCadenceSpm = a.cadenceSum / float64(a.cadenceN)
	}
	if a.speedN > 0 {
		s.AvgSpeedMps = a.speedSum / float64(a.speedN)
	}
	if a.compositeN > 0 {
		s.AvgCompositeScr = a.compositeSum / float64(a.compositeN)
	}
	s.SessionPostureScore = posture.ComputeSessionScoreWeighted(a.trunkLeans, a.lateralLeans, a.trunkWeight, a.lateralWeight)
	return s
}

// appendLean appends with the halving downsample at the cap.
func appendLean(series []float64, v float64) []float64 {
	if len(series) >= MaxLeanSamples {
		half := series[:0]
		for i := 0; i < len(series); i += 2 {
			half = append(half, series[i])
		}
		series = half
	}
	return append(series, v)
}
