// Package gait detects foot-strike events from noisy joint-position
// time series and derives cadence, stride and step metrics, walking
// speed, gait symmetry, and temporal gait-cycle parameters.
//
// The engine is a synchronous per-frame computation: one ProcessFrame
// call per tracked frame, no I/O, no goroutines. Every internal buffer
// is bounded by time window or FIFO cap so per-call cost stays O(window)
// regardless of session length. One engine instance belongs to exactly
// one capture session; the caller serialises calls.
package gait

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gait.report/internal/skeleton"
)

// Foot identifies which leg produced a sample or event.
type Foot string

const (
	FootLeft  Foot = "left"
	FootRight Foot = "right"
)

// Config holds the detection and plausibility parameters for the
// strike detector. Distances are meters, durations seconds.
type Config struct {
	// WindowDuration is the local-minimum detection window. Samples
	// are retained for twice this long.
	WindowDuration float64
	// RefractoryPeriod is the minimum time between accepted strikes
	// on the same foot.
	RefractoryPeriod float64
	// MinDownwardVelocity gates candidates on active descent (m/s).
	MinDownwardVelocity float64

	// Plausibility ranges for derived event fields. Values outside the
	// range null the field; the strike itself is still reported.
	MinStrideLength   float64
	MaxStrideLength   float64
	MinStrideInterval float64
	MaxStrideInterval float64
	MinStepLength     float64
	MaxStepLength     float64
	MinFootClearance  float64

	// Trailing aggregate windows.
	CadenceWindow float64 // strike-count window for cadence
	SpeedWindow   float64 // root-displacement window for walking speed

	// History caps.
	StrideHistoryCap   int // per-foot accepted stride lengths
	IntervalHistoryCap int // per-foot accepted stride intervals
	StepWidthCap       int // accepted step widths, both feet pooled
}

// DefaultConfig returns the standard detection parameters.
func DefaultConfig() Config {
	return Config{
		WindowDuration:      0.25,
		RefractoryPeriod:    0.3,
		MinDownwardVelocity: 0.05,
		MinStrideLength:     0.2,
		MaxStrideLength:     2.5,
		MinStrideInterval:   0.3,
		MaxStrideInterval:   2.5,
		MinStepLength:       0.1,
		MaxStepLength:       1.5,
		MinFootClearance:    0.005,
		CadenceWindow:       10,
		SpeedWindow:         3,
		StrideHistoryCap:    50,
		IntervalHistoryCap:  20,
		StepWidthCap:        50,
	}
}

// MinWindowSamples is the minimum number of in-window samples needed
// before a local-minimum candidate can be evaluated.
const MinWindowSamples = 3

// FootStrike is one accepted foot-contact event. Optional fields are
// nil when the corresponding plausibility check failed; the event
// itself is still reported.
type FootStrike struct {
	Foot      Foot
	Position  r3.Vec
	Timestamp float64

	StrideLengthM     *float64
	StepLengthM       *float64
	StepWidthCm       *float64
	ImpactVelocityMps *float64
	FootClearanceM    *float64
}

// Metrics is the per-frame output snapshot. Fields that the engine
// defines as zero-when-empty (cadence, averages, speed) are plain
// floats; fields that are meaningless until enough data has
// accumulated are nil until then.
type Metrics struct {
	CadenceSpm       float64
	AvgStrideLengthM float64
	StepDetected     *FootStrike
	WalkingSpeedMps  float64
	AvgStepWidthCm   float64

	SymmetryIndexPct *float64

	// Temporal gait-cycle parameters. Derived from the symmetric-gait
	// approximation in computeTemporal, not from bilateral contact
	// measurement.
	StancePct        *float64
	SwingPct         *float64
	DoubleSupportPct *float64

	StrideTimeCVPct *float64
}

// sample is one buffered foot or root observation.
type sample struct {
	pos r3.Vec
	t   float64
}

// footState carries per-foot detection state between frames.
type footState struct {
	foot    Foot
	samples []sample // pruned to 2x window duration

	// Max vertical coordinate observed since the last accepted strike,
	// used for foot clearance.
	maxSwingY    float64
	maxSwingYSet bool

	lastStrikeT   float64
	lastStrikePos r3.Vec
	hasStrike     bool

	// Last contact position, read by the contralateral foot for step
	// length and width.
	lastContactPos r3.Vec
	hasContact     bool

	strideLengths   []float64 // accepted, FIFO capped
	strideIntervals []float64 // accepted, FIFO capped
}

// Engine is the gait analysis engine. Not safe for concurrent use;
// each capture session owns exactly one instance.
type Engine struct {
	cfg   Config
	left  footState
	right footState

	strikeTimes []float64 // accepted strikes both feet, trailing cadence window
	rootSamples []sample  // trailing speed window
	stepWidths  []float64 // accepted step widths, FIFO capped

	lastTimestamp float64
	hasTimestamp  bool
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	e := &Engine{cfg: cfg}
	e.left.foot = FootLeft
	e.right.foot = FootRight
	return e
}

// Reset clears all detection state and histories. Idempotent; intended
// to be called between sessions, never mid-session.
func (e *Engine) Reset() {
	cfg := e.cfg
	*e = Engine{cfg: cfg}
	e.left.foot = FootLeft
	e.right.foot = FootRight
}

// ProcessFrame ingests one frame of joint positions and returns the
// current gait metrics snapshot. Missing or non-finite leftFoot,
// rightFoot, or root positions yield an empty snapshot without
// mutating detection state; this is the expected tracking-dropout
// path, not an error. Frames whose timestamp does not advance past
// the previous frame are ignored the same way.
func (e *Engine) ProcessFrame(positions skeleton.Positions, timestamp float64) Metrics {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		return Metrics{}
	}
	if e.hasTimestamp && timestamp <= e.lastTimestamp {
		return Metrics{}
	}

	leftPos, okL := positions.Get(skeleton.LeftFoot)
	rightPos, okR := positions.Get(skeleton.RightFoot)
	rootPos, okRoot := positions.Get(skeleton.Root)
	if !okL || !okR || !okRoot {
		return Metrics{}
	}

	e.lastTimestamp = timestamp
	e.hasTimestamp = true

	// Left before right: when both feet qualify in the same frame the
	// left strike is the surfaced event, the right is history-only.
	leftStrike := e.detectStrike(&e.left, &e.right, leftPos, timestamp)
	rightStrike := e.detectStrike(&e.right, &e.left, rightPos, timestamp)

	detected := leftStrike
	if detected == nil {
		detected = rightStrike
	}

	e.rootSamples = append(e.rootSamples, sample{pos: rootPos, t: timestamp})
	e.rootSamples = pruneSamples(e.rootSamples, timestamp-e.cfg.SpeedWindow)
	e.strikeTimes = pruneTimes(e.strikeTimes, timestamp-e.cfg.CadenceWindow)

	m := Metrics{
		CadenceSpm:       e.computeCadence(),
		AvgStrideLengthM: meanOrZero(append(append([]float64(nil), e.left.strideLengths...), e.right.strideLengths...)),
		StepDetected:     detected,
		WalkingSpeedMps:  e.computeWalkingSpeed(),
		AvgStepWidthCm:   meanOrZero(e.stepWidths),
		SymmetryIndexPct: e.computeRobinsonSI(),
		StrideTimeCVPct:  e.computeStrideTimeCV(),
	}
	m.StancePct, m.SwingPct, m.DoubleSupportPct = e.computeTemporal()
	return m
}

// detectStrike runs the sliding-window local-minimum detector for one
// foot and returns the accepted strike, if any.
func (e *Engine) detectStrike(fs, other *footState, pos r3.Vec, now float64) *FootStrike {
	fs.samples = append(fs.samples, sample{pos: pos, t: now})
	fs.samples = pruneSamples(fs.samples, now-2*e.cfg.WindowDuration)

	// Track the swing apex since the last accepted strike.
	if !fs.maxSwingYSet || pos.Y > fs.maxSwingY {
		fs.maxSwingY = pos.Y
		fs.maxSwingYSet = true
	}

	// Samples within the detection window of now.
	start := len(fs.samples)
	for i, s := range fs.samples {
		if now-s.t <= e.cfg.WindowDuration {
			start = i
			break
		}
	}
	window := fs.samples[start:]
	if len(window) < MinWindowSamples {
		return nil
	}

	candIdx := start + temporalMidpoint(window)
	cand := fs.samples[candIdx]

	// Strict local minimum over the window: any tie disqualifies.
	for i := start; i < len(fs.samples); i++ {
		if i == candIdx {
			continue
		}
		if fs.samples[i].pos.Y <= cand.pos.Y {
			return nil
		}
	}

	// Refractory gate.
	if fs.hasStrike && now-fs.lastStrikeT < e.cfg.RefractoryPeriod {
		return nil
	}

	// Velocity gate: the foot must be actively descending into the
	// strike, judged from the sample immediately before the candidate.
	if candIdx == 0 {
		return nil
	}
	prev := fs.samples[candIdx-1]
	dt := cand.t - prev.t
	if dt <= 0 {
		return nil
	}
	vy := -(cand.pos.Y - prev.pos.Y) / dt
	if vy < e.cfg.MinDownwardVelocity {
		return nil
	}

	// The strike is stamped with the frame time, not the candidate's
	// buffered time: the refractory gate and cadence window both work
	// in frame time, and the event is "detected this frame".
	strike := &FootStrike{
		Foot:      fs.foot,
		Position:  cand.pos,
		Timestamp: now,
	}

	// Stride metrics vs this foot's previous strike.
	if fs.hasStrike {
		stride := skeleton.HorizontalDistance(cand.pos, fs.lastStrikePos)
		if stride >= e.cfg.MinStrideLength && stride <= e.cfg.MaxStrideLength {
			strike.StrideLengthM = ptr(stride)
			fs.strideLengths = appendCapped(fs.strideLengths, stride, e.cfg.StrideHistoryCap)
		}
		interval := now - fs.lastStrikeT
		if interval > e.cfg.MinStrideInterval && interval < e.cfg.MaxStrideInterval {
			fs.strideIntervals = appendCapped(fs.strideIntervals, interval, e.cfg.IntervalHistoryCap)
		}
	}

	// Step metrics vs the other foot's last contact.
	if other.hasContact {
		step := skeleton.HorizontalDistance(cand.pos, other.lastContactPos)
		if step >= e.cfg.MinStepLength && step <= e.cfg.MaxStepLength {
			strike.StepLengthM = ptr(step)
		}
		width := math.Abs(cand.pos.X-other.lastContactPos.X) * 100
		strike.StepWidthCm = ptr(width)
		e.stepWidths = appendCapped(e.stepWidths, width, e.cfg.StepWidthCap)
	}

	strike.ImpactVelocityMps = ptr(math.Abs(cand.pos.Y-prev.pos.Y) / dt)

	if fs.maxSwingYSet {
		clearance := fs.maxSwingY - cand.pos.Y
		if clearance > e.cfg.MinFootClearance {
			strike.FootClearanceM = ptr(clearance)
		}
	}

	// Bookkeeping for the next swing phase.
	fs.maxSwingYSet = false
	fs.lastStrikeT = now
	fs.lastStrikePos = cand.pos
	fs.hasStrike = true
	fs.lastContactPos = cand.pos
	fs.hasContact = true
	e.strikeTimes = append(e.strikeTimes, now)

	return strike
}

// computeCadence derives steps/min from accepted strikes (both feet)
// inside the trailing cadence window.
func (e *Engine) computeCadence() float64 {
	if len(e.strikeTimes) < 2 {
		return 0
	}
	elapsed := e.strikeTimes[len(e.strikeTimes)-1] - e.strikeTimes[0]
	if elapsed <= 0 {
		return 0
	}
	return float64(len(e.strikeTimes)-1) / elapsed * 60
}

// computeWalkingSpeed derives speed from the root joint's horizontal
// displacement across the trailing speed window.
func (e *Engine) computeWalkingSpeed() float64 {
	if len(e.rootSamples) < 2 {
		return 0
	}
	oldest := e.rootSamples[0]
	newest := e.rootSamples[len(e.rootSamples)-1]
	elapsed := newest.t - oldest.t
	if elapsed < 0.5 {
		return 0
	}
	return skeleton.HorizontalDistance(newest.pos, oldest.pos) / elapsed
}

// minStrideSamplesForSI is the per-foot stride count required before
// the Robinson Symmetry Index is reported.
const minStrideSamplesForSI = 3

// computeRobinsonSI returns the Robinson Symmetry Index in percent
// (normal under 10), or nil until both feet have enough stride data.
func (e *Engine) computeRobinsonSI() *float64 {
	if len(e.left.strideLengths) < minStrideSamplesForSI || len(e.right.strideLengths) < minStrideSamplesForSI {
		return nil
	}
	meanL := stat.Mean(e.left.strideLengths, nil)
	meanR := stat.Mean(e.right.strideLengths, nil)
	if meanL <= 0.01 || meanR <= 0.01 {
		return nil
	}
	si := math.Abs(meanL-meanR) / (0.5 * (meanL + meanR)) * 100
	return &si
}

// computeTemporal derives stance/swing/double-support percentages from
// per-foot stride intervals. This is the symmetric-gait approximation
// (step time assumed to be half the stride time), not a measurement of
// actual bilateral contact.
func (e *Engine) computeTemporal() (stance, swing, doubleSupport *float64) {
	if len(e.left.strideIntervals) < 2 || len(e.right.strideIntervals) < 2 {
		return nil, nil, nil
	}
	avgStride := (stat.Mean(e.left.strideIntervals, nil) + stat.Mean(e.right.strideIntervals, nil)) / 2
	if avgStride <= 0 {
		return nil, nil, nil
	}
	stepTime := avgStride / 2
	sw := stepTime / avgStride * 100
	st := 100 - sw
	ds := (st - 50) * 2
	if ds < 0 {
		ds = 0
	}
	if ds > 50 {
		ds = 50
	}
	return &st, &sw, &ds
}

// minStrideIntervalsForCV is the pooled interval count required before
// stride-time variability is reported.
const minStrideIntervalsForCV = 4

// computeStrideTimeCV returns the stride-time coefficient of variation
// in percent over the pooled left+right interval history.
func (e *Engine) computeStrideTimeCV() *float64 {
	pooled := make([]float64, 0, len(e.left.strideIntervals)+len(e.right.strideIntervals))
	pooled = append(pooled, e.left.strideIntervals...)
	pooled = append(pooled, e.right.strideIntervals...)
	if len(pooled) < minStrideIntervalsForCV {
		return nil
	}
	mean := stat.Mean(pooled, nil)
	if mean <= 0 {
		return nil
	}
	cv := stat.PopStdDev(pooled, nil) / mean * 100
	return &cv
}

// temporalMidpoint returns the index (within window) of the sample
// whose timestamp is closest to the window's temporal midpoint.
func temporalMidpoint(window []sample) int {
	mid := (window[0].t + window[len(window)-1].t) / 2
	best := 0
	bestDist := math.Abs(window[0].t - mid)
	for i := 1; i < len(window); i++ {
		d := math.Abs(window[i].t - mid)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// pruneSamples drops samples with timestamps at or before cutoff.
// Samples are appended in time order, so only a prefix is dropped.
func pruneSamples(samples []sample, cutoff float64) []sample {
	i := 0
	for i < len(samples) && samples[i].t < cutoff {
		i++
	}
	if i == 0 {
		return samples
	}
	return append(samples[:0], samples[i:]...)
}

// pruneTimes drops timestamps before cutoff.
func pruneTimes(times []float64, cutoff float64) []float64 {
	i := 0
	for i < len(times) && times[i] < cutoff {
		i++
	}
	if i == 0 {
		return times
	}
	return append(times[:0], times[i:]...)
}

// appendCapped appends v keeping at most cap entries, dropping the
// oldest first.
func appendCapped(history []float64, v float64, capN int) []float64 {
	history = append(history, v)
	if capN > 0 && len(history) > capN {
		history = append(history[:0], history[len(history)-capN:]...)
	}
	return history
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func ptr(v float64) *float64 { return &v }
