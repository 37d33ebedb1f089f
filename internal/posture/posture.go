// Package posture computes trunk, spine, and head alignment angles
// from a single frame of joint positions and folds them into a
// composite clinical score, a Kendall postural-type classification,
// and an automated New York Posture Rating sub-score.
//
// The engine is stateless per call: Analyze is purely a function of
// one frame. Session-level aggregation happens externally over the
// emitted snapshots.
package posture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gait.report/internal/clinical"
	"github.com/banshee-data/gait.report/internal/skeleton"
)

// Type is the Kendall postural-type classification.
type Type string

const (
	TypeIdeal            Type = "ideal"
	TypeKyphosisLordosis Type = "kyphosis_lordosis"
	TypeFlatBack         Type = "flat_back"
	TypeSwayBack         Type = "sway_back"
)

const (
	// degPerRad converts radians to degrees.
	degPerRad = 180 / math.Pi

	// idealCVADeg is reported when the head sits directly over the
	// upper spine and the angle is numerically undefined.
	idealCVADeg = 52

	// Literature-normal fallbacks when mid-spine landmarks are not
	// tracked this frame.
	defaultKyphosisDeg = 30
	defaultLordosisDeg = 50

	// horizontalEpsilon guards atan2 denominators against
	// near-vertical vectors.
	horizontalEpsilon = 1e-6

	// Kendall decision-table cutoffs.
	forwardHeadCm       = 3
	forwardShoulderCm   = 2
	kyphoticDeg         = 45
	hyperlordoticDeg    = 55
	hypolordoticDeg     = 35
	posteriorPelvicTilt = -5
)

// Metrics is the per-frame posture snapshot. Angles are degrees,
// linear offsets centimeters.
type Metrics struct {
	SagittalLeanDeg float64
	FrontalLeanDeg  float64

	CVADeg float64
	SVACm  float64

	ShoulderAsymmetryCm float64
	ShoulderTiltDeg     float64
	PelvicObliquityDeg  float64

	ThoracicKyphosisDeg float64
	LumbarLordosisDeg   float64
	CoronalDeviationCm  float64

	PosturalType Type

	NYPRScore int
	NYPRMax   int

	CompositeScore float64

	Severities map[clinical.Metric]clinical.Tier
}

// compositeWeights fixes the contribution of each sub-score to the
// composite posture score. The weights sum to 1.0.
var compositeWeights = map[clinical.Metric]float64{
	clinical.MetricCVA:               0.20,
	clinical.MetricSVA:               0.15,
	clinical.MetricSagittalLean:      0.12,
	clinical.MetricFrontalLean:       0.08,
	clinical.MetricShoulderAsymmetry: 0.10,
	clinical.MetricKyphosis:          0.12,
	clinical.MetricPelvicObliquity:   0.08,
	clinical.MetricLordosis:          0.10,
	clinical.MetricCoronalDeviation:  0.05,
}

// severityMetrics lists the metrics reported in the per-frame
// severity map.
var severityMetrics = []clinical.Metric{
	clinical.MetricCVA,
	clinical.MetricSVA,
	clinical.MetricSagittalLean,
	clinical.MetricFrontalLean,
	clinical.MetricShoulderAsymmetry,
	clinical.MetricShoulderTilt,
	clinical.MetricPelvicObliquity,
	clinical.MetricKyphosis,
	clinical.MetricLordosis,
	clinical.MetricCoronalDeviation,
}

// Engine is the posture analysis engine. It carries no state between
// calls; the struct only binds the injected threshold tables.
type Engine struct {
	tables *clinical.Tables
}

// NewEngine creates an engine grading against the given threshold
// tables. Nil tables fall back to the defaults.
func NewEngine(tables *clinical.Tables) *Engine {
	if tables == nil {
		tables = clinical.DefaultTables()
	}
	return &Engine{tables: tables}
}

// Analyze computes the posture snapshot for one frame. Returns nil
// when any of root, hips, spine7, neck1, or head is missing or
// non-finite; tracking dropout is the expected case, not an error.
func (e *Engine) Analyze(positions skeleton.Positions) *Metrics {
	root, ok1 := positions.Get(skeleton.Root)
	hips, ok2 := positions.Get(skeleton.Hips)
	spine7, ok3 := positions.Get(skeleton.Spine7)
	neck1, ok4 := positions.Get(skeleton.Neck1)
	head, ok5 := positions.Get(skeleton.Head)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil
	}

	m := &Metrics{}

	trunk := r3.Sub(spine7, hips)
	m.SagittalLeanDeg = planeLeanDeg(trunk.Z, trunk.Y)
	m.FrontalLeanDeg = planeLeanDeg(trunk.X, trunk.Y)

	m.CVADeg = craniovertebralAngle(head, spine7)
	m.SVACm = (spine7.Z - root.Z) * 100

	m.ShoulderAsymmetryCm, m.ShoulderTiltDeg = levelOffset(positions, skeleton.LeftShoulder, skeleton.RightShoulder)
	_, m.PelvicObliquityDeg = levelOffset(positions, skeleton.LeftUpperLeg, skeleton.RightUpperLeg)

	var kyphosisMeasured bool
	m.ThoracicKyphosisDeg, kyphosisMeasured = interiorCurve(positions, skeleton.Spine7, skeleton.Spine5, skeleton.Spine3, defaultKyphosisDeg)
	m.LumbarLordosisDeg, _ = interiorCurve(positions, skeleton.Spine3, skeleton.Spine1, skeleton.Hips, defaultLordosisDeg)

	m.CoronalDeviationCm = coronalDeviation(positions, root, neck1)

	headOffsetCm := (head.Z - root.Z) * 100
	pelvicTiltDeg := pelvicTilt(root, hips)
	m.PosturalType = classifyKendall(headOffsetCm, m.SVACm, m.ThoracicKyphosisDeg, m.LumbarLordosisDeg, pelvicTiltDeg)

	m.NYPRScore, m.NYPRMax = e.scoreNYPR(positions, m, kyphosisMeasured)

	m.CompositeScore = e.compositeScore(m)

	m.Severities = make(map[clinical.Metric]clinical.Tier, len(severityMetrics))
	for _, metric := range severityMetrics {
		m.Severities[metric] = e.tables.Severity(metric, e.metricValue(m, metric))
	}

	return m
}

// metricValue extracts the measured value graded under metric.
func (e *Engine) metricValue(m *Metrics, metric clinical.Metric) float64 {
	switch metric {
	case clinical.MetricCVA:
		return m.CVADeg
	case clinical.MetricSVA:
		return m.SVACm
	case clinical.MetricSagittalLean:
		return m.SagittalLeanDeg
	case clinical.MetricFrontalLean:
		return m.FrontalLeanDeg
	case clinical.MetricShoulderAsymmetry:
		return m.ShoulderAsymmetryCm
	case clinical.MetricShoulderTilt:
		return m.ShoulderTiltDeg
	case clinical.MetricPelvicObliquity:
		return m.PelvicObliquityDeg
	case clinical.MetricKyphosis:
		return m.ThoracicKyphosisDeg
	case clinical.MetricLordosis:
		return m.LumbarLordosisDeg
	case clinical.MetricCoronalDeviation:
		return m.CoronalDeviationCm
	default:
		return 0
	}
}

// compositeScore folds the per-metric triangular-falloff sub-scores
// into the weighted composite, clamped to [0, 100].
func (e *Engine) compositeScore(m *Metrics) float64 {
	var score float64
	for metric, weight := range compositeWeights {
		score += weight * e.tables.SubScoreFor(metric, e.metricValue(m, metric))
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// planeLeanDeg returns the angle between vertical and a trunk vector
// projected into one anatomical plane; lateral is the in-plane
// horizontal component, vertical the Y component.
func planeLeanDeg(lateral, vertical float64) float64 {
	return math.Atan2(math.Abs(lateral), vertical) * degPerRad
}

// craniovertebralAngle computes the CVA from the spine7-to-head
// vector. When the head sits directly over the upper spine the angle
// is undefined and the clinical ideal is reported instead.
func craniovertebralAngle(head, spine7 r3.Vec) float64 {
	v := r3.Sub(head, spine7)
	horizontal := math.Sqrt(v.X*v.X + v.Z*v.Z)
	if horizontal < horizontalEpsilon {
		return idealCVADeg
	}
	return math.Atan2(v.Y, math.Abs(v.Z)) * degPerRad
}

// levelOffset returns the vertical height difference (cm) and tilt
// angle (deg, relative to horizontal) between a left/right joint pair,
// or zeros when either joint is absent.
func levelOffset(positions skeleton.Positions, left, right skeleton.Joint) (offsetCm, tiltDeg float64) {
	l, okL := positions.Get(left)
	r, okR := positions.Get(right)
	if !okL || !okR {
		return 0, 0
	}
	dy := l.Y - r.Y
	span := skeleton.HorizontalDistance(l, r)
	offsetCm = math.Abs(dy) * 100
	if span < horizontalEpsilon {
		return offsetCm, 0
	}
	tiltDeg = math.Atan2(dy, span) * degPerRad
	return offsetCm, tiltDeg
}

// interiorCurve returns the 180-minus-interior-angle curvature proxy
// at vertex, or the literature-normal fallback when any landmark is
// absent. The second return reports whether the value was measured.
func interiorCurve(positions skeleton.Positions, a, vertex, c skeleton.Joint, fallback float64) (float64, bool) {
	pa, okA := positions.Get(a)
	pv, okV := positions.Get(vertex)
	pc, okC := positions.Get(c)
	if !okA || !okV || !okC {
		return fallback, false
	}
	u := r3.Sub(pa, pv)
	w := r3.Sub(pc, pv)
	nu := r3.Norm(u)
	nw := r3.Norm(w)
	if nu < horizontalEpsilon || nw < horizontalEpsilon {
		return fallback, false
	}
	cos := r3.Dot(u, w) / (nu * nw)
	if cos > 1 {
		cos = 1
	}
	if cos < -1 {
		cos = -1
	}
	return 180 - math.Acos(cos)*degPerRad, true
}

// coronalDeviation returns the maximum perpendicular distance (cm)
// from any tracked spine joint to the root-to-neck1 line.
func coronalDeviation(positions skeleton.Positions, root, neck1 r3.Vec) float64 {
	axis := r3.Sub(neck1, root)
	axisLen := r3.Norm(axis)
	if axisLen < horizontalEpsilon {
		return 0
	}
	var maxDev float64
	for _, j := range skeleton.SpineJoints {
		p, ok := positions.Get(j)
		if !ok {
			continue
		}
		dev := r3.Norm(r3.Cross(r3.Sub(p, root), axis)) / axisLen
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev * 100
}

// pelvicTilt returns the sagittal tilt of the root-to-hips vector in
// degrees; anterior (forward) tilt is positive, posterior negative.
func pelvicTilt(root, hips r3.Vec) float64 {
	v := r3.Sub(hips, root)
	if math.Abs(v.Y) < horizontalEpsilon && math.Abs(v.Z) < horizontalEpsilon {
		return 0
	}
	return math.Atan2(v.Z, math.Abs(v.Y)) * degPerRad
}

// classifyKendall assigns the Kendall postural type via a fixed
// priority decision table; the conditions overlap, so evaluation
// order is part of the contract.
func classifyKendall(headOffsetCm, shoulderOffsetCm, kyphosisDeg, lordosisDeg, pelvicTiltDeg float64) Type {
	forwardHead := headOffsetCm > forwardHeadCm
	forwardShoulder := shoulderOffsetCm > forwardShoulderCm

	if forwardHead && forwardShoulder && kyphosisDeg > kyphoticDeg && lordosisDeg > hyperlordoticDeg {
		return TypeKyphosisLordosis
	}
	if lordosisDeg < hypolordoticDeg && !(kyphosisDeg > kyphoticDeg) {
		return TypeFlatBack
	}
	if forwardHead && (pelvicTiltDeg < posteriorPelvicTilt || lordosisDeg < hypolordoticDeg) && !forwardShoulder {
		return TypeSwayBack
	}
	return TypeIdeal
}
