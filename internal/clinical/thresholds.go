// Package clinical holds the static threshold tables used to grade
// posture measurements. The tables are immutable data plus pure
// functions; callers inject them into the analysis engines so tests
// can substitute their own tolerances.
package clinical

import "math"

// Tier grades a measurement against its clinical reference range.
type Tier string

const (
	TierNormal   Tier = "normal"
	TierMild     Tier = "mild"
	TierModerate Tier = "moderate"
	TierSevere   Tier = "severe"
)

// Metric names the posture measurements graded by the tables.
type Metric string

const (
	MetricCVA               Metric = "cva"
	MetricSVA               Metric = "sva"
	MetricSagittalLean      Metric = "sagittal_lean"
	MetricFrontalLean       Metric = "frontal_lean"
	MetricShoulderAsymmetry Metric = "shoulder_asymmetry"
	MetricShoulderTilt      Metric = "shoulder_tilt"
	MetricPelvicObliquity   Metric = "pelvic_obliquity"
	MetricKyphosis          Metric = "kyphosis"
	MetricLordosis          Metric = "lordosis"
	MetricCoronalDeviation  Metric = "coronal_deviation"
)

// Threshold describes one metric's reference range. Ideal is the
// clinically ideal target; the tier cutoffs are absolute deviations
// from Ideal; MaxDeviation is the deviation at which the 0-100
// sub-score bottoms out.
type Threshold struct {
	Ideal        float64
	Mild         float64
	Moderate     float64
	Severe       float64
	MaxDeviation float64
}

// Tables is an immutable set of per-metric thresholds.
type Tables struct {
	thresholds map[Metric]Threshold
}

// Default tolerances follow the usual clinical reference ranges:
// CVA normal 49-56 deg, SVA normal under 5 cm, thoracic kyphosis
// 20-40 deg, lumbar lordosis 40-60 deg.
var defaultThresholds = map[Metric]Threshold{
	MetricCVA:               {Ideal: 52, Mild: 4, Moderate: 8, Severe: 12, MaxDeviation: 15},
	MetricSVA:               {Ideal: 0, Mild: 4, Moderate: 6, Severe: 9, MaxDeviation: 10},
	MetricSagittalLean:      {Ideal: 0, Mild: 5, Moderate: 10, Severe: 20, MaxDeviation: 25},
	MetricFrontalLean:       {Ideal: 0, Mild: 3, Moderate: 6, Severe: 12, MaxDeviation: 15},
	MetricShoulderAsymmetry: {Ideal: 0, Mild: 1, Moderate: 2.5, Severe: 4, MaxDeviation: 5},
	MetricShoulderTilt:      {Ideal: 0, Mild: 2, Moderate: 5, Severe: 8, MaxDeviation: 10},
	MetricPelvicObliquity:   {Ideal: 0, Mild: 2, Moderate: 5, Severe: 8, MaxDeviation: 10},
	MetricKyphosis:          {Ideal: 30, Mild: 10, Moderate: 20, Severe: 30, MaxDeviation: 30},
	MetricLordosis:          {Ideal: 50, Mild: 10, Moderate: 20, Severe: 30, MaxDeviation: 30},
	MetricCoronalDeviation:  {Ideal: 0, Mild: 1, Moderate: 2, Severe: 4, MaxDeviation: 5},
}

// DefaultTables returns the standard clinical threshold tables.
func DefaultTables() *Tables {
	return &Tables{thresholds: defaultThresholds}
}

// NewTables builds tables from an explicit threshold map. The map is
// copied so the returned tables cannot be mutated through it.
func NewTables(thresholds map[Metric]Threshold) *Tables {
	m := make(map[Metric]Threshold, len(thresholds))
	for k, v := range thresholds {
		m[k] = v
	}
	return &Tables{thresholds: m}
}

// Lookup returns the threshold entry for metric, if present.
func (t *Tables) Lookup(metric Metric) (Threshold, bool) {
	th, ok := t.thresholds[metric]
	return th, ok
}

// Severity grades value against metric's reference range. Unknown
// metrics grade as normal rather than failing: the tables are a
// lookup, not a validator.
func (t *Tables) Severity(metric Metric, value float64) Tier {
	th, ok := t.thresholds[metric]
	if !ok {
		return TierNormal
	}
	dev := math.Abs(value - th.Ideal)
	switch {
	case dev >= th.Severe:
		return TierSevere
	case dev >= th.Moderate:
		return TierModerate
	case dev >= th.Mild:
		return TierMild
	default:
		return TierNormal
	}
}

// SubScore maps a measurement to a 0-100 score with a symmetric
// triangular falloff around the ideal target. A maxDeviation of zero
// short-circuits to a full score.
func SubScore(measured, ideal, maxDeviation float64) float64 {
	if maxDeviation == 0 {
		return 100
	}
	score := 100 * (1 - math.Abs(measured-ideal)/maxDeviation)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SubScoreFor computes the triangular-falloff sub-score for metric
// using its table entry. Unknown metrics score 100.
func (t *Tables) SubScoreFor(metric Metric, measured float64) float64 {
	th, ok := t.thresholds[metric]
	if !ok {
		return 100
	}
	return SubScore(measured, th.Ideal, th.MaxDeviation)
}
