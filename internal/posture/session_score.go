package posture

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gait.report/internal/clinical"
)

// Session-level posture score: mean trunk and lateral lean over a
// whole capture, each put through the same triangular falloff as the
// per-frame sub-scores.
const (
	sessionTrunkMaxDeviation   = 25 // degrees
	sessionLateralMaxDeviation = 15 // degrees

	// DefaultTrunkWeight and DefaultLateralWeight are the standard
	// session-score weights. Earlier builds disagreed between 0.6/0.4
	// and 0.7/0.3 at different call sites; 0.6/0.4 is the default here
	// and ComputeSessionScoreWeighted keeps the other split callable.
	DefaultTrunkWeight   = 0.6
	DefaultLateralWeight = 0.4
)

// ComputeSessionScore folds per-frame trunk and lateral lean series
// into one 0-100 session score using the default weights. Returns 0
// when no trunk-lean samples were collected.
func ComputeSessionScore(trunkLeans, lateralLeans []float64) float64 {
	return ComputeSessionScoreWeighted(trunkLeans, lateralLeans, DefaultTrunkWeight, DefaultLateralWeight)
}

// ComputeSessionScoreWeighted is ComputeSessionScore with explicit
// weights for deployments tuned to the 0.7/0.3 split.
func ComputeSessionScoreWeighted(trunkLeans, lateralLeans []float64, trunkWeight, lateralWeight float64) float64 {
	if len(trunkLeans) == 0 {
		return 0
	}
	trunkScore := clinical.SubScore(stat.Mean(trunkLeans, nil), 0, sessionTrunkMaxDeviation)

	lateralScore := 100.0
	if len(lateralLeans) > 0 {
		lateralScore = clinical.SubScore(stat.Mean(lateralLeans, nil), 0, sessionLateralMaxDeviation)
	}

	score := trunkWeight*trunkScore + lateralWeight*lateralScore
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
