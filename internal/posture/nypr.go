package posture

import (
	"math"

	"github.com/banshee-data/gait.report/internal/skeleton"
)

// New York Posture Rating automation. Nine independent checks each
// award 5 (good), 3 (fair), or 1 (poor) point against fixed cutoffs.
// A check whose required joints are absent contributes nothing to the
// awarded total; the maximum stays fixed at nyprCheckCount * 5 so
// partially tracked frames score lower rather than on a smaller scale.
const (
	nyprCheckCount = 9
	nyprGood       = 5
	nyprFair       = 3
	nyprPoor       = 1

	// NYPRMaxScore is the fixed instrument maximum.
	NYPRMaxScore = nyprCheckCount * nyprGood
)

// gradeBand awards 5/3/1 depending on which cutoff the absolute
// deviation falls under.
func gradeBand(deviation, goodUnder, fairUnder float64) int {
	d := math.Abs(deviation)
	switch {
	case d < goodUnder:
		return nyprGood
	case d < fairUnder:
		return nyprFair
	default:
		return nyprPoor
	}
}

// scoreNYPR runs the nine automated checks against the frame.
// kyphosisMeasured distinguishes a measured thoracic curve from the
// literature fallback; the fallback must not award free points.
func (e *Engine) scoreNYPR(positions skeleton.Positions, m *Metrics, kyphosisMeasured bool) (score, max int) {
	max = NYPRMaxScore

	// 1. Lateral head tilt: head offset from the neck in the frontal
	// plane, cm.
	if head, ok := positions.Get(skeleton.Head); ok {
		if neck, ok := positions.Get(skeleton.Neck1); ok {
			score += gradeBand((head.X-neck.X)*100, 1, 2.5)
		}
	}

	// 2. Shoulder level.
	if positions.Has(skeleton.LeftShoulder, skeleton.RightShoulder) {
		score += gradeBand(m.ShoulderAsymmetryCm, 1, 2.5)
	}

	// 3. Craniovertebral angle: larger is more upright, so grade the
	// shortfall from the ideal.
	switch {
	case m.CVADeg >= 50:
		score += nyprGood
	case m.CVADeg >= 45:
		score += nyprFair
	default:
		score += nyprPoor
	}

	// 4. Thoracic kyphosis, only when actually measured this frame.
	if kyphosisMeasured {
		score += gradeBand(m.ThoracicKyphosisDeg-defaultKyphosisDeg, 10, 20)
	}

	// 5. Trunk lateral alignment.
	score += gradeBand(m.FrontalLeanDeg, 2, 5)

	// 6. Shoulder protraction: forward offset of the upper spine over
	// the pelvis, cm.
	score += gradeBand(m.SVACm, 2, 4)

	// 7. Hip level.
	if positions.Has(skeleton.LeftUpperLeg, skeleton.RightUpperLeg) {
		score += gradeBand(m.PelvicObliquityDeg, 2, 5)
	}

	// 8. Bilateral knee alignment: mean lateral knee offset from the
	// hip joint, cm.
	if positions.Has(skeleton.LeftUpperLeg, skeleton.LeftLowerLeg, skeleton.RightUpperLeg, skeleton.RightLowerLeg) {
		lHip, _ := positions.Get(skeleton.LeftUpperLeg)
		lKnee, _ := positions.Get(skeleton.LeftLowerLeg)
		rHip, _ := positions.Get(skeleton.RightUpperLeg)
		rKnee, _ := positions.Get(skeleton.RightLowerLeg)
		dev := (math.Abs(lKnee.X-lHip.X) + math.Abs(rKnee.X-rHip.X)) / 2 * 100
		score += gradeBand(dev, 1, 2.5)
	}

	// 9. Head rotation: horizontal direction of the neck-to-head
	// vector. A head directly over the neck reads as aligned.
	if head, ok := positions.Get(skeleton.Head); ok {
		if neck, ok := positions.Get(skeleton.Neck1); ok {
			hx := head.X - neck.X
			hz := head.Z - neck.Z
			if math.Sqrt(hx*hx+hz*hz) < horizontalEpsilon {
				score += nyprGood
			} else {
				score += gradeBand(math.Atan2(hx, math.Abs(hz))*degPerRad, 10, 25)
			}
		}
	}

	return score, max
}
