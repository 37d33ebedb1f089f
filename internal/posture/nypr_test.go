package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gait.report/internal/skeleton"
)

func TestGradeBand(t *testing.T) {
	assert.Equal(t, nyprGood, gradeBand(0.5, 1, 2.5))
	assert.Equal(t, nyprFair, gradeBand(1.5, 1, 2.5))
	assert.Equal(t, nyprPoor, gradeBand(3, 1, 2.5))
	// Cutoffs are exclusive on the good side.
	assert.Equal(t, nyprFair, gradeBand(1, 1, 2.5))
	assert.Equal(t, nyprPoor, gradeBand(2.5, 1, 2.5))
	// Deviation sign never matters.
	assert.Equal(t, nyprGood, gradeBand(-0.5, 1, 2.5))
}

// fullBodyPositions extends the upright trunk with shoulders, hips,
// and knees so every check has its joints.
func fullBodyPositions() skeleton.Positions {
	positions := uprightPositions()
	positions[skeleton.LeftShoulder] = r3.Vec{X: -0.18, Y: 1.45}
	positions[skeleton.RightShoulder] = r3.Vec{X: 0.18, Y: 1.45}
	positions[skeleton.LeftUpperLeg] = r3.Vec{X: -0.09, Y: 0.95}
	positions[skeleton.RightUpperLeg] = r3.Vec{X: 0.09, Y: 0.95}
	positions[skeleton.LeftLowerLeg] = r3.Vec{X: -0.09, Y: 0.50}
	positions[skeleton.RightLowerLeg] = r3.Vec{X: 0.09, Y: 0.50}
	return positions
}

func TestScoreNYPR_PerfectAlignment(t *testing.T) {
	e := NewEngine(nil)
	positions := fullBodyPositions()

	m := e.Analyze(positions)
	require.NotNil(t, m)

	// Every check present and ideal except kyphosis, which is skipped:
	// the trunk-only frame has no spine3/spine5 landmarks.
	assert.Equal(t, NYPRMaxScore, m.NYPRMax)
	assert.Equal(t, 8*nyprGood, m.NYPRScore)
}

func TestScoreNYPR_MissingJointsAwardNothing(t *testing.T) {
	e := NewEngine(nil)

	// Trunk only: shoulder-level, hip-level, and knee checks have no
	// joints and contribute nothing, but the maximum stays fixed.
	m := e.Analyze(uprightPositions())
	require.NotNil(t, m)
	assert.Equal(t, NYPRMaxScore, m.NYPRMax)

	full := e.Analyze(fullBodyPositions())
	require.NotNil(t, full)
	assert.Equal(t, full.NYPRScore-3*nyprGood, m.NYPRScore)
}

func TestScoreNYPR_MeasuredKyphosisGraded(t *testing.T) {
	e := NewEngine(nil)

	positions := fullBodyPositions()
	// A gentle thoracic curve: spine5 set back from the spine3-spine7
	// chord. Interior-angle proxy lands in the fair band (deviation
	// from the 30 deg norm between 10 and 20).
	positions[skeleton.Spine3] = r3.Vec{Y: 1.24}
	positions[skeleton.Spine5] = r3.Vec{Y: 1.36, Z: -0.015}

	m := e.Analyze(positions)
	require.NotNil(t, m)

	withCurve := m.NYPRScore
	flat := e.Analyze(fullBodyPositions()).NYPRScore
	// The measured-kyphosis check now contributes where it was skipped.
	assert.Greater(t, withCurve, flat)
	assert.LessOrEqual(t, withCurve, flat+nyprGood)
}

func TestScoreNYPR_DegradedChecks(t *testing.T) {
	e := NewEngine(nil)
	positions := fullBodyPositions()
	// Drop the right shoulder 3 cm (poor) and tilt the head 1.5 cm
	// laterally (fair). The pure lateral head offset also reads as a
	// full head rotation (poor) in the rotation check.
	positions[skeleton.RightShoulder] = r3.Vec{X: 0.18, Y: 1.42}
	positions[skeleton.Head] = r3.Vec{X: 0.015, Y: 1.70}

	m := e.Analyze(positions)
	require.NotNil(t, m)

	perfect := e.Analyze(fullBodyPositions()).NYPRScore
	degraded := perfect -
		(nyprGood - nyprPoor) - // shoulder level
		(nyprGood - nyprFair) - // lateral head tilt
		(nyprGood - nyprPoor) // head rotation
	assert.Equal(t, degraded, m.NYPRScore)
}
