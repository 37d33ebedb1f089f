// Package skeleton defines the joint vocabulary and per-frame joint
// position model shared by the gait and posture engines. Positions are
// in meters, right-handed, Y-up, as delivered by the tracking layer.
package skeleton

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Joint identifies one joint in the fixed tracking vocabulary.
// The vocabulary is closed; the tracking layer never emits names
// outside this set.
type Joint string

const (
	Root Joint = "root"
	Hips Joint = "hips"

	Spine1 Joint = "spine1"
	Spine2 Joint = "spine2"
	Spine3 Joint = "spine3"
	Spine4 Joint = "spine4"
	Spine5 Joint = "spine5"
	Spine6 Joint = "spine6"
	Spine7 Joint = "spine7"

	Neck1 Joint = "neck1"
	Neck2 Joint = "neck2"
	Neck3 Joint = "neck3"
	Head  Joint = "head"

	LeftShoulder  Joint = "leftShoulder"
	RightShoulder Joint = "rightShoulder"
	LeftUpperArm  Joint = "leftUpperArm"
	RightUpperArm Joint = "rightUpperArm"
	LeftForearm   Joint = "leftForearm"
	RightForearm  Joint = "rightForearm"
	LeftHand      Joint = "leftHand"
	RightHand     Joint = "rightHand"

	LeftUpperLeg  Joint = "leftUpperLeg"
	RightUpperLeg Joint = "rightUpperLeg"
	LeftLowerLeg  Joint = "leftLowerLeg"
	RightLowerLeg Joint = "rightLowerLeg"
	LeftFoot      Joint = "leftFoot"
	RightFoot     Joint = "rightFoot"
	LeftToeEnd    Joint = "leftToeEnd"
	RightToeEnd   Joint = "rightToeEnd"
)

// AllJoints lists every joint in the vocabulary, torso first, then
// arms and legs left-before-right.
var AllJoints = []Joint{
	Root, Hips,
	Spine1, Spine2, Spine3, Spine4, Spine5, Spine6, Spine7,
	Neck1, Neck2, Neck3, Head,
	LeftShoulder, RightShoulder,
	LeftUpperArm, RightUpperArm,
	LeftForearm, RightForearm,
	LeftHand, RightHand,
	LeftUpperLeg, RightUpperLeg,
	LeftLowerLeg, RightLowerLeg,
	LeftFoot, RightFoot,
	LeftToeEnd, RightToeEnd,
}

// SpineJoints lists the seven spine joints from lumbar (spine1) to
// upper thoracic (spine7).
var SpineJoints = []Joint{Spine1, Spine2, Spine3, Spine4, Spine5, Spine6, Spine7}

var validJoints = func() map[Joint]bool {
	m := make(map[Joint]bool, len(AllJoints))
	for _, j := range AllJoints {
		m[j] = true
	}
	return m
}()

// Valid reports whether j belongs to the closed vocabulary.
func (j Joint) Valid() bool { return validJoints[j] }

// Positions maps joints to world-space positions for one frame.
// Absent joints (tracking dropout) are simply missing from the map.
type Positions map[Joint]r3.Vec

// Frame is one tracked sample from the sensor: a timestamp in seconds
// and the joint positions observed at that instant. Frames are passed
// by value into the engines and never retained by them.
type Frame struct {
	Timestamp float64
	Positions Positions
}

// Get returns the position of joint j and whether it was tracked with
// finite coordinates this frame. Non-finite positions are treated as
// missing so tracking glitches cannot poison downstream statistics.
func (p Positions) Get(j Joint) (r3.Vec, bool) {
	v, ok := p[j]
	if !ok || !IsFinite(v) {
		return r3.Vec{}, false
	}
	return v, true
}

// Has reports whether every listed joint is present with finite
// coordinates.
func (p Positions) Has(joints ...Joint) bool {
	for _, j := range joints {
		if _, ok := p.Get(j); !ok {
			return false
		}
	}
	return true
}

// IsFinite reports whether all three components of v are finite.
func IsFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// HorizontalDistance returns the X-Z plane distance between a and b,
// ignoring the vertical (Y) component.
func HorizontalDistance(a, b r3.Vec) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}
