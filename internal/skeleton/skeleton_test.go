package skeleton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestJointValid(t *testing.T) {
	for _, j := range AllJoints {
		assert.True(t, j.Valid(), "joint %q", j)
	}
	assert.False(t, Joint("pelvis").Valid())
	assert.False(t, Joint("").Valid())
	assert.False(t, Joint("LeftFoot").Valid(), "vocabulary is case sensitive")
}

func TestPositionsGet(t *testing.T) {
	p := Positions{
		Root:     r3.Vec{X: 1, Y: 2, Z: 3},
		Head:     r3.Vec{Y: math.NaN()},
		LeftFoot: r3.Vec{Z: math.Inf(-1)},
	}

	v, ok := p.Get(Root)
	assert.True(t, ok)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, v)

	_, ok = p.Get(Hips)
	assert.False(t, ok, "absent joint")

	v, ok = p.Get(Head)
	assert.False(t, ok, "NaN component treated as missing")
	assert.Equal(t, r3.Vec{}, v)

	_, ok = p.Get(LeftFoot)
	assert.False(t, ok, "infinite component treated as missing")
}

func TestPositionsHas(t *testing.T) {
	p := Positions{
		Root: r3.Vec{},
		Hips: r3.Vec{Y: 1},
		Head: r3.Vec{X: math.NaN()},
	}
	assert.True(t, p.Has(Root, Hips))
	assert.False(t, p.Has(Root, Neck1))
	assert.False(t, p.Has(Root, Head), "non-finite joint fails the set")
	assert.True(t, p.Has(), "empty joint list is trivially present")
}

func TestHorizontalDistance(t *testing.T) {
	a := r3.Vec{X: 1, Y: 10, Z: 1}
	b := r3.Vec{X: 4, Y: -3, Z: 5}
	assert.InDelta(t, 5, HorizontalDistance(a, b), 1e-12, "vertical component ignored")
	assert.Zero(t, HorizontalDistance(a, a))
}

func TestSpineJointsOrdering(t *testing.T) {
	assert.Equal(t, Spine1, SpineJoints[0])
	assert.Equal(t, Spine7, SpineJoints[len(SpineJoints)-1])
	assert.Len(t, SpineJoints, 7)
}
