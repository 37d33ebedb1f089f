package replay

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gait.report/internal/skeleton"
)

// WalkParams shapes a synthetic straight-line walk for demos and
// detector validation. The feet oscillate vertically in antiphase at
// StepFrequency while the body advances at Speed.
type WalkParams struct {
	DurationS     float64
	FrameRateHz   float64
	StepFrequency float64 // steps per second per foot
	StepAmplitude float64 // vertical foot lift, meters
	Speed         float64 // forward speed, m/s
	StanceWidth   float64 // lateral foot separation, meters
}

// DefaultWalkParams describes a comfortable 120 steps/min walk. The
// amplitude and frame rate are chosen so the foot's sampled descent
// into each minimum clears the detector's velocity gate.
func DefaultWalkParams() WalkParams {
	return WalkParams{
		DurationS:     10,
		FrameRateHz:   30,
		StepFrequency: 1,
		StepAmplitude: 0.2,
		Speed:         1.3,
		StanceWidth:   0.2,
	}
}

// SynthesizeWalk generates the frames of a synthetic walk. The
// skeleton is upright and rigid apart from the feet; it exists to
// exercise the detectors, not to model real biomechanics.
func SynthesizeWalk(p WalkParams) []skeleton.Frame {
	n := int(p.DurationS * p.FrameRateHz)
	frames := make([]skeleton.Frame, 0, n)

	for i := 0; i < n; i++ {
		t := float64(i) / p.FrameRateHz
		z := p.Speed * t
		phase := 2 * math.Pi * p.StepFrequency * t

		// Antiphase vertical oscillation; feet never go below ground.
		leftY := p.StepAmplitude * (1 - math.Cos(phase)) / 2
		rightY := p.StepAmplitude * (1 - math.Cos(phase+math.Pi)) / 2

		frames = append(frames, skeleton.Frame{
			Timestamp: t,
			Positions: skeleton.Positions{
				skeleton.Root:      r3.Vec{Y: 1.0, Z: z},
				skeleton.Hips:      r3.Vec{Y: 1.05, Z: z},
				skeleton.Spine1:    r3.Vec{Y: 1.15, Z: z},
				skeleton.Spine2:    r3.Vec{Y: 1.22, Z: z},
				skeleton.Spine3:    r3.Vec{Y: 1.29, Z: z},
				skeleton.Spine4:    r3.Vec{Y: 1.36, Z: z},
				skeleton.Spine5:    r3.Vec{Y: 1.43, Z: z},
				skeleton.Spine6:    r3.Vec{Y: 1.50, Z: z},
				skeleton.Spine7:    r3.Vec{Y: 1.57, Z: z},
				skeleton.Neck1:     r3.Vec{Y: 1.62, Z: z},
				skeleton.Head:      r3.Vec{Y: 1.75, Z: z},
				skeleton.LeftFoot:  r3.Vec{X: -p.StanceWidth / 2, Y: leftY, Z: z},
				skeleton.RightFoot: r3.Vec{X: p.StanceWidth / 2, Y: rightY, Z: z},
			},
		})
	}
	return frames
}
