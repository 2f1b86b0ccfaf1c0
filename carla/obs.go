package carla

import (
	"github.com/drivesim/carla-rl-env/planner"
	"github.com/drivesim/carla-rl-env/sim"
)

// Observation is the agent-facing output of one step: the (possibly
// stacked) camera frame plus, when measurements are requested, the
// planner command index and [forward speed, distance to goal].
type Observation struct {
	Image            sim.Image
	Command          int
	Metrics          [2]float64
	WithMeasurements bool
}

// CommandOneHot is the command encoded as a one-hot vector.
func (o *Observation) CommandOneHot() []float64 {
	oneHot := make([]float64, planner.NumCommands)
	if o.Command >= 0 && o.Command < len(oneHot) {
		oneHot[o.Command] = 1
	}
	return oneHot
}

// obsEncoder builds observations, keeping the single most recent frame
// across calls to support two-frame stacking. The first frame after
// construction or a reset is stacked with itself.
type obsEncoder struct {
	frameStack int
	prevImage  sim.Image
}

func newObsEncoder(frameStack int) *obsEncoder {
	return &obsEncoder{frameStack: frameStack}
}

// reset drops the remembered frame so the next encode does not stack
// against the previous episode.
func (e *obsEncoder) reset() {
	e.prevImage = sim.Image{}
}

func (e *obsEncoder) Encode(image sim.Image, m *Measurement, withMeasurements bool) *Observation {
	prev := e.prevImage
	e.prevImage = image
	if prev.Empty() {
		prev = image
	}

	out := image
	if e.frameStack == 2 {
		out = stackImages(prev, image)
	}

	obs := &Observation{Image: out}
	if withMeasurements {
		obs.WithMeasurements = true
		obs.Command = int(m.NextCommand)
		obs.Metrics = [2]float64{m.ForwardSpeed, m.DistanceToGoal}
	}
	return obs
}

// stackImages concatenates two frames along the leading axis.
func stackImages(a, b sim.Image) sim.Image {
	pixels := make([]float64, 0, len(a.Pixels)+len(b.Pixels))
	pixels = append(pixels, a.Pixels...)
	pixels = append(pixels, b.Pixels...)
	return sim.Image{
		Height: a.Height + b.Height,
		Width:  b.Width,
		Depth:  b.Depth,
		Pixels: pixels,
	}
}
