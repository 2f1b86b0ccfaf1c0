package carla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivesim/carla-rl-env/planner"
	"github.com/drivesim/carla-rl-env/sim"
)

func testImage(fill float64) sim.Image {
	pixels := make([]float64, 2*2*3)
	for i := range pixels {
		pixels[i] = fill
	}
	return sim.Image{Height: 2, Width: 2, Depth: 3, Pixels: pixels}
}

func TestEncodeWithoutStacking(t *testing.T) {
	enc := newObsEncoder(1)
	img := testImage(0.5)

	obs := enc.Encode(img, &Measurement{}, false)
	assert.Equal(t, img, obs.Image)
	assert.False(t, obs.WithMeasurements)
}

func TestEncodeStacksTwoFrames(t *testing.T) {
	enc := newObsEncoder(2)

	// the first frame is stacked with itself
	first := enc.Encode(testImage(1), &Measurement{}, false)
	require.Equal(t, 4, first.Image.Height)
	require.Len(t, first.Image.Pixels, 24)
	assert.Equal(t, first.Image.Pixels[:12], first.Image.Pixels[12:])

	// afterwards the previous frame leads
	second := enc.Encode(testImage(2), &Measurement{}, false)
	require.Len(t, second.Image.Pixels, 24)
	assert.Equal(t, 1.0, second.Image.Pixels[0])
	assert.Equal(t, 2.0, second.Image.Pixels[12])
}

func TestEncodeSelfStacksAgainAfterReset(t *testing.T) {
	enc := newObsEncoder(2)
	enc.Encode(testImage(1), &Measurement{}, false)
	enc.reset()

	obs := enc.Encode(testImage(2), &Measurement{}, false)
	require.Len(t, obs.Image.Pixels, 24)
	assert.Equal(t, obs.Image.Pixels[:12], obs.Image.Pixels[12:],
		"the first frame of a fresh episode stacks with itself")
	assert.Equal(t, 2.0, obs.Image.Pixels[0])
}

func TestEncodeWithMeasurements(t *testing.T) {
	enc := newObsEncoder(1)
	m := &Measurement{
		NextCommand:    planner.TurnRight,
		ForwardSpeed:   3.5,
		DistanceToGoal: 1.25,
	}

	obs := enc.Encode(testImage(0), m, true)
	require.True(t, obs.WithMeasurements)
	assert.Equal(t, int(planner.TurnRight), obs.Command)
	assert.Equal(t, [2]float64{3.5, 1.25}, obs.Metrics)

	oneHot := obs.CommandOneHot()
	require.Len(t, oneHot, planner.NumCommands)
	assert.Equal(t, []float64{0, 0, 1, 0, 0}, oneHot)
}
