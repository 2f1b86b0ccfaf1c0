package carla

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDiscreteAction(t *testing.T) {
	pair, err := decodeAction(DiscreteAction(0), true)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0, 0}, pair, "action 0 coasts")

	pair, err = decodeAction(DiscreteAction(4), true)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-0.5, 0}, pair, "action 4 brakes")

	pair, err = decodeAction(DiscreteAction(5), true)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.5, -0.05}, pair, "action 5 drives forward-left, half throttle, gentle steer")

	pair, err = decodeAction(DiscreteAction(6), true)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.5, 0.05}, pair, "action 6 drives forward-right, half throttle, gentle steer")

	pair, err = decodeAction(DiscreteAction(7), true)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-0.5, -0.5}, pair, "action 7 brakes left")

	_, err = decodeAction(DiscreteAction(NumDiscreteActions), true)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = decodeAction(DiscreteAction(-1), true)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestDecodeActionSpaceMismatch(t *testing.T) {
	_, err := decodeAction(ContinuousAction{0.5, 0}, true)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = decodeAction(DiscreteAction(0), false)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = decodeAction(nil, true)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestToControlClamps(t *testing.T) {
	c := toControl([2]float64{0, 0}, false)
	assert.Equal(t, 0.0, c.Throttle)
	assert.Equal(t, 0.0, c.Brake)
	assert.Equal(t, 0.0, c.Steer)

	c = toControl([2]float64{1.0, 0}, false)
	assert.Equal(t, 0.6, c.Throttle, "throttle is capped")
	assert.Equal(t, 0.0, c.Brake)

	c = toControl([2]float64{-0.5, 0}, false)
	assert.Equal(t, 0.0, c.Throttle)
	assert.Equal(t, 0.5, c.Brake, "negative first component brakes")

	c = toControl([2]float64{0, -3}, false)
	assert.Equal(t, -1.0, c.Steer, "steer is clamped to [-1, 1]")
}

func TestToControlSquash(t *testing.T) {
	c := toControl([2]float64{0, 0}, true)
	assert.Equal(t, 0.0, c.Throttle)
	assert.Equal(t, 0.0, c.Brake)
	assert.Equal(t, 0.0, c.Steer)

	c = toControl([2]float64{100, 100}, true)
	assert.InDelta(t, 1.0, c.Throttle, 1e-9)
	assert.InDelta(t, 1.0, c.Steer, 1e-9)

	c = toControl([2]float64{-100, -100}, true)
	assert.Equal(t, 0.0, c.Throttle)
	assert.InDelta(t, 1.0, c.Brake, 1e-9)
	assert.InDelta(t, -1.0, c.Steer, 1e-9)
}

func TestActionHashes(t *testing.T) {
	assert.Equal(t, "4", DiscreteAction(4).Hash())
	assert.Equal(t, ContinuousAction{0.5, -1}.Hash(), ContinuousAction{0.5, -1}.Hash())
	assert.NotEqual(t, ContinuousAction{0.5, 0}.Hash(), ContinuousAction{0.501, 0}.Hash())
}
