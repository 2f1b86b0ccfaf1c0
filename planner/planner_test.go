package planner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandJSONRoundTrip(t *testing.T) {
	bs, err := json.Marshal(TurnLeft)
	require.NoError(t, err)
	assert.Equal(t, `"TURN_LEFT"`, string(bs))

	var c Command
	require.NoError(t, json.Unmarshal([]byte(`"REACH_GOAL"`), &c))
	assert.Equal(t, ReachGoal, c)

	// unknown names fall back to lane following
	require.NoError(t, json.Unmarshal([]byte(`"WARP_DRIVE"`), &c))
	assert.Equal(t, LaneFollow, c)
}

func TestCommandOrdinals(t *testing.T) {
	assert.Equal(t, 0, int(ReachGoal))
	assert.Equal(t, 1, int(GoStraight))
	assert.Equal(t, 2, int(TurnRight))
	assert.Equal(t, 3, int(TurnLeft))
	assert.Equal(t, 4, int(LaneFollow))
}

func TestStraightLineCommands(t *testing.T) {
	p := NewStraightLine()

	cmd, err := p.NextCommand([3]float64{0, 0, 22}, [3]float64{}, [3]float64{1000, 0, 22}, [3]float64{})
	require.NoError(t, err)
	assert.Equal(t, LaneFollow, cmd)

	cmd, err = p.NextCommand([3]float64{900, 0, 22}, [3]float64{}, [3]float64{1000, 0, 22}, [3]float64{})
	require.NoError(t, err)
	assert.Equal(t, ReachGoal, cmd, "within the goal radius")
}

func TestStraightLineDistance(t *testing.T) {
	p := NewStraightLine()
	d, err := p.ShortestPathDistance([3]float64{0, 0, 22}, [3]float64{}, [3]float64{300, 400, 22}, [3]float64{})
	require.NoError(t, err)
	assert.InDelta(t, 500.0, d, 1e-9)
}
