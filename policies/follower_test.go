package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivesim/carla-rl-env/carla"
	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/planner"
)

func TestFollowerExecutesCommands(t *testing.T) {
	policy := NewCommandFollower(1, 0) // never explore
	obs := core.ObservationMap{"a": nil}

	cases := []struct {
		command planner.Command
		action  carla.DiscreteAction
	}{
		{planner.ReachGoal, 0},
		{planner.GoStraight, 3},
		{planner.LaneFollow, 3},
		{planner.TurnLeft, 5},
		{planner.TurnRight, 6},
	}
	for _, tc := range cases {
		infos := core.InfoMap{"a": &carla.Measurement{NextCommand: tc.command}}
		actions := policy.PickActions(nil, obs, infos, nil)
		require.Len(t, actions, 1)
		assert.Equal(t, tc.action, actions["a"], "command %s", tc.command)
	}
}

func TestFollowerDrivesStraightWithoutInfo(t *testing.T) {
	policy := NewCommandFollower(1, 0)
	obs := core.ObservationMap{"a": nil}

	actions := policy.PickActions(nil, obs, nil, nil)
	assert.Equal(t, carla.DiscreteAction(3), actions["a"])
}

func TestFollowerExploresWithinTable(t *testing.T) {
	policy := NewCommandFollower(3, 1) // always explore
	obs := core.ObservationMap{"a": nil}

	seen := map[carla.DiscreteAction]bool{}
	for i := 0; i < 200; i++ {
		actions := policy.PickActions(nil, obs, nil, nil)
		a, ok := actions["a"].(carla.DiscreteAction)
		require.True(t, ok)
		require.GreaterOrEqual(t, int(a), 0)
		require.Less(t, int(a), carla.NumDiscreteActions)
		seen[a] = true
	}
	assert.Greater(t, len(seen), 3, "exploration should cover several actions")
}
