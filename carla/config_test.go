package carla

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivesim/carla-rl-env/core"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"env": {
			"server_map": "/Game/Carla/Maps/Town02",
			"x_res": 84, "y_res": 84,
			"framestack": 2,
			"discrete_actions": true,
			"server_binary": "/opt/sim/server"
		},
		"actors": {
			"car1": {
				"scenarios": "DEFAULT_SCENARIO_TOWN2",
				"enable_planner": true,
				"collision_sensor": "on",
				"lane_sensor": "on",
				"reward_function": "corl2017",
				"early_terminate_on_collision": true
			}
		}
	}`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Town02", config.Env.Town())
	assert.Equal(t, 2, config.Env.FrameStack)
	actor := config.Actors[core.AgentID("car1")]
	assert.True(t, actor.EnablePlanner)
	assert.Equal(t, Scripted, actor.ControlMode())
	assert.Equal(t, defaultRewardFloor, actor.rewardFloor())
}

func TestRewardFloorDefaultsAndZero(t *testing.T) {
	assert.Equal(t, defaultRewardFloor, ActorConfig{}.rewardFloor())

	zero := 0.0
	assert.Equal(t, 0.0, ActorConfig{RewardFloor: &zero}.rewardFloor(),
		"an explicit zero floor is kept")

	floor := -250.0
	assert.Equal(t, -250.0, ActorConfig{RewardFloor: &floor}.rewardFloor())
}

func TestLoadConfigKeepsExplicitZeroRewardFloor(t *testing.T) {
	path := writeConfigFile(t, `{
		"env": {"server_map": "/Game/Carla/Maps/Town01", "framestack": 1},
		"actors": {"car1": {
			"scenarios": "DEFAULT_SCENARIO_TOWN1",
			"reward_function": "corl2017",
			"reward_floor": 0
		}}
	}`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, config.Actors[core.AgentID("car1")].rewardFloor())
}

func TestLoadConfigFillsPathsFromEnvironment(t *testing.T) {
	t.Setenv("CARLA_SERVER", "/opt/sim/from-env")
	t.Setenv("CARLA_OUT", "/tmp/out")
	path := writeConfigFile(t, `{
		"env": {"server_map": "/Game/Carla/Maps/Town01", "framestack": 1},
		"actors": {"car1": {"scenarios": "DEFAULT_SCENARIO_TOWN1", "reward_function": "corl2017"}}
	}`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/sim/from-env", config.Env.ServerBinary)
	assert.Equal(t, "/tmp/out", config.Env.OutDir)
}

func TestValidateRejectsBadFramestack(t *testing.T) {
	config := DefaultConfig()
	config.Env.FrameStack = 3
	assert.ErrorIs(t, config.Validate(), ErrConfig)
}

func TestValidateRejectsConflictingControlModes(t *testing.T) {
	config := DefaultConfig()
	actor := config.Actors["vehicle1"]
	actor.ManualControl = true
	actor.AutoControl = true
	config.Actors["vehicle1"] = actor
	assert.ErrorIs(t, config.Validate(), ErrConfig)
}

func TestValidateRejectsUnknownRewardAndScenario(t *testing.T) {
	config := DefaultConfig()
	actor := config.Actors["vehicle1"]
	actor.RewardFunction = "bogus"
	config.Actors["vehicle1"] = actor
	assert.ErrorIs(t, config.Validate(), ErrConfig)

	actor.RewardFunction = "corl2017"
	actor.Scenarios = "BOGUS_SET"
	config.Actors["vehicle1"] = actor
	assert.ErrorIs(t, config.Validate(), ErrConfig)
}

func TestControlModeSelection(t *testing.T) {
	assert.Equal(t, Scripted, ActorConfig{}.ControlMode())
	assert.Equal(t, Autopilot, ActorConfig{AutoControl: true}.ControlMode())
	assert.Equal(t, Manual, ActorConfig{ManualControl: true}.ControlMode())
}

func TestSensorTogglesDefaultOn(t *testing.T) {
	assert.True(t, ActorConfig{}.collisionSensorOn())
	assert.True(t, ActorConfig{CollisionSensor: "on"}.collisionSensorOn())
	assert.False(t, ActorConfig{CollisionSensor: "off"}.collisionSensorOn())
	assert.False(t, ActorConfig{LaneSensor: "off"}.laneSensorOn())
}
