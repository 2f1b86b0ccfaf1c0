package carla

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/drivesim/carla-rl-env/core"
)

// ControlMode selects who produces the control applied to an actor
// each step.
type ControlMode int

const (
	// Scripted applies the decoded agent action.
	Scripted ControlMode = iota
	// Autopilot delegates to the simulator's built-in driver.
	Autopilot
	// Manual reads the latest control posted to the manual bridge.
	Manual
)

// EnvConfig holds the settings shared by every actor of one
// environment instance. Immutable after construction.
type EnvConfig struct {
	ServerMap          string `json:"server_map"`
	Render             bool   `json:"render"`
	RenderXRes         int    `json:"render_x_res"`
	RenderYRes         int    `json:"render_y_res"`
	XRes               int    `json:"x_res"`
	YRes               int    `json:"y_res"`
	FrameStack         int    `json:"framestack"`
	DiscreteActions    bool   `json:"discrete_actions"`
	SquashActionLogits bool   `json:"squash_action_logits"`
	SendMeasurements   bool   `json:"send_measurements"`
	Verbose            bool   `json:"verbose"`

	// ServerBinary and OutDir default from the CARLA_SERVER and
	// CARLA_OUT environment variables when empty.
	ServerBinary string `json:"server_binary,omitempty"`
	OutDir       string `json:"out_dir,omitempty"`
}

// Town is the last element of the server map path, the key into the
// waypoint coordinate maps.
func (c EnvConfig) Town() string {
	parts := strings.Split(c.ServerMap, "/")
	return parts[len(parts)-1]
}

func (c EnvConfig) Validate() error {
	if c.FrameStack != 1 && c.FrameStack != 2 {
		return fmt.Errorf("%w: framestack must be 1 or 2, got %d", ErrConfig, c.FrameStack)
	}
	if c.Town() == "" {
		return fmt.Errorf("%w: missing server map", ErrConfig)
	}
	return nil
}

// ActorConfig holds the per-agent settings. Immutable after
// construction, keyed by agent id.
type ActorConfig struct {
	Scenarios                 string   `json:"scenarios"`
	EnablePlanner             bool     `json:"enable_planner"`
	CollisionSensor           string   `json:"collision_sensor"` // "on" | "off"
	LaneSensor                string   `json:"lane_sensor"`      // "on" | "off"
	ManualControl             bool     `json:"manual_control"`
	AutoControl               bool     `json:"auto_control"`
	RewardFunction            string   `json:"reward_function"`
	EarlyTerminateOnCollision bool     `json:"early_terminate_on_collision"`
	RewardFloor               *float64 `json:"reward_floor,omitempty"`
	SendMeasurements          bool     `json:"send_measurements"`
	LogMeasurements           bool     `json:"log_measurements"`
	CompressMeasurements      bool     `json:"compress_measurements"`
}

// defaultRewardFloor is the cumulative-reward floor below which an
// early-terminating actor is considered failed.
const defaultRewardFloor = -100.0

func (c ActorConfig) ControlMode() ControlMode {
	switch {
	case c.ManualControl:
		return Manual
	case c.AutoControl:
		return Autopilot
	default:
		return Scripted
	}
}

func (c ActorConfig) collisionSensorOn() bool {
	return c.CollisionSensor != "off"
}

func (c ActorConfig) laneSensorOn() bool {
	return c.LaneSensor != "off"
}

func (c ActorConfig) rewardFloor() float64 {
	if c.RewardFloor == nil {
		return defaultRewardFloor
	}
	return *c.RewardFloor
}

func (c ActorConfig) Validate() error {
	if c.ManualControl && c.AutoControl {
		return fmt.Errorf("%w: manual_control and auto_control are mutually exclusive", ErrConfig)
	}
	if _, err := RewardFunction(c.RewardFunction); err != nil {
		return err
	}
	if _, err := scenariosByName(c.Scenarios); err != nil {
		return err
	}
	return nil
}

// MultiEnvConfig is the whole environment document: shared settings
// under "env", one actor entry per agent id under "actors".
type MultiEnvConfig struct {
	Env    EnvConfig                    `json:"env"`
	Actors map[core.AgentID]ActorConfig `json:"actors"`
}

func (c *MultiEnvConfig) Validate() error {
	if err := c.Env.Validate(); err != nil {
		return err
	}
	if len(c.Actors) == 0 {
		return fmt.Errorf("%w: no actors configured", ErrConfig)
	}
	for id, actor := range c.Actors {
		if err := actor.Validate(); err != nil {
			return fmt.Errorf("actor %s: %w", id, err)
		}
	}
	return nil
}

// LoadConfig reads a MultiEnvConfig document from a JSON file and
// fills the binary/output paths from the environment when absent.
func LoadConfig(path string) (*MultiEnvConfig, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := &MultiEnvConfig{}
	if err := json.Unmarshal(bs, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	config.applyEnvironment()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *MultiEnvConfig) applyEnvironment() {
	if c.Env.ServerBinary == "" {
		c.Env.ServerBinary = os.Getenv("CARLA_SERVER")
	}
	if c.Env.OutDir == "" {
		c.Env.OutDir = os.Getenv("CARLA_OUT")
	}
}

// DefaultConfig is a single-actor Town01 setup, mirroring the shape a
// config file is expected to have.
func DefaultConfig() *MultiEnvConfig {
	return &MultiEnvConfig{
		Env: EnvConfig{
			ServerMap:       "/Game/Carla/Maps/Town01",
			Render:          true,
			RenderXRes:      800,
			RenderYRes:      600,
			XRes:            84,
			YRes:            84,
			FrameStack:      1,
			DiscreteActions: true,
		},
		Actors: map[core.AgentID]ActorConfig{
			"vehicle1": {
				Scenarios:                 "DEFAULT_SCENARIO_TOWN1",
				EnablePlanner:             true,
				CollisionSensor:           "on",
				LaneSensor:                "on",
				RewardFunction:            "corl2017",
				EarlyTerminateOnCollision: true,
			},
		},
	}
}
