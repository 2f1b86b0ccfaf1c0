package carla

import (
	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/planner"
	"github.com/drivesim/carla-rl-env/sim"
)

// Measurement is the full per-step snapshot of one actor: pose,
// sensors, planner output and episode bookkeeping. It is the info
// payload returned by Step and the record written to the measurement
// log.
type Measurement struct {
	EpisodeID string `json:"episode_id"`
	Step      int    `json:"step"`

	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Pitch        float64 `json:"pitch"`
	Yaw          float64 `json:"yaw"`
	Roll         float64 `json:"roll"`
	ForwardSpeed float64 `json:"forward_speed"`

	DistanceToGoal          float64         `json:"distance_to_goal"`
	DistanceToGoalEuclidean float64         `json:"distance_to_goal_euclidean"`
	NextCommand             planner.Command `json:"next_command"`

	CollisionVehicles     int  `json:"collision_vehicles"`
	CollisionPedestrians  int  `json:"collision_pedestrians"`
	CollisionOther        int  `json:"collision_other"`
	IntersectionOffroad   bool `json:"intersection_offroad"`
	IntersectionOtherlane bool `json:"intersection_otherlane"`

	Weather    sim.Weather `json:"weather"`
	Map        string      `json:"map"`
	StartCoord [2]int      `json:"start_coord"`
	EndCoord   [2]int      `json:"end_coord"`
	Scenario   Scenario    `json:"current_scenario"`
	XRes       int         `json:"x_res"`
	YRes       int         `json:"y_res"`
	MaxSteps   int         `json:"max_steps"`

	PreviousAction core.Action        `json:"previous_action"`
	PreviousReward float64            `json:"previous_reward"`
	Action         core.Action        `json:"action"`
	Control        sim.VehicleControl `json:"control"`
	Reward         float64            `json:"reward"`
	TotalReward    float64            `json:"total_reward"`
	Done           bool               `json:"done"`
}

// Collided reports whether any collision counter is non-zero.
func (m *Measurement) Collided() bool {
	return m.CollisionVehicles > 0 || m.CollisionPedestrians > 0 || m.CollisionOther > 0
}
