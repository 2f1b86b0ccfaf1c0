package carla

import (
	"fmt"

	"github.com/drivesim/carla-rl-env/planner"
	"github.com/drivesim/carla-rl-env/util"
)

// RewardFunc computes the per-step reward from the previous and current
// measurement snapshots of one actor.
type RewardFunc func(prev, cur *Measurement) float64

var rewardFunctions = map[string]RewardFunc{
	"corl2017":  rewardCorl2017,
	"lane_keep": rewardLaneKeep,
}

// RewardFunction resolves a reward function by its configured name.
func RewardFunction(name string) (RewardFunc, error) {
	fn, ok := rewardFunctions[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown reward function %q", ErrConfig, name)
	}
	return fn, nil
}

// rewardCorl2017 shapes on progress towards the goal plus speed, with
// penalties for new collisions and leaving the lane or the road, and a
// terminal bonus on reaching the goal.
func rewardCorl2017(prev, cur *Measurement) float64 {
	reward := util.Clamp(prev.DistanceToGoal-cur.DistanceToGoal, -10, 10)
	reward += 0.05 * (cur.ForwardSpeed - prev.ForwardSpeed)
	if newCollision(prev, cur) {
		reward -= 100
	}
	if cur.IntersectionOffroad {
		reward -= 2
	}
	if cur.IntersectionOtherlane {
		reward -= 2
	}
	if cur.NextCommand == planner.ReachGoal && prev.NextCommand != planner.ReachGoal {
		reward += 100
	}
	return reward
}

// rewardLaneKeep pays for forward speed and punishes collisions and
// lane departures, with no goal shaping.
func rewardLaneKeep(prev, cur *Measurement) float64 {
	reward := 0.05 * cur.ForwardSpeed
	if newCollision(prev, cur) {
		reward -= 100
	}
	if cur.IntersectionOffroad {
		reward -= 2
	}
	if cur.IntersectionOtherlane {
		reward -= 2
	}
	return reward
}

func newCollision(prev, cur *Measurement) bool {
	return cur.CollisionVehicles > prev.CollisionVehicles ||
		cur.CollisionPedestrians > prev.CollisionPedestrians ||
		cur.CollisionOther > prev.CollisionOther
}
