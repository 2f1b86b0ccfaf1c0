package policies

import (
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/drivesim/carla-rl-env/carla"
	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/planner"
)

// commandActions maps the planner's next maneuver to a discrete
// action: full throttle for straight segments, half throttle with a
// gentle steer for turns, coast once the goal is reached.
var commandActions = map[planner.Command]carla.DiscreteAction{
	planner.ReachGoal:  0,
	planner.GoStraight: 3,
	planner.LaneFollow: 3,
	planner.TurnLeft:   5,
	planner.TurnRight:  6,
}

// explorationWeights bias exploration towards forward motion.
var explorationWeights = []float64{1, 1, 1, 4, 1, 2, 2, 1, 1}

// CommandFollower executes the planner's command and explores the rest
// of the action table with probability Epsilon, weighted towards
// forward actions. It needs the environment's measurement infos, so
// before the first step of an episode it drives straight.
type CommandFollower struct {
	Epsilon float64

	rand *exprand.Rand
}

var _ core.Policy = &CommandFollower{}

func NewCommandFollower(seed uint64, epsilon float64) *CommandFollower {
	return &CommandFollower{
		Epsilon: epsilon,
		rand:    exprand.New(exprand.NewSource(seed)),
	}
}

func (p *CommandFollower) ResetEpisode(*core.EpisodeContext) {
}

func (p *CommandFollower) UpdateEpisode(*core.EpisodeContext) {
}

func (p *CommandFollower) PickActions(_ *core.StepContext, obs core.ObservationMap, infos core.InfoMap, dones core.DoneMap) core.ActionMap {
	actions := make(core.ActionMap)
	for id := range obs {
		if id == core.DoneAll || dones[id] {
			continue
		}
		if p.rand.Float64() < p.Epsilon {
			actions[id] = p.explore()
			continue
		}
		actions[id] = p.commanded(infos[id])
	}
	return actions
}

func (p *CommandFollower) explore() carla.DiscreteAction {
	sampler := sampleuv.NewWeighted(explorationWeights, p.rand)
	idx, ok := sampler.Take()
	if !ok {
		return commandActions[planner.LaneFollow]
	}
	return carla.DiscreteAction(idx)
}

func (p *CommandFollower) commanded(info interface{}) carla.DiscreteAction {
	m, ok := info.(*carla.Measurement)
	if !ok {
		return commandActions[planner.LaneFollow]
	}
	action, ok := commandActions[m.NextCommand]
	if !ok {
		return commandActions[planner.LaneFollow]
	}
	return action
}

func (p *CommandFollower) UpdateStep(*core.StepContext, core.ObservationMap, core.ActionMap, *core.StepResult) {
}

func (p *CommandFollower) Reset() {
}

type CommandFollowerConstructor struct {
	Seed    uint64
	Epsilon float64
}

var _ core.PolicyConstructor = &CommandFollowerConstructor{}

func (c *CommandFollowerConstructor) NewPolicy() core.Policy {
	c.Seed++
	return NewCommandFollower(c.Seed, c.Epsilon)
}
