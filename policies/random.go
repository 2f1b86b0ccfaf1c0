package policies

import (
	"math/rand"

	"github.com/drivesim/carla-rl-env/carla"
	"github.com/drivesim/carla-rl-env/core"
)

// RandomPolicy picks a uniformly random action for every agent that is
// still active. With Discrete set it draws from the fixed action
// table, otherwise it samples raw [throttle/brake, steer] pairs.
type RandomPolicy struct {
	rand     *rand.Rand
	discrete bool
}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy(seed int64, discrete bool) *RandomPolicy {
	return &RandomPolicy{
		rand:     rand.New(rand.NewSource(seed)),
		discrete: discrete,
	}
}

func (p *RandomPolicy) ResetEpisode(*core.EpisodeContext) {
}

func (p *RandomPolicy) UpdateEpisode(*core.EpisodeContext) {
}

func (p *RandomPolicy) PickActions(_ *core.StepContext, obs core.ObservationMap, _ core.InfoMap, dones core.DoneMap) core.ActionMap {
	actions := make(core.ActionMap)
	for id := range obs {
		if id == core.DoneAll || dones[id] {
			continue
		}
		if p.discrete {
			actions[id] = carla.DiscreteAction(p.rand.Intn(carla.NumDiscreteActions))
		} else {
			actions[id] = carla.ContinuousAction{
				p.rand.Float64()*2 - 1,
				p.rand.Float64()*2 - 1,
			}
		}
	}
	return actions
}

func (p *RandomPolicy) UpdateStep(*core.StepContext, core.ObservationMap, core.ActionMap, *core.StepResult) {
}

func (p *RandomPolicy) Reset() {
}

type RandomPolicyConstructor struct {
	Seed     int64
	Discrete bool
}

var _ core.PolicyConstructor = &RandomPolicyConstructor{}

func (c *RandomPolicyConstructor) NewPolicy() core.Policy {
	c.Seed++
	return NewRandomPolicy(c.Seed, c.Discrete)
}
