package carla

import (
	"fmt"
	"math"
	"strconv"

	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/sim"
	"github.com/drivesim/carla-rl-env/util"
)

// DiscreteAction indexes the fixed action table.
type DiscreteAction int

var _ core.Action = DiscreteAction(0)

func (a DiscreteAction) Hash() string {
	return strconv.Itoa(int(a))
}

// ContinuousAction is a raw [throttle/brake, steer] pair.
type ContinuousAction [2]float64

var _ core.Action = ContinuousAction{}

func (a ContinuousAction) Hash() string {
	return util.JsonHash(a)
}

// discreteActionTable maps a discrete action to a [throttle/brake,
// steer] pair. Index 0 coasts, index 4 brakes.
var discreteActionTable = [][2]float64{
	0: {0.0, 0.0},
	1: {0.0, -0.5},
	2: {0.0, 0.5},
	3: {1.0, 0.0},
	4: {-0.5, 0.0},
	5: {0.5, -0.05},
	6: {0.5, 0.05},
	7: {-0.5, -0.5},
	8: {-0.5, 0.5},
}

// NumDiscreteActions is the size of the discrete action space.
var NumDiscreteActions = len(discreteActionTable)

// decodeAction turns an agent action into a raw [throttle/brake, steer]
// pair. The action type must match the configured action space.
func decodeAction(action core.Action, discrete bool) ([2]float64, error) {
	switch a := action.(type) {
	case DiscreteAction:
		if !discrete {
			return [2]float64{}, fmt.Errorf("%w: discrete action in a continuous action space", ErrConfig)
		}
		if int(a) < 0 || int(a) >= len(discreteActionTable) {
			return [2]float64{}, fmt.Errorf("%w: discrete action %d out of range [0, %d)",
				ErrConfig, a, len(discreteActionTable))
		}
		return discreteActionTable[a], nil
	case ContinuousAction:
		if discrete {
			return [2]float64{}, fmt.Errorf("%w: continuous action in a discrete action space", ErrConfig)
		}
		return [2]float64(a), nil
	case nil:
		return [2]float64{}, fmt.Errorf("%w: nil action", ErrConfig)
	default:
		return [2]float64{}, fmt.Errorf("%w: unsupported action type %T", ErrConfig, action)
	}
}

// toControl converts a raw action pair into a vehicle control. Without
// squashing, throttle is capped at 0.6 and a negative first component
// brakes. With squashing, both components are treated as logits.
func toControl(pair [2]float64, squash bool) sim.VehicleControl {
	if squash {
		forward := 2*util.Sigmoid(pair[0]) - 1
		return sim.VehicleControl{
			Throttle: util.Clamp(forward, 0, 1),
			Brake:    math.Abs(util.Clamp(forward, -1, 0)),
			Steer:    2*util.Sigmoid(pair[1]) - 1,
		}
	}
	return sim.VehicleControl{
		Throttle: util.Clamp(pair[0], 0, 0.6),
		Brake:    math.Abs(util.Clamp(pair[0], -1, 0)),
		Steer:    util.Clamp(pair[1], -1, 1),
	}
}
