package planner

import (
	"encoding/json"
	"math"
)

// Command is the planner's next-maneuver instruction. The numeric value
// doubles as the one-hot index fed to models.
type Command int

const (
	ReachGoal Command = iota
	GoStraight
	TurnRight
	TurnLeft
	LaneFollow
)

// NumCommands is the size of the one-hot command encoding.
const NumCommands = 5

var commandNames = map[Command]string{
	ReachGoal:  "REACH_GOAL",
	GoStraight: "GO_STRAIGHT",
	TurnRight:  "TURN_RIGHT",
	TurnLeft:   "TURN_LEFT",
	LaneFollow: "LANE_FOLLOW",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for cmd, n := range commandNames {
		if n == name {
			*c = cmd
			return nil
		}
	}
	*c = LaneFollow
	return nil
}

// Planner is the path-planning boundary: given the current pose and the
// goal it produces the next maneuver and, separately, the shortest-path
// distance to the goal. Positions and orientations are [x, y, z].
type Planner interface {
	NextCommand(cur, curOrient, goal, goalOrient [3]float64) (Command, error)
	ShortestPathDistance(cur, curOrient, goal, goalOrient [3]float64) (float64, error)
}

// StraightLine is a fallback planner with no map knowledge: it commands
// lane following until the goal is within GoalRadius and measures
// distance as the crow flies.
type StraightLine struct {
	GoalRadius float64
}

var _ Planner = &StraightLine{}

func NewStraightLine() *StraightLine {
	return &StraightLine{GoalRadius: 200}
}

func (p *StraightLine) distance(cur, goal [3]float64) float64 {
	dx := cur[0] - goal[0]
	dy := cur[1] - goal[1]
	return math.Sqrt(dx*dx + dy*dy)
}

func (p *StraightLine) NextCommand(cur, _, goal, _ [3]float64) (Command, error) {
	if p.distance(cur, goal) <= p.GoalRadius {
		return ReachGoal, nil
	}
	return LaneFollow, nil
}

func (p *StraightLine) ShortestPathDistance(cur, _, goal, _ [3]float64) (float64, error) {
	return p.distance(cur, goal), nil
}
