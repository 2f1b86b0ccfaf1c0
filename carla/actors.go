package carla

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/sim"
)

// actorState is the registry entry for one agent id: the live
// simulator handles plus the episode bookkeeping.
type actorState struct {
	id     core.AgentID
	config ActorConfig
	reward RewardFunc

	actor     sim.ActorID
	camera    sim.SensorID
	collision sim.SensorID
	lane      sim.SensorID

	scenario   Scenario
	startPos   [3]float64
	endPos     [3]float64
	startCoord [2]int
	endCoord   [2]int

	episodeID string
	steps     int
	done      bool

	prevMeasurement *Measurement
	prevAction      core.Action
	prevReward      float64
	// nil until the first reward, then accumulates
	totalReward *float64

	mlog *measurementLog
}

// sensors lists the attached sensor handles, cameras first.
func (s *actorState) sensors() []sim.SensorID {
	var out []sim.SensorID
	for _, id := range []sim.SensorID{s.camera, s.collision, s.lane} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// accumulate folds a step reward into the running total, initializing
// the total on the first call of an episode.
func (s *actorState) accumulate(reward float64) float64 {
	if s.totalReward == nil {
		total := reward
		s.totalReward = &total
	} else {
		*s.totalReward += reward
	}
	return *s.totalReward
}

// resetEpisodeCounters clears the per-episode bookkeeping. The episode
// id is untouched; hard respawns assign a fresh one separately.
func (s *actorState) resetEpisodeCounters() {
	s.steps = 0
	s.done = false
	s.prevMeasurement = nil
	s.prevAction = nil
	s.prevReward = 0
	s.totalReward = nil
}

// newEpisodeID is unique per hard reset: a wall-clock prefix for humans
// and a random suffix for uniqueness within the same second.
func newEpisodeID() string {
	return fmt.Sprintf("%s_%s",
		time.Now().Format("2006-01-02_15-04-05"),
		uuid.NewString()[:8])
}
