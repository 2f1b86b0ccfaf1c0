package core

import "context"

// AgentID identifies one controllable actor in the environment.
type AgentID string

// DoneAll is the aggregate key of a done map. It is set by the
// environment and is true iff every tracked agent is done.
const DoneAll AgentID = "__all__"

// Observation is the agent-facing view of the world after a step. Its
// concrete type is owned by the environment implementation.
type Observation interface{}

type Action interface {
	Hash() string
}

type (
	ObservationMap map[AgentID]Observation
	ActionMap      map[AgentID]Action
	RewardMap      map[AgentID]float64
	DoneMap        map[AgentID]bool
	InfoMap        map[AgentID]interface{}
)

// StepResult carries the outcome of one Step call for every agent the
// action map addressed, plus the DoneAll aggregate in Dones.
type StepResult struct {
	Observations ObservationMap
	Rewards      RewardMap
	Dones        DoneMap
	Infos        InfoMap
}

func (r *StepResult) AllDone() bool {
	return r.Dones[DoneAll]
}

// Environment is a turn-based multi-agent environment. Reset returns
// one observation per configured agent; Step applies one action per
// addressed agent and reports the resulting observation, reward, done
// flag and raw info for each of them.
type Environment interface {
	Reset() (ObservationMap, error)
	Step(ActionMap, *StepContext) (*StepResult, error)
}

type EpisodeContext struct {
	Context       context.Context
	Episode       int
	Horizon       int
	Run           int
	StartTimeStep int

	Trace *Trace

	err     error
	timeout bool
	doneCh  chan struct{}
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		doneCh:  make(chan struct{}),
	}
}

func (e *EpisodeContext) Error(err error) {
	e.err = err
	close(e.doneCh)
}

func (e *EpisodeContext) Timeout() {
	e.timeout = true
	close(e.doneCh)
}

func (e *EpisodeContext) Finish() {
	close(e.doneCh)
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

func (e *EpisodeContext) IsTimeout() bool {
	return e.timeout
}

func (e *EpisodeContext) Done() <-chan struct{} {
	return e.doneCh
}

type StepContext struct {
	Step int
	*EpisodeContext
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given instance number.
	NewEnvironment(int) Environment
}
