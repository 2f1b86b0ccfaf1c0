package core

import "sync"

type Step struct {
	Observations ObservationMap
	Actions      ActionMap
	Rewards      RewardMap
	Dones        DoneMap
	Infos        InfoMap

	Misc map[string]interface{}
}

type Trace struct {
	mtx   *sync.Mutex
	steps []*Step
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]*Step, 0),
		mtx:   &sync.Mutex{},
	}
}

func (t *Trace) AddStep(s *Step) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.steps[i]
}

func (t *Trace) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.steps)
}

func (t *Trace) Last() *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// TotalRewards sums the per-agent rewards over every step of the trace.
func (t *Trace) TotalRewards() RewardMap {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	totals := make(RewardMap)
	for _, s := range t.steps {
		for id, r := range s.Rewards {
			totals[id] += r
		}
	}
	return totals
}
