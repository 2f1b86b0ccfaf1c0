package analysis

import (
	"fmt"
	"sync"

	"github.com/drivesim/carla-rl-env/carla"
	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/planner"
)

// SafetyDataSet counts how episodes ended.
type SafetyDataSet struct {
	Episodes     int
	Collisions   int
	GoalsReached int
}

// SafetyAnalyzer classifies each episode by its final measurements:
// did any agent collide, did any agent reach its goal.
type SafetyAnalyzer struct {
	lock *sync.Mutex
	data SafetyDataSet
}

var _ core.Analyzer = &SafetyAnalyzer{}

func NewSafetyAnalyzer() *SafetyAnalyzer {
	return &SafetyAnalyzer{lock: new(sync.Mutex)}
}

func (a *SafetyAnalyzer) Analyze(_ *core.EpisodeContext, trace *core.Trace) {
	last := trace.Last()
	if last == nil {
		return
	}
	collided := false
	reached := false
	for _, info := range last.Infos {
		m, ok := info.(*carla.Measurement)
		if !ok {
			continue
		}
		if m.Collided() {
			collided = true
		}
		if m.NextCommand == planner.ReachGoal {
			reached = true
		}
	}
	a.lock.Lock()
	a.data.Episodes++
	if collided {
		a.data.Collisions++
	}
	if reached {
		a.data.GoalsReached++
	}
	a.lock.Unlock()
}

func (a *SafetyAnalyzer) DataSet() core.DataSet {
	a.lock.Lock()
	defer a.lock.Unlock()
	data := a.data
	return &data
}

func (a *SafetyAnalyzer) Reset() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.data = SafetyDataSet{}
}

type SafetyAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &SafetyAnalyzerConstructor{}

func (c *SafetyAnalyzerConstructor) NewAnalyzer(_ int) core.Analyzer {
	return NewSafetyAnalyzer()
}

// SafetyComparator prints collision and goal rates per experiment.
type SafetyComparator struct {
	run int
}

var _ core.Comparator = &SafetyComparator{}

func NewSafetyComparator(run int) *SafetyComparator {
	return &SafetyComparator{run: run}
}

func (c *SafetyComparator) Compare(names []string, datasets []core.DataSet) {
	for i, name := range names {
		if datasets[i] == nil {
			fmt.Printf("[run %d] %s: no data\n", c.run, name)
			continue
		}
		ds, ok := datasets[i].(*SafetyDataSet)
		if !ok || ds.Episodes == 0 {
			fmt.Printf("[run %d] %s: no completed episodes\n", c.run, name)
			continue
		}
		fmt.Printf("[run %d] %s: episodes=%d collisions=%d (%.0f%%) goals=%d (%.0f%%)\n",
			c.run, name, ds.Episodes,
			ds.Collisions, 100*float64(ds.Collisions)/float64(ds.Episodes),
			ds.GoalsReached, 100*float64(ds.GoalsReached)/float64(ds.Episodes))
	}
}

type SafetyComparatorConstructor struct{}

var _ core.ComparatorConstructor = &SafetyComparatorConstructor{}

func (c *SafetyComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewSafetyComparator(run)
}
