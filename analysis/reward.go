package analysis

import (
	"fmt"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/drivesim/carla-rl-env/core"
	"github.com/drivesim/carla-rl-env/util"
)

// RewardDataSet holds one team-total reward per completed episode.
type RewardDataSet struct {
	Totals []float64
}

// RewardAnalyzer sums the per-agent rewards of each episode into one
// team total.
type RewardAnalyzer struct {
	lock   *sync.Mutex
	totals []float64
}

var _ core.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	return &RewardAnalyzer{
		lock:   new(sync.Mutex),
		totals: make([]float64, 0),
	}
}

func (a *RewardAnalyzer) Analyze(_ *core.EpisodeContext, trace *core.Trace) {
	if trace.Len() == 0 {
		return
	}
	total := 0.0
	for _, r := range trace.TotalRewards() {
		total += r
	}
	a.lock.Lock()
	a.totals = append(a.totals, total)
	a.lock.Unlock()
}

func (a *RewardAnalyzer) DataSet() core.DataSet {
	a.lock.Lock()
	defer a.lock.Unlock()
	totals := make([]float64, len(a.totals))
	copy(totals, a.totals)
	return &RewardDataSet{Totals: totals}
}

func (a *RewardAnalyzer) Reset() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.totals = make([]float64, 0)
}

type RewardAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &RewardAnalyzerConstructor{}

func (c *RewardAnalyzerConstructor) NewAnalyzer(_ int) core.Analyzer {
	return NewRewardAnalyzer()
}

// RewardComparator prints the reward mean and spread of each
// experiment side by side and, when a save path is set, dumps the raw
// datasets to disk.
type RewardComparator struct {
	run      int
	savePath string
}

var _ core.Comparator = &RewardComparator{}

func NewRewardComparator(run int, savePath string) *RewardComparator {
	return &RewardComparator{run: run, savePath: savePath}
}

func (c *RewardComparator) Compare(names []string, datasets []core.DataSet) {
	byName := make(map[string]*RewardDataSet)
	for i, name := range names {
		if datasets[i] == nil {
			fmt.Printf("[run %d] %s: no data\n", c.run, name)
			continue
		}
		ds, ok := datasets[i].(*RewardDataSet)
		if !ok || len(ds.Totals) == 0 {
			fmt.Printf("[run %d] %s: no completed episodes\n", c.run, name)
			continue
		}
		byName[name] = ds
		mean, std := stat.MeanStdDev(ds.Totals, nil)
		fmt.Printf("[run %d] %s: episodes=%d reward mean=%.2f std=%.2f\n",
			c.run, name, len(ds.Totals), mean, std)
	}
	if c.savePath != "" && len(byName) > 0 {
		path := filepath.Join(c.savePath, fmt.Sprintf("rewards_run%d.json", c.run))
		if err := util.SaveJson(path, byName); err != nil {
			fmt.Printf("[run %d] failed to save reward datasets: %v\n", c.run, err)
		}
	}
}

type RewardComparatorConstructor struct {
	SavePath string
}

var _ core.ComparatorConstructor = &RewardComparatorConstructor{}

func (c *RewardComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewRewardComparator(run, c.SavePath)
}
